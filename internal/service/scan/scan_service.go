// Package scan 扫码跳转服务
package scan

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/tapifyhq/tapify-backend/internal/common/errors"
	"github.com/tapifyhq/tapify-backend/internal/common/logger"
	"github.com/tapifyhq/tapify-backend/internal/common/metrics"
	"github.com/tapifyhq/tapify-backend/internal/common/utils"
	"github.com/tapifyhq/tapify-backend/internal/models"
	"github.com/tapifyhq/tapify-backend/internal/repository"

	"go.uber.org/zap"
)

// Service 扫码跳转服务
type Service struct {
	uidRepo         *repository.UIDRepository
	scanRepo        *repository.ScanRepository
	leaderboardRepo *repository.LeaderboardRepository
	claimBaseURL    string
}

// NewService 创建扫码跳转服务
func NewService(
	uidRepo *repository.UIDRepository,
	scanRepo *repository.ScanRepository,
	leaderboardRepo *repository.LeaderboardRepository,
	claimBaseURL string,
) *Service {
	return &Service{
		uidRepo:         uidRepo,
		scanRepo:        scanRepo,
		leaderboardRepo: leaderboardRepo,
		claimBaseURL:    claimBaseURL,
	}
}

// Visit 一次扫码访问
type Visit struct {
	UID       string
	IP        string
	UserAgent string
	Referer   string
}

// Redirect 扫码落地结果
type Redirect struct {
	Location string `json:"location"`
	Outcome  string `json:"outcome"`
}

// Resolve 解析一次扫码并给出跳转地址
//
// 未认领或缺少带货链接跳认领页，其余跳带货链接。
// 扫码记录与排行榜写入尽力而为，不阻塞跳转。
func (s *Service) Resolve(ctx context.Context, visit *Visit) (*Redirect, error) {
	if visit.UID == "" {
		return nil, errors.ErrInvalidParams.WithMessage("缺少标识码参数")
	}

	record, err := s.uidRepo.GetByUID(ctx, visit.UID)
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		// 未登记的标识码仍然跳认领页，避免流量损失
		s.recordScan(ctx, visit, models.ScanOutcomeUnknown)
		metrics.Get().RecordScan(models.ScanOutcomeUnknown)
		return &Redirect{
			Location: s.claimURL(visit.UID),
			Outcome:  models.ScanOutcomeUnknown,
		}, nil
	}

	outcome := models.ScanOutcomeAffiliate
	location := ""
	if record.AffiliateURL != nil {
		location = *record.AffiliateURL
	}
	if !record.IsClaimed || location == "" {
		outcome = models.ScanOutcomeClaim
		location = s.claimURL(visit.UID)
	}

	s.recordScan(ctx, visit, outcome)

	if err := s.uidRepo.RecordScan(ctx, record.ID, visit.IP, visit.UserAgent); err != nil {
		logger.Warn("标识码扫码轨迹更新失败", zap.String("uid", visit.UID), zap.Error(err))
	}
	if record.RetailerID != nil {
		if err := s.leaderboardRepo.AddScan(ctx, utils.CurrentPeriod(), *record.RetailerID); err != nil {
			logger.Warn("排行榜扫码累计失败", zap.Int64("retailer_id", *record.RetailerID), zap.Error(err))
		}
	}

	metrics.Get().RecordScan(outcome)
	return &Redirect{Location: location, Outcome: outcome}, nil
}

// recordScan 落一条扫码明细，失败只记日志
func (s *Service) recordScan(ctx context.Context, visit *Visit, outcome string) {
	scan := &models.Scan{
		UID:       visit.UID,
		Outcome:   outcome,
		IP:        visit.IP,
		UserAgent: visit.UserAgent,
		Referer:   visit.Referer,
	}
	if err := s.scanRepo.Create(ctx, scan); err != nil {
		logger.Warn("扫码明细写入失败", zap.String("uid", visit.UID), zap.Error(err))
	}
}

func (s *Service) claimURL(uid string) string {
	return fmt.Sprintf("%s/claim?u=%s", s.claimBaseURL, uid)
}
