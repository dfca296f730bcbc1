package webhook

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"github.com/tapifyhq/tapify-backend/internal/common/crypto"
	"github.com/tapifyhq/tapify-backend/internal/common/errors"
	"github.com/tapifyhq/tapify-backend/internal/common/logger"
	"github.com/tapifyhq/tapify-backend/internal/common/utils"
	"github.com/tapifyhq/tapify-backend/internal/repository"
	"github.com/tapifyhq/tapify-backend/internal/service/payout"

	"go.uber.org/zap"
)

// TriggerService 数据库行级触发器回调处理
type TriggerService struct {
	orderRepo       *repository.OrderRepository
	uidRepo         *repository.UIDRepository
	scanRepo        *repository.ScanRepository
	leaderboardRepo *repository.LeaderboardRepository
	jobSvc          *payout.JobService
	secret          string
}

// NewTriggerService 创建触发器回调处理服务
func NewTriggerService(
	orderRepo *repository.OrderRepository,
	uidRepo *repository.UIDRepository,
	scanRepo *repository.ScanRepository,
	leaderboardRepo *repository.LeaderboardRepository,
	jobSvc *payout.JobService,
	secret string,
) *TriggerService {
	return &TriggerService{
		orderRepo:       orderRepo,
		uidRepo:         uidRepo,
		scanRepo:        scanRepo,
		leaderboardRepo: leaderboardRepo,
		jobSvc:          jobSvc,
		secret:          secret,
	}
}

// TriggerEvent 行级触发器事件
type TriggerEvent struct {
	Table  string          `json:"table" binding:"required"`
	Type   string          `json:"type" binding:"required"`
	Record json.RawMessage `json:"record"`
}

// VerifySecret 校验共享密钥
func (s *TriggerService) VerifySecret(secret string) error {
	if secret == "" || !crypto.SecureCompare(secret, s.secret) {
		return errors.ErrSignatureInvalid
	}
	return nil
}

// HandleEvent 处理一条行级触发事件，未订阅的表/类型直接忽略
func (s *TriggerService) HandleEvent(ctx context.Context, event *TriggerEvent) error {
	if event.Type != "INSERT" {
		return nil
	}
	switch event.Table {
	case "orders":
		return s.handleOrderInsert(ctx, event.Record)
	case "scans":
		return s.handleScanInsert(ctx, event.Record)
	default:
		return nil
	}
}

// handleOrderInsert 订单落库触发：确保分账任务存在并累计排行榜
func (s *TriggerService) handleOrderInsert(ctx context.Context, record json.RawMessage) error {
	var row struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(record, &row); err != nil || row.ID == 0 {
		return errors.ErrInvalidParams.WithError(err)
	}

	order, err := s.orderRepo.GetByID(ctx, row.ID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrOrderNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}

	if _, err := s.jobSvc.EnsureJob(ctx, order); err != nil {
		return err
	}

	if order.RetailerID != nil {
		if err := s.leaderboardRepo.AddOrder(ctx, utils.PeriodKey(order.CreatedAt), *order.RetailerID, order.TotalAmount); err != nil {
			logger.Warn("排行榜累计失败", zap.Int64("order_id", order.ID), zap.Error(err))
		}
	}
	return nil
}

// handleScanInsert 扫码落库触发：更新标识码轨迹并累计排行榜
func (s *TriggerService) handleScanInsert(ctx context.Context, record json.RawMessage) error {
	var row struct {
		ID        int64  `json:"id"`
		UID       string `json:"uid"`
		IP        string `json:"ip"`
		UserAgent string `json:"user_agent"`
	}
	if err := json.Unmarshal(record, &row); err != nil || row.UID == "" {
		return errors.ErrInvalidParams.WithError(err)
	}

	uid, err := s.uidRepo.GetByUID(ctx, row.UID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			logger.Warn("扫码触发命中未知标识码", zap.String("uid", row.UID))
			return nil
		}
		return errors.ErrDatabaseError.WithError(err)
	}

	if err := s.uidRepo.RecordScan(ctx, uid.ID, row.IP, row.UserAgent); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}

	if uid.RetailerID != nil {
		if err := s.leaderboardRepo.AddScan(ctx, utils.CurrentPeriod(), *uid.RetailerID); err != nil {
			logger.Warn("排行榜扫码累计失败", zap.String("uid", row.UID), zap.Error(err))
		}
	}
	return nil
}
