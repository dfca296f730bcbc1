// Package admin 运营后台服务
package admin

import (
	"context"

	"gorm.io/gorm"

	"github.com/tapifyhq/tapify-backend/internal/common/crypto"
	"github.com/tapifyhq/tapify-backend/internal/common/errors"
	"github.com/tapifyhq/tapify-backend/internal/common/jwt"
	"github.com/tapifyhq/tapify-backend/internal/common/logger"
	"github.com/tapifyhq/tapify-backend/internal/common/utils"
	"github.com/tapifyhq/tapify-backend/internal/models"
	"github.com/tapifyhq/tapify-backend/internal/repository"

	"go.uber.org/zap"
)

// Service 运营后台服务
type Service struct {
	adminRepo       *repository.AdminUserRepository
	uidRepo         *repository.UIDRepository
	retailerRepo    *repository.RetailerRepository
	businessRepo    *repository.BusinessRepository
	orderRepo       *repository.OrderRepository
	payoutJobRepo   *repository.PayoutJobRepository
	leaderboardRepo *repository.LeaderboardRepository
	jwtManager      *jwt.Manager
}

// NewService 创建运营后台服务
func NewService(
	adminRepo *repository.AdminUserRepository,
	uidRepo *repository.UIDRepository,
	retailerRepo *repository.RetailerRepository,
	businessRepo *repository.BusinessRepository,
	orderRepo *repository.OrderRepository,
	payoutJobRepo *repository.PayoutJobRepository,
	leaderboardRepo *repository.LeaderboardRepository,
	jwtManager *jwt.Manager,
) *Service {
	return &Service{
		adminRepo:       adminRepo,
		uidRepo:         uidRepo,
		retailerRepo:    retailerRepo,
		businessRepo:    businessRepo,
		orderRepo:       orderRepo,
		payoutJobRepo:   payoutJobRepo,
		leaderboardRepo: leaderboardRepo,
		jwtManager:      jwtManager,
	}
}

// LoginRequest 管理员登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResult 管理员登录结果
type LoginResult struct {
	AdminID  int64          `json:"admin_id"`
	Nickname string         `json:"nickname"`
	Token    *jwt.TokenPair `json:"token"`
}

// Login 管理员登录
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResult, error) {
	admin, err := s.adminRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPasswordError
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if admin.Status != models.AdminStatusActive {
		return nil, errors.ErrAccountDisabled
	}
	if !crypto.CheckPassword(req.Password, admin.PasswordHash) {
		return nil, errors.ErrPasswordError
	}

	pair, err := s.jwtManager.GenerateTokenPair(admin.ID, jwt.UserTypeAdmin, "admin")
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}
	if err := s.adminRepo.UpdateLastLogin(ctx, admin.ID); err != nil {
		logger.Warn("管理员登录时间更新失败", zap.Int64("admin_id", admin.ID), zap.Error(err))
	}
	return &LoginResult{AdminID: admin.ID, Nickname: admin.Nickname, Token: pair}, nil
}

// ProvisionUIDsRequest 批量开码请求
type ProvisionUIDsRequest struct {
	Count  int    `json:"count" binding:"required,min=1,max=500"`
	Prefix string `json:"prefix"`
}

// ProvisionUIDs 批量生成未认领标识码，供线下陈列架贴码
func (s *Service) ProvisionUIDs(ctx context.Context, req *ProvisionUIDsRequest) ([]string, error) {
	prefix := req.Prefix
	if prefix == "" {
		prefix = "TAP"
	}
	uids := make([]*models.UID, 0, req.Count)
	codes := make([]string, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		code := utils.GenerateUID(prefix, 10)
		uids = append(uids, &models.UID{UID: code})
		codes = append(codes, code)
	}
	if err := s.uidRepo.BatchCreate(ctx, uids); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	logger.Info("批量开码完成", zap.Int("count", len(codes)), zap.String("prefix", prefix))
	return codes, nil
}

// ListUIDs 分页查询标识码，可按认领状态过滤
func (s *Service) ListUIDs(ctx context.Context, page *utils.Pagination, claimed *bool) ([]*models.UID, int64, error) {
	page.Normalize()
	uids, total, err := s.uidRepo.List(ctx, page.GetOffset(), page.GetLimit(), claimed)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return uids, total, nil
}

// ListRetailers 分页查询零售商
func (s *Service) ListRetailers(ctx context.Context, page *utils.Pagination) ([]*models.Retailer, int64, error) {
	page.Normalize()
	retailers, total, err := s.retailerRepo.List(ctx, page.GetOffset(), page.GetLimit())
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return retailers, total, nil
}

// ListBusinesses 分页查询商户
func (s *Service) ListBusinesses(ctx context.Context, page *utils.Pagination) ([]*models.Business, int64, error) {
	page.Normalize()
	businesses, total, err := s.businessRepo.List(ctx, page.GetOffset(), page.GetLimit())
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return businesses, total, nil
}

// ListOrders 分页查询订单，可按零售商/商户过滤
func (s *Service) ListOrders(ctx context.Context, page *utils.Pagination, retailerID, businessID *int64) ([]*models.Order, int64, error) {
	page.Normalize()
	orders, total, err := s.orderRepo.List(ctx, page.GetOffset(), page.GetLimit(), retailerID, businessID)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return orders, total, nil
}

// ListPayoutJobs 分页查询分账任务，可按状态过滤
func (s *Service) ListPayoutJobs(ctx context.Context, page *utils.Pagination, status string) ([]*models.PayoutJob, int64, error) {
	page.Normalize()
	jobs, total, err := s.payoutJobRepo.List(ctx, page.GetOffset(), page.GetLimit(), status)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return jobs, total, nil
}

// Leaderboard 查询指定周期的零售商排行榜
func (s *Service) Leaderboard(ctx context.Context, period string, limit int) ([]*models.LeaderboardEntry, error) {
	if period == "" {
		period = utils.CurrentPeriod()
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	entries, err := s.leaderboardRepo.Top(ctx, period, limit)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return entries, nil
}
