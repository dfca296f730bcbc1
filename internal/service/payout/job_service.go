package payout

import (
	"context"

	"gorm.io/gorm"

	"github.com/tapifyhq/tapify-backend/internal/common/errors"
	"github.com/tapifyhq/tapify-backend/internal/common/logger"
	"github.com/tapifyhq/tapify-backend/internal/common/metrics"
	"github.com/tapifyhq/tapify-backend/internal/models"
	"github.com/tapifyhq/tapify-backend/internal/repository"

	"go.uber.org/zap"
)

// JobService 分账任务创建服务
type JobService struct {
	jobRepo      *repository.PayoutJobRepository
	retailerRepo *repository.RetailerRepository
	uidRepo      *repository.UIDRepository
	calculator   *Calculator
}

// NewJobService 创建分账任务服务
func NewJobService(
	jobRepo *repository.PayoutJobRepository,
	retailerRepo *repository.RetailerRepository,
	uidRepo *repository.UIDRepository,
	calculator *Calculator,
) *JobService {
	return &JobService{
		jobRepo:      jobRepo,
		retailerRepo: retailerRepo,
		uidRepo:      uidRepo,
		calculator:   calculator,
	}
}

// EnsureJob 为订单确保分账任务存在，可重复调用
//
// 订单金额为零或缺少归因零售商/商家时静默跳过，只记日志。
// 购买了优先展示架、或经未认领标识码归因的订单任务直接置为
// priority_display，打款挂起留待人工对账。
func (s *JobService) EnsureJob(ctx context.Context, order *models.Order) (*models.PayoutJob, error) {
	if order.TotalAmount <= 0 {
		logger.Info("订单金额为零，跳过分账任务", zap.String("external_id", order.ExternalID))
		return nil, nil
	}
	if order.RetailerID == nil || order.BusinessID <= 0 {
		logger.Warn("订单未归因，跳过分账任务",
			zap.String("external_id", order.ExternalID),
			zap.Int64("order_id", order.ID))
		return nil, nil
	}

	retailer, err := s.retailerRepo.GetByID(ctx, *order.RetailerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			logger.Warn("归因零售商不存在，跳过分账任务",
				zap.Int64("retailer_id", *order.RetailerID))
			return nil, nil
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	split := s.calculator.Calculate(order.TotalAmount, retailer.HasSourcer())

	status := models.PayoutStatusPending
	if order.PriorityDisplay || s.viaUnclaimedUID(ctx, order) {
		status = models.PayoutStatusPriorityDisplay
	}

	job := &models.PayoutJob{
		OrderID:     order.ID,
		BusinessID:  order.BusinessID,
		RetailerID:  order.RetailerID,
		SourcerID:   retailer.SourcerID,
		TotalAmount: order.TotalAmount,
		RetailerCut: split.RetailerCut,
		VendorCut:   split.VendorCut,
		SourcerCut:  split.SourcerCut,
		TapifyCut:   split.TapifyCut,
		Status:      status,
	}

	inserted, err := s.jobRepo.CreateIfAbsent(ctx, job)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if !inserted {
		return s.jobRepo.GetByOrderID(ctx, order.ID)
	}

	metrics.Get().RecordPayoutJob(status)
	logger.Info("创建分账任务",
		zap.Int64("order_id", order.ID),
		zap.Int64("job_id", job.ID),
		zap.String("status", status),
		zap.Float64("total", order.TotalAmount))
	return job, nil
}

// viaUnclaimedUID 订单是否经未认领标识码归因
func (s *JobService) viaUnclaimedUID(ctx context.Context, order *models.Order) bool {
	if order.UIDRef == nil || *order.UIDRef == "" {
		return false
	}
	uid, err := s.uidRepo.GetByUID(ctx, *order.UIDRef)
	if err != nil {
		return false
	}
	return !uid.IsClaimed
}
