package payout

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
	"github.com/tapifyhq/tapify-backend/pkg/dwolla"

	"go.uber.org/zap"
)

// TransferClient 支付通道转账接口
type TransferClient interface {
	CreateTransfer(ctx context.Context, req *dwolla.TransferRequest) (string, error)
}

// 转账方
const (
	PartyVendor   = "vendor"
	PartyRetailer = "retailer"
	PartySourcer  = "sourcer"
)

// Service 分账打款服务
type Service struct {
	db                  *gorm.DB
	jobRepo             *repository.PayoutJobRepository
	retailerRepo        *repository.RetailerRepository
	businessRepo        *repository.BusinessRepository
	sourcerRepo         *repository.SourcerRepository
	transfers           TransferClient
	masterFundingSource string
}

// NewService 创建分账打款服务
func NewService(
	db *gorm.DB,
	jobRepo *repository.PayoutJobRepository,
	retailerRepo *repository.RetailerRepository,
	businessRepo *repository.BusinessRepository,
	sourcerRepo *repository.SourcerRepository,
	transfers TransferClient,
	masterFundingSource string,
) *Service {
	return &Service{
		db:                  db,
		jobRepo:             jobRepo,
		retailerRepo:        retailerRepo,
		businessRepo:        businessRepo,
		sourcerRepo:         sourcerRepo,
		transfers:           transfers,
		masterFundingSource: masterFundingSource,
	}
}

// ProcessResult 打款结果
type ProcessResult struct {
	JobID     int64    `json:"job_id"`
	Transfers []string `json:"transfers"`
}

// transferPlan 单方打款计划
type transferPlan struct {
	party      string
	amount     float64
	fundingURL string
}

// Process 执行一笔待处理的分账任务
//
// 打款顺序固定为商家、零售商、引荐人，平台留成不出账。
// 任一笔转账失败则整体失败，任务保持 pending 等待重试；
// 幂等键按任务加转账方生成，重试不会在通道侧产生重复转账。
func (s *Service) Process(ctx context.Context, jobID int64) (*ProcessResult, error) {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPayoutJobNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if !job.IsPending() {
		return nil, errors.ErrPayoutJobNotPending
	}

	plans, err := s.buildPlans(ctx, job)
	if err != nil {
		return nil, err
	}

	transferIDs := make(map[string]string, len(plans))
	var issued []string
	for _, plan := range plans {
		transferID, err := s.transfers.CreateTransfer(ctx, &dwolla.TransferRequest{
			SourceFundingURL:      s.masterFundingSource,
			DestinationFundingURL: plan.fundingURL,
			Amount:                utils.FormatAmount(plan.amount),
			IdempotencyKey:        fmt.Sprintf("payout-%d-%s", job.ID, plan.party),
		})
		if err != nil {
			metrics.Get().RecordTransfer(plan.party, "error", plan.amount)
			logger.Error("转账失败，任务保持待执行",
				zap.Int64("job_id", job.ID),
				zap.String("party", plan.party),
				zap.Strings("issued", issued),
				zap.Error(err))
			return nil, errors.ErrTransferFailed.WithError(err)
		}
		metrics.Get().RecordTransfer(plan.party, "success", plan.amount)
		transferIDs[plan.party] = transferID
		issued = append(issued, transferID)
	}

	vendorID := transferIDFor(transferIDs, PartyVendor)
	retailerID := transferIDFor(transferIDs, PartyRetailer)
	sourcerID := transferIDFor(transferIDs, PartySourcer)
	if err := s.jobRepo.MarkPaid(ctx, job.ID, vendorID, retailerID, sourcerID); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	metrics.Get().RecordPayoutJob(models.PayoutStatusPaid)
	logger.Info("分账任务打款完成",
		zap.Int64("job_id", job.ID),
		zap.Int("transfers", len(issued)))
	return &ProcessResult{JobID: job.ID, Transfers: issued}, nil
}

// buildPlans 按固定顺序构建打款计划，商家收款账户缺失直接中止
func (s *Service) buildPlans(ctx context.Context, job *models.PayoutJob) ([]transferPlan, error) {
	business, err := s.businessRepo.GetByID(ctx, job.BusinessID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrBusinessNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if !business.HasFundingSource() {
		return nil, errors.ErrVendorFundingAbsent
	}

	var plans []transferPlan
	if job.VendorCut > 0 {
		plans = append(plans, transferPlan{
			party:      PartyVendor,
			amount:     job.VendorCut,
			fundingURL: *business.FundingSourceURL,
		})
	}

	if job.RetailerID != nil && job.RetailerCut > 0 {
		retailer, err := s.retailerRepo.GetByID(ctx, *job.RetailerID)
		if err != nil && err != gorm.ErrRecordNotFound {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		if retailer != nil && retailer.HasFundingSource() {
			plans = append(plans, transferPlan{
				party:      PartyRetailer,
				amount:     job.RetailerCut,
				fundingURL: *retailer.FundingSourceURL,
			})
		}
	}

	if job.SourcerID != nil && job.SourcerCut > 0 {
		sourcer, err := s.sourcerRepo.GetByID(ctx, *job.SourcerID)
		if err != nil && err != gorm.ErrRecordNotFound {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		if sourcer != nil && sourcer.HasFundingSource() {
			plans = append(plans, transferPlan{
				party:      PartySourcer,
				amount:     job.SourcerCut,
				fundingURL: *sourcer.FundingSourceURL,
			})
		}
	}

	return plans, nil
}

// HandleTransferFailed 支付通道回报转账失败，批量置失败
func (s *Service) HandleTransferFailed(ctx context.Context, transferID string) (int64, error) {
	jobs, err := s.jobRepo.FindByTransferID(ctx, transferID)
	if err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}
	if len(jobs) == 0 {
		return 0, nil
	}

	ids := make([]int64, 0, len(jobs))
	for _, job := range jobs {
		ids = append(ids, job.ID)
	}
	affected, err := s.jobRepo.MarkFailed(ctx, ids, "transfer_failed: "+transferID)
	if err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}

	metrics.Get().RecordPayoutJob(models.PayoutStatusFailed)
	logger.Warn("转账失败回调，批量置失败",
		zap.String("transfer_id", transferID),
		zap.Int64("affected", affected))
	return affected, nil
}

// transferIDFor 取某一方的转账单号
func transferIDFor(ids map[string]string, party string) *string {
	if id, ok := ids[party]; ok {
		return &id
	}
	return nil
}
