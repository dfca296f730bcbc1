// Package payout 打款服务单元测试
package payout

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tapifyhq/tapify-backend/internal/common/errors"
	"github.com/tapifyhq/tapify-backend/internal/models"
	"github.com/tapifyhq/tapify-backend/internal/repository"
	"github.com/tapifyhq/tapify-backend/pkg/dwolla"
)

// fakeTransferClient 记录转账请求的测试替身
type fakeTransferClient struct {
	requests []*dwolla.TransferRequest
	failAt   int // 第 N 笔转账返回错误，0 表示不失败
}

func (f *fakeTransferClient) CreateTransfer(ctx context.Context, req *dwolla.TransferRequest) (string, error) {
	f.requests = append(f.requests, req)
	if f.failAt > 0 && len(f.requests) == f.failAt {
		return "", fmt.Errorf("模拟通道故障")
	}
	return fmt.Sprintf("transfer-%d", len(f.requests)), nil
}

func setupPayoutTest(t *testing.T) (*gorm.DB, *fakeTransferClient, *Service) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.PayoutJob{},
		&models.Order{},
		&models.Business{},
		&models.Retailer{},
		&models.Sourcer{},
		&models.UID{},
	))

	transfers := &fakeTransferClient{}
	svc := NewService(
		db,
		repository.NewPayoutJobRepository(db),
		repository.NewRetailerRepository(db),
		repository.NewBusinessRepository(db),
		repository.NewSourcerRepository(db),
		transfers,
		"https://api-sandbox.dwolla.com/funding-sources/master",
	)
	return db, transfers, svc
}

func strPtr(s string) *string { return &s }

func seedPayoutJob(t *testing.T, db *gorm.DB, withSourcer, retailerFunded bool) *models.PayoutJob {
	t.Helper()

	business := &models.Business{
		Name:             "品牌方",
		ShopDomain:       fmt.Sprintf("brand-%v-%v.myshopify.com", withSourcer, retailerFunded),
		FundingSourceURL: strPtr("https://api-sandbox.dwolla.com/funding-sources/vendor"),
	}
	require.NoError(t, db.Create(business).Error)

	retailer := &models.Retailer{Name: "门店"}
	if retailerFunded {
		retailer.FundingSourceURL = strPtr("https://api-sandbox.dwolla.com/funding-sources/retailer")
	}
	require.NoError(t, db.Create(retailer).Error)

	job := &models.PayoutJob{
		BusinessID:  business.ID,
		RetailerID:  &retailer.ID,
		TotalAmount: 100.00,
		RetailerCut: 20.00,
		Status:      models.PayoutStatusPending,
	}
	if withSourcer {
		sourcer := &models.Sourcer{
			Name:             "引荐人",
			Email:            fmt.Sprintf("sourcer-%v@example.com", retailerFunded),
			FundingSourceURL: strPtr("https://api-sandbox.dwolla.com/funding-sources/sourcer"),
		}
		require.NoError(t, db.Create(sourcer).Error)
		job.SourcerID = &sourcer.ID
		job.VendorCut = 60.00
		job.SourcerCut = 10.00
		job.TapifyCut = 10.00
	} else {
		job.VendorCut = 80.00
	}

	order := &models.Order{ExternalID: fmt.Sprintf("po-%v-%v", withSourcer, retailerFunded), BusinessID: business.ID, TotalAmount: 100}
	require.NoError(t, db.Create(order).Error)
	job.OrderID = order.ID
	require.NoError(t, db.Create(job).Error)
	return job
}

func TestService_Process(t *testing.T) {
	t.Run("四方任务按商家零售商引荐人顺序打款", func(t *testing.T) {
		db, transfers, svc := setupPayoutTest(t)
		job := seedPayoutJob(t, db, true, true)

		result, err := svc.Process(context.Background(), job.ID)
		require.NoError(t, err)
		assert.Len(t, result.Transfers, 3)

		require.Len(t, transfers.requests, 3)
		assert.Contains(t, transfers.requests[0].DestinationFundingURL, "vendor")
		assert.Contains(t, transfers.requests[1].DestinationFundingURL, "retailer")
		assert.Contains(t, transfers.requests[2].DestinationFundingURL, "sourcer")
		assert.Equal(t, "60.00", transfers.requests[0].Amount)
		assert.Equal(t, "20.00", transfers.requests[1].Amount)
		assert.Equal(t, "10.00", transfers.requests[2].Amount)

		got, err := repository.NewPayoutJobRepository(db).GetByID(context.Background(), job.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PayoutStatusPaid, got.Status)
		assert.NotNil(t, got.PaidAt)
		require.NotNil(t, got.SourcerTransferID)
	})

	t.Run("幂等键固定可重试", func(t *testing.T) {
		db, transfers, svc := setupPayoutTest(t)
		job := seedPayoutJob(t, db, false, true)

		_, err := svc.Process(context.Background(), job.ID)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("payout-%d-vendor", job.ID), transfers.requests[0].IdempotencyKey)
	})

	t.Run("零售商未绑卡时跳过其转账", func(t *testing.T) {
		db, transfers, svc := setupPayoutTest(t)
		job := seedPayoutJob(t, db, false, false)

		result, err := svc.Process(context.Background(), job.ID)
		require.NoError(t, err)
		assert.Len(t, result.Transfers, 1)
		assert.Contains(t, transfers.requests[0].DestinationFundingURL, "vendor")

		got, _ := repository.NewPayoutJobRepository(db).GetByID(context.Background(), job.ID)
		assert.Equal(t, models.PayoutStatusPaid, got.Status)
		assert.Nil(t, got.RetailerTransferID)
	})

	t.Run("商家未绑卡直接中止", func(t *testing.T) {
		db, transfers, svc := setupPayoutTest(t)
		job := seedPayoutJob(t, db, false, true)
		require.NoError(t, db.Model(&models.Business{}).Where("id = ?", job.BusinessID).
			Update("funding_source_url", nil).Error)

		_, err := svc.Process(context.Background(), job.ID)
		assert.ErrorIs(t, err, errors.ErrVendorFundingAbsent)
		assert.Empty(t, transfers.requests)

		got, _ := repository.NewPayoutJobRepository(db).GetByID(context.Background(), job.ID)
		assert.Equal(t, models.PayoutStatusPending, got.Status)
	})

	t.Run("中途转账失败任务保持待执行", func(t *testing.T) {
		db, transfers, svc := setupPayoutTest(t)
		transfers.failAt = 2
		job := seedPayoutJob(t, db, true, true)

		_, err := svc.Process(context.Background(), job.ID)
		require.Error(t, err)
		appErr := errors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, errors.ErrTransferFailed.Code, appErr.Code)

		got, _ := repository.NewPayoutJobRepository(db).GetByID(context.Background(), job.ID)
		assert.Equal(t, models.PayoutStatusPending, got.Status)
		assert.Nil(t, got.PaidAt)
	})

	t.Run("非待执行状态拒绝打款", func(t *testing.T) {
		db, _, svc := setupPayoutTest(t)
		job := seedPayoutJob(t, db, false, true)
		require.NoError(t, db.Model(&models.PayoutJob{}).Where("id = ?", job.ID).
			Update("status", models.PayoutStatusPaid).Error)

		_, err := svc.Process(context.Background(), job.ID)
		assert.ErrorIs(t, err, errors.ErrPayoutJobNotPending)
	})

	t.Run("任务不存在", func(t *testing.T) {
		_, _, svc := setupPayoutTest(t)
		_, err := svc.Process(context.Background(), 9999)
		assert.ErrorIs(t, err, errors.ErrPayoutJobNotFound)
	})
}

func TestService_HandleTransferFailed(t *testing.T) {
	db, _, svc := setupPayoutTest(t)
	ctx := context.Background()
	job := seedPayoutJob(t, db, false, true)

	vendorTransfer := "transfer-dead"
	require.NoError(t, db.Model(&models.PayoutJob{}).Where("id = ?", job.ID).Updates(map[string]interface{}{
		"status":             models.PayoutStatusPaid,
		"vendor_transfer_id": vendorTransfer,
	}).Error)

	t.Run("按转账单号批量置失败", func(t *testing.T) {
		affected, err := svc.HandleTransferFailed(ctx, vendorTransfer)
		require.NoError(t, err)
		assert.Equal(t, int64(1), affected)

		got, _ := repository.NewPayoutJobRepository(db).GetByID(ctx, job.ID)
		assert.Equal(t, models.PayoutStatusFailed, got.Status)
		require.NotNil(t, got.FailureReason)
		assert.Contains(t, *got.FailureReason, vendorTransfer)
	})

	t.Run("未知转账单号不影响任何任务", func(t *testing.T) {
		affected, err := svc.HandleTransferFailed(ctx, "transfer-ghost")
		require.NoError(t, err)
		assert.Equal(t, int64(0), affected)
	})
}

func TestJobService_EnsureJob(t *testing.T) {
	db, _, _ := setupPayoutTest(t)
	ctx := context.Background()

	jobRepo := repository.NewPayoutJobRepository(db)
	retailerRepo := repository.NewRetailerRepository(db)
	uidRepo := repository.NewUIDRepository(db)
	calc := NewCalculator(testPayoutConfig())
	svc := NewJobService(jobRepo, retailerRepo, uidRepo, calc)

	sourcerID := int64(0)
	sourcer := &models.Sourcer{Name: "引荐人", Email: "s@example.com"}
	require.NoError(t, db.Create(sourcer).Error)
	sourcerID = sourcer.ID

	retailer := &models.Retailer{Name: "门店", SourcerID: &sourcerID}
	require.NoError(t, db.Create(retailer).Error)

	t.Run("按引荐渊源计算四方分成", func(t *testing.T) {
		order := &models.Order{ExternalID: "job-1", BusinessID: 1, RetailerID: &retailer.ID, TotalAmount: 100}
		require.NoError(t, db.Create(order).Error)

		job, err := svc.EnsureJob(ctx, order)
		require.NoError(t, err)
		require.NotNil(t, job)
		assert.Equal(t, 20.00, job.RetailerCut)
		assert.Equal(t, 60.00, job.VendorCut)
		assert.Equal(t, 10.00, job.SourcerCut)
		assert.Equal(t, 10.00, job.TapifyCut)
		require.NotNil(t, job.SourcerID)
		assert.Equal(t, sourcerID, *job.SourcerID)
		assert.Equal(t, models.PayoutStatusPending, job.Status)
	})

	t.Run("重复调用不会产生第二个任务", func(t *testing.T) {
		order, err := repository.NewOrderRepository(db).GetByExternalID(ctx, "job-1")
		require.NoError(t, err)

		job, err := svc.EnsureJob(ctx, order)
		require.NoError(t, err)
		require.NotNil(t, job)

		var count int64
		db.Model(&models.PayoutJob{}).Where("order_id = ?", order.ID).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("零金额订单跳过", func(t *testing.T) {
		order := &models.Order{ExternalID: "job-zero", BusinessID: 1, RetailerID: &retailer.ID, TotalAmount: 0}
		require.NoError(t, db.Create(order).Error)

		job, err := svc.EnsureJob(ctx, order)
		require.NoError(t, err)
		assert.Nil(t, job)
	})

	t.Run("未归因订单跳过", func(t *testing.T) {
		order := &models.Order{ExternalID: "job-unattr", BusinessID: 1, TotalAmount: 50}
		require.NoError(t, db.Create(order).Error)

		job, err := svc.EnsureJob(ctx, order)
		require.NoError(t, err)
		assert.Nil(t, job)
	})

	t.Run("优先展示架订单任务留待人工对账", func(t *testing.T) {
		order := &models.Order{ExternalID: "job-priority", BusinessID: 1, RetailerID: &retailer.ID, TotalAmount: 75, PriorityDisplay: true}
		require.NoError(t, db.Create(order).Error)

		job, err := svc.EnsureJob(ctx, order)
		require.NoError(t, err)
		require.NotNil(t, job)
		assert.Equal(t, models.PayoutStatusPriorityDisplay, job.Status)
	})

	t.Run("未认领标识码归因的订单打款挂起", func(t *testing.T) {
		ref := "TAPHOLD01"
		require.NoError(t, db.Create(&models.UID{UID: ref, RetailerID: &retailer.ID}).Error)
		order := &models.Order{ExternalID: "job-hold", BusinessID: 1, RetailerID: &retailer.ID, TotalAmount: 100, UIDRef: &ref}
		require.NoError(t, db.Create(order).Error)

		job, err := svc.EnsureJob(ctx, order)
		require.NoError(t, err)
		require.NotNil(t, job)
		assert.Equal(t, models.PayoutStatusPriorityDisplay, job.Status)
	})

	t.Run("已认领标识码归因的订单正常待执行", func(t *testing.T) {
		ref := "TAPHOLD02"
		require.NoError(t, db.Create(&models.UID{UID: ref, RetailerID: &retailer.ID, IsClaimed: true}).Error)
		order := &models.Order{ExternalID: "job-claimed", BusinessID: 1, RetailerID: &retailer.ID, TotalAmount: 100, UIDRef: &ref}
		require.NoError(t, db.Create(order).Error)

		job, err := svc.EnsureJob(ctx, order)
		require.NoError(t, err)
		require.NotNil(t, job)
		assert.Equal(t, models.PayoutStatusPending, job.Status)
	})
}
