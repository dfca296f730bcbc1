// Package webhook 订单回调处理单元测试
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tapifyhq/tapify-backend/internal/common/config"
	"github.com/tapifyhq/tapify-backend/internal/common/crypto"
	"github.com/tapifyhq/tapify-backend/internal/common/errors"
	"github.com/tapifyhq/tapify-backend/internal/models"
	"github.com/tapifyhq/tapify-backend/internal/repository"
	"github.com/tapifyhq/tapify-backend/internal/service/attribution"
	"github.com/tapifyhq/tapify-backend/internal/service/payout"
)

const testWebhookSecret = "whsec_test"

func setupShopifyTest(t *testing.T) (*gorm.DB, *ShopifyService) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.UID{},
		&models.Retailer{},
		&models.Business{},
		&models.Display{},
		&models.Order{},
		&models.PayoutJob{},
		&models.Scan{},
		&models.LeaderboardEntry{},
	))

	orderRepo := repository.NewOrderRepository(db)
	uidRepo := repository.NewUIDRepository(db)
	scanRepo := repository.NewScanRepository(db)
	retailerRepo := repository.NewRetailerRepository(db)
	businessRepo := repository.NewBusinessRepository(db)
	displayRepo := repository.NewDisplayRepository(db)
	leaderboardRepo := repository.NewLeaderboardRepository(db)
	jobRepo := repository.NewPayoutJobRepository(db)

	attributionSvc := attribution.NewService(db, retailerRepo, businessRepo, uidRepo)
	calc := payout.NewCalculator(&config.PayoutConfig{
		RetailerRate: 0.20, VendorRate: 0.60, SourcerRate: 0.10, TapifyRate: 0.10,
	})
	jobSvc := payout.NewJobService(jobRepo, retailerRepo, uidRepo, calc)

	svc := NewShopifyService(
		db, orderRepo, uidRepo, scanRepo, retailerRepo, businessRepo,
		displayRepo, leaderboardRepo, attributionSvc, jobSvc,
		&config.ShopifyConfig{WebhookSecret: testWebhookSecret},
	)
	return db, svc
}

func shopifyOrderBody(t *testing.T, orderID int64, total, ref string, lineTitles ...string) []byte {
	t.Helper()

	items := make([]map[string]interface{}, 0, len(lineTitles))
	for i, title := range lineTitles {
		items = append(items, map[string]interface{}{
			"id": i + 1, "title": title, "price": total, "quantity": 1,
		})
	}
	payload := map[string]interface{}{
		"id":           orderID,
		"order_number": orderID,
		"email":        "buyer@example.com",
		"total_price":  total,
		"currency":     "USD",
		"line_items":   items,
	}
	if ref != "" {
		payload["note_attributes"] = []map[string]string{{"name": "ref", "value": ref}}
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return body
}

func TestShopifyService_VerifySignature(t *testing.T) {
	_, svc := setupShopifyTest(t)
	body := []byte(`{"id":1}`)

	t.Run("签名正确通过", func(t *testing.T) {
		sig := crypto.ComputeHMACSHA256(testWebhookSecret, body)
		assert.NoError(t, svc.VerifySignature(body, sig))
	})

	t.Run("签名缺失拒绝", func(t *testing.T) {
		assert.ErrorIs(t, svc.VerifySignature(body, ""), errors.ErrSignatureInvalid)
	})

	t.Run("签名伪造拒绝", func(t *testing.T) {
		assert.ErrorIs(t, svc.VerifySignature(body, "Zm9yZ2Vk"), errors.ErrSignatureInvalid)
	})

	t.Run("空请求体拒绝", func(t *testing.T) {
		sig := crypto.ComputeHMACSHA256(testWebhookSecret, nil)
		assert.ErrorIs(t, svc.VerifySignature(nil, sig), errors.ErrSignatureInvalid)
	})
}

func TestShopifyService_ProcessOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("UID归因并创建分账任务", func(t *testing.T) {
		db, svc := setupShopifyTest(t)

		business := &models.Business{Name: "品牌方", ShopDomain: "brand.myshopify.com"}
		require.NoError(t, db.Create(business).Error)
		retailer := &models.Retailer{Name: "门店", BusinessID: &business.ID}
		require.NoError(t, db.Create(retailer).Error)
		require.NoError(t, db.Create(&models.UID{
			UID: "TAPORDER01", RetailerID: &retailer.ID, BusinessID: &business.ID, IsClaimed: true,
		}).Error)
		require.NoError(t, db.Create(&models.Scan{UID: "TAPORDER01"}).Error)

		body := shopifyOrderBody(t, 7001, "100.00", "TAPORDER01", "茶叶礼盒")
		require.NoError(t, svc.ProcessOrder(ctx, "brand.myshopify.com", body))

		order, err := repository.NewOrderRepository(db).GetByExternalID(ctx, "7001")
		require.NoError(t, err)
		assert.Equal(t, models.AttributedViaUID, order.AttributedVia)
		require.NotNil(t, order.RetailerID)
		assert.Equal(t, retailer.ID, *order.RetailerID)

		job, err := repository.NewPayoutJobRepository(db).GetByOrderID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, 20.00, job.RetailerCut)
		assert.Equal(t, 80.00, job.VendorCut)
		assert.Equal(t, models.PayoutStatusPending, job.Status)

		// 最近一次扫码被标记转化
		var scan models.Scan
		require.NoError(t, db.Where("uid = ?", "TAPORDER01").First(&scan).Error)
		assert.True(t, scan.Converted)
		assert.InDelta(t, 100.00, scan.Revenue, 0.001)

		// 标识码记录成交轨迹
		uid, _ := repository.NewUIDRepository(db).GetByUID(ctx, "TAPORDER01")
		assert.NotNil(t, uid.LastOrderAt)
	})

	t.Run("重复投递不产生重复订单与任务", func(t *testing.T) {
		db, svc := setupShopifyTest(t)

		business := &models.Business{Name: "品牌方", ShopDomain: "brand.myshopify.com"}
		require.NoError(t, db.Create(business).Error)
		retailer := &models.Retailer{Name: "门店", BusinessID: &business.ID}
		require.NoError(t, db.Create(retailer).Error)

		body := shopifyOrderBody(t, 7002, "50.00", fmt.Sprintf("retailer-%d", retailer.ID))
		require.NoError(t, svc.ProcessOrder(ctx, "brand.myshopify.com", body))
		require.NoError(t, svc.ProcessOrder(ctx, "brand.myshopify.com", body))

		var orderCount, jobCount int64
		db.Model(&models.Order{}).Where("external_id = ?", "7002").Count(&orderCount)
		db.Model(&models.PayoutJob{}).Count(&jobCount)
		assert.Equal(t, int64(1), orderCount)
		assert.Equal(t, int64(1), jobCount)

		// 重放不重复累计排行榜
		var entry models.LeaderboardEntry
		require.NoError(t, db.Where("retailer_id = ?", retailer.ID).First(&entry).Error)
		assert.Equal(t, int64(1), entry.OrderCount)
		assert.InDelta(t, 50.00, entry.Revenue, 0.001)
	})

	t.Run("无法归因的订单落库待人工处理", func(t *testing.T) {
		db, svc := setupShopifyTest(t)

		body := shopifyOrderBody(t, 7003, "30.00", "unknown-ref")
		require.NoError(t, svc.ProcessOrder(ctx, "ghost.myshopify.com", body))

		order, err := repository.NewOrderRepository(db).GetByExternalID(ctx, "7003")
		require.NoError(t, err)
		assert.Nil(t, order.RetailerID)
		assert.Equal(t, models.AttributedViaNone, order.AttributedVia)

		var jobCount int64
		db.Model(&models.PayoutJob{}).Count(&jobCount)
		assert.Equal(t, int64(0), jobCount)
	})

	t.Run("优先展示架订单更新零售商标记", func(t *testing.T) {
		db, svc := setupShopifyTest(t)

		business := &models.Business{Name: "品牌方", ShopDomain: "brand.myshopify.com"}
		require.NoError(t, db.Create(business).Error)
		retailer := &models.Retailer{Name: "门店", BusinessID: &business.ID}
		require.NoError(t, db.Create(retailer).Error)
		require.NoError(t, db.Create(&models.Display{
			UID: "TAPDISP01", RetailerID: retailer.ID, Status: models.DisplayStatusStandardQueue,
		}).Error)

		body := shopifyOrderBody(t, 7004, "49.00",
			fmt.Sprintf("retailer-%d", retailer.ID), "Priority Display Upgrade")
		require.NoError(t, svc.ProcessOrder(ctx, "brand.myshopify.com", body))

		got, _ := repository.NewRetailerRepository(db).GetByID(ctx, retailer.ID)
		assert.True(t, got.PriorityDisplayActive)

		job, err := repository.NewPayoutJobRepository(db).GetByOrderID(ctx, mustOrderID(t, db, "7004"))
		require.NoError(t, err)
		assert.Equal(t, models.PayoutStatusPriorityDisplay, job.Status)

		display, _ := repository.NewDisplayRepository(db).GetByUID(ctx, "TAPDISP01")
		assert.Equal(t, models.DisplayStatusPriorityQueue, display.Status)
	})

	t.Run("订单载荷非法报参数错误", func(t *testing.T) {
		_, svc := setupShopifyTest(t)
		err := svc.ProcessOrder(ctx, "brand.myshopify.com", []byte("not-json"))
		require.Error(t, err)
		appErr := errors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, errors.ErrInvalidParams.Code, appErr.Code)
	})
}

func mustOrderID(t *testing.T, db *gorm.DB, externalID string) int64 {
	t.Helper()
	var order models.Order
	require.NoError(t, db.Where("external_id = ?", externalID).First(&order).Error)
	return order.ID
}
