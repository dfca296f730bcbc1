// Package webhook 回调入口 HTTP 行为测试
package webhook

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tapifyhq/tapify-backend/internal/common/config"
	"github.com/tapifyhq/tapify-backend/internal/common/crypto"
	"github.com/tapifyhq/tapify-backend/internal/models"
	"github.com/tapifyhq/tapify-backend/internal/repository"
	"github.com/tapifyhq/tapify-backend/internal/service/attribution"
	"github.com/tapifyhq/tapify-backend/internal/service/payout"
	webhookService "github.com/tapifyhq/tapify-backend/internal/service/webhook"
	"github.com/tapifyhq/tapify-backend/pkg/shopify"
)

const (
	testWebhookSecret = "whsec_test"
	testTriggerSecret = "trg_secret"
)

func setupWebhookRouter(t *testing.T) (*gorm.DB, *gin.Engine) {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.UID{},
		&models.Retailer{},
		&models.Business{},
		&models.Sourcer{},
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
	sourcerRepo := repository.NewSourcerRepository(db)

	calc := payout.NewCalculator(&config.PayoutConfig{
		RetailerRate: 0.20, VendorRate: 0.60, SourcerRate: 0.10, TapifyRate: 0.10,
	})
	jobSvc := payout.NewJobService(jobRepo, retailerRepo, uidRepo, calc)
	attributionSvc := attribution.NewService(db, retailerRepo, businessRepo, uidRepo)
	payoutSvc := payout.NewService(db, jobRepo, retailerRepo, businessRepo, sourcerRepo, nil, "")

	h := NewHandler(
		webhookService.NewShopifyService(
			db, orderRepo, uidRepo, scanRepo, retailerRepo, businessRepo,
			displayRepo, leaderboardRepo, attributionSvc, jobSvc,
			&config.ShopifyConfig{WebhookSecret: testWebhookSecret},
		),
		webhookService.NewDwollaService(payoutSvc),
		webhookService.NewTriggerService(
			orderRepo, uidRepo, scanRepo, leaderboardRepo, jobSvc, testTriggerSecret,
		),
	)

	r := gin.New()
	h.RegisterRoutes(r)
	return db, r
}

func postJSON(r *gin.Engine, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_Shopify(t *testing.T) {
	orderBody := func(id int64) []byte {
		body, _ := json.Marshal(map[string]interface{}{
			"id": id, "total_price": "40.00", "currency": "USD",
		})
		return body
	}

	t.Run("签名缺失返回401", func(t *testing.T) {
		_, r := setupWebhookRouter(t)
		w := postJSON(r, "/webhooks/shopify", orderBody(1), nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("签名伪造返回401", func(t *testing.T) {
		_, r := setupWebhookRouter(t)
		w := postJSON(r, "/webhooks/shopify", orderBody(1), map[string]string{
			shopify.HeaderHMAC: "Zm9yZ2Vk",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("验签通过回执200并落库", func(t *testing.T) {
		db, r := setupWebhookRouter(t)
		body := orderBody(42)
		w := postJSON(r, "/webhooks/shopify", body, map[string]string{
			shopify.HeaderHMAC:       crypto.ComputeHMACSHA256(testWebhookSecret, body),
			shopify.HeaderShopDomain: "brand.myshopify.com",
		})
		assert.Equal(t, http.StatusOK, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, true, resp["received"])

		var count int64
		db.Model(&models.Order{}).Where("external_id = ?", "42").Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("载荷非法仍回执200带错误", func(t *testing.T) {
		_, r := setupWebhookRouter(t)
		body := []byte("not-json")
		w := postJSON(r, "/webhooks/shopify", body, map[string]string{
			shopify.HeaderHMAC: crypto.ComputeHMACSHA256(testWebhookSecret, body),
		})
		assert.Equal(t, http.StatusOK, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, true, resp["received"])
		assert.NotEmpty(t, resp["error"])
	})
}

func TestHandler_Dwolla(t *testing.T) {
	t.Run("转账失败事件批量置失败", func(t *testing.T) {
		db, r := setupWebhookRouter(t)
		transferID := "tr-123"
		require.NoError(t, db.Create(&models.PayoutJob{
			OrderID: 1, BusinessID: 1, TotalAmount: 50,
			Status: models.PayoutStatusPaid, VendorTransferID: &transferID,
		}).Error)

		body, _ := json.Marshal(map[string]string{
			"topic": "transfer_failed", "resourceId": "tr-123",
		})
		w := postJSON(r, "/webhooks/dwolla", body, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var job models.PayoutJob
		require.NoError(t, db.First(&job).Error)
		assert.Equal(t, models.PayoutStatusFailed, job.Status)
	})

	t.Run("缺少主题返回400", func(t *testing.T) {
		_, r := setupWebhookRouter(t)
		w := postJSON(r, "/webhooks/dwolla", []byte(`{}`), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_Trigger(t *testing.T) {
	t.Run("密钥不匹配返回401", func(t *testing.T) {
		_, r := setupWebhookRouter(t)
		body, _ := json.Marshal(map[string]interface{}{
			"table": "orders", "type": "INSERT", "record": map[string]int{"id": 1},
		})
		w := postJSON(r, "/webhooks/db-trigger", body, map[string]string{
			TriggerSecretHeader: "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("订单插入补建分账任务", func(t *testing.T) {
		db, r := setupWebhookRouter(t)
		retailer := &models.Retailer{Name: "门店"}
		require.NoError(t, db.Create(retailer).Error)
		order := &models.Order{
			ExternalID: "88", BusinessID: 1, RetailerID: &retailer.ID, TotalAmount: 25,
		}
		require.NoError(t, db.Create(order).Error)

		body, _ := json.Marshal(map[string]interface{}{
			"table": "orders", "type": "INSERT",
			"record": map[string]int64{"id": order.ID},
		})
		w := postJSON(r, "/webhooks/db-trigger", body, map[string]string{
			TriggerSecretHeader: testTriggerSecret,
		})
		assert.Equal(t, http.StatusOK, w.Code)

		var count int64
		db.Model(&models.PayoutJob{}).Where("order_id = ?", order.ID).Count(&count)
		assert.Equal(t, int64(1), count)
	})
}
