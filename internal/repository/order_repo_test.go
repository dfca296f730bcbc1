// Package repository 订单仓储单元测试
package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tapifyhq/tapify-backend/internal/models"
)

func setupOrderTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.Order{}, &models.Business{}, &models.Retailer{}))
	return db
}

func TestOrderRepository_CreateIfAbsent(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	t.Run("首次创建成功", func(t *testing.T) {
		retailerID := int64(7)
		order := &models.Order{
			ExternalID:    "shopify-9001",
			BusinessID:    1,
			RetailerID:    &retailerID,
			TotalAmount:   88.00,
			Currency:      "USD",
			AttributedVia: models.AttributedViaUID,
		}
		inserted, err := repo.CreateIfAbsent(ctx, order)
		require.NoError(t, err)
		assert.True(t, inserted)
	})

	t.Run("重复投递不产生重复订单", func(t *testing.T) {
		order := &models.Order{
			ExternalID:  "shopify-9001",
			BusinessID:  1,
			TotalAmount: 88.00,
			Currency:    "USD",
		}
		inserted, err := repo.CreateIfAbsent(ctx, order)
		require.NoError(t, err)
		assert.False(t, inserted)

		var count int64
		db.Model(&models.Order{}).Where("external_id = ?", "shopify-9001").Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("按外部订单号查询", func(t *testing.T) {
		got, err := repo.GetByExternalID(ctx, "shopify-9001")
		require.NoError(t, err)
		assert.Equal(t, models.AttributedViaUID, got.AttributedVia)
		require.NotNil(t, got.RetailerID)
		assert.Equal(t, int64(7), *got.RetailerID)
	})
}

func TestOrderRepository_List(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	retailerA := int64(1)
	retailerB := int64(2)
	orders := []*models.Order{
		{ExternalID: "s-1", BusinessID: 1, RetailerID: &retailerA, TotalAmount: 10, Currency: "USD"},
		{ExternalID: "s-2", BusinessID: 1, RetailerID: &retailerB, TotalAmount: 20, Currency: "USD"},
		{ExternalID: "s-3", BusinessID: 2, RetailerID: &retailerA, TotalAmount: 30, Currency: "USD"},
	}
	for _, o := range orders {
		require.NoError(t, db.Create(o).Error)
	}

	t.Run("按零售商过滤", func(t *testing.T) {
		got, total, err := repo.List(ctx, 0, 10, &retailerA, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, got, 2)
	})

	t.Run("按商家过滤", func(t *testing.T) {
		businessID := int64(2)
		got, total, err := repo.List(ctx, 0, 10, nil, &businessID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "s-3", got[0].ExternalID)
	})
}
