// Package repository 标识码仓储单元测试
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

func setupUIDTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.UID{}, &models.Retailer{}, &models.Business{}))
	return db
}

func TestUIDRepository_MarkClaimed(t *testing.T) {
	db := setupUIDTestDB(t)
	repo := NewUIDRepository(db)
	ctx := context.Background()

	uid := &models.UID{UID: "TAP4F7K9M"}
	require.NoError(t, repo.Create(ctx, uid))

	retailerID := int64(42)
	err := db.Transaction(func(tx *gorm.DB) error {
		locked, err := repo.GetByUIDForUpdate(ctx, tx, "TAP4F7K9M")
		require.NoError(t, err)
		assert.False(t, locked.IsClaimed)

		return repo.MarkClaimed(ctx, tx, locked.ID, &retailerID, nil, nil,
			"https://shop.example.com/collections/all?ref=TAP4F7K9M")
	})
	require.NoError(t, err)

	got, err := repo.GetByUID(ctx, "TAP4F7K9M")
	require.NoError(t, err)
	assert.True(t, got.IsClaimed)
	assert.NotNil(t, got.ClaimedAt)
	require.NotNil(t, got.RetailerID)
	assert.Equal(t, retailerID, *got.RetailerID)
	require.NotNil(t, got.AffiliateURL)
	assert.Contains(t, *got.AffiliateURL, "ref=TAP4F7K9M")
}

func TestUIDRepository_List(t *testing.T) {
	db := setupUIDTestDB(t)
	repo := NewUIDRepository(db)
	ctx := context.Background()

	uids := []*models.UID{
		{UID: "TAPAAA111"},
		{UID: "TAPBBB222", IsClaimed: true},
		{UID: "TAPCCC333"},
	}
	require.NoError(t, repo.BatchCreate(ctx, uids))

	t.Run("不过滤返回全部", func(t *testing.T) {
		got, total, err := repo.List(ctx, 0, 10, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, got, 3)
	})

	t.Run("仅已认领", func(t *testing.T) {
		claimed := true
		got, total, err := repo.List(ctx, 0, 10, &claimed)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "TAPBBB222", got[0].UID)
	})
}
