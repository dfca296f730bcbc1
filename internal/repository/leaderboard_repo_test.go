// Package repository 排行榜仓储单元测试
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

func setupLeaderboardTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.LeaderboardEntry{}, &models.Retailer{}))
	return db
}

func TestLeaderboardRepository_AddScan(t *testing.T) {
	db := setupLeaderboardTestDB(t)
	repo := NewLeaderboardRepository(db)
	ctx := context.Background()

	t.Run("首次计入创建榜单条目", func(t *testing.T) {
		require.NoError(t, repo.AddScan(ctx, "2026-09", 1))

		entry, err := repo.GetByRetailer(ctx, "2026-09", 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), entry.ScanCount)
	})

	t.Run("重复计入累加而非覆盖", func(t *testing.T) {
		require.NoError(t, repo.AddScan(ctx, "2026-09", 1))
		require.NoError(t, repo.AddScan(ctx, "2026-09", 1))

		entry, err := repo.GetByRetailer(ctx, "2026-09", 1)
		require.NoError(t, err)
		assert.Equal(t, int64(3), entry.ScanCount)
	})

	t.Run("不同月份互不影响", func(t *testing.T) {
		require.NoError(t, repo.AddScan(ctx, "2026-10", 1))

		entry, err := repo.GetByRetailer(ctx, "2026-10", 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), entry.ScanCount)
	})
}

func TestLeaderboardRepository_AddOrder(t *testing.T) {
	db := setupLeaderboardTestDB(t)
	repo := NewLeaderboardRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.AddOrder(ctx, "2026-09", 2, 120.50))
	require.NoError(t, repo.AddOrder(ctx, "2026-09", 2, 79.50))

	entry, err := repo.GetByRetailer(ctx, "2026-09", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), entry.OrderCount)
	assert.InDelta(t, 200.00, entry.Revenue, 0.001)
}

func TestLeaderboardRepository_Top(t *testing.T) {
	db := setupLeaderboardTestDB(t)
	repo := NewLeaderboardRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.AddOrder(ctx, "2026-09", 1, 50.00))
	require.NoError(t, repo.AddOrder(ctx, "2026-09", 2, 300.00))
	require.NoError(t, repo.AddOrder(ctx, "2026-09", 3, 100.00))

	entries, err := repo.Top(ctx, "2026-09", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(2), entries[0].RetailerID)
	assert.Equal(t, int64(3), entries[1].RetailerID)
}
