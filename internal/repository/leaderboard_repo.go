package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tapifyhq/tapify-backend/internal/models"
)

// LeaderboardRepository 零售商排行榜仓储
type LeaderboardRepository struct {
	db *gorm.DB
}

// NewLeaderboardRepository 创建排行榜仓储
func NewLeaderboardRepository(db *gorm.DB) *LeaderboardRepository {
	return &LeaderboardRepository{db: db}
}

// AddScan 累加扫码计数
func (r *LeaderboardRepository) AddScan(ctx context.Context, period string, retailerID int64) error {
	entry := &models.LeaderboardEntry{
		Period:     period,
		RetailerID: retailerID,
		ScanCount:  1,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "period"}, {Name: "retailer_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"scan_count": gorm.Expr("scan_count + 1"),
			}),
		}).
		Create(entry).Error
}

// AddOrder 累加成交订单与营收
func (r *LeaderboardRepository) AddOrder(ctx context.Context, period string, retailerID int64, revenue float64) error {
	entry := &models.LeaderboardEntry{
		Period:     period,
		RetailerID: retailerID,
		OrderCount: 1,
		Revenue:    revenue,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "period"}, {Name: "retailer_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"order_count": gorm.Expr("order_count + 1"),
				"revenue":     gorm.Expr("revenue + ?", revenue),
			}),
		}).
		Create(entry).Error
}

// Top 获取某月排行榜前 N 名
func (r *LeaderboardRepository) Top(ctx context.Context, period string, limit int) ([]*models.LeaderboardEntry, error) {
	var entries []*models.LeaderboardEntry
	err := r.db.WithContext(ctx).
		Where("period = ?", period).
		Order("revenue DESC, order_count DESC, scan_count DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// GetByRetailer 获取零售商某月榜单数据
func (r *LeaderboardRepository) GetByRetailer(ctx context.Context, period string, retailerID int64) (*models.LeaderboardEntry, error) {
	var entry models.LeaderboardEntry
	err := r.db.WithContext(ctx).
		Where("period = ? AND retailer_id = ?", period, retailerID).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
