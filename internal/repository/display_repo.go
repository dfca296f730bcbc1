package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tapifyhq/tapify-backend/internal/models"
)

// DisplayRepository 展示架仓储
type DisplayRepository struct {
	db *gorm.DB
}

// NewDisplayRepository 创建展示架仓储
func NewDisplayRepository(db *gorm.DB) *DisplayRepository {
	return &DisplayRepository{db: db}
}

// Create 创建展示架发货单
func (r *DisplayRepository) Create(ctx context.Context, display *models.Display) error {
	return r.db.WithContext(ctx).Create(display).Error
}

// CreateTx 在事务内创建展示架发货单
func (r *DisplayRepository) CreateTx(ctx context.Context, tx *gorm.DB, display *models.Display) error {
	return tx.WithContext(ctx).Create(display).Error
}

// GetByID 根据 ID 获取展示架
func (r *DisplayRepository) GetByID(ctx context.Context, id int64) (*models.Display, error) {
	var display models.Display
	err := r.db.WithContext(ctx).First(&display, id).Error
	if err != nil {
		return nil, err
	}
	return &display, nil
}

// GetByUID 根据标识码获取展示架
func (r *DisplayRepository) GetByUID(ctx context.Context, uid string) (*models.Display, error) {
	var display models.Display
	err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&display).Error
	if err != nil {
		return nil, err
	}
	return &display, nil
}

// UpdateStatus 更新展示架状态
func (r *DisplayRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	fields := map[string]interface{}{"status": status}
	switch status {
	case models.DisplayStatusShipped:
		now := time.Now()
		fields["shipped_at"] = &now
	case models.DisplayStatusActive:
		now := time.Now()
		fields["activated_at"] = &now
	}
	return r.db.WithContext(ctx).Model(&models.Display{}).Where("id = ?", id).Updates(fields).Error
}

// ActivateQueued 将零售商仍在排队的展示架全部置为已激活
func (r *DisplayRepository) ActivateQueued(ctx context.Context, tx *gorm.DB, retailerID int64) (int64, error) {
	now := time.Now()
	result := tx.WithContext(ctx).Model(&models.Display{}).
		Where("retailer_id = ? AND status IN ?", retailerID,
			[]string{models.DisplayStatusPriorityQueue, models.DisplayStatusStandardQueue}).
		Updates(map[string]interface{}{
			"status":       models.DisplayStatusActive,
			"activated_at": &now,
		})
	return result.RowsAffected, result.Error
}

// PromoteToPriority 将排队中的展示架提升为优先发货
func (r *DisplayRepository) PromoteToPriority(ctx context.Context, tx *gorm.DB, retailerID int64) (int64, error) {
	result := tx.WithContext(ctx).Model(&models.Display{}).
		Where("retailer_id = ? AND status = ?", retailerID, models.DisplayStatusStandardQueue).
		Update("status", models.DisplayStatusPriorityQueue)
	return result.RowsAffected, result.Error
}

// ListByStatus 按状态分页获取展示架
func (r *DisplayRepository) ListByStatus(ctx context.Context, status string, offset, limit int) ([]*models.Display, int64, error) {
	var displays []*models.Display
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Display{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	// 优先队列排前，同队列按创建时间先进先出
	err := query.
		Order("CASE status WHEN 'priority_queue' THEN 0 WHEN 'standard_queue' THEN 1 ELSE 2 END").
		Order("created_at ASC").
		Offset(offset).Limit(limit).Find(&displays).Error
	return displays, total, err
}

// ListByRetailer 获取零售商名下展示架
func (r *DisplayRepository) ListByRetailer(ctx context.Context, retailerID int64) ([]*models.Display, error) {
	var displays []*models.Display
	err := r.db.WithContext(ctx).Where("retailer_id = ?", retailerID).Order("created_at DESC").Find(&displays).Error
	return displays, err
}
