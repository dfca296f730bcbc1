// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tapifyhq/tapify-backend/internal/models"
)

// UIDRepository 展示架标识码仓储
type UIDRepository struct {
	db *gorm.DB
}

// NewUIDRepository 创建标识码仓储
func NewUIDRepository(db *gorm.DB) *UIDRepository {
	return &UIDRepository{db: db}
}

// Create 创建标识码
func (r *UIDRepository) Create(ctx context.Context, uid *models.UID) error {
	return r.db.WithContext(ctx).Create(uid).Error
}

// BatchCreate 批量预生成标识码
func (r *UIDRepository) BatchCreate(ctx context.Context, uids []*models.UID) error {
	return r.db.WithContext(ctx).Create(&uids).Error
}

// GetByUID 根据标识码查询
func (r *UIDRepository) GetByUID(ctx context.Context, uid string) (*models.UID, error) {
	var record models.UID
	err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetByUIDForUpdate 加锁查询标识码，用于认领事务
func (r *UIDRepository) GetByUIDForUpdate(ctx context.Context, tx *gorm.DB, uid string) (*models.UID, error) {
	var record models.UID
	err := tx.WithContext(ctx).
		Set("gorm:query_option", "FOR UPDATE").
		Where("uid = ?", uid).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// MarkClaimed 标记标识码已被认领，绑定零售商与商家
func (r *UIDRepository) MarkClaimed(ctx context.Context, tx *gorm.DB, id int64, retailerID, businessID, actorID *int64, affiliateURL string) error {
	now := time.Now()
	return tx.WithContext(ctx).Model(&models.UID{}).Where("id = ?", id).Updates(map[string]interface{}{
		"is_claimed":    true,
		"claimed_at":    &now,
		"claimed_by":    actorID,
		"retailer_id":   retailerID,
		"business_id":   businessID,
		"affiliate_url": affiliateURL,
	}).Error
}

// RecordScan 累加扫码次数并更新最近扫码信息
func (r *UIDRepository) RecordScan(ctx context.Context, id int64, ip, userAgent string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&models.UID{}).Where("id = ?", id).Updates(map[string]interface{}{
		"scan_count":      gorm.Expr("scan_count + 1"),
		"last_scan_at":    &now,
		"last_scan_ip":    ip,
		"last_scan_agent": userAgent,
	}).Error
}

// RecordOrder 更新最近成交信息
func (r *UIDRepository) RecordOrder(ctx context.Context, id int64, amount float64) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&models.UID{}).Where("id = ?", id).Updates(map[string]interface{}{
		"last_order_at":     &now,
		"last_order_amount": amount,
	}).Error
}

// ListByRetailer 获取零售商名下标识码
func (r *UIDRepository) ListByRetailer(ctx context.Context, retailerID int64) ([]*models.UID, error) {
	var records []*models.UID
	err := r.db.WithContext(ctx).Where("retailer_id = ?", retailerID).Order("claimed_at DESC").Find(&records).Error
	return records, err
}

// List 分页获取标识码列表
func (r *UIDRepository) List(ctx context.Context, offset, limit int, claimed *bool) ([]*models.UID, int64, error) {
	var records []*models.UID
	var total int64

	query := r.db.WithContext(ctx).Model(&models.UID{})
	if claimed != nil {
		query = query.Where("is_claimed = ?", *claimed)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&records).Error
	return records, total, err
}
