package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tapifyhq/tapify-backend/internal/models"
)

// BusinessRepository 商家仓储
type BusinessRepository struct {
	db *gorm.DB
}

// NewBusinessRepository 创建商家仓储
func NewBusinessRepository(db *gorm.DB) *BusinessRepository {
	return &BusinessRepository{db: db}
}

// Create 创建商家
func (r *BusinessRepository) Create(ctx context.Context, business *models.Business) error {
	return r.db.WithContext(ctx).Create(business).Error
}

// GetByID 根据 ID 获取商家
func (r *BusinessRepository) GetByID(ctx context.Context, id int64) (*models.Business, error) {
	var business models.Business
	err := r.db.WithContext(ctx).First(&business, id).Error
	if err != nil {
		return nil, err
	}
	return &business, nil
}

// GetByShopDomain 根据店铺域名获取商家
func (r *BusinessRepository) GetByShopDomain(ctx context.Context, domain string) (*models.Business, error) {
	var business models.Business
	err := r.db.WithContext(ctx).Where("shop_domain = ?", domain).First(&business).Error
	if err != nil {
		return nil, err
	}
	return &business, nil
}

// UpdateFields 更新指定字段
func (r *BusinessRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Business{}).Where("id = ?", id).Updates(fields).Error
}

// SetConnected 标记商家已接入并记录时间
func (r *BusinessRepository) SetConnected(ctx context.Context, tx *gorm.DB, id int64) error {
	now := time.Now()
	return tx.WithContext(ctx).Model(&models.Business{}).Where("id = ?", id).Updates(map[string]interface{}{
		"is_connected": true,
		"connected_at": &now,
	}).Error
}

// List 分页获取商家列表
func (r *BusinessRepository) List(ctx context.Context, offset, limit int) ([]*models.Business, int64, error) {
	var businesses []*models.Business
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Business{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&businesses).Error
	return businesses, total, err
}
