package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tapifyhq/tapify-backend/internal/models"
)

// RetailerRepository 零售商仓储
type RetailerRepository struct {
	db *gorm.DB
}

// NewRetailerRepository 创建零售商仓储
func NewRetailerRepository(db *gorm.DB) *RetailerRepository {
	return &RetailerRepository{db: db}
}

// Create 创建零售商
func (r *RetailerRepository) Create(ctx context.Context, retailer *models.Retailer) error {
	return r.db.WithContext(ctx).Create(retailer).Error
}

// CreateTx 在事务内创建零售商
func (r *RetailerRepository) CreateTx(ctx context.Context, tx *gorm.DB, retailer *models.Retailer) error {
	return tx.WithContext(ctx).Create(retailer).Error
}

// GetByID 根据 ID 获取零售商
func (r *RetailerRepository) GetByID(ctx context.Context, id int64) (*models.Retailer, error) {
	var retailer models.Retailer
	err := r.db.WithContext(ctx).First(&retailer, id).Error
	if err != nil {
		return nil, err
	}
	return &retailer, nil
}

// GetByEmail 根据邮箱获取零售商
func (r *RetailerRepository) GetByEmail(ctx context.Context, email string) (*models.Retailer, error) {
	var retailer models.Retailer
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&retailer).Error
	if err != nil {
		return nil, err
	}
	return &retailer, nil
}

// GetByBusinessID 查找绑定在某商家下的零售商
func (r *RetailerRepository) GetByBusinessID(ctx context.Context, businessID int64) (*models.Retailer, error) {
	var retailer models.Retailer
	err := r.db.WithContext(ctx).Where("business_id = ?", businessID).Order("id ASC").First(&retailer).Error
	if err != nil {
		return nil, err
	}
	return &retailer, nil
}

// GetByCreatedByUser 查找某操作人建档的零售商
func (r *RetailerRepository) GetByCreatedByUser(ctx context.Context, userID int64) (*models.Retailer, error) {
	var retailer models.Retailer
	err := r.db.WithContext(ctx).Where("created_by_user_id = ?", userID).Order("id ASC").First(&retailer).Error
	if err != nil {
		return nil, err
	}
	return &retailer, nil
}

// EmailExists 邮箱是否已注册
func (r *RetailerRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Retailer{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

// UpdateFields 更新指定字段
func (r *RetailerRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Retailer{}).Where("id = ?", id).Updates(fields).Error
}

// UpdateFunding 更新收款账户信息
func (r *RetailerRepository) UpdateFunding(ctx context.Context, id int64, customerURL, fundingSourceURL string) error {
	return r.db.WithContext(ctx).Model(&models.Retailer{}).Where("id = ?", id).Updates(map[string]interface{}{
		"dwolla_customer_url": customerURL,
		"funding_source_url":  fundingSourceURL,
	}).Error
}

// List 分页获取零售商列表
func (r *RetailerRepository) List(ctx context.Context, offset, limit int) ([]*models.Retailer, int64, error) {
	var retailers []*models.Retailer
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Retailer{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&retailers).Error
	return retailers, total, err
}
