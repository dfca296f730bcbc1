package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tapifyhq/tapify-backend/internal/models"
)

// SourcerRepository 引荐人仓储
type SourcerRepository struct {
	db *gorm.DB
}

// NewSourcerRepository 创建引荐人仓储
func NewSourcerRepository(db *gorm.DB) *SourcerRepository {
	return &SourcerRepository{db: db}
}

// Create 创建引荐人
func (r *SourcerRepository) Create(ctx context.Context, sourcer *models.Sourcer) error {
	return r.db.WithContext(ctx).Create(sourcer).Error
}

// GetByID 根据 ID 获取引荐人
func (r *SourcerRepository) GetByID(ctx context.Context, id int64) (*models.Sourcer, error) {
	var sourcer models.Sourcer
	err := r.db.WithContext(ctx).First(&sourcer, id).Error
	if err != nil {
		return nil, err
	}
	return &sourcer, nil
}

// GetByEmail 根据邮箱获取引荐人
func (r *SourcerRepository) GetByEmail(ctx context.Context, email string) (*models.Sourcer, error) {
	var sourcer models.Sourcer
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&sourcer).Error
	if err != nil {
		return nil, err
	}
	return &sourcer, nil
}

// List 分页获取引荐人列表
func (r *SourcerRepository) List(ctx context.Context, offset, limit int) ([]*models.Sourcer, int64, error) {
	var sourcers []*models.Sourcer
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Sourcer{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&sourcers).Error
	return sourcers, total, err
}
