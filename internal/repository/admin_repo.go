package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tapifyhq/tapify-backend/internal/models"
)

// AdminUserRepository 管理员仓储
type AdminUserRepository struct {
	db *gorm.DB
}

// NewAdminUserRepository 创建管理员仓储
func NewAdminUserRepository(db *gorm.DB) *AdminUserRepository {
	return &AdminUserRepository{db: db}
}

// GetByUsername 根据用户名获取管理员
func (r *AdminUserRepository) GetByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	var admin models.AdminUser
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&admin).Error
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

// Create 创建管理员
func (r *AdminUserRepository) Create(ctx context.Context, admin *models.AdminUser) error {
	return r.db.WithContext(ctx).Create(admin).Error
}

// UpdateLastLogin 更新最后登录时间
func (r *AdminUserRepository) UpdateLastLogin(ctx context.Context, id int64) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&models.AdminUser{}).Where("id = ?", id).Update("last_login_at", &now).Error
}
