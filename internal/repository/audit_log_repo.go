package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tapifyhq/tapify-backend/internal/models"
)

// AuditLogRepository 审计日志仓储
type AuditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository 创建审计日志仓储
func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Create 写入审计日志
func (r *AuditLogRepository) Create(ctx context.Context, log *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// CreateTx 在事务内写入审计日志
func (r *AuditLogRepository) CreateTx(ctx context.Context, tx *gorm.DB, log *models.AuditLog) error {
	return tx.WithContext(ctx).Create(log).Error
}

// ListByActor 分页获取某操作人的审计日志
func (r *AuditLogRepository) ListByActor(ctx context.Context, actorType string, actorID int64, offset, limit int) ([]*models.AuditLog, int64, error) {
	var logs []*models.AuditLog
	var total int64

	query := r.db.WithContext(ctx).Model(&models.AuditLog{}).
		Where("actor_type = ? AND actor_id = ?", actorType, actorID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&logs).Error
	return logs, total, err
}
