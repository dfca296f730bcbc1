package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tapifyhq/tapify-backend/internal/models"
)

// PayoutJobRepository 分账任务仓储
type PayoutJobRepository struct {
	db *gorm.DB
}

// NewPayoutJobRepository 创建分账任务仓储
func NewPayoutJobRepository(db *gorm.DB) *PayoutJobRepository {
	return &PayoutJobRepository{db: db}
}

// CreateIfAbsent 幂等创建分账任务，同一订单重复触发不报错
// 返回是否实际插入
func (r *PayoutJobRepository) CreateIfAbsent(ctx context.Context, job *models.PayoutJob) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			DoNothing: true,
		}).
		Create(job)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// GetByID 根据 ID 获取分账任务
func (r *PayoutJobRepository) GetByID(ctx context.Context, id int64) (*models.PayoutJob, error) {
	var job models.PayoutJob
	err := r.db.WithContext(ctx).First(&job, id).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// GetByOrderID 根据订单 ID 获取分账任务
func (r *PayoutJobRepository) GetByOrderID(ctx context.Context, orderID int64) (*models.PayoutJob, error) {
	var job models.PayoutJob
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// FindByTransferID 根据任一方向的转账单号查找分账任务
func (r *PayoutJobRepository) FindByTransferID(ctx context.Context, transferID string) ([]*models.PayoutJob, error) {
	var jobs []*models.PayoutJob
	err := r.db.WithContext(ctx).
		Where("vendor_transfer_id = ? OR retailer_transfer_id = ? OR sourcer_transfer_id = ?",
			transferID, transferID, transferID).
		Find(&jobs).Error
	return jobs, err
}

// MarkPaid 标记分账任务已打款
func (r *PayoutJobRepository) MarkPaid(ctx context.Context, id int64, vendorTransferID, retailerTransferID, sourcerTransferID *string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&models.PayoutJob{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":               models.PayoutStatusPaid,
		"vendor_transfer_id":   vendorTransferID,
		"retailer_transfer_id": retailerTransferID,
		"sourcer_transfer_id":  sourcerTransferID,
		"paid_at":              &now,
	}).Error
}

// MarkFailed 批量标记分账任务失败
func (r *PayoutJobRepository) MarkFailed(ctx context.Context, ids []int64, reason string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Model(&models.PayoutJob{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"status":         models.PayoutStatusFailed,
			"failure_reason": reason,
		})
	return result.RowsAffected, result.Error
}

// List 分页获取分账任务列表
func (r *PayoutJobRepository) List(ctx context.Context, offset, limit int, status string) ([]*models.PayoutJob, int64, error) {
	var jobs []*models.PayoutJob
	var total int64

	query := r.db.WithContext(ctx).Model(&models.PayoutJob{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&jobs).Error
	return jobs, total, err
}
