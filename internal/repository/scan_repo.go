package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tapifyhq/tapify-backend/internal/models"
)

// ScanRepository 扫码记录仓储
type ScanRepository struct {
	db *gorm.DB
}

// NewScanRepository 创建扫码记录仓储
func NewScanRepository(db *gorm.DB) *ScanRepository {
	return &ScanRepository{db: db}
}

// Create 创建扫码记录
func (r *ScanRepository) Create(ctx context.Context, scan *models.Scan) error {
	return r.db.WithContext(ctx).Create(scan).Error
}

// MarkLatestConverted 将该标识码最近一条未转化的扫码记录标记为已成交
func (r *ScanRepository) MarkLatestConverted(ctx context.Context, uid string, revenue float64) error {
	var scan models.Scan
	err := r.db.WithContext(ctx).
		Where("uid = ? AND converted = ?", uid, false).
		Order("id DESC").
		First(&scan).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return err
	}
	return r.db.WithContext(ctx).Model(&models.Scan{}).Where("id = ?", scan.ID).Updates(map[string]interface{}{
		"converted": true,
		"revenue":   revenue,
	}).Error
}

// CountByUID 统计标识码扫码次数
func (r *ScanRepository) CountByUID(ctx context.Context, uid string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Scan{}).Where("uid = ?", uid).Count(&count).Error
	return count, err
}

// ListByUID 分页获取标识码扫码记录
func (r *ScanRepository) ListByUID(ctx context.Context, uid string, offset, limit int) ([]*models.Scan, int64, error) {
	var scans []*models.Scan
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Scan{}).Where("uid = ?", uid)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&scans).Error
	return scans, total, err
}
