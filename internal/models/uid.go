// Package models 定义数据模型
package models

import (
	"time"
)

// UID 展示架标识码，随硬件出厂预生成
type UID struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UID          string     `gorm:"type:varchar(32);uniqueIndex;not null" json:"uid"`
	RetailerID   *int64     `gorm:"index" json:"retailer_id,omitempty"`
	BusinessID   *int64     `gorm:"index" json:"business_id,omitempty"`
	IsClaimed    bool       `gorm:"not null;default:false" json:"is_claimed"`
	ClaimedAt    *time.Time `json:"claimed_at,omitempty"`
	ClaimedBy    *int64     `json:"claimed_by,omitempty"`
	AffiliateURL *string    `gorm:"type:varchar(500)" json:"affiliate_url,omitempty"`

	// 扫码与成交轨迹
	ScanCount       int64      `gorm:"not null;default:0" json:"scan_count"`
	LastScanAt      *time.Time `json:"last_scan_at,omitempty"`
	LastScanIP      *string    `gorm:"type:varchar(45)" json:"last_scan_ip,omitempty"`
	LastScanAgent   *string    `gorm:"type:varchar(255)" json:"last_scan_agent,omitempty"`
	LastOrderAt     *time.Time `json:"last_order_at,omitempty"`
	LastOrderAmount *float64   `gorm:"type:decimal(12,2)" json:"last_order_amount,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Retailer *Retailer `gorm:"foreignKey:RetailerID" json:"retailer,omitempty"`
	Business *Business `gorm:"foreignKey:BusinessID" json:"business,omitempty"`
}

// TableName 表名
func (UID) TableName() string {
	return "uids"
}

// ClaimURL 未认领时扫码跳转的认领页地址
func (u *UID) ClaimURL(baseURL string) string {
	return baseURL + "/claim?u=" + u.UID
}
