package models

import (
	"time"
)

// Display 展示架发货单，认领后进入排队等待发货
type Display struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UID            string     `gorm:"type:varchar(32);uniqueIndex;not null" json:"uid"`
	RetailerID     int64      `gorm:"index;not null" json:"retailer_id"`
	BusinessID     *int64     `gorm:"index" json:"business_id,omitempty"`
	Status         string     `gorm:"type:varchar(20);not null;default:'standard_queue'" json:"status"`
	TrackingNumber *string    `gorm:"type:varchar(64)" json:"tracking_number,omitempty"`
	ShippedAt      *time.Time `json:"shipped_at,omitempty"`
	ActivatedAt    *time.Time `json:"activated_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Retailer *Retailer `gorm:"foreignKey:RetailerID" json:"retailer,omitempty"`
	Business *Business `gorm:"foreignKey:BusinessID" json:"business,omitempty"`
}

// TableName 表名
func (Display) TableName() string {
	return "displays"
}

// DisplayStatus 展示架状态，与外部系统约定为英文值
const (
	DisplayStatusPriorityQueue = "priority_queue" // 优先发货队列
	DisplayStatusStandardQueue = "standard_queue" // 普通发货队列
	DisplayStatusShipped       = "shipped"        // 已发货
	DisplayStatusActive        = "active"         // 已激活
)
