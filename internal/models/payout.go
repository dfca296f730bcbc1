package models

import (
	"time"
)

// PayoutJob 分账任务，每笔订单至多一条
type PayoutJob struct {
	ID                 int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID            int64      `gorm:"uniqueIndex;not null" json:"order_id"`
	BusinessID         int64      `gorm:"index;not null" json:"business_id"`
	RetailerID         *int64     `gorm:"index" json:"retailer_id,omitempty"`
	SourcerID          *int64     `gorm:"index" json:"sourcer_id,omitempty"`
	TotalAmount        float64    `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	RetailerCut        float64    `gorm:"type:decimal(12,2);not null;default:0" json:"retailer_cut"`
	VendorCut          float64    `gorm:"type:decimal(12,2);not null;default:0" json:"vendor_cut"`
	SourcerCut         float64    `gorm:"type:decimal(12,2);not null;default:0" json:"sourcer_cut"`
	TapifyCut          float64    `gorm:"type:decimal(12,2);not null;default:0" json:"tapify_cut"`
	Status             string     `gorm:"type:varchar(20);index;not null;default:'pending'" json:"status"`
	VendorTransferID   *string    `gorm:"type:varchar(64);index" json:"vendor_transfer_id,omitempty"`
	RetailerTransferID *string    `gorm:"type:varchar(64);index" json:"retailer_transfer_id,omitempty"`
	SourcerTransferID  *string    `gorm:"type:varchar(64);index" json:"sourcer_transfer_id,omitempty"`
	FailureReason      *string    `gorm:"type:varchar(255)" json:"failure_reason,omitempty"`
	PaidAt             *time.Time `json:"paid_at,omitempty"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Order    *Order    `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	Business *Business `gorm:"foreignKey:BusinessID" json:"business,omitempty"`
	Retailer *Retailer `gorm:"foreignKey:RetailerID" json:"retailer,omitempty"`
	Sourcer  *Sourcer  `gorm:"foreignKey:SourcerID" json:"sourcer,omitempty"`
}

// TableName 表名
func (PayoutJob) TableName() string {
	return "payout_jobs"
}

// PayoutStatus 分账任务状态，与外部系统约定为英文值
const (
	PayoutStatusPending         = "pending"          // 待执行
	PayoutStatusPaid            = "paid"             // 已打款
	PayoutStatusFailed          = "failed"           // 打款失败
	PayoutStatusPriorityDisplay = "priority_display" // 以优先发货抵偿
)

// IsPending 是否可以执行打款
func (p *PayoutJob) IsPending() bool {
	return p.Status == PayoutStatusPending
}
