package models

import (
	"time"
)

// Retailer 零售商，认领展示架并获得订单分成
type Retailer struct {
	ID                    int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Email                 *string   `gorm:"type:varchar(100);uniqueIndex" json:"email,omitempty"`
	PasswordHash          *string   `gorm:"type:varchar(100)" json:"-"`
	Name                  string    `gorm:"type:varchar(100);not null" json:"name"`
	Phone                 string    `gorm:"type:varchar(20)" json:"phone,omitempty"`
	AddressLine1          string    `gorm:"type:varchar(200)" json:"address_line1,omitempty"`
	AddressLine2          string    `gorm:"type:varchar(200)" json:"address_line2,omitempty"`
	City                  string    `gorm:"type:varchar(100)" json:"city,omitempty"`
	State                 string    `gorm:"type:varchar(10)" json:"state,omitempty"`
	Zip                   string    `gorm:"type:varchar(16)" json:"zip,omitempty"`
	BusinessID            *int64    `gorm:"index" json:"business_id,omitempty"`
	SourcerID             *int64    `gorm:"index" json:"sourcer_id,omitempty"`
	CreatedByUserID       *int64    `gorm:"index" json:"created_by_user_id,omitempty"`
	Converted             bool      `gorm:"not null;default:false" json:"converted"`
	PriorityDisplayActive bool      `gorm:"not null;default:false" json:"priority_display_active"`
	ExpressShipping       bool      `gorm:"not null;default:false" json:"express_shipping"`
	DwollaCustomerURL     *string   `gorm:"type:varchar(255)" json:"-"`
	FundingSourceURL      *string   `gorm:"type:varchar(255)" json:"-"`
	Status                int8      `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt             time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Business *Business `gorm:"foreignKey:BusinessID" json:"business,omitempty"`
	Sourcer  *Sourcer  `gorm:"foreignKey:SourcerID" json:"sourcer,omitempty"`
}

// TableName 表名
func (Retailer) TableName() string {
	return "retailers"
}

// RetailerStatus 零售商状态
const (
	RetailerStatusDisabled = 0 // 禁用
	RetailerStatusActive   = 1 // 正常
)

// HasFundingSource 是否已绑定收款账户
func (r *Retailer) HasFundingSource() bool {
	return r.FundingSourceURL != nil && *r.FundingSourceURL != ""
}

// HasSourcer 是否存在引荐渊源，决定分成走两方还是四方
func (r *Retailer) HasSourcer() bool {
	return r.SourcerID != nil && *r.SourcerID > 0
}

// Business 商家（品牌方），展示架上陈列其商品
type Business struct {
	ID                int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name              string     `gorm:"type:varchar(100);not null" json:"name"`
	ShopDomain        string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"shop_domain"`
	StorefrontDomain  *string    `gorm:"type:varchar(100)" json:"storefront_domain,omitempty"`
	DwollaCustomerURL *string    `gorm:"type:varchar(255)" json:"-"`
	FundingSourceURL  *string    `gorm:"type:varchar(255)" json:"-"`
	IsConnected       bool       `gorm:"not null;default:false" json:"is_connected"`
	ConnectedAt       *time.Time `json:"connected_at,omitempty"`
	Status            int8       `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (Business) TableName() string {
	return "businesses"
}

// HasFundingSource 是否已绑定出款账户
func (b *Business) HasFundingSource() bool {
	return b.FundingSourceURL != nil && *b.FundingSourceURL != ""
}

// Sourcer 引荐人，促成商家入驻后按单抽成
type Sourcer struct {
	ID               int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name             string    `gorm:"type:varchar(100);not null" json:"name"`
	Email            string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	FundingSourceURL *string   `gorm:"type:varchar(255)" json:"-"`
	Status           int8      `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (Sourcer) TableName() string {
	return "sourcers"
}

// HasFundingSource 是否已绑定收款账户
func (s *Sourcer) HasFundingSource() bool {
	return s.FundingSourceURL != nil && *s.FundingSourceURL != ""
}
