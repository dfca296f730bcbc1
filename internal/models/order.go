package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Order 归因后的电商订单，外部订单号保证幂等
type Order struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ExternalID      string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"external_id"`
	BusinessID      int64     `gorm:"index;not null" json:"business_id"`
	RetailerID      *int64    `gorm:"index" json:"retailer_id,omitempty"`
	UIDRef          *string   `gorm:"type:varchar(32);index" json:"uid_ref,omitempty"`
	TotalAmount     float64   `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Currency        string    `gorm:"type:varchar(10);not null;default:'USD'" json:"currency"`
	CustomerEmail   *string   `gorm:"type:varchar(100)" json:"customer_email,omitempty"`
	AttributedVia   string    `gorm:"type:varchar(20);not null;default:''" json:"attributed_via"`
	PriorityDisplay bool      `gorm:"not null;default:false" json:"priority_display"`
	RawPayload      JSON      `gorm:"type:jsonb" json:"raw_payload,omitempty"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Business *Business `gorm:"foreignKey:BusinessID" json:"business,omitempty"`
	Retailer *Retailer `gorm:"foreignKey:RetailerID" json:"retailer,omitempty"`
}

// TableName 表名
func (Order) TableName() string {
	return "orders"
}

// AttributedVia 归因途径
const (
	AttributedViaRefTag   = "ref_tag"  // retailer-<id> 引荐标记
	AttributedViaUID      = "uid"      // 展示架 UID
	AttributedViaBusiness = "business" // 商家默认零售商
	AttributedViaActor    = "actor"    // 当前操作人
	AttributedViaCreated  = "created"  // 自动建档
	AttributedViaNone     = ""         // 未归因
)

// JSON 通用 JSON 字段
type JSON map[string]interface{}

// Scan 实现 sql.Scanner 接口
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return errors.New("无法解析 JSON 字段")
		}
		bytes = []byte(s)
	}
	return json.Unmarshal(bytes, j)
}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}
