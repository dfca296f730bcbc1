package models

import (
	"time"
)

// Scan 扫码记录
type Scan struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UID       string    `gorm:"type:varchar(32);index;not null" json:"uid"`
	Outcome   string    `gorm:"type:varchar(20);not null" json:"outcome"`
	IP        string    `gorm:"type:varchar(45)" json:"ip,omitempty"`
	UserAgent string    `gorm:"type:varchar(255)" json:"user_agent,omitempty"`
	Referer   string    `gorm:"type:varchar(255)" json:"referer,omitempty"`
	Converted bool      `gorm:"not null;default:false" json:"converted"`
	Revenue   float64   `gorm:"type:decimal(12,2);not null;default:0" json:"revenue"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (Scan) TableName() string {
	return "scans"
}

// ScanOutcome 扫码跳转结果
const (
	ScanOutcomeClaim     = "claim"     // 跳转认领页
	ScanOutcomeAffiliate = "affiliate" // 跳转带货链接
	ScanOutcomeUnknown   = "unknown"   // UID 不存在
)

// LeaderboardEntry 零售商月度排行榜，按月+零售商累加
type LeaderboardEntry struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Period     string    `gorm:"type:varchar(7);not null;uniqueIndex:idx_leaderboard_period_retailer" json:"period"`
	RetailerID int64     `gorm:"not null;uniqueIndex:idx_leaderboard_period_retailer" json:"retailer_id"`
	ScanCount  int64     `gorm:"not null;default:0" json:"scan_count"`
	OrderCount int64     `gorm:"not null;default:0" json:"order_count"`
	Revenue    float64   `gorm:"type:decimal(12,2);not null;default:0" json:"revenue"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Retailer *Retailer `gorm:"foreignKey:RetailerID" json:"retailer,omitempty"`
}

// TableName 表名
func (LeaderboardEntry) TableName() string {
	return "leaderboard_entries"
}
