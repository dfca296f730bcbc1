package models

import (
	"time"
)

// AdminUser 后台管理员
type AdminUser struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	PasswordHash string     `gorm:"type:varchar(100);not null" json:"-"`
	Nickname     string     `gorm:"type:varchar(50)" json:"nickname,omitempty"`
	Status       int8       `gorm:"type:smallint;not null;default:1" json:"status"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (AdminUser) TableName() string {
	return "admin_users"
}

// AdminStatus 管理员状态
const (
	AdminStatusDisabled = 0 // 禁用
	AdminStatusActive   = 1 // 正常
)

// AuditLog 操作审计日志，匿名操作不记录
type AuditLog struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorType  string    `gorm:"type:varchar(20);not null" json:"actor_type"`
	ActorID    int64     `gorm:"index;not null" json:"actor_id"`
	Action     string    `gorm:"type:varchar(50);index;not null" json:"action"`
	TargetType string    `gorm:"type:varchar(50)" json:"target_type,omitempty"`
	TargetID   int64     `json:"target_id,omitempty"`
	Detail     JSON      `gorm:"type:jsonb" json:"detail,omitempty"`
	IP         string    `gorm:"type:varchar(45)" json:"ip,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (AuditLog) TableName() string {
	return "audit_logs"
}

// AuditAction 审计动作
const (
	AuditActionClaimUID      = "claim_uid"      // 认领展示架
	AuditActionLinkFunding   = "link_funding"   // 绑定收款账户
	AuditActionProcessPayout = "process_payout" // 执行分账打款
)
