package models

// AllModels 返回全部模型，用于数据库迁移
func AllModels() []interface{} {
	return []interface{}{
		&UID{},
		&Retailer{},
		&Business{},
		&Sourcer{},
		&Display{},
		&Order{},
		&PayoutJob{},
		&Scan{},
		&LeaderboardEntry{},
		&AdminUser{},
		&AuditLog{},
	}
}
