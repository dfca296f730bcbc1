// Package utils 提供通用工具函数
package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"
)

// Pagination 分页参数
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Normalize 规范化分页参数
func (p *Pagination) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 10
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

// GetOffset 返回偏移量
func (p *Pagination) GetOffset() int {
	return (p.Page - 1) * p.PageSize
}

// GetLimit 返回每页条数
func (p *Pagination) GetLimit() int {
	return p.PageSize
}

// GenerateUID 生成陈列架 UID
// 格式: 前缀 + 指定长度的大写字母数字（排除易混淆字符 0OI1）
func GenerateUID(prefix string, length int) string {
	const charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	var result strings.Builder
	result.WriteString(prefix)
	for i := 0; i < length; i++ {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		result.WriteByte(charset[n.Int64()])
	}
	return result.String()
}

// ValidateEmail 验证邮箱
func ValidateEmail(email string) bool {
	pattern := `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	matched, _ := regexp.MatchString(pattern, email)
	return matched
}

// PeriodKey 返回时间所属的榜单周期键（按月，格式 2006-01）
func PeriodKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// CurrentPeriod 返回当前榜单周期键
func CurrentPeriod() string {
	return PeriodKey(time.Now())
}

// FormatAmount 格式化金额为两位小数字符串
// 支付通道的转账接口要求金额为字符串
func FormatAmount(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}

// TruncateString 截断字符串
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
