// Package crypto 提供签名校验和密码哈希工具
package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// ComputeHMACSHA256 计算 HMAC-SHA256 签名（base64 编码）
func ComputeHMACSHA256(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyHMACSHA256 校验 base64 编码的 HMAC-SHA256 签名
// 使用恒定时间比较，防止时序攻击
func VerifyHMACSHA256(secret, signature string, body []byte) bool {
	if signature == "" || len(body) == 0 {
		return false
	}
	expected := ComputeHMACSHA256(secret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// SecureCompare 恒定时间比较两个字符串，数据库触发器 Webhook 的共享密钥用它比对
func SecureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// HashPassword 生成密码哈希
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword 校验密码
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
