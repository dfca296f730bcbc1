// Package qrcode 提供陈列架二维码生成功能
package qrcode

import (
	"encoding/base64"
	"fmt"

	"github.com/skip2/go-qrcode"
)

// Generator 二维码生成器
type Generator struct {
	size  int                  // 尺寸（像素）
	level qrcode.RecoveryLevel // 纠错级别
}

// Option 生成器选项
type Option func(*Generator)

// WithSize 设置二维码尺寸
func WithSize(size int) Option {
	return func(g *Generator) {
		g.size = size
	}
}

// WithRecoveryLevel 设置纠错级别
func WithRecoveryLevel(level qrcode.RecoveryLevel) Option {
	return func(g *Generator) {
		g.level = level
	}
}

// NewGenerator 创建二维码生成器
// 陈列架贴纸默认使用 High 纠错，贴膜磨损后仍可识别
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		size:  256,
		level: qrcode.High,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GeneratePNG 生成 PNG 格式二维码
func (g *Generator) GeneratePNG(content string) ([]byte, error) {
	data, err := qrcode.Encode(content, g.level, g.size)
	if err != nil {
		return nil, fmt.Errorf("生成二维码失败: %w", err)
	}
	return data, nil
}

// GenerateDataURL 生成 Data URL 格式的二维码
func (g *Generator) GenerateDataURL(content string) (string, error) {
	data, err := g.GeneratePNG(content)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// ShortLink 返回 UID 对应的扫码短链
func ShortLink(baseURL, uid string) string {
	return fmt.Sprintf("%s/t?u=%s", baseURL, uid)
}
