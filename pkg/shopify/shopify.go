// Package shopify 提供 Shopify 订单 Webhook 解析与签名校验
package shopify

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/tapifyhq/tapify-backend/internal/common/crypto"
)

// 请求头约定
const (
	HeaderHMAC       = "X-Shopify-Hmac-Sha256"
	HeaderTopic      = "X-Shopify-Topic"
	HeaderShopDomain = "X-Shopify-Shop-Domain"
	HeaderWebhookID  = "X-Shopify-Webhook-Id"
)

// Webhook 主题
const (
	TopicOrdersCreate = "orders/create"
	TopicOrdersPaid   = "orders/paid"
)

// VerifyWebhook 校验 Webhook 签名，常量时间比较
func VerifyWebhook(secret string, body []byte, signature string) bool {
	return crypto.VerifyHMACSHA256(secret, signature, body)
}

// NoteAttribute 订单备注属性
type NoteAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// LineItem 订单行项目
type LineItem struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
}

// OrderPayload Shopify 订单载荷
type OrderPayload struct {
	ID             int64           `json:"id"`
	OrderNumber    int64           `json:"order_number"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	TotalPrice     string          `json:"total_price"`
	Currency       string          `json:"currency"`
	LandingSite    string          `json:"landing_site"`
	ReferringSite  string          `json:"referring_site"`
	NoteAttributes []NoteAttribute `json:"note_attributes"`
	LineItems      []LineItem      `json:"line_items"`
}

// HasLineItemContaining 是否存在标题包含指定关键词的行项目，大小写不敏感
func (p *OrderPayload) HasLineItemContaining(keyword string) bool {
	keyword = strings.ToLower(keyword)
	for _, item := range p.LineItems {
		if strings.Contains(strings.ToLower(item.Title), keyword) {
			return true
		}
	}
	return false
}

// HasPriorityDisplay 订单是否购买了优先展示架
func (p *OrderPayload) HasPriorityDisplay() bool {
	return p.HasLineItemContaining("priority display")
}

// TotalAmount 解析订单总额
func (p *OrderPayload) TotalAmount() (float64, error) {
	return strconv.ParseFloat(p.TotalPrice, 64)
}

// ParseOrder 解析订单载荷
func ParseOrder(body []byte) (*OrderPayload, error) {
	var payload OrderPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// ExternalID 外部订单号
func (p *OrderPayload) ExternalID() string {
	return strconv.FormatInt(p.ID, 10)
}

// Ref 提取引荐标记：优先备注属性，其次落地页参数
func (p *OrderPayload) Ref() string {
	for _, attr := range p.NoteAttributes {
		if attr.Name == "ref" && attr.Value != "" {
			return attr.Value
		}
	}
	return refFromLandingSite(p.LandingSite)
}

// refFromLandingSite 从落地页地址提取 ref 参数
func refFromLandingSite(landingSite string) string {
	if landingSite == "" {
		return ""
	}
	u, err := url.Parse(landingSite)
	if err != nil {
		return ""
	}
	return u.Query().Get("ref")
}

// ParseRetailerRef 解析 retailer-<id> 形式的引荐标记
func ParseRetailerRef(ref string) (int64, bool) {
	const prefix = "retailer-"
	if !strings.HasPrefix(ref, prefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(ref, prefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
