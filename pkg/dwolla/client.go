// Package dwolla 提供 Dwolla ACH 转账 API 封装
package dwolla

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config Dwolla 配置
type Config struct {
	Environment         string `mapstructure:"environment"`
	Key                 string `mapstructure:"key"`
	Secret              string `mapstructure:"secret"`
	MasterFundingSource string `mapstructure:"master_funding_source"`
}

// BaseURL 根据环境返回 API 地址
func (c *Config) BaseURL() string {
	if c.Environment == "production" {
		return "https://api.dwolla.com"
	}
	return "https://api-sandbox.dwolla.com"
}

// TokenStore 访问令牌缓存
type TokenStore interface {
	GetDwollaToken(ctx context.Context) (string, error)
	SetDwollaToken(ctx context.Context, token string, expiresIn int) error
}

// Client Dwolla 客户端
type Client struct {
	config     *Config
	baseURL    string
	httpClient *http.Client
	tokens     TokenStore
}

// NewClient 创建 Dwolla 客户端
func NewClient(config *Config, tokens TokenStore) *Client {
	return &Client{
		config:  config,
		baseURL: config.BaseURL(),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		tokens: tokens,
	}
}

// APIError Dwolla 接口错误
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// Error 实现 error 接口
func (e *APIError) Error() string {
	return fmt.Sprintf("dwolla: %s (%d %s)", e.Message, e.StatusCode, e.Code)
}

// tokenResponse OAuth 令牌响应
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Token 获取访问令牌，优先使用缓存
func (c *Client) Token(ctx context.Context) (string, error) {
	if c.tokens != nil {
		if token, err := c.tokens.GetDwollaToken(ctx); err == nil && token != "" {
			return token, nil
		}
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.config.Key, c.config.Secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.parseError(resp)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", err
	}

	if c.tokens != nil {
		_ = c.tokens.SetDwollaToken(ctx, tr.AccessToken, tr.ExpiresIn)
	}
	return tr.AccessToken, nil
}

// TransferRequest 创建转账请求
type TransferRequest struct {
	SourceFundingURL      string
	DestinationFundingURL string
	Amount                string
	Currency              string
	IdempotencyKey        string
}

// Transfer 转账单
type Transfer struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Amount   Amount            `json:"amount"`
	Created  string            `json:"created"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Amount 金额
type Amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// TransferStatus 转账状态
const (
	TransferStatusPending   = "pending"
	TransferStatusProcessed = "processed"
	TransferStatusFailed    = "failed"
	TransferStatusCancelled = "cancelled"
)

// CreateTransfer 发起转账，返回转账单号
func (c *Client) CreateTransfer(ctx context.Context, req *TransferRequest) (string, error) {
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}
	body := map[string]interface{}{
		"_links": map[string]interface{}{
			"source":      map[string]string{"href": req.SourceFundingURL},
			"destination": map[string]string{"href": req.DestinationFundingURL},
		},
		"amount": Amount{Value: req.Amount, Currency: currency},
	}

	idempotencyKey := req.IdempotencyKey
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	location, err := c.postLocation(ctx, "/transfers", body, idempotencyKey)
	if err != nil {
		return "", err
	}
	return lastPathSegment(location), nil
}

// GetTransfer 查询转账单
func (c *Client) GetTransfer(ctx context.Context, transferID string) (*Transfer, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transfers/"+transferID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.dwolla.v1.hal+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var transfer Transfer
	if err := json.NewDecoder(resp.Body).Decode(&transfer); err != nil {
		return nil, err
	}
	return &transfer, nil
}

// CustomerRequest 创建客户请求
type CustomerRequest struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	Type         string `json:"type"`
	BusinessName string `json:"businessName,omitempty"`
	IPAddress    string `json:"ipAddress,omitempty"`
}

// CreateCustomer 创建收款客户，返回客户资源 URL
func (c *Client) CreateCustomer(ctx context.Context, req *CustomerRequest) (string, error) {
	if req.Type == "" {
		req.Type = "receive-only"
	}
	return c.postLocation(ctx, "/customers", req, "")
}

// CreateFundingSource 通过 Plaid 处理器令牌为客户绑定银行账户，返回账户资源 URL
func (c *Client) CreateFundingSource(ctx context.Context, customerURL, plaidToken, name string) (string, error) {
	body := map[string]string{
		"plaidToken": plaidToken,
		"name":       name,
	}
	path := strings.TrimPrefix(customerURL, c.baseURL) + "/funding-sources"
	return c.postLocation(ctx, path, body, "")
}

// postLocation 发送 POST 请求并返回 Location 响应头
func (c *Client) postLocation(ctx context.Context, path string, body interface{}, idempotencyKey string) (string, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/vnd.dwolla.v1.hal+json")
	req.Header.Set("Accept", "application/vnd.dwolla.v1.hal+json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", c.parseError(resp)
	}
	return resp.Header.Get("Location"), nil
}

// parseError 解析错误响应
func (c *Client) parseError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && len(body) > 0 {
		_ = json.Unmarshal(body, apiErr)
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// lastPathSegment 取 URL 最后一段
func lastPathSegment(u string) string {
	if idx := strings.LastIndex(u, "/"); idx >= 0 {
		return u[idx+1:]
	}
	return u
}
