// Package plaid 提供 Plaid 银行账户验证 API 封装
package plaid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config Plaid 配置
type Config struct {
	Environment string `mapstructure:"environment"`
	ClientID    string `mapstructure:"client_id"`
	Secret      string `mapstructure:"secret"`
}

// BaseURL 根据环境返回 API 地址
func (c *Config) BaseURL() string {
	switch c.Environment {
	case "production":
		return "https://production.plaid.com"
	case "development":
		return "https://development.plaid.com"
	default:
		return "https://sandbox.plaid.com"
	}
}

// Client Plaid 客户端
type Client struct {
	config     *Config
	baseURL    string
	httpClient *http.Client
}

// NewClient 创建 Plaid 客户端
func NewClient(config *Config) *Client {
	return &Client{
		config:  config,
		baseURL: config.BaseURL(),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError Plaid 接口错误
type APIError struct {
	StatusCode   int    `json:"-"`
	ErrorType    string `json:"error_type"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// Error 实现 error 接口
func (e *APIError) Error() string {
	return fmt.Sprintf("plaid: %s (%s/%s)", e.ErrorMessage, e.ErrorType, e.ErrorCode)
}

// CreateLinkToken 创建前端 Link 初始化令牌
func (c *Client) CreateLinkToken(ctx context.Context, clientUserID, clientName string) (string, error) {
	body := map[string]interface{}{
		"client_id":     c.config.ClientID,
		"secret":        c.config.Secret,
		"client_name":   clientName,
		"language":      "en",
		"country_codes": []string{"US"},
		"user": map[string]string{
			"client_user_id": clientUserID,
		},
		"products": []string{"auth"},
	}

	var result struct {
		LinkToken string `json:"link_token"`
	}
	if err := c.post(ctx, "/link/token/create", body, &result); err != nil {
		return "", err
	}
	return result.LinkToken, nil
}

// ExchangePublicToken 用前端回传的 public_token 换取 access_token
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (string, error) {
	body := map[string]string{
		"client_id":    c.config.ClientID,
		"secret":       c.config.Secret,
		"public_token": publicToken,
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ItemID      string `json:"item_id"`
	}
	if err := c.post(ctx, "/item/public_token/exchange", body, &result); err != nil {
		return "", err
	}
	return result.AccessToken, nil
}

// CreateProcessorToken 为指定账户生成 Dwolla 处理器令牌
func (c *Client) CreateProcessorToken(ctx context.Context, accessToken, accountID string) (string, error) {
	body := map[string]string{
		"client_id":    c.config.ClientID,
		"secret":       c.config.Secret,
		"access_token": accessToken,
		"account_id":   accountID,
		"processor":    "dwolla",
	}

	var result struct {
		ProcessorToken string `json:"processor_token"`
	}
	if err := c.post(ctx, "/processor/token/create", body, &result); err != nil {
		return "", err
	}
	return result.ProcessorToken, nil
}

// post 发送 JSON POST 请求
func (c *Client) post(ctx context.Context, path string, body, result interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err == nil && len(data) > 0 {
			_ = json.Unmarshal(data, apiErr)
		}
		if apiErr.ErrorMessage == "" {
			apiErr.ErrorMessage = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	return json.NewDecoder(resp.Body).Decode(result)
}
