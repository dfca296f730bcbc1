// Package usps 提供 USPS 地址校验 API 封装
package usps

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Config USPS 配置
type Config struct {
	UserID  string `mapstructure:"user_id"`
	BaseURL string `mapstructure:"base_url"`
}

// Client USPS 客户端
type Client struct {
	config     *Config
	baseURL    string
	httpClient *http.Client
}

// NewClient 创建 USPS 客户端
func NewClient(config *Config) *Client {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://secure.shippingapis.com/ShippingAPI.dll"
	}
	return &Client{
		config:  config,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Address 美国邮政地址
type Address struct {
	Line1 string `xml:"Address1"`
	Line2 string `xml:"Address2"`
	City  string `xml:"City"`
	State string `xml:"State"`
	Zip5  string `xml:"Zip5"`
	Zip4  string `xml:"Zip4"`
}

// addressValidateRequest 校验请求
type addressValidateRequest struct {
	XMLName xml.Name `xml:"AddressValidateRequest"`
	UserID  string   `xml:"USERID,attr"`
	Address struct {
		ID       string `xml:"ID,attr"`
		Address1 string `xml:"Address1"`
		Address2 string `xml:"Address2"`
		City     string `xml:"City"`
		State    string `xml:"State"`
		Zip5     string `xml:"Zip5"`
		Zip4     string `xml:"Zip4"`
	} `xml:"Address"`
}

// addressValidateResponse 校验响应
type addressValidateResponse struct {
	XMLName xml.Name `xml:"AddressValidateResponse"`
	Address struct {
		Address
		Error *apiError `xml:"Error"`
	} `xml:"Address"`
}

// apiError 接口错误
type apiError struct {
	Number      string `xml:"Number"`
	Description string `xml:"Description"`
}

// Error 实现 error 接口
func (e *apiError) Error() string {
	return fmt.Sprintf("usps: %s (%s)", e.Description, e.Number)
}

// ValidateAddress 校验并标准化地址
func (c *Client) ValidateAddress(ctx context.Context, addr *Address) (*Address, error) {
	req := addressValidateRequest{UserID: c.config.UserID}
	req.Address.ID = "0"
	// USPS 的 Address1 是副地址行，Address2 才是主地址行
	req.Address.Address1 = addr.Line2
	req.Address.Address2 = addr.Line1
	req.Address.City = addr.City
	req.Address.State = addr.State
	req.Address.Zip5 = addr.Zip5
	req.Address.Zip4 = addr.Zip4

	payload, err := xml.Marshal(req)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("API", "Verify")
	query.Set("XML", string(payload))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, err
	}

	var result addressValidateResponse
	if err := xml.Unmarshal(body, &result); err != nil {
		return nil, err
	}
	if result.Address.Error != nil {
		return nil, result.Address.Error
	}

	standardized := result.Address.Address
	// USPS 返回时主副地址行同样对调
	standardized.Line1, standardized.Line2 = standardized.Line2, standardized.Line1
	return &standardized, nil
}
