// Package retailer 零售商账户服务
package retailer

import (
	"context"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/tapifyhq/tapify-backend/internal/common/config"
	"github.com/tapifyhq/tapify-backend/internal/common/crypto"
	"github.com/tapifyhq/tapify-backend/internal/common/errors"
	"github.com/tapifyhq/tapify-backend/internal/common/jwt"
	"github.com/tapifyhq/tapify-backend/internal/common/logger"
	"github.com/tapifyhq/tapify-backend/internal/common/utils"
	"github.com/tapifyhq/tapify-backend/internal/models"
	"github.com/tapifyhq/tapify-backend/internal/repository"
	"github.com/tapifyhq/tapify-backend/pkg/dwolla"
	"github.com/tapifyhq/tapify-backend/pkg/plaid"
	"github.com/tapifyhq/tapify-backend/pkg/usps"

	"go.uber.org/zap"
)

// PlaidClient 银行授权客户端
type PlaidClient interface {
	CreateLinkToken(ctx context.Context, clientUserID, clientName string) (string, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (string, error)
	CreateProcessorToken(ctx context.Context, accessToken, accountID string) (string, error)
}

// DwollaCustomerClient 收款客户开户客户端
type DwollaCustomerClient interface {
	CreateCustomer(ctx context.Context, req *dwolla.CustomerRequest) (string, error)
	CreateFundingSource(ctx context.Context, customerURL, plaidToken, name string) (string, error)
}

// AddressValidator 邮寄地址校验客户端
type AddressValidator interface {
	ValidateAddress(ctx context.Context, addr *usps.Address) (*usps.Address, error)
}

// Service 零售商账户服务
type Service struct {
	db           *gorm.DB
	retailerRepo *repository.RetailerRepository
	displayRepo  *repository.DisplayRepository
	uidRepo      *repository.UIDRepository
	auditRepo    *repository.AuditLogRepository
	jwtManager   *jwt.Manager
	plaidClient  PlaidClient
	dwollaClient DwollaCustomerClient
	uspsClient   AddressValidator
	cryptoCfg    *config.CryptoConfig
}

// NewService 创建零售商账户服务
func NewService(
	db *gorm.DB,
	retailerRepo *repository.RetailerRepository,
	displayRepo *repository.DisplayRepository,
	uidRepo *repository.UIDRepository,
	auditRepo *repository.AuditLogRepository,
	jwtManager *jwt.Manager,
	plaidClient PlaidClient,
	dwollaClient DwollaCustomerClient,
	uspsClient AddressValidator,
	cryptoCfg *config.CryptoConfig,
) *Service {
	return &Service{
		db:           db,
		retailerRepo: retailerRepo,
		displayRepo:  displayRepo,
		uidRepo:      uidRepo,
		auditRepo:    auditRepo,
		jwtManager:   jwtManager,
		plaidClient:  plaidClient,
		dwollaClient: dwollaClient,
		uspsClient:   uspsClient,
		cryptoCfg:    cryptoCfg,
	}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8"`
	Name         string `json:"name" binding:"required"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	State        string `json:"state"`
	Zip          string `json:"zip"`
}

// RegisterResult 注册结果
type RegisterResult struct {
	RetailerID int64  `json:"retailer_id"`
	DisplayUID string `json:"display_uid"`
}

// Register 零售商自助注册
//
// 注册即排一台标准队列展示架，零售商与展示架同一事务落库。
// 地址校验尽力而为，校验服务不可用不阻塞注册。
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*RegisterResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !utils.ValidateEmail(email) {
		return nil, errors.ErrInvalidParams.WithMessage("邮箱格式不正确")
	}

	exists, err := s.retailerRepo.EmailExists(ctx, email)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if exists {
		return nil, errors.ErrEmailExists
	}

	hash, err := crypto.HashPassword(req.Password, s.cryptoCfg.BcryptCost)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}

	addr := s.normalizeAddress(ctx, req)

	retailer := &models.Retailer{
		Email:        &email,
		PasswordHash: &hash,
		Name:         req.Name,
		Phone:        req.Phone,
		AddressLine1: addr.Line1,
		AddressLine2: addr.Line2,
		City:         addr.City,
		State:        addr.State,
		Zip:          addr.Zip5,
		Converted:    true,
		Status:       models.RetailerStatusActive,
	}

	displayUID := utils.GenerateUID("TAP", 10)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.retailerRepo.CreateTx(ctx, tx, retailer); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		display := &models.Display{
			UID:        displayUID,
			RetailerID: retailer.ID,
			Status:     models.DisplayStatusStandardQueue,
		}
		if err := s.displayRepo.CreateTx(ctx, tx, display); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		uid := &models.UID{UID: displayUID, RetailerID: &retailer.ID}
		if err := tx.WithContext(ctx).Create(uid).Error; err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("零售商注册成功",
		zap.Int64("retailer_id", retailer.ID),
		zap.String("display_uid", displayUID))
	return &RegisterResult{RetailerID: retailer.ID, DisplayUID: displayUID}, nil
}

// normalizeAddress 地址标准化，USPS 不可用时原样返回
func (s *Service) normalizeAddress(ctx context.Context, req *RegisterRequest) *usps.Address {
	addr := &usps.Address{
		Line1: req.AddressLine1,
		Line2: req.AddressLine2,
		City:  req.City,
		State: req.State,
		Zip5:  req.Zip,
	}
	if s.uspsClient == nil || req.AddressLine1 == "" {
		return addr
	}
	normalized, err := s.uspsClient.ValidateAddress(ctx, addr)
	if err != nil {
		logger.Warn("地址校验失败，按原始地址落库",
			zap.String("city", req.City), zap.Error(err))
		return addr
	}
	return normalized
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResult 登录结果
type LoginResult struct {
	RetailerID int64          `json:"retailer_id"`
	Name       string         `json:"name"`
	Token      *jwt.TokenPair `json:"token"`
}

// Login 邮箱密码登录
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	retailer, err := s.retailerRepo.GetByEmail(ctx, email)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPasswordError
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if retailer.Status != models.RetailerStatusActive {
		return nil, errors.ErrAccountDisabled
	}
	if retailer.PasswordHash == nil || !crypto.CheckPassword(req.Password, *retailer.PasswordHash) {
		return nil, errors.ErrPasswordError
	}

	pair, err := s.jwtManager.GenerateTokenPair(retailer.ID, jwt.UserTypeRetailer, "")
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}
	return &LoginResult{RetailerID: retailer.ID, Name: retailer.Name, Token: pair}, nil
}

// CreateLinkToken 为当前零售商签发银行授权令牌
func (s *Service) CreateLinkToken(ctx context.Context, retailerID int64) (string, error) {
	retailer, err := s.retailerRepo.GetByID(ctx, retailerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", errors.ErrRetailerNotFound
		}
		return "", errors.ErrDatabaseError.WithError(err)
	}

	token, err := s.plaidClient.CreateLinkToken(ctx, strconv.FormatInt(retailer.ID, 10), "Tapify")
	if err != nil {
		return "", errors.ErrRailTokenFailed.WithError(err)
	}
	return token, nil
}

// LinkFundingRequest 收款账户绑定请求
type LinkFundingRequest struct {
	PublicToken string `json:"public_token" binding:"required"`
	AccountID   string `json:"account_id" binding:"required"`
	ActorIP     string `json:"-"`
}

// LinkFundingResult 收款账户绑定结果
type LinkFundingResult struct {
	FundingSourceURL string `json:"funding_source_url"`
}

// LinkFunding 绑定收款账户
//
// public token 换 processor token，开立收款客户并挂资金源，
// 客户与资金源 URL 持久化到零售商记录。
func (s *Service) LinkFunding(ctx context.Context, retailerID int64, req *LinkFundingRequest) (*LinkFundingResult, error) {
	retailer, err := s.retailerRepo.GetByID(ctx, retailerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrRetailerNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	accessToken, err := s.plaidClient.ExchangePublicToken(ctx, req.PublicToken)
	if err != nil {
		return nil, errors.ErrRailTokenFailed.WithError(err)
	}
	processorToken, err := s.plaidClient.CreateProcessorToken(ctx, accessToken, req.AccountID)
	if err != nil {
		return nil, errors.ErrRailTokenFailed.WithError(err)
	}

	customerURL := ""
	if retailer.DwollaCustomerURL != nil {
		customerURL = *retailer.DwollaCustomerURL
	}
	if customerURL == "" {
		email := ""
		if retailer.Email != nil {
			email = *retailer.Email
		}
		customerURL, err = s.dwollaClient.CreateCustomer(ctx, &dwolla.CustomerRequest{
			FirstName:    retailer.Name,
			LastName:     "Retailer",
			Email:        email,
			BusinessName: retailer.Name,
		})
		if err != nil {
			return nil, errors.ErrFundingNotLinked.WithError(err)
		}
	}

	fundingSourceURL, err := s.dwollaClient.CreateFundingSource(ctx, customerURL, processorToken, retailer.Name)
	if err != nil {
		return nil, errors.ErrFundingNotLinked.WithError(err)
	}

	if err := s.retailerRepo.UpdateFunding(ctx, retailerID, customerURL, fundingSourceURL); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if err := s.auditRepo.Create(ctx, &models.AuditLog{
		ActorType:  jwt.UserTypeRetailer,
		ActorID:    retailerID,
		Action:     models.AuditActionLinkFunding,
		TargetType: "retailer",
		TargetID:   retailerID,
		IP:         req.ActorIP,
	}); err != nil {
		logger.Warn("绑定收款账户审计写入失败", zap.Int64("retailer_id", retailerID), zap.Error(err))
	}

	logger.Info("收款账户绑定成功",
		zap.Int64("retailer_id", retailerID),
		zap.String("funding_source", fundingSourceURL))
	return &LinkFundingResult{FundingSourceURL: fundingSourceURL}, nil
}

// GetProfile 查询零售商档案
func (s *Service) GetProfile(ctx context.Context, retailerID int64) (*models.Retailer, error) {
	retailer, err := s.retailerRepo.GetByID(ctx, retailerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrRetailerNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return retailer, nil
}

var _ PlaidClient = (*plaid.Client)(nil)
var _ DwollaCustomerClient = (*dwolla.Client)(nil)
var _ AddressValidator = (*usps.Client)(nil)
