// Package retailer 零售商账户服务单元测试
package retailer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tapifyhq/tapify-backend/internal/common/config"
	"github.com/tapifyhq/tapify-backend/internal/common/crypto"
	"github.com/tapifyhq/tapify-backend/internal/common/errors"
	"github.com/tapifyhq/tapify-backend/internal/common/jwt"
	"github.com/tapifyhq/tapify-backend/internal/models"
	"github.com/tapifyhq/tapify-backend/internal/repository"
	"github.com/tapifyhq/tapify-backend/pkg/dwolla"
	"github.com/tapifyhq/tapify-backend/pkg/usps"
)

type fakePlaidClient struct {
	failExchange bool
}

func (f *fakePlaidClient) CreateLinkToken(ctx context.Context, clientUserID, clientName string) (string, error) {
	return "link-sandbox-" + clientUserID, nil
}

func (f *fakePlaidClient) ExchangePublicToken(ctx context.Context, publicToken string) (string, error) {
	if f.failExchange {
		return "", fmt.Errorf("plaid: INVALID_PUBLIC_TOKEN")
	}
	return "access-" + publicToken, nil
}

func (f *fakePlaidClient) CreateProcessorToken(ctx context.Context, accessToken, accountID string) (string, error) {
	return "processor-" + accountID, nil
}

type fakeDwollaClient struct {
	customers      int
	fundingSources int
}

func (f *fakeDwollaClient) CreateCustomer(ctx context.Context, req *dwolla.CustomerRequest) (string, error) {
	f.customers++
	return fmt.Sprintf("https://api-sandbox.dwolla.com/customers/cus-%d", f.customers), nil
}

func (f *fakeDwollaClient) CreateFundingSource(ctx context.Context, customerURL, plaidToken, name string) (string, error) {
	f.fundingSources++
	return fmt.Sprintf("https://api-sandbox.dwolla.com/funding-sources/fs-%d", f.fundingSources), nil
}

type fakeUSPSClient struct {
	fail  bool
	calls int
}

func (f *fakeUSPSClient) ValidateAddress(ctx context.Context, addr *usps.Address) (*usps.Address, error) {
	f.calls++
	if f.fail {
		return nil, fmt.Errorf("usps: service unavailable")
	}
	normalized := *addr
	normalized.Line1 = "123 MAIN ST"
	return &normalized, nil
}

func setupRetailerTest(t *testing.T) (*gorm.DB, *Service, *fakeDwollaClient, *fakeUSPSClient) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Retailer{},
		&models.Display{},
		&models.UID{},
		&models.AuditLog{},
	))

	dwollaClient := &fakeDwollaClient{}
	uspsClient := &fakeUSPSClient{}
	svc := NewService(
		db,
		repository.NewRetailerRepository(db),
		repository.NewDisplayRepository(db),
		repository.NewUIDRepository(db),
		repository.NewAuditLogRepository(db),
		jwt.NewManager(&jwt.Config{
			Secret:            "test-secret",
			AccessExpireTime:  time.Hour,
			RefreshExpireTime: 24 * time.Hour,
		}),
		&fakePlaidClient{},
		dwollaClient,
		uspsClient,
		&config.CryptoConfig{BcryptCost: 4},
	)
	return db, svc, dwollaClient, uspsClient
}

func registerReq(email string) *RegisterRequest {
	return &RegisterRequest{
		Email:        email,
		Password:     "hunter2hunter2",
		Name:         "茶舍",
		AddressLine1: "123 main st",
		City:         "Austin",
		State:        "TX",
		Zip:          "78701",
	}
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("注册同时生成展示架与标识码", func(t *testing.T) {
		db, svc, _, uspsClient := setupRetailerTest(t)

		result, err := svc.Register(ctx, registerReq("owner@example.com"))
		require.NoError(t, err)
		assert.NotZero(t, result.RetailerID)
		assert.NotEmpty(t, result.DisplayUID)
		assert.Equal(t, 1, uspsClient.calls)

		retailer, err := repository.NewRetailerRepository(db).GetByID(ctx, result.RetailerID)
		require.NoError(t, err)
		assert.True(t, retailer.Converted)
		assert.Equal(t, "123 MAIN ST", retailer.AddressLine1)
		require.NotNil(t, retailer.PasswordHash)
		assert.True(t, crypto.CheckPassword("hunter2hunter2", *retailer.PasswordHash))

		display, err := repository.NewDisplayRepository(db).GetByUID(ctx, result.DisplayUID)
		require.NoError(t, err)
		assert.Equal(t, models.DisplayStatusStandardQueue, display.Status)
		assert.Equal(t, result.RetailerID, display.RetailerID)

		uid, err := repository.NewUIDRepository(db).GetByUID(ctx, result.DisplayUID)
		require.NoError(t, err)
		assert.False(t, uid.IsClaimed)
		require.NotNil(t, uid.RetailerID)
		assert.Equal(t, result.RetailerID, *uid.RetailerID)
	})

	t.Run("邮箱重复拒绝", func(t *testing.T) {
		_, svc, _, _ := setupRetailerTest(t)
		_, err := svc.Register(ctx, registerReq("dup@example.com"))
		require.NoError(t, err)

		_, err = svc.Register(ctx, registerReq("DUP@example.com"))
		assert.ErrorIs(t, err, errors.ErrEmailExists)
	})

	t.Run("地址校验失败不阻塞注册", func(t *testing.T) {
		db, svc, _, uspsClient := setupRetailerTest(t)
		uspsClient.fail = true

		result, err := svc.Register(ctx, registerReq("nodes@example.com"))
		require.NoError(t, err)

		retailer, err := repository.NewRetailerRepository(db).GetByID(ctx, result.RetailerID)
		require.NoError(t, err)
		assert.Equal(t, "123 main st", retailer.AddressLine1)
	})

	t.Run("邮箱格式非法拒绝", func(t *testing.T) {
		_, svc, _, _ := setupRetailerTest(t)
		_, err := svc.Register(ctx, registerReq("not-an-email"))
		require.Error(t, err)
		appErr := errors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, errors.ErrInvalidParams.Code, appErr.Code)
	})
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("密码正确签发令牌", func(t *testing.T) {
		_, svc, _, _ := setupRetailerTest(t)
		reg, err := svc.Register(ctx, registerReq("login@example.com"))
		require.NoError(t, err)

		result, err := svc.Login(ctx, &LoginRequest{Email: "login@example.com", Password: "hunter2hunter2"})
		require.NoError(t, err)
		assert.Equal(t, reg.RetailerID, result.RetailerID)
		assert.NotEmpty(t, result.Token.AccessToken)
	})

	t.Run("密码错误拒绝", func(t *testing.T) {
		_, svc, _, _ := setupRetailerTest(t)
		_, err := svc.Register(ctx, registerReq("wrongpw@example.com"))
		require.NoError(t, err)

		_, err = svc.Login(ctx, &LoginRequest{Email: "wrongpw@example.com", Password: "nope"})
		assert.ErrorIs(t, err, errors.ErrPasswordError)
	})

	t.Run("账号不存在与密码错误同样报错", func(t *testing.T) {
		_, svc, _, _ := setupRetailerTest(t)
		_, err := svc.Login(ctx, &LoginRequest{Email: "ghost@example.com", Password: "whatever"})
		assert.ErrorIs(t, err, errors.ErrPasswordError)
	})

	t.Run("禁用账号拒绝登录", func(t *testing.T) {
		db, svc, _, _ := setupRetailerTest(t)
		reg, err := svc.Register(ctx, registerReq("banned@example.com"))
		require.NoError(t, err)
		require.NoError(t, db.Model(&models.Retailer{}).Where("id = ?", reg.RetailerID).
			Update("status", models.RetailerStatusDisabled).Error)

		_, err = svc.Login(ctx, &LoginRequest{Email: "banned@example.com", Password: "hunter2hunter2"})
		assert.ErrorIs(t, err, errors.ErrAccountDisabled)
	})
}

func TestService_LinkFunding(t *testing.T) {
	ctx := context.Background()

	t.Run("开户挂资金源并持久化", func(t *testing.T) {
		db, svc, dwollaClient, _ := setupRetailerTest(t)
		reg, err := svc.Register(ctx, registerReq("bank@example.com"))
		require.NoError(t, err)

		result, err := svc.LinkFunding(ctx, reg.RetailerID, &LinkFundingRequest{
			PublicToken: "public-sandbox-abc", AccountID: "acct-1", ActorIP: "198.51.100.7",
		})
		require.NoError(t, err)
		assert.Contains(t, result.FundingSourceURL, "funding-sources/fs-1")
		assert.Equal(t, 1, dwollaClient.customers)

		retailer, err := repository.NewRetailerRepository(db).GetByID(ctx, reg.RetailerID)
		require.NoError(t, err)
		assert.True(t, retailer.HasFundingSource())
		require.NotNil(t, retailer.DwollaCustomerURL)
		assert.Contains(t, *retailer.DwollaCustomerURL, "customers/cus-1")

		var audit models.AuditLog
		require.NoError(t, db.Where("actor_id = ? AND action = ?",
			reg.RetailerID, models.AuditActionLinkFunding).First(&audit).Error)
		assert.Equal(t, "198.51.100.7", audit.IP)
	})

	t.Run("重复绑定复用已有收款客户", func(t *testing.T) {
		_, svc, dwollaClient, _ := setupRetailerTest(t)
		reg, err := svc.Register(ctx, registerReq("rebank@example.com"))
		require.NoError(t, err)

		_, err = svc.LinkFunding(ctx, reg.RetailerID, &LinkFundingRequest{
			PublicToken: "public-1", AccountID: "acct-1",
		})
		require.NoError(t, err)
		_, err = svc.LinkFunding(ctx, reg.RetailerID, &LinkFundingRequest{
			PublicToken: "public-2", AccountID: "acct-2",
		})
		require.NoError(t, err)

		assert.Equal(t, 1, dwollaClient.customers)
		assert.Equal(t, 2, dwollaClient.fundingSources)
	})

	t.Run("授权令牌兑换失败报通道错误", func(t *testing.T) {
		db, svc, _, _ := setupRetailerTest(t)
		reg, err := svc.Register(ctx, registerReq("failbank@example.com"))
		require.NoError(t, err)

		svc.plaidClient = &fakePlaidClient{failExchange: true}
		_, err = svc.LinkFunding(ctx, reg.RetailerID, &LinkFundingRequest{
			PublicToken: "public-bad", AccountID: "acct-1",
		})
		require.Error(t, err)
		appErr := errors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, errors.ErrRailTokenFailed.Code, appErr.Code)

		retailer, _ := repository.NewRetailerRepository(db).GetByID(ctx, reg.RetailerID)
		assert.False(t, retailer.HasFundingSource())
	})

	t.Run("零售商不存在报错", func(t *testing.T) {
		_, svc, _, _ := setupRetailerTest(t)
		_, err := svc.LinkFunding(ctx, 404, &LinkFundingRequest{
			PublicToken: "public-1", AccountID: "acct-1",
		})
		assert.ErrorIs(t, err, errors.ErrRetailerNotFound)
	})
}

func TestService_CreateLinkToken(t *testing.T) {
	ctx := context.Background()
	_, svc, _, _ := setupRetailerTest(t)
	reg, err := svc.Register(ctx, registerReq("linktoken@example.com"))
	require.NoError(t, err)

	token, err := svc.CreateLinkToken(ctx, reg.RetailerID)
	require.NoError(t, err)
	assert.Contains(t, token, "link-sandbox-")

	_, err = svc.CreateLinkToken(ctx, 404)
	assert.ErrorIs(t, err, errors.ErrRetailerNotFound)
}
