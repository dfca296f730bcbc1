package admin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tapifyhq/tapify-backend/internal/common/crypto"
	"github.com/tapifyhq/tapify-backend/internal/common/errors"
	"github.com/tapifyhq/tapify-backend/internal/common/jwt"
	"github.com/tapifyhq/tapify-backend/internal/common/utils"
	"github.com/tapifyhq/tapify-backend/internal/models"
	"github.com/tapifyhq/tapify-backend/internal/repository"
)

func setupAdminTest(t *testing.T) (*gorm.DB, *Service) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.AdminUser{},
		&models.UID{},
		&models.Retailer{},
		&models.Business{},
		&models.Order{},
		&models.PayoutJob{},
		&models.LeaderboardEntry{},
	))

	svc := NewService(
		repository.NewAdminUserRepository(db),
		repository.NewUIDRepository(db),
		repository.NewRetailerRepository(db),
		repository.NewBusinessRepository(db),
		repository.NewOrderRepository(db),
		repository.NewPayoutJobRepository(db),
		repository.NewLeaderboardRepository(db),
		jwt.NewManager(&jwt.Config{
			Secret:            "test-secret",
			AccessExpireTime:  time.Hour,
			RefreshExpireTime: 24 * time.Hour,
		}),
	)
	return db, svc
}

func seedAdmin(t *testing.T, db *gorm.DB, username, password string) *models.AdminUser {
	t.Helper()
	hash, err := crypto.HashPassword(password, 4)
	require.NoError(t, err)
	admin := &models.AdminUser{Username: username, PasswordHash: hash, Nickname: "运营"}
	require.NoError(t, db.Create(admin).Error)
	return admin
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("登录成功更新登录时间", func(t *testing.T) {
		db, svc := setupAdminTest(t)
		admin := seedAdmin(t, db, "ops", "s3cretops")

		result, err := svc.Login(ctx, &LoginRequest{Username: "ops", Password: "s3cretops"})
		require.NoError(t, err)
		assert.Equal(t, admin.ID, result.AdminID)
		assert.NotEmpty(t, result.Token.AccessToken)

		var got models.AdminUser
		require.NoError(t, db.First(&got, admin.ID).Error)
		assert.NotNil(t, got.LastLoginAt)
	})

	t.Run("密码错误拒绝", func(t *testing.T) {
		db, svc := setupAdminTest(t)
		seedAdmin(t, db, "ops", "s3cretops")
		_, err := svc.Login(ctx, &LoginRequest{Username: "ops", Password: "wrong"})
		assert.ErrorIs(t, err, errors.ErrPasswordError)
	})

	t.Run("禁用账号拒绝", func(t *testing.T) {
		db, svc := setupAdminTest(t)
		admin := seedAdmin(t, db, "ops", "s3cretops")
		require.NoError(t, db.Model(admin).Update("status", models.AdminStatusDisabled).Error)
		_, err := svc.Login(ctx, &LoginRequest{Username: "ops", Password: "s3cretops"})
		assert.ErrorIs(t, err, errors.ErrAccountDisabled)
	})
}

func TestService_ProvisionUIDs(t *testing.T) {
	ctx := context.Background()
	db, svc := setupAdminTest(t)

	codes, err := svc.ProvisionUIDs(ctx, &ProvisionUIDsRequest{Count: 5})
	require.NoError(t, err)
	require.Len(t, codes, 5)

	var total int64
	db.Model(&models.UID{}).Count(&total)
	assert.Equal(t, int64(5), total)

	// 生成的码全部未认领且互不重复
	seen := map[string]bool{}
	for _, code := range codes {
		assert.False(t, seen[code])
		seen[code] = true
		uid, err := repository.NewUIDRepository(db).GetByUID(ctx, code)
		require.NoError(t, err)
		assert.False(t, uid.IsClaimed)
	}
}

func TestService_ListPayoutJobs(t *testing.T) {
	ctx := context.Background()
	db, svc := setupAdminTest(t)

	for i, status := range []string{
		models.PayoutStatusPending, models.PayoutStatusPending, models.PayoutStatusPaid,
	} {
		require.NoError(t, db.Create(&models.PayoutJob{
			OrderID: int64(i + 1), BusinessID: 1, TotalAmount: 10, Status: status,
		}).Error)
	}

	jobs, total, err := svc.ListPayoutJobs(ctx, &utils.Pagination{Page: 1, PageSize: 10}, models.PayoutStatusPending)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, jobs, 2)

	_, total, err = svc.ListPayoutJobs(ctx, &utils.Pagination{Page: 1, PageSize: 10}, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestService_Leaderboard(t *testing.T) {
	ctx := context.Background()
	db, svc := setupAdminTest(t)

	period := utils.CurrentPeriod()
	require.NoError(t, db.Create(&models.LeaderboardEntry{
		Period: period, RetailerID: 1, ScanCount: 5, OrderCount: 2, Revenue: 200,
	}).Error)
	require.NoError(t, db.Create(&models.LeaderboardEntry{
		Period: period, RetailerID: 2, ScanCount: 9, OrderCount: 1, Revenue: 50,
	}).Error)

	entries, err := svc.Leaderboard(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(1), entries[0].RetailerID)
}
