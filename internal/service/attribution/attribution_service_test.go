// Package attribution 归因解析单元测试
package attribution

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tapifyhq/tapify-backend/internal/models"
	"github.com/tapifyhq/tapify-backend/internal/repository"
)

func setupAttributionTest(t *testing.T) (*gorm.DB, *Service) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.UID{},
		&models.Retailer{},
		&models.Business{},
	))

	svc := NewService(
		db,
		repository.NewRetailerRepository(db),
		repository.NewBusinessRepository(db),
		repository.NewUIDRepository(db),
	)
	return db, svc
}

func TestService_Resolve(t *testing.T) {
	db, svc := setupAttributionTest(t)
	ctx := context.Background()

	business := &models.Business{Name: "小树茶饮", ShopDomain: "tree-tea.myshopify.com"}
	require.NoError(t, db.Create(business).Error)

	retailer := &models.Retailer{Name: "街角咖啡", BusinessID: &business.ID}
	require.NoError(t, db.Create(retailer).Error)

	retailerID := retailer.ID
	uid := &models.UID{UID: "TAPXYZ789", RetailerID: &retailerID, BusinessID: &business.ID, IsClaimed: true}
	require.NoError(t, db.Create(uid).Error)

	t.Run("引荐标记直接命中", func(t *testing.T) {
		result, err := svc.Resolve(ctx, &Input{ReferralToken: "retailer-1"})
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, retailer.ID, result.RetailerID)
		assert.Equal(t, models.AttributedViaRefTag, result.Via)
	})

	t.Run("引荐标记指向不存在的零售商则继续回退", func(t *testing.T) {
		result, err := svc.Resolve(ctx, &Input{ReferralToken: "retailer-9999"})
		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("UID命中", func(t *testing.T) {
		result, err := svc.Resolve(ctx, &Input{ReferralToken: "TAPXYZ789"})
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, retailer.ID, result.RetailerID)
		assert.Equal(t, models.AttributedViaUID, result.Via)
	})

	t.Run("未认领UID仍按绑定零售商归因", func(t *testing.T) {
		unclaimed := &models.UID{UID: "TAPUNCLAIM", RetailerID: &retailerID}
		require.NoError(t, db.Create(unclaimed).Error)

		result, err := svc.Resolve(ctx, &Input{ReferralToken: "TAPUNCLAIM"})
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, retailer.ID, result.RetailerID)
	})

	t.Run("商家兜底", func(t *testing.T) {
		result, err := svc.Resolve(ctx, &Input{
			ReferralToken:      "unknown-token",
			FallbackBusinessID: &business.ID,
		})
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, retailer.ID, result.RetailerID)
		assert.Equal(t, models.AttributedViaBusiness, result.Via)
	})

	t.Run("操作人兜底", func(t *testing.T) {
		actorID := int64(77)
		actorRetailer := &models.Retailer{Name: "操作人店铺", CreatedByUserID: &actorID}
		require.NoError(t, db.Create(actorRetailer).Error)

		result, err := svc.Resolve(ctx, &Input{
			ReferralToken: "unknown-token",
			ActorUserID:   &actorID,
		})
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, actorRetailer.ID, result.RetailerID)
		assert.Equal(t, models.AttributedViaActor, result.Via)
	})

	t.Run("无零售商的商家自动建档", func(t *testing.T) {
		lonely := &models.Business{Name: "孤店", ShopDomain: "lonely.myshopify.com"}
		require.NoError(t, db.Create(lonely).Error)

		result, err := svc.Resolve(ctx, &Input{FallbackBusinessID: &lonely.ID})
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, models.AttributedViaCreated, result.Via)

		created, err := repository.NewRetailerRepository(db).GetByID(ctx, result.RetailerID)
		require.NoError(t, err)
		assert.Equal(t, "孤店", created.Name)

		// 同一商家再次归因应复用已建档的零售商
		again, err := svc.Resolve(ctx, &Input{FallbackBusinessID: &lonely.ID})
		require.NoError(t, err)
		require.NotNil(t, again)
		assert.Equal(t, result.RetailerID, again.RetailerID)
		assert.Equal(t, models.AttributedViaBusiness, again.Via)
	})

	t.Run("完全无法归因返回空", func(t *testing.T) {
		result, err := svc.Resolve(ctx, &Input{ReferralToken: "nothing"})
		require.NoError(t, err)
		assert.Nil(t, result)
	})
}
