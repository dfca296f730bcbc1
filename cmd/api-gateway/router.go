// Package main 是应用程序入口
package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tapifyhq/tapify-backend/internal/common/cache"
	"github.com/tapifyhq/tapify-backend/internal/common/config"
	"github.com/tapifyhq/tapify-backend/internal/common/jwt"
	"github.com/tapifyhq/tapify-backend/internal/common/metrics"
	"github.com/tapifyhq/tapify-backend/internal/common/qrcode"
	adminHandler "github.com/tapifyhq/tapify-backend/internal/handler/admin"
	claimHandler "github.com/tapifyhq/tapify-backend/internal/handler/claim"
	payoutHandler "github.com/tapifyhq/tapify-backend/internal/handler/payout"
	retailerHandler "github.com/tapifyhq/tapify-backend/internal/handler/retailer"
	scanHandler "github.com/tapifyhq/tapify-backend/internal/handler/scan"
	webhookHandler "github.com/tapifyhq/tapify-backend/internal/handler/webhook"
	"github.com/tapifyhq/tapify-backend/internal/middleware"
	"github.com/tapifyhq/tapify-backend/internal/repository"
	adminService "github.com/tapifyhq/tapify-backend/internal/service/admin"
	attributionService "github.com/tapifyhq/tapify-backend/internal/service/attribution"
	claimService "github.com/tapifyhq/tapify-backend/internal/service/claim"
	payoutService "github.com/tapifyhq/tapify-backend/internal/service/payout"
	retailerService "github.com/tapifyhq/tapify-backend/internal/service/retailer"
	scanService "github.com/tapifyhq/tapify-backend/internal/service/scan"
	webhookService "github.com/tapifyhq/tapify-backend/internal/service/webhook"
	"github.com/tapifyhq/tapify-backend/pkg/dwolla"
	"github.com/tapifyhq/tapify-backend/pkg/plaid"
	"github.com/tapifyhq/tapify-backend/pkg/usps"
)

// setupRouter 设置路由
func setupRouter(
	r *gin.Engine,
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	redisClient *redis.Client,
) {
	// 创建 JWT 管理器
	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:            cfg.JWT.Secret,
		AccessExpireTime:  cfg.JWT.AccessTokenDuration(),
		RefreshExpireTime: cfg.JWT.RefreshTokenDuration(),
		Issuer:            cfg.JWT.Issuer,
	})

	// 初始化仓储
	uidRepo := repository.NewUIDRepository(db)
	retailerRepo := repository.NewRetailerRepository(db)
	businessRepo := repository.NewBusinessRepository(db)
	sourcerRepo := repository.NewSourcerRepository(db)
	displayRepo := repository.NewDisplayRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	payoutJobRepo := repository.NewPayoutJobRepository(db)
	scanRepo := repository.NewScanRepository(db)
	leaderboardRepo := repository.NewLeaderboardRepository(db)
	adminRepo := repository.NewAdminUserRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// 初始化外部通道客户端
	dwollaClient := dwolla.NewClient(&dwolla.Config{
		Environment:         cfg.Dwolla.Environment,
		Key:                 cfg.Dwolla.Key,
		Secret:              cfg.Dwolla.Secret,
		MasterFundingSource: cfg.Dwolla.MasterFundingSource,
	}, cache.DwollaTokenStore{})
	plaidClient := plaid.NewClient(&plaid.Config{
		Environment: cfg.Plaid.Environment,
		ClientID:    cfg.Plaid.ClientID,
		Secret:      cfg.Plaid.Secret,
	})
	uspsClient := usps.NewClient(&usps.Config{
		UserID:  cfg.USPS.UserID,
		BaseURL: cfg.USPS.BaseURL,
	})

	// 初始化服务
	calculator := payoutService.NewCalculator(&cfg.Business.Payout)
	jobSvc := payoutService.NewJobService(payoutJobRepo, retailerRepo, uidRepo, calculator)
	payoutSvc := payoutService.NewService(
		db, payoutJobRepo, retailerRepo, businessRepo, sourcerRepo,
		dwollaClient, cfg.Dwolla.MasterFundingSource,
	)
	attributionSvc := attributionService.NewService(db, retailerRepo, businessRepo, uidRepo)
	claimSvc := claimService.NewService(
		db, uidRepo, retailerRepo, businessRepo, displayRepo, auditRepo, &cfg.Shopify,
	)
	scanSvc := scanService.NewService(uidRepo, scanRepo, leaderboardRepo, cfg.Server.BaseURL)
	retailerSvc := retailerService.NewService(
		db, retailerRepo, displayRepo, uidRepo, auditRepo,
		jwtManager, plaidClient, dwollaClient, uspsClient, &cfg.Crypto,
	)
	adminSvc := adminService.NewService(
		adminRepo, uidRepo, retailerRepo, businessRepo,
		orderRepo, payoutJobRepo, leaderboardRepo, jwtManager,
	)
	shopifyWebhookSvc := webhookService.NewShopifyService(
		db, orderRepo, uidRepo, scanRepo, retailerRepo, businessRepo,
		displayRepo, leaderboardRepo, attributionSvc, jobSvc, &cfg.Shopify,
	)
	dwollaWebhookSvc := webhookService.NewDwollaService(payoutSvc)
	triggerWebhookSvc := webhookService.NewTriggerService(
		orderRepo, uidRepo, scanRepo, leaderboardRepo, jobSvc, cfg.Shopify.TriggerSecret,
	)

	// 初始化处理器
	claimH := claimHandler.NewHandler(claimSvc)
	payoutH := payoutHandler.NewHandler(payoutSvc)
	scanH := scanHandler.NewHandler(scanSvc, qrcode.NewGenerator(), cfg.Server.BaseURL)
	retailerH := retailerHandler.NewHandler(retailerSvc)
	adminH := adminHandler.NewHandler(adminSvc)
	webhookH := webhookHandler.NewHandler(shopifyWebhookSvc, dwollaWebhookSvc, triggerWebhookSvc)

	// 全局中间件
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RealIP())
	r.Use(middleware.CORS(nil))
	r.Use(middleware.AccessLog(logger))
	r.Use(metrics.Get().Middleware())

	// 健康检查（不需要认证）
	r.GET("/health", healthHandler)
	r.GET("/ping", pingHandler)
	r.GET("/ready", readyHandler(db, redisClient))

	// Prometheus 指标
	r.GET("/metrics", metrics.Handler())

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 扫码短链（限流在前，跳转在后）
	scanH.RegisterRedirectRoute(r, middleware.ScanRateLimit(
		redisClient,
		cfg.Business.Scan.BurstLimit,
		time.Duration(cfg.Business.Scan.BurstWindow)*time.Second,
	))

	// 外部回调（验签/共享密钥，不需要认证）
	webhookH.RegisterRoutes(r)

	// API v1 路由组
	v1 := r.Group("/api/v1")
	{
		// 公开接口（注册、登录、二维码）
		public := v1.Group("")
		{
			retailerH.RegisterRoutes(public)
			scanH.RegisterRoutes(public)
		}

		// 认领接口：允许匿名，已登录时记录操作人
		optional := v1.Group("")
		optional.Use(middleware.OptionalAuth(jwtManager))
		{
			claimH.RegisterRoutes(optional)
		}

		// 零售商接口（需要零售商认证）
		user := v1.Group("")
		user.Use(middleware.UserAuth(jwtManager))
		{
			retailerH.RegisterProtectedRoutes(user)
		}

		// 后台接口（需要管理员认证）
		adminGroup := v1.Group("")
		adminGroup.Use(middleware.AdminAuth(jwtManager))
		{
			adminH.RegisterRoutes(public, adminGroup)
			payoutH.RegisterRoutes(adminGroup)
		}
	}

	// 404 处理
	r.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"code":    404,
			"message": "接口不存在",
		})
	})
}
