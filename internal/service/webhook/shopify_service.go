// Package webhook 提供外部回调的归一化处理
package webhook

import (
	"context"

	"gorm.io/gorm"

	"github.com/tapifyhq/tapify-backend/internal/common/config"
	"github.com/tapifyhq/tapify-backend/internal/common/errors"
	"github.com/tapifyhq/tapify-backend/internal/common/logger"
	"github.com/tapifyhq/tapify-backend/internal/common/utils"
	"github.com/tapifyhq/tapify-backend/internal/models"
	"github.com/tapifyhq/tapify-backend/internal/repository"
	"github.com/tapifyhq/tapify-backend/internal/service/attribution"
	"github.com/tapifyhq/tapify-backend/internal/service/payout"
	"github.com/tapifyhq/tapify-backend/pkg/shopify"

	"go.uber.org/zap"
)

// ShopifyService 电商订单回调处理
type ShopifyService struct {
	db              *gorm.DB
	orderRepo       *repository.OrderRepository
	uidRepo         *repository.UIDRepository
	scanRepo        *repository.ScanRepository
	retailerRepo    *repository.RetailerRepository
	businessRepo    *repository.BusinessRepository
	displayRepo     *repository.DisplayRepository
	leaderboardRepo *repository.LeaderboardRepository
	attributionSvc  *attribution.Service
	jobSvc          *payout.JobService
	cfg             *config.ShopifyConfig
}

// NewShopifyService 创建订单回调处理服务
func NewShopifyService(
	db *gorm.DB,
	orderRepo *repository.OrderRepository,
	uidRepo *repository.UIDRepository,
	scanRepo *repository.ScanRepository,
	retailerRepo *repository.RetailerRepository,
	businessRepo *repository.BusinessRepository,
	displayRepo *repository.DisplayRepository,
	leaderboardRepo *repository.LeaderboardRepository,
	attributionSvc *attribution.Service,
	jobSvc *payout.JobService,
	cfg *config.ShopifyConfig,
) *ShopifyService {
	return &ShopifyService{
		db:              db,
		orderRepo:       orderRepo,
		uidRepo:         uidRepo,
		scanRepo:        scanRepo,
		retailerRepo:    retailerRepo,
		businessRepo:    businessRepo,
		displayRepo:     displayRepo,
		leaderboardRepo: leaderboardRepo,
		attributionSvc:  attributionSvc,
		jobSvc:          jobSvc,
		cfg:             cfg,
	}
}

// VerifySignature 校验回调签名，缺失或不匹配返回签名错误
func (s *ShopifyService) VerifySignature(body []byte, signature string) error {
	if signature == "" || len(body) == 0 {
		return errors.ErrSignatureInvalid
	}
	if !shopify.VerifyWebhook(s.cfg.WebhookSecret, body, signature) {
		return errors.ErrSignatureInvalid
	}
	return nil
}

// ProcessOrder 处理一笔订单投递，可安全重放
//
// 归因失败不报错，订单按未归因落库留待人工处理。
// 附属写入（扫码转化、排行榜、零售商标记）尽力而为，失败只记日志。
func (s *ShopifyService) ProcessOrder(ctx context.Context, shopDomain string, body []byte) error {
	payload, err := shopify.ParseOrder(body)
	if err != nil {
		return errors.ErrInvalidParams.WithError(err)
	}

	total, err := payload.TotalAmount()
	if err != nil {
		return errors.ErrInvalidParams.WithError(err)
	}

	var businessID *int64
	business, err := s.businessRepo.GetByShopDomain(ctx, shopDomain)
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return errors.ErrDatabaseError.WithError(err)
		}
		logger.Warn("未登记的店铺域名", zap.String("shop_domain", shopDomain))
	} else {
		businessID = &business.ID
	}

	ref := payload.Ref()
	result, err := s.attributionSvc.Resolve(ctx, &attribution.Input{
		ReferralToken:      ref,
		FallbackBusinessID: businessID,
	})
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}

	order := &models.Order{
		ExternalID:      payload.ExternalID(),
		TotalAmount:     total,
		Currency:        payload.Currency,
		PriorityDisplay: payload.HasPriorityDisplay(),
	}
	if payload.Email != "" {
		order.CustomerEmail = &payload.Email
	}
	if ref != "" {
		order.UIDRef = &ref
	}
	if result != nil {
		order.RetailerID = &result.RetailerID
		order.AttributedVia = result.Via
		if result.BusinessID != nil {
			order.BusinessID = *result.BusinessID
		}
	}
	if order.BusinessID == 0 && businessID != nil {
		order.BusinessID = *businessID
	}

	var raw models.JSON
	if err := raw.Scan(body); err == nil {
		order.RawPayload = raw
	}

	inserted, err := s.orderRepo.CreateIfAbsent(ctx, order)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	firstDelivery := inserted
	if !inserted {
		existing, err := s.orderRepo.GetByExternalID(ctx, order.ExternalID)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		// 重放时补全此前缺失的归因，该次投递视同首次计入
		if existing.RetailerID == nil && order.RetailerID != nil {
			if err := s.orderRepo.UpdateFields(ctx, existing.ID, map[string]interface{}{
				"retailer_id":    order.RetailerID,
				"business_id":    order.BusinessID,
				"attributed_via": order.AttributedVia,
			}); err != nil {
				return errors.ErrDatabaseError.WithError(err)
			}
			existing.RetailerID = order.RetailerID
			existing.BusinessID = order.BusinessID
			firstDelivery = true
		}
		order = existing
	}

	if order.RetailerID != nil {
		if _, err := s.jobSvc.EnsureJob(ctx, order); err != nil {
			return err
		}
	}

	// 重放投递只确认不重复累计
	if firstDelivery {
		s.applySideEffects(ctx, payload, order, ref, total)
	}
	return nil
}

// applySideEffects 订单落库后的尽力而为写入
func (s *ShopifyService) applySideEffects(ctx context.Context, payload *shopify.OrderPayload, order *models.Order, ref string, total float64) {
	if ref != "" {
		if err := s.scanRepo.MarkLatestConverted(ctx, ref, total); err != nil {
			logger.Warn("扫码转化标记失败", zap.String("ref", ref), zap.Error(err))
		}
		if record, err := s.uidRepo.GetByUID(ctx, ref); err == nil {
			if err := s.uidRepo.RecordOrder(ctx, record.ID, total); err != nil {
				logger.Warn("标识码成交信息更新失败", zap.String("uid", ref), zap.Error(err))
			}
		}
	}

	if order.RetailerID != nil {
		if err := s.leaderboardRepo.AddOrder(ctx, utils.CurrentPeriod(), *order.RetailerID, total); err != nil {
			logger.Warn("排行榜累计失败", zap.Int64("retailer_id", *order.RetailerID), zap.Error(err))
		}

		fields := map[string]interface{}{}
		if payload.HasPriorityDisplay() {
			fields["priority_display_active"] = true
		}
		if payload.HasLineItemContaining("express shipping") {
			fields["express_shipping"] = true
		}
		if len(fields) > 0 {
			if err := s.retailerRepo.UpdateFields(ctx, *order.RetailerID, fields); err != nil {
				logger.Warn("零售商标记更新失败", zap.Int64("retailer_id", *order.RetailerID), zap.Error(err))
			}
		}
		if payload.HasPriorityDisplay() {
			if _, err := s.displayRepo.PromoteToPriority(ctx, s.db, *order.RetailerID); err != nil {
				logger.Warn("展示架提升优先失败", zap.Int64("retailer_id", *order.RetailerID), zap.Error(err))
			}
		}
	}
}
