// Package claim 提供展示架认领状态机
package claim

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/tapifyhq/tapify-backend/internal/common/config"
	"github.com/tapifyhq/tapify-backend/internal/common/errors"
	"github.com/tapifyhq/tapify-backend/internal/common/logger"
	"github.com/tapifyhq/tapify-backend/internal/common/metrics"
	"github.com/tapifyhq/tapify-backend/internal/models"
	"github.com/tapifyhq/tapify-backend/internal/repository"

	"go.uber.org/zap"
)

// Service 认领服务
type Service struct {
	db           *gorm.DB
	uidRepo      *repository.UIDRepository
	retailerRepo *repository.RetailerRepository
	businessRepo *repository.BusinessRepository
	displayRepo  *repository.DisplayRepository
	auditRepo    *repository.AuditLogRepository
	shopifyCfg   *config.ShopifyConfig
}

// NewService 创建认领服务
func NewService(
	db *gorm.DB,
	uidRepo *repository.UIDRepository,
	retailerRepo *repository.RetailerRepository,
	businessRepo *repository.BusinessRepository,
	displayRepo *repository.DisplayRepository,
	auditRepo *repository.AuditLogRepository,
	shopifyCfg *config.ShopifyConfig,
) *Service {
	return &Service{
		db:           db,
		uidRepo:      uidRepo,
		retailerRepo: retailerRepo,
		businessRepo: businessRepo,
		displayRepo:  displayRepo,
		auditRepo:    auditRepo,
		shopifyCfg:   shopifyCfg,
	}
}

// Request 认领请求，认领不要求登录，操作人为可选上下文
type Request struct {
	UID         string `json:"uid" binding:"required"`
	BusinessID  *int64 `json:"business_id"`
	RetailerID  *int64 `json:"retailer_id"`
	ActorUserID *int64 `json:"-"`
	ActorIP     string `json:"-"`
}

// Result 认领结果
type Result struct {
	Success      bool   `json:"success"`
	RetailerID   int64  `json:"retailer_id"`
	AffiliateURL string `json:"affiliate_url"`
}

// Claim 认领一个展示架标识码，单向状态机
//
// 已认领的标识码返回冲突并报告当前归属；
// 认领成功后零售商排队中的展示架全部激活，商家标记已接入。
func (s *Service) Claim(ctx context.Context, req *Request) (*Result, error) {
	var result *Result
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := s.uidRepo.GetByUIDForUpdate(ctx, tx, req.UID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrUIDNotFound
			}
			return errors.ErrDatabaseError.WithError(err)
		}
		if record.IsClaimed {
			msg := "标识码已被认领"
			if record.RetailerID != nil {
				msg = fmt.Sprintf("标识码已被零售商 %d 认领", *record.RetailerID)
			}
			return errors.ErrUIDClaimed.WithMessage(msg)
		}

		businessID := req.BusinessID
		if businessID == nil {
			businessID = record.BusinessID
		}

		retailer, err := s.resolveRetailer(ctx, req.RetailerID, businessID, req.ActorUserID)
		if err != nil {
			return err
		}
		if retailer == nil {
			return errors.ErrRetailerUnresolved
		}
		if businessID == nil {
			businessID = retailer.BusinessID
		}

		affiliateURL, err := s.affiliateURL(ctx, record, businessID)
		if err != nil {
			return err
		}

		if err := s.uidRepo.MarkClaimed(ctx, tx, record.ID, &retailer.ID, businessID, req.ActorUserID, affiliateURL); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		activated, err := s.displayRepo.ActivateQueued(ctx, tx, retailer.ID)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		if businessID != nil {
			if err := s.businessRepo.SetConnected(ctx, tx, *businessID); err != nil {
				return errors.ErrDatabaseError.WithError(err)
			}
		}

		// 匿名认领合法，仅登录操作人才落审计
		if req.ActorUserID != nil {
			entry := &models.AuditLog{
				ActorType: "user",
				ActorID:   *req.ActorUserID,
				Action:    models.AuditActionClaimUID,
				IP:        req.ActorIP,
				Detail: models.JSON{
					"uid":         req.UID,
					"retailer_id": retailer.ID,
				},
			}
			if err := s.auditRepo.CreateTx(ctx, tx, entry); err != nil {
				return errors.ErrDatabaseError.WithError(err)
			}
		}

		logger.Info("标识码认领成功",
			zap.String("uid", req.UID),
			zap.Int64("retailer_id", retailer.ID),
			zap.Int64("displays_activated", activated))

		result = &Result{
			Success:      true,
			RetailerID:   retailer.ID,
			AffiliateURL: affiliateURL,
		}
		return nil
	})
	if err != nil {
		metrics.Get().RecordClaim("error")
		if appErr := errors.GetAppError(err); appErr != nil {
			return nil, appErr
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	metrics.Get().RecordClaim("success")
	return result, nil
}

// resolveRetailer 认领时的零售商回退链：
// 直接指定 → 商家名下 → 操作人建档 → 为商家自动建档
func (s *Service) resolveRetailer(ctx context.Context, retailerID, businessID, actorUserID *int64) (*models.Retailer, error) {
	if retailerID != nil {
		retailer, err := s.retailerRepo.GetByID(ctx, *retailerID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, errors.ErrRetailerNotFound
			}
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		return retailer, nil
	}

	if businessID != nil {
		retailer, err := s.retailerRepo.GetByBusinessID(ctx, *businessID)
		if err == nil {
			return retailer, nil
		}
		if err != gorm.ErrRecordNotFound {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
	}

	if actorUserID != nil {
		retailer, err := s.retailerRepo.GetByCreatedByUser(ctx, *actorUserID)
		if err == nil {
			return retailer, nil
		}
		if err != gorm.ErrRecordNotFound {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
	}

	if businessID != nil {
		business, err := s.businessRepo.GetByID(ctx, *businessID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, errors.ErrBusinessNotFound
			}
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		retailer := &models.Retailer{
			Name:       business.Name,
			BusinessID: &business.ID,
			Status:     models.RetailerStatusActive,
		}
		if err := s.retailerRepo.Create(ctx, retailer); err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		return retailer, nil
	}

	return nil, nil
}

// affiliateURL 取标识码既有链接，否则按店面域名拼带货链接
func (s *Service) affiliateURL(ctx context.Context, record *models.UID, businessID *int64) (string, error) {
	if record.AffiliateURL != nil && *record.AffiliateURL != "" {
		return *record.AffiliateURL, nil
	}

	domain := s.shopifyCfg.StorefrontDomain
	if businessID != nil {
		business, err := s.businessRepo.GetByID(ctx, *businessID)
		if err == nil && business.StorefrontDomain != nil && *business.StorefrontDomain != "" {
			domain = *business.StorefrontDomain
		} else if err != nil && err != gorm.ErrRecordNotFound {
			return "", errors.ErrDatabaseError.WithError(err)
		}
	}
	if domain == "" {
		return "", errors.ErrAffiliateURLEmpty
	}
	return fmt.Sprintf("https://%s/collections/all?ref=%s", domain, record.UID), nil
}
