// Package attribution 提供订单归因解析
package attribution

import (
	"context"

	"gorm.io/gorm"

	"github.com/tapifyhq/tapify-backend/internal/common/logger"
	"github.com/tapifyhq/tapify-backend/internal/models"
	"github.com/tapifyhq/tapify-backend/internal/repository"
	"github.com/tapifyhq/tapify-backend/pkg/shopify"

	"go.uber.org/zap"
)

// Input 归因输入
type Input struct {
	ReferralToken      string
	FallbackBusinessID *int64
	ActorUserID        *int64
}

// Result 归因结果
type Result struct {
	RetailerID int64
	BusinessID *int64
	Via        string
}

// Service 归因解析服务
type Service struct {
	db           *gorm.DB
	retailerRepo *repository.RetailerRepository
	businessRepo *repository.BusinessRepository
	uidRepo      *repository.UIDRepository
}

// NewService 创建归因解析服务
func NewService(
	db *gorm.DB,
	retailerRepo *repository.RetailerRepository,
	businessRepo *repository.BusinessRepository,
	uidRepo *repository.UIDRepository,
) *Service {
	return &Service{
		db:           db,
		retailerRepo: retailerRepo,
		businessRepo: businessRepo,
		uidRepo:      uidRepo,
	}
}

// Resolve 按固定顺序解析订单归属的零售商
//
// 依次尝试：retailer-<id> 引荐标记、展示架 UID、商家兜底、操作人兜底、
// 为无零售商的商家自动建档。全部落空返回 nil，订单按未归因落库。
func (s *Service) Resolve(ctx context.Context, input *Input) (*Result, error) {
	if input.ReferralToken != "" {
		if result, err := s.resolveByRefTag(ctx, input.ReferralToken); err != nil {
			return nil, err
		} else if result != nil {
			return result, nil
		}

		if result, err := s.resolveByUID(ctx, input.ReferralToken); err != nil {
			return nil, err
		} else if result != nil {
			return result, nil
		}
	}

	if input.FallbackBusinessID != nil {
		if result, err := s.resolveByBusiness(ctx, *input.FallbackBusinessID); err != nil {
			return nil, err
		} else if result != nil {
			return result, nil
		}
	}

	if input.ActorUserID != nil {
		if result, err := s.resolveByActor(ctx, *input.ActorUserID); err != nil {
			return nil, err
		} else if result != nil {
			return result, nil
		}
	}

	if input.FallbackBusinessID != nil {
		return s.createForBusiness(ctx, *input.FallbackBusinessID)
	}

	return nil, nil
}

// resolveByRefTag 解析 retailer-<id> 形式的引荐标记
func (s *Service) resolveByRefTag(ctx context.Context, token string) (*Result, error) {
	retailerID, ok := shopify.ParseRetailerRef(token)
	if !ok {
		return nil, nil
	}

	retailer, err := s.retailerRepo.GetByID(ctx, retailerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &Result{
		RetailerID: retailer.ID,
		BusinessID: retailer.BusinessID,
		Via:        models.AttributedViaRefTag,
	}, nil
}

// resolveByUID 将引荐标记当作展示架 UID 解析
// 未认领的 UID 同样计入销量，由后续环节延迟处理分账
func (s *Service) resolveByUID(ctx context.Context, token string) (*Result, error) {
	record, err := s.uidRepo.GetByUID(ctx, token)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	if record.RetailerID == nil {
		return nil, nil
	}
	return &Result{
		RetailerID: *record.RetailerID,
		BusinessID: record.BusinessID,
		Via:        models.AttributedViaUID,
	}, nil
}

// resolveByBusiness 用商家名下零售商兜底
func (s *Service) resolveByBusiness(ctx context.Context, businessID int64) (*Result, error) {
	retailer, err := s.retailerRepo.GetByBusinessID(ctx, businessID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &Result{
		RetailerID: retailer.ID,
		BusinessID: &businessID,
		Via:        models.AttributedViaBusiness,
	}, nil
}

// resolveByActor 用当前操作人建档的零售商兜底
func (s *Service) resolveByActor(ctx context.Context, actorUserID int64) (*Result, error) {
	retailer, err := s.retailerRepo.GetByCreatedByUser(ctx, actorUserID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &Result{
		RetailerID: retailer.ID,
		BusinessID: retailer.BusinessID,
		Via:        models.AttributedViaActor,
	}, nil
}

// createForBusiness 为尚无零售商的商家自动建档
func (s *Service) createForBusiness(ctx context.Context, businessID int64) (*Result, error) {
	business, err := s.businessRepo.GetByID(ctx, businessID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}

	retailer := &models.Retailer{
		Name:       business.Name,
		BusinessID: &business.ID,
		Status:     models.RetailerStatusActive,
	}
	if err := s.retailerRepo.Create(ctx, retailer); err != nil {
		return nil, err
	}
	logger.Info("自动建档零售商",
		zap.Int64("business_id", businessID),
		zap.Int64("retailer_id", retailer.ID))

	return &Result{
		RetailerID: retailer.ID,
		BusinessID: &business.ID,
		Via:        models.AttributedViaCreated,
	}, nil
}
