package webhook

import (
	"context"

	"github.com/tapifyhq/tapify-backend/internal/common/logger"
	"github.com/tapifyhq/tapify-backend/internal/service/payout"

	"go.uber.org/zap"
)

// 支付通道回调主题
const (
	TopicTransferFailed    = "transfer_failed"
	TopicTransferCompleted = "transfer_completed"
)

// DwollaService 支付通道回调处理
type DwollaService struct {
	payoutSvc *payout.Service
}

// NewDwollaService 创建支付通道回调处理服务
func NewDwollaService(payoutSvc *payout.Service) *DwollaService {
	return &DwollaService{payoutSvc: payoutSvc}
}

// Event 支付通道回调事件
type Event struct {
	Topic      string `json:"topic" binding:"required"`
	ResourceID string `json:"resourceId"`
}

// HandleEvent 处理一条支付通道事件
//
// 转账失败批量置失败；转账完成只记日志，完成状态以本地出账为准。
func (s *DwollaService) HandleEvent(ctx context.Context, event *Event) error {
	switch event.Topic {
	case TopicTransferFailed:
		affected, err := s.payoutSvc.HandleTransferFailed(ctx, event.ResourceID)
		if err != nil {
			return err
		}
		logger.Info("处理转账失败事件",
			zap.String("resource_id", event.ResourceID),
			zap.Int64("jobs_failed", affected))
	case TopicTransferCompleted:
		logger.Info("转账完成事件", zap.String("resource_id", event.ResourceID))
	default:
		logger.Debug("忽略未订阅的支付通道事件", zap.String("topic", event.Topic))
	}
	return nil
}
