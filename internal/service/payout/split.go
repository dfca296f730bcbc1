// Package payout 提供分账计算与打款服务
package payout

import (
	"github.com/shopspring/decimal"

	"github.com/tapifyhq/tapify-backend/internal/common/config"
)

// Split 单笔订单的四方分成
type Split struct {
	RetailerCut float64
	VendorCut   float64
	SourcerCut  float64
	TapifyCut   float64
}

// Calculator 分成计算器
type Calculator struct {
	retailerRate decimal.Decimal
	vendorRate   decimal.Decimal
	sourcerRate  decimal.Decimal
	tapifyRate   decimal.Decimal
}

// NewCalculator 创建分成计算器
func NewCalculator(cfg *config.PayoutConfig) *Calculator {
	return &Calculator{
		retailerRate: decimal.NewFromFloat(cfg.RetailerRate),
		vendorRate:   decimal.NewFromFloat(cfg.VendorRate),
		sourcerRate:  decimal.NewFromFloat(cfg.SourcerRate),
		tapifyRate:   decimal.NewFromFloat(cfg.TapifyRate),
	}
}

// Calculate 计算分成
//
// 无引荐人：零售商按比例四舍五入取两位，商家拿剩余全部，金额守恒。
// 有引荐人：四方各自按比例独立四舍五入，舍入偏差不作调整。
func (c *Calculator) Calculate(totalAmount float64, hasSourcer bool) Split {
	total := decimal.NewFromFloat(totalAmount)

	retailer := roundHalfUp(total.Mul(c.retailerRate))

	if !hasSourcer {
		vendor := total.Sub(retailer)
		return Split{
			RetailerCut: retailer.InexactFloat64(),
			VendorCut:   vendor.InexactFloat64(),
		}
	}

	vendor := roundHalfUp(total.Mul(c.vendorRate))
	sourcer := roundHalfUp(total.Mul(c.sourcerRate))
	tapify := roundHalfUp(total.Mul(c.tapifyRate))

	return Split{
		RetailerCut: retailer.InexactFloat64(),
		VendorCut:   vendor.InexactFloat64(),
		SourcerCut:  sourcer.InexactFloat64(),
		TapifyCut:   tapify.InexactFloat64(),
	}
}

// roundHalfUp 四舍五入保留两位小数
func roundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
