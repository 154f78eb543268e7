package service

import (
	"github.com/b2b-portale/internal/config"
	"github.com/b2b-portale/internal/models"

	"github.com/shopspring/decimal"
)

const (
	defaultFreeShippingThreshold = "200.00"
	defaultFlatShippingFee       = "9.90"
)

// ShippingCalculator 运费计算器
type ShippingCalculator struct {
	freeThreshold decimal.Decimal
	flatFee       decimal.Decimal
}

// NewShippingCalculator 从配置创建运费计算器，非法配置回退到默认值
func NewShippingCalculator(cfg config.ShippingConfig) *ShippingCalculator {
	threshold, err := decimal.NewFromString(cfg.FreeThreshold)
	if err != nil || threshold.IsNegative() {
		threshold, _ = decimal.NewFromString(defaultFreeShippingThreshold)
	}
	fee, err := decimal.NewFromString(cfg.FlatFee)
	if err != nil || fee.IsNegative() {
		fee, _ = decimal.NewFromString(defaultFlatShippingFee)
	}
	return &ShippingCalculator{freeThreshold: threshold, flatFee: fee}
}

// Calculate 计算运费：空单不收运费，达到门槛免运费，否则收固定运费
func (c *ShippingCalculator) Calculate(subtotal models.Money) models.Money {
	if subtotal.Decimal.LessThanOrEqual(decimal.Zero) {
		return models.Money{}
	}
	if subtotal.Decimal.GreaterThanOrEqual(c.freeThreshold) {
		return models.Money{}
	}
	return models.NewMoneyFromDecimal(c.flatFee)
}
