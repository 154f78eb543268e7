package service

import (
	"github.com/b2b-portale/internal/models"
	"github.com/b2b-portale/internal/repository"

	"github.com/shopspring/decimal"
)

var percentBase = decimal.NewFromInt(100)

// rateSource 佣金率来源。返回 nil 表示该来源未配置，交给下一级
type rateSource func(partner *models.PartnerProfile, product *models.Product) (*decimal.Decimal, error)

// CommissionService 佣金计算服务
type CommissionService struct {
	partnerRepo repository.PartnerRepository
}

// NewCommissionService 创建佣金计算服务
func NewCommissionService(partnerRepo repository.PartnerRepository) *CommissionService {
	return &CommissionService{partnerRepo: partnerRepo}
}

// WithPartnerRepo 返回绑定到指定仓储的副本，用于事务内计算
func (s *CommissionService) WithPartnerRepo(partnerRepo repository.PartnerRepository) *CommissionService {
	if partnerRepo == nil {
		return s
	}
	return &CommissionService{partnerRepo: partnerRepo}
}

// rateSources 佣金率来源按优先级排列：商品覆盖 > 合作商分类佣金率 > 合作商默认
func (s *CommissionService) rateSources() []rateSource {
	return []rateSource{
		s.productRate,
		s.categoryRate,
		s.partnerDefaultRate,
	}
}

func (s *CommissionService) productRate(partner *models.PartnerProfile, product *models.Product) (*decimal.Decimal, error) {
	if product == nil || product.PartnerCommissionRate == nil {
		return nil, nil
	}
	// 显式配置的 0 同样生效
	rate := product.PartnerCommissionRate.Decimal
	return &rate, nil
}

func (s *CommissionService) categoryRate(partner *models.PartnerProfile, product *models.Product) (*decimal.Decimal, error) {
	if partner == nil || product == nil || product.CategoryID == 0 {
		return nil, nil
	}
	row, err := s.partnerRepo.GetCategoryCommission(partner.ID, product.CategoryID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	rate := row.CommissionRate.Decimal
	return &rate, nil
}

func (s *CommissionService) partnerDefaultRate(partner *models.PartnerProfile, product *models.Product) (*decimal.Decimal, error) {
	if partner == nil {
		return nil, nil
	}
	rate := partner.DefaultCommissionPercent.Decimal
	return &rate, nil
}

// ResolveRate 解析订单行适用的佣金率，所有来源都未配置时返回 0。
// 无合作商的订单行不计佣金，直接返回 0，不再询问任何来源
func (s *CommissionService) ResolveRate(partner *models.PartnerProfile, product *models.Product) (decimal.Decimal, error) {
	if partner == nil {
		return decimal.Zero, nil
	}
	for _, source := range s.rateSources() {
		rate, err := source(partner, product)
		if err != nil {
			return decimal.Zero, err
		}
		if rate != nil {
			return *rate, nil
		}
	}
	return decimal.Zero, nil
}

// Calculate 计算订单行的佣金快照并写入字段，不负责持久化。
// overrideRate 非空时跳过佣金率解析。无合作商的订单行佣金恒为 0，
// 收益即行总价。重复调用结果一致
func (s *CommissionService) Calculate(item *models.OrderItem, partner *models.PartnerProfile, product *models.Product, overrideRate *decimal.Decimal) error {
	if item == nil {
		return nil
	}

	var rate decimal.Decimal
	switch {
	case partner == nil:
		rate = decimal.Zero
	case overrideRate != nil:
		rate = *overrideRate
	default:
		resolved, err := s.ResolveRate(partner, product)
		if err != nil {
			return err
		}
		rate = resolved
	}

	gross := item.TotalPrice.Decimal
	commission := gross.Mul(rate).Div(percentBase).Round(2)
	earnings := gross.Sub(commission).Round(2)

	item.CommissionRate = models.NewMoneyFromDecimal(rate)
	item.CommissionAmount = models.NewMoneyFromDecimal(commission)
	item.PartnerEarnings = models.NewMoneyFromDecimal(earnings)
	return nil
}
