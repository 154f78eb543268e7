package service

import (
	"time"

	"github.com/b2b-portale/internal/constants"
	"github.com/b2b-portale/internal/logger"
	"github.com/b2b-portale/internal/models"
	"github.com/b2b-portale/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 交互式建立草稿的三种结果，供前端区分提示
const (
	DraftOutcomeCreated            = "created"
	DraftOutcomeUpdated            = "updated"
	DraftOutcomeCreatedWithHistory = "created_with_history"
)

// PayoutService 结算单服务
type PayoutService struct {
	payoutRepo  repository.PayoutRepository
	itemRepo    repository.OrderItemRepository
	partnerRepo repository.PartnerRepository
	commission  *CommissionService
}

// NewPayoutService 创建结算单服务
func NewPayoutService(
	payoutRepo repository.PayoutRepository,
	itemRepo repository.OrderItemRepository,
	partnerRepo repository.PartnerRepository,
	commission *CommissionService,
) *PayoutService {
	return &PayoutService{
		payoutRepo:  payoutRepo,
		itemRepo:    itemRepo,
		partnerRepo: partnerRepo,
		commission:  commission,
	}
}

// BuildDraftInput 交互式建立结算草稿的输入
type BuildDraftInput struct {
	PartnerID   uint
	PeriodStart time.Time
	PeriodEnd   time.Time
	Notes       string
}

// BuildDraftResult 交互式建立结算草稿的结果
type BuildDraftResult struct {
	Payout        *models.PartnerPayout `json:"payout"`
	Outcome       string                `json:"outcome"`
	AddedEarnings models.Money          `json:"added_earnings"`
	ItemCount     int                   `json:"item_count"`
}

// normalizePeriodDate 结算期按自然日对齐
func normalizePeriodDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func validatePeriod(start, end time.Time) (time.Time, time.Time, error) {
	if start.IsZero() || end.IsZero() {
		return time.Time{}, time.Time{}, ErrPayoutPeriodInvalid
	}
	normalizedStart := normalizePeriodDate(start)
	normalizedEnd := normalizePeriodDate(end)
	if normalizedEnd.Before(normalizedStart) {
		return time.Time{}, time.Time{}, ErrPayoutPeriodInvalid
	}
	return normalizedStart, normalizedEnd, nil
}

// periodEndExclusive 结算期结束日含当日，转为排他上界用于时间过滤
func periodEndExclusive(periodEnd time.Time) time.Time {
	return periodEnd.AddDate(0, 0, 1)
}

// BuildOrUpdateDraft 交互式建立或累加结算草稿。
// 同一事务内锁定合作商行作为串行化锚点，选中结算期内未清算、
// 未归属的订单行，补齐缺失的佣金快照，按合作商应得累计入草稿，
// 并把选中的行归属到该草稿。结算期内无可结算行时不产生任何变更
func (s *PayoutService) BuildOrUpdateDraft(input BuildDraftInput) (*BuildDraftResult, error) {
	periodStart, periodEnd, err := validatePeriod(input.PeriodStart, input.PeriodEnd)
	if err != nil {
		return nil, err
	}

	var result *BuildDraftResult
	err = s.payoutRepo.Transaction(func(tx *gorm.DB) error {
		payoutRepo := s.payoutRepo.WithTx(tx)
		itemRepo := s.itemRepo.WithTx(tx)
		partnerRepo := s.partnerRepo.WithTx(tx)
		now := time.Now()

		partner, err := partnerRepo.GetProfileByIDForUpdate(input.PartnerID)
		if err != nil {
			return err
		}
		if partner == nil {
			return ErrPartnerNotFound
		}

		items, err := itemRepo.ListUnassignedForPayoutForUpdate(partner.ID, periodStart, periodEndExclusive(periodEnd))
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrPayoutNothingToLiquidate
		}

		commission := s.commission.WithPartnerRepo(partnerRepo)
		total := decimal.Zero
		ids := make([]uint, 0, len(items))
		for i := range items {
			item := &items[i]
			// 被合作商拒绝的行保持零佣金快照，不参与补齐
			recompute := item.PartnerStatus != constants.ItemStatusRejected &&
				(item.CommissionAmount.IsZero() || item.PartnerEarnings.IsZero())
			if recompute {
				// 行上已有佣金率快照时沿用，否则回退到合作商默认佣金率
				rate := item.CommissionRate.Decimal
				if !rate.IsPositive() {
					rate = partner.DefaultCommissionPercent.Decimal
				}
				if err := commission.Calculate(item, partner, nil, &rate); err != nil {
					return err
				}
				if err := itemRepo.UpdateFields(item.ID, map[string]interface{}{
					"commission_rate":   item.CommissionRate,
					"commission_amount": item.CommissionAmount,
					"partner_earnings":  item.PartnerEarnings,
					"updated_at":        now,
				}); err != nil {
					return err
				}
			}
			total = total.Add(item.PartnerEarnings.Decimal)
			ids = append(ids, item.ID)
		}
		addedEarnings := models.NewMoneyFromDecimal(total)

		payout, err := payoutRepo.GetDraftForPeriodForUpdate(partner.ID, periodStart, periodEnd)
		if err != nil {
			return err
		}

		outcome := DraftOutcomeUpdated
		if payout != nil {
			if err := payoutRepo.AddToTotal(payout.ID, addedEarnings, now); err != nil {
				return err
			}
			payout.TotalCommission = payout.TotalCommission.Add(addedEarnings)
		} else {
			hasHistory, err := payoutRepo.HasAnyForPeriod(partner.ID, periodStart, periodEnd, 0)
			if err != nil {
				return err
			}
			outcome = DraftOutcomeCreated
			if hasHistory {
				outcome = DraftOutcomeCreatedWithHistory
			}
			payout = &models.PartnerPayout{
				PartnerID:       partner.ID,
				PeriodStart:     periodStart,
				PeriodEnd:       periodEnd,
				TotalCommission: addedEarnings,
				Status:          constants.PayoutStatusDraft,
				Notes:           input.Notes,
			}
			if err := payoutRepo.Create(payout); err != nil {
				return err
			}
		}

		assigned, err := itemRepo.AssignToPayout(ids, payout.ID, now)
		if err != nil {
			return err
		}

		logger.Infow("payout_draft_built",
			"payout_id", payout.ID,
			"partner_id", partner.ID,
			"outcome", outcome,
			"items", assigned,
			"added_earnings", addedEarnings.String(),
		)

		result = &BuildDraftResult{
			Payout:        payout,
			Outcome:       outcome,
			AddedEarnings: addedEarnings,
			ItemCount:     len(ids),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateStatus 推进结算单状态。首次进入 paid 时在同一事务内清算：
// 先清算归属本单的订单行，再对结算期内仍未归属任何结算单的旧数据
// 执行回退清算并归属到本单。重复 paid 为无操作，不会再次清算
func (s *PayoutService) UpdateStatus(payoutID uint, target string) (*models.PartnerPayout, error) {
	err := s.payoutRepo.Transaction(func(tx *gorm.DB) error {
		payoutRepo := s.payoutRepo.WithTx(tx)
		itemRepo := s.itemRepo.WithTx(tx)
		now := time.Now()

		payout, err := payoutRepo.GetByIDForUpdate(payoutID)
		if err != nil {
			return err
		}
		if payout == nil {
			return ErrPayoutNotFound
		}
		if !CanTransitionPayoutStatus(payout.Status, target) {
			return ErrPayoutStatusInvalid
		}
		if payout.Status == target {
			return nil
		}

		becomingPaid := target == constants.PayoutStatusPaid

		updates := map[string]interface{}{
			"status":     target,
			"updated_at": now,
		}
		if becomingPaid && payout.PaidAt == nil {
			updates["paid_at"] = now
		}
		if err := payoutRepo.UpdateFields(payout.ID, updates); err != nil {
			return err
		}

		if becomingPaid {
			attached, err := itemRepo.LiquidateByPayout(payout.ID, now)
			if err != nil {
				return err
			}
			legacy, err := itemRepo.LiquidateLegacyUnassigned(
				payout.PartnerID,
				payout.ID,
				normalizePeriodDate(payout.PeriodStart),
				periodEndExclusive(normalizePeriodDate(payout.PeriodEnd)),
				now,
			)
			if err != nil {
				return err
			}
			logger.Infow("payout_liquidated",
				"payout_id", payout.ID,
				"partner_id", payout.PartnerID,
				"attached_items", attached,
				"legacy_items", legacy,
			)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.payoutRepo.GetByID(payoutID)
}

// UpdateDetails 更新结算单备注与付款凭证
func (s *PayoutService) UpdateDetails(payoutID uint, notes, paymentReceipt *string) (*models.PartnerPayout, error) {
	payout, err := s.payoutRepo.GetByID(payoutID)
	if err != nil {
		return nil, err
	}
	if payout == nil {
		return nil, ErrPayoutNotFound
	}

	updates := map[string]interface{}{}
	if notes != nil {
		updates["notes"] = *notes
	}
	if paymentReceipt != nil {
		updates["payment_receipt"] = *paymentReceipt
	}
	if len(updates) == 0 {
		return payout, nil
	}
	updates["updated_at"] = time.Now()
	if err := s.payoutRepo.UpdateFields(payout.ID, updates); err != nil {
		return nil, err
	}
	return s.payoutRepo.GetByID(payoutID)
}

// RebuildResult 周期性重建的单个合作商结果
type RebuildResult struct {
	Payout    *models.PartnerPayout `json:"payout"`
	Created   bool                  `json:"created"`
	ItemCount int64                 `json:"item_count"`
}

// RebuildPeriodPayouts 按结算期重建各合作商的结算单快照：
// 只统计已完成订单的平台佣金，结算期内已有结算单时直接覆盖总额。
// 与交互式草稿的累加语义不同，这里的总额始终可以重算得到
func (s *PayoutService) RebuildPeriodPayouts(periodStart, periodEnd time.Time) ([]RebuildResult, error) {
	normalizedStart, normalizedEnd, err := validatePeriod(periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	aggregates, err := s.itemRepo.AggregateCommissionByPartner(normalizedStart, periodEndExclusive(normalizedEnd))
	if err != nil {
		return nil, err
	}

	results := make([]RebuildResult, 0, len(aggregates))
	for _, aggregate := range aggregates {
		var item RebuildResult
		err := s.payoutRepo.Transaction(func(tx *gorm.DB) error {
			payoutRepo := s.payoutRepo.WithTx(tx)
			now := time.Now()
			total := models.NewMoneyFromDecimal(aggregate.TotalCommission)

			payout, err := payoutRepo.GetForPeriod(aggregate.PartnerID, normalizedStart, normalizedEnd)
			if err != nil {
				return err
			}
			if payout == nil {
				payout = &models.PartnerPayout{
					PartnerID:       aggregate.PartnerID,
					PeriodStart:     normalizedStart,
					PeriodEnd:       normalizedEnd,
					TotalCommission: total,
					Status:          constants.PayoutStatusDraft,
				}
				if err := payoutRepo.Create(payout); err != nil {
					return err
				}
				item = RebuildResult{Payout: payout, Created: true, ItemCount: aggregate.ItemCount}
				return nil
			}

			if err := payoutRepo.UpdateFields(payout.ID, map[string]interface{}{
				"total_commission": total,
				"updated_at":       now,
			}); err != nil {
				return err
			}
			payout.TotalCommission = total
			item = RebuildResult{Payout: payout, Created: false, ItemCount: aggregate.ItemCount}
			return nil
		})
		if err != nil {
			return nil, err
		}
		results = append(results, item)
	}

	logger.Infow("payout_period_rebuilt",
		"period_start", normalizedStart.Format("2006-01-02"),
		"period_end", normalizedEnd.Format("2006-01-02"),
		"partners", len(results),
	)
	return results, nil
}

// GetPayout 查询结算单
func (s *PayoutService) GetPayout(id uint) (*models.PartnerPayout, error) {
	payout, err := s.payoutRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if payout == nil {
		return nil, ErrPayoutNotFound
	}
	return payout, nil
}

// ListPayouts 查询结算单列表
func (s *PayoutService) ListPayouts(filter repository.PayoutListFilter) ([]models.PartnerPayout, int64, error) {
	return s.payoutRepo.List(filter)
}

// ListPayoutItems 查询归属结算单的订单行
func (s *PayoutService) ListPayoutItems(payoutID uint, page, pageSize int) ([]models.OrderItem, int64, error) {
	payout, err := s.payoutRepo.GetByID(payoutID)
	if err != nil {
		return nil, 0, err
	}
	if payout == nil {
		return nil, 0, ErrPayoutNotFound
	}
	return s.itemRepo.List(repository.OrderItemListFilter{
		Page:     page,
		PageSize: pageSize,
		PayoutID: payout.ID,
	})
}
