package service

import (
	"fmt"
	"time"

	"github.com/b2b-portale/internal/constants"
	"github.com/b2b-portale/internal/logger"
	"github.com/b2b-portale/internal/models"
	"github.com/b2b-portale/internal/repository"

	"gorm.io/gorm"
)

// PartnerService 合作商服务
type PartnerService struct {
	partnerRepo repository.PartnerRepository
	itemRepo    repository.OrderItemRepository
	userRepo    repository.UserRepository
	commission  *CommissionService
}

// NewPartnerService 创建合作商服务
func NewPartnerService(
	partnerRepo repository.PartnerRepository,
	itemRepo repository.OrderItemRepository,
	userRepo repository.UserRepository,
	commission *CommissionService,
) *PartnerService {
	return &PartnerService{
		partnerRepo: partnerRepo,
		itemRepo:    itemRepo,
		userRepo:    userRepo,
		commission:  commission,
	}
}

// GetProfileByUserID 按登录用户查询合作商档案
func (s *PartnerService) GetProfileByUserID(userID uint) (*models.PartnerProfile, error) {
	profile, err := s.partnerRepo.GetProfileByUserID(userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrPartnerNotFound
	}
	return profile, nil
}

// GetProfile 查询合作商档案
func (s *PartnerService) GetProfile(id uint) (*models.PartnerProfile, error) {
	profile, err := s.partnerRepo.GetProfileByID(id)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrPartnerNotFound
	}
	return profile, nil
}

// ListProfiles 查询合作商列表
func (s *PartnerService) ListProfiles(filter repository.PartnerListFilter) ([]models.PartnerProfile, int64, error) {
	return s.partnerRepo.ListProfiles(filter)
}

// ProfileUpdateInput 合作商档案更新输入
type ProfileUpdateInput struct {
	CompanyName              *string
	VatNumber                *string
	Address                  *string
	City                     *string
	ZipCode                  *string
	Country                  *string
	Phone                    *string
	DefaultCommissionPercent *models.Money
	IsActive                 *bool
}

// UpdateProfile 更新合作商档案。默认佣金率调整只影响之后的佣金快照
func (s *PartnerService) UpdateProfile(id uint, input ProfileUpdateInput) (*models.PartnerProfile, error) {
	profile, err := s.partnerRepo.GetProfileByID(id)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrPartnerNotFound
	}

	if input.CompanyName != nil {
		profile.CompanyName = *input.CompanyName
	}
	if input.VatNumber != nil {
		profile.VatNumber = *input.VatNumber
	}
	if input.Address != nil {
		profile.Address = *input.Address
	}
	if input.City != nil {
		profile.City = *input.City
	}
	if input.ZipCode != nil {
		profile.ZipCode = *input.ZipCode
	}
	if input.Country != nil {
		profile.Country = *input.Country
	}
	if input.Phone != nil {
		profile.Phone = *input.Phone
	}
	if input.DefaultCommissionPercent != nil {
		profile.DefaultCommissionPercent = *input.DefaultCommissionPercent
	}
	if input.IsActive != nil {
		profile.IsActive = *input.IsActive
	}

	if err := s.partnerRepo.UpdateProfile(profile); err != nil {
		return nil, err
	}
	return s.partnerRepo.GetProfileByID(id)
}

// SetCategoryCommission 配置合作商在指定分类下的佣金率
func (s *PartnerService) SetCategoryCommission(partnerID, categoryID uint, rate models.Money) (*models.PartnerCategoryCommission, error) {
	profile, err := s.partnerRepo.GetProfileByID(partnerID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrPartnerNotFound
	}

	row := &models.PartnerCategoryCommission{
		PartnerID:      partnerID,
		CategoryID:     categoryID,
		CommissionRate: rate,
	}
	if err := s.partnerRepo.UpsertCategoryCommission(row); err != nil {
		return nil, err
	}
	return row, nil
}

// ListCategoryCommissions 查询合作商的分类佣金率配置
func (s *PartnerService) ListCategoryCommissions(partnerID uint) ([]models.PartnerCategoryCommission, error) {
	return s.partnerRepo.ListCategoryCommissions(partnerID)
}

// ListItems 查询合作商名下的订单行
func (s *PartnerService) ListItems(partnerID uint, filter repository.OrderItemListFilter) ([]models.OrderItem, int64, error) {
	filter.PartnerID = partnerID
	return s.itemRepo.List(filter)
}

// UpdateItemStatusInput 合作商订单行状态更新输入
type UpdateItemStatusInput struct {
	ItemID      uint
	NewStatus   string
	Note        string
	ChangedByID *uint
}

// UpdateItemStatus 合作商更新自己订单行的处理状态。已清算或已归属
// 结算单的行不可再改；进入 completed 时补齐缺失的佣金快照，进入
// rejected 时清零佣金快照；每次变更写入审计日志并通知合作商
func (s *PartnerService) UpdateItemStatus(partnerUserID uint, input UpdateItemStatusInput) (*models.OrderItem, error) {
	profile, err := s.partnerRepo.GetProfileByUserID(partnerUserID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrPartnerNotFound
	}

	if !IsValidItemStatus(input.NewStatus) {
		return nil, ErrItemStatusInvalid
	}

	var updated *models.OrderItem
	err = s.itemRepo.Transaction(func(tx *gorm.DB) error {
		itemRepo := s.itemRepo.WithTx(tx)
		partnerRepo := s.partnerRepo.WithTx(tx)
		now := time.Now()

		item, err := itemRepo.GetByIDAndPartner(input.ItemID, profile.ID)
		if err != nil {
			return err
		}
		if item == nil {
			return ErrOrderItemNotFound
		}
		if item.IsLiquidated || item.PayoutID != nil {
			return ErrOrderItemLocked
		}
		if item.PartnerStatus == input.NewStatus {
			updated = item
			return nil
		}

		oldStatus := item.PartnerStatus
		updates := map[string]interface{}{
			"partner_status": input.NewStatus,
			"updated_at":     now,
		}

		switch input.NewStatus {
		case constants.ItemStatusCompleted:
			if item.CommissionAmount.IsZero() {
				commission := s.commission.WithPartnerRepo(partnerRepo)
				if err := commission.Calculate(item, profile, &item.Product, nil); err != nil {
					return err
				}
				updates["commission_rate"] = item.CommissionRate
				updates["commission_amount"] = item.CommissionAmount
				updates["partner_earnings"] = item.PartnerEarnings
			}
		case constants.ItemStatusRejected:
			var zero models.Money
			item.CommissionRate = zero
			item.CommissionAmount = zero
			item.PartnerEarnings = zero
			updates["commission_rate"] = zero
			updates["commission_amount"] = zero
			updates["partner_earnings"] = zero
		}

		if err := itemRepo.UpdateFields(item.ID, updates); err != nil {
			return err
		}

		if err := itemRepo.CreateStatusLog(&models.OrderItemStatusLog{
			OrderItemID: item.ID,
			OldStatus:   oldStatus,
			NewStatus:   input.NewStatus,
			ChangedByID: input.ChangedByID,
			Note:        input.Note,
		}); err != nil {
			return err
		}

		notification := &models.PartnerNotification{
			PartnerID: profile.ID,
			Title:     "Stato riga ordine aggiornato",
			Message:   fmt.Sprintf("La riga #%d dell'ordine #%d è passata da %s a %s", item.ID, item.OrderID, oldStatus, input.NewStatus),
			LinkURL:   fmt.Sprintf("/partner/orders/%d", item.OrderID),
		}
		if err := partnerRepo.CreateNotification(notification); err != nil {
			return err
		}

		item.PartnerStatus = input.NewStatus
		updated = item

		logger.Infow("order_item_status_changed",
			"item_id", item.ID,
			"order_id", item.OrderID,
			"partner_id", profile.ID,
			"from", oldStatus,
			"to", input.NewStatus,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// GetLedgerSummary 查询合作商佣金台账汇总
func (s *PartnerService) GetLedgerSummary(partnerID uint) (repository.PartnerLedgerStats, error) {
	return s.itemRepo.GetPartnerLedgerStats(partnerID)
}

// ListNotifications 查询合作商通知
func (s *PartnerService) ListNotifications(partnerID uint, onlyUnread bool, page, pageSize int) ([]models.PartnerNotification, int64, error) {
	return s.partnerRepo.ListNotifications(partnerID, onlyUnread, page, pageSize)
}

// MarkNotificationRead 标记通知已读
func (s *PartnerService) MarkNotificationRead(id, partnerID uint) error {
	affected, err := s.partnerRepo.MarkNotificationRead(id, partnerID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
