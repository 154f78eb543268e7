package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/b2b-portale/internal/constants"
	"github.com/b2b-portale/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PayoutRepository 结算单数据访问接口
type PayoutRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) PayoutRepository

	Create(payout *models.PartnerPayout) error
	GetByID(id uint) (*models.PartnerPayout, error)
	GetByIDForUpdate(id uint) (*models.PartnerPayout, error)
	GetDraftForPeriodForUpdate(partnerID uint, periodStart, periodEnd time.Time) (*models.PartnerPayout, error)
	GetForPeriod(partnerID uint, periodStart, periodEnd time.Time) (*models.PartnerPayout, error)
	HasAnyForPeriod(partnerID uint, periodStart, periodEnd time.Time, excludeID uint) (bool, error)
	List(filter PayoutListFilter) ([]models.PartnerPayout, int64, error)
	UpdateFields(id uint, updates map[string]interface{}) error
	AddToTotal(id uint, delta models.Money, now time.Time) error
}

// GormPayoutRepository GORM 结算单仓储
type GormPayoutRepository struct {
	db *gorm.DB
}

// NewPayoutRepository 创建结算单仓储
func NewPayoutRepository(db *gorm.DB) *GormPayoutRepository {
	return &GormPayoutRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPayoutRepository) WithTx(tx *gorm.DB) PayoutRepository {
	if tx == nil {
		return r
	}
	return &GormPayoutRepository{db: tx}
}

// Transaction 执行事务
func (r *GormPayoutRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建结算单
func (r *GormPayoutRepository) Create(payout *models.PartnerPayout) error {
	return r.db.Create(payout).Error
}

// GetByID 按ID获取结算单
func (r *GormPayoutRepository) GetByID(id uint) (*models.PartnerPayout, error) {
	if id == 0 {
		return nil, nil
	}
	var payout models.PartnerPayout
	if err := r.db.Preload("Partner").Preload("Partner.User").First(&payout, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payout, nil
}

// GetByIDForUpdate 按ID获取结算单并加锁
func (r *GormPayoutRepository) GetByIDForUpdate(id uint) (*models.PartnerPayout, error) {
	if id == 0 {
		return nil, nil
	}
	var payout models.PartnerPayout
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&payout, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payout, nil
}

// GetDraftForPeriodForUpdate 查询并锁定指定结算期的草稿结算单
func (r *GormPayoutRepository) GetDraftForPeriodForUpdate(partnerID uint, periodStart, periodEnd time.Time) (*models.PartnerPayout, error) {
	if partnerID == 0 {
		return nil, nil
	}
	var payout models.PartnerPayout
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("partner_id = ? AND period_start = ? AND period_end = ? AND status = ?",
			partnerID, periodStart, periodEnd, constants.PayoutStatusDraft).
		Order("id asc").
		First(&payout).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payout, nil
}

// GetForPeriod 查询指定结算期的结算单（不限状态，取最早一张）
func (r *GormPayoutRepository) GetForPeriod(partnerID uint, periodStart, periodEnd time.Time) (*models.PartnerPayout, error) {
	if partnerID == 0 {
		return nil, nil
	}
	var payout models.PartnerPayout
	if err := r.db.
		Where("partner_id = ? AND period_start = ? AND period_end = ?", partnerID, periodStart, periodEnd).
		Order("id asc").
		First(&payout).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payout, nil
}

// HasAnyForPeriod 判断结算期内是否已有其他结算单
func (r *GormPayoutRepository) HasAnyForPeriod(partnerID uint, periodStart, periodEnd time.Time, excludeID uint) (bool, error) {
	if partnerID == 0 {
		return false, nil
	}
	query := r.db.Model(&models.PartnerPayout{}).
		Where("partner_id = ? AND period_start = ? AND period_end = ?", partnerID, periodStart, periodEnd)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return false, err
	}
	return total > 0, nil
}

// List 查询结算单列表
func (r *GormPayoutRepository) List(filter PayoutListFilter) ([]models.PartnerPayout, int64, error) {
	query := r.db.Model(&models.PartnerPayout{}).Preload("Partner").Preload("Partner.User")
	if filter.PartnerID != 0 {
		query = query.Where("partner_id = ?", filter.PartnerID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if filter.PeriodFrom != nil {
		query = query.Where("period_end >= ?", *filter.PeriodFrom)
	}
	if filter.PeriodTo != nil {
		query = query.Where("period_start <= ?", *filter.PeriodTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.PartnerPayout
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// UpdateFields 更新结算单字段
func (r *GormPayoutRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	if id == 0 || len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.PartnerPayout{}).Where("id = ?", id).Updates(updates).Error
}

// AddToTotal 在现有结算总额上累加
func (r *GormPayoutRepository) AddToTotal(id uint, delta models.Money, now time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.PartnerPayout{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_commission": gorm.Expr("total_commission + ?", delta),
			"updated_at":       now,
		}).Error
}
