package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/b2b-portale/internal/constants"
	"github.com/b2b-portale/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PartnerCommissionAggregate 合作商佣金聚合结果
type PartnerCommissionAggregate struct {
	PartnerID       uint
	TotalCommission decimal.Decimal
	ItemCount       int64
}

// PartnerLedgerStats 合作商台账汇总
type PartnerLedgerStats struct {
	PendingEarnings    decimal.Decimal
	PendingCount       int64
	LiquidatedEarnings decimal.Decimal
	LiquidatedCount    int64
}

// OrderItemRepository 订单行（佣金台账）数据访问接口
type OrderItemRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) OrderItemRepository

	GetByID(id uint) (*models.OrderItem, error)
	GetByIDAndPartner(id, partnerID uint) (*models.OrderItem, error)
	ListByOrder(orderID uint) ([]models.OrderItem, error)
	List(filter OrderItemListFilter) ([]models.OrderItem, int64, error)
	UpdateFields(id uint, updates map[string]interface{}) error

	ListUnassignedForPayoutForUpdate(partnerID uint, periodStart, periodEndExclusive time.Time) ([]models.OrderItem, error)
	AssignToPayout(ids []uint, payoutID uint, now time.Time) (int64, error)
	LiquidateByPayout(payoutID uint, now time.Time) (int64, error)
	LiquidateLegacyUnassigned(partnerID, payoutID uint, periodStart, periodEndExclusive time.Time, now time.Time) (int64, error)

	AggregateCommissionByPartner(periodStart, periodEndExclusive time.Time) ([]PartnerCommissionAggregate, error)
	GetPartnerLedgerStats(partnerID uint) (PartnerLedgerStats, error)
	OrderHasPaidPayout(orderID uint) (bool, error)

	CreateStatusLog(log *models.OrderItemStatusLog) error
	ListStatusLogs(orderItemID uint) ([]models.OrderItemStatusLog, error)
}

// GormOrderItemRepository GORM 订单行仓储
type GormOrderItemRepository struct {
	db *gorm.DB
}

// NewOrderItemRepository 创建订单行仓储
func NewOrderItemRepository(db *gorm.DB) *GormOrderItemRepository {
	return &GormOrderItemRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderItemRepository) WithTx(tx *gorm.DB) OrderItemRepository {
	if tx == nil {
		return r
	}
	return &GormOrderItemRepository{db: tx}
}

// Transaction 执行事务
func (r *GormOrderItemRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByID 按ID获取订单行
func (r *GormOrderItemRepository) GetByID(id uint) (*models.OrderItem, error) {
	if id == 0 {
		return nil, nil
	}
	var item models.OrderItem
	if err := r.db.Preload("Product").Preload("Payout").First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetByIDAndPartner 按ID与供货合作商获取订单行，归属校验直接落在查询条件上
func (r *GormOrderItemRepository) GetByIDAndPartner(id, partnerID uint) (*models.OrderItem, error) {
	if id == 0 || partnerID == 0 {
		return nil, nil
	}
	var item models.OrderItem
	if err := r.db.Preload("Product").Preload("Payout").
		Where("id = ? AND partner_id = ?", id, partnerID).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// ListByOrder 按订单查询订单行
func (r *GormOrderItemRepository) ListByOrder(orderID uint) ([]models.OrderItem, error) {
	if orderID == 0 {
		return []models.OrderItem{}, nil
	}
	var rows []models.OrderItem
	if err := r.db.Preload("Product").Preload("Partner").
		Where("order_id = ?", orderID).
		Order("id asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// List 查询订单行列表
func (r *GormOrderItemRepository) List(filter OrderItemListFilter) ([]models.OrderItem, int64, error) {
	query := r.db.Model(&models.OrderItem{}).Preload("Product").Preload("Payout")
	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.PartnerID != 0 {
		query = query.Where("partner_id = ?", filter.PartnerID)
	}
	if filter.PayoutID != 0 {
		query = query.Where("payout_id = ?", filter.PayoutID)
	}
	if status := strings.TrimSpace(filter.PartnerStatus); status != "" {
		query = query.Where("partner_status = ?", status)
	}
	if filter.Liquidated != nil {
		query = query.Where("is_liquidated = ?", *filter.Liquidated)
	}
	if filter.Unassigned {
		query = query.Where("payout_id IS NULL")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.OrderItem
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// UpdateFields 更新订单行字段
func (r *GormOrderItemRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	if id == 0 || len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.OrderItem{}).Where("id = ?", id).Updates(updates).Error
}

// ordersInPeriod 结算期内订单ID子查询，订单归期按下单日判断
func (r *GormOrderItemRepository) ordersInPeriod(periodStart, periodEndExclusive time.Time) *gorm.DB {
	return r.db.Model(&models.Order{}).
		Select("id").
		Where("created_at >= ? AND created_at < ?", periodStart, periodEndExclusive)
}

// ListUnassignedForPayoutForUpdate 锁定并返回可纳入结算的订单行：
// 未清算、未归属任何结算单、订单落在结算期内
func (r *GormOrderItemRepository) ListUnassignedForPayoutForUpdate(partnerID uint, periodStart, periodEndExclusive time.Time) ([]models.OrderItem, error) {
	if partnerID == 0 {
		return []models.OrderItem{}, nil
	}
	var rows []models.OrderItem
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("partner_id = ? AND is_liquidated = ? AND payout_id IS NULL", partnerID, false).
		Where("order_id IN (?)", r.ordersInPeriod(periodStart, periodEndExclusive)).
		Order("id asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// AssignToPayout 批量将订单行归属到结算单
func (r *GormOrderItemRepository) AssignToPayout(ids []uint, payoutID uint, now time.Time) (int64, error) {
	if len(ids) == 0 || payoutID == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.OrderItem{}).
		Where("id IN ? AND payout_id IS NULL", ids).
		Updates(map[string]interface{}{
			"payout_id":  payoutID,
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// LiquidateByPayout 清算归属于结算单的全部订单行
func (r *GormOrderItemRepository) LiquidateByPayout(payoutID uint, now time.Time) (int64, error) {
	if payoutID == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.OrderItem{}).
		Where("payout_id = ? AND is_liquidated = ?", payoutID, false).
		Updates(map[string]interface{}{
			"is_liquidated": true,
			"liquidated_at": now,
			"updated_at":    now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// LiquidateLegacyUnassigned 兼容旧数据的清算回退：仅处理尚未归属任何结算单的
// 订单行，归属到其他结算单的行绝不触碰；命中的行同时归属到当前结算单
func (r *GormOrderItemRepository) LiquidateLegacyUnassigned(partnerID, payoutID uint, periodStart, periodEndExclusive time.Time, now time.Time) (int64, error) {
	if partnerID == 0 || payoutID == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.OrderItem{}).
		Where("partner_id = ? AND is_liquidated = ? AND payout_id IS NULL AND commission_amount > 0", partnerID, false).
		Where("order_id IN (?)", r.ordersInPeriod(periodStart, periodEndExclusive)).
		Updates(map[string]interface{}{
			"is_liquidated": true,
			"liquidated_at": now,
			"payout_id":     payoutID,
			"updated_at":    now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// AggregateCommissionByPartner 按合作商聚合结算期内已完成订单的平台佣金
func (r *GormOrderItemRepository) AggregateCommissionByPartner(periodStart, periodEndExclusive time.Time) ([]PartnerCommissionAggregate, error) {
	type aggregateRow struct {
		PartnerID uint
		Total     decimal.Decimal
		Count     int64
	}
	var rows []aggregateRow
	if err := r.db.Model(&models.OrderItem{}).
		Select("order_items.partner_id AS partner_id, COALESCE(SUM(order_items.commission_amount), 0) AS total, COUNT(order_items.id) AS count").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.partner_id IS NOT NULL").
		Where("orders.status = ?", constants.OrderStatusCompleted).
		Where("orders.created_at >= ? AND orders.created_at < ?", periodStart, periodEndExclusive).
		Group("order_items.partner_id").
		Order("order_items.partner_id asc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	aggregates := make([]PartnerCommissionAggregate, 0, len(rows))
	for _, row := range rows {
		aggregates = append(aggregates, PartnerCommissionAggregate{
			PartnerID:       row.PartnerID,
			TotalCommission: row.Total,
			ItemCount:       row.Count,
		})
	}
	return aggregates, nil
}

// GetPartnerLedgerStats 查询合作商台账汇总（待清算与已清算的应得金额）
func (r *GormOrderItemRepository) GetPartnerLedgerStats(partnerID uint) (PartnerLedgerStats, error) {
	stats := PartnerLedgerStats{}
	if partnerID == 0 {
		return stats, nil
	}

	type sumRow struct {
		Total decimal.Decimal
		Count int64
	}
	var pending sumRow
	if err := r.db.Model(&models.OrderItem{}).
		Select("COALESCE(SUM(partner_earnings), 0) AS total, COUNT(id) AS count").
		Where("partner_id = ? AND is_liquidated = ?", partnerID, false).
		Scan(&pending).Error; err != nil {
		return stats, err
	}
	var liquidated sumRow
	if err := r.db.Model(&models.OrderItem{}).
		Select("COALESCE(SUM(partner_earnings), 0) AS total, COUNT(id) AS count").
		Where("partner_id = ? AND is_liquidated = ?", partnerID, true).
		Scan(&liquidated).Error; err != nil {
		return stats, err
	}

	stats.PendingEarnings = pending.Total
	stats.PendingCount = pending.Count
	stats.LiquidatedEarnings = liquidated.Total
	stats.LiquidatedCount = liquidated.Count
	return stats, nil
}

// OrderHasPaidPayout 判断订单是否存在已清算或已打款结算单的订单行
func (r *GormOrderItemRepository) OrderHasPaidPayout(orderID uint) (bool, error) {
	if orderID == 0 {
		return false, nil
	}
	var total int64
	if err := r.db.Model(&models.OrderItem{}).
		Joins("LEFT JOIN partner_payouts ON partner_payouts.id = order_items.payout_id").
		Where("order_items.order_id = ?", orderID).
		Where("order_items.is_liquidated = ? OR partner_payouts.status = ?", true, constants.PayoutStatusPaid).
		Count(&total).Error; err != nil {
		return false, err
	}
	return total > 0, nil
}

// CreateStatusLog 写入订单行状态变更审计记录
func (r *GormOrderItemRepository) CreateStatusLog(log *models.OrderItemStatusLog) error {
	return r.db.Create(log).Error
}

// ListStatusLogs 查询订单行状态变更审计记录
func (r *GormOrderItemRepository) ListStatusLogs(orderItemID uint) ([]models.OrderItemStatusLog, error) {
	if orderItemID == 0 {
		return []models.OrderItemStatusLog{}, nil
	}
	var rows []models.OrderItemStatusLog
	if err := r.db.Where("order_item_id = ?", orderItemID).
		Order("id asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
