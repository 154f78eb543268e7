package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/b2b-portale/internal/constants"
	"github.com/b2b-portale/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) OrderRepository

	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByIDAndClient(id, clientID uint) (*models.Order, error)
	List(filter OrderListFilter) ([]models.Order, int64, error)
	UpdateFields(id uint, updates map[string]interface{}) error

	ListCompletedForReviewInvite(completedBefore time.Time, limit int) ([]models.Order, error)
	MarkReviewInviteSent(ids []uint, sentAt time.Time) (int64, error)
}

// GormOrderRepository GORM 订单仓储
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) OrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Transaction 执行事务
func (r *GormOrderRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建订单（连同订单行）
func (r *GormOrderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// GetByID 按ID获取订单（含订单行与关联）
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	if id == 0 {
		return nil, nil
	}
	var order models.Order
	if err := r.db.
		Preload("Client").
		Preload("Structure").
		Preload("Items").
		Preload("Items.Product").
		Preload("Items.Partner").
		Preload("Items.Payout").
		First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDAndClient 按ID与下单客户获取订单
func (r *GormOrderRepository) GetByIDAndClient(id, clientID uint) (*models.Order, error) {
	if id == 0 || clientID == 0 {
		return nil, nil
	}
	var order models.Order
	if err := r.db.
		Preload("Structure").
		Preload("Items").
		Preload("Items.Product").
		Where("id = ? AND client_id = ?", id, clientID).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// List 查询订单列表
func (r *GormOrderRepository) List(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{}).Preload("Client").Preload("Structure")
	if filter.ClientID != 0 {
		query = query.Where("client_id = ?", filter.ClientID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if ref := strings.TrimSpace(filter.PaymentRef); ref != "" {
		query = query.Where("payment_reference "+likeOperator(r.db)+" ?", "%"+ref+"%")
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.Order
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// UpdateFields 更新订单字段
func (r *GormOrderRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	if id == 0 || len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}

// ListCompletedForReviewInvite 查询待发送评价邀请的已完成订单
func (r *GormOrderRepository) ListCompletedForReviewInvite(completedBefore time.Time, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []models.Order
	if err := r.db.
		Where("status = ? AND review_invite_sent_at IS NULL AND updated_at <= ?", constants.OrderStatusCompleted, completedBefore).
		Order("id asc").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkReviewInviteSent 批量标记评价邀请已发送
func (r *GormOrderRepository) MarkReviewInviteSent(ids []uint, sentAt time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.Order{}).
		Where("id IN ? AND review_invite_sent_at IS NULL", ids).
		Updates(map[string]interface{}{
			"review_invite_sent_at": sentAt,
			"updated_at":            sentAt,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
