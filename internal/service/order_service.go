package service

import (
	"time"

	"github.com/b2b-portale/internal/constants"
	"github.com/b2b-portale/internal/logger"
	"github.com/b2b-portale/internal/models"
	"github.com/b2b-portale/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService 订单服务
type OrderService struct {
	orderRepo             repository.OrderRepository
	itemRepo              repository.OrderItemRepository
	productRepo           repository.ProductRepository
	partnerRepo           repository.PartnerRepository
	userRepo              repository.UserRepository
	commission            *CommissionService
	shipping              *ShippingCalculator
	reviewInviteAfterDays int
}

// NewOrderService 创建订单服务
func NewOrderService(
	orderRepo repository.OrderRepository,
	itemRepo repository.OrderItemRepository,
	productRepo repository.ProductRepository,
	partnerRepo repository.PartnerRepository,
	userRepo repository.UserRepository,
	commission *CommissionService,
	shipping *ShippingCalculator,
	reviewInviteAfterDays int,
) *OrderService {
	if reviewInviteAfterDays <= 0 {
		reviewInviteAfterDays = 3
	}
	return &OrderService{
		orderRepo:             orderRepo,
		itemRepo:              itemRepo,
		productRepo:           productRepo,
		partnerRepo:           partnerRepo,
		userRepo:              userRepo,
		commission:            commission,
		shipping:              shipping,
		reviewInviteAfterDays: reviewInviteAfterDays,
	}
}

// CheckoutItemInput 下单商品行输入
type CheckoutItemInput struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

// CheckoutInput 下单输入
type CheckoutInput struct {
	ClientID      uint
	StructureID   *uint
	PaymentMethod string
	Notes         string
	Items         []CheckoutItemInput
}

// Checkout 客户下单。单价取商品当前基准价，行供货商取商品供货商，
// 有供货商的行立即按合作商默认佣金率生成佣金快照
func (s *OrderService) Checkout(input CheckoutInput) (*models.Order, error) {
	client, err := s.userRepo.GetByID(input.ClientID)
	if err != nil {
		return nil, err
	}
	if client == nil || client.Role != constants.RoleClient {
		return nil, ErrNotFound
	}
	if client.Status != constants.UserStatusActive {
		return nil, ErrUserDisabled
	}

	if input.StructureID != nil {
		structure, err := s.userRepo.GetStructureByIDAndOwner(*input.StructureID, client.ID)
		if err != nil {
			return nil, err
		}
		if structure == nil {
			return nil, ErrStructureInvalid
		}
	}

	if len(input.Items) == 0 {
		return nil, ErrOrderEmpty
	}

	productIDs := make([]uint, 0, len(input.Items))
	for _, line := range input.Items {
		if line.Quantity <= 0 {
			return nil, ErrQuantityInvalid
		}
		productIDs = append(productIDs, line.ProductID)
	}
	products, err := s.productRepo.ListByIDs(productIDs)
	if err != nil {
		return nil, err
	}
	productsByID := make(map[uint]*models.Product, len(products))
	for i := range products {
		productsByID[products[i].ID] = &products[i]
	}

	subtotal := decimal.Zero
	items := make([]models.OrderItem, 0, len(input.Items))
	for _, line := range input.Items {
		product, ok := productsByID[line.ProductID]
		if !ok {
			return nil, ErrProductNotFound
		}
		if !product.IsActive {
			return nil, ErrProductInactive
		}

		unitPrice := product.BasePrice
		totalPrice := models.NewMoneyFromDecimal(unitPrice.Decimal.Mul(decimal.NewFromInt(int64(line.Quantity))))
		item := models.OrderItem{
			ProductID:     product.ID,
			PartnerID:     product.SupplierID,
			Quantity:      line.Quantity,
			UnitPrice:     unitPrice,
			TotalPrice:    totalPrice,
			PartnerStatus: constants.ItemStatusPending,
		}
		if product.Supplier != nil {
			if err := s.commission.Calculate(&item, product.Supplier, product, nil); err != nil {
				return nil, err
			}
		}
		subtotal = subtotal.Add(totalPrice.Decimal)
		items = append(items, item)
	}

	subtotalMoney := models.NewMoneyFromDecimal(subtotal)
	shippingCost := s.shipping.Calculate(subtotalMoney)
	paymentMethod := input.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = constants.PaymentMethodBankTransfer
	}

	order := &models.Order{
		ClientID:         client.ID,
		StructureID:      input.StructureID,
		Status:           constants.OrderStatusPendingPayment,
		PaymentMethod:    paymentMethod,
		PaymentReference: uuid.NewString(),
		Subtotal:         subtotalMoney,
		ShippingCost:     shippingCost,
		Total:            subtotalMoney.Add(shippingCost),
		Notes:            input.Notes,
		Items:            items,
	}

	if err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		return s.orderRepo.WithTx(tx).Create(order)
	}); err != nil {
		return nil, err
	}

	logger.Infow("order_created",
		"order_id", order.ID,
		"client_id", client.ID,
		"items", len(items),
		"total", order.Total.String(),
	)
	return s.orderRepo.GetByID(order.ID)
}

// Duplicate 以历史订单为模板创建新草稿订单。单价取商品当前基准价，
// 已下架商品直接跳过，合作商状态与佣金快照全部重置，金额重新计算
func (s *OrderService) Duplicate(orderID, clientID uint) (*models.Order, error) {
	source, err := s.orderRepo.GetByIDAndClient(orderID, clientID)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, ErrOrderNotFound
	}

	subtotal := decimal.Zero
	items := make([]models.OrderItem, 0, len(source.Items))
	for _, sourceItem := range source.Items {
		product := sourceItem.Product
		if product.ID == 0 || !product.IsActive {
			continue
		}
		unitPrice := product.BasePrice
		totalPrice := models.NewMoneyFromDecimal(unitPrice.Decimal.Mul(decimal.NewFromInt(int64(sourceItem.Quantity))))
		items = append(items, models.OrderItem{
			ProductID:     product.ID,
			PartnerID:     product.SupplierID,
			Quantity:      sourceItem.Quantity,
			UnitPrice:     unitPrice,
			TotalPrice:    totalPrice,
			PartnerStatus: constants.ItemStatusPending,
		})
		subtotal = subtotal.Add(totalPrice.Decimal)
	}
	if len(items) == 0 {
		return nil, ErrOrderEmpty
	}

	subtotalMoney := models.NewMoneyFromDecimal(subtotal)
	shippingCost := s.shipping.Calculate(subtotalMoney)
	duplicate := &models.Order{
		ClientID:         source.ClientID,
		StructureID:      source.StructureID,
		Status:           constants.OrderStatusDraft,
		PaymentMethod:    source.PaymentMethod,
		PaymentReference: uuid.NewString(),
		Subtotal:         subtotalMoney,
		ShippingCost:     shippingCost,
		Total:            subtotalMoney.Add(shippingCost),
		Notes:            source.Notes,
		Items:            items,
	}

	if err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		return s.orderRepo.WithTx(tx).Create(duplicate)
	}); err != nil {
		return nil, err
	}

	logger.Infow("order_duplicated",
		"source_order_id", source.ID,
		"order_id", duplicate.ID,
		"items", len(items),
	)
	return s.orderRepo.GetByID(duplicate.ID)
}

// AdminOrderUpdateInput 后台订单更新输入
type AdminOrderUpdateInput struct {
	Status     *string
	AdminNotes *string
}

// UpdateOrderForAdmin 后台更新订单状态与备注。订单存在已清算或已打款
// 结算单的订单行时，禁止取消订单、禁止回退状态；后台备注无论状态校验
// 结果如何都会保存
func (s *OrderService) UpdateOrderForAdmin(orderID uint, input AdminOrderUpdateInput) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	updates := map[string]interface{}{}
	if input.AdminNotes != nil && *input.AdminNotes != order.AdminNotes {
		updates["admin_notes"] = *input.AdminNotes
	}

	var guardErr error
	if input.Status != nil && *input.Status != order.Status {
		locked, err := s.itemRepo.OrderHasPaidPayout(order.ID)
		if err != nil {
			return nil, err
		}
		guardErr = ValidateOrderStatusChange(order.Status, *input.Status, locked)
		if guardErr == nil {
			updates["status"] = *input.Status
			logger.Infow("order_status_changed",
				"order_id", order.ID,
				"from", order.Status,
				"to", *input.Status,
			)
		} else {
			logger.Warnw("order_status_change_rejected",
				"order_id", order.ID,
				"from", order.Status,
				"to", *input.Status,
				"reason", guardErr.Error(),
			)
		}
	}

	if len(updates) > 0 {
		updates["updated_at"] = time.Now()
		if err := s.orderRepo.UpdateFields(order.ID, updates); err != nil {
			return nil, err
		}
	}

	updated, err := s.orderRepo.GetByID(order.ID)
	if err != nil {
		return nil, err
	}
	return updated, guardErr
}

// RecalculateCommissions 按当前佣金规则重算订单各行的佣金快照。
// 已清算或已归属结算单的行不再改写
func (s *OrderService) RecalculateCommissions(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	now := time.Now()
	for i := range order.Items {
		item := &order.Items[i]
		if item.PartnerID == nil || item.IsLiquidated || item.PayoutID != nil {
			continue
		}
		partner := item.Partner
		if partner == nil {
			loaded, err := s.partnerRepo.GetProfileByID(*item.PartnerID)
			if err != nil {
				return nil, err
			}
			if loaded == nil {
				continue
			}
			partner = loaded
		}
		var product *models.Product
		if item.Product.ID != 0 {
			product = &item.Product
		}
		if err := s.commission.Calculate(item, partner, product, nil); err != nil {
			return nil, err
		}
		if err := s.itemRepo.UpdateFields(item.ID, map[string]interface{}{
			"commission_rate":   item.CommissionRate,
			"commission_amount": item.CommissionAmount,
			"partner_earnings":  item.PartnerEarnings,
			"updated_at":        now,
		}); err != nil {
			return nil, err
		}
	}

	return s.orderRepo.GetByID(order.ID)
}

// SendDueReviewInvites 为完成超过配置天数且未邀请过的订单标记评价邀请
func (s *OrderService) SendDueReviewInvites(now time.Time) (int64, error) {
	cutoff := now.AddDate(0, 0, -s.reviewInviteAfterDays)
	orders, err := s.orderRepo.ListCompletedForReviewInvite(cutoff, 200)
	if err != nil {
		return 0, err
	}
	if len(orders) == 0 {
		return 0, nil
	}
	ids := make([]uint, 0, len(orders))
	for _, order := range orders {
		ids = append(ids, order.ID)
	}
	sent, err := s.orderRepo.MarkReviewInviteSent(ids, now)
	if err != nil {
		return 0, err
	}
	if sent > 0 {
		logger.Infow("review_invites_sent", "count", sent)
	}
	return sent, nil
}

// GetOrder 查询订单
func (s *OrderService) GetOrder(id uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetOrderForClient 查询客户自己的订单
func (s *OrderService) GetOrderForClient(id, clientID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndClient(id, clientID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrders 查询订单列表
func (s *OrderService) ListOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.List(filter)
}
