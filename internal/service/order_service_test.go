package service

import (
	"errors"
	"testing"
	"time"

	"github.com/b2b-portale/internal/config"
	"github.com/b2b-portale/internal/constants"
	"github.com/b2b-portale/internal/models"
	"github.com/b2b-portale/internal/repository"

	"gorm.io/gorm"
)

func setupOrderServiceTest(t *testing.T, name string) (*OrderService, *gorm.DB) {
	t.Helper()

	db := openServiceTestDB(t, name)
	partnerRepo := repository.NewPartnerRepository(db)
	return NewOrderService(
		repository.NewOrderRepository(db),
		repository.NewOrderItemRepository(db),
		repository.NewProductRepository(db),
		partnerRepo,
		repository.NewUserRepository(db),
		NewCommissionService(partnerRepo),
		NewShippingCalculator(config.ShippingConfig{FreeThreshold: "200.00", FlatFee: "9.90"}),
		3,
	), db
}

func TestCheckoutComputesTotalsAndCommissions(t *testing.T) {
	svc, db := setupOrderServiceTest(t, "order_checkout")

	client := createServiceTestUser(t, db, "checkout-client", constants.RoleClient)
	partner := createServiceTestPartner(t, db, "checkout-partner", "10.00")
	category := createServiceTestCategory(t, db, "escursioni-checkout")
	withOverride := createServiceTestProduct(t, db, category.ID, &partner.ID, "tour-costiera", "100.00", strPtr("20.00"))
	internal := createServiceTestProduct(t, db, category.ID, nil, "kit-benvenuto", "30.00", nil)

	structure := models.ClientStructure{
		OwnerID: client.ID,
		Name:    "Hotel Riviera",
		City:    "Amalfi",
	}
	if err := db.Create(&structure).Error; err != nil {
		t.Fatalf("create structure failed: %v", err)
	}

	order, err := svc.Checkout(CheckoutInput{
		ClientID:    client.ID,
		StructureID: &structure.ID,
		Items: []CheckoutItemInput{
			{ProductID: withOverride.ID, Quantity: 1},
			{ProductID: internal.ID, Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if order.Status != constants.OrderStatusPendingPayment {
		t.Fatalf("expected pending_payment, got %s", order.Status)
	}
	if order.PaymentReference == "" {
		t.Fatalf("expected generated payment reference")
	}
	if order.Subtotal.String() != "160.00" {
		t.Fatalf("expected subtotal 160.00, got %s", order.Subtotal.String())
	}
	if order.ShippingCost.String() != "9.90" {
		t.Fatalf("expected shipping 9.90, got %s", order.ShippingCost.String())
	}
	if order.Total.String() != "169.90" {
		t.Fatalf("expected total 169.90, got %s", order.Total.String())
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(order.Items))
	}

	for _, item := range order.Items {
		switch item.ProductID {
		case withOverride.ID:
			if item.PartnerID == nil || *item.PartnerID != partner.ID {
				t.Fatalf("expected supplier snapshot on partner line")
			}
			if item.CommissionRate.String() != "20.00" {
				t.Fatalf("expected product override rate 20.00, got %s", item.CommissionRate.String())
			}
			if item.CommissionAmount.String() != "20.00" || item.PartnerEarnings.String() != "80.00" {
				t.Fatalf("unexpected commission snapshot: %s / %s",
					item.CommissionAmount.String(), item.PartnerEarnings.String())
			}
		case internal.ID:
			if item.PartnerID != nil {
				t.Fatalf("internal product line must have no partner")
			}
			if item.TotalPrice.String() != "60.00" {
				t.Fatalf("expected line total 60.00, got %s", item.TotalPrice.String())
			}
			if !item.CommissionAmount.IsZero() {
				t.Fatalf("internal line must carry no commission")
			}
		default:
			t.Fatalf("unexpected product %d", item.ProductID)
		}
	}
}

func TestCheckoutFreeShippingThreshold(t *testing.T) {
	svc, db := setupOrderServiceTest(t, "order_checkout_free")

	client := createServiceTestUser(t, db, "checkout-client-free", constants.RoleClient)
	category := createServiceTestCategory(t, db, "gite-checkout-free")
	product := createServiceTestProduct(t, db, category.ID, nil, "pacchetto-weekend", "100.00", nil)

	order, err := svc.Checkout(CheckoutInput{
		ClientID: client.ID,
		Items:    []CheckoutItemInput{{ProductID: product.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if !order.ShippingCost.IsZero() {
		t.Fatalf("expected free shipping, got %s", order.ShippingCost.String())
	}
	if order.Total.String() != "200.00" {
		t.Fatalf("expected total 200.00, got %s", order.Total.String())
	}
}

func TestCheckoutValidation(t *testing.T) {
	svc, db := setupOrderServiceTest(t, "order_checkout_validate")

	client := createServiceTestUser(t, db, "checkout-client-v", constants.RoleClient)
	other := createServiceTestUser(t, db, "checkout-client-other", constants.RoleClient)
	category := createServiceTestCategory(t, db, "gite-checkout-v")
	active := createServiceTestProduct(t, db, category.ID, nil, "gita-attiva", "20.00", nil)
	inactive := createServiceTestProduct(t, db, category.ID, nil, "gita-sospesa", "20.00", nil)
	if err := db.Model(&models.Product{}).Where("id = ?", inactive.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}

	foreignStructure := models.ClientStructure{OwnerID: other.ID, Name: "B&B Vista Mare"}
	if err := db.Create(&foreignStructure).Error; err != nil {
		t.Fatalf("create structure failed: %v", err)
	}

	if _, err := svc.Checkout(CheckoutInput{ClientID: client.ID}); !errors.Is(err, ErrOrderEmpty) {
		t.Fatalf("expected ErrOrderEmpty, got %v", err)
	}
	if _, err := svc.Checkout(CheckoutInput{
		ClientID: client.ID,
		Items:    []CheckoutItemInput{{ProductID: active.ID, Quantity: 0}},
	}); !errors.Is(err, ErrQuantityInvalid) {
		t.Fatalf("expected ErrQuantityInvalid, got %v", err)
	}
	if _, err := svc.Checkout(CheckoutInput{
		ClientID: client.ID,
		Items:    []CheckoutItemInput{{ProductID: inactive.ID, Quantity: 1}},
	}); !errors.Is(err, ErrProductInactive) {
		t.Fatalf("expected ErrProductInactive, got %v", err)
	}
	if _, err := svc.Checkout(CheckoutInput{
		ClientID: client.ID,
		Items:    []CheckoutItemInput{{ProductID: 99999, Quantity: 1}},
	}); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if _, err := svc.Checkout(CheckoutInput{
		ClientID:    client.ID,
		StructureID: &foreignStructure.ID,
		Items:       []CheckoutItemInput{{ProductID: active.ID, Quantity: 1}},
	}); !errors.Is(err, ErrStructureInvalid) {
		t.Fatalf("expected ErrStructureInvalid, got %v", err)
	}
}

func TestDuplicateUsesCurrentPriceAndSkipsInactive(t *testing.T) {
	svc, db := setupOrderServiceTest(t, "order_duplicate")

	client := createServiceTestUser(t, db, "duplicate-client", constants.RoleClient)
	partner := createServiceTestPartner(t, db, "duplicate-partner", "10.00")
	category := createServiceTestCategory(t, db, "gite-duplicate")
	kept := createServiceTestProduct(t, db, category.ID, &partner.ID, "tour-vigneti", "50.00", nil)
	dropped := createServiceTestProduct(t, db, category.ID, nil, "evento-stagionale", "30.00", nil)

	source, err := svc.Checkout(CheckoutInput{
		ClientID: client.ID,
		Items: []CheckoutItemInput{
			{ProductID: kept.ID, Quantity: 2},
			{ProductID: dropped.ID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	// 原单行标记为已完成并清算，复制时不得带入任何结算痕迹
	if err := db.Model(&models.OrderItem{}).Where("order_id = ?", source.ID).
		Updates(map[string]interface{}{
			"partner_status": constants.ItemStatusCompleted,
			"is_liquidated":  true,
		}).Error; err != nil {
		t.Fatalf("settle source items failed: %v", err)
	}

	// 价格上调并下架季节性商品
	if err := db.Model(&models.Product{}).Where("id = ?", kept.ID).Update("base_price", "80.00").Error; err != nil {
		t.Fatalf("update price failed: %v", err)
	}
	if err := db.Model(&models.Product{}).Where("id = ?", dropped.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}

	duplicate, err := svc.Duplicate(source.ID, client.ID)
	if err != nil {
		t.Fatalf("duplicate failed: %v", err)
	}

	if duplicate.ID == source.ID {
		t.Fatalf("expected a new order")
	}
	if duplicate.Status != constants.OrderStatusDraft {
		t.Fatalf("expected draft status, got %s", duplicate.Status)
	}
	if duplicate.PaymentReference == source.PaymentReference {
		t.Fatalf("expected fresh payment reference")
	}
	if len(duplicate.Items) != 1 {
		t.Fatalf("expected inactive product to be skipped, got %d items", len(duplicate.Items))
	}

	line := duplicate.Items[0]
	if line.UnitPrice.String() != "80.00" {
		t.Fatalf("expected current price 80.00, got %s", line.UnitPrice.String())
	}
	if line.TotalPrice.String() != "160.00" {
		t.Fatalf("expected line total 160.00, got %s", line.TotalPrice.String())
	}
	if line.PartnerStatus != constants.ItemStatusPending {
		t.Fatalf("expected reset partner status, got %s", line.PartnerStatus)
	}
	if line.IsLiquidated || line.PayoutID != nil {
		t.Fatalf("duplicate must not carry settlement state")
	}
	if !line.CommissionAmount.IsZero() || !line.CommissionRate.IsZero() {
		t.Fatalf("duplicate must reset commission snapshot")
	}
	if duplicate.Subtotal.String() != "160.00" {
		t.Fatalf("expected recomputed subtotal 160.00, got %s", duplicate.Subtotal.String())
	}

	intruder := createServiceTestUser(t, db, "duplicate-intruder", constants.RoleClient)
	if _, err := svc.Duplicate(source.ID, intruder.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound for foreign client, got %v", err)
	}
}

func TestAdminUpdateGuardsSettledOrders(t *testing.T) {
	svc, db := setupOrderServiceTest(t, "order_admin_update")

	client := createServiceTestUser(t, db, "admin-update-client", constants.RoleClient)
	partner := createServiceTestPartner(t, db, "admin-update-partner", "10.00")
	category := createServiceTestCategory(t, db, "gite-admin")
	product := createServiceTestProduct(t, db, category.ID, &partner.ID, "gita-capri", "90.00", nil)

	order := createServiceTestOrder(t, db, client.ID, constants.OrderStatusCompleted, time.Now())
	item := createServiceTestItem(t, db, order.ID, product.ID, &partner.ID, "90.00", "10.00", "9.00", "81.00")
	if err := db.Model(&models.OrderItem{}).Where("id = ?", item.ID).Update("is_liquidated", true).Error; err != nil {
		t.Fatalf("liquidate item failed: %v", err)
	}

	// 已清算订单不可取消，但后台备注仍然保存
	notes := "richiesta di annullo respinta"
	target := constants.OrderStatusCancelled
	updated, err := svc.UpdateOrderForAdmin(order.ID, AdminOrderUpdateInput{Status: &target, AdminNotes: &notes})
	if !errors.Is(err, ErrOrderCancelLocked) {
		t.Fatalf("expected ErrOrderCancelLocked, got %v", err)
	}
	if updated == nil {
		t.Fatalf("expected order to be returned alongside guard error")
	}
	if updated.Status != constants.OrderStatusCompleted {
		t.Fatalf("status must remain completed, got %s", updated.Status)
	}
	if updated.AdminNotes != notes {
		t.Fatalf("admin notes must be persisted, got %q", updated.AdminNotes)
	}

	// 已清算订单不可回退
	backward := constants.OrderStatusPaid
	if _, err := svc.UpdateOrderForAdmin(order.ID, AdminOrderUpdateInput{Status: &backward}); !errors.Is(err, ErrOrderStatusLocked) {
		t.Fatalf("expected ErrOrderStatusLocked, got %v", err)
	}

	// 未清算订单可自由变更
	free := createServiceTestOrder(t, db, client.ID, constants.OrderStatusShipped, time.Now())
	forward := constants.OrderStatusCompleted
	changed, err := svc.UpdateOrderForAdmin(free.ID, AdminOrderUpdateInput{Status: &forward})
	if err != nil {
		t.Fatalf("forward transition failed: %v", err)
	}
	if changed.Status != constants.OrderStatusCompleted {
		t.Fatalf("expected completed, got %s", changed.Status)
	}
}

func TestRecalculateCommissionsSkipsSettledLines(t *testing.T) {
	svc, db := setupOrderServiceTest(t, "order_recalc")

	client := createServiceTestUser(t, db, "recalc-client", constants.RoleClient)
	partner := createServiceTestPartner(t, db, "recalc-partner", "12.00")
	category := createServiceTestCategory(t, db, "gite-recalc")
	product := createServiceTestProduct(t, db, category.ID, &partner.ID, "gita-procida", "100.00", nil)

	order := createServiceTestOrder(t, db, client.ID, constants.OrderStatusPaid, time.Now())
	open := createServiceTestItem(t, db, order.ID, product.ID, &partner.ID, "100.00", "5.00", "5.00", "95.00")
	settled := createServiceTestItem(t, db, order.ID, product.ID, &partner.ID, "100.00", "5.00", "5.00", "95.00")
	if err := db.Model(&models.OrderItem{}).Where("id = ?", settled.ID).Update("is_liquidated", true).Error; err != nil {
		t.Fatalf("liquidate item failed: %v", err)
	}

	if _, err := svc.RecalculateCommissions(order.ID); err != nil {
		t.Fatalf("recalculate failed: %v", err)
	}

	reloadedOpen := reloadServiceTestItem(t, db, open.ID)
	if reloadedOpen.CommissionRate.String() != "12.00" || reloadedOpen.CommissionAmount.String() != "12.00" {
		t.Fatalf("expected open line recalculated at 12.00, got %s/%s",
			reloadedOpen.CommissionRate.String(), reloadedOpen.CommissionAmount.String())
	}

	reloadedSettled := reloadServiceTestItem(t, db, settled.ID)
	if reloadedSettled.CommissionRate.String() != "5.00" || reloadedSettled.CommissionAmount.String() != "5.00" {
		t.Fatalf("settled line must keep its snapshot, got %s/%s",
			reloadedSettled.CommissionRate.String(), reloadedSettled.CommissionAmount.String())
	}
}

func TestSendDueReviewInvites(t *testing.T) {
	svc, db := setupOrderServiceTest(t, "order_review_invite")

	client := createServiceTestUser(t, db, "review-client", constants.RoleClient)
	now := time.Now()

	due := createServiceTestOrder(t, db, client.ID, constants.OrderStatusCompleted, now.AddDate(0, 0, -10))
	createServiceTestOrder(t, db, client.ID, constants.OrderStatusCompleted, now.Add(-time.Hour))
	createServiceTestOrder(t, db, client.ID, constants.OrderStatusPaid, now.AddDate(0, 0, -10))

	sent, err := svc.SendDueReviewInvites(now)
	if err != nil {
		t.Fatalf("send review invites failed: %v", err)
	}
	if sent != 1 {
		t.Fatalf("expected 1 invite, got %d", sent)
	}

	var reloaded models.Order
	if err := db.First(&reloaded, due.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.ReviewInviteSentAt == nil {
		t.Fatalf("expected review invite timestamp")
	}

	again, err := svc.SendDueReviewInvites(now)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if again != 0 {
		t.Fatalf("invites must not be repeated, got %d", again)
	}
}
