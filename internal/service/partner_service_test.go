package service

import (
	"errors"
	"testing"
	"time"

	"github.com/b2b-portale/internal/constants"
	"github.com/b2b-portale/internal/models"
	"github.com/b2b-portale/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupPartnerServiceTest(t *testing.T, name string) (*PartnerService, *gorm.DB) {
	t.Helper()

	db := openServiceTestDB(t, name)
	partnerRepo := repository.NewPartnerRepository(db)
	return NewPartnerService(
		partnerRepo,
		repository.NewOrderItemRepository(db),
		repository.NewUserRepository(db),
		NewCommissionService(partnerRepo),
	), db
}

func TestUpdateItemStatusCompletedFillsMissingSnapshot(t *testing.T) {
	svc, db := setupPartnerServiceTest(t, "partner_item_complete")

	partner := createServiceTestPartner(t, db, "item-partner-a", "10.00")
	client := createServiceTestUser(t, db, "item-client-a", constants.RoleClient)
	category := createServiceTestCategory(t, db, "gite-item-a")
	product := createServiceTestProduct(t, db, category.ID, &partner.ID, "gita-ponza", "100.00", nil)

	order := createServiceTestOrder(t, db, client.ID, constants.OrderStatusPaid, time.Now())
	item := createServiceTestItem(t, db, order.ID, product.ID, &partner.ID, "100.00", "0.00", "0.00", "0.00")

	updated, err := svc.UpdateItemStatus(partner.UserID, UpdateItemStatusInput{
		ItemID:    item.ID,
		NewStatus: constants.ItemStatusCompleted,
	})
	if err != nil {
		t.Fatalf("update item status failed: %v", err)
	}
	if updated.PartnerStatus != constants.ItemStatusCompleted {
		t.Fatalf("expected completed, got %s", updated.PartnerStatus)
	}

	reloaded := reloadServiceTestItem(t, db, item.ID)
	if reloaded.CommissionRate.String() != "10.00" {
		t.Fatalf("expected resolved rate 10.00, got %s", reloaded.CommissionRate.String())
	}
	if reloaded.CommissionAmount.String() != "10.00" || reloaded.PartnerEarnings.String() != "90.00" {
		t.Fatalf("expected snapshot 10.00/90.00, got %s/%s",
			reloaded.CommissionAmount.String(), reloaded.PartnerEarnings.String())
	}

	var logCount int64
	if err := db.Model(&models.OrderItemStatusLog{}).Where("order_item_id = ?", item.ID).Count(&logCount).Error; err != nil {
		t.Fatalf("count status logs failed: %v", err)
	}
	if logCount != 1 {
		t.Fatalf("expected 1 status log, got %d", logCount)
	}

	var noteCount int64
	if err := db.Model(&models.PartnerNotification{}).Where("partner_id = ?", partner.ID).Count(&noteCount).Error; err != nil {
		t.Fatalf("count notifications failed: %v", err)
	}
	if noteCount != 1 {
		t.Fatalf("expected 1 notification, got %d", noteCount)
	}
}

func TestUpdateItemStatusCompletedKeepsExistingSnapshot(t *testing.T) {
	svc, db := setupPartnerServiceTest(t, "partner_item_keep")

	partner := createServiceTestPartner(t, db, "item-partner-b", "10.00")
	client := createServiceTestUser(t, db, "item-client-b", constants.RoleClient)
	category := createServiceTestCategory(t, db, "gite-item-b")
	product := createServiceTestProduct(t, db, category.ID, &partner.ID, "gita-ventotene", "100.00", nil)

	order := createServiceTestOrder(t, db, client.ID, constants.OrderStatusPaid, time.Now())
	item := createServiceTestItem(t, db, order.ID, product.ID, &partner.ID, "100.00", "15.00", "15.00", "85.00")

	if _, err := svc.UpdateItemStatus(partner.UserID, UpdateItemStatusInput{
		ItemID:    item.ID,
		NewStatus: constants.ItemStatusCompleted,
	}); err != nil {
		t.Fatalf("update item status failed: %v", err)
	}

	reloaded := reloadServiceTestItem(t, db, item.ID)
	if reloaded.CommissionAmount.String() != "15.00" {
		t.Fatalf("existing snapshot must be preserved, got %s", reloaded.CommissionAmount.String())
	}
}

func TestUpdateItemStatusRejectedZeroesSnapshot(t *testing.T) {
	svc, db := setupPartnerServiceTest(t, "partner_item_reject")

	partner := createServiceTestPartner(t, db, "item-partner-c", "10.00")
	client := createServiceTestUser(t, db, "item-client-c", constants.RoleClient)
	category := createServiceTestCategory(t, db, "gite-item-c")
	product := createServiceTestProduct(t, db, category.ID, &partner.ID, "gita-palmarola", "100.00", nil)

	order := createServiceTestOrder(t, db, client.ID, constants.OrderStatusPaid, time.Now())
	item := createServiceTestItem(t, db, order.ID, product.ID, &partner.ID, "100.00", "10.00", "10.00", "90.00")

	if _, err := svc.UpdateItemStatus(partner.UserID, UpdateItemStatusInput{
		ItemID:    item.ID,
		NewStatus: constants.ItemStatusRejected,
		Note:      "non disponibile in quella data",
	}); err != nil {
		t.Fatalf("update item status failed: %v", err)
	}

	reloaded := reloadServiceTestItem(t, db, item.ID)
	if reloaded.PartnerStatus != constants.ItemStatusRejected {
		t.Fatalf("expected rejected, got %s", reloaded.PartnerStatus)
	}
	if !reloaded.CommissionRate.IsZero() || !reloaded.CommissionAmount.IsZero() || !reloaded.PartnerEarnings.IsZero() {
		t.Fatalf("rejected line must zero commission snapshot: %s/%s/%s",
			reloaded.CommissionRate.String(), reloaded.CommissionAmount.String(), reloaded.PartnerEarnings.String())
	}
}

func TestUpdateItemStatusLockedAfterSettlement(t *testing.T) {
	svc, db := setupPartnerServiceTest(t, "partner_item_locked")

	partner := createServiceTestPartner(t, db, "item-partner-d", "10.00")
	client := createServiceTestUser(t, db, "item-client-d", constants.RoleClient)
	category := createServiceTestCategory(t, db, "gite-item-d")
	product := createServiceTestProduct(t, db, category.ID, &partner.ID, "gita-zannone", "100.00", nil)

	order := createServiceTestOrder(t, db, client.ID, constants.OrderStatusPaid, time.Now())
	item := createServiceTestItem(t, db, order.ID, product.ID, &partner.ID, "100.00", "10.00", "10.00", "90.00")
	if err := db.Model(&models.OrderItem{}).Where("id = ?", item.ID).Update("is_liquidated", true).Error; err != nil {
		t.Fatalf("liquidate item failed: %v", err)
	}

	if _, err := svc.UpdateItemStatus(partner.UserID, UpdateItemStatusInput{
		ItemID:    item.ID,
		NewStatus: constants.ItemStatusCompleted,
	}); !errors.Is(err, ErrOrderItemLocked) {
		t.Fatalf("expected ErrOrderItemLocked, got %v", err)
	}
}

func TestUpdateItemStatusOwnershipAndValidation(t *testing.T) {
	svc, db := setupPartnerServiceTest(t, "partner_item_ownership")

	partner := createServiceTestPartner(t, db, "item-partner-e", "10.00")
	intruder := createServiceTestPartner(t, db, "item-partner-f", "10.00")
	client := createServiceTestUser(t, db, "item-client-e", constants.RoleClient)
	category := createServiceTestCategory(t, db, "gite-item-e")
	product := createServiceTestProduct(t, db, category.ID, &partner.ID, "gita-gavi", "100.00", nil)

	order := createServiceTestOrder(t, db, client.ID, constants.OrderStatusPaid, time.Now())
	item := createServiceTestItem(t, db, order.ID, product.ID, &partner.ID, "100.00", "10.00", "10.00", "90.00")

	if _, err := svc.UpdateItemStatus(intruder.UserID, UpdateItemStatusInput{
		ItemID:    item.ID,
		NewStatus: constants.ItemStatusAccepted,
	}); !errors.Is(err, ErrOrderItemNotFound) {
		t.Fatalf("expected ErrOrderItemNotFound for foreign partner, got %v", err)
	}

	if _, err := svc.UpdateItemStatus(partner.UserID, UpdateItemStatusInput{
		ItemID:    item.ID,
		NewStatus: "archived",
	}); !errors.Is(err, ErrItemStatusInvalid) {
		t.Fatalf("expected ErrItemStatusInvalid, got %v", err)
	}
}

func TestGetLedgerSummary(t *testing.T) {
	svc, db := setupPartnerServiceTest(t, "partner_ledger")

	partner := createServiceTestPartner(t, db, "ledger-partner", "10.00")
	client := createServiceTestUser(t, db, "ledger-client", constants.RoleClient)
	category := createServiceTestCategory(t, db, "gite-ledger")
	product := createServiceTestProduct(t, db, category.ID, &partner.ID, "gita-ledger", "100.00", nil)

	order := createServiceTestOrder(t, db, client.ID, constants.OrderStatusCompleted, time.Now())
	createServiceTestItem(t, db, order.ID, product.ID, &partner.ID, "100.00", "10.00", "10.00", "90.00")
	liquidated := createServiceTestItem(t, db, order.ID, product.ID, &partner.ID, "50.00", "10.00", "5.00", "45.00")
	if err := db.Model(&models.OrderItem{}).Where("id = ?", liquidated.ID).Update("is_liquidated", true).Error; err != nil {
		t.Fatalf("liquidate item failed: %v", err)
	}

	stats, err := svc.GetLedgerSummary(partner.ID)
	if err != nil {
		t.Fatalf("ledger summary failed: %v", err)
	}
	if stats.PendingCount != 1 || !stats.PendingEarnings.Equal(decimal.RequireFromString("90")) {
		t.Fatalf("unexpected pending stats: %d / %s", stats.PendingCount, stats.PendingEarnings.String())
	}
	if stats.LiquidatedCount != 1 || !stats.LiquidatedEarnings.Equal(decimal.RequireFromString("45")) {
		t.Fatalf("unexpected liquidated stats: %d / %s", stats.LiquidatedCount, stats.LiquidatedEarnings.String())
	}
}

func TestMarkNotificationRead(t *testing.T) {
	svc, db := setupPartnerServiceTest(t, "partner_notifications")

	partner := createServiceTestPartner(t, db, "notify-partner", "10.00")
	other := createServiceTestPartner(t, db, "notify-partner-other", "10.00")

	note := models.PartnerNotification{
		PartnerID: partner.ID,
		Title:     "Nuovo pagamento",
		Message:   "È disponibile un nuovo pagamento in bozza",
	}
	if err := db.Create(&note).Error; err != nil {
		t.Fatalf("create notification failed: %v", err)
	}

	if err := svc.MarkNotificationRead(note.ID, other.ID); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("expected ErrNotificationNotFound for foreign partner, got %v", err)
	}
	if err := svc.MarkNotificationRead(note.ID, partner.ID); err != nil {
		t.Fatalf("mark read failed: %v", err)
	}

	rows, total, err := svc.ListNotifications(partner.ID, true, 1, 10)
	if err != nil {
		t.Fatalf("list notifications failed: %v", err)
	}
	if total != 0 || len(rows) != 0 {
		t.Fatalf("expected no unread notifications, got %d", total)
	}
}
