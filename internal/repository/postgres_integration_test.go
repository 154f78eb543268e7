//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/b2b-portale/internal/constants"
	"github.com/b2b-portale/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.OrderItemStatusLog{},
		&models.OrderItem{},
		&models.PartnerPayout{},
		&models.Order{},
		&models.Product{},
		&models.PartnerCategoryCommission{},
		&models.PartnerNotification{},
		&models.PartnerProfile{},
		&models.Category{},
		&models.ClientStructure{},
		&models.User{},
	}
	for _, model := range cleanupModels {
		if err := db.Migrator().DropTable(model); err != nil {
			t.Fatalf("drop table failed: %v", err)
		}
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.ClientStructure{},
		&models.Category{},
		&models.PartnerProfile{},
		&models.PartnerCategoryCommission{},
		&models.PartnerNotification{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderItemStatusLog{},
		&models.PartnerPayout{},
	); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

func createIntegrationFixture(t *testing.T, db *gorm.DB) (*models.PartnerProfile, *models.Order) {
	t.Helper()

	client := models.User{
		Username:     "pg-client",
		Email:        "pg-client@test.local",
		PasswordHash: "x",
		Role:         constants.RoleClient,
		Status:       constants.UserStatusActive,
	}
	if err := db.Create(&client).Error; err != nil {
		t.Fatalf("create client failed: %v", err)
	}

	partnerUser := models.User{
		Username:     "pg-partner",
		Email:        "pg-partner@test.local",
		PasswordHash: "x",
		Role:         constants.RolePartner,
		Status:       constants.UserStatusActive,
	}
	if err := db.Create(&partnerUser).Error; err != nil {
		t.Fatalf("create partner user failed: %v", err)
	}

	partner := models.PartnerProfile{
		UserID:                   partnerUser.ID,
		CompanyName:              "PG Forniture",
		DefaultCommissionPercent: models.MustMoney("10.00"),
		IsActive:                 true,
	}
	if err := db.Create(&partner).Error; err != nil {
		t.Fatalf("create partner profile failed: %v", err)
	}

	order := models.Order{
		ClientID:  client.ID,
		Status:    constants.OrderStatusCompleted,
		Subtotal:  models.MustMoney("100.00"),
		Total:     models.MustMoney("100.00"),
		CreatedAt: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return &partner, &order
}

func TestPostgresAssignAndLiquidatePayoutItems(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	itemRepo := NewOrderItemRepository(db)
	payoutRepo := NewPayoutRepository(db)

	partner, order := createIntegrationFixture(t, db)

	item := models.OrderItem{
		OrderID:          order.ID,
		ProductID:        1,
		PartnerID:        &partner.ID,
		Quantity:         2,
		UnitPrice:        models.MustMoney("50.00"),
		TotalPrice:       models.MustMoney("100.00"),
		CommissionRate:   models.MustMoney("10.00"),
		CommissionAmount: models.MustMoney("10.00"),
		PartnerEarnings:  models.MustMoney("90.00"),
		PartnerStatus:    constants.ItemStatusCompleted,
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("create order item failed: %v", err)
	}

	periodStart := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	payout := models.PartnerPayout{
		PartnerID:       partner.ID,
		PeriodStart:     periodStart,
		PeriodEnd:       periodEnd,
		TotalCommission: models.MustMoney("90.00"),
		Status:          constants.PayoutStatusDraft,
	}
	if err := payoutRepo.Create(&payout); err != nil {
		t.Fatalf("create payout failed: %v", err)
	}

	now := time.Now()
	assigned, err := itemRepo.AssignToPayout([]uint{item.ID}, payout.ID, now)
	if err != nil {
		t.Fatalf("assign to payout failed: %v", err)
	}
	if assigned != 1 {
		t.Fatalf("expected 1 assigned row, got %d", assigned)
	}

	liquidated, err := itemRepo.LiquidateByPayout(payout.ID, now)
	if err != nil {
		t.Fatalf("liquidate failed: %v", err)
	}
	if liquidated != 1 {
		t.Fatalf("expected 1 liquidated row, got %d", liquidated)
	}

	var reloaded models.OrderItem
	if err := db.First(&reloaded, item.ID).Error; err != nil {
		t.Fatalf("reload item failed: %v", err)
	}
	if !reloaded.IsLiquidated || reloaded.PayoutID == nil || *reloaded.PayoutID != payout.ID {
		t.Fatalf("unexpected item state after liquidation: %+v", reloaded)
	}

	stats, err := itemRepo.GetPartnerLedgerStats(partner.ID)
	if err != nil {
		t.Fatalf("ledger stats failed: %v", err)
	}
	if stats.LiquidatedCount != 1 || stats.PendingCount != 0 {
		t.Fatalf("unexpected ledger stats: %+v", stats)
	}
}

func TestPostgresAggregateCommissionByPartner(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	itemRepo := NewOrderItemRepository(db)

	partner, order := createIntegrationFixture(t, db)

	items := []models.OrderItem{
		{
			OrderID:          order.ID,
			ProductID:        1,
			PartnerID:        &partner.ID,
			Quantity:         1,
			TotalPrice:       models.MustMoney("60.00"),
			CommissionAmount: models.MustMoney("6.00"),
			PartnerEarnings:  models.MustMoney("54.00"),
			PartnerStatus:    constants.ItemStatusCompleted,
		},
		{
			OrderID:          order.ID,
			ProductID:        2,
			PartnerID:        &partner.ID,
			Quantity:         1,
			TotalPrice:       models.MustMoney("40.00"),
			CommissionAmount: models.MustMoney("4.00"),
			PartnerEarnings:  models.MustMoney("36.00"),
			PartnerStatus:    constants.ItemStatusCompleted,
		},
	}
	for i := range items {
		if err := db.Create(&items[i]).Error; err != nil {
			t.Fatalf("create order item failed: %v", err)
		}
	}

	periodStart := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	periodEndExclusive := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	aggregates, err := itemRepo.AggregateCommissionByPartner(periodStart, periodEndExclusive)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if len(aggregates) != 1 {
		t.Fatalf("expected 1 partner aggregate, got %d", len(aggregates))
	}
	if aggregates[0].PartnerID != partner.ID {
		t.Fatalf("unexpected partner id: %d", aggregates[0].PartnerID)
	}
	if aggregates[0].ItemCount != 2 {
		t.Fatalf("unexpected item count: %d", aggregates[0].ItemCount)
	}
	if aggregates[0].TotalCommission.StringFixed(2) != "10.00" {
		t.Fatalf("unexpected aggregate total: %s", aggregates[0].TotalCommission.String())
	}
}
