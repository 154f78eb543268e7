package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/b2b-portale/internal/constants"
	"github.com/b2b-portale/internal/models"
	"github.com/b2b-portale/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func openServiceTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.ClientStructure{},
		&models.Category{},
		&models.PartnerProfile{},
		&models.PartnerCategoryCommission{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderItemStatusLog{},
		&models.PartnerPayout{},
		&models.PartnerNotification{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func createServiceTestUser(t *testing.T, db *gorm.DB, username, role string) models.User {
	t.Helper()

	row := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		DisplayName:  "tester",
		Role:         role,
		Status:       constants.UserStatusActive,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return row
}

func createServiceTestPartner(t *testing.T, db *gorm.DB, username, defaultRate string) models.PartnerProfile {
	t.Helper()

	user := createServiceTestUser(t, db, username, constants.RolePartner)
	row := models.PartnerProfile{
		UserID:                   user.ID,
		CompanyName:              username + " srl",
		DefaultCommissionPercent: models.MustMoney(defaultRate),
		IsActive:                 true,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create partner profile failed: %v", err)
	}
	return row
}

func createServiceTestCategory(t *testing.T, db *gorm.DB, slug string) models.Category {
	t.Helper()

	row := models.Category{
		Slug:     slug,
		Name:     slug,
		IsActive: true,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	return row
}

func createServiceTestProduct(t *testing.T, db *gorm.DB, categoryID uint, supplierID *uint, slug, basePrice string, rate *string) models.Product {
	t.Helper()

	row := models.Product{
		CategoryID: categoryID,
		SupplierID: supplierID,
		Slug:       slug,
		Name:       slug,
		BasePrice:  models.MustMoney(basePrice),
		Unit:       constants.ProductUnitPerPiece,
		IsActive:   true,
	}
	if rate != nil {
		money := models.MustMoney(*rate)
		row.PartnerCommissionRate = &money
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return row
}

func strPtr(s string) *string {
	return &s
}

func TestResolveRateProductOverrideWins(t *testing.T) {
	db := openServiceTestDB(t, "commission_rate_product")
	partnerRepo := repository.NewPartnerRepository(db)
	svc := NewCommissionService(partnerRepo)

	partner := createServiceTestPartner(t, db, "partner-rate-a", "10.00")
	category := createServiceTestCategory(t, db, "escursioni")
	if err := partnerRepo.UpsertCategoryCommission(&models.PartnerCategoryCommission{
		PartnerID:      partner.ID,
		CategoryID:     category.ID,
		CommissionRate: models.MustMoney("15.00"),
	}); err != nil {
		t.Fatalf("upsert category commission failed: %v", err)
	}
	product := createServiceTestProduct(t, db, category.ID, &partner.ID, "tour-barca", "100.00", strPtr("20.00"))

	rate, err := svc.ResolveRate(&partner, &product)
	if err != nil {
		t.Fatalf("resolve rate failed: %v", err)
	}
	if !rate.Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("expected product rate 20.00, got %s", rate.String())
	}
}

func TestResolveRateExplicitZeroProductRate(t *testing.T) {
	db := openServiceTestDB(t, "commission_rate_zero")
	partnerRepo := repository.NewPartnerRepository(db)
	svc := NewCommissionService(partnerRepo)

	partner := createServiceTestPartner(t, db, "partner-rate-zero", "10.00")
	category := createServiceTestCategory(t, db, "degustazioni")
	product := createServiceTestProduct(t, db, category.ID, &partner.ID, "degustazione-vino", "80.00", strPtr("0.00"))

	rate, err := svc.ResolveRate(&partner, &product)
	if err != nil {
		t.Fatalf("resolve rate failed: %v", err)
	}
	if !rate.IsZero() {
		t.Fatalf("expected explicit zero product rate to win, got %s", rate.String())
	}
}

func TestResolveRateCategoryFallback(t *testing.T) {
	db := openServiceTestDB(t, "commission_rate_category")
	partnerRepo := repository.NewPartnerRepository(db)
	svc := NewCommissionService(partnerRepo)

	partner := createServiceTestPartner(t, db, "partner-rate-b", "10.00")
	category := createServiceTestCategory(t, db, "trasferimenti")
	if err := partnerRepo.UpsertCategoryCommission(&models.PartnerCategoryCommission{
		PartnerID:      partner.ID,
		CategoryID:     category.ID,
		CommissionRate: models.MustMoney("15.00"),
	}); err != nil {
		t.Fatalf("upsert category commission failed: %v", err)
	}
	product := createServiceTestProduct(t, db, category.ID, &partner.ID, "transfer-aeroporto", "60.00", nil)

	rate, err := svc.ResolveRate(&partner, &product)
	if err != nil {
		t.Fatalf("resolve rate failed: %v", err)
	}
	if !rate.Equal(decimal.RequireFromString("15.00")) {
		t.Fatalf("expected category rate 15.00, got %s", rate.String())
	}
}

func TestResolveRatePartnerDefaultFallback(t *testing.T) {
	db := openServiceTestDB(t, "commission_rate_default")
	partnerRepo := repository.NewPartnerRepository(db)
	svc := NewCommissionService(partnerRepo)

	partner := createServiceTestPartner(t, db, "partner-rate-c", "10.00")
	category := createServiceTestCategory(t, db, "noleggi")
	product := createServiceTestProduct(t, db, category.ID, &partner.ID, "noleggio-bici", "25.00", nil)

	rate, err := svc.ResolveRate(&partner, &product)
	if err != nil {
		t.Fatalf("resolve rate failed: %v", err)
	}
	if !rate.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("expected partner default rate 10.00, got %s", rate.String())
	}
}

func TestResolveRateWithoutPartner(t *testing.T) {
	db := openServiceTestDB(t, "commission_rate_none")
	svc := NewCommissionService(repository.NewPartnerRepository(db))

	category := createServiceTestCategory(t, db, "servizi-interni")
	product := createServiceTestProduct(t, db, category.ID, nil, "servizio-interno", "40.00", nil)

	rate, err := svc.ResolveRate(nil, &product)
	if err != nil {
		t.Fatalf("resolve rate failed: %v", err)
	}
	if !rate.IsZero() {
		t.Fatalf("expected zero rate without partner, got %s", rate.String())
	}

	// 商品带显式佣金率时，无合作商的行同样不计佣金
	explicitRate := "20.00"
	withRate := createServiceTestProduct(t, db, category.ID, nil, "servizio-con-rate", "40.00", &explicitRate)
	rate, err = svc.ResolveRate(nil, &withRate)
	if err != nil {
		t.Fatalf("resolve rate with product override failed: %v", err)
	}
	if !rate.IsZero() {
		t.Fatalf("expected zero rate without partner despite product rate, got %s", rate.String())
	}
}

func TestCalculateWithoutPartnerChargesNoCommission(t *testing.T) {
	db := openServiceTestDB(t, "commission_calc_no_partner")
	svc := NewCommissionService(repository.NewPartnerRepository(db))

	category := createServiceTestCategory(t, db, "servizi-diretti")
	explicitRate := "20.00"
	product := createServiceTestProduct(t, db, category.ID, nil, "servizio-diretto", "100.00", &explicitRate)

	item := models.OrderItem{
		TotalPrice: models.MustMoney("100.00"),
	}
	if err := svc.Calculate(&item, nil, &product, nil); err != nil {
		t.Fatalf("calculate failed: %v", err)
	}
	if !item.CommissionRate.Decimal.IsZero() {
		t.Fatalf("expected zero rate without partner, got %s", item.CommissionRate.String())
	}
	if !item.CommissionAmount.Decimal.IsZero() {
		t.Fatalf("expected zero commission without partner, got %s", item.CommissionAmount.String())
	}
	if item.PartnerEarnings.String() != "100.00" {
		t.Fatalf("expected earnings to equal line total, got %s", item.PartnerEarnings.String())
	}

	// 覆盖佣金率也不改变无合作商行的结果
	override := decimal.RequireFromString("15.00")
	if err := svc.Calculate(&item, nil, &product, &override); err != nil {
		t.Fatalf("calculate with override failed: %v", err)
	}
	if !item.CommissionAmount.Decimal.IsZero() {
		t.Fatalf("expected override ignored without partner, got %s", item.CommissionAmount.String())
	}
}

func TestCalculateCommissionSnapshot(t *testing.T) {
	db := openServiceTestDB(t, "commission_calculate")
	svc := NewCommissionService(repository.NewPartnerRepository(db))

	partner := createServiceTestPartner(t, db, "partner-calc", "12.50")
	item := models.OrderItem{
		TotalPrice: models.MustMoney("99.99"),
	}

	if err := svc.Calculate(&item, &partner, nil, nil); err != nil {
		t.Fatalf("calculate failed: %v", err)
	}
	if item.CommissionRate.String() != "12.50" {
		t.Fatalf("expected rate 12.50, got %s", item.CommissionRate.String())
	}
	// 99.99 * 12.5% = 12.49875 → 12.50
	if item.CommissionAmount.String() != "12.50" {
		t.Fatalf("expected commission 12.50, got %s", item.CommissionAmount.String())
	}
	if item.PartnerEarnings.String() != "87.49" {
		t.Fatalf("expected earnings 87.49, got %s", item.PartnerEarnings.String())
	}

	// 重复计算结果不变
	if err := svc.Calculate(&item, &partner, nil, nil); err != nil {
		t.Fatalf("recalculate failed: %v", err)
	}
	if item.CommissionAmount.String() != "12.50" || item.PartnerEarnings.String() != "87.49" {
		t.Fatalf("expected idempotent snapshot, got %s / %s", item.CommissionAmount.String(), item.PartnerEarnings.String())
	}
}
