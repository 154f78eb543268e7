package main

import (
	"log"

	"github.com/b2b-portale/internal/authz"
	"github.com/b2b-portale/internal/config"
	"github.com/b2b-portale/internal/constants"
	"github.com/b2b-portale/internal/logger"
	"github.com/b2b-portale/internal/models"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 演示账号
	users := []struct {
		username    string
		email       string
		displayName string
		role        string
		password    string
	}{
		{"admin", "admin@portale.local", "Amministratore", constants.RoleAdmin, "admin123"},
		{"finanza", "finanza@portale.local", "Ufficio finanza", constants.RoleAdmin, "finanza123"},
		{"hotel.garda", "reception@hotelgarda.test", "Hotel Garda", constants.RoleClient, "cliente123"},
		{"forniture.rossi", "ordini@fornitureross.test", "Forniture Rossi SRL", constants.RolePartner, "partner123"},
		{"servizi.lago", "info@servizilago.test", "Servizi Lago SNC", constants.RolePartner, "partner123"},
	}

	userIDs := map[string]uint{}
	for _, u := range users {
		var existing models.User
		if err := models.DB.Where("username = ?", u.username).First(&existing).Error; err == nil {
			stdLog.Printf("User already exists: %s", u.username)
			userIDs[u.username] = existing.ID
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			stdLog.Fatalf("Failed to hash password for %s: %v", u.username, err)
		}
		record := models.User{
			Username:     u.username,
			Email:        u.email,
			PasswordHash: string(hash),
			DisplayName:  u.displayName,
			Role:         u.role,
			Status:       constants.UserStatusActive,
		}
		if err := models.DB.Create(&record).Error; err != nil {
			stdLog.Printf("Failed to create user %s: %v", u.username, err)
			continue
		}
		userIDs[u.username] = record.ID
		stdLog.Printf("Created user: %s (%s)", u.username, u.role)
	}

	// 给财务演示账号分配 finance 角色
	if authzService, err := authz.NewService(models.DB); err != nil {
		stdLog.Printf("Failed to init authz service: %v", err)
	} else if err := authzService.BootstrapBuiltinRoles(); err != nil {
		stdLog.Printf("Failed to bootstrap builtin roles: %v", err)
	} else if financeID := userIDs["finanza"]; financeID != 0 {
		if err := authzService.SetUserRoles(financeID, []string{"finance"}); err != nil {
			stdLog.Printf("Failed to assign finance role: %v", err)
		} else {
			stdLog.Printf("Assigned finance role to user %d", financeID)
		}
	}

	// 客户收货场所
	if clientID := userIDs["hotel.garda"]; clientID != 0 {
		structures := []models.ClientStructure{
			{OwnerID: clientID, Name: "Hotel Garda", Address: "Via Lungolago 12", City: "Sirmione", ZipCode: "25019", Phone: "+39 030 000000", IsDefault: true},
			{OwnerID: clientID, Name: "Residence Garda Suite", Address: "Via Roma 4", City: "Desenzano", ZipCode: "25015", Phone: "+39 030 111111"},
		}
		for _, s := range structures {
			var existing models.ClientStructure
			if err := models.DB.Where("owner_id = ? AND name = ?", s.OwnerID, s.Name).First(&existing).Error; err == nil {
				stdLog.Printf("Structure already exists: %s", s.Name)
				continue
			}
			if err := models.DB.Create(&s).Error; err != nil {
				stdLog.Printf("Failed to create structure %s: %v", s.Name, err)
			} else {
				stdLog.Printf("Created structure: %s", s.Name)
			}
		}
	}

	// 合作商档案
	partnerProfiles := map[string]models.PartnerProfile{
		"forniture.rossi": {
			CompanyName:              "Forniture Rossi SRL",
			VatNumber:                "IT01234567890",
			Address:                  "Via dell'Artigianato 8",
			City:                     "Brescia",
			ZipCode:                  "25100",
			Phone:                    "+39 030 222222",
			DefaultCommissionPercent: models.MustMoney("12.50"),
			IsActive:                 true,
		},
		"servizi.lago": {
			CompanyName:              "Servizi Lago SNC",
			VatNumber:                "IT09876543210",
			Address:                  "Piazza Matteotti 3",
			City:                     "Salò",
			ZipCode:                  "25087",
			Phone:                    "+39 0365 333333",
			DefaultCommissionPercent: models.MustMoney("15.00"),
			IsActive:                 true,
		},
	}

	partnerIDs := map[string]uint{}
	for username, profile := range partnerProfiles {
		userID := userIDs[username]
		if userID == 0 {
			continue
		}
		var existing models.PartnerProfile
		if err := models.DB.Where("user_id = ?", userID).First(&existing).Error; err == nil {
			stdLog.Printf("Partner profile already exists: %s", profile.CompanyName)
			partnerIDs[username] = existing.ID
			continue
		}
		profile.UserID = userID
		if err := models.DB.Create(&profile).Error; err != nil {
			stdLog.Printf("Failed to create partner profile %s: %v", profile.CompanyName, err)
			continue
		}
		partnerIDs[username] = profile.ID
		stdLog.Printf("Created partner profile: %s", profile.CompanyName)
	}

	// 分类
	categories := []models.Category{
		{Slug: "colazione", Name: "Prodotti per la colazione", SortOrder: 10},
		{Slug: "cortesia", Name: "Linea cortesia", SortOrder: 20},
		{Slug: "servizi", Name: "Servizi alle strutture", SortOrder: 30},
	}
	for _, cat := range categories {
		var existing models.Category
		if err := models.DB.Where("slug = ?", cat.Slug).First(&existing).Error; err == nil {
			stdLog.Printf("Category already exists: %s", cat.Slug)
			continue
		}
		if err := models.DB.Create(&cat).Error; err != nil {
			stdLog.Printf("Failed to create category %s: %v", cat.Slug, err)
		} else {
			stdLog.Printf("Created category: %s", cat.Slug)
		}
	}

	categoryIDs := map[string]uint{}
	var categoryList []models.Category
	if err := models.DB.Where("slug IN ?", []string{"colazione", "cortesia", "servizi"}).Find(&categoryList).Error; err != nil {
		stdLog.Printf("Failed to load categories: %v", err)
	}
	for _, cat := range categoryList {
		categoryIDs[cat.Slug] = cat.ID
	}

	// 分类级佣金率
	if partnerID := partnerIDs["forniture.rossi"]; partnerID != 0 {
		if categoryID := categoryIDs["colazione"]; categoryID != 0 {
			upsertCategoryCommission(stdLog, partnerID, categoryID, "10.00")
		}
		if categoryID := categoryIDs["cortesia"]; categoryID != 0 {
			upsertCategoryCommission(stdLog, partnerID, categoryID, "14.00")
		}
	}
	if partnerID := partnerIDs["servizi.lago"]; partnerID != 0 {
		if categoryID := categoryIDs["servizi"]; categoryID != 0 {
			upsertCategoryCommission(stdLog, partnerID, categoryID, "18.00")
		}
	}

	// 商品
	rossiID := partnerIDs["forniture.rossi"]
	lagoID := partnerIDs["servizi.lago"]
	products := []models.Product{
		{
			CategoryID:       categoryIDs["colazione"],
			SupplierID:       uintPtr(rossiID),
			Slug:             "kit-colazione-continentale",
			Name:             "Kit colazione continentale",
			ShortDescription: "Confezioni monodose per il buffet della colazione",
			BasePrice:        models.MustMoney("45.00"),
			Unit:             constants.ProductUnitPerKit,
			IsActive:         true,
			SortOrder:        10,
		},
		{
			CategoryID:       categoryIDs["colazione"],
			SupplierID:       uintPtr(rossiID),
			Slug:             "caffe-miscela-bar-1kg",
			Name:             "Caffè miscela bar 1kg",
			ShortDescription: "Miscela arabica/robusta in grani",
			BasePrice:        models.MustMoney("18.90"),
			Unit:             constants.ProductUnitPerPiece,
			IsActive:         true,
			SortOrder:        20,
		},
		{
			CategoryID:            categoryIDs["cortesia"],
			SupplierID:            uintPtr(rossiID),
			Slug:                  "set-cortesia-bagno",
			Name:                  "Set cortesia bagno",
			ShortDescription:      "Shampoo, bagnoschiuma e saponetta in confezione personalizzata",
			BasePrice:             models.MustMoney("2.40"),
			Unit:                  constants.ProductUnitPerKit,
			PartnerCommissionRate: moneyPtr("8.00"),
			IsActive:              true,
			SortOrder:             10,
		},
		{
			CategoryID:       categoryIDs["servizi"],
			SupplierID:       uintPtr(lagoID),
			Slug:             "servizio-lavanderia-biancheria",
			Name:             "Servizio lavanderia biancheria",
			ShortDescription: "Ritiro e riconsegna biancheria entro 48 ore",
			IsService:        true,
			BasePrice:        models.MustMoney("3.20"),
			Unit:             constants.ProductUnitPerNight,
			IsActive:         true,
			SortOrder:        10,
		},
		{
			CategoryID:       categoryIDs["servizi"],
			Slug:             "manutenzione-piscina",
			Name:             "Manutenzione piscina",
			ShortDescription: "Intervento tecnico stagionale gestito dal portale",
			IsService:        true,
			BasePrice:        models.MustMoney("120.00"),
			Unit:             constants.ProductUnitPerPiece,
			IsActive:         true,
			SortOrder:        20,
		},
	}

	for _, product := range products {
		if product.CategoryID == 0 {
			continue
		}
		var existing models.Product
		if err := models.DB.Where("slug = ?", product.Slug).First(&existing).Error; err == nil {
			stdLog.Printf("Product already exists: %s", product.Slug)
			continue
		}
		if err := models.DB.Create(&product).Error; err != nil {
			stdLog.Printf("Failed to create product %s: %v", product.Slug, err)
		} else {
			stdLog.Printf("Created product: %s", product.Slug)
		}
	}

	stdLog.Printf("Seed completed")
}

func upsertCategoryCommission(stdLog *log.Logger, partnerID, categoryID uint, rate string) {
	var existing models.PartnerCategoryCommission
	if err := models.DB.Where("partner_id = ? AND category_id = ?", partnerID, categoryID).First(&existing).Error; err == nil {
		stdLog.Printf("Category commission already exists: partner=%d category=%d", partnerID, categoryID)
		return
	}
	record := models.PartnerCategoryCommission{
		PartnerID:      partnerID,
		CategoryID:     categoryID,
		CommissionRate: models.MustMoney(rate),
	}
	if err := models.DB.Create(&record).Error; err != nil {
		stdLog.Printf("Failed to create category commission partner=%d category=%d: %v", partnerID, categoryID, err)
		return
	}
	stdLog.Printf("Created category commission: partner=%d category=%d rate=%s", partnerID, categoryID, rate)
}

func uintPtr(v uint) *uint {
	if v == 0 {
		return nil
	}
	return &v
}

func moneyPtr(v string) *models.Money {
	m := models.MustMoney(v)
	return &m
}
