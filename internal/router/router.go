package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/b2b-portale/internal/authz"
	"github.com/b2b-portale/internal/cache"
	"github.com/b2b-portale/internal/config"
	adminhandlers "github.com/b2b-portale/internal/http/handlers/admin"
	publichandlers "github.com/b2b-portale/internal/http/handlers/public"
	"github.com/b2b-portale/internal/http/response"
	"github.com/b2b-portale/internal/logger"
	"github.com/b2b-portale/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "ptl"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		MessageKey:    "error.rate_limited",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开目录接口
		apiV1.GET("/categories", publicHandler.ListCategories)
		apiV1.GET("/products", publicHandler.ListProducts)
		apiV1.GET("/products/:slug", publicHandler.GetProduct)

		// 认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("username")), publicHandler.Login)
		}

		// 登录用户通用接口
		me := apiV1.Group("")
		me.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.UserRepo))
		{
			me.GET("/me", publicHandler.Me)
			me.PUT("/me/password", publicHandler.ChangePassword)
		}

		// 客户端接口
		client := apiV1.Group("/client")
		client.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.UserRepo), RBACMiddleware(c.AuthzService))
		{
			client.GET("/structures", publicHandler.ClientListStructures)
			client.POST("/orders", publicHandler.ClientCheckout)
			client.GET("/orders", publicHandler.ClientListOrders)
			client.GET("/orders/:id", publicHandler.ClientGetOrder)
			client.POST("/orders/:id/duplicate", publicHandler.ClientDuplicateOrder)
		}

		// 合作商接口
		partner := apiV1.Group("/partner")
		partner.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.UserRepo), RBACMiddleware(c.AuthzService))
		{
			partner.GET("/profile", publicHandler.PartnerGetProfile)
			partner.GET("/items", publicHandler.PartnerListItems)
			partner.PATCH("/items/:id/status", publicHandler.PartnerUpdateItemStatus)
			partner.GET("/ledger/summary", publicHandler.PartnerLedgerSummary)
			partner.GET("/payouts", publicHandler.PartnerListPayouts)
			partner.GET("/notifications", publicHandler.PartnerListNotifications)
			partner.POST("/notifications/:id/read", publicHandler.PartnerMarkNotificationRead)
		}

		// 管理端接口
		admin := apiV1.Group("/admin")
		{
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.UserRepo), RBACMiddleware(c.AuthzService))
			{
				// 订单管理
				authorized.GET("/orders", adminHandler.AdminListOrders)
				authorized.GET("/orders/:id", adminHandler.AdminGetOrder)
				authorized.PATCH("/orders/:id", adminHandler.AdminUpdateOrder)
				authorized.POST("/orders/:id/recalculate", adminHandler.AdminRecalculateOrderCommissions)

				// 结算单管理
				authorized.GET("/payouts", adminHandler.AdminListPayouts)
				authorized.POST("/payouts", adminHandler.AdminBuildPayoutDraft)
				authorized.POST("/payouts/rebuild", adminHandler.AdminRebuildPayouts)
				authorized.GET("/payouts/:id", adminHandler.AdminGetPayout)
				authorized.GET("/payouts/:id/items", adminHandler.AdminListPayoutItems)
				authorized.PATCH("/payouts/:id", adminHandler.AdminUpdatePayoutDetails)
				authorized.PATCH("/payouts/:id/status", adminHandler.AdminUpdatePayoutStatus)

				// 合作商管理
				authorized.GET("/partners", adminHandler.AdminListPartners)
				authorized.GET("/partners/:id", adminHandler.AdminGetPartner)
				authorized.PATCH("/partners/:id", adminHandler.AdminUpdatePartner)
				authorized.GET("/partners/:id/category-commissions", adminHandler.AdminListPartnerCategoryCommissions)
				authorized.PUT("/partners/:id/category-commissions", adminHandler.AdminUpsertPartnerCategoryCommission)

				// 目录只读
				authorized.GET("/products", adminHandler.AdminListProducts)
				authorized.GET("/products/:id", adminHandler.AdminGetProduct)
				authorized.GET("/categories", adminHandler.AdminListCategories)

				// 用户管理
				authorized.GET("/users", adminHandler.AdminListUsers)

				// 权限管理
				authorized.GET("/authz/me", adminHandler.GetAuthzMe)
				authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
				authorized.POST("/authz/roles", adminHandler.CreateAuthzRole)
				authorized.DELETE("/authz/roles/:role", adminHandler.DeleteAuthzRole)
				authorized.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
				authorized.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
				authorized.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
				authorized.GET("/authz/users/:id/roles", adminHandler.GetAuthzUserRoles)
				authorized.PUT("/authz/users/:id/roles", adminHandler.SetAuthzUserRoles)
				authorized.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	return segments[1]
}
