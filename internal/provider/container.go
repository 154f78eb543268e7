package provider

import (
	"github.com/b2b-portale/internal/authz"
	"github.com/b2b-portale/internal/cache"
	"github.com/b2b-portale/internal/config"
	"github.com/b2b-portale/internal/logger"
	"github.com/b2b-portale/internal/models"
	"github.com/b2b-portale/internal/queue"
	"github.com/b2b-portale/internal/repository"
	"github.com/b2b-portale/internal/service"
)

// Container 依赖注入容器，集中装配仓储与服务
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	UserRepo      repository.UserRepository
	PartnerRepo   repository.PartnerRepository
	ProductRepo   repository.ProductRepository
	OrderRepo     repository.OrderRepository
	OrderItemRepo repository.OrderItemRepository
	PayoutRepo    repository.PayoutRepository

	AuthzService       *authz.Service
	AuthService        *service.AuthService
	CommissionService  *service.CommissionService
	ShippingCalculator *service.ShippingCalculator
	CatalogService     *service.CatalogService
	OrderService       *service.OrderService
	PartnerService     *service.PartnerService
	PayoutService      *service.PayoutService
}

// NewContainer 创建并装配容器
func NewContainer(cfg *config.Config) *Container {
	c := &Container{Config: cfg}

	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("redis_init_failed",
			"error", err,
			"fallback", "cache_disabled",
		)
	}

	if cfg.Queue.Enabled {
		client, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Warnw("queue_client_init_failed", "error", err)
		} else {
			c.QueueClient = client
		}
	}

	c.initRepositories()
	c.initServices()
	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.PartnerRepo = repository.NewPartnerRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.OrderItemRepo = repository.NewOrderItemRepository(db)
	c.PayoutRepo = repository.NewPayoutRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("authz_init_failed", "error", err)
		panic(err)
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("authz_bootstrap_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService

	c.AuthService = service.NewAuthService(c.Config, c.UserRepo)
	c.CommissionService = service.NewCommissionService(c.PartnerRepo)
	c.ShippingCalculator = service.NewShippingCalculator(c.Config.Shipping)
	c.CatalogService = service.NewCatalogService(c.ProductRepo)
	c.OrderService = service.NewOrderService(
		c.OrderRepo,
		c.OrderItemRepo,
		c.ProductRepo,
		c.PartnerRepo,
		c.UserRepo,
		c.CommissionService,
		c.ShippingCalculator,
		c.Config.Payout.ReviewInviteAfterDays,
	)
	c.PartnerService = service.NewPartnerService(
		c.PartnerRepo,
		c.OrderItemRepo,
		c.UserRepo,
		c.CommissionService,
	)
	c.PayoutService = service.NewPayoutService(
		c.PayoutRepo,
		c.OrderItemRepo,
		c.PartnerRepo,
		c.CommissionService,
	)
}

// Close 释放容器持有的资源
func (c *Container) Close() error {
	if c == nil || c.QueueClient == nil {
		return nil
	}
	return c.QueueClient.Close()
}
