package provider

import (
	"github.com/stitchline/stitchline-server/internal/cache"
	"github.com/stitchline/stitchline-server/internal/config"
	"github.com/stitchline/stitchline-server/internal/logger"
	"github.com/stitchline/stitchline-server/internal/models"
	"github.com/stitchline/stitchline-server/internal/queue"
	"github.com/stitchline/stitchline-server/internal/repository"
	"github.com/stitchline/stitchline-server/internal/service"
)

// Container wires repositories and services, built once at startup.
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo   repository.AdminRepository
	UserRepo    repository.UserRepository
	ProductRepo repository.ProductRepository
	CartRepo    repository.CartRepository
	OrderRepo   repository.OrderRepository

	// Services
	AuthService      *service.AuthService
	ProductService   *service.ProductService
	CartService      *service.CartService
	OrderService     *service.OrderService
	InventoryService *service.InventoryService
	PaymentService   *service.PaymentService
	EmailService     *service.EmailService
}

// NewContainer initializes the dependency graph.
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}
	c.initRepositories()
	c.initServices()
	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
}

func (c *Container) initServices() {
	c.AuthService = service.NewAuthService(c.AdminRepo, c.UserRepo, c.Config)
	c.ProductService = service.NewProductService(c.ProductRepo)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.ProductRepo, c.CartRepo, c.Config.Order)
	c.InventoryService = service.NewInventoryService(c.OrderRepo, c.ProductRepo, c.CartRepo, c.QueueClient)
	c.PaymentService = service.NewPaymentService(c.OrderService, c.QueueClient, c.Config.Paystack)
	c.EmailService = service.NewEmailService(c.OrderRepo, c.Config.Email)
}
