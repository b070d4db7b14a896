package provider

import (
	"github.com/sharperly/logistics-api/internal/authz"
	"github.com/sharperly/logistics-api/internal/cache"
	"github.com/sharperly/logistics-api/internal/config"
	"github.com/sharperly/logistics-api/internal/logger"
	"github.com/sharperly/logistics-api/internal/metrics"
	"github.com/sharperly/logistics-api/internal/models"
	"github.com/sharperly/logistics-api/internal/queue"
	"github.com/sharperly/logistics-api/internal/repository"
	"github.com/sharperly/logistics-api/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Registry    *prometheus.Registry

	// Repositories
	UserRepo      repository.UserRepository
	BusinessRepo  repository.BusinessRepository
	VehicleRepo   repository.VehicleRepository
	OrderRepo     repository.OrderRepository
	ShipmentRepo  repository.ShipmentRepository
	DriverRepo    repository.DriverRepository
	DashboardRepo repository.DashboardRepository

	// Metrics
	HTTPMetrics      *metrics.HTTPMetrics
	DashboardMetrics *metrics.DashboardMetrics

	// Services
	AuthzService      *authz.Service
	EmailService      *service.EmailService
	UserAuthService   *service.UserAuthService
	GoogleAuthService *service.GoogleAuthService
	UploadService     *service.UploadService
	UserService       *service.UserService
	BusinessService   *service.BusinessService
	OrderService      *service.OrderService
	ShipmentService   *service.ShipmentService
	DriverService     *service.DriverService
	DashboardService  *service.DashboardService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initMetrics()
	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initMetrics() {
	if !c.Config.Metrics.Enabled {
		return
	}
	c.Registry = prometheus.NewRegistry()
	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.HTTPMetrics = metrics.NewHTTPMetrics(c.Registry)
	c.DashboardMetrics = metrics.NewDashboardMetrics(c.Registry)
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.BusinessRepo = repository.NewBusinessRepository(db)
	c.VehicleRepo = repository.NewVehicleRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.ShipmentRepo = repository.NewShipmentRepository(db)
	c.DriverRepo = repository.NewDriverRepository(db)
	c.DashboardRepo = repository.NewDashboardRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo, c.EmailService, c.QueueClient)
	c.GoogleAuthService = service.NewGoogleAuthService(c.Config.OAuth.Google, c.UserRepo)
	c.UploadService = service.NewUploadService(c.Config)
	c.UserService = service.NewUserService(c.UserRepo, c.BusinessRepo, c.VehicleRepo)
	c.BusinessService = service.NewBusinessService(c.UserRepo, c.BusinessRepo, c.VehicleRepo)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.ShipmentRepo, c.DriverRepo, c.BusinessRepo, c.UserRepo, c.QueueClient)
	c.ShipmentService = service.NewShipmentService(c.ShipmentRepo, c.OrderRepo, c.DriverRepo, c.BusinessRepo, c.QueueClient)
	c.DriverService = service.NewDriverService(c.DriverRepo)
	c.DashboardService = service.NewDashboardService(
		c.DashboardRepo,
		c.OrderRepo,
		c.ShipmentRepo,
		c.UserRepo,
		c.BusinessService,
		c.Config.Dashboard,
		c.DashboardMetrics,
	)
}
