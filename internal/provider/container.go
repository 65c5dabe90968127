package provider

import (
	"github.com/hostara-cloud/internal/authz"
	"github.com/hostara-cloud/internal/cache"
	"github.com/hostara-cloud/internal/config"
	"github.com/hostara-cloud/internal/logger"
	"github.com/hostara-cloud/internal/models"
	"github.com/hostara-cloud/internal/queue"
	"github.com/hostara-cloud/internal/repository"
	"github.com/hostara-cloud/internal/service"
)

// Container 依赖容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo         repository.AdminRepository
	UserRepo          repository.UserRepository
	PlanRepo          repository.PlanRepository
	OrderRepo         repository.OrderRepository
	InvoiceRepo       repository.InvoiceRepository
	ServerRepo        repository.ServerRepository
	TicketRepo        repository.TicketRepository
	ReferralRepo      repository.ReferralRepository
	SettingRepo       repository.SettingRepository
	UserLoginLogRepo  repository.UserLoginLogRepository
	AuthzAuditLogRepo repository.AuthzAuditLogRepository
	DashboardRepo     repository.DashboardRepository

	// Services
	AuthzService        *authz.Service
	AuthService         *service.AuthService
	UserAuthService     *service.UserAuthService
	CaptchaService      *service.CaptchaService
	SettingService      *service.SettingService
	PlanService         *service.PlanService
	PricingService      *service.PricingService
	OrderService        *service.OrderService
	ServerService       *service.ServerService
	TicketService       *service.TicketService
	ReferralService     *service.ReferralService
	UserLoginLogService *service.UserLoginLogService
	AuthzAuditService   *service.AuthzAuditService
	DashboardService    *service.DashboardService
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

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.PlanRepo = repository.NewPlanRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.InvoiceRepo = repository.NewInvoiceRepository(db)
	c.ServerRepo = repository.NewServerRepository(db)
	c.TicketRepo = repository.NewTicketRepository(db)
	c.ReferralRepo = repository.NewReferralRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
	c.UserLoginLogRepo = repository.NewUserLoginLogRepository(db)
	c.AuthzAuditLogRepo = repository.NewAuthzAuditLogRepository(db)
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

	c.SettingService = service.NewSettingService(c.SettingRepo)
	captchaSetting, err := c.SettingService.GetCaptchaSetting(c.Config.Captcha)
	if err != nil {
		logger.Warnw("provider_load_captcha_setting_failed", "error", err)
	} else {
		c.Config.Captcha = service.CaptchaSettingToConfig(captchaSetting)
	}

	c.CaptchaService = service.NewCaptchaService(c.SettingService, c.Config.Captcha)
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo)
	c.PlanService = service.NewPlanService(c.PlanRepo)
	c.PricingService = service.NewPricingService()
	c.OrderService = service.NewOrderService(c.OrderRepo, c.InvoiceRepo, c.PlanRepo, c.ServerRepo, c.QueueClient, c.SettingService, c.Config.Order.PaymentExpireMinutes)
	c.ServerService = service.NewServerService(c.ServerRepo, c.OrderRepo, c.OrderService, c.QueueClient)
	c.TicketService = service.NewTicketService(c.TicketRepo, c.ServerRepo)
	c.ReferralService = service.NewReferralService(c.ReferralRepo, c.OrderRepo, c.UserRepo, c.SettingService)
	c.UserLoginLogService = service.NewUserLoginLogService(c.UserLoginLogRepo)
	c.AuthzAuditService = service.NewAuthzAuditService(c.AuthzAuditLogRepo)
	c.DashboardService = service.NewDashboardService(c.DashboardRepo, c.SettingService)
}
