package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hostara-cloud/internal/authz"
	"github.com/hostara-cloud/internal/cache"
	"github.com/hostara-cloud/internal/config"
	adminhandlers "github.com/hostara-cloud/internal/http/handlers/admin"
	publichandlers "github.com/hostara-cloud/internal/http/handlers/public"
	"github.com/hostara-cloud/internal/http/response"
	"github.com/hostara-cloud/internal/logger"
	"github.com/hostara-cloud/internal/provider"

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
		redisPrefix = "hostara"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		MessageKey:    "error.login_too_many",
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		MessageKey:    "error.login_too_many",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/config", publicHandler.GetConfig)
			public.GET("/catalog", publicHandler.GetCatalog)
			public.GET("/plans", publicHandler.ListPlans)
			public.POST("/quote", publicHandler.GetQuote)
			public.GET("/quote/compare", publicHandler.CompareCycles)
			public.GET("/captcha/image", publicHandler.GetImageCaptcha)
		}

		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.UserRegister)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.UserLogin)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			user.GET("/me", publicHandler.GetUserProfile)
			user.PUT("/me/profile", publicHandler.UpdateUserProfile)
			user.PUT("/me/password", publicHandler.ChangeUserPassword)
			user.GET("/me/login-logs", publicHandler.GetMyLoginLogs)

			user.POST("/orders", publicHandler.CreateOrder)
			user.GET("/orders", publicHandler.ListOrders)
			user.GET("/orders/:id", publicHandler.GetOrder)
			user.POST("/orders/:id/cancel", publicHandler.CancelOrder)
			user.GET("/invoices", publicHandler.ListInvoices)
			user.GET("/invoices/:id", publicHandler.GetInvoice)

			user.GET("/servers", publicHandler.ListServers)
			user.GET("/servers/:id", publicHandler.GetServer)
			user.PUT("/servers/:id/name", publicHandler.RenameServer)
			user.POST("/servers/:id/start", publicHandler.StartServer)
			user.POST("/servers/:id/stop", publicHandler.StopServer)
			user.POST("/servers/:id/renew", publicHandler.RenewServer)

			user.POST("/tickets", publicHandler.CreateTicket)
			user.GET("/tickets", publicHandler.ListTickets)
			user.GET("/tickets/:id", publicHandler.GetTicket)
			user.POST("/tickets/:id/reply", publicHandler.ReplyTicket)
			user.POST("/tickets/:id/close", publicHandler.CloseTicket)

			user.GET("/referral/stats", publicHandler.GetReferralStats)
			user.GET("/referral/earnings", publicHandler.ListReferralEarnings)
			user.POST("/referral/payouts", publicHandler.RequestPayout)
			user.GET("/referral/payouts", publicHandler.ListPayouts)
			user.GET("/referral/payouts/:id", publicHandler.GetPayout)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.AdminLogin)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
			{
				// 仪表盘
				authorized.GET("/dashboard/overview", adminHandler.GetDashboardOverview)
				authorized.GET("/dashboard/trends", adminHandler.GetDashboardTrends)
				authorized.GET("/dashboard/rankings", adminHandler.GetDashboardRankings)

				// 套餐管理
				authorized.GET("/plans", adminHandler.AdminListPlans)
				authorized.GET("/plans/:id", adminHandler.AdminGetPlan)
				authorized.POST("/plans", adminHandler.AdminCreatePlan)
				authorized.PUT("/plans/:id", adminHandler.AdminUpdatePlan)
				authorized.DELETE("/plans/:id", adminHandler.AdminDeletePlan)
				authorized.POST("/plans/sync", adminHandler.AdminSyncPlans)

				// 订单与账单管理
				authorized.GET("/orders", adminHandler.AdminListOrders)
				authorized.GET("/orders/:id", adminHandler.AdminGetOrder)
				authorized.POST("/orders/:id/mark-paid", adminHandler.AdminMarkOrderPaid)
				authorized.PATCH("/orders/:id/status", adminHandler.AdminUpdateOrderStatus)
				authorized.GET("/invoices", adminHandler.AdminListInvoices)
				authorized.GET("/invoices/:id", adminHandler.AdminGetInvoice)

				// 实例管理
				authorized.GET("/servers", adminHandler.AdminListServers)
				authorized.GET("/servers/:id", adminHandler.AdminGetServer)
				authorized.POST("/servers/:id/suspend", adminHandler.AdminSuspendServer)
				authorized.POST("/servers/:id/unsuspend", adminHandler.AdminUnsuspendServer)

				// 工单管理
				authorized.GET("/tickets", adminHandler.AdminListTickets)
				authorized.GET("/tickets/:id", adminHandler.AdminGetTicket)
				authorized.POST("/tickets/:id/reply", adminHandler.AdminReplyTicket)
				authorized.POST("/tickets/:id/close", adminHandler.AdminCloseTicket)

				// 推荐收益与提现管理
				authorized.GET("/referral-earnings", adminHandler.AdminListReferralEarnings)
				authorized.GET("/payouts", adminHandler.AdminListPayouts)
				authorized.GET("/payouts/:id", adminHandler.AdminGetPayout)
				authorized.POST("/payouts/:id/review", adminHandler.AdminReviewPayout)

				// 设置管理
				authorized.GET("/settings", adminHandler.GetSettings)
				authorized.PUT("/settings", adminHandler.UpdateSettings)
				authorized.GET("/settings/captcha", adminHandler.GetCaptchaSettings)
				authorized.PUT("/settings/captcha", adminHandler.UpdateCaptchaSettings)
				authorized.PUT("/password", adminHandler.UpdateAdminPassword) // 修改密码

				// 权限管理
				authorized.GET("/authz/me", adminHandler.GetAuthzMe)
				authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
				authorized.GET("/authz/admins", adminHandler.ListAuthzAdmins)
				authorized.GET("/authz/audit-logs", adminHandler.ListAuthzAuditLogs)
				authorized.POST("/authz/admins", adminHandler.CreateAuthzAdmin)
				authorized.PUT("/authz/admins/:id", adminHandler.UpdateAuthzAdmin)
				authorized.DELETE("/authz/admins/:id", adminHandler.DeleteAuthzAdmin)
				authorized.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})
				authorized.POST("/authz/roles", adminHandler.CreateAuthzRole)
				authorized.DELETE("/authz/roles/:role", adminHandler.DeleteAuthzRole)
				authorized.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
				authorized.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
				authorized.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
				authorized.GET("/authz/admins/:id/roles", adminHandler.GetAuthzAdminRoles)
				authorized.PUT("/authz/admins/:id/roles", adminHandler.SetAuthzAdminRoles)

				// 用户管理
				authorized.GET("/users", adminHandler.GetAdminUsers)
				authorized.GET("/user-login-logs", adminHandler.GetUserLoginLogs)
				authorized.PUT("/users/batch-status", adminHandler.BatchUpdateUserStatus)
				authorized.GET("/users/:id", adminHandler.GetAdminUser)
				authorized.PUT("/users/:id", adminHandler.UpdateAdminUser)
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
		if item.Path == "/api/v1/admin/login" {
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
	if segments[1] == "authz" {
		return "authz"
	}
	return segments[1]
}
