package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sharperly/logistics-api/internal/authz"
	"github.com/sharperly/logistics-api/internal/cache"
	"github.com/sharperly/logistics-api/internal/config"
	adminhandlers "github.com/sharperly/logistics-api/internal/http/handlers/admin"
	publichandlers "github.com/sharperly/logistics-api/internal/http/handlers/public"
	"github.com/sharperly/logistics-api/internal/http/response"
	"github.com/sharperly/logistics-api/internal/logger"
	"github.com/sharperly/logistics-api/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	apiPrefix          = "/api"
	defaultRedisPrefix = "sharperly"
	loginLimitMessage  = "Too many login attempts, please try again later."
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = defaultRedisPrefix
	}
	redisClient := cache.Client()
	globalRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:global", redisPrefix),
		WindowSeconds: cfg.Security.GlobalRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.GlobalRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.GlobalRateLimit.BlockSeconds,
		Message:       defaultRateLimitMessage,
	}
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		Message:       loginLimitMessage,
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(MetricsMiddleware(c.HTTPMetrics))
	r.Use(CORSMiddleware(cfg.CORS))

	// 上传文件静态目录
	uploadPath := strings.TrimRight(strings.TrimSpace(cfg.Upload.PublicPath), "/")
	if uploadPath == "" {
		uploadPath = "/uploads"
	}
	uploadDir := strings.TrimSpace(cfg.Upload.Dir)
	if uploadDir == "" {
		uploadDir = "./uploads"
	}
	r.Static(uploadPath, uploadDir)

	if cfg.Metrics.Enabled && c.Registry != nil {
		metricsPath := strings.TrimSpace(cfg.Metrics.Path)
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		r.GET(metricsPath, gin.WrapH(promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{})))
	}

	authMiddleware := UserJWTAuthMiddleware(c.UserAuthService, c.UserRepo, cfg.JWT.CookieName)
	roleMiddleware := RoleMiddleware(c.AuthzService)

	api := r.Group(apiPrefix)
	api.Use(RateLimitMiddleware(redisClient, globalRule, KeyByIP))
	{
		api.GET("/health", publicHandler.Health)

		// 认证接口
		auth := api.Group("/auth")
		{
			auth.POST("/register", publicHandler.Register)
			auth.POST("/verify-email", publicHandler.VerifyEmail)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)
			auth.POST("/logout", publicHandler.Logout)
			auth.POST("/forgot-password", publicHandler.ForgotPassword)
			auth.POST("/verify-reset-code", publicHandler.VerifyResetCode)
			auth.POST("/reset-password", publicHandler.ResetPassword)
			auth.GET("/google", publicHandler.GoogleLogin)
			auth.GET("/google/callback", publicHandler.GoogleCallback)

			authed := auth.Group("", authMiddleware, roleMiddleware)
			authed.POST("/resend-verification", publicHandler.ResendVerification)
			authed.GET("/me", publicHandler.GetMe)
			authed.PUT("/update-password", publicHandler.UpdatePassword)
		}

		// 需要登录的业务接口
		secured := api.Group("", authMiddleware, roleMiddleware)
		{
			users := secured.Group("/users")
			users.GET("/profile", publicHandler.GetProfile)
			users.PUT("/profile", publicHandler.UpdateProfile)
			users.PUT("/profile-image", publicHandler.UpdateProfileImage)
			users.PUT("/skip-corporate-info", publicHandler.SkipCorporateInfo)
			users.DELETE("/account", publicHandler.DeleteAccount)
			users.GET("", adminHandler.GetAdminUsers)
			users.GET("/:id", adminHandler.GetAdminUser)
			users.PUT("/:id/status", adminHandler.UpdateAdminUserStatus)

			business := secured.Group("/business")
			business.POST("/kyc", publicHandler.SubmitKYC)
			business.POST("/kyc/base64", publicHandler.SubmitKYC)
			business.GET("/kyc", publicHandler.GetKYC)
			business.PUT("/kyc", publicHandler.UpdateKYC)
			business.POST("/vehicles", publicHandler.RegisterVehicles)
			business.GET("/vehicles", publicHandler.GetVehicles)
			business.PUT("/vehicles", publicHandler.UpdateVehicles)
			business.PUT("/complete-onboarding", publicHandler.CompleteOnboarding)

			dashboard := secured.Group("/dashboard")
			dashboard.GET("/stats", publicHandler.GetDashboardStats)
			dashboard.GET("/dispatch-sales", publicHandler.GetDispatchSales)
			dashboard.GET("/recent-shipments", publicHandler.GetRecentShipments)
			dashboard.GET("/history", publicHandler.GetDispatchHistory)
			dashboard.GET("/history/export", publicHandler.ExportDispatchHistory)
			dashboard.GET("/dispatcher-details", publicHandler.GetDispatcherDetails)

			orders := secured.Group("/orders")
			orders.POST("", publicHandler.CreateOrder)
			orders.GET("", publicHandler.ListOrders)
			orders.GET("/:id", publicHandler.GetOrder)
			orders.PATCH("/:id/status", publicHandler.UpdateOrderStatus)
			orders.POST("/:id/assign", publicHandler.AssignOrder)

			shipments := secured.Group("/shipments")
			shipments.GET("", publicHandler.ListShipments)
			shipments.GET("/:id", publicHandler.GetShipment)
			shipments.PATCH("/:id/status", publicHandler.UpdateShipmentStatus)
			shipments.POST("/:id/rating", publicHandler.RateShipment)

			drivers := secured.Group("/drivers")
			drivers.GET("", publicHandler.ListDrivers)
			drivers.POST("", publicHandler.CreateDriver)
			drivers.GET("/:id", publicHandler.GetDriver)
			drivers.PATCH("/:id/availability", publicHandler.UpdateDriverAvailability)

			// 权限管理
			authzGroup := secured.Group("/admin/authz")
			authzGroup.GET("/roles", adminHandler.ListAuthzRoles)
			authzGroup.GET("/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
			authzGroup.POST("/policies", adminHandler.GrantAuthzPolicy)
			authzGroup.DELETE("/policies", adminHandler.RevokeAuthzPolicy)
			authzGroup.DELETE("/roles/:role", adminHandler.DeleteAuthzRole)
			authzGroup.GET("/permissions/catalog", func(ctx *gin.Context) {
				response.Success(ctx, gin.H{"permissions": buildPermissionCatalog(r)})
			})
		}
	}

	r.NoRoute(func(ctx *gin.Context) {
		response.NotFound(ctx, "API endpoint not found")
	})

	return r
}

type permissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

// 可授权的路由前缀，公开接口不进入目录
var catalogExcludedPrefixes = []string{
	apiPrefix + "/health",
	apiPrefix + "/auth/register",
	apiPrefix + "/auth/verify-email",
	apiPrefix + "/auth/login",
	apiPrefix + "/auth/logout",
	apiPrefix + "/auth/forgot-password",
	apiPrefix + "/auth/verify-reset-code",
	apiPrefix + "/auth/reset-password",
	apiPrefix + "/auth/google",
}

func buildPermissionCatalog(engine *gin.Engine) []permissionCatalogItem {
	if engine == nil {
		return []permissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]permissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, apiPrefix+"/") || isCatalogExcluded(item.Path) {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, permissionCatalogItem{
			Module:     derivePermissionModule(object),
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

func isCatalogExcluded(path string) bool {
	for _, prefix := range catalogExcludedPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

func derivePermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) > 1 && segments[0] == "admin" {
		return segments[1]
	}
	return segments[0]
}
