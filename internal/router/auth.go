package router

import (
	"fmt"
	"strings"

	"github.com/sharperly/logistics-api/internal/authz"
	"github.com/sharperly/logistics-api/internal/cache"
	"github.com/sharperly/logistics-api/internal/http/handlers/shared"
	"github.com/sharperly/logistics-api/internal/http/response"
	"github.com/sharperly/logistics-api/internal/logger"
	"github.com/sharperly/logistics-api/internal/repository"
	"github.com/sharperly/logistics-api/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	msgNoToken     = "Not authorized, no token"
	msgTokenFailed = "Not authorized, token failed"
	msgNoUser      = "No user found with this token"

	// 登出后写入的占位 Cookie 值
	loggedOutCookieValue = "none"
)

func abortUnauthorized(c *gin.Context, message string) {
	response.Unauthorized(c, message)
	c.Abort()
}

// UserJWTAuthMiddleware 用户 JWT 鉴权中间件
// 令牌来源依次为 Authorization Bearer 与登录 Cookie；鉴权状态命中缓存时用户记录延迟加载
func UserJWTAuthMiddleware(authService *service.UserAuthService, userRepo repository.UserRepository, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authService == nil || userRepo == nil {
			logger.Errorw("user_auth_middleware_unavailable")
			abortUnauthorized(c, msgTokenFailed)
			return
		}
		token := extractToken(c, cookieName)
		if token == "" {
			abortUnauthorized(c, msgNoToken)
			return
		}
		claims, err := authService.ParseUserJWT(token)
		if err != nil || claims == nil {
			abortUnauthorized(c, msgTokenFailed)
			return
		}

		ctx := c.Request.Context()
		if state, hit, cacheErr := cache.GetUserAuthState(ctx, claims.UserID); cacheErr == nil && hit && state != nil {
			if reason := state.RejectReason(claims.TokenVersion); reason != "" {
				abortUnauthorized(c, reason)
				return
			}
			c.Set(shared.ContextUserIDKey, claims.UserID)
			c.Set(shared.ContextRoleKey, state.Role)
			c.Set(shared.ContextUserLoaderKey, shared.UserLoader(userRepo.GetByID))
			c.Next()
			return
		}

		user, err := userRepo.GetByID(claims.UserID)
		if err != nil || user == nil {
			abortUnauthorized(c, msgNoUser)
			return
		}
		state := cache.BuildUserAuthState(user)
		if reason := state.RejectReason(claims.TokenVersion); reason != "" {
			abortUnauthorized(c, reason)
			return
		}
		if err := cache.SetUserAuthState(ctx, state); err != nil {
			logger.Warnw("user_auth_state_cache_failed", "user_id", user.ID, "error", err)
		}
		c.Set(shared.ContextUserKey, user)
		c.Set(shared.ContextUserIDKey, user.ID)
		c.Set(shared.ContextRoleKey, user.Role)
		c.Next()
	}
}

func extractToken(c *gin.Context, cookieName string) string {
	if scheme, token, ok := strings.Cut(strings.TrimSpace(c.GetHeader("Authorization")), " "); ok && strings.EqualFold(scheme, "Bearer") {
		if token = strings.TrimSpace(token); token != "" {
			return token
		}
	}
	if cookieName == "" {
		return ""
	}
	value, err := c.Cookie(cookieName)
	if err != nil {
		return ""
	}
	if value = strings.TrimSpace(value); value == loggedOutCookieValue {
		return ""
	}
	return value
}

// RoleMiddleware 基于 Casbin 的角色鉴权中间件，需挂在 UserJWTAuthMiddleware 之后
func RoleMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authzService == nil {
			logger.Errorw("role_middleware_service_unavailable")
			response.Forbidden(c, "Access denied")
			c.Abort()
			return
		}
		role := strings.TrimSpace(c.GetString(shared.ContextRoleKey))
		if role == "" {
			abortUnauthorized(c, msgNoToken)
			return
		}
		resource := routeOf(c)
		if resource == unmatchedRoute {
			resource = c.Request.URL.Path
		}

		allowed, err := authzService.EnforceRole(role, resource, c.Request.Method)
		if err != nil {
			logger.Errorw("role_enforce_failed", "role", role, "resource", resource, "method", c.Request.Method, "error", err)
			response.Error(c, response.CodeInternal, "Server error while checking permissions")
			c.Abort()
			return
		}
		if !allowed {
			logger.Warnw("role_permission_denied",
				"role", role,
				"user_id", c.GetUint(shared.ContextUserIDKey),
				"method", c.Request.Method,
				"resource", authz.NormalizeObject(resource),
			)
			response.Forbidden(c, fmt.Sprintf("User role %s is not authorized to access this route", role))
			c.Abort()
			return
		}
		c.Next()
	}
}
