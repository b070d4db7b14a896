package router

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/sharperly/logistics-api/internal/config"

	"github.com/gin-gonic/gin"
)

var (
	defaultCORSMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	defaultCORSHeaders = []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
		"X-CSRF-Token",
		requestIDHeader,
	}
)

// corsPolicy 启动时展开的跨域配置
type corsPolicy struct {
	origins     []string
	methods     string
	headers     string
	maxAge      string
	credentials bool
}

func newCORSPolicy(cfg config.CORSConfig) corsPolicy {
	policy := corsPolicy{
		origins:     cfg.AllowedOrigins,
		methods:     strings.Join(orDefault(cfg.AllowedMethods, defaultCORSMethods), ", "),
		headers:     strings.Join(orDefault(cfg.AllowedHeaders, defaultCORSHeaders), ", "),
		credentials: cfg.AllowCredentials,
	}
	if len(policy.origins) == 0 {
		policy.origins = []string{"*"}
	}
	if cfg.MaxAge > 0 {
		policy.maxAge = strconv.Itoa(cfg.MaxAge)
	}
	return policy
}

func orDefault(values, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}

// CORSMiddleware 跨域中间件，预检请求直接以 204 结束
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	policy := newCORSPolicy(cfg)
	return func(c *gin.Context) {
		header := c.Writer.Header()
		if origin := resolveAllowedOrigin(c.GetHeader("Origin"), policy.origins, policy.credentials); origin != "" {
			header.Set("Access-Control-Allow-Origin", origin)
			if origin != "*" {
				header.Add("Vary", "Origin")
			}
		}
		if policy.credentials {
			header.Set("Access-Control-Allow-Credentials", "true")
		}
		header.Set("Access-Control-Allow-Headers", policy.headers)
		header.Set("Access-Control-Allow-Methods", policy.methods)
		header.Set("Access-Control-Expose-Headers", requestIDHeader)
		if policy.maxAge != "" {
			header.Set("Access-Control-Max-Age", policy.maxAge)
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// resolveAllowedOrigin 通配且需要凭证时回显请求来源，否则只放行名单内的来源
func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	wildcard := false
	matched := ""
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			wildcard = true
			continue
		}
		if origin != "" && strings.EqualFold(allowed, origin) {
			matched = origin
		}
	}
	switch {
	case wildcard && allowCredentials && origin != "":
		return origin
	case wildcard:
		return "*"
	default:
		return matched
	}
}
