package public

import (
	"context"
	"time"

	"github.com/sharperly/logistics-api/internal/cache"
	"github.com/sharperly/logistics-api/internal/http/response"

	"github.com/gin-gonic/gin"
)

const healthPingTimeout = time.Second

// Health 健康检查
func (h *Handler) Health(c *gin.Context) {
	response.Success(c, gin.H{
		"message":     "SHARPERLY Logistics API is running!",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": h.Config.App.Environment,
		"version":     h.Config.App.Version,
		"cache":       cacheStatus(c.Request.Context()),
	})
}

func cacheStatus(parent context.Context) string {
	if !cache.Enabled() {
		return "disabled"
	}
	ctx, cancel := context.WithTimeout(parent, healthPingTimeout)
	defer cancel()
	if err := cache.Ping(ctx); err != nil {
		return "unavailable"
	}
	return "ok"
}
