package shared

import (
	"github.com/sharperly/logistics-api/internal/http/response"
	"github.com/sharperly/logistics-api/internal/models"

	"github.com/gin-gonic/gin"
)

// 鉴权中间件写入的上下文键
const (
	ContextUserIDKey = "user_id"
	ContextUserKey   = "user"
	ContextRoleKey   = "user_role"
	// ContextUserLoaderKey 缓存命中时中间件只写入加载函数，首次读取时回表
	ContextUserLoaderKey = "user_loader"
)

// UserLoader 按 ID 加载用户
type UserLoader func(id uint) (*models.User, error)

// GetContextUint 从上下文读取 uint 值，缺失时返回 401。
func GetContextUint(c *gin.Context, key string) (uint, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "Not authorized, no token", nil)
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v <= 0 {
			RespondError(c, response.CodeUnauthorized, "Not authorized, token failed", nil)
			return 0, false
		}
		return uint(v), true
	case float64:
		if v <= 0 {
			RespondError(c, response.CodeUnauthorized, "Not authorized, token failed", nil)
			return 0, false
		}
		return uint(v), true
	default:
		RespondError(c, response.CodeInternal, "Server error while reading request context", nil)
		return 0, false
	}
}

// CurrentUser 读取鉴权中间件加载的用户。
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		loaded, ok := loadLazyUser(c)
		if !ok {
			return nil, false
		}
		value = loaded
	}
	user, ok := value.(*models.User)
	if !ok || user == nil {
		RespondError(c, response.CodeUnauthorized, "No user found with this token", nil)
		return nil, false
	}
	return user, true
}

func loadLazyUser(c *gin.Context) (*models.User, bool) {
	raw, exists := c.Get(ContextUserLoaderKey)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "Not authorized, no token", nil)
		return nil, false
	}
	loader, ok := raw.(UserLoader)
	if !ok || loader == nil {
		RespondError(c, response.CodeUnauthorized, "Not authorized, no token", nil)
		return nil, false
	}
	userID, ok := GetContextUint(c, ContextUserIDKey)
	if !ok {
		return nil, false
	}
	user, err := loader(userID)
	if err != nil || user == nil {
		RespondError(c, response.CodeUnauthorized, "No user found with this token", err)
		return nil, false
	}
	c.Set(ContextUserKey, user)
	return user, true
}
