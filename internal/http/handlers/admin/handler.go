package admin

import (
	handlershared "github.com/sharperly/logistics-api/internal/http/handlers/shared"
	"github.com/sharperly/logistics-api/internal/provider"

	"github.com/gin-gonic/gin"
)

// Handler 后台管理接口处理器，路由仅对具备相应 Casbin 授权的角色开放
type Handler struct {
	*provider.Container
}

// New 创建后台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

// audit 记录管理操作，自动带上操作人与请求 ID
func audit(c *gin.Context, event string, kv ...interface{}) {
	operatorID, _ := getOperatorID(c)
	handlershared.RequestLog(c).With("operator_user_id", operatorID).Infow(event, kv...)
}
