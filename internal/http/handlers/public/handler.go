package public

import "github.com/sharperly/logistics-api/internal/provider"

// Handler 调度端接口处理器入口
// 说明：覆盖认证、用户资料、企业入驻、仪表盘与订单配送接口。
type Handler struct {
	*provider.Container
}

// New 创建处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
