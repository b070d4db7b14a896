package admin

import (
	"strconv"
	"strings"

	handlershared "github.com/sharperly/logistics-api/internal/http/handlers/shared"
	"github.com/sharperly/logistics-api/internal/http/response"

	"github.com/gin-gonic/gin"
)

func getOperatorID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUint(c, handlershared.ContextUserIDKey)
}

// parseUserIDParam 非法 ID 与不存在的用户同样按 404 处理
func parseUserIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeNotFound, "User not found", nil)
		return 0, false
	}
	return uint(id), true
}
