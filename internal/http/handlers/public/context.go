package public

import (
	"strconv"
	"strings"

	handlershared "github.com/sharperly/logistics-api/internal/http/handlers/shared"
	"github.com/sharperly/logistics-api/internal/http/response"
	"github.com/sharperly/logistics-api/internal/models"

	"github.com/gin-gonic/gin"
)

func getUserID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUint(c, handlershared.ContextUserIDKey)
}

func getCurrentUser(c *gin.Context) (*models.User, bool) {
	return handlershared.CurrentUser(c)
}

// parseIDParam 解析路径中的数字 ID，非法时按资源不存在处理
func parseIDParam(c *gin.Context, notFoundMsg string) (uint, bool) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeNotFound, notFoundMsg, nil)
		return 0, false
	}
	return uint(id), true
}
