package shared

import (
	"strconv"
	"strings"

	"github.com/sharperly/logistics-api/internal/service"

	"github.com/gin-gonic/gin"
)

// QueryInt 读取整数查询参数，非数字时回落到默认值。
func QueryInt(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// QueryBool 读取布尔查询参数，未提供或无法解析时返回 nil。
func QueryBool(c *gin.Context, key string) *bool {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &value
}

// NormalizePagination 归一化分页参数。
func NormalizePagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

// PaginationPayload 输出分页信息，总数字段按资源命名。
func PaginationPayload(p service.Pagination, totalKey string) gin.H {
	if totalKey == "" {
		totalKey = "total"
	}
	return gin.H{
		"currentPage": p.CurrentPage,
		"totalPages":  p.TotalPages,
		totalKey:      p.Total,
		"hasNext":     p.HasNext,
		"hasPrev":     p.HasPrev,
		"limit":       p.Limit,
	}
}
