package public

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	handlershared "github.com/sharperly/logistics-api/internal/http/handlers/shared"
	"github.com/sharperly/logistics-api/internal/http/response"
	"github.com/sharperly/logistics-api/internal/service"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GetDashboardStats 仪表盘汇总计数
func (h *Handler) GetDashboardStats(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	stats, err := h.DashboardService.GetStats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, response.CodeInternal, "Server error while fetching dashboard statistics", err)
		return
	}
	response.Success(c, gin.H{"stats": stats})
}

// GetDispatchSales 按周期分桶的销售与订单趋势
func (h *Handler) GetDispatchSales(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	sales, err := h.DashboardService.GetDispatchSales(c.Request.Context(), userID, c.Query("period"))
	if err != nil {
		respondError(c, response.CodeInternal, "Server error while fetching sales statistics", err)
		return
	}
	response.Success(c, gin.H{
		"salesData":   sales.SalesData,
		"orderTrends": sales.OrderTrends,
		"period":      sales.Period,
	})
}

// GetRecentShipments 最近配送单
func (h *Handler) GetRecentShipments(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page := handlershared.QueryInt(c, "page", 1)
	limit := handlershared.QueryInt(c, "limit", 0)
	shipments, pagination, err := h.DashboardService.GetRecentShipments(userID, page, limit)
	if err != nil {
		respondError(c, response.CodeInternal, "Server error while fetching recent shipments", err)
		return
	}
	response.Success(c, gin.H{
		"shipments":  shipments,
		"pagination": handlershared.PaginationPayload(pagination, "totalShipments"),
	})
}

// GetDispatchHistory 历史订单
func (h *Handler) GetDispatchHistory(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	query, ok := parseHistoryQuery(c)
	if !ok {
		return
	}
	orders, pagination, err := h.DashboardService.GetHistory(userID, query)
	if err != nil {
		respondError(c, response.CodeInternal, "Server error while fetching dispatch history", err)
		return
	}
	response.Success(c, gin.H{
		"orders":     orders,
		"pagination": handlershared.PaginationPayload(pagination, "totalOrders"),
	})
}

// ExportDispatchHistory 导出历史订单 xlsx
func (h *Handler) ExportDispatchHistory(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	query, ok := parseHistoryQuery(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	rows, err := h.DashboardService.ExportHistory(userID, query, &buf)
	if err != nil {
		respondError(c, response.CodeInternal, "Server error while exporting dispatch history", err)
		return
	}
	filename := fmt.Sprintf("dispatch-history-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("X-Total-Rows", strconv.Itoa(rows))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// GetDispatcherDetails 调度员概览
func (h *Handler) GetDispatcherDetails(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	details, err := h.DashboardService.GetDispatcherDetails(userID)
	if err != nil {
		respondWithMappedError(c, err, dispatcherErrorRules, response.CodeInternal, "Server error while fetching dispatcher details")
		return
	}
	response.Success(c, gin.H{"dispatcher": details})
}

// parseHistoryQuery 解析历史查询参数，日期非法时返回 400
func parseHistoryQuery(c *gin.Context) (service.HistoryQuery, bool) {
	query := service.HistoryQuery{
		Page:   handlershared.QueryInt(c, "page", 1),
		Limit:  handlershared.QueryInt(c, "limit", 0),
		Status: c.Query("status"),
		Search: c.Query("search"),
	}
	var fields []response.FieldError
	start, err := service.ParseDateBound(c.Query("startDate"), false)
	if err != nil {
		fields = append(fields, response.FieldError{Field: "startDate", Message: "Start date must be a valid date (YYYY-MM-DD or ISO 8601)"})
	}
	end, err := service.ParseDateBound(c.Query("endDate"), true)
	if err != nil {
		fields = append(fields, response.FieldError{Field: "endDate", Message: "End date must be a valid date (YYYY-MM-DD or ISO 8601)"})
	}
	if len(fields) > 0 {
		handlershared.RespondValidation(c, fields)
		return query, false
	}
	query.StartDate = start
	query.EndDate = end
	return query, true
}
