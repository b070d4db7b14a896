package public

import (
	handlershared "github.com/sharperly/logistics-api/internal/http/handlers/shared"
	"github.com/sharperly/logistics-api/internal/http/response"
	"github.com/sharperly/logistics-api/internal/service"

	"github.com/gin-gonic/gin"
)

// ShipmentStatusRequest 配送状态变更请求
type ShipmentStatusRequest struct {
	DispatchStatus string `json:"dispatchStatus" binding:"required" msg:"Dispatch status is required"`
	Location       string `json:"location" binding:"omitempty,max=500"`
	Notes          string `json:"notes" binding:"omitempty,max=1000"`
}

// ShipmentRatingRequest 配送评价请求
type ShipmentRatingRequest struct {
	CustomerRating int    `json:"customerRating" binding:"required,min=1,max=5" msg:"Rating must be between 1 and 5"`
	CustomerReview string `json:"customerReview" binding:"omitempty,max=1000" msg:"Review cannot exceed 1000 characters"`
}

// ListShipments 配送单列表
func (h *Handler) ListShipments(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.NormalizePagination(
		handlershared.QueryInt(c, "page", 1),
		handlershared.QueryInt(c, "limit", 0),
	)
	shipments, total, err := h.ShipmentService.List(user, service.ShipmentListInput{
		Page:           page,
		PageSize:       pageSize,
		DispatchStatus: c.DefaultQuery("dispatchStatus", c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "Server error while fetching shipments", err)
		return
	}
	pagination := service.NewPagination(page, pageSize, total, len(shipments))
	response.Success(c, gin.H{
		"shipments":  shipments,
		"pagination": handlershared.PaginationPayload(pagination, "totalShipments"),
	})
}

// GetShipment 配送单详情
func (h *Handler) GetShipment(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}
	shipmentID, ok := parseIDParam(c, "Shipment not found")
	if !ok {
		return
	}
	shipment, err := h.ShipmentService.Get(user, shipmentID)
	if err != nil {
		respondWithMappedError(c, err, shipmentErrorRules, response.CodeInternal, "Server error while fetching shipment")
		return
	}
	response.Success(c, gin.H{"shipment": shipment})
}

// UpdateShipmentStatus 推进配送状态并追加轨迹
func (h *Handler) UpdateShipmentStatus(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}
	shipmentID, ok := parseIDParam(c, "Shipment not found")
	if !ok {
		return
	}
	var req ShipmentStatusRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}
	shipment, err := h.ShipmentService.UpdateStatus(user, shipmentID, service.ShipmentStatusInput{
		DispatchStatus: req.DispatchStatus,
		Location:       req.Location,
		Notes:          req.Notes,
	})
	if err != nil {
		respondWithMappedError(c, err, shipmentErrorRules, response.CodeInternal, "Server error while updating shipment status")
		return
	}
	response.Success(c, gin.H{
		"message":  "Shipment status updated successfully",
		"shipment": shipment,
	})
}

// RateShipment 客户评价
func (h *Handler) RateShipment(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}
	shipmentID, ok := parseIDParam(c, "Shipment not found")
	if !ok {
		return
	}
	var req ShipmentRatingRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}
	shipment, err := h.ShipmentService.Rate(user, shipmentID, service.ShipmentRatingInput{
		CustomerRating: req.CustomerRating,
		CustomerReview: req.CustomerReview,
	})
	if err != nil {
		respondWithMappedError(c, err, shipmentErrorRules, response.CodeInternal, "Server error while rating shipment")
		return
	}
	response.Success(c, gin.H{
		"message":  "Shipment rated successfully",
		"shipment": shipment,
	})
}
