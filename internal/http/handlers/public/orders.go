package public

import (
	"time"

	handlershared "github.com/sharperly/logistics-api/internal/http/handlers/shared"
	"github.com/sharperly/logistics-api/internal/http/response"
	"github.com/sharperly/logistics-api/internal/models"
	"github.com/sharperly/logistics-api/internal/service"

	"github.com/gin-gonic/gin"
)

// LocationRequest 取送货地点
type LocationRequest struct {
	Address       string   `json:"address" binding:"required,max=500" msg:"Address is required"`
	Lat           *float64 `json:"lat" binding:"omitempty,min=-90,max=90" msg:"Latitude must be between -90 and 90"`
	Lng           *float64 `json:"lng" binding:"omitempty,min=-180,max=180" msg:"Longitude must be between -180 and 180"`
	ContactPerson string   `json:"contactPerson" binding:"omitempty,max=100"`
	ContactPhone  string   `json:"contactPhone" binding:"omitempty,phone" msg:"Please enter a valid contact phone number"`
}

func (r LocationRequest) toModel() models.Location {
	return models.Location{
		Address:       r.Address,
		Lat:           r.Lat,
		Lng:           r.Lng,
		ContactPerson: r.ContactPerson,
		ContactPhone:  r.ContactPhone,
	}
}

// CreateOrderRequest 创建订单请求
type CreateOrderRequest struct {
	ItemsCount            int             `json:"itemsCount" binding:"required,min=1" msg:"Items count must be at least 1"`
	Description           string          `json:"description" binding:"omitempty,max=1000"`
	Quantity              int             `json:"quantity" binding:"required,min=1" msg:"Quantity must be at least 1"`
	PickupLocation        LocationRequest `json:"pickupLocation"`
	DeliveryLocation      LocationRequest `json:"deliveryLocation"`
	RequestedDeliveryDate *time.Time      `json:"requestedDeliveryDate"`
	VehicleType           string          `json:"vehicleType" binding:"required" msg:"Vehicle type is required"`
	EstimatedCost         float64         `json:"estimatedCost" binding:"min=0" msg:"Estimated cost must be a non-negative number"`
	Notes                 string          `json:"notes" binding:"omitempty,max=1000"`
}

// OrderStatusRequest 订单状态变更请求
type OrderStatusRequest struct {
	Status     string   `json:"status" binding:"required" msg:"Status is required"`
	Notes      string   `json:"notes" binding:"omitempty,max=1000"`
	ActualCost *float64 `json:"actualCost" binding:"omitempty,min=0" msg:"Actual cost must be a non-negative number"`
}

// AssignOrderRequest 分配司机请求
type AssignOrderRequest struct {
	DriverID uint `json:"driverId" binding:"required" msg:"Driver is required"`
}

// CreateOrder 创建订单
func (h *Handler) CreateOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req CreateOrderRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}
	order, err := h.OrderService.Create(userID, service.CreateOrderInput{
		ItemsCount:            req.ItemsCount,
		Description:           req.Description,
		Quantity:              req.Quantity,
		PickupLocation:        req.PickupLocation.toModel(),
		DeliveryLocation:      req.DeliveryLocation.toModel(),
		RequestedDeliveryDate: req.RequestedDeliveryDate,
		VehicleType:           req.VehicleType,
		EstimatedCost:         req.EstimatedCost,
		Notes:                 req.Notes,
	})
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "Server error while creating order")
		return
	}
	response.Created(c, gin.H{
		"message": "Order created successfully",
		"order":   order,
	})
}

// ListOrders 订单列表，过滤条件与历史查询一致
func (h *Handler) ListOrders(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	query, ok := parseHistoryQuery(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.NormalizePagination(query.Page, query.Limit)
	orders, total, err := h.OrderService.List(userID, service.OrderListInput{
		Page:      page,
		PageSize:  pageSize,
		Status:    query.Status,
		StartDate: query.StartDate,
		EndDate:   query.EndDate,
		Search:    query.Search,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "Server error while fetching orders", err)
		return
	}
	pagination := service.NewPagination(page, pageSize, total, len(orders))
	response.Success(c, gin.H{
		"orders":     orders,
		"pagination": handlershared.PaginationPayload(pagination, "totalOrders"),
	})
}

// GetOrder 订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "Order not found")
	if !ok {
		return
	}
	order, err := h.OrderService.Get(userID, orderID)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "Server error while fetching order")
		return
	}
	response.Success(c, gin.H{"order": order})
}

// UpdateOrderStatus 变更订单状态
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "Order not found")
	if !ok {
		return
	}
	var req OrderStatusRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}
	order, err := h.OrderService.UpdateStatus(userID, orderID, service.OrderStatusInput{
		Status:     req.Status,
		Notes:      req.Notes,
		ActualCost: req.ActualCost,
	})
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "Server error while updating order status")
		return
	}
	response.Success(c, gin.H{
		"message": "Order status updated successfully",
		"order":   order,
	})
}

// AssignOrder 分配司机并生成配送单
func (h *Handler) AssignOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "Order not found")
	if !ok {
		return
	}
	var req AssignOrderRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}
	order, shipment, err := h.OrderService.Assign(userID, orderID, req.DriverID)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "Server error while assigning driver")
		return
	}
	response.Success(c, gin.H{
		"message":  "Driver assigned successfully",
		"order":    order,
		"shipment": shipment,
	})
}
