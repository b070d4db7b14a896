package service

import (
	"context"
	"strings"
	"time"

	"github.com/sharperly/logistics-api/internal/cache"
	"github.com/sharperly/logistics-api/internal/constants"
	"github.com/sharperly/logistics-api/internal/logger"
	"github.com/sharperly/logistics-api/internal/models"
	"github.com/sharperly/logistics-api/internal/queue"
	"github.com/sharperly/logistics-api/internal/repository"

	"gorm.io/gorm"
)

// OrderService 配送订单服务
type OrderService struct {
	orderRepo    repository.OrderRepository
	shipmentRepo repository.ShipmentRepository
	driverRepo   repository.DriverRepository
	businessRepo repository.BusinessRepository
	userRepo     repository.UserRepository
	queueClient  *queue.Client
}

// NewOrderService 创建订单服务
func NewOrderService(
	orderRepo repository.OrderRepository,
	shipmentRepo repository.ShipmentRepository,
	driverRepo repository.DriverRepository,
	businessRepo repository.BusinessRepository,
	userRepo repository.UserRepository,
	queueClient *queue.Client,
) *OrderService {
	return &OrderService{
		orderRepo:    orderRepo,
		shipmentRepo: shipmentRepo,
		driverRepo:   driverRepo,
		businessRepo: businessRepo,
		userRepo:     userRepo,
		queueClient:  queueClient,
	}
}

// CreateOrderInput 创建订单参数
type CreateOrderInput struct {
	ItemsCount            int
	Description           string
	Quantity              int
	PickupLocation        models.Location
	DeliveryLocation      models.Location
	RequestedDeliveryDate *time.Time
	VehicleType           string
	EstimatedCost         float64
	Notes                 string
}

// OrderListInput 订单列表参数
type OrderListInput struct {
	Page      int
	PageSize  int
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
	Search    string
}

// OrderStatusInput 订单状态变更参数
type OrderStatusInput struct {
	Status     string
	Notes      string
	ActualCost *float64
}

// orderStatusRank 正向流转顺序，取消单独处理
var orderStatusRank = map[string]int{
	constants.OrderStatusPending:   0,
	constants.OrderStatusAssigned:  1,
	constants.OrderStatusInTransit: 2,
	constants.OrderStatusDelivered: 3,
}

// IsValidVehicleType 车辆类型是否合法
func IsValidVehicleType(vehicleType string) bool {
	switch vehicleType {
	case constants.VehicleTypeCar, constants.VehicleTypeBike, constants.VehicleTypeVan:
		return true
	}
	return false
}

// IsValidOrderStatus 订单状态是否合法
func IsValidOrderStatus(status string) bool {
	if status == constants.OrderStatusCancelled {
		return true
	}
	_, ok := orderStatusRank[status]
	return ok
}

func isTerminalOrderStatus(status string) bool {
	return status == constants.OrderStatusDelivered || status == constants.OrderStatusCancelled
}

// orderStatusPath 返回从 from 推进到 to 需依次经过的状态
func orderStatusPath(from, to string) ([]string, bool) {
	if isTerminalOrderStatus(from) || from == to {
		return nil, false
	}
	if to == constants.OrderStatusCancelled {
		return []string{to}, true
	}
	fromRank, ok := orderStatusRank[from]
	if !ok {
		return nil, false
	}
	toRank, ok := orderStatusRank[to]
	if !ok || toRank <= fromRank {
		return nil, false
	}
	path := make([]string, 0, toRank-fromRank)
	for _, status := range []string{
		constants.OrderStatusAssigned,
		constants.OrderStatusInTransit,
		constants.OrderStatusDelivered,
	} {
		rank := orderStatusRank[status]
		if rank > fromRank && rank <= toRank {
			path = append(path, status)
		}
	}
	return path, true
}

// CanTransitionOrder 订单是否可直接流转到目标状态
func CanTransitionOrder(from, to string) bool {
	path, ok := orderStatusPath(from, to)
	return ok && len(path) == 1
}

// Create 创建订单，需先完成企业 KYC
func (s *OrderService) Create(userID uint, input CreateOrderInput) (*models.Order, error) {
	business, err := s.businessRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if business == nil {
		return nil, ErrKYCRequired
	}
	vehicleType := strings.ToLower(strings.TrimSpace(input.VehicleType))
	if !IsValidVehicleType(vehicleType) {
		return nil, ErrInvalidVehicleType
	}
	pickup := trimLocation(input.PickupLocation)
	delivery := trimLocation(input.DeliveryLocation)
	if pickup.Address == "" || delivery.Address == "" || input.EstimatedCost < 0 {
		return nil, ErrInvalidOrderInput
	}
	itemsCount := input.ItemsCount
	if itemsCount < 1 {
		itemsCount = 1
	}
	quantity := input.Quantity
	if quantity < 1 {
		quantity = 1
	}

	now := time.Now().UTC()
	order := &models.Order{
		UserID:                userID,
		BusinessID:            business.ID,
		ItemsCount:            itemsCount,
		Description:           strings.TrimSpace(input.Description),
		Quantity:              quantity,
		PickupLocation:        pickup,
		DeliveryLocation:      delivery,
		OrderDate:             now,
		RequestedDeliveryDate: input.RequestedDeliveryDate,
		VehicleType:           vehicleType,
		Status:                constants.OrderStatusPending,
		EstimatedCost:         models.NewMoneyFromFloat(input.EstimatedCost),
		Notes:                 strings.TrimSpace(input.Notes),
		StatusHistory: models.StatusHistory{{
			Status:    constants.OrderStatusPending,
			Timestamp: now,
			Notes:     "Order created",
		}},
	}
	if err := s.orderRepo.Create(order); err != nil {
		return nil, err
	}
	s.afterOrderWrite(order)
	return order, nil
}

// List 分页查询当前用户的订单
func (s *OrderService) List(userID uint, input OrderListInput) ([]models.Order, int64, error) {
	return s.orderRepo.List(repository.OrderListFilter{
		UserID:    userID,
		Status:    strings.TrimSpace(input.Status),
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
		Search:    strings.TrimSpace(input.Search),
		Page:      input.Page,
		PageSize:  input.PageSize,
	})
}

// Get 获取当前用户的订单
func (s *OrderService) Get(userID, orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// UpdateStatus 推进订单状态，只允许单步正向流转或取消
func (s *OrderService) UpdateStatus(userID, orderID uint, input OrderStatusInput) (*models.Order, error) {
	target := strings.ToLower(strings.TrimSpace(input.Status))
	if !IsValidOrderStatus(target) {
		return nil, ErrInvalidOrderStatus
	}
	if input.ActualCost != nil && *input.ActualCost < 0 {
		return nil, ErrInvalidOrderInput
	}
	order, err := s.Get(userID, orderID)
	if err != nil {
		return nil, err
	}
	if !CanTransitionOrder(order.Status, target) {
		return nil, ErrInvalidStatusTransition
	}

	now := time.Now().UTC()
	err = s.orderRepo.Transaction(func(tx *gorm.DB) error {
		lifecycle := newDispatchLifecycle(tx, s.orderRepo, s.shipmentRepo, s.driverRepo)
		shipment, err := lifecycle.shipments.GetByOrderID(order.ID)
		if err != nil {
			return err
		}
		if input.ActualCost != nil {
			order.ActualCost = models.MoneyPtr(*input.ActualCost)
		}
		applyOrderStatus(order, target, strings.TrimSpace(input.Notes), now)
		if err := lifecycle.orders.Update(order); err != nil {
			return err
		}
		if shipment != nil {
			if dispatchStatus, ok := dispatchStatusForOrder(target); ok {
				applyDispatchStatus(shipment, dispatchStatus, "", strings.TrimSpace(input.Notes), now)
				if err := lifecycle.shipments.Update(shipment); err != nil {
					return err
				}
			}
		}
		return lifecycle.releaseDriver(order, target)
	})
	if err != nil {
		return nil, err
	}
	s.afterOrderWrite(order)
	return order, nil
}

// Assign 指派司机，生成配送单并占用司机
func (s *OrderService) Assign(userID, orderID, driverID uint) (*models.Order, *models.Shipment, error) {
	order, err := s.Get(userID, orderID)
	if err != nil {
		return nil, nil, err
	}
	if order.AssignedDriverID != nil || order.Status != constants.OrderStatusPending {
		return nil, nil, ErrOrderAlreadyAssigned
	}
	driver, err := s.driverRepo.GetByIDAndOwner(driverID, userID)
	if err != nil {
		return nil, nil, err
	}
	if driver == nil {
		return nil, nil, ErrDriverNotFound
	}
	if !driver.IsAvailable || !driver.IsActive {
		return nil, nil, ErrDriverUnavailable
	}

	dispatcherName, err := s.resolveDispatcherName(userID)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	var shipment *models.Shipment
	err = s.orderRepo.Transaction(func(tx *gorm.DB) error {
		lifecycle := newDispatchLifecycle(tx, s.orderRepo, s.shipmentRepo, s.driverRepo)
		order.AssignedDriverID = &driver.ID
		applyOrderStatus(order, constants.OrderStatusAssigned, "Driver "+driver.FullName+" assigned", now)
		if err := lifecycle.orders.Update(order); err != nil {
			return err
		}

		driverRef := driver.ID
		shipment = &models.Shipment{
			OrderID:               order.ID,
			UserID:                order.UserID,
			DriverID:              &driverRef,
			DispatcherName:        dispatcherName,
			ItemsNo:               order.ItemsCount,
			OrderDate:             order.OrderDate,
			DispatchLocation:      order.PickupLocation.Address,
			Quantity:              order.Quantity,
			DispatchStatus:        constants.DispatchStatusPending,
			DeliveryLocation:      order.DeliveryLocation.Address,
			EstimatedDeliveryTime: order.RequestedDeliveryDate,
			TrackingUpdates: models.TrackingUpdates{{
				Status:    constants.DispatchStatusPending,
				Location:  order.PickupLocation.Address,
				Timestamp: now,
				Notes:     "Shipment created",
			}},
		}
		if err := lifecycle.shipments.Create(shipment); err != nil {
			return err
		}

		orderRef := order.ID
		driver.IsAvailable = false
		driver.CurrentOrderID = &orderRef
		driver.TotalDeliveries++
		return lifecycle.drivers.Update(driver)
	})
	if err != nil {
		return nil, nil, err
	}
	order.AssignedDriver = driver
	s.afterOrderWrite(order)
	return order, shipment, nil
}

func (s *OrderService) resolveDispatcherName(userID uint) (string, error) {
	business, err := s.businessRepo.GetByUserID(userID)
	if err != nil {
		return "", err
	}
	if business != nil && business.BusinessName != "" {
		return business.BusinessName, nil
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrNotFound
	}
	return user.FullName, nil
}

// afterOrderWrite 清理仪表盘缓存并刷新企业订单计数
func (s *OrderService) afterOrderWrite(order *models.Order) {
	refreshAfterOrderWrite(s.queueClient, s.businessRepo, order)
}

func refreshAfterOrderWrite(queueClient *queue.Client, businessRepo repository.BusinessRepository, order *models.Order) {
	if order == nil {
		return
	}
	if err := cache.InvalidateDashboard(context.Background(), order.UserID); err != nil {
		logger.Warnw("dashboard_cache_invalidate_failed", "user_id", order.UserID, "error", err)
	}
	if order.BusinessID == 0 {
		return
	}
	if queueClient != nil && queueClient.Enabled() {
		if err := queueClient.EnqueueBusinessCounters(queue.BusinessCountersPayload{BusinessID: order.BusinessID}); err != nil {
			logger.Warnw("business_counters_enqueue_failed", "business_id", order.BusinessID, "error", err)
		}
		return
	}
	if err := businessRepo.RefreshOrderCounters(order.BusinessID); err != nil {
		logger.Warnw("business_counters_refresh_failed", "business_id", order.BusinessID, "error", err)
	}
}

func trimLocation(location models.Location) models.Location {
	location.Address = strings.TrimSpace(location.Address)
	location.ContactPerson = strings.TrimSpace(location.ContactPerson)
	location.ContactPhone = strings.TrimSpace(location.ContactPhone)
	return location
}

// applyOrderStatus 记录状态变更并维护实际派送与送达时间
func applyOrderStatus(order *models.Order, status, notes string, at time.Time) {
	order.AppendStatus(status, notes, at)
	switch status {
	case constants.OrderStatusInTransit:
		if order.ActualDispatchDate == nil {
			order.ActualDispatchDate = &at
		}
	case constants.OrderStatusDelivered:
		if order.ActualDispatchDate == nil {
			order.ActualDispatchDate = &at
		}
		order.ActualDeliveryDate = &at
	}
}
