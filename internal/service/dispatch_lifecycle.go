package service

import (
	"time"

	"github.com/sharperly/logistics-api/internal/constants"
	"github.com/sharperly/logistics-api/internal/models"
	"github.com/sharperly/logistics-api/internal/repository"

	"gorm.io/gorm"
)

// dispatchLifecycle 事务内联动订单、配送单与司机
type dispatchLifecycle struct {
	orders    repository.OrderRepository
	shipments repository.ShipmentRepository
	drivers   repository.DriverRepository
}

func newDispatchLifecycle(tx *gorm.DB, orders repository.OrderRepository, shipments repository.ShipmentRepository, drivers repository.DriverRepository) *dispatchLifecycle {
	return &dispatchLifecycle{
		orders:    orders.WithTx(tx),
		shipments: shipments.WithTx(tx),
		drivers:   drivers.WithTx(tx),
	}
}

// releaseDriver 订单终结后释放司机并累计完成或取消次数
func (l *dispatchLifecycle) releaseDriver(order *models.Order, status string) error {
	if order.AssignedDriverID == nil || !isTerminalOrderStatus(status) {
		return nil
	}
	driver, err := l.drivers.GetByID(*order.AssignedDriverID)
	if err != nil {
		return err
	}
	if driver == nil {
		return nil
	}
	switch status {
	case constants.OrderStatusDelivered:
		driver.CompletedDeliveries++
	case constants.OrderStatusCancelled:
		driver.CancelledDeliveries++
	}
	if driver.CurrentOrderID != nil && *driver.CurrentOrderID == order.ID {
		driver.CurrentOrderID = nil
		driver.IsAvailable = true
	}
	return l.drivers.Update(driver)
}

// dispatchStatusRank 配送单正向流转顺序
var dispatchStatusRank = map[string]int{
	constants.DispatchStatusPending:    0,
	constants.DispatchStatusDispatched: 1,
	constants.DispatchStatusInTransit:  2,
	constants.DispatchStatusDelivered:  3,
}

// IsValidDispatchStatus 配送状态是否合法
func IsValidDispatchStatus(status string) bool {
	if status == constants.DispatchStatusCancelled {
		return true
	}
	_, ok := dispatchStatusRank[status]
	return ok
}

func isTerminalDispatchStatus(status string) bool {
	return status == constants.DispatchStatusDelivered || status == constants.DispatchStatusCancelled
}

// CanTransitionDispatch 配送单只能向前推进，未终结时可取消
func CanTransitionDispatch(from, to string) bool {
	if isTerminalDispatchStatus(from) || from == to {
		return false
	}
	if to == constants.DispatchStatusCancelled {
		return true
	}
	fromRank, ok := dispatchStatusRank[from]
	if !ok {
		return false
	}
	toRank, ok := dispatchStatusRank[to]
	return ok && toRank > fromRank
}

// dispatchStatusForOrder 订单状态对应的配送状态
func dispatchStatusForOrder(orderStatus string) (string, bool) {
	switch orderStatus {
	case constants.OrderStatusInTransit:
		return constants.DispatchStatusInTransit, true
	case constants.OrderStatusDelivered:
		return constants.DispatchStatusDelivered, true
	case constants.OrderStatusCancelled:
		return constants.DispatchStatusCancelled, true
	}
	return "", false
}

// orderStatusForDispatch 配送状态对应的订单状态，dispatched 不改变订单
func orderStatusForDispatch(dispatchStatus string) (string, bool) {
	switch dispatchStatus {
	case constants.DispatchStatusInTransit:
		return constants.OrderStatusInTransit, true
	case constants.DispatchStatusDelivered:
		return constants.OrderStatusDelivered, true
	case constants.DispatchStatusCancelled:
		return constants.OrderStatusCancelled, true
	}
	return "", false
}

// applyDispatchStatus 更新配送状态并追加轨迹
func applyDispatchStatus(shipment *models.Shipment, status, location, notes string, at time.Time) {
	if location == "" {
		location = shipment.DispatchLocation
		if status == constants.DispatchStatusDelivered {
			location = shipment.DeliveryLocation
		}
	}
	shipment.DispatchStatus = status
	shipment.TrackingUpdates = append(shipment.TrackingUpdates, models.TrackingUpdate{
		Status:    status,
		Location:  location,
		Timestamp: at,
		Notes:     notes,
	})
	switch status {
	case constants.DispatchStatusDispatched, constants.DispatchStatusInTransit:
		if shipment.DispatchDate == nil {
			shipment.DispatchDate = &at
		}
	case constants.DispatchStatusDelivered:
		if shipment.DispatchDate == nil {
			shipment.DispatchDate = &at
		}
		shipment.ActualDeliveryTime = &at
	}
}
