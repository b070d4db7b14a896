package service

import (
	"strings"
	"time"

	"github.com/sharperly/logistics-api/internal/constants"
	"github.com/sharperly/logistics-api/internal/models"
	"github.com/sharperly/logistics-api/internal/queue"
	"github.com/sharperly/logistics-api/internal/repository"

	"gorm.io/gorm"
)

const maxReviewLength = 500

// ShipmentService 配送单服务
type ShipmentService struct {
	shipmentRepo repository.ShipmentRepository
	orderRepo    repository.OrderRepository
	driverRepo   repository.DriverRepository
	businessRepo repository.BusinessRepository
	queueClient  *queue.Client
}

// NewShipmentService 创建配送单服务
func NewShipmentService(
	shipmentRepo repository.ShipmentRepository,
	orderRepo repository.OrderRepository,
	driverRepo repository.DriverRepository,
	businessRepo repository.BusinessRepository,
	queueClient *queue.Client,
) *ShipmentService {
	return &ShipmentService{
		shipmentRepo: shipmentRepo,
		orderRepo:    orderRepo,
		driverRepo:   driverRepo,
		businessRepo: businessRepo,
		queueClient:  queueClient,
	}
}

// ShipmentListInput 配送单列表参数
type ShipmentListInput struct {
	Page           int
	PageSize       int
	DispatchStatus string
}

// ShipmentStatusInput 配送状态变更参数
type ShipmentStatusInput struct {
	DispatchStatus string
	Location       string
	Notes          string
}

// ShipmentRatingInput 客户评价参数
type ShipmentRatingInput struct {
	CustomerRating int
	CustomerReview string
}

// List 当前用户的配送单；司机角色查看分配给自己的配送单
func (s *ShipmentService) List(user *models.User, input ShipmentListInput) ([]models.Shipment, int64, error) {
	filter := repository.ShipmentListFilter{
		DispatchStatus: strings.TrimSpace(input.DispatchStatus),
		Page:           input.Page,
		PageSize:       input.PageSize,
	}
	if filter.DispatchStatus == constants.StatusFilterAll {
		filter.DispatchStatus = ""
	}
	if user.Role == constants.RoleDriver {
		driver, err := s.driverRepo.GetByUserID(user.ID)
		if err != nil {
			return nil, 0, err
		}
		if driver == nil {
			return []models.Shipment{}, 0, nil
		}
		filter.DriverID = driver.ID
	} else {
		filter.UserID = user.ID
	}
	return s.shipmentRepo.List(filter)
}

// Get 获取当前用户可见的配送单
func (s *ShipmentService) Get(user *models.User, shipmentID uint) (*models.Shipment, error) {
	shipment, err := s.shipmentRepo.GetByID(shipmentID)
	if err != nil {
		return nil, err
	}
	if shipment == nil {
		return nil, ErrShipmentNotFound
	}
	if shipment.UserID == user.ID {
		return shipment, nil
	}
	if user.Role == constants.RoleDriver && shipment.DriverID != nil {
		driver, err := s.driverRepo.GetByUserID(user.ID)
		if err != nil {
			return nil, err
		}
		if driver != nil && driver.ID == *shipment.DriverID {
			return shipment, nil
		}
	}
	return nil, ErrShipmentNotFound
}

// UpdateStatus 推进配送状态，同步订单状态与司机计数
func (s *ShipmentService) UpdateStatus(user *models.User, shipmentID uint, input ShipmentStatusInput) (*models.Shipment, error) {
	target := strings.ToLower(strings.TrimSpace(input.DispatchStatus))
	if !IsValidDispatchStatus(target) {
		return nil, ErrInvalidOrderStatus
	}
	shipment, err := s.Get(user, shipmentID)
	if err != nil {
		return nil, err
	}
	if !CanTransitionDispatch(shipment.DispatchStatus, target) {
		return nil, ErrInvalidStatusTransition
	}

	now := time.Now().UTC()
	notes := strings.TrimSpace(input.Notes)
	var order *models.Order
	err = s.orderRepo.Transaction(func(tx *gorm.DB) error {
		lifecycle := newDispatchLifecycle(tx, s.orderRepo, s.shipmentRepo, s.driverRepo)
		applyDispatchStatus(shipment, target, strings.TrimSpace(input.Location), notes, now)
		if err := lifecycle.shipments.Update(shipment); err != nil {
			return err
		}

		orderStatus, ok := orderStatusForDispatch(target)
		if !ok {
			return nil
		}
		loaded, err := lifecycle.orders.GetByID(shipment.OrderID)
		if err != nil {
			return err
		}
		if loaded == nil {
			return nil
		}
		order = loaded
		path, ok := orderStatusPath(order.Status, orderStatus)
		if !ok {
			return nil
		}
		for _, step := range path {
			applyOrderStatus(order, step, notes, now)
		}
		if err := lifecycle.orders.Update(order); err != nil {
			return err
		}
		return lifecycle.releaseDriver(order, orderStatus)
	})
	if err != nil {
		return nil, err
	}
	if order != nil {
		if shipment.Order != nil {
			shipment.Order.Status = order.Status
		}
		refreshAfterOrderWrite(s.queueClient, s.businessRepo, order)
	}
	return shipment, nil
}

// Rate 客户对已送达的配送单评分，并重算司机评分
func (s *ShipmentService) Rate(user *models.User, shipmentID uint, input ShipmentRatingInput) (*models.Shipment, error) {
	if input.CustomerRating < 1 || input.CustomerRating > 5 {
		return nil, ErrInvalidRating
	}
	review := strings.TrimSpace(input.CustomerReview)
	if len([]rune(review)) > maxReviewLength {
		return nil, ErrInvalidRating
	}
	shipment, err := s.shipmentRepo.GetByID(shipmentID)
	if err != nil {
		return nil, err
	}
	if shipment == nil || shipment.UserID != user.ID {
		return nil, ErrShipmentNotFound
	}
	if shipment.DispatchStatus != constants.DispatchStatusDelivered {
		return nil, ErrShipmentNotDelivered
	}

	rating := input.CustomerRating
	driverRating := float64(rating)
	shipment.CustomerRating = &rating
	shipment.CustomerReview = review
	shipment.DriverRating = &driverRating

	err = s.orderRepo.Transaction(func(tx *gorm.DB) error {
		shipments := s.shipmentRepo.WithTx(tx)
		if err := shipments.Update(shipment); err != nil {
			return err
		}
		if shipment.DriverID == nil {
			return nil
		}
		drivers := s.driverRepo.WithTx(tx)
		driver, err := drivers.GetByID(*shipment.DriverID)
		if err != nil {
			return err
		}
		if driver == nil {
			return nil
		}
		avg, _, err := shipments.AverageCustomerRating(driver.ID)
		if err != nil {
			return err
		}
		driver.Rating = round2(avg)
		return drivers.Update(driver)
	})
	if err != nil {
		return nil, err
	}
	return shipment, nil
}
