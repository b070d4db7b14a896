package repository

import (
	"errors"

	"github.com/sharperly/logistics-api/internal/models"

	"gorm.io/gorm"
)

// ShipmentRepository 配送单数据访问接口
type ShipmentRepository interface {
	Create(shipment *models.Shipment) error
	GetByID(id uint) (*models.Shipment, error)
	GetByOrderID(orderID uint) (*models.Shipment, error)
	Update(shipment *models.Shipment) error
	List(filter ShipmentListFilter) ([]models.Shipment, int64, error)
	AverageCustomerRating(driverID uint) (float64, int64, error)
	WithTx(tx *gorm.DB) ShipmentRepository
}

// GormShipmentRepository GORM 实现
type GormShipmentRepository struct {
	db *gorm.DB
}

// NewShipmentRepository 创建配送单仓库
func NewShipmentRepository(db *gorm.DB) *GormShipmentRepository {
	return &GormShipmentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormShipmentRepository) WithTx(tx *gorm.DB) ShipmentRepository {
	if tx == nil {
		return r
	}
	return &GormShipmentRepository{db: tx}
}

func (r *GormShipmentRepository) withRelations(query *gorm.DB) *gorm.DB {
	return withDriverSummary(query, "Driver").Preload("Order", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "order_number", "tracking_number", "status")
	})
}

// Create 创建配送单
func (r *GormShipmentRepository) Create(shipment *models.Shipment) error {
	return r.db.Omit("Order", "Driver").Create(shipment).Error
}

// GetByID 根据 ID 获取配送单
func (r *GormShipmentRepository) GetByID(id uint) (*models.Shipment, error) {
	var shipment models.Shipment
	if err := r.withRelations(r.db).First(&shipment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shipment, nil
}

// GetByOrderID 根据订单获取配送单
func (r *GormShipmentRepository) GetByOrderID(orderID uint) (*models.Shipment, error) {
	var shipment models.Shipment
	if err := r.db.Where("order_id = ?", orderID).First(&shipment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shipment, nil
}

// Update 保存配送单
func (r *GormShipmentRepository) Update(shipment *models.Shipment) error {
	return r.db.Omit("Order", "Driver").Save(shipment).Error
}

// List 分页查询配送单，按创建时间倒序
func (r *GormShipmentRepository) List(filter ShipmentListFilter) ([]models.Shipment, int64, error) {
	query := r.db.Model(&models.Shipment{})
	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.DriverID > 0 {
		query = query.Where("driver_id = ?", filter.DriverID)
	}
	if filter.DispatchStatus != "" {
		query = query.Where("dispatch_status = ?", filter.DispatchStatus)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = r.withRelations(query).Scopes(paginate(filter.Page, filter.PageSize))

	var shipments []models.Shipment
	if err := query.Order("created_at DESC").Order("id DESC").Find(&shipments).Error; err != nil {
		return nil, 0, err
	}
	return shipments, total, nil
}

// AverageCustomerRating 司机已评分配送单的平均分及样本数
func (r *GormShipmentRepository) AverageCustomerRating(driverID uint) (float64, int64, error) {
	var row struct {
		AvgRating float64
		Samples   int64
	}
	if err := r.db.Model(&models.Shipment{}).
		Select("COALESCE(AVG(customer_rating), 0) AS avg_rating, COUNT(*) AS samples").
		Where("driver_id = ? AND customer_rating IS NOT NULL", driverID).
		Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	return row.AvgRating, row.Samples, nil
}
