package repository

import (
	"errors"
	"strings"

	"github.com/sharperly/logistics-api/internal/constants"
	"github.com/sharperly/logistics-api/internal/models"

	"gorm.io/gorm"
)

// orderSearchColumns 历史查询模糊匹配的列
var orderSearchColumns = []string{"order_number", "tracking_number", "pickup_address", "delivery_address"}

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByIDAndUser(id uint, userID uint) (*models.Order, error)
	Update(order *models.Order) error
	List(filter OrderListFilter) ([]models.Order, int64, error)
	ListAll(filter OrderListFilter) ([]models.Order, error)
	WithTx(tx *gorm.DB) OrderRepository
	Transaction(fn func(tx *gorm.DB) error) error
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) OrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Transaction 执行事务
func (r *GormOrderRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// withDriverSummary 仅预加载司机的展示字段
func withDriverSummary(query *gorm.DB, association string) *gorm.DB {
	return query.Preload(association, func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "full_name", "profile_image", "rating")
	})
}

// Create 创建订单
func (r *GormOrderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// GetByID 根据 ID 获取订单
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDAndUser 获取用户自己的订单
func (r *GormOrderRepository) GetByIDAndUser(id uint, userID uint) (*models.Order, error) {
	var order models.Order
	query := withDriverSummary(r.db, "AssignedDriver")
	if err := query.Where("id = ? AND user_id = ?", id, userID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// Update 保存订单
func (r *GormOrderRepository) Update(order *models.Order) error {
	return r.db.Omit("AssignedDriver").Save(order).Error
}

// applyOrderFilter 应用用户、状态、时间范围与关键字过滤
func applyOrderFilter(db *gorm.DB, query *gorm.DB, filter OrderListFilter) *gorm.DB {
	query = query.Where("user_id = ?", filter.UserID)
	if status := strings.TrimSpace(filter.Status); status != "" && status != constants.StatusFilterAll {
		query = query.Where("status = ?", status)
	}
	if filter.StartDate != nil {
		query = query.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("created_at <= ?", *filter.EndDate)
	}
	if keyword := strings.TrimSpace(filter.Search); keyword != "" {
		condition, argCount := buildLikeCondition(db, orderSearchColumns)
		query = query.Where(condition, repeatLikeArgs("%"+escapeLike(keyword)+"%", argCount)...)
	}
	return query
}

// List 分页查询订单，按创建时间倒序
func (r *GormOrderRepository) List(filter OrderListFilter) ([]models.Order, int64, error) {
	query := applyOrderFilter(r.db, r.db.Model(&models.Order{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = withDriverSummary(query, "AssignedDriver").Scopes(paginate(filter.Page, filter.PageSize))

	var orders []models.Order
	if err := query.Order("created_at DESC").Order("id DESC").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListAll 不分页查询订单，Limit 限制最大行数
func (r *GormOrderRepository) ListAll(filter OrderListFilter) ([]models.Order, error) {
	query := withDriverSummary(applyOrderFilter(r.db, r.db.Model(&models.Order{}), filter), "AssignedDriver")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	var orders []models.Order
	if err := query.Order("created_at DESC").Order("id DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
