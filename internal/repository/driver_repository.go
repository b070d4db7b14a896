package repository

import (
	"errors"
	"strings"

	"github.com/sharperly/logistics-api/internal/models"

	"gorm.io/gorm"
)

// DriverRepository 司机数据访问接口
type DriverRepository interface {
	Create(driver *models.Driver) error
	GetByID(id uint) (*models.Driver, error)
	GetByIDAndOwner(id uint, ownerID uint) (*models.Driver, error)
	GetByUserID(userID uint) (*models.Driver, error)
	FindConflict(email, licenseNumber, plateNumber string) (string, error)
	Update(driver *models.Driver) error
	List(filter DriverListFilter) ([]models.Driver, int64, error)
	WithTx(tx *gorm.DB) DriverRepository
}

// GormDriverRepository GORM 实现
type GormDriverRepository struct {
	db *gorm.DB
}

// NewDriverRepository 创建司机仓库
func NewDriverRepository(db *gorm.DB) *GormDriverRepository {
	return &GormDriverRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDriverRepository) WithTx(tx *gorm.DB) DriverRepository {
	if tx == nil {
		return r
	}
	return &GormDriverRepository{db: tx}
}

func (r *GormDriverRepository) first(query *gorm.DB) (*models.Driver, error) {
	var driver models.Driver
	if err := query.First(&driver).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &driver, nil
}

// Create 创建司机
func (r *GormDriverRepository) Create(driver *models.Driver) error {
	return r.db.Create(driver).Error
}

// GetByID 根据 ID 获取司机
func (r *GormDriverRepository) GetByID(id uint) (*models.Driver, error) {
	return r.first(r.db.Where("id = ?", id))
}

// GetByIDAndOwner 获取调度员名下的司机
func (r *GormDriverRepository) GetByIDAndOwner(id uint, ownerID uint) (*models.Driver, error) {
	return r.first(r.db.Where("id = ? AND owner_id = ?", id, ownerID))
}

// GetByUserID 获取司机账号绑定的档案
func (r *GormDriverRepository) GetByUserID(userID uint) (*models.Driver, error) {
	return r.first(r.db.Where("user_id = ?", userID))
}

// FindConflict 返回首个已被占用的唯一字段名，无冲突返回空串
func (r *GormDriverRepository) FindConflict(email, licenseNumber, plateNumber string) (string, error) {
	checks := []struct {
		column string
		value  string
	}{
		{column: "email", value: email},
		{column: "license_number", value: licenseNumber},
		{column: "vehicle_plate_number", value: plateNumber},
	}
	for _, check := range checks {
		if strings.TrimSpace(check.value) == "" {
			continue
		}
		var count int64
		if err := r.db.Model(&models.Driver{}).Where(check.column+" = ?", check.value).Count(&count).Error; err != nil {
			return "", err
		}
		if count > 0 {
			return check.column, nil
		}
	}
	return "", nil
}

// Update 保存司机
func (r *GormDriverRepository) Update(driver *models.Driver) error {
	return r.db.Save(driver).Error
}

// List 分页查询司机
func (r *GormDriverRepository) List(filter DriverListFilter) ([]models.Driver, int64, error) {
	query := r.db.Model(&models.Driver{}).Where("owner_id = ?", filter.OwnerID)
	if filter.IsAvailable != nil {
		query = query.Where("is_available = ?", *filter.IsAvailable)
	}
	if filter.VehicleType != "" {
		query = query.Where("vehicle_type = ?", filter.VehicleType)
	}
	if keyword := strings.TrimSpace(filter.Search); keyword != "" {
		condition, argCount := buildLikeCondition(r.db, []string{"full_name", "email", "phone_number"})
		query = query.Where(condition, repeatLikeArgs("%"+escapeLike(keyword)+"%", argCount)...)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Scopes(paginate(filter.Page, filter.PageSize))

	var drivers []models.Driver
	if err := query.Order("created_at DESC").Order("id DESC").Find(&drivers).Error; err != nil {
		return nil, 0, err
	}
	return drivers, total, nil
}
