package repository

import (
	"errors"

	"github.com/sharperly/logistics-api/internal/models"

	"gorm.io/gorm"
)

// VehicleRepository 车队登记数据访问接口
type VehicleRepository interface {
	GetByUserID(userID uint) (*models.Vehicle, error)
	ExistsByUserID(userID uint) (bool, error)
	Create(vehicle *models.Vehicle) error
	Update(vehicle *models.Vehicle) error
	DeleteByUserID(userID uint) error
	WithTx(tx *gorm.DB) VehicleRepository
}

// GormVehicleRepository GORM 实现
type GormVehicleRepository struct {
	db *gorm.DB
}

// NewVehicleRepository 创建车队仓库
func NewVehicleRepository(db *gorm.DB) *GormVehicleRepository {
	return &GormVehicleRepository{db: db}
}

// WithTx 绑定事务
func (r *GormVehicleRepository) WithTx(tx *gorm.DB) VehicleRepository {
	if tx == nil {
		return r
	}
	return &GormVehicleRepository{db: tx}
}

// GetByUserID 获取用户的车队登记
func (r *GormVehicleRepository) GetByUserID(userID uint) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	if err := r.db.Where("user_id = ?", userID).First(&vehicle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vehicle, nil
}

// ExistsByUserID 用户是否已登记车队
func (r *GormVehicleRepository) ExistsByUserID(userID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Vehicle{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create 创建车队登记
func (r *GormVehicleRepository) Create(vehicle *models.Vehicle) error {
	return r.db.Create(vehicle).Error
}

// Update 更新车队登记，总数由 BeforeSave 重算
func (r *GormVehicleRepository) Update(vehicle *models.Vehicle) error {
	return r.db.Save(vehicle).Error
}

// DeleteByUserID 删除用户的车队登记
func (r *GormVehicleRepository) DeleteByUserID(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.Vehicle{}).Error
}
