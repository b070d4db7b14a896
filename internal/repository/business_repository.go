package repository

import (
	"errors"
	"time"

	"github.com/sharperly/logistics-api/internal/constants"
	"github.com/sharperly/logistics-api/internal/models"

	"gorm.io/gorm"
)

// BusinessRepository 企业 KYC 数据访问接口
type BusinessRepository interface {
	GetByUserID(userID uint) (*models.Business, error)
	CACNumberTaken(cacNumber string, excludeID uint) (bool, error)
	ExistsByUserID(userID uint) (bool, error)
	Create(business *models.Business) error
	Update(business *models.Business) error
	DeleteByUserID(userID uint) error
	RefreshOrderCounters(businessID uint) error
	ListIDs(afterID uint, limit int) ([]uint, error)
	WithTx(tx *gorm.DB) BusinessRepository
}

// GormBusinessRepository GORM 实现
type GormBusinessRepository struct {
	db *gorm.DB
}

// NewBusinessRepository 创建企业仓库
func NewBusinessRepository(db *gorm.DB) *GormBusinessRepository {
	return &GormBusinessRepository{db: db}
}

// WithTx 绑定事务
func (r *GormBusinessRepository) WithTx(tx *gorm.DB) BusinessRepository {
	if tx == nil {
		return r
	}
	return &GormBusinessRepository{db: tx}
}

// GetByUserID 获取用户的企业信息
func (r *GormBusinessRepository) GetByUserID(userID uint) (*models.Business, error) {
	var business models.Business
	if err := r.db.Where("user_id = ?", userID).First(&business).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &business, nil
}

// CACNumberTaken 判断注册号是否已被其他企业使用
func (r *GormBusinessRepository) CACNumberTaken(cacNumber string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.Model(&models.Business{}).Where("cac_registration_number = ?", cacNumber)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ExistsByUserID 用户是否已提交企业信息
func (r *GormBusinessRepository) ExistsByUserID(userID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Business{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create 创建企业信息
func (r *GormBusinessRepository) Create(business *models.Business) error {
	return r.db.Create(business).Error
}

// Update 更新企业信息
func (r *GormBusinessRepository) Update(business *models.Business) error {
	return r.db.Save(business).Error
}

// DeleteByUserID 删除用户的企业信息
func (r *GormBusinessRepository) DeleteByUserID(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.Business{}).Error
}

// RefreshOrderCounters 按订单表重算企业的订单计数
func (r *GormBusinessRepository) RefreshOrderCounters(businessID uint) error {
	var total int64
	if err := r.db.Model(&models.Order{}).Where("business_id = ?", businessID).Count(&total).Error; err != nil {
		return err
	}
	var completed int64
	if err := r.db.Model(&models.Order{}).
		Where("business_id = ? AND status = ?", businessID, constants.OrderStatusDelivered).
		Count(&completed).Error; err != nil {
		return err
	}
	return r.db.Model(&models.Business{}).Where("id = ?", businessID).Updates(map[string]interface{}{
		"total_orders":     total,
		"completed_orders": completed,
		"updated_at":       time.Now(),
	}).Error
}

// ListIDs 按主键游标分批列出企业 ID
func (r *GormBusinessRepository) ListIDs(afterID uint, limit int) ([]uint, error) {
	if limit <= 0 {
		limit = 100
	}
	var ids []uint
	if err := r.db.Model(&models.Business{}).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
