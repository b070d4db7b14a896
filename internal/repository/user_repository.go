package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/sharperly/logistics-api/internal/models"

	"gorm.io/gorm"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	GetByEmail(email string) (*models.User, error)
	GetByID(id uint) (*models.User, error)
	GetByGoogleID(googleID string) (*models.User, error)
	GetByEmailVerificationCode(codeHash string, now time.Time) (*models.User, error)
	GetByPasswordResetCode(codeHash string, now time.Time) (*models.User, error)
	EmailTaken(email string, excludeID uint) (bool, error)
	Create(user *models.User) error
	Update(user *models.User) error
	UpdateFields(id uint, updates map[string]interface{}) error
	Delete(id uint) error
	List(filter UserListFilter) ([]models.User, int64, error)
	WithTx(tx *gorm.DB) UserRepository
	Transaction(fn func(tx *gorm.DB) error) error
}

// GormUserRepository GORM 实现
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// WithTx 绑定事务
func (r *GormUserRepository) WithTx(tx *gorm.DB) UserRepository {
	if tx == nil {
		return r
	}
	return &GormUserRepository{db: tx}
}

// Transaction 执行事务
func (r *GormUserRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

func (r *GormUserRepository) first(query *gorm.DB) (*models.User, error) {
	var user models.User
	if err := query.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByEmail 根据邮箱获取用户
func (r *GormUserRepository) GetByEmail(email string) (*models.User, error) {
	return r.first(r.db.Where("email = ?", email))
}

// GetByID 根据 ID 获取用户
func (r *GormUserRepository) GetByID(id uint) (*models.User, error) {
	return r.first(r.db.Where("id = ?", id))
}

// GetByGoogleID 根据 Google 账号 ID 获取用户
func (r *GormUserRepository) GetByGoogleID(googleID string) (*models.User, error) {
	return r.first(r.db.Where("google_id = ?", googleID))
}

// GetByEmailVerificationCode 根据未过期的邮箱验证码获取用户
func (r *GormUserRepository) GetByEmailVerificationCode(codeHash string, now time.Time) (*models.User, error) {
	return r.first(r.db.Where("email_verification_code = ? AND email_verification_expire > ?", codeHash, now))
}

// GetByPasswordResetCode 根据未过期的重置验证码获取用户
func (r *GormUserRepository) GetByPasswordResetCode(codeHash string, now time.Time) (*models.User, error) {
	return r.first(r.db.Where("password_reset_code = ? AND password_reset_expire > ?", codeHash, now))
}

// EmailTaken 判断邮箱是否被其他用户占用
func (r *GormUserRepository) EmailTaken(email string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.Model(&models.User{}).Where("email = ?", email)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create 创建用户
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// Update 更新用户
func (r *GormUserRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// UpdateFields 按字段更新用户
func (r *GormUserRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return r.db.Model(&models.User{}).Where("id = ?", id).Updates(updates).Error
}

// Delete 删除用户
func (r *GormUserRepository) Delete(id uint) error {
	return r.db.Delete(&models.User{}, id).Error
}

// List 用户列表
func (r *GormUserRepository) List(filter UserListFilter) ([]models.User, int64, error) {
	query := r.db.Model(&models.User{})

	if keyword := strings.TrimSpace(filter.Search); keyword != "" {
		condition, argCount := buildLikeCondition(r.db, []string{"full_name", "email"})
		query = query.Where(condition, repeatLikeArgs("%"+escapeLike(keyword)+"%", argCount)...)
	}
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Scopes(paginate(filter.Page, filter.PageSize))

	var users []models.User
	if err := query.Order("created_at DESC").Order("id DESC").Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}
