package service

import (
	"context"
	"strings"

	"github.com/sharperly/logistics-api/internal/cache"
	"github.com/sharperly/logistics-api/internal/models"
	"github.com/sharperly/logistics-api/internal/repository"

	"gorm.io/gorm"
)

// 用户状态过滤值
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
	userRoleFilterAll  = "all"
	maxAboutLength     = 500
)

// UserService 用户资料与后台用户管理
type UserService struct {
	userRepo     repository.UserRepository
	businessRepo repository.BusinessRepository
	vehicleRepo  repository.VehicleRepository
}

// NewUserService 创建用户服务
func NewUserService(userRepo repository.UserRepository, businessRepo repository.BusinessRepository, vehicleRepo repository.VehicleRepository) *UserService {
	return &UserService{
		userRepo:     userRepo,
		businessRepo: businessRepo,
		vehicleRepo:  vehicleRepo,
	}
}

// ProfileUpdateInput 资料更新参数，nil 字段保持不变
type ProfileUpdateInput struct {
	FullName *string
	Email    *string
	About    *string
}

// UserListInput 后台用户列表参数
type UserListInput struct {
	Page     int
	PageSize int
	Search   string
	Role     string
	Status   string
}

// GetProfile 获取用户资料及其企业信息
func (s *UserService) GetProfile(userID uint) (*models.User, *models.Business, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, ErrNotFound
	}
	business, err := s.businessRepo.GetByUserID(userID)
	if err != nil {
		return nil, nil, err
	}
	return user, business, nil
}

// UpdateProfile 更新资料，修改邮箱后需重新验证
func (s *UserService) UpdateProfile(userID uint, input ProfileUpdateInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	if input.FullName != nil {
		name := strings.TrimSpace(*input.FullName)
		if n := len([]rune(name)); n < 2 || n > 100 {
			return nil, ErrInvalidFullName
		}
		user.FullName = name
	}
	if input.Email != nil {
		email, err := normalizeEmail(*input.Email)
		if err != nil {
			return nil, err
		}
		if !sameEmail(email, user.Email) {
			taken, err := s.userRepo.EmailTaken(email, user.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, ErrEmailExists
			}
			user.Email = email
			user.IsEmailVerified = false
		}
	}
	if input.About != nil {
		about := strings.TrimSpace(*input.About)
		if len([]rune(about)) > maxAboutLength {
			return nil, ErrAboutTooLong
		}
		user.About = about
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfileImage 更新头像地址
func (s *UserService) UpdateProfileImage(userID uint, imageURL string) (*models.User, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return nil, ErrUploadInvalid
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	if err := s.userRepo.UpdateFields(userID, map[string]interface{}{"profile_image": imageURL}); err != nil {
		return nil, err
	}
	user.ProfileImage = imageURL
	return user, nil
}

// SkipCorporateInfo 标记跳过企业信息填写
func (s *UserService) SkipCorporateInfo(userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	if err := s.userRepo.UpdateFields(userID, map[string]interface{}{"skipped_corporate_info": true}); err != nil {
		return nil, err
	}
	user.SkippedCorporateInfo = true
	return user, nil
}

// DeleteAccount 删除账号及其企业与车队记录
func (s *UserService) DeleteAccount(userID uint) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}
	err = s.userRepo.Transaction(func(tx *gorm.DB) error {
		if err := s.vehicleRepo.WithTx(tx).DeleteByUserID(userID); err != nil {
			return err
		}
		if err := s.businessRepo.WithTx(tx).DeleteByUserID(userID); err != nil {
			return err
		}
		return s.userRepo.WithTx(tx).Delete(userID)
	})
	if err != nil {
		return err
	}
	ctx := context.Background()
	_ = cache.DelUserAuthState(ctx, userID)
	_ = cache.InvalidateDashboard(ctx, userID)
	return nil
}

// ListUsers 后台用户列表，role=all 与空状态不过滤
func (s *UserService) ListUsers(input UserListInput) ([]models.User, int64, error) {
	filter := repository.UserListFilter{
		Page:     input.Page,
		PageSize: input.PageSize,
		Search:   strings.TrimSpace(input.Search),
	}
	if role := strings.ToLower(strings.TrimSpace(input.Role)); role != "" && role != userRoleFilterAll {
		filter.Role = role
	}
	switch strings.ToLower(strings.TrimSpace(input.Status)) {
	case UserStatusActive:
		active := true
		filter.IsActive = &active
	case UserStatusInactive:
		active := false
		filter.IsActive = &active
	}
	return s.userRepo.List(filter)
}

// GetUserDetail 后台查看用户及其企业信息
func (s *UserService) GetUserDetail(userID uint) (*models.User, *models.Business, error) {
	return s.GetProfile(userID)
}

// UpdateUserStatus 启用或停用用户，同步刷新鉴权缓存
func (s *UserService) UpdateUserStatus(userID uint, isActive bool) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	if err := s.userRepo.UpdateFields(userID, map[string]interface{}{"is_active": isActive}); err != nil {
		return nil, err
	}
	user.IsActive = isActive
	_ = cache.SetUserAuthState(context.Background(), cache.BuildUserAuthState(user))
	return user, nil
}
