package models

import (
	"strings"

	"github.com/sharperly/logistics-api/internal/constants"
	"github.com/sharperly/logistics-api/internal/logger"

	"golang.org/x/crypto/bcrypt"
)

const defaultAdminPassword = "Admin12345"

// InitDefaultAdmin 初始化默认管理员账号
func InitDefaultAdmin(email, password string) error {
	var count int64
	if err := DB.Model(&User{}).Where("role = ?", constants.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		email = "admin@sharperly.local"
	}
	if password == "" {
		password = defaultAdminPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := User{
		FullName:               "Administrator",
		Email:                  email,
		PasswordHash:           string(hash),
		Role:                   constants.RoleAdmin,
		IsEmailVerified:        true,
		IsActive:               true,
		HasCompletedOnboarding: true,
	}
	if err := DB.Create(&admin).Error; err != nil {
		return err
	}

	if password == defaultAdminPassword {
		logger.Warnw("default_admin_created_with_default_password", "email", email)
		logger.Warnw("default_admin_password_change_required", "email", email)
	} else {
		logger.Warnw("default_admin_created", "email", email, "password_hidden", true)
	}
	return nil
}
