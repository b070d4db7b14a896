package models

import (
	"time"
)

// User 用户表，邮箱验证码与重置密码验证码分别存放
type User struct {
	ID                              uint       `gorm:"primarykey" json:"id"`
	FullName                        string     `gorm:"type:varchar(100);not null" json:"fullName"`
	Email                           string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash                    string     `gorm:"type:varchar(255)" json:"-"` // OAuth 用户可为空
	Role                            string     `gorm:"type:varchar(20);not null;default:'user';index" json:"role"`
	ProfileImage                    string     `gorm:"type:varchar(500)" json:"profileImage"`
	About                           string     `gorm:"type:varchar(500)" json:"about"`
	IsEmailVerified                 bool       `gorm:"not null;default:false" json:"isEmailVerified"`
	IsActive                        bool       `gorm:"not null;default:true;index" json:"isActive"`
	HasCompletedOnboarding          bool       `gorm:"not null;default:false" json:"hasCompletedOnboarding"`
	SkippedCorporateInfo            bool       `gorm:"not null;default:false" json:"skippedCorporateInfo"`
	HasCompletedKYC                 bool       `gorm:"column:has_completed_kyc;not null;default:false" json:"hasCompletedKYC"`
	HasCompletedVehicleRegistration bool       `gorm:"not null;default:false" json:"hasCompletedVehicleRegistration"`
	EmailVerificationCode           string     `gorm:"type:varchar(64)" json:"-"`
	EmailVerificationExpire         *time.Time `json:"-"`
	PasswordResetCode               string     `gorm:"type:varchar(64)" json:"-"`
	PasswordResetExpire             *time.Time `json:"-"`
	GoogleID                        *string    `gorm:"type:varchar(64);uniqueIndex" json:"googleId,omitempty"`
	TokenVersion                    uint64     `gorm:"not null;default:0" json:"-"`
	LastLogin                       *time.Time `json:"lastLogin"`
	CreatedAt                       time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt                       time.Time  `json:"updatedAt"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// HasPassword 是否设置了本地密码
func (u *User) HasPassword() bool {
	return u != nil && u.PasswordHash != ""
}
