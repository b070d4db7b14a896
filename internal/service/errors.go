package service

import "errors"

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("not found")

	// 认证
	ErrEmailExists               = errors.New("email already exists")
	ErrInvalidEmail              = errors.New("invalid email")
	ErrInvalidCredentials        = errors.New("invalid credentials")
	ErrUserDisabled              = errors.New("user disabled")
	ErrEmailNotVerified          = errors.New("email not verified")
	ErrEmailAlreadyVerified      = errors.New("email already verified")
	ErrVerifyCodeInvalid         = errors.New("verify code invalid or expired")
	ErrVerifyCodeTooFrequent     = errors.New("verify code requested too frequently")
	ErrWeakPassword              = errors.New("weak password")
	ErrPasswordMismatch          = errors.New("passwords do not match")
	ErrInvalidPassword           = errors.New("current password incorrect")
	ErrPasswordNotSet            = errors.New("password not set")
	ErrInvalidToken              = errors.New("invalid token")
	ErrOAuthDisabled             = errors.New("oauth provider disabled")
	ErrOAuthStateInvalid         = errors.New("oauth state invalid")
	ErrOAuthProfileIncomplete    = errors.New("oauth profile incomplete")
	ErrInvalidFullName           = errors.New("invalid full name")
	ErrAboutTooLong              = errors.New("about section too long")
	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	ErrEmailRecipientRejected    = errors.New("email recipient rejected")

	// 企业与车队
	ErrBusinessNotFound     = errors.New("business not found")
	ErrCACExists            = errors.New("cac registration number exists")
	ErrBusinessExists       = errors.New("business already registered")
	ErrKYCRequired          = errors.New("business kyc required")
	ErrVehiclesExist        = errors.New("vehicles already registered")
	ErrVehicleNotFound      = errors.New("vehicle record not found")
	ErrOnboardingIncomplete = errors.New("onboarding incomplete")

	// 订单、配送与司机
	ErrOrderNotFound           = errors.New("order not found")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrInvalidOrderStatus      = errors.New("invalid order status")
	ErrOrderAlreadyAssigned    = errors.New("order already assigned")
	ErrDriverNotFound          = errors.New("driver not found")
	ErrDriverUnavailable       = errors.New("driver unavailable")
	ErrDriverConflict          = errors.New("driver already registered")
	ErrShipmentNotFound        = errors.New("shipment not found")
	ErrShipmentNotDelivered    = errors.New("shipment not delivered")
	ErrInvalidRating           = errors.New("invalid rating")
	ErrInvalidVehicleType      = errors.New("invalid vehicle type")
	ErrInvalidOrderInput       = errors.New("invalid order input")

	// 上传
	ErrUploadInvalid = errors.New("upload invalid")
)
