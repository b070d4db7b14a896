package constants

// 用户角色
const (
	RoleUser   = "user"
	RoleDriver = "driver"
	RoleAdmin  = "admin"
)

// 订单状态
const (
	OrderStatusPending   = "pending"
	OrderStatusAssigned  = "assigned"
	OrderStatusInTransit = "in_transit"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// 配送单状态
const (
	DispatchStatusPending    = "pending"
	DispatchStatusDispatched = "dispatched"
	DispatchStatusInTransit  = "in_transit"
	DispatchStatusDelivered  = "delivered"
	DispatchStatusCancelled  = "cancelled"
)

// 企业认证状态
const (
	VerificationStatusPending  = "pending"
	VerificationStatusApproved = "approved"
	VerificationStatusRejected = "rejected"
)

// 车辆类型
const (
	VehicleTypeCar  = "car"
	VehicleTypeBike = "bike"
	VehicleTypeVan  = "van"
)

// 仪表盘统计周期
const (
	Period24Hours  = "24hours"
	Period7Days    = "7days"
	Period30Days   = "30days"
	Period12Months = "12months"
)

// DashboardPeriods 支持的统计周期
func DashboardPeriods() []string {
	return []string{Period24Hours, Period7Days, Period30Days, Period12Months}
}

// 历史查询状态过滤的通配值
const StatusFilterAll = "all"

// 一次性验证码用途
const (
	OTPPurposeVerifyEmail        = "verify_email"
	OTPPurposeResendVerification = "resend_verification"
	OTPPurposeResetPassword      = "reset_password"
)

// 上传场景
const (
	UploadSceneProofOfAddress = "proof-of-address"
	UploadSceneBusinessLogo   = "business-logo"
	UploadSceneProfileImage   = "profile-image"
)

// 默认值
const (
	DefaultCountry        = "Nigeria"
	ProofOfAddressPending = "pending-upload"
	UnassignedDriverName  = "Unassigned"
)

// 队列与任务
const (
	QueueCritical        = "critical"
	QueueDefault         = "default"
	TaskEmailVerifyCode  = "email:verify_code"
	TaskBusinessCounters = "business:refresh_counters"
)

// 异步任务重试次数
const DefaultTaskMaxRetry = 3
