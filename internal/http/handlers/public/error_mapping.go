package public

import (
	"errors"

	handlershared "github.com/sharperly/logistics-api/internal/http/handlers/shared"
	"github.com/sharperly/logistics-api/internal/http/response"
	"github.com/sharperly/logistics-api/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	if msg, ok := userFacingMessage(err); ok {
		respondError(c, response.CodeBadRequest, msg, nil)
		return
	}
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

// userFacingMessage 携带提示文案的业务错误直接透出
func userFacingMessage(err error) (string, bool) {
	if msg, ok := service.PasswordPolicyMessage(err); ok {
		return msg, true
	}
	var uploadErr *service.UploadError
	if errors.As(err, &uploadErr) {
		return uploadErr.Message, true
	}
	var conflictErr *service.DriverConflictError
	if errors.As(err, &conflictErr) {
		return conflictErr.Message(), true
	}
	return "", false
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var userNotFoundRules = []mappedHandlerError{
	{target: service.ErrNotFound, code: response.CodeNotFound, msg: "User not found"},
}

var passwordInputRules = []mappedHandlerError{
	{target: service.ErrPasswordMismatch, code: response.CodeBadRequest, msg: "Passwords do not match"},
	{target: service.ErrWeakPassword, code: response.CodeBadRequest, msg: "Password must contain at least one uppercase letter, one lowercase letter, and one number"},
}

var registerErrorRules = concatMappedHandlerErrors(passwordInputRules, []mappedHandlerError{
	{target: service.ErrEmailExists, code: response.CodeBadRequest, msg: "User already exists with this email address"},
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, msg: "Please enter a valid email address"},
	{target: service.ErrInvalidFullName, code: response.CodeBadRequest, msg: "Full name must be between 2 and 100 characters"},
})

var verifyEmailErrorRules = []mappedHandlerError{
	{target: service.ErrVerifyCodeInvalid, code: response.CodeBadRequest, msg: "Invalid or expired verification code"},
}

var resendVerificationErrorRules = []mappedHandlerError{
	{target: service.ErrNotFound, code: response.CodeNotFound, msg: "No user found with this email address"},
	{target: service.ErrEmailAlreadyVerified, code: response.CodeBadRequest, msg: "Email is already verified"},
	{target: service.ErrVerifyCodeTooFrequent, code: response.CodeTooManyRequests, msg: "Please wait before requesting another code"},
}

var loginErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidCredentials, code: response.CodeUnauthorized, msg: "Invalid email or password"},
	{target: service.ErrUserDisabled, code: response.CodeUnauthorized, msg: "Your account has been deactivated. Please contact support."},
}

var forgotPasswordErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, msg: "Please enter a valid email address"},
	{target: service.ErrNotFound, code: response.CodeNotFound, msg: "No user found with this email address"},
	{target: service.ErrVerifyCodeTooFrequent, code: response.CodeTooManyRequests, msg: "Please wait before requesting another code"},
	{target: service.ErrEmailRecipientRejected, code: response.CodeInternal, msg: "Email could not be sent"},
	{target: service.ErrEmailServiceDisabled, code: response.CodeInternal, msg: "Email could not be sent"},
	{target: service.ErrEmailServiceNotConfigured, code: response.CodeInternal, msg: "Email could not be sent"},
}

var resetCodeErrorRules = concatMappedHandlerErrors(passwordInputRules, []mappedHandlerError{
	{target: service.ErrVerifyCodeInvalid, code: response.CodeBadRequest, msg: "Invalid or expired reset code"},
})

var changePasswordErrorRules = concatMappedHandlerErrors(userNotFoundRules, []mappedHandlerError{
	{target: service.ErrInvalidPassword, code: response.CodeUnauthorized, msg: "Current password is incorrect"},
	{target: service.ErrPasswordNotSet, code: response.CodeBadRequest, msg: "Password sign-in is not enabled for this account"},
	{target: service.ErrWeakPassword, code: response.CodeBadRequest, msg: "Password must contain at least one uppercase letter, one lowercase letter, and one number"},
})

var profileErrorRules = concatMappedHandlerErrors(userNotFoundRules, []mappedHandlerError{
	{target: service.ErrEmailExists, code: response.CodeBadRequest, msg: "Email already exists"},
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, msg: "Please enter a valid email address"},
	{target: service.ErrInvalidFullName, code: response.CodeBadRequest, msg: "Full name must be between 2 and 100 characters"},
	{target: service.ErrAboutTooLong, code: response.CodeBadRequest, msg: "About section cannot exceed 500 characters"},
})

var kycErrorRules = []mappedHandlerError{
	{target: service.ErrCACExists, code: response.CodeBadRequest, msg: "CAC registration number already exists"},
	{target: service.ErrBusinessExists, code: response.CodeBadRequest, msg: "Business KYC already submitted. Use update endpoint to modify."},
	{target: service.ErrBusinessNotFound, code: response.CodeNotFound, msg: "Business KYC not found"},
	{target: service.ErrNotFound, code: response.CodeNotFound, msg: "Business KYC not found"},
}

var vehicleErrorRules = []mappedHandlerError{
	{target: service.ErrKYCRequired, code: response.CodeBadRequest, msg: "Please complete business KYC first"},
	{target: service.ErrVehiclesExist, code: response.CodeBadRequest, msg: "Vehicles already registered. Use update endpoint to modify."},
	{target: service.ErrVehicleNotFound, code: response.CodeNotFound, msg: "Vehicle registration not found"},
}

var onboardingErrorRules = concatMappedHandlerErrors(userNotFoundRules, []mappedHandlerError{
	{target: service.ErrOnboardingIncomplete, code: response.CodeBadRequest, msg: "Please complete KYC and vehicle registration first"},
})

var dispatcherErrorRules = concatMappedHandlerErrors(userNotFoundRules, []mappedHandlerError{
	{target: service.ErrBusinessNotFound, code: response.CodeNotFound, msg: "Business information not found"},
})

var orderErrorRules = []mappedHandlerError{
	{target: service.ErrKYCRequired, code: response.CodeBadRequest, msg: "Please complete business KYC first"},
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "Order not found"},
	{target: service.ErrInvalidOrderStatus, code: response.CodeBadRequest, msg: "Invalid order status"},
	{target: service.ErrInvalidStatusTransition, code: response.CodeBadRequest, msg: "Invalid status transition"},
	{target: service.ErrInvalidVehicleType, code: response.CodeBadRequest, msg: "Vehicle type must be one of: car, bike, van"},
	{target: service.ErrInvalidOrderInput, code: response.CodeBadRequest, msg: "Invalid order details"},
	{target: service.ErrOrderAlreadyAssigned, code: response.CodeBadRequest, msg: "Order has already been assigned"},
	{target: service.ErrDriverNotFound, code: response.CodeNotFound, msg: "Driver not found"},
	{target: service.ErrDriverUnavailable, code: response.CodeBadRequest, msg: "Driver is not available"},
}

var shipmentErrorRules = []mappedHandlerError{
	{target: service.ErrShipmentNotFound, code: response.CodeNotFound, msg: "Shipment not found"},
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "Order not found"},
	{target: service.ErrInvalidOrderStatus, code: response.CodeBadRequest, msg: "Invalid dispatch status"},
	{target: service.ErrInvalidStatusTransition, code: response.CodeBadRequest, msg: "Invalid status transition"},
	{target: service.ErrShipmentNotDelivered, code: response.CodeBadRequest, msg: "Only delivered shipments can be rated"},
	{target: service.ErrInvalidRating, code: response.CodeBadRequest, msg: "Rating must be between 1 and 5"},
}

var driverErrorRules = []mappedHandlerError{
	{target: service.ErrDriverNotFound, code: response.CodeNotFound, msg: "Driver not found"},
	{target: service.ErrDriverUnavailable, code: response.CodeBadRequest, msg: "Driver is currently on a delivery"},
	{target: service.ErrInvalidVehicleType, code: response.CodeBadRequest, msg: "Vehicle type must be one of: car, bike, van"},
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, msg: "Please enter a valid email address"},
}
