package public

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sharperly/logistics-api/internal/constants"
	handlershared "github.com/sharperly/logistics-api/internal/http/handlers/shared"
	"github.com/sharperly/logistics-api/internal/http/response"
	"github.com/sharperly/logistics-api/internal/models"
	"github.com/sharperly/logistics-api/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	oauthStateCookie      = "oauth_state"
	oauthStateMaxAge      = 600
	defaultCookieName     = "token"
	productionEnvironment = "production"
)

// RegisterRequest 注册请求
type RegisterRequest struct {
	FullName        string `json:"fullName" binding:"required,min=2,max=100" msg:"Full name must be between 2 and 100 characters"`
	Email           string `json:"email" binding:"required,email" msg:"Please enter a valid email address"`
	Password        string `json:"password" binding:"required,min=6" msg:"Password must be at least 6 characters long"`
	ConfirmPassword string `json:"confirmPassword" binding:"required" msg:"Passwords do not match"`
}

// VerificationCodeRequest 邮箱验证码请求
type VerificationCodeRequest struct {
	VerificationCode string `json:"verificationCode" binding:"required,len=6,numeric" msg:"Please enter a valid 6-digit code"`
	Email            string `json:"email" binding:"omitempty,email" msg:"Please enter a valid email address"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" msg:"Please enter a valid email address"`
	Password string `json:"password" binding:"required" msg:"Password is required"`
}

// ForgotPasswordRequest 找回密码请求
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email" msg:"Please enter a valid email address"`
}

// ResetPasswordRequest 重置密码请求
type ResetPasswordRequest struct {
	VerificationCode string `json:"verificationCode" binding:"required,len=6,numeric" msg:"Please enter a valid 6-digit code"`
	Password         string `json:"password" binding:"required,min=6" msg:"Password must be at least 6 characters long"`
	ConfirmPassword  string `json:"confirmPassword" binding:"required" msg:"Passwords do not match"`
}

// UpdatePasswordRequest 修改密码请求
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required" msg:"Current password is required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6" msg:"Password must be at least 6 characters long"`
}

// Register 用户注册
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}

	user, emailSent, err := h.UserAuthService.Register(service.RegisterInput{
		FullName:        req.FullName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		respondWithMappedError(c, err, registerErrorRules, response.CodeInternal, "Server error during registration")
		return
	}

	msg := "Registration successful! Please check your email for the verification code."
	if !emailSent {
		msg = "Registration successful, but verification email could not be sent. Please contact support."
	}
	response.Created(c, gin.H{
		"message": msg,
		"user": gin.H{
			"id":              user.ID,
			"fullName":        user.FullName,
			"email":           user.Email,
			"role":            user.Role,
			"isEmailVerified": user.IsEmailVerified,
		},
	})
}

// VerifyEmail 校验邮箱验证码并登录
func (h *Handler) VerifyEmail(c *gin.Context) {
	var req VerificationCodeRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}

	result, err := h.UserAuthService.VerifyEmail(req.VerificationCode, req.Email)
	if err != nil {
		respondWithMappedError(c, err, verifyEmailErrorRules, response.CodeInternal, "Server error during email verification")
		return
	}
	h.sendTokenResponse(c, http.StatusOK, result, "Email verified successfully! Welcome to SHARPERLY!")
}

// ResendVerification 重新发送邮箱验证码
func (h *Handler) ResendVerification(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	if err := h.UserAuthService.ResendVerification(userID); err != nil {
		respondWithMappedError(c, err, resendVerificationErrorRules, response.CodeInternal, "Server error while resending verification code")
		return
	}
	response.SuccessWithMsg(c, "New verification code sent successfully")
}

// Login 邮箱密码登录
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}

	result, err := h.UserAuthService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailNotVerified) {
			response.ErrorWithData(c, response.CodeUnauthorized, "Please verify your email address before logging in.", gin.H{
				"requiresEmailVerification": true,
			})
			return
		}
		respondWithMappedError(c, err, loginErrorRules, response.CodeInternal, "Server error during login")
		return
	}
	h.sendTokenResponse(c, http.StatusOK, result, "Login successful! Welcome back to SHARPERLY!")
}

// Logout 清除登录 cookie
func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.tokenCookieName(), "none", 10, "/", "", h.secureCookies(), true)
	response.SuccessWithMsg(c, "User logged out successfully")
}

// ForgotPassword 发送重置密码验证码
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}
	if err := h.UserAuthService.ForgotPassword(req.Email); err != nil {
		respondWithMappedError(c, err, forgotPasswordErrorRules, response.CodeInternal, "Email could not be sent")
		return
	}
	response.SuccessWithMsg(c, "Password reset code sent to your email successfully")
}

// VerifyResetCode 校验重置验证码
func (h *Handler) VerifyResetCode(c *gin.Context) {
	var req VerificationCodeRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}
	if err := h.UserAuthService.VerifyResetCode(req.VerificationCode); err != nil {
		respondWithMappedError(c, err, resetCodeErrorRules, response.CodeInternal, "Server error during code verification")
		return
	}
	response.SuccessWithMsg(c, "Reset code verified successfully. You can now set a new password.")
}

// ResetPassword 使用验证码重置密码
func (h *Handler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}
	result, err := h.UserAuthService.ResetPassword(req.VerificationCode, req.Password, req.ConfirmPassword)
	if err != nil {
		respondWithMappedError(c, err, resetCodeErrorRules, response.CodeInternal, "Server error during password reset")
		return
	}
	h.sendTokenResponse(c, http.StatusOK, result, "Password reset successful! You are now logged in.")
}

// GetMe 当前登录用户
func (h *Handler) GetMe(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}
	response.Success(c, gin.H{"user": userDetailPayload(user)})
}

// UpdatePassword 登录态修改密码
func (h *Handler) UpdatePassword(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req UpdatePasswordRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}
	result, err := h.UserAuthService.ChangePassword(userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		respondWithMappedError(c, err, changePasswordErrorRules, response.CodeInternal, "Server error while updating password")
		return
	}
	h.sendTokenResponse(c, http.StatusOK, result, "Password updated successfully")
}

// GoogleLogin 跳转 Google 授权页
func (h *Handler) GoogleLogin(c *gin.Context) {
	if h.GoogleAuthService == nil || !h.GoogleAuthService.Enabled() {
		respondError(c, http.StatusServiceUnavailable, "Google sign-in is not configured", nil)
		return
	}
	state, err := h.GoogleAuthService.NewState()
	if err != nil {
		respondError(c, response.CodeInternal, "Server error while starting Google sign-in", err)
		return
	}
	authURL, err := h.GoogleAuthService.AuthCodeURL(state)
	if err != nil {
		respondError(c, response.CodeInternal, "Server error while starting Google sign-in", err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, oauthStateMaxAge, "/", "", h.secureCookies(), true)
	c.Redirect(http.StatusFound, authURL)
}

// GoogleCallback Google 授权回调，结果以重定向形式交给前端
func (h *Handler) GoogleCallback(c *gin.Context) {
	expected, _ := c.Cookie(oauthStateCookie)
	c.SetCookie(oauthStateCookie, "", -1, "/", "", h.secureCookies(), true)
	if expected == "" || expected != c.Query("state") {
		handlershared.RequestLog(c).Warnw("google_callback_state_mismatch")
		c.Redirect(http.StatusFound, h.frontendURL("/auth/error", ""))
		return
	}

	user, err := h.GoogleAuthService.HandleCallback(c.Request.Context(), c.Query("code"))
	if err == nil && user != nil && !user.IsActive {
		err = service.ErrUserDisabled
	}
	if err == nil {
		err = h.UserAuthService.TouchLastLogin(user)
	}
	var result *service.AuthResult
	if err == nil {
		result, err = h.UserAuthService.IssueToken(user)
	}
	if err != nil {
		handlershared.RequestLog(c).Errorw("google_callback_failed", "error", err)
		c.Redirect(http.StatusFound, h.frontendURL("/auth/error", ""))
		return
	}
	c.Redirect(http.StatusFound, h.frontendURL("/auth/success", result.Token))
}

func (h *Handler) sendTokenResponse(c *gin.Context, status int, result *service.AuthResult, msg string) {
	maxAge := int(time.Until(result.ExpiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.tokenCookieName(), result.Token, maxAge, "/", "", h.secureCookies(), true)
	response.JSON(c, status, gin.H{
		"message": msg,
		"token":   result.Token,
		"user":    userSummaryPayload(result.User),
	})
}

func (h *Handler) tokenCookieName() string {
	name := strings.TrimSpace(h.Config.JWT.CookieName)
	if name == "" {
		return defaultCookieName
	}
	return name
}

func (h *Handler) secureCookies() bool {
	return strings.EqualFold(h.Config.App.Environment, productionEnvironment)
}

func (h *Handler) frontendURL(path, token string) string {
	base := strings.TrimRight(strings.TrimSpace(h.Config.Frontend.URL), "/")
	target := base + path
	if token != "" {
		target += "?token=" + url.QueryEscape(token)
	}
	return target
}

func userSummaryPayload(user *models.User) gin.H {
	return gin.H{
		"id":                              user.ID,
		"fullName":                        user.FullName,
		"email":                           user.Email,
		"role":                            user.Role,
		"isEmailVerified":                 user.IsEmailVerified,
		"profileImage":                    user.ProfileImage,
		"hasCompletedOnboarding":          user.HasCompletedOnboarding,
		"hasCompletedKYC":                 user.HasCompletedKYC,
		"hasCompletedVehicleRegistration": user.HasCompletedVehicleRegistration,
		"lastLogin":                       user.LastLogin,
	}
}

func userDetailPayload(user *models.User) gin.H {
	payload := userSummaryPayload(user)
	payload["about"] = user.About
	payload["skippedCorporateInfo"] = user.SkippedCorporateInfo
	payload["createdAt"] = user.CreatedAt
	if user.Role == constants.RoleAdmin {
		payload["isActive"] = user.IsActive
	}
	return payload
}
