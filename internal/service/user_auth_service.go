package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/sharperly/logistics-api/internal/cache"
	"github.com/sharperly/logistics-api/internal/config"
	"github.com/sharperly/logistics-api/internal/constants"
	"github.com/sharperly/logistics-api/internal/logger"
	"github.com/sharperly/logistics-api/internal/models"
	"github.com/sharperly/logistics-api/internal/queue"
	"github.com/sharperly/logistics-api/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// VerifyCodeSender 验证码投递
type VerifyCodeSender interface {
	SendVerifyCode(toEmail, fullName, code, purpose string) error
}

// UserAuthService 用户认证服务
type UserAuthService struct {
	cfg         *config.Config
	userRepo    repository.UserRepository
	sender      VerifyCodeSender
	queueClient *queue.Client
}

// NewUserAuthService 创建用户认证服务
func NewUserAuthService(cfg *config.Config, userRepo repository.UserRepository, sender VerifyCodeSender, queueClient *queue.Client) *UserAuthService {
	return &UserAuthService{
		cfg:         cfg,
		userRepo:    userRepo,
		sender:      sender,
		queueClient: queueClient,
	}
}

// UserJWTClaims 用户 JWT 声明
type UserJWTClaims struct {
	UserID       uint   `json:"id"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// RegisterInput 注册参数
type RegisterInput struct {
	FullName        string
	Email           string
	Password        string
	ConfirmPassword string
}

// AuthResult 登录态结果
type AuthResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// GenerateUserJWT 生成用户 JWT Token
func (s *UserAuthService) GenerateUserJWT(user *models.User) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(time.Duration(resolveUserJWTExpireHours(s.cfg.JWT)) * time.Hour)
	claims := UserJWTClaims{
		UserID:       user.ID,
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseUserJWT 解析用户 JWT Token
func (s *UserAuthService) ParseUserJWT(tokenString string) (*UserJWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &UserJWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*UserJWTClaims); ok && token.Valid && claims.UserID > 0 {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// Register 创建账号并发送邮箱验证码，邮件失败不影响注册结果
func (s *UserAuthService) Register(input RegisterInput) (*models.User, bool, error) {
	fullName := strings.TrimSpace(input.FullName)
	if n := len([]rune(fullName)); n < 2 || n > 100 {
		return nil, false, ErrInvalidFullName
	}
	normalized, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, false, err
	}
	if input.Password != input.ConfirmPassword {
		return nil, false, ErrPasswordMismatch
	}
	if err := validatePassword(s.cfg.Security.PasswordPolicy, input.Password); err != nil {
		return nil, false, err
	}

	exist, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return nil, false, err
	}
	if exist != nil {
		return nil, false, ErrEmailExists
	}

	hashedPassword, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, false, err
	}
	now := time.Now().UTC()
	code, codeHash, expireAt, err := issueVerifyCode(s.cfg.Email.VerifyCode, now)
	if err != nil {
		return nil, false, err
	}

	user := &models.User{
		FullName:                fullName,
		Email:                   normalized,
		PasswordHash:            hashedPassword,
		Role:                    constants.RoleUser,
		IsActive:                true,
		EmailVerificationCode:   codeHash,
		EmailVerificationExpire: &expireAt,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, false, err
	}

	if err := s.deliverVerifyCode(user, code, constants.OTPPurposeVerifyEmail); err != nil {
		logger.Warnw("auth_register_verify_email_failed", "user_id", user.ID, "error", err)
		return user, false, nil
	}
	return user, true, nil
}

// VerifyEmail 校验邮箱验证码，成功后直接签发登录态
func (s *UserAuthService) VerifyEmail(code, email string) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmailVerificationCode(hashVerifyCode(code), time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if user == nil || !sameEmail(user.Email, email) {
		return nil, ErrVerifyCodeInvalid
	}

	user.IsEmailVerified = true
	user.EmailVerificationCode = ""
	user.EmailVerificationExpire = nil
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	_ = cache.SetUserAuthState(context.Background(), cache.BuildUserAuthState(user))
	return s.issue(user)
}

// ResendVerification 为当前用户重新生成邮箱验证码
func (s *UserAuthService) ResendVerification(userID uint) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}
	if user.IsEmailVerified {
		return ErrEmailAlreadyVerified
	}

	now := time.Now().UTC()
	if s.sentTooRecently(user.EmailVerificationExpire, now) {
		return ErrVerifyCodeTooFrequent
	}
	code, codeHash, expireAt, err := issueVerifyCode(s.cfg.Email.VerifyCode, now)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdateFields(user.ID, map[string]interface{}{
		"email_verification_code":   codeHash,
		"email_verification_expire": expireAt,
	}); err != nil {
		return err
	}
	return s.deliverVerifyCode(user, code, constants.OTPPurposeResendVerification)
}

// Login 邮箱密码登录
func (s *UserAuthService) Login(email, password string) (*AuthResult, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.HasPassword() {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}
	if !user.IsEmailVerified {
		return nil, ErrEmailNotVerified
	}

	if err := s.TouchLastLogin(user); err != nil {
		return nil, err
	}
	_ = cache.SetUserAuthState(context.Background(), cache.BuildUserAuthState(user))
	return s.issue(user)
}

// TouchLastLogin 记录最近登录时间
func (s *UserAuthService) TouchLastLogin(user *models.User) error {
	now := time.Now().UTC()
	if err := s.userRepo.UpdateFields(user.ID, map[string]interface{}{"last_login": now}); err != nil {
		return err
	}
	user.LastLogin = &now
	return nil
}

// ForgotPassword 发送重置密码验证码，发送失败时回收验证码
func (s *UserAuthService) ForgotPassword(email string) error {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	user, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}

	now := time.Now().UTC()
	if s.sentTooRecently(user.PasswordResetExpire, now) {
		return ErrVerifyCodeTooFrequent
	}
	code, codeHash, expireAt, err := issueVerifyCode(s.cfg.Email.VerifyCode, now)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdateFields(user.ID, map[string]interface{}{
		"password_reset_code":   codeHash,
		"password_reset_expire": expireAt,
	}); err != nil {
		return err
	}

	if err := s.deliverVerifyCode(user, code, constants.OTPPurposeResetPassword); err != nil {
		if clearErr := s.userRepo.UpdateFields(user.ID, map[string]interface{}{
			"password_reset_code":   "",
			"password_reset_expire": nil,
		}); clearErr != nil {
			logger.Warnw("auth_reset_code_cleanup_failed", "user_id", user.ID, "error", clearErr)
		}
		return err
	}
	return nil
}

// VerifyResetCode 仅校验重置验证码是否有效
func (s *UserAuthService) VerifyResetCode(code string) error {
	user, err := s.userRepo.GetByPasswordResetCode(hashVerifyCode(code), time.Now().UTC())
	if err != nil {
		return err
	}
	if user == nil {
		return ErrVerifyCodeInvalid
	}
	return nil
}

// ResetPassword 使用重置验证码设置新密码
func (s *UserAuthService) ResetPassword(code, password, confirmPassword string) (*AuthResult, error) {
	if password != confirmPassword {
		return nil, ErrPasswordMismatch
	}
	if err := validatePassword(s.cfg.Security.PasswordPolicy, password); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByPasswordResetCode(hashVerifyCode(code), time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrVerifyCodeInvalid
	}

	hashedPassword, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hashedPassword
	user.PasswordResetCode = ""
	user.PasswordResetExpire = nil
	user.TokenVersion++
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	_ = cache.SetUserAuthState(context.Background(), cache.BuildUserAuthState(user))
	return s.issue(user)
}

// ChangePassword 登录态修改密码，旧 token 随版本号失效
func (s *UserAuthService) ChangePassword(userID uint, currentPassword, newPassword string) (*AuthResult, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	if !user.HasPassword() {
		return nil, ErrPasswordNotSet
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return nil, ErrInvalidPassword
	}
	if err := validatePassword(s.cfg.Security.PasswordPolicy, newPassword); err != nil {
		return nil, err
	}

	hashedPassword, err := s.hashPassword(newPassword)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hashedPassword
	user.TokenVersion++
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	_ = cache.SetUserAuthState(context.Background(), cache.BuildUserAuthState(user))
	return s.issue(user)
}

// GetUserByID 获取用户信息
func (s *UserAuthService) GetUserByID(id uint) (*models.User, error) {
	if id == 0 {
		return nil, ErrNotFound
	}
	return s.userRepo.GetByID(id)
}

// IssueToken 为已认证用户签发 token
func (s *UserAuthService) IssueToken(user *models.User) (*AuthResult, error) {
	return s.issue(user)
}

func (s *UserAuthService) issue(user *models.User) (*AuthResult, error) {
	token, expiresAt, err := s.GenerateUserJWT(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// deliverVerifyCode 队列可用时异步投递，否则同步发送
func (s *UserAuthService) deliverVerifyCode(user *models.User, code, purpose string) error {
	if s.queueClient != nil && s.queueClient.Enabled() {
		return s.queueClient.EnqueueEmailVerifyCode(queue.EmailVerifyCodePayload{
			Email:    user.Email,
			FullName: user.FullName,
			Code:     code,
			Purpose:  purpose,
		})
	}
	if s.sender == nil {
		return ErrEmailServiceNotConfigured
	}
	return s.sender.SendVerifyCode(user.Email, user.FullName, code, purpose)
}

// sentTooRecently 由过期时间反推上次发送时间
func (s *UserAuthService) sentTooRecently(expireAt *time.Time, now time.Time) bool {
	if expireAt == nil {
		return false
	}
	verifyCfg := s.cfg.Email.VerifyCode
	sentAt := expireAt.Add(-time.Duration(resolveExpireMinutes(verifyCfg)) * time.Minute)
	interval := time.Duration(resolveSendIntervalSeconds(verifyCfg)) * time.Second
	return now.Sub(sentAt) < interval
}

func (s *UserAuthService) hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), resolveBcryptCost(s.cfg.Security.BcryptCost))
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func normalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(normalized); err != nil {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}

// NormalizeEmail 统一邮箱格式
func NormalizeEmail(email string) (string, error) {
	return normalizeEmail(email)
}

// sameEmail 未提供邮箱时不做比对
func sameEmail(stored, provided string) bool {
	provided = strings.TrimSpace(provided)
	if provided == "" {
		return true
	}
	return strings.EqualFold(stored, provided)
}

func resolveUserJWTExpireHours(cfg config.JWTConfig) int {
	if cfg.ExpireHours <= 0 {
		return 168
	}
	return cfg.ExpireHours
}

func resolveSendIntervalSeconds(cfg config.VerifyCodeConfig) int {
	if cfg.SendIntervalSeconds < 0 {
		return 0
	}
	return cfg.SendIntervalSeconds
}

func resolveBcryptCost(cost int) int {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return cost
}
