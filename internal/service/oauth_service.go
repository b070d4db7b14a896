package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sharperly/logistics-api/internal/cache"
	"github.com/sharperly/logistics-api/internal/config"
	"github.com/sharperly/logistics-api/internal/constants"
	"github.com/sharperly/logistics-api/internal/models"
	"github.com/sharperly/logistics-api/internal/repository"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const defaultGoogleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// GoogleProfile Google 账号资料
type GoogleProfile struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// GoogleAuthService Google 登录服务
type GoogleAuthService struct {
	cfg         config.GoogleOAuthConfig
	oauthConfig *oauth2.Config
	userRepo    repository.UserRepository
}

// NewGoogleAuthService 创建 Google 登录服务
func NewGoogleAuthService(cfg config.GoogleOAuthConfig, userRepo repository.UserRepository) *GoogleAuthService {
	return &GoogleAuthService{
		cfg: cfg,
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
		userRepo: userRepo,
	}
}

// Enabled 是否已配置 Google 登录
func (s *GoogleAuthService) Enabled() bool {
	return s != nil && s.cfg.Enabled && s.cfg.ClientID != "" && s.cfg.ClientSecret != ""
}

// NewState 生成防 CSRF 的 state
func (s *GoogleAuthService) NewState() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// AuthCodeURL Google 授权页地址
func (s *GoogleAuthService) AuthCodeURL(state string) (string, error) {
	if !s.Enabled() {
		return "", ErrOAuthDisabled
	}
	return s.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// HandleCallback 用授权码换取资料并完成登录
func (s *GoogleAuthService) HandleCallback(ctx context.Context, code string) (*models.User, error) {
	if !s.Enabled() {
		return nil, ErrOAuthDisabled
	}
	if strings.TrimSpace(code) == "" {
		return nil, ErrOAuthStateInvalid
	}
	token, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google code exchange failed: %w", err)
	}
	profile, err := s.fetchProfile(ctx, s.oauthConfig.Client(ctx, token))
	if err != nil {
		return nil, err
	}
	return s.ResolveUser(profile)
}

// ResolveUser 按 googleId、邮箱依次匹配，均无则创建
func (s *GoogleAuthService) ResolveUser(profile *GoogleProfile) (*models.User, error) {
	if profile == nil || strings.TrimSpace(profile.Subject) == "" {
		return nil, ErrOAuthProfileIncomplete
	}
	email, err := normalizeEmail(profile.Email)
	if err != nil {
		return nil, ErrOAuthProfileIncomplete
	}
	googleID := strings.TrimSpace(profile.Subject)

	user, err := s.userRepo.GetByGoogleID(googleID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	user, err = s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		user.GoogleID = &googleID
		user.IsEmailVerified = true
		user.EmailVerificationCode = ""
		user.EmailVerificationExpire = nil
		if user.ProfileImage == "" {
			user.ProfileImage = profile.Picture
		}
		if err := s.userRepo.Update(user); err != nil {
			return nil, err
		}
		_ = cache.SetUserAuthState(context.Background(), cache.BuildUserAuthState(user))
		return user, nil
	}

	fullName := strings.TrimSpace(profile.Name)
	if len([]rune(fullName)) < 2 {
		fullName = resolveNameFromEmail(email)
	}
	user = &models.User{
		FullName:        fullName,
		Email:           email,
		GoogleID:        &googleID,
		Role:            constants.RoleUser,
		ProfileImage:    profile.Picture,
		IsEmailVerified: true,
		IsActive:        true,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *GoogleAuthService) fetchProfile(ctx context.Context, client *http.Client) (*GoogleProfile, error) {
	url := strings.TrimSpace(s.cfg.UserInfoURL)
	if url == "" {
		url = defaultGoogleUserInfoURL
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google userinfo request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("google userinfo status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var profile GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("google userinfo decode failed: %w", err)
	}
	return &profile, nil
}

func resolveNameFromEmail(email string) string {
	parts := strings.SplitN(email, "@", 2)
	if len(parts) == 2 && len([]rune(strings.TrimSpace(parts[0]))) >= 2 {
		return strings.TrimSpace(parts[0])
	}
	return email
}
