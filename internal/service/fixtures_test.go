package service

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sharperly/logistics-api/internal/config"
	"github.com/sharperly/logistics-api/internal/constants"
	"github.com/sharperly/logistics-api/internal/models"
	"github.com/sharperly/logistics-api/internal/repository"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testUserPassword = "Secret123"

func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Business{},
		&models.Vehicle{},
		&models.Driver{},
		&models.Order{},
		&models.Shipment{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func newServiceTestConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{SecretKey: "test-secret", ExpireHours: 24, CookieName: "token"},
		Email: config.EmailConfig{
			VerifyCode: config.VerifyCodeConfig{ExpireMinutes: 10, SendIntervalSeconds: 60, Length: 6},
		},
		Security: config.SecurityConfig{
			PasswordPolicy: config.PasswordPolicyConfig{
				MinLength:     6,
				RequireUpper:  true,
				RequireLower:  true,
				RequireNumber: true,
			},
			BcryptCost: bcrypt.MinCost,
		},
	}
}

type sentVerifyCode struct {
	email   string
	code    string
	purpose string
}

type fakeCodeSender struct {
	mu    sync.Mutex
	sent  []sentVerifyCode
	err   error
	calls int
}

func (f *fakeCodeSender) SendVerifyCode(toEmail, fullName, code, purpose string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentVerifyCode{email: toEmail, code: code, purpose: purpose})
	return nil
}

func (f *fakeCodeSender) last(t *testing.T) sentVerifyCode {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		t.Fatalf("expected a verify code to be sent")
	}
	return f.sent[len(f.sent)-1]
}

type serviceTestRepos struct {
	users     *repository.GormUserRepository
	business  *repository.GormBusinessRepository
	vehicles  *repository.GormVehicleRepository
	orders    *repository.GormOrderRepository
	shipments *repository.GormShipmentRepository
	drivers   *repository.GormDriverRepository
	dashboard *repository.GormDashboardRepository
}

func newServiceTestRepos(db *gorm.DB) serviceTestRepos {
	return serviceTestRepos{
		users:     repository.NewUserRepository(db),
		business:  repository.NewBusinessRepository(db),
		vehicles:  repository.NewVehicleRepository(db),
		orders:    repository.NewOrderRepository(db),
		shipments: repository.NewShipmentRepository(db),
		drivers:   repository.NewDriverRepository(db),
		dashboard: repository.NewDashboardRepository(db),
	}
}

func createServiceTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testUserPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	user := &models.User{
		FullName:        "Ada Okafor",
		Email:           email,
		PasswordHash:    string(hash),
		Role:            constants.RoleUser,
		IsEmailVerified: true,
		IsActive:        true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func createServiceTestBusiness(t *testing.T, db *gorm.DB, userID uint, cac string) *models.Business {
	t.Helper()
	business := &models.Business{
		UserID:                userID,
		BusinessName:          "Swift Logistics",
		BusinessEmail:         "ops@swift.ng",
		BusinessAddress:       models.Address{Street: "12 Allen Avenue", City: "Ikeja", State: "Lagos"},
		CACRegistrationNumber: cac,
		BusinessHotline:       "+2348030000000",
		VerificationStatus:    constants.VerificationStatusPending,
	}
	if err := db.Create(business).Error; err != nil {
		t.Fatalf("create business failed: %v", err)
	}
	return business
}

func createServiceTestDriver(t *testing.T, db *gorm.DB, ownerID uint, suffix string) *models.Driver {
	t.Helper()
	driver := &models.Driver{
		OwnerID:        ownerID,
		FullName:       "Driver " + suffix,
		Email:          "driver" + suffix + "@swift.ng",
		PhoneNumber:    "+2348031111111",
		LicenseNumber:  "LIC" + suffix,
		LicenseExpiry:  time.Now().UTC().AddDate(1, 0, 0),
		VehicleType:    constants.VehicleTypeBike,
		VehicleDetails: models.DriverVehicle{Make: "Honda", Model: "Ace", Year: 2022, PlateNumber: "LAG" + suffix},
		IsAvailable:    true,
		IsActive:       true,
	}
	if err := db.Create(driver).Error; err != nil {
		t.Fatalf("create driver failed: %v", err)
	}
	return driver
}
