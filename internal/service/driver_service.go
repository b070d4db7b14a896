package service

import (
	"strings"
	"time"

	"github.com/sharperly/logistics-api/internal/models"
	"github.com/sharperly/logistics-api/internal/repository"
)

// DriverService 司机管理服务
type DriverService struct {
	driverRepo repository.DriverRepository
}

// NewDriverService 创建司机服务
func NewDriverService(driverRepo repository.DriverRepository) *DriverService {
	return &DriverService{driverRepo: driverRepo}
}

// CreateDriverInput 登记司机参数
type CreateDriverInput struct {
	FullName        string
	Email           string
	PhoneNumber     string
	ProfileImage    string
	LicenseNumber   string
	LicenseExpiry   time.Time
	VehicleType     string
	VehicleDetails  models.DriverVehicle
	CurrentLocation string
}

// DriverListInput 司机列表参数
type DriverListInput struct {
	Page        int
	PageSize    int
	Available   *bool
	VehicleType string
	Search      string
}

// DriverConflictError 唯一字段冲突
type DriverConflictError struct {
	Field string
}

func (e *DriverConflictError) Error() string {
	return "driver conflict on " + e.Field
}

// Is 兼容 errors.Is(err, ErrDriverConflict)
func (e *DriverConflictError) Is(target error) bool {
	return target == ErrDriverConflict
}

// Message 面向用户的冲突提示
func (e *DriverConflictError) Message() string {
	switch e.Field {
	case "email":
		return "A driver with this email already exists"
	case "license_number":
		return "A driver with this license number already exists"
	case "vehicle_plate_number":
		return "A driver with this plate number already exists"
	}
	return "Driver already exists"
}

// Create 登记司机，邮箱、驾照号、车牌不可重复
func (s *DriverService) Create(ownerID uint, input CreateDriverInput) (*models.Driver, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	vehicleType := strings.ToLower(strings.TrimSpace(input.VehicleType))
	if !IsValidVehicleType(vehicleType) {
		return nil, ErrInvalidVehicleType
	}
	vehicle := input.VehicleDetails
	vehicle.Make = strings.TrimSpace(vehicle.Make)
	vehicle.Model = strings.TrimSpace(vehicle.Model)
	vehicle.PlateNumber = strings.ToUpper(strings.TrimSpace(vehicle.PlateNumber))
	vehicle.Color = strings.TrimSpace(vehicle.Color)
	license := strings.ToUpper(strings.TrimSpace(input.LicenseNumber))

	field, err := s.driverRepo.FindConflict(email, license, vehicle.PlateNumber)
	if err != nil {
		return nil, err
	}
	if field != "" {
		return nil, &DriverConflictError{Field: field}
	}

	driver := &models.Driver{
		OwnerID:        ownerID,
		FullName:       strings.TrimSpace(input.FullName),
		Email:          email,
		PhoneNumber:    strings.TrimSpace(input.PhoneNumber),
		ProfileImage:   strings.TrimSpace(input.ProfileImage),
		LicenseNumber:  license,
		LicenseExpiry:  input.LicenseExpiry.UTC(),
		VehicleType:    vehicleType,
		VehicleDetails: vehicle,
		IsAvailable:    true,
		IsActive:       true,
	}
	if address := strings.TrimSpace(input.CurrentLocation); address != "" {
		now := time.Now().UTC()
		driver.CurrentLocation = models.DriverLocation{Address: address, LastUpdated: &now}
	}
	if err := s.driverRepo.Create(driver); err != nil {
		return nil, err
	}
	return driver, nil
}

// List 当前调度员名下的司机
func (s *DriverService) List(ownerID uint, input DriverListInput) ([]models.Driver, int64, error) {
	return s.driverRepo.List(repository.DriverListFilter{
		OwnerID:     ownerID,
		IsAvailable: input.Available,
		VehicleType: strings.ToLower(strings.TrimSpace(input.VehicleType)),
		Search:      strings.TrimSpace(input.Search),
		Page:        input.Page,
		PageSize:    input.PageSize,
	})
}

// Get 获取名下司机
func (s *DriverService) Get(ownerID, driverID uint) (*models.Driver, error) {
	driver, err := s.driverRepo.GetByIDAndOwner(driverID, ownerID)
	if err != nil {
		return nil, err
	}
	if driver == nil {
		return nil, ErrDriverNotFound
	}
	return driver, nil
}

// SetAvailability 切换接单状态，配送中的司机不能设为空闲
func (s *DriverService) SetAvailability(ownerID, driverID uint, available bool) (*models.Driver, error) {
	driver, err := s.Get(ownerID, driverID)
	if err != nil {
		return nil, err
	}
	if available && driver.CurrentOrderID != nil {
		return nil, ErrDriverUnavailable
	}
	driver.IsAvailable = available
	if err := s.driverRepo.Update(driver); err != nil {
		return nil, err
	}
	return driver, nil
}
