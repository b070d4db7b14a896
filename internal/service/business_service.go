package service

import (
	"strings"

	"github.com/sharperly/logistics-api/internal/constants"
	"github.com/sharperly/logistics-api/internal/models"
	"github.com/sharperly/logistics-api/internal/repository"

	"gorm.io/gorm"
)

// BusinessService 企业 KYC 与车队登记服务
type BusinessService struct {
	userRepo     repository.UserRepository
	businessRepo repository.BusinessRepository
	vehicleRepo  repository.VehicleRepository
}

// NewBusinessService 创建企业服务
func NewBusinessService(userRepo repository.UserRepository, businessRepo repository.BusinessRepository, vehicleRepo repository.VehicleRepository) *BusinessService {
	return &BusinessService{
		userRepo:     userRepo,
		businessRepo: businessRepo,
		vehicleRepo:  vehicleRepo,
	}
}

// KYCInput 提交 KYC 参数，文件已由上传服务落盘
type KYCInput struct {
	BusinessName              string
	BusinessEmail             string
	Address                   models.Address
	CACRegistrationNumber     string
	BusinessHotline           string
	AlternativePhoneNumber    string
	WantSharperlyDriverOrders bool
	ProofOfAddressURL         string
	BusinessLogoURL           string
}

// KYCUpdateInput 局部更新 KYC，nil 字段保持不变
type KYCUpdateInput struct {
	BusinessName              *string
	BusinessEmail             *string
	Street                    *string
	City                      *string
	State                     *string
	Country                   *string
	ZipCode                   *string
	CACRegistrationNumber     *string
	BusinessHotline           *string
	AlternativePhoneNumber    *string
	WantSharperlyDriverOrders *bool
	ProofOfAddressURL         string
	BusinessLogoURL           string
}

// VehicleCountsInput 车队数量
type VehicleCountsInput struct {
	NumberOfDrivers int
	NumberOfCars    int
	NumberOfBikes   int
	NumberOfVans    int
}

// VehicleView 车队信息附带企业名称
type VehicleView struct {
	models.Vehicle
	BusinessName string `json:"businessName"`
}

// SubmitKYC 创建企业 KYC 并标记用户已完成 KYC
func (s *BusinessService) SubmitKYC(userID uint, input KYCInput) (*models.Business, error) {
	exists, err := s.businessRepo.ExistsByUserID(userID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrBusinessExists
	}
	cac := strings.TrimSpace(input.CACRegistrationNumber)
	taken, err := s.businessRepo.CACNumberTaken(cac, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrCACExists
	}

	address := input.Address
	if strings.TrimSpace(address.Country) == "" {
		address.Country = constants.DefaultCountry
	}
	proof := strings.TrimSpace(input.ProofOfAddressURL)
	if proof == "" {
		proof = constants.ProofOfAddressPending
	}
	business := &models.Business{
		UserID:                    userID,
		BusinessName:              strings.TrimSpace(input.BusinessName),
		BusinessEmail:             strings.ToLower(strings.TrimSpace(input.BusinessEmail)),
		BusinessAddress:           address,
		CACRegistrationNumber:     cac,
		ProofOfAddress:            proof,
		BusinessLogo:              strings.TrimSpace(input.BusinessLogoURL),
		BusinessHotline:           strings.TrimSpace(input.BusinessHotline),
		AlternativePhoneNumber:    strings.TrimSpace(input.AlternativePhoneNumber),
		WantSharperlyDriverOrders: input.WantSharperlyDriverOrders,
		VerificationStatus:        constants.VerificationStatusPending,
	}

	err = s.userRepo.Transaction(func(tx *gorm.DB) error {
		if err := s.businessRepo.WithTx(tx).Create(business); err != nil {
			return err
		}
		return s.userRepo.WithTx(tx).UpdateFields(userID, map[string]interface{}{"has_completed_kyc": true})
	})
	if err != nil {
		return nil, err
	}
	return business, nil
}

// GetKYC 获取当前用户的企业 KYC
func (s *BusinessService) GetKYC(userID uint) (*models.Business, error) {
	business, err := s.businessRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if business == nil {
		return nil, ErrBusinessNotFound
	}
	return business, nil
}

// UpdateKYC 局部更新企业 KYC
func (s *BusinessService) UpdateKYC(userID uint, input KYCUpdateInput) (*models.Business, error) {
	business, err := s.GetKYC(userID)
	if err != nil {
		return nil, err
	}

	if input.CACRegistrationNumber != nil {
		cac := strings.TrimSpace(*input.CACRegistrationNumber)
		if cac != business.CACRegistrationNumber {
			taken, err := s.businessRepo.CACNumberTaken(cac, business.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, ErrCACExists
			}
			business.CACRegistrationNumber = cac
		}
	}
	assignTrimmed(&business.BusinessName, input.BusinessName)
	if input.BusinessEmail != nil {
		business.BusinessEmail = strings.ToLower(strings.TrimSpace(*input.BusinessEmail))
	}
	assignTrimmed(&business.BusinessAddress.Street, input.Street)
	assignTrimmed(&business.BusinessAddress.City, input.City)
	assignTrimmed(&business.BusinessAddress.State, input.State)
	assignTrimmed(&business.BusinessAddress.Country, input.Country)
	assignTrimmed(&business.BusinessAddress.ZipCode, input.ZipCode)
	assignTrimmed(&business.BusinessHotline, input.BusinessHotline)
	assignTrimmed(&business.AlternativePhoneNumber, input.AlternativePhoneNumber)
	if input.WantSharperlyDriverOrders != nil {
		business.WantSharperlyDriverOrders = *input.WantSharperlyDriverOrders
	}
	if url := strings.TrimSpace(input.ProofOfAddressURL); url != "" {
		business.ProofOfAddress = url
	}
	if url := strings.TrimSpace(input.BusinessLogoURL); url != "" {
		business.BusinessLogo = url
	}

	if err := s.businessRepo.Update(business); err != nil {
		return nil, err
	}
	return business, nil
}

// RegisterVehicles 登记车队，要求先完成 KYC 且只能登记一次
func (s *BusinessService) RegisterVehicles(userID uint, input VehicleCountsInput) (*models.Vehicle, error) {
	business, err := s.businessRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if business == nil {
		return nil, ErrKYCRequired
	}
	exists, err := s.vehicleRepo.ExistsByUserID(userID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrVehiclesExist
	}

	vehicle := &models.Vehicle{
		UserID:          userID,
		BusinessID:      business.ID,
		NumberOfDrivers: input.NumberOfDrivers,
		NumberOfCars:    input.NumberOfCars,
		NumberOfBikes:   input.NumberOfBikes,
		NumberOfVans:    input.NumberOfVans,
		IsActive:        true,
	}
	err = s.userRepo.Transaction(func(tx *gorm.DB) error {
		if err := s.vehicleRepo.WithTx(tx).Create(vehicle); err != nil {
			return err
		}
		return s.userRepo.WithTx(tx).UpdateFields(userID, map[string]interface{}{"has_completed_vehicle_registration": true})
	})
	if err != nil {
		return nil, err
	}
	return vehicle, nil
}

// GetVehicles 获取车队登记信息
func (s *BusinessService) GetVehicles(userID uint) (*VehicleView, error) {
	vehicle, err := s.vehicleRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, ErrVehicleNotFound
	}
	view := &VehicleView{Vehicle: *vehicle}
	business, err := s.businessRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if business != nil {
		view.BusinessName = business.BusinessName
	}
	return view, nil
}

// UpdateVehicles 更新车队数量，总数由模型钩子重算
func (s *BusinessService) UpdateVehicles(userID uint, input VehicleCountsInput) (*models.Vehicle, error) {
	vehicle, err := s.vehicleRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, ErrVehicleNotFound
	}
	vehicle.NumberOfDrivers = input.NumberOfDrivers
	vehicle.NumberOfCars = input.NumberOfCars
	vehicle.NumberOfBikes = input.NumberOfBikes
	vehicle.NumberOfVans = input.NumberOfVans
	if err := s.vehicleRepo.Update(vehicle); err != nil {
		return nil, err
	}
	return vehicle, nil
}

// CompleteOnboarding 标记完成入驻
func (s *BusinessService) CompleteOnboarding(userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	if !user.HasCompletedKYC || !user.HasCompletedVehicleRegistration {
		return nil, ErrOnboardingIncomplete
	}
	if err := s.userRepo.UpdateFields(userID, map[string]interface{}{"has_completed_onboarding": true}); err != nil {
		return nil, err
	}
	user.HasCompletedOnboarding = true
	return user, nil
}

// HasBusiness 是否已提交 KYC
func (s *BusinessService) HasBusiness(userID uint) (bool, error) {
	return s.businessRepo.ExistsByUserID(userID)
}

// HasVehicles 是否已登记车队
func (s *BusinessService) HasVehicles(userID uint) (bool, error) {
	return s.vehicleRepo.ExistsByUserID(userID)
}

func assignTrimmed(dst *string, value *string) {
	if value == nil {
		return
	}
	*dst = strings.TrimSpace(*value)
}
