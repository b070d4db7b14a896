package public

import (
	"time"

	handlershared "github.com/sharperly/logistics-api/internal/http/handlers/shared"
	"github.com/sharperly/logistics-api/internal/http/response"
	"github.com/sharperly/logistics-api/internal/models"
	"github.com/sharperly/logistics-api/internal/service"

	"github.com/gin-gonic/gin"
)

// DriverVehicleRequest 司机车辆信息
type DriverVehicleRequest struct {
	Make        string `json:"make" binding:"omitempty,max=50"`
	Model       string `json:"model" binding:"omitempty,max=50"`
	Year        int    `json:"year" binding:"omitempty,min=1950,max=2100" msg:"Please enter a valid vehicle year"`
	PlateNumber string `json:"plateNumber" binding:"required,max=20" msg:"Plate number is required"`
	Color       string `json:"color" binding:"omitempty,max=30"`
}

// CreateDriverRequest 登记司机请求
type CreateDriverRequest struct {
	FullName        string               `json:"fullName" binding:"required,min=2,max=100" msg:"Full name must be between 2 and 100 characters"`
	Email           string               `json:"email" binding:"required,email" msg:"Please enter a valid email address"`
	PhoneNumber     string               `json:"phoneNumber" binding:"required,phone" msg:"Please enter a valid phone number"`
	ProfileImage    string               `json:"profileImage" binding:"omitempty,max=500"`
	LicenseNumber   string               `json:"licenseNumber" binding:"required,max=50" msg:"License number is required"`
	LicenseExpiry   time.Time            `json:"licenseExpiry" binding:"required" msg:"License expiry date is required"`
	VehicleType     string               `json:"vehicleType" binding:"required" msg:"Vehicle type is required"`
	VehicleDetails  DriverVehicleRequest `json:"vehicleDetails"`
	CurrentLocation string               `json:"currentLocation" binding:"omitempty,max=500"`
}

// DriverAvailabilityRequest 司机接单状态请求
type DriverAvailabilityRequest struct {
	IsAvailable *bool `json:"isAvailable" binding:"required" msg:"Availability is required"`
}

// ListDrivers 司机列表
func (h *Handler) ListDrivers(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.NormalizePagination(
		handlershared.QueryInt(c, "page", 1),
		handlershared.QueryInt(c, "limit", 0),
	)
	drivers, total, err := h.DriverService.List(userID, service.DriverListInput{
		Page:        page,
		PageSize:    pageSize,
		Available:   handlershared.QueryBool(c, "available"),
		VehicleType: c.Query("vehicleType"),
		Search:      c.Query("search"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "Server error while fetching drivers", err)
		return
	}
	pagination := service.NewPagination(page, pageSize, total, len(drivers))
	response.Success(c, gin.H{
		"drivers":    drivers,
		"pagination": handlershared.PaginationPayload(pagination, "totalDrivers"),
	})
}

// CreateDriver 登记司机
func (h *Handler) CreateDriver(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req CreateDriverRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}
	driver, err := h.DriverService.Create(userID, service.CreateDriverInput{
		FullName:      req.FullName,
		Email:         req.Email,
		PhoneNumber:   req.PhoneNumber,
		ProfileImage:  req.ProfileImage,
		LicenseNumber: req.LicenseNumber,
		LicenseExpiry: req.LicenseExpiry,
		VehicleType:   req.VehicleType,
		VehicleDetails: models.DriverVehicle{
			Make:        req.VehicleDetails.Make,
			Model:       req.VehicleDetails.Model,
			Year:        req.VehicleDetails.Year,
			PlateNumber: req.VehicleDetails.PlateNumber,
			Color:       req.VehicleDetails.Color,
		},
		CurrentLocation: req.CurrentLocation,
	})
	if err != nil {
		respondWithMappedError(c, err, driverErrorRules, response.CodeInternal, "Server error while creating driver")
		return
	}
	response.Created(c, gin.H{
		"message": "Driver created successfully",
		"driver":  driver,
	})
}

// GetDriver 司机详情
func (h *Handler) GetDriver(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	driverID, ok := parseIDParam(c, "Driver not found")
	if !ok {
		return
	}
	driver, err := h.DriverService.Get(userID, driverID)
	if err != nil {
		respondWithMappedError(c, err, driverErrorRules, response.CodeInternal, "Server error while fetching driver")
		return
	}
	response.Success(c, gin.H{"driver": driver})
}

// UpdateDriverAvailability 切换司机接单状态
func (h *Handler) UpdateDriverAvailability(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	driverID, ok := parseIDParam(c, "Driver not found")
	if !ok {
		return
	}
	var req DriverAvailabilityRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}
	driver, err := h.DriverService.SetAvailability(userID, driverID, *req.IsAvailable)
	if err != nil {
		respondWithMappedError(c, err, driverErrorRules, response.CodeInternal, "Server error while updating driver availability")
		return
	}
	response.Success(c, gin.H{
		"message": "Driver availability updated successfully",
		"driver":  driver,
	})
}
