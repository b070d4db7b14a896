package models

import "time"

// DriverVehicle 司机车辆信息
type DriverVehicle struct {
	Make        string `gorm:"type:varchar(50)" json:"make"`
	Model       string `gorm:"type:varchar(50)" json:"model"`
	Year        int    `json:"year"`
	PlateNumber string `gorm:"type:varchar(20);uniqueIndex" json:"plateNumber"`
	Color       string `gorm:"type:varchar(30)" json:"color"`
}

// DriverLocation 司机当前位置
type DriverLocation struct {
	Address     string     `gorm:"type:varchar(500)" json:"address"`
	Lat         *float64   `json:"lat,omitempty"`
	Lng         *float64   `json:"lng,omitempty"`
	LastUpdated *time.Time `json:"lastUpdated"`
}

// Driver 司机档案
type Driver struct {
	ID                  uint           `gorm:"primarykey" json:"id"`
	OwnerID             uint           `gorm:"index;not null" json:"ownerId"`
	UserID              *uint          `gorm:"uniqueIndex" json:"userId,omitempty"`
	FullName            string         `gorm:"type:varchar(100);not null" json:"fullName"`
	Email               string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PhoneNumber         string         `gorm:"type:varchar(20);not null" json:"phoneNumber"`
	ProfileImage        string         `gorm:"type:varchar(500)" json:"profileImage"`
	LicenseNumber       string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"licenseNumber"`
	LicenseExpiry       time.Time      `json:"licenseExpiry"`
	VehicleType         string         `gorm:"type:varchar(10);not null" json:"vehicleType"`
	VehicleDetails      DriverVehicle  `gorm:"embedded;embeddedPrefix:vehicle_" json:"vehicleDetails"`
	CurrentLocation     DriverLocation `gorm:"embedded;embeddedPrefix:location_" json:"currentLocation"`
	IsAvailable         bool           `gorm:"not null;default:true;index" json:"isAvailable"`
	IsVerified          bool           `gorm:"not null;default:false" json:"isVerified"`
	IsActive            bool           `gorm:"not null;default:true" json:"isActive"`
	Rating              float64        `gorm:"not null;default:0" json:"rating"`
	TotalDeliveries     int64          `gorm:"not null;default:0" json:"totalDeliveries"`
	CompletedDeliveries int64          `gorm:"not null;default:0" json:"completedDeliveries"`
	CancelledDeliveries int64          `gorm:"not null;default:0" json:"cancelledDeliveries"`
	CurrentOrderID      *uint          `gorm:"index" json:"currentOrderId"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
}

// TableName 指定表名
func (Driver) TableName() string {
	return "drivers"
}
