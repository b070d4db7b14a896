package models

import (
	"time"

	"gorm.io/gorm"
)

// Vehicle 车队登记信息，每个用户一条
type Vehicle struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	UserID          uint      `gorm:"uniqueIndex;not null" json:"userId"`
	BusinessID      uint      `gorm:"index;not null" json:"businessId"`
	NumberOfDrivers int       `gorm:"not null;default:0" json:"numberOfDrivers"`
	NumberOfCars    int       `gorm:"not null;default:0" json:"numberOfCars"`
	NumberOfBikes   int       `gorm:"not null;default:0" json:"numberOfBikes"`
	NumberOfVans    int       `gorm:"not null;default:0" json:"numberOfVans"`
	TotalVehicles   int       `gorm:"not null;default:0" json:"totalVehicles"`
	IsActive        bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (Vehicle) TableName() string {
	return "vehicles"
}

// RecomputeTotal 按车型数量重算总数
func (v *Vehicle) RecomputeTotal() {
	v.TotalVehicles = v.NumberOfCars + v.NumberOfBikes + v.NumberOfVans
}

// BeforeSave 每次写入前重算总数
func (v *Vehicle) BeforeSave(tx *gorm.DB) error {
	v.RecomputeTotal()
	return nil
}
