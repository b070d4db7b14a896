package models

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Location 取件或收件地点
type Location struct {
	Address       string   `gorm:"type:varchar(500);not null" json:"address"`
	Lat           *float64 `json:"lat,omitempty"`
	Lng           *float64 `json:"lng,omitempty"`
	ContactPerson string   `gorm:"type:varchar(100)" json:"contactPerson"`
	ContactPhone  string   `gorm:"type:varchar(20)" json:"contactPhone"`
}

// Order 配送订单
type Order struct {
	ID                    uint          `gorm:"primarykey" json:"id"`
	UserID                uint          `gorm:"index;not null" json:"userId"`
	BusinessID            uint          `gorm:"index;not null" json:"businessId"`
	OrderNumber           string        `gorm:"type:varchar(32);uniqueIndex;not null" json:"orderNumber"`
	TrackingNumber        string        `gorm:"type:varchar(32);uniqueIndex;not null" json:"trackingNumber"`
	ItemsCount            int           `gorm:"not null;default:1" json:"itemsCount"`
	Description           string        `gorm:"type:varchar(1000)" json:"description"`
	Quantity              int           `gorm:"not null;default:1" json:"quantity"`
	PickupLocation        Location      `gorm:"embedded;embeddedPrefix:pickup_" json:"pickupLocation"`
	DeliveryLocation      Location      `gorm:"embedded;embeddedPrefix:delivery_" json:"deliveryLocation"`
	OrderDate             time.Time     `gorm:"index" json:"orderDate"`
	RequestedDeliveryDate *time.Time    `json:"requestedDeliveryDate"`
	ActualDispatchDate    *time.Time    `json:"actualDispatchDate"`
	ActualDeliveryDate    *time.Time    `json:"actualDeliveryDate"`
	AssignedDriverID      *uint         `gorm:"index" json:"assignedDriverId"`
	VehicleType           string        `gorm:"type:varchar(10);not null" json:"vehicleType"`
	Status                string        `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	EstimatedCost         Money         `gorm:"type:decimal(20,2);not null;default:0" json:"estimatedCost"`
	ActualCost            *Money        `gorm:"type:decimal(20,2)" json:"actualCost"`
	Notes                 string        `gorm:"type:text" json:"notes"`
	StatusHistory         StatusHistory `gorm:"type:text" json:"statusHistory"`
	CreatedAt             time.Time     `gorm:"index" json:"createdAt"`
	UpdatedAt             time.Time     `json:"updatedAt"`

	AssignedDriver *Driver `gorm:"foreignKey:AssignedDriverID" json:"assignedDriver,omitempty"`
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// BeforeCreate 生成订单号与运单号，仅在创建时赋值一次
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if o.OrderDate.IsZero() {
		o.OrderDate = now
	}
	if o.OrderNumber == "" {
		var count int64
		if err := tx.Session(&gorm.Session{NewDB: true}).Model(&Order{}).Count(&count).Error; err != nil {
			return err
		}
		o.OrderNumber = BuildOrderNumber(now, count+1)
	}
	if o.TrackingNumber == "" {
		suffix, err := randomBase36(6)
		if err != nil {
			return err
		}
		o.TrackingNumber = fmt.Sprintf("TRK%d%s", now.UnixMilli(), suffix)
	}
	if len(o.StatusHistory) == 0 {
		status := o.Status
		if status == "" {
			status = "pending"
		}
		o.StatusHistory = StatusHistory{{Status: status, Timestamp: now}}
	}
	return nil
}

// AppendStatus 变更状态并追加历史
func (o *Order) AppendStatus(status, notes string, at time.Time) {
	o.Status = status
	o.StatusHistory = append(o.StatusHistory, StatusChange{Status: status, Timestamp: at, Notes: notes})
}

// BuildOrderNumber 订单号格式 SHP<毫秒时间戳><4 位序号>
func BuildOrderNumber(at time.Time, seq int64) string {
	return fmt.Sprintf("SHP%d%04d", at.UnixMilli(), seq)
}

const base36Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

func randomBase36(length int) (string, error) {
	var sb strings.Builder
	max := big.NewInt(int64(len(base36Alphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(base36Alphabet[n.Int64()])
	}
	return sb.String(), nil
}
