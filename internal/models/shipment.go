package models

import "time"

// Shipment 配送执行记录，与订单一对一
type Shipment struct {
	ID                    uint            `gorm:"primarykey" json:"id"`
	OrderID               uint            `gorm:"uniqueIndex;not null" json:"orderId"`
	UserID                uint            `gorm:"index;not null" json:"userId"`
	DriverID              *uint           `gorm:"index" json:"driverId"`
	DispatcherName        string          `gorm:"type:varchar(100);not null" json:"dispatcherName"`
	ItemsNo               int             `gorm:"not null;default:1" json:"itemsNo"`
	OrderDate             time.Time       `json:"orderDate"`
	DispatchDate          *time.Time      `json:"dispatchDate"`
	DispatchLocation      string          `gorm:"type:varchar(500)" json:"dispatchLocation"`
	Quantity              int             `gorm:"not null;default:1" json:"quantity"`
	DispatchStatus        string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"dispatchStatus"`
	DeliveryLocation      string          `gorm:"type:varchar(500)" json:"deliveryLocation"`
	EstimatedDeliveryTime *time.Time      `json:"estimatedDeliveryTime"`
	ActualDeliveryTime    *time.Time      `json:"actualDeliveryTime"`
	CustomerRating        *int            `json:"customerRating"`
	CustomerReview        string          `gorm:"type:varchar(500)" json:"customerReview"`
	DriverRating          *float64        `json:"driverRating"`
	TrackingUpdates       TrackingUpdates `gorm:"type:text" json:"trackingUpdates"`
	CreatedAt             time.Time       `gorm:"index" json:"createdAt"`
	UpdatedAt             time.Time       `json:"updatedAt"`

	Order  *Order  `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	Driver *Driver `gorm:"foreignKey:DriverID" json:"driver,omitempty"`
}

// TableName 指定表名
func (Shipment) TableName() string {
	return "shipments"
}
