package repository

import "time"

// OrderListFilter 订单列表过滤条件
type OrderListFilter struct {
	UserID    uint
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
	Search    string
	Page      int
	PageSize  int
	Limit     int // 不分页时的最大行数
}

// ShipmentListFilter 配送单列表过滤条件
type ShipmentListFilter struct {
	UserID         uint
	DriverID       uint
	DispatchStatus string
	Page           int
	PageSize       int
}

// UserListFilter 用户列表过滤条件
type UserListFilter struct {
	Page     int
	PageSize int
	Search   string
	Role     string
	IsActive *bool
}

// DriverListFilter 司机列表过滤条件
type DriverListFilter struct {
	OwnerID     uint
	IsAvailable *bool
	VehicleType string
	Search      string
	Page        int
	PageSize    int
}
