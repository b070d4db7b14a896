package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openModelsTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&User{}, &Business{}, &Vehicle{}, &Driver{}, &Order{}, &Shipment{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

func TestOrderBeforeCreateAssignsIdentifiers(t *testing.T) {
	db := openModelsTestDB(t)
	orderPattern := regexp.MustCompile(`^SHP\d{13}\d{4}$`)
	trackingPattern := regexp.MustCompile(`^TRK\d{13}[0-9A-Z]{6}$`)

	for i := 1; i <= 2; i++ {
		order := Order{
			UserID:           1,
			BusinessID:       1,
			ItemsCount:       1,
			Quantity:         1,
			VehicleType:      "bike",
			PickupLocation:   Location{Address: "Ikeja, Lagos"},
			DeliveryLocation: Location{Address: "Lekki, Lagos"},
		}
		if err := db.Create(&order).Error; err != nil {
			t.Fatalf("create order failed: %v", err)
		}
		if !orderPattern.MatchString(order.OrderNumber) {
			t.Fatalf("unexpected order number: %s", order.OrderNumber)
		}
		if want := fmt.Sprintf("%04d", i); order.OrderNumber[len(order.OrderNumber)-4:] != want {
			t.Fatalf("order sequence want %s got %s", want, order.OrderNumber)
		}
		if !trackingPattern.MatchString(order.TrackingNumber) {
			t.Fatalf("unexpected tracking number: %s", order.TrackingNumber)
		}
		if len(order.StatusHistory) != 1 || order.StatusHistory[0].Status != "pending" {
			t.Fatalf("initial status history want [pending] got %+v", order.StatusHistory)
		}
	}
}

func TestOrderStatusHistoryRoundTrip(t *testing.T) {
	db := openModelsTestDB(t)
	order := Order{
		UserID:           1,
		BusinessID:       1,
		ItemsCount:       2,
		Quantity:         3,
		VehicleType:      "van",
		PickupLocation:   Location{Address: "Yaba"},
		DeliveryLocation: Location{Address: "Ajah"},
		ActualCost:       MoneyPtr(1500.5),
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	order.AppendStatus("assigned", "driver picked", time.Now())
	if err := db.Save(&order).Error; err != nil {
		t.Fatalf("save order failed: %v", err)
	}

	var loaded Order
	if err := db.First(&loaded, order.ID).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if len(loaded.StatusHistory) != 2 || loaded.StatusHistory[1].Notes != "driver picked" {
		t.Fatalf("status history not persisted: %+v", loaded.StatusHistory)
	}
	if loaded.ActualCost == nil || loaded.ActualCost.String() != "1500.50" {
		t.Fatalf("actual cost want 1500.50 got %v", loaded.ActualCost)
	}
}

func TestVehicleTotalRecomputedOnSave(t *testing.T) {
	db := openModelsTestDB(t)
	vehicle := Vehicle{UserID: 1, BusinessID: 1, NumberOfCars: 2, NumberOfBikes: 3, NumberOfVans: 1, TotalVehicles: 99}
	if err := db.Create(&vehicle).Error; err != nil {
		t.Fatalf("create vehicle failed: %v", err)
	}
	if vehicle.TotalVehicles != 6 {
		t.Fatalf("total want 6 got %d", vehicle.TotalVehicles)
	}
	vehicle.NumberOfVans = 4
	if err := db.Save(&vehicle).Error; err != nil {
		t.Fatalf("save vehicle failed: %v", err)
	}
	if vehicle.TotalVehicles != 9 {
		t.Fatalf("total want 9 got %d", vehicle.TotalVehicles)
	}
}

func TestMoneyJSONIsNumber(t *testing.T) {
	raw, err := json.Marshal(struct {
		Cost Money `json:"cost"`
	}{Cost: NewMoneyFromFloat(5000)})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(raw) != `{"cost":5000}` {
		t.Fatalf("want numeric money got %s", raw)
	}

	var decoded struct {
		Cost Money `json:"cost"`
	}
	if err := json.Unmarshal([]byte(`{"cost":"12.345"}`), &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.Cost.String() != "12.35" {
		t.Fatalf("want 12.35 got %s", decoded.Cost.String())
	}
	if err := json.Unmarshal([]byte(`{"cost":null}`), &decoded); err != nil {
		t.Fatalf("null unmarshal failed: %v", err)
	}
	if err := json.Unmarshal([]byte(`{"cost":"abc"}`), &decoded); err == nil {
		t.Fatalf("non numeric money should fail")
	}
}

func TestMoneyScanTreatsNullAsZero(t *testing.T) {
	m := NewMoneyFromFloat(10)
	if err := m.Scan(nil); err != nil {
		t.Fatalf("scan nil failed: %v", err)
	}
	if m.String() != "0.00" {
		t.Fatalf("null want 0.00 got %s", m.String())
	}
	if err := m.Scan("2500.456"); err != nil {
		t.Fatalf("scan string failed: %v", err)
	}
	if m.Float64() != 2500.46 {
		t.Fatalf("scan want 2500.46 got %v", m.Float64())
	}
}

func TestOpenDBRejectsBadInput(t *testing.T) {
	if _, err := OpenDB("mysql", "file::memory:", DBPoolConfig{}, false); err == nil {
		t.Fatalf("unsupported driver should fail")
	}
	if _, err := OpenDB("sqlite", "  ", DBPoolConfig{}, false); err == nil {
		t.Fatalf("empty dsn should fail")
	}
	db, err := OpenDB("SQLite", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()), DBPoolConfig{MaxOpenConns: 2, MaxIdleConns: 1}, true)
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db failed: %v", err)
	}
	if got := sqlDB.Stats().MaxOpenConnections; got != 2 {
		t.Fatalf("max open want 2 got %d", got)
	}
	_ = sqlDB.Close()
}
