package repository

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/sharperly/logistics-api/internal/constants"
	"github.com/sharperly/logistics-api/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openRepositoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
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
		t.Fatalf("migrate dispatch models failed: %v", err)
	}
	return db
}

func setupDashboardRepositoryTest(t *testing.T) (*GormDashboardRepository, *gorm.DB) {
	t.Helper()
	db := openRepositoryTestDB(t)
	return NewDashboardRepository(db), db
}

type testOrderOption func(*models.Order)

func withCost(amount float64) testOrderOption {
	return func(o *models.Order) { o.ActualCost = models.MoneyPtr(amount) }
}

func withCreatedAt(at time.Time) testOrderOption {
	return func(o *models.Order) { o.CreatedAt = at }
}

func withDeliveredAt(at time.Time) testOrderOption {
	return func(o *models.Order) { o.ActualDeliveryDate = &at }
}

func withAddresses(pickup, delivery string) testOrderOption {
	return func(o *models.Order) {
		o.PickupLocation.Address = pickup
		o.DeliveryLocation.Address = delivery
	}
}

func createTestOrder(t *testing.T, db *gorm.DB, userID uint, status string, opts ...testOrderOption) *models.Order {
	t.Helper()
	order := &models.Order{
		UserID:           userID,
		BusinessID:       1,
		ItemsCount:       1,
		Quantity:         1,
		VehicleType:      constants.VehicleTypeBike,
		Status:           status,
		PickupLocation:   models.Location{Address: "Ikeja"},
		DeliveryLocation: models.Location{Address: "Yaba"},
	}
	for _, opt := range opts {
		opt(order)
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func TestGetOrderCountsAndRevenue(t *testing.T) {
	repo, db := setupDashboardRepositoryTest(t)
	createTestOrder(t, db, 1, constants.OrderStatusDelivered, withCost(5000))
	createTestOrder(t, db, 1, constants.OrderStatusPending)
	createTestOrder(t, db, 1, constants.OrderStatusInTransit)
	// 其他用户的数据不计入
	createTestOrder(t, db, 2, constants.OrderStatusDelivered, withCost(900))

	counts, err := repo.GetOrderCounts(1)
	if err != nil {
		t.Fatalf("get order counts failed: %v", err)
	}
	want := DashboardOrderCountsRow{Total: 3, Active: 1, Pending: 1, Successful: 1, Cancelled: 0}
	if counts != want {
		t.Fatalf("counts want %+v got %+v", want, counts)
	}

	revenue, err := repo.GetDeliveredRevenue(1)
	if err != nil {
		t.Fatalf("get revenue failed: %v", err)
	}
	if revenue != 5000 {
		t.Fatalf("revenue want 5000 got %v", revenue)
	}
}

func TestGetDeliveredRevenueExcludesMissingCostAndOtherStatuses(t *testing.T) {
	repo, db := setupDashboardRepositoryTest(t)
	createTestOrder(t, db, 1, constants.OrderStatusDelivered)
	createTestOrder(t, db, 1, constants.OrderStatusCancelled, withCost(700))
	createTestOrder(t, db, 1, constants.OrderStatusDelivered, withCost(250.5))

	revenue, err := repo.GetDeliveredRevenue(1)
	if err != nil {
		t.Fatalf("get revenue failed: %v", err)
	}
	if revenue != 250.5 {
		t.Fatalf("revenue want 250.5 got %v", revenue)
	}

	empty, err := repo.GetDeliveredRevenue(42)
	if err != nil {
		t.Fatalf("get empty revenue failed: %v", err)
	}
	if empty != 0 {
		t.Fatalf("empty revenue want 0 got %v", empty)
	}
}

func TestGetSalesBucketsByHour(t *testing.T) {
	repo, db := setupDashboardRepositoryTest(t)
	now := time.Now().UTC()
	early := now.Add(-5 * time.Hour)
	late := now.Add(-2 * time.Hour)
	createTestOrder(t, db, 1, constants.OrderStatusDelivered, withCost(100), withCreatedAt(late))
	createTestOrder(t, db, 1, constants.OrderStatusDelivered, withCost(300), withCreatedAt(late))
	createTestOrder(t, db, 1, constants.OrderStatusDelivered, withCost(50), withCreatedAt(early))
	createTestOrder(t, db, 1, constants.OrderStatusDelivered, withCost(999), withCreatedAt(now.Add(-30*time.Hour)))
	createTestOrder(t, db, 1, constants.OrderStatusPending, withCreatedAt(late))

	rows, err := repo.GetSalesBuckets(1, BucketHourOfDay, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("get sales buckets failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("bucket count want 2 got %d (%+v)", len(rows), rows)
	}
	byHour := map[int]DashboardSalesBucketRow{}
	for _, row := range rows {
		byHour[row.Bucket] = row
	}
	if got := byHour[late.Hour()]; got.TotalSales != 400 || got.OrderCount != 2 {
		t.Fatalf("late bucket want 400/2 got %+v", got)
	}
	if got := byHour[early.Hour()]; got.TotalSales != 50 || got.OrderCount != 1 {
		t.Fatalf("early bucket want 50/1 got %+v", got)
	}
	if !sort.SliceIsSorted(rows, func(i, j int) bool { return rows[i].Bucket < rows[j].Bucket }) {
		t.Fatalf("buckets should be ascending: %+v", rows)
	}
}

func TestGetStatusBucketsByDayOfWeek(t *testing.T) {
	repo, db := setupDashboardRepositoryTest(t)
	now := time.Now().UTC()
	yesterday := now.Add(-24 * time.Hour)
	createTestOrder(t, db, 1, constants.OrderStatusPending, withCreatedAt(now))
	createTestOrder(t, db, 1, constants.OrderStatusPending, withCreatedAt(now))
	createTestOrder(t, db, 1, constants.OrderStatusCancelled, withCreatedAt(yesterday))

	rows, err := repo.GetStatusBuckets(1, BucketDayOfWeek, now.Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("get status buckets failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("status rows want 2 got %d (%+v)", len(rows), rows)
	}
	for _, row := range rows {
		switch row.Status {
		case constants.OrderStatusPending:
			if row.Bucket != int(now.Weekday())+1 || row.Count != 2 {
				t.Fatalf("pending row want bucket %d count 2 got %+v", int(now.Weekday())+1, row)
			}
		case constants.OrderStatusCancelled:
			if row.Bucket != int(yesterday.Weekday())+1 || row.Count != 1 {
				t.Fatalf("cancelled row want bucket %d count 1 got %+v", int(yesterday.Weekday())+1, row)
			}
		default:
			t.Fatalf("unexpected status row %+v", row)
		}
	}
}

func TestGetAverageDeliveryDays(t *testing.T) {
	repo, db := setupDashboardRepositoryTest(t)
	now := time.Now().UTC()

	avg, samples, err := repo.GetAverageDeliveryDays(1)
	if err != nil {
		t.Fatalf("get empty average failed: %v", err)
	}
	if avg != 0 || samples != 0 {
		t.Fatalf("empty average want 0/0 got %v/%d", avg, samples)
	}

	createTestOrder(t, db, 1, constants.OrderStatusDelivered,
		withCreatedAt(now.Add(-72*time.Hour)), withDeliveredAt(now.Add(-36*time.Hour)))
	createTestOrder(t, db, 1, constants.OrderStatusDelivered,
		withCreatedAt(now.Add(-96*time.Hour)), withDeliveredAt(now.Add(-24*time.Hour)))
	// 无送达时间不计入
	createTestOrder(t, db, 1, constants.OrderStatusDelivered, withCreatedAt(now.Add(-96*time.Hour)))

	avg, samples, err = repo.GetAverageDeliveryDays(1)
	if err != nil {
		t.Fatalf("get average failed: %v", err)
	}
	if samples != 2 {
		t.Fatalf("samples want 2 got %d", samples)
	}
	if math.Abs(avg-2.25) > 0.001 {
		t.Fatalf("average want 2.25 got %v", avg)
	}
}

func TestOrderListHistoryFilter(t *testing.T) {
	db := openRepositoryTestDB(t)
	repo := NewOrderRepository(db)
	createTestOrder(t, db, 1, constants.OrderStatusDelivered, withAddresses("12 Allen Avenue, LAGOS", "Abuja"))
	createTestOrder(t, db, 1, constants.OrderStatusDelivered, withAddresses("Kano", "Victoria Island, lagos"))
	createTestOrder(t, db, 1, constants.OrderStatusPending, withAddresses("Lagos", "Lagos"))
	createTestOrder(t, db, 1, constants.OrderStatusDelivered, withAddresses("Kano", "Abuja"))
	createTestOrder(t, db, 2, constants.OrderStatusDelivered, withAddresses("Lagos", "Lagos"))

	orders, total, err := repo.List(OrderListFilter{
		UserID:   1,
		Status:   constants.OrderStatusDelivered,
		Search:   "Lagos",
		Page:     1,
		PageSize: 20,
	})
	if err != nil {
		t.Fatalf("list orders failed: %v", err)
	}
	if total != 2 || len(orders) != 2 {
		t.Fatalf("filtered orders want 2 got total=%d len=%d", total, len(orders))
	}
	for _, order := range orders {
		if order.Status != constants.OrderStatusDelivered {
			t.Fatalf("unexpected status %s", order.Status)
		}
	}

	all, total, err := repo.List(OrderListFilter{UserID: 1, Status: constants.StatusFilterAll, Page: 2, PageSize: 3})
	if err != nil {
		t.Fatalf("list all orders failed: %v", err)
	}
	if total != 4 || len(all) != 1 {
		t.Fatalf("page 2 want total=4 len=1 got total=%d len=%d", total, len(all))
	}
}

func TestOrderListSearchTreatsWildcardsLiterally(t *testing.T) {
	db := openRepositoryTestDB(t)
	repo := NewOrderRepository(db)
	createTestOrder(t, db, 1, constants.OrderStatusPending, withAddresses("100% Plaza", "Yaba"))
	createTestOrder(t, db, 1, constants.OrderStatusPending, withAddresses("1000 Plaza", "Yaba"))

	orders, total, err := repo.List(OrderListFilter{UserID: 1, Search: "100%", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list orders failed: %v", err)
	}
	if total != 1 || len(orders) != 1 || orders[0].PickupLocation.Address != "100% Plaza" {
		t.Fatalf("literal wildcard search want 1 match got total=%d", total)
	}
}

func TestOrderListPopulatesDriverSummary(t *testing.T) {
	db := openRepositoryTestDB(t)
	repo := NewOrderRepository(db)
	driver := &models.Driver{
		OwnerID:       1,
		FullName:      "Musa Bello",
		Email:         "musa@example.com",
		PhoneNumber:   "08030000000",
		ProfileImage:  "/uploads/musa.png",
		LicenseNumber: "LIC-1",
		VehicleType:   constants.VehicleTypeBike,
		Rating:        4.5,
		LicenseExpiry: time.Now().AddDate(1, 0, 0),
		VehicleDetails: models.DriverVehicle{
			PlateNumber: "LAG-001",
		},
	}
	if err := db.Create(driver).Error; err != nil {
		t.Fatalf("create driver failed: %v", err)
	}
	createTestOrder(t, db, 1, constants.OrderStatusAssigned, func(o *models.Order) { o.AssignedDriverID = &driver.ID })

	orders, _, err := repo.List(OrderListFilter{UserID: 1, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list orders failed: %v", err)
	}
	if len(orders) != 1 || orders[0].AssignedDriver == nil {
		t.Fatalf("expected assigned driver to be populated")
	}
	got := orders[0].AssignedDriver
	if got.FullName != "Musa Bello" || got.Rating != 4.5 || got.ProfileImage != "/uploads/musa.png" {
		t.Fatalf("unexpected driver summary %+v", got)
	}
	if got.Email != "" {
		t.Fatalf("driver summary should not load email, got %s", got.Email)
	}
}
