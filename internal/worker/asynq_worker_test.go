package worker

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sharperly/logistics-api/internal/config"
	"github.com/sharperly/logistics-api/internal/constants"
	"github.com/sharperly/logistics-api/internal/models"
	"github.com/sharperly/logistics-api/internal/provider"
	"github.com/sharperly/logistics-api/internal/queue"
	"github.com/sharperly/logistics-api/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

func setupWorkerTest(t *testing.T) (*Consumer, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Business{}, &models.Order{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewConsumer(&provider.Container{BusinessRepo: repository.NewBusinessRepository(db)}), db
}

func createWorkerBusiness(t *testing.T, db *gorm.DB, userID uint) *models.Business {
	t.Helper()
	business := &models.Business{
		UserID:                userID,
		BusinessName:          fmt.Sprintf("Fleet %d", userID),
		BusinessEmail:         fmt.Sprintf("fleet%d@example.com", userID),
		BusinessAddress:       models.Address{Street: "1 Marina", City: "Lagos", State: "Lagos"},
		CACRegistrationNumber: fmt.Sprintf("RC9%03d", userID),
		BusinessHotline:       "+2348030000000",
		VerificationStatus:    constants.VerificationStatusPending,
	}
	if err := db.Create(business).Error; err != nil {
		t.Fatalf("create business failed: %v", err)
	}
	return business
}

func createWorkerOrder(t *testing.T, db *gorm.DB, business *models.Business, status string) {
	t.Helper()
	order := &models.Order{
		UserID:           business.UserID,
		BusinessID:       business.ID,
		PickupLocation:   models.Location{Address: "Pickup"},
		DeliveryLocation: models.Location{Address: "Dropoff"},
		VehicleType:      constants.VehicleTypeBike,
		Status:           status,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
}

func loadBusiness(t *testing.T, db *gorm.DB, id uint) models.Business {
	t.Helper()
	var business models.Business
	if err := db.First(&business, id).Error; err != nil {
		t.Fatalf("load business failed: %v", err)
	}
	return business
}

func TestHandleBusinessCountersRefreshesOneBusiness(t *testing.T) {
	consumer, db := setupWorkerTest(t)
	business := createWorkerBusiness(t, db, 1)
	createWorkerOrder(t, db, business, constants.OrderStatusPending)
	createWorkerOrder(t, db, business, constants.OrderStatusDelivered)
	createWorkerOrder(t, db, business, constants.OrderStatusDelivered)

	task, err := queue.NewBusinessCountersTask(queue.BusinessCountersPayload{BusinessID: business.ID})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleBusinessCounters(context.Background(), task); err != nil {
		t.Fatalf("handle task failed: %v", err)
	}
	stored := loadBusiness(t, db, business.ID)
	if stored.TotalOrders != 3 || stored.CompletedOrders != 2 {
		t.Fatalf("counters want 3/2 got %d/%d", stored.TotalOrders, stored.CompletedOrders)
	}
}

func TestHandlersRejectMalformedPayloads(t *testing.T) {
	consumer, _ := setupWorkerTest(t)
	bad := asynq.NewTask(queue.TaskBusinessCounters, []byte("{"))
	if err := consumer.handleBusinessCounters(context.Background(), bad); err == nil {
		t.Fatalf("malformed counters payload should fail")
	}
	badEmail := asynq.NewTask(queue.TaskEmailVerifyCode, []byte("not json"))
	if err := consumer.handleEmailVerifyCode(context.Background(), badEmail); err == nil {
		t.Fatalf("malformed email payload should fail")
	}

	empty, err := queue.NewBusinessCountersTask(queue.BusinessCountersPayload{})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleBusinessCounters(context.Background(), empty); err != nil {
		t.Fatalf("zero business id should be skipped, got %v", err)
	}
}

func TestHandleEmailVerifyCodeWithoutEmailService(t *testing.T) {
	consumer, _ := setupWorkerTest(t)
	task, err := queue.NewEmailVerifyCodeTask(queue.EmailVerifyCodePayload{
		Email:   "dispatch@example.com",
		Code:    "123456",
		Purpose: constants.OTPPurposeVerifyEmail,
	})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleEmailVerifyCode(context.Background(), task); err != nil {
		t.Fatalf("missing email service should be skipped, got %v", err)
	}
}

func TestRefreshAllBusinessCountersWalksEveryBusiness(t *testing.T) {
	consumer, db := setupWorkerTest(t)
	first := createWorkerBusiness(t, db, 1)
	second := createWorkerBusiness(t, db, 2)
	createWorkerOrder(t, db, first, constants.OrderStatusDelivered)
	createWorkerOrder(t, db, second, constants.OrderStatusCancelled)
	createWorkerOrder(t, db, second, constants.OrderStatusInTransit)

	refreshed, err := consumer.refreshAllBusinessCounters(context.Background())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if refreshed != 2 {
		t.Fatalf("refreshed want 2 got %d", refreshed)
	}
	if got := loadBusiness(t, db, first.ID); got.TotalOrders != 1 || got.CompletedOrders != 1 {
		t.Fatalf("first counters want 1/1 got %d/%d", got.TotalOrders, got.CompletedOrders)
	}
	if got := loadBusiness(t, db, second.ID); got.TotalOrders != 2 || got.CompletedOrders != 0 {
		t.Fatalf("second counters want 2/0 got %d/%d", got.TotalOrders, got.CompletedOrders)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := consumer.refreshAllBusinessCounters(ctx); err == nil {
		t.Fatalf("cancelled context should stop the sweep")
	}
}

func TestCounterInterval(t *testing.T) {
	if got := counterInterval(0); got != defaultCounterInterval {
		t.Fatalf("zero minutes want %v got %v", defaultCounterInterval, got)
	}
	if got := counterInterval(2); got != 2*time.Minute {
		t.Fatalf("two minutes want 2m got %v", got)
	}
}

func TestNewServiceRequiresEnabledQueue(t *testing.T) {
	consumer, _ := setupWorkerTest(t)
	if _, err := NewService(&config.QueueConfig{Enabled: false}, consumer); err == nil {
		t.Fatalf("disabled queue should fail")
	}
	if _, err := NewService(&config.QueueConfig{Enabled: true}, nil); err == nil {
		t.Fatalf("nil consumer should fail")
	}
}

func TestBusinessCounterLoopStopsOnCancel(t *testing.T) {
	consumer, db := setupWorkerTest(t)
	business := createWorkerBusiness(t, db, 1)
	createWorkerOrder(t, db, business, constants.OrderStatusDelivered)

	svc := &Service{consumer: consumer, counterInterval: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.runBusinessCounterLoop(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		var current models.Business
		if err := db.First(&current, business.ID).Error; err == nil && current.TotalOrders == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("initial sweep did not refresh counters")
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("loop should exit after cancel")
	}
}
