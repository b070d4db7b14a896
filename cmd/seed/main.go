package main

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sharperly/logistics-api/internal/config"
	"github.com/sharperly/logistics-api/internal/constants"
	"github.com/sharperly/logistics-api/internal/logger"
	"github.com/sharperly/logistics-api/internal/models"
	"github.com/sharperly/logistics-api/internal/repository"
	"github.com/sharperly/logistics-api/internal/service"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	demoEmail    = "dispatcher@sharperly.demo"
	demoPassword = "Dispatch123"
)

type seedServices struct {
	orders    *service.OrderService
	shipments *service.ShipmentService
	drivers   *service.DriverService
}

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, false); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	var existing models.User
	err := models.DB.Where("email = ?", demoEmail).First(&existing).Error
	if err == nil {
		stdLog.Printf("Demo dispatcher already exists: %s", demoEmail)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		stdLog.Fatalf("Failed to look up demo dispatcher: %v", err)
	}

	db := models.DB
	orderRepo := repository.NewOrderRepository(db)
	shipmentRepo := repository.NewShipmentRepository(db)
	driverRepo := repository.NewDriverRepository(db)
	businessRepo := repository.NewBusinessRepository(db)
	userRepo := repository.NewUserRepository(db)
	svc := seedServices{
		orders:    service.NewOrderService(orderRepo, shipmentRepo, driverRepo, businessRepo, userRepo, nil),
		shipments: service.NewShipmentService(shipmentRepo, orderRepo, driverRepo, businessRepo, nil),
		drivers:   service.NewDriverService(driverRepo),
	}

	user := seedDispatcher(stdLog)
	seedFleet(stdLog, user)
	drivers := seedDrivers(stdLog, svc, user)
	seedOrders(stdLog, svc, user, drivers)

	stdLog.Printf("Seed completed, sign in with %s / %s", demoEmail, demoPassword)
}

func seedDispatcher(stdLog *log.Logger) *models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Fatalf("Failed to hash demo password: %v", err)
	}
	user := &models.User{
		FullName:               "Demo Dispatcher",
		Email:                  demoEmail,
		PasswordHash:           string(hash),
		Role:                   constants.RoleUser,
		IsEmailVerified:        true,
		IsActive:               true,
		HasCompletedOnboarding: true,
	}
	if err := models.DB.Create(user).Error; err != nil {
		stdLog.Fatalf("Failed to create demo dispatcher: %v", err)
	}
	stdLog.Printf("Created dispatcher: %s", user.Email)
	return user
}

func seedFleet(stdLog *log.Logger, user *models.User) {
	business := &models.Business{
		UserID:                user.ID,
		BusinessName:          "Swift Dispatch Ltd",
		BusinessEmail:         "ops@swiftdispatch.demo",
		BusinessAddress:       models.Address{Street: "12 Allen Avenue", City: "Ikeja", State: "Lagos", Country: "Nigeria", ZipCode: "100271"},
		CACRegistrationNumber: "RC1000001",
		BusinessHotline:       "+2348030000000",
		VerificationStatus:    constants.VerificationStatusPending,
	}
	if err := models.DB.Create(business).Error; err != nil {
		stdLog.Fatalf("Failed to create business: %v", err)
	}
	vehicle := &models.Vehicle{
		UserID:          user.ID,
		BusinessID:      business.ID,
		NumberOfDrivers: 3,
		NumberOfCars:    1,
		NumberOfBikes:   2,
		NumberOfVans:    1,
		IsActive:        true,
	}
	if err := models.DB.Create(vehicle).Error; err != nil {
		stdLog.Fatalf("Failed to create vehicles: %v", err)
	}
	stdLog.Printf("Created business %s with %d vehicles", business.BusinessName, vehicle.TotalVehicles)
}

func seedDrivers(stdLog *log.Logger, svc seedServices, user *models.User) []*models.Driver {
	inputs := []service.CreateDriverInput{
		{FullName: "Tunde Bakare", Email: "tunde@swiftdispatch.demo", PhoneNumber: "+2348031000001", LicenseNumber: "LAG-DRV-001", VehicleType: constants.VehicleTypeBike, VehicleDetails: models.DriverVehicle{Make: "Honda", Model: "Ace", Year: 2022, PlateNumber: "LSR-101AA"}, CurrentLocation: "Ikeja, Lagos"},
		{FullName: "Ngozi Okafor", Email: "ngozi@swiftdispatch.demo", PhoneNumber: "+2348031000002", LicenseNumber: "LAG-DRV-002", VehicleType: constants.VehicleTypeVan, VehicleDetails: models.DriverVehicle{Make: "Toyota", Model: "Hiace", Year: 2020, PlateNumber: "KJA-202BB"}, CurrentLocation: "Yaba, Lagos"},
		{FullName: "Musa Bello", Email: "musa@swiftdispatch.demo", PhoneNumber: "+2348031000003", LicenseNumber: "LAG-DRV-003", VehicleType: constants.VehicleTypeCar, VehicleDetails: models.DriverVehicle{Make: "Toyota", Model: "Corolla", Year: 2019, PlateNumber: "EKY-303CC"}, CurrentLocation: "Lekki, Lagos"},
	}
	drivers := make([]*models.Driver, 0, len(inputs))
	for _, input := range inputs {
		input.LicenseExpiry = time.Now().UTC().AddDate(2, 0, 0)
		driver, err := svc.drivers.Create(user.ID, input)
		if err != nil {
			stdLog.Fatalf("Failed to create driver %s: %v", input.Email, err)
		}
		stdLog.Printf("Created driver: %s", driver.FullName)
		drivers = append(drivers, driver)
	}
	return drivers
}

// seedOrders 每个司机完成一单并留一单待派
func seedOrders(stdLog *log.Logger, svc seedServices, user *models.User, drivers []*models.Driver) {
	deliveries := []string{"Admiralty Way, Lekki", "Allen Avenue, Ikeja", "Herbert Macaulay Way, Yaba"}
	for i, driver := range drivers {
		order, err := svc.orders.Create(user.ID, service.CreateOrderInput{
			ItemsCount:       i + 1,
			Quantity:         i + 2,
			Description:      fmt.Sprintf("Demo parcel %d", i+1),
			PickupLocation:   models.Location{Address: "5 Broad Street, Lagos Island", ContactPhone: "+2348030000001"},
			DeliveryLocation: models.Location{Address: deliveries[i%len(deliveries)]},
			VehicleType:      driver.VehicleType,
			EstimatedCost:    float64(3500 + i*1500),
		})
		if err != nil {
			stdLog.Fatalf("Failed to create order: %v", err)
		}
		_, shipment, err := svc.orders.Assign(user.ID, order.ID, driver.ID)
		if err != nil {
			stdLog.Fatalf("Failed to assign order %s: %v", order.OrderNumber, err)
		}
		for _, status := range []string{constants.DispatchStatusDispatched, constants.DispatchStatusInTransit, constants.DispatchStatusDelivered} {
			if _, err := svc.shipments.UpdateStatus(user, shipment.ID, service.ShipmentStatusInput{DispatchStatus: status}); err != nil {
				stdLog.Fatalf("Failed to move shipment %d to %s: %v", shipment.ID, status, err)
			}
		}
		if _, err := svc.shipments.Rate(user, shipment.ID, service.ShipmentRatingInput{CustomerRating: 5 - i%2, CustomerReview: "Smooth delivery"}); err != nil {
			stdLog.Printf("Failed to rate shipment %d: %v", shipment.ID, err)
		}
		stdLog.Printf("Delivered order %s with %s", order.OrderNumber, driver.FullName)
	}

	pending, err := svc.orders.Create(user.ID, service.CreateOrderInput{
		ItemsCount:       1,
		Quantity:         1,
		Description:      "Awaiting dispatch",
		PickupLocation:   models.Location{Address: "Tejuosho Market, Yaba"},
		DeliveryLocation: models.Location{Address: "Ozumba Mbadiwe Avenue, Victoria Island"},
		VehicleType:      constants.VehicleTypeBike,
		EstimatedCost:    2500,
	})
	if err != nil {
		stdLog.Fatalf("Failed to create pending order: %v", err)
	}
	stdLog.Printf("Created pending order %s", pending.OrderNumber)
}
