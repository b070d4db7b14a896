package service

import (
	"errors"
	"testing"

	"github.com/sharperly/logistics-api/internal/constants"
	"github.com/sharperly/logistics-api/internal/models"

	"gorm.io/gorm"
)

func setupBusinessServiceTest(t *testing.T) (*BusinessService, *gorm.DB) {
	t.Helper()
	db := openServiceTestDB(t)
	repos := newServiceTestRepos(db)
	return NewBusinessService(repos.users, repos.business, repos.vehicles), db
}

func sampleKYCInput(cac string) KYCInput {
	return KYCInput{
		BusinessName:          " Swift Logistics ",
		BusinessEmail:         "OPS@Swift.ng",
		Address:               models.Address{Street: "12 Allen Avenue", City: "Ikeja", State: "Lagos"},
		CACRegistrationNumber: cac,
		BusinessHotline:       "+2348030000000",
	}
}

func TestOnboardingFlow(t *testing.T) {
	svc, db := setupBusinessServiceTest(t)
	users := newServiceTestRepos(db).users
	user := createServiceTestUser(t, db, "owner@swift.ng")

	if _, err := svc.RegisterVehicles(user.ID, VehicleCountsInput{NumberOfCars: 1}); !errors.Is(err, ErrKYCRequired) {
		t.Fatalf("vehicles before kyc want ErrKYCRequired got %v", err)
	}
	if _, err := svc.CompleteOnboarding(user.ID); !errors.Is(err, ErrOnboardingIncomplete) {
		t.Fatalf("early onboarding want ErrOnboardingIncomplete got %v", err)
	}

	business, err := svc.SubmitKYC(user.ID, sampleKYCInput("RC1001"))
	if err != nil {
		t.Fatalf("submit kyc failed: %v", err)
	}
	if business.BusinessName != "Swift Logistics" || business.BusinessEmail != "ops@swift.ng" {
		t.Fatalf("kyc fields should be trimmed and normalized, got %+v", business)
	}
	if business.BusinessAddress.Country != constants.DefaultCountry || business.ProofOfAddress != constants.ProofOfAddressPending {
		t.Fatalf("kyc defaults missing, got %+v", business)
	}
	if _, err := svc.SubmitKYC(user.ID, sampleKYCInput("RC1002")); !errors.Is(err, ErrBusinessExists) {
		t.Fatalf("second kyc want ErrBusinessExists got %v", err)
	}
	has, err := svc.HasBusiness(user.ID)
	if err != nil || !has {
		t.Fatalf("has business want true got %v err=%v", has, err)
	}

	vehicle, err := svc.RegisterVehicles(user.ID, VehicleCountsInput{NumberOfDrivers: 3, NumberOfCars: 1, NumberOfBikes: 2, NumberOfVans: 1})
	if err != nil {
		t.Fatalf("register vehicles failed: %v", err)
	}
	if vehicle.TotalVehicles != 4 {
		t.Fatalf("total vehicles want 4 got %d", vehicle.TotalVehicles)
	}
	if _, err := svc.RegisterVehicles(user.ID, VehicleCountsInput{}); !errors.Is(err, ErrVehiclesExist) {
		t.Fatalf("second registration want ErrVehiclesExist got %v", err)
	}
	updated, err := svc.UpdateVehicles(user.ID, VehicleCountsInput{NumberOfCars: 5})
	if err != nil {
		t.Fatalf("update vehicles failed: %v", err)
	}
	if updated.TotalVehicles != 5 {
		t.Fatalf("recomputed total want 5 got %d", updated.TotalVehicles)
	}
	view, err := svc.GetVehicles(user.ID)
	if err != nil || view.BusinessName != "Swift Logistics" {
		t.Fatalf("vehicle view should carry business name, got %+v err=%v", view, err)
	}

	completed, err := svc.CompleteOnboarding(user.ID)
	if err != nil {
		t.Fatalf("complete onboarding failed: %v", err)
	}
	if !completed.HasCompletedOnboarding {
		t.Fatalf("onboarding flag should be set")
	}
	stored, err := users.GetByID(user.ID)
	if err != nil || stored == nil {
		t.Fatalf("load user failed: %v", err)
	}
	if !stored.HasCompletedKYC || !stored.HasCompletedVehicleRegistration || !stored.HasCompletedOnboarding {
		t.Fatalf("all onboarding flags should be persisted, got %+v", stored)
	}
}

func TestKYCUniqueCACAndPartialUpdate(t *testing.T) {
	svc, db := setupBusinessServiceTest(t)
	first := createServiceTestUser(t, db, "first@swift.ng")
	second := createServiceTestUser(t, db, "second@swift.ng")

	if _, err := svc.SubmitKYC(first.ID, sampleKYCInput("RC2001")); err != nil {
		t.Fatalf("submit kyc failed: %v", err)
	}
	if _, err := svc.SubmitKYC(second.ID, sampleKYCInput("RC2001")); !errors.Is(err, ErrCACExists) {
		t.Fatalf("duplicate cac want ErrCACExists got %v", err)
	}
	if _, err := svc.GetKYC(second.ID); !errors.Is(err, ErrBusinessNotFound) {
		t.Fatalf("missing kyc want ErrBusinessNotFound got %v", err)
	}
	if _, err := svc.SubmitKYC(second.ID, sampleKYCInput("RC2002")); err != nil {
		t.Fatalf("submit second kyc failed: %v", err)
	}

	taken := "RC2001"
	if _, err := svc.UpdateKYC(second.ID, KYCUpdateInput{CACRegistrationNumber: &taken}); !errors.Is(err, ErrCACExists) {
		t.Fatalf("update to taken cac want ErrCACExists got %v", err)
	}
	city := " Lekki "
	updated, err := svc.UpdateKYC(second.ID, KYCUpdateInput{City: &city, BusinessLogoURL: "/uploads/business-logo/x.png"})
	if err != nil {
		t.Fatalf("update kyc failed: %v", err)
	}
	if updated.BusinessAddress.City != "Lekki" || updated.BusinessAddress.Street != "12 Allen Avenue" {
		t.Fatalf("partial update should only touch city, got %+v", updated.BusinessAddress)
	}
	if updated.BusinessLogo != "/uploads/business-logo/x.png" || updated.CACRegistrationNumber != "RC2002" {
		t.Fatalf("unexpected business after update %+v", updated)
	}
}
