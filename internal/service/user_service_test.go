package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/sharperly/logistics-api/internal/constants"

	"gorm.io/gorm"
)

func setupUserServiceTest(t *testing.T) (*UserService, *gorm.DB) {
	t.Helper()
	db := openServiceTestDB(t)
	repos := newServiceTestRepos(db)
	return NewUserService(repos.users, repos.business, repos.vehicles), db
}

func stringPtr(value string) *string {
	return &value
}

func TestUpdateProfileEmailChangeRequiresReverification(t *testing.T) {
	svc, db := setupUserServiceTest(t)
	user := createServiceTestUser(t, db, "me@example.com")
	createServiceTestUser(t, db, "other@example.com")

	if _, err := svc.UpdateProfile(user.ID, ProfileUpdateInput{Email: stringPtr("Other@example.com")}); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("taken email want ErrEmailExists got %v", err)
	}
	if _, err := svc.UpdateProfile(user.ID, ProfileUpdateInput{About: stringPtr(strings.Repeat("a", 501))}); !errors.Is(err, ErrAboutTooLong) {
		t.Fatalf("long about want ErrAboutTooLong got %v", err)
	}
	if _, err := svc.UpdateProfile(user.ID, ProfileUpdateInput{FullName: stringPtr("X")}); !errors.Is(err, ErrInvalidFullName) {
		t.Fatalf("short name want ErrInvalidFullName got %v", err)
	}

	same, err := svc.UpdateProfile(user.ID, ProfileUpdateInput{Email: stringPtr("ME@example.com"), About: stringPtr("Lagos dispatcher")})
	if err != nil {
		t.Fatalf("update profile failed: %v", err)
	}
	if !same.IsEmailVerified || same.About != "Lagos dispatcher" {
		t.Fatalf("same email must keep verification, got %+v", same)
	}

	changed, err := svc.UpdateProfile(user.ID, ProfileUpdateInput{Email: stringPtr("new@example.com")})
	if err != nil {
		t.Fatalf("update email failed: %v", err)
	}
	if changed.Email != "new@example.com" || changed.IsEmailVerified {
		t.Fatalf("changed email must be unverified, got %+v", changed)
	}
}

func TestProfileFlagsAndDeleteAccount(t *testing.T) {
	svc, db := setupUserServiceTest(t)
	user := createServiceTestUser(t, db, "gone@example.com")
	createServiceTestBusiness(t, db, user.ID, "RC3001")

	profile, business, err := svc.GetProfile(user.ID)
	if err != nil || profile == nil || business == nil {
		t.Fatalf("profile with business expected, err=%v", err)
	}
	skipped, err := svc.SkipCorporateInfo(user.ID)
	if err != nil || !skipped.SkippedCorporateInfo {
		t.Fatalf("skip corporate info failed: %v", err)
	}
	withImage, err := svc.UpdateProfileImage(user.ID, "/uploads/profile-image/2026/10/a.png")
	if err != nil || withImage.ProfileImage != "/uploads/profile-image/2026/10/a.png" {
		t.Fatalf("update profile image failed: %v", err)
	}

	if err := svc.DeleteAccount(user.ID); err != nil {
		t.Fatalf("delete account failed: %v", err)
	}
	if _, _, err := svc.GetProfile(user.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted user want ErrNotFound got %v", err)
	}
	var businesses int64
	if err := db.Table("businesses").Where("user_id = ?", user.ID).Count(&businesses).Error; err != nil {
		t.Fatalf("count businesses failed: %v", err)
	}
	if businesses != 0 {
		t.Fatalf("business should be deleted with account, got %d", businesses)
	}
}

func TestAdminListAndStatus(t *testing.T) {
	svc, db := setupUserServiceTest(t)
	active := createServiceTestUser(t, db, "active@example.com")
	inactive := createServiceTestUser(t, db, "inactive@example.com")
	admin := createServiceTestUser(t, db, "admin@example.com")
	if err := db.Model(admin).Update("role", constants.RoleAdmin).Error; err != nil {
		t.Fatalf("promote admin failed: %v", err)
	}

	if _, err := svc.UpdateUserStatus(inactive.ID, false); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	users, total, err := svc.ListUsers(UserListInput{Page: 1, PageSize: 20, Role: "all", Status: UserStatusInactive})
	if err != nil {
		t.Fatalf("list users failed: %v", err)
	}
	if total != 1 || len(users) != 1 || users[0].ID != inactive.ID {
		t.Fatalf("inactive filter want only user %d got total=%d", inactive.ID, total)
	}

	_, total, err = svc.ListUsers(UserListInput{Page: 1, PageSize: 20, Role: constants.RoleAdmin})
	if err != nil || total != 1 {
		t.Fatalf("role filter want 1 admin got %d err=%v", total, err)
	}
	_, total, err = svc.ListUsers(UserListInput{Page: 1, PageSize: 20, Search: "active@"})
	if err != nil || total != 2 {
		t.Fatalf("search want 2 matches got %d err=%v", total, err)
	}

	reactivated, err := svc.UpdateUserStatus(inactive.ID, true)
	if err != nil || !reactivated.IsActive {
		t.Fatalf("reactivate failed: %v", err)
	}
	if _, err := svc.UpdateUserStatus(9999, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing user want ErrNotFound got %v", err)
	}
	detail, business, err := svc.GetUserDetail(active.ID)
	if err != nil || detail.ID != active.ID || business != nil {
		t.Fatalf("detail without business expected, got business=%v err=%v", business, err)
	}
}
