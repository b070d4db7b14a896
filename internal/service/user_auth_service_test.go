package service

import (
	"errors"
	"testing"

	"github.com/sharperly/logistics-api/internal/constants"

	"gorm.io/gorm"
)

func setupUserAuthServiceTest(t *testing.T) (*UserAuthService, *fakeCodeSender, *gorm.DB) {
	t.Helper()
	db := openServiceTestDB(t)
	repos := newServiceTestRepos(db)
	sender := &fakeCodeSender{}
	return NewUserAuthService(newServiceTestConfig(), repos.users, sender, nil), sender, db
}

func wrongCode(code string) string {
	if code == "999999" {
		return "111111"
	}
	return "999999"
}

func TestRegisterThenVerifyEmailIssuesToken(t *testing.T) {
	svc, sender, db := setupUserAuthServiceTest(t)

	user, emailSent, err := svc.Register(RegisterInput{
		FullName:        "Chidi Nwosu",
		Email:           " Chidi@Example.com ",
		Password:        "Dispatch1",
		ConfirmPassword: "Dispatch1",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if !emailSent {
		t.Fatalf("verification email should be reported as sent")
	}
	if user.Email != "chidi@example.com" {
		t.Fatalf("email want normalized got %s", user.Email)
	}
	sent := sender.last(t)
	if len(sent.code) != 6 || sent.purpose != constants.OTPPurposeVerifyEmail {
		t.Fatalf("unexpected verify code delivery: %+v", sent)
	}

	stored, err := newServiceTestRepos(db).users.GetByID(user.ID)
	if err != nil || stored == nil {
		t.Fatalf("load user failed: %v", err)
	}
	if stored.EmailVerificationCode != hashVerifyCode(sent.code) {
		t.Fatalf("verification code must be stored hashed")
	}

	if _, err := svc.VerifyEmail(wrongCode(sent.code), ""); !errors.Is(err, ErrVerifyCodeInvalid) {
		t.Fatalf("wrong code want ErrVerifyCodeInvalid got %v", err)
	}
	if _, err := svc.VerifyEmail(sent.code, "someone@example.com"); !errors.Is(err, ErrVerifyCodeInvalid) {
		t.Fatalf("mismatched email want ErrVerifyCodeInvalid got %v", err)
	}
	result, err := svc.VerifyEmail(sent.code, "chidi@example.com")
	if err != nil {
		t.Fatalf("verify email failed: %v", err)
	}
	if !result.User.IsEmailVerified || result.Token == "" {
		t.Fatalf("verified user with token expected, got %+v", result)
	}
	claims, err := svc.ParseUserJWT(result.Token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("token user want %d got %d", user.ID, claims.UserID)
	}
	if _, err := svc.VerifyEmail(sent.code, ""); !errors.Is(err, ErrVerifyCodeInvalid) {
		t.Fatalf("verification code must be single-use, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, db := setupUserAuthServiceTest(t)
	createServiceTestUser(t, db, "taken@example.com")

	cases := []struct {
		name  string
		input RegisterInput
		want  error
	}{
		{
			name:  "short name",
			input: RegisterInput{FullName: "A", Email: "a@example.com", Password: "Dispatch1", ConfirmPassword: "Dispatch1"},
			want:  ErrInvalidFullName,
		},
		{
			name:  "bad email",
			input: RegisterInput{FullName: "Ada", Email: "not-an-email", Password: "Dispatch1", ConfirmPassword: "Dispatch1"},
			want:  ErrInvalidEmail,
		},
		{
			name:  "mismatch",
			input: RegisterInput{FullName: "Ada", Email: "a@example.com", Password: "Dispatch1", ConfirmPassword: "Dispatch2"},
			want:  ErrPasswordMismatch,
		},
		{
			name:  "weak",
			input: RegisterInput{FullName: "Ada", Email: "a@example.com", Password: "dispatch", ConfirmPassword: "dispatch"},
			want:  ErrWeakPassword,
		},
		{
			name:  "taken",
			input: RegisterInput{FullName: "Ada", Email: "TAKEN@example.com", Password: "Dispatch1", ConfirmPassword: "Dispatch1"},
			want:  ErrEmailExists,
		},
	}
	for _, tc := range cases {
		if _, _, err := svc.Register(tc.input); !errors.Is(err, tc.want) {
			t.Fatalf("%s: want %v got %v", tc.name, tc.want, err)
		}
	}

	_, _, err := svc.Register(RegisterInput{FullName: "Ada", Email: "b@example.com", Password: "dispatch1", ConfirmPassword: "dispatch1"})
	msg, ok := PasswordPolicyMessage(err)
	if !ok || msg != "Password must contain at least one uppercase letter" {
		t.Fatalf("policy message want uppercase rule got %q ok=%v", msg, ok)
	}
}

func TestRegisterSucceedsWhenEmailDeliveryFails(t *testing.T) {
	svc, sender, _ := setupUserAuthServiceTest(t)
	sender.err = ErrEmailServiceNotConfigured

	user, emailSent, err := svc.Register(RegisterInput{
		FullName:        "Bola Ade",
		Email:           "bola@example.com",
		Password:        "Dispatch1",
		ConfirmPassword: "Dispatch1",
	})
	if err != nil {
		t.Fatalf("register should succeed, got %v", err)
	}
	if emailSent || user == nil || user.ID == 0 {
		t.Fatalf("want created user with emailSent=false, got sent=%v user=%+v", emailSent, user)
	}
}

func TestLoginChecks(t *testing.T) {
	svc, _, db := setupUserAuthServiceTest(t)
	repos := newServiceTestRepos(db)
	user := createServiceTestUser(t, db, "ops@example.com")

	if _, err := svc.Login("ops@example.com", "WrongPass1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password want ErrInvalidCredentials got %v", err)
	}
	if _, err := svc.Login("ghost@example.com", testUserPassword); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email want ErrInvalidCredentials got %v", err)
	}

	result, err := svc.Login("OPS@example.com", testUserPassword)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if result.User.LastLogin == nil || result.Token == "" {
		t.Fatalf("login should record last login and issue token")
	}

	if err := repos.users.UpdateFields(user.ID, map[string]interface{}{"is_email_verified": false}); err != nil {
		t.Fatalf("update user failed: %v", err)
	}
	if _, err := svc.Login("ops@example.com", testUserPassword); !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("unverified want ErrEmailNotVerified got %v", err)
	}

	if err := repos.users.UpdateFields(user.ID, map[string]interface{}{"is_active": false}); err != nil {
		t.Fatalf("update user failed: %v", err)
	}
	if _, err := svc.Login("ops@example.com", testUserPassword); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("inactive want ErrUserDisabled got %v", err)
	}
}

func TestResendVerificationThrottle(t *testing.T) {
	svc, sender, db := setupUserAuthServiceTest(t)
	user, _, err := svc.Register(RegisterInput{
		FullName:        "Kemi Ola",
		Email:           "kemi@example.com",
		Password:        "Dispatch1",
		ConfirmPassword: "Dispatch1",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := svc.ResendVerification(user.ID); !errors.Is(err, ErrVerifyCodeTooFrequent) {
		t.Fatalf("immediate resend want ErrVerifyCodeTooFrequent got %v", err)
	}

	svc.cfg.Email.VerifyCode.SendIntervalSeconds = 0
	if err := svc.ResendVerification(user.ID); err != nil {
		t.Fatalf("resend failed: %v", err)
	}
	sent := sender.last(t)
	if sent.purpose != constants.OTPPurposeResendVerification {
		t.Fatalf("purpose want %s got %s", constants.OTPPurposeResendVerification, sent.purpose)
	}

	verified := createServiceTestUser(t, db, "done@example.com")
	if err := svc.ResendVerification(verified.ID); !errors.Is(err, ErrEmailAlreadyVerified) {
		t.Fatalf("verified user want ErrEmailAlreadyVerified got %v", err)
	}
	if err := svc.ResendVerification(9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing user want ErrNotFound got %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	svc, sender, db := setupUserAuthServiceTest(t)
	user := createServiceTestUser(t, db, "reset@example.com")

	if err := svc.ForgotPassword("nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown email want ErrNotFound got %v", err)
	}
	if err := svc.ForgotPassword("reset@example.com"); err != nil {
		t.Fatalf("forgot password failed: %v", err)
	}
	sent := sender.last(t)
	if sent.purpose != constants.OTPPurposeResetPassword {
		t.Fatalf("purpose want %s got %s", constants.OTPPurposeResetPassword, sent.purpose)
	}
	if err := svc.VerifyResetCode(sent.code); err != nil {
		t.Fatalf("verify reset code failed: %v", err)
	}
	if err := svc.VerifyResetCode(wrongCode(sent.code)); !errors.Is(err, ErrVerifyCodeInvalid) {
		t.Fatalf("wrong reset code want ErrVerifyCodeInvalid got %v", err)
	}

	result, err := svc.ResetPassword(sent.code, "Fresh123", "Fresh123")
	if err != nil {
		t.Fatalf("reset password failed: %v", err)
	}
	if result.User.TokenVersion != user.TokenVersion+1 {
		t.Fatalf("token version want %d got %d", user.TokenVersion+1, result.User.TokenVersion)
	}
	if err := svc.VerifyResetCode(sent.code); !errors.Is(err, ErrVerifyCodeInvalid) {
		t.Fatalf("reset code must be cleared, got %v", err)
	}
	if _, err := svc.Login("reset@example.com", "Fresh123"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
}

func TestForgotPasswordClearsCodeWhenDeliveryFails(t *testing.T) {
	svc, sender, db := setupUserAuthServiceTest(t)
	user := createServiceTestUser(t, db, "fail@example.com")
	sender.err = ErrEmailRecipientRejected

	if err := svc.ForgotPassword("fail@example.com"); !errors.Is(err, ErrEmailRecipientRejected) {
		t.Fatalf("delivery failure want ErrEmailRecipientRejected got %v", err)
	}
	stored, err := newServiceTestRepos(db).users.GetByID(user.ID)
	if err != nil || stored == nil {
		t.Fatalf("load user failed: %v", err)
	}
	if stored.PasswordResetCode != "" || stored.PasswordResetExpire != nil {
		t.Fatalf("reset code should be cleared after failed delivery")
	}
}

func TestChangePassword(t *testing.T) {
	svc, _, db := setupUserAuthServiceTest(t)
	user := createServiceTestUser(t, db, "change@example.com")

	if _, err := svc.ChangePassword(user.ID, "Nope1234", "Another1"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("wrong current password want ErrInvalidPassword got %v", err)
	}
	if _, err := svc.ChangePassword(user.ID, testUserPassword, "short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("weak new password want ErrWeakPassword got %v", err)
	}
	result, err := svc.ChangePassword(user.ID, testUserPassword, "Another1")
	if err != nil {
		t.Fatalf("change password failed: %v", err)
	}
	claims, err := svc.ParseUserJWT(result.Token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.TokenVersion != 1 {
		t.Fatalf("token version want 1 got %d", claims.TokenVersion)
	}
}
