package authz

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	return svc
}

func TestEnforceRoleWithGrantedPolicy(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("dispatcher", "/orders/:id", "GET"); err != nil {
		t.Fatalf("grant role policy failed: %v", err)
	}

	allow, err := svc.EnforceRole("dispatcher", "/api/orders/42", "get")
	if err != nil {
		t.Fatalf("enforce allow failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected allow=true")
	}

	allow, err = svc.EnforceRole("dispatcher", "/api/orders/42", "POST")
	if err != nil {
		t.Fatalf("enforce deny failed: %v", err)
	}
	if allow {
		t.Fatalf("expected allow=false")
	}

	if err := svc.RevokeRolePolicy("dispatcher", "/orders/:id", "GET"); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	allow, err = svc.EnforceRole("dispatcher", "/api/orders/42", "GET")
	if err != nil || allow {
		t.Fatalf("revoked policy should deny, allow=%v err=%v", allow, err)
	}
}

func TestNormalizeObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "/api/orders/:id", want: "/orders/:id"},
		{in: "/orders/:id", want: "/orders/:id"},
		{in: "users/profile", want: "/users/profile"},
		{in: "/api", want: "/"},
		{in: "", want: "/"},
	}
	for _, item := range cases {
		got := NormalizeObject(item.in)
		if got != item.want {
			t.Fatalf("normalize object failed, in=%q want=%q got=%q", item.in, item.want, got)
		}
	}
}

func TestBootstrapBuiltinRoles(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap should be idempotent: %v", err)
	}

	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	wantRoles := map[string]bool{
		"role:account": true,
		"role:user":    true,
		"role:driver":  true,
		"role:admin":   true,
	}
	for _, role := range roles {
		delete(wantRoles, role)
	}
	if len(wantRoles) != 0 {
		t.Fatalf("builtin roles missing: %v", wantRoles)
	}

	cases := []struct {
		role   string
		path   string
		method string
		allow  bool
	}{
		{"user", "/api/dashboard/stats", "GET", true},
		{"user", "/api/dashboard/history/export", "GET", true},
		{"user", "/api/business/kyc", "POST", true},
		{"user", "/api/auth/me", "GET", true},
		{"user", "/api/users", "GET", false},
		{"user", "/api/users/7/status", "PUT", false},
		{"driver", "/api/shipments/3/status", "PATCH", true},
		{"driver", "/api/shipments/3/rating", "POST", false},
		{"driver", "/api/dashboard/stats", "GET", false},
		{"driver", "/api/users/profile", "PUT", true},
		{"admin", "/api/users", "GET", true},
		{"admin", "/api/users/7/status", "PUT", true},
		{"admin", "/api/orders", "POST", true},
		{"ADMIN", "/api/auth/update-password", "PUT", true},
	}
	for _, tc := range cases {
		allow, err := svc.EnforceRole(tc.role, tc.path, tc.method)
		if err != nil {
			t.Fatalf("%s %s %s enforce failed: %v", tc.role, tc.method, tc.path, err)
		}
		if allow != tc.allow {
			t.Fatalf("%s %s %s want allow=%v got %v", tc.role, tc.method, tc.path, tc.allow, allow)
		}
	}

	policies, err := svc.GetImplicitRolePolicies("admin")
	if err != nil {
		t.Fatalf("implicit policies failed: %v", err)
	}
	own, err := svc.GetRolePolicies("admin")
	if err != nil {
		t.Fatalf("role policies failed: %v", err)
	}
	if len(policies) <= len(own) {
		t.Fatalf("implicit policies should include inherited ones, own=%d implicit=%d", len(own), len(policies))
	}
}

func TestDeleteRoleProtectsBuiltins(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}
	if err := svc.DeleteRole("admin"); !errors.Is(err, ErrImmutableRole) {
		t.Fatalf("delete admin want ErrImmutableRole got %v", err)
	}
	if err := svc.GrantRolePolicy("auditor", "/dashboard/*", "GET"); err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	if err := svc.DeleteRole("auditor"); err != nil {
		t.Fatalf("delete custom role failed: %v", err)
	}
	allow, err := svc.EnforceRole("auditor", "/api/dashboard/stats", "GET")
	if err != nil || allow {
		t.Fatalf("deleted role should deny, allow=%v err=%v", allow, err)
	}
}

func TestRoleNamesAndReservedAnchor(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if got, err := NormalizeRole(" Fleet Manager "); err != nil || got != "role:fleet_manager" {
		t.Fatalf("normalize want role:fleet_manager got %q (%v)", got, err)
	}
	if _, err := NormalizeRole("role:"); err == nil {
		t.Fatalf("bare prefix should be rejected")
	}
	if err := svc.GrantRolePolicy("__anchor__", "/orders", "GET"); err == nil {
		t.Fatalf("anchor role should be reserved")
	}
	if err := svc.GrantRolePolicy("auditor", "/orders", " "); err == nil {
		t.Fatalf("empty action should be rejected")
	}
	if err := svc.GrantRolePolicy("auditor", "/api/orders", "get"); err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	roles, err := svc.ListRoles()
	if err != nil || len(roles) != 1 || roles[0] != "role:auditor" {
		t.Fatalf("roles want [role:auditor] got %v (%v)", roles, err)
	}
	policies, err := svc.GetRolePolicies("auditor")
	if err != nil || len(policies) != 1 || policies[0].Object != "/orders" || policies[0].Action != "GET" {
		t.Fatalf("unexpected policies %+v (%v)", policies, err)
	}

	var missing *Service
	if _, err := missing.Enforce("role:user", "/orders", "GET"); err == nil {
		t.Fatalf("nil service should report unavailable")
	}
}
