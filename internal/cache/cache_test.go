package cache

import (
	"context"
	"testing"

	"github.com/sharperly/logistics-api/internal/config"
	"github.com/sharperly/logistics-api/internal/models"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	if err := InitRedis(&config.RedisConfig{Enabled: false}); err != nil {
		t.Fatalf("init disabled redis failed: %v", err)
	}
	if Enabled() {
		t.Fatalf("cache should be disabled")
	}
	ctx := context.Background()
	var dest map[string]interface{}
	hit, err := GetJSON(ctx, "missing", &dest)
	if hit || err != nil {
		t.Fatalf("disabled get want miss got hit=%v err=%v", hit, err)
	}
	if err := SetJSON(ctx, "k", map[string]int{"a": 1}, 0); err != nil {
		t.Fatalf("disabled set want nil got %v", err)
	}
	if err := InvalidateDashboard(ctx, 7); err != nil {
		t.Fatalf("disabled invalidate want nil got %v", err)
	}
}

func TestDashboardKeys(t *testing.T) {
	if got := DashboardStatsKey(3); got != "dashboard:3:stats" {
		t.Fatalf("stats key want dashboard:3:stats got %s", got)
	}
	if got := DashboardSalesKey(3, "30days"); got != "dashboard:3:sales:30days" {
		t.Fatalf("sales key want dashboard:3:sales:30days got %s", got)
	}
}

func TestBuildUserAuthState(t *testing.T) {
	user := &models.User{ID: 4, Role: "admin", IsActive: true, TokenVersion: 2}
	state := BuildUserAuthState(user)
	if state.UserID != 4 || state.Role != "admin" || !state.IsActive || state.TokenVersion != 2 {
		t.Fatalf("unexpected auth state: %+v", state)
	}
	if BuildUserAuthState(nil) != nil {
		t.Fatalf("nil user should give nil state")
	}
}

func TestUserAuthStateRejectReason(t *testing.T) {
	var missing *UserAuthState
	if got := missing.RejectReason(0); got != "No user found with this token" {
		t.Fatalf("nil state want missing user got %q", got)
	}
	state := BuildUserAuthState(&models.User{ID: 4, Role: "user", IsActive: true, TokenVersion: 2})
	if got := state.RejectReason(2); got != "" {
		t.Fatalf("matching version should pass, got %q", got)
	}
	if got := state.RejectReason(1); got != "Not authorized, token failed" {
		t.Fatalf("stale version want token failed got %q", got)
	}
	state.IsActive = false
	if got := state.RejectReason(2); got != "User account is deactivated" {
		t.Fatalf("inactive want deactivated got %q", got)
	}
}

func TestInitRedisBuildsPrefixedStore(t *testing.T) {
	t.Cleanup(func() { _ = Close() })
	if err := InitRedis(&config.RedisConfig{Enabled: true, Host: " ", Port: 0, Prefix: "fleet"}); err != nil {
		t.Fatalf("init redis failed: %v", err)
	}
	if !Enabled() || Client() == nil {
		t.Fatalf("cache should be enabled after init")
	}
	if got := Client().Options().Addr; got != "127.0.0.1:6379" {
		t.Fatalf("addr want 127.0.0.1:6379 got %s", got)
	}
	s := active.Load()
	if got := s.key(DashboardStatsKey(9)); got != "fleet:dashboard:9:stats" {
		t.Fatalf("key want fleet:dashboard:9:stats got %s", got)
	}
	if got := s.key("  "); got != "fleet" {
		t.Fatalf("blank key want prefix got %s", got)
	}

	if err := Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if Enabled() || Client() != nil {
		t.Fatalf("cache should be disabled after close")
	}
	if err := Ping(context.Background()); err != nil {
		t.Fatalf("disabled ping want nil got %v", err)
	}
}
