package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sharperly/logistics-api/internal/authz"
	"github.com/sharperly/logistics-api/internal/constants"
	handlershared "github.com/sharperly/logistics-api/internal/http/handlers/shared"
	"github.com/sharperly/logistics-api/internal/models"
	"github.com/sharperly/logistics-api/internal/provider"
	"github.com/sharperly/logistics-api/internal/repository"
	"github.com/sharperly/logistics-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAdminHandlerTest(t *testing.T) (*gin.Engine, *gorm.DB, *models.User) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Business{}, &models.Vehicle{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	authzService, err := authz.NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap roles failed: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	h := New(&provider.Container{
		UserRepo:     userRepo,
		AuthzService: authzService,
		UserService:  service.NewUserService(userRepo, repository.NewBusinessRepository(db), repository.NewVehicleRepository(db)),
	})

	admin := createAdminTestUser(t, db, "admin@sharperly.test", constants.RoleAdmin)

	r := gin.New()
	secured := r.Group("", func(c *gin.Context) {
		c.Set(handlershared.ContextUserIDKey, admin.ID)
		c.Set("request_id", "req-admin")
		c.Next()
	})
	secured.GET("/users", h.GetAdminUsers)
	secured.GET("/users/:id", h.GetAdminUser)
	secured.PUT("/users/:id/status", h.UpdateAdminUserStatus)
	secured.GET("/admin/authz/roles", h.ListAuthzRoles)
	secured.GET("/admin/authz/roles/:role/policies", h.GetAuthzRolePolicies)
	secured.POST("/admin/authz/policies", h.GrantAuthzPolicy)
	secured.DELETE("/admin/authz/policies", h.RevokeAuthzPolicy)
	secured.DELETE("/admin/authz/roles/:role", h.DeleteAuthzRole)
	return r, db, admin
}

func createAdminTestUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()
	user := &models.User{
		FullName:        "Operator " + role,
		Email:           email,
		PasswordHash:    "hash",
		Role:            role,
		IsEmailVerified: true,
		IsActive:        true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func serveAdmin(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var raw []byte
	if body != nil {
		var err error
		if raw, err = json.Marshal(body); err != nil {
			t.Fatalf("marshal body failed: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var decoded map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode response failed: %v body=%s", err, w.Body.String())
	}
	return w, decoded
}

func TestAdminUserStatusHandlers(t *testing.T) {
	r, db, admin := setupAdminHandlerTest(t)
	target := createAdminTestUser(t, db, "dispatcher@sharperly.test", constants.RoleUser)

	w, body := serveAdmin(t, r, http.MethodGet, "/users?limit=1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list users want 200 got %d", w.Code)
	}
	pagination, _ := body["pagination"].(map[string]interface{})
	if pagination["totalUsers"] != float64(2) || pagination["hasNext"] != true {
		t.Fatalf("unexpected pagination %v", pagination)
	}

	if w, _ = serveAdmin(t, r, http.MethodGet, "/users/abc", nil); w.Code != http.StatusNotFound {
		t.Fatalf("bad id want 404 got %d", w.Code)
	}
	if w, _ = serveAdmin(t, r, http.MethodGet, "/users/9999", nil); w.Code != http.StatusNotFound {
		t.Fatalf("missing user want 404 got %d", w.Code)
	}

	w, body = serveAdmin(t, r, http.MethodPut, fmt.Sprintf("/users/%d/status", admin.ID), gin.H{"isActive": false})
	if w.Code != http.StatusBadRequest || body["message"] != "You cannot deactivate your own account" {
		t.Fatalf("self deactivation want 400 got %d %v", w.Code, body["message"])
	}

	w, body = serveAdmin(t, r, http.MethodPut, fmt.Sprintf("/users/%d/status", target.ID), gin.H{"isActive": false})
	if w.Code != http.StatusOK || body["message"] != "User deactivated successfully" {
		t.Fatalf("deactivate want 200 got %d %v", w.Code, body["message"])
	}
	var stored models.User
	if err := db.First(&stored, target.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if stored.IsActive {
		t.Fatalf("target user should be inactive")
	}

	if w, _ = serveAdmin(t, r, http.MethodPut, fmt.Sprintf("/users/%d/status", target.ID), gin.H{}); w.Code != http.StatusBadRequest {
		t.Fatalf("missing isActive want 400 got %d", w.Code)
	}
}

func TestAdminAuthzHandlers(t *testing.T) {
	r, _, _ := setupAdminHandlerTest(t)

	w, body := serveAdmin(t, r, http.MethodPost, "/admin/authz/policies", gin.H{"role": "auditor", "object": "/api/dashboard/*", "action": "get"})
	if w.Code != http.StatusOK {
		t.Fatalf("grant want 200 got %d %v", w.Code, body)
	}

	w, body = serveAdmin(t, r, http.MethodGet, "/admin/authz/roles", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("roles want 200 got %d", w.Code)
	}
	roles, _ := body["roles"].([]interface{})
	immutable := map[string]bool{}
	for _, item := range roles {
		entry := item.(map[string]interface{})
		immutable[entry["role"].(string)] = entry["immutable"].(bool)
	}
	if !immutable["role:admin"] || immutable["role:auditor"] {
		t.Fatalf("unexpected role flags %v", immutable)
	}

	w, body = serveAdmin(t, r, http.MethodGet, "/admin/authz/roles/auditor/policies", nil)
	policies, _ := body["policies"].([]interface{})
	if w.Code != http.StatusOK || len(policies) != 1 {
		t.Fatalf("auditor policies want 1 got %d (%d)", len(policies), w.Code)
	}

	w, body = serveAdmin(t, r, http.MethodGet, "/admin/authz/roles/admin/policies?implicit=true", nil)
	implicit, _ := body["policies"].([]interface{})
	_, direct := serveAdmin(t, r, http.MethodGet, "/admin/authz/roles/admin/policies", nil)
	if w.Code != http.StatusOK || len(implicit) <= len(direct["policies"].([]interface{})) {
		t.Fatalf("implicit policies should include inherited ones")
	}

	if w, body = serveAdmin(t, r, http.MethodDelete, "/admin/authz/roles/admin", nil); w.Code != http.StatusBadRequest || body["message"] != "Built-in roles cannot be deleted" {
		t.Fatalf("builtin delete want 400 got %d %v", w.Code, body["message"])
	}
	if w, _ = serveAdmin(t, r, http.MethodDelete, "/admin/authz/policies", gin.H{"role": "auditor", "object": "/dashboard/*", "action": "GET"}); w.Code != http.StatusOK {
		t.Fatalf("revoke want 200 got %d", w.Code)
	}
	if w, _ = serveAdmin(t, r, http.MethodDelete, "/admin/authz/roles/auditor", nil); w.Code != http.StatusOK {
		t.Fatalf("delete custom role want 200 got %d", w.Code)
	}
	if w, _ = serveAdmin(t, r, http.MethodPost, "/admin/authz/policies", gin.H{"role": "auditor"}); w.Code != http.StatusBadRequest {
		t.Fatalf("incomplete grant want 400 got %d", w.Code)
	}
}
