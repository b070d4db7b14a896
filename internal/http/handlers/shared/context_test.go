package shared

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sharperly/logistics-api/internal/models"

	"github.com/gin-gonic/gin"
)

func TestCurrentUserUsesLazyLoaderOnce(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	calls := 0
	c.Set(ContextUserIDKey, uint(7))
	c.Set(ContextUserLoaderKey, UserLoader(func(id uint) (*models.User, error) {
		calls++
		user := &models.User{FullName: "Ada"}
		user.ID = id
		return user, nil
	}))

	user, ok := CurrentUser(c)
	if !ok || user.ID != 7 {
		t.Fatalf("lazy user want id 7 got %+v ok=%v", user, ok)
	}
	if _, ok := CurrentUser(c); !ok {
		t.Fatalf("second lookup should succeed")
	}
	if calls != 1 {
		t.Fatalf("loader calls want 1 got %d", calls)
	}
}

func TestCurrentUserLoaderFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Set(ContextUserIDKey, uint(9))
	c.Set(ContextUserLoaderKey, UserLoader(func(uint) (*models.User, error) {
		return nil, errors.New("record not found")
	}))

	if _, ok := CurrentUser(c); ok {
		t.Fatalf("failed loader should not yield a user")
	}
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status want 401 got %d", w.Code)
	}
}

func TestCurrentUserMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	if _, ok := CurrentUser(c); ok {
		t.Fatalf("missing user should fail")
	}
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status want 401 got %d", w.Code)
	}
}
