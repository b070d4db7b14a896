package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func TestKeyByIPAndJSONField(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth", strings.NewReader(`{"email":" Test@Example.com "}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.RemoteAddr = "1.2.3.4:5678"

	key := KeyByIPAndJSONField("email")(c)
	if key != "test@example.com|1.2.3.4" {
		t.Fatalf("key want test@example.com|1.2.3.4 got %s", key)
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		t.Fatalf("read body after key extraction failed: %v", err)
	}
	if !strings.Contains(string(body), "Test@Example.com") {
		t.Fatalf("request body should be restored after reading field")
	}
}

func TestRateLimitMiddlewareWithoutClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, KeyByIP))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("expected handler response body, got %s", w.Body.String())
	}
}

func TestRateLimitCounters(t *testing.T) {
	count, ttl, ok := rateLimitCounters([]int64{4, 57})
	if !ok || count != 4 || ttl != 57 {
		t.Fatalf("counters want 4/57 got %d/%d ok=%v", count, ttl, ok)
	}
	if _, _, ok := rateLimitCounters([]int64{1}); ok {
		t.Fatalf("short reply should be rejected")
	}
	if _, _, ok := rateLimitCounters(nil); ok {
		t.Fatalf("nil reply should be rejected")
	}
}

func TestReadJSONFieldIgnoresNonStrings(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":42}`))
	if got := readJSONField(c, "email"); got != "" {
		t.Fatalf("numeric field want empty got %q", got)
	}
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`not json`))
	if got := readJSONField(c, "email"); got != "" {
		t.Fatalf("invalid body want empty got %q", got)
	}
}

func TestRateLimitRuleEvaluate(t *testing.T) {
	rule := RateLimitRule{WindowSeconds: 60, MaxRequests: 2, BlockSeconds: 300}
	if verdict := rule.evaluate(2, 50); verdict.blocked {
		t.Fatalf("count at limit should pass")
	}
	verdict := rule.evaluate(3, 280)
	if !verdict.blocked || verdict.retryAfter != 280 {
		t.Fatalf("over limit want blocked retry 280 got %+v", verdict)
	}
	if verdict.message != defaultRateLimitMessage {
		t.Fatalf("empty message should fall back, got %q", verdict.message)
	}

	rule.Message = loginLimitMessage
	verdict = rule.evaluate(9, -1)
	if verdict.retryAfter != 60 || verdict.message != loginLimitMessage {
		t.Fatalf("missing ttl should use window, got %+v", verdict)
	}
}

func TestRateLimitRuleKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "9.8.7.6:1234"

	rule := RateLimitRule{Prefix: "sharperly:rate:global"}
	if got := rule.key(c, nil); got != "sharperly:rate:global:9.8.7.6" {
		t.Fatalf("key want ip fallback got %s", got)
	}
	blank := func(*gin.Context) string { return "  " }
	if got := (RateLimitRule{}).key(c, blank); got != "9.8.7.6" {
		t.Fatalf("blank key should fall back to ip, got %s", got)
	}
}

func TestRateLimitMiddlewareRedisUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 50 * time.Millisecond,
	})
	defer client.Close()

	r := gin.New()
	r.Use(RateLimitMiddleware(client, RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, KeyByIP))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status want 500 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), rateLimitUnavailableMsg) {
		t.Fatalf("body should carry unavailable message, got %s", w.Body.String())
	}
}
