package shared

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sharperly/logistics-api/internal/http/response"

	"github.com/gin-gonic/gin"
)

type bindTestRequest struct {
	FullName string `json:"fullName" binding:"required,min=2,max=100" msg:"Full name must be between 2 and 100 characters"`
	Email    string `json:"email" binding:"required,email"`
	Hotline  string `json:"businessHotline" binding:"omitempty,phone"`
}

func runBind(t *testing.T, body string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	var req bindTestRequest
	return w, BindJSON(c, &req)
}

func TestBindJSONFieldErrors(t *testing.T) {
	w, ok := runBind(t, `{"fullName":"A","email":"nope","businessHotline":"0123"}`)
	if ok {
		t.Fatalf("bind should fail")
	}
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status want 400 got %d", w.Code)
	}
	var body response.ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if body.Message != "Validation failed" || len(body.Errors) != 3 {
		t.Fatalf("unexpected body %+v", body)
	}
	got := map[string]string{}
	for _, item := range body.Errors {
		got[item.Field] = item.Message
	}
	if got["fullName"] != "Full name must be between 2 and 100 characters" {
		t.Fatalf("fullName message want tag message got %q", got["fullName"])
	}
	if got["email"] != "Please enter a valid email address" {
		t.Fatalf("email message got %q", got["email"])
	}
	if got["businessHotline"] != "Please enter a valid businessHotline" {
		t.Fatalf("hotline message got %q", got["businessHotline"])
	}
}

func TestBindJSONAcceptsValidBody(t *testing.T) {
	_, ok := runBind(t, `{"fullName":"Ada Obi","email":"ada@example.com","businessHotline":"+2348030000000"}`)
	if !ok {
		t.Fatalf("valid body should bind")
	}
}

func TestBindJSONEmptyBody(t *testing.T) {
	w, ok := runBind(t, ``)
	if ok || w.Code != http.StatusBadRequest {
		t.Fatalf("empty body want 400 got %d", w.Code)
	}
}

func TestIsValidPhone(t *testing.T) {
	cases := map[string]bool{
		"+2348030000000": true,
		"8030000000":     true,
		"0803":           false,
		"+":              false,
		"12a4":           false,
	}
	for input, want := range cases {
		if got := IsValidPhone(input); got != want {
			t.Fatalf("%q want %v got %v", input, want, got)
		}
	}
}

func TestQueryIntFallsBack(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?page=abc&limit=15", nil)
	if got := QueryInt(c, "page", 1); got != 1 {
		t.Fatalf("page want 1 got %d", got)
	}
	if got := QueryInt(c, "limit", 10); got != 15 {
		t.Fatalf("limit want 15 got %d", got)
	}
}

type nestedLocation struct {
	Address string `json:"address" binding:"required" msg:"Pickup address is required"`
}

type nestedBindRequest struct {
	Pickup nestedLocation `json:"pickupLocation" form:"-"`
	Name   string         `json:"name" form:"name" binding:"required"`
}

func TestValidateNestedFieldUsesPathAndTag(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","pickupLocation":{}}`))
	c.Request.Header.Set("Content-Type", "application/json")

	var req nestedBindRequest
	if !DecodeBody(c, &req) {
		t.Fatalf("decode should succeed")
	}
	if Validate(c, &req) {
		t.Fatalf("validate should fail")
	}
	var body response.ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if len(body.Errors) != 1 {
		t.Fatalf("want 1 error got %+v", body.Errors)
	}
	if body.Errors[0].Field != "pickupLocation.address" || body.Errors[0].Message != "Pickup address is required" {
		t.Fatalf("unexpected nested error %+v", body.Errors[0])
	}
}

func TestDecodeBodyReadsForm(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("name=Ada"))
	c.Request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var req nestedBindRequest
	if !DecodeBody(c, &req) {
		t.Fatalf("decode form failed: %s", w.Body.String())
	}
	if req.Name != "Ada" {
		t.Fatalf("name want Ada got %q", req.Name)
	}
}
