package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/firesales-next/internal/models"
	"github.com/firesales-next/internal/repository"
	"github.com/firesales-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

func setupRouterTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:router_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Admin{}, &models.User{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

func decodeStatusCode(t *testing.T, body []byte) int {
	t.Helper()
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	return resp.StatusCode
}

func TestResolveAllowedOrigin(t *testing.T) {
	if got := resolveAllowedOrigin("https://a.example.com", []string{"*"}, false); got != "*" {
		t.Fatalf("wildcard without credentials want * got %q", got)
	}
	if got := resolveAllowedOrigin("https://a.example.com", []string{"*"}, true); got != "https://a.example.com" {
		t.Fatalf("wildcard with credentials want echoed origin got %q", got)
	}
	if got := resolveAllowedOrigin("https://A.Example.com", []string{"https://a.example.com"}, false); got != "https://A.Example.com" {
		t.Fatalf("allow-list match want echoed origin got %q", got)
	}
	if got := resolveAllowedOrigin("https://evil.example.com", []string{"https://a.example.com"}, false); got != "" {
		t.Fatalf("unmatched origin want empty got %q", got)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, getRequestID(c))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-123")
	r.ServeHTTP(w, req)

	if w.Body.String() != "req-123" {
		t.Fatalf("request id want req-123 got %q", w.Body.String())
	}
	if w.Header().Get("X-Request-ID") != "req-123" {
		t.Fatalf("response header want req-123 got %q", w.Header().Get("X-Request-ID"))
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	if w.Body.String() == "" {
		t.Fatal("generated request id should not be empty")
	}
	if w.Header().Get("X-Request-ID") != w.Body.String() {
		t.Fatal("generated request id should be echoed in response header")
	}
}

func TestAdminJWTAuthMiddlewareMissingSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupRouterTestDB(t)
	r := gin.New()
	r.Use(AdminJWTAuthMiddleware("", repository.NewAdminRepository(db)))
	r.GET("/secure", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if code := decodeStatusCode(t, w.Body.Bytes()); code != 401 {
		t.Fatalf("status_code want 401 got %d", code)
	}
}

func TestAdminJWTAuthMiddlewareMissingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupRouterTestDB(t)
	r := gin.New()
	r.Use(AdminJWTAuthMiddleware("test-secret", repository.NewAdminRepository(db)))
	r.GET("/secure", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	r.ServeHTTP(w, req)

	if code := decodeStatusCode(t, w.Body.Bytes()); code != 401 {
		t.Fatalf("status_code want 401 got %d", code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Basic abc")
	r.ServeHTTP(w, req)

	if code := decodeStatusCode(t, w.Body.Bytes()); code != 401 {
		t.Fatalf("status_code want 401 for malformed header got %d", code)
	}
}

func signAdminToken(t *testing.T, secret string, admin *models.Admin, tokenVersion uint64) string {
	t.Helper()
	claims := service.JWTClaims{
		AdminID:      admin.ID,
		Username:     admin.Username,
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token failed: %v", err)
	}
	return token
}

func TestAdminJWTAuthMiddlewareValidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupRouterTestDB(t)
	admin := &models.Admin{Username: "boss", PasswordHash: "x", TokenVersion: 3}
	if err := db.Create(admin).Error; err != nil {
		t.Fatalf("create admin failed: %v", err)
	}
	secret := "test-secret"

	r := gin.New()
	r.Use(AdminJWTAuthMiddleware(secret, repository.NewAdminRepository(db)))
	r.GET("/secure", func(c *gin.Context) {
		c.String(http.StatusOK, "%d", c.GetUint("admin_id"))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+signAdminToken(t, secret, admin, admin.TokenVersion))
	r.ServeHTTP(w, req)

	if w.Body.String() != fmt.Sprintf("%d", admin.ID) {
		t.Fatalf("admin_id want %d got %q", admin.ID, w.Body.String())
	}

	// 旧版本号的 Token 应被拒绝
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+signAdminToken(t, secret, admin, admin.TokenVersion-1))
	r.ServeHTTP(w, req)

	if code := decodeStatusCode(t, w.Body.Bytes()); code != 401 {
		t.Fatalf("status_code want 401 for stale token version got %d", code)
	}
}

func TestAgentJWTAuthMiddlewareDisabledAccount(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupRouterTestDB(t)
	user := &models.User{Email: "agent@example.com", PasswordHash: "x", Status: "disabled"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	secret := "test-secret"

	claims := service.AgentJWTClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token failed: %v", err)
	}

	r := gin.New()
	r.Use(AgentJWTAuthMiddleware(secret, repository.NewUserRepository(db)))
	r.GET("/secure", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if code := decodeStatusCode(t, w.Body.Bytes()); code != 401 {
		t.Fatalf("status_code want 401 for disabled account got %d", code)
	}
}
