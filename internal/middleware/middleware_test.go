package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "middleware-test-secret"

func signed(t *testing.T, claims jwt.MapClaims, method jwt.SigningMethod) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	api := r.Group("/api", JWTAuth(testSecret))
	api.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"uid": c.GetString("user_id"), "company": c.GetString("company_id")})
	})
	api.GET("/admin", RequireRole("catalog_manager"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	api.POST("/prices", RequirePermission("catalog:write"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestJWTAuth(t *testing.T) {
	r := newRouter()
	valid := signed(t, jwt.MapClaims{
		"uid":        "u-1",
		"company_id": "co-1",
		"roles":      []string{"sales"},
		"exp":        time.Now().Add(time.Hour).Unix(),
	}, jwt.SigningMethodHS256)
	expired := signed(t, jwt.MapClaims{"uid": "u-1", "company_id": "co-1", "exp": time.Now().Add(-time.Hour).Unix()}, jwt.SigningMethodHS256)
	noCompany := signed(t, jwt.MapClaims{"uid": "u-1", "exp": time.Now().Add(time.Hour).Unix()}, jwt.SigningMethodHS256)

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"missing", "/api/me", "", http.StatusUnauthorized},
		{"bearer", "/api/me", "Bearer " + valid, http.StatusOK},
		{"query_token", "/api/me?token=" + valid, "", http.StatusOK},
		{"expired", "/api/me", "Bearer " + expired, http.StatusUnauthorized},
		{"garbage", "/api/me", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"no_company", "/api/me", "Bearer " + noCompany, http.StatusUnauthorized},
		{"basic_scheme", "/api/me", "Basic " + valid, http.StatusUnauthorized},
		{"role_denied", "/api/admin", "Bearer " + valid, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("Expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
			if w.Header().Get("X-Request-ID") == "" {
				t.Errorf("missing X-Request-ID")
			}
		})
	}
}

func TestRequireRole_AdminBypass(t *testing.T) {
	r := newRouter()
	token := signed(t, jwt.MapClaims{
		"uid":        "u-2",
		"company_id": "co-1",
		"roles":      []string{AdminRole},
		"exp":        time.Now().Add(time.Hour).Unix(),
	}, jwt.SigningMethodHS256)

	req := httptest.NewRequest(http.MethodGet, "/api/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
}

func TestRequirePermission(t *testing.T) {
	r := newRouter()
	tests := []struct {
		name  string
		perms []string
		want  int
	}{
		{"exact", []string{"catalog:read", "catalog:write"}, http.StatusOK},
		{"wildcard", []string{"*"}, http.StatusOK},
		{"domain_wildcard", []string{"catalog:*"}, http.StatusOK},
		{"other_domain", []string{"delivery:*"}, http.StatusForbidden},
		{"missing", []string{"catalog:read"}, http.StatusForbidden},
		{"none", nil, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := signed(t, jwt.MapClaims{
				"uid":        "u-3",
				"company_id": "co-1",
				"perms":      tt.perms,
				"exp":        time.Now().Add(time.Hour).Unix(),
			}, jwt.SigningMethodHS256)
			req := httptest.NewRequest(http.MethodPost, "/api/prices", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("Expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestCurrentPrincipal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var got Principal
	r.GET("/me", JWTAuth(testSecret), func(c *gin.Context) {
		got, _ = CurrentPrincipal(c)
		c.Status(http.StatusOK)
	})
	token := signed(t, jwt.MapClaims{
		"uid":        "u-4",
		"name":       "Ops",
		"company_id": "co-9",
		"roles":      []string{"delivery_manager"},
		"exp":        time.Now().Add(time.Hour).Unix(),
	}, jwt.SigningMethodHS256)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if got.UserID != "u-4" || got.CompanyID != "co-9" || got.Name != "Ops" {
		t.Fatalf("Expected u-4/co-9/Ops, got %+v", got)
	}
	if !got.HasRole("delivery_manager") || got.HasRole("catalog_manager") || got.IsAdmin() {
		t.Fatalf("Expected only delivery_manager, got %v", got.Roles)
	}
}
