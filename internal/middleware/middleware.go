package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Logger 日志中间件
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.String("user-agent", c.Request.UserAgent()),
			zap.Duration("latency", latency),
			zap.String("request_id", c.GetString("request_id")),
		}

		if p, ok := CurrentPrincipal(c); ok {
			fields = append(fields, zap.String("user_id", p.UserID), zap.String("company_id", p.CompanyID))
		}

		if status >= 500 {
			logger.Error("Server error", fields...)
		} else if status >= 400 {
			logger.Warn("Client error", fields...)
		} else {
			logger.Info("Request", fields...)
		}
	}
}

// CORS 跨域中间件
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RequestID 请求ID中间件
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.Request.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}

// JWTClaims 令牌声明。company_id 是调用方所属的租赁公司，合同与向导会话按它隔离。
type JWTClaims struct {
	UserID      string   `json:"uid"`
	Name        string   `json:"name"`
	CompanyID   string   `json:"company_id"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"perms"`
	jwt.RegisteredClaims
}

// AdminRole passes every role check and may act on other users' sessions
// within its company.
const AdminRole = "admin"

const principalKey = "principal"

// Principal is the authenticated caller.
type Principal struct {
	UserID      string
	Name        string
	CompanyID   string
	Roles       []string
	Permissions []string
}

func (p Principal) IsAdmin() bool {
	return p.HasRole(AdminRole)
}

// HasRole is true for the role itself or for admins.
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role || r == AdminRole {
			return true
		}
	}
	return false
}

// Can matches "*", the exact permission, or a "<domain>:*" grant.
func (p Principal) Can(permission string) bool {
	domain, _, _ := strings.Cut(permission, ":")
	for _, perm := range p.Permissions {
		if perm == "*" || perm == permission || perm == domain+":*" {
			return true
		}
	}
	return false
}

// CurrentPrincipal returns the caller set by JWTAuth.
func CurrentPrincipal(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

func bearerToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); auth != "" {
		if scheme, token, ok := strings.Cut(auth, " "); ok && scheme == "Bearer" {
			return token
		}
	}
	// EventSource cannot set headers
	return c.Query("token")
}

func abort(c *gin.Context, status, code int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"code": code, "message": message})
}

// JWTAuth JWT认证中间件。令牌必须带 uid 与 company_id。
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			abort(c, http.StatusUnauthorized, 40100, "Authorization is required")
			return
		}

		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			abort(c, http.StatusUnauthorized, 40102, "Invalid or expired token")
			return
		}
		if claims.UserID == "" || claims.CompanyID == "" {
			abort(c, http.StatusUnauthorized, 40103, "Token has no user or company")
			return
		}

		c.Set(principalKey, Principal{
			UserID:      claims.UserID,
			Name:        claims.Name,
			CompanyID:   claims.CompanyID,
			Roles:       claims.Roles,
			Permissions: claims.Permissions,
		})
		c.Set("user_id", claims.UserID)
		c.Set("company_id", claims.CompanyID)
		c.Next()
	}
}

// RequirePermission 权限检查中间件
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := CurrentPrincipal(c)
		if !ok || !p.Can(permission) {
			abort(c, http.StatusForbidden, 40302, "Permission denied: "+permission)
			return
		}
		c.Next()
	}
}

// RequireRole 角色检查中间件
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := CurrentPrincipal(c)
		if !ok || !p.HasRole(role) {
			abort(c, http.StatusForbidden, 40312, "Role required: "+role)
			return
		}
		c.Next()
	}
}
