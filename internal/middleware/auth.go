package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	TokenExpiry = 24 * time.Hour
	CookieName  = "sysbar_token"

	maxLoginFailures = 5
	lockoutDuration  = 5 * time.Minute
)

type Claims struct {
	Subject string `json:"sub_name"`
	jwt.RegisteredClaims
}

// AuthService issues and validates panel tokens. When Enabled is false
// (no admin password configured) every request passes through.
type AuthService struct {
	secret      []byte
	Enabled     bool
	mu          sync.Mutex
	apiFailures map[string]*apiFailure
}

type apiFailure struct {
	count        int
	lockoutUntil time.Time
}

func NewAuthService(secret string, enabled bool) *AuthService {
	return &AuthService{
		secret:      []byte(secret),
		Enabled:     enabled,
		apiFailures: make(map[string]*apiFailure),
	}
}

func (a *AuthService) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func (a *AuthService) CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (a *AuthService) GenerateToken(subject string) (string, error) {
	claims := Claims{
		Subject: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   subject,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func (a *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// RecordFailure notes a failed login for the client IP and reports whether
// the client is now locked out.
func (a *AuthService) RecordFailure(clientIP string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	f := a.apiFailures[clientIP]
	if f == nil {
		f = &apiFailure{}
		a.apiFailures[clientIP] = f
	}
	f.count++
	if f.count >= maxLoginFailures {
		f.lockoutUntil = time.Now().Add(lockoutDuration)
		return true
	}
	return false
}

// ClearFailures resets the failure count after a successful login.
func (a *AuthService) ClearFailures(clientIP string) {
	a.mu.Lock()
	delete(a.apiFailures, clientIP)
	a.mu.Unlock()
}

// LockedOut reports whether the client IP is inside a lockout window.
func (a *AuthService) LockedOut(clientIP string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	f := a.apiFailures[clientIP]
	if f == nil || f.lockoutUntil.IsZero() {
		return false
	}
	if time.Now().After(f.lockoutUntil) {
		delete(a.apiFailures, clientIP)
		return false
	}
	return true
}

// RequireAPIAuth validates a Bearer token or the auth cookie on API routes.
func (a *AuthService) RequireAPIAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.Enabled {
			c.Next()
			return
		}
		token := bearerToken(c)
		if token == "" {
			if cookie, err := c.Cookie(CookieName); err == nil {
				token = cookie
			}
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		claims, err := a.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set("subject", claims.Subject)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}
