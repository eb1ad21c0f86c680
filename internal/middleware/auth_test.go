package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestTokenRoundTrip(t *testing.T) {
	a := NewAuthService("test-secret", true)
	token, err := a.GenerateToken("admin")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	claims, err := a.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Subject != "admin" {
		t.Fatalf("expected subject admin, got %q", claims.Subject)
	}
}

func TestTokenRejectedAcrossSecrets(t *testing.T) {
	a := NewAuthService("secret-a", true)
	b := NewAuthService("secret-b", true)
	token, err := a.GenerateToken("admin")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := b.ValidateToken(token); err == nil {
		t.Fatal("token signed with another secret must not validate")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	a := NewAuthService("x", true)
	hash, err := a.HashPassword("hunter22hunter22")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !a.CheckPassword("hunter22hunter22", hash) {
		t.Fatal("correct password should verify")
	}
	if a.CheckPassword("wrong-password", hash) {
		t.Fatal("wrong password must not verify")
	}
}

func TestLockoutAfterRepeatedFailures(t *testing.T) {
	a := NewAuthService("x", true)
	ip := "203.0.113.9"
	for i := 0; i < maxLoginFailures-1; i++ {
		if a.RecordFailure(ip) {
			t.Fatalf("unexpected lockout at failure %d", i+1)
		}
	}
	if !a.RecordFailure(ip) {
		t.Fatal("expected lockout at threshold")
	}
	if !a.LockedOut(ip) {
		t.Fatal("client should be locked out")
	}
	a.ClearFailures(ip)
	if a.LockedOut(ip) {
		t.Fatal("lockout should clear after reset")
	}
}

func TestRequireAPIAuthDisabledPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a := NewAuthService("x", false)
	r := gin.New()
	r.Use(a.RequireAPIAuth())
	r.GET("/api/stats", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("disabled auth should pass through, got %d", w.Code)
	}
}

func TestRequireAPIAuthEnforced(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a := NewAuthService("x", true)
	r := gin.New()
	r.Use(a.RequireAPIAuth())
	r.GET("/api/stats", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	// No token
	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	// Garbage token
	req = httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %d", w.Code)
	}

	// Valid bearer token
	token, err := a.GenerateToken("admin")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid token, got %d", w.Code)
	}
}
