package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sysbar/internal/middleware"
	"sysbar/internal/monitor"
)

// AuthHandlers serves panel login and logout.
type AuthHandlers struct {
	auth    *middleware.AuthService
	monitor *monitor.Monitor
}

func NewAuthHandlers(auth *middleware.AuthService, mon *monitor.Monitor) *AuthHandlers {
	return &AuthHandlers{auth: auth, monitor: mon}
}

type loginRequest struct {
	Password string `json:"password"`
}

// APILogin exchanges the admin password for a token, with per-IP lockout
// after repeated failures.
func (h *AuthHandlers) APILogin(c *gin.Context) {
	if !h.auth.Enabled {
		c.JSON(http.StatusOK, gin.H{"auth": false})
		return
	}

	clientIP := c.ClientIP()
	if h.auth.LockedOut(clientIP) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many failed attempts, try again later"})
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password required"})
		return
	}

	if !h.auth.CheckPassword(req.Password, h.monitor.AdminPasswordHash) {
		h.auth.RecordFailure(clientIP)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid password"})
		return
	}
	h.auth.ClearFailures(clientIP)

	token, err := h.auth.GenerateToken("admin")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.SetCookie(middleware.CookieName, token, int(middleware.TokenExpiry.Seconds()), "/", "", c.Request.TLS != nil, true)
	c.JSON(http.StatusOK, gin.H{"auth": true, "token": token})
}

// Logout clears the auth cookie.
func (h *AuthHandlers) Logout(c *gin.Context) {
	c.SetCookie(middleware.CookieName, "", -1, "/", "", c.Request.TLS != nil, true)
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}
