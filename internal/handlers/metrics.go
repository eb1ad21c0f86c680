// Package handlers wires the monitor to the gin panel routes.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sysbar/internal/middleware"
	"sysbar/internal/monitor"
	"sysbar/internal/version"
)

// MetricsHandlers serves snapshot, history, and configuration routes.
type MetricsHandlers struct {
	monitor *monitor.Monitor
	hub     *middleware.Hub
}

func NewMetricsHandlers(mon *monitor.Monitor, hub *middleware.Hub) *MetricsHandlers {
	return &MetricsHandlers{monitor: mon, hub: hub}
}

// Panel renders the embedded status panel page.
func (h *MetricsHandlers) Panel(c *gin.Context) {
	c.HTML(http.StatusOK, "panel.html", gin.H{
		"Version":     version.String(),
		"AuthEnabled": h.monitor.AuthEnabled(),
	})
}

// APIStats returns the most recent snapshot. Before the first tick the
// snapshot is null and warming_up is set.
func (h *MetricsHandlers) APIStats(c *gin.Context) {
	snap := h.monitor.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"snapshot":   snap,
		"warming_up": snap == nil,
		"clients":    h.hub.GetClientCount(),
	})
}

// APIHistory returns the bounded per-metric windows.
func (h *MetricsHandlers) APIHistory(c *gin.Context) {
	c.JSON(http.StatusOK, h.monitor.History())
}

// APIConfig returns the sampling configuration with secrets redacted.
func (h *MetricsHandlers) APIConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"port":               h.monitor.Port,
		"interface":          h.monitor.Interface,
		"disk_path":          h.monitor.DiskPath,
		"tick_seconds":       h.monitor.TickSeconds,
		"history_size":       h.monitor.HistorySize,
		"synthetic_fallback": h.monitor.SyntheticFallback,
		"tray_enabled":       h.monitor.TrayEnabled,
		"auth_enabled":       h.monitor.AuthEnabled(),
	})
}

// APIConfigUpdate applies a validated sampling-config change and persists it.
// The sampling loop restarts, which clears accumulated history.
func (h *MetricsHandlers) APIConfigUpdate(c *gin.Context) {
	var input middleware.ConfigUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := middleware.ValidateConfigUpdate(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.monitor.ApplyConfig(input.Interface, input.DiskPath, input.TickSeconds, input.HistorySize, input.SyntheticFallback)
	c.JSON(http.StatusOK, gin.H{"status": "ok", "history_cleared": true})
}
