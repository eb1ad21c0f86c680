// Package monitor owns the periodic metrics session: configuration, the
// sampling loop, the network rate sampler, and the bounded history windows
// surfaced to the tray and web panel.
package monitor

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"sysbar/internal/models"
	"sysbar/internal/provider"
	"sysbar/internal/utils"
)

const (
	defaultTickSeconds = 1
	defaultHistorySize = 60
	defaultDiskPath    = "/"
)

// Monitor holds configuration and the live sampling state. Exported fields
// with json tags are persisted to the config file.
type Monitor struct {
	Active     bool          `json:"-"`
	ConfigFile string        `json:"-"`
	Log        *utils.Logger `json:"-"`
	Paths      *utils.Paths  `json:"-"`

	Port              int    `json:"port"`
	Interface         string `json:"interface"`
	DiskPath          string `json:"disk_path"`
	TickSeconds       int    `json:"tick_seconds"`
	HistorySize       int    `json:"history_size"`
	SyntheticFallback bool   `json:"synthetic_fallback"`
	// TrayEnabled controls whether the tray indicator is started (Windows only).
	TrayEnabled bool `json:"tray_enabled"`
	// TLS settings for serving HTTPS. Effective at process start.
	TLSEnabled  bool   `json:"tls_enabled"`
	TLSCertPath string `json:"tls_cert"`
	TLSKeyPath  string `json:"tls_key"`
	// Security and auth. An empty AdminPasswordHash disables authentication.
	JWTSecret         string `json:"jwt_secret"`
	AdminPasswordHash string `json:"admin_password_hash"`
	AllowIFrame       bool   `json:"allow_iframe"`
	VerboseHTTP       bool   `json:"verbose_http"`
	// AutoPortForward maps the panel port on the router via UPnP/NAT-PMP.
	AutoPortForward bool `json:"auto_port_forward"`

	provider provider.Provider
	fallback provider.Fallback

	mu       sync.RWMutex
	snapshot *models.Snapshot
	sampler  RateSampler
	cpuHist  *Ring
	memHist  *Ring
	upHist   *Ring
	downHist *Ring
	diskHist *Ring

	// OnSample, when set before StartSampling, is invoked with a copy of each
	// published snapshot (used to push to websocket clients).
	OnSample func(models.Snapshot) `json:"-"`

	sampleStop chan struct{}
	sampleWG   sync.WaitGroup
}

// NewMonitor creates a Monitor loading configuration from ./sysbar.config.
func NewMonitor() *Monitor { return NewMonitorWithConfig("") }

// NewMonitorWithConfig creates a Monitor loading configuration from the
// provided path. A missing file is bootstrapped with defaults.
func NewMonitorWithConfig(configPath string) *Monitor {
	m := &Monitor{
		Port:        5150,
		Interface:   "",
		DiskPath:    defaultDiskPath,
		TickSeconds: defaultTickSeconds,
		HistorySize: defaultHistorySize,
		TrayEnabled: runtime.GOOS == "windows",
		JWTSecret:   "change-me-before-exposing-sysbar",
	}

	config := strings.TrimSpace(configPath)
	if config == "" {
		config = "sysbar.config"
	}
	if !fileExists(config) {
		if err := m.bootstrapDefaultConfig(config); err != nil {
			m.safeLog(fmt.Sprintf("Unable to create default configuration at %s: %v", config, err))
			return m
		}
		m.safeLog(fmt.Sprintf("Created default configuration at %s", config))
	}

	m.ConfigFile = config
	if err := m.load(); err != nil {
		m.safeLog(err.Error())
		return m
	}

	m.initPaths()
	if m.Log == nil {
		m.Log = utils.NewLogger(m.Paths.LogFile())
	}
	m.initSampling()
	m.safeLog("Configuration loaded")
	m.Active = true
	return m
}

func (m *Monitor) initPaths() {
	if m.Paths != nil {
		return
	}
	exe, err := os.Executable()
	if err != nil {
		m.Paths = utils.NewPaths(filepath.Join(os.TempDir(), "sysbar"))
		return
	}
	if resolved, rerr := filepath.EvalSymlinks(exe); rerr == nil && resolved != "" {
		exe = resolved
	}
	m.Paths = utils.NewPaths(filepath.Dir(exe))
}

func (m *Monitor) initSampling() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initSamplingLocked()
}

// initSamplingLocked rebuilds the provider, fallback, and history windows
// from the current configuration. Callers must hold m.mu; Snapshot() and
// History() read these fields under RLock.
func (m *Monitor) initSamplingLocked() {
	if m.TickSeconds < 1 {
		m.TickSeconds = defaultTickSeconds
	}
	if m.HistorySize < 1 {
		m.HistorySize = defaultHistorySize
	}
	if strings.TrimSpace(m.DiskPath) == "" {
		m.DiskPath = defaultDiskPath
	}
	m.provider = provider.NewSystemProvider(m.Interface)
	if m.SyntheticFallback {
		m.fallback = provider.NewSyntheticFallback(uint64(time.Now().UnixNano()))
	} else {
		m.fallback = provider.ZeroFallback{}
	}
	m.cpuHist = NewRing(m.HistorySize)
	m.memHist = NewRing(m.HistorySize)
	m.upHist = NewRing(m.HistorySize)
	m.downHist = NewRing(m.HistorySize)
	m.diskHist = NewRing(m.HistorySize)
}

// SetProvider overrides the metrics source (used by tests).
func (m *Monitor) SetProvider(p provider.Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.provider = p
}

// SetFallback overrides the substitution strategy (used by tests).
func (m *Monitor) SetFallback(f provider.Fallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = f
}

func (m *Monitor) bootstrapDefaultConfig(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// load reads configuration from disk and rebuilds in-memory defaults.
func (m *Monitor) load() error {
	data, err := os.ReadFile(m.ConfigFile)
	if err != nil {
		return fmt.Errorf("configuration file not found: %w", err)
	}

	temp := &Monitor{}
	if err := json.Unmarshal(data, temp); err != nil {
		return fmt.Errorf("error parsing configuration: %w", err)
	}

	m.Port = temp.Port
	m.Interface = strings.TrimSpace(temp.Interface)
	m.DiskPath = strings.TrimSpace(temp.DiskPath)
	m.TickSeconds = temp.TickSeconds
	m.HistorySize = temp.HistorySize
	m.SyntheticFallback = temp.SyntheticFallback
	m.TrayEnabled = temp.TrayEnabled
	m.TLSEnabled = temp.TLSEnabled
	m.TLSCertPath = strings.TrimSpace(temp.TLSCertPath)
	m.TLSKeyPath = strings.TrimSpace(temp.TLSKeyPath)
	if secret := strings.TrimSpace(temp.JWTSecret); secret != "" {
		m.JWTSecret = secret
	}
	m.AdminPasswordHash = strings.TrimSpace(temp.AdminPasswordHash)
	m.AllowIFrame = temp.AllowIFrame
	m.VerboseHTTP = temp.VerboseHTTP
	m.AutoPortForward = temp.AutoPortForward

	if m.Port < 1 || m.Port > 65535 {
		m.Port = 5150
	}
	return nil
}

// Save persists the current configuration to the config file.
func (m *Monitor) Save() {
	if m.ConfigFile == "" {
		m.safeLog("No configuration file found. Please specify a configuration file path with --config.")
		return
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		m.safeLog(fmt.Sprintf("Error marshaling configuration: %v", err))
		return
	}

	if err := os.WriteFile(m.ConfigFile, data, 0o644); err != nil {
		m.safeLog(fmt.Sprintf("Error saving configuration: %v", err))
		m.Active = false
		return
	}
	m.safeLog("Configuration saved")
}

// ApplyConfig updates the sampling configuration, persists it, and restarts
// the sampling loop. History windows start over with the new settings.
func (m *Monitor) ApplyConfig(iface, diskPath string, tickSeconds, historySize int, syntheticFallback bool) {
	wasRunning := false
	m.mu.RLock()
	wasRunning = m.sampleStop != nil
	m.mu.RUnlock()
	if wasRunning {
		m.StopSampling()
	}

	m.mu.Lock()
	m.Interface = iface
	if strings.TrimSpace(diskPath) != "" {
		m.DiskPath = diskPath
	}
	m.TickSeconds = tickSeconds
	m.HistorySize = historySize
	m.SyntheticFallback = syntheticFallback
	m.sampler = RateSampler{}
	m.snapshot = nil
	m.initSamplingLocked()
	m.mu.Unlock()

	m.Save()
	if wasRunning {
		m.StartSampling()
	}
}

// IsActive reports whether the monitor initialized successfully.
func (m *Monitor) IsActive() bool {
	return m != nil && m.Active
}

// AuthEnabled reports whether the panel requires authentication.
func (m *Monitor) AuthEnabled() bool {
	return strings.TrimSpace(m.AdminPasswordHash) != ""
}

// Shutdown stops sampling and closes the log.
func (m *Monitor) Shutdown() {
	if m == nil {
		return
	}
	m.StopSampling()
	if m.Log != nil {
		m.Log.Write("Monitor shut down")
		m.Log.Close()
	}
}

func (m *Monitor) safeLog(message string) {
	if m.Log != nil {
		m.Log.Write(message)
		return
	}
	fmt.Fprintf(os.Stderr, "%s\n", message)
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

func clampFloat(val, min, max float64) float64 {
	if math.IsNaN(val) {
		return min
	}
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
