// Package utils contains the logging, filesystem-path, and NAT helpers used
// throughout sysbar.
package utils

import "path/filepath"

// Paths resolves filesystem locations used by sysbar.
type Paths struct {
	RootPath string `json:"root_path"`
}

// NewPaths constructs Paths rooted at the specified directory.
func NewPaths(rootPath string) *Paths {
	return &Paths{RootPath: rootPath}
}

// LogsDir returns the logs directory for sysbar.
func (p *Paths) LogsDir() string {
	return filepath.Join(p.RootPath, "logs")
}

// LogFile returns the main sysbar log file path.
func (p *Paths) LogFile() string {
	return filepath.Join(p.LogsDir(), "sysbar.log")
}

// ConfigFile returns the default configuration file path.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.RootPath, "sysbar.config")
}
