package middleware

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ConfigUpdateInput models a posted panel configuration change before it is
// applied to the monitor.
type ConfigUpdateInput struct {
	Interface         string `json:"interface" validate:"omitempty,max=64"`
	DiskPath          string `json:"disk_path" validate:"omitempty,max=4096"`
	TickSeconds       int    `json:"tick_seconds" validate:"gte=1,lte=3600"`
	HistorySize       int    `json:"history_size" validate:"gte=1,lte=86400"`
	SyntheticFallback bool   `json:"synthetic_fallback"`
}

// ValidateConfigUpdate sanitizes and validates a config change in place.
func ValidateConfigUpdate(input *ConfigUpdateInput) error {
	if input == nil {
		return fmt.Errorf("empty config update")
	}
	input.Interface = SanitizeString(input.Interface)
	if strings.ContainsAny(input.Interface, " \t") {
		return fmt.Errorf("interface name must not contain whitespace")
	}
	if input.DiskPath != "" {
		input.DiskPath = SanitizePath(input.DiskPath)
	}
	return validate.Struct(input)
}

// SanitizeString removes null bytes and control characters except newlines
// and tabs, then trims whitespace.
func SanitizeString(input string) string {
	input = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`).ReplaceAllString(input, "")
	return strings.TrimSpace(input)
}

// SanitizePath preserves directory separators and normalizes the path while
// removing control characters and trimming whitespace. It intentionally does
// not strip '/' or '\\' so absolute paths remain intact.
func SanitizePath(input string) string {
	cleaned := SanitizeString(input)
	return filepath.Clean(cleaned)
}
