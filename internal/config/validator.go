package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Iron-Ham/gtui/internal/logging"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "run.max_parallel")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Sidebar bounds. tui clamps to the same range.
const (
	MinSidebarWidth = 16
	MaxSidebarWidth = 60
)

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateRun()...)
	errors = append(errors, c.validateOutput()...)
	errors = append(errors, c.validateLog()...)
	errors = append(errors, c.validateTUI()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validateRun() []ValidationError {
	var errors []ValidationError

	if c.Run.MaxParallel < 0 {
		errors = append(errors, ValidationError{
			Field:   "run.max_parallel",
			Value:   c.Run.MaxParallel,
			Message: "must be non-negative",
		})
	}

	return errors
}

func (c *Config) validateOutput() []ValidationError {
	var errors []ValidationError

	if c.Output.BufferSize < 0 {
		errors = append(errors, ValidationError{
			Field:   "output.buffer_size",
			Value:   c.Output.BufferSize,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateLog checks the task log settings, including that the format
// template parses.
func (c *Config) validateLog() []ValidationError {
	var errors []ValidationError

	if c.Log.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Log.Level)) {
		errors = append(errors, ValidationError{
			Field:   "log.level",
			Value:   c.Log.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if _, err := logging.NewTemplateFormatter(c.Log.Format, c.Log.TimeFormat); err != nil {
		errors = append(errors, ValidationError{
			Field:   "log.format",
			Value:   c.Log.Format,
			Message: err.Error(),
		})
	}

	return errors
}

func (c *Config) validateTUI() []ValidationError {
	var errors []ValidationError

	if c.TUI.RefreshIntervalMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "tui.refresh_interval_ms",
			Value:   c.TUI.RefreshIntervalMs,
			Message: "must be non-negative",
		})
	}

	// 0 means use the default
	if c.TUI.SidebarWidth != 0 {
		if c.TUI.SidebarWidth < MinSidebarWidth {
			errors = append(errors, ValidationError{
				Field:   "tui.sidebar_width",
				Value:   c.TUI.SidebarWidth,
				Message: fmt.Sprintf("must be at least %d", MinSidebarWidth),
			})
		}
		if c.TUI.SidebarWidth > MaxSidebarWidth {
			errors = append(errors, ValidationError{
				Field:   "tui.sidebar_width",
				Value:   c.TUI.SidebarWidth,
				Message: fmt.Sprintf("must be at most %d", MaxSidebarWidth),
			})
		}
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	const maxLogSizeMB = 1000
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
