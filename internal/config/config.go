package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Iron-Ham/gtui/internal/logging"
)

// AppName names the config directory and the environment prefix.
const AppName = "gtui"

// EnvPrefix is prepended to environment overrides, e.g. GTUI_RUN_MAX_PARALLEL.
const EnvPrefix = "GTUI"

// Config represents the complete gtui configuration
type Config struct {
	Run           RunConfig          `mapstructure:"run"`
	Output        OutputConfig       `mapstructure:"output"`
	Log           LogConfig          `mapstructure:"log"`
	TUI           TUIConfig          `mapstructure:"tui"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// RunConfig controls how a graph is executed
type RunConfig struct {
	// Title is the label shown in the footer and in reports
	Title string `mapstructure:"title"`
	// ExitOnSuccess quits the TUI as soon as the run succeeds
	ExitOnSuccess bool `mapstructure:"exit_on_success"`
	// MaxParallel caps concurrently running tasks (0 = unlimited)
	MaxParallel int `mapstructure:"max_parallel"`
	// RedirectStdout routes writes to os.Stdout made outside any task into
	// the unbound stream instead of the terminal
	RedirectStdout bool `mapstructure:"redirect_stdout"`
}

// OutputConfig controls per-task output buffers
type OutputConfig struct {
	// BufferSize keeps only the last N bytes of each task's output.
	// 0 keeps everything.
	BufferSize int `mapstructure:"buffer_size"`
}

// LogConfig controls task log capture and how records are displayed
type LogConfig struct {
	// Format is a text/template layout over .Time, .Level, .Logger and .Message
	Format string `mapstructure:"format"`
	// TimeFormat is the Go time layout used for .Time
	TimeFormat string `mapstructure:"time_format"`
	// Level is the minimum level captured from task loggers
	Level string `mapstructure:"level"`
	// EchoToOutput also writes formatted task log records into task output
	EchoToOutput bool `mapstructure:"echo_to_output"`
}

// TUIConfig controls the terminal UI behavior
type TUIConfig struct {
	// RefreshIntervalMs is how often the display re-reads task state
	RefreshIntervalMs int `mapstructure:"refresh_interval_ms"`
	// SidebarWidth is the width of the sidebar panel in columns (default: 30, min: 16, max: 60)
	SidebarWidth int `mapstructure:"sidebar_width"`
	// Follow keeps the output pane scrolled to the bottom
	Follow bool `mapstructure:"follow"`
}

// NotificationConfig controls what happens when a run completes
type NotificationConfig struct {
	// Enabled sends a desktop notification when the run completes
	Enabled bool `mapstructure:"enabled"`
	// Bell rings the terminal bell when the run completes
	Bell bool `mapstructure:"bell"`
	// SuccessMessage is the notification body for a successful run
	SuccessMessage string `mapstructure:"success_message"`
	// FailureMessage is the notification body for a failed run
	FailureMessage string `mapstructure:"failure_message"`
}

// LoggingConfig controls the engine's own debug log file
type LoggingConfig struct {
	// Enabled writes the engine log to {dir}/debug.log (default: false)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Dir is where debug.log lives. Empty means ConfigDir()/logs.
	// Supports ~ for home directory expansion.
	Dir string `mapstructure:"dir"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
	// Compress gzips rotated log files
	Compress bool `mapstructure:"compress"`
}

// ResolveDir returns the resolved log directory.
// An empty Dir resolves to ConfigDir()/logs; a relative Dir is resolved
// against baseDir.
func (l *LoggingConfig) ResolveDir(baseDir string) string {
	if l.Dir == "" {
		return filepath.Join(ConfigDir(), "logs")
	}

	path := l.Dir
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	return path
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Run: RunConfig{
			Title:          "gtui",
			ExitOnSuccess:  false,
			MaxParallel:    0, // No cap
			RedirectStdout: false,
		},
		Output: OutputConfig{
			BufferSize: 0, // Keep everything
		},
		Log: LogConfig{
			Format:       "[{{.Time}}][{{.Logger}}][{{.Message}}]",
			TimeFormat:   "2006-01-02 15:04:05",
			Level:        "info",
			EchoToOutput: false,
		},
		TUI: TUIConfig{
			RefreshIntervalMs: 100,
			SidebarWidth:      30,
			Follow:            true,
		},
		Notifications: NotificationConfig{
			Enabled:        false,
			Bell:           false,
			SuccessMessage: "All tasks succeeded",
			FailureMessage: "Some tasks failed",
		},
		Logging: LoggingConfig{
			Enabled:    false,
			Level:      "info",
			Dir:        "",
			MaxSizeMB:  10,
			MaxBackups: 3,
			Compress:   false,
		},
	}
}

// RefreshInterval returns the refresh interval as a time.Duration
func (c *TUIConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalMs) * time.Millisecond
}

// Formatter builds the record formatter described by Format and TimeFormat.
func (l *LogConfig) Formatter() (logging.Formatter, error) {
	return logging.NewTemplateFormatter(l.Format, l.TimeFormat)
}

// SlogLevel returns Level as a slog.Level, defaulting to INFO.
func (l *LogConfig) SlogLevel() slog.Level {
	return logging.SlogLevel(l.Level)
}

// RotationConfig converts the file settings for logging.NewLoggerWithRotation.
func (l *LoggingConfig) RotationConfig() logging.RotationConfig {
	return logging.RotationConfig{
		MaxSizeMB:  l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
		Compress:   l.Compress,
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Run defaults
	viper.SetDefault("run.title", defaults.Run.Title)
	viper.SetDefault("run.exit_on_success", defaults.Run.ExitOnSuccess)
	viper.SetDefault("run.max_parallel", defaults.Run.MaxParallel)
	viper.SetDefault("run.redirect_stdout", defaults.Run.RedirectStdout)

	// Output defaults
	viper.SetDefault("output.buffer_size", defaults.Output.BufferSize)

	// Task log defaults
	viper.SetDefault("log.format", defaults.Log.Format)
	viper.SetDefault("log.time_format", defaults.Log.TimeFormat)
	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("log.echo_to_output", defaults.Log.EchoToOutput)

	// TUI defaults
	viper.SetDefault("tui.refresh_interval_ms", defaults.TUI.RefreshIntervalMs)
	viper.SetDefault("tui.sidebar_width", defaults.TUI.SidebarWidth)
	viper.SetDefault("tui.follow", defaults.TUI.Follow)

	// Notification defaults
	viper.SetDefault("notifications.enabled", defaults.Notifications.Enabled)
	viper.SetDefault("notifications.bell", defaults.Notifications.Bell)
	viper.SetDefault("notifications.success_message", defaults.Notifications.SuccessMessage)
	viper.SetDefault("notifications.failure_message", defaults.Notifications.FailureMessage)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)
}

// BindEnv makes every key overridable through GTUI_-prefixed variables,
// with dots replaced by underscores.
func BindEnv() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
