package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/Iron-Ham/gtui/internal/logging"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if cfg.Run.Title != "gtui" {
		t.Errorf("Run.Title = %q, want %q", cfg.Run.Title, "gtui")
	}
	if cfg.Run.MaxParallel != 0 {
		t.Errorf("Run.MaxParallel = %d, want 0", cfg.Run.MaxParallel)
	}
	if cfg.Output.BufferSize != 0 {
		t.Errorf("Output.BufferSize = %d, want 0", cfg.Output.BufferSize)
	}
	if cfg.Log.Format != logging.DefaultFormat {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, logging.DefaultFormat)
	}
	if cfg.Log.TimeFormat != logging.DefaultTimeFormat {
		t.Errorf("Log.TimeFormat = %q, want %q", cfg.Log.TimeFormat, logging.DefaultTimeFormat)
	}
	if !cfg.TUI.Follow {
		t.Error("TUI.Follow should be true by default")
	}
	if cfg.Logging.Enabled {
		t.Error("Logging.Enabled should be false by default")
	}
	if cfg.Logging.MaxSizeMB != 10 || cfg.Logging.MaxBackups != 3 {
		t.Errorf("Logging rotation = %d/%d, want 10/3", cfg.Logging.MaxSizeMB, cfg.Logging.MaxBackups)
	}

	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("Default().Validate() = %v, want no errors", errs)
	}
}

func TestTUIConfig_RefreshInterval(t *testing.T) {
	tests := []struct {
		ms       int
		expected time.Duration
	}{
		{100, 100 * time.Millisecond},
		{1000, time.Second},
		{0, 0},
	}

	for _, tt := range tests {
		cfg := TUIConfig{RefreshIntervalMs: tt.ms}
		if got := cfg.RefreshInterval(); got != tt.expected {
			t.Errorf("RefreshInterval() with %dms = %v, want %v", tt.ms, got, tt.expected)
		}
	}
}

func TestLogConfig_Helpers(t *testing.T) {
	cfg := LogConfig{Format: "{{.Level}} {{.Message}}", TimeFormat: time.Kitchen, Level: "warn"}

	f, err := cfg.Formatter()
	if err != nil {
		t.Fatalf("Formatter() error = %v", err)
	}
	if got := f.Format(logging.Record{Level: slog.LevelWarn, Message: "hi"}); got != "WARN hi" {
		t.Errorf("Format() = %q", got)
	}
	if cfg.SlogLevel() != slog.LevelWarn {
		t.Errorf("SlogLevel() = %v", cfg.SlogLevel())
	}

	rot := (&LoggingConfig{MaxSizeMB: 5, MaxBackups: 2, Compress: true}).RotationConfig()
	if rot != (logging.RotationConfig{MaxSizeMB: 5, MaxBackups: 2, Compress: true}) {
		t.Errorf("RotationConfig() = %+v", rot)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"negative max_parallel", func(c *Config) { c.Run.MaxParallel = -1 }, "run.max_parallel"},
		{"negative buffer", func(c *Config) { c.Output.BufferSize = -5 }, "output.buffer_size"},
		{"bad task log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"broken format", func(c *Config) { c.Log.Format = "{{.Time" }, "log.format"},
		{"unknown format field", func(c *Config) { c.Log.Format = "{{.Nope}}" }, "log.format"},
		{"negative refresh", func(c *Config) { c.TUI.RefreshIntervalMs = -1 }, "tui.refresh_interval_ms"},
		{"narrow sidebar", func(c *Config) { c.TUI.SidebarWidth = 5 }, "tui.sidebar_width"},
		{"wide sidebar", func(c *Config) { c.TUI.SidebarWidth = 200 }, "tui.sidebar_width"},
		{"bad engine level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"zero log size", func(c *Config) { c.Logging.MaxSizeMB = 0 }, "logging.max_size_mb"},
		{"huge log size", func(c *Config) { c.Logging.MaxSizeMB = 5000 }, "logging.max_size_mb"},
		{"negative backups", func(c *Config) { c.Logging.MaxBackups = -1 }, "logging.max_backups"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := cfg.Validate()
			if len(errs) != 1 {
				t.Fatalf("Validate() = %v, want exactly one error", errs)
			}
			if errs[0].Field != tt.field {
				t.Errorf("Field = %q, want %q", errs[0].Field, tt.field)
			}
		})
	}

	t.Run("uppercase levels accepted", func(t *testing.T) {
		cfg := Default()
		cfg.Log.Level = "DEBUG"
		cfg.Logging.Level = "Error"
		if errs := cfg.Validate(); len(errs) != 0 {
			t.Errorf("Validate() = %v", errs)
		}
	})
}

func TestValidationErrors_Error(t *testing.T) {
	one := ValidationErrors{{Field: "a", Value: 1, Message: "bad"}}
	if got := one.Error(); got != "a: bad (got: 1)" {
		t.Errorf("Error() = %q", got)
	}

	two := ValidationErrors{{Field: "a", Value: 1, Message: "bad"}, {Field: "b", Value: 2, Message: "worse"}}
	got := two.Error()
	if !strings.HasPrefix(got, "2 validation errors:") || !strings.Contains(got, "2. b: worse") {
		t.Errorf("Error() = %q", got)
	}

	if (ValidationErrors{}).Error() != "" {
		t.Error("empty ValidationErrors should render empty")
	}
}

func TestConfigDir(t *testing.T) {
	t.Run("with XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")
		if got := ConfigDir(); got != "/custom/config/gtui" {
			t.Errorf("ConfigDir() = %q", got)
		}
		if got := ConfigFile(); got != "/custom/config/gtui/config.yaml" {
			t.Errorf("ConfigFile() = %q", got)
		}
	})

	t.Run("without XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		home, _ := os.UserHomeDir()
		if got, want := ConfigDir(), filepath.Join(home, ".config", "gtui"); got != want {
			t.Errorf("ConfigDir() = %q, want %q", got, want)
		}
	})
}

func TestLoggingConfig_ResolveDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	home, _ := os.UserHomeDir()

	tests := []struct {
		dir  string
		want string
	}{
		{"", "/xdg/gtui/logs"},
		{"/var/log/gtui", "/var/log/gtui"},
		{"logs", "/base/logs"},
		{"~/gtui-logs", filepath.Join(home, "gtui-logs")},
	}
	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			cfg := LoggingConfig{Dir: tt.dir}
			if got := cfg.ResolveDir("/base"); got != tt.want {
				t.Errorf("ResolveDir() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Cleanup(viper.Reset)

	t.Run("defaults", func(t *testing.T) {
		viper.Reset()
		SetDefaults()
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.TUI.RefreshIntervalMs != 100 || cfg.Notifications.SuccessMessage == "" {
			t.Errorf("Load() = %+v", cfg)
		}
	})

	t.Run("file and env", func(t *testing.T) {
		viper.Reset()
		SetDefaults()
		BindEnv()
		t.Setenv("GTUI_RUN_MAX_PARALLEL", "4")

		path := filepath.Join(t.TempDir(), "config.yaml")
		content := "run:\n  title: nightly\noutput:\n  buffer_size: 2048\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			t.Fatalf("ReadInConfig() error = %v", err)
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Run.Title != "nightly" || cfg.Output.BufferSize != 2048 || cfg.Run.MaxParallel != 4 {
			t.Errorf("Load() run=%+v output=%+v", cfg.Run, cfg.Output)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		viper.Reset()
		SetDefaults()
		viper.Set("run.max_parallel", -3)
		if _, err := Load(); err == nil {
			t.Error("Load() should reject negative max_parallel")
		}
		if got := Get(); got.Run.MaxParallel != 0 {
			t.Errorf("Get() should fall back to defaults, got %d", got.Run.MaxParallel)
		}
	})
}
