package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/gtui/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify gtui configuration",
	Long: `View or modify gtui configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  gtui config set run.max_parallel 4
  gtui config set log.format "{{.Level}} {{.Message}}"
  gtui config set notifications.enabled true

Run 'gtui config show' to list every key.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/gtui/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

// settings returns the effective configuration as nested maps, without
// the command-line only "config" key.
func settings() map[string]any {
	all := viper.AllSettings()
	delete(all, "config")
	return all
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "# Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintln(out, "# Config file: (none - using defaults)")
	}

	data, err := yaml.Marshal(settings())
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	_, err = out.Write(data)
	return err
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	current := viper.Get(key)
	if current == nil || !isLeafKey(key) {
		return fmt.Errorf("unknown configuration key: %s\nRun 'gtui config show' to see valid keys", key)
	}

	// Parse the value as the type of the key's default
	var typedValue any
	switch current.(type) {
	case bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		typedValue = b
	case int, int64:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: expected integer", key)
		}
		typedValue = n
	default:
		typedValue = value
	}

	viper.Set(key, typedValue)
	if _, err := config.Load(); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	// Ensure config directory exists
	configDir := config.ConfigDir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		configFile = config.ConfigFile()
	}
	data, err := yaml.Marshal(settings())
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	if err := os.WriteFile(configFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", key, typedValue)
	fmt.Fprintf(cmd.OutOrStdout(), "Config saved to %s\n", configFile)
	return nil
}

func isLeafKey(key string) bool {
	for _, k := range viper.AllKeys() {
		if k == key {
			return true
		}
	}
	return false
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'gtui config set' to modify values", configFile)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configFile, []byte(defaultConfigFile), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", configFile)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", config.ConfigFile())
	}

	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	fmt.Fprintln(out, "  2. ./config.yaml (current directory)")
	fmt.Fprintln(out, "\nEnvironment variables: GTUI_* (e.g., GTUI_RUN_MAX_PARALLEL)")
	return nil
}

const defaultConfigFile = `# gtui configuration

run:
  # Title shown in the TUI footer and in reports (a task file's title wins)
  title: gtui
  # Close the TUI as soon as every task succeeds
  exit_on_success: false
  # Maximum tasks running at once (0 = no limit)
  max_parallel: 0
  # Capture direct writes to stdout made outside any task
  redirect_stdout: false

output:
  # Keep only the last N bytes of each task's output (0 = keep everything)
  buffer_size: 0

log:
  # Layout for log lines; fields: .Time .Level .Logger .Message
  format: "[{{.Time}}][{{.Logger}}][{{.Message}}]"
  time_format: "2006-01-02 15:04:05"
  # Minimum level captured from tasks: debug, info, warn, error
  level: info
  # Also copy each task log line into the task's output
  echo_to_output: false

tui:
  refresh_interval_ms: 100
  sidebar_width: 30
  # Keep the output pane scrolled to the newest line
  follow: true

notifications:
  # Desktop notification when a run completes
  enabled: false
  # Terminal bell when a run completes
  bell: false
  success_message: All tasks succeeded
  failure_message: Some tasks failed

# Engine debug log
logging:
  enabled: false
  level: info
  # Empty means ~/.config/gtui/logs
  dir: ""
  max_size_mb: 10
  max_backups: 3
  compress: false
`
