package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/gtui/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "gtui",
	Short: "Run a graph of dependent tasks with live output",
	Long: `gtui runs the tasks declared in a task file with as much parallelism as
their dependencies allow, showing each task's status, output and log in a
terminal UI. A failed task skips everything downstream of it; unrelated
tasks keep running.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/gtui/config.yaml)")
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()
	bindFlags()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	// e.g. GTUI_RUN_MAX_PARALLEL for run.max_parallel
	config.BindEnv()

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// bindFlags lets command-line flags override config keys. Bindings are
// made on every initialization so they survive viper.Reset.
func bindFlags() {
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	for key, flag := range runFlagKeys {
		_ = viper.BindPFlag(key, runCmd.Flags().Lookup(flag))
	}
}
