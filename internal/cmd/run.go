package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Iron-Ham/gtui"
	"github.com/Iron-Ham/gtui/internal/config"
	"github.com/Iron-Ham/gtui/internal/errors"
	"github.com/Iron-Ham/gtui/internal/logging"
	"github.com/Iron-Ham/gtui/internal/notify"
	"github.com/Iron-Ham/gtui/internal/taskfile"
)

// ErrRunFailed is returned by the run command when any task failed.
var ErrRunFailed = errors.New("run failed")

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run the tasks in a task file",
	Long: `Run the tasks declared in a task file (default: gtui.yaml, gtui.yml or
gtui.hcl in the current directory).

The TUI shows every task with its status. Select a task to see its output,
or one of the log entries to see what it logged. Without a terminal, or with
--headless, tasks run without the TUI and a summary is printed at the end.

Exits non-zero when any task fails.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

var (
	runHeadless bool
	runWatch    bool
	runOnly     []string
	runReport   string
)

// runFlagKeys maps config keys to the run flags that override them.
var runFlagKeys = map[string]string{
	"run.title":             "title",
	"run.exit_on_success":   "exit-on-success",
	"run.max_parallel":      "max-parallel",
	"notifications.enabled": "notify",
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("title", "", "title shown in the TUI and the report (default: the task file's title)")
	runCmd.Flags().Bool("exit-on-success", false, "close the TUI as soon as every task succeeds")
	runCmd.Flags().Int("max-parallel", 0, "maximum tasks running at once (0 = no limit)")
	runCmd.Flags().Bool("notify", false, "send a desktop notification when the run completes")
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "run without the TUI and print a summary")
	runCmd.Flags().BoolVar(&runWatch, "watch", false, "re-run whenever the task file changes (implies --headless)")
	runCmd.Flags().StringArrayVar(&runOnly, "only", nil, "run only tasks matching this glob, plus what they wait for (repeatable)")
	runCmd.Flags().StringVar(&runReport, "report", "", "write a JSON report of the run to this path")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	path, err := taskFilePath(args)
	if err != nil {
		return err
	}

	logger, err := engineLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if runWatch {
		return watchRun(ctx, cmd, cfg, path, logger)
	}
	return runOnce(ctx, cmd, cfg, path, logger)
}

// runOnce loads the task file fresh and runs it. Graphs are single-use, so
// every run builds its own.
func runOnce(ctx context.Context, cmd *cobra.Command, cfg *config.Config, path string, logger *logging.Logger) error {
	f, g, err := loadGraph(path, cfg.Output.BufferSize)
	if err != nil {
		return err
	}
	if len(runOnly) > 0 {
		if g, err = g.Select(runOnly); err != nil {
			return err
		}
	}

	title := cfg.Run.Title
	if !cmd.Flags().Changed("title") && f.Title != "" {
		title = f.Title
	}

	formatter, err := cfg.Log.Formatter()
	if err != nil {
		return err
	}

	headless := runHeadless || runWatch || !term.IsTerminal(int(os.Stdout.Fd()))
	logger.Info("starting run", "file", path, "title", title, "tasks", g.Len(), "headless", headless)

	rep, err := gtui.Run(ctx, g, gtui.Options{
		Title:           title,
		Callback:        completionCallback(cfg, title),
		LogFormatter:    formatter,
		TaskLogLevel:    cfg.Log.SlogLevel(),
		EchoLogToOutput: cfg.Log.EchoToOutput,
		MaxParallel:     cfg.Run.MaxParallel,
		Headless:        headless,
		ExitOnSuccess:   cfg.Run.ExitOnSuccess,
		RedirectStdout:  cfg.Run.RedirectStdout,
		RefreshInterval: cfg.TUI.RefreshInterval(),
		SidebarWidth:    cfg.TUI.SidebarWidth,
		Follow:          cfg.TUI.Follow,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	if runReport != "" {
		if err := writeReport(runReport, rep); err != nil {
			return err
		}
	}
	if headless {
		if err := rep.Summary(cmd.OutOrStdout()); err != nil {
			return err
		}
	}
	if !rep.Success {
		return fmt.Errorf("%w: %d failed, %d skipped", ErrRunFailed, rep.Counts.Failed, rep.Counts.Skipped)
	}
	return nil
}

// watchRun runs the file, then again after every change, until ctx ends.
// A failing run or a broken edit is reported and the watch continues.
func watchRun(ctx context.Context, cmd *cobra.Command, cfg *config.Config, path string, logger *logging.Logger) error {
	w, err := taskfile.NewWatcher(path, taskfile.DefaultDebounce, logger)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	changed := make(chan struct{}, 1)
	w.Start(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer w.Stop()

	for {
		if err := runOnce(ctx, cmd, cfg, path, logger); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for changes (Ctrl+C to stop)\n", path)

		select {
		case <-ctx.Done():
			return nil
		case <-changed:
			logger.Info("task file changed, re-running", "file", path)
		}
	}
}

// completionCallback chains the notifications enabled in cfg.
func completionCallback(cfg *config.Config, title string) func(bool) {
	var desktop, bell func(bool)
	if cfg.Notifications.Enabled {
		desktop = notify.Desktop(title, cfg.Notifications.SuccessMessage, cfg.Notifications.FailureMessage)
	}
	if cfg.Notifications.Bell {
		bell = notify.Bell(os.Stdout)
	}
	return notify.Chain(desktop, bell)
}

// engineLogger opens the debug log configured under logging.*, or returns
// a discarding logger when file logging is off.
func engineLogger(cfg *config.Config) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	logger, err := logging.NewLoggerWithRotation(cfg.Logging.ResolveDir(cwd), cfg.Logging.Level, cfg.Logging.RotationConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open debug log: %w", err)
	}
	return logger, nil
}

func writeReport(path string, rep *gtui.RunReport) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close report: %w", cerr)
		}
	}()
	return rep.WriteJSON(f)
}
