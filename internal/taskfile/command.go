package taskfile

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"time"

	"github.com/Iron-Ham/gtui/internal/capture"
	"github.com/Iron-Ham/gtui/internal/errors"
	"github.com/Iron-Ham/gtui/internal/graph"
	"github.com/Iron-Ham/gtui/internal/logging"
)

const (
	// DefaultShell runs task commands when BuildOptions.Shell is empty.
	DefaultShell = "sh"
	// DefaultWaitDelay is used when BuildOptions.WaitDelay is zero.
	DefaultWaitDelay = time.Second
)

// Command returns an action that runs def.Command through the shell.
// Its stdout and stderr go to the task's captured output, and the start
// and exit are recorded on the task logger. A non-zero exit fails the task.
func Command(def TaskDef, opts BuildOptions) graph.Action {
	shell := opts.Shell
	if shell == "" {
		shell = DefaultShell
	}
	waitDelay := opts.WaitDelay
	if waitDelay <= 0 {
		waitDelay = DefaultWaitDelay
	}
	dir := def.Dir
	if dir != "" && !filepath.IsAbs(dir) && opts.BaseDir != "" {
		dir = filepath.Join(opts.BaseDir, dir)
	} else if dir == "" {
		dir = opts.BaseDir
	}
	env := envList(def.Env)

	return func(ctx context.Context) error {
		log := logging.FromContext(ctx)

		cmd := exec.CommandContext(ctx, shell, "-c", def.Command)
		cmd.Dir = dir
		cmd.WaitDelay = waitDelay
		if len(env) > 0 {
			cmd.Env = append(os.Environ(), env...)
		}
		out := capture.Writer(ctx)
		cmd.Stdout = out
		cmd.Stderr = out

		log.Info("running command", "command", def.Command, "dir", dir)
		start := time.Now()
		err := cmd.Run()

		code := -1
		if cmd.ProcessState != nil {
			code = cmd.ProcessState.ExitCode()
		}
		log.Info("command exited", "exit_code", code, "duration", time.Since(start).Round(time.Millisecond).String())

		// The shell exited cleanly but a background child still holds the
		// output open; its later output is dropped.
		if errors.Is(err, exec.ErrWaitDelay) && code == 0 {
			log.Warn("output closed with background processes still running")
			return nil
		}
		if err != nil {
			return fmt.Errorf("command %q: %w", def.Command, err)
		}
		return nil
	}
}

// envList renders env as sorted KEY=value pairs.
func envList(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	slices.Sort(out)
	return out
}
