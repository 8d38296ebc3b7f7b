// Package notify builds run-completion callbacks that alert the user.
package notify

import (
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// runCommand starts a notifier process without waiting for it. Tests
// replace it.
var runCommand = func(name string, args ...string) error {
	_, err := startReaped(exec.Command(name, args...))
	return err
}

// startReaped starts cmd and waits for it in the background so the exited
// process is reaped. The returned channel receives the Wait result.
func startReaped(cmd *exec.Cmd) (<-chan error, error) {
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	return done, nil
}

// Command returns the program and arguments that show a desktop
// notification on goos: osascript on darwin, notify-send elsewhere.
func Command(goos, title, content string) (string, []string) {
	if goos == "darwin" {
		script := "display notification " + appleScriptString(content) + " with title " + appleScriptString(title)
		return "osascript", []string{"-e", script}
	}
	return "notify-send", []string{title, content}
}

// appleScriptString quotes s as an AppleScript string literal.
func appleScriptString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

// Send shows a desktop notification. It does not wait for the notifier
// process to exit.
func Send(title, content string) error {
	name, args := Command(runtime.GOOS, title, content)
	return runCommand(name, args...)
}

// Desktop returns a callback that sends a notification titled title whose
// body is successMsg or failMsg depending on the run's outcome.
func Desktop(title, successMsg, failMsg string) func(bool) {
	return func(success bool) {
		msg := failMsg
		if success {
			msg = successMsg
		}
		_ = Send(title, msg)
	}
}

// Bell returns a callback that writes the terminal bell to w, or to
// os.Stdout when w is nil. It works even while a TUI holds the alt screen.
func Bell(w io.Writer) func(bool) {
	if w == nil {
		w = os.Stdout
	}
	return func(bool) {
		_, _ = w.Write([]byte{'\a'})
	}
}

// Chain returns a callback that calls each non-nil callback in order.
// It returns nil when there is nothing to call.
func Chain(callbacks ...func(bool)) func(bool) {
	var cbs []func(bool)
	for _, cb := range callbacks {
		if cb != nil {
			cbs = append(cbs, cb)
		}
	}
	if len(cbs) == 0 {
		return nil
	}
	return func(success bool) {
		for _, cb := range cbs {
			cb(success)
		}
	}
}
