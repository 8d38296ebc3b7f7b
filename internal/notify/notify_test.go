package notify

import (
	"bytes"
	"errors"
	"os/exec"
	"slices"
	"testing"
	"time"
)

func TestCommand(t *testing.T) {
	tests := []struct {
		goos     string
		wantName string
		wantArgs []string
	}{
		{"darwin", "osascript", []string{"-e", `display notification "done \"ok\"" with title "build"`}},
		{"linux", "notify-send", []string{"build", `done "ok"`}},
		{"freebsd", "notify-send", []string{"build", `done "ok"`}},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			name, args := Command(tt.goos, "build", `done "ok"`)
			if name != tt.wantName || !slices.Equal(args, tt.wantArgs) {
				t.Errorf("Command() = %s %q, want %s %q", name, args, tt.wantName, tt.wantArgs)
			}
		})
	}
}

func TestDesktop(t *testing.T) {
	var calls [][]string
	orig := runCommand
	runCommand = func(name string, args ...string) error {
		calls = append(calls, append([]string{name}, args...))
		return nil
	}
	t.Cleanup(func() { runCommand = orig })

	cb := Desktop("build", "all good", "broken")
	cb(true)
	cb(false)

	if len(calls) != 2 {
		t.Fatalf("calls = %v", calls)
	}
	last := func(c []string) string { return c[len(c)-1] }
	if !bytes.Contains([]byte(last(calls[0])), []byte("all good")) {
		t.Errorf("success call = %v", calls[0])
	}
	if !bytes.Contains([]byte(last(calls[1])), []byte("broken")) {
		t.Errorf("failure call = %v", calls[1])
	}
}

func TestBellAndChain(t *testing.T) {
	var buf bytes.Buffer
	var order []string

	if Chain(nil, nil) != nil {
		t.Error("Chain of nils should be nil")
	}

	cb := Chain(
		func(ok bool) { order = append(order, "first") },
		nil,
		Bell(&buf),
		func(ok bool) { order = append(order, "last") },
	)
	cb(true)

	if buf.String() != "\a" {
		t.Errorf("bell wrote %q", buf.String())
	}
	if !slices.Equal(order, []string{"first", "last"}) {
		t.Errorf("order = %v", order)
	}
}

func TestStartReaped(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not found in PATH")
	}

	done, err := startReaped(exec.Command(sh, "-c", "exit 3"))
	if err != nil {
		t.Fatalf("startReaped() error = %v", err)
	}
	select {
	case err := <-done:
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || exitErr.ExitCode() != 3 {
			t.Errorf("Wait() = %v, want exit status 3", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("process was never waited for")
	}

	if _, err := startReaped(exec.Command("gtui-no-such-notifier")); err == nil {
		t.Error("startReaped() of a missing program succeeded")
	}
}
