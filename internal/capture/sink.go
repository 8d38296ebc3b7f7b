package capture

import (
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/Iron-Ham/gtui/internal/errors"
	"github.com/Iron-Ham/gtui/internal/logging"
)

// active is the sink currently owning the process's ambient output.
var active atomic.Pointer[Sink]

// SinkOptions configures Acquire.
type SinkOptions struct {
	// Owner names the acquirer in conflict errors, usually the run title.
	Owner string

	// Unbound receives writes made outside any task binding. Nil means
	// the real standard output at acquire time.
	Unbound io.Writer

	// RedirectStdout replaces os.Stdout with a pipe for the sink's
	// lifetime. Anything written to os.Stdout directly, from any goroutine,
	// is forwarded to Unbound instead of reaching the terminal.
	RedirectStdout bool

	// Logger receives failures on the release path. Nil discards them.
	Logger *logging.Logger
}

// Sink is the exclusive owner of the ambient output stream for one run.
type Sink struct {
	owner    string
	terminal *os.File
	unbound  *lockedWriter
	logger   *logging.Logger

	pipeR    *os.File
	pipeW    *os.File
	pumpDone chan struct{}

	releaseOnce sync.Once
}

// Acquire takes exclusive ownership of the ambient output stream.
// If another sink already owns it, Acquire fails with a
// *errors.CaptureConflictError and changes nothing.
func Acquire(opts SinkOptions) (*Sink, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	s := &Sink{
		owner:    opts.Owner,
		terminal: os.Stdout,
		logger:   logger,
	}
	unbound := opts.Unbound
	if unbound == nil {
		unbound = s.terminal
	}
	s.unbound = &lockedWriter{w: unbound}

	if !active.CompareAndSwap(nil, s) {
		owner := ""
		if cur := active.Load(); cur != nil {
			owner = cur.owner
		}
		return nil, errors.NewCaptureConflictError(owner)
	}

	if opts.RedirectStdout {
		r, w, err := os.Pipe()
		if err != nil {
			active.CompareAndSwap(s, nil)
			return nil, errors.Wrap(err, "failed to redirect stdout")
		}
		s.pipeR, s.pipeW = r, w
		s.pumpDone = make(chan struct{})
		os.Stdout = w
		go s.pump()
	}

	logger.Debug("output capture acquired", "owner", s.owner, "redirect_stdout", opts.RedirectStdout)
	return s, nil
}

// Active returns the sink currently owning the ambient output, or nil.
func Active() *Sink {
	return active.Load()
}

func (s *Sink) pump() {
	defer close(s.pumpDone)
	if _, err := io.Copy(s.unbound, s.pipeR); err != nil {
		s.logger.Warn("stdout pump stopped", "error", err.Error())
	}
}

// Release restores os.Stdout, flushes anything still in the redirect pipe
// and gives up ownership. It is idempotent and never panics; failures are
// logged.
func (s *Sink) Release() {
	if s == nil {
		return
	}
	s.releaseOnce.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("output capture release panicked", "panic", r)
			}
			active.CompareAndSwap(s, nil)
		}()

		if s.pipeW != nil {
			if os.Stdout == s.pipeW {
				os.Stdout = s.terminal
			}
			if err := s.pipeW.Close(); err != nil {
				s.logger.Warn("failed to close stdout pipe", "error", err.Error())
			}
			<-s.pumpDone
			if err := s.pipeR.Close(); err != nil {
				s.logger.Warn("failed to close stdout pipe reader", "error", err.Error())
			}
		}
		s.logger.Debug("output capture released", "owner", s.owner)
	})
}

// Owner returns the name given at acquire time.
func (s *Sink) Owner() string {
	return s.owner
}

// Terminal returns the real standard output as it was before the sink
// redirected anything. The presentation layer draws here.
func (s *Sink) Terminal() *os.File {
	return s.terminal
}

// Unbound returns the writer that receives output from outside any task.
func (s *Sink) Unbound() io.Writer {
	return s.unbound
}

// lockedWriter serializes writes so each Write reaches w whole.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
