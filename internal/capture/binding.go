package capture

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

type bindingKey struct{}

// Binding ties the goroutines holding a context to one output destination.
// After Detach, writes through that context fall through to the unbound
// destination.
type Binding struct {
	mu       sync.RWMutex
	dst      io.Writer
	detached bool
}

// Attach returns a copy of ctx whose output goes to w, and the binding to
// detach when the work using ctx ends. Goroutines a task spawns call
// Attach (or AttachInherited) on the context they were handed:
//
//	go func() {
//		ctx, b := capture.AttachInherited(ctx)
//		defer b.Detach()
//		capture.Println(ctx, "from a helper goroutine")
//	}()
func Attach(ctx context.Context, w io.Writer) (context.Context, *Binding) {
	b := &Binding{dst: w}
	return context.WithValue(ctx, bindingKey{}, b), b
}

// AttachInherited is Attach with the destination currently bound in ctx.
// If ctx has no live binding, the new binding writes to the unbound
// destination.
func AttachInherited(ctx context.Context) (context.Context, *Binding) {
	var dst io.Writer
	if parent := bindingFrom(ctx); parent != nil {
		dst = parent.Destination()
	}
	return Attach(ctx, dst)
}

// CaptureFor runs fn with output bound to w. The binding is detached on
// every exit path, including a panic in fn, which is re-raised afterwards.
// ctx itself is not modified, so code still holding it sees whatever
// binding it had before. CaptureFor may be called on a nil *Sink.
func (s *Sink) CaptureFor(ctx context.Context, w io.Writer, fn func(ctx context.Context) error) error {
	bctx, b := Attach(ctx, w)
	defer b.Detach()
	return fn(bctx)
}

// Detach ends the binding. It is idempotent and safe on a nil Binding.
func (b *Binding) Detach() {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.detached = true
	b.dst = nil
	b.mu.Unlock()
}

// Detached reports whether Detach has been called.
func (b *Binding) Detached() bool {
	if b == nil {
		return true
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.detached
}

// Destination returns the bound writer, or nil once detached.
func (b *Binding) Destination() io.Writer {
	if b == nil {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dst
}

// write sends p to the bound destination. ok is false when the binding no
// longer owns a destination and the caller should fall through.
func (b *Binding) write(p []byte) (n int, ok bool, err error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.detached || b.dst == nil {
		return 0, false, nil
	}
	n, err = b.dst.Write(p)
	return n, true, err
}

func bindingFrom(ctx context.Context) *Binding {
	if ctx == nil {
		return nil
	}
	b, _ := ctx.Value(bindingKey{}).(*Binding)
	return b
}

// ctxWriter resolves its destination on every write.
type ctxWriter struct {
	ctx context.Context
}

func (w ctxWriter) Write(p []byte) (int, error) {
	if b := bindingFrom(w.ctx); b != nil {
		if n, ok, err := b.write(p); ok {
			return n, err
		}
	}
	return unbound().Write(p)
}

func unbound() io.Writer {
	if s := active.Load(); s != nil {
		return s.unbound
	}
	return os.Stdout
}

// Writer returns the output stream for code running under ctx: the bound
// task buffer while a binding is live, otherwise the active sink's
// unbound destination, otherwise os.Stdout.
func Writer(ctx context.Context) io.Writer {
	return ctxWriter{ctx: ctx}
}

// Printf formats to Writer(ctx).
func Printf(ctx context.Context, format string, args ...any) {
	_, _ = fmt.Fprintf(Writer(ctx), format, args...)
}

// Println prints to Writer(ctx) followed by a newline.
func Println(ctx context.Context, args ...any) {
	_, _ = fmt.Fprintln(Writer(ctx), args...)
}

// Print prints to Writer(ctx).
func Print(ctx context.Context, args ...any) {
	_, _ = fmt.Fprint(Writer(ctx), args...)
}
