// Package ctxinterrupt ties context cancellation to process interrupt signals.
package ctxinterrupt

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// DefaultInterruptSignals is a set of default interrupt signals.
var DefaultInterruptSignals = []os.Signal{
	os.Interrupt,
	syscall.SIGTERM,
	syscall.SIGQUIT,
}

// Wait blocks until an interrupt is received or the context is done.
// It returns nil when interrupted, and the context error otherwise.
func Wait(ctx context.Context) error {
	interruptChannel := make(chan os.Signal, 1)
	signal.Notify(interruptChannel, DefaultInterruptSignals...)
	defer signal.Stop(interruptChannel)
	select {
	case <-interruptChannel:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WithCancelOnInterrupt returns a context that is cancelled on the first interrupt signal.
func WithCancelOnInterrupt(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		defer cancel()
		_ = Wait(ctx)
	}()
	return ctx
}
