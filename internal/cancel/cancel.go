// Package cancel provides the abort signal shared by every subprocess of a
// build run.
//
// A Controller is created once per invocation and triggered at most once:
// Signal is idempotent and there is no reset. Each subprocess binds to the
// controller's Context at launch so that triggering it requests termination
// of running toolchains, and the orchestrator checks Triggered before
// spawning so that pending work is never started.
package cancel

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
)

// Controller is a one-way cancellation token.
type Controller struct {
	ctx       context.Context
	cancel    context.CancelFunc
	triggered atomic.Bool
}

// New creates a Controller. Cancelling parent also triggers the controller.
func New(parent context.Context) *Controller {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Controller{ctx: ctx, cancel: cancel}
}

// Signal triggers the controller. Calling it more than once has no further
// effect.
func (c *Controller) Signal() {
	if c.triggered.CompareAndSwap(false, true) {
		c.cancel()
	}
}

// Triggered reports whether the controller has been triggered.
func (c *Controller) Triggered() bool {
	return c.triggered.Load() || c.ctx.Err() != nil
}

// Context returns a context that is cancelled when the controller triggers.
func (c *Controller) Context() context.Context {
	return c.ctx
}

// Done is shorthand for Context().Done().
func (c *Controller) Done() <-chan struct{} {
	return c.ctx.Done()
}

// NotifyOnSignals triggers the controller on an interactive interrupt or the
// platform's terminate notification. Only the first signal is handled: delivery
// stops before the controller triggers, so a repeated signal gets the default
// behaviour. The returned function stops delivery and must be called when the
// run is over.
func (c *Controller) NotifyOnSignals(onSignal func(os.Signal)) (stop func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, notifySignals()...)

	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigChan:
			signal.Stop(sigChan)
			if onSignal != nil {
				onSignal(sig)
			}
			c.Signal()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}
