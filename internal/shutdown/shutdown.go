// Package shutdown owns the single piece of mutable state shared between
// signal-handling context and the main wait loop: an atomic flag that
// moves from running to stop-requested on the first termination signal.
// A second termination signal forces immediate exit without teardown.
package shutdown

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog/log"
)

// Shutdown flag states. The flag only ever moves forward: running ->
// stop-requested. The forced-exit escalation terminates the process, so
// it needs no state of its own.
const (
	stateRunning int32 = iota
	stateStopRequested
)

// Controller installs the termination signal handler and exposes the
// stop-requested flag to the wait loop.
type Controller struct {
	state atomic.Int32
	sigs  chan os.Signal
	exit  func(int)
}

// sigBuffer holds one slot per registered signal so a burst of signals
// stays pending until the handler loop drains it. signal.Notify sends
// without blocking and discards signals the channel cannot take; with a
// single slot a second termination signal could be lost and the forced
// exit would never fire.
const sigBuffer = 4

// New creates a shutdown controller. exit runs on forced termination and
// is os.Exit outside of tests.
func New(exit func(int)) *Controller {
	return &Controller{
		sigs: make(chan os.Signal, sigBuffer),
		exit: exit,
	}
}

// Install registers the termination signal set and starts the handler
// loop. SIGKILL cannot be caught and is deliberately absent.
func (c *Controller) Install() {
	signal.Notify(c.sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGABRT)
	go func() {
		for sig := range c.sigs {
			c.handle(sig)
		}
	}()
}

// StopRequested reports whether a termination signal has been observed.
func (c *Controller) StopRequested() bool {
	return c.state.Load() == stateStopRequested
}

// handle processes one delivered signal. Signals are drained one at a
// time off the channel, so the handler never re-enters itself.
func (c *Controller) handle(sig os.Signal) {
	log.Info().Str("signal", sig.String()).Msg("signal received")

	switch sig {
	case syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGABRT:
		if c.state.CompareAndSwap(stateRunning, stateStopRequested) {
			// First request: the wait loop notices on its next poll.
			return
		}
		log.Error().Msg("shutdown already in progress, exiting without cleanup")
		c.exit(1)
	default:
		log.Error().Str("signal", sig.String()).Msg("exiting on unexpected signal")
		c.exit(1)
	}
}
