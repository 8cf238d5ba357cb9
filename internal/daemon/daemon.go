// Package daemon implements the idle-suspend daemon lifecycle.
package daemon

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/nas_power/internal/domain"
)

// DefaultTerminationSignals trigger a graceful stop.
var DefaultTerminationSignals = []os.Signal{syscall.SIGTERM, syscall.SIGINT}

// Daemon holds the Singleton Guard for the lifetime of the idle loop and
// turns the termination signal into a graceful stop.
type Daemon struct {
	guard   domain.SingletonGuard
	loop    domain.IdleLoop
	logger  *zap.Logger
	signals []os.Signal

	state atomic.Int32
}

// NewDaemon creates the lifecycle around loop.
func NewDaemon(guard domain.SingletonGuard, loop domain.IdleLoop, logger *zap.Logger) *Daemon {
	return &Daemon{
		guard:   guard,
		loop:    loop,
		logger:  logger,
		signals: DefaultTerminationSignals,
	}
}

// WithSignals overrides the termination signals.
func (d *Daemon) WithSignals(sigs ...os.Signal) *Daemon {
	d.signals = sigs
	return d
}

// State returns the current run state.
func (d *Daemon) State() domain.RunState {
	return domain.RunState(d.state.Load())
}

// Launch runs the daemon in the current process (foreground start).
func (d *Daemon) Launch(ctx context.Context) error {
	return d.Run(ctx)
}

// Run acquires the guard, runs the loop until a termination signal or a
// fatal error, and releases the guard on every path.
// Returns nil for a graceful stop or when another instance already holds
// the guard; returns the loop error otherwise.
func (d *Daemon) Run(ctx context.Context) error {
	// Handlers go in before the record exists so no termination signal
	// can kill the process while it holds the guard.
	ctx, stop := d.notifyTermination(ctx)
	defer stop()

	lease, err := d.guard.Acquire()
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyRunning) {
			d.logger.Info("daemon already running", zap.Error(err))
			return nil
		}
		return err
	}
	defer func() {
		if err := lease.Release(); err != nil {
			d.logger.Warn("failed to release PID file", zap.Error(err))
		}
		d.state.Store(int32(domain.StateTerminated))
	}()

	// A signal caught during Acquire already moved the state to terminating
	d.state.CompareAndSwap(int32(domain.StateNotStarted), int32(domain.StateRunning))
	d.logger.Info("daemon started",
		zap.Int("pid", lease.PID()),
		zap.String("pid_file", d.guard.Path()))

	if err := d.loop.Run(ctx); err != nil {
		d.logger.Error("idle loop aborted",
			zap.Error(err),
			zap.Stack("trace"))
		return err
	}

	d.logger.Info("daemon stopped")
	return nil
}

// notifyTermination cancels the returned context on the first termination
// signal. Later deliveries are ignored.
func (d *Daemon) notifyTermination(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, d.signals...)

	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigChan:
			signal.Ignore(d.signals...)
			d.state.Store(int32(domain.StateTerminating))
			d.logger.Info("received termination signal", zap.String("signal", sig.String()))
			cancel()
		case <-done:
		}
	}()

	return ctx, func() {
		close(done)
		signal.Stop(sigChan)
		cancel()
	}
}

// Ensure Daemon implements domain.Launcher.
var _ domain.Launcher = (*Daemon)(nil)
