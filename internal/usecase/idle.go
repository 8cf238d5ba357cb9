// Package usecase contains application business logic.
package usecase

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/nas_power/internal/domain"
)

// IdleMonitor implements domain.IdleLoop: sleep, probe, suspend when idle.
type IdleMonitor struct {
	interval  time.Duration
	prober    domain.Prober
	matcher   domain.ConnectionMatcher
	suspender domain.Suspender
	logger    *zap.Logger
}

// NewIdleMonitor creates the idle-suspend loop.
func NewIdleMonitor(
	interval time.Duration,
	prober domain.Prober,
	matcher domain.ConnectionMatcher,
	suspender domain.Suspender,
	logger *zap.Logger,
) *IdleMonitor {
	return &IdleMonitor{
		interval:  interval,
		prober:    prober,
		matcher:   matcher,
		suspender: suspender,
		logger:    logger,
	}
}

// Run loops until ctx is canceled (returns nil) or an iteration fails
// (returns the error). Iterations never overlap.
func (m *IdleMonitor) Run(ctx context.Context) error {
	if m.interval <= 0 {
		return fmt.Errorf("%w: check interval must be positive, got %s", domain.ErrInvalidConfig, m.interval)
	}

	m.logger.Info("idle monitor started",
		zap.String("endpoint", m.matcher.Endpoint()),
		zap.Duration("interval", m.interval))

	timer := time.NewTimer(m.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("idle monitor stopping")
			return nil
		case <-timer.C:
		}

		if err := m.Tick(ctx); err != nil {
			// A probe killed by our own cancellation is a graceful stop
			if ctx.Err() != nil {
				m.logger.Info("idle monitor stopping")
				return nil
			}
			return err
		}

		timer.Reset(m.interval)
	}
}

// Tick runs one check: probe, match, and suspend if nothing matched.
// A panic is converted into an error wrapping domain.ErrLoopPanic.
func (m *IdleMonitor) Tick(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("panic in idle loop iteration",
				zap.Any("panic", r),
				zap.ByteString("trace", debug.Stack()))
			err = fmt.Errorf("%w: %v", domain.ErrLoopPanic, r)
		}
	}()

	active, err := m.HasActiveConnection(ctx)
	if err != nil {
		// Fail closed: never suspend without a successful probe
		return err
	}

	if active {
		m.logger.Debug("active connection found, staying awake",
			zap.String("endpoint", m.matcher.Endpoint()))
		return nil
	}

	m.logger.Info("no active connection, suspending",
		zap.String("endpoint", m.matcher.Endpoint()))

	// The command's own outcome is not part of the loop's contract
	if err := m.suspender.Suspend(ctx); err != nil {
		m.logger.Warn("suspend command could not be started", zap.Error(err))
	}
	return nil
}

// HasActiveConnection probes once and reports whether the endpoint is in use.
func (m *IdleMonitor) HasActiveConnection(ctx context.Context) (bool, error) {
	result, err := m.prober.Probe(ctx)
	if err != nil {
		return false, fmt.Errorf("connection probe failed: %w", err)
	}
	return m.matcher.Matches(result.Output), nil
}

// Ensure IdleMonitor implements domain.IdleLoop.
var _ domain.IdleLoop = (*IdleMonitor)(nil)
