package usecase

import (
	"context"
	"fmt"
	"syscall"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/nas_power/internal/domain"
)

// controlSignals maps control commands to the signal sent to the recorded pid.
// SIGSTOP/SIGCONT are handled by the kernel, never by the daemon.
var controlSignals = map[domain.Command]syscall.Signal{
	domain.CommandStop:   syscall.SIGTERM,
	domain.CommandPause:  syscall.SIGSTOP,
	domain.CommandResume: syscall.SIGCONT,
}

// Dispatcher translates a control command into an action.
// Nothing it does waits for the target process to react.
type Dispatcher struct {
	guard          domain.SingletonGuard
	processManager domain.ProcessManager
	launcher       domain.Launcher
	logger         *zap.Logger
}

// NewDispatcher creates a command dispatcher. launcher may be nil when
// only stop/pause/resume/status are needed.
func NewDispatcher(
	guard domain.SingletonGuard,
	pm domain.ProcessManager,
	launcher domain.Launcher,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		guard:          guard,
		processManager: pm,
		launcher:       launcher,
		logger:         logger,
	}
}

// Dispatch performs cmd. Already-running and not-running conditions are
// no-ops, not errors.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd domain.Command) error {
	switch cmd {
	case domain.CommandStart:
		return d.start(ctx)
	case domain.CommandStop, domain.CommandPause, domain.CommandResume:
		return d.signal(cmd, controlSignals[cmd])
	default:
		return fmt.Errorf("unknown command: %q", cmd)
	}
}

func (d *Dispatcher) start(ctx context.Context) error {
	if d.guard.IsRunning() {
		pid, _ := d.guard.ReadPID()
		d.logger.Info("daemon already running", zap.Int("pid", pid))
		return nil
	}
	if d.launcher == nil {
		return fmt.Errorf("no launcher configured for start")
	}
	return d.launcher.Launch(ctx)
}

func (d *Dispatcher) signal(cmd domain.Command, sig syscall.Signal) error {
	pid, err := d.guard.ReadPID()
	if err != nil {
		return fmt.Errorf("failed to read PID record: %w", err)
	}

	if pid == 0 || !d.processManager.IsRunning(pid) {
		d.logger.Info("daemon not running, nothing to do", zap.String("command", string(cmd)))
		return nil
	}

	if err := d.processManager.Signal(pid, sig); err != nil {
		// Lost the race against the daemon exiting on its own
		if !d.processManager.IsRunning(pid) {
			d.logger.Info("daemon exited before signal was delivered",
				zap.String("command", string(cmd)),
				zap.Int("pid", pid))
			return nil
		}
		return err
	}

	d.logger.Info("signal sent",
		zap.String("command", string(cmd)),
		zap.String("signal", sig.String()),
		zap.Int("pid", pid))
	return nil
}

// Status reports the daemon state as seen from another process.
func (d *Dispatcher) Status() (*domain.DaemonStatus, error) {
	pid, err := d.guard.ReadPID()
	if err != nil {
		return nil, fmt.Errorf("failed to read PID record: %w", err)
	}

	status := &domain.DaemonStatus{PID: pid}
	if pid == 0 || !d.processManager.IsRunning(pid) {
		return status, nil
	}
	status.Running = true

	info, err := d.processManager.Describe(pid)
	if err != nil {
		d.logger.Debug("failed to describe daemon process", zap.Int("pid", pid), zap.Error(err))
		return status, nil
	}
	status.Process = info
	status.Paused = info.Stopped()
	return status, nil
}
