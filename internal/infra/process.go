// Package infra implements infrastructure concerns (process, PID record, probe, shell).
package infra

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"golang.org/x/sys/unix"

	"github.com/eliteGoblin/focusd/nas_power/internal/domain"
)

// ProcessManagerImpl implements domain.ProcessManager.
type ProcessManagerImpl struct{}

// NewProcessManager creates a new process manager.
func NewProcessManager() domain.ProcessManager {
	return &ProcessManagerImpl{}
}

// IsRunning checks if a PID exists and accepts signals from us.
func (pm *ProcessManagerImpl) IsRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	// Signal 0 performs the permission and existence checks only
	return unix.Kill(pid, 0) == nil
}

// Signal delivers sig to pid.
func (pm *ProcessManagerImpl) Signal(pid int, sig syscall.Signal) error {
	if pid <= 0 {
		return fmt.Errorf("invalid pid %d", pid)
	}
	if err := unix.Kill(pid, sig); err != nil {
		return fmt.Errorf("failed to send %s to pid %d: %w", unix.SignalName(sig), pid, err)
	}
	return nil
}

// Describe returns name, status and start time of a live process.
func (pm *ProcessManagerImpl) Describe(pid int) (*domain.ProcessInfo, error) {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return nil, err
	}

	info := &domain.ProcessInfo{PID: pid}

	// Fields are best effort: a process may exit between calls
	if name, err := p.Name(); err == nil {
		info.Name = name
	}
	if cmdline, err := p.Cmdline(); err == nil {
		info.Cmdline = cmdline
	}
	if status, err := p.Status(); err == nil {
		info.Status = status
	}
	if created, err := p.CreateTime(); err == nil {
		info.CreatedAt = time.UnixMilli(created)
	}

	return info, nil
}

// GetCurrentPID returns the current process PID.
func (pm *ProcessManagerImpl) GetCurrentPID() int {
	return os.Getpid()
}

// Ensure ProcessManagerImpl implements domain.ProcessManager.
var _ domain.ProcessManager = (*ProcessManagerImpl)(nil)
