package domain

import (
	"context"
	"syscall"
)

// ProcessManager handles OS process operations.
// Implementation: x/sys/unix for signals, gopsutil for inspection.
type ProcessManager interface {
	// IsRunning sends the null signal to pid. Any delivery failure
	// (absent or inaccessible process) counts as not running.
	IsRunning(pid int) bool

	// Signal delivers sig to pid.
	Signal(pid int, sig syscall.Signal) error

	// Describe returns name, status and start time of a live process.
	Describe(pid int) (*ProcessInfo, error)

	// GetCurrentPID returns the current process PID.
	GetCurrentPID() int
}

// Lease is a held Singleton Guard. Release is idempotent.
type Lease interface {
	// PID returns the identifier written into the record.
	PID() int

	// Release removes the record and drops the exclusive lock.
	Release() error
}

// SingletonGuard owns the persisted process identifier record.
// Implementation: flock'ed PID file.
type SingletonGuard interface {
	// Acquire takes the record exclusively for the current process.
	// Returns ErrAlreadyRunning if a live holder exists.
	Acquire() (Lease, error)

	// ReadPID returns the recorded identifier, or 0 when no record exists.
	ReadPID() (int, error)

	// IsRunning is true iff a record exists and its pid passes the liveness probe.
	IsRunning() bool

	// Path returns the record location.
	Path() string
}

// Prober lists active network connections via an external command.
type Prober interface {
	// Probe runs the listing command to completion. A non-zero exit
	// status is returned as *ProbeError, never as an empty result.
	Probe(ctx context.Context) (ProbeResult, error)
}

// ConnectionMatcher decides whether probe output shows an active session.
type ConnectionMatcher interface {
	// Matches reports whether at least one line designates the watched endpoint.
	Matches(output string) bool

	// Endpoint returns the watched "address:port".
	Endpoint() string
}

// Suspender issues the configured power-suspend command.
type Suspender interface {
	// Suspend starts the command. Its exit status is not inspected.
	Suspend(ctx context.Context) error
}

// IdleLoop is the periodic idle check. Run returns nil once ctx is
// canceled and an error on any fatal condition.
type IdleLoop interface {
	Run(ctx context.Context) error
}

// Launcher starts the idle loop, in-process or in a detached child.
type Launcher interface {
	Launch(ctx context.Context) error
}

// ServiceInstaller writes the init-system unit for the daemon.
type ServiceInstaller interface {
	// Install writes the unit file. Returns false when content was already current.
	Install(execPath, configPath string) (changed bool, err error)

	// IsInstalled checks if the unit file exists.
	IsInstalled() bool

	// NeedsUpdate checks if the unit exists with different content than expected.
	NeedsUpdate(execPath, configPath string) bool

	// GetUnitPath returns the unit file path.
	GetUnitPath() string
}
