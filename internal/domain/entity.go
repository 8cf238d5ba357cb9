// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import (
	"fmt"
	"time"
)

// Command identifies a control action requested from the CLI.
type Command string

const (
	CommandStart  Command = "start"
	CommandStop   Command = "stop"
	CommandPause  Command = "pause"
	CommandResume Command = "resume"
)

// ParseCommand validates a command name.
func ParseCommand(s string) (Command, error) {
	switch c := Command(s); c {
	case CommandStart, CommandStop, CommandPause, CommandResume:
		return c, nil
	default:
		return "", fmt.Errorf("unknown command: %q", s)
	}
}

// DefaultProbeCommand lists all sockets with numeric addresses.
var DefaultProbeCommand = []string{"netstat", "-a", "-n"}

// Config is the daemon configuration. Loaded once, never mutated.
type Config struct {
	Timeout        time.Duration // Wait between connection checks
	SuspendCommand string        // Shell command run when idle
	Address        string        // Watched server address
	Port           int           // Watched server port
	ProbeCommand   []string      // Connection listing command and its flags
}

// Endpoint returns the watched "address:port" literal as the probe prints it.
func (c Config) Endpoint() string {
	return fmt.Sprintf("%s:%d", c.Address, c.Port)
}

// ProbeResult is the captured output of one connection probe.
type ProbeResult struct {
	Output   string
	ExitCode int
}

// RunState annotates the daemon process. Paused is not modelled here:
// pause/resume are OS-level stop/continue signals the process never sees.
type RunState int32

const (
	StateNotStarted RunState = iota
	StateRunning
	StateTerminating
	StateTerminated
)

func (s RunState) String() string {
	switch s {
	case StateNotStarted:
		return "not started"
	case StateRunning:
		return "running"
	case StateTerminating:
		return "terminating"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// ProcessInfo describes a live OS process (for the status command).
type ProcessInfo struct {
	PID       int
	Name      string
	Cmdline   string
	Status    []string // gopsutil status letters/words, e.g. "running", "stop"
	CreatedAt time.Time
}

// Stopped reports whether the process is suspended by a stop signal.
func (p ProcessInfo) Stopped() bool {
	for _, s := range p.Status {
		switch s {
		case "stop", "T", "t":
			return true
		}
	}
	return false
}

// DaemonStatus is the observable state of the daemon from another process.
type DaemonStatus struct {
	Running bool
	Paused  bool
	PID     int
	Process *ProcessInfo
}
