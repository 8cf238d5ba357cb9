package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidConfig is returned when a required configuration value is missing or malformed.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrAlreadyRunning is returned when another live process holds the PID record.
	ErrAlreadyRunning = errors.New("daemon already running")

	// ErrLoopPanic wraps a panic recovered inside one loop iteration.
	ErrLoopPanic = errors.New("idle loop panicked")
)

// ProbeError is returned when the connection probe exits non-zero or
// cannot be started. ExitCode is -1 when no exit status is available.
type ProbeError struct {
	Command  []string
	ExitCode int
	Output   string
	Err      error
}

func (e *ProbeError) Error() string {
	msg := fmt.Sprintf("probe %q failed with exit status %d", strings.Join(e.Command, " "), e.ExitCode)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + firstLine(out)
	}
	if e.Err != nil && e.ExitCode < 0 {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
