package infra

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/eliteGoblin/focusd/nas_power/internal/domain"
)

// ErrInvalidPID is returned when the PID record holds something other than a positive integer.
var ErrInvalidPID = errors.New("invalid PID in file")

// acquireAttempts bounds retries when the record is replaced between open and lock.
const acquireAttempts = 3

// PIDFile implements domain.SingletonGuard with a flock'ed PID file.
// The lock, not the file's presence, decides ownership: a record left by a
// dead process is reclaimed on the next Acquire.
type PIDFile struct {
	path           string
	processManager domain.ProcessManager
}

// NewPIDFile creates a guard over the record at path.
func NewPIDFile(path string, pm domain.ProcessManager) *PIDFile {
	return &PIDFile{
		path:           path,
		processManager: pm,
	}
}

// Path returns the record location.
func (g *PIDFile) Path() string {
	return g.path
}

// Acquire takes the record for the current process.
func (g *PIDFile) Acquire() (domain.Lease, error) {
	if err := os.MkdirAll(filepath.Dir(g.path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create PID file directory: %w", err)
	}

	pid := g.processManager.GetCurrentPID()

	for attempt := 0; attempt < acquireAttempts; attempt++ {
		f, err := os.OpenFile(g.path, os.O_RDWR|os.O_CREATE, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open PID file: %w", err)
		}

		if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
			f.Close()
			if errors.Is(err, unix.EWOULDBLOCK) {
				holder, _ := g.ReadPID()
				return nil, fmt.Errorf("%w (pid %d, record %s)", domain.ErrAlreadyRunning, holder, g.path)
			}
			return nil, fmt.Errorf("failed to lock PID file: %w", err)
		}

		// A releasing holder may have unlinked the file we opened
		if !sameFile(f, g.path) {
			_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
			f.Close()
			continue
		}

		if err := writePID(f, pid); err != nil {
			_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
			f.Close()
			os.Remove(g.path)
			return nil, err
		}

		return &pidLease{file: f, path: g.path, pid: pid}, nil
	}

	return nil, fmt.Errorf("failed to acquire PID file %s: record kept changing", g.path)
}

// ReadPID returns the recorded identifier, or 0 when no record exists.
func (g *PIDFile) ReadPID() (int, error) {
	data, err := os.ReadFile(g.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read PID file: %w", err)
	}

	pidStr := strings.TrimSpace(string(data))
	if pidStr == "" {
		// Created but not yet written by a starting daemon
		return 0, nil
	}

	pid, err := strconv.Atoi(pidStr)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPID, pidStr)
	}
	return pid, nil
}

// IsRunning is true iff a record exists and its pid is alive.
func (g *PIDFile) IsRunning() bool {
	pid, err := g.ReadPID()
	if err != nil || pid == 0 {
		return false
	}
	return g.processManager.IsRunning(pid)
}

func writePID(f *os.File, pid int) error {
	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("failed to truncate PID file: %w", err)
	}
	if _, err := f.WriteAt([]byte(strconv.Itoa(pid)+"\n"), 0); err != nil {
		return fmt.Errorf("failed to write PID: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync PID file: %w", err)
	}
	return nil
}

// sameFile reports whether the open file is still the one linked at path.
func sameFile(f *os.File, path string) bool {
	opened, err := f.Stat()
	if err != nil {
		return false
	}
	linked, err := os.Stat(path)
	if err != nil {
		return false
	}
	return os.SameFile(opened, linked)
}

// pidLease is a held PIDFile.
type pidLease struct {
	file *os.File
	path string
	pid  int

	once sync.Once
	err  error
}

func (l *pidLease) PID() int {
	return l.pid
}

// Release unlinks the record before unlocking so no reader sees a
// stale pid under a free lock.
func (l *pidLease) Release() error {
	l.once.Do(func() {
		if sameFile(l.file, l.path) {
			if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
				l.err = fmt.Errorf("failed to remove PID file: %w", err)
			}
		}
		_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
		if err := l.file.Close(); err != nil && l.err == nil {
			l.err = err
		}
	})
	return l.err
}

// Ensure PIDFile implements domain.SingletonGuard.
var _ domain.SingletonGuard = (*PIDFile)(nil)
