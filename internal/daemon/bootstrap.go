package daemon

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/nas_power/internal/domain"
)

// RunCommand is the hidden CLI command a detached child executes.
const RunCommand = "run"

// SpawnOptions are forwarded to the detached child as flags.
type SpawnOptions struct {
	ConfigPath string
	LogPath    string
	PIDPath    string
	Verbose    bool
}

// Spawner implements domain.Launcher by re-executing the binary in a new
// session, detached from the terminal.
type Spawner struct {
	executable string
	opts       SpawnOptions
	logger     *zap.Logger
}

// NewSpawner creates a launcher that self-execs the current binary.
func NewSpawner(opts SpawnOptions, logger *zap.Logger) (*Spawner, error) {
	executable, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}
	return NewSpawnerWithPath(executable, opts, logger), nil
}

// NewSpawnerWithPath creates a launcher for a specific binary (for testing).
func NewSpawnerWithPath(executable string, opts SpawnOptions, logger *zap.Logger) *Spawner {
	return &Spawner{
		executable: executable,
		opts:       opts,
		logger:     logger,
	}
}

// Args returns the child's argument list (without argv[0]).
func (s *Spawner) Args() []string {
	args := []string{RunCommand,
		"--config", s.opts.ConfigPath,
		"--log-file", s.opts.LogPath,
		"--pid-file", s.opts.PIDPath,
	}
	if s.opts.Verbose {
		args = append(args, "--verbose")
	}
	return args
}

// Launch starts the child and returns without waiting for it.
func (s *Spawner) Launch(_ context.Context) error {
	cmd := exec.Command(s.executable, s.Args()...)

	// Detach from parent process
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true, // Create new session (detach from terminal)
	}

	// No stdin/stdout/stderr - fully detached
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	s.logger.Info("daemon spawned", zap.Int("pid", cmd.Process.Pid))

	// The child outlives us; drop our handle so it is not waited on
	return cmd.Process.Release()
}

// Ensure Spawner implements domain.Launcher.
var _ domain.Launcher = (*Spawner)(nil)
