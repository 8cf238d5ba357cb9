package infra

import (
	"context"
	"fmt"
	"os/exec"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/nas_power/internal/domain"
)

const defaultShell = "/bin/sh"

// ShellSuspender implements domain.Suspender by handing the configured
// command to the host shell.
type ShellSuspender struct {
	shell   string
	command string
	logger  *zap.Logger
}

// NewShellSuspender creates a suspender running command via /bin/sh -c.
func NewShellSuspender(command string, logger *zap.Logger) *ShellSuspender {
	return &ShellSuspender{
		shell:   defaultShell,
		command: command,
		logger:  logger,
	}
}

// Suspend starts the command and returns without waiting for it.
// A background goroutine reaps the child; its exit status is only logged.
// The child is not bound to ctx: stopping the daemon must not kill an
// in-flight suspend.
func (s *ShellSuspender) Suspend(_ context.Context) error {
	cmd := exec.Command(s.shell, "-c", s.command)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start suspend command: %w", err)
	}

	pid := cmd.Process.Pid
	go func() {
		err := cmd.Wait()
		s.logger.Debug("suspend command finished",
			zap.Int("pid", pid),
			zap.Int("exit_code", cmd.ProcessState.ExitCode()),
			zap.NamedError("wait_error", err))
	}()

	return nil
}

// Ensure ShellSuspender implements domain.Suspender.
var _ domain.Suspender = (*ShellSuspender)(nil)
