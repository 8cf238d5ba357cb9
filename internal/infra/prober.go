package infra

import (
	"context"
	"errors"
	"os/exec"

	"github.com/eliteGoblin/focusd/nas_power/internal/domain"
)

// CommandProber implements domain.Prober by running a connection listing
// command (netstat -a -n unless configured otherwise).
type CommandProber struct {
	args []string
}

// NewCommandProber creates a prober for args; empty args selects the default.
func NewCommandProber(args []string) *CommandProber {
	if len(args) == 0 {
		args = domain.DefaultProbeCommand
	}
	return &CommandProber{args: append([]string(nil), args...)}
}

// Command returns the argument list the prober runs.
func (p *CommandProber) Command() []string {
	return append([]string(nil), p.args...)
}

// Probe runs the command and returns its combined stdout/stderr.
func (p *CommandProber) Probe(ctx context.Context) (domain.ProbeResult, error) {
	cmd := exec.CommandContext(ctx, p.args[0], p.args[1:]...)
	cmd.Stdin = nil // Never prompt

	// Output is read to completion before the exit status is looked at
	output, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return domain.ProbeResult{}, &domain.ProbeError{
				Command:  p.Command(),
				ExitCode: exitErr.ExitCode(),
				Output:   string(output),
				Err:      err,
			}
		}
		return domain.ProbeResult{}, &domain.ProbeError{
			Command:  p.Command(),
			ExitCode: -1,
			Output:   string(output),
			Err:      err,
		}
	}

	return domain.ProbeResult{Output: string(output), ExitCode: 0}, nil
}

// Ensure CommandProber implements domain.Prober.
var _ domain.Prober = (*CommandProber)(nil)
