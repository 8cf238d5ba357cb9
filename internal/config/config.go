// Package config loads the daemon configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eliteGoblin/focusd/nas_power/internal/domain"
)

// maxTimeoutSeconds is the largest timeout representable as a time.Duration.
const maxTimeoutSeconds = math.MaxInt64 / int64(time.Second)

// fileConfig mirrors the YAML file. Pointers distinguish absent keys from zero values.
//
//	timeout: 300
//	suspend_command: systemctl suspend
//	address: 192.168.1.10
//	port: 2049
//	probe_command: [netstat, -a, -n]   # optional
type fileConfig struct {
	Timeout        *int     `yaml:"timeout"`
	SuspendCommand *string  `yaml:"suspend_command"`
	Address        *string  `yaml:"address"`
	Port           *int     `yaml:"port"`
	ProbeCommand   []string `yaml:"probe_command"`
}

// Load reads and validates the configuration at path.
// All problems are reported together, wrapped in domain.ErrInvalidConfig.
func Load(path string) (domain.Config, error) {
	path, err := expandHome(path)
	if err != nil {
		return domain.Config{}, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Config{}, fmt.Errorf("%w: failed to read config file: %v", domain.ErrInvalidConfig, err)
	}

	return Parse(data)
}

// Parse decodes and validates YAML configuration. Unknown keys are rejected.
func Parse(data []byte) (domain.Config, error) {
	var fc fileConfig

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return domain.Config{}, fmt.Errorf("%w: failed to parse YAML: %v", domain.ErrInvalidConfig, err)
	}

	return fc.validate()
}

func (fc fileConfig) validate() (domain.Config, error) {
	var problems []error
	cfg := domain.Config{ProbeCommand: domain.DefaultProbeCommand}

	switch {
	case fc.Timeout == nil:
		problems = append(problems, errors.New("timeout is required"))
	case *fc.Timeout < 1:
		problems = append(problems, fmt.Errorf("timeout must be at least 1 second, got %d", *fc.Timeout))
	case int64(*fc.Timeout) > maxTimeoutSeconds:
		problems = append(problems, fmt.Errorf("timeout must be at most %d seconds, got %d", maxTimeoutSeconds, *fc.Timeout))
	default:
		cfg.Timeout = time.Duration(*fc.Timeout) * time.Second
	}

	switch {
	case fc.SuspendCommand == nil:
		problems = append(problems, errors.New("suspend_command is required"))
	case strings.TrimSpace(*fc.SuspendCommand) == "":
		problems = append(problems, errors.New("suspend_command must not be empty"))
	default:
		cfg.SuspendCommand = *fc.SuspendCommand
	}

	switch {
	case fc.Address == nil:
		problems = append(problems, errors.New("address is required"))
	case strings.TrimSpace(*fc.Address) == "":
		problems = append(problems, errors.New("address must not be empty"))
	case strings.ContainsAny(*fc.Address, " \t/"):
		problems = append(problems, fmt.Errorf("address %q is not a host literal", *fc.Address))
	default:
		cfg.Address = strings.TrimSpace(*fc.Address)
	}

	switch {
	case fc.Port == nil:
		problems = append(problems, errors.New("port is required"))
	case *fc.Port < 1 || *fc.Port > 65535:
		problems = append(problems, fmt.Errorf("port must be between 1 and 65535, got %d", *fc.Port))
	default:
		cfg.Port = *fc.Port
	}

	if fc.ProbeCommand != nil {
		if len(fc.ProbeCommand) == 0 || strings.TrimSpace(fc.ProbeCommand[0]) == "" {
			problems = append(problems, errors.New("probe_command must name a command"))
		} else {
			cfg.ProbeCommand = fc.ProbeCommand
		}
	}

	if len(problems) > 0 {
		return domain.Config{}, fmt.Errorf("%w: %w", domain.ErrInvalidConfig, errors.Join(problems...))
	}
	return cfg, nil
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}
