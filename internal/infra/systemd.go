package infra

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"github.com/eliteGoblin/focusd/nas_power/internal/domain"
)

// Unit for the daemon. The loop runs in the foreground under systemd and
// is not restarted when it exits.
const unitTemplate = `[Unit]
Description=Suspend the NAS when no client holds a file-sharing connection
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
ExecStart={{.ExecutablePath}} start --foreground --config {{.ConfigPath}} --pid-file {{.PIDPath}} --log-file {{.LogPath}}
ExecStop={{.ExecutablePath}} stop --pid-file {{.PIDPath}}

[Install]
WantedBy={{.WantedBy}}
`

type unitConfig struct {
	ExecutablePath string
	ConfigPath     string
	PIDPath        string
	LogPath        string
	WantedBy       string
}

// SystemdManager implements domain.ServiceInstaller for both modes.
type SystemdManager struct {
	mode     ExecMode
	unitDir  string
	unitPath string
	pidPath  string
	logPath  string
}

// NewSystemdManager creates a unit manager based on execution mode.
func NewSystemdManager(config *ExecModeConfig) *SystemdManager {
	return &SystemdManager{
		mode:     config.Mode,
		unitDir:  config.UnitDir,
		unitPath: config.UnitPath,
		pidPath:  config.PIDPath,
		logPath:  config.LogPath,
	}
}

// generateUnitContent creates unit content for the given paths.
func (m *SystemdManager) generateUnitContent(execPath, configPath string) ([]byte, error) {
	wantedBy := "multi-user.target"
	if m.mode == ExecModeUser {
		wantedBy = "default.target"
	}

	config := unitConfig{
		ExecutablePath: execPath,
		ConfigPath:     configPath,
		PIDPath:        m.pidPath,
		LogPath:        m.logPath,
		WantedBy:       wantedBy,
	}

	tmpl, err := template.New("unit").Parse(unitTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse unit template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, config); err != nil {
		return nil, fmt.Errorf("failed to execute unit template: %w", err)
	}

	return buf.Bytes(), nil
}

// Install writes the unit file unless it is already current.
func (m *SystemdManager) Install(execPath, configPath string) (bool, error) {
	if m.IsInstalled() && !m.NeedsUpdate(execPath, configPath) {
		return false, nil
	}

	if err := os.MkdirAll(m.unitDir, 0755); err != nil {
		return false, err
	}

	content, err := m.generateUnitContent(execPath, configPath)
	if err != nil {
		return false, fmt.Errorf("failed to generate unit content: %w", err)
	}

	if err := os.WriteFile(m.unitPath, content, 0644); err != nil {
		return false, err
	}
	return true, nil
}

// IsInstalled checks if the unit file exists.
func (m *SystemdManager) IsInstalled() bool {
	_, err := os.Stat(m.unitPath)
	return err == nil
}

// NeedsUpdate checks if the unit exists but has different content than expected.
func (m *SystemdManager) NeedsUpdate(execPath, configPath string) bool {
	if !m.IsInstalled() {
		return false // Doesn't exist, needs install not update
	}

	currentContent, err := os.ReadFile(m.unitPath)
	if err != nil {
		return true
	}

	expectedContent, err := m.generateUnitContent(execPath, configPath)
	if err != nil {
		return true
	}

	return !bytes.Equal(currentContent, expectedContent)
}

// GetUnitPath returns the unit file path.
func (m *SystemdManager) GetUnitPath() string {
	return m.unitPath
}

// GetMode returns the current execution mode.
func (m *SystemdManager) GetMode() ExecMode {
	return m.mode
}

// Ensure SystemdManager implements domain.ServiceInstaller.
var _ domain.ServiceInstaller = (*SystemdManager)(nil)
