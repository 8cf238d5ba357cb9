package infra

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSystemdManager(t *testing.T, mode ExecMode) *SystemdManager {
	t.Helper()
	dir := t.TempDir()
	unitDir := filepath.Join(dir, "systemd")
	return NewSystemdManager(&ExecModeConfig{
		Mode:     mode,
		PIDPath:  "/run/nas-power-manager.pid",
		LogPath:  "/var/log/nas-power-manager.log",
		UnitDir:  unitDir,
		UnitPath: filepath.Join(unitDir, "nas-power-manager.service"),
	})
}

func TestSystemdManager_InstallWritesUnit(t *testing.T) {
	m := newTestSystemdManager(t, ExecModeSystem)
	assert.False(t, m.IsInstalled())
	assert.False(t, m.NeedsUpdate("/usr/bin/nas-power-manager", "/etc/nas-power-manager.yaml"))

	changed, err := m.Install("/usr/bin/nas-power-manager", "/etc/nas-power-manager.yaml")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, m.IsInstalled())

	data, err := os.ReadFile(m.GetUnitPath())
	require.NoError(t, err)
	unit := string(data)

	assert.Contains(t, unit, "ExecStart=/usr/bin/nas-power-manager start --foreground --config /etc/nas-power-manager.yaml --pid-file /run/nas-power-manager.pid --log-file /var/log/nas-power-manager.log\n")
	assert.Contains(t, unit, "ExecStop=/usr/bin/nas-power-manager stop --pid-file /run/nas-power-manager.pid\n")
	assert.Contains(t, unit, "WantedBy=multi-user.target")
	assert.False(t, strings.Contains(unit, "Restart="), "no supervision policy")
}

func TestSystemdManager_InstallIsIdempotent(t *testing.T) {
	m := newTestSystemdManager(t, ExecModeSystem)

	_, err := m.Install("/usr/bin/nas-power-manager", "/etc/nas-power-manager.yaml")
	require.NoError(t, err)

	changed, err := m.Install("/usr/bin/nas-power-manager", "/etc/nas-power-manager.yaml")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestSystemdManager_NeedsUpdateOnNewPaths(t *testing.T) {
	m := newTestSystemdManager(t, ExecModeSystem)

	_, err := m.Install("/usr/bin/nas-power-manager", "/etc/nas-power-manager.yaml")
	require.NoError(t, err)

	assert.False(t, m.NeedsUpdate("/usr/bin/nas-power-manager", "/etc/nas-power-manager.yaml"))
	assert.True(t, m.NeedsUpdate("/usr/local/bin/nas-power-manager", "/etc/nas-power-manager.yaml"))

	changed, err := m.Install("/usr/local/bin/nas-power-manager", "/etc/nas-power-manager.yaml")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.False(t, m.NeedsUpdate("/usr/local/bin/nas-power-manager", "/etc/nas-power-manager.yaml"))
}

func TestSystemdManager_UserModeTarget(t *testing.T) {
	m := newTestSystemdManager(t, ExecModeUser)
	assert.Equal(t, ExecModeUser, m.GetMode())

	content, err := m.generateUnitContent("/home/nas/bin/nas-power-manager", "/home/nas/.nas-power-manager/config.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(content), "WantedBy=default.target")
}
