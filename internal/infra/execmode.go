package infra

import (
	"os"
	"path/filepath"
)

// ExecMode represents the execution mode of the application.
type ExecMode string

const (
	// ExecModeUser runs as user with a per-user state directory
	ExecModeUser ExecMode = "user"
	// ExecModeSystem runs as root with system paths (sudo required)
	ExecModeSystem ExecMode = "system"
)

// AppName is the binary, unit and file name stem.
const AppName = "nas-power-manager"

// ExecModeConfig holds default paths based on execution mode.
type ExecModeConfig struct {
	Mode       ExecMode
	ConfigPath string // Default configuration file
	PIDPath    string // Process identifier record
	LogPath    string // Daemon log file
	UnitDir    string // Where the systemd unit goes
	UnitPath   string // Full path to the unit file
	IsRoot     bool   // Whether running as root
}

// DetectExecMode determines the execution mode based on effective UID.
func DetectExecMode() *ExecModeConfig {
	if os.Geteuid() == 0 {
		return systemModeConfig()
	}
	home, _ := os.UserHomeDir()
	return userModeConfig(home)
}

func systemModeConfig() *ExecModeConfig {
	unitDir := "/usr/lib/systemd/system"
	return &ExecModeConfig{
		Mode:       ExecModeSystem,
		ConfigPath: "/etc/" + AppName + ".yaml",
		PIDPath:    "/run/" + AppName + ".pid",
		LogPath:    "/var/log/" + AppName + ".log",
		UnitDir:    unitDir,
		UnitPath:   filepath.Join(unitDir, AppName+".service"),
		IsRoot:     true,
	}
}

func userModeConfig(home string) *ExecModeConfig {
	dataDir := filepath.Join(home, "."+AppName)
	unitDir := filepath.Join(home, ".config", "systemd", "user")
	return &ExecModeConfig{
		Mode:       ExecModeUser,
		ConfigPath: filepath.Join(dataDir, "config.yaml"),
		PIDPath:    filepath.Join(dataDir, AppName+".pid"),
		LogPath:    filepath.Join(dataDir, AppName+".log"),
		UnitDir:    unitDir,
		UnitPath:   filepath.Join(unitDir, AppName+".service"),
		IsRoot:     false,
	}
}

// String returns a human-readable description of the mode.
func (m ExecMode) String() string {
	switch m {
	case ExecModeSystem:
		return "system (root)"
	case ExecModeUser:
		return "user (non-root)"
	default:
		return "unknown"
	}
}
