// Package main is the CLI entry point for nas-power-manager.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eliteGoblin/focusd/nas_power/internal/config"
	"github.com/eliteGoblin/focusd/nas_power/internal/daemon"
	"github.com/eliteGoblin/focusd/nas_power/internal/domain"
	"github.com/eliteGoblin/focusd/nas_power/internal/infra"
	"github.com/eliteGoblin/focusd/nas_power/internal/policy"
	"github.com/eliteGoblin/focusd/nas_power/internal/usecase"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "nas-power-manager",
	Short: "Suspend the NAS when no client is connected",
	Long: `nas-power-manager is a daemon that periodically checks whether any client
holds a file-sharing connection to the configured address and port, and
runs the configured suspend command when none does.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon (no-op if already running)",
	Long: `Starts the idle-suspend loop. By default the daemon detaches into the
background; with --foreground it runs in the current process.`,
	Args: cobra.NoArgs,
	RunE: runStart,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	Long: `Sends SIGTERM to the recorded daemon. A paused daemon only stops after
it is resumed.`,
	Args: cobra.NoArgs,
	RunE: runControl,
}

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause the running daemon (SIGSTOP)",
	Args:  cobra.NoArgs,
	RunE:  runControl,
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume a paused daemon (SIGCONT)",
	Args:  cobra.NoArgs,
	RunE:  runControl,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the daemon is running or paused",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var installServiceCmd = &cobra.Command{
	Use:   "install-service",
	Short: "Write a systemd unit for the daemon",
	Long: `Writes a systemd unit that starts the daemon in the foreground and stops
it with the stop command. Run as root for a system unit, otherwise a user
unit is written. The unit has no restart policy.`,
	Args: cobra.NoArgs,
	RunE: runInstallService,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Prints version, commit, and build time. Use --json for machine-readable output.`,
	Run:   runVersion,
}

// Hidden run command - executed by the detached child of "start"
var runCmd = &cobra.Command{
	Use:    daemon.RunCommand,
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE:   runDaemon,
}

var (
	configPath string
	logPath    string
	pidPath    string
	foreground bool
	verbose    bool
	jsonOutput bool
)

func init() {
	execMode := infra.DetectExecMode()

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", execMode.ConfigPath, "Configuration file")
	flags.StringVarP(&logPath, "log-file", "l", execMode.LogPath, "Daemon log file")
	flags.StringVar(&pidPath, "pid-file", execMode.PIDPath, "Process identifier record")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	startCmd.Flags().BoolVarP(&foreground, "foreground", "f", false, "Run in the foreground instead of detaching")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(installServiceCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	// Configuration errors surface here, before anything detaches
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if foreground {
		logger := createLogger(foregroundOutputs(cmd), verbose)
		defer func() { _ = logger.Sync() }()

		d, err := buildDaemon(cfg, logger)
		if err != nil {
			return err
		}
		return newDispatcher(d, logger).Dispatch(cmd.Context(), domain.CommandStart)
	}

	logger := createLogger([]string{"stderr"}, verbose)
	defer func() { _ = logger.Sync() }()

	spawner, err := daemon.NewSpawner(daemon.SpawnOptions{
		ConfigPath: configPath,
		LogPath:    logPath,
		PIDPath:    pidPath,
		Verbose:    verbose,
	}, logger)
	if err != nil {
		return err
	}
	return newDispatcher(spawner, logger).Dispatch(cmd.Context(), domain.CommandStart)
}

// runControl handles stop, pause and resume; the command name selects the action.
func runControl(cmd *cobra.Command, args []string) error {
	command, err := domain.ParseCommand(cmd.Name())
	if err != nil {
		return err
	}

	logger := createLogger([]string{"stderr"}, verbose)
	defer func() { _ = logger.Sync() }()

	return newDispatcher(nil, logger).Dispatch(cmd.Context(), command)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	logger := createLogger([]string{logPath}, verbose)
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load configuration", zap.Error(err))
		return err
	}

	d, err := buildDaemon(cfg, logger)
	if err != nil {
		return err
	}
	return d.Run(cmd.Context())
}

func runStatus(cmd *cobra.Command, args []string) error {
	logger := createLogger([]string{"stderr"}, verbose)
	defer func() { _ = logger.Sync() }()

	status, err := newDispatcher(nil, logger).Status()
	if err != nil {
		return err
	}

	fmt.Println("\n=== nas-power-manager Status ===")
	switch {
	case !status.Running:
		fmt.Println("Status: NOT RUNNING")
		if status.PID != 0 {
			fmt.Printf("Stale record: pid %d in %s\n", status.PID, pidPath)
		}
		fmt.Println("\nRun 'nas-power-manager start' to enable idle suspend.")
	case status.Paused:
		fmt.Println("Status: PAUSED")
	default:
		fmt.Println("Status: RUNNING")
	}

	if status.Running {
		fmt.Printf("PID: %d\n", status.PID)
		if p := status.Process; p != nil && !p.CreatedAt.IsZero() {
			fmt.Printf("Uptime: %s\n", time.Since(p.CreatedAt).Round(time.Second))
		}
	}

	if cfg, err := config.Load(configPath); err == nil {
		fmt.Printf("\nWatching: %s\n", cfg.Endpoint())
		fmt.Printf("Interval: %s\n", cfg.Timeout)
		fmt.Printf("Suspend command: %s\n", cfg.SuspendCommand)
	}
	fmt.Println("================================")
	return nil
}

func runInstallService(cmd *cobra.Command, args []string) error {
	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	execMode := infra.DetectExecMode()
	execMode.PIDPath = pidPath
	execMode.LogPath = logPath

	manager := infra.NewSystemdManager(execMode)
	changed, err := manager.Install(execPath, configPath)
	if err != nil {
		return fmt.Errorf("failed to install systemd unit: %w", err)
	}

	if !changed {
		fmt.Printf("Unit already up to date: %s\n", manager.GetUnitPath())
		return nil
	}
	fmt.Printf("Installed %s unit: %s\n", execMode.Mode, manager.GetUnitPath())
	if execMode.IsRoot {
		fmt.Println("Enable with: systemctl daemon-reload && systemctl enable --now nas-power-manager")
	} else {
		fmt.Println("Enable with: systemctl --user daemon-reload && systemctl --user enable --now nas-power-manager")
	}
	return nil
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("nas-power-manager %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}

// buildDaemon wires the idle loop for cfg.
func buildDaemon(cfg domain.Config, logger *zap.Logger) (*daemon.Daemon, error) {
	matcher, err := policy.NewConnectionPolicy(cfg.Address, cfg.Port)
	if err != nil {
		return nil, err
	}

	monitor := usecase.NewIdleMonitor(
		cfg.Timeout,
		infra.NewCommandProber(cfg.ProbeCommand),
		matcher,
		infra.NewShellSuspender(cfg.SuspendCommand, logger),
		logger,
	)

	guard := infra.NewPIDFile(pidPath, infra.NewProcessManager())
	return daemon.NewDaemon(guard, monitor, logger), nil
}

func newDispatcher(launcher domain.Launcher, logger *zap.Logger) *usecase.Dispatcher {
	pm := infra.NewProcessManager()
	return usecase.NewDispatcher(infra.NewPIDFile(pidPath, pm), pm, launcher, logger)
}

// foregroundOutputs logs to stderr, plus the log file when one was given explicitly.
func foregroundOutputs(cmd *cobra.Command) []string {
	outputs := []string{"stderr"}
	if cmd.Flags().Changed("log-file") {
		outputs = append(outputs, logPath)
	}
	return outputs
}

// errorLogPath returns the sibling error log: daemon.log -> daemon.error.log.
func errorLogPath(path string) string {
	return strings.TrimSuffix(path, ".log") + ".error.log"
}

// createLogger builds a JSON logger. When the first output is a file, zap's
// internal errors go to a sibling .error.log.
func createLogger(outputs []string, verbose bool) *zap.Logger {
	errorOutputs := []string{"stderr"}
	for _, out := range outputs {
		if out == "stderr" || out == "stdout" {
			continue
		}
		_ = os.MkdirAll(filepath.Dir(out), 0755)
	}
	if first := outputs[0]; first != "stderr" && first != "stdout" {
		errorOutputs = []string{errorLogPath(first)}
	}

	config := zap.NewProductionConfig()
	config.OutputPaths = outputs
	config.ErrorOutputPaths = errorOutputs
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.DisableStacktrace = true // Fatal loop errors attach their own trace
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	logger, err := config.Build()
	if err != nil {
		// Fallback to stderr if file logging fails
		logger, _ = zap.NewProduction()
	}
	return logger
}
