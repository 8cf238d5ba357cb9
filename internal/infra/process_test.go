package infra

import (
	"os"
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exitedPID returns the pid of a child that has already been reaped.
func exitedPID(t *testing.T) int {
	t.Helper()
	cmd := exec.Command("true")
	require.NoError(t, cmd.Run())
	return cmd.Process.Pid
}

func TestProcessManager_IsRunning(t *testing.T) {
	pm := NewProcessManager()

	assert.True(t, pm.IsRunning(os.Getpid()))
	assert.False(t, pm.IsRunning(exitedPID(t)))
	assert.False(t, pm.IsRunning(0))
	assert.False(t, pm.IsRunning(-1))
}

func TestProcessManager_GetCurrentPID(t *testing.T) {
	assert.Equal(t, os.Getpid(), NewProcessManager().GetCurrentPID())
}

func TestProcessManager_SignalStopContinueTerminate(t *testing.T) {
	pm := NewProcessManager()

	cmd := exec.Command("sleep", "30")
	require.NoError(t, cmd.Start())
	pid := cmd.Process.Pid
	defer cmd.Process.Kill()

	require.NoError(t, pm.Signal(pid, syscall.SIGSTOP))
	require.Eventually(t, func() bool {
		info, err := pm.Describe(pid)
		return err == nil && info.Stopped()
	}, 2*time.Second, 20*time.Millisecond, "process should be stopped")

	require.NoError(t, pm.Signal(pid, syscall.SIGCONT))
	require.Eventually(t, func() bool {
		info, err := pm.Describe(pid)
		return err == nil && !info.Stopped()
	}, 2*time.Second, 20*time.Millisecond, "process should be running again")

	require.NoError(t, pm.Signal(pid, syscall.SIGTERM))
	err := cmd.Wait()
	require.Error(t, err)
	status := cmd.ProcessState.Sys().(syscall.WaitStatus)
	assert.Equal(t, syscall.SIGTERM, status.Signal())
}

func TestProcessManager_SignalErrors(t *testing.T) {
	pm := NewProcessManager()

	assert.Error(t, pm.Signal(0, syscall.SIGTERM))

	err := pm.Signal(exitedPID(t), syscall.SIGTERM)
	require.Error(t, err)
	assert.ErrorIs(t, err, syscall.ESRCH)
}

func TestProcessManager_DescribeSelf(t *testing.T) {
	pm := NewProcessManager()

	info, err := pm.Describe(os.Getpid())
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), info.PID)
	assert.NotEmpty(t, info.Name)
	assert.False(t, info.Stopped())
	assert.WithinDuration(t, time.Now(), info.CreatedAt, 24*time.Hour)
}
