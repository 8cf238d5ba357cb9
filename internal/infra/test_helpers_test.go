package infra

import (
	"os"
	"syscall"

	"github.com/eliteGoblin/focusd/nas_power/internal/domain"
)

// mockProcessManager is a test double for ProcessManager
type mockProcessManager struct {
	runningPIDs map[int]bool
	currentPID  int
}

func newMockProcessManager() *mockProcessManager {
	return &mockProcessManager{
		runningPIDs: make(map[int]bool),
		currentPID:  os.Getpid(),
	}
}

func (m *mockProcessManager) IsRunning(pid int) bool {
	return m.runningPIDs[pid]
}

func (m *mockProcessManager) Signal(pid int, sig syscall.Signal) error {
	return nil
}

func (m *mockProcessManager) Describe(pid int) (*domain.ProcessInfo, error) {
	return &domain.ProcessInfo{PID: pid}, nil
}

func (m *mockProcessManager) GetCurrentPID() int {
	return m.currentPID
}

func (m *mockProcessManager) SetRunning(pid int, running bool) {
	m.runningPIDs[pid] = running
}

// Ensure mockProcessManager implements domain.ProcessManager
var _ domain.ProcessManager = (*mockProcessManager)(nil)
