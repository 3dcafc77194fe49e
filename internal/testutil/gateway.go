package testutil

import (
	"context"
	"sync"

	"github.com/brianly1003/codexdesk/internal/domain/ports"
)

// MockGateway implements ports.Gateway for testing. Start and Stop
// requests are recorded in call order and announced on Calls.
type MockGateway struct {
	mu       sync.Mutex
	status   ports.InstallStatus
	startErr error
	stopErr  error
	starts   []ports.StartRequest
	stops    int
	order    []string
	checks   int

	// Calls receives "start" or "stop" after each recorded call.
	Calls chan string
}

// NewMockGateway creates a gateway that reports an installed assistant.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		status: ports.InstallStatus{Installed: true, Version: "codex-cli 0.0.0-test"},
		Calls:  make(chan string, 64),
	}
}

// CheckInstalled returns the configured install status.
func (m *MockGateway) CheckInstalled(ctx context.Context) ports.InstallStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks++
	return m.status
}

// Start records the request and returns the configured error.
func (m *MockGateway) Start(ctx context.Context, req ports.StartRequest) error {
	m.mu.Lock()
	m.starts = append(m.starts, req)
	m.order = append(m.order, "start")
	err := m.startErr
	m.mu.Unlock()

	m.notify("start")
	return err
}

// Stop records the call and returns the configured error.
func (m *MockGateway) Stop(ctx context.Context) error {
	m.mu.Lock()
	m.stops++
	m.order = append(m.order, "stop")
	err := m.stopErr
	m.mu.Unlock()

	m.notify("stop")
	return err
}

func (m *MockGateway) notify(call string) {
	select {
	case m.Calls <- call:
	default:
	}
}

// SetInstallStatus configures the result of CheckInstalled.
func (m *MockGateway) SetInstallStatus(status ports.InstallStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
}

// SetStartError configures the error returned by Start.
func (m *MockGateway) SetStartError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startErr = err
}

// SetStopError configures the error returned by Stop.
func (m *MockGateway) SetStopError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopErr = err
}

// StartRequests returns the recorded Start requests.
func (m *MockGateway) StartRequests() []ports.StartRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]ports.StartRequest, len(m.starts))
	copy(result, m.starts)
	return result
}

// StopCount returns the number of Stop calls.
func (m *MockGateway) StopCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

// CheckCount returns the number of CheckInstalled calls.
func (m *MockGateway) CheckCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checks
}

// CallOrder returns the recorded sequence of "start" and "stop" calls.
func (m *MockGateway) CallOrder() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]string, len(m.order))
	copy(result, m.order)
	return result
}

// Ensure MockGateway implements ports.Gateway.
var _ ports.Gateway = (*MockGateway)(nil)

// MockSettingsStore implements ports.SettingsStore in memory.
type MockSettingsStore struct {
	mu      sync.Mutex
	path    string
	loadErr error
	saveErr error
	saves   int
}

// NewMockSettingsStore creates a store holding the given project path.
func NewMockSettingsStore(path string) *MockSettingsStore {
	return &MockSettingsStore{path: path}
}

// LastProjectPath returns the stored path.
func (m *MockSettingsStore) LastProjectPath(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return "", m.loadErr
	}
	return m.path, nil
}

// SetLastProjectPath stores the path.
func (m *MockSettingsStore) SetLastProjectPath(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.path = path
	return nil
}

// SetLoadError configures the error returned by LastProjectPath.
func (m *MockSettingsStore) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

// SetSaveError configures the error returned by SetLastProjectPath.
func (m *MockSettingsStore) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

// SaveCount returns the number of SetLastProjectPath calls.
func (m *MockSettingsStore) SaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Ensure MockSettingsStore implements ports.SettingsStore.
var _ ports.SettingsStore = (*MockSettingsStore)(nil)
