package pipeline

import (
	"sync"
	"time"
)

// TimeProvider abstracts the clock so speed and ETA derivations can be
// tested deterministically.
type TimeProvider interface {
	Now() time.Time
}

type realTimeProvider struct{}

func (realTimeProvider) Now() time.Time { return time.Now() }

// MockTimeProvider is a manually advanced clock for tests.
type MockTimeProvider struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockTimeProvider starts a mock clock at a fixed instant.
func NewMockTimeProvider() *MockTimeProvider {
	return &MockTimeProvider{now: time.Unix(1700000000, 0)}
}

// Now returns the mock's current time.
func (m *MockTimeProvider) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the mock clock forward.
func (m *MockTimeProvider) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}
