package clock

import (
	"sync"
	"time"
)

// Clock is the source of "now" for anything time-gated.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func Real() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

// MockClock is a settable clock for tests. Safe for concurrent use so
// countdown goroutines can read it while a test advances it.
type MockClock struct {
	mu      sync.RWMutex
	current time.Time
}

func NewMock(start time.Time) *MockClock {
	return &MockClock{current: start}
}

func (m *MockClock) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	m.current = t
	m.mu.Unlock()
}

func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	m.current = m.current.Add(d)
	m.mu.Unlock()
}
