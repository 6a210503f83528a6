package feed

import "sync"

// MockPublisher is a mock implementation of Publisher for testing.
// It is safe for concurrent use.
type MockPublisher struct {
	mu sync.Mutex

	PublishFunc func(ev Event) error

	PublishCalls []Event
}

// NewMock creates a new mock Publisher.
func NewMock() *MockPublisher {
	return &MockPublisher{}
}

// Reset clears all call records.
func (m *MockPublisher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PublishCalls = nil
}

func (m *MockPublisher) Publish(ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PublishCalls = append(m.PublishCalls, ev)
	if m.PublishFunc != nil {
		return m.PublishFunc(ev)
	}
	return nil
}

// Events returns a copy of the recorded events.
func (m *MockPublisher) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.PublishCalls))
	copy(out, m.PublishCalls)
	return out
}
