package settlement

import (
	"context"
	"sync"
)

// MockSettler is a mock implementation of the Settler interface for testing.
// It is safe for concurrent use.
type MockSettler struct {
	mu sync.Mutex

	SettleFunc func(ctx context.Context, matchID string) error

	SettleCalls []string
}

// NewMock creates a new mock Settler.
func NewMock() *MockSettler {
	return &MockSettler{}
}

// Reset clears all call records.
func (m *MockSettler) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SettleCalls = nil
}

func (m *MockSettler) Settle(ctx context.Context, matchID string) error {
	m.mu.Lock()
	m.SettleCalls = append(m.SettleCalls, matchID)
	fn := m.SettleFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, matchID)
	}
	return nil
}
