package notifier

import (
	"sync"

	"github.com/mauv0809/crispy-fiesta/internal/contest"
)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	SendResultNotificationFunc func(match *contest.Match, dryRun bool) error
	SendSettlementFailureFunc  func(matchID string, cause error, dryRun bool) error

	// Call records
	SendResultNotificationCalls []*contest.Match
	SendSettlementFailureCalls  []SettlementFailureCall
}

// SettlementFailureCall holds the arguments for a call to SendSettlementFailure.
type SettlementFailureCall struct {
	MatchID string
	Cause   error
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendResultNotificationCalls = nil
	m.SendSettlementFailureCalls = nil
}

func (m *Mock) SendResultNotification(match *contest.Match, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendResultNotificationCalls = append(m.SendResultNotificationCalls, match)
	if m.SendResultNotificationFunc != nil {
		return m.SendResultNotificationFunc(match, dryRun)
	}
	return nil
}

func (m *Mock) SendSettlementFailure(matchID string, cause error, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendSettlementFailureCalls = append(m.SendSettlementFailureCalls, SettlementFailureCall{MatchID: matchID, Cause: cause})
	if m.SendSettlementFailureFunc != nil {
		return m.SendSettlementFailureFunc(matchID, cause, dryRun)
	}
	return nil
}
