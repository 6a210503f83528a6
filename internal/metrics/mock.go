package metrics

import "sync"

var _ Metrics = (*Mock)(nil)

// Mock is a no-op Metrics implementation that counts calls for assertions.
type Mock struct {
	mu sync.Mutex

	FeedEventsCount         int
	CommitsCount            int
	CommitsLockedCount      int
	CommitsFailedCount      int
	SettlementRunsCount     int
	SettlementFailuresCount int
	RankRecomputesCount     int
	NotifSentCount          int
	NotifFailedCount        int
}

// NewMock creates a new mock Metrics.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) IncFeedEvents() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FeedEventsCount++
}

func (m *Mock) IncCommits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CommitsCount++
}

func (m *Mock) IncCommitsLocked() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CommitsLockedCount++
}

func (m *Mock) IncCommitsFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CommitsFailedCount++
}

func (m *Mock) IncSettlementRuns() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SettlementRunsCount++
}

func (m *Mock) IncSettlementFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SettlementFailuresCount++
}

func (m *Mock) IncRankRecomputes() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RankRecomputesCount++
}

func (m *Mock) IncNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotifSentCount++
}

func (m *Mock) IncNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotifFailedCount++
}

func (m *Mock) ObserveSettlementDuration(seconds float64) {}

func (m *Mock) SetStartupTime(seconds float64) {}
