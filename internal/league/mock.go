package league

import (
	"context"
	"sync"

	"github.com/mauv0809/crispy-fiesta/internal/contest"
)

// MockStore is a mock implementation of the Store interface for testing.
// It is safe for concurrent use.
type MockStore struct {
	mu sync.Mutex

	// Spies for method calls
	CreateMatchFunc         func(match *contest.Match) error
	UpdateMatchFunc         func(match *contest.Match) error
	DeleteMatchFunc         func(matchID string) error
	GetMatchFunc            func(matchID string) (*contest.Match, error)
	GetMatchesFunc          func(status contest.MatchStatus) ([]*contest.Match, error)
	RecordFinalScoreFunc    func(matchID string, home, away int) error
	UpsertPredictionFunc    func(ctx context.Context, p *contest.Prediction) (*contest.Prediction, error)
	GetPredictionsFunc      func(userID string) ([]*contest.Prediction, error)
	GetMatchPredictionsFunc func(matchID string) ([]*contest.Prediction, error)
	GetStandingsFunc        func() ([]contest.Standing, error)
	UpsertStandingFunc      func(s contest.Standing) error
	ResetStandingsFunc      func() error
	GetFlagsFunc            func() (contest.Flags, error)
	SetFlagFunc             func(name string, enabled bool) error

	// Call records
	CreateMatchCalls      []*contest.Match
	RecordFinalScoreCalls []RecordFinalScoreCall
	UpsertPredictionCalls []*contest.Prediction
	SetFlagCalls          []SetFlagCall
	ResetStandingsCalls   int
}

// RecordFinalScoreCall holds the arguments for a call to RecordFinalScore.
type RecordFinalScoreCall struct {
	MatchID    string
	Home, Away int
}

// SetFlagCall holds the arguments for a call to SetFlag.
type SetFlagCall struct {
	Name    string
	Enabled bool
}

// NewMock creates a new mock Store.
func NewMock() *MockStore {
	return &MockStore{}
}

// Reset clears all call records.
func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateMatchCalls = nil
	m.RecordFinalScoreCalls = nil
	m.UpsertPredictionCalls = nil
	m.SetFlagCalls = nil
	m.ResetStandingsCalls = 0
}

func (m *MockStore) CreateMatch(match *contest.Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateMatchCalls = append(m.CreateMatchCalls, match)
	if m.CreateMatchFunc != nil {
		return m.CreateMatchFunc(match)
	}
	return nil
}

func (m *MockStore) UpdateMatch(match *contest.Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateMatchFunc != nil {
		return m.UpdateMatchFunc(match)
	}
	return nil
}

func (m *MockStore) DeleteMatch(matchID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteMatchFunc != nil {
		return m.DeleteMatchFunc(matchID)
	}
	return nil
}

func (m *MockStore) GetMatch(matchID string) (*contest.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetMatchFunc != nil {
		return m.GetMatchFunc(matchID)
	}
	return nil, ErrMatchNotFound
}

func (m *MockStore) GetMatches(status contest.MatchStatus) ([]*contest.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetMatchesFunc != nil {
		return m.GetMatchesFunc(status)
	}
	return nil, nil
}

func (m *MockStore) RecordFinalScore(matchID string, home, away int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecordFinalScoreCalls = append(m.RecordFinalScoreCalls, RecordFinalScoreCall{MatchID: matchID, Home: home, Away: away})
	if m.RecordFinalScoreFunc != nil {
		return m.RecordFinalScoreFunc(matchID, home, away)
	}
	return nil
}

func (m *MockStore) UpsertPrediction(ctx context.Context, p *contest.Prediction) (*contest.Prediction, error) {
	m.mu.Lock()
	m.UpsertPredictionCalls = append(m.UpsertPredictionCalls, p)
	fn := m.UpsertPredictionFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, p)
	}
	return p, nil
}

func (m *MockStore) GetPredictions(userID string) ([]*contest.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetPredictionsFunc != nil {
		return m.GetPredictionsFunc(userID)
	}
	return nil, nil
}

func (m *MockStore) GetMatchPredictions(matchID string) ([]*contest.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetMatchPredictionsFunc != nil {
		return m.GetMatchPredictionsFunc(matchID)
	}
	return nil, nil
}

func (m *MockStore) GetStandings() ([]contest.Standing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetStandingsFunc != nil {
		return m.GetStandingsFunc()
	}
	return nil, nil
}

func (m *MockStore) UpsertStanding(s contest.Standing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpsertStandingFunc != nil {
		return m.UpsertStandingFunc(s)
	}
	return nil
}

func (m *MockStore) ResetStandings() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResetStandingsCalls++
	if m.ResetStandingsFunc != nil {
		return m.ResetStandingsFunc()
	}
	return nil
}

func (m *MockStore) GetFlags() (contest.Flags, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetFlagsFunc != nil {
		return m.GetFlagsFunc()
	}
	return contest.Flags{}, nil
}

func (m *MockStore) SetFlag(name string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetFlagCalls = append(m.SetFlagCalls, SetFlagCall{Name: name, Enabled: enabled})
	if m.SetFlagFunc != nil {
		return m.SetFlagFunc(name, enabled)
	}
	return nil
}

func (m *MockStore) Clear() {}
