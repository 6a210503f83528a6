package draft

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mauv0809/crispy-fiesta/internal/contest"
	"github.com/mauv0809/crispy-fiesta/internal/metrics"
)

var (
	// ErrInvalidScore is returned for a non-numeric or negative score before
	// any network round-trip happens.
	ErrInvalidScore = errors.New("invalid score value")

	// ErrLocked is returned when an edit arrives after the match's lock
	// instant. The machine for that match is read-only from then on.
	ErrLocked = errors.New("prediction is locked")
)

// Committer persists a debounced draft as an authoritative prediction write.
// league.Store satisfies this through UpsertPrediction.
type Committer interface {
	Commit(ctx context.Context, p contest.Prediction) (*contest.Prediction, error)
}

// CommitterFunc adapts a plain function to the Committer interface.
type CommitterFunc func(ctx context.Context, p contest.Prediction) (*contest.Prediction, error)

func (f CommitterFunc) Commit(ctx context.Context, p contest.Prediction) (*contest.Prediction, error) {
	return f(ctx, p)
}

// LockFunc reports whether the given match can still accept edits right now.
type LockFunc func(matchID string) bool

// Snapshot is the externally visible view of one per-match draft machine.
type Snapshot struct {
	MatchID   string             `json:"match_id"`
	State     contest.DraftState `json:"state"`
	HomeGoals int                `json:"home_goals"`
	AwayGoals int                `json:"away_goals"`
	Seq       int64              `json:"seq"`
	Error     string             `json:"error,omitempty"`
}

// machine holds the draft state for one match. All access goes through the
// owning Manager's mutex.
type machine struct {
	matchID  string
	state    contest.DraftState
	home     int
	away     int
	seq      int64 // highest locally issued edit sequence
	inflight int64 // seq of the commit currently awaited, 0 when none
	readOnly bool
	lastErr  error
	timer    *time.Timer

	// Last committed values, restored when a pending edit is discarded so a
	// locked control shows what the store actually holds.
	savedHome int
	savedAway int
	savedSeq  int64
}

// Manager owns the per-match draft machines for one user's session. It
// debounces edits, commits them through a Committer and merges observed
// remote predictions back in.
type Manager struct {
	mu       sync.Mutex
	userID   string
	machines map[string]*machine

	committer Committer
	editable  LockFunc
	metrics   metrics.Metrics

	debounce time.Duration
	timeout  time.Duration
	closed   bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithDebounce overrides the debounce interval between the last edit and the
// commit attempt.
func WithDebounce(d time.Duration) Option {
	return func(m *Manager) { m.debounce = d }
}

// WithCommitTimeout bounds how long a single commit attempt may take.
func WithCommitTimeout(d time.Duration) Option {
	return func(m *Manager) { m.timeout = d }
}
