package syncer

import (
	"sync"
	"time"

	"github.com/mauv0809/crispy-fiesta/internal/contest"
	"github.com/mauv0809/crispy-fiesta/internal/draft"
	"github.com/mauv0809/crispy-fiesta/internal/feed"
	"github.com/mauv0809/crispy-fiesta/internal/league"
	"github.com/mauv0809/crispy-fiesta/internal/metrics"
)

// Engine keeps one user's session state consistent: three read models
// (matches, own predictions, standings) plus the rank and flags everything
// editable is derived from. It is the single writer of its read models; the
// draft manager only requests commits and reacts to observed updates.
type Engine struct {
	mu     sync.RWMutex
	userID string

	store     league.Store
	publisher feed.Publisher
	drafts    *draft.Manager
	draftOpts []draft.Option
	metrics   metrics.Metrics
	now       func() time.Time

	ready       bool
	matches     map[string]*contest.Match
	predictions map[string]contest.Prediction // keyed by match ID
	standings   []contest.Standing
	flags       contest.Flags
	rank        int
}

// MatchView is one match as the session user sees it: the match itself, the
// lock instant that applies to this user right now, and their prediction for
// it, if any.
type MatchView struct {
	Match      *contest.Match      `json:"match"`
	LockAt     int64               `json:"lock_at"`
	Editable   bool                `json:"editable"`
	Prediction *contest.Prediction `json:"prediction,omitempty"`
}

// View is a consistent snapshot of the whole session.
type View struct {
	Ready     bool               `json:"ready"`
	Rank      int                `json:"rank"`
	Flags     contest.Flags      `json:"flags"`
	Matches   []MatchView        `json:"matches"`
	Standings []contest.Standing `json:"standings"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithDebounce is forwarded to the draft manager.
func WithDebounce(d time.Duration) Option {
	return func(e *Engine) { e.draftOpts = append(e.draftOpts, draft.WithDebounce(d)) }
}

// WithCommitTimeout is forwarded to the draft manager.
func WithCommitTimeout(d time.Duration) Option {
	return func(e *Engine) { e.draftOpts = append(e.draftOpts, draft.WithCommitTimeout(d)) }
}
