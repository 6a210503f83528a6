package league

import (
	"context"

	"github.com/mauv0809/crispy-fiesta/internal/contest"
)

// Store defines the authoritative data operations for matches, predictions,
// standings and feature flags.
type Store interface {
	CreateMatch(match *contest.Match) error
	UpdateMatch(match *contest.Match) error
	DeleteMatch(matchID string) error
	GetMatch(matchID string) (*contest.Match, error)
	GetMatches(status contest.MatchStatus) ([]*contest.Match, error)
	RecordFinalScore(matchID string, home, away int) error

	UpsertPrediction(ctx context.Context, p *contest.Prediction) (*contest.Prediction, error)
	GetPredictions(userID string) ([]*contest.Prediction, error)
	GetMatchPredictions(matchID string) ([]*contest.Prediction, error)

	GetStandings() ([]contest.Standing, error)
	UpsertStanding(s contest.Standing) error
	ResetStandings() error

	GetFlags() (contest.Flags, error)
	SetFlag(name string, enabled bool) error

	Clear()
}
