package contest

// MatchStatus defines the lifecycle state of a match.
type MatchStatus string

const (
	StatusScheduled MatchStatus = "scheduled"
	StatusStarted   MatchStatus = "started"
	StatusFinished  MatchStatus = "finished"
)

// Match represents a single scheduled game between two teams.
type Match struct {
	ID         string      `json:"id"`
	HomeTeam   string      `json:"home_team"`
	AwayTeam   string      `json:"away_team"`
	KickoffAt  int64       `json:"kickoff_at"` // Unix timestamp
	League     string      `json:"league,omitempty"`
	Status     MatchStatus `json:"status"`
	HomeResult *int        `json:"home_result,omitempty"` // set iff Status == finished
	AwayResult *int        `json:"away_result,omitempty"`
	CreatedAt  int64       `json:"created_at"`
}

// Finished reports whether the match has a recorded final score.
func (m *Match) Finished() bool {
	return m.Status == StatusFinished
}

// Prediction is a user's score guess for a match, unique per (UserID, MatchID).
// Seq is the monotonic edit sequence number used to order commits from the
// same client; the store never lets an older seq overwrite a newer one.
type Prediction struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	MatchID   string `json:"match_id"`
	HomeGoals int    `json:"home_goals"`
	AwayGoals int    `json:"away_goals"`
	Points    *int   `json:"points,omitempty"` // unset until settlement has run
	Seq       int64  `json:"seq"`
	UpdatedAt int64  `json:"updated_at"`
}

// Standing is a user's cumulative points plus the four tie-break counters
// maintained by the external settlement procedure.
type Standing struct {
	UserID         string `json:"user_id"`
	Username       string `json:"username"`
	Points         int    `json:"points"`
	ExactDraws     int    `json:"exact_draws"`
	ExactScores    int    `json:"exact_scores"`
	GoalDiffs      int    `json:"goal_diffs"`
	CorrectWinners int    `json:"correct_winners"`
}

// Flags are the global feature flags consumed by the engine. They are stored
// in app_settings and passed around as a value, never read from global state.
type Flags struct {
	AlwaysShowPredictions bool `json:"always_show_predictions"`
	SpecialLockWindows    bool `json:"special_lock_times"`
}

// DraftState tracks a user's in-progress edit for one match.
type DraftState string

const (
	DraftIdle    DraftState = "idle"
	DraftEditing DraftState = "editing"
	DraftSaving  DraftState = "saving"
	DraftSaved   DraftState = "saved"
	DraftError   DraftState = "error"
)
