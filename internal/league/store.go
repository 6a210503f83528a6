package league

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/crispy-fiesta/internal/contest"
	"github.com/mauv0809/crispy-fiesta/internal/leaderboard"
	"github.com/mauv0809/crispy-fiesta/internal/lockpolicy"
)

// New creates a new Store backed by the given database.
func New(db *sql.DB) Store {
	return &store{
		db:  db,
		now: func() int64 { return time.Now().Unix() },
	}
}

func (s *store) CreateMatch(match *contest.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if match.ID == "" {
		match.ID = uuid.New().String()
	}
	if match.Status == "" {
		match.Status = contest.StatusScheduled
	}
	if match.CreatedAt == 0 {
		match.CreatedAt = s.now()
	}

	_, err := s.db.Exec(`
		INSERT INTO matches (id, home_team, away_team, kickoff_at, league, status, home_result, away_result, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		match.ID, match.HomeTeam, match.AwayTeam, match.KickoffAt, match.League, match.Status, match.HomeResult, match.AwayResult, match.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}
	log.Info("Created match", "matchID", match.ID, "home", match.HomeTeam, "away", match.AwayTeam)
	return nil
}

// UpdateMatch rewrites a match's teams, kickoff and league. It does not touch
// the result columns; those belong to RecordFinalScore.
func (s *store) UpdateMatch(match *contest.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		UPDATE matches SET home_team = ?, away_team = ?, kickoff_at = ?, league = ?, status = ?
		WHERE id = ?`,
		match.HomeTeam, match.AwayTeam, match.KickoffAt, match.League, match.Status, match.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update match: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMatchNotFound
	}
	return nil
}

// DeleteMatch removes a match; dependent predictions cascade via the schema.
func (s *store) DeleteMatch(matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM matches WHERE id = ?", matchID)
	if err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMatchNotFound
	}
	log.Info("Deleted match and cascaded predictions", "matchID", matchID)
	return nil
}

func (s *store) GetMatch(matchID string) (*contest.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getMatchLocked(matchID)
}

func (s *store) getMatchLocked(matchID string) (*contest.Match, error) {
	row := s.db.QueryRow(`
		SELECT id, home_team, away_team, kickoff_at, league, status, home_result, away_result, created_at
		FROM matches WHERE id = ?`, matchID)

	match, err := scanMatch(row)
	if err == sql.ErrNoRows {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return match, nil
}

// GetMatches returns matches ordered by kickoff, optionally filtered by status.
func (s *store) GetMatches(status contest.MatchStatus) ([]*contest.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, home_team, away_team, kickoff_at, league, status, home_result, away_result, created_at
		FROM matches`
	args := []any{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY kickoff_at ASC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var matches []*contest.Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			log.Error("Failed to scan match row", "error", err)
			continue
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

// RecordFinalScore persists the final score and marks the match finished.
// The transition is one-way; a finished match keeps its score even when
// settlement has not run yet.
func (s *store) RecordFinalScore(matchID string, home, away int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		UPDATE matches SET home_result = ?, away_result = ?, status = ?
		WHERE id = ?`,
		home, away, contest.StatusFinished, matchID,
	)
	if err != nil {
		return fmt.Errorf("failed to record final score: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMatchNotFound
	}
	log.Info("Recorded final score", "matchID", matchID, "home", home, "away", away)
	return nil
}

// UpsertPrediction is the authoritative write path for predictions. It
// recomputes the caller's rank from the full standings ordering plus the
// current flags and rejects the write when the match's lock instant has
// passed at receipt time, using the server clock. Writes carrying an edit
// sequence lower than the stored one are rejected as stale. The write itself
// is bounded by the caller's context.
func (s *store) UpsertPrediction(ctx context.Context, p *contest.Prediction) (*contest.Prediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	match, err := s.getMatchLocked(p.MatchID)
	if err != nil {
		return nil, err
	}

	flags, err := s.getFlagsLocked()
	if err != nil {
		return nil, err
	}
	standings, err := s.getStandingsLocked()
	if err != nil {
		return nil, err
	}
	rank := leaderboard.RankOf(leaderboard.Rank(standings), p.UserID)

	now := time.Unix(s.now(), 0)
	if match.Finished() || !lockpolicy.Editable(now, time.Unix(match.KickoffAt, 0), flags, rank) {
		log.Info("Rejected locked prediction write", "matchID", p.MatchID, "userID", p.UserID, "rank", rank)
		return nil, ErrPredictionLocked
	}

	var existingID string
	var existingSeq int64
	err = s.db.QueryRowContext(ctx,
		"SELECT id, seq FROM predictions WHERE user_id = ? AND match_id = ?",
		p.UserID, p.MatchID,
	).Scan(&existingID, &existingSeq)
	switch {
	case err == sql.ErrNoRows:
		p.ID = uuid.New().String()
	case err != nil:
		return nil, fmt.Errorf("failed to look up prediction: %w", err)
	default:
		if p.Seq < existingSeq {
			return nil, ErrStaleSequence
		}
		p.ID = existingID
	}

	p.UpdatedAt = s.now()
	// Points are owned by the settlement procedure and never written here.
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO predictions (id, user_id, match_id, home_goals, away_goals, seq, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, match_id) DO UPDATE SET
			home_goals = excluded.home_goals,
			away_goals = excluded.away_goals,
			seq = excluded.seq,
			updated_at = excluded.updated_at`,
		p.ID, p.UserID, p.MatchID, p.HomeGoals, p.AwayGoals, p.Seq, p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert prediction: %w", err)
	}
	log.Debug("Upserted prediction", "matchID", p.MatchID, "userID", p.UserID, "seq", p.Seq)
	return p, nil
}

func (s *store) GetPredictions(userID string) ([]*contest.Prediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryPredictions(`
		SELECT id, user_id, match_id, home_goals, away_goals, points, seq, updated_at
		FROM predictions WHERE user_id = ?`, userID)
}

func (s *store) GetMatchPredictions(matchID string) ([]*contest.Prediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryPredictions(`
		SELECT id, user_id, match_id, home_goals, away_goals, points, seq, updated_at
		FROM predictions WHERE match_id = ?`, matchID)
}

func (s *store) queryPredictions(query string, arg any) ([]*contest.Prediction, error) {
	rows, err := s.db.Query(query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var predictions []*contest.Prediction
	for rows.Next() {
		var p contest.Prediction
		var points sql.NullInt64
		if err := rows.Scan(&p.ID, &p.UserID, &p.MatchID, &p.HomeGoals, &p.AwayGoals, &points, &p.Seq, &p.UpdatedAt); err != nil {
			log.Error("Failed to scan prediction row", "error", err)
			continue
		}
		if points.Valid {
			v := int(points.Int64)
			p.Points = &v
		}
		predictions = append(predictions, &p)
	}
	return predictions, rows.Err()
}

// GetStandings returns all standings ordered by the five-key tie-break.
func (s *store) GetStandings() ([]contest.Standing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getStandingsLocked()
}

func (s *store) getStandingsLocked() ([]contest.Standing, error) {
	rows, err := s.db.Query(`
		SELECT user_id, username, points, exact_draws, exact_scores, goal_diffs, correct_winners
		FROM standings
		ORDER BY points DESC, exact_draws DESC, exact_scores DESC, goal_diffs DESC, correct_winners DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query standings: %w", err)
	}
	defer rows.Close()

	var standings []contest.Standing
	for rows.Next() {
		var st contest.Standing
		if err := rows.Scan(&st.UserID, &st.Username, &st.Points, &st.ExactDraws, &st.ExactScores, &st.GoalDiffs, &st.CorrectWinners); err != nil {
			log.Error("Failed to scan standing row", "error", err)
			continue
		}
		standings = append(standings, st)
	}
	return standings, rows.Err()
}

func (s *store) UpsertStanding(st contest.Standing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO standings (user_id, username, points, exact_draws, exact_scores, goal_diffs, correct_winners)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			username = excluded.username,
			points = excluded.points,
			exact_draws = excluded.exact_draws,
			exact_scores = excluded.exact_scores,
			goal_diffs = excluded.goal_diffs,
			correct_winners = excluded.correct_winners`,
		st.UserID, st.Username, st.Points, st.ExactDraws, st.ExactScores, st.GoalDiffs, st.CorrectWinners,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert standing: %w", err)
	}
	return nil
}

// ResetStandings zeroes every user's points and tie-break counters.
func (s *store) ResetStandings() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		UPDATE standings SET points = 0, exact_draws = 0, exact_scores = 0, goal_diffs = 0, correct_winners = 0`)
	if err != nil {
		return fmt.Errorf("failed to reset standings: %w", err)
	}
	log.Info("Reset all standings")
	return nil
}

func (s *store) GetFlags() (contest.Flags, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getFlagsLocked()
}

func (s *store) getFlagsLocked() (contest.Flags, error) {
	rows, err := s.db.Query("SELECT name, is_enabled FROM app_settings")
	if err != nil {
		return contest.Flags{}, fmt.Errorf("failed to query app settings: %w", err)
	}
	defer rows.Close()

	var flags contest.Flags
	for rows.Next() {
		var name string
		var enabled bool
		if err := rows.Scan(&name, &enabled); err != nil {
			log.Error("Failed to scan setting row", "error", err)
			continue
		}
		switch name {
		case "always_show_predictions":
			flags.AlwaysShowPredictions = enabled
		case "special_lock_times":
			flags.SpecialLockWindows = enabled
		}
	}
	return flags, rows.Err()
}

func (s *store) SetFlag(name string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("UPDATE app_settings SET is_enabled = ? WHERE name = ?", enabled, name)
	if err != nil {
		return fmt.Errorf("failed to set flag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("unknown setting %q", name)
	}
	log.Info("Updated app setting", "name", name, "enabled", enabled)
	return nil
}

func (s *store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		log.Error("Failed to begin transaction for clearing store", "error", err)
		return
	}
	for _, table := range []string{"predictions", "matches", "standings"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			log.Error("Failed to clear table", "table", table, "error", err)
			tx.Rollback()
			return
		}
	}
	if err := tx.Commit(); err != nil {
		log.Error("Failed to commit transaction for clearing store", "error", err)
	}
}

func scanMatch(scanner interface{ Scan(...any) error }) (*contest.Match, error) {
	var m contest.Match
	var league sql.NullString
	var home, away sql.NullInt64

	err := scanner.Scan(&m.ID, &m.HomeTeam, &m.AwayTeam, &m.KickoffAt, &league, &m.Status, &home, &away, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.League = league.String
	if home.Valid {
		v := int(home.Int64)
		m.HomeResult = &v
	}
	if away.Valid {
		v := int(away.Int64)
		m.AwayResult = &v
	}
	return &m, nil
}
