package league_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/mauv0809/crispy-fiesta/internal/contest"
	"github.com/mauv0809/crispy-fiesta/internal/database"
	"github.com/mauv0809/crispy-fiesta/internal/league"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a temporary in-memory SQLite database for testing.
func setupTestDB(t *testing.T) (league.Store, *sql.DB, func()) {
	t.Helper()

	db, dbTeardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)

	store := league.New(db)
	return store, db, dbTeardown
}

func addMatch(t *testing.T, store league.Store, kickoff time.Time) *contest.Match {
	t.Helper()
	match := &contest.Match{
		HomeTeam:  "Team Dragon",
		AwayTeam:  "Team Griffin",
		KickoffAt: kickoff.Unix(),
		League:    "Friendly",
	}
	require.NoError(t, store.CreateMatch(match))
	return match
}

func TestCreateAndGetMatches(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()

	match := addMatch(t, store, time.Now().Add(2*time.Hour))
	assert.NotEmpty(t, match.ID)

	got, err := store.GetMatch(match.ID)
	require.NoError(t, err)
	assert.Equal(t, "Team Dragon", got.HomeTeam)
	assert.Equal(t, contest.StatusScheduled, got.Status)
	assert.Nil(t, got.HomeResult)

	matches, err := store.GetMatches(contest.StatusScheduled)
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	finished, err := store.GetMatches(contest.StatusFinished)
	require.NoError(t, err)
	assert.Len(t, finished, 0)
}

func TestGetMatchNotFound(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()

	_, err := store.GetMatch("missing")
	assert.ErrorIs(t, err, league.ErrMatchNotFound)
}

func TestRecordFinalScore(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()

	match := addMatch(t, store, time.Now().Add(-2*time.Hour))
	require.NoError(t, store.RecordFinalScore(match.ID, 2, 1))

	got, err := store.GetMatch(match.ID)
	require.NoError(t, err)
	assert.Equal(t, contest.StatusFinished, got.Status)
	require.NotNil(t, got.HomeResult)
	require.NotNil(t, got.AwayResult)
	assert.Equal(t, 2, *got.HomeResult)
	assert.Equal(t, 1, *got.AwayResult)

	assert.ErrorIs(t, store.RecordFinalScore("missing", 0, 0), league.ErrMatchNotFound)
}

func TestDeleteMatchCascadesPredictions(t *testing.T) {
	store, db, teardown := setupTestDB(t)
	defer teardown()

	match := addMatch(t, store, time.Now().Add(2*time.Hour))
	_, err := store.UpsertPrediction(context.Background(), &contest.Prediction{UserID: "u1", MatchID: match.ID, HomeGoals: 1, AwayGoals: 0, Seq: 1})
	require.NoError(t, err)

	require.NoError(t, store.DeleteMatch(match.ID))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM predictions").Scan(&count))
	assert.Equal(t, 0, count, "predictions must be cascade-deleted with their match")
}

func TestUpsertPrediction(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()

	match := addMatch(t, store, time.Now().Add(2*time.Hour))

	t.Run("creates then updates on conflict", func(t *testing.T) {
		first, err := store.UpsertPrediction(context.Background(), &contest.Prediction{UserID: "u1", MatchID: match.ID, HomeGoals: 1, AwayGoals: 1, Seq: 1})
		require.NoError(t, err)
		assert.NotEmpty(t, first.ID)

		second, err := store.UpsertPrediction(context.Background(), &contest.Prediction{UserID: "u1", MatchID: match.ID, HomeGoals: 2, AwayGoals: 1, Seq: 2})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID, "upsert must keep the (user, match) identity")

		preds, err := store.GetPredictions("u1")
		require.NoError(t, err)
		require.Len(t, preds, 1)
		assert.Equal(t, 2, preds[0].HomeGoals)
		assert.Equal(t, int64(2), preds[0].Seq)
	})

	t.Run("rejects stale sequence numbers", func(t *testing.T) {
		_, err := store.UpsertPrediction(context.Background(), &contest.Prediction{UserID: "u1", MatchID: match.ID, HomeGoals: 9, AwayGoals: 9, Seq: 1})
		assert.ErrorIs(t, err, league.ErrStaleSequence)

		preds, err := store.GetPredictions("u1")
		require.NoError(t, err)
		require.Len(t, preds, 1)
		assert.Equal(t, 2, preds[0].HomeGoals, "stale write must not overwrite the newer value")
	})

	t.Run("rejects unknown match", func(t *testing.T) {
		_, err := store.UpsertPrediction(context.Background(), &contest.Prediction{UserID: "u1", MatchID: "missing", Seq: 1})
		assert.ErrorIs(t, err, league.ErrMatchNotFound)
	})
}

func TestGetMatchPredictions(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()

	match := addMatch(t, store, time.Now().Add(2*time.Hour))
	other := addMatch(t, store, time.Now().Add(3*time.Hour))

	_, err := store.UpsertPrediction(context.Background(), &contest.Prediction{UserID: "u1", MatchID: match.ID, HomeGoals: 1, AwayGoals: 0, Seq: 1})
	require.NoError(t, err)
	_, err = store.UpsertPrediction(context.Background(), &contest.Prediction{UserID: "u2", MatchID: match.ID, HomeGoals: 2, AwayGoals: 2, Seq: 1})
	require.NoError(t, err)
	_, err = store.UpsertPrediction(context.Background(), &contest.Prediction{UserID: "u1", MatchID: other.ID, HomeGoals: 0, AwayGoals: 3, Seq: 1})
	require.NoError(t, err)

	preds, err := store.GetMatchPredictions(match.ID)
	require.NoError(t, err)
	assert.Len(t, preds, 2)
	for _, p := range preds {
		assert.Equal(t, match.ID, p.MatchID)
	}
}

func TestUpsertPredictionLockEnforcement(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()

	t.Run("rejects writes inside the default window", func(t *testing.T) {
		match := addMatch(t, store, time.Now().Add(10*time.Minute))
		_, err := store.UpsertPrediction(context.Background(), &contest.Prediction{UserID: "u1", MatchID: match.ID, Seq: 1})
		assert.ErrorIs(t, err, league.ErrPredictionLocked)
	})

	t.Run("rejects writes for finished matches", func(t *testing.T) {
		match := addMatch(t, store, time.Now().Add(2*time.Hour))
		require.NoError(t, store.RecordFinalScore(match.ID, 1, 0))
		_, err := store.UpsertPrediction(context.Background(), &contest.Prediction{UserID: "u1", MatchID: match.ID, Seq: 1})
		assert.ErrorIs(t, err, league.ErrPredictionLocked)
	})

	t.Run("special window narrows the leader's write window", func(t *testing.T) {
		require.NoError(t, store.SetFlag("special_lock_times", true))
		defer func() { require.NoError(t, store.SetFlag("special_lock_times", false)) }()

		require.NoError(t, store.UpsertStanding(contest.Standing{UserID: "leader", Username: "Leader", Points: 50}))
		require.NoError(t, store.UpsertStanding(contest.Standing{UserID: "second", Username: "Second", Points: 40}))
		require.NoError(t, store.UpsertStanding(contest.Standing{UserID: "third", Username: "Third", Points: 30}))
		require.NoError(t, store.UpsertStanding(contest.Standing{UserID: "mid", Username: "Mid", Points: 10}))

		// 40 minutes out: inside the leader's 60 minute window, outside
		// everyone else's 15 minute default.
		match := addMatch(t, store, time.Now().Add(40*time.Minute))

		_, err := store.UpsertPrediction(context.Background(), &contest.Prediction{UserID: "leader", MatchID: match.ID, Seq: 1})
		assert.ErrorIs(t, err, league.ErrPredictionLocked)

		_, err = store.UpsertPrediction(context.Background(), &contest.Prediction{UserID: "mid", MatchID: match.ID, Seq: 1})
		assert.NoError(t, err)
	})
}

func TestStandings(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()

	require.NoError(t, store.UpsertStanding(contest.Standing{UserID: "u1", Username: "One", Points: 10, ExactDraws: 1}))
	require.NoError(t, store.UpsertStanding(contest.Standing{UserID: "u2", Username: "Two", Points: 10, ExactDraws: 2}))
	require.NoError(t, store.UpsertStanding(contest.Standing{UserID: "u3", Username: "Three", Points: 30}))

	standings, err := store.GetStandings()
	require.NoError(t, err)
	require.Len(t, standings, 3)
	assert.Equal(t, "u3", standings[0].UserID)
	assert.Equal(t, "u2", standings[1].UserID, "exact draw count breaks the points tie")
	assert.Equal(t, "u1", standings[2].UserID)

	require.NoError(t, store.ResetStandings())
	standings, err = store.GetStandings()
	require.NoError(t, err)
	for _, s := range standings {
		assert.Zero(t, s.Points)
		assert.Zero(t, s.ExactDraws)
	}
}

func TestFlags(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()

	flags, err := store.GetFlags()
	require.NoError(t, err)
	assert.False(t, flags.SpecialLockWindows)
	assert.False(t, flags.AlwaysShowPredictions)

	require.NoError(t, store.SetFlag("special_lock_times", true))
	require.NoError(t, store.SetFlag("always_show_predictions", true))

	flags, err = store.GetFlags()
	require.NoError(t, err)
	assert.True(t, flags.SpecialLockWindows)
	assert.True(t, flags.AlwaysShowPredictions)

	assert.Error(t, store.SetFlag("unknown_setting", true))
}
