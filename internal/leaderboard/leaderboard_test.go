package leaderboard_test

import (
	"testing"

	"github.com/mauv0809/crispy-fiesta/internal/contest"
	"github.com/mauv0809/crispy-fiesta/internal/leaderboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRank(t *testing.T) {
	t.Run("orders by points first", func(t *testing.T) {
		entries := leaderboard.Rank([]contest.Standing{
			{UserID: "u1", Points: 10},
			{UserID: "u2", Points: 30},
			{UserID: "u3", Points: 20},
		})
		require.Len(t, entries, 3)
		assert.Equal(t, "u2", entries[0].UserID)
		assert.Equal(t, "u3", entries[1].UserID)
		assert.Equal(t, "u1", entries[2].UserID)
		assert.Equal(t, 1, entries[0].Rank)
		assert.Equal(t, 3, entries[2].Rank)
	})

	t.Run("tie-break counters applied in strict priority order", func(t *testing.T) {
		entries := leaderboard.Rank([]contest.Standing{
			{UserID: "winner-only", Points: 12, CorrectWinners: 3},
			{UserID: "goal-diff", Points: 12, GoalDiffs: 1},
			{UserID: "exact-score", Points: 12, ExactScores: 1},
			{UserID: "exact-draw", Points: 12, ExactDraws: 1},
		})
		assert.Equal(t, "exact-draw", entries[0].UserID)
		assert.Equal(t, "exact-score", entries[1].UserID)
		assert.Equal(t, "goal-diff", entries[2].UserID)
		assert.Equal(t, "winner-only", entries[3].UserID)
	})

	t.Run("fully tied users keep input order and get distinct ranks", func(t *testing.T) {
		input := []contest.Standing{
			{UserID: "a", Points: 5},
			{UserID: "b", Points: 5},
			{UserID: "c", Points: 5},
		}
		first := leaderboard.Rank(input)
		second := leaderboard.Rank(input)
		assert.Equal(t, first, second, "ordering must be stable across repeated calls")
		assert.Equal(t, "a", first[0].UserID)
		assert.Equal(t, 1, first[0].Rank)
		assert.Equal(t, 2, first[1].Rank)
		assert.Equal(t, 3, first[2].Rank)
	})

	t.Run("sorting an already sorted list is idempotent", func(t *testing.T) {
		entries := leaderboard.Rank([]contest.Standing{
			{UserID: "u1", Points: 9, ExactDraws: 2},
			{UserID: "u2", Points: 9, ExactDraws: 1},
			{UserID: "u3", Points: 4},
		})
		var sorted []contest.Standing
		for _, e := range entries {
			sorted = append(sorted, e.Standing)
		}
		again := leaderboard.Rank(sorted)
		assert.Equal(t, entries, again)
	})

	t.Run("does not mutate input", func(t *testing.T) {
		input := []contest.Standing{
			{UserID: "low", Points: 1},
			{UserID: "high", Points: 2},
		}
		leaderboard.Rank(input)
		assert.Equal(t, "low", input[0].UserID)
	})
}

func TestRankOf(t *testing.T) {
	entries := leaderboard.Rank([]contest.Standing{
		{UserID: "u1", Points: 10},
		{UserID: "u2", Points: 20},
	})
	assert.Equal(t, 1, leaderboard.RankOf(entries, "u2"))
	assert.Equal(t, 2, leaderboard.RankOf(entries, "u1"))
	assert.Equal(t, 0, leaderboard.RankOf(entries, "nobody"))
}
