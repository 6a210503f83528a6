package leaderboard

import (
	"sort"

	"github.com/mauv0809/crispy-fiesta/internal/contest"
)

// Entry is a standing with its 1-based position in the total order.
type Entry struct {
	contest.Standing
	Rank int `json:"rank"`
}

// keyLess compares two standings under the five-key tie-break order:
// points, exact draws, exact non-draw scores, goal differences, correct
// winners, each descending. Returns true when a strictly precedes b.
func keyLess(a, b contest.Standing) bool {
	if a.Points != b.Points {
		return a.Points > b.Points
	}
	if a.ExactDraws != b.ExactDraws {
		return a.ExactDraws > b.ExactDraws
	}
	if a.ExactScores != b.ExactScores {
		return a.ExactScores > b.ExactScores
	}
	if a.GoalDiffs != b.GoalDiffs {
		return a.GoalDiffs > b.GoalDiffs
	}
	return a.CorrectWinners > b.CorrectWinners
}

// Rank orders standings by the tie-break key and assigns positional 1-based
// ranks. The sort is stable so users equal on all five values keep their
// input order across repeated calls.
func Rank(standings []contest.Standing) []Entry {
	sorted := make([]contest.Standing, len(standings))
	copy(sorted, standings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return keyLess(sorted[i], sorted[j])
	})

	entries := make([]Entry, len(sorted))
	for i, s := range sorted {
		entries[i] = Entry{Standing: s, Rank: i + 1}
	}
	return entries
}

// RankOf returns the rank of the given user within an already-ranked list,
// or 0 when the user is absent. Lock windows must be derived from the same
// ordering the leaderboard displays, so callers pass the output of Rank.
func RankOf(entries []Entry, userID string) int {
	for _, e := range entries {
		if e.UserID == userID {
			return e.Rank
		}
	}
	return 0
}
