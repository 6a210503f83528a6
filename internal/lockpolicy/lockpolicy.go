package lockpolicy

import (
	"time"

	"github.com/mauv0809/crispy-fiesta/internal/contest"
)

// DefaultWindow is how long before kickoff a prediction locks when no special
// window applies.
const DefaultWindow = 15 * time.Minute

// tierWindows maps leaderboard rank to the widened lock window that applies
// when the special_lock_times flag is enabled. Leading means locking earlier.
var tierWindows = map[int]time.Duration{
	1: 60 * time.Minute,
	2: 45 * time.Minute,
	3: 30 * time.Minute,
}

// LockInstant returns the moment predictions for a match become immutable.
// A rank of 0 means the user's rank is unknown and the default window applies.
// A kickoff in the past simply yields an instant in the past; already-started
// matches need no special casing.
func LockInstant(kickoff time.Time, flags contest.Flags, rank int) time.Time {
	if !flags.SpecialLockWindows {
		return kickoff.Add(-DefaultWindow)
	}
	window, ok := tierWindows[rank]
	if !ok {
		window = DefaultWindow
	}
	return kickoff.Add(-window)
}

// Editable reports whether a prediction for the match may still be written.
func Editable(now, kickoff time.Time, flags contest.Flags, rank int) bool {
	return now.Before(LockInstant(kickoff, flags, rank))
}
