package lockpolicy_test

import (
	"testing"
	"time"

	"github.com/mauv0809/crispy-fiesta/internal/contest"
	"github.com/mauv0809/crispy-fiesta/internal/lockpolicy"
	"github.com/stretchr/testify/assert"
)

func TestLockInstant(t *testing.T) {
	kickoff := time.Date(2026, 6, 14, 18, 0, 0, 0, time.UTC)

	t.Run("default window when flag disabled, regardless of rank", func(t *testing.T) {
		flags := contest.Flags{SpecialLockWindows: false}
		for _, rank := range []int{0, 1, 2, 3, 4, 10} {
			got := lockpolicy.LockInstant(kickoff, flags, rank)
			assert.Equal(t, kickoff.Add(-15*time.Minute), got, "rank %d", rank)
		}
	})

	t.Run("rank tiered windows when flag enabled", func(t *testing.T) {
		flags := contest.Flags{SpecialLockWindows: true}
		assert.Equal(t, kickoff.Add(-60*time.Minute), lockpolicy.LockInstant(kickoff, flags, 1))
		assert.Equal(t, kickoff.Add(-45*time.Minute), lockpolicy.LockInstant(kickoff, flags, 2))
		assert.Equal(t, kickoff.Add(-30*time.Minute), lockpolicy.LockInstant(kickoff, flags, 3))
	})

	t.Run("unknown rank or below top three falls back to default", func(t *testing.T) {
		flags := contest.Flags{SpecialLockWindows: true}
		assert.Equal(t, kickoff.Add(-15*time.Minute), lockpolicy.LockInstant(kickoff, flags, 0))
		assert.Equal(t, kickoff.Add(-15*time.Minute), lockpolicy.LockInstant(kickoff, flags, 4))
	})

	t.Run("past kickoff yields a past instant", func(t *testing.T) {
		past := time.Now().Add(-2 * time.Hour)
		got := lockpolicy.LockInstant(past, contest.Flags{}, 0)
		assert.True(t, got.Before(time.Now()))
	})
}

func TestEditable(t *testing.T) {
	kickoff := time.Date(2026, 6, 14, 18, 0, 0, 0, time.UTC)

	t.Run("default window boundary", func(t *testing.T) {
		flags := contest.Flags{SpecialLockWindows: false}
		assert.True(t, lockpolicy.Editable(kickoff.Add(-16*time.Minute), kickoff, flags, 7))
		assert.False(t, lockpolicy.Editable(kickoff.Add(-14*time.Minute), kickoff, flags, 7))
	})

	t.Run("rank two special window boundary", func(t *testing.T) {
		flags := contest.Flags{SpecialLockWindows: true}
		assert.True(t, lockpolicy.Editable(kickoff.Add(-46*time.Minute), kickoff, flags, 2))
		assert.False(t, lockpolicy.Editable(kickoff.Add(-44*time.Minute), kickoff, flags, 2))
	})

	t.Run("lock instant itself is not editable", func(t *testing.T) {
		flags := contest.Flags{}
		assert.False(t, lockpolicy.Editable(kickoff.Add(-15*time.Minute), kickoff, flags, 0))
	})
}
