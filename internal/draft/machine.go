package draft

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/crispy-fiesta/internal/contest"
	"github.com/mauv0809/crispy-fiesta/internal/league"
	"github.com/mauv0809/crispy-fiesta/internal/metrics"
)

const (
	defaultDebounce      = 600 * time.Millisecond
	defaultCommitTimeout = 5 * time.Second
)

// New creates a Manager for one user's session.
func New(userID string, committer Committer, editable LockFunc, m metrics.Metrics, opts ...Option) *Manager {
	mgr := &Manager{
		userID:    userID,
		machines:  make(map[string]*machine),
		committer: committer,
		editable:  editable,
		metrics:   m,
		debounce:  defaultDebounce,
		timeout:   defaultCommitTimeout,
	}
	for _, opt := range opts {
		opt(mgr)
	}
	return mgr
}

// Edit records a local score edit for the given match. Validation happens
// before anything else, so a bad value never reaches the store. A valid edit
// bumps the machine's sequence number and restarts the debounce timer.
func (mgr *Manager) Edit(matchID, home, away string) error {
	h, err := parseScore(home)
	if err != nil {
		return err
	}
	a, err := parseScore(away)
	if err != nil {
		return err
	}

	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	if mgr.closed {
		return ErrLocked
	}

	m := mgr.machine(matchID)
	if m.readOnly || !mgr.editable(matchID) {
		return ErrLocked
	}

	m.seq++
	m.home = h
	m.away = a
	m.state = contest.DraftEditing
	m.lastErr = nil

	seq := m.seq
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(mgr.debounce, func() {
		mgr.fire(matchID, seq)
	})
	return nil
}

// fire runs when the debounce timer elapses. It moves the machine to saving
// and commits the captured value in a separate goroutine so the manager's
// lock is never held across the network call.
func (mgr *Manager) fire(matchID string, seq int64) {
	mgr.mu.Lock()
	m, ok := mgr.machines[matchID]
	if !ok || mgr.closed || m.seq != seq || m.state != contest.DraftEditing {
		mgr.mu.Unlock()
		return
	}
	m.state = contest.DraftSaving
	m.inflight = seq
	p := contest.Prediction{
		UserID:    mgr.userID,
		MatchID:   matchID,
		HomeGoals: m.home,
		AwayGoals: m.away,
		Seq:       seq,
	}
	mgr.mu.Unlock()

	go mgr.commit(p)
}

// commit runs one commit attempt bounded by the manager's timeout. The
// committer is raced against the deadline: on expiry the machine moves to
// error with its value preserved, and the late response is discarded via the
// inflight marker.
func (mgr *Manager) commit(p contest.Prediction) {
	ctx, cancel := context.WithTimeout(context.Background(), mgr.timeout)
	defer cancel()

	type outcome struct {
		saved *contest.Prediction
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		saved, err := mgr.committer.Commit(ctx, p)
		done <- outcome{saved: saved, err: err}
	}()

	select {
	case out := <-done:
		mgr.resolve(p, out.saved, out.err)
	case <-ctx.Done():
		mgr.expire(p, ctx.Err())
	}
}

func (mgr *Manager) resolve(p contest.Prediction, saved *contest.Prediction, err error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	m, ok := mgr.machines[p.MatchID]
	if !ok || mgr.closed {
		return
	}
	if m.seq != p.Seq || m.inflight != p.Seq {
		// A newer edit superseded this commit, or its deadline already
		// expired. Its response no longer matters either way.
		log.Debug("Discarding superseded commit response", "user", mgr.userID, "match", p.MatchID, "seq", p.Seq, "current", m.seq)
		return
	}
	m.inflight = 0

	switch {
	case err == nil:
		m.state = contest.DraftSaved
		m.lastErr = nil
		if saved != nil && saved.Seq > m.seq {
			m.seq = saved.Seq
			m.home = saved.HomeGoals
			m.away = saved.AwayGoals
		}
		m.savedHome = m.home
		m.savedAway = m.away
		m.savedSeq = m.seq
		mgr.metrics.IncCommits()
	case errors.Is(err, league.ErrPredictionLocked):
		log.Warn("Commit rejected, prediction window locked", "user", mgr.userID, "match", p.MatchID)
		m.state = contest.DraftError
		m.lastErr = ErrLocked
		m.readOnly = true
		mgr.metrics.IncCommitsLocked()
	case errors.Is(err, league.ErrStaleSequence):
		// The store already holds a newer write for this prediction,
		// typically from another device. The change feed will deliver it.
		log.Debug("Commit superseded by a newer stored sequence", "user", mgr.userID, "match", p.MatchID, "seq", p.Seq)
		m.state = contest.DraftSaved
		m.lastErr = nil
	default:
		log.Error("Commit failed", "user", mgr.userID, "match", p.MatchID, "error", err)
		m.state = contest.DraftError
		m.lastErr = err
		mgr.metrics.IncCommitsFailed()
	}
}

// expire handles a commit whose deadline passed before any response arrived.
// The value is kept so the next edit retries through the normal debounce path.
func (mgr *Manager) expire(p contest.Prediction, err error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	m, ok := mgr.machines[p.MatchID]
	if !ok || mgr.closed || m.seq != p.Seq || m.inflight != p.Seq {
		return
	}
	m.inflight = 0

	log.Error("Commit timed out", "user", mgr.userID, "match", p.MatchID, "seq", p.Seq, "error", err)
	m.state = contest.DraftError
	m.lastErr = err
	mgr.metrics.IncCommitsFailed()
}

// ApplyRemote merges a prediction observed on the change feed into the local
// machine for its match. The resolution is silent: when the remote copy wins
// the draft simply becomes the saved server value.
func (mgr *Manager) ApplyRemote(p contest.Prediction) {
	if p.UserID != mgr.userID {
		return
	}

	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	m := mgr.machine(p.MatchID)
	local := contest.Prediction{
		MatchID:   p.MatchID,
		HomeGoals: m.home,
		AwayGoals: m.away,
		Seq:       m.seq,
	}
	merged := Merge(local, p)
	if merged.Seq == local.Seq && m.seq > p.Seq {
		// The local draft is ahead of what the feed delivered; the pending
		// debounce or in-flight commit will publish it.
		return
	}

	if m.timer != nil {
		m.timer.Stop()
	}
	m.home = merged.HomeGoals
	m.away = merged.AwayGoals
	m.seq = merged.Seq
	m.savedHome = merged.HomeGoals
	m.savedAway = merged.AwayGoals
	m.savedSeq = merged.Seq
	m.state = contest.DraftSaved
	m.lastErr = nil
}

// MatchFinished discards any pending edit for the match and makes its machine
// read-only. The discarded value rolls back to the last committed one, so the
// locked control shows what the store actually holds and a redelivered feed
// event for that value still merges cleanly.
func (mgr *Manager) MatchFinished(matchID string) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	m := mgr.machine(matchID)
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.inflight = 0
	if m.seq > m.savedSeq {
		m.home = m.savedHome
		m.away = m.savedAway
		m.seq = m.savedSeq
	}
	switch m.state {
	case contest.DraftEditing, contest.DraftSaving, contest.DraftError:
		if m.savedSeq > 0 {
			m.state = contest.DraftSaved
		} else {
			m.state = contest.DraftIdle
		}
	}
	m.readOnly = true
	m.lastErr = nil
}

// State returns the snapshot for one match's machine.
func (mgr *Manager) State(matchID string) Snapshot {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	m, ok := mgr.machines[matchID]
	if !ok {
		return Snapshot{MatchID: matchID, State: contest.DraftIdle}
	}
	return snapshotOf(m)
}

// Snapshots returns all machine snapshots ordered by match ID.
func (mgr *Manager) Snapshots() []Snapshot {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	out := make([]Snapshot, 0, len(mgr.machines))
	for _, m := range mgr.machines {
		out = append(out, snapshotOf(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchID < out[j].MatchID })
	return out
}

// Close stops every pending timer. In-flight commits are not aborted; their
// responses are discarded when they land.
func (mgr *Manager) Close() {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	mgr.closed = true
	for _, m := range mgr.machines {
		if m.timer != nil {
			m.timer.Stop()
			m.timer = nil
		}
	}
}

// machine returns the state machine for matchID, creating an idle one if the
// match has not been touched yet. Callers must hold mgr.mu.
func (mgr *Manager) machine(matchID string) *machine {
	m, ok := mgr.machines[matchID]
	if !ok {
		m = &machine{matchID: matchID, state: contest.DraftIdle}
		mgr.machines[matchID] = m
	}
	return m
}

func snapshotOf(m *machine) Snapshot {
	s := Snapshot{
		MatchID:   m.matchID,
		State:     m.state,
		HomeGoals: m.home,
		AwayGoals: m.away,
		Seq:       m.seq,
	}
	if m.lastErr != nil {
		s.Error = m.lastErr.Error()
	}
	return s
}

func parseScore(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, ErrInvalidScore
	}
	return n, nil
}
