package syncer

import (
	"context"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/crispy-fiesta/internal/contest"
	"github.com/mauv0809/crispy-fiesta/internal/draft"
	"github.com/mauv0809/crispy-fiesta/internal/feed"
	"github.com/mauv0809/crispy-fiesta/internal/leaderboard"
	"github.com/mauv0809/crispy-fiesta/internal/league"
	"github.com/mauv0809/crispy-fiesta/internal/lockpolicy"
	"github.com/mauv0809/crispy-fiesta/internal/metrics"
)

// NewEngine creates a session engine for one user. Call Load before serving
// anything from it.
func NewEngine(userID string, store league.Store, publisher feed.Publisher, m metrics.Metrics, opts ...Option) *Engine {
	e := &Engine{
		userID:      userID,
		store:       store,
		publisher:   publisher,
		metrics:     m,
		now:         time.Now,
		matches:     make(map[string]*contest.Match),
		predictions: make(map[string]contest.Prediction),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.drafts = draft.New(userID, draft.CommitterFunc(e.commit), e.editableNow, m, e.draftOpts...)
	return e
}

// Load performs the one-shot full load of all three read models. The engine
// does not report ready, and nothing is editable, until it has succeeded;
// editable state is never derived from absent match data.
func (e *Engine) Load() error {
	matches, err := e.store.GetMatches("")
	if err != nil {
		return err
	}
	predictions, err := e.store.GetPredictions(e.userID)
	if err != nil {
		return err
	}
	standings, err := e.store.GetStandings()
	if err != nil {
		return err
	}
	flags, err := e.store.GetFlags()
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.matches = make(map[string]*contest.Match, len(matches))
	for _, m := range matches {
		e.matches[m.ID] = m
	}
	e.predictions = make(map[string]contest.Prediction, len(predictions))
	for _, p := range predictions {
		e.predictions[p.MatchID] = *p
	}
	e.standings = standings
	e.flags = flags
	e.recomputeRankLocked()
	e.ready = true

	log.Debug("Session loaded", "user", e.userID, "matches", len(matches), "predictions", len(predictions))
	return nil
}

// Ready reports whether the initial load has completed.
func (e *Engine) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ready
}

// Edit routes a score edit into the user's draft manager.
func (e *Engine) Edit(matchID, home, away string) error {
	return e.drafts.Edit(matchID, home, away)
}

// DraftState returns the draft snapshot for one match.
func (e *Engine) DraftState(matchID string) draft.Snapshot {
	return e.drafts.State(matchID)
}

// DraftSnapshots returns all draft snapshots for the session.
func (e *Engine) DraftSnapshots() []draft.Snapshot {
	return e.drafts.Snapshots()
}

// HandleEvent applies one change-feed event to the read models. Delivery is
// at-least-once and unordered, so every branch must tolerate redelivery.
func (e *Engine) HandleEvent(ev feed.Event) {
	e.metrics.IncFeedEvents()

	switch ev.Entity {
	case feed.EntityMatch:
		e.handleMatchEvent(ev)
	case feed.EntityPrediction:
		e.handlePredictionEvent(ev)
	case feed.EntityStanding:
		e.handleStandingEvent(ev)
	case feed.EntitySettings:
		e.handleSettingsEvent(ev)
	default:
		log.Warn("Ignoring event for unknown entity", "entity", ev.Entity)
	}
}

func (e *Engine) handleMatchEvent(ev feed.Event) {
	var finished, deleted bool

	e.mu.Lock()
	switch ev.Action {
	case feed.ActionDelete:
		if _, ok := e.matches[ev.ID]; ok {
			delete(e.matches, ev.ID)
			delete(e.predictions, ev.ID)
			deleted = true
		}
	case feed.ActionUpsert:
		if ev.Match == nil {
			e.mu.Unlock()
			return
		}
		prev, ok := e.matches[ev.Match.ID]
		e.matches[ev.Match.ID] = ev.Match
		finished = ev.Match.Finished() && (!ok || !prev.Finished())
	}
	e.mu.Unlock()

	// Draft calls happen outside the model lock; the draft manager calls back
	// into editableNow on its own edits.
	if finished || deleted {
		e.drafts.MatchFinished(ev.ID)
	}
	if finished {
		// Settlement may already have run by the time this delivery arrives.
		e.refreshStandings()
	}
}

func (e *Engine) handlePredictionEvent(ev feed.Event) {
	if ev.Action != feed.ActionUpsert || ev.Prediction == nil || ev.Prediction.UserID != e.userID {
		return
	}
	p := *ev.Prediction

	e.mu.Lock()
	existing, ok := e.predictions[p.MatchID]
	if !ok || p.Seq >= existing.Seq {
		e.predictions[p.MatchID] = p
	}
	e.mu.Unlock()

	e.drafts.ApplyRemote(p)
}

// handleStandingEvent recomputes the session user's rank before any lock
// instant is served again, so a promotion into a special window takes effect
// in the same step.
func (e *Engine) handleStandingEvent(ev feed.Event) {
	if ev.Standing != nil {
		e.mu.Lock()
		upsertStanding(&e.standings, *ev.Standing)
		e.recomputeRankLocked()
		e.mu.Unlock()
		return
	}
	e.refreshStandings()
}

func (e *Engine) handleSettingsEvent(ev feed.Event) {
	if ev.Flags != nil {
		e.mu.Lock()
		e.flags = *ev.Flags
		e.mu.Unlock()
		return
	}
	flags, err := e.store.GetFlags()
	if err != nil {
		log.Error("Failed to refresh flags", "user", e.userID, "error", err)
		return
	}
	e.mu.Lock()
	e.flags = flags
	e.mu.Unlock()
}

// Editable reports whether the session user may edit their prediction for the
// match right now. It is always derived from the current rank and flags,
// never cached.
func (e *Engine) Editable(matchID string) bool {
	return e.editableNow(matchID)
}

// LockInstant returns the lock instant for the match as it applies to the
// session user, or zero time when the match is unknown.
func (e *Engine) LockInstant(matchID string) time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()

	m, ok := e.matches[matchID]
	if !ok {
		return time.Time{}
	}
	return lockpolicy.LockInstant(time.Unix(m.KickoffAt, 0), e.flags, e.rank)
}

// Snapshot returns a consistent view of the whole session, matches ordered by
// kickoff.
func (e *Engine) Snapshot() View {
	e.mu.RLock()
	defer e.mu.RUnlock()

	v := View{
		Ready:     e.ready,
		Rank:      e.rank,
		Flags:     e.flags,
		Standings: append([]contest.Standing(nil), e.standings...),
	}
	now := e.now()
	for _, m := range e.matches {
		mv := MatchView{
			Match:    m,
			LockAt:   lockpolicy.LockInstant(time.Unix(m.KickoffAt, 0), e.flags, e.rank).Unix(),
			Editable: e.ready && !m.Finished() && lockpolicy.Editable(now, time.Unix(m.KickoffAt, 0), e.flags, e.rank),
		}
		if p, ok := e.predictions[m.ID]; ok {
			pc := p
			mv.Prediction = &pc
		}
		v.Matches = append(v.Matches, mv)
	}
	sortMatchViews(v.Matches)
	return v
}

// Close releases the draft manager's timers. The HTTP layer drops the engine
// from its registry afterwards so a remount cannot double-deliver events.
func (e *Engine) Close() {
	e.drafts.Close()
}

// commit is the draft manager's committer: the authoritative write plus the
// change-feed publish, then the own-prediction read model update. The write
// inherits the draft manager's commit deadline through ctx.
func (e *Engine) commit(ctx context.Context, p contest.Prediction) (*contest.Prediction, error) {
	saved, err := e.store.UpsertPrediction(ctx, &p)
	if err != nil {
		return nil, err
	}

	if err := e.publisher.Publish(feed.Event{
		Entity:     feed.EntityPrediction,
		Action:     feed.ActionUpsert,
		ID:         saved.ID,
		Prediction: saved,
	}); err != nil {
		log.Error("Failed to publish prediction change", "user", e.userID, "match", saved.MatchID, "error", err)
	}

	e.mu.Lock()
	existing, ok := e.predictions[saved.MatchID]
	if !ok || saved.Seq >= existing.Seq {
		e.predictions[saved.MatchID] = *saved
	}
	e.mu.Unlock()

	return saved, nil
}

func (e *Engine) editableNow(matchID string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.ready {
		return false
	}
	m, ok := e.matches[matchID]
	if !ok || m.Finished() {
		return false
	}
	return lockpolicy.Editable(e.now(), time.Unix(m.KickoffAt, 0), e.flags, e.rank)
}

func (e *Engine) refreshStandings() {
	standings, err := e.store.GetStandings()
	if err != nil {
		log.Error("Failed to refresh standings", "user", e.userID, "error", err)
		return
	}
	e.mu.Lock()
	e.standings = standings
	e.recomputeRankLocked()
	e.mu.Unlock()
}

func (e *Engine) recomputeRankLocked() {
	e.rank = leaderboard.RankOf(leaderboard.Rank(e.standings), e.userID)
	e.metrics.IncRankRecomputes()
}

func upsertStanding(standings *[]contest.Standing, s contest.Standing) {
	for i := range *standings {
		if (*standings)[i].UserID == s.UserID {
			(*standings)[i] = s
			return
		}
	}
	*standings = append(*standings, s)
}

func sortMatchViews(views []MatchView) {
	sort.Slice(views, func(i, j int) bool {
		if views[i].Match.KickoffAt != views[j].Match.KickoffAt {
			return views[i].Match.KickoffAt < views[j].Match.KickoffAt
		}
		return views[i].Match.ID < views[j].Match.ID
	})
}
