package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/crispy-fiesta/internal/feed"
	"github.com/mauv0809/crispy-fiesta/internal/league"
	"github.com/mauv0809/crispy-fiesta/internal/metrics"
	"github.com/mauv0809/crispy-fiesta/internal/notifier"
)

// Trigger runs the settlement sequence for a finished match: record the
// final score, announce the match change, invoke the external settle
// procedure and fan out the standings update.
type Trigger struct {
	store     league.Store
	publisher feed.Publisher
	settler   Settler
	notifier  notifier.Notifier
	metrics   metrics.Metrics
	dryRun    bool
}

// NewTrigger creates a Trigger.
func NewTrigger(store league.Store, publisher feed.Publisher, settler Settler, n notifier.Notifier, m metrics.Metrics, dryRun bool) *Trigger {
	return &Trigger{
		store:     store,
		publisher: publisher,
		settler:   settler,
		notifier:  n,
		metrics:   m,
		dryRun:    dryRun,
	}
}

// RecordResult persists the final score and drives settlement. The score
// write is never rolled back: when settlement fails the match stays finished
// and unsettled, the failure is announced, and an admin re-invokes this
// endpoint to retry.
func (t *Trigger) RecordResult(ctx context.Context, matchID string, home, away int) error {
	if err := t.store.RecordFinalScore(matchID, home, away); err != nil {
		return err
	}

	match, err := t.store.GetMatch(matchID)
	if err != nil {
		return fmt.Errorf("failed to load match after recording score: %w", err)
	}

	if err := t.publisher.Publish(feed.Event{
		Entity: feed.EntityMatch,
		Action: feed.ActionUpsert,
		ID:     match.ID,
		Match:  match,
	}); err != nil {
		log.Error("Failed to publish match change", "matchID", matchID, "error", err)
	}

	t.metrics.IncSettlementRuns()
	start := time.Now()
	err = t.settler.Settle(ctx, matchID)
	t.metrics.ObserveSettlementDuration(time.Since(start).Seconds())

	if err != nil {
		t.metrics.IncSettlementFailures()
		log.Error("Settlement failed, match stays finished and unsettled", "matchID", matchID, "error", err)
		if nerr := t.notifier.SendSettlementFailure(matchID, err, t.dryRun); nerr != nil {
			log.Error("Failed to send settlement failure notification", "matchID", matchID, "error", nerr)
		}
		return fmt.Errorf("settlement failed for match %s: %w", matchID, err)
	}

	// Standings changed as a whole; consumers reload rather than patch.
	if err := t.publisher.Publish(feed.Event{
		Entity: feed.EntityStanding,
		Action: feed.ActionUpsert,
	}); err != nil {
		log.Error("Failed to publish standings change", "matchID", matchID, "error", err)
	}

	if err := t.notifier.SendResultNotification(match, t.dryRun); err != nil {
		log.Error("Failed to send result notification", "matchID", matchID, "error", err)
	}

	log.Info("Match settled", "matchID", matchID, "home", home, "away", away)
	return nil
}

// Resettle re-invokes the external settle procedure for a match whose score
// is already recorded. Used by admins after a settlement failure.
func (t *Trigger) Resettle(ctx context.Context, matchID string) error {
	match, err := t.store.GetMatch(matchID)
	if err != nil {
		return err
	}
	if !match.Finished() {
		return fmt.Errorf("match %s has no recorded result yet", matchID)
	}

	t.metrics.IncSettlementRuns()
	start := time.Now()
	err = t.settler.Settle(ctx, matchID)
	t.metrics.ObserveSettlementDuration(time.Since(start).Seconds())
	if err != nil {
		t.metrics.IncSettlementFailures()
		return fmt.Errorf("settlement failed for match %s: %w", matchID, err)
	}

	if perr := t.publisher.Publish(feed.Event{
		Entity: feed.EntityStanding,
		Action: feed.ActionUpsert,
	}); perr != nil {
		log.Error("Failed to publish standings change", "matchID", matchID, "error", perr)
	}
	return nil
}
