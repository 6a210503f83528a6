package notifier

import "github.com/mauv0809/crispy-fiesta/internal/contest"

// Notifier defines a high-level interface for announcing business events.
// This decouples the rest of the application from the specific notification
// provider (e.g., Slack).
type Notifier interface {
	// For a match whose final score was just recorded
	SendResultNotification(match *contest.Match, dryRun bool) error
	// For a settlement invocation that failed and needs an admin re-run
	SendSettlementFailure(matchID string, cause error, dryRun bool) error
}
