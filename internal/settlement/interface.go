package settlement

import "context"

// Settler invokes the external settlement procedure for a finished match.
// The procedure is idempotent on the remote side: settling the same match
// twice yields the same standings, so retrying a failed run is always safe.
type Settler interface {
	Settle(ctx context.Context, matchID string) error
}
