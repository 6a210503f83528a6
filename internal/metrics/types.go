package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds the registered Prometheus collectors.
type Service struct {
	FeedEvents         prometheus.Counter
	Commits            prometheus.Counter
	CommitsLocked      prometheus.Counter
	CommitsFailed      prometheus.Counter
	SettlementRuns     prometheus.Counter
	SettlementFailures prometheus.Counter
	RankRecomputes     prometheus.Counter
	NotifSent          prometheus.Counter
	NotifFailed        prometheus.Counter
	SettlementDuration prometheus.Histogram
	StartupTimeSeconds prometheus.Gauge
}
