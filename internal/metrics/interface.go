package metrics

// Metrics defines the instrumentation points for the prediction engine.
type Metrics interface {
	IncFeedEvents()
	IncCommits()
	IncCommitsLocked()
	IncCommitsFailed()
	IncSettlementRuns()
	IncSettlementFailures()
	IncRankRecomputes()
	IncNotifSent()
	IncNotifFailed()
	ObserveSettlementDuration(seconds float64)
	SetStartupTime(seconds float64)
}
