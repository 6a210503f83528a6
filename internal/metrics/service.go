package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		FeedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "contest_feed_events_total",
			Help: "The total number of change-feed events handled.",
		}),
		Commits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "contest_prediction_commits_total",
			Help: "The total number of prediction commits accepted by the store.",
		}),
		CommitsLocked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "contest_prediction_commits_locked_total",
			Help: "The total number of prediction commits rejected because the lock instant had passed.",
		}),
		CommitsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "contest_prediction_commits_failed_total",
			Help: "The total number of prediction commits that failed for transient reasons.",
		}),
		SettlementRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "contest_settlement_runs_total",
			Help: "The total number of settlement invocations.",
		}),
		SettlementFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "contest_settlement_failures_total",
			Help: "The total number of settlement invocations that failed.",
		}),
		RankRecomputes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "contest_rank_recomputes_total",
			Help: "The total number of full leaderboard rank recomputations.",
		}),
		NotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "contest_notifications_sent_total",
			Help: "The total number of notifications sent successfully.",
		}),
		NotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "contest_notifications_failed_total",
			Help: "The total number of notifications that failed to send.",
		}),
		SettlementDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "contest_settlement_duration_seconds",
			Help:    "The duration of settlement invocations.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "contest_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.FeedEvents,
		s.Commits,
		s.CommitsLocked,
		s.CommitsFailed,
		s.SettlementRuns,
		s.SettlementFailures,
		s.RankRecomputes,
		s.NotifSent,
		s.NotifFailed,
		s.SettlementDuration,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncFeedEvents() { s.FeedEvents.Inc() }

func (s *Service) IncCommits() { s.Commits.Inc() }

func (s *Service) IncCommitsLocked() { s.CommitsLocked.Inc() }

func (s *Service) IncCommitsFailed() { s.CommitsFailed.Inc() }

func (s *Service) IncSettlementRuns() { s.SettlementRuns.Inc() }

func (s *Service) IncSettlementFailures() { s.SettlementFailures.Inc() }

func (s *Service) IncRankRecomputes() { s.RankRecomputes.Inc() }

func (s *Service) IncNotifSent() { s.NotifSent.Inc() }

func (s *Service) IncNotifFailed() { s.NotifFailed.Inc() }

func (s *Service) ObserveSettlementDuration(seconds float64) {
	s.SettlementDuration.Observe(seconds)
}

func (s *Service) SetStartupTime(seconds float64) {
	s.StartupTimeSeconds.Set(seconds)
}
