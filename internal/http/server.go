package http

import (
	"net/http"

	"github.com/mauv0809/crispy-fiesta/internal/config"
	"github.com/mauv0809/crispy-fiesta/internal/feed"
	"github.com/mauv0809/crispy-fiesta/internal/league"
	"github.com/mauv0809/crispy-fiesta/internal/metrics"
	"github.com/mauv0809/crispy-fiesta/internal/notifier"
	"github.com/mauv0809/crispy-fiesta/internal/settlement"
)

func NewServer(store league.Store, metricsSvc metrics.Metrics, metricsHandler http.Handler, cfg config.Config, publisher feed.Publisher, trigger *settlement.Trigger, n notifier.Notifier) *Server {
	server := &Server{
		Store:          store,
		Metrics:        metricsSvc,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Publisher:      publisher,
		Trigger:        trigger,
		Notifier:       n,
		Router:         http.NewServeMux(),
		sessions:       newSessionRegistry(),
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	// This makes it easy to add more middlewares in the future, like an authentication middleware.
	// e.g. Chain(s.MyHandler(), paramsMiddleware, authMiddleware)
	s.Router.Handle("/metrics", s.MetricsHandler)
	s.Router.Handle("/health", Chain(s.HealthCheckHandler(), paramsMiddleware))
	s.Router.Handle("/clear", Chain(s.ClearStoreHandler(), paramsMiddleware))
	s.Router.Handle("/matches", Chain(s.ListMatchesHandler(), paramsMiddleware))
	s.Router.Handle("/predictions", Chain(s.ListPredictionsHandler(), paramsMiddleware))
	s.Router.Handle("/standings", Chain(s.StandingsHandler(), paramsMiddleware))
	s.Router.Handle("/predict", Chain(s.PredictHandler(), paramsMiddleware))
	s.Router.Handle("/predict/state", Chain(s.PredictStateHandler(), paramsMiddleware))
	s.Router.Handle("/session", Chain(s.SessionHandler(), paramsMiddleware))
	s.Router.Handle("/session/close", Chain(s.SessionCloseHandler(), paramsMiddleware))
	s.Router.Handle("/events", Chain(s.EventsHandler(), paramsMiddleware))
	s.Router.Handle("/admin/match/create", Chain(s.CreateMatchHandler(), paramsMiddleware))
	s.Router.Handle("/admin/match/update", Chain(s.UpdateMatchHandler(), paramsMiddleware))
	s.Router.Handle("/admin/match/delete", Chain(s.DeleteMatchHandler(), paramsMiddleware))
	s.Router.Handle("/admin/match/result", Chain(s.RecordResultHandler(), paramsMiddleware))
	s.Router.Handle("/admin/match/resettle", Chain(s.ResettleHandler(), paramsMiddleware))
	s.Router.Handle("/admin/settings", Chain(s.SettingsHandler(), paramsMiddleware))
	s.Router.Handle("/admin/reset-points", Chain(s.ResetPointsHandler(), paramsMiddleware))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

// Close tears down every live session engine.
func (s *Server) Close() {
	s.sessions.closeAll()
}
