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

type Server struct {
	Store          league.Store
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Cfg            config.Config
	Publisher      feed.Publisher
	Trigger        *settlement.Trigger
	Notifier       notifier.Notifier
	Router         *http.ServeMux

	sessions *sessionRegistry
}
