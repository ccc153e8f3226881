package bootstrap

import (
	"net/http"

	apihttp "github.com/artpar/contentcore/adapters/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router returns the operational HTTP handler: health probes, version, and
// metrics when enabled.
func (a *App) Router() http.Handler {
	cfg := a.Config().Metrics
	rc := apihttp.RouterConfig{
		Logger:      a.Logger,
		Health:      apihttp.NewHealthHandler(a.Store),
		MetricsPath: cfg.Path,
	}
	if cfg.Enabled {
		rc.MetricsHandler = promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{Registry: a.Registry})
	}
	return apihttp.NewRouter(rc)
}
