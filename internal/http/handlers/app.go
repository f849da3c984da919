package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"coverserver/internal/analytics"
	"coverserver/internal/cover"
	"coverserver/internal/domain"
	"coverserver/internal/infra"
)

// App is the handler container: every HTTP handler hangs off it and shares
// the injected collaborators.
type App struct {
	Log        zerolog.Logger
	Generator  *cover.Orchestrator
	Aggregator *analytics.Aggregator
	Metrics    domain.MetricRepository
	Prom       *infra.PromMetrics
}

// NewApp wires the handler container.
func NewApp(log zerolog.Logger, generator *cover.Orchestrator, aggregator *analytics.Aggregator, metrics domain.MetricRepository, prom *infra.PromMetrics) *App {
	return &App{
		Log:        log,
		Generator:  generator,
		Aggregator: aggregator,
		Metrics:    metrics,
		Prom:       prom,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, message string) {
	a.json(w, code, map[string]string{"error": message})
}
