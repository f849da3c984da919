package handlers

import "net/http"

// GetAnalytics handles GET /analytics: the dashboard payload, recomputed on
// every call.
func (a *App) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	result, err := a.Aggregator.Compute(r.Context())
	if err != nil {
		a.Log.Error().Err(err).Msg("analytics aggregation failed")
		if a.Prom != nil {
			a.Prom.AnalyticsQueriesTotal.WithLabelValues("error").Inc()
		}
		a.json(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "Failed to fetch analytics",
		})
		return
	}
	if a.Prom != nil {
		a.Prom.AnalyticsQueriesTotal.WithLabelValues("ok").Inc()
	}
	a.json(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    result,
	})
}
