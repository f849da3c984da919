package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"coverserver/internal/domain"
	"coverserver/internal/middleware"
)

// flexTime accepts either epoch milliseconds or an RFC 3339 string, since
// both client generations are still in the wild.
type flexTime struct {
	time.Time
}

func (t *flexTime) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return err
		}
		t.Time = parsed
		return nil
	}
	millis, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	t.Time = time.UnixMilli(int64(millis)).UTC()
	return nil
}

type metricPayload struct {
	Event          string       `json:"event"`
	Timestamp      *flexTime    `json:"timestamp"`
	Status         string       `json:"status"`
	ErrorMessage   string       `json:"errorMessage"`
	Size           *domain.Size `json:"size"`
	Font           string       `json:"font"`
	TitleLength    int          `json:"titleLength"`
	SubtitleLength int          `json:"subtitleLength"`
	ContrastRatio  float64      `json:"contrastRatio"`
	WCAGLevel      string       `json:"wcagLevel"`
	Duration       *float64     `json:"duration"`
	ClientDuration *float64     `json:"clientDuration"`
}

// IngestMetric handles POST /metrics: one telemetry event from the client.
func (a *App) IngestMetric(w http.ResponseWriter, r *http.Request) {
	var payload metricPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if payload.Event == "" || payload.Timestamp == nil || payload.Timestamp.IsZero() {
		a.error(w, http.StatusBadRequest, "Missing required fields: event, timestamp")
		return
	}

	rec := &domain.MetricRecord{
		Event:          payload.Event,
		Timestamp:      payload.Timestamp.Time,
		Status:         domain.Status(payload.Status),
		ErrorMessage:   payload.ErrorMessage,
		Size:           payload.Size,
		Font:           payload.Font,
		TitleLength:    payload.TitleLength,
		SubtitleLength: payload.SubtitleLength,
		ContrastRatio:  payload.ContrastRatio,
		WCAGLevel:      payload.WCAGLevel,
		Duration:       payload.Duration,
		ClientDuration: payload.ClientDuration,
		Source:         middleware.SourceFromContext(r.Context()),
		Country:        middleware.CountryFromContext(r.Context()),
		Locale:         middleware.LocaleFromContext(r.Context()),
	}
	if err := a.Metrics.Record(r.Context(), rec); err != nil {
		a.Log.Error().Err(err).Str("event", rec.Event).Msg("failed to persist client metric")
		a.error(w, http.StatusInternalServerError, "Failed to process metrics")
		return
	}

	a.json(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"received":   true,
			"serverTime": time.Now().UTC().Format(time.RFC3339),
		},
	})
}
