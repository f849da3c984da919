package cover

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"coverserver/internal/domain"
	"coverserver/internal/infra"
)

// RequestMeta carries per-request context attached to emitted telemetry:
// where the request came from and, when resolvable, the caller's country.
type RequestMeta struct {
	Source  string
	Country string
}

// Outcome is the terminal state of one generation request. Exactly one of
// Errors (rejected), Err (render failure) or Image (success) is set.
type Outcome struct {
	Request    *Request
	Image      []byte
	DurationMS float64
	Errors     []FieldError
	Err        error
}

// Rejected reports whether validation stopped the request.
func (o *Outcome) Rejected() bool { return len(o.Errors) > 0 }

// Failed reports whether the renderer failed after validation passed.
func (o *Outcome) Failed() bool { return o.Err != nil }

// Orchestrator sequences one generation request: validation, rendering,
// telemetry, and outcome construction. Telemetry writes are best effort; a
// failed write is logged and never changes the outcome.
type Orchestrator struct {
	validator *Validator
	renderer  Renderer
	metrics   domain.MetricRepository
	prom      *infra.PromMetrics
	log       zerolog.Logger
	now       func() time.Time
}

// NewOrchestrator wires the generation pipeline. prom may be nil.
func NewOrchestrator(v *Validator, r Renderer, metrics domain.MetricRepository, prom *infra.PromMetrics, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		validator: v,
		renderer:  r,
		metrics:   metrics,
		prom:      prom,
		log:       log,
		now:       time.Now,
	}
}

// Generate runs one request through the pipeline. Query values take
// precedence over JSON body fields; a malformed body is ignored.
func (g *Orchestrator) Generate(ctx context.Context, query url.Values, body []byte, meta RequestMeta) *Outcome {
	params := MergeParams(query, body)

	req, fieldErrs := g.validator.Validate(params)
	if len(fieldErrs) > 0 {
		primary := fieldErrs[0]
		g.record(ctx, &domain.MetricRecord{
			Event:        domain.EventImageGenerated,
			Timestamp:    g.now(),
			Status:       domain.StatusValidationError,
			ErrorMessage: fmt.Sprintf("%s: %s", primary.Field, primary.Message),
			Source:       meta.Source,
			Country:      meta.Country,
		})
		g.count(string(domain.StatusValidationError))
		return &Outcome{Errors: fieldErrs}
	}

	start := g.now()
	image, err := g.renderer.Render(req)
	durationMS := float64(g.now().Sub(start)) / float64(time.Millisecond)

	if err != nil {
		g.log.Error().Err(err).Str("font", req.Font).Msg("cover render failed")
		g.record(ctx, &domain.MetricRecord{
			Event:        domain.EventImageGenerated,
			Timestamp:    g.now(),
			Status:       domain.StatusError,
			ErrorMessage: err.Error(),
			Source:       meta.Source,
			Country:      meta.Country,
		})
		g.count(string(domain.StatusError))
		return &Outcome{Request: req, Err: err}
	}

	g.record(ctx, &domain.MetricRecord{
		Event:          domain.EventImageGenerated,
		Timestamp:      g.now(),
		Status:         domain.StatusSuccess,
		Size:           &domain.Size{Width: req.Width, Height: req.Height},
		Font:           req.Font,
		TitleLength:    len([]rune(req.Title)),
		SubtitleLength: len([]rune(req.Subtitle)),
		ContrastRatio:  req.ContrastRatio,
		WCAGLevel:      string(req.Level),
		Duration:       &durationMS,
		Source:         meta.Source,
		Country:        meta.Country,
	})
	g.count(string(domain.StatusSuccess))
	if g.prom != nil {
		g.prom.RenderDuration.Observe(durationMS / 1000)
	}

	return &Outcome{Request: req, Image: image, DurationMS: durationMS}
}

// record persists one telemetry event. Store failures are downgraded to a
// log line so degraded telemetry never breaks the request path.
func (g *Orchestrator) record(ctx context.Context, rec *domain.MetricRecord) {
	if g.metrics == nil {
		return
	}
	if err := g.metrics.Record(ctx, rec); err != nil {
		g.log.Error().Err(err).Str("event", rec.Event).Str("status", string(rec.Status)).
			Msg("failed to persist metric record")
		if g.prom != nil {
			g.prom.MetricWritesTotal.WithLabelValues("error").Inc()
		}
		return
	}
	if g.prom != nil {
		g.prom.MetricWritesTotal.WithLabelValues("ok").Inc()
	}
}

func (g *Orchestrator) count(status string) {
	if g.prom != nil {
		g.prom.GenerationsTotal.WithLabelValues(status).Inc()
	}
}
