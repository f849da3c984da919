package cover

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"coverserver/internal/domain"
)

type stubRenderer struct {
	calls int
	image []byte
	err   error
}

func (r *stubRenderer) Render(req *Request) ([]byte, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.image, nil
}

type stubMetricRepo struct {
	mu      sync.Mutex
	records []domain.MetricRecord
	err     error
}

func (s *stubMetricRepo) Record(ctx context.Context, rec *domain.MetricRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, *rec)
	return nil
}

func (s *stubMetricRepo) Query(ctx context.Context, filter domain.MetricFilter) ([]domain.MetricRecord, error) {
	return nil, errors.New("not implemented")
}

func validQuery() url.Values {
	return url.Values{
		"width":           {"800"},
		"height":          {"600"},
		"title":           {"Launch Day"},
		"subtitle":        {"Details inside"},
		"font":            {"Inter"},
		"backgroundColor": {"#000000"},
		"textColor":       {"#ffffff"},
	}
}

func newTestOrchestrator(r Renderer, repo domain.MetricRepository) *Orchestrator {
	return NewOrchestrator(NewValidator(ValidatorOptions{}), r, repo, nil, zerolog.Nop())
}

func TestGenerateSuccessEmitsOneSuccessRecord(t *testing.T) {
	renderer := &stubRenderer{image: []byte("png-bytes")}
	repo := &stubMetricRepo{}
	g := newTestOrchestrator(renderer, repo)

	out := g.Generate(context.Background(), validQuery(), nil, RequestMeta{Source: domain.SourceAPI})
	if out.Rejected() || out.Failed() {
		t.Fatalf("unexpected outcome: errors=%v err=%v", out.Errors, out.Err)
	}
	if string(out.Image) != "png-bytes" {
		t.Fatalf("image payload mismatch")
	}
	if out.DurationMS < 0 {
		t.Fatalf("duration = %v, want >= 0", out.DurationMS)
	}

	if len(repo.records) != 1 {
		t.Fatalf("record count = %d, want 1", len(repo.records))
	}
	rec := repo.records[0]
	if rec.Status != domain.StatusSuccess {
		t.Fatalf("status = %s, want success", rec.Status)
	}
	if rec.Size == nil || rec.Size.Width != 800 || rec.Size.Height != 600 {
		t.Fatalf("size mismatch: %+v", rec.Size)
	}
	if rec.Font != "Inter" {
		t.Fatalf("font mismatch: %q", rec.Font)
	}
	if rec.TitleLength != len("Launch Day") {
		t.Fatalf("title length = %d", rec.TitleLength)
	}
	if rec.Duration == nil || *rec.Duration < 0 {
		t.Fatalf("duration missing or negative: %v", rec.Duration)
	}
	if rec.WCAGLevel != "AAA" {
		t.Fatalf("wcag level = %q", rec.WCAGLevel)
	}
	if rec.Source != domain.SourceAPI {
		t.Fatalf("source = %q", rec.Source)
	}
}

func TestGenerateRejectionSkipsRendererAndRecordsValidationError(t *testing.T) {
	renderer := &stubRenderer{image: []byte("png-bytes")}
	repo := &stubMetricRepo{}
	g := newTestOrchestrator(renderer, repo)

	query := validQuery()
	query.Set("backgroundColor", "#ffffff")
	query.Set("textColor", "#ffff00")

	out := g.Generate(context.Background(), query, nil, RequestMeta{})
	if !out.Rejected() {
		t.Fatal("low-contrast request not rejected")
	}
	if renderer.calls != 0 {
		t.Fatalf("renderer called %d times for rejected request", renderer.calls)
	}
	if len(repo.records) != 1 {
		t.Fatalf("record count = %d, want 1", len(repo.records))
	}
	rec := repo.records[0]
	if rec.Status != domain.StatusValidationError {
		t.Fatalf("status = %s, want validation_error", rec.Status)
	}
	if rec.ErrorMessage == "" {
		t.Fatal("validation record missing error message")
	}
}

func TestGenerateRenderFailureRecordsError(t *testing.T) {
	renderer := &stubRenderer{err: errors.New("font cache corrupted")}
	repo := &stubMetricRepo{}
	g := newTestOrchestrator(renderer, repo)

	out := g.Generate(context.Background(), validQuery(), nil, RequestMeta{})
	if !out.Failed() {
		t.Fatal("render failure not surfaced")
	}
	if len(repo.records) != 1 {
		t.Fatalf("record count = %d, want 1", len(repo.records))
	}
	rec := repo.records[0]
	if rec.Status != domain.StatusError {
		t.Fatalf("status = %s, want error", rec.Status)
	}
	if rec.ErrorMessage != "font cache corrupted" {
		t.Fatalf("error message = %q", rec.ErrorMessage)
	}
}

func TestGenerateMetricWriteFailureDoesNotChangeOutcome(t *testing.T) {
	renderer := &stubRenderer{image: []byte("png-bytes")}
	repo := &stubMetricRepo{err: errors.New("connection refused")}
	g := newTestOrchestrator(renderer, repo)

	out := g.Generate(context.Background(), validQuery(), nil, RequestMeta{})
	if out.Rejected() || out.Failed() {
		t.Fatalf("metric write failure altered outcome: errors=%v err=%v", out.Errors, out.Err)
	}
	if string(out.Image) != "png-bytes" {
		t.Fatal("image payload lost")
	}
}

func TestGenerateRejectionSurvivesMetricWriteFailure(t *testing.T) {
	renderer := &stubRenderer{image: []byte("png-bytes")}
	repo := &stubMetricRepo{err: errors.New("connection refused")}
	g := newTestOrchestrator(renderer, repo)

	query := validQuery()
	query.Set("width", "5000")

	out := g.Generate(context.Background(), query, nil, RequestMeta{})
	if !out.Rejected() {
		t.Fatal("invalid request not rejected")
	}
	if out.Failed() {
		t.Fatalf("metric write failure escalated a rejection: %v", out.Err)
	}
}

func TestGenerateBodyParamsUsedWhenQueryAbsent(t *testing.T) {
	renderer := &stubRenderer{image: []byte("png-bytes")}
	repo := &stubMetricRepo{}
	g := newTestOrchestrator(renderer, repo)

	body := []byte(`{"width":300,"height":250,"title":"Body Only","font":"Roboto","backgroundColor":"#000","textColor":"#fff"}`)
	out := g.Generate(context.Background(), url.Values{}, body, RequestMeta{})
	if out.Rejected() {
		t.Fatalf("body-only request rejected: %v", out.Errors)
	}
	if out.Request.Width != 300 || out.Request.Title != "Body Only" {
		t.Fatalf("body fields not applied: %+v", out.Request)
	}
}
