package repo

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"coverserver/internal/domain"
)

type execCall struct {
	query string
	args  []any
}

type stubDB struct {
	execs   []execCall
	execErr error

	queryStr  string
	queryArgs []any
	rows      pgx.Rows
	queryErr  error
}

func (s *stubDB) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.execs = append(s.execs, execCall{query: query, args: args})
	return pgconn.CommandTag{}, s.execErr
}

func (s *stubDB) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	s.queryStr = query
	s.queryArgs = args
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return s.rows, nil
}

func (s *stubDB) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	return nil
}

// fakeRows replays pre-baked scan rows through the pgx.Rows interface.
type fakeRows struct {
	rows [][]any
	idx  int
}

func (f *fakeRows) Close()                                       {}
func (f *fakeRows) Err() error                                   { return nil }
func (f *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (f *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (f *fakeRows) Next() bool {
	if f.idx >= len(f.rows) {
		return false
	}
	f.idx++
	return true
}

func (f *fakeRows) Scan(dest ...any) error {
	row := f.rows[f.idx-1]
	for i, src := range row {
		if i >= len(dest) {
			break
		}
		assign(dest[i], src)
	}
	return nil
}

func (f *fakeRows) Values() ([]any, error) { return nil, nil }
func (f *fakeRows) RawValues() [][]byte    { return nil }
func (f *fakeRows) Conn() *pgx.Conn        { return nil }

func assign(dest, src any) {
	switch d := dest.(type) {
	case *uuid.UUID:
		if v, ok := src.(uuid.UUID); ok {
			*d = v
		}
	case *string:
		if v, ok := src.(string); ok {
			*d = v
		}
	case *time.Time:
		if v, ok := src.(time.Time); ok {
			*d = v
		}
	case **string:
		if v, ok := src.(string); ok {
			*d = &v
		} else {
			*d = nil
		}
	case **int:
		if v, ok := src.(int); ok {
			*d = &v
		} else {
			*d = nil
		}
	case **float64:
		if v, ok := src.(float64); ok {
			*d = &v
		} else {
			*d = nil
		}
	}
}

func TestRecordAssignsIDAndInserts(t *testing.T) {
	db := &stubDB{}
	r := NewMetricRepository(db)

	dur := 42.5
	rec := &domain.MetricRecord{
		Event:     domain.EventImageGenerated,
		Timestamp: time.Now(),
		Status:    domain.StatusSuccess,
		Size:      &domain.Size{Width: 800, Height: 600},
		Font:      "Inter",
		Duration:  &dur,
	}
	if err := r.Record(context.Background(), rec); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if rec.ID == uuid.Nil {
		t.Fatal("Record did not assign an ID")
	}
	if len(db.execs) != 1 {
		t.Fatalf("exec count = %d, want 1", len(db.execs))
	}
	call := db.execs[0]
	if !strings.Contains(call.query, "INSERT INTO metric_events") {
		t.Fatalf("unexpected query: %s", call.query)
	}
	if len(call.args) != 17 {
		t.Fatalf("arg count = %d, want 17", len(call.args))
	}
	if w, ok := call.args[5].(*int); !ok || w == nil || *w != 800 {
		t.Fatalf("width arg = %#v", call.args[5])
	}
}

func TestRecordNilSizeInsertsNullDimensions(t *testing.T) {
	db := &stubDB{}
	r := NewMetricRepository(db)
	rec := &domain.MetricRecord{Event: domain.EventDownloadClick, Timestamp: time.Now()}
	if err := r.Record(context.Background(), rec); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if w, ok := db.execs[0].args[5].(*int); !ok || w != nil {
		t.Fatalf("width arg = %#v, want nil *int", db.execs[0].args[5])
	}
}

func TestQueryBuildsFilterClauses(t *testing.T) {
	db := &stubDB{rows: &fakeRows{}}
	r := NewMetricRepository(db)

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	_, err := r.Query(context.Background(), domain.MetricFilter{
		Events:   []string{domain.EventImageGenerated},
		Statuses: []domain.Status{domain.StatusSuccess},
		From:     from,
	})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	for _, clause := range []string{"event = ANY($1)", "status = ANY($2)", "ts >= $3", "ORDER BY ts ASC"} {
		if !strings.Contains(db.queryStr, clause) {
			t.Fatalf("query missing %q:\n%s", clause, db.queryStr)
		}
	}
	if len(db.queryArgs) != 3 {
		t.Fatalf("arg count = %d, want 3", len(db.queryArgs))
	}
}

func TestQueryUnfilteredHasNoWhere(t *testing.T) {
	db := &stubDB{rows: &fakeRows{}}
	r := NewMetricRepository(db)
	if _, err := r.Query(context.Background(), domain.MetricFilter{}); err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if strings.Contains(db.queryStr, "WHERE") {
		t.Fatalf("unfiltered query has WHERE clause:\n%s", db.queryStr)
	}
}

func TestQueryScansOptionalColumns(t *testing.T) {
	id := uuid.New()
	ts := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	db := &stubDB{rows: &fakeRows{rows: [][]any{
		{id, domain.EventImageGenerated, ts, "success", nil,
			800, 600, "Inter", 12, 0,
			8.4, "AAA", 55.0, 90.0,
			"ui", "NL", "en"},
		{uuid.New(), domain.EventDownloadClick, ts, nil, nil,
			nil, nil, nil, nil, nil,
			nil, nil, nil, nil,
			nil, nil, nil},
	}}}
	r := NewMetricRepository(db)

	records, err := r.Query(context.Background(), domain.MetricFilter{})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("record count = %d, want 2", len(records))
	}
	full := records[0]
	if full.ID != id || full.Status != domain.StatusSuccess || full.Font != "Inter" {
		t.Fatalf("full record mismatch: %+v", full)
	}
	if full.Size == nil || full.Size.Width != 800 {
		t.Fatalf("size not mapped: %+v", full.Size)
	}
	if full.Duration == nil || *full.Duration != 55.0 {
		t.Fatalf("duration not mapped: %v", full.Duration)
	}
	if full.Country != "NL" {
		t.Fatalf("country not mapped: %q", full.Country)
	}
	if full.Locale != "en" {
		t.Fatalf("locale not mapped: %q", full.Locale)
	}
	sparse := records[1]
	if sparse.Size != nil || sparse.Duration != nil || sparse.Font != "" {
		t.Fatalf("sparse record carries phantom fields: %+v", sparse)
	}
}
