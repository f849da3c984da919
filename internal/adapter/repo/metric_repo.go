// Package repo contains the Postgres-backed persistence adapters.
package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"coverserver/internal/domain"
)

// DBTX is the slice of pgx used by the repositories. *pgxpool.Pool satisfies
// it; tests substitute stubs.
type DBTX interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
}

// MetricRepositoryPG implements domain.MetricRepository using PostgreSQL.
// The table is append-only; records are never updated or deleted.
type MetricRepositoryPG struct {
	db DBTX
}

// NewMetricRepository constructs the repository.
func NewMetricRepository(db DBTX) *MetricRepositoryPG {
	return &MetricRepositoryPG{db: db}
}

// EnsureSchema creates the metric_events table when it does not exist yet.
// Called once at startup; a failure here is a startup failure.
func (r *MetricRepositoryPG) EnsureSchema(ctx context.Context) error {
	statements := []string{`
CREATE TABLE IF NOT EXISTS metric_events (
    id                 uuid PRIMARY KEY,
    event              text NOT NULL,
    ts                 timestamptz NOT NULL,
    status             text,
    error_message      text,
    width              int,
    height             int,
    font               text,
    title_length       int,
    subtitle_length    int,
    contrast_ratio     double precision,
    wcag_level         text,
    duration_ms        double precision,
    client_duration_ms double precision,
    source             text,
    country            text,
    locale             text,
    created_at         timestamptz NOT NULL DEFAULT now()
);`,
		`CREATE INDEX IF NOT EXISTS idx_metric_events_ts ON metric_events (ts);`,
		`CREATE INDEX IF NOT EXISTS idx_metric_events_event ON metric_events (event, status);`,
	}
	for _, stmt := range statements {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("metric repo: ensure schema: %w", err)
		}
	}
	return nil
}

// Record appends one metric event.
func (r *MetricRepositoryPG) Record(ctx context.Context, rec *domain.MetricRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	var width, height *int
	if rec.Size != nil {
		width, height = &rec.Size.Width, &rec.Size.Height
	}
	_, err := r.db.Exec(ctx, `
INSERT INTO metric_events (
    id, event, ts, status, error_message,
    width, height, font, title_length, subtitle_length,
    contrast_ratio, wcag_level, duration_ms, client_duration_ms,
    source, country, locale
) VALUES (
    $1, $2, $3, nullif($4, ''), nullif($5, ''),
    $6, $7, nullif($8, ''), $9, $10,
    $11, nullif($12, ''), $13, $14,
    nullif($15, ''), nullif($16, ''), nullif($17, '')
);
`,
		rec.ID,
		rec.Event,
		rec.Timestamp,
		string(rec.Status),
		rec.ErrorMessage,
		width,
		height,
		rec.Font,
		rec.TitleLength,
		rec.SubtitleLength,
		rec.ContrastRatio,
		rec.WCAGLevel,
		rec.Duration,
		rec.ClientDuration,
		rec.Source,
		rec.Country,
		rec.Locale,
	)
	if err != nil {
		return fmt.Errorf("%w: insert event: %v", domain.ErrPersistence, err)
	}
	return nil
}

// Query returns records matching the filter, ordered by timestamp ascending.
func (r *MetricRepositoryPG) Query(ctx context.Context, filter domain.MetricFilter) ([]domain.MetricRecord, error) {
	query := `
SELECT id, event, ts, status, error_message,
       width, height, font, title_length, subtitle_length,
       contrast_ratio, wcag_level, duration_ms, client_duration_ms,
       source, country, locale
FROM metric_events`

	var conds []string
	var args []any
	if len(filter.Events) > 0 {
		args = append(args, filter.Events)
		conds = append(conds, fmt.Sprintf("event = ANY($%d)", len(args)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, statuses)
		conds = append(conds, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		conds = append(conds, fmt.Sprintf("ts >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		conds = append(conds, fmt.Sprintf("ts <= $%d", len(args)))
	}
	if len(conds) > 0 {
		query += "\nWHERE " + strings.Join(conds, " AND ")
	}
	query += "\nORDER BY ts ASC;"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query events: %v", domain.ErrPersistence, err)
	}
	defer rows.Close()

	var records []domain.MetricRecord
	for rows.Next() {
		var rec domain.MetricRecord
		var status, errMsg, font, level, source, country, locale *string
		var width, height, titleLen, subtitleLen *int
		var contrast *float64
		if err := rows.Scan(
			&rec.ID,
			&rec.Event,
			&rec.Timestamp,
			&status,
			&errMsg,
			&width,
			&height,
			&font,
			&titleLen,
			&subtitleLen,
			&contrast,
			&level,
			&rec.Duration,
			&rec.ClientDuration,
			&source,
			&country,
			&locale,
		); err != nil {
			return nil, fmt.Errorf("%w: scan event: %v", domain.ErrPersistence, err)
		}
		rec.Status = domain.Status(deref(status))
		rec.ErrorMessage = deref(errMsg)
		rec.Font = deref(font)
		rec.WCAGLevel = deref(level)
		rec.Source = deref(source)
		rec.Country = deref(country)
		rec.Locale = deref(locale)
		if width != nil && height != nil {
			rec.Size = &domain.Size{Width: *width, Height: *height}
		}
		if titleLen != nil {
			rec.TitleLength = *titleLen
		}
		if subtitleLen != nil {
			rec.SubtitleLength = *subtitleLen
		}
		if contrast != nil {
			rec.ContrastRatio = *contrast
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate events: %v", domain.ErrPersistence, err)
	}
	return records, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ domain.MetricRepository = (*MetricRepositoryPG)(nil)
