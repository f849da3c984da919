package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event names recorded by the frontend and the generation pipeline. The event
// field stays an open string so new client events do not require a migration.
const (
	EventGenerateClick  = "generate_click"
	EventDownloadClick  = "download_click"
	EventImageGenerated = "image_generated"
)

// Status describes the outcome attached to a metric event.
type Status string

const (
	StatusSuccess         Status = "success"
	StatusError           Status = "error"
	StatusValidationError Status = "validation_error"
)

// Request sources distinguished for the engagement split.
const (
	SourceAPI = "api"
	SourceUI  = "ui"
)

// Size is the pixel dimensions of a generated cover.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// MetricRecord is one append-only telemetry event: a click, a generation
// outcome, or a download. Records are immutable once written and are never
// deleted. Optional numeric fields use pointers so "not measured" is
// distinguishable from zero; legacy records may carry zero title lengths or
// contrast ratios and are filtered out of most aggregates (see analytics).
type MetricRecord struct {
	ID             uuid.UUID `json:"id"`
	Event          string    `json:"event"`
	Timestamp      time.Time `json:"timestamp"`
	Status         Status    `json:"status,omitempty"`
	ErrorMessage   string    `json:"errorMessage,omitempty"`
	Size           *Size     `json:"size,omitempty"`
	Font           string    `json:"font,omitempty"`
	TitleLength    int       `json:"titleLength,omitempty"`
	SubtitleLength int       `json:"subtitleLength,omitempty"`
	ContrastRatio  float64   `json:"contrastRatio,omitempty"`
	WCAGLevel      string    `json:"wcagLevel,omitempty"`
	Duration       *float64  `json:"duration,omitempty"`       // server-side render time, ms
	ClientDuration *float64  `json:"clientDuration,omitempty"` // caller-observed round trip, ms
	Source         string    `json:"source,omitempty"`
	Country        string    `json:"country,omitempty"`
	Locale         string    `json:"locale,omitempty"`
}

// MetricFilter narrows a metric query. Zero times mean unbounded; empty
// slices mean no constraint on that field.
type MetricFilter struct {
	Events   []string
	Statuses []Status
	From     time.Time
	To       time.Time
}
