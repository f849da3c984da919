package domain

import "time"

// AnalyticsResult is the dashboard payload: four independent projections over
// the metric event set, recomputed on every read and never persisted.
type AnalyticsResult struct {
	Engagement    UserEngagement          `json:"engagement"`
	Features      FeaturePopularity       `json:"features"`
	Accessibility AccessibilityCompliance `json:"accessibility"`
	Performance   PerformanceMetrics      `json:"performance"`
	GeneratedAt   time.Time               `json:"generatedAt"`
}

// TrendPoint is one day of a count series. Date is formatted YYYY-MM-DD and
// series are sorted ascending by date.
type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// RatePoint is one bucket of a percentage series (e.g. subtitle adoption per
// ISO week).
type RatePoint struct {
	Bucket string  `json:"bucket"`
	Rate   float64 `json:"rate"`
}

// NamedCount is a grouped usage counter, e.g. one font or one size preset.
type NamedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// SummaryStats holds average, minimum and maximum over a numeric sample set.
type SummaryStats struct {
	Avg float64 `json:"avg"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DurationStats extends SummaryStats with nearest-rank percentiles.
type DurationStats struct {
	Avg float64 `json:"avg"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

// DurationPoint is one day of an average-duration series.
type DurationPoint struct {
	Date string  `json:"date"`
	Avg  float64 `json:"avg"`
}

// LevelPoint is one day of the WCAG compliance trend. Levels with no events
// on that day are absent from the map rather than zero.
type LevelPoint struct {
	Date   string         `json:"date"`
	Levels map[string]int `json:"levels"`
}

// SizeDurations is the render-time breakdown for one size preset.
type SizeDurations struct {
	Preset string  `json:"preset"`
	Count  int     `json:"count"`
	Avg    float64 `json:"avg"`
	P95    float64 `json:"p95"`
}

// UserEngagement counts user actions and their conversion into downloads.
type UserEngagement struct {
	TotalGenerations int            `json:"totalGenerations"`
	TotalSuccessful  int            `json:"totalSuccessful"`
	TotalDownloads   int            `json:"totalDownloads"`
	DownloadRate     float64        `json:"downloadRate"`
	SourceSplit      map[string]int `json:"sourceSplit"`
	Countries        map[string]int `json:"countries,omitempty"`
	DailyTrend       []TrendPoint   `json:"dailyTrend"`
	HourlyTrend      [24]int        `json:"hourlyTrend"`
}

// FeaturePopularity describes which fonts, sizes and text shapes users pick.
type FeaturePopularity struct {
	TopFonts              []NamedCount   `json:"topFonts"`
	TopSizes              []NamedCount   `json:"topSizes"`
	TitleLength           SummaryStats   `json:"titleLength"`
	TitleLengthBuckets    map[string]int `json:"titleLengthBuckets"`
	SubtitleUsagePct      float64        `json:"subtitleUsagePct"`
	SubtitleBuckets       map[string]int `json:"subtitleBuckets"`
	SubtitleAdoptionTrend []RatePoint    `json:"subtitleAdoptionTrend"`
}

// AccessibilityCompliance summarizes the WCAG outcomes of generated covers.
type AccessibilityCompliance struct {
	LevelDistribution map[string]int `json:"levelDistribution"`
	ContrastStats     SummaryStats   `json:"contrastStats"`
	DailyLevelTrend   []LevelPoint   `json:"dailyLevelTrend"`
}

// PerformanceMetrics summarizes render and round-trip timing.
type PerformanceMetrics struct {
	Backend           DurationStats   `json:"backend"`
	Client            DurationStats   `json:"client"`
	BackendTrend      []DurationPoint `json:"backendTrend"`
	ClientTrend       []DurationPoint `json:"clientTrend"`
	AvgNetworkLatency float64         `json:"avgNetworkLatency"`
	SizeBreakdown     []SizeDurations `json:"sizeBreakdown"`
}
