// Package analytics computes the dashboard projections from raw metric
// events: engagement, feature popularity, accessibility compliance, and
// performance. Results are recomputed on every read and never cached.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"coverserver/internal/domain"
	"coverserver/internal/wcag"
)

// TrendWindowDays bounds every trend series; lifetime totals stay unbounded.
const TrendWindowDays = 30

// Title and subtitle length bucket thresholds, in characters.
const (
	titleShortMax  = 15
	titleMediumMax = 30

	subtitleShortMax  = 20
	subtitleMediumMax = 45
)

const topFeatureCount = 10

// Aggregator reads the metric store and derives the analytics result. It
// never mutates records.
type Aggregator struct {
	metrics domain.MetricRepository
	log     zerolog.Logger
	now     func() time.Time
}

// NewAggregator constructs an Aggregator over the given store.
func NewAggregator(metrics domain.MetricRepository, log zerolog.Logger) *Aggregator {
	return &Aggregator{metrics: metrics, log: log, now: time.Now}
}

// Compute fetches the full record set once and derives the four result
// groups concurrently. Each group is an independent pure projection of the
// fetched snapshot.
func (a *Aggregator) Compute(ctx context.Context) (*domain.AnalyticsResult, error) {
	records, err := a.metrics.Query(ctx, domain.MetricFilter{})
	if err != nil {
		return nil, fmt.Errorf("analytics: query metrics: %w", err)
	}

	now := a.now().UTC()
	result := &domain.AnalyticsResult{GeneratedAt: now}

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		result.Engagement = a.engagement(records, now)
	}()
	go func() {
		defer wg.Done()
		result.Features = a.features(records)
	}()
	go func() {
		defer wg.Done()
		result.Accessibility = a.accessibility(records, now)
	}()
	go func() {
		defer wg.Done()
		result.Performance = a.performance(records, now)
	}()
	wg.Wait()

	a.log.Debug().Int("records", len(records)).Msg("analytics snapshot computed")
	return result, nil
}

// completeData reports whether a record carries meaningful generation data.
// Legacy records missing title length, contrast ratio, or a known WCAG level
// are excluded from feature, accessibility, and text-shape aggregates; raw
// click counts are not subject to this filter.
func completeData(r *domain.MetricRecord) bool {
	return r.TitleLength > 0 && r.ContrastRatio > 0 && wcag.ValidLevel(r.WCAGLevel)
}

func isSuccessfulGeneration(r *domain.MetricRecord) bool {
	return r.Event == domain.EventImageGenerated && r.Status == domain.StatusSuccess
}

func (a *Aggregator) engagement(records []domain.MetricRecord, now time.Time) domain.UserEngagement {
	windowStart := now.AddDate(0, 0, -TrendWindowDays)

	eng := domain.UserEngagement{
		SourceSplit: map[string]int{},
		Countries:   map[string]int{},
	}
	daily := map[string]int{}

	for i := range records {
		r := &records[i]
		switch {
		case r.Event == domain.EventGenerateClick && completeData(r):
			eng.TotalGenerations++
		case r.Event == domain.EventDownloadClick:
			eng.TotalDownloads++
		case isSuccessfulGeneration(r):
			eng.TotalSuccessful++
			if r.Source != "" {
				eng.SourceSplit[r.Source]++
			}
			if r.Country != "" {
				eng.Countries[r.Country]++
			}
			if !r.Timestamp.Before(windowStart) {
				daily[r.Timestamp.UTC().Format("2006-01-02")]++
				eng.HourlyTrend[r.Timestamp.UTC().Hour()]++
			}
		}
	}

	// downloadRate uses successful generations as the denominator.
	eng.DownloadRate = ratio(eng.TotalDownloads, eng.TotalSuccessful)
	eng.DailyTrend = sortedTrend(daily)
	if len(eng.Countries) == 0 {
		eng.Countries = nil
	}
	return eng
}

func (a *Aggregator) features(records []domain.MetricRecord) domain.FeaturePopularity {
	var usable []domain.MetricRecord
	for i := range records {
		if isSuccessfulGeneration(&records[i]) && completeData(&records[i]) {
			usable = append(usable, records[i])
		}
	}

	fonts := countBy(usable, func(r *domain.MetricRecord) (string, bool) {
		return r.Font, r.Font != ""
	})
	sizes := countBy(usable, func(r *domain.MetricRecord) (string, bool) {
		if r.Size == nil {
			return "", false
		}
		return sizePreset(r.Size), true
	})

	feat := domain.FeaturePopularity{
		TopFonts:           fonts.top(topFeatureCount),
		TopSizes:           sizes.top(topFeatureCount),
		TitleLengthBuckets: map[string]int{},
		SubtitleBuckets:    map[string]int{},
	}

	var titleLengths []float64
	withSubtitle := 0
	weekTotals := map[string]int{}
	weekWithSubtitle := map[string]int{}

	for i := range usable {
		r := &usable[i]
		titleLengths = append(titleLengths, float64(r.TitleLength))
		feat.TitleLengthBuckets[lengthBucket(r.TitleLength, titleShortMax, titleMediumMax)]++

		week := isoWeek(r.Timestamp)
		weekTotals[week]++
		if r.SubtitleLength > 0 {
			withSubtitle++
			weekWithSubtitle[week]++
			feat.SubtitleBuckets[lengthBucket(r.SubtitleLength, subtitleShortMax, subtitleMediumMax)]++
		} else {
			feat.SubtitleBuckets["none"]++
		}
	}

	feat.TitleLength = summarize(titleLengths)
	feat.SubtitleUsagePct = ratio(withSubtitle, len(usable))

	weeks := make([]string, 0, len(weekTotals))
	for week := range weekTotals {
		weeks = append(weeks, week)
	}
	sort.Strings(weeks)
	for _, week := range weeks {
		feat.SubtitleAdoptionTrend = append(feat.SubtitleAdoptionTrend, domain.RatePoint{
			Bucket: week,
			Rate:   ratio(weekWithSubtitle[week], weekTotals[week]),
		})
	}
	return feat
}

func (a *Aggregator) accessibility(records []domain.MetricRecord, now time.Time) domain.AccessibilityCompliance {
	windowStart := now.AddDate(0, 0, -TrendWindowDays)

	acc := domain.AccessibilityCompliance{LevelDistribution: map[string]int{}}
	var ratios []float64
	dailyLevels := map[string]map[string]int{}

	for i := range records {
		r := &records[i]
		if !isSuccessfulGeneration(r) || !completeData(r) {
			continue
		}
		acc.LevelDistribution[r.WCAGLevel]++
		ratios = append(ratios, r.ContrastRatio)

		if !r.Timestamp.Before(windowStart) {
			date := r.Timestamp.UTC().Format("2006-01-02")
			if dailyLevels[date] == nil {
				dailyLevels[date] = map[string]int{}
			}
			// Levels absent on a date stay absent from the map.
			dailyLevels[date][r.WCAGLevel]++
		}
	}

	acc.ContrastStats = summarize(ratios)

	dates := make([]string, 0, len(dailyLevels))
	for date := range dailyLevels {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	for _, date := range dates {
		acc.DailyLevelTrend = append(acc.DailyLevelTrend, domain.LevelPoint{
			Date:   date,
			Levels: dailyLevels[date],
		})
	}
	return acc
}

func (a *Aggregator) performance(records []domain.MetricRecord, now time.Time) domain.PerformanceMetrics {
	windowStart := now.AddDate(0, 0, -TrendWindowDays)

	var backend, client, latencies []float64
	backendDaily := map[string][]float64{}
	clientDaily := map[string][]float64{}
	sizeDurations := map[string][]float64{}
	sizeOrder := newGrouped()

	for i := range records {
		r := &records[i]
		if !isSuccessfulGeneration(r) {
			continue
		}
		date := r.Timestamp.UTC().Format("2006-01-02")
		inWindow := !r.Timestamp.Before(windowStart)

		if r.Duration != nil {
			backend = append(backend, *r.Duration)
			if inWindow {
				backendDaily[date] = append(backendDaily[date], *r.Duration)
			}
			if r.Size != nil {
				preset := sizePreset(r.Size)
				sizeOrder.add(preset)
				sizeDurations[preset] = append(sizeDurations[preset], *r.Duration)
			}
		}
		if r.ClientDuration != nil {
			client = append(client, *r.ClientDuration)
			if inWindow {
				clientDaily[date] = append(clientDaily[date], *r.ClientDuration)
			}
		}
		// Latency is derived per record, clamped at zero, then averaged.
		if r.Duration != nil && r.ClientDuration != nil {
			latency := *r.ClientDuration - *r.Duration
			if latency < 0 {
				latency = 0
			}
			latencies = append(latencies, latency)
		}
	}

	perf := domain.PerformanceMetrics{
		Backend:      durationStats(backend),
		Client:       durationStats(client),
		BackendTrend: dailyAverages(backendDaily),
		ClientTrend:  dailyAverages(clientDaily),
	}
	if len(latencies) > 0 {
		perf.AvgNetworkLatency = summarize(latencies).Avg
	}

	for _, entry := range sizeOrder.top(0) {
		samples := sizeDurations[entry.Name]
		sorted := append([]float64(nil), samples...)
		sort.Float64s(sorted)
		perf.SizeBreakdown = append(perf.SizeBreakdown, domain.SizeDurations{
			Preset: entry.Name,
			Count:  len(samples),
			Avg:    summarize(samples).Avg,
			P95:    percentile(sorted, 95),
		})
	}
	return perf
}

func sizePreset(s *domain.Size) string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

func lengthBucket(n, shortMax, mediumMax int) string {
	switch {
	case n <= shortMax:
		return "short"
	case n <= mediumMax:
		return "medium"
	default:
		return "long"
	}
}

func isoWeek(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func sortedTrend(daily map[string]int) []domain.TrendPoint {
	dates := make([]string, 0, len(daily))
	for date := range daily {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	out := make([]domain.TrendPoint, 0, len(dates))
	for _, date := range dates {
		out = append(out, domain.TrendPoint{Date: date, Count: daily[date]})
	}
	return out
}

func dailyAverages(daily map[string][]float64) []domain.DurationPoint {
	dates := make([]string, 0, len(daily))
	for date := range daily {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	out := make([]domain.DurationPoint, 0, len(dates))
	for _, date := range dates {
		out = append(out, domain.DurationPoint{Date: date, Avg: summarize(daily[date]).Avg})
	}
	return out
}
