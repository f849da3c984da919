package analytics

import (
	"math"
	"sort"

	"coverserver/internal/domain"
)

// grouped counts values by key while remembering first-seen order, so that
// rankings break count ties deterministically.
type grouped struct {
	counts map[string]int
	order  []string
}

func newGrouped() *grouped {
	return &grouped{counts: map[string]int{}}
}

func (g *grouped) add(key string) {
	if _, seen := g.counts[key]; !seen {
		g.order = append(g.order, key)
	}
	g.counts[key]++
}

// top returns up to n entries sorted by count descending. Ties keep
// first-seen order (stable sort over the insertion order).
func (g *grouped) top(n int) []domain.NamedCount {
	out := make([]domain.NamedCount, 0, len(g.order))
	for _, key := range g.order {
		out = append(out, domain.NamedCount{Name: key, Count: g.counts[key]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// countBy groups records by a key function; records for which the key
// reports ok=false are skipped.
func countBy(records []domain.MetricRecord, key func(*domain.MetricRecord) (string, bool)) *grouped {
	g := newGrouped()
	for i := range records {
		if k, ok := key(&records[i]); ok {
			g.add(k)
		}
	}
	return g
}

// percentile returns the p-th percentile of samples using the nearest-rank
// method: the value at index ceil(p/100*n)-1 of the ascending-sorted samples.
// The samples slice must already be sorted ascending.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(n))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}

// summarize computes avg/min/max over samples; all zero for an empty set.
func summarize(samples []float64) domain.SummaryStats {
	if len(samples) == 0 {
		return domain.SummaryStats{}
	}
	min, max, sum := samples[0], samples[0], 0.0
	for _, v := range samples {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	return domain.SummaryStats{
		Avg: round2(sum / float64(len(samples))),
		Min: min,
		Max: max,
	}
}

// durationStats extends summarize with nearest-rank p50/p95/p99.
func durationStats(samples []float64) domain.DurationStats {
	base := summarize(samples)
	stats := domain.DurationStats{Avg: base.Avg, Min: base.Min, Max: base.Max}
	if len(samples) == 0 {
		return stats
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	stats.P50 = percentile(sorted, 50)
	stats.P95 = percentile(sorted, 95)
	stats.P99 = percentile(sorted, 99)
	return stats
}

// ratio returns part/whole as a percentage, 0 when whole is 0.
func ratio(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round2(float64(part) / float64(whole) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
