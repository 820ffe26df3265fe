package stats

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	timestamp time.Time
	micros    int64
}

// LatencySnapshot is a point-in-time aggregate of latency samples, in milliseconds.
type LatencySnapshot struct {
	Count int     `json:"count" yaml:"count"`
	MinMs float64 `json:"min_ms" yaml:"min_ms"`
	MaxMs float64 `json:"max_ms" yaml:"max_ms"`
	AvgMs float64 `json:"avg_ms" yaml:"avg_ms"`
	P50Ms float64 `json:"p50_ms" yaml:"p50_ms"`
	P95Ms float64 `json:"p95_ms" yaml:"p95_ms"`
	P99Ms float64 `json:"p99_ms" yaml:"p99_ms"`
}

// Latency tracks recent durations within a rolling window. Samples are kept
// at microsecond resolution since a text analysis often finishes in under a
// millisecond.
type Latency struct {
	mu      sync.Mutex
	samples []sample
	maxAge  time.Duration
}

func NewLatency(maxAge time.Duration) *Latency {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Latency{
		samples: make([]sample, 0, 256),
		maxAge:  maxAge,
	}
}

func (l *Latency) Record(d time.Duration) {
	if d < 0 {
		d = 0
	}
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked(now)
	l.samples = append(l.samples, sample{
		timestamp: now,
		micros:    d.Microseconds(),
	})
}

func (l *Latency) Snapshot() LatencySnapshot {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked(now)
	if len(l.samples) == 0 {
		return LatencySnapshot{}
	}

	values := make([]int64, 0, len(l.samples))
	var sum int64
	for _, sm := range l.samples {
		values = append(values, sm.micros)
		sum += sm.micros
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	return LatencySnapshot{
		Count: len(values),
		MinMs: toMs(float64(values[0])),
		MaxMs: toMs(float64(values[len(values)-1])),
		AvgMs: toMs(float64(sum) / float64(len(values))),
		P50Ms: toMs(percentile(values, 50)),
		P95Ms: toMs(percentile(values, 95)),
		P99Ms: toMs(percentile(values, 99)),
	}
}

func (l *Latency) pruneLocked(now time.Time) {
	cutoff := now.Add(-l.maxAge)
	writeIdx := 0
	for _, sm := range l.samples {
		if !sm.timestamp.Before(cutoff) {
			l.samples[writeIdx] = sm
			writeIdx++
		}
	}
	l.samples = l.samples[:writeIdx]
}

func toMs(micros float64) float64 {
	return micros / 1000.0
}

// percentile interpolates linearly between the two nearest ranks.
func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
