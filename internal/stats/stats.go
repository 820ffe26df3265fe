// Package stats aggregates analysis throughput and latency for the API.
package stats

import (
	"sync/atomic"
	"time"
)

// Snapshot is the payload served by GET /api/stats.
type Snapshot struct {
	Documents  int64           `json:"documents" yaml:"documents"`
	Failures   int64           `json:"failures" yaml:"failures"`
	References int64           `json:"references" yaml:"references"`
	Parse      LatencySnapshot `json:"parse" yaml:"parse"`
	Analyze    LatencySnapshot `json:"analyze" yaml:"analyze"`
}

// Stats counts analysed documents and tracks per-phase latency.
type Stats struct {
	parse   *Latency
	analyze *Latency

	documents  atomic.Int64
	failures   atomic.Int64
	references atomic.Int64
}

func New(window time.Duration) *Stats {
	return &Stats{
		parse:   NewLatency(window),
		analyze: NewLatency(window),
	}
}

// RecordDocument records one successful analysis.
func (s *Stats) RecordDocument(parse, analyze time.Duration, references int) {
	s.documents.Add(1)
	s.references.Add(int64(references))
	s.parse.Record(parse)
	s.analyze.Record(analyze)
}

func (s *Stats) RecordFailure() {
	s.failures.Add(1)
}

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Documents:  s.documents.Load(),
		Failures:   s.failures.Load(),
		References: s.references.Load(),
		Parse:      s.parse.Snapshot(),
		Analyze:    s.analyze.Snapshot(),
	}
}
