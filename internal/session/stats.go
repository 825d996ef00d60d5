package session

import (
	"sort"
	"sync"
	"time"

	"github.com/dgallion1/papernav/internal/paper"
)

type sample struct {
	timestamp  time.Time
	durationUs int64
}

// StatsSnapshot is a point-in-time aggregate of intent dispatches.
type StatsSnapshot struct {
	Reads    int64 `json:"reads"`
	Writes   int64 `json:"writes"`
	Metas    int64 `json:"metas"`
	Failures int64 `json:"failures"`

	Count int     `json:"count"`
	MinUs int64   `json:"min_us"`
	MaxUs int64   `json:"max_us"`
	AvgUs float64 `json:"avg_us"`
	P50Us float64 `json:"p50_us"`
	P95Us float64 `json:"p95_us"`
	P99Us float64 `json:"p99_us"`
}

// IntentStats tracks dispatch outcomes. Latency percentiles cover a
// rolling window; the per-kind counters are lifetime totals.
type IntentStats struct {
	mu      sync.Mutex
	samples []sample
	maxAge  time.Duration

	reads    int64
	writes   int64
	metas    int64
	failures int64
}

func NewIntentStats(maxAge time.Duration) *IntentStats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &IntentStats{
		samples: make([]sample, 0, 256),
		maxAge:  maxAge,
	}
}

// Record adds one dispatch outcome.
func (s *IntentStats) Record(in paper.Intent, d time.Duration, err error) {
	us := d.Microseconds()
	if us < 0 {
		us = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	switch in.(type) {
	case paper.Read:
		s.reads++
	case paper.Write:
		s.writes++
	case paper.Meta:
		s.metas++
	}
	if err != nil {
		s.failures++
	}

	s.pruneLocked(now)
	s.samples = append(s.samples, sample{timestamp: now, durationUs: us})
}

func (s *IntentStats) Snapshot() StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StatsSnapshot{
		Reads:    s.reads,
		Writes:   s.writes,
		Metas:    s.metas,
		Failures: s.failures,
	}

	s.pruneLocked(now)
	if len(s.samples) == 0 {
		return snap
	}

	values := make([]int64, 0, len(s.samples))
	var sum int64
	for _, sm := range s.samples {
		values = append(values, sm.durationUs)
		sum += sm.durationUs
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	snap.Count = len(values)
	snap.MinUs = values[0]
	snap.MaxUs = values[len(values)-1]
	snap.AvgUs = float64(sum) / float64(len(values))
	snap.P50Us = percentile(values, 50)
	snap.P95Us = percentile(values, 95)
	snap.P99Us = percentile(values, 99)
	return snap
}

func (s *IntentStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	writeIdx := 0
	for _, sm := range s.samples {
		if !sm.timestamp.Before(cutoff) {
			s.samples[writeIdx] = sm
			writeIdx++
		}
	}
	s.samples = s.samples[:writeIdx]
}

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
