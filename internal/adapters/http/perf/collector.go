package perf

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRingSize is the default capacity of the ring buffer.
const DefaultRingSize = 4096

// Kind separates inbound requests, outbound calls to the activities backend, and SQL statements.
type Kind uint8

const (
	KindRequest Kind = iota
	KindUpstream
	KindQuery
)

// Sample is one timing record.
type Sample struct {
	Kind       Kind
	Label      string // "GET /ui/", "apiclient.Signup" or "INSERT participant"
	StatusCode int    // 0 when the upstream call never got a response
	DurationMs float64
	At         time.Time
}

// Collector keeps the most recent samples in a fixed ring.
// Writers never block on readers; aggregation only happens in Summary.
type Collector struct {
	mu      sync.Mutex
	ring    []Sample
	next    int
	written atomic.Int64
}

// NewCollector creates a collector holding up to size samples.
// PRE: size > 0, otherwise DefaultRingSize is used
// POST: Returns a ready-to-use collector
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{ring: make([]Sample, size)}
}

// Record stores s, overwriting the oldest sample when the ring is full.
// A nil Collector discards the sample.
func (c *Collector) Record(s Sample) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.ring[c.next] = s
	c.next = (c.next + 1) % len(c.ring)
	c.mu.Unlock()
	c.written.Add(1)
}

// Observe records a sample that started at start and ends now.
func (c *Collector) Observe(kind Kind, label string, statusCode int, start time.Time) {
	c.Record(Sample{
		Kind:       kind,
		Label:      label,
		StatusCode: statusCode,
		DurationMs: float64(time.Since(start).Microseconds()) / 1000.0,
		At:         start,
	})
}

// Written returns how many samples were ever recorded.
func (c *Collector) Written() int64 {
	if c == nil {
		return 0
	}
	return c.written.Load()
}

// LabelStat aggregates timing for one label.
type LabelStat struct {
	Label   string
	Count   int
	Errors  int
	AvgMs   float64
	MaxMs   float64
	TotalMs float64
}

// Summary is the aggregated view returned to diagnostics.
type Summary struct {
	Written         int64
	RequestP50Ms    float64
	RequestP95Ms    float64
	SlowestRequests []LabelStat
	SlowestUpstream []LabelStat
	SlowestQueries  []LabelStat
}

// Summary aggregates samples recorded at or after since, keeping topN labels per kind.
// PRE: topN > 0
// POST: Returns percentiles over requests and top-N label lists sorted by average duration
func (c *Collector) Summary(since time.Time, topN int) Summary {
	if c == nil {
		return Summary{}
	}
	c.mu.Lock()
	buf := make([]Sample, len(c.ring))
	copy(buf, c.ring)
	c.mu.Unlock()

	var durations []float64
	byKind := map[Kind]map[string]*LabelStat{
		KindRequest:  {},
		KindUpstream: {},
		KindQuery:    {},
	}
	for _, s := range buf {
		if s.At.IsZero() || s.At.Before(since) {
			continue
		}
		if s.Kind == KindRequest {
			durations = append(durations, s.DurationMs)
		}
		stats := byKind[s.Kind]
		if stats == nil {
			continue
		}
		st, ok := stats[s.Label]
		if !ok {
			st = &LabelStat{Label: s.Label}
			stats[s.Label] = st
		}
		st.Count++
		st.TotalMs += s.DurationMs
		st.MaxMs = math.Max(st.MaxMs, s.DurationMs)
		if s.Kind != KindQuery && (s.StatusCode == 0 || s.StatusCode >= 400) {
			st.Errors++
		}
	}

	sum := Summary{
		Written:         c.Written(),
		SlowestRequests: slowest(byKind[KindRequest], topN),
		SlowestUpstream: slowest(byKind[KindUpstream], topN),
		SlowestQueries:  slowest(byKind[KindQuery], topN),
	}
	if len(durations) > 0 {
		sort.Float64s(durations)
		sum.RequestP50Ms = percentile(durations, 50)
		sum.RequestP95Ms = percentile(durations, 95)
	}
	return sum
}

// percentile interpolates the p-th percentile of a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (p / 100) * float64(len(sorted)-1)
	lo, hi := int(math.Floor(idx)), int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func slowest(stats map[string]*LabelStat, n int) []LabelStat {
	list := make([]LabelStat, 0, len(stats))
	for _, s := range stats {
		s.AvgMs = s.TotalMs / float64(s.Count)
		list = append(list, *s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].AvgMs > list[j].AvgMs })
	if len(list) > n {
		list = list[:n]
	}
	return list
}
