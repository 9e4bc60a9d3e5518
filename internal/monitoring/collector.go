package monitoring

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Counter names a recoverable data-quality condition tracked during a run.
// These conditions never abort the run; they are counted and surfaced in the
// end-of-run summary.
type Counter string

const (
	// CrosswalkGap counts area codes with no crosswalk entry after
	// corrections.
	CrosswalkGap Counter = "crosswalk_gap"
	// GeometryUnresolved counts records that failed to intersect any
	// canonical geometry.
	GeometryUnresolved Counter = "geometry_unresolved"
	// DroppedSite counts closure/brownfield sites dropped for invalid or
	// unresolvable coordinates.
	DroppedSite Counter = "dropped_site"
	// DegenerateRatio counts area-years excluded from threshold checks for
	// zero total employment.
	DegenerateRatio Counter = "degenerate_ratio"
	// SplitNonMSACounty counts counties the source reported in more than one
	// nonmetropolitan group (first occurrence kept).
	SplitNonMSACounty Counter = "split_non_msa_county"
	// FossilWithoutTotal counts area-years present in the fossil employment
	// sums with no matching total-employment row.
	FossilWithoutTotal Counter = "fossil_without_total"
	// AreaRatioOverflow counts counties whose qualifying-tract area exceeded
	// the county area, indicating duplicate tract attribution upstream.
	AreaRatioOverflow Counter = "area_ratio_overflow"
)

// Collector accumulates data-quality counters and orphaned area codes for a
// single run. Safe for concurrent use by per-year evaluator goroutines.
type Collector struct {
	mu      sync.Mutex
	started time.Time
	counts  map[Counter]int
	orphans map[string]struct{}
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		started: time.Now().UTC(),
		counts:  make(map[Counter]int),
		orphans: make(map[string]struct{}),
	}
}

// Inc increments a counter by one.
func (c *Collector) Inc(counter Counter) {
	c.Add(counter, 1)
}

// Add increments a counter by n.
func (c *Collector) Add(counter Counter, n int) {
	if c == nil || n == 0 {
		return
	}
	c.mu.Lock()
	c.counts[counter] += n
	c.mu.Unlock()
}

// Count returns the current value of a counter.
func (c *Collector) Count(counter Counter) int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[counter]
}

// RecordOrphan notes an area code that had no crosswalk entry after
// corrections and increments CrosswalkGap. Repeat sightings of the same code
// are collapsed in the orphan list but still counted.
func (c *Collector) RecordOrphan(code string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.counts[CrosswalkGap]++
	c.orphans[code] = struct{}{}
	c.mu.Unlock()
}

// Summary is a point-in-time view of the run's data-quality state.
type Summary struct {
	Counts      map[Counter]int `json:"counts"`
	OrphanCodes []string        `json:"orphan_codes"`
	StartedAt   time.Time       `json:"started_at"`
	CollectedAt time.Time       `json:"collected_at"`
}

// Snapshot returns a copy of the collector state.
func (c *Collector) Snapshot() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Summary{
		Counts:      make(map[Counter]int, len(c.counts)),
		StartedAt:   c.started,
		CollectedAt: time.Now().UTC(),
	}
	for k, v := range c.counts {
		s.Counts[k] = v
	}
	for code := range c.orphans {
		s.OrphanCodes = append(s.OrphanCodes, code)
	}
	sort.Strings(s.OrphanCodes)
	return s
}

// Log writes the summary through the global logger, warning when any
// crosswalk orphans were seen so stale crosswalk revisions are visible.
func (s Summary) Log() {
	log := zap.L().With(zap.String("component", "monitoring"))

	fields := make([]zap.Field, 0, len(s.Counts)+1)
	for counter, n := range s.Counts {
		fields = append(fields, zap.Int(string(counter), n))
	}
	log.Info("run data-quality summary", fields...)

	if len(s.OrphanCodes) > 0 {
		log.Warn("area codes missing from crosswalk after corrections",
			zap.Strings("codes", s.OrphanCodes),
		)
	}
}
