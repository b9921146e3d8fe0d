// Package metrics collects in-memory statistics for one run.
package metrics

import (
	"math"
	"sort"
	"sync"
	"time"
)

// EngineMetrics holds aggregated attempt statistics for one engine.
type EngineMetrics struct {
	Attempts  int64
	Successes int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// EngineSnapshot provides computed stats for display.
type EngineSnapshot struct {
	Engine    string
	Attempts  int64
	Successes int64
	AvgTimeMs float64
	MinTimeMs int64
	MaxTimeMs int64
}

// Collector aggregates per-engine attempt statistics.
// All methods are safe for concurrent use.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	engines   map[string]*EngineMetrics
}

// NewCollector creates a new collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		engines:   make(map[string]*EngineMetrics),
	}
}

// getOrCreate returns existing metrics or creates new ones.
// Caller must hold write lock.
func (c *Collector) getOrCreate(engine string) *EngineMetrics {
	m, ok := c.engines[engine]
	if !ok {
		m = &EngineMetrics{MinTime: time.Duration(math.MaxInt64)}
		c.engines[engine] = m
	}
	return m
}

// RecordAttempt records one search-and-download attempt.
func (c *Collector) RecordAttempt(engine string, ok bool, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(engine)
	m.Attempts++
	if ok {
		m.Successes++
	}
	m.TotalTime += duration
	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// Elapsed returns the time since the collector was created.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

// Snapshot returns per-engine stats sorted by engine name.
func (c *Collector) Snapshot() []EngineSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]EngineSnapshot, 0, len(c.engines))
	for name, m := range c.engines {
		if m.Attempts == 0 {
			continue
		}
		out = append(out, EngineSnapshot{
			Engine:    name,
			Attempts:  m.Attempts,
			Successes: m.Successes,
			AvgTimeMs: float64(m.TotalTime.Milliseconds()) / float64(m.Attempts),
			MinTimeMs: m.MinTime.Milliseconds(),
			MaxTimeMs: m.MaxTime.Milliseconds(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Engine < out[j].Engine })
	return out
}
