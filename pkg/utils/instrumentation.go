package utils

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// Timer accumulates named durations across goroutines. Each measurement is
// also counted in a private Prometheus registry so the report can be written
// in exposition format. A nil *Timer is valid and measures nothing.
type Timer struct {
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]*timerEntry

	registry *prometheus.Registry
	seconds  *prometheus.CounterVec
	runs     *prometheus.CounterVec
}

type timerEntry struct {
	count atomic.Int64
	nanos atomic.Int64
}

// TimerStat is the accumulated value of one named timer
type TimerStat struct {
	Name  string
	Count int64
	Total time.Duration
}

// Average returns the mean duration per measurement
func (s TimerStat) Average() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// NewTimer creates an empty timer
func NewTimer(logger *slog.Logger) *Timer {
	if logger == nil {
		logger = slog.Default()
	}
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Timer{
		logger:   logger,
		entries:  make(map[string]*timerEntry),
		registry: registry,
		seconds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "callgraph",
			Name:      "phase_seconds_total",
			Help:      "Accumulated wall time per analysis phase",
		}, []string{"phase"}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "callgraph",
			Name:      "phase_runs_total",
			Help:      "Number of times each analysis phase ran",
		}, []string{"phase"}),
	}
}

// Measure runs operation and records its duration under name
func (t *Timer) Measure(name string, operation func() error) error {
	if t == nil {
		return operation()
	}
	start := time.Now()
	t.logger.Debug("Starting operation", "operation", name)

	err := operation()
	duration := time.Since(start)
	t.Record(name, duration)

	if err != nil {
		t.logger.Error("Operation failed", "operation", name, "duration_seconds", duration.Seconds(), "error", err)
	} else {
		t.logger.Debug("Operation completed", "operation", name, "duration_seconds", duration.Seconds())
	}
	return err
}

// Record adds one measurement of d to the named timer
func (t *Timer) Record(name string, d time.Duration) {
	if t == nil {
		return
	}
	e := t.entry(name)
	e.count.Add(1)
	e.nanos.Add(int64(d))
	t.seconds.WithLabelValues(name).Add(d.Seconds())
	t.runs.WithLabelValues(name).Inc()
}

func (t *Timer) entry(name string) *timerEntry {
	t.mu.RLock()
	e, ok := t.entries[name]
	t.mu.RUnlock()
	if ok {
		return e
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok = t.entries[name]; !ok {
		e = &timerEntry{}
		t.entries[name] = e
	}
	return e
}

// Stats returns every timer sorted by name
func (t *Timer) Stats() []TimerStat {
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	stats := make([]TimerStat, 0, len(t.entries))
	for name, e := range t.entries {
		stats = append(stats, TimerStat{Name: name, Count: e.count.Load(), Total: time.Duration(e.nanos.Load())})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats
}

// WriteTable writes the timer report as a fixed-width table
func (t *Timer) WriteTable(w io.Writer) error {
	rule := strings.Repeat("-", 78)
	var b strings.Builder
	fmt.Fprintf(&b, "Timer Report - %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "%-30s | %-10s | %-15s | %-15s\n", "Timer Name", "Count", "Total (ms)", "Avg (ms)")
	fmt.Fprintln(&b, rule)
	for _, s := range t.Stats() {
		fmt.Fprintf(&b, "%-30s | %-10d | %-15.2f | %-15.2f\n", s.Name, s.Count, millis(s.Total), millis(s.Average()))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WritePrometheus writes the timer counters in Prometheus text format
func (t *Timer) WritePrometheus(w io.Writer) error {
	if t == nil {
		return nil
	}
	families, err := t.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather timer metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to encode metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// ProgressTracker logs progress of a long-running loop at debug level
type ProgressTracker struct {
	name       string
	total      int
	processed  int64
	lastUpdate int64 // unix nanos
	startTime  time.Time
	logger     *slog.Logger
}

// NewProgressTracker creates a tracker for total items
func NewProgressTracker(logger *slog.Logger, name string, total int) *ProgressTracker {
	now := time.Now()
	return &ProgressTracker{
		name:       name,
		total:      total,
		lastUpdate: now.UnixNano(),
		startTime:  now,
		logger:     logger,
	}
}

// Update adds increment processed items. Safe for concurrent use.
func (pt *ProgressTracker) Update(increment int) {
	processed := atomic.AddInt64(&pt.processed, int64(increment))

	now := time.Now()
	last := atomic.LoadInt64(&pt.lastUpdate)
	if processed%250 != 0 && now.Sub(time.Unix(0, last)) <= 2*time.Second {
		return
	}
	// only one goroutine logs per interval
	if !atomic.CompareAndSwapInt64(&pt.lastUpdate, last, now.UnixNano()) {
		return
	}
	var percentage float64
	if pt.total > 0 {
		percentage = float64(processed) / float64(pt.total) * 100
	}
	pt.logger.Debug("Progress update",
		"operation", pt.name,
		"processed", processed,
		"total", pt.total,
		"percentage", percentage,
		"elapsed_seconds", now.Sub(pt.startTime).Seconds())
}

// Complete logs the final count
func (pt *ProgressTracker) Complete() {
	pt.logger.Debug("Progress tracking completed",
		"operation", pt.name,
		"processed", atomic.LoadInt64(&pt.processed),
		"total", pt.total,
		"duration_seconds", time.Since(pt.startTime).Seconds())
}

// GetMemoryUsage returns current memory usage in a human-readable format
func GetMemoryUsage() string {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	allocMB := float64(m.Alloc) / 1024 / 1024
	sysMB := float64(m.Sys) / 1024 / 1024

	return fmt.Sprintf("%.1fMB allocated, %.1fMB system", allocMB, sysMB)
}
