package simulator

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/willfong/txreplay/internal/models"
)

// maxWaitSamples bounds the samples kept for percentiles
const maxWaitSamples = 1024

// Metrics counts committed actions per operation and tracks commit wait:
// the time between a worker building an entry and the committer recording it.
type Metrics struct {
	counts map[models.Operation]*atomic.Int64
	wait   *LatencyTracker
}

// MetricsSnapshot is a point-in-time copy of Metrics
type MetricsSnapshot struct {
	Inquiries   int64
	Withdrawals int64
	Transfers   int64

	WaitAvg time.Duration
	WaitP50 time.Duration
	WaitP99 time.Duration
}

// NewMetrics creates an empty metrics tracker
func NewMetrics() *Metrics {
	m := &Metrics{
		counts: make(map[models.Operation]*atomic.Int64, len(actionOps)),
		wait:   NewLatencyTracker(maxWaitSamples),
	}
	for _, op := range actionOps {
		m.counts[op] = &atomic.Int64{}
	}
	return m
}

// RecordCommit counts one committed action
func (m *Metrics) RecordCommit(op models.Operation, wait time.Duration) {
	if c, ok := m.counts[op]; ok {
		c.Add(1)
	}
	m.wait.Record(wait)
}

// Count returns the committed actions of one operation
func (m *Metrics) Count(op models.Operation) int64 {
	if c, ok := m.counts[op]; ok {
		return c.Load()
	}
	return 0
}

// Snapshot returns the current values
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Inquiries:   m.Count(models.OpInquiry),
		Withdrawals: m.Count(models.OpWithdrew),
		Transfers:   m.Count(models.OpTransferred),
		WaitAvg:     m.wait.Average(),
		WaitP50:     m.wait.Percentile(50),
		WaitP99:     m.wait.Percentile(99),
	}
}

// String formats the snapshot for a summary line
func (s MetricsSnapshot) String() string {
	return fmt.Sprintf("%d inquiries / %d withdrawals / %d transfers",
		s.Inquiries, s.Withdrawals, s.Transfers)
}

// LatencyTracker keeps the most recent samples in a ring for percentiles and
// a running total for the average.
type LatencyTracker struct {
	mu      sync.Mutex
	samples []time.Duration
	next    int
	totalNs int64
	count   int64
}

// NewLatencyTracker creates a tracker keeping up to maxSize samples
func NewLatencyTracker(maxSize int) *LatencyTracker {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &LatencyTracker{samples: make([]time.Duration, 0, maxSize)}
}

// Record adds a sample, replacing the oldest once full
func (lt *LatencyTracker) Record(latency time.Duration) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	lt.totalNs += latency.Nanoseconds()
	lt.count++

	if len(lt.samples) < cap(lt.samples) {
		lt.samples = append(lt.samples, latency)
		return
	}
	lt.samples[lt.next] = latency
	lt.next = (lt.next + 1) % len(lt.samples)
}

// Percentile returns the p-th percentile (0-100) of the kept samples
func (lt *LatencyTracker) Percentile(p float64) time.Duration {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	if len(lt.samples) == 0 {
		return 0
	}

	sorted := make([]time.Duration, len(lt.samples))
	copy(sorted, lt.samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return sorted[int(float64(len(sorted)-1)*p/100.0)]
}

// Average returns the mean of every recorded sample
func (lt *LatencyTracker) Average() time.Duration {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	if lt.count == 0 {
		return 0
	}
	return time.Duration(lt.totalNs / lt.count)
}

// Count returns the number of recorded samples
func (lt *LatencyTracker) Count() int64 {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	return lt.count
}
