package distvec

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational
// metrics. Implement this interface to integrate with monitoring
// systems like Prometheus.
type MetricsCollector interface {
	// RecordMutation is called after each value-mutating operation
	// (set, add, scale, zero and friends).
	RecordMutation(duration time.Duration, err error)

	// RecordAssembly is called after each close (collective assembly
	// plus ghost broadcast).
	RecordAssembly(duration time.Duration, err error)

	// RecordReduction is called after each collective reduction
	// (min/max/sum/norm/dot).
	RecordReduction(duration time.Duration, err error)

	// RecordLocalize is called after each localize-family gather.
	// count is the number of gathered entries.
	RecordLocalize(count int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordMutation(time.Duration, error)      {}
func (NoopMetricsCollector) RecordAssembly(time.Duration, error)      {}
func (NoopMetricsCollector) RecordReduction(time.Duration, error)     {}
func (NoopMetricsCollector) RecordLocalize(int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external
// dependencies.
type BasicMetricsCollector struct {
	MutationCount       atomic.Int64
	MutationErrors      atomic.Int64
	MutationTotalNanos  atomic.Int64
	AssemblyCount       atomic.Int64
	AssemblyErrors      atomic.Int64
	AssemblyTotalNanos  atomic.Int64
	ReductionCount      atomic.Int64
	ReductionErrors     atomic.Int64
	ReductionTotalNanos atomic.Int64
	LocalizeCount       atomic.Int64
	LocalizeEntries     atomic.Int64
	LocalizeErrors      atomic.Int64
}

// RecordMutation implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMutation(duration time.Duration, err error) {
	b.MutationCount.Add(1)
	b.MutationTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.MutationErrors.Add(1)
	}
}

// RecordAssembly implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAssembly(duration time.Duration, err error) {
	b.AssemblyCount.Add(1)
	b.AssemblyTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.AssemblyErrors.Add(1)
	}
}

// RecordReduction implements MetricsCollector.
func (b *BasicMetricsCollector) RecordReduction(duration time.Duration, err error) {
	b.ReductionCount.Add(1)
	b.ReductionTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ReductionErrors.Add(1)
	}
}

// RecordLocalize implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLocalize(count int, duration time.Duration, err error) {
	b.LocalizeCount.Add(1)
	b.LocalizeEntries.Add(int64(count))
	if err != nil {
		b.LocalizeErrors.Add(1)
	}
}
