package paramvec

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems.
type MetricsCollector interface {
	// RecordRebuild is called after each allocation-reconciliation pass.
	// removed and added count store positions; duration is the total time
	// taken, err is nil if successful.
	RecordRebuild(removed, added int, duration time.Duration, err error)

	// RecordClean is called after each value-reconciliation pass.
	// cleaned is the number of dirty members synced into the store.
	RecordClean(cleaned int, duration time.Duration)

	// RecordFromVector is called after each FromVector.
	RecordFromVector(duration time.Duration, err error)

	// RecordToVector is called after each ToVector.
	RecordToVector(duration time.Duration, err error)

	// RecordSnapshot is called after each snapshot save or load. op is
	// "save" or "load"; bytes is the size of the archive on the wire.
	RecordSnapshot(op string, bytes int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRebuild(int, int, time.Duration, error)     {}
func (NoopMetricsCollector) RecordClean(int, time.Duration)                   {}
func (NoopMetricsCollector) RecordFromVector(time.Duration, error)            {}
func (NoopMetricsCollector) RecordToVector(time.Duration, error)              {}
func (NoopMetricsCollector) RecordSnapshot(string, int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	RebuildCount      atomic.Int64
	RebuildErrors     atomic.Int64
	RebuildTotalNanos atomic.Int64
	RemovedParams     atomic.Int64
	AddedParams       atomic.Int64

	CleanCount      atomic.Int64
	CleanedMembers  atomic.Int64
	CleanTotalNanos atomic.Int64

	FromVectorCount  atomic.Int64
	FromVectorErrors atomic.Int64
	ToVectorCount    atomic.Int64
	ToVectorErrors   atomic.Int64

	SnapshotCount  atomic.Int64
	SnapshotErrors atomic.Int64
	SnapshotBytes  atomic.Int64
}

// RecordRebuild records a rebuild pass.
func (c *BasicMetricsCollector) RecordRebuild(removed, added int, duration time.Duration, err error) {
	c.RebuildCount.Add(1)
	c.RebuildTotalNanos.Add(int64(duration))
	c.RemovedParams.Add(int64(removed))
	c.AddedParams.Add(int64(added))
	if err != nil {
		c.RebuildErrors.Add(1)
	}
}

// RecordClean records a clean pass.
func (c *BasicMetricsCollector) RecordClean(cleaned int, duration time.Duration) {
	c.CleanCount.Add(1)
	c.CleanedMembers.Add(int64(cleaned))
	c.CleanTotalNanos.Add(int64(duration))
}

// RecordFromVector records a FromVector call.
func (c *BasicMetricsCollector) RecordFromVector(_ time.Duration, err error) {
	c.FromVectorCount.Add(1)
	if err != nil {
		c.FromVectorErrors.Add(1)
	}
}

// RecordToVector records a ToVector call.
func (c *BasicMetricsCollector) RecordToVector(_ time.Duration, err error) {
	c.ToVectorCount.Add(1)
	if err != nil {
		c.ToVectorErrors.Add(1)
	}
}

// RecordSnapshot records a snapshot save or load.
func (c *BasicMetricsCollector) RecordSnapshot(_ string, bytes int, _ time.Duration, err error) {
	c.SnapshotCount.Add(1)
	if err != nil {
		c.SnapshotErrors.Add(1)
		return
	}
	c.SnapshotBytes.Add(int64(bytes))
}
