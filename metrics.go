package flatdict

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// RecordQuery is called once per batched accessor call, never per key.
type MetricsCollector interface {
	// RecordLoad is called after each loader pass.
	// err is nil if the dictionary is ready.
	RecordLoad(name string, rows int, duration time.Duration, err error)

	// RecordQuery is called after each batched accessor call with the
	// number of keys looked up.
	RecordQuery(keys int)

	// RecordReload is called after a reload attempt. published reports
	// whether the new generation replaced the previous one.
	RecordReload(name string, published bool, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLoad(string, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordQuery(int)                              {}
func (NoopMetricsCollector) RecordReload(string, bool, error)             {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	LoadCount      atomic.Int64
	LoadErrors     atomic.Int64
	LoadRows       atomic.Int64
	LoadTotalNanos atomic.Int64
	QueryCount     atomic.Int64
	QueryKeys      atomic.Int64
	ReloadCount    atomic.Int64
	ReloadErrors   atomic.Int64
	ReloadSkipped  atomic.Int64
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(_ string, rows int, duration time.Duration, err error) {
	b.LoadCount.Add(1)
	b.LoadRows.Add(int64(rows))
	b.LoadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.LoadErrors.Add(1)
	}
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(keys int) {
	b.QueryCount.Add(1)
	b.QueryKeys.Add(int64(keys))
}

// RecordReload implements MetricsCollector.
func (b *BasicMetricsCollector) RecordReload(_ string, published bool, err error) {
	b.ReloadCount.Add(1)
	if err != nil {
		b.ReloadErrors.Add(1)
	}
	if !published {
		b.ReloadSkipped.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		LoadCount:     b.LoadCount.Load(),
		LoadErrors:    b.LoadErrors.Load(),
		LoadRows:      b.LoadRows.Load(),
		LoadAvgNanos:  b.getAvgLoadNanos(),
		QueryCount:    b.QueryCount.Load(),
		QueryKeys:     b.QueryKeys.Load(),
		ReloadCount:   b.ReloadCount.Load(),
		ReloadErrors:  b.ReloadErrors.Load(),
		ReloadSkipped: b.ReloadSkipped.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgLoadNanos() int64 {
	count := b.LoadCount.Load()
	if count == 0 {
		return 0
	}
	return b.LoadTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	LoadCount     int64
	LoadErrors    int64
	LoadRows      int64
	LoadAvgNanos  int64
	QueryCount    int64
	QueryKeys     int64
	ReloadCount   int64
	ReloadErrors  int64
	ReloadSkipped int64
}
