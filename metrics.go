package saidx

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    stageHistogram  *prometheus.HistogramVec
//	    searchHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordStage(stage saidx.Stage, d time.Duration, err error) {
//	    p.stageHistogram.WithLabelValues(stage.String()).Observe(d.Seconds())
//	}
type MetricsCollector interface {
	// RecordStage is called after each build stage.
	RecordStage(stage Stage, duration time.Duration, err error)

	// RecordSearch is called after each Range or Find query.
	// count is the number of matching suffixes.
	RecordSearch(count int64, duration time.Duration)

	// RecordLookup is called after each k-mer table lookup.
	RecordLookup(hit bool)

	// RecordArtifact is called after each artifact write.
	RecordArtifact(name string, bytes int64, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordStage(Stage, time.Duration, error) {}
func (NoopMetricsCollector) RecordSearch(int64, time.Duration)      {}
func (NoopMetricsCollector) RecordLookup(bool)                      {}
func (NoopMetricsCollector) RecordArtifact(string, int64, error)    {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	StageCount       atomic.Int64
	StageErrors      atomic.Int64
	StageTotalNanos  atomic.Int64
	SearchCount      atomic.Int64
	SearchMatches    atomic.Int64
	SearchTotalNanos atomic.Int64
	LookupCount      atomic.Int64
	LookupHits       atomic.Int64
	ArtifactCount    atomic.Int64
	ArtifactErrors   atomic.Int64
	ArtifactBytes    atomic.Int64
}

// RecordStage implements MetricsCollector.
func (b *BasicMetricsCollector) RecordStage(_ Stage, duration time.Duration, err error) {
	b.StageCount.Add(1)
	b.StageTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.StageErrors.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(count int64, duration time.Duration) {
	b.SearchCount.Add(1)
	b.SearchMatches.Add(count)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
}

// RecordLookup implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLookup(hit bool) {
	b.LookupCount.Add(1)
	if hit {
		b.LookupHits.Add(1)
	}
}

// RecordArtifact implements MetricsCollector.
func (b *BasicMetricsCollector) RecordArtifact(_ string, bytes int64, err error) {
	b.ArtifactCount.Add(1)
	if err != nil {
		b.ArtifactErrors.Add(1)
		return
	}
	b.ArtifactBytes.Add(bytes)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		StageCount:     b.StageCount.Load(),
		StageErrors:    b.StageErrors.Load(),
		StageAvgNanos:  avg(b.StageTotalNanos.Load(), b.StageCount.Load()),
		SearchCount:    b.SearchCount.Load(),
		SearchMatches:  b.SearchMatches.Load(),
		SearchAvgNanos: avg(b.SearchTotalNanos.Load(), b.SearchCount.Load()),
		LookupCount:    b.LookupCount.Load(),
		LookupHits:     b.LookupHits.Load(),
		ArtifactCount:  b.ArtifactCount.Load(),
		ArtifactErrors: b.ArtifactErrors.Load(),
		ArtifactBytes:  b.ArtifactBytes.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	StageCount     int64
	StageErrors    int64
	StageAvgNanos  int64
	SearchCount    int64
	SearchMatches  int64
	SearchAvgNanos int64
	LookupCount    int64
	LookupHits     int64
	ArtifactCount  int64
	ArtifactErrors int64
	ArtifactBytes  int64
}
