package stboxidx

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/stboxidx/rtreeidx"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems, or use
// PrometheusCollector.
type MetricsCollector interface {
	// RecordBuild is called after each CREATE INDEX build.
	// rows is the number of rows collected, built the number of entries
	// inserted into the tree.
	RecordBuild(rows, built int64, duration time.Duration, err error)

	// RecordInsert is called after rows are appended to a live index.
	RecordInsert(count int, duration time.Duration, err error)

	// RecordScan is called after each index search.
	RecordScan(matches int, duration time.Duration, err error)

	// RecordRewrite is called for every scan the rewrite rule inspected.
	RecordRewrite(matched bool)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBuild(int64, int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordInsert(int, time.Duration, error)         {}
func (NoopMetricsCollector) RecordScan(int, time.Duration, error)           {}
func (NoopMetricsCollector) RecordRewrite(bool)                             {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	BuildCount      atomic.Int64
	BuildErrors     atomic.Int64
	BuildRows       atomic.Int64
	BuildEntries    atomic.Int64
	BuildTotalNanos atomic.Int64
	InsertCount     atomic.Int64
	InsertErrors    atomic.Int64
	InsertRows      atomic.Int64
	ScanCount       atomic.Int64
	ScanErrors      atomic.Int64
	ScanMatches     atomic.Int64
	ScanTotalNanos  atomic.Int64
	RewritesApplied atomic.Int64
	RewritesSkipped atomic.Int64
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(rows, built int64, duration time.Duration, err error) {
	b.BuildCount.Add(1)
	b.BuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BuildErrors.Add(1)
		return
	}
	b.BuildRows.Add(rows)
	b.BuildEntries.Add(built)
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(count int, duration time.Duration, err error) {
	b.InsertCount.Add(1)
	if err != nil {
		b.InsertErrors.Add(1)
		return
	}
	b.InsertRows.Add(int64(count))
}

// RecordScan implements MetricsCollector.
func (b *BasicMetricsCollector) RecordScan(matches int, duration time.Duration, err error) {
	b.ScanCount.Add(1)
	b.ScanTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ScanErrors.Add(1)
		return
	}
	b.ScanMatches.Add(int64(matches))
}

// RecordRewrite implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRewrite(matched bool) {
	if matched {
		b.RewritesApplied.Add(1)
	} else {
		b.RewritesSkipped.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		BuildCount:      b.BuildCount.Load(),
		BuildErrors:     b.BuildErrors.Load(),
		BuildRows:       b.BuildRows.Load(),
		BuildEntries:    b.BuildEntries.Load(),
		BuildAvgNanos:   avg(b.BuildTotalNanos.Load(), b.BuildCount.Load()),
		InsertCount:     b.InsertCount.Load(),
		InsertErrors:    b.InsertErrors.Load(),
		InsertRows:      b.InsertRows.Load(),
		ScanCount:       b.ScanCount.Load(),
		ScanErrors:      b.ScanErrors.Load(),
		ScanMatches:     b.ScanMatches.Load(),
		ScanAvgNanos:    avg(b.ScanTotalNanos.Load(), b.ScanCount.Load()),
		RewritesApplied: b.RewritesApplied.Load(),
		RewritesSkipped: b.RewritesSkipped.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector.
type BasicMetricsStats struct {
	BuildCount      int64
	BuildErrors     int64
	BuildRows       int64
	BuildEntries    int64
	BuildAvgNanos   int64
	InsertCount     int64
	InsertErrors    int64
	InsertRows      int64
	ScanCount       int64
	ScanErrors      int64
	ScanMatches     int64
	ScanAvgNanos    int64
	RewritesApplied int64
	RewritesSkipped int64
}

// PrometheusCollector implements MetricsCollector with Prometheus metrics.
type PrometheusCollector struct {
	opLatency *prometheus.HistogramVec
	rows      *prometheus.CounterVec
	rewrites  *prometheus.CounterVec
}

// NewPrometheusCollector creates the collector and registers its metrics
// with reg. A nil reg selects prometheus.DefaultRegisterer.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	p := &PrometheusCollector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stboxidx_operation_latency_seconds",
			Help:    "Latency of TRTREE index operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"op", "status"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stboxidx_rows_total",
			Help: "Rows processed by TRTREE index operations",
		}, []string{"op"}),
		rewrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stboxidx_rewrites_total",
			Help: "Scans inspected by the index rewrite rule",
		}, []string{"result"}),
	}

	reg.MustRegister(p.opLatency)
	reg.MustRegister(p.rows)
	reg.MustRegister(p.rewrites)
	return p
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordBuild implements MetricsCollector.
func (p *PrometheusCollector) RecordBuild(rows, built int64, d time.Duration, err error) {
	p.opLatency.WithLabelValues("build", status(err)).Observe(d.Seconds())
	if err == nil {
		p.rows.WithLabelValues("build_loaded").Add(float64(rows))
		p.rows.WithLabelValues("build_indexed").Add(float64(built))
	}
}

// RecordInsert implements MetricsCollector.
func (p *PrometheusCollector) RecordInsert(count int, d time.Duration, err error) {
	p.opLatency.WithLabelValues("insert", status(err)).Observe(d.Seconds())
	if err == nil {
		p.rows.WithLabelValues("insert").Add(float64(count))
	}
}

// RecordScan implements MetricsCollector.
func (p *PrometheusCollector) RecordScan(matches int, d time.Duration, err error) {
	p.opLatency.WithLabelValues("scan", status(err)).Observe(d.Seconds())
	if err == nil {
		p.rows.WithLabelValues("scan").Add(float64(matches))
	}
}

// RecordRewrite implements MetricsCollector.
func (p *PrometheusCollector) RecordRewrite(matched bool) {
	result := "skipped"
	if matched {
		result = "applied"
	}
	p.rewrites.WithLabelValues(result).Inc()
}

// metricsObserver forwards index events to a MetricsCollector.
type metricsObserver struct {
	collector MetricsCollector
	logger    *Logger
}

var _ rtreeidx.MetricsObserver = (*metricsObserver)(nil)

func (o *metricsObserver) OnBuild(d time.Duration, rows, built int64, err error) {
	o.collector.RecordBuild(rows, built, d, err)
}

func (o *metricsObserver) OnInsert(d time.Duration, rows int, err error) {
	o.collector.RecordInsert(rows, d, err)
}

func (o *metricsObserver) OnScan(d time.Duration, matches int, err error) {
	o.collector.RecordScan(matches, d, err)
}

func (o *metricsObserver) OnRewrite(matched bool) {
	o.collector.RecordRewrite(matched)
	o.logger.LogRewrite(context.Background(), matched)
}
