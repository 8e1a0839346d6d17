package stboxidx

import (
	"log/slog"

	"github.com/hupe1980/stboxidx/resource"
	"github.com/hupe1980/stboxidx/rtreeidx"
)

// options holds the configuration of a loaded extension.
type options struct {
	logger           *Logger
	logLevel         *slog.Level
	metricsCollector MetricsCollector

	resourceConfig resource.Config

	overlapFunctions []string
	scanBatchSize    int
}

// Option configures the extension.
type Option func(*options)

func defaultOptions() options {
	return options{
		metricsCollector: NoopMetricsCollector{},
		scanBatchSize:    rtreeidx.DefaultScanBatchSize,
	}
}

// WithLogger sets the logger. If not set, logs are discarded unless
// WithLogLevel is used.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithLogLevel logs text to stderr at level. It is ignored when a logger is
// set with WithLogger.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logLevel = &level
	}
}

// WithMetricsCollector sets the metrics collector.
func WithMetricsCollector(c MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = c
	}
}

// WithMemoryLimit bounds the scratch memory of concurrent index builds.
// A build that cannot reserve its scratch space fails with ErrInternal.
// 0 means unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.resourceConfig.MemoryLimitBytes = bytes
	}
}

// WithBuildRateLimit throttles tree construction to rowsPerSec.
// 0 means unlimited.
func WithBuildRateLimit(rowsPerSec int64) Option {
	return func(o *options) {
		o.resourceConfig.BuildRowsPerSec = rowsPerSec
	}
}

// WithBuildThreads sets how many construct tasks may insert into a tree at
// once. By default every scheduler thread may; values below 1 keep that.
func WithBuildThreads(n int) Option {
	return func(o *options) {
		o.resourceConfig.MaxBuildWorkers = int64(max(n, 0))
	}
}

// WithOverlapFunctions replaces the predicate names the rewrite rule matches
// (default "&&" and "overlaps").
func WithOverlapFunctions(names ...string) Option {
	return func(o *options) {
		o.overlapFunctions = names
	}
}

// WithScanBatchSize sets the number of row ids an index scan hands out per
// call.
func WithScanBatchSize(n int) Option {
	return func(o *options) {
		o.scanBatchSize = n
	}
}
