package rtreeidx

import (
	"io"
	"log/slog"
	"strings"

	"github.com/hupe1980/stboxidx/rangeindex"
	"github.com/hupe1980/stboxidx/resource"
)

const (
	// TypeName is the registered index type.
	TypeName = "TRTREE"

	// ScanFunctionName is the table function of the rewritten scan.
	ScanFunctionName = "rtree_index_scan"

	// DefaultScanBatchSize is the number of row ids a scan hands out per call.
	DefaultScanBatchSize = 2048
)

// DefaultOverlapFunctions are the predicate names the rewrite rule matches.
var DefaultOverlapFunctions = []string{"&&", "overlaps"}

// Config holds the settings shared by every TRTREE index of a database.
type Config struct {
	Logger    *slog.Logger
	Metrics   MetricsObserver
	Resources *resource.Controller

	// OverlapFunctions are matched case-insensitively.
	OverlapFunctions []string

	// ScanBatchSize bounds the row ids copied per Scan call.
	ScanBatchSize int

	// NewRangeIndex creates the tree behind a new index. Nil selects
	// rangeindex.NewTree.
	NewRangeIndex func() rangeindex.RangeIndex
}

// Option configures Config.
type Option func(*Config)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithMetricsObserver sets the metrics observer.
func WithMetricsObserver(observer MetricsObserver) Option {
	return func(c *Config) {
		c.Metrics = observer
	}
}

// WithResourceController sets the controller bounding build memory and rate.
func WithResourceController(rc *resource.Controller) Option {
	return func(c *Config) {
		c.Resources = rc
	}
}

// WithOverlapFunctions replaces the predicate names the rewrite rule matches.
func WithOverlapFunctions(names ...string) Option {
	return func(c *Config) {
		if len(names) > 0 {
			c.OverlapFunctions = names
		}
	}
}

// WithScanBatchSize sets the number of row ids handed out per Scan call.
func WithScanBatchSize(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.ScanBatchSize = n
		}
	}
}

// WithRangeIndexFactory sets the constructor of the tree behind each index.
func WithRangeIndexFactory(fn func() rangeindex.RangeIndex) Option {
	return func(c *Config) {
		c.NewRangeIndex = fn
	}
}

// NewConfig applies opts over the defaults.
func NewConfig(opts ...Option) *Config {
	c := &Config{
		Logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:          NoopMetricsObserver{},
		OverlapFunctions: DefaultOverlapFunctions,
		ScanBatchSize:    DefaultScanBatchSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.Metrics == nil {
		c.Metrics = NoopMetricsObserver{}
	}
	return c
}

func (c *Config) newRangeIndex() rangeindex.RangeIndex {
	if c.NewRangeIndex != nil {
		return c.NewRangeIndex()
	}
	return rangeindex.NewTree()
}

func (c *Config) overlapNames() map[string]struct{} {
	out := make(map[string]struct{}, len(c.OverlapFunctions))
	for _, name := range c.OverlapFunctions {
		out[strings.ToLower(name)] = struct{}{}
	}
	return out
}
