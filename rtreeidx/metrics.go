package rtreeidx

import "time"

// MetricsObserver observes index events.
type MetricsObserver interface {
	// OnBuild is called when a CREATE INDEX build completes.
	OnBuild(duration time.Duration, rows, built int64, err error)

	// OnInsert is called when rows are appended to a live index.
	OnInsert(duration time.Duration, rows int, err error)

	// OnScan is called when an index scan has run its search.
	OnScan(duration time.Duration, matches int, err error)

	// OnRewrite is called once per scan the rewrite rule inspected.
	OnRewrite(matched bool)
}

// NoopMetricsObserver is a no-op implementation of MetricsObserver.
type NoopMetricsObserver struct{}

func (NoopMetricsObserver) OnBuild(time.Duration, int64, int64, error) {}
func (NoopMetricsObserver) OnInsert(time.Duration, int, error)         {}
func (NoopMetricsObserver) OnScan(time.Duration, int, error)           {}
func (NoopMetricsObserver) OnRewrite(bool)                             {}
