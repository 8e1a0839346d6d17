package rtreeidx

import (
	"errors"

	"github.com/hupe1980/stboxidx/rangeindex"
	"github.com/hupe1980/stboxidx/stbox"
)

var (
	// ErrInvalidArgument is returned for malformed boxes and for index
	// definitions over columns that do not hold boxes. It is the same
	// sentinel as stbox.ErrInvalidArgument.
	ErrInvalidArgument = stbox.ErrInvalidArgument

	// ErrInternal is returned when an index build cannot obtain scratch
	// space or a tree handle.
	ErrInternal = errors.New("internal error")

	// ErrUnsupported is returned by operations TRTREE indexes do not
	// implement: delete, merge and vacuum.
	ErrUnsupported = errors.New("not implemented")

	// ErrClosed is returned when a dropped index is used. It is the same
	// sentinel as rangeindex.ErrClosed.
	ErrClosed = rangeindex.ErrClosed

	// ErrNoMatch is returned by TryRewrite when no predicate can be served
	// by an index. It is normal control flow.
	ErrNoMatch = errors.New("no index predicate")
)
