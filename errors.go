package stboxidx

import (
	"errors"
	"fmt"

	"github.com/hupe1980/stboxidx/engine"
	"github.com/hupe1980/stboxidx/rangeindex"
	"github.com/hupe1980/stboxidx/rtreeidx"
)

var (
	// ErrInvalidArgument is returned for malformed boxes, queries and index
	// definitions.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInternal is returned when an index build cannot obtain the
	// resources it needs.
	ErrInternal = errors.New("internal error")

	// ErrUnsupported is returned for delete, merge and vacuum on a TRTREE
	// index.
	ErrUnsupported = errors.New("not implemented")

	// ErrNotFound is returned when a table or index does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when an index with the same name exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrClosed is returned when a dropped index or closed database is used.
	ErrClosed = errors.New("closed")
)

// IndexError reports the index and operation an error occurred in.
//
// The original underlying error can be accessed via errors.Unwrap.
type IndexError struct {
	Index string
	Op    string
	cause error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s index %s: %v", e.Op, e.Index, e.cause)
}

func (e *IndexError) Unwrap() error { return e.cause }

func indexError(index, op string, err error) error {
	if err == nil {
		return nil
	}
	return &IndexError{Index: index, Op: op, cause: translateError(err)}
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Closed handles first: a dropped index must not look like bad input.
	if errors.Is(err, rtreeidx.ErrClosed) || errors.Is(err, engine.ErrClosed) || errors.Is(err, engine.ErrSchedulerClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}

	if errors.Is(err, engine.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, engine.ErrAlreadyExists) {
		return fmt.Errorf("%w: %w", ErrAlreadyExists, err)
	}

	if errors.Is(err, rtreeidx.ErrInvalidArgument) || errors.Is(err, engine.ErrBinder) || errors.Is(err, engine.ErrTypeMismatch) {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	if errors.Is(err, rtreeidx.ErrUnsupported) {
		return fmt.Errorf("%w: %w", ErrUnsupported, err)
	}
	if errors.Is(err, rtreeidx.ErrInternal) || errors.Is(err, rangeindex.ErrLengthMismatch) {
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}

	return err
}
