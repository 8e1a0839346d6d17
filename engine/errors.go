package engine

import "errors"

var (
	// ErrNotFound is returned when a table, index, function or pragma does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when a catalog entry with the same name exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrBinder is returned when an expression or plan cannot be bound.
	ErrBinder = errors.New("binder error")

	// ErrTypeMismatch is returned when a value does not have the expected type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrSchedulerClosed is returned when tasks are submitted to a closed scheduler.
	ErrSchedulerClosed = errors.New("scheduler is closed")

	// ErrClosed is returned when the database has been closed.
	ErrClosed = errors.New("database is closed")
)
