package distvec

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned when an operation requires
	// initialized storage.
	ErrNotInitialized = errors.New("vector is not initialized")

	// ErrNotClosed is returned when an operation requires an
	// assembled (closed) vector.
	ErrNotClosed = errors.New("vector is not closed")

	// ErrConcurrentArrayAccess is returned when an operation needs
	// the raw buffer back while it is still manually held through
	// GetArray/GetArrayRead.
	ErrConcurrentArrayAccess = errors.New("raw array is manually held; call RestoreArray first")
)

// ErrInvalidPartition indicates a partition hint inconsistent with the
// requested sizes.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidPartition struct {
	Kind       PartitionKind
	GlobalSize int
	LocalSize  int
	cause      error
}

func (e *ErrInvalidPartition) Error() string {
	return fmt.Sprintf("invalid partition: %s with global size %d, local size %d", e.Kind, e.GlobalSize, e.LocalSize)
}

func (e *ErrInvalidPartition) Unwrap() error { return e.cause }

// ErrSizeMismatch indicates localSize > globalSize or a negative size.
type ErrSizeMismatch struct {
	GlobalSize int
	LocalSize  int
}

func (e *ErrSizeMismatch) Error() string {
	return fmt.Sprintf("size mismatch: local size %d, global size %d", e.LocalSize, e.GlobalSize)
}

// ErrDimensionMismatch indicates two vectors of different global size
// meeting in one operation.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrIndexNotOwnedOrGhosted indicates a global index that is neither
// inside this rank's owned range nor in its ghost set.
type ErrIndexNotOwnedOrGhosted struct {
	Index int
	First int
	Last  int
	// Ghosts lists the ghost indices known to this rank, for
	// diagnostics. Empty for non-ghosted vectors.
	Ghosts []int
}

func (e *ErrIndexNotOwnedOrGhosted) Error() string {
	if len(e.Ghosts) == 0 {
		return fmt.Sprintf("index %d not owned: vector owns [%d,%d) and has no ghosts", e.Index, e.First, e.Last)
	}
	return fmt.Sprintf("index %d not owned or ghosted: vector owns [%d,%d), ghosts %v", e.Index, e.First, e.Last, e.Ghosts)
}

// ErrEngineFailure wraps a failure surfaced by the external engine.
// Engine failures are fatal to the operation that hit them and are not
// retried at this layer.
//
// The engine's error is accessible via errors.Unwrap.
type ErrEngineFailure struct {
	Op    string
	cause error
}

func (e *ErrEngineFailure) Error() string {
	return fmt.Sprintf("engine failure in %s: %v", e.Op, e.cause)
}

func (e *ErrEngineFailure) Unwrap() error { return e.cause }

// wrapEngine tags an engine-surfaced error with the operation it
// aborted.
func wrapEngine(op string, err error) error {
	if err == nil {
		return nil
	}
	return &ErrEngineFailure{Op: op, cause: err}
}
