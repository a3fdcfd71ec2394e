package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrMemoryLimit is returned when the resource controller denies
	// a buffer allocation.
	ErrMemoryLimit = errors.New("vector buffer memory limit exceeded")

	// ErrNotGhosted is returned when LocalForm is requested from a
	// handle without ghost slots.
	ErrNotGhosted = errors.New("handle has no ghost slots")

	// ErrForeignHandle is returned when two handles from different
	// engines (or different groups) meet in one operation.
	ErrForeignHandle = errors.New("handle belongs to a different engine")
)

// ErrBadPartition indicates that the per-rank local sizes do not tile
// the global size.
type ErrBadPartition struct {
	SumLocal   int
	GlobalSize int
}

func (e *ErrBadPartition) Error() string {
	return fmt.Sprintf("local sizes sum to %d, global size is %d", e.SumLocal, e.GlobalSize)
}

// ErrIndexOutOfRange indicates a global index outside [0, GlobalSize).
type ErrIndexOutOfRange struct {
	Index      int
	GlobalSize int
}

func (e *ErrIndexOutOfRange) Error() string {
	return fmt.Sprintf("global index %d out of range [0,%d)", e.Index, e.GlobalSize)
}
