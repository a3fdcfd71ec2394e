// Package engine defines the narrow contract a distributed-vector
// engine has to fulfill — creation of serial/partitioned/ghosted
// storage, raw-array access, collective assembly, ghost exchange and
// collective reductions — together with an in-process reference
// implementation backed by comm groups.
//
// The distvec façade is written exclusively against Engine and Handle;
// a binding to an out-of-process engine (an MPI-backed solver library,
// or a service speaking the same contract) slots in without touching
// the façade.
package engine

import (
	"github.com/hupe1980/distvec/scalar"
)

// Norm selects which norm a Handle.Norm call computes.
type Norm int

const (
	// Norm1 is the sum of absolute values.
	Norm1 Norm = iota
	// Norm2 is the Euclidean norm.
	Norm2
	// NormInf is the maximum absolute value.
	NormInf
)

// InsertMode controls how SetValues combines incoming values with
// stored ones.
type InsertMode int

const (
	// Insert overwrites the stored value.
	Insert InsertMode = iota
	// Add accumulates into the stored value.
	Add
)

// Engine creates distributed storage. All three constructors are
// collective over the engine's communicator except CreateSerial,
// which is process-local.
type Engine[T scalar.Scalar] interface {
	// CreateSerial allocates storage for n entries owned entirely by
	// the calling rank.
	CreateSerial(n int) (Handle[T], error)

	// CreatePartitioned allocates storage for nGlobal entries with
	// nLocal owned by the calling rank. The owned ranges are
	// contiguous and ordered by rank; the local sizes must sum to
	// nGlobal across the group.
	CreatePartitioned(nLocal, nGlobal int) (Handle[T], error)

	// CreateGhosted is CreatePartitioned plus replicated slots for the
	// given non-owned global indices, stored contiguously after the
	// owned block.
	CreateGhosted(nLocal, nGlobal int, ghosts []int) (Handle[T], error)
}

// Handle is the engine-side storage of one distributed vector.
//
// Methods marked collective must be called by every rank sharing the
// handle's group, in the same relative order; they block until all
// ranks arrive.
type Handle[T scalar.Scalar] interface {
	// Destroy releases the storage. Collective.
	Destroy() error

	GlobalSize() int
	LocalSize() int
	// OwnershipRange returns the half-open [first, last) interval of
	// globally-indexed entries this rank owns.
	OwnershipRange() (first, last int)
	// Ghosted reports whether the handle carries ghost slots.
	Ghosted() bool
	// GhostIndices returns the global indices mirrored into ghost
	// slots, in slot order.
	GhostIndices() []int

	// GetArray hands out the contiguous owned buffer. The caller must
	// call RestoreArray before any other handle operation; the engine
	// guarantees consistency only while it owns the buffer.
	GetArray(readOnly bool) ([]T, error)
	RestoreArray() error
	// LocalForm hands out the owned+ghost contiguous view of a
	// ghosted handle.
	LocalForm() ([]T, error)
	RestoreLocalForm() error

	// SetValues stores values at global indices. Values aimed at
	// entries owned by other ranks are stashed and routed to their
	// owners during assembly.
	SetValues(indices []int, values []T, mode InsertMode) error
	// SetAll assigns v to every slot, ghost slots included.
	SetAll(v T) error

	// AssemblyBegin/AssemblyEnd flush stashed off-owner values to
	// their owners. Collective.
	AssemblyBegin() error
	AssemblyEnd() error
	// GhostUpdateBegin/GhostUpdateEnd refresh ghost slots from their
	// owners. Collective.
	GhostUpdateBegin() error
	GhostUpdateEnd() error

	// Elementwise transforms over the owned block. Ghost slots go
	// stale until the next ghost update.
	Scale(factor T) error
	Shift(s T) error
	AXPY(alpha T, x Handle[T]) error
	PointwiseMult(a, b Handle[T]) error
	Reciprocal() error
	Conjugate() error
	Abs() error

	// Copy copies owned values (and ghost slots, when both handles
	// are ghosted the same way) into dst.
	Copy(dst Handle[T]) error

	// Collective reductions over owned entries.
	Min() (float64, error)
	Max() (float64, error)
	Sum() (T, error)
	Norm(kind Norm) (float64, error)
	Dot(other Handle[T], conjugate bool) (T, error)

	// Duplicate allocates a zeroed handle with identical partition and
	// ghost structure.
	Duplicate() (Handle[T], error)

	// GatherAll returns the full global vector on every rank.
	// Collective.
	GatherAll() ([]T, error)
	// GatherTo returns the full global vector on root and nil on the
	// other ranks. Collective.
	GatherTo(root int) ([]T, error)
}
