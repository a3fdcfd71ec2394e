package distvec

import (
	"errors"
	"time"

	"github.com/hupe1980/distvec/engine"
	"github.com/hupe1980/distvec/scalar"
)

// Vector is a dense numeric vector whose entries are partitioned
// across the ranks of an engine's group. Each rank owns a contiguous
// range of the global index space and may additionally mirror
// non-owned entries as ghosts.
//
// A Vector moves through three lifecycle states: uninitialized,
// initialized+open (unassembled local changes pending) and
// initialized+closed (assembled). Mutating operations return the
// cached raw buffer to the engine before touching storage; read
// accessors cache the buffer until the next mutation.
//
// Concurrent read accessors on one Vector are safe; concurrent
// mutation requires external synchronization.
type Vector[T scalar.Scalar] struct {
	eng    engine.Engine[T]
	handle engine.Handle[T]

	kind        PartitionKind
	initialized bool
	closed      bool

	// destroyOnRelease is false for vectors wrapping storage they do
	// not own; Clear then drops the handle without destroying it.
	destroyOnRelease bool

	// ghostToLocal maps non-owned global indices to ghost slot
	// numbers. Rebuilt wholesale on Init, never mutated in place.
	ghostToLocal map[int]int

	lease arrayLease[T]

	logger  *Logger
	metrics MetricsCollector
}

// New creates an uninitialized vector bound to eng. Call Init (or
// InitFrom) before use.
func New[T scalar.Scalar](eng engine.Engine[T], optFns ...Option) *Vector[T] {
	opts := options{
		logger:  NoopLogger(),
		metrics: NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Vector[T]{
		eng:              eng,
		kind:             PartitionAutomatic,
		destroyOnRelease: true,
		logger:           opts.logger,
		metrics:          opts.metrics,
	}
}

// NewSized creates a vector of global size n replicated on the calling
// rank, zero filled.
func NewSized[T scalar.Scalar](eng engine.Engine[T], n int, optFns ...Option) (*Vector[T], error) {
	v := New(eng, optFns...)
	if err := v.Init(n, n); err != nil {
		return nil, err
	}
	return v, nil
}

// NewPartitioned creates a vector of global size n with nLocal entries
// owned by the calling rank, zero filled. Collective.
func NewPartitioned[T scalar.Scalar](eng engine.Engine[T], n, nLocal int, optFns ...Option) (*Vector[T], error) {
	v := New(eng, optFns...)
	if err := v.Init(n, nLocal, WithPartitionHint(PartitionParallel)); err != nil {
		return nil, err
	}
	return v, nil
}

// NewGhosted creates a partitioned vector that additionally mirrors
// the given non-owned indices, zero filled. Collective.
func NewGhosted[T scalar.Scalar](eng engine.Engine[T], n, nLocal int, ghosts []int, optFns ...Option) (*Vector[T], error) {
	v := New(eng, optFns...)
	if err := v.Init(n, nLocal, WithGhosts(ghosts)); err != nil {
		return nil, err
	}
	return v, nil
}

// Wrap creates a vector around an existing engine handle without
// taking ownership: Clear never destroys the wrapped storage. Ghost
// structure is derived from the handle's own metadata. The wrapped
// vector starts initialized and closed.
func Wrap[T scalar.Scalar](eng engine.Engine[T], h engine.Handle[T], optFns ...Option) *Vector[T] {
	v := New(eng, optFns...)
	v.handle = h
	v.destroyOnRelease = false
	v.initialized = true
	v.closed = true

	switch {
	case h.Ghosted():
		v.kind = PartitionGhosted
		ghosts := h.GhostIndices()
		v.ghostToLocal = make(map[int]int, len(ghosts))
		for k, g := range ghosts {
			v.ghostToLocal[g] = k
		}
	case h.LocalSize() == h.GlobalSize():
		v.kind = PartitionSerial
	default:
		v.kind = PartitionParallel
	}
	return v
}

// Init allocates storage for globalSize entries with localSize owned
// by the calling rank, releasing any prior storage first. On success
// the vector is initialized and closed; unless WithoutZeroFill is
// given, every entry (ghost slots included) is zero.
//
// Collective for parallel and ghosted partitions. A failed Init
// leaves the vector uninitialized.
func (v *Vector[T]) Init(globalSize, localSize int, optFns ...InitOption) error {
	opts := initOptions{
		hint:     PartitionAutomatic,
		zeroFill: true,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if globalSize < 0 || localSize < 0 || localSize > globalSize {
		return &ErrSizeMismatch{GlobalSize: globalSize, LocalSize: localSize}
	}

	kind, err := resolveKind(opts.hint, globalSize, localSize, opts.ghosts)
	if err != nil {
		v.logger.LogInit(globalSize, localSize, len(opts.ghosts), err)
		return err
	}

	if v.initialized {
		if err := v.Clear(); err != nil {
			return err
		}
	}

	var h engine.Handle[T]
	switch kind {
	case PartitionSerial:
		h, err = v.eng.CreateSerial(globalSize)
	case PartitionParallel:
		h, err = v.eng.CreatePartitioned(localSize, globalSize)
	case PartitionGhosted:
		h, err = v.eng.CreateGhosted(localSize, globalSize, opts.ghosts)
	}
	if err != nil {
		var bad *engine.ErrBadPartition
		if errors.As(err, &bad) {
			err = &ErrInvalidPartition{Kind: kind, GlobalSize: globalSize, LocalSize: localSize, cause: err}
		} else {
			err = wrapEngine("init", err)
		}
		v.logger.LogInit(globalSize, localSize, len(opts.ghosts), err)
		return err
	}

	v.handle = h
	v.kind = kind
	v.destroyOnRelease = true
	v.ghostToLocal = make(map[int]int, len(opts.ghosts))
	for k, g := range opts.ghosts {
		v.ghostToLocal[g] = k
	}
	v.initialized = true
	v.closed = true

	if opts.zeroFill {
		if err := v.Zero(); err != nil {
			return err
		}
	}
	v.logger.LogInit(globalSize, localSize, len(opts.ghosts), nil)
	return nil
}

// resolveKind derives the partition kind from the hint and checks hint
// and sizes against each other.
func resolveKind(hint PartitionKind, globalSize, localSize int, ghosts []int) (PartitionKind, error) {
	ghosted := ghosts != nil || hint == PartitionGhosted

	switch hint {
	case PartitionAutomatic:
		if ghosted {
			return PartitionGhosted, nil
		}
		if localSize == globalSize {
			return PartitionSerial, nil
		}
		return PartitionParallel, nil
	case PartitionSerial:
		if localSize != globalSize || ghosted {
			return 0, &ErrInvalidPartition{Kind: hint, GlobalSize: globalSize, LocalSize: localSize}
		}
		return PartitionSerial, nil
	case PartitionParallel:
		if ghosted {
			return 0, &ErrInvalidPartition{Kind: hint, GlobalSize: globalSize, LocalSize: localSize}
		}
		return PartitionParallel, nil
	case PartitionGhosted:
		return PartitionGhosted, nil
	default:
		return 0, &ErrInvalidPartition{Kind: hint, GlobalSize: globalSize, LocalSize: localSize}
	}
}

// InitFrom rebuilds this vector with other's partition and ghost
// structure, without copying values. When zeroFill is false the
// storage contents are unspecified until assigned.
//
// The result is always initialized and closed, whatever other's state:
// a fresh duplicate has no pending unassembled values, so it is
// trivially assembled.
func (v *Vector[T]) InitFrom(other *Vector[T], zeroFill bool) error {
	if !other.initialized {
		return ErrNotInitialized
	}
	if v.initialized {
		if err := v.Clear(); err != nil {
			return err
		}
	}

	// The source must hand its buffer back to the engine before the
	// engine can duplicate it.
	if err := other.lease.restore(other.handle); err != nil {
		return err
	}

	h, err := other.handle.Duplicate()
	if err != nil {
		return wrapEngine("duplicate", err)
	}

	v.handle = h
	v.kind = other.kind
	v.destroyOnRelease = true
	v.ghostToLocal = make(map[int]int, len(other.ghostToLocal))
	for g, k := range other.ghostToLocal {
		v.ghostToLocal[g] = k
	}
	v.initialized = true
	v.closed = true

	if zeroFill {
		return v.Zero()
	}
	return nil
}

// Close assembles the vector: stashed off-owner values reach their
// owners and, for ghosted vectors, every ghost slot is refreshed from
// its owner. Collective. Closing an already-closed vector is a no-op
// at the value level.
func (v *Vector[T]) Close() error {
	if !v.initialized {
		return ErrNotInitialized
	}
	start := time.Now()
	err := v.close()
	v.metrics.RecordAssembly(time.Since(start), err)
	v.logger.LogClose(v.kind == PartitionGhosted, err)
	return err
}

func (v *Vector[T]) close() error {
	if err := v.lease.restore(v.handle); err != nil {
		return err
	}

	if err := v.handle.AssemblyBegin(); err != nil {
		return wrapEngine("assembly begin", err)
	}
	if err := v.handle.AssemblyEnd(); err != nil {
		return wrapEngine("assembly end", err)
	}

	if v.kind == PartitionGhosted {
		if err := v.handle.GhostUpdateBegin(); err != nil {
			return wrapEngine("ghost update begin", err)
		}
		if err := v.handle.GhostUpdateEnd(); err != nil {
			return wrapEngine("ghost update end", err)
		}
	}

	v.closed = true
	return nil
}

// Clear restores the vector to a pristine uninitialized state,
// destroying the storage unless it is merely wrapped. Any outstanding
// lease — manual holds included — is returned first: the buffer
// cannot outlive its storage. Safe on an uninitialized vector.
func (v *Vector[T]) Clear() error {
	if !v.initialized {
		v.ghostToLocal = nil
		v.kind = PartitionAutomatic
		return nil
	}

	if err := v.lease.forceRestore(v.handle); err != nil {
		return err
	}

	destroyed := false
	if v.destroyOnRelease {
		if err := v.handle.Destroy(); err != nil {
			return wrapEngine("destroy", err)
		}
		destroyed = true
	}

	v.handle = nil
	v.ghostToLocal = nil
	v.kind = PartitionAutomatic
	v.initialized = false
	v.closed = false
	v.destroyOnRelease = true
	v.logger.LogClear(destroyed)
	return nil
}

// Zero sets every entry — ghost slots included — to the additive
// identity in one bulk engine call. Requires a closed vector.
func (v *Vector[T]) Zero() error {
	if !v.initialized {
		return ErrNotInitialized
	}
	if !v.closed {
		return ErrNotClosed
	}
	start := time.Now()
	err := v.zero()
	v.metrics.RecordMutation(time.Since(start), err)
	return err
}

func (v *Vector[T]) zero() error {
	if err := v.lease.restore(v.handle); err != nil {
		return err
	}
	var zero T
	return wrapEngine("zero", v.handle.SetAll(zero))
}

// CloneEmpty produces a zero-filled vector with identical partition
// and ghost structure.
func (v *Vector[T]) CloneEmpty() (*Vector[T], error) {
	n := New(v.eng, WithLogger(v.logger), WithMetrics(v.metrics))
	if err := n.InitFrom(v, true); err != nil {
		return nil, err
	}
	return n, nil
}

// Clone produces a vector with identical partition, ghost structure
// and values (ghost slots included).
func (v *Vector[T]) Clone() (*Vector[T], error) {
	n := New(v.eng, WithLogger(v.logger), WithMetrics(v.metrics))
	if err := n.InitFrom(v, false); err != nil {
		return nil, err
	}
	if err := v.handle.Copy(n.handle); err != nil {
		return nil, wrapEngine("copy", err)
	}
	return n, nil
}

// Swap exchanges storage, partition metadata and lease state with
// other in O(1), copying no values. Not safe against concurrent use of
// either vector.
func (v *Vector[T]) Swap(other *Vector[T]) {
	v.handle, other.handle = other.handle, v.handle
	v.kind, other.kind = other.kind, v.kind
	v.initialized, other.initialized = other.initialized, v.initialized
	v.closed, other.closed = other.closed, v.closed
	v.destroyOnRelease, other.destroyOnRelease = other.destroyOnRelease, v.destroyOnRelease
	v.ghostToLocal, other.ghostToLocal = other.ghostToLocal, v.ghostToLocal
	v.lease.swap(&other.lease)
}

// Initialized reports whether the vector has storage.
func (v *Vector[T]) Initialized() bool { return v.initialized }

// Closed reports whether the vector is assembled.
func (v *Vector[T]) Closed() bool { return v.closed }

// Kind returns the partition kind chosen at Init.
func (v *Vector[T]) Kind() PartitionKind { return v.kind }

// Size returns the global size, or 0 when uninitialized.
func (v *Vector[T]) Size() int {
	if !v.initialized {
		return 0
	}
	return v.handle.GlobalSize()
}

// LocalSize returns the number of owned entries, or 0 when
// uninitialized.
func (v *Vector[T]) LocalSize() int {
	if !v.initialized {
		return 0
	}
	return v.handle.LocalSize()
}

// FirstLocalIndex returns the first owned global index. Uses the
// lease-cached range when one is live.
func (v *Vector[T]) FirstLocalIndex() int {
	if !v.initialized {
		return 0
	}
	if first, _, ok := v.lease.cachedRange(); ok {
		return first
	}
	first, _ := v.handle.OwnershipRange()
	return first
}

// LastLocalIndex returns one past the last owned global index. Uses
// the lease-cached range when one is live.
func (v *Vector[T]) LastLocalIndex() int {
	if !v.initialized {
		return 0
	}
	if _, last, ok := v.lease.cachedRange(); ok {
		return last
	}
	_, last := v.handle.OwnershipRange()
	return last
}

// Handle exposes the raw engine handle. Advanced use only; the vector
// keeps exclusive ownership, so do not destroy or restructure it.
func (v *Vector[T]) Handle() engine.Handle[T] { return v.handle }

// GetArray hands out the raw read-write local buffer (the local form,
// for ghosted vectors) and marks it manually held: every other vector
// operation fails with ErrConcurrentArrayAccess until RestoreArray.
func (v *Vector[T]) GetArray() ([]T, error) {
	if !v.initialized {
		return nil, ErrNotInitialized
	}
	return v.lease.manualAcquire(v.handle, v.kind == PartitionGhosted, false)
}

// GetArrayRead is GetArray with a read-only view. Multiple readers may
// hold it simultaneously.
func (v *Vector[T]) GetArrayRead() ([]T, error) {
	if !v.initialized {
		return nil, ErrNotInitialized
	}
	return v.lease.manualAcquire(v.handle, v.kind == PartitionGhosted, true)
}

// RestoreArray releases a manual hold and returns the buffer to the
// engine. Must be called after GetArray or GetArrayRead before any
// other operation on the vector.
func (v *Vector[T]) RestoreArray() error {
	if !v.initialized {
		return ErrNotInitialized
	}
	return v.lease.manualRestore(v.handle)
}
