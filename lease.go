package distvec

import (
	"sync"
	"sync/atomic"

	"github.com/hupe1980/distvec/engine"
	"github.com/hupe1980/distvec/scalar"
)

// arrayLease brokers access to the engine's contiguous local buffer.
// It caches the buffer across chained read accesses so a run of Get
// calls costs one engine acquisition, and returns it to the engine
// before any operation that needs the engine to own the buffer again.
//
// The mutex covers only the presence-flag transitions; once acquired,
// any number of goroutines may read through the cached views
// concurrently. The presence flag itself is atomic so fast-path reads
// of cached range metadata need no lock.
type arrayLease[T scalar.Scalar] struct {
	mu      sync.Mutex
	present atomic.Bool

	readOnly     bool
	manuallyHeld bool

	// values is the owned-block view; localForm is the owned+ghost
	// view of a ghosted vector. Two separate views, one presence flag.
	values    []T
	localForm []T

	// Ownership metadata recorded at acquisition time. Only trusted
	// while the lease is live: the engine may relocate its buffer
	// across a restore+mutate cycle.
	first int
	last  int
}

// acquire obtains the buffer from the engine unless it is already
// cached. A cached lease is never escalated from read-only to
// read-write; that path must restore first.
func (l *arrayLease[T]) acquire(h engine.Handle[T], ghosted, readOnly bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.acquireLocked(h, ghosted, readOnly)
}

func (l *arrayLease[T]) acquireLocked(h engine.Handle[T], ghosted, readOnly bool) error {
	if l.present.Load() {
		if !readOnly && (l.manuallyHeld || l.readOnly) {
			return ErrConcurrentArrayAccess
		}
		return nil
	}

	values, err := h.GetArray(readOnly)
	if err != nil {
		return wrapEngine("get array", err)
	}
	l.values = values

	if ghosted {
		lf, err := h.LocalForm()
		if err != nil {
			_ = h.RestoreArray()
			l.values = nil
			return wrapEngine("get local form", err)
		}
		l.localForm = lf
	}

	l.first, l.last = h.OwnershipRange()
	l.readOnly = readOnly
	l.present.Store(true)
	return nil
}

// restore returns the buffer to the engine. No-op when nothing is
// cached. Fails while the buffer is manually held: the caller owns the
// release in that mode.
func (l *arrayLease[T]) restore(h engine.Handle[T]) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.manuallyHeld {
		return ErrConcurrentArrayAccess
	}
	return l.restoreLocked(h)
}

func (l *arrayLease[T]) restoreLocked(h engine.Handle[T]) error {
	if !l.present.Load() {
		return nil
	}

	if l.localForm != nil {
		if err := h.RestoreLocalForm(); err != nil {
			return wrapEngine("restore local form", err)
		}
		l.localForm = nil
	}
	if err := h.RestoreArray(); err != nil {
		return wrapEngine("restore array", err)
	}
	l.values = nil
	l.readOnly = false
	l.present.Store(false)
	return nil
}

// forceRestore clears a manual hold and returns the buffer. Teardown
// only: the storage is going away, so the hold cannot outlive it.
func (l *arrayLease[T]) forceRestore(h engine.Handle[T]) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.manuallyHeld = false
	return l.restoreLocked(h)
}

// manualAcquire backs GetArray/GetArrayRead: same caching as acquire,
// plus the manual-hold flag that shifts release responsibility to the
// caller.
func (l *arrayLease[T]) manualAcquire(h engine.Handle[T], ghosted, readOnly bool) ([]T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.acquireLocked(h, ghosted, readOnly); err != nil {
		return nil, err
	}
	l.manuallyHeld = true
	return l.bufferLocked(ghosted), nil
}

// manualRestore backs RestoreArray. The hold flag drops before the
// engine restore, matching the order the engine contract requires.
func (l *arrayLease[T]) manualRestore(h engine.Handle[T]) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.manuallyHeld = false
	return l.restoreLocked(h)
}

// buffer returns the element-access view: the local form when ghosted,
// the owned block otherwise. Valid only while the lease is present.
func (l *arrayLease[T]) buffer(ghosted bool) []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bufferLocked(ghosted)
}

func (l *arrayLease[T]) bufferLocked(ghosted bool) []T {
	if ghosted {
		return l.localForm
	}
	return l.values
}

// cachedRange returns the ownership range recorded at acquisition;
// ok is false when no lease is live.
func (l *arrayLease[T]) cachedRange() (first, last int, ok bool) {
	if !l.present.Load() {
		return 0, 0, false
	}
	return l.first, l.last, true
}

// swap exchanges lease state with other. Not thread-safe; callers
// serialize swaps externally, as with the storage swap itself.
func (l *arrayLease[T]) swap(other *arrayLease[T]) {
	l.readOnly, other.readOnly = other.readOnly, l.readOnly
	l.manuallyHeld, other.manuallyHeld = other.manuallyHeld, l.manuallyHeld
	l.values, other.values = other.values, l.values
	l.localForm, other.localForm = other.localForm, l.localForm
	l.first, other.first = other.first, l.first
	l.last, other.last = other.last, l.last

	p := l.present.Load()
	l.present.Store(other.present.Load())
	other.present.Store(p)
}
