// Package comm provides the process-coordination layer for distributed
// vectors: a fixed-size group of cooperating ranks with collective
// operations (barrier, all-gather, all-reduce, broadcast, gather).
//
// Ranks are modeled as goroutines sharing a rendezvous structure. A
// collective blocks until every rank of the group has entered the same
// call; a rank that never arrives leaves the others waiting
// indefinitely. That obligation sits with the caller, exactly as it
// does for MPI-style communicators.
package comm

import (
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Communicator identifies one rank inside a group and carries the
// shared rendezvous state for collectives.
type Communicator struct {
	rank int
	w    *world
}

// world is the state shared by all ranks of a group. Collectives run
// as generation-counted rendezvous rounds: each rank deposits its
// contribution, the last arrival publishes the round and bumps the
// generation, earlier arrivals wait on the condition variable.
type world struct {
	size int

	mu      sync.Mutex
	cond    *sync.Cond
	gen     uint64
	arrived int
	slots   []any
	out     []any
}

func newWorld(size int) *world {
	w := &world{
		size:  size,
		slots: make([]any, size),
	}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// exchange is the rendezvous primitive every collective builds on:
// all ranks deposit a value and all receive the full slot slice of the
// same round, indexed by rank.
func (w *world) exchange(rank int, v any) []any {
	w.mu.Lock()
	defer w.mu.Unlock()

	gen := w.gen
	w.slots[rank] = v
	w.arrived++

	if w.arrived == w.size {
		w.out = slices.Clone(w.slots)
		w.arrived = 0
		w.gen++
		w.cond.Broadcast()
		return w.out
	}

	for gen == w.gen {
		w.cond.Wait()
	}
	return w.out
}

// NewGroup creates the communicators of a group of size ranks.
// The returned slice is indexed by rank.
func NewGroup(size int) []*Communicator {
	if size <= 0 {
		panic(fmt.Sprintf("comm: invalid group size %d", size))
	}
	w := newWorld(size)
	cs := make([]*Communicator, size)
	for r := range cs {
		cs[r] = &Communicator{rank: r, w: w}
	}
	return cs
}

// Self returns a single-rank communicator. Collectives on it complete
// immediately; it backs serial vectors.
func Self() *Communicator {
	return NewGroup(1)[0]
}

// Rank returns this communicator's rank in [0, Size()).
func (c *Communicator) Rank() int { return c.rank }

// Size returns the number of ranks in the group.
func (c *Communicator) Size() int { return c.w.size }

// Barrier blocks until every rank of the group has entered it.
func (c *Communicator) Barrier() {
	c.w.exchange(c.rank, nil)
}

// Run spawns size ranks, invoking fn once per rank with that rank's
// communicator, and waits for all of them. The first non-nil error is
// returned. A rank that returns early while others sit in a collective
// deadlocks the group; fn must keep collective call sequences aligned
// across ranks.
func Run(size int, fn func(c *Communicator) error) error {
	cs := NewGroup(size)
	g := new(errgroup.Group)
	for _, c := range cs {
		g.Go(func() error {
			return fn(c)
		})
	}
	return g.Wait()
}
