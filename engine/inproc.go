package engine

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sort"
	"unsafe"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/hupe1980/distvec/comm"
	"github.com/hupe1980/distvec/resource"
	"github.com/hupe1980/distvec/scalar"
)

// Options configures the in-process engine.
type Options struct {
	// Resources accounts and limits buffer memory. Nil disables
	// accounting.
	Resources *resource.Controller

	// Logger receives debug-level allocation events. Nil discards.
	Logger *slog.Logger
}

// InProc is the reference Engine implementation: ranks are goroutines
// of one comm group and every collective is a rendezvous on that
// group. It trades wire efficiency for clarity — ghost updates and
// gathers exchange whole owned blocks — which is exactly what the
// contract allows an engine to do.
type InProc[T scalar.Scalar] struct {
	comm   *comm.Communicator
	res    *resource.Controller
	logger *slog.Logger
}

// NewInProc creates an in-process engine bound to c.
func NewInProc[T scalar.Scalar](c *comm.Communicator, optFns ...func(*Options)) *InProc[T] {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &InProc[T]{
		comm:   c,
		res:    opts.Resources,
		logger: logger,
	}
}

// Comm returns the communicator the engine creates partitioned
// storage on.
func (e *InProc[T]) Comm() *comm.Communicator { return e.comm }

// stashEntry is one off-owner value waiting for assembly.
type stashEntry[T scalar.Scalar] struct {
	Index int
	Value T
	Mode  InsertMode
}

// ownedBlock carries one rank's owned values through a collective
// exchange.
type ownedBlock[T scalar.Scalar] struct {
	First int
	Vals  []T
}

type vec[T scalar.Scalar] struct {
	eng  *InProc[T]
	comm *comm.Communicator

	nGlobal int
	nLocal  int
	first   int
	last    int

	// offsets[r] is the first owned index of rank r; len = size+1,
	// offsets[size] == nGlobal. Immutable after create.
	offsets []int

	ghosted  bool
	ghosts   []int // global ghost indices, slot order; immutable
	ghostSet *roaring64.Bitmap

	// data holds the local form: owned block first, ghost slots after.
	data []T

	stash []stashEntry[T]

	destroyed bool
}

func (e *InProc[T]) CreateSerial(n int) (Handle[T], error) {
	if n < 0 {
		return nil, fmt.Errorf("negative size %d", n)
	}
	v := &vec[T]{
		eng:     e,
		comm:    comm.Self(),
		nGlobal: n,
		nLocal:  n,
		first:   0,
		last:    n,
		offsets: []int{0, n},
	}
	if err := v.alloc(n); err != nil {
		return nil, err
	}
	e.logger.Debug("created serial vector", "size", n)
	return v, nil
}

func (e *InProc[T]) CreatePartitioned(nLocal, nGlobal int) (Handle[T], error) {
	return e.create(nLocal, nGlobal, nil, false)
}

func (e *InProc[T]) CreateGhosted(nLocal, nGlobal int, ghosts []int) (Handle[T], error) {
	return e.create(nLocal, nGlobal, ghosts, true)
}

func (e *InProc[T]) create(nLocal, nGlobal int, ghosts []int, ghosted bool) (Handle[T], error) {
	locals := comm.AllGather(e.comm, nLocal)

	offsets := make([]int, len(locals)+1)
	for r, n := range locals {
		offsets[r+1] = offsets[r] + n
	}
	if offsets[len(locals)] != nGlobal {
		return nil, &ErrBadPartition{SumLocal: offsets[len(locals)], GlobalSize: nGlobal}
	}

	v := &vec[T]{
		eng:     e,
		comm:    e.comm,
		nGlobal: nGlobal,
		nLocal:  nLocal,
		first:   offsets[e.comm.Rank()],
		last:    offsets[e.comm.Rank()+1],
		offsets: offsets,
		ghosted: ghosted,
	}

	if ghosted {
		v.ghosts = slices.Clone(ghosts)
		v.ghostSet = roaring64.New()
		for _, g := range ghosts {
			if g < 0 || g >= nGlobal {
				return nil, &ErrIndexOutOfRange{Index: g, GlobalSize: nGlobal}
			}
			if g >= v.first && g < v.last {
				return nil, fmt.Errorf("ghost index %d is owned by this rank [%d,%d)", g, v.first, v.last)
			}
			if v.ghostSet.Contains(uint64(g)) {
				return nil, fmt.Errorf("duplicate ghost index %d", g)
			}
			v.ghostSet.Add(uint64(g))
		}
	}

	if err := v.alloc(nLocal + len(v.ghosts)); err != nil {
		return nil, err
	}

	e.logger.Debug("created partitioned vector",
		"rank", e.comm.Rank(),
		"global_size", nGlobal,
		"local_size", nLocal,
		"ghosts", len(v.ghosts),
	)
	return v, nil
}

func (v *vec[T]) alloc(n int) error {
	var zero T
	bytes := int64(n) * int64(unsafe.Sizeof(zero))
	if !v.eng.res.TryAcquireMemory(bytes) {
		return ErrMemoryLimit
	}
	v.data = make([]T, n)
	return nil
}

func (v *vec[T]) Destroy() error {
	if v.destroyed {
		return nil
	}
	var zero T
	v.eng.res.ReleaseMemory(int64(len(v.data)) * int64(unsafe.Sizeof(zero)))
	v.destroyed = true
	v.data = nil
	v.stash = nil
	return nil
}

func (v *vec[T]) GlobalSize() int            { return v.nGlobal }
func (v *vec[T]) LocalSize() int             { return v.nLocal }
func (v *vec[T]) OwnershipRange() (int, int) { return v.first, v.last }
func (v *vec[T]) Ghosted() bool              { return v.ghosted }
func (v *vec[T]) GhostIndices() []int        { return slices.Clone(v.ghosts) }

func (v *vec[T]) GetArray(readOnly bool) ([]T, error) {
	_ = readOnly // the lease layer enforces the read/write discipline
	return v.data[:v.nLocal:v.nLocal], nil
}

func (v *vec[T]) RestoreArray() error { return nil }

func (v *vec[T]) LocalForm() ([]T, error) {
	if !v.ghosted {
		return nil, ErrNotGhosted
	}
	return v.data, nil
}

func (v *vec[T]) RestoreLocalForm() error { return nil }

func (v *vec[T]) SetValues(indices []int, values []T, mode InsertMode) error {
	if len(indices) != len(values) {
		return fmt.Errorf("index count %d does not match value count %d", len(indices), len(values))
	}
	for k, i := range indices {
		if i < 0 || i >= v.nGlobal {
			return &ErrIndexOutOfRange{Index: i, GlobalSize: v.nGlobal}
		}
		if i >= v.first && i < v.last {
			if mode == Add {
				v.data[i-v.first] += values[k]
			} else {
				v.data[i-v.first] = values[k]
			}
			continue
		}
		v.stash = append(v.stash, stashEntry[T]{Index: i, Value: values[k], Mode: mode})
	}
	return nil
}

func (v *vec[T]) SetAll(s T) error {
	for i := range v.data {
		v.data[i] = s
	}
	return nil
}

// AssemblyBegin routes stashed off-owner values to their owners.
// Entries are applied in rank order, then in deposit order; the
// relative order of conflicting inserts from different ranks is
// unspecified, as with any assembly protocol.
func (v *vec[T]) AssemblyBegin() error {
	stashes := comm.AllGather(v.comm, v.stash)
	for _, st := range stashes {
		for _, e := range st {
			if e.Index < v.first || e.Index >= v.last {
				continue
			}
			if e.Mode == Add {
				v.data[e.Index-v.first] += e.Value
			} else {
				v.data[e.Index-v.first] = e.Value
			}
		}
	}
	v.stash = nil
	return nil
}

func (v *vec[T]) AssemblyEnd() error {
	v.comm.Barrier()
	return nil
}

// GhostUpdateBegin refreshes every ghost slot from its owner's current
// value.
func (v *vec[T]) GhostUpdateBegin() error {
	if !v.ghosted {
		return nil
	}
	blocks := comm.AllGather(v.comm, ownedBlock[T]{First: v.first, Vals: slices.Clone(v.data[:v.nLocal])})
	for k, g := range v.ghosts {
		r := v.owner(g)
		v.data[v.nLocal+k] = blocks[r].Vals[g-blocks[r].First]
	}
	return nil
}

func (v *vec[T]) GhostUpdateEnd() error {
	if !v.ghosted {
		return nil
	}
	v.comm.Barrier()
	return nil
}

// owner returns the rank owning global index i.
func (v *vec[T]) owner(i int) int {
	return sort.Search(len(v.offsets)-1, func(r int) bool { return v.offsets[r+1] > i })
}

func (v *vec[T]) Scale(factor T) error {
	for i := range v.data[:v.nLocal] {
		v.data[i] *= factor
	}
	return nil
}

func (v *vec[T]) Shift(s T) error {
	for i := range v.data[:v.nLocal] {
		v.data[i] += s
	}
	return nil
}

func (v *vec[T]) AXPY(alpha T, x Handle[T]) error {
	xv, err := v.sibling(x)
	if err != nil {
		return err
	}
	for i := range v.data[:v.nLocal] {
		v.data[i] += alpha * xv.data[i]
	}
	return nil
}

func (v *vec[T]) PointwiseMult(a, b Handle[T]) error {
	av, err := v.sibling(a)
	if err != nil {
		return err
	}
	bv, err := v.sibling(b)
	if err != nil {
		return err
	}
	for i := range v.data[:v.nLocal] {
		v.data[i] = av.data[i] * bv.data[i]
	}
	return nil
}

func (v *vec[T]) Reciprocal() error {
	for i, x := range v.data[:v.nLocal] {
		v.data[i] = scalar.Inv(x)
	}
	return nil
}

func (v *vec[T]) Conjugate() error {
	// Conjugation is the identity on real scalars.
	if !scalar.IsComplex[T]() {
		return nil
	}
	for i, x := range v.data[:v.nLocal] {
		v.data[i] = scalar.Conj(x)
	}
	return nil
}

func (v *vec[T]) Abs() error {
	for i, x := range v.data[:v.nLocal] {
		v.data[i] = scalar.AbsValue(x)
	}
	return nil
}

func (v *vec[T]) Copy(dst Handle[T]) error {
	dv, err := v.sibling(dst)
	if err != nil {
		return err
	}
	copy(dv.data[:dv.nLocal], v.data[:v.nLocal])
	if v.ghosted && dv.ghosted && len(v.ghosts) == len(dv.ghosts) {
		copy(dv.data[dv.nLocal:], v.data[v.nLocal:])
	}
	return nil
}

func (v *vec[T]) Min() (float64, error) {
	m := math.Inf(1)
	for _, x := range v.data[:v.nLocal] {
		if r := scalar.Real(x); r < m {
			m = r
		}
	}
	return comm.MinFloat64(v.comm, m), nil
}

func (v *vec[T]) Max() (float64, error) {
	m := math.Inf(-1)
	for _, x := range v.data[:v.nLocal] {
		if r := scalar.Real(x); r > m {
			m = r
		}
	}
	return comm.MaxFloat64(v.comm, m), nil
}

func (v *vec[T]) Sum() (T, error) {
	var s T
	for _, x := range v.data[:v.nLocal] {
		s += x
	}
	return comm.Sum(v.comm, s), nil
}

func (v *vec[T]) Norm(kind Norm) (float64, error) {
	var local float64
	switch kind {
	case Norm1:
		for _, x := range v.data[:v.nLocal] {
			local += scalar.Abs(x)
		}
		return comm.Sum(v.comm, local), nil
	case Norm2:
		for _, x := range v.data[:v.nLocal] {
			a := scalar.Abs(x)
			local += a * a
		}
		return math.Sqrt(comm.Sum(v.comm, local)), nil
	case NormInf:
		for _, x := range v.data[:v.nLocal] {
			if a := scalar.Abs(x); a > local {
				local = a
			}
		}
		return comm.MaxFloat64(v.comm, local), nil
	default:
		return 0, fmt.Errorf("unknown norm kind %d", kind)
	}
}

func (v *vec[T]) Dot(other Handle[T], conjugate bool) (T, error) {
	ov, err := v.sibling(other)
	if err != nil {
		var zero T
		return zero, err
	}
	var local T
	for i, x := range v.data[:v.nLocal] {
		y := ov.data[i]
		if conjugate {
			y = scalar.Conj(y)
		}
		local += x * y
	}
	return comm.Sum(v.comm, local), nil
}

func (v *vec[T]) Duplicate() (Handle[T], error) {
	d := &vec[T]{
		eng:      v.eng,
		comm:     v.comm,
		nGlobal:  v.nGlobal,
		nLocal:   v.nLocal,
		first:    v.first,
		last:     v.last,
		offsets:  v.offsets,
		ghosted:  v.ghosted,
		ghosts:   v.ghosts,
		ghostSet: v.ghostSet,
	}
	if err := d.alloc(len(v.data)); err != nil {
		return nil, err
	}
	return d, nil
}

func (v *vec[T]) GatherAll() ([]T, error) {
	if v.comm.Size() == 1 {
		return slices.Clone(v.data[:v.nLocal]), nil
	}
	blocks := comm.AllGather(v.comm, slices.Clone(v.data[:v.nLocal]))
	out := make([]T, 0, v.nGlobal)
	for _, b := range blocks {
		out = append(out, b...)
	}
	return out, nil
}

func (v *vec[T]) GatherTo(root int) ([]T, error) {
	if v.comm.Size() == 1 {
		return slices.Clone(v.data[:v.nLocal]), nil
	}
	blocks := comm.Gather(v.comm, root, slices.Clone(v.data[:v.nLocal]))
	if blocks == nil {
		return nil, nil
	}
	out := make([]T, 0, v.nGlobal)
	for _, b := range blocks {
		out = append(out, b...)
	}
	return out, nil
}

// sibling checks that other is an in-process handle with the same
// shape on the same group.
func (v *vec[T]) sibling(other Handle[T]) (*vec[T], error) {
	ov, ok := other.(*vec[T])
	if !ok {
		return nil, ErrForeignHandle
	}
	if ov.nGlobal != v.nGlobal || ov.first != v.first || ov.last != v.last {
		return nil, ErrForeignHandle
	}
	return ov, nil
}
