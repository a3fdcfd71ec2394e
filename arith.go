package distvec

import (
	"time"

	"github.com/hupe1980/distvec/engine"
	"github.com/hupe1980/distvec/matrix"
	"github.com/hupe1980/distvec/scalar"
)

// Get returns the entry at global index i. The index must be owned or
// ghosted on this rank. Acquires (and keeps) a read-only lease on the
// local buffer; the next mutating operation returns it.
func (v *Vector[T]) Get(i int) (T, error) {
	var zero T
	if !v.initialized {
		return zero, ErrNotInitialized
	}
	if err := v.lease.acquire(v.handle, v.kind == PartitionGhosted, true); err != nil {
		return zero, err
	}
	slot, err := v.GlobalToLocal(i)
	if err != nil {
		return zero, err
	}
	return v.lease.buffer(v.kind == PartitionGhosted)[slot], nil
}

// GetMany returns the entries at the given global indices, amortizing
// the buffer acquisition over the whole batch instead of paying it per
// element.
func (v *Vector[T]) GetMany(indices []int) ([]T, error) {
	if !v.initialized {
		return nil, ErrNotInitialized
	}
	ghosted := v.kind == PartitionGhosted
	if err := v.lease.acquire(v.handle, ghosted, true); err != nil {
		return nil, err
	}
	buf := v.lease.buffer(ghosted)
	out := make([]T, len(indices))
	for k, i := range indices {
		slot, err := v.GlobalToLocal(i)
		if err != nil {
			return nil, err
		}
		out[k] = buf[slot]
	}
	return out, nil
}

// Set stores value at global index i. Values aimed at entries owned by
// another rank are routed there at the next Close. Leaves the vector
// open.
func (v *Vector[T]) Set(i int, value T) error {
	return v.setValues([]int{i}, []T{value}, engine.Insert)
}

// Add accumulates value into global index i. Off-owner contributions
// are routed at the next Close. Leaves the vector open.
func (v *Vector[T]) Add(i int, value T) error {
	return v.setValues([]int{i}, []T{value}, engine.Add)
}

// InsertValues stores values[k] at global index indices[k] for each k.
// Leaves the vector open.
func (v *Vector[T]) InsertValues(values []T, indices []int) error {
	if len(values) != len(indices) {
		return &ErrDimensionMismatch{Expected: len(indices), Actual: len(values)}
	}
	return v.setValues(indices, values, engine.Insert)
}

// AddValues accumulates values[k] into global index indices[k] for
// each k. Leaves the vector open.
func (v *Vector[T]) AddValues(values []T, indices []int) error {
	if len(values) != len(indices) {
		return &ErrDimensionMismatch{Expected: len(indices), Actual: len(values)}
	}
	return v.setValues(indices, values, engine.Add)
}

func (v *Vector[T]) setValues(indices []int, values []T, mode engine.InsertMode) error {
	if !v.initialized {
		return ErrNotInitialized
	}
	start := time.Now()
	err := func() error {
		if err := v.lease.restore(v.handle); err != nil {
			return err
		}
		if err := v.handle.SetValues(indices, values, mode); err != nil {
			return wrapEngine("set values", err)
		}
		v.closed = false
		return nil
	}()
	v.metrics.RecordMutation(time.Since(start), err)
	return err
}

// SetAll assigns s to every entry.
func (v *Vector[T]) SetAll(s T) error {
	return v.mutate("set all", func() error { return v.handle.SetAll(s) })
}

// AddScalar adds s to every owned entry.
func (v *Vector[T]) AddScalar(s T) error {
	return v.mutate("shift", func() error { return v.handle.Shift(s) })
}

// Scale multiplies every owned entry by factor.
func (v *Vector[T]) Scale(factor T) error {
	return v.mutate("scale", func() error { return v.handle.Scale(factor) })
}

// Reciprocal replaces every owned entry x with 1/x.
func (v *Vector[T]) Reciprocal() error {
	return v.mutate("reciprocal", func() error { return v.handle.Reciprocal() })
}

// Conjugate negates the imaginary part of every owned entry. No-op
// for real scalars.
func (v *Vector[T]) Conjugate() error {
	return v.mutate("conjugate", func() error { return v.handle.Conjugate() })
}

// Abs replaces every owned entry with its absolute value (modulus for
// complex scalars).
func (v *Vector[T]) Abs() error {
	return v.mutate("abs", func() error { return v.handle.Abs() })
}

// AddVector adds other elementwise into this vector.
func (v *Vector[T]) AddVector(other *Vector[T]) error {
	return v.AddScaled(scalar.FromReal[T](1), other)
}

// AddScaled adds alpha*other elementwise into this vector.
func (v *Vector[T]) AddScaled(alpha T, other *Vector[T]) error {
	if err := v.conformable(other); err != nil {
		return err
	}
	if err := other.lease.restore(other.handle); err != nil {
		return err
	}
	return v.mutate("axpy", func() error { return v.handle.AXPY(alpha, other.handle) })
}

// CopyFrom assigns other's values to this vector. Both vectors keep
// their own partition; global sizes must match.
func (v *Vector[T]) CopyFrom(other *Vector[T]) error {
	if err := v.conformable(other); err != nil {
		return err
	}
	if err := other.lease.restore(other.handle); err != nil {
		return err
	}
	return v.mutate("copy", func() error { return other.handle.Copy(v.handle) })
}

// PointwiseMult assigns a(i)*b(i) to every owned entry of this vector.
func (v *Vector[T]) PointwiseMult(a, b *Vector[T]) error {
	if err := v.conformable(a); err != nil {
		return err
	}
	if err := v.conformable(b); err != nil {
		return err
	}
	if err := a.lease.restore(a.handle); err != nil {
		return err
	}
	if err := b.lease.restore(b.handle); err != nil {
		return err
	}
	return v.mutate("pointwise mult", func() error { return v.handle.PointwiseMult(a.handle, b.handle) })
}

// mutate is the shared skeleton of elementwise mutating operations:
// hand the buffer back to the engine, run the engine op, record the
// outcome.
func (v *Vector[T]) mutate(op string, fn func() error) error {
	if !v.initialized {
		return ErrNotInitialized
	}
	start := time.Now()
	err := func() error {
		if err := v.lease.restore(v.handle); err != nil {
			return err
		}
		return wrapEngine(op, fn())
	}()
	v.metrics.RecordMutation(time.Since(start), err)
	return err
}

// conformable checks that other exists and has the same global size.
func (v *Vector[T]) conformable(other *Vector[T]) error {
	if !v.initialized || !other.initialized {
		return ErrNotInitialized
	}
	if v.handle.GlobalSize() != other.handle.GlobalSize() {
		return &ErrDimensionMismatch{Expected: v.handle.GlobalSize(), Actual: other.handle.GlobalSize()}
	}
	return nil
}

// Min returns the minimum entry across all ranks (minimum real part
// for complex scalars). Collective.
func (v *Vector[T]) Min() (float64, error) {
	return v.reduceReal("min", func() (float64, error) { return v.handle.Min() })
}

// Max returns the maximum entry across all ranks (maximum real part
// for complex scalars). Collective.
func (v *Vector[T]) Max() (float64, error) {
	return v.reduceReal("max", func() (float64, error) { return v.handle.Max() })
}

// L1Norm returns the sum of absolute values across all ranks.
// Collective.
func (v *Vector[T]) L1Norm() (float64, error) {
	return v.reduceReal("l1 norm", func() (float64, error) { return v.handle.Norm(engine.Norm1) })
}

// L2Norm returns the Euclidean norm across all ranks. Collective.
func (v *Vector[T]) L2Norm() (float64, error) {
	return v.reduceReal("l2 norm", func() (float64, error) { return v.handle.Norm(engine.Norm2) })
}

// LinftyNorm returns the maximum absolute value across all ranks.
// Collective.
func (v *Vector[T]) LinftyNorm() (float64, error) {
	return v.reduceReal("linfty norm", func() (float64, error) { return v.handle.Norm(engine.NormInf) })
}

// Sum returns the sum of all entries across all ranks. Collective.
func (v *Vector[T]) Sum() (T, error) {
	var zero T
	if !v.initialized {
		return zero, ErrNotInitialized
	}
	start := time.Now()
	s, err := func() (T, error) {
		if err := v.lease.restore(v.handle); err != nil {
			return zero, err
		}
		s, err := v.handle.Sum()
		return s, wrapEngine("sum", err)
	}()
	v.metrics.RecordReduction(time.Since(start), err)
	return s, err
}

// Dot returns the inner product with other, conjugating other's
// entries for complex scalars. Collective.
func (v *Vector[T]) Dot(other *Vector[T]) (T, error) {
	return v.dot(other, true)
}

// IndefiniteDot returns the unconjugated inner product with other.
// Coincides with Dot for real scalars. Collective.
func (v *Vector[T]) IndefiniteDot(other *Vector[T]) (T, error) {
	return v.dot(other, false)
}

func (v *Vector[T]) dot(other *Vector[T], conjugate bool) (T, error) {
	var zero T
	if err := v.conformable(other); err != nil {
		return zero, err
	}
	start := time.Now()
	d, err := func() (T, error) {
		if err := v.lease.restore(v.handle); err != nil {
			return zero, err
		}
		if err := other.lease.restore(other.handle); err != nil {
			return zero, err
		}
		d, err := v.handle.Dot(other.handle, conjugate)
		return d, wrapEngine("dot", err)
	}()
	v.metrics.RecordReduction(time.Since(start), err)
	return d, err
}

// reduceReal is the shared skeleton of real-valued collective
// reductions: restore the lease — the engine reduces over its own
// buffer, not the cached view — then delegate.
func (v *Vector[T]) reduceReal(op string, fn func() (float64, error)) (float64, error) {
	if !v.initialized {
		return 0, ErrNotInitialized
	}
	start := time.Now()
	r, err := func() (float64, error) {
		if err := v.lease.restore(v.handle); err != nil {
			return 0, err
		}
		r, err := fn()
		return r, wrapEngine(op, err)
	}()
	v.metrics.RecordReduction(time.Since(start), err)
	return r, err
}

// AddMatVec accumulates A*x into this vector. Collective.
func (v *Vector[T]) AddMatVec(a matrix.Matrix[T], x *Vector[T]) error {
	return v.matVec("matvec", a.MultAdd, x)
}

// AddMatVecTranspose accumulates Aᵀ*x into this vector. Collective.
func (v *Vector[T]) AddMatVecTranspose(a matrix.Matrix[T], x *Vector[T]) error {
	return v.matVec("matvec transpose", a.MultTransposeAdd, x)
}

// AddMatVecConjTranspose accumulates Aᴴ*x into this vector.
// Collective.
func (v *Vector[T]) AddMatVecConjTranspose(a matrix.Matrix[T], x *Vector[T]) error {
	return v.matVec("matvec conjugate transpose", a.MultHermitianTransposeAdd, x)
}

func (v *Vector[T]) matVec(op string, mult func(x, dst engine.Handle[T]) error, x *Vector[T]) error {
	if !v.initialized || !x.initialized {
		return ErrNotInitialized
	}
	if err := x.lease.restore(x.handle); err != nil {
		return err
	}
	return v.mutate(op, func() error { return mult(x.handle, v.handle) })
}
