package distvec

import (
	"time"

	"github.com/hupe1980/distvec/engine"
)

// Localize gathers a copy of the full global vector onto every rank.
// Collective.
func (v *Vector[T]) Localize() ([]T, error) {
	if !v.initialized {
		return nil, ErrNotInitialized
	}
	start := time.Now()
	out, err := func() ([]T, error) {
		if err := v.lease.restore(v.handle); err != nil {
			return nil, err
		}
		out, err := v.handle.GatherAll()
		return out, wrapEngine("localize", err)
	}()
	v.metrics.RecordLocalize(len(out), time.Since(start), err)
	v.logger.LogLocalize(len(out), err)
	return out, err
}

// LocalizeIndices gathers the entries at the given global indices onto
// every rank, in the order given. Collective.
func (v *Vector[T]) LocalizeIndices(indices []int) ([]T, error) {
	full, err := v.Localize()
	if err != nil {
		return nil, err
	}
	out := make([]T, len(indices))
	for k, i := range indices {
		if i < 0 || i >= len(full) {
			return nil, &engine.ErrIndexOutOfRange{Index: i, GlobalSize: len(full)}
		}
		out[k] = full[i]
	}
	return out, nil
}

// LocalizeToOne gathers a copy of the full global vector onto rank
// root only; every other rank receives nil. Useful for writing output
// from a single rank. Collective.
func (v *Vector[T]) LocalizeToOne(root int) ([]T, error) {
	if !v.initialized {
		return nil, ErrNotInitialized
	}
	start := time.Now()
	out, err := func() ([]T, error) {
		if err := v.lease.restore(v.handle); err != nil {
			return nil, err
		}
		out, err := v.handle.GatherTo(root)
		return out, wrapEngine("localize to one", err)
	}()
	v.metrics.RecordLocalize(len(out), time.Since(start), err)
	return out, err
}

// Subvector gathers the entries at rows into a new serial vector
// replicated on every rank. Collective.
func (v *Vector[T]) Subvector(rows []int) (*Vector[T], error) {
	vals, err := v.LocalizeIndices(rows)
	if err != nil {
		return nil, err
	}

	sub := New(v.eng, WithLogger(v.logger), WithMetrics(v.metrics))
	if err := sub.Init(len(rows), len(rows), WithoutZeroFill()); err != nil {
		return nil, err
	}

	indices := make([]int, len(rows))
	for k := range indices {
		indices[k] = k
	}
	if err := sub.InsertValues(vals, indices); err != nil {
		return nil, err
	}
	if err := sub.Close(); err != nil {
		return nil, err
	}
	return sub, nil
}
