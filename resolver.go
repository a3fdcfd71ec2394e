package distvec

import (
	"maps"
	"slices"
)

// GlobalToLocal maps a global index to its slot in the local buffer.
// Owned indices resolve by subtraction; ghost indices fall back to the
// ghost map and land after the owned block. The range check runs
// first so the common case never touches the map.
func (v *Vector[T]) GlobalToLocal(i int) (int, error) {
	if !v.initialized {
		return 0, ErrNotInitialized
	}

	first, last, ok := v.lease.cachedRange()
	if !ok {
		first, last = v.handle.OwnershipRange()
	}

	if i >= first && i < last {
		return i - first, nil
	}

	if slot, ok := v.ghostToLocal[i]; ok {
		return slot + (last - first), nil
	}

	return 0, &ErrIndexNotOwnedOrGhosted{
		Index:  i,
		First:  first,
		Last:   last,
		Ghosts: v.GhostIndices(),
	}
}

// GhostIndices returns the global indices this rank mirrors as ghosts,
// in ascending order. Empty for non-ghosted vectors.
func (v *Vector[T]) GhostIndices() []int {
	if len(v.ghostToLocal) == 0 {
		return nil
	}
	return slices.Sorted(maps.Keys(v.ghostToLocal))
}
