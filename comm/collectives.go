package comm

// Collective helpers are package-level generic functions because Go
// methods cannot carry their own type parameters.

// AllGather deposits v and returns every rank's contribution, indexed
// by rank. All ranks receive identical contents.
func AllGather[T any](c *Communicator, v T) []T {
	raw := c.w.exchange(c.rank, v)
	out := make([]T, len(raw))
	for i, x := range raw {
		out[i] = x.(T)
	}
	return out
}

// AllReduce combines every rank's contribution with fn (which must be
// associative and commutative) and returns the combined value on all
// ranks.
func AllReduce[T any](c *Communicator, v T, fn func(a, b T) T) T {
	vs := AllGather(c, v)
	acc := vs[0]
	for _, x := range vs[1:] {
		acc = fn(acc, x)
	}
	return acc
}

// Broadcast returns root's contribution on every rank. Non-root ranks
// still pass their (ignored) local value so the rendezvous stays
// symmetric.
func Broadcast[T any](c *Communicator, root int, v T) T {
	return AllGather(c, v)[root]
}

// Gather returns every rank's contribution on root, nil elsewhere.
func Gather[T any](c *Communicator, root int, v T) []T {
	vs := AllGather(c, v)
	if c.rank != root {
		return nil
	}
	return vs
}

// Sum is AllReduce with addition, for the numeric types reductions
// actually use.
func Sum[T interface {
	~int | ~int64 | ~float32 | ~float64 | ~complex64 | ~complex128
}](c *Communicator, v T) T {
	return AllReduce(c, v, func(a, b T) T { return a + b })
}

// MinFloat64 reduces to the minimum across ranks.
func MinFloat64(c *Communicator, v float64) float64 {
	return AllReduce(c, v, func(a, b float64) float64 {
		if a < b {
			return a
		}
		return b
	})
}

// MaxFloat64 reduces to the maximum across ranks.
func MaxFloat64(c *Communicator, v float64) float64 {
	return AllReduce(c, v, func(a, b float64) float64 {
		if a > b {
			return a
		}
		return b
	})
}
