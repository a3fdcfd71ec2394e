// Package distvec provides a distributed dense numeric vector for Go.
//
// A Vector partitions its entries across the ranks of a group: every
// rank owns one contiguous slice of the global index space and may
// mirror selected non-owned entries as ghost values, refreshed at
// explicit synchronization points. The package supplies:
//
//   - Lifecycle management: Init/InitFrom/Close/Clear/Zero/Clone/Swap
//     over serial, partitioned and ghosted layouts
//   - O(1) global-to-local index resolution with a hashed ghost-map
//     fallback
//   - A lazy, lease-based cache of the engine's raw local buffer,
//     safe for concurrent read access
//   - Elementwise arithmetic, collective reductions (min/max/sum,
//     l1/l2/linfty norms, conjugated and unconjugated dot products)
//     and matrix-vector accumulation
//   - Localization (gather to one or all ranks) and debug/export
//     output through the dump package
//
// Storage itself lives behind the engine.Engine contract; the
// in-process reference engine runs ranks as goroutines, which makes
// multi-rank behavior testable inside one process.
//
// # Quick start
//
//	err := comm.Run(2, func(c *comm.Communicator) error {
//	    eng := engine.NewInProc[float64](c)
//	    v, err := distvec.NewPartitioned(eng, 10, 5)
//	    if err != nil {
//	        return err
//	    }
//	    defer v.Clear()
//
//	    if err := v.AddScalar(1); err != nil {
//	        return err
//	    }
//	    if err := v.Close(); err != nil {
//	        return err
//	    }
//	    sum, err := v.Sum() // 10 on every rank
//	    ...
//	})
//
// Collective operations (Close, Zero on ghosted vectors, reductions,
// the Localize family) must be called by every rank of the group in
// the same relative order; a rank that skips one leaves the others
// blocked. Within one rank, concurrent readers are safe; concurrent
// mutation of one vector needs external synchronization.
package distvec
