package engine_test

import (
	"math"
	"testing"

	"github.com/hupe1980/distvec/comm"
	"github.com/hupe1980/distvec/engine"
	"github.com/hupe1980/distvec/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSerial(t *testing.T) {
	e := engine.NewInProc[float64](comm.Self())

	h, err := e.CreateSerial(5)
	require.NoError(t, err)
	defer h.Destroy()

	assert.Equal(t, 5, h.GlobalSize())
	assert.Equal(t, 5, h.LocalSize())
	first, last := h.OwnershipRange()
	assert.Equal(t, 0, first)
	assert.Equal(t, 5, last)
	assert.False(t, h.Ghosted())

	_, err = e.CreateSerial(-1)
	assert.Error(t, err)
}

func TestCreatePartitionedOffsets(t *testing.T) {
	err := comm.Run(3, func(c *comm.Communicator) error {
		e := engine.NewInProc[float64](c)

		// Uneven split: 2 + 3 + 4 = 9.
		h, err := e.CreatePartitioned(c.Rank()+2, 9)
		require.NoError(t, err)
		defer h.Destroy()

		first, last := h.OwnershipRange()
		switch c.Rank() {
		case 0:
			assert.Equal(t, 0, first)
			assert.Equal(t, 2, last)
		case 1:
			assert.Equal(t, 2, first)
			assert.Equal(t, 5, last)
		case 2:
			assert.Equal(t, 5, first)
			assert.Equal(t, 9, last)
		}
		assert.Equal(t, c.Rank()+2, h.LocalSize())
		assert.Equal(t, 9, h.GlobalSize())
		return nil
	})
	require.NoError(t, err)
}

func TestCreatePartitionedBadPartition(t *testing.T) {
	err := comm.Run(2, func(c *comm.Communicator) error {
		e := engine.NewInProc[float64](c)

		// 3 + 3 != 7 on every rank, so every rank sees the error and
		// the group stays aligned.
		_, err := e.CreatePartitioned(3, 7)
		var bad *engine.ErrBadPartition
		require.ErrorAs(t, err, &bad)
		assert.Equal(t, 6, bad.SumLocal)
		assert.Equal(t, 7, bad.GlobalSize)
		return nil
	})
	require.NoError(t, err)
}

func TestCreateGhostedValidation(t *testing.T) {
	err := comm.Run(2, func(c *comm.Communicator) error {
		e := engine.NewInProc[float64](c)

		// Out of range on both ranks.
		_, err := e.CreateGhosted(2, 4, []int{9})
		var oor *engine.ErrIndexOutOfRange
		require.ErrorAs(t, err, &oor)
		assert.Equal(t, 9, oor.Index)

		// Ghosting an owned index: rank 0 owns [0,2), rank 1 owns [2,4).
		owned := []int{c.Rank() * 2}
		_, err = e.CreateGhosted(2, 4, owned)
		assert.Error(t, err)

		// Duplicate ghost index.
		dup := 3 - c.Rank()*3 // 3 on rank 0, 0 on rank 1: non-owned on each
		_, err = e.CreateGhosted(2, 4, []int{dup, dup})
		assert.Error(t, err)
		return nil
	})
	require.NoError(t, err)
}

func TestSetValuesAndAssembly(t *testing.T) {
	err := comm.Run(2, func(c *comm.Communicator) error {
		e := engine.NewInProc[float64](c)

		h, err := e.CreatePartitioned(2, 4)
		require.NoError(t, err)
		defer h.Destroy()

		// Each rank writes one owned and one off-owner entry.
		switch c.Rank() {
		case 0:
			require.NoError(t, h.SetValues([]int{0, 3}, []float64{1, 4}, engine.Insert))
		case 1:
			require.NoError(t, h.SetValues([]int{2, 1}, []float64{3, 2}, engine.Insert))
		}

		require.NoError(t, h.AssemblyBegin())
		require.NoError(t, h.AssemblyEnd())

		arr, err := h.GetArray(true)
		require.NoError(t, err)
		if c.Rank() == 0 {
			assert.Equal(t, []float64{1, 2}, arr)
		} else {
			assert.Equal(t, []float64{3, 4}, arr)
		}
		return h.RestoreArray()
	})
	require.NoError(t, err)
}

func TestSetValuesAddAccumulates(t *testing.T) {
	err := comm.Run(2, func(c *comm.Communicator) error {
		e := engine.NewInProc[float64](c)

		h, err := e.CreatePartitioned(1, 2)
		require.NoError(t, err)
		defer h.Destroy()

		// Every rank adds 1 into entry 0; owner ends up with the total.
		require.NoError(t, h.SetValues([]int{0}, []float64{1}, engine.Add))
		require.NoError(t, h.AssemblyBegin())
		require.NoError(t, h.AssemblyEnd())

		arr, err := h.GetArray(true)
		require.NoError(t, err)
		if c.Rank() == 0 {
			assert.Equal(t, []float64{2}, arr)
		}
		return h.RestoreArray()
	})
	require.NoError(t, err)
}

func TestSetValuesOutOfRange(t *testing.T) {
	e := engine.NewInProc[float64](comm.Self())

	h, err := e.CreateSerial(3)
	require.NoError(t, err)
	defer h.Destroy()

	var oor *engine.ErrIndexOutOfRange
	assert.ErrorAs(t, h.SetValues([]int{3}, []float64{1}, engine.Insert), &oor)
	assert.ErrorAs(t, h.SetValues([]int{-1}, []float64{1}, engine.Insert), &oor)
	assert.Error(t, h.SetValues([]int{0, 1}, []float64{1}, engine.Insert))
}

func TestGhostUpdate(t *testing.T) {
	err := comm.Run(2, func(c *comm.Communicator) error {
		e := engine.NewInProc[float64](c)

		// Rank 0 owns [0,4) and ghosts 7; rank 1 owns [4,8) and ghosts 0.
		ghosts := []int{7}
		if c.Rank() == 1 {
			ghosts = []int{0}
		}
		h, err := e.CreateGhosted(4, 8, ghosts)
		require.NoError(t, err)
		defer h.Destroy()

		assert.True(t, h.Ghosted())
		assert.Equal(t, ghosts, h.GhostIndices())

		// Owners write their entries, then ghosts are refreshed.
		first, _ := h.OwnershipRange()
		for k := 0; k < 4; k++ {
			require.NoError(t, h.SetValues([]int{first + k}, []float64{float64(first + k)}, engine.Insert))
		}
		require.NoError(t, h.GhostUpdateBegin())
		require.NoError(t, h.GhostUpdateEnd())

		lf, err := h.LocalForm()
		require.NoError(t, err)
		require.Len(t, lf, 5)
		if c.Rank() == 0 {
			assert.Equal(t, 7.0, lf[4])
		} else {
			assert.Equal(t, 0.0, lf[4])
		}
		return h.RestoreLocalForm()
	})
	require.NoError(t, err)
}

func TestLocalFormNotGhosted(t *testing.T) {
	e := engine.NewInProc[float64](comm.Self())

	h, err := e.CreateSerial(2)
	require.NoError(t, err)
	defer h.Destroy()

	_, err = h.LocalForm()
	assert.ErrorIs(t, err, engine.ErrNotGhosted)
}

func TestElementwiseTransforms(t *testing.T) {
	e := engine.NewInProc[float64](comm.Self())

	h, err := e.CreateSerial(3)
	require.NoError(t, err)
	defer h.Destroy()

	require.NoError(t, h.SetValues([]int{0, 1, 2}, []float64{1, -2, 4}, engine.Insert))

	require.NoError(t, h.Scale(2))
	require.NoError(t, h.Shift(1))
	arr, err := h.GetArray(true)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, -3, 9}, arr)
	require.NoError(t, h.RestoreArray())

	require.NoError(t, h.Abs())
	require.NoError(t, h.Reciprocal())
	arr, err = h.GetArray(true)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1.0 / 3, 1.0 / 3, 1.0 / 9}, arr, 1e-12)
	require.NoError(t, h.RestoreArray())
}

func TestAXPYAndPointwiseMult(t *testing.T) {
	e := engine.NewInProc[float64](comm.Self())

	x, err := e.CreateSerial(3)
	require.NoError(t, err)
	defer x.Destroy()
	y, err := e.CreateSerial(3)
	require.NoError(t, err)
	defer y.Destroy()

	require.NoError(t, x.SetValues([]int{0, 1, 2}, []float64{1, 2, 3}, engine.Insert))
	require.NoError(t, y.SetValues([]int{0, 1, 2}, []float64{10, 20, 30}, engine.Insert))

	require.NoError(t, y.AXPY(2, x))
	arr, err := y.GetArray(true)
	require.NoError(t, err)
	assert.Equal(t, []float64{12, 24, 36}, arr)
	require.NoError(t, y.RestoreArray())

	require.NoError(t, y.PointwiseMult(x, x))
	arr, err = y.GetArray(true)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 4, 9}, arr)
	require.NoError(t, y.RestoreArray())
}

func TestForeignHandle(t *testing.T) {
	e := engine.NewInProc[float64](comm.Self())

	a, err := e.CreateSerial(3)
	require.NoError(t, err)
	defer a.Destroy()
	b, err := e.CreateSerial(4)
	require.NoError(t, err)
	defer b.Destroy()

	assert.ErrorIs(t, a.AXPY(1, b), engine.ErrForeignHandle)
	_, err = a.Dot(b, true)
	assert.ErrorIs(t, err, engine.ErrForeignHandle)
}

func TestReductions(t *testing.T) {
	err := comm.Run(2, func(c *comm.Communicator) error {
		e := engine.NewInProc[float64](c)

		h, err := e.CreatePartitioned(2, 4)
		require.NoError(t, err)
		defer h.Destroy()

		first, _ := h.OwnershipRange()
		vals := [][]float64{{1, -2}, {3, -4}}[c.Rank()]
		require.NoError(t, h.SetValues([]int{first, first + 1}, vals, engine.Insert))

		min, err := h.Min()
		require.NoError(t, err)
		assert.Equal(t, -4.0, min)

		max, err := h.Max()
		require.NoError(t, err)
		assert.Equal(t, 3.0, max)

		sum, err := h.Sum()
		require.NoError(t, err)
		assert.Equal(t, -2.0, sum)

		n1, err := h.Norm(engine.Norm1)
		require.NoError(t, err)
		assert.Equal(t, 10.0, n1)

		n2, err := h.Norm(engine.Norm2)
		require.NoError(t, err)
		assert.InDelta(t, math.Sqrt(30), n2, 1e-12)

		ninf, err := h.Norm(engine.NormInf)
		require.NoError(t, err)
		assert.Equal(t, 4.0, ninf)

		dot, err := h.Dot(h, true)
		require.NoError(t, err)
		assert.Equal(t, 30.0, dot)
		return nil
	})
	require.NoError(t, err)
}

func TestComplexDot(t *testing.T) {
	e := engine.NewInProc[complex128](comm.Self())

	a, err := e.CreateSerial(1)
	require.NoError(t, err)
	defer a.Destroy()
	b, err := e.CreateSerial(1)
	require.NoError(t, err)
	defer b.Destroy()

	require.NoError(t, a.SetValues([]int{0}, []complex128{complex(1, 2)}, engine.Insert))
	require.NoError(t, b.SetValues([]int{0}, []complex128{complex(3, 4)}, engine.Insert))

	conj, err := a.Dot(b, true)
	require.NoError(t, err)
	assert.Equal(t, complex(11, 2), conj) // (1+2i)(3-4i)

	plain, err := a.Dot(b, false)
	require.NoError(t, err)
	assert.Equal(t, complex(-5, 10), plain) // (1+2i)(3+4i)
}

func TestCopyAndDuplicate(t *testing.T) {
	e := engine.NewInProc[float64](comm.Self())

	h, err := e.CreateSerial(3)
	require.NoError(t, err)
	defer h.Destroy()
	require.NoError(t, h.SetValues([]int{0, 1, 2}, []float64{1, 2, 3}, engine.Insert))

	d, err := h.Duplicate()
	require.NoError(t, err)
	defer d.Destroy()
	assert.Equal(t, 3, d.GlobalSize())

	// Duplicate allocates zeroed storage.
	arr, err := d.GetArray(true)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, arr)
	require.NoError(t, d.RestoreArray())

	require.NoError(t, h.Copy(d))
	arr, err = d.GetArray(true)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, arr)
	require.NoError(t, d.RestoreArray())
}

func TestGather(t *testing.T) {
	err := comm.Run(2, func(c *comm.Communicator) error {
		e := engine.NewInProc[float64](c)

		h, err := e.CreatePartitioned(2, 4)
		require.NoError(t, err)
		defer h.Destroy()

		first, _ := h.OwnershipRange()
		require.NoError(t, h.SetValues([]int{first, first + 1}, []float64{float64(first), float64(first + 1)}, engine.Insert))

		all, err := h.GatherAll()
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 1, 2, 3}, all)

		rooted, err := h.GatherTo(1)
		require.NoError(t, err)
		if c.Rank() == 1 {
			assert.Equal(t, []float64{0, 1, 2, 3}, rooted)
		} else {
			assert.Nil(t, rooted)
		}
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryAccounting(t *testing.T) {
	ctrl := resource.NewController(resource.Config{MemoryLimitBytes: 64})
	e := engine.NewInProc[float64](comm.Self(), func(o *engine.Options) {
		o.Resources = ctrl
	})

	// 100 float64s need 800 bytes, over the 64-byte limit.
	_, err := e.CreateSerial(100)
	assert.ErrorIs(t, err, engine.ErrMemoryLimit)

	h, err := e.CreateSerial(8)
	require.NoError(t, err)
	assert.Equal(t, int64(64), ctrl.MemoryUsage())

	require.NoError(t, h.Destroy())
	assert.Zero(t, ctrl.MemoryUsage())

	// Destroy is idempotent and releases only once.
	require.NoError(t, h.Destroy())
	assert.Zero(t, ctrl.MemoryUsage())
}
