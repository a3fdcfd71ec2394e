package comm_test

import (
	"sync/atomic"
	"testing"

	"github.com/hupe1980/distvec/comm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelf(t *testing.T) {
	c := comm.Self()
	assert.Equal(t, 0, c.Rank())
	assert.Equal(t, 1, c.Size())

	// Collectives on a single-rank group complete immediately.
	c.Barrier()
	assert.Equal(t, []int{42}, comm.AllGather(c, 42))
	assert.Equal(t, 42, comm.Sum(c, 42))
}

func TestNewGroup(t *testing.T) {
	cs := comm.NewGroup(4)
	require.Len(t, cs, 4)
	for r, c := range cs {
		assert.Equal(t, r, c.Rank())
		assert.Equal(t, 4, c.Size())
	}

	assert.Panics(t, func() { comm.NewGroup(0) })
}

func TestAllGather(t *testing.T) {
	err := comm.Run(4, func(c *comm.Communicator) error {
		got := comm.AllGather(c, c.Rank()*10)
		assert.Equal(t, []int{0, 10, 20, 30}, got)
		return nil
	})
	require.NoError(t, err)
}

func TestAllGatherRepeatedRounds(t *testing.T) {
	// Back-to-back rounds must not bleed into each other: every rank
	// sees the contributions of its own round only.
	err := comm.Run(3, func(c *comm.Communicator) error {
		for round := 0; round < 100; round++ {
			got := comm.AllGather(c, round*100+c.Rank())
			want := []int{round * 100, round*100 + 1, round*100 + 2}
			if !assert.Equal(t, want, got) {
				return nil
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestAllReduce(t *testing.T) {
	err := comm.Run(4, func(c *comm.Communicator) error {
		sum := comm.Sum(c, c.Rank()+1)
		assert.Equal(t, 10, sum)

		min := comm.MinFloat64(c, float64(c.Rank()))
		assert.Equal(t, 0.0, min)

		max := comm.MaxFloat64(c, float64(c.Rank()))
		assert.Equal(t, 3.0, max)
		return nil
	})
	require.NoError(t, err)
}

func TestBroadcast(t *testing.T) {
	err := comm.Run(3, func(c *comm.Communicator) error {
		got := comm.Broadcast(c, 1, c.Rank()*7)
		assert.Equal(t, 7, got)
		return nil
	})
	require.NoError(t, err)
}

func TestGather(t *testing.T) {
	err := comm.Run(3, func(c *comm.Communicator) error {
		got := comm.Gather(c, 0, []float64{float64(c.Rank())})
		if c.Rank() == 0 {
			assert.Equal(t, [][]float64{{0}, {1}, {2}}, got)
		} else {
			assert.Nil(t, got)
		}
		return nil
	})
	require.NoError(t, err)
}

func TestBarrierOrdering(t *testing.T) {
	// Work done before a barrier is visible to every rank after it.
	var before atomic.Int64
	err := comm.Run(4, func(c *comm.Communicator) error {
		before.Add(1)
		c.Barrier()
		assert.Equal(t, int64(4), before.Load())
		return nil
	})
	require.NoError(t, err)
}

func TestRunPropagatesError(t *testing.T) {
	sentinel := assert.AnError
	err := comm.Run(2, func(c *comm.Communicator) error {
		if c.Rank() == 1 {
			return sentinel
		}
		return nil
	})
	require.ErrorIs(t, err, sentinel)
}
