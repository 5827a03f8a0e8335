package parallel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_ChunksAreDisjointAndCoverInput(t *testing.T) {
	for _, tc := range []struct {
		workers, n int
	}{
		{4, 10}, {4, 3}, {1, 7}, {8, 64}, {3, 1},
	} {
		p := NewPool(tc.workers)
		chunks := p.Chunks(tc.n)
		assert.LessOrEqual(t, len(chunks), tc.workers)
		next := 0
		for _, c := range chunks {
			assert.Equal(t, next, c[0], "chunks must be contiguous")
			assert.Greater(t, c[1], c[0])
			next = c[1]
		}
		assert.Equal(t, tc.n, next)
	}
	assert.Nil(t, NewPool(4).Chunks(0))
}

func TestMap_ResultsKeepChunkOrder(t *testing.T) {
	p := NewPool(4)
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}
	parts, err := Map(context.Background(), p, items, func(_ context.Context, v int) ([]int, error) {
		if v%10 == 0 {
			return []int{v}, nil
		}
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 10, 20, 30, 40, 50, 60, 70, 80, 90}, Flatten(parts))
}

func TestForEach_VisitsEveryItemOnce(t *testing.T) {
	p := NewPool(3)
	var sum atomic.Int64
	items := []int64{1, 2, 3, 4, 5, 6, 7}
	require.NoError(t, ForEach(context.Background(), p, items, func(_ context.Context, v int64) error {
		sum.Add(v)
		return nil
	}))
	assert.Equal(t, int64(28), sum.Load())
}

func TestMap_PropagatesFirstError(t *testing.T) {
	p := NewPool(2)
	boom := errors.New("boom")
	_, err := Map(context.Background(), p, []int{1, 2, 3, 4}, func(_ context.Context, v int) ([]int, error) {
		if v == 3 {
			return nil, boom
		}
		return []int{v}, nil
	})
	assert.ErrorIs(t, err, boom)
}
