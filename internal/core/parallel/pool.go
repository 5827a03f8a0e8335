// Package parallel runs per-entity work across a fork-join worker pool.
//
// Work is split into disjoint contiguous chunks of the input slice, one chunk
// per worker. A worker only ever sees its own chunk, so callers that mutate
// nothing but the entity they are handed can never race with another worker.
// Results are returned per chunk, in chunk order, so merging them is
// deterministic.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Pool is a fork-join pool with a fixed worker count.
type Pool struct {
	workers int
}

// NewPool returns a pool with n workers. n <= 0 selects GOMAXPROCS.
func NewPool(n int) *Pool {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	return &Pool{workers: n}
}

// Workers returns the worker count.
func (p *Pool) Workers() int { return p.workers }

// Chunks splits n items into at most workers contiguous [start,end) ranges.
func (p *Pool) Chunks(n int) [][2]int {
	if n == 0 {
		return nil
	}
	w := p.workers
	if w > n {
		w = n
	}
	size := (n + w - 1) / w
	chunks := make([][2]int, 0, w)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		chunks = append(chunks, [2]int{start, end})
	}
	return chunks
}

// Map runs fn over every item, one goroutine per chunk, and returns one
// result slice per chunk in chunk order. The first error cancels ctx for the
// remaining workers and is returned.
func Map[T, R any](ctx context.Context, p *Pool, items []T, fn func(ctx context.Context, item T) ([]R, error)) ([][]R, error) {
	chunks := p.Chunks(len(items))
	out := make([][]R, len(chunks))
	if len(chunks) == 1 {
		// Single chunk: stay on the calling goroutine.
		res, err := runChunk(ctx, items, fn)
		out[0] = res
		return out, err
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range chunks {
		i, part := i, items[c[0]:c[1]]
		g.Go(func() error {
			res, err := runChunk(gctx, part, fn)
			out[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}

// ForEach runs fn over every item with the same partitioning as Map.
func ForEach[T any](ctx context.Context, p *Pool, items []T, fn func(ctx context.Context, item T) error) error {
	_, err := Map(ctx, p, items, func(ctx context.Context, item T) ([]struct{}, error) {
		return nil, fn(ctx, item)
	})
	return err
}

// Flatten concatenates per-chunk results in chunk order.
func Flatten[R any](parts [][]R) []R {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]R, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func runChunk[T, R any](ctx context.Context, items []T, fn func(context.Context, T) ([]R, error)) ([]R, error) {
	var out []R
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		res, err := fn(ctx, item)
		if err != nil {
			return out, err
		}
		out = append(out, res...)
	}
	return out, nil
}
