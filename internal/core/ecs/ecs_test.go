package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityPool_ZeroIsNeverAlive(t *testing.T) {
	p := NewEntityPool()
	id := p.Create()
	assert.False(t, id.IsZero())
	assert.True(t, p.Alive(id))
	assert.False(t, p.Alive(0))
}

func TestEntityPool_DestroyInvalidatesStaleReference(t *testing.T) {
	p := NewEntityPool()
	a := p.Create()
	p.Destroy(a)
	assert.False(t, p.Alive(a))

	b := p.Create()
	assert.Equal(t, a.Index(), b.Index(), "index should be recycled")
	assert.NotEqual(t, a.Generation(), b.Generation())
	assert.True(t, p.Alive(b))
	assert.False(t, p.Alive(a))
	assert.False(t, p.Destroy(a), "stale handle")
	assert.Equal(t, 1, p.Live())
}

func TestRegistry_RejectsDuplicateNames(t *testing.T) {
	r := NewRegistry()
	r.Register("pos", NewPtrComponentStore[int]())
	assert.Panics(t, func() { r.Register("pos", NewPtrComponentStore[int]()) })
	assert.Equal(t, 1, r.Len())
}

func TestWorld_FlushDestroyQueueRemovesComponents(t *testing.T) {
	w := NewWorld()
	store := NewPtrComponentStore[int]()
	w.Registry().Register("value", store)

	id := w.CreateEntity()
	v := 7
	store.Set(id, &v)
	assert.Equal(t, []string{"value"}, w.Registry().Components(id))
	assert.Equal(t, 1, w.Live())

	w.MarkForDestruction(id)
	assert.True(t, w.PendingDestruction(id))
	assert.True(t, store.Has(id), "destruction is deferred to the flush")

	w.MarkForDestruction(id)
	w.FlushDestroyQueue()
	assert.False(t, store.Has(id))
	assert.Empty(t, w.Registry().Components(id))
	assert.Zero(t, w.Live(), "a double mark destroys once")
	assert.False(t, w.Alive(id))
	assert.False(t, w.PendingDestruction(id))
}

func TestEach2_VisitsIntersectionInIDOrder(t *testing.T) {
	w := NewWorld()
	names := NewPtrComponentStore[string]()
	sizes := NewPtrComponentStore[float32]()

	var ids []EntityID
	for i := 0; i < 5; i++ {
		ids = append(ids, w.CreateEntity())
	}
	for i, id := range ids {
		n := string(rune('a' + i))
		names.Set(id, &n)
		if i%2 == 0 {
			s := float32(i)
			sizes.Set(id, &s)
		}
	}

	var visited []EntityID
	Each2(names, sizes, func(id EntityID, _ *string, _ *float32) {
		visited = append(visited, id)
	})
	require.Len(t, visited, 3)
	assert.Equal(t, []EntityID{ids[0], ids[2], ids[4]}, visited)
}

func TestEach3_SkipsPartialMatches(t *testing.T) {
	w := NewWorld()
	a := NewPtrComponentStore[int]()
	b := NewPtrComponentStore[int]()
	c := NewPtrComponentStore[int]()

	full := w.CreateEntity()
	partial := w.CreateEntity()
	one, two, three := 1, 2, 3
	a.Set(full, &one)
	b.Set(full, &two)
	c.Set(full, &three)
	a.Set(partial, &one)
	b.Set(partial, &two)

	count := 0
	Each3(a, b, c, func(id EntityID, x, y, z *int) {
		count++
		assert.Equal(t, full, id)
		assert.Equal(t, 6, *x+*y+*z)
	})
	assert.Equal(t, 1, count)
}
