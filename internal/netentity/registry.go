// Package netentity maps replication-stable unit ids to local ECS entities.
//
// A lookup miss is never an error: under network delay or reordering a
// message can name a unit that is not known yet or has already been removed.
// Callers skip the single message or update and carry on.
package netentity

import (
	"strconv"

	"github.com/ChangeCaps/robots-or-smth/internal/core/ecs"
)

// ID is the network-stable identity of a unit. Ids are handed out in strictly
// increasing order and never reused for the lifetime of a Registry.
type ID uint64

func (id ID) String() string { return "ne#" + strconv.FormatUint(uint64(id), 10) }

// Registry is the bidirectional NetworkEntity <-> local entity map.
// Accessed only from the game loop goroutine.
type Registry struct {
	entities map[ID]ecs.EntityID
	reverse  map[ecs.EntityID]ID
	next     ID
}

func NewRegistry() *Registry {
	return &Registry{
		entities: make(map[ID]ecs.EntityID, 256),
		reverse:  make(map[ecs.EntityID]ID, 256),
	}
}

// Generate returns a fresh id without installing a mapping.
func (r *Registry) Generate() ID {
	id := r.next
	r.next++
	return id
}

// Add generates an id and maps it to local.
func (r *Registry) Add(local ecs.EntityID) ID {
	id := r.Generate()
	r.Insert(id, local)
	return id
}

// Insert installs or overwrites the mapping for id. Clients use it with
// server-assigned ids. The generator is advanced past id so a later Generate
// on the same registry can never collide with it.
func (r *Registry) Insert(id ID, local ecs.EntityID) {
	if old, ok := r.entities[id]; ok {
		delete(r.reverse, old)
	}
	r.entities[id] = local
	r.reverse[local] = id
	if id >= r.next {
		r.next = id + 1
	}
}

// Get returns the local entity for id. ok is false for ids that were never
// inserted or have been removed.
func (r *Registry) Get(id ID) (ecs.EntityID, bool) {
	e, ok := r.entities[id]
	return e, ok
}

// Lookup is the reverse of Get.
func (r *Registry) Lookup(local ecs.EntityID) (ID, bool) {
	id, ok := r.reverse[local]
	return id, ok
}

// Remove drops the mapping for id. The id is not handed out again.
func (r *Registry) Remove(id ID) {
	if e, ok := r.entities[id]; ok {
		delete(r.reverse, e)
		delete(r.entities, id)
	}
}

// Len returns the number of live mappings.
func (r *Registry) Len() int { return len(r.entities) }
