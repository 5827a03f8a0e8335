package ecs

import "slices"

// Store is what the Registry needs from a component store.
// PtrComponentStore implements it.
type Store interface {
	Remove(id EntityID)
	Has(id EntityID) bool
	Len() int
}

type namedStore struct {
	name  string
	store Store
}

// Registry knows every component store of a World by name, so destroying
// an entity clears all of its components and debugging can list them.
type Registry struct {
	stores []namedStore
}

func NewRegistry() *Registry {
	return &Registry{stores: make([]namedStore, 0, 16)}
}

// Register adds a store. Names must be unique.
func (r *Registry) Register(name string, store Store) {
	if slices.ContainsFunc(r.stores, func(s namedStore) bool { return s.name == name }) {
		panic("ecs: component store registered twice: " + name)
	}
	r.stores = append(r.stores, namedStore{name: name, store: store})
}

// Len returns the number of registered stores.
func (r *Registry) Len() int { return len(r.stores) }

// Components lists the names of the stores holding a component for id, in
// registration order.
func (r *Registry) Components(id EntityID) []string {
	var out []string
	for _, s := range r.stores {
		if s.store.Has(id) {
			out = append(out, s.name)
		}
	}
	return out
}

// RemoveAll clears id from every registered store.
func (r *Registry) RemoveAll(id EntityID) {
	for _, s := range r.stores {
		s.store.Remove(id)
	}
}
