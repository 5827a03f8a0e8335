// Package player tracks which transport session speaks for which player.
package player

import (
	"strconv"
)

// ID identifies a participant. Units carry it in their Owner component.
type ID uint64

func (id ID) String() string { return "player#" + strconv.FormatUint(uint64(id), 10) }

// Registry maps sessions to players and back. Game loop only.
type Registry struct {
	bySession map[uint64]ID
	byPlayer  map[ID]uint64
	names     map[ID]string
}

func NewRegistry() *Registry {
	return &Registry{
		bySession: make(map[uint64]ID),
		byPlayer:  make(map[ID]uint64),
		names:     make(map[ID]string),
	}
}

// Insert binds player to session, replacing any previous binding of either.
func (r *Registry) Insert(id ID, sessionID uint64, name string) {
	if old, ok := r.byPlayer[id]; ok {
		delete(r.bySession, old)
	}
	if old, ok := r.bySession[sessionID]; ok {
		delete(r.byPlayer, old)
		delete(r.names, old)
	}
	r.bySession[sessionID] = id
	r.byPlayer[id] = sessionID
	r.names[id] = name
}

// PlayerOf returns the player bound to a session.
func (r *Registry) PlayerOf(sessionID uint64) (ID, bool) {
	id, ok := r.bySession[sessionID]
	return id, ok
}

// SessionOf returns the session bound to a player.
func (r *Registry) SessionOf(id ID) (uint64, bool) {
	s, ok := r.byPlayer[id]
	return s, ok
}

// Name returns the display name sent in the player's Hello.
func (r *Registry) Name(id ID) string { return r.names[id] }

// Connected reports whether a session is bound to player id.
func (r *Registry) Connected(id ID) bool {
	_, ok := r.byPlayer[id]
	return ok
}

// RemoveSession forgets the binding of a closed session.
func (r *Registry) RemoveSession(sessionID uint64) (ID, bool) {
	id, ok := r.bySession[sessionID]
	if !ok {
		return 0, false
	}
	delete(r.bySession, sessionID)
	delete(r.byPlayer, id)
	delete(r.names, id)
	return id, true
}

// Owns is the command authorization check: the session must have completed
// the handshake and its player must be the unit's owner.
func (r *Registry) Owns(sessionID uint64, owner ID) bool {
	id, ok := r.bySession[sessionID]
	return ok && id == owner
}

// FirstFree returns the first slot in slots with no connected player.
func (r *Registry) FirstFree(slots []ID) (ID, bool) {
	for _, s := range slots {
		if !r.Connected(s) {
			return s, true
		}
	}
	return 0, false
}

// AllConnected reports whether every slot has a connected player.
func (r *Registry) AllConnected(slots []ID) bool {
	for _, s := range slots {
		if !r.Connected(s) {
			return false
		}
	}
	return true
}

// Len returns the number of bound players.
func (r *Registry) Len() int { return len(r.bySession) }
