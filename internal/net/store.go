package net

import "sort"

// SessionStore tracks live sessions by ID. Game loop only.
type SessionStore struct {
	sessions map[uint64]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[uint64]*Session)}
}

func (s *SessionStore) Add(sess *Session) {
	s.sessions[sess.ID] = sess
}

func (s *SessionStore) Remove(id uint64) {
	delete(s.sessions, id)
}

func (s *SessionStore) Get(id uint64) *Session {
	return s.sessions[id]
}

func (s *SessionStore) Len() int {
	return len(s.sessions)
}

// ForEach visits sessions in ascending ID order.
func (s *SessionStore) ForEach(fn func(*Session)) {
	ids := make([]uint64, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fn(s.sessions[id])
	}
}

// Raw exposes the underlying map for iteration where order does not matter.
func (s *SessionStore) Raw() map[uint64]*Session {
	return s.sessions
}
