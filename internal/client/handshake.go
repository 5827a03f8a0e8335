package client

import "time"

// Handshake retransmits Hello on a fixed interval until Welcome arrives.
type Handshake struct {
	Name     string
	interval time.Duration
	last     time.Time
	done     bool
}

func NewHandshake(name string, interval time.Duration) *Handshake {
	return &Handshake{Name: name, interval: interval}
}

// Due reports whether a Hello should be sent at now, and if so records it.
func (h *Handshake) Due(now time.Time) bool {
	if h.done {
		return false
	}
	if !h.last.IsZero() && now.Sub(h.last) < h.interval {
		return false
	}
	h.last = now
	return true
}

// Done stops further retransmissions.
func (h *Handshake) Done() { h.done = true }
