package handler

import (
	"github.com/ChangeCaps/robots-or-smth/internal/net"
	"github.com/ChangeCaps/robots-or-smth/internal/net/packet"
	"github.com/ChangeCaps/robots-or-smth/internal/protocol"
)

// Broadcast encodes m once and buffers it for every joined session.
// Interest management does not exist: everyone sees everything.
func Broadcast(sessions *net.SessionStore, m protocol.Message) {
	data := protocol.Encode(m)
	ch := m.Channel()
	sessions.ForEach(func(sess *net.Session) {
		if sess.State() != packet.StateJoined || sess.IsClosed() {
			return
		}
		protocol.SendRaw(sess, ch, data)
	})
}
