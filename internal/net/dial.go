package net

import (
	"context"
	"fmt"

	"github.com/quic-go/quic-go"
	"go.uber.org/zap"
)

// Dial connects to a server and opens the reliable stream. The returned
// session is already started.
func Dial(ctx context.Context, addr string, insecure bool, opts Options, log *zap.Logger) (*Session, error) {
	conn, err := quic.DialAddr(ctx, addr, ClientTLS(insecure), QUICConfig())
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		conn.CloseWithError(1, "open stream")
		return nil, fmt.Errorf("open stream: %w", err)
	}
	sess := NewSession(0, conn, stream, opts, log)
	sess.Start()
	return sess, nil
}
