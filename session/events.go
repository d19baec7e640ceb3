package session

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/g960059/kstclient/protocol"
)

// Subscribe opens a second connection to the server and attaches it to the
// view item h. The server then writes a message on it whenever the item
// fires (a button click, a line edit commit). Each read is delivered as one
// message. The channel is closed when ctx is done or the server hangs up.
//
// The event connection is independent of the command channel: it does not
// take the session lock and a failure on it never breaks the session.
func (s *Session) Subscribe(ctx context.Context, h protocol.Handle) (<-chan string, error) {
	cmd := protocol.NewCommand("attachTo", h)
	if h.IsZero() {
		return nil, &OpError{Op: "subscribe", Command: cmd.String(), Err: fmt.Errorf("%w: zero handle", protocol.ErrInvalidArgument)}
	}
	text, err := cmd.Encode()
	if err != nil {
		return nil, &OpError{Op: "subscribe", Command: cmd.String(), Err: err}
	}
	if s.State() == StateClosed {
		return nil, &OpError{Op: "subscribe", Command: text, Err: fmt.Errorf("%w: session closed", ErrTransport)}
	}
	endpoint := s.cfg.EndpointPath()
	conn, err := s.dialOnce(ctx, endpoint)
	if err != nil {
		return nil, &OpError{Op: "subscribe", Command: text, Err: fmt.Errorf("%w: %s: %w", ErrConnectionFailed, endpoint, err)}
	}
	if _, err := conn.Write([]byte(text)); err != nil {
		_ = conn.Close()
		return nil, &OpError{Op: "subscribe", Command: text, Err: fmt.Errorf("%w: %w", ErrTransport, err)}
	}

	out := make(chan string)
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	go func() {
		defer close(out)
		defer stop()
		defer conn.Close()
		buf := make([]byte, 4096)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				select {
				case out <- string(buf[:n]):
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
					s.log.Debug("event stream ended", "handle", h.String(), "err", err)
				}
				return
			}
		}
	}()
	return out, nil
}
