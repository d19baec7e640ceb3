package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/g960059/kstclient/protocol"
)

// Send writes one command and blocks for its reply.
func (s *Session) Send(ctx context.Context, cmd protocol.Command) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.send(ctx, cmd)
}

// SendRaw writes pre-formatted command text verbatim.
func (s *Session) SendRaw(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roundTrip(ctx, "send", text)
}

func (s *Session) send(ctx context.Context, cmd protocol.Command) (string, error) {
	text, err := cmd.Encode()
	if err != nil {
		return "", &OpError{Op: "send", Command: cmd.String(), Err: err}
	}
	return s.roundTrip(ctx, "send", text)
}

// roundTrip must be called with s.mu held.
func (s *Session) roundTrip(ctx context.Context, op, text string) (string, error) {
	if s.conn == nil {
		return "", &OpError{Op: op, Command: text, Err: fmt.Errorf("%w: not connected (%s)", ErrTransport, s.State())}
	}
	if s.broken != nil {
		return "", &OpError{Op: op, Command: text, Err: fmt.Errorf("%w: session unusable after earlier failure: %v", ErrTransport, s.broken)}
	}
	if err := ctx.Err(); err != nil {
		return "", &OpError{Op: op, Command: text, Err: err}
	}

	conn := s.conn
	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
		close(fired)
	})
	defer func() {
		if !stop() {
			<-fired
		}
	}()

	deadline := time.Now().Add(s.cfg.CommandTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	s.log.Debug("send", "command", text)
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return "", s.fail(ctx, op, text, err)
	}
	if _, err := io.WriteString(conn, text); err != nil {
		return "", s.fail(ctx, op, text, err)
	}
	reply, err := s.readReply(conn, deadline)
	if err != nil {
		return "", s.fail(ctx, op, text, err)
	}
	s.log.Debug("reply", "command", text, "bytes", len(reply))
	return reply, nil
}

// readReply blocks until the server signals a reply, then takes what is
// available. A read that fills the buffer means more may be queued, so
// reading continues for short drain windows until the socket goes quiet.
func (s *Session) readReply(conn net.Conn, deadline time.Time) (string, error) {
	buf := make([]byte, s.cfg.ReplyBufferSize)
	if err := conn.SetReadDeadline(deadline); err != nil {
		return "", err
	}
	n, err := conn.Read(buf)
	if n == 0 && err != nil {
		return "", err
	}
	out := append([]byte(nil), buf[:n]...)
	for n == len(buf) {
		if err := conn.SetReadDeadline(time.Now().Add(s.cfg.DrainWindow)); err != nil {
			return "", err
		}
		n, err = conn.Read(buf)
		out = append(out, buf[:n]...)
		if err != nil {
			if isTimeout(err) {
				break
			}
			return "", err
		}
	}
	return string(out), nil
}

// fail marks the session broken: once a request went out without its
// reply being consumed, a later reply could be taken for the wrong one.
func (s *Session) fail(ctx context.Context, op, text string, cause error) error {
	var kind error
	switch {
	case ctx.Err() != nil:
		kind = fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
	case isTimeout(cause):
		kind = fmt.Errorf("%w after %s", ErrTimeout, s.cfg.CommandTimeout)
	default:
		kind = fmt.Errorf("%w: %w", ErrTransport, cause)
	}
	s.broken = kind
	s.state.Store(int32(StateBroken))
	s.log.Warn("session broken", "op", op, "command", text, "err", kind)
	return &OpError{Op: op, Command: text, Err: kind}
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
