package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/g960059/kstclient/protocol"
)

var errTxDone = errors.New("session: transaction already finished")

// Tx sends commands inside an open edit transaction. It is valid only for
// the duration of the body it was passed to.
type Tx struct {
	s        *Session
	handle   protocol.Handle
	done     bool
	endReply string
}

// Handle is the object being edited. It is zero inside CreateAndInit,
// where the server has not named the new object yet.
func (tx *Tx) Handle() protocol.Handle {
	return tx.handle
}

// EndReply is the server's answer to the closing endEdit(). It is empty
// until the transaction has finished.
func (tx *Tx) EndReply() string {
	return tx.endReply
}

func (tx *Tx) Send(ctx context.Context, cmd protocol.Command) (string, error) {
	if tx.done {
		return "", &OpError{Op: "send", Command: cmd.String(), Err: errTxDone}
	}
	return tx.s.send(ctx, cmd)
}

// WithEdit runs body between beginEdit(h) and endEdit(). The end marker is
// sent even when body fails or panics; only a begin marker that never
// reached the server skips it. The body's reply is returned; the reply to
// endEdit() stays readable through tx.EndReply once WithEdit returns.
func (s *Session) WithEdit(ctx context.Context, h protocol.Handle, body func(ctx context.Context, tx *Tx) (string, error)) (string, error) {
	if h.IsZero() {
		return "", &OpError{Op: "beginEdit", Err: fmt.Errorf("%w: zero handle", protocol.ErrInvalidArgument)}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.send(ctx, protocol.BeginEdit(h)); err != nil {
		return "", err
	}
	tx := &Tx{s: s, handle: h}
	var reply string
	err := s.bracket(ctx, tx, func() error {
		var err error
		reply, err = body(ctx, tx)
		return err
	})
	if err != nil {
		return "", err
	}
	return reply, nil
}

// Edit sends cmds in one transaction on h and returns the last reply.
func (s *Session) Edit(ctx context.Context, h protocol.Handle, cmds ...protocol.Command) (string, error) {
	return s.WithEdit(ctx, h, func(ctx context.Context, tx *Tx) (string, error) {
		var reply string
		for _, c := range cmds {
			r, err := tx.Send(ctx, c)
			if err != nil {
				return "", err
			}
			reply = r
		}
		return reply, nil
	})
}

// CreateAndInit sends a creation command, which leaves the new object
// open for editing, runs init against it and closes the edit. The server
// names the new object in its reply to endEdit().
func (s *Session) CreateAndInit(ctx context.Context, create protocol.Command, init func(ctx context.Context, tx *Tx) error) (protocol.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.send(ctx, create); err != nil {
		return protocol.Handle{}, err
	}
	tx := &Tx{s: s}
	err := s.bracket(ctx, tx, func() error {
		if init == nil {
			return nil
		}
		return init(ctx, tx)
	})
	if err != nil {
		return protocol.Handle{}, err
	}
	h, err := protocol.ExtractHandle(tx.endReply)
	if err != nil {
		return protocol.Handle{}, &OpError{Op: "create", Command: create.String(), Err: err}
	}
	s.log.Debug("created", "command", create.String(), "handle", h.String())
	return h, nil
}

func (s *Session) bracket(ctx context.Context, tx *Tx, body func() error) (err error) {
	defer func() {
		tx.done = true
		// the edit must be closed even if the caller gave up on ctx
		reply, endErr := s.send(context.WithoutCancel(ctx), protocol.EndEdit())
		tx.endReply = reply
		err = errors.Join(err, endErr)
	}()
	return body()
}
