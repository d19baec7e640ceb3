package kst

import (
	"context"
	"fmt"

	"github.com/g960059/kstclient/protocol"
	"github.com/g960059/kstclient/session"
)

var errNilRef = fmt.Errorf("%w: missing object reference", protocol.ErrInvalidArgument)

// Ref is anything that names a server object.
type Ref interface {
	Handle() protocol.Handle
}

// Object is the proxy every typed wrapper embeds. Each call opens an edit
// transaction on the handle, sends one command and returns its reply.
type Object struct {
	c      *Client
	kind   Kind
	handle protocol.Handle
}

func (o Object) Handle() protocol.Handle {
	return o.handle
}

func (o Object) Kind() Kind {
	return o.kind
}

func (o Object) Client() *Client {
	return o.c
}

func (o Object) String() string {
	return o.kind.Name + "(" + o.handle.String() + ")"
}

func (o Object) Name(ctx context.Context) (string, error) {
	return o.query(ctx, "name")
}

func (o Object) SetName(ctx context.Context, name string) error {
	if err := o.do(ctx, "setName", name); err != nil {
		return err
	}
	o.c.rename(ctx, o, name)
	return nil
}

func (o Object) DescriptionTip(ctx context.Context) (string, error) {
	return o.query(ctx, "descriptionTip")
}

// TypeString is the server's own name for the object's type.
func (o Object) TypeString(ctx context.Context) (string, error) {
	return o.query(ctx, "type")
}

// Attach addresses an existing object by name or handle.
func (c *Client) Attach(kind Kind, name string) (Object, error) {
	h, err := protocol.Attach(name)
	if err != nil {
		return Object{}, err
	}
	return Object{c: c, kind: kind, handle: h}, nil
}

func (c *Client) object(kind Kind, h protocol.Handle) Object {
	return Object{c: c, kind: kind, handle: h}
}

func (o Object) query(ctx context.Context, verb string, args ...any) (string, error) {
	cmd := protocol.NewCommand(verb, args...)
	return o.c.sess.WithEdit(ctx, o.handle, func(ctx context.Context, tx *session.Tx) (string, error) {
		return tx.Send(ctx, cmd)
	})
}

func (o Object) do(ctx context.Context, verb string, args ...any) error {
	_, err := o.query(ctx, verb, args...)
	return err
}

// edit sends several commands inside one transaction.
func (o Object) edit(ctx context.Context, cmds ...protocol.Command) error {
	_, err := o.c.sess.Edit(ctx, o.handle, cmds...)
	return err
}

func (o Object) queryFloat(ctx context.Context, verb string, args ...any) (float64, error) {
	reply, err := o.query(ctx, verb, args...)
	if err != nil {
		return 0, err
	}
	return protocol.ParseFloat(reply)
}

func (o Object) queryInt(ctx context.Context, verb string, args ...any) (int, error) {
	reply, err := o.query(ctx, verb, args...)
	if err != nil {
		return 0, err
	}
	return protocol.ParseInt(reply)
}

func (o Object) queryBool(ctx context.Context, verb string, args ...any) (bool, error) {
	reply, err := o.query(ctx, verb, args...)
	if err != nil {
		return false, err
	}
	return protocol.ParseBool(reply)
}

// queryObject reads a reply naming another object and returns its proxy.
func (o Object) queryObject(ctx context.Context, kind Kind, verb string, args ...any) (Object, error) {
	reply, err := o.query(ctx, verb, args...)
	if err != nil {
		return Object{}, err
	}
	h, err := protocol.ParseHandle(reply)
	if err != nil {
		return Object{}, err
	}
	return o.c.object(kind, h), nil
}

// toggle sends on or off depending on b, for the check/uncheck verb pairs.
func (o Object) toggle(ctx context.Context, b bool, on, off string) error {
	if b {
		return o.do(ctx, on)
	}
	return o.do(ctx, off)
}

func handleOf(r Ref) (protocol.Handle, error) {
	if r == nil {
		return protocol.Handle{}, errNilRef
	}
	h := r.Handle()
	if h.IsZero() {
		return protocol.Handle{}, errNilRef
	}
	return h, nil
}

func protocolCmd(verb string, args ...any) protocol.Command {
	return protocol.NewCommand(verb, args...)
}
