package kst

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/g960059/kstclient/config"
	"github.com/g960059/kstclient/internal/registry"
	"github.com/g960059/kstclient/protocol"
	"github.com/g960059/kstclient/session"
)

var (
	ErrConnectionFailed = session.ErrConnectionFailed
	ErrTimeout          = session.ErrTimeout
	ErrTransport        = session.ErrTransport
	ErrProtocol         = protocol.ErrProtocol
	ErrInvalidArgument  = protocol.ErrInvalidArgument
)

// defaultFile selects a datasource's default settings instead of those
// of one file.
const defaultFile = "$DEFAULT"

type Client struct {
	sess *session.Session
	cfg  config.Config
	log  *slog.Logger
	reg  *registry.Store
}

// Connect opens a session to the server named in cfg, launching it if
// needed, and wraps it in a Client.
func Connect(ctx context.Context, cfg config.Config, opts ...session.Option) (*Client, error) {
	sess, err := session.Connect(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	c, err := New(ctx, sess)
	if err != nil {
		_ = sess.Close()
		return nil, err
	}
	return c, nil
}

// New wraps an already connected session. When the session's config names
// a registry path, created handles are journaled there. A registry that
// cannot be opened is logged and skipped.
func New(ctx context.Context, sess *session.Session) (*Client, error) {
	cfg := sess.Config()
	c := &Client{
		sess: sess,
		cfg:  cfg,
		log:  sess.Logger(),
	}
	if cfg.RegistryPath == "" {
		return c, nil
	}
	reg, err := registry.OpenMigrated(ctx, cfg.RegistryPath)
	if err != nil {
		c.log.Warn("registry: open failed, continuing without a journal", "path", cfg.RegistryPath, "err", err)
		return c, nil
	}
	c.reg = reg
	rec := registry.SessionRecord{
		SessionID:  sess.ID(),
		ServerName: cfg.ServerName,
		Endpoint:   cfg.EndpointPath(),
	}
	if p := sess.Process(); p != nil {
		pid := int64(p.Pid())
		rec.ServerPID = &pid
	}
	if err := reg.StartSession(ctx, rec); err != nil {
		c.log.Warn("registry: record session", "err", err)
	}
	return c, nil
}

func (c *Client) Session() *session.Session {
	return c.sess
}

func (c *Client) Close() error {
	if c.reg != nil {
		if err := c.reg.EndSession(context.Background(), c.sess.ID(), time.Now().UTC()); err != nil {
			c.log.Warn("registry: end session", "err", err)
		}
		if err := c.reg.Close(); err != nil {
			c.log.Warn("registry: close", "err", err)
		}
		c.reg = nil
	}
	return c.sess.Close()
}

func (c *Client) send(ctx context.Context, verb string, args ...any) (string, error) {
	return c.sess.Send(ctx, protocol.NewCommand(verb, args...))
}

func (c *Client) do(ctx context.Context, verb string, args ...any) error {
	_, err := c.send(ctx, verb, args...)
	return err
}

// Clear removes every object from the server's document.
func (c *Client) Clear(ctx context.Context) error {
	if err := c.do(ctx, "clear"); err != nil {
		return err
	}
	if c.reg != nil {
		if _, err := c.reg.ForgetServer(ctx, c.cfg.ServerName); err != nil {
			c.log.Warn("registry: forget server", "err", err)
		}
	}
	return nil
}

func (c *Client) OpenFile(ctx context.Context, path string) error {
	return c.do(ctx, "fileOpen", path)
}

func (c *Client) SaveFile(ctx context.Context, path string) error {
	return c.do(ctx, "fileSave", path)
}

// ExportSizing controls how ExportGraphics derives the image shape.
type ExportSizing int

const (
	// SizeDefault uses both Width and Height.
	SizeDefault ExportSizing = iota
	SizeFromWidth
	SizeFromHeight
	SizeWidthAndHeight
	SizeSquare
)

func (s ExportSizing) wire() int {
	switch s {
	case SizeFromWidth:
		return 0
	case SizeFromHeight:
		return 1
	case SizeSquare:
		return 3
	default:
		return 2
	}
}

type ExportOptions struct {
	// Format defaults to the file extension.
	Format string
	Width  int
	Height int
	Sizing ExportSizing
}

// ExportGraphics writes the current view to path. With several tabs the
// server writes one file per tab.
func (c *Client) ExportGraphics(ctx context.Context, path string, opts ExportOptions) error {
	if opts.Format == "" {
		opts.Format = strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	}
	if opts.Width <= 0 {
		opts.Width = 1280
	}
	if opts.Height <= 0 {
		opts.Height = 1024
	}
	return c.do(ctx, "exportGraphics", path, opts.Format, opts.Width, opts.Height, opts.Sizing.wire())
}

func (c *Client) ScreenBack(ctx context.Context) error {
	return c.do(ctx, "screenBack")
}

func (c *Client) ScreenForward(ctx context.Context) error {
	return c.do(ctx, "screenForward")
}

func (c *Client) CountFromEnd(ctx context.Context) error {
	return c.do(ctx, "countFromEnd")
}

func (c *Client) ReadToEnd(ctx context.Context) error {
	return c.do(ctx, "readToEnd")
}

func (c *Client) SetPaused(ctx context.Context, paused bool) error {
	if paused {
		return c.do(ctx, "setPaused")
	}
	return c.do(ctx, "unsetPaused")
}

func (c *Client) TabCount(ctx context.Context) (int, error) {
	reply, err := c.send(ctx, "tabCount")
	if err != nil {
		return 0, err
	}
	return protocol.ParseInt(reply)
}

// NewTab adds a tab and switches to it.
func (c *Client) NewTab(ctx context.Context) error {
	return c.do(ctx, "newTab")
}

// SetTab switches to the tab at index, counting from zero.
func (c *Client) SetTab(ctx context.Context, index int) error {
	if index < 0 {
		return fmt.Errorf("%w: negative tab index %d", ErrInvalidArgument, index)
	}
	return c.do(ctx, "setTab", index)
}

func (c *Client) SetTabText(ctx context.Context, text string) error {
	return c.do(ctx, "renameTab", text)
}

// CleanupLayout rearranges the current tab in the given number of
// columns, or automatically when columns is zero.
func (c *Client) CleanupLayout(ctx context.Context, columns int) error {
	if columns <= 0 {
		return c.do(ctx, "cleanupLayout", "Auto")
	}
	return c.do(ctx, "cleanupLayout", columns)
}

func (c *Client) ScalarNames(ctx context.Context) ([]string, error) {
	return c.names(ctx, KindScalar)
}

func (c *Client) VectorNames(ctx context.Context) ([]string, error) {
	return c.names(ctx, KindVector)
}

// Names lists the objects of a kind that has a server-side list query.
func (c *Client) Names(ctx context.Context, kind Kind) ([]string, error) {
	return c.names(ctx, kind)
}

func (c *Client) names(ctx context.Context, kind Kind) ([]string, error) {
	if kind.List == "" {
		return nil, fmt.Errorf("%w: %s has no list query", ErrInvalidArgument, kind.Name)
	}
	reply, err := c.send(ctx, kind.List)
	if err != nil {
		return nil, err
	}
	if kind.BracketList {
		return protocol.SplitBracketList(reply)
	}
	return protocol.SplitList(reply), nil
}

func (c *Client) SetDatasourceBool(ctx context.Context, source, file, option string, value bool) error {
	return c.do(ctx, "setDatasourceBoolConfig", source, datasourceFile(file), option, value)
}

func (c *Client) SetDatasourceInt(ctx context.Context, source, file, option string, value int) error {
	return c.do(ctx, "setDatasourceIntConfig", source, datasourceFile(file), option, value)
}

// SetDatasourceString sets a string option. Commas in value are sent in
// the server's escaped form.
func (c *Client) SetDatasourceString(ctx context.Context, source, file, option, value string) error {
	return c.do(ctx, "setDatasourceStringConfig", source, datasourceFile(file), option, protocol.EscapeCommas(value))
}

func datasourceFile(file string) string {
	if file == "" {
		return defaultFile
	}
	return file
}

// create runs a creation transaction and journals the new handle.
func (c *Client) create(ctx context.Context, kind Kind, create protocol.Command, init ...protocol.Command) (Object, error) {
	h, err := c.sess.CreateAndInit(ctx, create, func(ctx context.Context, tx *session.Tx) error {
		for _, cmd := range init {
			if _, err := tx.Send(ctx, cmd); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Object{}, err
	}
	o := Object{c: c, kind: kind, handle: h}
	c.record(ctx, o)
	return o, nil
}

// finish applies the optional name given at creation. The object exists on
// the server by now, so it is returned even when naming fails.
func (c *Client) finish(ctx context.Context, o Object, name string) (Object, error) {
	if name == "" {
		return o, nil
	}
	if err := o.SetName(ctx, name); err != nil {
		return o, err
	}
	return o, nil
}

func (c *Client) record(ctx context.Context, o Object) {
	if c.reg == nil {
		return
	}
	err := c.reg.RecordHandle(ctx, registry.Entry{
		ServerName: c.cfg.ServerName,
		Handle:     o.handle.String(),
		Kind:       o.kind.Name,
		SessionID:  c.sess.ID(),
	})
	if err != nil {
		c.log.Warn("registry: record handle", "handle", o.handle.String(), "err", err)
	}
}

func (c *Client) forget(ctx context.Context, o Object) {
	if c.reg == nil {
		return
	}
	if err := c.reg.ForgetHandle(ctx, c.cfg.ServerName, o.handle.String()); err != nil && !errors.Is(err, registry.ErrNotFound) {
		c.log.Warn("registry: forget handle", "handle", o.handle.String(), "err", err)
	}
}

func (c *Client) rename(ctx context.Context, o Object, name string) {
	if c.reg == nil {
		return
	}
	if err := c.reg.RenameHandle(ctx, c.cfg.ServerName, o.handle.String(), name); err != nil && !errors.Is(err, registry.ErrNotFound) {
		c.log.Warn("registry: rename handle", "handle", o.handle.String(), "err", err)
	}
}

// Journal lists the handles this client's registry holds for the server.
func (c *Client) Journal(ctx context.Context) ([]registry.Entry, error) {
	if c.reg == nil {
		return nil, fmt.Errorf("handle registry disabled")
	}
	return c.reg.ListHandles(ctx, c.cfg.ServerName)
}
