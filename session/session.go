// Package session owns the connection to one plotting server: it dials
// (launching the server when nothing listens), carries strictly
// half-duplex command/reply exchanges and brackets edits of server
// objects in begin/end transactions.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/g960059/kstclient/config"
	"github.com/g960059/kstclient/launcher"
)

type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateBroken
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateBroken:
		return "broken"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

type Dialer interface {
	Dial(ctx context.Context, endpoint string) (net.Conn, error)
}

type UnixDialer struct{}

func (UnixDialer) Dial(ctx context.Context, endpoint string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "unix", endpoint)
}

type Option func(*Session)

func WithDialer(d Dialer) Option {
	return func(s *Session) {
		s.dialer = d
	}
}

func WithLauncher(l launcher.Launcher) Option {
	return func(s *Session) {
		s.launcher = l
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.log = l
	}
}

type Session struct {
	cfg      config.Config
	id       string
	log      *slog.Logger
	dialer   Dialer
	launcher launcher.Launcher
	state    atomic.Int32

	// mu serializes every exchange on conn, including whole transactions.
	mu     sync.Mutex
	conn   net.Conn
	broken error
	proc   launcher.Process
}

// Connect returns a session connected to the server named in cfg. When no
// server is listening and cfg.AutoLaunch is set, the server binary is
// started once and dialing is retried with exponential backoff until
// cfg.ConnectDeadline or cfg.MaxConnectAttempts runs out.
func Connect(ctx context.Context, cfg config.Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		cfg:      cfg,
		id:       uuid.NewString(),
		dialer:   UnixDialer{},
		launcher: launcher.OSLauncher{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	s.log = s.log.With("session", s.id, "server", cfg.ServerName)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.connect(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Logger() *slog.Logger {
	return s.log
}

func (s *Session) Config() config.Config {
	return s.cfg
}

func (s *Session) State() State {
	return State(s.state.Load())
}

// Process returns the server this session launched, or nil when it
// attached to one that was already running.
func (s *Session) Process() launcher.Process {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proc
}

// Reconnect drops the current connection and runs the connect procedure
// again. It is the way out of StateBroken.
func (s *Session) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State() == StateClosed {
		return &OpError{Op: "reconnect", Err: fmt.Errorf("%w: session closed", ErrTransport)}
	}
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	s.broken = nil
	return s.connect(ctx)
}

// Close closes the connection. A server launched by this session is
// stopped only when cfg.OwnServer is set.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State() == StateClosed {
		return nil
	}
	s.state.Store(int32(StateClosed))
	var errs []error
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
		s.conn = nil
	}
	if s.cfg.OwnServer && s.proc != nil {
		s.log.Info("stopping owned server", "pid", s.proc.Pid())
		if err := s.proc.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop server: %w", err))
		}
		s.proc = nil
	}
	return errors.Join(errs...)
}

func (s *Session) connect(ctx context.Context) error {
	s.state.Store(int32(StateConnecting))
	endpoint := s.cfg.EndpointPath()

	conn, err := s.dialOnce(ctx, endpoint)
	if err == nil {
		s.attach(conn, endpoint, 1)
		return nil
	}
	if !s.cfg.AutoLaunch {
		return s.connectFailed(endpoint, fmt.Errorf("no server listening: %w", err))
	}
	if s.proc == nil || processExited(s.proc) {
		proc, err := s.launcher.Launch(ctx, s.cfg.ServerBinary, s.cfg.LaunchArgs()...)
		if err != nil {
			return s.connectFailed(endpoint, fmt.Errorf("launch %s: %w", s.cfg.ServerBinary, err))
		}
		s.proc = proc
		s.log.Info("launched server", "binary", s.cfg.ServerBinary, "pid", proc.Pid())
	}
	if err := sleepWithContext(ctx, s.cfg.SettleDelay); err != nil {
		return s.connectFailed(endpoint, err)
	}

	retryCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectDeadline)
	defer cancel()
	backoff := s.cfg.RetryMinBackoff
	for attempt := 1; ; attempt++ {
		conn, err := s.dialOnce(retryCtx, endpoint)
		if err == nil {
			s.attach(conn, endpoint, attempt+1)
			return nil
		}
		s.log.Debug("dial failed", "endpoint", endpoint, "attempt", attempt, "err", err)
		if s.cfg.MaxConnectAttempts > 0 && attempt >= s.cfg.MaxConnectAttempts {
			return s.connectFailed(endpoint, fmt.Errorf("gave up after %d attempts: %w", attempt, err))
		}
		timer := time.NewTimer(backoff)
		select {
		case <-s.proc.Done():
			timer.Stop()
			// one last try: the process may have handed off to a running instance
			if conn, dialErr := s.dialOnce(ctx, endpoint); dialErr == nil {
				s.attach(conn, endpoint, attempt+1)
				return nil
			}
			return s.connectFailed(endpoint, fmt.Errorf("server exited before accepting connections: %v", s.proc.Err()))
		case <-retryCtx.Done():
			timer.Stop()
			return s.connectFailed(endpoint, fmt.Errorf("%w (last dial error: %v)", retryCtx.Err(), err))
		case <-timer.C:
		}
		backoff = min(backoff*2, s.cfg.RetryMaxBackoff)
	}
}

func (s *Session) dialOnce(ctx context.Context, endpoint string) (net.Conn, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectAttemptTimeout)
	defer cancel()
	return s.dialer.Dial(attemptCtx, endpoint)
}

func (s *Session) attach(conn net.Conn, endpoint string, attempts int) {
	s.conn = conn
	s.broken = nil
	s.state.Store(int32(StateConnected))
	s.log.Debug("connected", "endpoint", endpoint, "attempts", attempts)
}

func (s *Session) connectFailed(endpoint string, cause error) error {
	s.state.Store(int32(StateDisconnected))
	if s.cfg.OwnServer && s.proc != nil {
		if err := s.proc.Stop(); err != nil {
			s.log.Warn("stop server after failed connect", "err", err)
		}
		s.proc = nil
	}
	return &OpError{Op: "connect", Err: fmt.Errorf("%w: %s: %w", ErrConnectionFailed, endpoint, cause)}
}

func processExited(p launcher.Process) bool {
	select {
	case <-p.Done():
		return true
	default:
		return false
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
