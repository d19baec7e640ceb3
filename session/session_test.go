package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/g960059/kstclient/config"
	"github.com/g960059/kstclient/internal/testutil"
	"github.com/g960059/kstclient/launcher"
	"github.com/g960059/kstclient/protocol"
)

func testConfig(dir, name string) config.Config {
	cfg := config.DefaultConfig()
	cfg.ServerName = name
	cfg.SocketDir = dir
	cfg.AutoLaunch = false
	cfg.ConnectAttemptTimeout = 100 * time.Millisecond
	cfg.SettleDelay = 10 * time.Millisecond
	cfg.RetryMinBackoff = 5 * time.Millisecond
	cfg.RetryMaxBackoff = 40 * time.Millisecond
	cfg.ConnectDeadline = 2 * time.Second
	cfg.CommandTimeout = 2 * time.Second
	cfg.RegistryPath = ""
	return cfg
}

func quietLogger() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type fakeProcess struct {
	done    chan struct{}
	once    sync.Once
	stopped atomic.Int32
}

func newFakeProcess() *fakeProcess {
	return &fakeProcess{done: make(chan struct{})}
}

func (p *fakeProcess) Pid() int { return 4242 }

func (p *fakeProcess) Done() <-chan struct{} { return p.done }

func (p *fakeProcess) Err() error {
	select {
	case <-p.done:
		return errors.New("exited")
	default:
		return nil
	}
}

func (p *fakeProcess) exit() {
	p.once.Do(func() { close(p.done) })
}

func (p *fakeProcess) Stop() error {
	p.stopped.Add(1)
	p.exit()
	return nil
}

type launchCall struct {
	binary string
	args   []string
}

type fakeLauncher struct {
	mu       sync.Mutex
	calls    []launchCall
	proc     *fakeProcess
	onLaunch func()
	err      error
}

func (l *fakeLauncher) Launch(_ context.Context, binary string, args ...string) (launcher.Process, error) {
	l.mu.Lock()
	l.calls = append(l.calls, launchCall{binary: binary, args: append([]string(nil), args...)})
	l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	if l.onLaunch != nil {
		l.onLaunch()
	}
	return l.proc, nil
}

func (l *fakeLauncher) callCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls)
}

func TestConnectToRunningServer(t *testing.T) {
	srv := testutil.NewFakeServer(t, "kstScript", testutil.Static("Ok"))
	cfg := testConfig(srv.Dir(), "kstScript")

	s, err := Connect(context.Background(), cfg, quietLogger())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer s.Close()
	if s.State() != StateConnected {
		t.Fatalf("expected connected, got %s", s.State())
	}
	if s.Process() != nil {
		t.Fatalf("expected no launched process")
	}
	reply, err := s.Send(context.Background(), protocol.NewCommand("tabCount"))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if reply != "Ok" {
		t.Fatalf("expected Ok, got %q", reply)
	}
}

func TestConnectWithoutServerFails(t *testing.T) {
	cfg := testConfig(testutil.SocketDir(t), "absent")
	_, err := Connect(context.Background(), cfg, quietLogger())
	if !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("expected ErrConnectionFailed, got %v", err)
	}
}

func TestConnectLaunchesServerOnce(t *testing.T) {
	dir := testutil.SocketDir(t)
	path := filepath.Join(dir, "kstScript")
	started := make(chan *testutil.FakeServer, 1)
	l := &fakeLauncher{proc: newFakeProcess()}
	l.onLaunch = func() {
		go func() {
			time.Sleep(60 * time.Millisecond)
			srv, err := testutil.ListenFakeServer(path, testutil.Static("Ok"))
			if err != nil {
				close(started)
				return
			}
			started <- srv
		}()
	}
	cfg := testConfig(dir, "kstScript")
	cfg.AutoLaunch = true

	s, err := Connect(context.Background(), cfg, WithLauncher(l), quietLogger())
	srv := <-started
	if srv != nil {
		defer srv.Close()
	}
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer s.Close()
	if l.callCount() != 1 {
		t.Fatalf("expected one launch, got %d", l.callCount())
	}
	if l.calls[0].binary != "kst2" {
		t.Fatalf("expected kst2, got %s", l.calls[0].binary)
	}
	if len(l.calls[0].args) != 1 || l.calls[0].args[0] != "--serverName=kstScript" {
		t.Fatalf("unexpected launch args %#v", l.calls[0].args)
	}
	if s.Process() == nil {
		t.Fatalf("expected launched process to be tracked")
	}
}

func TestConnectGivesUpAfterMaxAttempts(t *testing.T) {
	proc := newFakeProcess()
	l := &fakeLauncher{proc: proc}
	cfg := testConfig(testutil.SocketDir(t), "never")
	cfg.AutoLaunch = true
	cfg.OwnServer = true
	cfg.MaxConnectAttempts = 3

	start := time.Now()
	_, err := Connect(context.Background(), cfg, WithLauncher(l), quietLogger())
	if !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("expected ErrConnectionFailed, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("expected bounded retry, took %s", time.Since(start))
	}
	if l.callCount() != 1 {
		t.Fatalf("expected exactly one launch, got %d", l.callCount())
	}
	if proc.stopped.Load() != 1 {
		t.Fatalf("expected owned server to be stopped after failed connect")
	}
}

func TestConnectRespectsDeadline(t *testing.T) {
	l := &fakeLauncher{proc: newFakeProcess()}
	cfg := testConfig(testutil.SocketDir(t), "never")
	cfg.AutoLaunch = true
	cfg.ConnectDeadline = 150 * time.Millisecond

	start := time.Now()
	_, err := Connect(context.Background(), cfg, WithLauncher(l), quietLogger())
	if !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("expected ErrConnectionFailed, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline in error chain, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("expected deadline to bound retries, took %s", elapsed)
	}
}

func TestConnectFailsFastWhenServerExits(t *testing.T) {
	proc := newFakeProcess()
	l := &fakeLauncher{proc: proc, onLaunch: proc.exit}
	cfg := testConfig(testutil.SocketDir(t), "crashy")
	cfg.AutoLaunch = true
	cfg.ConnectDeadline = 10 * time.Second

	start := time.Now()
	_, err := Connect(context.Background(), cfg, WithLauncher(l), quietLogger())
	if !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("expected ErrConnectionFailed, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("expected early exit to end retries, took %s", time.Since(start))
	}
}

func TestConnectLaunchError(t *testing.T) {
	l := &fakeLauncher{err: errors.New("no such binary")}
	cfg := testConfig(testutil.SocketDir(t), "kstScript")
	cfg.AutoLaunch = true
	_, err := Connect(context.Background(), cfg, WithLauncher(l), quietLogger())
	if !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("expected ErrConnectionFailed, got %v", err)
	}
}

func TestCloseStopsOnlyOwnedServer(t *testing.T) {
	for _, own := range []bool{false, true} {
		dir := testutil.SocketDir(t)
		path := filepath.Join(dir, "kstScript")
		proc := newFakeProcess()
		var srv *testutil.FakeServer
		l := &fakeLauncher{proc: proc}
		l.onLaunch = func() {
			var err error
			srv, err = testutil.ListenFakeServer(path, testutil.Static("Ok"))
			if err != nil {
				t.Errorf("listen: %v", err)
			}
		}
		cfg := testConfig(dir, "kstScript")
		cfg.AutoLaunch = true
		cfg.OwnServer = own

		s, err := Connect(context.Background(), cfg, WithLauncher(l), quietLogger())
		if err != nil {
			t.Fatalf("connect: %v", err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
		if srv != nil {
			srv.Close()
		}
		want := int32(0)
		if own {
			want = 1
		}
		if proc.stopped.Load() != want {
			t.Fatalf("own=%v: expected %d stops, got %d", own, want, proc.stopped.Load())
		}
		if s.State() != StateClosed {
			t.Fatalf("expected closed, got %s", s.State())
		}
		if err := s.Close(); err != nil {
			t.Fatalf("second close: %v", err)
		}
	}
}
