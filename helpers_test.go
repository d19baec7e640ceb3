package kst

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/g960059/kstclient/config"
	"github.com/g960059/kstclient/internal/testutil"
	"github.com/g960059/kstclient/session"
)

type fixture struct {
	c   *Client
	kst *testutil.Kst
	srv *testutil.FakeServer
	ctx context.Context
}

type fixtureOption func(*config.Config)

func withRegistry(t *testing.T) fixtureOption {
	path := filepath.Join(t.TempDir(), "handles.db")
	return func(cfg *config.Config) { cfg.RegistryPath = path }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	k := testutil.NewKst()
	srv := testutil.NewFakeServer(t, "kstTest", k.Handler())

	cfg := config.DefaultConfig()
	cfg.ServerName = "kstTest"
	cfg.SocketDir = srv.Dir()
	cfg.AutoLaunch = false
	cfg.ConnectAttemptTimeout = 200 * time.Millisecond
	cfg.CommandTimeout = 2 * time.Second
	cfg.ExchangeDir = t.TempDir()
	cfg.RegistryPath = ""
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx := context.Background()
	c, err := Connect(ctx, cfg, session.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return &fixture{c: c, kst: k, srv: srv, ctx: ctx}
}

// sent returns the commands received after the fixture was built.
func (f *fixture) sent() []string {
	return f.srv.Commands()
}

// payload drops the edit brackets from sent, leaving the commands that
// did the work.
func (f *fixture) payload() []string {
	var out []string
	for _, c := range f.sent() {
		if strings.HasPrefix(c, "beginEdit(") || c == "endEdit()" {
			continue
		}
		out = append(out, c)
	}
	return out
}
