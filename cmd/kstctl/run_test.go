package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kst "github.com/g960059/kstclient"
	"github.com/g960059/kstclient/config"
	"github.com/g960059/kstclient/exchange"
	"github.com/g960059/kstclient/internal/registry"
	"github.com/g960059/kstclient/internal/testutil"
	"github.com/g960059/kstclient/session"
)

func connectFake(t *testing.T, k *testutil.Kst) *kst.Client {
	t.Helper()
	srv := testutil.NewFakeServer(t, "kstctl", k.Handler())
	cfg := config.DefaultConfig()
	cfg.ServerName = "kstctl"
	cfg.SocketDir = srv.Dir()
	cfg.AutoLaunch = false
	cfg.CommandTimeout = 2 * time.Second
	cfg.ExchangeDir = t.TempDir()
	cfg.RegistryPath = ""
	c, err := kst.Connect(context.Background(), cfg, session.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestSendRawPrintsReply(t *testing.T) {
	k := testutil.NewKst()
	k.Set("tabCount()", "2")
	c := connectFake(t, k)
	var out bytes.Buffer

	require.NoError(t, sendRaw(context.Background(), c, newPrinter(&out, false), "tabCount()"))
	assert.Equal(t, "2\n", out.String())
}

func TestListNames(t *testing.T) {
	k := testutil.NewKst()
	k.Set("getPlotList()", "[P1][P2]")
	c := connectFake(t, k)
	var out bytes.Buffer

	kind, err := lookupKind("Plots")
	require.NoError(t, err)
	require.NoError(t, listNames(context.Background(), c, newPrinter(&out, false), kind))
	assert.Equal(t, "P1\nP2\n", out.String())

	_, err = lookupKind("teapots")
	assert.Error(t, err)
}

func TestPrintMatrixRows(t *testing.T) {
	k := testutil.NewKst()
	k.On("store", func(args []string) string {
		if err := exchange.WriteFloats(args[0], []float64{1, 2, 3, 4.5}); err != nil {
			return "error"
		}
		return "2 2"
	})
	c := connectFake(t, k)
	var out bytes.Buffer

	require.NoError(t, printMatrix(context.Background(), c, newPrinter(&out, false), "M1"))
	assert.Equal(t, "1 2\n3 4.5\n", out.String())
}

func TestPrintHandles(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "handles.db")
	store, err := registry.OpenMigrated(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.RecordHandle(ctx, registry.Entry{ServerName: "kstA", Handle: "V1", Kind: "DataVector", Name: "time", SessionID: "s1"}))
	require.NoError(t, store.RecordHandle(ctx, registry.Entry{ServerName: "kstB", Handle: "P1", Kind: "Plot", SessionID: "s2"}))
	require.NoError(t, store.Close())

	var out bytes.Buffer
	require.NoError(t, printHandles(ctx, path, "kstA", newPrinter(&out, false)))
	assert.Contains(t, out.String(), "V1")
	assert.Contains(t, out.String(), "time")
	assert.NotContains(t, out.String(), "P1")

	out.Reset()
	require.NoError(t, printHandles(ctx, path, "", newPrinter(&out, false)))
	assert.Contains(t, out.String(), "P1")
}
