package registry

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*Store, context.Context) {
	t.Helper()
	ctx := context.Background()
	s, err := OpenMigrated(ctx, filepath.Join(t.TempDir(), "nested", "handles.db"))
	if err != nil {
		t.Fatalf("open registry: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s, ctx
}

func TestRecordListForgetHandles(t *testing.T) {
	s, ctx := newStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []Entry{
		{ServerName: "kstScript", Handle: "V1", Kind: "GeneratedVector", SessionID: "s1", CreatedAt: base},
		{ServerName: "kstScript", Handle: "C2", Kind: "Curve", Name: "signal", SessionID: "s1", CreatedAt: base.Add(time.Second)},
		{ServerName: "other", Handle: "V1", Kind: "DataVector", SessionID: "s2", CreatedAt: base},
	}
	for _, e := range entries {
		require.NoError(t, s.RecordHandle(ctx, e))
	}

	got, err := s.ListHandles(ctx, "kstScript")
	require.NoError(t, err)
	if diff := cmp.Diff(entries[:2], got); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
	all, err := s.ListHandles(ctx, "")
	require.NoError(t, err)
	if len(all) != 3 {
		t.Fatalf("expected 3 entries across servers, got %d", len(all))
	}

	require.NoError(t, s.RenameHandle(ctx, "kstScript", "V1", "time"))
	e, err := s.GetHandle(ctx, "kstScript", "V1")
	require.NoError(t, err)
	if e.Name != "time" {
		t.Fatalf("expected renamed entry, got %q", e.Name)
	}

	require.NoError(t, s.ForgetHandle(ctx, "kstScript", "V1"))
	if _, err := s.GetHandle(ctx, "kstScript", "V1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.ForgetHandle(ctx, "kstScript", "V1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second forget, got %v", err)
	}
	if err := s.RenameHandle(ctx, "kstScript", "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on rename, got %v", err)
	}

	n, err := s.ForgetServer(ctx, "kstScript")
	require.NoError(t, err)
	if n != 1 {
		t.Fatalf("expected 1 removed handle, got %d", n)
	}
	left, err := s.ListHandles(ctx, "")
	require.NoError(t, err)
	if len(left) != 1 || left[0].ServerName != "other" {
		t.Fatalf("unexpected remaining entries: %#v", left)
	}
}

func TestRecordHandleReplacesReusedHandle(t *testing.T) {
	s, ctx := newStore(t)
	require.NoError(t, s.RecordHandle(ctx, Entry{ServerName: "kstScript", Handle: "V1", Kind: "DataVector", SessionID: "s1"}))
	require.NoError(t, s.RecordHandle(ctx, Entry{ServerName: "kstScript", Handle: "V1", Kind: "EditableVector", SessionID: "s2"}))
	e, err := s.GetHandle(ctx, "kstScript", "V1")
	require.NoError(t, err)
	if e.Kind != "EditableVector" || e.SessionID != "s2" {
		t.Fatalf("expected replaced entry, got %#v", e)
	}
}

func TestSessionLifecycle(t *testing.T) {
	s, ctx := newStore(t)
	pid := int64(4242)
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.StartSession(ctx, SessionRecord{SessionID: "s1", ServerName: "kstScript", Endpoint: "/tmp/kstScript", ServerPID: &pid, StartedAt: started}))
	require.NoError(t, s.StartSession(ctx, SessionRecord{SessionID: "s2", ServerName: "kstScript", Endpoint: "/tmp/kstScript", StartedAt: started.Add(time.Minute)}))

	closed := started.Add(30 * time.Second)
	require.NoError(t, s.EndSession(ctx, "s1", closed))
	if err := s.EndSession(ctx, "s1", closed); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for already closed session, got %v", err)
	}

	recs, err := s.ListSessions(ctx, "kstScript")
	require.NoError(t, err)
	if len(recs) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(recs))
	}
	if recs[0].ServerPID == nil || *recs[0].ServerPID != 4242 {
		t.Fatalf("expected pid 4242, got %v", recs[0].ServerPID)
	}
	if recs[0].ClosedAt == nil || !recs[0].ClosedAt.Equal(closed) {
		t.Fatalf("expected closed_at %s, got %v", closed, recs[0].ClosedAt)
	}
	if recs[1].ServerPID != nil || recs[1].ClosedAt != nil {
		t.Fatalf("expected open session without pid, got %#v", recs[1])
	}
}
