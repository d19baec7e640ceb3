package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/g960059/kstclient/internal/registry"
)

func NewRegistry(t *testing.T) (*registry.Store, context.Context) {
	t.Helper()
	ctx := context.Background()
	store, err := registry.Open(ctx, filepath.Join(t.TempDir(), "kst-test.db"))
	if err != nil {
		t.Fatalf("open test registry: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	if err := registry.ApplyMigrations(ctx, store.DB()); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return store, ctx
}
