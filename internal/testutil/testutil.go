// Package testutil provides shared test helpers for setting up data
// directories and index databases.
package testutil

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/dunghn/amlich/internal/index"
	"github.com/dunghn/amlich/internal/storage"
)

// TestDB creates a temporary SQLite index database that is
// automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "amlich-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates a temporary data directory with a storage.Provider
// configured for the given sources.
func TestStore(t *testing.T, sources ...string) storage.Provider {
	t.Helper()
	folders := make(map[string]string, len(sources))
	for _, s := range sources {
		folders[s] = ""
	}
	store, err := storage.NewFS(t.TempDir(), folders)
	if err != nil {
		t.Fatal(err)
	}
	return store
}

// DiscardLogger returns a logger that drops everything, for exercising
// code paths that log.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
