package testsupport

import (
	"context"
	"testing"

	"appunti/internal/config"
	"appunti/internal/journal"
)

// MustOpenJournal opens a journal.Store for tests and registers cleanup.
func MustOpenJournal(t testing.TB, cfg *config.Config) *journal.Store {
	t.Helper()

	store, err := journal.Open(cfg)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewRun creates a run record for tests using the provided store.
func NewRun(t testing.TB, store *journal.Store, name, sourcePath string) *journal.Run {
	t.Helper()

	run, err := store.NewRun(context.Background(), name, sourcePath, "audio", "lesson")
	if err != nil {
		t.Fatalf("store.NewRun: %v", err)
	}
	return run
}
