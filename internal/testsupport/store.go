package testsupport

import (
	"context"
	"testing"

	"storyreel/internal/config"
	"storyreel/internal/script"
	"storyreel/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// SeedProject saves the project and returns it.
func SeedProject(t testing.TB, st *store.Store, project script.Project) script.Project {
	t.Helper()

	if err := st.SaveProject(context.Background(), project); err != nil {
		t.Fatalf("store.SaveProject: %v", err)
	}
	return project
}
