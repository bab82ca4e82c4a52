package testsupport

import (
	"testing"

	"mediaflow/internal/config"
	"mediaflow/internal/store"
)

// MustOpenStore opens the run database for cfg and closes it on cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()
	s, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}
