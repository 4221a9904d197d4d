package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/conf"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/datastore"
)

// NewStore opens a fresh SQLite store in a temp directory with the schema
// applied. The store is closed when the test ends.
func NewStore(t *testing.T) *datastore.Manager {
	t.Helper()

	cfg := &conf.StoreSettings{
		Driver: conf.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "registry.db"),
	}
	store, err := datastore.Open(cfg, Logger())
	require.NoError(t, err, "failed to open test store")
	t.Cleanup(func() {
		_ = store.Close()
	})

	require.NoError(t, store.Initialize(t.Context()), "failed to initialize test store")
	return store
}
