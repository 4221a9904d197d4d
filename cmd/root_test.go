package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/app"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/buildinfo"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/stats"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/testutil"
)

// run executes the CLI with args and returns its standard output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	env := app.NewEnv(buildinfo.NewContext("1.0.0", ""))
	t.Cleanup(func() { _ = env.Close() })

	root := RootCommand(env)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func writeConfig(t *testing.T, legacyDSN string) string {
	t.Helper()

	dir := t.TempDir()
	body := fmt.Sprintf(`logging:
  console:
    enabled: false
legacy:
  driver: sqlite
  dsn: %q
store:
  driver: sqlite
  dsn: %q
`, legacyDSN, filepath.Join(dir, "registry.db"))

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestVersion(t *testing.T) {
	t.Parallel()

	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "shelter-registry 1.0.0 (built unknown)\n", out)
}

func TestMigrateLinkAndStats(t *testing.T) {
	t.Parallel()

	legacyDB := testutil.NewLegacyDB(t)
	legacyDB.AddUser(727, "ana@example.org")
	legacyDB.AddPosts(testutil.LegacyPost{
		ID: 2151, Author: 727, Type: testutil.PostTypeShelter, Title: "Abrigo Centro",
		Meta: testutil.Meta("bairro", "Centro", "estado", "MG"),
	})
	config := writeConfig(t, legacyDB.Settings.DSN)

	out, err := run(t, "-c", config, "migrate", "shelters", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Migration Summary (dry run)")

	out, err = run(t, "-c", config, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "=== Migration Summary ===")
	assert.Contains(t, out, "shelter")

	out, err = run(t, "-c", config, "link", "--email", "ana@example.org")
	require.NoError(t, err)
	assert.Contains(t, out, "linked")
	assert.Contains(t, out, "2151")

	out, err = run(t, "-c", config, "stats", "--year", "2023", "--state", "mg")
	require.NoError(t, err)
	var summary stats.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.True(t, summary.HasData)
	assert.Equal(t, 1, summary.Overview.TotalShelters)

	out, err = run(t, "-c", config, "stats", "--year", "1999")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.False(t, summary.HasData)
}

func TestMigrateRejectsUnknownKind(t *testing.T) {
	t.Parallel()

	legacyDB := testutil.NewLegacyDB(t)
	config := writeConfig(t, legacyDB.Settings.DSN)

	_, err := run(t, "-c", config, "migrate", "kennels")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kennels")
}

func TestStatsRejectsInvalidYear(t *testing.T) {
	t.Parallel()

	legacyDB := testutil.NewLegacyDB(t)
	config := writeConfig(t, legacyDB.Settings.DSN)

	_, err := run(t, "-c", config, "stats", "--year", "soon")
	require.Error(t, err)
}

func TestLinkRequiresEmail(t *testing.T) {
	t.Parallel()

	legacyDB := testutil.NewLegacyDB(t)
	config := writeConfig(t, legacyDB.Settings.DSN)

	_, err := run(t, "-c", config, "link")
	require.Error(t, err)
}

func TestConfigInitAndValidate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "etc", "config.yaml")

	out, err := run(t, "-c", path, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, path)
	assert.FileExists(t, path)

	_, err = run(t, "-c", path, "config", "init")
	require.Error(t, err, "existing file is kept without --force")

	_, err = run(t, "-c", path, "config", "init", "--force")
	require.NoError(t, err)

	out, err = run(t, "-c", path, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid")
}

func TestInvalidConfigFails(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: oracle\n"), 0o600))

	_, err := run(t, "-c", path, "stats")
	require.Error(t, err)

	_, err = run(t, "-c", path, "config", "validate")
	require.Error(t, err)
}
