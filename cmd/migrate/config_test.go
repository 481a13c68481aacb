package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsDir(t *testing.T) {
	t.Setenv("MIGRATIONS_DIR", "/custom/migrations")
	assert.Equal(t, "/custom/migrations", migrationsDir())

	t.Setenv("MIGRATIONS_DIR", "")
	assert.Equal(t, "db/migrations", migrationsDir())
}

func TestDatabaseDSN(t *testing.T) {
	t.Setenv("DB_DSN", "")
	assert.Equal(t, defaultDSN, databaseDSN())

	t.Setenv("DB_DSN", "postgres://x@db/y")
	assert.Equal(t, "postgres://x@db/y", databaseDSN())
}

func TestLoadEnvFiles_DoesNotOverrideExistingEnv(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmp, ".env"), []byte("DB_DSN=from_file\n"), 0o644))
	t.Setenv("DB_DSN", "from_env")

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmp))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	loadEnvFiles()
	assert.Equal(t, "from_env", os.Getenv("DB_DSN"))
}

func TestRun_WithoutDatabase(t *testing.T) {
	t.Run("create writes a goose file", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("MIGRATIONS_DIR", dir)

		require.NoError(t, run(context.Background(), []string{"-command", "create", "-name", "add_index"}))

		matches, err := filepath.Glob(filepath.Join(dir, "*_add_index.sql"))
		require.NoError(t, err)
		assert.Len(t, matches, 1)
	})

	t.Run("create needs a name", func(t *testing.T) {
		assert.ErrorIs(t, run(context.Background(), []string{"-command", "create"}), errUsage)
	})

	t.Run("unknown command", func(t *testing.T) {
		assert.ErrorIs(t, run(context.Background(), []string{"-command", "redo-all"}), errUsage)
	})
}
