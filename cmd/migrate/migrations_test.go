package main

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repoMigrationsDir(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	require.True(t, ok, "runtime.Caller failed")
	// cmd/migrate -> repo root
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "db", "migrations")
}

func readMigration(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(repoMigrationsDir(t), name))
	require.NoError(t, err)
	return string(b)
}

func TestMigrations_CollectInOrder(t *testing.T) {
	migrations, err := goose.CollectMigrations(repoMigrationsDir(t), 0, goose.MaxVersion)
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	for i, m := range migrations {
		assert.EqualValues(t, i+1, m.Version, "migration versions must be contiguous")
	}
}

func TestMigrations_HaveUpAndDown(t *testing.T) {
	entries, err := os.ReadDir(repoMigrationsDir(t))
	require.NoError(t, err)

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		sql := readMigration(t, e.Name())
		assert.Contains(t, sql, "-- +goose Up", e.Name())
		assert.Contains(t, sql, "-- +goose Down", e.Name())
	}
}

func TestMigrations_ReviewConstraints(t *testing.T) {
	sql := readMigration(t, "00003_create_reviews.sql")

	assert.Contains(t, sql, "UNIQUE (book_id, user_id)")
	assert.Contains(t, sql, "rating BETWEEN 1 AND 5")
	assert.Contains(t, sql, "ON DELETE CASCADE")
}
