package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename string
		valid    bool
		version  int
		name     string
	}{
		{"0001_init_schema_migrations.sql", true, 1, "init_schema_migrations"},
		{"0003_statement_imports.sql", true, 3, "statement_imports"},
		{"001_invalid.sql", false, 0, ""},
		{"0001_test", false, 0, ""},
		{"0001.sql", false, 0, ""},
		{"invalid_0001_test.sql", false, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, ok := parseMigrationFilename(tt.filename)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.version, version)
			assert.Equal(t, tt.name, name)
		})
	}
}

func TestChecksumIgnoresPlaceholders(t *testing.T) {
	content := []byte("CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.t` (id INT64);")

	assert.Equal(t, checksum(content), checksum([]byte(string(content))))
	assert.NotEqual(t, checksum(content), checksum([]byte("CREATE TABLE other (id INT64);")))
	assert.Equal(t, "CREATE TABLE `proj.household.t` (id INT64);", renderSQL(string(content), "proj", "household"))
}

func TestReadMigrations(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"0002_second.sql": "SELECT 2",
		"0001_first.sql":  "SELECT `{{DATASET_ID}}`",
		"README.md":       "ignored",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}

	ms, err := readMigrations(dir, "proj", "household")
	require.NoError(t, err)

	require.Len(t, ms, 2)
	assert.Equal(t, 1, ms[0].Version)
	assert.Equal(t, "SELECT `household`", ms[0].SQL)
	assert.Equal(t, "second", ms[1].Name)
}

func TestRepoMigrationsAreReadable(t *testing.T) {
	dir, err := resolveDir("migrations/bigquery")
	require.NoError(t, err)

	ms, err := readMigrations(dir, "proj", "household")
	require.NoError(t, err)

	require.NotEmpty(t, ms)
	assert.Equal(t, 1, ms[0].Version)
	for _, m := range ms {
		assert.NotContains(t, m.SQL, "{{")
	}
}

func TestPendingMigrations(t *testing.T) {
	all := []Migration{{Version: 1}, {Version: 2}, {Version: 3}}

	pending := pendingMigrations(all, []AppliedMigration{{Version: 1}, {Version: 3}})

	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].Version)
	assert.Len(t, pendingMigrations(all, nil), 3)
}
