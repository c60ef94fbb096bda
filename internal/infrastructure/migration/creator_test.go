package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add trips table", "add_trips_table"},
		{"Add-Trips-Table", "add_trips_table"},
		{"ADD_TRIPS_TABLE", "add_trips_table"},
		{"add__trips__table", "add_trips_table"},
		{"Ledger Index 2", "ledger_index_2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_NumbersSequentially(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "add trips table", "Trip files")
	require.NoError(t, err)
	assert.Equal(t, "000001", first.Version)
	assert.Equal(t, "000001_add_trips_table.up.sql", filepath.Base(first.UpPath))

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "add trips table")
	assert.Contains(t, string(up), "Trip files")

	down, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback")

	second, err := CreateMigration(dir, "ledger index", "")
	require.NoError(t, err)
	assert.Equal(t, "000002", second.Version)
	assert.True(t, strings.HasSuffix(second.DownPath, "000002_ledger_index.down.sql"))
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "nested", "migrations")

	_, err := CreateMigration(nested, "test", "test migration")
	require.NoError(t, err)

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_create_trips.up.sql":      {Data: []byte("--")},
		"000002_create_trips.down.sql":    {Data: []byte("--")},
		"000001_create_identity.up.sql":   {Data: []byte("--")},
		"000001_create_identity.down.sql": {Data: []byte("--")},
		"README.md":                       {Data: []byte("docs")},
		"subdir.up.sql/keep":              {Data: []byte("")},
	}

	got, err := ListMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_create_identity", "000002_create_trips"}, got)
}

func TestListMigrations_MissingDirectory(t *testing.T) {
	got, err := ListMigrations(os.DirFS("/nonexistent/path/to/migrations"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups, err := ListMigrations(Embedded())
	require.NoError(t, err)
	require.NotEmpty(t, ups)
	for _, base := range ups {
		_, err := Embedded().Open(base + ".down.sql")
		assert.NoError(t, err, "missing down migration for %s", base)
	}
}
