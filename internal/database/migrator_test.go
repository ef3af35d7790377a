package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"access-console/migrations"
)

func TestMigrationFilesOrderAndSkips(t *testing.T) {
	fsys := fstest.MapFS{
		"010_later.sql":       {Data: []byte("SELECT 1;")},
		"001_first.sql":       {Data: []byte("SELECT 1;")},
		"005_reset_all.sql":   {Data: []byte("DROP TABLE x;")},
		"README.md":           {Data: []byte("notes")},
		"archive/002_old.sql": {Data: []byte("SELECT 1;")},
	}
	files, err := MigrationFiles(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_first.sql", "010_later.sql"}, files)
}

func TestEmbeddedMigrations(t *testing.T) {
	files, err := MigrationFiles(migrations.FS)
	require.NoError(t, err)
	assert.Contains(t, files, "001_audit_logs.sql")
}
