package ml

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRoundTripUnusualNames(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"model?mode=memory.db",
		"model#v2.db",
		"rate 100%.sqlite",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, WriteSQLite(path, sampleModel()))

			// The export lands at the exact path and nowhere else.
			_, err := os.Stat(path)
			require.NoError(t, err)

			got, err := ReadSQLite(path)
			require.NoError(t, err)
			assert.Equal(t, sampleModel().Trees, got.Trees)
			assert.Equal(t, sampleModel().Columns, got.Columns)
		})
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestReadSQLiteIsReadOnly(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.db")
	_, err := ReadSQLite(missing)
	assert.Error(t, err)

	// mode=ro must not create the file.
	_, err = os.Stat(missing)
	assert.True(t, os.IsNotExist(err))
}

func TestSQLiteDSN(t *testing.T) {
	dsn, err := sqliteDSN("/srv/models/a?b#c.db", "ro")
	require.NoError(t, err)
	assert.Equal(t, "file:///srv/models/a%3Fb%23c.db?mode=ro", dsn)
}
