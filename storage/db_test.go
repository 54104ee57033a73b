package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemDBPutGet(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	_, err := db.Get([]byte("missing"))
	require.ErrorIs(t, err, ErrNotFound)

	has, err := db.Has([]byte("missing"))
	require.NoError(t, err)
	require.False(t, has)

	require.NoError(t, db.Put([]byte("head"), []byte{0x01}))
	got, err := db.Get([]byte("head"))
	require.NoError(t, err)
	require.Equal(t, []byte{0x01}, got)
	require.NotNil(t, db.TrieDB())
}

func TestLevelDBReopenKeepsValues(t *testing.T) {
	dir := t.TempDir()

	db, err := NewLevelDB(dir)
	require.NoError(t, err)
	require.NoError(t, db.Put([]byte("root"), []byte("abc")))
	db.Close()

	reopened, err := NewLevelDB(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get([]byte("root"))
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), got)

	_, err = reopened.Get([]byte("missing"))
	require.ErrorIs(t, err, ErrNotFound)
}
