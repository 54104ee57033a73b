package idempotency

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "idem", "responses.db")
	store, err := Open(path)
	require.NoError(t, err)
	return store, path
}

func TestStoreRoundTripAndExpiry(t *testing.T) {
	store, _ := openTestStore(t)
	defer store.Close()

	now := time.Unix(1_700_000_000, 0)
	key := Key("token_transfer", "retry-1")
	hash := RequestHash([]byte(`{"amount":"1"}`))
	require.NoError(t, store.Put(key, Record{
		Method:      "token_transfer",
		RequestHash: hash,
		StatusCode:  200,
		Body:        []byte(`{"result":true}`),
		StoredAt:    now,
		ExpiresAt:   now.Add(time.Hour),
	}))

	record, ok, err := store.Get(key, hash, now.Add(time.Minute))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 200, record.StatusCode)
	require.JSONEq(t, `{"result":true}`, string(record.Body))

	_, _, err = store.Get(key, RequestHash([]byte("other")), now)
	require.ErrorIs(t, err, ErrKeyReused)

	_, ok, err = store.Get(key, hash, now.Add(2*time.Hour))
	require.NoError(t, err)
	require.False(t, ok)
	_, ok, err = store.Get(key, RequestHash([]byte("other")), now)
	require.NoError(t, err)
	require.False(t, ok, "expired record should be deleted")
}

func TestStoreKeysAreScopedByMethod(t *testing.T) {
	require.NotEqual(t, Key("token_mint", "k"), Key("token_transfer", "k"))
	require.Equal(t, Key("token_mint", "k"), Key("token_mint", "k"))
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	store, path := openTestStore(t)
	now := time.Now()
	require.NoError(t, store.Put("k", Record{RequestHash: "h", StatusCode: 200, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	_, ok, err := reopened.Get("k", "h", now)
	require.NoError(t, err)
	require.True(t, ok)
}
