package state

import (
	"errors"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"raritystake/storage/trie"
)

// ErrEmptyKey is returned for zero-length state keys.
var ErrEmptyKey = errors.New("state: key must not be empty")

// Manager stores ledger records in the state trie. Keys are keccak256 hashed
// so record prefixes never collide with trie internals, values are RLP.
type Manager struct {
	trie *trie.Trie
}

// NewManager binds a manager to the working trie of one state transition.
func NewManager(tr *trie.Trie) *Manager {
	return &Manager{trie: tr}
}

// Trie returns the working trie.
func (m *Manager) Trie() *trie.Trie { return m.trie }

func hashedKey(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	return ethcrypto.Keccak256(key), nil
}

// KVPut RLP-encodes value under key.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	hashed, err := hashedKey(key)
	if err != nil {
		return err
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.trie.Update(hashed, encoded)
}

// KVGet decodes the record under key into out and reports whether it exists.
// A nil out only checks presence.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	data, err := m.raw(key)
	if err != nil || len(data) == 0 {
		return false, err
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVDelete removes the record under key.
func (m *Manager) KVDelete(key []byte) error {
	hashed, err := hashedKey(key)
	if err != nil {
		return err
	}
	return m.trie.Delete(hashed)
}

func (m *Manager) raw(key []byte) ([]byte, error) {
	hashed, err := hashedKey(key)
	if err != nil {
		return nil, err
	}
	return m.trie.Get(hashed)
}

// loadList decodes an RLP list stored under key. A missing record yields an
// empty, non-nil slice.
func loadList[T any](m *Manager, key []byte) ([]T, error) {
	data, err := m.raw(key)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return []T{}, nil
	}
	var list []T
	if err := rlp.DecodeBytes(data, &list); err != nil {
		return nil, err
	}
	return list, nil
}
