package trie

import (
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	gethtrie "github.com/ethereum/go-ethereum/trie"
	"github.com/ethereum/go-ethereum/trie/trienode"
	"github.com/ethereum/go-ethereum/triedb"

	"raritystake/storage"
)

// Trie is the ledger's working state: a Merkle Patricia trie plus the root of
// the last committed transition. Mutations stay in memory until Commit and
// are dropped by Rollback. Keys are hashed by the caller.
//
// Trie is not safe for concurrent use.
type Trie struct {
	nodes     *triedb.Database
	working   *gethtrie.Trie
	committed common.Hash
	dirty     bool
}

// NewTrie opens the trie at root. A nil or empty root denotes the empty trie.
func NewTrie(store storage.Database, root []byte) (*Trie, error) {
	t := &Trie{nodes: store.TrieDB(), committed: gethtypes.EmptyRootHash}
	if len(root) > 0 {
		t.committed = common.BytesToHash(root)
	}
	if err := t.reopen(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Trie) reopen() error {
	working, err := gethtrie.New(gethtrie.TrieID(t.committed), t.nodes)
	if err != nil {
		return err
	}
	t.working = working
	t.dirty = false
	return nil
}

// Get returns the value under key, or nil when it is absent.
func (t *Trie) Get(key []byte) ([]byte, error) {
	return t.working.Get(key)
}

// Update stores value under key.
func (t *Trie) Update(key, value []byte) error {
	t.dirty = true
	return t.working.Update(key, value)
}

// Delete removes key. Missing keys are ignored.
func (t *Trie) Delete(key []byte) error {
	t.dirty = true
	return t.working.Delete(key)
}

// Hash returns the root including uncommitted mutations.
func (t *Trie) Hash() common.Hash {
	return t.working.Hash()
}

// Root returns the last committed root.
func (t *Trie) Root() common.Hash {
	return t.committed
}

// Dirty reports whether mutations are pending.
func (t *Trie) Dirty() bool {
	return t.dirty
}

// Rollback drops pending mutations.
func (t *Trie) Rollback() error {
	if !t.dirty {
		return nil
	}
	return t.reopen()
}

// Restore reopens the trie at an earlier committed root, dropping pending
// mutations. Nodes committed since stay in the database unreferenced.
func (t *Trie) Restore(root common.Hash) error {
	previous := t.committed
	t.committed = root
	if err := t.reopen(); err != nil {
		t.committed = previous
		return err
	}
	return nil
}

// Commit flushes pending nodes to the backing database as state version
// sequence and returns the new committed root. A clean trie commits nothing.
func (t *Trie) Commit(sequence uint64) (common.Hash, error) {
	if !t.dirty {
		return t.committed, nil
	}
	root, nodes := t.working.Commit(false)
	if nodes != nil {
		merged := trienode.NewMergedNodeSet()
		if err := merged.Merge(nodes); err != nil {
			return common.Hash{}, err
		}
		if err := t.nodes.Update(root, t.committed, sequence, merged, nil); err != nil {
			return common.Hash{}, err
		}
		if err := t.nodes.Commit(root, false); err != nil {
			return common.Hash{}, err
		}
	}
	t.committed = root
	if err := t.reopen(); err != nil {
		return common.Hash{}, err
	}
	return root, nil
}
