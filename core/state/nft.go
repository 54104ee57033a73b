package state

import (
	"raritystake/native/nft"
)

// NFTCollectionGet loads the collection singleton.
func (m *Manager) NFTCollectionGet() (*nft.Collection, bool, error) {
	collection := new(nft.Collection)
	ok, err := m.KVGet(nftCollectionKeyBytes, collection)
	if err != nil || !ok {
		return nil, ok, err
	}
	return collection, true, nil
}

// NFTCollectionPut stores the collection singleton.
func (m *Manager) NFTCollectionPut(collection *nft.Collection) error {
	return m.KVPut(nftCollectionKeyBytes, collection)
}

// NFTOwnerGet returns the owner of token id.
func (m *Manager) NFTOwnerGet(id uint64) ([20]byte, bool, error) {
	var owner [20]byte
	ok, err := m.KVGet(NFTOwnerKey(id), &owner)
	return owner, ok, err
}

// NFTOwnerPut records the owner of token id.
func (m *Manager) NFTOwnerPut(id uint64, owner [20]byte) error {
	return m.KVPut(NFTOwnerKey(id), owner)
}

// NFTBalanceGet returns the number of tokens held by owner.
func (m *Manager) NFTBalanceGet(owner [20]byte) (uint64, error) {
	var count uint64
	if _, err := m.KVGet(NFTBalanceKey(owner), &count); err != nil {
		return 0, err
	}
	return count, nil
}

// NFTBalancePut stores the number of tokens held by owner.
func (m *Manager) NFTBalancePut(owner [20]byte, count uint64) error {
	if count == 0 {
		return m.KVDelete(NFTBalanceKey(owner))
	}
	return m.KVPut(NFTBalanceKey(owner), count)
}

// NFTApprovedGet returns the account approved to move token id.
func (m *Manager) NFTApprovedGet(id uint64) ([20]byte, error) {
	var spender [20]byte
	if _, err := m.KVGet(NFTApprovedKey(id), &spender); err != nil {
		return [20]byte{}, err
	}
	return spender, nil
}

// NFTApprovedPut sets the approval of token id. The zero address clears it.
func (m *Manager) NFTApprovedPut(id uint64, spender [20]byte) error {
	if spender == ([20]byte{}) {
		return m.KVDelete(NFTApprovedKey(id))
	}
	return m.KVPut(NFTApprovedKey(id), spender)
}

// NFTOperatorGet reports whether operator may move all of owner's tokens.
func (m *Manager) NFTOperatorGet(owner, operator [20]byte) (bool, error) {
	return m.KVGet(NFTOperatorKey(owner, operator), nil)
}

// NFTOperatorPut grants or revokes an operator approval.
func (m *Manager) NFTOperatorPut(owner, operator [20]byte, approved bool) error {
	key := NFTOperatorKey(owner, operator)
	if !approved {
		return m.KVDelete(key)
	}
	return m.KVPut(key, true)
}
