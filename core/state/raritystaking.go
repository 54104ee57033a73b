package state

import (
	"raritystake/native/raritystaking"
)

// RarityLedgerGet loads the staking ledger singleton.
func (m *Manager) RarityLedgerGet() (*raritystaking.Ledger, bool, error) {
	ledger := new(raritystaking.Ledger)
	ok, err := m.KVGet(rarityLedgerKeyBytes, ledger)
	if err != nil || !ok {
		return nil, ok, err
	}
	return ledger, true, nil
}

// RarityLedgerPut stores the staking ledger singleton.
func (m *Manager) RarityLedgerPut(ledger *raritystaking.Ledger) error {
	return m.KVPut(rarityLedgerKeyBytes, ledger)
}

// TokenRarityGet loads the rarity entry of a token.
func (m *Manager) TokenRarityGet(id uint64) (*raritystaking.TokenRarity, bool, error) {
	rarity := new(raritystaking.TokenRarity)
	ok, err := m.KVGet(RarityTokenKey(id), rarity)
	if err != nil || !ok {
		return nil, ok, err
	}
	return rarity, true, nil
}

// TokenRarityPut stores the rarity entry of a token.
func (m *Manager) TokenRarityPut(rarity *raritystaking.TokenRarity) error {
	return m.KVPut(RarityTokenKey(rarity.TokenID), rarity)
}

// StakeRecordGet loads the stake record of a token.
func (m *Manager) StakeRecordGet(id uint64) (*raritystaking.StakeRecord, bool, error) {
	record := new(raritystaking.StakeRecord)
	ok, err := m.KVGet(RarityStakeKey(id), record)
	if err != nil || !ok {
		return nil, ok, err
	}
	return record, true, nil
}

// StakeRecordPut stores the stake record of a token.
func (m *Manager) StakeRecordPut(record *raritystaking.StakeRecord) error {
	return m.KVPut(RarityStakeKey(record.TokenID), record)
}

// StakeRecordDelete removes the stake record of a token.
func (m *Manager) StakeRecordDelete(id uint64) error {
	return m.KVDelete(RarityStakeKey(id))
}

// UserStakedGet returns the tokens owner has staked, in stake order.
func (m *Manager) UserStakedGet(owner [20]byte) ([]uint64, error) {
	return loadList[uint64](m, RarityUserKey(owner))
}

// UserStakedPut replaces owner's staked token index. An empty index is removed.
func (m *Manager) UserStakedPut(owner [20]byte, ids []uint64) error {
	if len(ids) == 0 {
		return m.KVDelete(RarityUserKey(owner))
	}
	return m.KVPut(RarityUserKey(owner), ids)
}

// RaffleRoundGet loads a completed raffle round.
func (m *Manager) RaffleRoundGet(round uint64) (*raritystaking.RaffleRound, bool, error) {
	result := new(raritystaking.RaffleRound)
	ok, err := m.KVGet(RarityRaffleKey(round), result)
	if err != nil || !ok {
		return nil, ok, err
	}
	return result, true, nil
}

// RaffleRoundPut stores a completed raffle round.
func (m *Manager) RaffleRoundPut(round *raritystaking.RaffleRound) error {
	return m.KVPut(RarityRaffleKey(round.Round), round)
}
