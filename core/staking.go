package core

import (
	"math/big"

	"raritystake/native/raritystaking"
)

// InitializeLedger creates the staking ledger with owner as contract owner.
func (n *Node) InitializeLedger(owner [20]byte) error {
	return n.apply("initialize_ledger", func(e *engines) error {
		return e.staking.Initialize(owner)
	})
}

// InitializeRarity writes a batch of rarity entries.
func (n *Node) InitializeRarity(caller [20]byte, entries []raritystaking.RarityEntry) error {
	return n.apply("initialize_rarity", func(e *engines) error {
		return e.staking.InitializeRarity(caller, entries)
	})
}

// SetRarityRoot commits the rarity dataset root.
func (n *Node) SetRarityRoot(caller [20]byte, root [32]byte) error {
	return n.apply("set_rarity_root", func(e *engines) error {
		return e.staking.SetRarityRoot(caller, root)
	})
}

// TokenRarity returns the rarity score of tokenID.
func (n *Node) TokenRarity(tokenID uint64) (uint64, error) {
	var score uint64
	err := n.view(func(e *engines) error {
		var err error
		score, err = e.staking.TokenRarity(tokenID)
		return err
	})
	return score, err
}

// StakeTokens stakes tokenIDs on behalf of caller.
func (n *Node) StakeTokens(caller [20]byte, tokenIDs []uint64) error {
	return n.apply("stake", func(e *engines) error {
		return e.staking.StakeTokens(caller, tokenIDs)
	})
}

// UnstakeTokens returns tokenIDs to caller and reports the settled reward.
func (n *Node) UnstakeTokens(caller [20]byte, tokenIDs []uint64) (*big.Int, error) {
	var settled *big.Int
	err := n.apply("unstake", func(e *engines) error {
		var err error
		settled, err = e.staking.UnstakeTokens(caller, tokenIDs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return settled, nil
}

// ClaimRewards pays out the rewards accrued by tokenIDs.
func (n *Node) ClaimRewards(caller [20]byte, tokenIDs []uint64) (*big.Int, error) {
	var claimed *big.Int
	err := n.apply("claim", func(e *engines) error {
		var err error
		claimed, err = e.staking.ClaimRewards(caller, tokenIDs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// PendingRewards previews the reward claimable for tokenID.
func (n *Node) PendingRewards(tokenID uint64) (*big.Int, error) {
	var pending *big.Int
	err := n.view(func(e *engines) error {
		var err error
		pending, err = e.staking.PendingRewards(tokenID)
		return err
	})
	return pending, err
}

// StakedInfo returns the stake record of tokenID.
func (n *Node) StakedInfo(tokenID uint64) (*raritystaking.StakeRecord, error) {
	var record *raritystaking.StakeRecord
	err := n.view(func(e *engines) error {
		var err error
		record, err = e.staking.StakedInfo(tokenID)
		return err
	})
	return record, err
}

// UserStaked lists the tokens owner has staked.
func (n *Node) UserStaked(owner [20]byte) ([]uint64, error) {
	var ids []uint64
	err := n.view(func(e *engines) error {
		var err error
		ids, err = e.staking.UserStaked(owner)
		return err
	})
	return ids, err
}

// RaffleRoll runs a raffle round over tokenIDs.
func (n *Node) RaffleRoll(caller [20]byte, tokenIDs []uint64) (*raritystaking.RaffleRound, error) {
	var round *raritystaking.RaffleRound
	err := n.apply("raffle_roll", func(e *engines) error {
		var err error
		round, err = e.staking.RaffleRoll(caller, tokenIDs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return round, nil
}

// RaffleResult returns a completed raffle round.
func (n *Node) RaffleResult(round uint64) (*raritystaking.RaffleRound, error) {
	var result *raritystaking.RaffleRound
	err := n.view(func(e *engines) error {
		var err error
		result, err = e.staking.RaffleResult(round)
		return err
	})
	return result, err
}

// Owner returns the contract owner.
func (n *Node) Owner() ([20]byte, error) {
	var owner [20]byte
	err := n.view(func(e *engines) error {
		var err error
		owner, err = e.staking.Owner()
		return err
	})
	return owner, err
}

// TransferOwnership hands the contract owner role to newOwner.
func (n *Node) TransferOwnership(caller, newOwner [20]byte) error {
	return n.apply("transfer_ownership", func(e *engines) error {
		return e.staking.TransferOwnership(caller, newOwner)
	})
}

// Vault returns the module account that holds staked tokens and reward pools.
func (n *Node) Vault() [20]byte {
	return raritystaking.NewEngine().Vault()
}

// Params returns the staking parameters.
func (n *Node) Params() raritystaking.Params {
	return n.params
}
