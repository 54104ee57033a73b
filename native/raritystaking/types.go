package raritystaking

import (
	"errors"
	"math/big"
)

var (
	ErrNotContractOwner       = errors.New("raritystaking: caller is not the contract owner")
	ErrNotStakeOwner          = errors.New("raritystaking: caller is not the staker")
	ErrAlreadyStaked          = errors.New("raritystaking: token already staked")
	ErrNotStaked              = errors.New("raritystaking: token not staked")
	ErrRarityAlreadySet       = errors.New("raritystaking: rarity already initialized")
	ErrRarityMissing          = errors.New("raritystaking: rarity not initialized")
	ErrInvalidRarityScore     = errors.New("raritystaking: rarity score must be positive")
	ErrInvalidRarityProof     = errors.New("raritystaking: rarity proof does not match committed root")
	ErrDuplicateToken         = errors.New("raritystaking: duplicate token in batch")
	ErrEmptyBatch             = errors.New("raritystaking: token list must not be empty")
	ErrBatchTooLarge          = errors.New("raritystaking: token list exceeds batch limit")
	ErrInsufficientRewardPool = errors.New("raritystaking: reward pool underfunded")
	ErrInsufficientRafflePool = errors.New("raritystaking: raffle pool underfunded")
	ErrRaffleNotFound         = errors.New("raritystaking: raffle round not found")
	ErrZeroAddress            = errors.New("raritystaking: zero address")
	ErrLedgerNotInitialized   = errors.New("raritystaking: ledger not initialized")
	ErrLedgerInitialized      = errors.New("raritystaking: ledger already initialized")
)

// TokenRarity is the immutable rarity entry for a collection token.
type TokenRarity struct {
	TokenID uint64
	Score   uint64
	Proof   [][32]byte
}

// RarityEntry is one element of an initializeRarity batch.
type RarityEntry struct {
	TokenID uint64
	Score   uint64
	Proof   [][32]byte
}

// StakeRecord tracks custody of a staked token. Timestamps are unix seconds.
type StakeRecord struct {
	TokenID     uint64
	Owner       [20]byte
	StakedAt    uint64
	LastClaimAt uint64
}

// Staked reports whether the record denotes a live stake.
func (r *StakeRecord) Staked() bool {
	return r != nil && r.Owner != ([20]byte{})
}

// Ledger is the singleton configuration of the staking ledger.
type Ledger struct {
	Owner       [20]byte
	RarityRoot  [32]byte
	RaffleRound uint64
	RaffleSeed  [32]byte
}

// HasRarityRoot reports whether rarity proofs are enforced.
func (l *Ledger) HasRarityRoot() bool {
	return l != nil && l.RarityRoot != ([32]byte{})
}

// RaffleWinner is a single payout of a raffle round.
type RaffleWinner struct {
	TokenID uint64
	Owner   [20]byte
	Prize   *big.Int
}

// RaffleRound records a completed raffle.
type RaffleRound struct {
	Round    uint64
	Seed     [32]byte
	Entries  []uint64
	Winners  []RaffleWinner
	RolledAt uint64
}

// Clone returns a deep copy of the round.
func (r *RaffleRound) Clone() *RaffleRound {
	if r == nil {
		return nil
	}
	clone := *r
	clone.Entries = append([]uint64(nil), r.Entries...)
	clone.Winners = make([]RaffleWinner, len(r.Winners))
	for i, w := range r.Winners {
		clone.Winners[i] = RaffleWinner{TokenID: w.TokenID, Owner: w.Owner, Prize: copyBig(w.Prize)}
	}
	return &clone
}

func copyBig(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
