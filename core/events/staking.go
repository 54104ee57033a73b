package events

import (
	"encoding/hex"
	"math/big"
	"strconv"
	"strings"

	"raritystake/core/types"
	"raritystake/crypto"
)

const (
	TypeRarityInitialized   = "raritystaking.rarity_initialized"
	TypeRarityRootCommitted = "raritystaking.rarity_root_committed"
	TypeTokensStaked        = "raritystaking.staked"
	TypeTokensUnstaked      = "raritystaking.unstaked"
	TypeRewardsClaimed      = "raritystaking.rewards_claimed"
	TypeRaffleRolled        = "raritystaking.raffle_rolled"
	TypeOwnershipChanged    = "raritystaking.ownership_transferred"
)

// RarityInitialized is emitted once per initializeRarity batch.
type RarityInitialized struct {
	TokenIDs []uint64
}

func (RarityInitialized) EventType() string { return TypeRarityInitialized }

func (e RarityInitialized) Event() *types.Event {
	return &types.Event{
		Type: TypeRarityInitialized,
		Attributes: map[string]string{
			"count":    strconv.Itoa(len(e.TokenIDs)),
			"tokenIds": joinIDs(e.TokenIDs),
		},
	}
}

// RarityRootCommitted records the dataset root rarity proofs are checked against.
type RarityRootCommitted struct {
	Root [32]byte
}

func (RarityRootCommitted) EventType() string { return TypeRarityRootCommitted }

func (e RarityRootCommitted) Event() *types.Event {
	return &types.Event{
		Type: TypeRarityRootCommitted,
		Attributes: map[string]string{
			"root": "0x" + hex.EncodeToString(e.Root[:]),
		},
	}
}

// TokensStaked is emitted when a caller moves NFTs into ledger custody.
type TokensStaked struct {
	Owner    [20]byte
	TokenIDs []uint64
	StakedAt int64
}

func (TokensStaked) EventType() string { return TypeTokensStaked }

func (e TokensStaked) Event() *types.Event {
	return &types.Event{
		Type: TypeTokensStaked,
		Attributes: map[string]string{
			"owner":    crypto.FormatAddress(e.Owner),
			"tokenIds": joinIDs(e.TokenIDs),
			"stakedAt": intToString(e.StakedAt),
		},
	}
}

// TokensUnstaked is emitted when custody returns to the staker.
type TokensUnstaked struct {
	Owner    [20]byte
	TokenIDs []uint64
	Token    string
	Settled  *big.Int
	// Unpaid is accrued reward the pool could not cover. It is forfeited.
	Unpaid *big.Int
}

func (TokensUnstaked) EventType() string { return TypeTokensUnstaked }

func (e TokensUnstaked) Event() *types.Event {
	return &types.Event{
		Type: TypeTokensUnstaked,
		Attributes: map[string]string{
			"owner":    crypto.FormatAddress(e.Owner),
			"tokenIds": joinIDs(e.TokenIDs),
			"token":    e.Token,
			"settled":  formatAmount(e.Settled),
			"unpaid":   formatAmount(e.Unpaid),
		},
	}
}

// RewardsClaimed is emitted when accrued rewards are paid out.
type RewardsClaimed struct {
	Owner    [20]byte
	TokenIDs []uint64
	Token    string
	Amount   *big.Int
}

func (RewardsClaimed) EventType() string { return TypeRewardsClaimed }

func (e RewardsClaimed) Event() *types.Event {
	return &types.Event{
		Type: TypeRewardsClaimed,
		Attributes: map[string]string{
			"owner":    crypto.FormatAddress(e.Owner),
			"tokenIds": joinIDs(e.TokenIDs),
			"token":    e.Token,
			"amount":   formatAmount(e.Amount),
		},
	}
}

// RaffleWinner describes a single payout of a raffle round.
type RaffleWinner struct {
	TokenID uint64
	Owner   [20]byte
	Prize   *big.Int
}

// RaffleRolled is emitted for every completed raffle round.
type RaffleRolled struct {
	Round   uint64
	Seed    [32]byte
	Entries int
	Token   string
	Winners []RaffleWinner
}

func (RaffleRolled) EventType() string { return TypeRaffleRolled }

func (e RaffleRolled) Event() *types.Event {
	tokenIDs := make([]uint64, len(e.Winners))
	owners := make([]string, len(e.Winners))
	for i, winner := range e.Winners {
		tokenIDs[i] = winner.TokenID
		owners[i] = crypto.FormatAddress(winner.Owner)
	}
	return &types.Event{
		Type: TypeRaffleRolled,
		Attributes: map[string]string{
			"round":          strconv.FormatUint(e.Round, 10),
			"seed":           "0x" + hex.EncodeToString(e.Seed[:]),
			"entries":        strconv.Itoa(e.Entries),
			"token":          e.Token,
			"winnerTokenIds": joinIDs(tokenIDs),
			"winners":        strings.Join(owners, ","),
		},
	}
}

// OwnershipChanged is emitted when the ledger's contract owner changes.
type OwnershipChanged struct {
	Previous [20]byte
	Current  [20]byte
}

func (OwnershipChanged) EventType() string { return TypeOwnershipChanged }

func (e OwnershipChanged) Event() *types.Event {
	return &types.Event{
		Type: TypeOwnershipChanged,
		Attributes: map[string]string{
			"previous": crypto.FormatAddress(e.Previous),
			"current":  crypto.FormatAddress(e.Current),
		},
	}
}

func joinIDs(ids []uint64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(id, 10)
	}
	return strings.Join(parts, ",")
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func intToString(v int64) string {
	return strconv.FormatInt(v, 10)
}
