package raritystaking

import (
	"fmt"
	"math/big"
	"strings"
)

// Params controls the economic knobs of the ledger that are not part of the
// reward curve itself.
type Params struct {
	// RewardToken is the symbol paid out by claimRewards.
	RewardToken string
	// RaffleToken is the symbol paid to raffle winners.
	RaffleToken string
	// RafflePrize is paid to every winner of a raffle round.
	RafflePrize *big.Int
	// RaffleWinners is the number of distinct tokens drawn per round.
	RaffleWinners uint32
	// ClaimOnUnstake settles pending rewards before custody is returned.
	ClaimOnUnstake bool
	// MaxBatch bounds the number of token ids accepted by a single call.
	MaxBatch int
}

// DefaultParams mirrors the deployment exercised by the reference scenario: an
// RWD reward pool, a NEXUS raffle pool and a single winner per round.
func DefaultParams() Params {
	return Params{
		RewardToken:    "RWD",
		RaffleToken:    "NEXUS",
		RafflePrize:    new(big.Int).Mul(big.NewInt(100), big.NewInt(1e18)),
		RaffleWinners:  1,
		ClaimOnUnstake: true,
		MaxBatch:       500,
	}
}

// Validate ensures the parameters are usable.
func (p Params) Validate() error {
	if strings.TrimSpace(p.RewardToken) == "" {
		return fmt.Errorf("reward token must not be empty")
	}
	if strings.TrimSpace(p.RaffleToken) == "" {
		return fmt.Errorf("raffle token must not be empty")
	}
	if p.RafflePrize == nil || p.RafflePrize.Sign() < 0 {
		return fmt.Errorf("raffle prize must not be negative")
	}
	if p.RaffleWinners == 0 {
		return fmt.Errorf("raffle winners must be positive")
	}
	if p.MaxBatch <= 0 {
		return fmt.Errorf("max batch must be positive")
	}
	return nil
}
