package raritystaking

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

const (
	secondsPerDay   = 86_400
	multiplierScale = 100
)

// RewardCurve turns a rarity score and a staked duration into a reward amount
// denominated in base units of the reward token. Implementations must be
// monotonic non-decreasing in both arguments.
type RewardCurve interface {
	Reward(score uint64, elapsedSeconds uint64) (*big.Int, error)
}

// RewardCurveFunc adapts a plain function to the RewardCurve interface.
type RewardCurveFunc func(score uint64, elapsedSeconds uint64) (*big.Int, error)

// Reward implements RewardCurve.
func (f RewardCurveFunc) Reward(score uint64, elapsedSeconds uint64) (*big.Int, error) {
	return f(score, elapsedSeconds)
}

// LinearRarityCurve pays BaseDaily scaled by a multiplier that moves linearly
// from MinMultiplier to MaxMultiplier (percent) as the score moves from MinScore
// to MaxScore. Scores outside the band are clamped. Accrual is prorated per second.
type LinearRarityCurve struct {
	BaseDaily     *big.Int
	MinScore      uint64
	MaxScore      uint64
	MinMultiplier uint64
	MaxMultiplier uint64
}

// DefaultRewardCurve pays 10*(80+40*(score-min)/(max-min)) tokens (18
// decimals) per day: 1000 tokens at an 80%..120% multiplier across the
// observed rarity band.
func DefaultRewardCurve() *LinearRarityCurve {
	return &LinearRarityCurve{
		BaseDaily:     new(big.Int).Mul(big.NewInt(1000), big.NewInt(1e18)),
		MinScore:      277_489,
		MaxScore:      2_859_033,
		MinMultiplier: 80,
		MaxMultiplier: 120,
	}
}

// Validate checks the curve parameters.
func (c *LinearRarityCurve) Validate() error {
	if c == nil {
		return fmt.Errorf("reward curve not configured")
	}
	if c.BaseDaily == nil || c.BaseDaily.Sign() <= 0 {
		return fmt.Errorf("base daily reward must be positive")
	}
	if _, overflow := uint256.FromBig(c.BaseDaily); overflow {
		return fmt.Errorf("base daily reward exceeds 256 bits")
	}
	if c.MaxScore <= c.MinScore {
		return fmt.Errorf("max score must exceed min score")
	}
	if c.MinMultiplier == 0 || c.MaxMultiplier < c.MinMultiplier {
		return fmt.Errorf("multipliers must satisfy 0 < min <= max")
	}
	return nil
}

// Reward implements RewardCurve.
func (c *LinearRarityCurve) Reward(score uint64, elapsedSeconds uint64) (*big.Int, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if score == 0 || elapsedSeconds == 0 {
		return big.NewInt(0), nil
	}
	clamped := score
	if clamped < c.MinScore {
		clamped = c.MinScore
	}
	if clamped > c.MaxScore {
		clamped = c.MaxScore
	}
	span := uint256.NewInt(c.MaxScore - c.MinScore)

	// weight = MinMultiplier*span + (MaxMultiplier-MinMultiplier)*(clamped-MinScore)
	weight := new(uint256.Int).Mul(uint256.NewInt(c.MinMultiplier), span)
	extra := new(uint256.Int).Mul(uint256.NewInt(c.MaxMultiplier-c.MinMultiplier), uint256.NewInt(clamped-c.MinScore))
	weight.Add(weight, extra)

	base, _ := uint256.FromBig(c.BaseDaily)
	numerator, overflow := new(uint256.Int).MulOverflow(base, weight)
	if overflow {
		return nil, fmt.Errorf("reward overflow for score %d", score)
	}
	if _, overflow = numerator.MulOverflow(numerator, uint256.NewInt(elapsedSeconds)); overflow {
		return nil, fmt.Errorf("reward overflow for %d seconds", elapsedSeconds)
	}
	denominator := new(uint256.Int).Mul(span, uint256.NewInt(multiplierScale*secondsPerDay))
	return numerator.Div(numerator, denominator).ToBig(), nil
}
