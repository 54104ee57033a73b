package config

import (
	"fmt"
	"strings"
)

var (
	MaxBatchLimit   = 10_000
	MaxRaffleWinner = uint32(1_000)
)

// Validate returns the first violated bound of cfg.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config must not be nil")
	}
	if _, err := cfg.OwnerAddress(); err != nil {
		return fmt.Errorf("Owner: %w", err)
	}
	if cfg.MaxBatch <= 0 || cfg.MaxBatch > MaxBatchLimit {
		return fmt.Errorf("MaxBatch must be within 1..%d", MaxBatchLimit)
	}
	if strings.EqualFold(strings.TrimSpace(cfg.Rewards.Token), strings.TrimSpace(cfg.Raffle.Token)) {
		return fmt.Errorf("rewards: token must differ from raffle token")
	}
	if _, err := cfg.RewardCurve(); err != nil {
		return fmt.Errorf("rewards: %w", err)
	}
	if cfg.Raffle.Winners > MaxRaffleWinner {
		return fmt.Errorf("raffle: winners must not exceed %d", MaxRaffleWinner)
	}
	if _, err := cfg.Params(); err != nil {
		return fmt.Errorf("params: %w", err)
	}
	if _, _, err := cfg.Pools(); err != nil {
		return err
	}
	if cfg.RPC.RateLimitPerSecond < 0 || cfg.RPC.RateLimitBurst < 0 {
		return fmt.Errorf("rpc: rate limits must not be negative")
	}
	if cfg.RPC.MaxBodyBytes < 0 {
		return fmt.Errorf("rpc: max body bytes must not be negative")
	}
	if cfg.RPC.IdempotencyTTLSecs < 0 {
		return fmt.Errorf("rpc: idempotency ttl must not be negative")
	}
	if r := cfg.Telemetry.SampleRatio; r < 0 || r > 1 {
		return fmt.Errorf("telemetry: sample ratio must be within 0..1")
	}
	if _, err := cfg.LogLevel(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}
