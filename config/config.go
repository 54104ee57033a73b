package config

import (
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"raritystake/crypto"
	"raritystake/native/raritystaking"
)

const (
	// EnvName selects the deployment environment label.
	EnvName = "RSK_ENV"
	// EnvRPCToken holds the bearer token required by mutating RPC methods.
	EnvRPCToken = "RSK_RPC_TOKEN"
	// EnvRPCJWTSecret enables HS256 bearer tokens signed with its value.
	EnvRPCJWTSecret = "RSK_RPC_JWT_SECRET"
)

type Config struct {
	RPCAddress  string `toml:"RPCAddress"`
	DataDir     string `toml:"DataDir"`
	GenesisFile string `toml:"GenesisFile"`
	JournalDSN  string `toml:"JournalDSN"`
	Owner       string `toml:"Owner"`
	Environment string `toml:"Environment"`
	DevMode     bool   `toml:"DevMode"`
	MaxBatch    int    `toml:"MaxBatch"`

	Log       LogConfig       `toml:"Log"`
	Rewards   RewardsConfig   `toml:"Rewards"`
	Raffle    RaffleConfig    `toml:"Raffle"`
	RPC       RPCConfig       `toml:"RPC"`
	Telemetry TelemetryConfig `toml:"Telemetry"`
}

// Load loads the configuration from the given path, writing a default file
// with a freshly generated owner when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s: unknown key %s", path, undecoded[0].String())
	}

	cfg.applyDefaults()
	if env := strings.TrimSpace(os.Getenv(EnvName)); env != "" {
		cfg.Environment = env
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the built-in configuration without an owner.
func Default() *Config {
	defaults := raritystaking.DefaultParams()
	curve := raritystaking.DefaultRewardCurve()
	return &Config{
		RPCAddress:  "127.0.0.1:8547",
		DataDir:     "./rsk-data",
		Environment: "local",
		MaxBatch:    defaults.MaxBatch,
		Rewards: RewardsConfig{
			Token:          defaults.RewardToken,
			BaseDaily:      curve.BaseDaily.String(),
			MinScore:       curve.MinScore,
			MaxScore:       curve.MaxScore,
			MinMultiplier:  curve.MinMultiplier,
			MaxMultiplier:  curve.MaxMultiplier,
			ClaimOnUnstake: defaults.ClaimOnUnstake,
			Pool:           "1000000000000000000000000",
		},
		Raffle: RaffleConfig{
			Token:   defaults.RaffleToken,
			Prize:   defaults.RafflePrize.String(),
			Winners: defaults.RaffleWinners,
			Pool:    "1000000000000000000000000",
		},
		RPC: RPCConfig{
			RateLimitPerSecond: 50,
			RateLimitBurst:     100,
			ReadTimeoutSecs:    10,
			WriteTimeoutSecs:   15,
			MaxBodyBytes:       1 << 20,
			IdempotencyTTLSecs: 86_400,
		},
		Log: LogConfig{Level: "info", MaxSizeMB: 100, MaxBackups: 5, MaxAgeDays: 30},
	}
}

func (cfg *Config) applyDefaults() {
	defaults := Default()
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = defaults.RPCAddress
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = defaults.DataDir
	}
	if strings.TrimSpace(cfg.JournalDSN) == "" {
		cfg.JournalDSN = filepath.Join(cfg.DataDir, "journal.db")
	}
	if cfg.MaxBatch == 0 {
		cfg.MaxBatch = defaults.MaxBatch
	}
	if strings.TrimSpace(cfg.Rewards.Token) == "" {
		cfg.Rewards.Token = defaults.Rewards.Token
	}
	if strings.TrimSpace(cfg.Rewards.BaseDaily) == "" {
		cfg.Rewards.BaseDaily = defaults.Rewards.BaseDaily
	}
	if cfg.Rewards.MinScore == 0 && cfg.Rewards.MaxScore == 0 {
		cfg.Rewards.MinScore = defaults.Rewards.MinScore
		cfg.Rewards.MaxScore = defaults.Rewards.MaxScore
	}
	if cfg.Rewards.MinMultiplier == 0 && cfg.Rewards.MaxMultiplier == 0 {
		cfg.Rewards.MinMultiplier = defaults.Rewards.MinMultiplier
		cfg.Rewards.MaxMultiplier = defaults.Rewards.MaxMultiplier
	}
	if strings.TrimSpace(cfg.Raffle.Token) == "" {
		cfg.Raffle.Token = defaults.Raffle.Token
	}
	if strings.TrimSpace(cfg.Raffle.Prize) == "" {
		cfg.Raffle.Prize = defaults.Raffle.Prize
	}
	if cfg.Raffle.Winners == 0 {
		cfg.Raffle.Winners = defaults.Raffle.Winners
	}
	if cfg.RPC.RateLimitPerSecond == 0 {
		cfg.RPC.RateLimitPerSecond = defaults.RPC.RateLimitPerSecond
	}
	if cfg.RPC.RateLimitBurst == 0 {
		cfg.RPC.RateLimitBurst = defaults.RPC.RateLimitBurst
	}
	if cfg.RPC.ReadTimeoutSecs == 0 {
		cfg.RPC.ReadTimeoutSecs = defaults.RPC.ReadTimeoutSecs
	}
	if cfg.RPC.WriteTimeoutSecs == 0 {
		cfg.RPC.WriteTimeoutSecs = defaults.RPC.WriteTimeoutSecs
	}
	if cfg.RPC.MaxBodyBytes == 0 {
		cfg.RPC.MaxBodyBytes = defaults.RPC.MaxBodyBytes
	}
	if cfg.RPC.IdempotencyTTLSecs == 0 {
		cfg.RPC.IdempotencyTTLSecs = defaults.RPC.IdempotencyTTLSecs
	}
	if strings.TrimSpace(cfg.Log.Level) == "" {
		cfg.Log.Level = defaults.Log.Level
	}
}

// LogLevel parses Log.Level.
func (cfg *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(cfg.Log.Level))); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	cfg := Default()
	cfg.Owner = crypto.FormatAddress(key.Address())
	cfg.JournalDSN = filepath.Join(cfg.DataDir, "journal.db")

	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// OwnerAddress resolves the configured contract owner.
func (cfg *Config) OwnerAddress() ([20]byte, error) {
	return crypto.ParseAddress(strings.TrimSpace(cfg.Owner))
}

// Params converts the configuration into staking parameters.
func (cfg *Config) Params() (raritystaking.Params, error) {
	prize, err := parseAmount(cfg.Raffle.Prize)
	if err != nil {
		return raritystaking.Params{}, fmt.Errorf("Raffle.Prize: %w", err)
	}
	params := raritystaking.Params{
		RewardToken:    strings.ToUpper(strings.TrimSpace(cfg.Rewards.Token)),
		RaffleToken:    strings.ToUpper(strings.TrimSpace(cfg.Raffle.Token)),
		RafflePrize:    prize,
		RaffleWinners:  cfg.Raffle.Winners,
		ClaimOnUnstake: cfg.Rewards.ClaimOnUnstake,
		MaxBatch:       cfg.MaxBatch,
	}
	return params, params.Validate()
}

// RewardCurve converts the configuration into the linear rarity curve.
func (cfg *Config) RewardCurve() (*raritystaking.LinearRarityCurve, error) {
	base, err := parseAmount(cfg.Rewards.BaseDaily)
	if err != nil {
		return nil, fmt.Errorf("Rewards.BaseDaily: %w", err)
	}
	curve := &raritystaking.LinearRarityCurve{
		BaseDaily:     base,
		MinScore:      cfg.Rewards.MinScore,
		MaxScore:      cfg.Rewards.MaxScore,
		MinMultiplier: cfg.Rewards.MinMultiplier,
		MaxMultiplier: cfg.Rewards.MaxMultiplier,
	}
	return curve, curve.Validate()
}

// Pools returns the reward and raffle pool amounts minted at genesis.
func (cfg *Config) Pools() (reward *big.Int, raffle *big.Int, err error) {
	if reward, err = parseAmount(cfg.Rewards.Pool); err != nil {
		return nil, nil, fmt.Errorf("Rewards.Pool: %w", err)
	}
	if raffle, err = parseAmount(cfg.Raffle.Pool); err != nil {
		return nil, nil, fmt.Errorf("Raffle.Pool: %w", err)
	}
	return reward, raffle, nil
}

func parseAmount(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	return amount, nil
}
