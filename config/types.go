package config

// LogConfig controls the optional rotated log file.
type LogConfig struct {
	Level      string `toml:"Level"` // debug, info, warn or error
	File       string `toml:"File"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays"`
}

// RewardsConfig parameterises the linear rarity reward curve and the reward pool.
type RewardsConfig struct {
	Token          string `toml:"Token"`
	BaseDaily      string `toml:"BaseDaily"` // base units per token per day
	MinScore       uint64 `toml:"MinScore"`
	MaxScore       uint64 `toml:"MaxScore"`
	MinMultiplier  uint64 `toml:"MinMultiplier"` // percent
	MaxMultiplier  uint64 `toml:"MaxMultiplier"` // percent
	ClaimOnUnstake bool   `toml:"ClaimOnUnstake"`
	Pool           string `toml:"Pool"` // minted to the vault at genesis
}

// RaffleConfig controls raffle payouts.
type RaffleConfig struct {
	Token   string `toml:"Token"`
	Prize   string `toml:"Prize"`
	Winners uint32 `toml:"Winners"`
	Pool    string `toml:"Pool"`
}

// RPCConfig controls the JSON-RPC server.
type RPCConfig struct {
	RateLimitPerSecond float64 `toml:"RateLimitPerSecond"`
	RateLimitBurst     int     `toml:"RateLimitBurst"`
	ReadTimeoutSecs    int     `toml:"ReadTimeoutSecs"`
	WriteTimeoutSecs   int     `toml:"WriteTimeoutSecs"`
	MaxBodyBytes       int64   `toml:"MaxBodyBytes"`
	JWTIssuer          string  `toml:"JWTIssuer"`
	// IdempotencyTTLSecs bounds how long Idempotency-Key responses replay.
	IdempotencyTTLSecs int `toml:"IdempotencyTTLSecs"`
}

// TelemetryConfig wires the OTLP exporters.
type TelemetryConfig struct {
	Endpoint string `toml:"Endpoint"`
	Insecure bool   `toml:"Insecure"`
	Traces   bool   `toml:"Traces"`
	Metrics  bool   `toml:"Metrics"`
	Headers  string `toml:"Headers"`

	// SampleRatio keeps this fraction of root spans; 0 keeps all.
	SampleRatio float64 `toml:"SampleRatio"`
}
