package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"raritystake/config"
	"raritystake/core"
	"raritystake/core/events"
	"raritystake/core/genesis"
	"raritystake/observability/logging"
	"raritystake/observability/metrics"
	rskotel "raritystake/observability/otel"
	"raritystake/rpc"
	"raritystake/storage"
	"raritystake/storage/idempotency"
	"raritystake/storage/journal"
)

const (
	serviceName         = "raritystakingd"
	genesisPathEnv      = "RSK_GENESIS"
	allowAutogenesisEnv = "RSK_ALLOW_AUTOGENESIS"
	idempotencyFile     = "idempotency.db"
)

type envLookupFunc func(string) (string, bool)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	genesisFlag := flag.String("genesis", "", "Path to a genesis JSON file (overrides RSK_GENESIS and config GenesisFile)")
	allowAutogenesisFlag := flag.Bool("allow-autogenesis", false, "DEV ONLY: bootstrap the default genesis when no genesis file is configured")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	level, err := cfg.LogLevel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Setup(logging.Options{
		Service: serviceName,
		Env:     cfg.Environment,
		Level:   level,
		File: logging.FileConfig{
			Path:       cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
		},
	})

	if err := run(cfg, *genesisFlag, *allowAutogenesisFlag, logger); err != nil {
		logger.Error("raritystakingd exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, genesisFlag string, allowAutogenesisFlag bool, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := rskotel.Init(ctx, rskotel.Config{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     rskotel.ParseHeaders(cfg.Telemetry.Headers),
		Traces:      cfg.Telemetry.Traces,
		Metrics:     cfg.Telemetry.Metrics,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.Any("error", err))
		}
	}()

	params, err := cfg.Params()
	if err != nil {
		return err
	}
	curve, err := cfg.RewardCurve()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("prepare data directory: %w", err)
	}
	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	store, err := journal.Open(cfg.JournalDSN, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	replay, err := idempotency.Open(filepath.Join(cfg.DataDir, idempotencyFile))
	if err != nil {
		return err
	}
	defer replay.Close()

	stakingMetrics := metrics.Staking()
	feed := events.NewFeed()
	node, err := core.NewNode(db,
		core.WithLogger(logger),
		core.WithParams(params),
		core.WithRewardCurve(curve),
		core.WithDevMode(cfg.DevMode),
		core.WithMetrics(stakingMetrics),
		core.WithEmitter(events.MultiEmitter{store, metrics.EventSink{Metrics: stakingMetrics}, feed}),
	)
	if err != nil {
		return err
	}

	allowAutogenesis := resolveAllowAutogenesis(cfg.DevMode, allowAutogenesisFlag, os.LookupEnv)
	genesisPath, err := resolveGenesisPath(genesisFlag, cfg.GenesisFile, allowAutogenesis, os.LookupEnv)
	if err != nil {
		return err
	}
	if err := bootstrap(node, cfg, genesisPath, logger); err != nil {
		return err
	}
	if cfg.DevMode {
		logger.Warn("dev mode enabled: dev_increaseTime is exposed")
	}

	server := rpc.NewServer(node, store, rpc.ServerConfig{
		AuthToken:          os.Getenv(config.EnvRPCToken),
		RateLimitPerSecond: cfg.RPC.RateLimitPerSecond,
		RateLimitBurst:     cfg.RPC.RateLimitBurst,
		MaxBodyBytes:       cfg.RPC.MaxBodyBytes,
		ReadTimeout:        time.Duration(cfg.RPC.ReadTimeoutSecs) * time.Second,
		WriteTimeout:       time.Duration(cfg.RPC.WriteTimeoutSecs) * time.Second,
		JWTSecret:          os.Getenv(config.EnvRPCJWTSecret),
		JWTIssuer:          cfg.RPC.JWTIssuer,
		IdempotencyTTL:     time.Duration(cfg.RPC.IdempotencyTTLSecs) * time.Second,
	}, logger)
	server.AttachFeed(feed)
	server.AttachIdempotency(replay)
	if err := server.Serve(ctx, cfg.RPCAddress); err != nil {
		return err
	}
	logger.Info("raritystakingd stopped", slog.String("root", node.StateRoot().Hex()))
	return nil
}

// bootstrap applies genesis to an empty ledger. An existing ledger is left as is.
func bootstrap(node *core.Node, cfg *config.Config, genesisPath string, logger *slog.Logger) error {
	ok, err := node.Bootstrapped()
	if err != nil {
		return err
	}
	if ok {
		logger.Info("resuming existing ledger",
			slog.String("root", node.StateRoot().Hex()),
			slog.Uint64("sequence", node.Sequence()))
		return nil
	}
	spec, err := loadGenesis(cfg, genesisPath)
	if err != nil {
		return err
	}
	if err := node.ApplyGenesis(spec); err != nil && !errors.Is(err, core.ErrAlreadyBootstrapped) {
		return fmt.Errorf("apply genesis: %w", err)
	}
	return nil
}

func loadGenesis(cfg *config.Config, path string) (*genesis.GenesisSpec, error) {
	if strings.TrimSpace(path) != "" {
		spec, err := genesis.LoadGenesisSpec(path)
		if err != nil {
			return nil, fmt.Errorf("load genesis spec: %w", err)
		}
		return spec, nil
	}
	owner, err := cfg.OwnerAddress()
	if err != nil {
		return nil, fmt.Errorf("resolve owner: %w", err)
	}
	rewardPool, rafflePool, err := cfg.Pools()
	if err != nil {
		return nil, err
	}
	return genesis.Default(owner, rewardPool, rafflePool), nil
}

func resolveGenesisPath(cliPath string, cfgPath string, allowAutogenesis bool, lookup envLookupFunc) (string, error) {
	trimmedCLI := strings.TrimSpace(cliPath)
	if trimmedCLI != "" {
		return trimmedCLI, nil
	}

	if lookup != nil {
		if value, ok := lookup(genesisPathEnv); ok {
			trimmedEnv := strings.TrimSpace(value)
			if trimmedEnv != "" {
				return trimmedEnv, nil
			}
		}
	}

	trimmedCfg := strings.TrimSpace(cfgPath)
	if trimmedCfg != "" {
		return trimmedCfg, nil
	}

	if allowAutogenesis {
		return "", nil
	}

	return "", fmt.Errorf("no genesis file provided; supply one via --genesis, %s, or config, or enable autogenesis (--allow-autogenesis / %s / DevMode)", genesisPathEnv, allowAutogenesisEnv)
}

func resolveAllowAutogenesis(devMode bool, cliValue bool, lookup envLookupFunc) bool {
	if devMode || cliValue {
		return true
	}
	if lookup == nil {
		return false
	}
	value, ok := lookup(allowAutogenesisEnv)
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
