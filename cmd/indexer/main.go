package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"coinScope/internal/chain"
	"coinScope/internal/config"
	"coinScope/internal/duality"
	"coinScope/internal/indexer"
	"coinScope/internal/storage"
	"coinScope/internal/storage/postgres"
)

// stateName keys the indexer_state row when Postgres tracks progress.
const stateName = "native_transfers"

func main() {
	root := &cobra.Command{
		Use:          "indexer",
		Short:        "Native coin token-transfer indexer",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Walk a block range and derive native-coin token transfers",
		RunE:  runIndexer,
	}

	runCmd.Flags().String("rpc", "", "RPC URL (debug namespace required for traces)")
	runCmd.Flags().Uint64("from", 0, "start block (inclusive)")
	runCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest")
	runCmd.Flags().String("native-token", "", "native token contract address (skips registry lookup)")
	runCmd.Flags().String("registry", "", "registry contract address for token lookup")
	runCmd.Flags().String("registry-entry", "NativeToken", "registry entry name for the native token")
	runCmd.Flags().Uint64("batch-size", 200, "blocks per batch")
	runCmd.Flags().String("out", "./data/token_transfers.jsonl", "output transfers JSONL path")
	runCmd.Flags().String("tokens-out", "./data/tokens.jsonl", "output tokens JSONL path")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN (overrides JSONL output)")
	runCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path (Postgres runs track progress in indexer_state instead)")
	runCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	runCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	runCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	deriveCmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive transfers offline from raw transaction JSONL",
		RunE:  runDerive,
	}

	deriveCmd.Flags().String("transactions", "", "input transactions JSONL")
	deriveCmd.Flags().String("internal-transactions", "", "input internal transactions JSONL (needs --transactions for block hashes)")
	deriveCmd.Flags().String("native-token", "", "native token contract address")
	deriveCmd.Flags().String("out", "./data/token_transfers.jsonl", "output transfers JSONL path")
	deriveCmd.Flags().String("tokens-out", "./data/tokens.jsonl", "output tokens JSONL path")
	deriveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(deriveCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIndexer(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if cfg.NativeToken == "" && cfg.Registry == "" {
		return fmt.Errorf("either native-token or registry is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	resolver, err := newResolver(cfg, chainClient, logger)
	if err != nil {
		return err
	}

	var storageSink storage.Storage
	var checkpoint indexer.Checkpointer
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		storageSink = store
		if cfg.CheckpointEnabled {
			checkpoint, err = indexer.NewStateCheckpoint(store, stateName)
			if err != nil {
				return err
			}
		}
	} else {
		storageSink = storage.NewJsonlStorage(cfg.Out, cfg.TokensOut)
		checkpoint = indexer.NewCheckpointStore(cfg.Checkpoint, cfg.CheckpointEnabled)
	}

	runner := indexer.NewRunner(indexer.RunConfig{
		FromBlock:    cfg.FromBlock,
		ToBlock:      cfg.ToBlock,
		BatchSize:    cfg.BatchSize,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, chainClient, storageSink, resolver, checkpoint, logger)

	logger.Info("indexer start",
		zap.String("rpc", cfg.RPCURL),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.String("native_token", cfg.NativeToken),
		zap.String("registry", cfg.Registry),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("checkpoint", cfg.Checkpoint),
	)

	return runner.Run(ctx)
}

func newResolver(cfg config.Config, chainClient *chain.Client, logger *zap.Logger) (duality.Resolver, error) {
	if cfg.NativeToken != "" {
		address, err := indexer.ParseAddress(cfg.NativeToken)
		if err != nil {
			return nil, err
		}
		return duality.NewStaticResolver(address), nil
	}

	registry, err := indexer.ParseAddress(cfg.Registry)
	if err != nil {
		return nil, err
	}
	return duality.NewRegistryResolver(chainClient, registry, cfg.RegistryEntry, logger)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
