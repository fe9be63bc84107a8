package indexer

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"coinScope/internal/chain"
	"coinScope/internal/duality"
	"coinScope/internal/model"
	"coinScope/internal/storage"
)

// RunConfig holds runtime settings for the indexer.
type RunConfig struct {
	FromBlock    uint64
	ToBlock      uint64
	BatchSize    uint64
	MaxRetries   int
	RetryBackoff time.Duration
}

// Runner walks blocks, derives native-coin transfers, and writes them to
// storage.
type Runner struct {
	cfg        RunConfig
	chain      *chain.Client
	storage    storage.Storage
	resolver   duality.Resolver
	logger     *zap.Logger
	checkpoint Checkpointer
}

// NewRunner builds a Runner with its dependencies. A nil checkpoint disables
// resume tracking.
func NewRunner(cfg RunConfig, chainClient *chain.Client, storageSink storage.Storage, resolver duality.Resolver, checkpoint Checkpointer, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		chain:      chainClient,
		storage:    storageSink,
		resolver:   resolver,
		logger:     logger,
		checkpoint: checkpoint,
	}
}

// Run executes the indexing loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.chain == nil {
		return fmt.Errorf("chain client is nil")
	}
	if r.storage == nil {
		return fmt.Errorf("storage is nil")
	}
	if r.resolver == nil {
		return fmt.Errorf("resolver is nil")
	}
	if r.cfg.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}

	token, err := r.resolver.NativeTokenAddress(ctx)
	if err != nil {
		return fmt.Errorf("resolve native token: %w", err)
	}

	chainID, err := r.chain.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	signer := types.LatestSignerForChainID(chainID)

	from := r.cfg.FromBlock
	to := r.cfg.ToBlock
	if to == 0 {
		latest, err := r.chain.LatestBlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("get latest block: %w", err)
		}
		to = latest
	}

	if r.checkpoint != nil {
		cp, ok, err := r.checkpoint.Load(ctx)
		if err != nil {
			return err
		}
		if ok {
			if cp.TokenAddress != "" && cp.TokenAddress != token.Hex() {
				return fmt.Errorf("checkpoint token %s does not match resolved token %s", cp.TokenAddress, token.Hex())
			}
			if cp.LastProcessedBlock >= from {
				from = cp.LastProcessedBlock + 1
				r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", cp.LastProcessedBlock), zap.Uint64("from", from))
			}
		}
	}

	if from > to {
		r.logger.Info("nothing to sync", zap.Uint64("from", from), zap.Uint64("to", to))
		return nil
	}

	ranges, err := SplitRange(from, to, r.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, blockRange := range ranges {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		r.logger.Info("derive transfers", zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))

		transfers := make([]model.TokenTransfer, 0)
		tokens := make([]model.Token, 0, 1)

		for number := blockRange.From; number <= blockRange.To; number++ {
			bundle, err := r.deriveBlock(ctx, number, token, signer)
			if err != nil {
				return err
			}
			transfers = append(transfers, bundle.Transfers...)
			tokens = append(tokens, bundle.Tokens...)
		}

		tokens = lo.UniqBy(tokens, func(t model.Token) string { return t.ContractAddress })
		if err := r.storage.PutDerivedBatch(ctx, transfers, tokens); err != nil {
			return fmt.Errorf("store transfers: %w", err)
		}

		if r.checkpoint != nil {
			if err := r.checkpoint.Save(ctx, blockRange.To, token.Hex()); err != nil {
				return err
			}
		}

		r.logger.Info("batch complete", zap.Int("transfers", len(transfers)), zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))
	}

	return nil
}

func (r *Runner) deriveBlock(ctx context.Context, number uint64, token common.Address, signer types.Signer) (duality.Bundle, error) {
	block, err := r.blockWithRetry(ctx, number)
	if err != nil {
		return duality.Bundle{}, fmt.Errorf("fetch block %d: %w", number, err)
	}

	txs, err := buildTransactions(block, signer)
	if err != nil {
		return duality.Bundle{}, fmt.Errorf("block %d: %w", number, err)
	}

	traces, err := r.tracesWithRetry(ctx, number)
	if err != nil {
		return duality.Bundle{}, fmt.Errorf("trace block %d: %w", number, err)
	}
	itxs, err := FlattenTraces(traces, number)
	if err != nil {
		return duality.Bundle{}, err
	}

	txBundle, err := duality.FromTransactions(txs, token)
	if err != nil {
		return duality.Bundle{}, err
	}

	blockHashes := map[uint64]string{number: block.Hash().Hex()}
	itxBundle, err := duality.FromInternalTransactions(itxs, token, blockHashes)
	if err != nil {
		return duality.Bundle{}, err
	}

	return duality.Bundle{
		Transfers: append(txBundle.Transfers, itxBundle.Transfers...),
		Tokens:    lo.UniqBy(append(txBundle.Tokens, itxBundle.Tokens...), func(t model.Token) string { return t.ContractAddress }),
	}, nil
}

func (r *Runner) blockWithRetry(ctx context.Context, number uint64) (*types.Block, error) {
	var block *types.Block
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		block, err = r.chain.BlockByNumber(ctx, new(big.Int).SetUint64(number))
		if err != nil {
			r.logger.Warn("block fetch failed", zap.Error(err), zap.Uint64("block_number", number))
		}
		return err
	})
	return block, err
}

func (r *Runner) tracesWithRetry(ctx context.Context, number uint64) ([]chain.TxTrace, error) {
	var traces []chain.TxTrace
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		traces, err = r.chain.TraceBlockByNumber(ctx, number)
		if err != nil {
			r.logger.Warn("trace fetch failed", zap.Error(err), zap.Uint64("block_number", number))
		}
		return err
	})
	return traces, err
}
