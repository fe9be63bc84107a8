package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"coinScope/internal/config"
	"coinScope/internal/duality"
	"coinScope/internal/indexer"
	"coinScope/internal/model"
	"coinScope/internal/storage"
)

func runDerive(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDerive(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := validateDerive(cfg); err != nil {
		return err
	}

	token, err := indexer.ParseAddress(cfg.NativeToken)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	transfers := make([]model.TokenTransfer, 0)
	tokens := make([]model.Token, 0, 1)

	var txs []model.Transaction
	if cfg.TransactionsIn != "" {
		txs, err = readLines[model.Transaction](cfg.TransactionsIn)
		if err != nil {
			return fmt.Errorf("read transactions: %w", err)
		}

		bundle, err := duality.FromTransactions(txs, token)
		if err != nil {
			return err
		}
		transfers = append(transfers, bundle.Transfers...)
		tokens = append(tokens, bundle.Tokens...)
	}

	if cfg.InternalIn != "" {
		itxs, err := readLines[model.InternalTransaction](cfg.InternalIn)
		if err != nil {
			return fmt.Errorf("read internal transactions: %w", err)
		}

		blockHashes := lo.Associate(txs, func(tx model.Transaction) (uint64, string) {
			return tx.BlockNumber, tx.BlockHash
		})

		bundle, err := duality.FromInternalTransactions(itxs, token, blockHashes)
		if err != nil {
			return err
		}
		transfers = append(transfers, bundle.Transfers...)
		tokens = append(tokens, bundle.Tokens...)
	}

	tokens = lo.UniqBy(tokens, func(t model.Token) string { return t.ContractAddress })

	sink := storage.NewJsonlStorage(cfg.Out, cfg.TokensOut)
	if err := sink.PutDerivedBatch(ctx, transfers, tokens); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	logger.Info("derive complete",
		zap.Int("transfers", len(transfers)),
		zap.Int("tokens", len(tokens)),
		zap.String("out", cfg.Out),
	)
	return nil
}

// validateDerive checks the input combination. Internal transactions carry no
// block hash of their own, so deriving from them needs the transactions file
// to build the block-number-to-hash map.
func validateDerive(cfg config.DeriveConfig) error {
	if cfg.TransactionsIn == "" && cfg.InternalIn == "" {
		return fmt.Errorf("at least one input path is required")
	}
	if cfg.InternalIn != "" && cfg.TransactionsIn == "" {
		return fmt.Errorf("internal transactions require the transactions input to resolve block hashes")
	}
	if cfg.NativeToken == "" {
		return fmt.Errorf("native token address is required")
	}
	return nil
}

func readLines[T any](path string) ([]T, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records := make([]T, 0)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record T
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("parse line: %w", err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
