package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"coinScope/internal/model"
)

// Store provides Postgres persistence for derived transfers and tokens.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// PutDerivedBatch upserts tokens first, then transfers, so transfers never
// reference an unknown token contract.
func (s *Store) PutDerivedBatch(ctx context.Context, transfers []model.TokenTransfer, tokens []model.Token) error {
	if err := s.upsertTokens(ctx, tokens); err != nil {
		return fmt.Errorf("upsert tokens: %w", err)
	}
	if err := s.upsertTransfers(ctx, transfers); err != nil {
		return fmt.Errorf("upsert transfers: %w", err)
	}
	return nil
}

func (s *Store) upsertTokens(ctx context.Context, tokens []model.Token) error {
	if len(tokens) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, token := range tokens {
		batch.Queue(`
			INSERT INTO tokens (contract_address, type, created_at, updated_at)
			VALUES ($1, $2, now(), now())
			ON CONFLICT (contract_address) DO NOTHING
		`,
			token.ContractAddress,
			token.Type,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range tokens {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) upsertTransfers(ctx context.Context, transfers []model.TokenTransfer) error {
	if len(transfers) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, transfer := range transfers {
		batch.Queue(`
			INSERT INTO token_transfers (
				transaction_hash, log_index, amount, block_hash, block_number,
				from_address, to_address, token_contract_address, token_id, token_type,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
			ON CONFLICT (transaction_hash, log_index)
			DO UPDATE SET
				amount = EXCLUDED.amount,
				block_hash = EXCLUDED.block_hash,
				block_number = EXCLUDED.block_number,
				from_address = EXCLUDED.from_address,
				to_address = EXCLUDED.to_address,
				token_contract_address = EXCLUDED.token_contract_address,
				token_id = EXCLUDED.token_id,
				token_type = EXCLUDED.token_type,
				updated_at = now()
		`,
			transfer.TransactionHash,
			transfer.LogIndex,
			transfer.Amount,
			transfer.BlockHash,
			int64(transfer.BlockNumber),
			transfer.FromAddress,
			transfer.ToAddress,
			transfer.TokenContractAddress,
			transfer.TokenID,
			transfer.TokenType,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range transfers {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadState returns the last processed block and the token address it was
// derived against for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, string, bool, error) {
	if name == "" {
		return 0, "", false, fmt.Errorf("state name required")
	}
	var block uint64
	var token string
	row := s.pool.QueryRow(ctx, `SELECT last_processed_block, token_address FROM indexer_state WHERE name=$1`, name)
	if err := row.Scan(&block, &token); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, "", false, nil
		}
		return 0, "", false, err
	}
	return block, token, true, nil
}

// SaveState upserts the last processed block and token address for a name.
func (s *Store) SaveState(ctx context.Context, name string, block uint64, tokenAddress string) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO indexer_state (name, last_processed_block, token_address, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_block = EXCLUDED.last_processed_block,
			token_address = EXCLUDED.token_address,
			updated_at = now()
	`, name, block, tokenAddress)
	return err
}
