package indexer

import (
	"context"
	"fmt"
)

// StateStore is the slice of the Postgres store the state checkpoint needs.
type StateStore interface {
	LoadState(ctx context.Context, name string) (uint64, string, bool, error)
	SaveState(ctx context.Context, name string, block uint64, tokenAddress string) error
}

// StateCheckpoint persists checkpoints in the storage backend's state table,
// so Postgres-backed runs keep their progress next to the data they write.
type StateCheckpoint struct {
	store StateStore
	name  string
}

func NewStateCheckpoint(store StateStore, name string) (*StateCheckpoint, error) {
	if store == nil {
		return nil, fmt.Errorf("state store is nil")
	}
	if name == "" {
		return nil, fmt.Errorf("state name required")
	}
	return &StateCheckpoint{store: store, name: name}, nil
}

func (c *StateCheckpoint) Load(ctx context.Context) (Checkpoint, bool, error) {
	block, token, ok, err := c.store.LoadState(ctx, c.name)
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("load state %s: %w", c.name, err)
	}
	if !ok {
		return Checkpoint{}, false, nil
	}
	return Checkpoint{LastProcessedBlock: block, TokenAddress: token}, true, nil
}

func (c *StateCheckpoint) Save(ctx context.Context, lastProcessed uint64, tokenAddress string) error {
	if err := c.store.SaveState(ctx, c.name, lastProcessed, tokenAddress); err != nil {
		return fmt.Errorf("save state %s: %w", c.name, err)
	}
	return nil
}
