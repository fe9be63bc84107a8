package storage

import (
	"context"

	"coinScope/internal/model"
)

// Storage defines a sink for derived transfers and their token descriptors.
type Storage interface {
	PutDerivedBatch(ctx context.Context, transfers []model.TokenTransfer, tokens []model.Token) error
}
