package storage

import (
	"context"

	"solana-activity-gateway/internal/domain"
)

// TokenMetadataStore provides persistent token metadata storage. It backs
// the durable tier of metadata resolution: records survive restarts and are
// overwritten wholesale on refresh.
type TokenMetadataStore interface {
	// Upsert inserts or replaces metadata for a mint.
	Upsert(ctx context.Context, mint string, m *domain.TokenMetadata) error

	// GetByMint retrieves metadata by mint address. Returns ErrNotFound if not exists.
	GetByMint(ctx context.Context, mint string) (*domain.TokenMetadata, error)
}
