package metadata

import (
	"context"
	"errors"

	"solana-activity-gateway/internal/domain"
	"solana-activity-gateway/internal/storage"
)

// StoreSourceName identifies the persistent tier. The resolver skips the
// write-behind persist when an answer came from this tier.
const StoreSourceName = "store"

// StoreSource adapts a storage.TokenMetadataStore into a resolution tier.
type StoreSource struct {
	store storage.TokenMetadataStore
}

// NewStoreSource wraps a persistent store as a Source.
func NewStoreSource(store storage.TokenMetadataStore) *StoreSource {
	return &StoreSource{store: store}
}

var _ Source = (*StoreSource)(nil)

// Name identifies the tier.
func (s *StoreSource) Name() string { return StoreSourceName }

// Resolve reads metadata from the persistent store.
func (s *StoreSource) Resolve(ctx context.Context, mint string) (*domain.TokenMetadata, error) {
	m, err := s.store.GetByMint(ctx, mint)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUnknownToken
		}
		return nil, err
	}
	return m, nil
}
