package memory

import (
	"context"
	"sync"

	"solana-activity-gateway/internal/domain"
	"solana-activity-gateway/internal/storage"
)

// TokenMetadataStore is an in-memory implementation of storage.TokenMetadataStore.
type TokenMetadataStore struct {
	mu     sync.RWMutex
	byMint map[string]*domain.TokenMetadata
}

// NewTokenMetadataStore creates a new in-memory token metadata store.
func NewTokenMetadataStore() *TokenMetadataStore {
	return &TokenMetadataStore{
		byMint: make(map[string]*domain.TokenMetadata),
	}
}

// Upsert inserts or replaces metadata for a mint.
func (s *TokenMetadataStore) Upsert(_ context.Context, mint string, m *domain.TokenMetadata) error {
	if mint == "" || m == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	metaCopy := *m
	s.byMint[mint] = &metaCopy
	return nil
}

// GetByMint retrieves metadata by mint address. Returns ErrNotFound if not exists.
func (s *TokenMetadataStore) GetByMint(_ context.Context, mint string) (*domain.TokenMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, exists := s.byMint[mint]
	if !exists {
		return nil, storage.ErrNotFound
	}

	metaCopy := *m
	return &metaCopy, nil
}

var _ storage.TokenMetadataStore = (*TokenMetadataStore)(nil)
