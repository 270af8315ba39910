package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-activity-gateway/internal/domain"
	"solana-activity-gateway/internal/storage"
)

// TokenMetadataStore implements storage.TokenMetadataStore using PostgreSQL.
type TokenMetadataStore struct {
	pool *Pool
}

// NewTokenMetadataStore creates a new TokenMetadataStore.
func NewTokenMetadataStore(pool *Pool) *TokenMetadataStore {
	return &TokenMetadataStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenMetadataStore = (*TokenMetadataStore)(nil)

// Upsert inserts or replaces metadata for a mint.
func (s *TokenMetadataStore) Upsert(ctx context.Context, mint string, m *domain.TokenMetadata) error {
	if mint == "" || m == nil {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO token_metadata (mint, name, symbol, logo_uri, decimals, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (mint) DO UPDATE SET
			name = EXCLUDED.name,
			symbol = EXCLUDED.symbol,
			logo_uri = EXCLUDED.logo_uri,
			decimals = EXCLUDED.decimals,
			updated_at = NOW()
	`

	_, err := s.pool.Exec(ctx, query, mint, m.Name, m.Symbol, m.LogoURI, int(m.Decimals))
	if err != nil {
		return fmt.Errorf("upsert token metadata: %w", err)
	}
	return nil
}

// GetByMint retrieves metadata by mint address. Returns ErrNotFound if not exists.
func (s *TokenMetadataStore) GetByMint(ctx context.Context, mint string) (*domain.TokenMetadata, error) {
	query := `
		SELECT name, symbol, logo_uri, decimals
		FROM token_metadata
		WHERE mint = $1
	`

	row := s.pool.QueryRow(ctx, query, mint)
	m, err := scanTokenMetadata(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token metadata by mint: %w", err)
	}
	return m, nil
}

// scanTokenMetadata scans a single row into TokenMetadata.
func scanTokenMetadata(row pgx.Row) (*domain.TokenMetadata, error) {
	var m domain.TokenMetadata
	var decimals int

	if err := row.Scan(&m.Name, &m.Symbol, &m.LogoURI, &decimals); err != nil {
		return nil, err
	}
	m.Decimals = uint8(decimals)

	return &m, nil
}
