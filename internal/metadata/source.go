package metadata

import (
	"context"
	"errors"

	"solana-activity-gateway/internal/domain"
)

// ErrUnknownToken is returned by a source that answered but does not know
// the mint. The resolver falls through to the next tier.
var ErrUnknownToken = errors.New("unknown token")

// Source is one tier of metadata resolution. Tiers are consulted in order;
// the first successful answer wins.
type Source interface {
	// Name identifies the tier in logs and metrics.
	Name() string

	// Resolve returns metadata for a mint. ErrUnknownToken means the source
	// is healthy but has no answer; other errors mean the source failed.
	Resolve(ctx context.Context, mint string) (*domain.TokenMetadata, error)
}
