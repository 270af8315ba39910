package metadata

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"solana-activity-gateway/internal/domain"
	"solana-activity-gateway/internal/storage"
)

// DefaultConcurrency caps parallel source lookups in ResolveAll.
const DefaultConcurrency = 8

// FallbackName and FallbackSymbol are the placeholder identity used when no
// tier can resolve a mint. Placeholders are returned to callers but never
// cached or persisted, so the next request retries resolution.
const (
	FallbackName   = "Unknown Token"
	FallbackSymbol = "UNKNOWN"
)

// Resolver resolves token metadata through a cache and an ordered list of
// tiers. Resolve never returns an error: when everything fails the caller
// gets a placeholder built from the decimals hint.
type Resolver struct {
	cache       *Cache
	sources     []Source
	store       storage.TokenMetadataStore
	logger      *log.Logger
	concurrency int

	// OnResolve is invoked once per resolution with the winning tier name
	// ("cache", a source name, or "fallback").
	OnResolve func(tier string)
}

// ResolverOptions configures NewResolver.
type ResolverOptions struct {
	Cache   *Cache
	Sources []Source

	// Store receives a write-behind copy of answers produced by non-store
	// tiers. Nil disables persistence.
	Store storage.TokenMetadataStore

	Logger      *log.Logger
	Concurrency int
	OnResolve   func(tier string)
}

// NewResolver creates a resolver over the given tiers.
func NewResolver(opts ResolverOptions) (*Resolver, error) {
	cache := opts.Cache
	if cache == nil {
		var err error
		cache, err = NewCache(DefaultCacheSize)
		if err != nil {
			return nil, err
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Resolver{
		cache:       cache,
		sources:     opts.Sources,
		store:       opts.Store,
		logger:      logger,
		concurrency: concurrency,
		OnResolve:   opts.OnResolve,
	}, nil
}

// Fallback builds the placeholder metadata for an unresolvable mint.
func Fallback(decimalsHint uint8) domain.TokenMetadata {
	return domain.TokenMetadata{
		Name:     FallbackName,
		Symbol:   FallbackSymbol,
		Decimals: decimalsHint,
	}
}

// Resolve returns metadata for a mint, consulting the cache first and then
// each tier in order. Real answers are cached and persisted; placeholder
// answers are neither.
func (r *Resolver) Resolve(ctx context.Context, mint string, decimalsHint uint8) domain.TokenMetadata {
	if m, ok := r.cache.Get(mint); ok {
		r.observe("cache")
		return m
	}

	for _, src := range r.sources {
		m, err := src.Resolve(ctx, mint)
		if err != nil {
			if !errors.Is(err, ErrUnknownToken) {
				r.logger.Printf("tier %s failed for %s: %v", src.Name(), mint, err)
			}
			continue
		}
		r.cache.Put(mint, *m)
		if r.store != nil && src.Name() != StoreSourceName {
			if err := r.store.Upsert(ctx, mint, m); err != nil {
				r.logger.Printf("persist %s failed: %v", mint, err)
			}
		}
		r.observe(src.Name())
		return *m
	}

	r.observe("fallback")
	return Fallback(decimalsHint)
}

// ResolveAll resolves a set of mints concurrently. Hints map mint to the
// decimals observed on chain, used only for placeholders.
func (r *Resolver) ResolveAll(ctx context.Context, hints map[string]uint8) map[string]domain.TokenMetadata {
	results := make(map[string]domain.TokenMetadata, len(hints))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for mint, hint := range hints {
		g.Go(func() error {
			m := r.Resolve(gctx, mint, hint)
			mu.Lock()
			results[mint] = m
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	return results
}

func (r *Resolver) observe(tier string) {
	if r.OnResolve != nil {
		r.OnResolve(tier)
	}
}
