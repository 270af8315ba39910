// Package history aggregates wallet transaction history across upstream
// providers. It coordinates: signature listing → transaction fetch →
// normalization, with the activity provider preferred and per-signature
// RPC reconstruction as the fallback.
package history

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"solana-activity-gateway/internal/activity"
	"solana-activity-gateway/internal/domain"
	"solana-activity-gateway/internal/normalize"
	"solana-activity-gateway/internal/solana"
)

// DefaultConcurrency caps parallel per-signature RPC fetches.
const DefaultConcurrency = 8

// ActivityClient is the wallet activity provider surface used here.
type ActivityClient interface {
	Signatures(ctx context.Context, address string, limit int) ([]domain.SignatureRecord, error)
	Transactions(ctx context.Context, address string, signatures []string) ([]activity.Record, error)
}

// RPCClient is the Solana RPC surface used here.
type RPCClient interface {
	GetTransaction(ctx context.Context, signature string) (*solana.RawTransaction, error)
	GetSignaturesForAddress(ctx context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error)
}

// Orchestrator executes history requests end to end.
type Orchestrator struct {
	activity    ActivityClient
	rpc         RPCClient
	engine      *normalize.Engine
	logger      *log.Logger
	concurrency int
}

// Options for creating an Orchestrator.
type Options struct {
	Activity    ActivityClient
	RPC         RPCClient
	Engine      *normalize.Engine
	Logger      *log.Logger
	Concurrency int
}

// New creates an Orchestrator.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		activity:    opts.Activity,
		rpc:         opts.RPC,
		engine:      opts.Engine,
		logger:      opts.Logger,
		concurrency: opts.Concurrency,
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard, "", 0)
	}
	if o.concurrency <= 0 {
		o.concurrency = DefaultConcurrency
	}
	return o
}

// History aggregates normalized transactions across the requested accounts.
// With a single account, failures surface as errors; with several, a failed
// account is logged and skipped so the rest still answer.
func (o *Orchestrator) History(ctx context.Context, req Request) (*Result, error) {
	if len(req.Accounts) == 0 {
		return nil, fmt.Errorf("%w: no accounts", ErrInvalidRequest)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	reqID := shortID()
	single := len(req.Accounts) == 1
	results := make([]domain.NormalizedTransaction, 0, limit*len(req.Accounts))

	for _, acc := range req.Accounts {
		if acc.ChainID != domain.ChainID {
			o.logger.Printf("[%s] skipping foreign chain %s", reqID, acc.ChainID)
			continue
		}

		txs, err := o.accountHistory(ctx, acc.Address, req.Before, limit)
		if err != nil {
			if single {
				return nil, err
			}
			o.logger.Printf("[%s] account %s degraded: %v", reqID, acc.Address, err)
			continue
		}
		results = append(results, txs...)
	}

	o.logger.Printf("[%s] history: %d accounts, %d transactions", reqID, len(req.Accounts), len(results))
	return &Result{Results: results}, nil
}

func (o *Orchestrator) accountHistory(ctx context.Context, address, before string, limit int) ([]domain.NormalizedTransaction, error) {
	if err := solana.ValidateAddress(address); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	sigs, err := o.resolveSignatures(ctx, address, before, limit)
	if err != nil {
		return nil, err
	}
	if len(sigs) == 0 {
		return nil, nil
	}

	return o.fetchAndNormalize(ctx, address, sigs)
}

// resolveSignatures lists recent signatures. The activity provider answers
// when no cursor is given; pagination and provider failures go through RPC.
func (o *Orchestrator) resolveSignatures(ctx context.Context, address, before string, limit int) ([]string, error) {
	if before == "" {
		records, err := o.activity.Signatures(ctx, address, limit)
		if err == nil {
			sigs := make([]string, 0, len(records))
			for _, r := range records {
				sigs = append(sigs, r.Hash)
			}
			return sigs, nil
		}
		o.logger.Printf("activity signatures for %s failed, falling back to rpc: %v", address, err)
	}

	infos, err := o.rpc.GetSignaturesForAddress(ctx, address, &solana.SignaturesOpts{
		Before: before,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	sigs := make([]string, 0, len(infos))
	for _, info := range infos {
		sigs = append(sigs, info.Signature)
	}
	return sigs, nil
}

// fetchAndNormalize turns signatures into normalized transactions, first in
// bulk through the activity provider, then signature by signature through
// RPC when the bulk path fails.
func (o *Orchestrator) fetchAndNormalize(ctx context.Context, address string, sigs []string) ([]domain.NormalizedTransaction, error) {
	records, err := o.activity.Transactions(ctx, address, sigs)
	if err == nil {
		out := make([]domain.NormalizedTransaction, 0, len(records))
		for _, rec := range records {
			tx, err := o.engine.FromActivity(rec, address)
			if err != nil {
				o.logger.Printf("skipping record %s: %v", rec.Hash, err)
				continue
			}
			if tx == nil {
				continue
			}
			out = append(out, *tx)
		}
		return out, nil
	}
	o.logger.Printf("activity transactions for %s failed, falling back to rpc: %v", address, err)

	slots := make([]*domain.NormalizedTransaction, len(sigs))
	var mu sync.Mutex
	var lastErr error
	failed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, sig := range sigs {
		g.Go(func() error {
			raw, err := o.rpc.GetTransaction(gctx, sig)
			if err != nil {
				mu.Lock()
				lastErr, failed = err, failed+1
				mu.Unlock()
				o.logger.Printf("rpc fetch %s failed: %v", sig, err)
				return nil
			}
			if raw == nil {
				return nil
			}
			tx, err := o.engine.FromRPC(gctx, raw, address)
			if err != nil {
				o.logger.Printf("skipping transaction %s: %v", sig, err)
				return nil
			}
			slots[i] = tx
			return nil
		})
	}
	g.Wait()

	if failed == len(sigs) && lastErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, lastErr)
	}

	out := make([]domain.NormalizedTransaction, 0, len(sigs))
	for _, tx := range slots {
		if tx != nil {
			out = append(out, *tx)
		}
	}
	return out, nil
}

// Signatures lists recent signature hashes for one address.
func (o *Orchestrator) Signatures(ctx context.Context, req SignatureRequest) (*SignatureResult, error) {
	if err := solana.ValidateAddress(req.Address); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultSignatureLimit
	}

	sigs, err := o.resolveSignatures(ctx, req.Address, "", limit)
	if err != nil {
		return nil, err
	}
	return &SignatureResult{Signatures: sigs}, nil
}

// Parse normalizes an explicit set of signatures for one address.
func (o *Orchestrator) Parse(ctx context.Context, req ParseRequest) (*Result, error) {
	if err := solana.ValidateAddress(req.Address); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if len(req.Signatures) == 0 {
		return nil, fmt.Errorf("%w: no signatures", ErrInvalidRequest)
	}

	txs, err := o.fetchAndNormalize(ctx, req.Address, req.Signatures)
	if err != nil {
		return nil, err
	}
	return &Result{Results: txs}, nil
}

func shortID() string {
	return uuid.NewString()[:8]
}
