package normalize

import (
	"context"
	"errors"
	"io"
	"log"

	"solana-activity-gateway/internal/domain"
)

// Schema names reported to observers.
const (
	SchemaActivity = "activity"
	SchemaRPC      = "rpc"
)

// ErrMalformedRecord is returned when a raw record lacks the fields needed
// to produce a transaction at all. Callers skip such records.
var ErrMalformedRecord = errors.New("malformed record")

// MetadataResolver supplies token metadata for balance changes. Hints map
// mint to the decimals observed in the transaction payload.
type MetadataResolver interface {
	ResolveAll(ctx context.Context, hints map[string]uint8) map[string]domain.TokenMetadata
}

// Engine converts provider records into NormalizedTransactions. One adapter
// exists per provider schema; both produce the same canonical shape.
type Engine struct {
	resolver MetadataResolver
	logger   *log.Logger

	// OnNormalized is invoked with the schema name for every produced
	// transaction; OnDropped with a reason for every record dropped.
	OnNormalized func(schema string)
	OnDropped    func(reason string)
}

// EngineOptions configures NewEngine.
type EngineOptions struct {
	Resolver     MetadataResolver
	Logger       *log.Logger
	OnNormalized func(schema string)
	OnDropped    func(reason string)
}

// NewEngine creates a normalization engine.
func NewEngine(opts EngineOptions) *Engine {
	e := &Engine{
		resolver:     opts.Resolver,
		logger:       opts.Logger,
		OnNormalized: opts.OnNormalized,
		OnDropped:    opts.OnDropped,
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard, "", 0)
	}
	return e
}

func (e *Engine) normalized(schema string) {
	if e.OnNormalized != nil {
		e.OnNormalized(schema)
	}
}

func (e *Engine) dropped(reason string) {
	if e.OnDropped != nil {
		e.OnDropped(reason)
	}
}
