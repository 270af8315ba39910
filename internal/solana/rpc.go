package solana

import "context"

// RPCClient defines the Solana RPC HTTP interface.
type RPCClient interface {
	// GetTransaction retrieves a transaction by signature with parsed
	// encoding. Returns (nil, nil) when the transaction is not found.
	GetTransaction(ctx context.Context, signature string) (*RawTransaction, error)

	// GetSignaturesForAddress retrieves signatures for an address with pagination.
	GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error)

	// GetHealth checks node health. A nil error means the node answered "ok".
	GetHealth(ctx context.Context) error
}
