package history

import (
	"errors"

	"solana-activity-gateway/internal/domain"
)

// Default pagination limits.
const (
	DefaultHistoryLimit   = 10
	DefaultSignatureLimit = 20
)

// ErrInvalidRequest reports a structurally invalid request.
var ErrInvalidRequest = errors.New("invalid request")

// ErrUpstream reports that every upstream path for a request failed.
var ErrUpstream = errors.New("upstream failure")

// ChainAccount is one wallet on one chain.
type ChainAccount struct {
	ChainID string `json:"chainId"`
	Address string `json:"address"`
}

// Request asks for aggregated history across accounts.
type Request struct {
	Accounts []ChainAccount `json:"accounts"`
	Before   string         `json:"before,omitempty"`
	Limit    int            `json:"limit,omitempty"`
}

// Result is the aggregated history response.
type Result struct {
	Results []domain.NormalizedTransaction `json:"results"`
}

// SignatureRequest asks for recent signatures of one address.
type SignatureRequest struct {
	Address string `json:"address"`
	Limit   int    `json:"limit,omitempty"`
}

// SignatureResult lists signature hashes, newest first.
type SignatureResult struct {
	Signatures []string `json:"signatures"`
}

// ParseRequest asks for normalization of explicit signatures.
type ParseRequest struct {
	Address    string   `json:"address"`
	Signatures []string `json:"signatures"`
}
