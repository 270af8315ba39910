package solana

import (
	"fmt"
	"sync/atomic"
)

// Endpoint is one interchangeable JSON-RPC endpoint.
type Endpoint struct {
	URL   string
	Label string
}

func (e Endpoint) String() string {
	if e.Label != "" {
		return e.Label
	}
	return e.URL
}

// Pool holds the set of interchangeable RPC endpoints and hands them out
// round-robin. The pool is immutable after construction; Pick is safe for
// concurrent use.
type Pool struct {
	endpoints []Endpoint
	cursor    atomic.Uint64
}

// NewPool builds a pool from the given endpoints. At least one is required.
// Duplicate URLs are collapsed to the first occurrence; Pick's exclusion
// scan relies on every pool entry having a distinct URL.
func NewPool(endpoints []Endpoint) (*Pool, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("endpoint pool: at least one endpoint required")
	}
	seen := make(map[string]bool, len(endpoints))
	eps := make([]Endpoint, 0, len(endpoints))
	for _, ep := range endpoints {
		if seen[ep.URL] {
			continue
		}
		seen[ep.URL] = true
		eps = append(eps, ep)
	}
	return &Pool{endpoints: eps}, nil
}

// Pick returns the next endpoint in rotation. When excludeURL names an
// endpoint and the pool holds more than one, the excluded endpoint is
// skipped so a failed call never lands on the same endpoint twice in a row.
func (p *Pool) Pick(excludeURL string) Endpoint {
	n := len(p.endpoints)
	if n == 1 {
		return p.endpoints[0]
	}
	for {
		idx := int(p.cursor.Add(1)-1) % n
		ep := p.endpoints[idx]
		if ep.URL != excludeURL {
			return ep
		}
	}
}

// Size reports the number of endpoints in the pool.
func (p *Pool) Size() int {
	return len(p.endpoints)
}

// Endpoints returns a copy of the pool contents.
func (p *Pool) Endpoints() []Endpoint {
	eps := make([]Endpoint, len(p.endpoints))
	copy(eps, p.endpoints)
	return eps
}
