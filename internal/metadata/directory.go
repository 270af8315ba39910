package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"solana-activity-gateway/internal/domain"
)

// DefaultDirectoryRefresh is how often the token directory is reloaded.
const DefaultDirectoryRefresh = 30 * time.Minute

// Directory is the first resolution tier: a token list fetched in bulk from
// a registry URL and served from memory. Lookups never touch the network.
type Directory struct {
	url    string
	client *http.Client
	logger *log.Logger

	mu     sync.RWMutex
	tokens map[string]domain.TokenMetadata
}

// DirectoryOptions configures NewDirectory.
type DirectoryOptions struct {
	URL    string
	Client *http.Client
	Logger *log.Logger
}

// NewDirectory creates an empty directory. Call Load or Run to populate it.
func NewDirectory(opts DirectoryOptions) *Directory {
	d := &Directory{
		url:    opts.URL,
		client: opts.Client,
		logger: opts.Logger,
		tokens: make(map[string]domain.TokenMetadata),
	}
	if d.client == nil {
		d.client = &http.Client{Timeout: 30 * time.Second}
	}
	if d.logger == nil {
		d.logger = log.New(io.Discard, "", 0)
	}
	return d
}

var _ Source = (*Directory)(nil)

// Name identifies the tier.
func (d *Directory) Name() string { return "directory" }

// directoryEntry is one token-list record.
type directoryEntry struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
	LogoURI  string `json:"logoURI"`
}

// Load fetches the token list and replaces the in-memory index. A failed
// load keeps the previous index.
func (d *Directory) Load(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch token directory: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token directory status %d", resp.StatusCode)
	}

	var entries []directoryEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return fmt.Errorf("decode token directory: %w", err)
	}

	tokens := make(map[string]domain.TokenMetadata, len(entries))
	for _, e := range entries {
		if e.Address == "" {
			continue
		}
		tokens[e.Address] = domain.TokenMetadata{
			Name:     e.Name,
			Symbol:   e.Symbol,
			LogoURI:  e.LogoURI,
			Decimals: e.Decimals,
		}
	}

	d.mu.Lock()
	d.tokens = tokens
	d.mu.Unlock()

	d.logger.Printf("loaded %d tokens from directory", len(tokens))
	return nil
}

// Run loads the directory immediately and refreshes it on every interval
// tick until the context is cancelled.
func (d *Directory) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultDirectoryRefresh
	}

	if err := d.Load(ctx); err != nil {
		d.logger.Printf("initial directory load failed: %v", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.Load(ctx); err != nil {
				d.logger.Printf("directory refresh failed: %v", err)
			}
		}
	}
}

// Resolve looks the mint up in the in-memory index.
func (d *Directory) Resolve(_ context.Context, mint string) (*domain.TokenMetadata, error) {
	d.mu.RLock()
	m, ok := d.tokens[mint]
	d.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownToken
	}
	return &m, nil
}

// Size reports the number of indexed tokens.
func (d *Directory) Size() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.tokens)
}
