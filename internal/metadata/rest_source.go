package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"solana-activity-gateway/internal/domain"
)

// RESTSource is the last resolution tier: a per-mint lookup against an
// external token info provider.
type RESTSource struct {
	baseURL   string
	authToken string
	client    *http.Client
}

// RESTSourceOptions configures NewRESTSource.
type RESTSourceOptions struct {
	BaseURL   string
	AuthToken string
	Client    *http.Client
}

// NewRESTSource creates a provider-backed source.
func NewRESTSource(opts RESTSourceOptions) *RESTSource {
	s := &RESTSource{
		baseURL:   opts.BaseURL,
		authToken: opts.AuthToken,
		client:    opts.Client,
	}
	if s.client == nil {
		s.client = &http.Client{Timeout: 15 * time.Second}
	}
	return s
}

var _ Source = (*RESTSource)(nil)

// Name identifies the tier.
func (s *RESTSource) Name() string { return "provider" }

// tokenInfoResponse is the provider's per-mint payload.
type tokenInfoResponse struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
	LogoURI  string `json:"logoURI"`
}

// Resolve fetches metadata for one mint. A 404 or a placeholder answer
// (symbol UNKNOWN) maps to ErrUnknownToken so it is never cached as real
// metadata.
func (s *RESTSource) Resolve(ctx context.Context, mint string) (*domain.TokenMetadata, error) {
	u := fmt.Sprintf("%s/v1/tokens/%s", s.baseURL, url.PathEscape(mint))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if s.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.authToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch token info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrUnknownToken
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token info status %d", resp.StatusCode)
	}

	var info tokenInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode token info: %w", err)
	}
	if info.Symbol == "" || info.Symbol == "UNKNOWN" {
		return nil, ErrUnknownToken
	}

	return &domain.TokenMetadata{
		Name:     info.Name,
		Symbol:   info.Symbol,
		LogoURI:  info.LogoURI,
		Decimals: info.Decimals,
	}, nil
}
