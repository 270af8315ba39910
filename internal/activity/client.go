package activity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"solana-activity-gateway/internal/domain"
)

// chunkSeparator delimits JSON chunks in streaming responses.
const chunkSeparator = "<|EOF|>"

// Default client configuration.
const (
	DefaultNetwork = "mainnet"
	DefaultTimeout = 30 * time.Second
	DefaultRPS     = 5
	DefaultBurst   = 10
)

// Client talks to the wallet activity provider. Responses arrive as JSON
// chunks separated by a sentinel; malformed chunks are skipped, not fatal.
type Client struct {
	baseURL   string
	authToken string
	network   string
	client    *http.Client
	limiter   *rate.Limiter
	logger    *log.Logger
}

// ClientOptions configures NewClient.
type ClientOptions struct {
	BaseURL   string
	AuthToken string
	Network   string
	Client    *http.Client
	RPS       float64
	Burst     int
	Logger    *log.Logger
}

// NewClient creates an activity API client.
func NewClient(opts ClientOptions) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		authToken: opts.AuthToken,
		network:   opts.Network,
		client:    opts.Client,
		logger:    opts.Logger,
	}
	if c.network == "" {
		c.network = DefaultNetwork
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: DefaultTimeout}
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard, "", 0)
	}
	rps := opts.RPS
	if rps <= 0 {
		rps = DefaultRPS
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = DefaultBurst
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return c
}

// Signatures fetches recent transaction signatures for an address, newest
// first. Entries without a hash are skipped.
func (c *Client) Signatures(ctx context.Context, address string, limit int) ([]domain.SignatureRecord, error) {
	q := url.Values{}
	q.Set("address", address)
	q.Set("network", c.network)
	q.Set("ignoreFailed", "0")
	q.Set("limit", strconv.Itoa(limit))

	body, err := c.get(ctx, c.baseURL+"/v1/signatures?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var records []domain.SignatureRecord
	for _, data := range c.chunks(body) {
		var entries []signatureEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			c.logger.Printf("skipped malformed signatures data: %v", err)
			continue
		}
		for _, e := range entries {
			if e.Hash == "" {
				continue
			}
			records = append(records, domain.SignatureRecord{
				Hash:      e.Hash,
				BlockTime: e.BlockTime,
				Slot:      e.Slot,
				Failed:    e.Err != nil,
				Address:   e.PublicKey,
			})
		}
	}
	return records, nil
}

// transactionsRequest is the bulk parse request body.
type transactionsRequest struct {
	Language   string   `json:"language"`
	Layout     string   `json:"layout"`
	Address    string   `json:"address"`
	Signatures []string `json:"signatures"`
}

// Transactions fetches parsed activity records for a set of signatures.
// Records without a hash are skipped.
func (c *Client) Transactions(ctx context.Context, address string, signatures []string) ([]Record, error) {
	payload, err := json.Marshal(transactionsRequest{
		Language:   "en",
		Layout:     "web",
		Address:    address,
		Signatures: signatures,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	body, err := c.post(ctx, c.baseURL+"/v1/transactions?network="+url.QueryEscape(c.network), payload)
	if err != nil {
		return nil, err
	}

	var records []Record
	for _, data := range c.chunks(body) {
		var entries []Record
		if err := json.Unmarshal(data, &entries); err != nil {
			c.logger.Printf("skipped malformed transactions data: %v", err)
			continue
		}
		for _, r := range entries {
			if r.Hash == "" {
				continue
			}
			records = append(records, r)
		}
	}
	return records, nil
}

// chunks splits a streamed body on the separator and unwraps each chunk's
// data array, skipping anything that does not parse.
func (c *Client) chunks(body []byte) []json.RawMessage {
	var out []json.RawMessage
	for _, chunk := range strings.Split(string(body), chunkSeparator) {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		var env chunkEnvelope
		if err := json.Unmarshal([]byte(chunk), &env); err != nil {
			c.logger.Printf("skipped malformed chunk: %v", err)
			continue
		}
		if len(env.Data) == 0 || string(env.Data) == "null" {
			continue
		}
		out = append(out, env.Data)
	}
	return out
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, u string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "*/*")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("activity request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read activity response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("activity status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
