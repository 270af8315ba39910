package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync/atomic"
	"time"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultCallTimeout = 10 * time.Second
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 500 * time.Millisecond
)

// ErrUpstreamExhausted is returned when every retry attempt against the
// endpoint pool failed. The last underlying cause is wrapped alongside it.
var ErrUpstreamExhausted = errors.New("upstream exhausted")

// RetryPolicy controls how many attempts a call makes and how long to wait
// between them. Delay receives the 1-based number of the attempt that just
// failed.
type RetryPolicy struct {
	MaxAttempts int
	Delay       func(attempt int) time.Duration
}

// NewRetryPolicy builds a fixed-delay policy.
func NewRetryPolicy(maxAttempts int, delay time.Duration) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Delay:       func(int) time.Duration { return delay },
	}
}

// FailoverClient implements RPCClient over a pool of interchangeable
// endpoints. Each failed attempt rotates to a different endpoint; JSON-RPC
// application errors are terminal and never retried.
type FailoverClient struct {
	pool        *Pool
	client      *http.Client
	policy      RetryPolicy
	callTimeout time.Duration
	logger      *log.Logger
	requestID   atomic.Uint64
	onAttempt   func(endpoint string, err error)
}

// ClientOption configures FailoverClient.
type ClientOption func(*FailoverClient)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *FailoverClient) {
		c.client = client
	}
}

// WithRetryPolicy replaces the default retry policy.
func WithRetryPolicy(p RetryPolicy) ClientOption {
	return func(c *FailoverClient) {
		c.policy = p
	}
}

// WithCallTimeout bounds each individual attempt. Zero disables the
// per-attempt deadline and leaves only the caller's context.
func WithCallTimeout(d time.Duration) ClientOption {
	return func(c *FailoverClient) {
		c.callTimeout = d
	}
}

// WithLogger sets the client logger.
func WithLogger(l *log.Logger) ClientOption {
	return func(c *FailoverClient) {
		c.logger = l
	}
}

// WithAttemptObserver registers a hook invoked after every attempt with the
// endpoint used and the attempt outcome (nil on success).
func WithAttemptObserver(fn func(endpoint string, err error)) ClientOption {
	return func(c *FailoverClient) {
		c.onAttempt = fn
	}
}

// NewFailoverClient creates a pool-backed Solana RPC client.
func NewFailoverClient(pool *Pool, opts ...ClientOption) *FailoverClient {
	c := &FailoverClient{
		pool:        pool,
		client:      &http.Client{Timeout: DefaultTimeout},
		policy:      NewRetryPolicy(DefaultMaxAttempts, DefaultRetryDelay),
		callTimeout: DefaultCallTimeout,
		logger:      log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.policy.MaxAttempts < 1 {
		c.policy.MaxAttempts = 1
	}
	return c
}

var _ RPCClient = (*FailoverClient)(nil)

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// call performs a JSON-RPC call, rotating through the endpoint pool on
// transport failures until the retry budget is spent.
func (c *FailoverClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	reqID := c.requestID.Add(1)
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	lastURL := ""

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if attempt > 1 && c.policy.Delay != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.policy.Delay(attempt - 1)):
			}
		}

		ep := c.pool.Pick(lastURL)
		lastURL = ep.URL

		raw, err := c.attempt(ctx, ep, body)
		if c.onAttempt != nil {
			c.onAttempt(ep.String(), err)
		}
		if err != nil {
			var appErr *rpcError
			if errors.As(err, &appErr) {
				// Application errors are deterministic; retrying
				// against another endpoint cannot help.
				return err
			}
			lastErr = err
			c.logger.Printf("%s attempt %d/%d on %s failed: %v",
				method, attempt, c.policy.MaxAttempts, ep, err)
			continue
		}

		if result != nil && raw != nil {
			if err := json.Unmarshal(raw, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}
		return nil
	}

	return fmt.Errorf("%w: %s failed after %d attempts: %w",
		ErrUpstreamExhausted, method, c.policy.MaxAttempts, lastErr)
}

// attempt performs a single HTTP exchange against one endpoint.
func (c *FailoverClient) attempt(ctx context.Context, ep Endpoint, body []byte) (json.RawMessage, error) {
	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("rate limited (429)")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}
	return rpcResp.Result, nil
}

// GetTransaction retrieves a transaction by signature with parsed encoding.
// Returns (nil, nil) when the transaction is not found.
func (c *FailoverClient) GetTransaction(ctx context.Context, signature string) (*RawTransaction, error) {
	params := []interface{}{
		signature,
		map[string]interface{}{
			"encoding":                       "jsonParsed",
			"maxSupportedTransactionVersion": 0,
			"commitment":                     "confirmed",
		},
	}

	var result *RawTransaction
	if err := c.call(ctx, "getTransaction", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetSignaturesForAddress retrieves signatures for an address with pagination.
func (c *FailoverClient) GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error) {
	config := make(map[string]interface{})
	if opts != nil {
		if opts.Before != "" {
			config["before"] = opts.Before
		}
		if opts.Until != "" {
			config["until"] = opts.Until
		}
		if opts.Limit > 0 {
			config["limit"] = opts.Limit
		}
	}

	params := []interface{}{address}
	if len(config) > 0 {
		params = append(params, config)
	}

	var result []SignatureInfo
	if err := c.call(ctx, "getSignaturesForAddress", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetHealth checks node health via the getHealth RPC.
func (c *FailoverClient) GetHealth(ctx context.Context) error {
	var status string
	if err := c.call(ctx, "getHealth", nil, &status); err != nil {
		return err
	}
	if status != "ok" {
		return fmt.Errorf("node unhealthy: %s", status)
	}
	return nil
}
