package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"
)

// DefaultHealthInterval is the default probe period.
const DefaultHealthInterval = 30 * time.Second

// HealthChecker periodically probes every endpoint in the pool with
// getHealth. Results are reported through the OnResult hook so callers can
// feed gauges or alerting without this package depending on them.
type HealthChecker struct {
	pool     *Pool
	client   *http.Client
	interval time.Duration
	logger   *log.Logger

	// OnResult is invoked once per endpoint per probe cycle.
	OnResult func(endpoint string, healthy bool)
}

// HealthCheckerOptions configures NewHealthChecker.
type HealthCheckerOptions struct {
	Pool     *Pool
	Client   *http.Client
	Interval time.Duration
	Logger   *log.Logger
	OnResult func(endpoint string, healthy bool)
}

// NewHealthChecker builds a checker over the given pool.
func NewHealthChecker(opts HealthCheckerOptions) *HealthChecker {
	hc := &HealthChecker{
		pool:     opts.Pool,
		client:   opts.Client,
		interval: opts.Interval,
		logger:   opts.Logger,
		OnResult: opts.OnResult,
	}
	if hc.client == nil {
		hc.client = &http.Client{Timeout: 10 * time.Second}
	}
	if hc.interval <= 0 {
		hc.interval = DefaultHealthInterval
	}
	if hc.logger == nil {
		hc.logger = log.New(io.Discard, "", 0)
	}
	return hc
}

// Run probes all endpoints immediately and then on every interval tick
// until the context is cancelled.
func (hc *HealthChecker) Run(ctx context.Context) {
	hc.probeAll(ctx)

	ticker := time.NewTicker(hc.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hc.probeAll(ctx)
		}
	}
}

func (hc *HealthChecker) probeAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, ep := range hc.pool.Endpoints() {
		wg.Add(1)
		go func(ep Endpoint) {
			defer wg.Done()
			err := hc.probe(ctx, ep)
			if err != nil {
				hc.logger.Printf("endpoint %s unhealthy: %v", ep, err)
			}
			if hc.OnResult != nil {
				hc.OnResult(ep.String(), err == nil)
			}
		}(ep)
	}
	wg.Wait()
}

func (hc *HealthChecker) probe(ctx context.Context, ep Endpoint) error {
	body, _ := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: "getHealth"})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.client.Do(req)
	if err != nil {
		return err
	}
	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return err
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	var status string
	if err := json.Unmarshal(rpcResp.Result, &status); err != nil {
		return err
	}
	if status != "ok" {
		return fmt.Errorf("node reports %q", status)
	}
	return nil
}
