package solana

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, urls []string, opts ...ClientOption) *FailoverClient {
	t.Helper()
	eps := make([]Endpoint, len(urls))
	for i, u := range urls {
		eps[i] = Endpoint{URL: u}
	}
	pool, err := NewPool(eps)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	opts = append([]ClientOption{
		WithRetryPolicy(NewRetryPolicy(3, time.Millisecond)),
	}, opts...)
	return NewFailoverClient(pool, opts...)
}

func rpcResult(t *testing.T, w http.ResponseWriter, r *http.Request, result interface{}) {
	t.Helper()
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      req.ID,
		"result":  result,
	})
}

func TestFailoverClient_GetTransaction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Method != "getTransaction" {
			t.Errorf("expected method getTransaction, got %s", req.Method)
		}
		if len(req.Params) != 2 {
			t.Fatalf("expected 2 params, got %d", len(req.Params))
		}
		cfg, ok := req.Params[1].(map[string]interface{})
		if !ok || cfg["encoding"] != "jsonParsed" {
			t.Errorf("expected jsonParsed encoding, got %v", req.Params[1])
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{
			"slot":123456,
			"blockTime":1700000000,
			"meta":{
				"err":null,
				"fee":5000,
				"preBalances":[1000000000,0],
				"postBalances":[899995000,100000000],
				"preTokenBalances":[],
				"postTokenBalances":[{"accountIndex":1,"mint":"mintA","owner":"ownerA","uiTokenAmount":{"amount":"1500000","decimals":6,"uiAmount":1.5}}]
			},
			"transaction":{
				"signatures":["testsig123"],
				"message":{"accountKeys":[{"pubkey":"addr1","signer":true,"writable":true},{"pubkey":"addr2"}]}
			}
		}}`))
	}))
	defer server.Close()

	client := newTestClient(t, []string{server.URL})
	tx, err := client.GetTransaction(context.Background(), "testsig123")
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if tx == nil {
		t.Fatal("expected transaction, got nil")
	}
	if tx.Slot != 123456 {
		t.Errorf("expected slot 123456, got %d", tx.Slot)
	}
	if tx.BlockTime == nil || *tx.BlockTime != 1700000000 {
		t.Error("expected blockTime 1700000000")
	}
	if tx.Meta == nil || tx.Meta.Fee != 5000 {
		t.Fatalf("expected fee 5000, got %+v", tx.Meta)
	}
	keys := tx.Transaction.Message.AccountKeys
	if len(keys) != 2 || keys[0].Pubkey != "addr1" || !keys[0].Signer {
		t.Errorf("unexpected account keys: %+v", keys)
	}
	if len(tx.Meta.PostTokenBalances) != 1 {
		t.Fatalf("expected 1 post token balance, got %d", len(tx.Meta.PostTokenBalances))
	}
	tb := tx.Meta.PostTokenBalances[0]
	if tb.Mint != "mintA" || tb.UITokenAmount.UIAmount == nil || *tb.UITokenAmount.UIAmount != 1.5 {
		t.Errorf("unexpected token balance: %+v", tb)
	}
}

func TestFailoverClient_GetTransaction_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rpcResult(t, w, r, nil)
	}))
	defer server.Close()

	client := newTestClient(t, []string{server.URL})
	tx, err := client.GetTransaction(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if tx != nil {
		t.Errorf("expected nil for not found, got %+v", tx)
	}
}

func TestFailoverClient_GetSignaturesForAddress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Method != "getSignaturesForAddress" {
			t.Errorf("expected method getSignaturesForAddress, got %s", req.Method)
		}
		cfg, ok := req.Params[1].(map[string]interface{})
		if !ok || cfg["limit"] != float64(20) || cfg["before"] != "sig0" {
			t.Errorf("unexpected config: %v", req.Params[1])
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": []map[string]interface{}{
				{"signature": "sig1", "slot": 100, "blockTime": 1700000000, "err": nil},
				{"signature": "sig2", "slot": 101, "blockTime": 1700000010, "err": map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}}},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(t, []string{server.URL})
	sigs, err := client.GetSignaturesForAddress(context.Background(), "testaddr", &SignaturesOpts{Before: "sig0", Limit: 20})
	if err != nil {
		t.Fatalf("GetSignaturesForAddress: %v", err)
	}
	if len(sigs) != 2 {
		t.Fatalf("expected 2 signatures, got %d", len(sigs))
	}
	if sigs[0].Signature != "sig1" || sigs[0].Err != nil {
		t.Errorf("unexpected first signature: %+v", sigs[0])
	}
	if sigs[1].Err == nil {
		t.Error("expected err on second signature")
	}
}

func TestFailoverClient_FailoverToSecondEndpoint(t *testing.T) {
	var badHits, goodHits atomic.Int32

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		badHits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		goodHits.Add(1)
		rpcResult(t, w, r, "ok")
	}))
	defer good.Close()

	client := newTestClient(t, []string{bad.URL, good.URL})
	if err := client.GetHealth(context.Background()); err != nil {
		t.Fatalf("GetHealth: %v", err)
	}
	if goodHits.Load() != 1 {
		t.Errorf("expected 1 hit on healthy endpoint, got %d", goodHits.Load())
	}
	// Whichever endpoint the rotation started on, the failed one must not
	// have been retried back to back.
	if badHits.Load() > 1 {
		t.Errorf("failed endpoint hit %d times, expected at most 1", badHits.Load())
	}
}

func TestFailoverClient_NeverRetriesSameEndpointTwice(t *testing.T) {
	fail := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer fail.Close()
	fail2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer fail2.Close()

	var sequence []string
	client := newTestClient(t, []string{fail.URL, fail2.URL},
		WithRetryPolicy(NewRetryPolicy(4, time.Millisecond)),
		WithAttemptObserver(func(endpoint string, err error) {
			sequence = append(sequence, endpoint)
		}),
	)

	err := client.GetHealth(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(sequence) != 4 {
		t.Fatalf("expected 4 attempts, got %d", len(sequence))
	}
	for i := 1; i < len(sequence); i++ {
		if sequence[i] == sequence[i-1] {
			t.Errorf("attempt %d reused endpoint %s immediately after failure", i+1, sequence[i])
		}
	}
}

func TestFailoverClient_UpstreamExhausted(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, []string{server.URL},
		WithRetryPolicy(NewRetryPolicy(3, time.Millisecond)))

	err := client.GetHealth(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrUpstreamExhausted) {
		t.Errorf("expected ErrUpstreamExhausted, got %v", err)
	}
	if !strings.Contains(err.Error(), "status 503") {
		t.Errorf("expected last cause in error, got %v", err)
	}
	if attempts.Load() != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", attempts.Load())
	}
}

func TestFailoverClient_RetriesUpToSuccess(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		rpcResult(t, w, r, "ok")
	}))
	defer server.Close()

	client := newTestClient(t, []string{server.URL},
		WithRetryPolicy(NewRetryPolicy(3, time.Millisecond)))

	if err := client.GetHealth(context.Background()); err != nil {
		t.Fatalf("GetHealth: %v", err)
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestFailoverClient_RPCErrorNotRetried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   map[string]interface{}{"code": -32600, "message": "Invalid Request"},
		})
	}))
	defer server.Close()

	client := newTestClient(t, []string{server.URL})
	_, err := client.GetTransaction(context.Background(), "sig")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var rpcErr *rpcError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected rpcError, got %T", err)
	}
	if rpcErr.Code != -32600 {
		t.Errorf("expected code -32600, got %d", rpcErr.Code)
	}
	if attempts.Load() != 1 {
		t.Errorf("application error retried: %d attempts", attempts.Load())
	}
}

func TestFailoverClient_GetHealth_Unhealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rpcResult(t, w, r, "behind")
	}))
	defer server.Close()

	client := newTestClient(t, []string{server.URL})
	err := client.GetHealth(context.Background())
	if err == nil || !strings.Contains(err.Error(), "behind") {
		t.Errorf("expected unhealthy error, got %v", err)
	}
}

func TestFailoverClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(t, []string{server.URL})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := client.GetHealth(ctx); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
