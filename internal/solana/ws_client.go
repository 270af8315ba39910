package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSConfig configures WebSocket client behavior.
type WSConfig struct {
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
	PingInterval      time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	SubscribeTimeout  time.Duration

	// Buffer is the per-subscription channel capacity. When a consumer
	// falls behind, new notifications are dropped rather than blocking
	// the read loop.
	Buffer int

	Logger *log.Logger
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		SubscribeTimeout:  30 * time.Second,
		Buffer:            256,
	}
}

// WSClientImpl implements LogsSubscriber using gorilla/websocket. The
// connection reconnects with exponential backoff and restores every live
// subscription after reconnect.
type WSClientImpl struct {
	endpoint string
	config   WSConfig
	logger   *log.Logger

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	mu      sync.Mutex
	subs    map[int64]*subscription  // live, keyed by upstream subscription ID
	pending map[uint64]chan int64    // awaiting confirmation, keyed by request ID

	done         chan struct{}
	wg           sync.WaitGroup
	reconnecting atomic.Bool
}

type subscription struct {
	filter  LogsFilter
	ch      chan LogNotification
	dropped atomic.Uint64
}

// NewWSClient connects to the endpoint and starts the read and ping loops.
func NewWSClient(ctx context.Context, endpoint string, config *WSConfig) (*WSClientImpl, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	c := &WSClientImpl{
		endpoint: endpoint,
		config:   cfg,
		logger:   logger,
		subs:     make(map[int64]*subscription),
		pending:  make(map[uint64]chan int64),
		done:     make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()

	return c, nil
}

var _ LogsSubscriber = (*WSClientImpl)(nil)

func (c *WSClientImpl) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	c.conn = conn
	return nil
}

// SubscribeLogs subscribes to logs matching the filter. The returned channel
// is closed when the client closes.
func (c *WSClientImpl) SubscribeLogs(ctx context.Context, filter LogsFilter) (<-chan LogNotification, error) {
	subID, err := c.sendSubscribe(ctx, filter)
	if err != nil {
		return nil, err
	}

	sub := &subscription{
		filter: filter,
		ch:     make(chan LogNotification, c.config.Buffer),
	}
	c.mu.Lock()
	c.subs[subID] = sub
	c.mu.Unlock()

	return sub.ch, nil
}

// sendSubscribe issues a logsSubscribe request and waits for the upstream
// subscription ID.
func (c *WSClientImpl) sendSubscribe(ctx context.Context, filter LogsFilter) (int64, error) {
	if c.closed.Load() {
		return 0, fmt.Errorf("client closed")
	}

	var filterParam interface{}
	if len(filter.Mentions) > 0 {
		filterParam = map[string]interface{}{"mentions": filter.Mentions}
	} else {
		filterParam = "all"
	}

	reqID := c.requestID.Add(1)
	req := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "logsSubscribe",
		Params: []interface{}{
			filterParam,
			map[string]string{"commitment": "confirmed"},
		},
	}

	confirmCh := make(chan int64, 1)
	c.mu.Lock()
	c.pending[reqID] = confirmCh
	c.mu.Unlock()

	abort := func() {
		c.mu.Lock()
		delete(c.pending, reqID)
		c.mu.Unlock()
	}

	c.connMu.Lock()
	if c.conn == nil {
		c.connMu.Unlock()
		abort()
		return 0, fmt.Errorf("not connected")
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	err := c.conn.WriteJSON(req)
	c.connMu.Unlock()
	if err != nil {
		abort()
		return 0, fmt.Errorf("write subscribe: %w", err)
	}

	select {
	case subID := <-confirmCh:
		return subID, nil
	case <-time.After(c.config.SubscribeTimeout):
		abort()
		return 0, fmt.Errorf("subscription timeout after %s", c.config.SubscribeTimeout)
	case <-c.done:
		return 0, fmt.Errorf("client closed")
	case <-ctx.Done():
		abort()
		return 0, ctx.Err()
	}
}

// Close closes the WebSocket connection and all subscription channels.
func (c *WSClientImpl) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.mu.Lock()
	for id, sub := range c.subs {
		close(sub.ch)
		delete(c.subs, id)
	}
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.mu.Unlock()

	c.wg.Wait()
	return nil
}

// readLoop reads messages and dispatches them, reconnecting on failure.
func (c *WSClientImpl) readLoop() {
	defer c.wg.Done()

	delay := c.config.ReconnectDelay

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}
			if !c.reconnecting.Swap(true) {
				go c.reconnect(delay)
			}
			delay *= 2
			if delay > c.config.MaxReconnectDelay {
				delay = c.config.MaxReconnectDelay
			}
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		delay = c.config.ReconnectDelay
		c.handleMessage(message)
	}
}

// reconnect re-establishes the connection and restores subscriptions.
func (c *WSClientImpl) reconnect(delay time.Duration) {
	defer c.reconnecting.Store(false)

	if c.closed.Load() {
		return
	}
	select {
	case <-c.done:
		return
	case <-time.After(delay):
	}

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := c.connect(ctx); err != nil {
		c.logger.Printf("reconnect failed: %v", err)
		return
	}
	c.logger.Printf("reconnected to %s", c.endpoint)

	c.mu.Lock()
	live := make(map[int64]*subscription, len(c.subs))
	for id, sub := range c.subs {
		live[id] = sub
	}
	c.mu.Unlock()

	for oldID, sub := range live {
		subCtx, subCancel := context.WithTimeout(context.Background(), 10*time.Second)
		newID, err := c.sendSubscribe(subCtx, sub.filter)
		subCancel()
		if err != nil {
			c.logger.Printf("resubscribe failed: %v", err)
			continue
		}
		c.mu.Lock()
		delete(c.subs, oldID)
		c.subs[newID] = sub
		c.mu.Unlock()
	}
}

func (c *WSClientImpl) handleMessage(message []byte) {
	var resp wsSubscribeResponse
	if err := json.Unmarshal(message, &resp); err == nil && resp.Result > 0 {
		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		if ok {
			delete(c.pending, resp.ID)
		}
		c.mu.Unlock()
		if ok {
			select {
			case ch <- resp.Result:
			default:
			}
		}
		return
	}

	var notif wsNotification
	if err := json.Unmarshal(message, &notif); err == nil && notif.Method == "logsNotification" {
		c.dispatch(&notif)
		return
	}

	var errResp struct {
		Error *rpcError `json:"error"`
	}
	if err := json.Unmarshal(message, &errResp); err == nil && errResp.Error != nil {
		c.logger.Printf("error response: %v", errResp.Error)
	}
}

// dispatch delivers a notification to its subscriber, dropping when the
// subscriber's buffer is full.
func (c *WSClientImpl) dispatch(notif *wsNotification) {
	if notif.Params == nil {
		return
	}

	n := LogNotification{
		Signature: notif.Params.Result.Value.Signature,
		Logs:      notif.Params.Result.Value.Logs,
		Err:       notif.Params.Result.Value.Err,
	}
	if notif.Params.Result.Context != nil {
		n.Slot = notif.Params.Result.Context.Slot
	}

	c.mu.Lock()
	sub, ok := c.subs[notif.Params.Subscription]
	c.mu.Unlock()
	if !ok {
		return
	}

	select {
	case sub.ch <- n:
	default:
		if d := sub.dropped.Add(1); d == 1 || d%1000 == 0 {
			c.logger.Printf("subscriber slow, dropped %d notifications", d)
		}
	}
}

// pingLoop keeps the connection alive with periodic ping frames.
func (c *WSClientImpl) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				c.conn.WriteMessage(websocket.PingMessage, nil)
			}
			c.connMu.Unlock()
		}
	}
}

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type wsSubscribeResponse struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Result  int64  `json:"result"`
}

type wsNotification struct {
	JSONRPC string                `json:"jsonrpc"`
	Method  string                `json:"method"`
	Params  *wsNotificationParams `json:"params"`
}

type wsNotificationParams struct {
	Subscription int64                `json:"subscription"`
	Result       wsNotificationResult `json:"result"`
}

type wsNotificationResult struct {
	Context *wsContext  `json:"context"`
	Value   wsLogsValue `json:"value"`
}

type wsContext struct {
	Slot uint64 `json:"slot"`
}

type wsLogsValue struct {
	Signature string      `json:"signature"`
	Logs      []string    `json:"logs"`
	Err       interface{} `json:"err"`
}
