package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-activity-gateway/internal/normalize"
	"solana-activity-gateway/internal/solana"
)

type fakeSubscriber struct {
	channels map[string]chan solana.LogNotification
	filters  []solana.LogsFilter
}

func newFakeSubscriber(addresses ...string) *fakeSubscriber {
	s := &fakeSubscriber{channels: make(map[string]chan solana.LogNotification)}
	for _, addr := range addresses {
		s.channels[addr] = make(chan solana.LogNotification, 16)
	}
	return s
}

func (s *fakeSubscriber) SubscribeLogs(_ context.Context, filter solana.LogsFilter) (<-chan solana.LogNotification, error) {
	s.filters = append(s.filters, filter)
	return s.channels[filter.Mentions[0]], nil
}

func (s *fakeSubscriber) Close() error { return nil }

func TestWatcher_PrewarmsOnNotification(t *testing.T) {
	sub := newFakeSubscriber(testWallet)
	rpc := &fakeRPC{
		txs: map[string]*solana.RawTransaction{
			"liveSig": transferTx(t, "liveSig", testWallet),
		},
	}
	engine := normalize.NewEngine(normalize.EngineOptions{Resolver: stubResolver{}})

	prewarmed := make(chan string, 1)
	w := NewWatcher(WatcherOptions{
		Subscriber: sub,
		RPC:        rpc,
		Engine:     engine,
		Addresses:  []string{testWallet},
		OnPrewarm:  func(addr string) { prewarmed <- addr },
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()

	sub.channels[testWallet] <- solana.LogNotification{Signature: "liveSig", Slot: 1000}

	select {
	case addr := <-prewarmed:
		assert.Equal(t, testWallet, addr)
	case <-time.After(time.Second):
		t.Fatal("notification was not processed")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop on cancel")
	}

	require.Len(t, sub.filters, 1)
	assert.Equal(t, []string{testWallet}, sub.filters[0].Mentions)
	assert.Equal(t, 1, rpc.getCalls)
}

func TestWatcher_SkipsFailedTransactions(t *testing.T) {
	sub := newFakeSubscriber(testWallet)
	rpc := &fakeRPC{}
	engine := normalize.NewEngine(normalize.EngineOptions{Resolver: stubResolver{}})

	w := NewWatcher(WatcherOptions{
		Subscriber: sub,
		RPC:        rpc,
		Engine:     engine,
		Addresses:  []string{testWallet},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	sub.channels[testWallet] <- solana.LogNotification{Signature: "failedSig", Err: "InstructionError"}
	sub.channels[testWallet] <- solana.LogNotification{Signature: "okSig"}

	assert.Eventually(t, func() bool {
		rpc.mu.Lock()
		defer rpc.mu.Unlock()
		return rpc.getCalls == 1
	}, time.Second, 10*time.Millisecond, "only the successful notification is fetched")
}
