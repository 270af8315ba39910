package history

import (
	"context"
	"io"
	"log"
	"sync"

	"solana-activity-gateway/internal/normalize"
	"solana-activity-gateway/internal/solana"
)

// Watcher follows live log notifications for a set of addresses and runs
// each finalized transaction through normalization. The payoff is a warm
// metadata cache: by the time a wallet asks for history, the tokens it
// touched have already been resolved.
type Watcher struct {
	subscriber solana.LogsSubscriber
	rpc        RPCClient
	engine     *normalize.Engine
	addresses  []string
	logger     *log.Logger

	// OnPrewarm, when set, is called after each successfully normalized
	// live transaction.
	OnPrewarm func(address string)
}

// WatcherOptions for creating a Watcher.
type WatcherOptions struct {
	Subscriber solana.LogsSubscriber
	RPC        RPCClient
	Engine     *normalize.Engine
	Addresses  []string
	Logger     *log.Logger
	OnPrewarm  func(address string)
}

// NewWatcher creates a Watcher.
func NewWatcher(opts WatcherOptions) *Watcher {
	w := &Watcher{
		subscriber: opts.Subscriber,
		rpc:        opts.RPC,
		engine:     opts.Engine,
		addresses:  opts.Addresses,
		logger:     opts.Logger,
		OnPrewarm:  opts.OnPrewarm,
	}
	if w.logger == nil {
		w.logger = log.New(io.Discard, "", 0)
	}
	return w
}

// Run subscribes to logs for every watched address and processes
// notifications until ctx is cancelled. One subscription per address so a
// notification is attributed to the wallet it mentions.
func (w *Watcher) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, addr := range w.addresses {
		ch, err := w.subscriber.SubscribeLogs(ctx, solana.LogsFilter{Mentions: []string{addr}})
		if err != nil {
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.consume(ctx, addr, ch)
		}()
	}
	wg.Wait()
	return nil
}

func (w *Watcher) consume(ctx context.Context, address string, ch <-chan solana.LogNotification) {
	for {
		select {
		case <-ctx.Done():
			return
		case note, ok := <-ch:
			if !ok {
				return
			}
			if note.Err != nil {
				continue
			}
			w.prewarm(ctx, address, note.Signature)
		}
	}
}

func (w *Watcher) prewarm(ctx context.Context, address, signature string) {
	raw, err := w.rpc.GetTransaction(ctx, signature)
	if err != nil {
		w.logger.Printf("watcher: fetch %s failed: %v", signature, err)
		return
	}
	if raw == nil {
		return
	}
	tx, err := w.engine.FromRPC(ctx, raw, address)
	if err != nil {
		w.logger.Printf("watcher: normalize %s failed: %v", signature, err)
		return
	}
	if tx == nil {
		return
	}
	w.logger.Printf("watcher: prewarmed %s for %s", signature, address)
	if w.OnPrewarm != nil {
		w.OnPrewarm(address)
	}
}
