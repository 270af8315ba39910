package solana

import "context"

// LogsSubscriber defines the Solana WebSocket log subscription interface.
type LogsSubscriber interface {
	// SubscribeLogs subscribes to logs matching the filter.
	SubscribeLogs(ctx context.Context, filter LogsFilter) (<-chan LogNotification, error)

	// Close closes the WebSocket connection.
	Close() error
}

// LogsFilter selects which logs a subscription receives.
type LogsFilter struct {
	// Mentions filters logs mentioning any of these addresses.
	// Empty subscribes to all logs.
	Mentions []string
}

// LogNotification is one logsNotification message.
type LogNotification struct {
	Signature string
	Slot      uint64
	Logs      []string
	Err       interface{}
}
