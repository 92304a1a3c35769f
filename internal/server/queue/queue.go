// Package queue abstracts the message broker used for event publishing
// and inventory-event consumption, with RabbitMQ, in-memory and inert
// implementations.
package queue

import "context"

// Handler processes one raw message body. A non-nil error marks the
// message as failed but never triggers redelivery; poisoned messages
// are dropped after the failure is logged.
type Handler func(ctx context.Context, body []byte) error

type Queue interface {
	// Publish sends body to the exchange under routingKey. Delivery is
	// best effort from the caller's point of view; a degraded queue
	// accepts and discards messages without error.
	Publish(ctx context.Context, routingKey string, body []byte) error

	// Consume blocks, feeding queued messages to handler one at a time,
	// until ctx is cancelled or the broker connection is lost.
	Consume(ctx context.Context, handler Handler) error

	// Ping checks broker liveness.
	Ping(ctx context.Context) error

	Close() error
}
