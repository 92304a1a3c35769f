package queue

import "context"

// Inert is the degraded-mode Queue: publishes are discarded and Consume
// parks until the context is cancelled. Inventory events produced while
// the broker is down are lost, which is the documented trade-off of
// degraded mode.
type Inert struct{}

func (Inert) Publish(ctx context.Context, routingKey string, body []byte) error {
	return nil
}

func (Inert) Consume(ctx context.Context, handler Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (Inert) Ping(ctx context.Context) error {
	return nil
}

func (Inert) Close() error {
	return nil
}
