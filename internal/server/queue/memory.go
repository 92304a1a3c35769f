package queue

import (
	"context"
	"errors"
	"sync"
)

// ErrQueueClosed is returned by Publish once Close has run.
var ErrQueueClosed = errors.New("queue is closed")

type memoryMessage struct {
	RoutingKey string
	Body       []byte
}

// MemoryQueue is a channel-backed Queue for tests: everything published
// is both recorded and delivered to the consumer.
type MemoryQueue struct {
	mu        sync.Mutex
	published []memoryMessage
	ch        chan memoryMessage
	closed    bool
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{ch: make(chan memoryMessage, 64)}
}

func (q *MemoryQueue) Publish(ctx context.Context, routingKey string, body []byte) error {
	stored := make([]byte, len(body))
	copy(stored, body)
	msg := memoryMessage{RoutingKey: routingKey, Body: stored}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	q.published = append(q.published, msg)

	// The lock also serializes against Close, so the send can never hit
	// a closed channel. Consume drains without the lock.
	select {
	case q.ch <- msg:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (q *MemoryQueue) Consume(ctx context.Context, handler Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-q.ch:
			if !ok {
				return nil
			}
			_ = handler(ctx, msg.Body)
		}
	}
}

func (q *MemoryQueue) Ping(ctx context.Context) error {
	return nil
}

func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	return nil
}

// Published returns a copy of every message published so far, in order.
func (q *MemoryQueue) Published() []memoryMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]memoryMessage, len(q.published))
	copy(out, q.published)
	return out
}
