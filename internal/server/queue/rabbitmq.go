package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"storefront/internal/logging"
)

// RabbitQueue is the broker-backed Queue. Every instance owns one AMQP
// connection; channels are opened per operation because amqp channels
// are not safe for concurrent use.
type RabbitQueue struct {
	conn     *amqp.Connection
	exchange string
	queue    string
	bindKeys []string
	log      logging.Logger

	mu sync.Mutex
}

// NewRabbitQueue dials the broker and declares the topology: a durable
// topic exchange, a durable queue, and one binding per bindKey.
func NewRabbitQueue(url, exchange, queueName string, bindKeys []string, dialTimeout time.Duration, log logging.Logger) (*RabbitQueue, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
	if err != nil {
		return nil, fmt.Errorf("dialing broker: %w", err)
	}

	q := &RabbitQueue{
		conn:     conn,
		exchange: exchange,
		queue:    queueName,
		bindKeys: bindKeys,
		log:      log,
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}
	defer ch.Close()

	if err := q.ensureTopology(ch); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return q, nil
}

func (q *RabbitQueue) ensureTopology(ch *amqp.Channel) error {
	err := ch.ExchangeDeclare(
		q.exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declaring exchange %q: %w", q.exchange, err)
	}

	declared, err := ch.QueueDeclare(
		q.queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declaring queue %q: %w", q.queue, err)
	}

	for _, key := range q.bindKeys {
		if err := ch.QueueBind(declared.Name, key, q.exchange, false, nil); err != nil {
			return fmt.Errorf("binding %q to %q with key %q: %w", declared.Name, q.exchange, key, err)
		}
	}

	return nil
}

func (q *RabbitQueue) Publish(ctx context.Context, routingKey string, body []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.conn == nil || q.conn.IsClosed() {
		return fmt.Errorf("broker connection is not available")
	}

	ch, err := q.conn.Channel()
	if err != nil {
		return fmt.Errorf("opening channel: %w", err)
	}
	defer ch.Close()

	err = ch.PublishWithContext(
		ctx,
		q.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("publishing %q: %w", routingKey, err)
	}

	return nil
}

func (q *RabbitQueue) Consume(ctx context.Context, handler Handler) error {
	ch, err := q.conn.Channel()
	if err != nil {
		return fmt.Errorf("opening channel: %w", err)
	}
	defer ch.Close()

	// One unacked message at a time keeps application ordered.
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("setting qos: %w", err)
	}

	deliveries, err := ch.ConsumeWithContext(
		ctx,
		q.queue,
		"",    // consumer tag, auto-generated
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("registering consumer on %q: %w", q.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			if err := handler(ctx, d.Body); err != nil {
				q.log.Error(ctx, "message handling failed", "routing_key", d.RoutingKey, "error", err)
			}
			// Ack unconditionally: redelivering a failed message would
			// just fail it again.
			if err := d.Ack(false); err != nil {
				q.log.Error(ctx, "ack failed", "error", err)
			}
		}
	}
}

func (q *RabbitQueue) Ping(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.conn == nil || q.conn.IsClosed() {
		return fmt.Errorf("broker connection is closed")
	}

	ch, err := q.conn.Channel()
	if err != nil {
		return fmt.Errorf("opening channel: %w", err)
	}
	return ch.Close()
}

func (q *RabbitQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.conn == nil || q.conn.IsClosed() {
		return nil
	}
	return q.conn.Close()
}
