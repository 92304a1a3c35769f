package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storefront/internal/common"
	"storefront/internal/logging"
	"storefront/internal/server/models"
)

// InventoryApplier applies one inventory update to the catalog. It
// reports whether the update actually took effect; stale events are
// accepted but not applied.
type InventoryApplier interface {
	ApplyInventoryEvent(ctx context.Context, upd models.InventoryUpdate) (bool, error)
}

// Consumer drains inventory events from the queue and feeds them to an
// applier. Malformed messages are logged and dropped so a poisoned
// message can never wedge the queue.
type Consumer struct {
	queue   Queue
	applier InventoryApplier
	log     logging.Logger
}

func NewConsumer(q Queue, applier InventoryApplier, log logging.Logger) *Consumer {
	return &Consumer{queue: q, applier: applier, log: log}
}

// Run blocks consuming messages until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.queue.Consume(ctx, c.Handle)
}

// Handle processes one raw message body. It returns a non-nil error
// only for applier failures; malformed bodies and stale or foreign
// events are dropped with a log line.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
	upd, err := decodeInventoryEvent(body)
	if err != nil {
		if errors.Is(err, errForeignEvent) {
			c.log.Debug(ctx, "ignoring event", "reason", "unhandled event type")
			return nil
		}
		c.log.Warn(ctx, "dropping malformed inventory event", "error", err)
		return nil
	}

	applied, err := c.applier.ApplyInventoryEvent(ctx, upd)
	if err != nil {
		return fmt.Errorf("applying inventory event for product %s: %w", upd.ProductID, err)
	}
	if !applied {
		c.log.Info(ctx, "stale inventory event skipped",
			"product_id", upd.ProductID, "new_count", upd.NewCount, "event_time", upd.Timestamp)
		return nil
	}

	c.log.Info(ctx, "inventory event applied",
		"product_id", upd.ProductID, "old_count", upd.OldCount, "new_count", upd.NewCount)
	return nil
}

var errForeignEvent = errors.New("event type not handled")

func decodeInventoryEvent(body []byte) (models.InventoryUpdate, error) {
	var env models.Event
	if err := json.Unmarshal(body, &env); err != nil {
		return models.InventoryUpdate{}, fmt.Errorf("%w: %v", common.ErrMalformedEvent, err)
	}
	if env.Event != models.EventInventoryUpdate {
		return models.InventoryUpdate{}, errForeignEvent
	}

	var upd models.InventoryUpdate
	if err := json.Unmarshal(env.Data, &upd); err != nil {
		return models.InventoryUpdate{}, fmt.Errorf("%w: bad data payload: %v", common.ErrMalformedEvent, err)
	}
	if upd.ProductID == "" {
		return models.InventoryUpdate{}, fmt.Errorf("%w: missing product_id", common.ErrMalformedEvent)
	}
	if upd.NewCount < 0 {
		return models.InventoryUpdate{}, fmt.Errorf("%w: negative new_count %d", common.ErrMalformedEvent, upd.NewCount)
	}
	if env.Timestamp.IsZero() {
		return models.InventoryUpdate{}, fmt.Errorf("%w: missing timestamp", common.ErrMalformedEvent)
	}

	upd.Timestamp = env.Timestamp
	return upd, nil
}
