// Package products provides storage for catalog records, with durable
// (Postgres) and in-memory implementations behind one interface.
package products

import (
	"context"
	"time"

	"storefront/internal/server/models"
)

// Update carries the optional fields of a product update; nil means
// "leave unchanged".
type Update struct {
	Name           *string
	Description    *string
	Price          *float64
	Category       *string
	InventoryCount *int
}

type Repository interface {
	// Create persists a new product record.
	Create(ctx context.Context, product *models.Product) (*models.Product, error)

	// GetByID returns the product or common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.Product, error)

	// List returns products ordered by creation time, newest first.
	List(ctx context.Context, limit, offset int) ([]*models.Product, error)

	// Search matches query against name and description,
	// case-insensitively.
	Search(ctx context.Context, query string) ([]*models.Product, error)

	// Update applies the non-nil fields, bumps updated_at, and returns the
	// updated record, or common.ErrNotFound.
	Update(ctx context.Context, id string, upd Update) (*models.Product, error)

	// Delete removes the product or returns common.ErrNotFound.
	Delete(ctx context.Context, id string) error

	// SetInventory applies an externally reported inventory count, but
	// only when eventTime is not older than the record's last
	// modification; stale writes return applied=false with no state
	// change. A successful write stamps updated_at with eventTime, which
	// makes re-applying the same event observationally a no-op.
	SetInventory(ctx context.Context, id string, count int, eventTime time.Time) (applied bool, err error)
}
