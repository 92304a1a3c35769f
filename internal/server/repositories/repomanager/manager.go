// Package repomanager bundles the per-aggregate repositories behind a
// single handle so the rest of the server never cares whether it is
// talking to Postgres or to the in-memory fallback.
package repomanager

import (
	"context"
	"database/sql"

	"storefront/internal/server/repositories/products"
	"storefront/internal/server/repositories/users"
)

type RepositoryManager interface {
	// RunMigrations brings the backing store up to date: goose migrations
	// for Postgres, fixture seeding for the in-memory variant.
	RunMigrations(context.Context) error

	// Conn exposes the raw handle for health pings; nil for the in-memory
	// variant.
	Conn() *sql.DB

	Users() users.Repository
	Products() products.Repository
}
