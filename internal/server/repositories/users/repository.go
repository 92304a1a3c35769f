// Package users provides storage for account records, with durable
// (Postgres) and in-memory implementations behind one interface.
package users

import (
	"context"

	"storefront/internal/server/models"
)

// ProfileUpdate carries the optional profile fields of an update; nil
// means "leave unchanged".
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Phone     *string
}

type Repository interface {
	// Create persists a new user. Returns common.ErrEmailExists when the
	// email is already registered (case-insensitive).
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByID returns the user or common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// GetByEmail returns the user (including the password hash) or
	// common.ErrNotFound. Matching is case-insensitive.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// List returns users ordered by creation time, newest first.
	List(ctx context.Context, limit, offset int) ([]*models.User, error)

	// UpdateProfile applies the non-nil fields and returns the updated
	// record, or common.ErrNotFound.
	UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*models.User, error)

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}
