package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"storefront/internal/common"
	"storefront/internal/server/models"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint
// violations.
const pgUniqueViolation = "23505"

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (id, email, password_hash, first_name, last_name, phone)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at
		 `

	created := *user
	if created.ID == "" {
		created.ID = uuid.NewString()
	}

	err := r.db.QueryRowContext(ctx, query,
		created.ID, created.Email, created.PasswordHash,
		created.FirstName, created.LastName, nullable(created.Phone)).
		Scan(&created.CreatedAt, &created.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, common.ErrEmailExists
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return &created, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query :=
		`SELECT id, email, password_hash, first_name, last_name, phone, created_at, updated_at
		 FROM users
		 WHERE id = $1
		 `

	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT id, email, password_hash, first_name, last_name, phone, created_at, updated_at
		 FROM users
		 WHERE LOWER(email) = LOWER($1)
		 `

	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	query :=
		`SELECT id, email, password_hash, first_name, last_name, phone, created_at, updated_at
		 FROM users
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2
		 `

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	result := []*models.User{}
	for rows.Next() {
		user := &models.User{}
		var phone sql.NullString
		err := rows.Scan(&user.ID, &user.Email, &user.PasswordHash,
			&user.FirstName, &user.LastName, &phone, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		user.Phone = phone.String
		result = append(result, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*models.User, error) {
	set := []string{}
	args := []any{}

	add := func(column string, value *string) {
		if value != nil {
			args = append(args, *value)
			set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
		}
	}
	add("first_name", upd.FirstName)
	add("last_name", upd.LastName)
	add("phone", upd.Phone)

	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	set = append(set, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	query := fmt.Sprintf(
		`UPDATE users SET %s
		 WHERE id = $%d
		 RETURNING id, email, password_hash, first_name, last_name, phone, created_at, updated_at`,
		strings.Join(set, ", "), len(args))

	return r.scanUser(r.db.QueryRowContext(ctx, query, args...))
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query :=
		`UPDATE users
		 SET password_hash = $1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, passwordHash, id)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	return nil
}

func (r *PostgresRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var phone sql.NullString

	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash,
		&user.FirstName, &user.LastName, &phone, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	user.Phone = phone.String
	return user, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
