package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"storefront/internal/common"
	"storefront/internal/dbx"
	"storefront/internal/server/models"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const productColumns = "id, name, description, price, category, inventory_count, created_at, updated_at"

func (r *PostgresRepository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {

	query :=
		`INSERT INTO products (id, name, description, price, category, inventory_count)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at
		 `

	created := *product
	if created.ID == "" {
		created.ID = uuid.NewString()
	}

	err := r.db.QueryRowContext(ctx, query,
		created.ID, created.Name, created.Description,
		created.Price, created.Category, created.InventoryCount).
		Scan(&created.CreatedAt, &created.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return &created, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)
	return scanProduct(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]*models.Product, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM products
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`, productColumns)

	return r.queryProducts(ctx, query, limit, offset)
}

func (r *PostgresRepository) Search(ctx context.Context, query string) ([]*models.Product, error) {
	q := fmt.Sprintf(
		`SELECT %s FROM products
		 WHERE name ILIKE $1 OR description ILIKE $1
		 ORDER BY created_at DESC`, productColumns)

	return r.queryProducts(ctx, q, "%"+query+"%")
}

func (r *PostgresRepository) Update(ctx context.Context, id string, upd Update) (*models.Product, error) {
	set := []string{}
	args := []any{}

	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.Price != nil {
		add("price", *upd.Price)
	}
	if upd.Category != nil {
		add("category", *upd.Category)
	}
	if upd.InventoryCount != nil {
		add("inventory_count", *upd.InventoryCount)
	}

	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	set = append(set, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	query := fmt.Sprintf(
		`UPDATE products SET %s
		 WHERE id = $%d
		 RETURNING %s`,
		strings.Join(set, ", "), len(args), productColumns)

	return scanProduct(r.db.QueryRowContext(ctx, query, args...))
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
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

// SetInventory runs the staleness check and the write in one transaction
// so that a concurrent direct update cannot slip between them.
func (r *PostgresRepository) SetInventory(ctx context.Context, id string, count int, eventTime time.Time) (bool, error) {
	applied := false

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var updatedAt time.Time
		err := tx.QueryRowContext(ctx,
			`SELECT updated_at FROM products WHERE id = $1 FOR UPDATE`, id).
			Scan(&updatedAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.ErrNotFound
			}
			return fmt.Errorf("error performing sql request: %w", err)
		}

		if eventTime.Before(updatedAt) {
			// stale event, drop
			return nil
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE products SET inventory_count = $1, updated_at = $2 WHERE id = $3`,
			count, eventTime, id)
		if err != nil {
			return fmt.Errorf("error performing sql request: %w", err)
		}

		applied = true
		return nil
	})

	return applied, err
}

func (r *PostgresRepository) queryProducts(ctx context.Context, query string, args ...any) ([]*models.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	result := []*models.Product{}
	for rows.Next() {
		p := &models.Product{}
		var description sql.NullString
		err := rows.Scan(&p.ID, &p.Name, &description, &p.Price,
			&p.Category, &p.InventoryCount, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		p.Description = description.String
		result = append(result, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

func scanProduct(row *sql.Row) (*models.Product, error) {
	p := &models.Product{}
	var description sql.NullString

	err := row.Scan(&p.ID, &p.Name, &description, &p.Price,
		&p.Category, &p.InventoryCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	p.Description = description.String
	return p, nil
}
