package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"storefront/internal/server/auth"
	"storefront/internal/server/models"
	"storefront/internal/server/repositories/products"
	"storefront/internal/server/repositories/users"
)

// fixtureUsers are the accounts seeded into the degraded store, all with
// password "password123". Hashed at the minimum cost: these records exist
// only inside a single degraded process, not in durable storage.
var fixtureUsers = []models.User{
	{Email: "john.doe@example.com", FirstName: "John", LastName: "Doe", Phone: "+1-555-0101"},
	{Email: "jane.smith@example.com", FirstName: "Jane", LastName: "Smith", Phone: "+1-555-0102"},
	{Email: "bob.wilson@example.com", FirstName: "Bob", LastName: "Wilson", Phone: "+1-555-0103"},
	{Email: "alice.brown@example.com", FirstName: "Alice", LastName: "Brown"},
	{Email: "charlie.davis@example.com", FirstName: "Charlie", LastName: "Davis"},
}

const fixturePassword = "password123"

var fixtureProducts = []models.Product{
	{Name: "Laptop", Description: "High-performance laptop", Price: 999.99, Category: "Electronics", InventoryCount: 50},
	{Name: "Mouse", Description: "Wireless mouse", Price: 29.99, Category: "Electronics", InventoryCount: 200},
	{Name: "Keyboard", Description: "Mechanical keyboard", Price: 79.99, Category: "Electronics", InventoryCount: 150},
	{Name: "Monitor", Description: "27-inch 4K monitor", Price: 399.99, Category: "Electronics", InventoryCount: 75},
	{Name: "Headphones", Description: "Noise-canceling headphones", Price: 199.99, Category: "Electronics", InventoryCount: 100},
	{Name: "Desk Chair", Description: "Ergonomic office chair", Price: 299.99, Category: "Furniture", InventoryCount: 30},
	{Name: "Standing Desk", Description: "Adjustable height desk", Price: 499.99, Category: "Furniture", InventoryCount: 20},
	{Name: "Notebook", Description: "Spiral notebook pack", Price: 9.99, Category: "Stationery", InventoryCount: 500},
	{Name: "Pen Set", Description: "Premium pen set", Price: 19.99, Category: "Stationery", InventoryCount: 300},
	{Name: "Backpack", Description: "Laptop backpack", Price: 59.99, Category: "Accessories", InventoryCount: 120},
}

// MemoryRepositoryManager is the degraded-mode store selected when
// Postgres is unreachable at startup.
type MemoryRepositoryManager struct {
	users    *users.MemoryRepository
	products *products.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		users:    users.NewMemoryRepository(),
		products: products.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) Conn() *sql.DB {
	return nil
}

func (m *MemoryRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *MemoryRepositoryManager) Products() products.Repository {
	return m.products
}

// RunMigrations seeds the fixture records, mirroring what migrations do
// for the durable store.
func (m *MemoryRepositoryManager) RunMigrations(ctx context.Context) error {
	hash, err := auth.HashPassword(fixturePassword, bcrypt.MinCost)
	if err != nil {
		return fmt.Errorf("fixture hash error: %w", err)
	}

	for _, u := range fixtureUsers {
		u.PasswordHash = hash
		if _, err := m.users.Create(ctx, &u); err != nil {
			return fmt.Errorf("fixture user %s: %w", u.Email, err)
		}
	}

	for _, p := range fixtureProducts {
		if _, err := m.products.Create(ctx, &p); err != nil {
			return fmt.Errorf("fixture product %s: %w", p.Name, err)
		}
	}

	return nil
}
