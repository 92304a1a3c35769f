package products

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront/internal/common"
	"storefront/internal/server/models"
)

// MemoryRepository is the degraded-mode substitute for the Postgres
// repository. Safe for concurrent use; records do not survive a restart.
type MemoryRepository struct {
	mu   sync.RWMutex
	byID map[string]*models.Product
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]*models.Product)}
}

func (r *MemoryRepository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := *product
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	r.byID[created.ID] = &created

	out := created
	return &out, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}

	out := *p
	return &out, nil
}

func (r *MemoryRepository) List(ctx context.Context, limit, offset int) ([]*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return pageProducts(r.sortedLocked(), limit, offset), nil
}

func (r *MemoryRepository) Search(ctx context.Context, query string) ([]*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(query)
	result := []*models.Product{}
	for _, p := range r.sortedLocked() {
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q) {
			result = append(result, p)
		}
	}

	return result, nil
}

func (r *MemoryRepository) Update(ctx context.Context, id string, upd Update) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}

	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.Price != nil {
		p.Price = *upd.Price
	}
	if upd.Category != nil {
		p.Category = *upd.Category
	}
	if upd.InventoryCount != nil {
		p.InventoryCount = *upd.InventoryCount
	}
	p.UpdatedAt = time.Now().UTC()

	out := *p
	return &out, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return common.ErrNotFound
	}

	delete(r.byID, id)
	return nil
}

func (r *MemoryRepository) SetInventory(ctx context.Context, id string, count int, eventTime time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return false, common.ErrNotFound
	}

	if eventTime.Before(p.UpdatedAt) {
		// stale event, drop
		return false, nil
	}

	p.InventoryCount = count
	p.UpdatedAt = eventTime
	return true, nil
}

func (r *MemoryRepository) sortedLocked() []*models.Product {
	all := make([]*models.Product, 0, len(r.byID))
	for _, p := range r.byID {
		out := *p
		all = append(all, &out)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	return all
}

func pageProducts(all []*models.Product, limit, offset int) []*models.Product {
	if offset >= len(all) {
		return []*models.Product{}
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end]
}
