package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/common"
	"storefront/internal/logging"
	"storefront/internal/server/kvcache"
	"storefront/internal/server/models"
	"storefront/internal/server/queue"
	"storefront/internal/server/repositories/products"
)

const productKeyPrefix = "product:"

// CatalogService serves product reads through the cache and keeps the
// cache coherent with writes: direct writes invalidate synchronously,
// queue-delivered inventory events invalidate only when they actually
// apply.
type CatalogService struct {
	products products.Repository
	cache    kvcache.Cache
	queue    queue.Queue
	log      logging.Logger
	cacheTTL time.Duration
}

func NewCatalogService(
	repo products.Repository,
	cache kvcache.Cache,
	q queue.Queue,
	log logging.Logger,
	cacheTTL time.Duration,
) *CatalogService {
	return &CatalogService{
		products: repo,
		cache:    cache,
		queue:    q,
		log:      log,
		cacheTTL: cacheTTL,
	}
}

// CreateInput carries the fields of a product creation request.
type CreateInput struct {
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	Price          float64 `json:"price"`
	Category       string  `json:"category"`
	InventoryCount int     `json:"inventory_count"`
}

func (in CreateInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", common.ErrValidation)
	}
	if in.Price < 0 {
		return fmt.Errorf("%w: price cannot be negative", common.ErrValidation)
	}
	if in.InventoryCount < 0 {
		return fmt.Errorf("%w: inventory count cannot be negative", common.ErrValidation)
	}
	return nil
}

// Get returns a product, serving from the cache when possible and
// filling the cache on a miss. Cache failures degrade to a plain store
// read.
func (s *CatalogService) Get(ctx context.Context, id string) (*models.Product, error) {
	key := productKeyPrefix + id

	if cached, err := s.cache.Get(ctx, key); err != nil {
		s.log.Warn(ctx, "cache read failed", "key", key, "error", err)
	} else if cached != nil {
		var p models.Product
		if err := json.Unmarshal(cached, &p); err == nil {
			return &p, nil
		}
		// Unreadable entry: drop it and fall through to the store.
		s.log.Warn(ctx, "dropping undecodable cache entry", "key", key)
		_ = s.cache.Delete(ctx, key)
	}

	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if body, err := json.Marshal(p); err == nil {
		if err := s.cache.Set(ctx, key, body, s.cacheTTL); err != nil {
			s.log.Warn(ctx, "cache fill failed", "key", key, "error", err)
		}
	}

	return p, nil
}

// List returns products, newest first. Listings bypass the cache.
func (s *CatalogService) List(ctx context.Context, limit, offset int) ([]*models.Product, error) {
	limit, offset = clampPage(limit, offset)
	return s.products.List(ctx, limit, offset)
}

// Search matches query against product names and descriptions.
func (s *CatalogService) Search(ctx context.Context, query string) ([]*models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", common.ErrValidation)
	}
	return s.products.Search(ctx, query)
}

// InventoryInfo is the stock view of a product.
type InventoryInfo struct {
	ProductID      string    `json:"product_id"`
	InventoryCount int       `json:"inventory_count"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Inventory returns the stock view of a product, served through the
// same cached snapshot as Get.
func (s *CatalogService) Inventory(ctx context.Context, id string) (*InventoryInfo, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &InventoryInfo{
		ProductID:      p.ID,
		InventoryCount: p.InventoryCount,
		UpdatedAt:      p.UpdatedAt,
	}, nil
}

// Create adds a product to the catalog.
func (s *CatalogService) Create(ctx context.Context, in CreateInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	return s.products.Create(ctx, &models.Product{
		Name:           strings.TrimSpace(in.Name),
		Description:    strings.TrimSpace(in.Description),
		Price:          in.Price,
		Category:       strings.TrimSpace(in.Category),
		InventoryCount: in.InventoryCount,
	})
}

// Update applies the non-nil fields and synchronously invalidates the
// cached snapshot so the next read sees the new state. An inventory
// change is also announced on the events exchange.
func (s *CatalogService) Update(ctx context.Context, id string, upd products.Update) (*models.Product, error) {
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return nil, fmt.Errorf("%w: name cannot be blank", common.ErrValidation)
	}
	if upd.Price != nil && *upd.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", common.ErrValidation)
	}
	if upd.InventoryCount != nil && *upd.InventoryCount < 0 {
		return nil, fmt.Errorf("%w: inventory count cannot be negative", common.ErrValidation)
	}

	var oldCount int
	announceInventory := upd.InventoryCount != nil
	if announceInventory {
		before, err := s.products.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		oldCount = before.InventoryCount
	}

	updated, err := s.products.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)

	if announceInventory && oldCount != updated.InventoryCount {
		s.publishInventoryUpdate(ctx, updated, oldCount)
	}

	return updated, nil
}

// Delete removes a product and its cached snapshot.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// ApplyInventoryEvent applies a queue-delivered inventory update. Stale
// events are skipped, and the cached snapshot is invalidated only when
// the store actually changed. Events for unknown products are dropped.
func (s *CatalogService) ApplyInventoryEvent(ctx context.Context, upd models.InventoryUpdate) (bool, error) {
	applied, err := s.products.SetInventory(ctx, upd.ProductID, upd.NewCount, upd.Timestamp)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.log.Warn(ctx, "inventory event for unknown product dropped", "product_id", upd.ProductID)
			return false, nil
		}
		return false, err
	}
	if applied {
		s.invalidate(ctx, upd.ProductID)
	}
	return applied, nil
}

func (s *CatalogService) invalidate(ctx context.Context, id string) {
	key := productKeyPrefix + id
	if err := s.cache.Delete(ctx, key); err != nil {
		s.log.Warn(ctx, "cache invalidation failed", "key", key, "error", err)
	}
}

func (s *CatalogService) publishInventoryUpdate(ctx context.Context, p *models.Product, oldCount int) {
	data, err := json.Marshal(models.InventoryUpdate{
		ProductID: p.ID,
		OldCount:  oldCount,
		NewCount:  p.InventoryCount,
	})
	if err != nil {
		s.log.Error(ctx, "marshaling inventory payload", "product_id", p.ID, "error", err)
		return
	}
	publishEvent(ctx, s.queue, s.log, models.EventInventoryUpdate, data)
}
