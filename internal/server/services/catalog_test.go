package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/common"
	"storefront/internal/logging"
	"storefront/internal/server/kvcache"
	"storefront/internal/server/models"
	"storefront/internal/server/queue"
	"storefront/internal/server/repositories/products"
)

func newCatalogService(t *testing.T) (*CatalogService, *products.MemoryRepository, *kvcache.MemoryCache, *queue.MemoryQueue) {
	t.Helper()
	repo := products.NewMemoryRepository()
	cache := kvcache.NewMemoryCache()
	q := queue.NewMemoryQueue()
	svc := NewCatalogService(repo, cache, q, logging.Discard(), 300*time.Second)
	return svc, repo, cache, q
}

func createProduct(t *testing.T, svc *CatalogService, name string, count int) *models.Product {
	t.Helper()
	p, err := svc.Create(context.Background(), CreateInput{
		Name:           name,
		Description:    "test product",
		Price:          999.99,
		Category:       "Electronics",
		InventoryCount: count,
	})
	require.NoError(t, err)
	return p
}

func TestCatalogService_GetFillsAndServesCache(t *testing.T) {
	ctx := context.Background()
	svc, repo, cache, _ := newCatalogService(t)

	p := createProduct(t, svc, "Laptop", 50)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Laptop", got.Name)

	cached, err := cache.Get(ctx, "product:"+p.ID)
	require.NoError(t, err)
	assert.NotNil(t, cached, "read miss must fill the cache")

	// Remove the record from the store; the cached snapshot still serves.
	require.NoError(t, repo.Delete(ctx, p.ID))
	got, err = svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestCatalogService_GetMissReachesStore(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newCatalogService(t)

	_, err := svc.Get(ctx, "missing-id")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCatalogService_UpdateInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	svc, _, cache, _ := newCatalogService(t)

	p := createProduct(t, svc, "Laptop", 50)
	_, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)

	price := 899.99
	_, err = svc.Update(ctx, p.ID, products.Update{Price: &price})
	require.NoError(t, err)

	cached, err := cache.Get(ctx, "product:"+p.ID)
	require.NoError(t, err)
	assert.Nil(t, cached, "direct write must invalidate synchronously")

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 899.99, got.Price)
}

func TestCatalogService_UpdatePublishesInventoryChange(t *testing.T) {
	ctx := context.Background()
	svc, _, _, q := newCatalogService(t)

	p := createProduct(t, svc, "Laptop", 50)

	count := 45
	_, err := svc.Update(ctx, p.ID, products.Update{InventoryCount: &count})
	require.NoError(t, err)

	published := q.Published()
	require.Len(t, published, 1)
	assert.Equal(t, models.EventInventoryUpdate, published[0].RoutingKey)

	// A write that leaves the count unchanged publishes nothing.
	_, err = svc.Update(ctx, p.ID, products.Update{InventoryCount: &count})
	require.NoError(t, err)
	assert.Len(t, q.Published(), 1)
}

func TestCatalogService_DeleteInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newCatalogService(t)

	p := createProduct(t, svc, "Laptop", 50)
	_, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, p.ID))

	_, err = svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, common.ErrNotFound, "a cached snapshot must not outlive the record")
}

func TestCatalogService_ApplyInventoryEvent(t *testing.T) {
	ctx := context.Background()
	svc, _, cache, _ := newCatalogService(t)

	p := createProduct(t, svc, "Laptop", 50)
	_, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)

	applied, err := svc.ApplyInventoryEvent(ctx, models.InventoryUpdate{
		ProductID: p.ID,
		OldCount:  50,
		NewCount:  40,
		Timestamp: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.True(t, applied)

	cached, err := cache.Get(ctx, "product:"+p.ID)
	require.NoError(t, err)
	assert.Nil(t, cached, "an applied event must invalidate the snapshot")

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, got.InventoryCount)
}

func TestCatalogService_StaleEventSkipped(t *testing.T) {
	ctx := context.Background()
	svc, _, cache, _ := newCatalogService(t)

	p := createProduct(t, svc, "Laptop", 50)

	// A direct write lands first.
	count := 45
	_, err := svc.Update(ctx, p.ID, products.Update{InventoryCount: &count})
	require.NoError(t, err)

	_, err = svc.Get(ctx, p.ID)
	require.NoError(t, err)

	// Then an event that was emitted before the write arrives late.
	applied, err := svc.ApplyInventoryEvent(ctx, models.InventoryUpdate{
		ProductID: p.ID,
		OldCount:  50,
		NewCount:  40,
		Timestamp: time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)
	assert.False(t, applied)

	cached, err := cache.Get(ctx, "product:"+p.ID)
	require.NoError(t, err)
	assert.NotNil(t, cached, "a skipped event must not invalidate the snapshot")

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 45, got.InventoryCount, "the newer direct write wins")
}

func TestCatalogService_EventForUnknownProductDropped(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newCatalogService(t)

	applied, err := svc.ApplyInventoryEvent(ctx, models.InventoryUpdate{
		ProductID: "missing-id",
		NewCount:  10,
		Timestamp: time.Now(),
	})
	require.NoError(t, err, "events for unknown products are dropped, not failed")
	assert.False(t, applied)
}

func TestCatalogService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newCatalogService(t)

	_, err := svc.Create(ctx, CreateInput{Name: " ", Price: 1})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.Create(ctx, CreateInput{Name: "X", Price: -1})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.Create(ctx, CreateInput{Name: "X", Price: 1, InventoryCount: -5})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestCatalogService_Search(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newCatalogService(t)

	createProduct(t, svc, "Laptop", 50)
	createProduct(t, svc, "Coffee Maker", 30)

	_, err := svc.Search(ctx, "  ")
	assert.ErrorIs(t, err, common.ErrValidation)

	found, err := svc.Search(ctx, "laptop")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Laptop", found[0].Name)
}
