package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/logging"
	"storefront/internal/server/kvcache"
	"storefront/internal/server/models"
	"storefront/internal/server/providers"
	"storefront/internal/server/queue"
	"storefront/internal/server/repositories/repomanager"
	"storefront/internal/server/services"
)

// newTestRouter builds the full router on memory-backed providers.
func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	store := repomanager.NewMemoryRepositoryManager()
	require.NoError(t, store.RunMigrations(context.Background()))

	cache := kvcache.NewMemoryCache()
	q := queue.NewMemoryQueue()
	log := logging.Discard()

	authSvc := services.NewAuthService(
		store.Users(), cache, q, log,
		[]byte("test-secret"), time.Hour, bcrypt.MinCost, true,
	)
	catalog := services.NewCatalogService(store.Products(), cache, q, log, 300*time.Second)
	readiness := services.NewReadinessService(&providers.Providers{
		Store: store,
		Cache: cache,
		Queue: q,
		Modes: providers.ModeReport{
			Store: providers.ModeReal,
			Cache: providers.ModeReal,
			Queue: providers.ModeReal,
		},
	}, time.Second)

	return NewRouter(authSvc, catalog, readiness, log)
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func register(t *testing.T, r *gin.Engine, email string) models.User {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/users/register", "", gin.H{
		"email":      email,
		"password":   "password123",
		"first_name": "Test",
		"last_name":  "User",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody[models.User](t, w)
}

func login(t *testing.T, r *gin.Engine, email string) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/users/login", "", gin.H{
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decodeBody[models.Token](t, w).AccessToken
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[errorBody](t, w).Error.Code
}

func TestRegisterLoginLogoutFlow(t *testing.T) {
	r := newTestRouter(t)

	user := register(t, r, "alice@example.com")
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)

	token := login(t, r, "alice@example.com")

	w := doJSON(t, r, http.MethodGet, "/api/users/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, user.ID, decodeBody[models.User](t, w).ID)

	w = doJSON(t, r, http.MethodPost, "/api/users/logout", token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "true", w.Header().Get("X-Revocation-Durable"))

	w = doJSON(t, r, http.MethodGet, "/api/users/profile", token, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "token_revoked", errorCode(t, w))
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	r := newTestRouter(t)

	register(t, r, "alice@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/users/register", "", gin.H{
		"email":      "alice@example.com",
		"password":   "password123",
		"first_name": "Other",
		"last_name":  "User",
	})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "email_exists", errorCode(t, w))
}

func TestLoginBadCredentials(t *testing.T) {
	r := newTestRouter(t)
	register(t, r, "alice@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/users/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_credentials", errorCode(t, w))
}

func TestAuthMiddlewareRejections(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/users/profile", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "missing_token", errorCode(t, w))

	w = doJSON(t, r, http.MethodGet, "/api/users/profile", "garbage.token.value", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "token_malformed", errorCode(t, w))

	req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token_malformed", errorCode(t, rec))
}

func TestProductCRUDAndCacheFlow(t *testing.T) {
	r := newTestRouter(t)
	register(t, r, "admin@example.com")
	token := login(t, r, "admin@example.com")

	// Creation requires auth.
	w := doJSON(t, r, http.MethodPost, "/api/products", "", gin.H{"name": "Laptop", "price": 999.99})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/products", token, gin.H{
		"name":            "Laptop",
		"description":     "High-performance laptop",
		"price":           999.99,
		"category":        "Electronics",
		"inventory_count": 50,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeBody[models.Product](t, w)

	// Reads are public.
	w = doJSON(t, r, http.MethodGet, "/api/products/"+created.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 50, decodeBody[models.Product](t, w).InventoryCount)

	w = doJSON(t, r, http.MethodPut, "/api/products/"+created.ID, token, gin.H{"inventory_count": 45})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/products/"+created.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 45, decodeBody[models.Product](t, w).InventoryCount,
		"update must invalidate the cached snapshot")

	w = doJSON(t, r, http.MethodGet, "/api/products/"+created.ID+"/inventory", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	inv := decodeBody[services.InventoryInfo](t, w)
	assert.Equal(t, created.ID, inv.ProductID)
	assert.Equal(t, 45, inv.InventoryCount)

	w = doJSON(t, r, http.MethodGet, "/api/products/search?q=laptop", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[[]models.Product](t, w), 1)

	w = doJSON(t, r, http.MethodDelete, "/api/products/"+created.ID, token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/products/"+created.ID, "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", errorCode(t, w))
}

func TestProductValidationErrors(t *testing.T) {
	r := newTestRouter(t)
	register(t, r, "admin@example.com")
	token := login(t, r, "admin@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/products", token, gin.H{"name": "", "price": 10})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", errorCode(t, w))

	w = doJSON(t, r, http.MethodGet, "/api/products/search", "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductListPagination(t *testing.T) {
	r := newTestRouter(t)
	register(t, r, "admin@example.com")
	token := login(t, r, "admin@example.com")

	for i := 0; i < 3; i++ {
		w := doJSON(t, r, http.MethodPost, "/api/products", token, gin.H{
			"name":  fmt.Sprintf("Product %d", i),
			"price": 10.0,
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, r, http.MethodGet, "/api/products?limit=2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[[]models.Product](t, w), 2)

	w = doJSON(t, r, http.MethodGet, "/api/products?limit=2&offset=2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[[]models.Product](t, w), 1)
}

func TestHealthEndpoints(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alive", decodeBody[map[string]string](t, w)["status"])

	w = doJSON(t, r, http.MethodGet, "/ready", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	h := decodeBody[services.Health](t, w)
	assert.Equal(t, "ok", h.Status)
	assert.True(t, h.Ready)
	assert.Len(t, h.Checks, 3)
}

func TestReadyAnswers503WhileStoreDegraded(t *testing.T) {
	store := repomanager.NewMemoryRepositoryManager()
	require.NoError(t, store.RunMigrations(context.Background()))

	cache := kvcache.Noop{}
	q := queue.Inert{}
	log := logging.Discard()

	authSvc := services.NewAuthService(
		store.Users(), cache, q, log,
		[]byte("test-secret"), time.Hour, bcrypt.MinCost, false,
	)
	catalog := services.NewCatalogService(store.Products(), cache, q, log, 300*time.Second)
	readiness := services.NewReadinessService(&providers.Providers{
		Store: store,
		Cache: cache,
		Queue: q,
		Modes: providers.ModeReport{
			Store: providers.ModeDegraded,
			Cache: providers.ModeDegraded,
			Queue: providers.ModeDegraded,
		},
	}, time.Second)

	r := NewRouter(authSvc, catalog, readiness, log)

	// Reads still work off the fixture-seeded fallback.
	w := doJSON(t, r, http.MethodGet, "/api/products", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decodeBody[[]models.Product](t, w))

	// But the pod must not be routed to until the store is back.
	w = doJSON(t, r, http.MethodGet, "/ready", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	h := decodeBody[services.Health](t, w)
	assert.False(t, h.Ready)
	assert.Equal(t, "degraded", h.Status)
}

func TestChangePasswordFlow(t *testing.T) {
	r := newTestRouter(t)
	register(t, r, "alice@example.com")
	token := login(t, r, "alice@example.com")

	w := doJSON(t, r, http.MethodPut, "/api/users/password", token, gin.H{
		"current_password": "password123",
		"new_password":     "newpassword1",
	})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/users/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "newpassword1",
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateProfile(t *testing.T) {
	r := newTestRouter(t)
	register(t, r, "alice@example.com")
	token := login(t, r, "alice@example.com")

	w := doJSON(t, r, http.MethodPut, "/api/users/profile", token, gin.H{"first_name": "Alicia"})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decodeBody[models.User](t, w)
	assert.Equal(t, "Alicia", updated.FirstName)
	assert.Equal(t, "User", updated.LastName)
}
