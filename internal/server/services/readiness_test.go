package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"storefront/internal/server/kvcache"
	"storefront/internal/server/providers"
	"storefront/internal/server/queue"
	"storefront/internal/server/repositories/repomanager"
)

func degradedProviders() *providers.Providers {
	mem := repomanager.NewMemoryRepositoryManager()
	_ = mem.RunMigrations(context.Background())
	return &providers.Providers{
		Store: mem,
		Cache: kvcache.Noop{},
		Queue: queue.Inert{},
		Modes: providers.ModeReport{
			Store: providers.ModeDegraded,
			Cache: providers.ModeDegraded,
			Queue: providers.ModeDegraded,
		},
	}
}

func TestReadiness_DegradedProvidersReportDegraded(t *testing.T) {
	svc := NewReadinessService(degradedProviders(), time.Second)

	h := svc.Report(context.Background())
	assert.Equal(t, "degraded", h.Status)

	for _, name := range []string{"database", "cache", "queue"} {
		c, ok := h.Checks[name]
		assert.True(t, ok, "missing check %q", name)
		assert.Equal(t, providers.ModeDegraded, c.Mode)
		assert.False(t, c.OK)
	}
}

func TestReadiness_NotReadyWhileStoreDegraded(t *testing.T) {
	svc := NewReadinessService(degradedProviders(), time.Second)

	// The in-memory fallback still answers reads, but readiness stays
	// false until the durable store is back.
	assert.False(t, svc.Ready(context.Background()))

	h := svc.Report(context.Background())
	assert.False(t, h.Ready)
	assert.False(t, h.Checks["database"].OK)
}

func TestReadiness_HealthyMemoryProvidersReportOK(t *testing.T) {
	mem := repomanager.NewMemoryRepositoryManager()
	_ = mem.RunMigrations(context.Background())
	p := &providers.Providers{
		Store: mem,
		Cache: kvcache.NewMemoryCache(),
		Queue: queue.NewMemoryQueue(),
		Modes: providers.ModeReport{
			Store: providers.ModeReal,
			Cache: providers.ModeReal,
			Queue: providers.ModeReal,
		},
	}
	svc := NewReadinessService(p, time.Second)

	h := svc.Report(context.Background())
	assert.Equal(t, "ok", h.Status)
	assert.True(t, h.Ready)
	for name, c := range h.Checks {
		assert.True(t, c.OK, "check %q", name)
	}
}
