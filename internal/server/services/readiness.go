package services

import (
	"context"
	"time"

	"storefront/internal/server/providers"
)

// Check is the health report for one backing service. A dependency that
// resolved degraded reports OK=false without being pinged.
type Check struct {
	Mode providers.Mode `json:"mode"`
	OK   bool           `json:"ok"`
}

// Health is the aggregate health report. Ready tracks the store alone;
// Status reflects all three dependencies.
type Health struct {
	Status string           `json:"status"`
	Ready  bool             `json:"ready"`
	Checks map[string]Check `json:"checks"`
}

// ReadinessService reports dependency health. Readiness tracks the
// store alone: a degraded cache or queue leaves the server ready, but a
// degraded store does not, even though the in-memory fallback still
// answers reads.
type ReadinessService struct {
	providers    *providers.Providers
	probeTimeout time.Duration
}

func NewReadinessService(p *providers.Providers, probeTimeout time.Duration) *ReadinessService {
	return &ReadinessService{providers: p, probeTimeout: probeTimeout}
}

// Report pings every real dependency under the probe timeout and
// returns the per-dependency results. Status is "ok" only when all
// three checks pass.
func (s *ReadinessService) Report(ctx context.Context) Health {
	ctx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()

	h := Health{
		Checks: map[string]Check{
			"database": s.checkStore(ctx),
			"cache":    s.checkCache(ctx),
			"queue":    s.checkQueue(ctx),
		},
	}

	h.Ready = s.storeHealthy(ctx)

	h.Status = "ok"
	for _, c := range h.Checks {
		if !c.OK {
			h.Status = "degraded"
			break
		}
	}
	return h
}

// Ready reports whether the server can serve traffic: the store must
// have resolved real and answer its ping.
func (s *ReadinessService) Ready(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()
	return s.storeHealthy(ctx)
}

func (s *ReadinessService) checkStore(ctx context.Context) Check {
	return Check{Mode: s.providers.Modes.Store, OK: s.storeHealthy(ctx)}
}

func (s *ReadinessService) storeHealthy(ctx context.Context) bool {
	if s.providers.Modes.Store == providers.ModeDegraded {
		return false
	}
	conn := s.providers.Store.Conn()
	if conn == nil {
		return true
	}
	return conn.PingContext(ctx) == nil
}

func (s *ReadinessService) checkCache(ctx context.Context) Check {
	mode := s.providers.Modes.Cache
	if mode == providers.ModeDegraded {
		return Check{Mode: mode, OK: false}
	}
	return Check{Mode: mode, OK: s.providers.Cache.Ping(ctx) == nil}
}

func (s *ReadinessService) checkQueue(ctx context.Context) Check {
	mode := s.providers.Modes.Queue
	if mode == providers.ModeDegraded {
		return Check{Mode: mode, OK: false}
	}
	return Check{Mode: mode, OK: s.providers.Queue.Ping(ctx) == nil}
}
