// Package providers resolves the three backing services at startup.
// Each dependency is probed once under a deadline; whatever does not
// answer is replaced by its degraded in-process variant so the server
// always comes up.
package providers

import (
	"context"

	"github.com/redis/go-redis/v9"

	"storefront/internal/logging"
	"storefront/internal/server/config"
	"storefront/internal/server/kvcache"
	"storefront/internal/server/models"
	"storefront/internal/server/queue"
	"storefront/internal/server/repositories/repomanager"
)

// Mode records which variant of a backing service was selected.
type Mode string

const (
	ModeReal     Mode = "real"
	ModeDegraded Mode = "degraded"
)

// ModeReport maps each backing service to the mode it resolved to.
type ModeReport struct {
	Store Mode `json:"store"`
	Cache Mode `json:"cache"`
	Queue Mode `json:"queue"`
}

// Providers bundles the resolved backing services and their modes.
type Providers struct {
	Store repomanager.RepositoryManager
	Cache kvcache.Cache
	Queue queue.Queue
	Modes ModeReport
}

// Resolve probes Postgres, Redis and RabbitMQ, each under
// cfg.ProbeTimeout, and returns the resolved providers. A dependency
// that fails its probe degrades silently to the in-process variant;
// Resolve itself never fails because of an unreachable dependency.
func Resolve(ctx context.Context, cfg *config.Config, log logging.Logger) *Providers {
	p := &Providers{
		Modes: ModeReport{Store: ModeReal, Cache: ModeReal, Queue: ModeReal},
	}

	p.Store = resolveStore(ctx, cfg, log, &p.Modes.Store)
	p.Cache = resolveCache(ctx, cfg, log, &p.Modes.Cache)
	p.Queue = resolveQueue(cfg, log, &p.Modes.Queue)

	log.Info(ctx, "providers resolved",
		"store", p.Modes.Store, "cache", p.Modes.Cache, "queue", p.Modes.Queue)
	return p
}

func resolveStore(ctx context.Context, cfg *config.Config, log logging.Logger, mode *Mode) repomanager.RepositoryManager {
	probeCtx, cancel := context.WithTimeout(ctx, cfg.ProbeTimeout)
	defer cancel()

	pg, err := repomanager.NewPostgresRepositoryManager(cfg.DatabaseDSN)
	if err == nil {
		if err = pg.Conn().PingContext(probeCtx); err == nil {
			if err = pg.RunMigrations(ctx); err != nil {
				log.Error(ctx, "database migrations failed", "error", err)
			}
		}
		if err != nil {
			_ = pg.Conn().Close()
		}
	}
	if err != nil {
		log.Warn(ctx, "database unavailable, using in-memory store", "error", err)
		*mode = ModeDegraded
		mem := repomanager.NewMemoryRepositoryManager()
		// Seeding the fixture data cannot fail.
		_ = mem.RunMigrations(ctx)
		return mem
	}

	return pg
}

func resolveCache(ctx context.Context, cfg *config.Config, log logging.Logger, mode *Mode) kvcache.Cache {
	probeCtx, cancel := context.WithTimeout(ctx, cfg.ProbeTimeout)
	defer cancel()

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(probeCtx).Err(); err != nil {
		log.Warn(ctx, "cache unavailable, running uncached", "error", err)
		_ = client.Close()
		*mode = ModeDegraded
		return kvcache.Noop{}
	}

	return kvcache.NewRedisCache(client)
}

func resolveQueue(cfg *config.Config, log logging.Logger, mode *Mode) queue.Queue {
	q, err := queue.NewRabbitQueue(
		cfg.AMQPUrl,
		cfg.ExchangeName,
		cfg.QueueName,
		[]string{models.EventInventoryUpdate},
		cfg.ProbeTimeout,
		log,
	)
	if err != nil {
		log.Warn(context.Background(), "broker unavailable, event delivery disabled", "error", err)
		*mode = ModeDegraded
		return queue.Inert{}
	}

	return q
}
