// Package app assembles the service from configuration.  The HTTP server
// and the zonectl CLI share it so both run the same engine wiring.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/zone-queue/internal/catalog"
	"github.com/iliyamo/zone-queue/internal/config"
	"github.com/iliyamo/zone-queue/internal/confirm"
	"github.com/iliyamo/zone-queue/internal/database"
	"github.com/iliyamo/zone-queue/internal/lock"
	"github.com/iliyamo/zone-queue/internal/notify"
	"github.com/iliyamo/zone-queue/internal/render"
	"github.com/iliyamo/zone-queue/internal/repository"
	"github.com/iliyamo/zone-queue/internal/service"
)

// App holds the wired components.
type App struct {
	Cfg      config.Config
	Log      *zap.Logger
	Catalog  *catalog.Catalog
	DB       *sql.DB // nil with the memory store
	Redis    *redis.Client
	Store    repository.ReservationStore
	Locker   lock.Locker
	Relay    *notify.Relay
	Engine   *service.ReservationEngine
	Board    *render.Board
	Confirms confirm.Store
}

// New builds every component.  Redis is optional: without it the lock
// falls back to the in-process locker and confirmations stay in memory.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	a := &App{Cfg: cfg, Log: log}

	zones, err := config.LoadZones(cfg.ZonesFile, cfg.Zones)
	if err != nil {
		return nil, err
	}
	a.Catalog = catalog.New(zones)
	log.Info("zone catalog loaded", zap.Int("zones", a.Catalog.Len()))

	switch cfg.StoreBackend {
	case config.StoreMemory:
		a.Store = repository.NewMemoryReservationRepo()
	case config.StoreMySQL:
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		a.DB = db
		a.Store = repository.NewReservationRepo(db)
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	a.Redis = config.NewRedisClient(config.LoadRedisConfig())
	if a.Redis == nil {
		log.Warn("redis unavailable; using local locks and in-memory confirmations")
	}

	a.Locker = lock.NewLocal()
	if cfg.LockBackend == config.LockRedis {
		if a.Redis == nil {
			a.Close()
			return nil, fmt.Errorf("LOCK_BACKEND=redis but redis is unreachable")
		}
		a.Locker = lock.NewRedis(a.Redis, "zq:lock", 2*cfg.LockTimeout, 0)
	}

	if a.Redis != nil {
		a.Confirms = confirm.NewRedisStore(a.Redis, "zq:confirm")
	} else {
		a.Confirms = confirm.NewMemoryStore(nil)
	}

	var sink notify.Sink = notify.NewLogSink(log)
	if cfg.NotifyBackend == config.NotifyAMQP {
		sink = notify.NewAMQPSink(cfg.RabbitURL, log)
	}
	loc := cfg.TimeLocation()
	a.Relay = notify.NewRelay(sink, loc, log)

	a.Engine = service.NewReservationEngine(a.Store, a.Locker, service.Options{
		StoreTimeout: cfg.StoreTimeout,
		LockTimeout:  cfg.LockTimeout,
		Sink:         a.Relay,
		Logger:       log,
	})
	a.Board = render.NewBoard(a.Engine, loc)
	return a, nil
}

// Close releases the database and Redis connections.
func (a *App) Close() {
	if a.DB != nil {
		_ = a.DB.Close()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
}
