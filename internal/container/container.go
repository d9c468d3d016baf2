package container

import (
	"context"
	"fmt"

	"storefront/admin/internal/client"
	"storefront/admin/internal/config"
	"storefront/admin/internal/proxy"
	"storefront/admin/internal/queue"
	"storefront/admin/internal/repository"
	"storefront/admin/internal/service"
	"storefront/admin/internal/state"
	"storefront/admin/internal/table"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Container holds all initialized components
type Container struct {
	Config     *config.Config
	Client     client.BackendClient
	Operations repository.OperationRepository // nil when the database is disabled
	Queue      queue.Queue                    // nil when Redis is disabled
	Views      table.ViewStore

	Service *service.Service

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized. Redis and
// Postgres are only connected when enabled in the configuration.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{
		Config: cfg,
	}

	g, gctx := errgroup.WithContext(ctx)

	var proxySupplier proxy.ProxySupplier
	g.Go(func() error {
		proxySupplier = proxy.NewProxySupplier(gctx, cfg.Backend.Proxies, cfg.Backend.BaseURL+cfg.Backend.HealthPath)
		return nil
	})

	if cfg.Database.Enabled {
		g.Go(func() error {
			return c.connectDatabase(gctx)
		})
	}

	if cfg.Redis.Enabled {
		g.Go(func() error {
			return c.connectRedis(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		c.Close()
		return nil, err
	}

	notifiers := table.MultiNotifier{table.LogNotifier{}}
	var auditors table.MultiAuditor
	if c.Operations != nil {
		auditors = append(auditors, c.Operations)
	}

	if c.redis != nil {
		redisQueue, err := queue.NewRedisQueue(ctx, c.redis, cfg.Redis)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.Queue = redisQueue
		c.Views = state.NewRedisViewStore(c.redis)
		notifiers = append(notifiers, redisQueue)
		auditors = append(auditors, redisQueue)
	} else {
		c.Views = state.NewMemoryViewStore()
	}
	options := []table.ControllerOption{table.WithNotifier(notifiers), table.WithViewStore(c.Views)}
	if len(auditors) > 0 {
		options = append(options, table.WithAuditor(auditors))
	}

	c.Client = client.NewBackendClient(cfg.Backend, proxySupplier)

	c.Service = service.NewService(
		service.NewTables(c.Client, cfg.Table, options...),
		c.Queue,
		c.Operations,
		cfg.Redis.MinIdleTime,
	)

	return c, nil
}

func (c *Container) connectDatabase(ctx context.Context) error {
	cfg := c.Config.Database
	db, err := pgxpool.New(ctx,
		fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.Host,
			cfg.Port,
			cfg.User,
			cfg.Password,
			cfg.Name,
		))
	if err != nil {
		return fmt.Errorf("failed to create database pool: %w", err)
	}
	c.db = db

	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	operations := repository.NewOperationRepository(db)
	if err := operations.EnsureSchema(ctx); err != nil {
		return err
	}
	c.Operations = operations

	log.Info("✅ Connected to database successfully")
	return nil
}

func (c *Container) connectRedis(ctx context.Context) error {
	cfg := c.Config.Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.Database,
	})
	c.redis = rdb

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info("✅ Connected to Redis successfully")
	return nil
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Debug("Shutting down container...")

	if c.Service != nil {
		c.Service.Close()
	}
	if c.Client != nil {
		c.Client.Close()
	}
	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		c.redis.Close()
	}

	log.Debug("Container shut down successfully")
	return nil
}
