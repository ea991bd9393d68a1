package container

import (
	"context"
	"fmt"
	"time"

	"bestsellers/scraper/internal/client"
	"bestsellers/scraper/internal/collector"
	"bestsellers/scraper/internal/config"
	"bestsellers/scraper/internal/proxy"
	"bestsellers/scraper/internal/queue"
	"bestsellers/scraper/internal/repository"
	"bestsellers/scraper/internal/service"
	"bestsellers/scraper/internal/state"
	"bestsellers/scraper/internal/tree"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config      *config.Config
	Client      client.SiteClient
	Repository  repository.IdentifierRepository
	Checkpoints state.CheckpointStore
	Collection  *collector.Collection
	Service     *service.Service

	redis *redis.Client
}

// New creates a new container writing identifiers to outputPath
func New(ctx context.Context, cfg *config.Config, outputPath string) (*Container, error) {
	container := &Container{
		Config: cfg,
	}

	policy, err := collector.ParsePolicy(cfg.Crawler.Dedup)
	if err != nil {
		return nil, err
	}
	container.Collection = collector.New(policy)

	fileRepo, err := repository.NewFileRepository(outputPath)
	if err != nil {
		return nil, err
	}
	repos := []repository.IdentifierRepository{fileRepo}

	if cfg.Database.Enabled {
		db, err := pgxpool.New(ctx,
			fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
				cfg.Database.Host,
				cfg.Database.Port,
				cfg.Database.User,
				cfg.Database.Password,
				cfg.Database.Name,
			))
		if err != nil {
			fileRepo.Close()
			return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
		}

		pgRepo, err := repository.NewPostgresRepository(ctx, db)
		if err != nil {
			db.Close()
			fileRepo.Close()
			return nil, err
		}
		repos = append(repos, pgRepo)
		log.Info("✅ Connected to Postgres successfully")
	}
	container.Repository = repository.NewMultiRepository(repos...)

	container.Checkpoints = state.NewNoopCheckpointStore()
	var retryQueue queue.Queue

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
		})

		if _, err := rdb.Ping(ctx).Result(); err != nil {
			rdb.Close()
			container.Repository.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Info("✅ Connected to Redis successfully")

		redisQueue, err := queue.NewRedisQueue(ctx, rdb, cfg.Redis)
		if err != nil {
			rdb.Close()
			container.Repository.Close()
			return nil, err
		}
		retryQueue = redisQueue

		container.redis = rdb
		container.Checkpoints = state.NewRedisCheckpointStore(rdb, time.Duration(cfg.Redis.CheckpointTTL)*time.Second)
	}

	proxySupplier := proxy.NewProxySupplier(ctx, cfg.Site.Proxies, cfg.Site.ProxyTestURL)
	container.Client = client.NewSiteClient(cfg.Site, client.ListingOptions{
		StrictItems:     cfg.Crawler.StrictItems,
		ReadUnpaginated: cfg.Crawler.ReadUnpaginated,
	}, proxySupplier)

	container.Service = service.NewService(
		tree.NewBuilder(container.Client, cfg.Crawler.MaxDepth),
		tree.NewTraverser(container.Client),
		container.Repository,
		container.Checkpoints,
		retryQueue,
		container.Collection,
		cfg.Crawler.SeedConcurrency,
	)

	return container, nil
}

// Run crawls every configured seed
func (c *Container) Run(ctx context.Context) (*service.Report, error) {
	return c.Service.CollectAll(ctx, c.Config.Crawler.Seeds)
}

// Close flushes the sinks and releases connections
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	err := c.Repository.Close()
	if clientErr := c.Client.Close(); clientErr != nil && err == nil {
		err = clientErr
	}
	if c.redis != nil {
		c.redis.Close()
	}

	log.Info("Container shut down successfully")
	return err
}
