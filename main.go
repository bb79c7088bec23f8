package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"media-aggregator/domain/repository"
	"media-aggregator/infrastructure/cache"
	"media-aggregator/infrastructure/clients"
	"media-aggregator/infrastructure/clients/doodstream"
	"media-aggregator/infrastructure/clients/lulustream"
	"media-aggregator/infrastructure/configuration"
	"media-aggregator/infrastructure/logger"
	"media-aggregator/infrastructure/persistence"
	"media-aggregator/infrastructure/title"
	"media-aggregator/infrastructure/utils"
	httpHandler "media-aggregator/interfaces/http"
	"media-aggregator/server"
	"media-aggregator/usecase"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	// Env files never override variables already set in the environment.
	if n := configuration.LoadEnvFromFile("config.env", ".env"); n > 0 {
		logger.GetLogger().WithField("variables", n).Info("Loaded env files")
		configuration.Reload()
	}

	app := configuration.C.App
	cacheCfg := configuration.C.Cache
	providers := configuration.C.Providers

	store, closeStore, err := InitiateCacheStore(ctx, cacheCfg)
	if err != nil {
		logger.GetLogger().WithField("driver", cacheCfg.Driver).WithField("error", err).Warn("Persistent cache unavailable - continuing with memory cache only")
		store, closeStore = nil, func() {}
	}
	defer closeStore()

	tieredCache := cache.NewTieredCache(store, cache.TieredCacheConfig{
		Keys:             cache.KeyBuilder{Namespace: cacheCfg.Namespace, Version: cacheCfg.Version},
		MemoryCapacity:   cacheCfg.MemoryCapacity,
		CompactThreshold: cacheCfg.CompactThreshold,
		StaleRetention:   cacheCfg.StaleRetention,
	})
	fetcher := cache.NewFetcher(tieredCache, cache.FetcherConfig{
		FetchTimeout: cacheCfg.FetchTimeout,
		MaxAttempts:  cacheCfg.MaxAttempts,
		BackoffBase:  cacheCfg.BackoffBase,
		Coalesce:     cacheCfg.Coalesce,
	})

	httpClient := clients.NewHTTPClient(cacheCfg.FetchTimeout + 5*time.Second)
	primary := lulustream.NewClient(lulustream.Config{
		BaseURL: providers.Primary.BaseURL,
		APIKey:  providers.Primary.APIKey,
		Limits:  resilience(providers.Primary.Limits),
	}, httpClient)
	secondary := doodstream.NewClient(doodstream.Config{
		BaseURL:   providers.Secondary.BaseURL,
		APIKey:    providers.Secondary.APIKey,
		UserAgent: providers.Secondary.UserAgent,
		Limits:    resilience(providers.Secondary.Limits),
	}, httpClient)

	titles := title.NewNormalizer(title.Config{
		MinWords: configuration.C.Title.MinWords,
		MaxWords: configuration.C.Title.MaxWords,
		Keywords: configuration.C.Title.Keywords,
	})

	mediaUsecase := usecase.NewMediaUsecase(primary, secondary, fetcher, titles,
		usecase.PrimarySettings{
			PerPage:   providers.Primary.PerPage,
			MaxPages:  providers.Primary.MaxPages,
			TTL:       providers.Primary.TTL,
			EmbedBase: providers.Primary.EmbedBase,
		},
		usecase.SecondarySettings{
			ListTTL:     providers.Secondary.ListTTL,
			SearchTTL:   providers.Secondary.SearchTTL,
			InfoTTL:     providers.Secondary.InfoTTL,
			MaxKeywords: providers.Secondary.MaxKeywords,
			EmbedBase:   providers.Secondary.EmbedBase,
		},
	)

	mediaHandler := httpHandler.NewMediaHandler(mediaUsecase)
	healthHandler := httpHandler.NewHealthHandler(mediaUsecase)
	router := server.InitiateRouter(mediaHandler, healthHandler, app.CORSOrigins)

	g, ctx := errgroup.WithContext(ctx)

	if app.WarmUp {
		g.Go(func() error {
			start := time.Now()
			if err := mediaUsecase.WarmUp(ctx); err != nil {
				logger.GetLogger().WithField("error", err).Warn("Cache warm-up failed")
				return nil
			}
			logger.GetLogger().WithField("took", time.Since(start).String()).Info("Cache warm-up completed")
			return nil
		})
	}

	if purger, ok := store.(repository.IPurger); ok {
		g.Go(func() error {
			if err := runPurge(ctx, purger, cacheCfg.PurgeSchedule, cacheCfg.StaleRetention); err != nil {
				logger.GetLogger().WithField("schedule", cacheCfg.PurgeSchedule).WithField("error", err).Error("Persistent cache purge disabled")
			}
			return nil
		})
	}

	// SIGHUP drops every cached entry.
	hangup := make(chan os.Signal, 1)
	signal.Notify(hangup, syscall.SIGHUP)
	defer signal.Stop(hangup)
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-hangup:
				if err := mediaUsecase.ClearCache(ctx); err != nil {
					logger.GetLogger().WithField("error", err).Error("Cache clear failed")
					continue
				}
				logger.GetLogger().Info("Cache cleared")
			}
		}
	})

	port := app.Port
	logger.GetLogger().WithFields(map[string]interface{}{"port": port, "tls": app.TLSEnabled, "cacheDriver": cacheCfg.Driver}).Info("Starting application")
	httpServer := newHTTPServer(port, router)
	g.Go(func() error {
		return serveHTTP(httpServer, app)
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = httpServer.Shutdown(shutdownCtx)
	fetcher.Close()

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		closeStore()
		os.Exit(2)
	}
}

func newHTTPServer(port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// serveHTTP runs srv until it is shut down, over TLS when app enables it
// and both key paths are set.
func serveHTTP(srv *http.Server, app configuration.App) error {
	if app.TLSEnabled {
		cert := app.TLSCertFile
		key := app.TLSKeyFile
		if cert == "" || key == "" {
			logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
		} else {
			logger.GetLogger().WithFields(map[string]interface{}{"cert": cert, "key": key}).Info("Serving HTTPS")
			if err := srv.ListenAndServeTLS(cert, key); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}
	}
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// InitiateCacheStore opens the persistent cache tier named by cfg.Driver.
// The "none" driver returns a nil store.
func InitiateCacheStore(ctx context.Context, cfg configuration.Cache) (repository.IPersistentCache, func(), error) {
	noop := func() {}
	switch cfg.Driver {
	case "none", "memory":
		return nil, noop, nil
	case "file":
		store, err := cache.NewFileStore(cfg.FileDir)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	case "postgres":
		db, err := persistence.NewPostgreSQLDB()
		if err != nil {
			return nil, noop, err
		}
		if err := persistence.EnsureMediaCacheSchema(db); err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		return persistence.NewMediaCacheRepository(db), func() { _ = db.Close() }, nil
	case "mssql":
		db, err := persistence.NewMSSQLDB()
		if err != nil {
			return nil, noop, err
		}
		if err := persistence.EnsureMediaCacheSchemaMSSQL(db); err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		return persistence.NewMediaCacheRepositoryMSSQL(db), func() { _ = db.Close() }, nil
	case "redis":
		rc := configuration.C.RedisClient
		dbIndex, _ := strconv.Atoi(rc.DatabaseName)
		client, err := cache.NewRedisClient(ctx, fmt.Sprintf("%s:%s", rc.Host, rc.Port), rc.Username, rc.Password, dbIndex)
		if err != nil {
			return nil, noop, err
		}
		return cache.NewRedisStore(client, cfg.StaleRetention), func() { _ = client.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

func resilience(l configuration.Limits) clients.Resilience {
	return clients.Resilience{
		RateLimit:       l.RateLimit,
		Burst:           l.Burst,
		BreakerFailures: l.BreakerFailures,
		BreakerOpenFor:  l.BreakerOpenFor,
	}
}

// runPurge drops tier-2 entries past the stale retention window on the
// given cron schedule until ctx is done.
func runPurge(ctx context.Context, purger repository.IPurger, schedule string, retention time.Duration) error {
	sched, err := cron.ParseStandard(schedule)
	if err != nil {
		return fmt.Errorf("parse purge schedule: %w", err)
	}
	c := cron.New()
	c.Schedule(sched, cron.FuncJob(func() { purgeOnce(ctx, purger, retention) }))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

func purgeOnce(ctx context.Context, purger repository.IPurger, retention time.Duration) {
	procCtx, cancelProc := context.WithTimeout(ctx, time.Minute)
	defer cancelProc()
	n, err := purger.PurgeExpired(procCtx, utils.GetCurrentTime().Add(-retention))
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Persistent cache purge failed")
		return
	}
	if n > 0 {
		logger.GetLogger().WithField("removed", n).Info("Purged expired persistent cache entries")
	}
}
