package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"koomia/api/internal/cache"
	"koomia/api/internal/config"
	"koomia/api/internal/database"
	"koomia/api/internal/handlers"
	"koomia/api/internal/ids"
	"koomia/api/internal/jobs"
	"koomia/api/internal/log"
	"koomia/api/internal/middleware"
	"koomia/api/internal/queue"
	"koomia/api/internal/repository"
	"koomia/api/internal/security"
	"koomia/api/internal/server"
	"koomia/api/internal/service"
	"koomia/api/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.LogLevel, "api")
	ids.SetNode(cfg.NodeID)

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure bucket failed")
	}

	tokens, err := security.NewTokenService(cfg.TokenSettings())
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid token settings")
	}

	stores := service.Stores{
		Accounts:   repository.NewAccountRepository(dbPool),
		Categories: repository.NewCategoryRepository(dbPool),
		Products:   repository.NewProductRepository(dbPool),
		Carts:      repository.NewCartRepository(dbPool),
		Wishlists:  repository.NewWishlistRepository(dbPool),
		Addresses:  repository.NewAddressRepository(dbPool),
		Orders:     repository.NewOrderRepository(dbPool),
		Reviews:    repository.NewReviewRepository(dbPool),
		Blogs:      repository.NewBlogRepository(dbPool),
	}

	var publisher service.OrderPublisher
	var orderPublisher *queue.OrderPublisher
	if cfg.AMQP.URL != "" {
		orderPublisher, err = queue.NewOrderPublisher(cfg.AMQP.URL, cfg.AMQP.OrderQueue, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("order events disabled")
		} else {
			publisher = orderPublisher
		}
	}

	hasher := security.NewPasswordHasher(cfg.Security.BcryptCost)
	uploads := service.NewUploadService(objectStore, logger)
	mailer := queue.NewMailProducer(redisClient, cfg.Mail.Stream)

	authService := service.NewAuthService(stores.Accounts, stores.Carts, tokens, hasher, mailer, service.AuthSettings{
		OTPTTL:    cfg.Security.OTPTTL,
		PublicURL: cfg.PublicURL,
	}, logger)
	commerceService := service.NewCommerceService(stores, publisher, logger)

	if cfg.Admin.Email != "" {
		if _, err := authService.EnsureAdmin(ctx, service.AdminSeed{
			Email:     cfg.Admin.Email,
			Password:  cfg.Admin.Password,
			FirstName: cfg.Admin.FirstName,
			LastName:  cfg.Admin.LastName,
			Mobile:    cfg.Admin.Mobile,
		}); err != nil {
			logger.Fatal().Err(err).Msg("ensure admin failed")
		}
	}

	handlerSet := handlers.NewHandlerSet(handlers.Deps{
		Log:           logger,
		Environment:   cfg.Environment,
		SecureCookies: cfg.IsProduction(),
		Tokens:        tokens,
		Accounts:      stores.Accounts,
		Auth:          authService,
		Users:         service.NewAccountService(stores.Accounts, uploads, hasher, logger),
		Catalog:       service.NewCatalogService(stores.Categories, stores.Products, stores.Reviews, stores.Blogs, uploads, logger),
		Commerce:      commerceService,
		Blogs:         service.NewBlogService(stores.Blogs, stores.Categories, logger),
		Throttle:      middleware.RateLimit(cfg.RateLimit, redisClient, logger),
		Database:      handlers.PingFunc(dbPool.Ping),
		Cache:         handlers.PingFunc(cache.Pinger(redisClient)),
	})

	httpServer, err := server.NewHTTPServer(cfg, logger, handlerSet)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build http server")
	}

	scheduler := jobs.NewScheduler(cfg.Jobs, authService, commerceService, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient, orderPublisher)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client, publisher *queue.OrderPublisher) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	if scheduler != nil {
		scheduler.Stop()
	}
	if publisher != nil {
		publisher.Close()
	}

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
