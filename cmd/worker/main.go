package main

import (
	"context"
	"errors"
	"os/signal"
	"sync"
	"syscall"

	"koomia/api/internal/cache"
	"koomia/api/internal/config"
	"koomia/api/internal/log"
	"koomia/api/internal/mail"
	"koomia/api/internal/queue"
	"koomia/api/internal/worker/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.LogLevel, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer client.Close()

	processor := tasks.NewProcessor(mail.NewSender(cfg.Mail), logger)
	consumer := queue.NewConsumer(
		client,
		cfg.Mail.Stream,
		cfg.Worker.Group,
		cfg.Worker.Consumer,
		cfg.Worker.ClaimInterval,
		logger,
		processor,
	)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Fatal().Err(err).Msg("consumer stopped unexpectedly")
		}
	}()

	if cfg.AMQP.URL != "" {
		orders := queue.NewOrderConsumer(cfg.AMQP.URL, cfg.AMQP.OrderQueue, cfg.Worker.OrderConsumer, processor.HandleOrderPlaced, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := orders.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("order consumer stopped")
			}
		}()
	} else {
		logger.Info().Msg("amqp url not set, order confirmations disabled")
	}

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")
	wg.Wait()
	logger.Info().Msg("worker exited cleanly")
}
