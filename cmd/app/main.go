// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/domain/ports/adapter"
	pg "storefront/internal/infra/db/postgres"
	"storefront/internal/infra/kafka"
	"storefront/internal/infra/logging"
	"storefront/internal/infra/metrics"
	"storefront/internal/infra/payment"
	red "storefront/internal/infra/redis"
	"storefront/internal/infra/sched"
	"storefront/internal/infra/web"
	"storefront/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop gateway, token mint endpoint)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.PoolSize)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	orderCache := red.NewOrderCache(redisClient, cfg.Redis.TTL)

	// ---- Payment gateway ----
	var gateway adapter.PaymentGateway
	if cfg.Runtime.Dev || cfg.Gateway.Stripe.APIKey == "" {
		logger.Warn().Msg("no gateway API key configured; using noop gateway")
		gateway = payment.NewNoopGateway()
	} else {
		gateway = payment.NewStripeGateway(
			cfg.Gateway.Stripe.APIKey,
			cfg.Gateway.Stripe.BaseURL,
			cfg.Gateway.Stripe.SuccessURL,
			cfg.Gateway.Stripe.CancelURL,
		)
	}
	logger.Info().Str("gateway", gateway.Name()).Msg("payment gateway ready")

	// ---- Events ----
	var events adapter.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.Topic != "" {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		events = producer
	}

	// ---- Repositories ----
	orderRepo := pg.NewOrderRepo(pool)
	couponRepo := pg.NewCouponRepo(pool)
	sessionRepo := pg.NewCheckoutSessionRepo(pool)

	// ---- Use cases ----
	couponUC := usecase.NewCouponUseCase(couponRepo, gateway, cfg.Coupon, logger)
	checkoutUC := usecase.NewCheckoutUseCase(orderRepo, sessionRepo, couponUC, gateway, orderCache, events, logger)
	orderUC := usecase.NewOrderUseCase(orderRepo, orderCache, logger)

	// ---- Background reconciliation ----
	reconciler := sched.NewCheckoutReconciler(
		checkoutUC, sessionRepo,
		cfg.Reconcile.Interval, cfg.Reconcile.StaleAfter, cfg.Reconcile.AbandonAfter,
		logger,
	)
	go reconciler.Start(ctx)

	// ---- HTTP ----
	auth := web.NewAuthManager(cfg.Server.JWTSecret, cfg.Server.AccessTTL, cfg.Server.RefreshTTL)
	server := web.NewServer(checkoutUC, orderUC, auth, cfg.Server.AdminAPIKey, cfg.Runtime.Dev, logger)

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		logger.Info().Str("addr", addr).Msg("http server listening")
		errCh <- server.ListenAndServe(addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		logger.Error().Err(err).Msg("http server stopped")
	}
	cancel()
}
