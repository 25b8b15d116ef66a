// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fitness-checkout/internal/config"
	"fitness-checkout/internal/domain/ports/adapter"
	cartAdapters "fitness-checkout/internal/infra/adapters/cartsvc"
	"fitness-checkout/internal/infra/adapters/notify"
	payAdapters "fitness-checkout/internal/infra/adapters/payment"
	"fitness-checkout/internal/infra/adapters/txlog"
	pg "fitness-checkout/internal/infra/db/postgres"
	"fitness-checkout/internal/infra/logging"
	"fitness-checkout/internal/infra/metrics"
	red "fitness-checkout/internal/infra/redis"
	"fitness-checkout/internal/infra/sched"
	"fitness-checkout/internal/infra/web"
	"fitness-checkout/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop payment gateway)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("dev mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	if err := pg.RunMigrations(cfg.Database.URL); err != nil {
		log.Fatalf("migrations: %v", err)
	}
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	attemptRepo := pg.NewAttemptRepo(pool)
	txRepo := pg.NewTransactionRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Payment gateway ----
	var gateway adapter.PaymentGateway
	if cfg.Runtime.Dev {
		gateway = payAdapters.NewNoopGateway()
		logger.Warn().Msg("payment gateway: noop (dev)")
	} else {
		gateway, err = payAdapters.NewRESTGateway(cfg.Payment)
		if err != nil {
			log.Fatalf("payment gateway: %v", err)
		}
	}

	// ---- Transaction log sinks ----
	sinks := []adapter.TransactionRecorder{txlog.NewPostgresRecorder(txRepo)}
	if cfg.TxLog.URL != "" {
		sinks = append(sinks, txlog.NewHTTPRecorder(cfg.TxLog))
	}
	recorder := txlog.NewMultiRecorder(sinks...)

	// ---- Cart service ----
	var carts adapter.CartService = cartAdapters.Noop{}
	if cfg.Cart.BaseURL != "" {
		carts = cartAdapters.NewHTTPClient(cfg.Cart)
	}

	// ---- Ops notifier ----
	var notifier adapter.OpsNotifier = notify.NoopNotifier{}
	if cfg.Notify.TelegramToken != "" {
		tn, err := notify.NewTelegramNotifier(cfg.Notify.TelegramToken, cfg.Notify.ChatID)
		if err != nil {
			logger.Warn().Err(err).Msg("telegram notifier disabled")
		} else {
			notifier = tn
		}
	}

	// ---- Use case ----
	checkoutUC := usecase.NewCheckoutUseCase(attemptRepo, txManager, gateway, recorder, carts, notifier, locker, cfg.Checkout, logger)

	// ---- Reconciler ----
	reconciler := sched.NewAttemptReconciler(checkoutUC, attemptRepo, cfg.Checkout.ReconcileInterval, cfg.Checkout.StaleAfter, logger)
	go reconciler.Start(ctx)

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Server.JWTSecret)
	srv := web.NewServer(checkoutUC, attemptRepo, auth, gateway.Name(), logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
