package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"codeapt/internal/app/service"
	"codeapt/internal/app/worker"
	"codeapt/internal/domain/repository"
	"codeapt/internal/platform/config"
	"codeapt/internal/platform/database"
	"codeapt/internal/platform/logger"
	"codeapt/internal/platform/payment"
	"codeapt/internal/platform/queue"
)

// Standalone payment reconcile worker. Run any number of these next to the
// API with RECONCILE_IN_PROCESS=false.
func main() {
	config.Load()
	cfg := config.AppConfig
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	logger.Log.Info("Reconcile worker service starting")

	database.Connect()
	defer database.Close()
	queue.ConnectRedis()
	defer queue.CloseRedis()

	gateway := payment.NewClient(payment.Config{
		BaseURL:       cfg.PaymentBaseURL,
		ClientID:      cfg.PaymentClientID,
		ClientSecret:  cfg.PaymentClientSecret,
		ClientVersion: strconv.Itoa(cfg.PaymentClientVersion),
		Timeout:       cfg.PaymentTimeout,
	})
	paymentService := service.NewPaymentService(
		database.DB,
		repository.NewPgOrderRepository(database.DB),
		repository.NewPgCatalogRepository(database.DB),
		repository.NewPgEnrollmentRepository(database.DB),
		gateway,
		queue.RDB,
		service.PaymentConfig{
			CallbackURL: cfg.PaymentCallbackURL,
			QueueName:   cfg.ReconcileQueueName,
			LockTTL:     cfg.ReconcileLockTTL,
		},
	)

	w := worker.NewReconcileWorker(queue.RDB, paymentService, worker.Config{
		QueueName:   cfg.ReconcileQueueName,
		MaxAttempts: cfg.ReconcileMaxAttempt,
		PollDelay:   cfg.ReconcilePollDelay,
	})

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.Start(ctx)
	}()

	// Graceful shutdown on SIGINT or SIGTERM
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Log.Info("Shutdown signal received")
	cancel()

	wg.Wait()
	logger.Log.Info("Worker exited cleanly")
}
