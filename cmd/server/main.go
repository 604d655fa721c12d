package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"codeapt/internal/api"
	"codeapt/internal/app/service"
	"codeapt/internal/app/worker"
	"codeapt/internal/common"
	"codeapt/internal/common/security"
	"codeapt/internal/domain/repository"
	"codeapt/internal/platform/config"
	"codeapt/internal/platform/database"
	"codeapt/internal/platform/executor"
	"codeapt/internal/platform/logger"
	"codeapt/internal/platform/payment"
	"codeapt/internal/platform/queue"
)

func main() {
	// 1. Load Configuration
	config.Load()
	cfg := config.AppConfig
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	logger.Log.Info("Configuration loaded")

	// 2. Initialize JWT
	security.InitJWT()

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	if cfg.DBAutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Migrate(ctx, database.DB)
		cancel()
		if err != nil {
			logger.Log.Fatalf("Schema migration failed: %v", err)
		}
		logger.Log.Info("Schema migrated")
	}

	// 4. Initialize Redis
	queue.ConnectRedis()
	defer queue.CloseRedis()

	// 5. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	profileRepo := repository.NewPgProfileRepository(database.DB)
	challengeRepo := repository.NewPgChallengeRepository(database.DB)
	ledgerRepo := repository.NewPgLedgerRepository(database.DB)
	catalogRepo := repository.NewPgCatalogRepository(database.DB)
	enrollmentRepo := repository.NewPgEnrollmentRepository(database.DB)
	progressRepo := repository.NewPgProgressRepository(database.DB)
	quizRepo := repository.NewPgQuizRepository(database.DB)
	jobRepo := repository.NewPgJobRepository(database.DB)
	orderRepo := repository.NewPgOrderRepository(database.DB)

	// 6. External collaborators
	runner := executor.NewClient(cfg.ExecutorURL, cfg.ExecutorTimeout)
	gateway := payment.NewClient(payment.Config{
		BaseURL:       cfg.PaymentBaseURL,
		ClientID:      cfg.PaymentClientID,
		ClientSecret:  cfg.PaymentClientSecret,
		ClientVersion: strconv.Itoa(cfg.PaymentClientVersion),
		Timeout:       cfg.PaymentTimeout,
	})

	// 7. Initialize Services
	profileService := service.NewProfileService(userRepo, profileRepo)
	leaderboardService := service.NewLeaderboardService(ledgerRepo, queue.RDB, cfg.LeaderboardCacheKey, cfg.LeaderboardCacheTTL)
	ledgerService := service.NewLedgerService(database.DB, ledgerRepo, common.SystemClock{}, cfg.Timezone, leaderboardService)
	judgeService := service.NewJudgeService(runner, cfg.JudgeConcurrency)
	paymentService := service.NewPaymentService(database.DB, orderRepo, catalogRepo, enrollmentRepo, gateway, queue.RDB, service.PaymentConfig{
		CallbackURL: cfg.PaymentCallbackURL,
		QueueName:   cfg.ReconcileQueueName,
		LockTTL:     cfg.ReconcileLockTTL,
	})

	services := api.Services{
		Auth:        service.NewAuthService(userRepo, profileService),
		Profile:     profileService,
		Challenge:   service.NewChallengeService(database.DB, challengeRepo, ledgerRepo, ledgerService, judgeService),
		Leaderboard: leaderboardService,
		Arena:       service.NewArenaService(runner),
		Catalog:     service.NewCatalogService(catalogRepo, enrollmentRepo, progressRepo),
		Quiz:        service.NewQuizService(database.DB, quizRepo, catalogRepo),
		Job:         service.NewJobService(jobRepo),
		Payment:     paymentService,
		Contact:     service.NewContactService(),
	}

	// 8. Payment reconcile worker, unless it runs as its own process (cmd/worker)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	workerDone := make(chan struct{})
	if cfg.ReconcileInProcess {
		reconcileWorker := worker.NewReconcileWorker(queue.RDB, paymentService, worker.Config{
			QueueName:   cfg.ReconcileQueueName,
			MaxAttempts: cfg.ReconcileMaxAttempt,
			PollDelay:   cfg.ReconcilePollDelay,
		})
		go func() {
			reconcileWorker.Start(workerCtx)
			close(workerDone)
		}()
	} else {
		close(workerDone)
	}

	// 9. Initialize Router & HTTP Server
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      api.NewRouter(services),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 10. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Log.Infof("Server starting on port %s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Could not listen on %s: %v", cfg.APIPort, err)
		}
	}()

	<-stop // Wait for interrupt signal

	logger.Log.Info("Shutting down server...")
	workerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorf("Server shutdown failed: %v", err)
	}
	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		logger.Log.Warn("Reconcile worker did not stop in time")
	}

	logger.Log.Info("Server and worker stopped gracefully")
}
