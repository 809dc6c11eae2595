// The worker runs the recurring passes: draining the indexing queue,
// executing due automation tasks, and refreshing the remote account state.
// It shares the database and Redis with the API server; the advisory queue
// lock keeps the two from stepping on each other.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	automationservices "threadmind/internal/application/automation/services"
	automationusecases "threadmind/internal/application/automation/usecases"
	creditservices "threadmind/internal/application/credit/services"
	indexingservices "threadmind/internal/application/indexing/services"
	indexingusecases "threadmind/internal/application/indexing/usecases"
	tenantservices "threadmind/internal/application/tenant/services"
	tenantusecases "threadmind/internal/application/tenant/usecases"
	"threadmind/internal/domain/tenant"
	"threadmind/internal/infrastructure/aicloud"
	"threadmind/internal/infrastructure/cache"
	"threadmind/internal/infrastructure/config"
	"threadmind/internal/infrastructure/contentrepo"
	"threadmind/internal/infrastructure/crypto"
	"threadmind/internal/infrastructure/database"
	"threadmind/internal/infrastructure/email"
	"threadmind/internal/infrastructure/repository"
	"threadmind/internal/infrastructure/scheduler"
	"threadmind/internal/shared/biztime"
	"threadmind/internal/shared/logger"
)

const snapshotTTL = 24 * time.Hour

type drainJob struct {
	uc *indexingusecases.DrainIndexingUseCase
}

func (j *drainJob) Execute(ctx context.Context) (int, error) {
	result, err := j.uc.Execute(ctx, indexingusecases.DrainIndexingCommand{})
	if err != nil {
		return 0, err
	}
	return result.Processed, nil
}

type dueTasksJob struct {
	uc *automationusecases.RunDueTasksUseCase
}

func (j *dueTasksJob) Execute(ctx context.Context) (int, error) {
	result, err := j.uc.Execute(ctx)
	if err != nil {
		return 0, err
	}
	return result.Due, nil
}

type stateRefreshJob struct {
	uc *tenantusecases.ResolveStateUseCase
}

func (j *stateRefreshJob) Execute(ctx context.Context) (int, error) {
	if _, err := j.uc.Execute(ctx); err != nil {
		return 0, err
	}
	return 1, nil
}

func main() {
	env := "development"
	if len(os.Args) > 1 {
		env = os.Args[1]
	}
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&cfg.Logger, env == "development"); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.NewLogger()
	log.Infow("starting worker", "environment", env)

	if err := biztime.Init(cfg.Automation.Timezone); err != nil {
		log.Fatalw("failed to initialize business timezone", "error", err)
	}

	if err := database.Init(&cfg.Database); err != nil {
		log.Fatalw("failed to initialize database", "error", err)
	}
	defer database.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalw("failed to connect to redis", "error", err)
	}
	log.Infow("redis connection established", "address", cfg.Redis.GetAddr())

	db := database.Get()
	tenantRepo := repository.NewTenantRepository(db, log)
	itemRepo := repository.NewItemRepository(db, log)
	jobRepo := repository.NewJobRepository(db, log)
	taskRepo := repository.NewTaskRepository(db, log)
	historyRepo := repository.NewHistoryRepository(db, log)
	contentRepo := contentrepo.NewRepository(db, log)

	cloudClient := aicloud.NewClient(&cfg.AICloud, log)
	cipher, err := crypto.NewKeyCipher(cfg.AICloud.EncryptionKey)
	if err != nil {
		log.Fatalw("failed to build key cipher", "error", err)
	}
	snapshotCache := cache.NewCreditBalanceCache(redisClient, snapshotTTL)
	queueLock := cache.NewDrainLock(redisClient)
	markerStore := cache.NewPendingApprovalStore(redisClient)
	notifier := email.NewSMTPNotifier(&cfg.SMTP, log)

	resolver := tenant.NewStateResolver(markerStore, log)
	credentials := tenantservices.NewCredentialService(tenantRepo, cipher)
	ledger := creditservices.NewLedgerView(credentials, cloudClient, snapshotCache, log)
	texts := indexingservices.NewTextPreparer()
	guard := automationservices.NewSimilarityGuard(historyRepo, log)
	engine := automationservices.NewEngine(taskRepo, log)
	runner := automationservices.NewRunner(
		guard, historyRepo, contentRepo, cloudClient, credentials, ledger, notifier,
		cfg.Automation.CreditCacheTTL(), cfg.Automation.MaxGenerationRetries, log,
	)

	drainUC := indexingusecases.NewDrainIndexingUseCase(
		jobRepo, itemRepo, contentRepo, texts, cloudClient, credentials, ledger, queueLock, cfg.Indexing, log,
	)
	runDueUC := automationusecases.NewRunDueTasksUseCase(taskRepo, engine, runner, log)
	resolveStateUC := tenantusecases.NewResolveStateUseCase(tenantRepo, cipher, cloudClient, resolver, snapshotCache, log)

	manager, err := scheduler.NewManager(log)
	if err != nil {
		log.Fatalw("failed to create scheduler", "error", err)
	}
	if err := manager.RegisterIndexingJobs(&drainJob{uc: drainUC}, time.Minute); err != nil {
		log.Fatalw("failed to register indexing jobs", "error", err)
	}
	if err := manager.RegisterAutomationJobs(&dueTasksJob{uc: runDueUC}, 5*time.Minute); err != nil {
		log.Fatalw("failed to register automation jobs", "error", err)
	}
	if err := manager.RegisterStateRefreshJobs(&stateRefreshJob{uc: resolveStateUC}); err != nil {
		log.Fatalw("failed to register state refresh job", "error", err)
	}

	manager.Start()
	log.Infow("worker started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	log.Infow("received signal, shutting down", "signal", sig)
	if err := manager.Stop(); err != nil {
		log.Errorw("scheduler stop failed", "error", err)
	}
	log.Infow("worker stopped")
}
