package http

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	automationservices "threadmind/internal/application/automation/services"
	automationusecases "threadmind/internal/application/automation/usecases"
	creditservices "threadmind/internal/application/credit/services"
	creditusecases "threadmind/internal/application/credit/usecases"
	indexingservices "threadmind/internal/application/indexing/services"
	indexingusecases "threadmind/internal/application/indexing/usecases"
	tenantservices "threadmind/internal/application/tenant/services"
	tenantusecases "threadmind/internal/application/tenant/usecases"
	"threadmind/internal/domain/tenant"
	"threadmind/internal/infrastructure/aicloud"
	"threadmind/internal/infrastructure/auth"
	"threadmind/internal/infrastructure/cache"
	"threadmind/internal/infrastructure/config"
	"threadmind/internal/infrastructure/contentrepo"
	"threadmind/internal/infrastructure/crypto"
	"threadmind/internal/infrastructure/email"
	"threadmind/internal/infrastructure/repository"
	"threadmind/internal/interfaces/http/handlers"
	"threadmind/internal/interfaces/http/middleware"
	"threadmind/internal/shared/logger"
)

// snapshotTTL is the hard Redis expiry on the cached credit balance. The
// per-call staleness bound is far tighter; this just stops a dead install
// from keeping a balance around forever.
const snapshotTTL = 24 * time.Hour

// Container wires repositories, services, and usecases into handlers.
type Container struct {
	TenantHandler   *handlers.TenantHandler
	IndexingHandler *handlers.IndexingHandler
	TaskHandler     *handlers.TaskHandler
	CreditHandler   *handlers.CreditHandler
	EventHandler    *handlers.EventHandler
	AuthHandler     *handlers.AuthHandler
	AuthMiddleware  *middleware.AuthMiddleware

	// RunDueUC and DrainUC are exposed for embedded scheduling setups that
	// run the passes inside the API process.
	DrainUC  *indexingusecases.DrainIndexingUseCase
	RunDueUC *automationusecases.RunDueTasksUseCase
}

func NewContainer(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, log logger.Interface) (*Container, error) {
	// Repositories
	tenantRepo := repository.NewTenantRepository(db, log)
	itemRepo := repository.NewItemRepository(db, log)
	jobRepo := repository.NewJobRepository(db, log)
	taskRepo := repository.NewTaskRepository(db, log)
	historyRepo := repository.NewHistoryRepository(db, log)
	contentRepo := contentrepo.NewRepository(db, log)

	// Infrastructure
	cloudClient := aicloud.NewClient(&cfg.AICloud, log)
	cipher, err := crypto.NewKeyCipher(cfg.AICloud.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to build key cipher: %w", err)
	}
	snapshotCache := cache.NewCreditBalanceCache(redisClient, snapshotTTL)
	queueLock := cache.NewDrainLock(redisClient)
	markerStore := cache.NewPendingApprovalStore(redisClient)
	notifier := email.NewSMTPNotifier(&cfg.SMTP, log)
	jwtService := auth.NewJWTService(cfg.Auth.JWT.Secret, cfg.Auth.JWT.AccessExpMinutes)

	// Domain and application services
	resolver := tenant.NewStateResolver(markerStore, log)
	credentials := tenantservices.NewCredentialService(tenantRepo, cipher)
	ledger := creditservices.NewLedgerView(credentials, cloudClient, snapshotCache, log)
	texts := indexingservices.NewTextPreparer()
	planner := indexingservices.NewPlanner(contentRepo, itemRepo, texts, log)
	guard := automationservices.NewSimilarityGuard(historyRepo, log)
	engine := automationservices.NewEngine(taskRepo, log)
	runner := automationservices.NewRunner(
		guard, historyRepo, contentRepo, cloudClient, credentials, ledger, notifier,
		cfg.Automation.CreditCacheTTL(), cfg.Automation.MaxGenerationRetries, log,
	)

	// Tenant usecases
	resolveStateUC := tenantusecases.NewResolveStateUseCase(tenantRepo, cipher, cloudClient, resolver, snapshotCache, log)
	registerUC := tenantusecases.NewRegisterTenantUseCase(tenantRepo, markerStore, cipher, cloudClient, snapshotCache, log)
	disconnectUC := tenantusecases.NewDisconnectUseCase(tenantRepo, markerStore, cipher, cloudClient, snapshotCache, jobRepo, log)

	// Credit usecases
	getBalanceUC := creditusecases.NewGetBalanceUseCase(ledger, cfg.Automation.CreditCacheTTL(), log)

	// Indexing usecases
	planUC := indexingusecases.NewPlanIndexingUseCase(planner, contentRepo, cfg.Indexing, log)
	enqueueUC := indexingusecases.NewEnqueueIndexingUseCase(planner, jobRepo, ledger, queueLock, cfg.Indexing, log)
	drainUC := indexingusecases.NewDrainIndexingUseCase(jobRepo, itemRepo, contentRepo, texts, cloudClient, credentials, ledger, queueLock, cfg.Indexing, log)
	cancelUC := indexingusecases.NewCancelIndexingUseCase(jobRepo, queueLock, log)
	progressUC := indexingusecases.NewGetProgressUseCase(jobRepo, itemRepo, cloudClient, credentials, log)
	clearUC := indexingusecases.NewClearIndexUseCase(jobRepo, itemRepo, cloudClient, credentials, queueLock, log)

	// Automation usecases
	createTaskUC := automationusecases.NewCreateTaskUseCase(taskRepo, log)
	updateTaskUC := automationusecases.NewUpdateTaskUseCase(taskRepo, log)
	deleteTaskUC := automationusecases.NewDeleteTaskUseCase(taskRepo, log)
	listTasksUC := automationusecases.NewListTasksUseCase(taskRepo, log)
	toggleTaskUC := automationusecases.NewToggleTaskUseCase(taskRepo, log)
	runTaskUC := automationusecases.NewRunTaskUseCase(taskRepo, runner, log)
	runDueUC := automationusecases.NewRunDueTasksUseCase(taskRepo, engine, runner, log)
	approvedUC := automationusecases.NewHandleContentApprovedUseCase(taskRepo, engine, runner, log)

	return &Container{
		TenantHandler:   handlers.NewTenantHandler(resolveStateUC, registerUC, disconnectUC, log),
		IndexingHandler: handlers.NewIndexingHandler(planUC, enqueueUC, drainUC, cancelUC, progressUC, clearUC, log),
		TaskHandler:     handlers.NewTaskHandler(createTaskUC, updateTaskUC, deleteTaskUC, listTasksUC, toggleTaskUC, runTaskUC, log),
		CreditHandler:   handlers.NewCreditHandler(getBalanceUC, log),
		EventHandler:    handlers.NewEventHandler(approvedUC, log),
		AuthHandler:     handlers.NewAuthHandler(jwtService, cfg.Auth.AdminAPIKey, log),
		AuthMiddleware:  middleware.NewAuthMiddleware(jwtService, log),
		DrainUC:         drainUC,
		RunDueUC:        runDueUC,
	}, nil
}
