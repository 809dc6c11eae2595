package usecases

import (
	"context"
	"fmt"
	"time"

	"threadmind/internal/domain/tenant"
	"threadmind/internal/infrastructure/cache"
	apperrors "threadmind/internal/shared/errors"
	"threadmind/internal/shared/logger"
)

type RegisterTenantCommand struct {
	SiteURL      string `validate:"required,url"`
	ContactEmail string `validate:"required,email"`
}

// RegisterTenantResult reports the state the registration landed in. Most
// plans require manual approval, so PendingApproval is the common outcome.
type RegisterTenantResult struct {
	TenantID        string
	State           tenant.ConnectionState
	CreditsTotal    int
	PendingApproval bool
}

type RegisterTenantUseCase struct {
	accounts tenant.Repository
	markers  tenant.MarkerStore
	cipher   KeyCipher
	cloud    CloudGateway
	snapshot SnapshotCache
	logger   logger.Interface
}

func NewRegisterTenantUseCase(
	accounts tenant.Repository,
	markers tenant.MarkerStore,
	cipher KeyCipher,
	cloud CloudGateway,
	snapshot SnapshotCache,
	logger logger.Interface,
) *RegisterTenantUseCase {
	return &RegisterTenantUseCase{
		accounts: accounts,
		markers:  markers,
		cipher:   cipher,
		cloud:    cloud,
		snapshot: snapshot,
		logger:   logger,
	}
}

func (uc *RegisterTenantUseCase) Execute(ctx context.Context, cmd RegisterTenantCommand) (*RegisterTenantResult, error) {
	existing, err := uc.accounts.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing != nil {
		return nil, apperrors.NewConflictError("installation is already connected; disconnect first")
	}

	reg, err := uc.cloud.RegisterTenant(ctx, cmd.SiteURL, cmd.ContactEmail)
	if err != nil {
		uc.logger.Errorw("tenant registration failed", "site_url", cmd.SiteURL, "error", err)
		return nil, err
	}

	apiKeyCipher, err := uc.cipher.Encrypt(reg.APIKey)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encrypt API key").WithCause(err)
	}

	status := tenant.SubscriptionStatus(reg.Subscription.Status)
	account, err := tenant.NewAccount(reg.TenantID, apiKeyCipher, status, tenant.Plan(reg.Subscription.Plan))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build tenant account").WithCause(err)
	}
	if err := uc.accounts.Save(ctx, account); err != nil {
		uc.logger.Errorw("failed to persist tenant account", "tenant_id", reg.TenantID, "error", err)
		return nil, fmt.Errorf("failed to persist tenant account: %w", err)
	}

	now := time.Now().UTC()
	pending := status == tenant.SubStatusPendingApproval
	if pending {
		marker := &tenant.PendingMarker{
			Status:       status,
			CreditsTotal: reg.Subscription.CreditsTotal,
			RegisteredAt: now,
		}
		if err := uc.markers.Put(ctx, marker); err != nil {
			// Resolution degrades gracefully without the marker; the remote
			// status call still reports pending.
			uc.logger.Warnw("failed to store pending marker", "error", err)
		}
	}

	snap := &cache.CreditSnapshot{
		Remaining: reg.Subscription.CreditsTotal,
		Total:     reg.Subscription.CreditsTotal,
		Plan:      reg.Subscription.Plan,
		FetchedAt: now,
	}
	if err := uc.snapshot.Put(ctx, snap); err != nil {
		uc.logger.Warnw("failed to prime credit snapshot", "error", err)
	}

	state := tenant.StatePendingApproval
	if !pending {
		state = tenant.StateFreeTrial
		if tenant.Plan(reg.Subscription.Plan) != tenant.PlanFreeTrial {
			state = tenant.StatePaidPlan
		}
	}

	uc.logger.Infow("tenant registered",
		"tenant_id", reg.TenantID, "status", status, "plan", reg.Subscription.Plan)

	return &RegisterTenantResult{
		TenantID:        reg.TenantID,
		State:           state,
		CreditsTotal:    reg.Subscription.CreditsTotal,
		PendingApproval: pending,
	}, nil
}

func newSnapshot(status *tenant.AccountStatus, fetchedAt time.Time) *cache.CreditSnapshot {
	return &cache.CreditSnapshot{
		Remaining: status.CreditsRemaining,
		Total:     status.CreditsTotal,
		Plan:      string(status.Plan),
		FetchedAt: fetchedAt,
	}
}
