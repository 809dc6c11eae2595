// Package services implements the local view of the remote credit ledger.
// The remote is the only authority on balances; everything here is a bounded
// staleness cache plus optimistic local adjustment.
package services

import (
	"context"
	"time"

	tenantservices "threadmind/internal/application/tenant/services"
	"threadmind/internal/domain/tenant"
	"threadmind/internal/infrastructure/cache"
	"threadmind/internal/shared/logger"
)

// StatusFetcher is the remote call that carries the authoritative balance.
type StatusFetcher interface {
	GetStatus(ctx context.Context, apiKey, tenantID string) (*tenant.AccountStatus, error)
}

// SnapshotCache stores the last observed balance.
type SnapshotCache interface {
	Get(ctx context.Context) (*cache.CreditSnapshot, error)
	Put(ctx context.Context, snap *cache.CreditSnapshot) error
	AdjustRemaining(ctx context.Context, delta int) error
	Invalidate(ctx context.Context) error
}

// CredentialResolver supplies decrypted call material.
type CredentialResolver interface {
	Resolve(ctx context.Context) (*tenantservices.Credentials, error)
}

// LedgerView reads the balance through the cache, falling back to a live
// remote fetch when the snapshot is older than the caller's staleness bound.
type LedgerView struct {
	creds    CredentialResolver
	cloud    StatusFetcher
	snapshot SnapshotCache
	logger   logger.Interface
}

func NewLedgerView(creds CredentialResolver, cloud StatusFetcher, snapshot SnapshotCache, log logger.Interface) *LedgerView {
	return &LedgerView{creds: creds, cloud: cloud, snapshot: snapshot, logger: log}
}

// Balance returns the remaining and total credits. maxStale bounds how old a
// cached snapshot may be; zero forces a live fetch.
func (v *LedgerView) Balance(ctx context.Context, maxStale time.Duration) (*cache.CreditSnapshot, error) {
	if maxStale > 0 {
		snap, err := v.snapshot.Get(ctx)
		if err != nil {
			// A broken cache degrades to a live fetch, never to a hard failure.
			v.logger.Warnw("failed to read credit snapshot, fetching live", "error", err)
		} else if snap != nil && time.Since(snap.FetchedAt) <= maxStale {
			return snap, nil
		}
	}
	return v.Refresh(ctx)
}

// Refresh fetches the authoritative balance and replaces the snapshot.
func (v *LedgerView) Refresh(ctx context.Context) (*cache.CreditSnapshot, error) {
	creds, err := v.creds.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	status, err := v.cloud.GetStatus(ctx, creds.APIKey, creds.TenantID)
	if err != nil {
		return nil, err
	}

	snap := &cache.CreditSnapshot{
		Remaining: status.CreditsRemaining,
		Total:     status.CreditsTotal,
		Plan:      string(status.Plan),
		FetchedAt: time.Now().UTC(),
	}
	if err := v.snapshot.Put(ctx, snap); err != nil {
		v.logger.Warnw("failed to store credit snapshot", "error", err)
	}
	return snap, nil
}

// CanAfford reports whether at least the given number of credits remain,
// along with the observed remaining balance.
func (v *LedgerView) CanAfford(ctx context.Context, credits int, maxStale time.Duration) (bool, int, error) {
	snap, err := v.Balance(ctx, maxStale)
	if err != nil {
		return false, 0, err
	}
	return snap.Remaining >= credits, snap.Remaining, nil
}

// AfterConsumption decrements the cached balance after metered work so the
// next gate check sees the spend without a remote round trip.
func (v *LedgerView) AfterConsumption(ctx context.Context, credits int) {
	if credits <= 0 {
		return
	}
	if err := v.snapshot.AdjustRemaining(ctx, -credits); err != nil {
		v.logger.Warnw("failed to adjust cached credit balance", "credits", credits, "error", err)
	}
}
