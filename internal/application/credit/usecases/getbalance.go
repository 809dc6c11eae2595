package usecases

import (
	"context"
	"time"

	"threadmind/internal/application/credit/services"
	"threadmind/internal/shared/logger"
)

type GetBalanceQuery struct {
	// ForceRefresh bypasses the cached snapshot and fetches the
	// authoritative balance from the remote service.
	ForceRefresh bool
}

type GetBalanceResult struct {
	Remaining int       `json:"remaining"`
	Total     int       `json:"total"`
	Plan      string    `json:"plan"`
	FetchedAt time.Time `json:"fetched_at"`
}

// GetBalanceUseCase exposes the credit ledger view to the admin surface.
type GetBalanceUseCase struct {
	ledger   *services.LedgerView
	maxStale time.Duration
	logger   logger.Interface
}

func NewGetBalanceUseCase(ledger *services.LedgerView, maxStale time.Duration, log logger.Interface) *GetBalanceUseCase {
	return &GetBalanceUseCase{ledger: ledger, maxStale: maxStale, logger: log}
}

func (uc *GetBalanceUseCase) Execute(ctx context.Context, query GetBalanceQuery) (*GetBalanceResult, error) {
	maxStale := uc.maxStale
	if query.ForceRefresh {
		maxStale = 0
	}

	snap, err := uc.ledger.Balance(ctx, maxStale)
	if err != nil {
		uc.logger.Errorw("failed to read credit balance", "error", err)
		return nil, err
	}

	return &GetBalanceResult{
		Remaining: snap.Remaining,
		Total:     snap.Total,
		Plan:      snap.Plan,
		FetchedAt: snap.FetchedAt,
	}, nil
}
