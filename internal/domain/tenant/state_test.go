package tenant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadmind/internal/shared/logger"
)

type fakeMarkerStore struct {
	marker  *PendingMarker
	getErr  error
	deletes int
}

func (f *fakeMarkerStore) Get(ctx context.Context) (*PendingMarker, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.marker != nil && f.marker.Expired(time.Now().UTC()) {
		return nil, nil
	}
	return f.marker, nil
}

func (f *fakeMarkerStore) Put(ctx context.Context, m *PendingMarker) error {
	f.marker = m
	return nil
}

func (f *fakeMarkerStore) Delete(ctx context.Context) error {
	f.marker = nil
	f.deletes++
	return nil
}

func freshMarker() *PendingMarker {
	return &PendingMarker{
		Status:       SubStatusPendingApproval,
		CreditsTotal: 100,
		RegisteredAt: time.Now().UTC().Add(-time.Hour),
	}
}

func expiredMarker() *PendingMarker {
	return &PendingMarker{
		Status:       SubStatusPendingApproval,
		CreditsTotal: 100,
		RegisteredAt: time.Now().UTC().Add(-25 * time.Hour),
	}
}

func TestStateResolver_Resolve(t *testing.T) {
	remoteDown := errors.New("connection refused")

	tests := []struct {
		name      string
		hasCreds  bool
		marker    *PendingMarker
		status    *AccountStatus
		remoteErr error
		want      ConnectionState
		wantCause error
	}{
		{
			name:     "no credentials and no marker",
			hasCreds: false,
			want:     StateNotConnected,
		},
		{
			name:      "no credentials but marker present",
			hasCreds:  false,
			marker:    freshMarker(),
			remoteErr: remoteDown,
			want:      StatePendingApproval,
		},
		{
			name:      "marker survives remote failure",
			hasCreds:  true,
			marker:    freshMarker(),
			remoteErr: remoteDown,
			want:      StatePendingApproval,
		},
		{
			name:      "expired marker degrades to error on remote failure",
			hasCreds:  true,
			marker:    expiredMarker(),
			remoteErr: remoteDown,
			want:      StateError,
			wantCause: remoteDown,
		},
		{
			name:     "remote inactive",
			hasCreds: true,
			status:   &AccountStatus{Status: SubStatusInactive},
			want:     StateInactive,
		},
		{
			name:     "remote expired",
			hasCreds: true,
			status:   &AccountStatus{Status: SubStatusExpired},
			want:     StateExpired,
		},
		{
			name:     "remote pending without local marker",
			hasCreds: true,
			status:   &AccountStatus{Status: SubStatusPendingApproval},
			want:     StatePendingApproval,
		},
		{
			name:     "unrecognized remote status",
			hasCreds: true,
			status:   &AccountStatus{Status: "suspended"},
			want:     StateError,
		},
		{
			name:     "active on free trial plan",
			hasCreds: true,
			status:   &AccountStatus{Status: SubStatusActive, Plan: PlanFreeTrial},
			want:     StateFreeTrial,
		},
		{
			name:     "active on paid plan",
			hasCreds: true,
			status:   &AccountStatus{Status: SubStatusActive, Plan: PlanProfessional},
			want:     StatePaidPlan,
		},
		{
			name:     "trial status counts as operational",
			hasCreds: true,
			status:   &AccountStatus{Status: SubStatusTrial, Plan: PlanFreeTrial},
			want:     StateFreeTrial,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeMarkerStore{marker: tc.marker}
			resolver := NewStateResolver(store, logger.NewLogger())

			res := resolver.Resolve(context.Background(), tc.hasCreds, tc.status, tc.remoteErr)

			assert.Equal(t, tc.want, res.State)
			if tc.wantCause != nil {
				assert.ErrorIs(t, res.Cause, tc.wantCause)
			}
		})
	}
}

// A marker set during registration must not outlive an already-activated
// account: activation clears it inside the same Resolve call.
func TestStateResolver_ActivationClearsMarker(t *testing.T) {
	store := &fakeMarkerStore{marker: freshMarker()}
	resolver := NewStateResolver(store, logger.NewLogger())

	res := resolver.Resolve(context.Background(), true,
		&AccountStatus{Status: SubStatusActive, Plan: PlanStarter}, nil)

	require.Equal(t, StatePaidPlan, res.State)
	assert.Nil(t, store.marker, "marker should be deleted")
	assert.Equal(t, 1, store.deletes)

	// A later call with a failing remote must not fall back into pending.
	res = resolver.Resolve(context.Background(), true, nil, errors.New("timeout"))
	assert.Equal(t, StateError, res.State)
}

func TestStateResolver_MarkerStoreFailureDoesNotMaskAccount(t *testing.T) {
	store := &fakeMarkerStore{getErr: errors.New("redis down")}
	resolver := NewStateResolver(store, logger.NewLogger())

	res := resolver.Resolve(context.Background(), true,
		&AccountStatus{Status: SubStatusActive, Plan: PlanBusiness}, nil)

	assert.Equal(t, StatePaidPlan, res.State)
}

func TestConnectionState_CanOperate(t *testing.T) {
	assert.True(t, StateFreeTrial.CanOperate())
	assert.True(t, StatePaidPlan.CanOperate())
	assert.False(t, StateNotConnected.CanOperate())
	assert.False(t, StatePendingApproval.CanOperate())
	assert.False(t, StateError.CanOperate())
	assert.False(t, StateInactive.CanOperate())
	assert.False(t, StateExpired.CanOperate())
}
