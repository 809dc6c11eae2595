package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadmind/internal/domain/tenant"
	"threadmind/internal/infrastructure/aicloud"
	"threadmind/internal/infrastructure/cache"
	apperrors "threadmind/internal/shared/errors"
	"threadmind/internal/shared/logger"
)

type fakeAccounts struct {
	account *tenant.Account
}

func (f *fakeAccounts) Get(ctx context.Context) (*tenant.Account, error) { return f.account, nil }
func (f *fakeAccounts) Save(ctx context.Context, a *tenant.Account) error {
	f.account = a
	return nil
}
func (f *fakeAccounts) Update(ctx context.Context, a *tenant.Account) error {
	f.account = a
	return nil
}
func (f *fakeAccounts) Delete(ctx context.Context) error {
	f.account = nil
	return nil
}

type fakeMarkers struct {
	marker *tenant.PendingMarker
}

func (f *fakeMarkers) Get(ctx context.Context) (*tenant.PendingMarker, error) {
	return f.marker, nil
}
func (f *fakeMarkers) Put(ctx context.Context, m *tenant.PendingMarker) error {
	f.marker = m
	return nil
}
func (f *fakeMarkers) Delete(ctx context.Context) error {
	f.marker = nil
	return nil
}

type plainCipher struct{}

func (plainCipher) Encrypt(plaintext string) ([]byte, error)  { return []byte(plaintext), nil }
func (plainCipher) Decrypt(ciphertext []byte) (string, error) { return string(ciphertext), nil }

type fakeCloud struct {
	registration  *aicloud.RegistrationResult
	registerErr   error
	status        *tenant.AccountStatus
	statusErr     error
	disconnectErr error
	disconnected  bool
}

func (f *fakeCloud) RegisterTenant(ctx context.Context, siteURL, contactEmail string) (*aicloud.RegistrationResult, error) {
	return f.registration, f.registerErr
}
func (f *fakeCloud) GetStatus(ctx context.Context, apiKey, tenantID string) (*tenant.AccountStatus, error) {
	return f.status, f.statusErr
}
func (f *fakeCloud) Disconnect(ctx context.Context, apiKey, tenantID, reason string) error {
	if f.disconnectErr != nil {
		return f.disconnectErr
	}
	f.disconnected = true
	return nil
}

type fakeSnapshots struct {
	snap *cache.CreditSnapshot
}

func (f *fakeSnapshots) Put(ctx context.Context, s *cache.CreditSnapshot) error {
	f.snap = s
	return nil
}
func (f *fakeSnapshots) Invalidate(ctx context.Context) error {
	f.snap = nil
	return nil
}

type fakeCanceller struct {
	jobs, items int
}

func (f *fakeCanceller) CancelAll(ctx context.Context) (int, int, error) {
	return f.jobs, f.items, nil
}

func pendingRegistration() *aicloud.RegistrationResult {
	reg := &aicloud.RegistrationResult{APIKey: "secret-key", TenantID: "tn_42"}
	reg.Subscription.Status = string(tenant.SubStatusPendingApproval)
	reg.Subscription.Plan = string(tenant.PlanStarter)
	reg.Subscription.CreditsTotal = 200
	return reg
}

func connectedAccount(t *testing.T) *tenant.Account {
	t.Helper()
	account, err := tenant.NewAccount("tn_42", []byte("secret-key"), tenant.SubStatusActive, tenant.PlanStarter)
	require.NoError(t, err)
	return account
}

func TestRegisterTenant_PendingApprovalSetsMarker(t *testing.T) {
	accounts := &fakeAccounts{}
	markers := &fakeMarkers{}
	snaps := &fakeSnapshots{}
	cloud := &fakeCloud{registration: pendingRegistration()}
	uc := NewRegisterTenantUseCase(accounts, markers, plainCipher{}, cloud, snaps, logger.NewLogger())

	result, err := uc.Execute(context.Background(), RegisterTenantCommand{
		SiteURL: "https://forum.example.com", ContactEmail: "ops@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "tn_42", result.TenantID)
	assert.True(t, result.PendingApproval)
	assert.Equal(t, tenant.StatePendingApproval, result.State)

	require.NotNil(t, accounts.account, "account must be persisted")
	assert.Equal(t, []byte("secret-key"), accounts.account.APIKeyCipher())

	require.NotNil(t, markers.marker, "pending marker must be set")
	assert.Equal(t, 200, markers.marker.CreditsTotal)

	require.NotNil(t, snaps.snap, "credit snapshot must be primed")
	assert.Equal(t, 200, snaps.snap.Remaining)
}

func TestRegisterTenant_AlreadyConnectedConflicts(t *testing.T) {
	accounts := &fakeAccounts{account: connectedAccount(t)}
	uc := NewRegisterTenantUseCase(accounts, &fakeMarkers{}, plainCipher{}, &fakeCloud{}, &fakeSnapshots{}, logger.NewLogger())

	_, err := uc.Execute(context.Background(), RegisterTenantCommand{
		SiteURL: "https://forum.example.com", ContactEmail: "ops@example.com",
	})
	assert.True(t, apperrors.IsConflictError(err))
}

func TestRegisterTenant_InstantActivationSkipsMarker(t *testing.T) {
	reg := pendingRegistration()
	reg.Subscription.Status = string(tenant.SubStatusTrial)
	reg.Subscription.Plan = string(tenant.PlanFreeTrial)
	markers := &fakeMarkers{}
	uc := NewRegisterTenantUseCase(&fakeAccounts{}, markers, plainCipher{}, &fakeCloud{registration: reg}, &fakeSnapshots{}, logger.NewLogger())

	result, err := uc.Execute(context.Background(), RegisterTenantCommand{
		SiteURL: "https://forum.example.com", ContactEmail: "ops@example.com",
	})
	require.NoError(t, err)
	assert.False(t, result.PendingApproval)
	assert.Equal(t, tenant.StateFreeTrial, result.State)
	assert.Nil(t, markers.marker)
}

func TestResolveState_RefreshesAccountAndSnapshot(t *testing.T) {
	accounts := &fakeAccounts{account: connectedAccount(t)}
	snaps := &fakeSnapshots{}
	cloud := &fakeCloud{status: &tenant.AccountStatus{
		TenantID:         "tn_42",
		Status:           tenant.SubStatusActive,
		Plan:             tenant.PlanProfessional,
		CreditsRemaining: 150,
		CreditsTotal:     500,
		Features:         []string{"image_indexing"},
	}}
	resolver := tenant.NewStateResolver(&fakeMarkers{}, logger.NewLogger())
	uc := NewResolveStateUseCase(accounts, plainCipher{}, cloud, resolver, snaps, logger.NewLogger())

	result, err := uc.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, tenant.StatePaidPlan, result.State)
	assert.Equal(t, 150, result.CreditsRemaining)
	assert.Equal(t, tenant.PlanProfessional, accounts.account.Plan())
	assert.True(t, accounts.account.HasFeature("image_indexing"))
	require.NotNil(t, snaps.snap)
	assert.Equal(t, 150, snaps.snap.Remaining)
}

func TestResolveState_RemoteFailurePreservesCause(t *testing.T) {
	accounts := &fakeAccounts{account: connectedAccount(t)}
	cloud := &fakeCloud{statusErr: apperrors.NewTransportError("connection refused")}
	resolver := tenant.NewStateResolver(&fakeMarkers{}, logger.NewLogger())
	uc := NewResolveStateUseCase(accounts, plainCipher{}, cloud, resolver, &fakeSnapshots{}, logger.NewLogger())

	result, err := uc.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, tenant.StateError, result.State)
	assert.Contains(t, result.Cause, "connection refused")
}

func TestResolveState_NotConnected(t *testing.T) {
	resolver := tenant.NewStateResolver(&fakeMarkers{}, logger.NewLogger())
	uc := NewResolveStateUseCase(&fakeAccounts{}, plainCipher{}, &fakeCloud{}, resolver, &fakeSnapshots{}, logger.NewLogger())

	result, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tenant.StateNotConnected, result.State)
}

func TestDisconnect_ClearsEverythingLocally(t *testing.T) {
	accounts := &fakeAccounts{account: connectedAccount(t)}
	markers := &fakeMarkers{marker: &tenant.PendingMarker{RegisteredAt: time.Now().UTC()}}
	snaps := &fakeSnapshots{snap: &cache.CreditSnapshot{Remaining: 10}}
	cloud := &fakeCloud{}
	uc := NewDisconnectUseCase(accounts, markers, plainCipher{}, cloud, snaps, &fakeCanceller{jobs: 2, items: 7}, logger.NewLogger())

	result, err := uc.Execute(context.Background(), DisconnectCommand{Reason: "moving hosts"})
	require.NoError(t, err)

	assert.True(t, result.RemoteNotified)
	assert.True(t, cloud.disconnected)
	assert.Equal(t, 2, result.JobsCleared)
	assert.Equal(t, 7, result.ItemsCleared)
	assert.Nil(t, accounts.account)
	assert.Nil(t, markers.marker)
	assert.Nil(t, snaps.snap)
}

// A dead remote must not leave the installation stuck half-connected.
func TestDisconnect_RemoteFailureStillCleansUp(t *testing.T) {
	accounts := &fakeAccounts{account: connectedAccount(t)}
	cloud := &fakeCloud{disconnectErr: apperrors.NewTransportError("timeout")}
	uc := NewDisconnectUseCase(accounts, &fakeMarkers{}, plainCipher{}, cloud, &fakeSnapshots{}, &fakeCanceller{}, logger.NewLogger())

	result, err := uc.Execute(context.Background(), DisconnectCommand{})
	require.NoError(t, err)
	assert.False(t, result.RemoteNotified)
	assert.Nil(t, accounts.account)
}

func TestDisconnect_NotConnected(t *testing.T) {
	uc := NewDisconnectUseCase(&fakeAccounts{}, &fakeMarkers{}, plainCipher{}, &fakeCloud{}, &fakeSnapshots{}, &fakeCanceller{}, logger.NewLogger())

	_, err := uc.Execute(context.Background(), DisconnectCommand{})
	assert.True(t, apperrors.IsNotFoundError(err))
}
