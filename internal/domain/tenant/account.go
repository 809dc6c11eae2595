package tenant

import (
	"fmt"
	"time"
)

// SubscriptionStatus is the status reported by the remote account service.
type SubscriptionStatus string

const (
	SubStatusActive          SubscriptionStatus = "active"
	SubStatusTrial           SubscriptionStatus = "trial"
	SubStatusPendingApproval SubscriptionStatus = "pending_approval"
	SubStatusInactive        SubscriptionStatus = "inactive"
	SubStatusExpired         SubscriptionStatus = "expired"
	SubStatusUnknown         SubscriptionStatus = "unknown"
)

// IsKnown reports whether the status is one the resolver understands.
func (s SubscriptionStatus) IsKnown() bool {
	switch s {
	case SubStatusActive, SubStatusTrial, SubStatusPendingApproval, SubStatusInactive, SubStatusExpired:
		return true
	}
	return false
}

// Plan is the subscription plan of the tenant.
type Plan string

const (
	PlanFreeTrial    Plan = "free_trial"
	PlanStarter      Plan = "starter"
	PlanProfessional Plan = "professional"
	PlanBusiness     Plan = "business"
	PlanEnterprise   Plan = "enterprise"
)

var validPlans = map[Plan]bool{
	PlanFreeTrial:    true,
	PlanStarter:      true,
	PlanProfessional: true,
	PlanBusiness:     true,
	PlanEnterprise:   true,
}

// Account is the tenant account aggregate. There is exactly one per
// installation; it is created on successful registration, refreshed on every
// successful remote status call, and cleared entirely on disconnect.
type Account struct {
	id              uint
	tenantID        string
	apiKeyCipher    []byte // encrypted at rest, never held in plaintext here
	status          SubscriptionStatus
	plan            Plan
	featuresEnabled []string
	lastSyncedAt    time.Time
	createdAt       time.Time
	updatedAt       time.Time
}

// NewAccount creates the account after a successful registration call.
func NewAccount(tenantID string, apiKeyCipher []byte, status SubscriptionStatus, plan Plan) (*Account, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant ID is required")
	}
	if len(apiKeyCipher) == 0 {
		return nil, fmt.Errorf("encrypted API key is required")
	}
	if plan != "" && !validPlans[plan] {
		return nil, fmt.Errorf("invalid plan: %s", plan)
	}
	now := time.Now().UTC()
	return &Account{
		tenantID:     tenantID,
		apiKeyCipher: apiKeyCipher,
		status:       status,
		plan:         plan,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// ReconstructAccount rebuilds the aggregate from persistence.
func ReconstructAccount(
	id uint,
	tenantID string,
	apiKeyCipher []byte,
	status SubscriptionStatus,
	plan Plan,
	featuresEnabled []string,
	lastSyncedAt time.Time,
	createdAt, updatedAt time.Time,
) (*Account, error) {
	if id == 0 {
		return nil, fmt.Errorf("account ID cannot be zero")
	}
	if tenantID == "" {
		return nil, fmt.Errorf("tenant ID is required")
	}
	return &Account{
		id:              id,
		tenantID:        tenantID,
		apiKeyCipher:    apiKeyCipher,
		status:          status,
		plan:            plan,
		featuresEnabled: featuresEnabled,
		lastSyncedAt:    lastSyncedAt,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}, nil
}

func (a *Account) ID() uint                   { return a.id }
func (a *Account) TenantID() string           { return a.tenantID }
func (a *Account) APIKeyCipher() []byte       { return a.apiKeyCipher }
func (a *Account) Status() SubscriptionStatus { return a.status }
func (a *Account) Plan() Plan                 { return a.plan }
func (a *Account) FeaturesEnabled() []string  { return a.featuresEnabled }
func (a *Account) LastSyncedAt() time.Time    { return a.lastSyncedAt }
func (a *Account) CreatedAt() time.Time       { return a.createdAt }
func (a *Account) UpdatedAt() time.Time       { return a.updatedAt }

// SetID assigns the persistence identity after the initial insert.
func (a *Account) SetID(id uint) error {
	if a.id != 0 {
		return fmt.Errorf("account ID already set")
	}
	if id == 0 {
		return fmt.Errorf("account ID cannot be zero")
	}
	a.id = id
	return nil
}

// HasFeature reports whether a feature tag is enabled for the tenant.
func (a *Account) HasFeature(tag string) bool {
	for _, f := range a.featuresEnabled {
		if f == tag {
			return true
		}
	}
	return false
}

// RefreshFromRemote applies the fields of a successful remote status call.
func (a *Account) RefreshFromRemote(status SubscriptionStatus, plan Plan, features []string, syncedAt time.Time) {
	a.status = status
	if plan != "" {
		a.plan = plan
	}
	a.featuresEnabled = features
	a.lastSyncedAt = syncedAt
	a.updatedAt = time.Now().UTC()
}
