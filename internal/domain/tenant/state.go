package tenant

import (
	"context"
	"time"

	"threadmind/internal/shared/logger"
)

// ConnectionState is the single authoritative state the rest of the system
// gates on. It is derived, never stored.
type ConnectionState string

const (
	StateNotConnected    ConnectionState = "not_connected"
	StatePendingApproval ConnectionState = "pending_approval"
	StateError           ConnectionState = "error"
	StateInactive        ConnectionState = "inactive"
	StateExpired         ConnectionState = "expired"
	StateFreeTrial       ConnectionState = "free_trial"
	StatePaidPlan        ConnectionState = "paid_plan"
)

// CanOperate reports whether metered operations are allowed in this state.
func (s ConnectionState) CanOperate() bool {
	return s == StateFreeTrial || s == StatePaidPlan
}

// PendingMarkerTTL bounds how long a registration may be treated as pending
// before the resolver stops trusting the marker.
const PendingMarkerTTL = 24 * time.Hour

// PendingMarker is the TTL-bounded cache entry that exists only between
// registration and either activation or disconnect.
type PendingMarker struct {
	Status       SubscriptionStatus `json:"status"`
	CreditsTotal int                `json:"credits_total"`
	RegisteredAt time.Time          `json:"registered_at"`
}

// Expired reports whether the marker has outlived its TTL at the given time.
func (m *PendingMarker) Expired(now time.Time) bool {
	return now.Sub(m.RegisteredAt) > PendingMarkerTTL
}

// MarkerStore persists the pending-approval marker. Get must return
// (nil, nil) when no marker exists or the TTL has lapsed.
type MarkerStore interface {
	Get(ctx context.Context) (*PendingMarker, error)
	Put(ctx context.Context, marker *PendingMarker) error
	Delete(ctx context.Context) error
}

// AccountStatus is the payload of a successful remote status call.
type AccountStatus struct {
	TenantID         string
	Status           SubscriptionStatus
	Plan             Plan
	CreditsRemaining int
	CreditsTotal     int
	Features         []string
}

// Resolution is the outcome of a Resolve call. Cause carries the underlying
// remote failure when State is StateError; it is preserved for display,
// never fabricated.
type Resolution struct {
	State ConnectionState
	Cause error
}

// StateResolver derives the connection state from stored credentials, the
// remote status call result, and the pending marker. Deleting the marker on
// activation happens inside Resolve so a marker set during registration can
// never outlive an already-activated account.
type StateResolver struct {
	markers MarkerStore
	logger  logger.Interface
}

func NewStateResolver(markers MarkerStore, log logger.Interface) *StateResolver {
	return &StateResolver{markers: markers, logger: log}
}

// Resolve evaluates the states in priority order. remoteErr is non-nil when
// the status call failed; status is only consulted when remoteErr is nil.
func (r *StateResolver) Resolve(ctx context.Context, hasStoredCredentials bool, status *AccountStatus, remoteErr error) Resolution {
	marker, err := r.markers.Get(ctx)
	if err != nil {
		// A broken marker store must not mask an otherwise healthy account;
		// treat it as marker-absent and keep resolving.
		r.logger.Warnw("failed to read pending marker", "error", err)
		marker = nil
	}

	// Activation supersedes the marker. Clear it before any pending branch
	// can fire on this or a later call.
	if remoteErr == nil && status != nil && (status.Status == SubStatusActive || status.Status == SubStatusTrial) {
		if marker != nil {
			if derr := r.markers.Delete(ctx); derr != nil {
				r.logger.Warnw("failed to clear superseded pending marker", "error", derr)
			}
			marker = nil
		}
		if status.Plan == PlanFreeTrial {
			return Resolution{State: StateFreeTrial}
		}
		return Resolution{State: StatePaidPlan}
	}

	if !hasStoredCredentials && marker == nil {
		return Resolution{State: StateNotConnected}
	}

	if marker != nil {
		return Resolution{State: StatePendingApproval}
	}

	if remoteErr != nil {
		return Resolution{State: StateError, Cause: remoteErr}
	}

	switch status.Status {
	case SubStatusPendingApproval:
		// Remote itself reports pending even though the local marker lapsed.
		return Resolution{State: StatePendingApproval}
	case SubStatusInactive:
		return Resolution{State: StateInactive}
	case SubStatusExpired:
		return Resolution{State: StateExpired}
	}

	r.logger.Warnw("remote reported unrecognized subscription status", "status", status.Status)
	return Resolution{State: StateError}
}
