// api/pdp/store.go
package pdp

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	warden_errors "github.com/dev-mohitbeniwal/warden/api/errors"
	logger "github.com/dev-mohitbeniwal/warden/api/logging"
	"github.com/dev-mohitbeniwal/warden/api/metrics"
	"github.com/dev-mohitbeniwal/warden/api/model"
	"github.com/dev-mohitbeniwal/warden/api/pdp/engine"
)

// DefaultPolicyCacheTTL is the staleness window for cached role policies.
const DefaultPolicyCacheTTL = 5 * time.Minute

// RolePolicyLoader is the backing store contract: return every role policy
// record whose isActive flag is true or absent.
type RolePolicyLoader interface {
	LoadActivePolicies(ctx context.Context) ([]model.RolePolicy, error)
}

// IPolicyStore is what the HTTP boundary depends on.
type IPolicyStore interface {
	ValidateRequest(ctx context.Context, roles []string, method, route string) (bool, error)
	IsAuthorized(documents []model.PolicyDocument, method, route string) bool
	LoadPolicies(ctx context.Context, forceRefresh bool) ([]model.RolePolicy, error)
}

// snapshot is one consistent view of the stored policies.
type snapshot struct {
	policies  []model.RolePolicy
	fetchedAt time.Time
}

// PolicyStore resolves caller roles to policy documents and evaluates
// requests against them. Each store owns its cache; lifecycle is tied to
// the store instance, so tests can run isolated stores side by side.
type PolicyStore struct {
	loader    RolePolicyLoader
	evaluator *engine.PolicyEvaluator
	ttl       time.Duration
	now       func() time.Time

	mu    sync.RWMutex
	cache *snapshot

	refresh singleflight.Group
}

func (ps *PolicyStore) currentSnapshot() *snapshot {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.cache
}

func (ps *PolicyStore) storeSnapshot(snap *snapshot) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.cache = snap
}

// PolicyStoreOption configures a PolicyStore.
type PolicyStoreOption func(*PolicyStore)

// WithCacheTTL overrides the default staleness window.
func WithCacheTTL(ttl time.Duration) PolicyStoreOption {
	return func(ps *PolicyStore) {
		ps.ttl = ttl
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) PolicyStoreOption {
	return func(ps *PolicyStore) {
		ps.now = now
	}
}

func NewPolicyStore(loader RolePolicyLoader, opts ...PolicyStoreOption) *PolicyStore {
	ps := &PolicyStore{
		loader:    loader,
		evaluator: engine.NewPolicyEvaluator(),
		ttl:       DefaultPolicyCacheTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(ps)
	}
	return ps
}

// ValidateRequest decides whether any of the caller's roles permit the
// given method and route. Denial is a normal false return; an error means
// the decision could not be made at all (store outage with no usable
// cache, or malformed stored policies).
func (ps *PolicyStore) ValidateRequest(ctx context.Context, roles []string, method, route string) (bool, error) {
	if len(roles) == 0 {
		metrics.AuthzDecisionsTotal.WithLabelValues(metrics.DecisionDeny).Inc()
		return false, nil
	}

	allPolicies, err := ps.LoadPolicies(ctx, false)
	if err != nil {
		metrics.AuthzErrorsTotal.WithLabelValues(errorKind(err)).Inc()
		return false, err
	}

	roleSet := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	// Role matching is exact, case-sensitive string equality.
	var documents []model.PolicyDocument
	for _, rp := range allPolicies {
		if _, ok := roleSet[rp.RoleName]; ok {
			documents = append(documents, rp.Policy)
		}
	}

	allowed := ps.evaluator.IsAuthorized(documents, method, route)
	if allowed {
		metrics.AuthzDecisionsTotal.WithLabelValues(metrics.DecisionAllow).Inc()
	} else {
		metrics.AuthzDecisionsTotal.WithLabelValues(metrics.DecisionDeny).Inc()
	}
	return allowed, nil
}

// IsAuthorized evaluates documents already in hand, bypassing the store.
func (ps *PolicyStore) IsAuthorized(documents []model.PolicyDocument, method, route string) bool {
	return ps.evaluator.IsAuthorized(documents, method, route)
}

// LoadPolicies returns the cached policy set, refreshing it first when the
// cache is empty, older than the staleness window, or forceRefresh is set.
//
// Refresh failure policy: serve stale-but-known-good data. When a refresh
// fails and a previous successful snapshot exists, the error is logged and
// counted and the stale snapshot is returned, so a transient store outage
// does not deny all traffic. With no prior snapshot the error propagates.
func (ps *PolicyStore) LoadPolicies(ctx context.Context, forceRefresh bool) ([]model.RolePolicy, error) {
	cached := ps.currentSnapshot()
	if cached != nil && !forceRefresh && ps.now().Sub(cached.fetchedAt) < ps.ttl {
		return cached.policies, nil
	}

	// Concurrent refreshes collapse into one backing-store query; every
	// waiter observes the same result.
	result, err, _ := ps.refresh.Do("refresh", func() (interface{}, error) {
		return ps.refreshSnapshot(ctx)
	})
	if err != nil {
		// An explicitly forced refresh propagates its failure; the caller
		// asked for fresh data and must know it did not arrive.
		if cached != nil && !forceRefresh {
			metrics.PolicyRefreshTotal.WithLabelValues(metrics.RefreshStaleServed).Inc()
			logger.Error("Policy refresh failed, serving stale snapshot",
				zap.Error(err),
				zap.Time("fetchedAt", cached.fetchedAt),
				zap.Int("policyCount", len(cached.policies)))
			return cached.policies, nil
		}
		return nil, err
	}

	return result.(*snapshot).policies, nil
}

func (ps *PolicyStore) refreshSnapshot(ctx context.Context) (*snapshot, error) {
	start := ps.now()
	logger.Info("Refreshing role policies from backing store")

	policies, err := ps.loader.LoadActivePolicies(ctx)
	metrics.PolicyRefreshDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PolicyRefreshTotal.WithLabelValues(metrics.RefreshFailure).Inc()
		return nil, err
	}

	// Validate every record before anything is cached. One malformed
	// document aborts the whole refresh and leaves the prior cache intact.
	for _, rp := range policies {
		if verr := model.ValidatePolicyDocument(rp.Policy); verr != nil {
			metrics.PolicyRefreshTotal.WithLabelValues(metrics.RefreshFailure).Inc()
			logger.Error("Stored policy failed validation, aborting refresh",
				zap.String("roleName", rp.RoleName),
				zap.Error(verr))
			return nil, verr
		}
	}

	if len(policies) == 0 {
		// A legitimate, cacheable state, not an error.
		logger.Warn("No active role policies found in backing store")
	}

	snap := &snapshot{
		policies:  policies,
		fetchedAt: ps.now(),
	}
	ps.storeSnapshot(snap)

	metrics.PolicyRefreshTotal.WithLabelValues(metrics.RefreshSuccess).Inc()
	metrics.CachedPolicies.Set(float64(len(policies)))
	logger.Info("Policy cache refreshed",
		zap.Int("policyCount", len(policies)))
	return snap, nil
}

func errorKind(err error) string {
	if errors.Is(err, warden_errors.ErrInvalidPolicyData) {
		return "validation"
	}
	return "store"
}
