// api/pdp/store_test.go
package pdp

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	warden_errors "github.com/dev-mohitbeniwal/warden/api/errors"
	logger "github.com/dev-mohitbeniwal/warden/api/logging"
	"github.com/dev-mohitbeniwal/warden/api/model"
)

func TestMain(m *testing.M) {
	logger.InitLogger()
	defer logger.Sync()
	os.Exit(m.Run())
}

// stubLoader is a scriptable RolePolicyLoader.
type stubLoader struct {
	policies []model.RolePolicy
	err      error
	calls    int
}

func (s *stubLoader) LoadActivePolicies(ctx context.Context) ([]model.RolePolicy, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.policies, nil
}

func adminHelloPolicy() model.RolePolicy {
	return model.RolePolicy{
		ID:       "rp-1",
		RoleName: "admin",
		Policy: model.PolicyDocument{
			Statements: []model.PolicyStatement{
				{
					Effect:    model.EffectAllow,
					Resources: []model.PolicyResource{{Path: "/hello", Methods: []string{"GET"}}},
				},
			},
		},
	}
}

// testClock is a manually advanced time source.
type testClock struct {
	current time.Time
}

func (tc *testClock) now() time.Time {
	return tc.current
}

func newTestStore(loader RolePolicyLoader, clock *testClock) *PolicyStore {
	return NewPolicyStore(loader,
		WithCacheTTL(5*time.Minute),
		WithClock(clock.now),
	)
}

func TestValidateRequest_EndToEnd(t *testing.T) {
	loader := &stubLoader{policies: []model.RolePolicy{adminHelloPolicy()}}
	clock := &testClock{current: time.Now()}
	store := newTestStore(loader, clock)
	ctx := context.Background()

	allowed, err := store.ValidateRequest(ctx, []string{"admin"}, "GET", "/hello")
	require.NoError(t, err)
	assert.True(t, allowed)

	// No policy for this role
	allowed, err = store.ValidateRequest(ctx, []string{"user"}, "GET", "/hello")
	require.NoError(t, err)
	assert.False(t, allowed)

	// Method not granted
	allowed, err = store.ValidateRequest(ctx, []string{"admin"}, "POST", "/hello")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestValidateRequest_EmptyRoles(t *testing.T) {
	loader := &stubLoader{policies: []model.RolePolicy{adminHelloPolicy()}}
	clock := &testClock{current: time.Now()}
	store := newTestStore(loader, clock)

	allowed, err := store.ValidateRequest(context.Background(), nil, "GET", "/hello")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Zero(t, loader.calls, "empty roles must not hit the backing store")
}

func TestValidateRequest_RoleMatchIsCaseSensitive(t *testing.T) {
	loader := &stubLoader{policies: []model.RolePolicy{adminHelloPolicy()}}
	clock := &testClock{current: time.Now()}
	store := newTestStore(loader, clock)

	allowed, err := store.ValidateRequest(context.Background(), []string{"Admin"}, "GET", "/hello")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestLoadPolicies_CacheStaleness(t *testing.T) {
	loader := &stubLoader{policies: []model.RolePolicy{adminHelloPolicy()}}
	clock := &testClock{current: time.Now()}
	store := newTestStore(loader, clock)
	ctx := context.Background()

	_, err := store.LoadPolicies(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, loader.calls)

	// Just inside the staleness window: cached snapshot served
	clock.current = clock.current.Add(5*time.Minute - time.Millisecond)
	_, err = store.LoadPolicies(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, loader.calls)

	// Just past the window: refresh triggered
	clock.current = clock.current.Add(2 * time.Millisecond)
	_, err = store.LoadPolicies(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, loader.calls)
}

func TestLoadPolicies_ForceRefresh(t *testing.T) {
	loader := &stubLoader{policies: []model.RolePolicy{adminHelloPolicy()}}
	clock := &testClock{current: time.Now()}
	store := newTestStore(loader, clock)
	ctx := context.Background()

	_, err := store.LoadPolicies(ctx, false)
	require.NoError(t, err)
	_, err = store.LoadPolicies(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 2, loader.calls)
}

func TestLoadPolicies_EmptyStoreIsCacheable(t *testing.T) {
	loader := &stubLoader{}
	clock := &testClock{current: time.Now()}
	store := newTestStore(loader, clock)
	ctx := context.Background()

	policies, err := store.LoadPolicies(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, policies)

	// The empty snapshot is cached like any other
	_, err = store.LoadPolicies(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, loader.calls)

	allowed, err := store.ValidateRequest(ctx, []string{"admin"}, "GET", "/hello")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestLoadPolicies_MalformedDataAbortsRefresh(t *testing.T) {
	loader := &stubLoader{policies: []model.RolePolicy{adminHelloPolicy()}}
	clock := &testClock{current: time.Now()}
	store := newTestStore(loader, clock)
	ctx := context.Background()

	allowed, err := store.ValidateRequest(ctx, []string{"admin"}, "GET", "/hello")
	require.NoError(t, err)
	assert.True(t, allowed)

	// The store starts returning a policy with no statements
	loader.policies = []model.RolePolicy{{RoleName: "admin"}}
	clock.current = clock.current.Add(6 * time.Minute)

	// The refresh fails validation but the previous snapshot keeps serving
	allowed, err = store.ValidateRequest(ctx, []string{"admin"}, "GET", "/hello")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 2, loader.calls)
}

func TestLoadPolicies_StoreErrorServesStale(t *testing.T) {
	loader := &stubLoader{policies: []model.RolePolicy{adminHelloPolicy()}}
	clock := &testClock{current: time.Now()}
	store := newTestStore(loader, clock)
	ctx := context.Background()

	_, err := store.LoadPolicies(ctx, false)
	require.NoError(t, err)

	loader.err = warden_errors.ErrDatabaseOperation
	clock.current = clock.current.Add(6 * time.Minute)

	policies, err := store.LoadPolicies(ctx, false)
	require.NoError(t, err)
	assert.Len(t, policies, 1)
}

func TestLoadPolicies_StoreErrorWithoutCachePropagates(t *testing.T) {
	loader := &stubLoader{err: warden_errors.ErrDatabaseOperation}
	clock := &testClock{current: time.Now()}
	store := newTestStore(loader, clock)

	_, err := store.ValidateRequest(context.Background(), []string{"admin"}, "GET", "/hello")
	require.Error(t, err)
	assert.True(t, errors.Is(err, warden_errors.ErrDatabaseOperation))
}

func TestLoadPolicies_ForcedRefreshErrorPropagates(t *testing.T) {
	loader := &stubLoader{policies: []model.RolePolicy{adminHelloPolicy()}}
	clock := &testClock{current: time.Now()}
	store := newTestStore(loader, clock)
	ctx := context.Background()

	_, err := store.LoadPolicies(ctx, false)
	require.NoError(t, err)

	loader.err = warden_errors.ErrDatabaseOperation
	_, err = store.LoadPolicies(ctx, true)
	require.Error(t, err)
}

func TestIsAuthorized_BypassesStore(t *testing.T) {
	loader := &stubLoader{}
	clock := &testClock{current: time.Now()}
	store := newTestStore(loader, clock)

	docs := []model.PolicyDocument{
		{
			Statements: []model.PolicyStatement{
				{
					Effect:    model.EffectAllow,
					Resources: []model.PolicyResource{{Path: "/offline", Methods: []string{"GET"}}},
				},
			},
		},
	}

	assert.True(t, store.IsAuthorized(docs, "GET", "/offline"))
	assert.Zero(t, loader.calls)
}
