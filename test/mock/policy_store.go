// test/mock/policy_store.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dev-mohitbeniwal/warden/api/model"
)

// MockPolicyStore is a mock implementation of pdp.IPolicyStore
type MockPolicyStore struct {
	mock.Mock
}

func (m *MockPolicyStore) ValidateRequest(ctx context.Context, roles []string, method, route string) (bool, error) {
	args := m.Called(ctx, roles, method, route)
	return args.Bool(0), args.Error(1)
}

func (m *MockPolicyStore) IsAuthorized(documents []model.PolicyDocument, method, route string) bool {
	args := m.Called(documents, method, route)
	return args.Bool(0)
}

func (m *MockPolicyStore) LoadPolicies(ctx context.Context, forceRefresh bool) ([]model.RolePolicy, error) {
	args := m.Called(ctx, forceRefresh)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RolePolicy), args.Error(1)
}
