// api/dao/role_policy_dao_test.go
package dao

import (
	"errors"
	"os"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
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

func rolePolicyNode(props map[string]interface{}) neo4j.Node {
	return neo4j.Node{
		Id:     1,
		Labels: []string{LabelRolePolicy},
		Props:  props,
	}
}

func TestMapNodeToRolePolicy_FullRecord(t *testing.T) {
	node := rolePolicyNode(map[string]interface{}{
		"id":       "rp-1",
		"roleName": "admin",
		"policy":   `{"statements":[{"effect":"Allow","resources":[{"path":"/hello","methods":["GET"]}]}]}`,
		"isActive": true,
	})

	rp, err := mapNodeToRolePolicy(node)
	require.NoError(t, err)
	assert.Equal(t, "rp-1", rp.ID)
	assert.Equal(t, "admin", rp.RoleName)
	assert.True(t, rp.Active())
	assert.Equal(t, model.EffectAllow, rp.Policy.Statements[0].Effect)
}

func TestMapNodeToRolePolicy_AbsentIsActiveDefaultsToActive(t *testing.T) {
	node := rolePolicyNode(map[string]interface{}{
		"roleName": "sales",
		"policy":   `{"statements":[{"effect":"Deny","resources":[{"path":"/admin/*","methods":["GET"]}]}]}`,
	})

	rp, err := mapNodeToRolePolicy(node)
	require.NoError(t, err)
	assert.Nil(t, rp.IsActive)
	assert.True(t, rp.Active())
}

func TestMapNodeToRolePolicy_MissingRoleName(t *testing.T) {
	node := rolePolicyNode(map[string]interface{}{
		"policy": `{"statements":[]}`,
	})

	_, err := mapNodeToRolePolicy(node)
	require.Error(t, err)
	assert.True(t, errors.Is(err, warden_errors.ErrInvalidPolicyData))
}

func TestMapNodeToRolePolicy_MissingPolicy(t *testing.T) {
	node := rolePolicyNode(map[string]interface{}{
		"roleName": "admin",
	})

	_, err := mapNodeToRolePolicy(node)
	require.Error(t, err)
	assert.True(t, errors.Is(err, warden_errors.ErrInvalidPolicyData))
}

func TestMapNodeToRolePolicy_UnknownFieldInPolicyRejected(t *testing.T) {
	node := rolePolicyNode(map[string]interface{}{
		"roleName": "admin",
		"policy":   `{"statements":[{"effect":"Allow","resources":[{"path":"/x","methods":["GET"]}]}],"extra":true}`,
	})

	_, err := mapNodeToRolePolicy(node)
	require.Error(t, err)
	assert.True(t, errors.Is(err, warden_errors.ErrInvalidPolicyData))
}
