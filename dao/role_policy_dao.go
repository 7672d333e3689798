// api/dao/role_policy_dao.go
package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	warden_errors "github.com/dev-mohitbeniwal/warden/api/errors"
	logger "github.com/dev-mohitbeniwal/warden/api/logging"
	"github.com/dev-mohitbeniwal/warden/api/model"
)

// Label for role policy nodes in Neo4j.
const LabelRolePolicy = "ROLE_POLICY"

type RolePolicyDAO struct {
	Driver neo4j.Driver
}

func NewRolePolicyDAO(driver neo4j.Driver) *RolePolicyDAO {
	return &RolePolicyDAO{Driver: driver}
}

// LoadActivePolicies returns every role policy record whose isActive flag
// is true or absent (absence defaults to active). Records come back in
// roleName order so repeated loads observe a stable sequence.
func (dao *RolePolicyDAO) LoadActivePolicies(ctx context.Context) ([]model.RolePolicy, error) {
	start := time.Now()
	logger.Info("Loading active role policies from Neo4j")

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer func() {
		if err := session.Close(); err != nil {
			logger.Error("Failed to close Neo4j session", zap.Error(err))
		}
	}()

	result, err := session.ReadTransaction(func(tx neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (rp:` + LabelRolePolicy + `)
        WHERE rp.isActive IS NULL OR rp.isActive = true
        RETURN rp
        ORDER BY rp.roleName
        `
		records, err := tx.Run(query, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", warden_errors.ErrDatabaseOperation, err)
		}

		var policies []model.RolePolicy
		for records.Next() {
			node, ok := records.Record().Values[0].(neo4j.Node)
			if !ok {
				return nil, fmt.Errorf("%w: unexpected record shape", warden_errors.ErrDatabaseOperation)
			}
			rolePolicy, err := mapNodeToRolePolicy(node)
			if err != nil {
				return nil, err
			}
			policies = append(policies, rolePolicy)
		}
		if err := records.Err(); err != nil {
			return nil, fmt.Errorf("%w: %s", warden_errors.ErrDatabaseOperation, err)
		}

		return policies, nil
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to load role policies",
			zap.Error(err),
			zap.Duration("duration", duration))
		return nil, err
	}

	policies := result.([]model.RolePolicy)
	logger.Info("Loaded role policies successfully",
		zap.Int("policyCount", len(policies)),
		zap.Duration("duration", duration))

	return policies, nil
}

// Helper function to map a Neo4j node to a RolePolicy struct
func mapNodeToRolePolicy(node neo4j.Node) (model.RolePolicy, error) {
	props := node.Props
	rolePolicy := model.RolePolicy{}

	if id, ok := props["id"].(string); ok {
		rolePolicy.ID = id
	}

	roleName, ok := props["roleName"].(string)
	if !ok || roleName == "" {
		return model.RolePolicy{}, fmt.Errorf("%w: role policy node %d has no roleName", warden_errors.ErrInvalidPolicyData, node.Id)
	}
	rolePolicy.RoleName = roleName

	// The policy document is stored as a JSON string property. The schema
	// is closed, so unknown fields fail the decode.
	policyJSON, ok := props["policy"].(string)
	if !ok {
		return model.RolePolicy{}, fmt.Errorf("%w: role %q has no policy document", warden_errors.ErrInvalidPolicyData, roleName)
	}
	policy, err := model.ParsePolicyDocument([]byte(policyJSON))
	if err != nil {
		return model.RolePolicy{}, fmt.Errorf("%w: role %q: %s", warden_errors.ErrInvalidPolicyData, roleName, err)
	}
	rolePolicy.Policy = policy

	if isActive, ok := props["isActive"].(bool); ok {
		rolePolicy.IsActive = &isActive
	}

	return rolePolicy, nil
}
