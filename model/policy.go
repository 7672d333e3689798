// api/model/policy.go
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Effect is the closed set of outcomes a policy statement can carry.
type Effect string

const (
	EffectAllow Effect = "Allow"
	EffectDeny  Effect = "Deny"
)

// Valid reports whether the effect is one of the two known values.
func (e Effect) Valid() bool {
	return e == EffectAllow || e == EffectDeny
}

func (e *Effect) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch Effect(s) {
	case EffectAllow, EffectDeny:
		*e = Effect(s)
		return nil
	default:
		return fmt.Errorf("invalid effect %q: must be %q or %q", s, EffectAllow, EffectDeny)
	}
}

// PolicyResource pairs a route pattern with the HTTP methods it governs.
// Path patterns support named segments (/users/:id) and wildcards (/admin/*).
type PolicyResource struct {
	Path    string   `json:"path"`
	Methods []string `json:"methods"`
}

// PolicyStatement applies one effect to a set of resources.
type PolicyStatement struct {
	Effect    Effect           `json:"effect"`
	Resources []PolicyResource `json:"resources"`
}

// PolicyDocument is the full set of statements governing one role.
type PolicyDocument struct {
	Version    string            `json:"version,omitempty"`
	Statements []PolicyStatement `json:"statements"`
}

// RolePolicy is a stored mapping from a role name to its policy document.
// A nil IsActive means active.
type RolePolicy struct {
	ID       string         `json:"id"`
	RoleName string         `json:"roleName"`
	Policy   PolicyDocument `json:"policy"`
	IsActive *bool          `json:"isActive,omitempty"`
}

// Active reports whether the record should be considered by the authorizer.
func (rp RolePolicy) Active() bool {
	return rp.IsActive == nil || *rp.IsActive
}

// ParsePolicyDocument decodes a stored policy document. The schema is
// closed: any field not in the model fails the parse.
func ParsePolicyDocument(data []byte) (PolicyDocument, error) {
	var doc PolicyDocument
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return PolicyDocument{}, fmt.Errorf("failed to decode policy document: %w", err)
	}
	return doc, nil
}
