// api/pdp/engine/evaluator.go
package engine

import (
	"strings"

	"go.uber.org/zap"

	logger "github.com/dev-mohitbeniwal/warden/api/logging"
	"github.com/dev-mohitbeniwal/warden/api/model"
)

type PolicyEvaluator struct {
	patterns *patternCache
}

func NewPolicyEvaluator() *PolicyEvaluator {
	return &PolicyEvaluator{
		patterns: newPatternCache(),
	}
}

// IsAuthorized decides whether the given method and route are permitted by
// the policy documents. Statements are scanned in document order, then
// statement order, then resource order. A matching Deny statement returns
// false immediately; a matching Allow is tentative until the scan finishes
// without a Deny. No matching statement at all means denied.
func (pe *PolicyEvaluator) IsAuthorized(documents []model.PolicyDocument, method, route string) bool {
	upperMethod := strings.ToUpper(method)

	allowed := false
	for _, doc := range documents {
		for _, stmt := range doc.Statements {
			for _, resource := range stmt.Resources {
				if !pe.resourceMatches(resource, upperMethod, route) {
					continue
				}

				if stmt.Effect == model.EffectDeny {
					logger.Debug("Request denied by explicit deny statement",
						zap.String("method", upperMethod),
						zap.String("route", route),
						zap.String("pattern", resource.Path))
					return false // Deny always wins
				}
				if stmt.Effect == model.EffectAllow {
					allowed = true
				}
			}
		}
	}

	return allowed
}

func (pe *PolicyEvaluator) resourceMatches(resource model.PolicyResource, upperMethod, route string) bool {
	methodMatches := false
	for _, m := range resource.Methods {
		if m == upperMethod {
			methodMatches = true
			break
		}
	}
	if !methodMatches {
		return false
	}

	return pe.patterns.match(resource.Path, route)
}
