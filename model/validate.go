// api/model/validate.go
package model

import (
	"fmt"
	"regexp"
	"strings"

	warden_errors "github.com/dev-mohitbeniwal/warden/api/errors"
)

var methodPattern = regexp.MustCompile(`^[A-Z]+$`)

// Violation is a single structural problem found in a policy document.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s %s", v.Path, v.Message)
}

// ValidationError aggregates every violation found in one document.
// Errors.Is matches warden_errors.ErrInvalidPolicyData so callers can
// treat it as the generic bad-policy sentinel.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.String()
	}
	return fmt.Sprintf("invalid policy document: %s", strings.Join(msgs, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == warden_errors.ErrInvalidPolicyData
}

// ValidatePolicyDocument checks a document against the structural schema.
// All violations are collected before returning, so a malformed document
// reports every problem at once rather than just the first.
func ValidatePolicyDocument(doc PolicyDocument) *ValidationError {
	var violations []Violation

	if len(doc.Statements) == 0 {
		violations = append(violations, Violation{
			Path:    "/statements",
			Message: "must contain at least one statement",
		})
	}

	for i, stmt := range doc.Statements {
		stmtPath := fmt.Sprintf("/statements/%d", i)

		if !stmt.Effect.Valid() {
			violations = append(violations, Violation{
				Path:    stmtPath + "/effect",
				Message: fmt.Sprintf("must be %q or %q", EffectAllow, EffectDeny),
			})
		}

		if len(stmt.Resources) == 0 {
			violations = append(violations, Violation{
				Path:    stmtPath + "/resources",
				Message: "must contain at least one resource",
			})
		}

		for j, res := range stmt.Resources {
			resPath := fmt.Sprintf("%s/resources/%d", stmtPath, j)

			if res.Path == "" {
				violations = append(violations, Violation{
					Path:    resPath + "/path",
					Message: "must not be empty",
				})
			}

			if len(res.Methods) == 0 {
				violations = append(violations, Violation{
					Path:    resPath + "/methods",
					Message: "must contain at least one method",
				})
			}

			for k, method := range res.Methods {
				if !methodPattern.MatchString(method) {
					violations = append(violations, Violation{
						Path:    fmt.Sprintf("%s/methods/%d", resPath, k),
						Message: fmt.Sprintf("%q must match ^[A-Z]+$", method),
					})
				}
			}
		}
	}

	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}
