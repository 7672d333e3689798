// api/errors/authz_errors.go
package errors

import "errors"

var (
	ErrDatabaseOperation  = errors.New("database operation failed")
	ErrInvalidPolicyData  = errors.New("invalid policy data")
	ErrRolePolicyNotFound = errors.New("role policy not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrMissingToken       = errors.New("missing authorization token")
	ErrInternalServer     = errors.New("internal server error")
)
