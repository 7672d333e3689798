// api/middleware/authorizer.go
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/dev-mohitbeniwal/warden/api/audit"
	logger "github.com/dev-mohitbeniwal/warden/api/logging"
	"github.com/dev-mohitbeniwal/warden/api/pdp"
)

// AuthClaims are the token claims the authorizer consumes. Signature
// verification happens upstream at the gateway; this layer only extracts
// the already-verified identity.
type AuthClaims struct {
	jwt.RegisteredClaims
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
}

// Authorizer enforces role-based access on every request it wraps.
// A missing or unreadable token is 401, a routine denial is 403, and an
// engine failure (store outage, malformed policies) is 500 — never
// conflated with a denial, so operators can tell the two apart.
func Authorizer(store pdp.IPolicyStore, auditSvc audit.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := parseClaimsUnverified(c.GetHeader("Authorization"))
		if err != nil {
			logger.Warn("Missing or invalid authorization token",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		if len(claims.Roles) == 0 {
			logger.Warn("Token carries no roles",
				zap.String("principalID", claims.UserID),
				zap.String("path", c.Request.URL.Path))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		// Forward-auth callers relay the original request's method and
		// path in headers; direct callers are judged on the request itself.
		method := c.GetHeader("X-Forwarded-Method")
		if method == "" {
			method = c.Request.Method
		}
		path := c.GetHeader("X-Forwarded-Uri")
		if path == "" {
			path = c.Request.URL.Path
		}

		allowed, err := store.ValidateRequest(c.Request.Context(), claims.Roles, method, path)
		if err != nil {
			// Could not determine authorization. This is an operational
			// incident, not an access decision.
			logger.Error("Authorization engine failure",
				zap.Error(err),
				zap.String("principalID", claims.UserID),
				zap.Strings("roles", claims.Roles),
				zap.String("method", method),
				zap.String("path", path))
			recordDecision(c, auditSvc, claims, method, path, false, "engine error: "+err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Authorization unavailable"})
			c.Abort()
			return
		}

		if !allowed {
			logger.Warn("Access denied by role policy",
				zap.String("principalID", claims.UserID),
				zap.Strings("roles", claims.Roles),
				zap.String("method", method),
				zap.String("path", path))
			recordDecision(c, auditSvc, claims, method, path, false, "denied by role policy")
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			c.Abort()
			return
		}

		recordDecision(c, auditSvc, claims, method, path, true, "")
		c.Set("principalID", claims.UserID)
		c.Set("roles", claims.Roles)
		c.Next()
	}
}

// parseClaimsUnverified extracts claims from a Bearer token without
// checking the signature. Verification is the gateway's job.
func parseClaimsUnverified(header string) (*AuthClaims, error) {
	tokenString := strings.TrimPrefix(header, "Bearer ")
	if tokenString == "" {
		return nil, jwt.ErrTokenMalformed
	}

	claims := &AuthClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(tokenString, claims)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// recordDecision writes the audit entry off the request path so a slow
// audit sink cannot stall the caller.
func recordDecision(c *gin.Context, auditSvc audit.Service, claims *AuthClaims, method, path string, granted bool, reason string) {
	if auditSvc == nil {
		return
	}

	entry := audit.DecisionLog{
		Timestamp:     time.Now(),
		RequestID:     c.GetString("requestID"),
		PrincipalID:   claims.UserID,
		Roles:         claims.Roles,
		Method:        method,
		Path:          path,
		AccessGranted: granted,
		Reason:        reason,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := auditSvc.LogDecision(ctx, entry); err != nil {
			logger.Error("Failed to write decision audit log", zap.Error(err))
		}
	}()
}
