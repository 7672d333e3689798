// api/controller/authz_controller.go
package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	warden_errors "github.com/dev-mohitbeniwal/warden/api/errors"
	"github.com/dev-mohitbeniwal/warden/api/model"
	"github.com/dev-mohitbeniwal/warden/api/pdp"
	"github.com/dev-mohitbeniwal/warden/api/util"
)

type AuthzController struct {
	policyStore pdp.IPolicyStore
}

func NewAuthzController(policyStore pdp.IPolicyStore) *AuthzController {
	return &AuthzController{
		policyStore: policyStore,
	}
}

// RegisterRoutes registers the API routes
func (ac *AuthzController) RegisterRoutes(r *gin.RouterGroup) {
	authz := r.Group("/authz")
	{
		authz.POST("/authorize", ac.Authorize)
		authz.POST("/evaluate", ac.Evaluate)
		authz.POST("/policies/refresh", ac.RefreshPolicies)
	}
}

type AuthorizeRequest struct {
	Roles  []string `json:"roles"`
	Method string   `json:"method" binding:"required"`
	Path   string   `json:"path" binding:"required"`
}

type AuthorizeResponse struct {
	Allowed bool `json:"allowed"`
}

// Authorize endpoint decides allow/deny against the stored role policies.
// A denial is a 200 with allowed=false; a 5xx means the decision could not
// be made and callers must not treat it as a deny.
func (ac *AuthzController) Authorize(c *gin.Context) {
	var req AuthorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid authorization request", err)
		return
	}

	allowed, err := ac.policyStore.ValidateRequest(c, req.Roles, req.Method, req.Path)
	if err != nil {
		switch {
		case errors.Is(err, warden_errors.ErrInvalidPolicyData):
			util.RespondWithError(c, http.StatusInternalServerError, "Stored policy data is malformed", err)
		case errors.Is(err, warden_errors.ErrDatabaseOperation):
			util.RespondWithError(c, http.StatusServiceUnavailable, "Policy store unavailable", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to evaluate request", warden_errors.ErrInternalServer)
		}
		return
	}

	c.JSON(http.StatusOK, AuthorizeResponse{Allowed: allowed})
}

type EvaluateRequest struct {
	Documents []model.PolicyDocument `json:"documents" binding:"required"`
	Method    string                 `json:"method" binding:"required"`
	Path      string                 `json:"path" binding:"required"`
}

// Evaluate endpoint runs the evaluator over caller-supplied documents,
// bypassing the store. Useful for testing a policy before persisting it.
func (ac *AuthzController) Evaluate(c *gin.Context) {
	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid evaluation request", err)
		return
	}

	for _, doc := range req.Documents {
		if verr := model.ValidatePolicyDocument(doc); verr != nil {
			util.RespondWithError(c, http.StatusBadRequest, verr.Error(), warden_errors.ErrInvalidPolicyData)
			return
		}
	}

	allowed := ac.policyStore.IsAuthorized(req.Documents, req.Method, req.Path)
	c.JSON(http.StatusOK, AuthorizeResponse{Allowed: allowed})
}

type RefreshResponse struct {
	PolicyCount int `json:"policyCount"`
}

// RefreshPolicies endpoint forces a synchronous reload from the backing store.
func (ac *AuthzController) RefreshPolicies(c *gin.Context) {
	policies, err := ac.policyStore.LoadPolicies(c, true)
	if err != nil {
		switch {
		case errors.Is(err, warden_errors.ErrInvalidPolicyData):
			util.RespondWithError(c, http.StatusInternalServerError, "Stored policy data is malformed", err)
		case errors.Is(err, warden_errors.ErrDatabaseOperation):
			util.RespondWithError(c, http.StatusServiceUnavailable, "Policy store unavailable", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to refresh policies", warden_errors.ErrInternalServer)
		}
		return
	}

	c.JSON(http.StatusOK, RefreshResponse{PolicyCount: len(policies)})
}
