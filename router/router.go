// api/router/router.go

package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dev-mohitbeniwal/warden/api/audit"
	"github.com/dev-mohitbeniwal/warden/api/controller"
	"github.com/dev-mohitbeniwal/warden/api/middleware"
	"github.com/dev-mohitbeniwal/warden/api/pdp"
	"github.com/dev-mohitbeniwal/warden/api/util"
)

func SetupRouter(
	authzController *controller.AuthzController,
	policyStore pdp.IPolicyStore,
	auditService audit.Service,
	rateLimitRequests int,
	rateLimitDuration time.Duration,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Decision API: callers present roles explicitly, no token needed.
	api := router.Group("/api/v1")
	api.Use(middleware.RateLimiter(rateLimitRequests, rateLimitDuration))
	authzController.RegisterRoutes(api)

	// Forward-auth endpoint for gateways (nginx auth_request, traefik
	// forwardAuth). The gateway sends the original request's method and
	// path in X-Forwarded-* headers; 2xx here means let it through.
	router.Any("/verify", middleware.Authorizer(policyStore, auditService), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"principalID": util.GetPrincipalIDFromContext(c)})
	})

	return router
}
