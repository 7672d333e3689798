package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dev-mohitbeniwal/warden/api/audit"
	"github.com/dev-mohitbeniwal/warden/api/config"
	"github.com/dev-mohitbeniwal/warden/api/controller"
	"github.com/dev-mohitbeniwal/warden/api/dao"
	"github.com/dev-mohitbeniwal/warden/api/db"
	logger "github.com/dev-mohitbeniwal/warden/api/logging"
	"github.com/dev-mohitbeniwal/warden/api/pdp"
	"github.com/dev-mohitbeniwal/warden/api/router"
)

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	// Initialize logger
	logger.InitLogger()
	defer logger.Sync()

	// Initialize Neo4j
	if err := db.InitNeo4j(); err != nil {
		logger.Fatal("Failed to initialize Neo4j", zap.Error(err))
	}
	defer db.CloseNeo4j()

	// Initialize Redis
	if err := db.InitRedis(); err != nil {
		logger.Fatal("Failed to initialize Redis", zap.Error(err))
	}
	defer db.CloseRedis()

	// Initialize audit trail
	auditRepository, err := audit.NewElasticsearchRepository(config.GetString("elasticsearch.url"))
	if err != nil {
		logger.Fatal("Failed to initialize audit repository", zap.Error(err))
	}
	auditService := audit.NewService(auditRepository)

	// Initialize the policy engine
	rolePolicyDAO := dao.NewRolePolicyDAO(db.Neo4jDriver)
	policyStore := pdp.NewPolicyStore(
		rolePolicyDAO,
		pdp.WithCacheTTL(config.GetDuration("authz.policyCacheTTL")),
	)

	// Initialize controllers
	authzController := controller.NewAuthzController(policyStore)

	// Set up the router
	engine := router.SetupRouter(
		authzController,
		policyStore,
		auditService,
		config.GetInt("ratelimit.requests"),
		config.GetDuration("ratelimit.window"),
	)

	// Set up the server
	server := &http.Server{
		Addr:    ":" + config.GetString("server.port"),
		Handler: engine,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", config.GetString("server.port")))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}
