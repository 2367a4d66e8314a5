package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"revisor/internal/auth"
	"revisor/internal/config"
	"revisor/internal/diff"
	"revisor/internal/handler"
	"revisor/internal/middleware"
	"revisor/internal/repository/postgres"
	postgresDocsys "revisor/internal/repository/postgres/docsystem"
	postgresLLM "revisor/internal/repository/postgres/llm"
	serviceDocsys "revisor/internal/service/docsystem"
	serviceLLM "revisor/internal/service/llm"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	var logOut io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, 10)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create JWT verifier for bearer-token authentication
	jwtVerifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	// Create table names
	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	projectRepo := postgresDocsys.NewProjectRepository(repoConfig)
	docRepo := postgresDocsys.NewDocumentRepository(repoConfig)
	versionRepo := postgresDocsys.NewVersionRepository(repoConfig)
	requestRepo := postgresLLM.NewRequestRepository(repoConfig)
	responseRepo := postgresLLM.NewResponseRepository(repoConfig)
	usageRepo := postgresLLM.NewUsageRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Load the model pricing table (built-in rates plus optional YAML override)
	pricing, err := serviceLLM.LoadPricingTable(cfg.PricingFile)
	if err != nil {
		log.Fatalf("Failed to load pricing table: %v", err)
	}

	// Create document services
	projectService := serviceDocsys.NewProjectService(projectRepo, cfg.DefaultModel, logger)
	docService := serviceDocsys.NewDocumentService(docRepo, projectRepo, logger)
	versionStore := serviceDocsys.NewVersionStore(docRepo, versionRepo, diff.NewEngine(), logger)

	// Create AI usage services
	ledger := serviceLLM.NewUsageLedger(usageRepo, requestRepo, projectRepo, pricing, logger)
	lifecycle := serviceLLM.NewRequestLifecycle(
		requestRepo,
		responseRepo,
		projectRepo,
		ledger,
		txManager,
		cfg.BudgetEnforce,
		cfg.DefaultModel,
		logger,
	)

	// Create handlers
	projectHandler := handler.NewProjectHandler(projectService, ledger, logger)
	docHandler := handler.NewDocumentHandler(docService, versionStore, logger)
	aiHandler := handler.NewAiRequestHandler(lifecycle, ledger, logger)

	logger.Info("services initialized",
		"budget_enforce", cfg.BudgetEnforce,
		"default_model", cfg.DefaultModel,
	)

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", docHandler.HealthCheck)

	// Project routes
	mux.HandleFunc("POST /api/projects", projectHandler.CreateProject)
	mux.HandleFunc("GET /api/projects/{id}", projectHandler.GetProject)
	mux.HandleFunc("GET /api/projects/{id}/usage", projectHandler.GetUsageSummary)
	mux.HandleFunc("POST /api/projects/{id}/budget-check", projectHandler.CheckBudget)
	mux.HandleFunc("GET /api/projects/{id}/documents", docHandler.ListDocuments)

	// Document routes
	mux.HandleFunc("POST /api/documents", docHandler.CreateDocument)
	mux.HandleFunc("GET /api/documents/{id}", docHandler.GetDocument)
	mux.HandleFunc("GET /api/documents/{id}/versions", docHandler.ListVersions)
	mux.HandleFunc("POST /api/documents/{id}/versions", docHandler.CreateVersion)
	mux.HandleFunc("GET /api/documents/{id}/versions/{version}", docHandler.GetVersion)
	mux.HandleFunc("GET /api/documents/{id}/verify", docHandler.VerifyChain)

	// AI request lifecycle routes
	mux.HandleFunc("POST /api/ai/requests", aiHandler.Submit)
	mux.HandleFunc("GET /api/ai/requests/{id}", aiHandler.GetRequest)
	mux.HandleFunc("POST /api/ai/requests/{id}/begin", aiHandler.BeginProcessing)
	mux.HandleFunc("POST /api/ai/requests/{id}/responses", aiHandler.RecordResponse)
	mux.HandleFunc("POST /api/ai/requests/{id}/usage", aiHandler.RecordUsage)
	mux.HandleFunc("POST /api/ai/requests/{id}/complete", aiHandler.Complete)
	mux.HandleFunc("POST /api/ai/requests/{id}/fail", aiHandler.Fail)
	mux.HandleFunc("POST /api/ai/requests/{id}/cancel", aiHandler.Cancel)

	// Build middleware chain
	var root http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS -> Recovery -> Auth -> Timeout -> Routes
	root = middleware.Timeout(config.RequestTimeout)(root)
	root = middleware.AuthMiddleware(jwtVerifier)(root)
	root = middleware.Recovery(logger)(root)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
