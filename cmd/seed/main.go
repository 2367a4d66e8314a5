package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"revisor/internal/config"
	"revisor/internal/diff"
	docsysSvc "revisor/internal/domain/services/docsystem"
	"revisor/internal/repository/postgres"
	postgresDocsys "revisor/internal/repository/postgres/docsystem"
	serviceDocsys "revisor/internal/service/docsystem"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed demo data")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("🚫 BLOCKED: Cannot run --drop-tables in production environment")
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if *schemaOnly {
		log.Printf("🏗️  Setting up schema only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	} else {
		log.Printf("🌱 Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	}

	// Create database connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Create table names
	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Drop tables if requested
	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	// Run schema to ensure tables exist
	log.Println("📋 Ensuring database schema is up to date...")
	if err := runSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	if *schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	// Create repositories and services for demo data
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	projectRepo := postgresDocsys.NewProjectRepository(repoConfig)
	docRepo := postgresDocsys.NewDocumentRepository(repoConfig)
	versionRepo := postgresDocsys.NewVersionRepository(repoConfig)

	projectService := serviceDocsys.NewProjectService(projectRepo, cfg.DefaultModel, logger)
	docService := serviceDocsys.NewDocumentService(docRepo, projectRepo, logger)
	versionStore := serviceDocsys.NewVersionStore(docRepo, versionRepo, diff.NewEngine(), logger)

	log.Println("📝 Seeding demo project with versioned documents...")
	if err := seedDemoData(ctx, projectService, docService, versionStore); err != nil {
		log.Fatalf("Failed to seed demo data: %v", err)
	}

	log.Println("🎉 Seeding complete!")
}

// runSchema creates tables if they don't exist
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	// Enable UUID extension
	_, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"")
	if err != nil {
		return err
	}

	// Create projects table
	createProjects := `
		CREATE TABLE IF NOT EXISTS ` + tables.Projects + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			name TEXT NOT NULL,
			ai_budget NUMERIC(14, 6),
			ai_model TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createProjects); err != nil {
		return err
	}

	// Create documents table
	createDocuments := `
		CREATE TABLE IF NOT EXISTS ` + tables.Documents + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			project_id UUID NOT NULL REFERENCES ` + tables.Projects + `(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			doc_type TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'DRAFT',
			metadata JSONB,
			created_by UUID NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createDocuments); err != nil {
		return err
	}

	// Create document versions table. The unique constraint on
	// (document_id, version) is the mutual-exclusion mechanism for
	// concurrent version allocation; the CHECK keeps numbering positive.
	createVersions := `
		CREATE TABLE IF NOT EXISTS ` + tables.DocumentVersions + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			document_id UUID NOT NULL REFERENCES ` + tables.Documents + `(id) ON DELETE CASCADE,
			version INTEGER NOT NULL CHECK (version > 0),
			content TEXT NOT NULL,
			diff_from_previous TEXT,
			commit_hash TEXT,
			created_by UUID NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE(document_id, version)
		)
	`
	if _, err := pool.Exec(ctx, createVersions); err != nil {
		return err
	}

	// Create AI requests table
	createRequests := `
		CREATE TABLE IF NOT EXISTS ` + tables.AiRequests + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			project_id UUID REFERENCES ` + tables.Projects + `(id) ON DELETE CASCADE,
			user_id UUID NOT NULL,
			request_type TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'PENDING',
			prompt TEXT NOT NULL,
			context JSONB,
			model TEXT NOT NULL,
			failure_reason TEXT,
			total_tokens BIGINT,
			total_cost NUMERIC(14, 6),
			finalized_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createRequests); err != nil {
		return err
	}

	// Create AI responses table
	createResponses := `
		CREATE TABLE IF NOT EXISTS ` + tables.AiResponses + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			request_id UUID NOT NULL REFERENCES ` + tables.AiRequests + `(id) ON DELETE CASCADE,
			content TEXT NOT NULL,
			tokens_used INTEGER NOT NULL DEFAULT 0,
			model TEXT NOT NULL,
			finish_reason TEXT,
			metadata JSONB,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createResponses); err != nil {
		return err
	}

	// Create usage tracking table. The CHECK enforces the token-sum
	// invariant at the storage boundary as well as in the service.
	createUsage := `
		CREATE TABLE IF NOT EXISTS ` + tables.UsageTracking + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			request_id UUID NOT NULL REFERENCES ` + tables.AiRequests + `(id) ON DELETE CASCADE,
			model TEXT NOT NULL,
			prompt_tokens INTEGER NOT NULL CHECK (prompt_tokens >= 0),
			completion_tokens INTEGER NOT NULL CHECK (completion_tokens >= 0),
			total_tokens INTEGER NOT NULL CHECK (total_tokens = prompt_tokens + completion_tokens),
			cost_estimate NUMERIC(14, 6),
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createUsage); err != nil {
		return err
	}

	// Create indexes
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `documents_project_id ON ` + tables.Documents + `(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `document_versions_document_id ON ` + tables.DocumentVersions + `(document_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `ai_requests_project_id ON ` + tables.AiRequests + `(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `ai_requests_status ON ` + tables.AiRequests + `(status)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `ai_responses_request_id ON ` + tables.AiResponses + `(request_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `usage_tracking_request_id ON ` + tables.UsageTracking + `(request_id)`,
	}

	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return err
		}
	}

	return nil
}

// dropAllTables drops all tables in reverse order (to respect foreign keys)
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	tableNames := []string{
		tables.UsageTracking,
		tables.AiResponses,
		tables.AiRequests,
		tables.DocumentVersions,
		tables.Documents,
		tables.Projects,
	}

	for _, table := range tableNames {
		dropSQL := "DROP TABLE IF EXISTS " + table + " CASCADE"
		if _, err := pool.Exec(ctx, dropSQL); err != nil {
			return err
		}
		log.Printf("  ✓ Dropped %s", table)
	}

	return nil
}

// seedDemoData creates a demo project and a document with a short version
// history, exercising the diff chain end to end
func seedDemoData(
	ctx context.Context,
	projectService docsysSvc.ProjectService,
	docService docsysSvc.DocumentService,
	versionStore docsysSvc.VersionStore,
) error {
	budget := "25.00"
	project, err := projectService.CreateProject(ctx, &docsysSvc.CreateProjectRequest{
		Name:     "Demo Project",
		AIBudget: &budget,
	})
	if err != nil {
		return err
	}
	log.Printf("✅ Created project %s (budget %s)", project.ID, budget)

	seedUserID := "00000000-0000-0000-0000-000000000001"

	doc, err := docService.CreateDocument(ctx, &docsysSvc.CreateDocumentRequest{
		ProjectID: project.ID,
		UserID:    seedUserID,
		Title:     "Getting Started",
		Type:      "guide",
		Metadata:  map[string]interface{}{"seed": true},
	})
	if err != nil {
		return err
	}
	log.Printf("✅ Created document %s", doc.ID)

	contents := []string{
		"# Getting Started\n\nWelcome to the project.\n",
		"# Getting Started\n\nWelcome to the project.\n\n## Setup\n\nRun the seed command first.\n",
		"# Getting Started\n\nWelcome aboard.\n\n## Setup\n\nRun the seed command first.\n\n## Next Steps\n\nSubmit your first document version.\n",
	}

	for i, content := range contents {
		v, err := versionStore.CreateVersion(ctx, &docsysSvc.CreateVersionRequest{
			DocumentID: doc.ID,
			AuthorID:   seedUserID,
			Content:    content,
		})
		if err != nil {
			return err
		}
		log.Printf("✅ Created version %d/%d (v%d)", i+1, len(contents), v.Version)
	}

	report, err := versionStore.VerifyChain(ctx, doc.ID)
	if err != nil {
		return err
	}
	log.Printf("✅ Version chain verified: intact=%v versions=%d", report.Intact, report.Versions)

	return nil
}
