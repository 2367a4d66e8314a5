package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"revisor/internal/domain/repositories"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Projects         string
	Documents        string
	DocumentVersions string
	AiRequests       string
	AiResponses      string
	UsageTracking    string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Projects:         fmt.Sprintf("%sprojects", prefix),
		Documents:        fmt.Sprintf("%sdocuments", prefix),
		DocumentVersions: fmt.Sprintf("%sdocument_versions", prefix),
		AiRequests:       fmt.Sprintf("%sai_requests", prefix),
		AiResponses:      fmt.Sprintf("%sai_responses", prefix),
		UsageTracking:    fmt.Sprintf("%susage_tracking", prefix),
	}
}

// CreateConnectionPool creates a new pgx connection pool.
//
// By default, pgx caches prepared statements, which breaks behind PgBouncer
// in transaction pooling mode (port 6543 on hosted Postgres). When that port
// is detected and the user has not overridden default_query_exec_mode in the
// connection string, the pool falls back to QueryExecModeCacheDescribe: it
// still uses the extended protocol (required for JSONB encoding of
// map[string]interface{} values) but caches statement descriptions instead
// of prepared statements.
//
// Dynamic table prefixes (dev_, test_, prod_) interpolated with fmt.Sprintf
// are safe with statement caching because the SQL text is fixed before it is
// sent; each environment gets its own statements.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	// Configure pool size
	config.MaxConns = 25
	config.MinConns = 5

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the appropriate query executor for the context.
// If a transaction is present in the context, it returns the transaction.
// Otherwise, it returns the provided pool.
// This enables repositories to automatically participate in transactions when they exist.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
