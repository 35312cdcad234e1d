package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/domain/repositories"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Sessions  string
	Documents string
	Topics    string
	Chats     string
	Chunks    string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Sessions:  fmt.Sprintf("%sstudy_sessions", prefix),
		Documents: fmt.Sprintf("%sdocuments", prefix),
		Topics:    fmt.Sprintf("%stopics", prefix),
		Chats:     fmt.Sprintf("%schats", prefix),
		Chunks:    fmt.Sprintf("%sdocument_chunks", prefix),
	}
}

// All returns every table in dependency order, parents first.
func (t *TableNames) All() []string {
	return []string{t.Sessions, t.Documents, t.Topics, t.Chats, t.Chunks}
}

// CreateConnectionPool creates a pgx connection pool.
//
// Supabase's transaction pooler (port 6543) runs PgBouncer, which does not
// support prepared statements. On that port the pool switches to
// QueryExecModeCacheDescribe: it keeps the extended protocol, so JSONB and
// vector parameters are still typed, but never creates named statements.
// An explicit default_query_exec_mode in the URL takes precedence.
//
// Table prefixes are interpolated before a statement is sent, so each
// environment (dev_, test_, prod_) gets its own cached descriptions.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

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
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the transaction carried by ctx, falling back to pool.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
