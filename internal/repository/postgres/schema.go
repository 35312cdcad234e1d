package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ArthurLoboLobo/projeto-estudos/internal/config"
)

// SchemaStatements returns the DDL for every table and index, in the order
// it must run. All statements are idempotent.
func SchemaStatements(tables *TableNames, tablePrefix string) []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Sessions + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id TEXT NOT NULL,
			title VARCHAR(255) NOT NULL,
			description TEXT,
			status TEXT NOT NULL DEFAULT 'UPLOADING',
			draft_plan JSONB,
			plan_history JSONB NOT NULL DEFAULT '[]'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Documents + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			session_id UUID NOT NULL REFERENCES ` + tables.Sessions + `(id) ON DELETE CASCADE,
			file_name TEXT NOT NULL,
			file_path TEXT NOT NULL,
			file_description TEXT,
			content_text TEXT,
			content_length INTEGER,
			processing_status TEXT NOT NULL DEFAULT 'PENDING',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Topics + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			session_id UUID NOT NULL REFERENCES ` + tables.Sessions + `(id) ON DELETE CASCADE,
			order_index INTEGER NOT NULL,
			title TEXT NOT NULL,
			subtopics TEXT[] NOT NULL DEFAULT '{}',
			is_completed BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE(session_id, order_index)
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Chats + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			session_id UUID NOT NULL REFERENCES ` + tables.Sessions + `(id) ON DELETE CASCADE,
			topic_id UUID REFERENCES ` + tables.Topics + `(id) ON DELETE CASCADE,
			type TEXT NOT NULL,
			is_completed BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			seq BIGINT GENERATED ALWAYS AS IDENTITY,
			document_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
			session_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
			type TEXT NOT NULL,
			chunk_text TEXT NOT NULL,
			related_topic_ids TEXT[] NOT NULL DEFAULT '{}',
			parent_chunk_id UUID REFERENCES %s(id) ON DELETE CASCADE,
			embedding vector(%d),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, tables.Chunks, tables.Documents, tables.Sessions, tables.Chunks, config.EmbeddingDimensions),

		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `study_sessions_user ON ` + tables.Sessions + `(user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `documents_session ON ` + tables.Documents + `(session_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `chats_session ON ` + tables.Chats + `(session_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `chunks_session ON ` + tables.Chunks + `(session_id, seq)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `chunks_document ON ` + tables.Chunks + `(document_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `chunks_embedding ON ` + tables.Chunks +
			` USING hnsw (embedding vector_cosine_ops)`,
	}
}

// EnsureSchema creates missing tables and indexes.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames, tablePrefix string, logger *slog.Logger) error {
	for _, stmt := range SchemaStatements(tables, tablePrefix) {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema (%s): %w", firstLine(stmt), err)
		}
	}
	logger.Info("schema ready", "tables", strings.Join(tables.All(), ","))
	return nil
}

// DropAllTables drops every table, children first.
func DropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	all := tables.All()
	for i := len(all) - 1; i >= 0; i-- {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+all[i]+" CASCADE"); err != nil {
			return fmt.Errorf("drop %s: %w", all[i], err)
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
