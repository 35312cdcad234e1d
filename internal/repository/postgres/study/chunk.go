package study

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	models "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/models/study"
	repos "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/repositories/study"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/repository/postgres"
)

// PostgresChunkRepository implements the ChunkRepository interface
type PostgresChunkRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewChunkRepository creates a new chunk repository
func NewChunkRepository(config *postgres.RepositoryConfig) repos.ChunkRepository {
	return &PostgresChunkRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// InsertSet writes every chunk of a document in one batch. Roots are queued
// before their children so parent_chunk_id always references an existing row.
func (r *PostgresChunkRepository) InsertSet(ctx context.Context, set *models.ChunkSet) error {
	if set.Count() == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, session_id, type, chunk_text, related_topic_ids, parent_chunk_id, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.tables.Chunks)

	batch := &pgx.Batch{}
	queue := func(c models.Chunk, vec []float32) {
		base := c.Base()
		var parent *string
		if id := c.ParentID(); id != "" {
			parent = &id
		}
		var embedding *pgvector.Vector
		if len(vec) > 0 {
			v := pgvector.NewVector(vec)
			embedding = &v
		}
		related := base.RelatedTopicIDs
		if related == nil {
			related = []string{}
		}
		batch.Queue(query,
			base.ID,
			base.DocumentID,
			base.SessionID,
			string(c.Type()),
			base.Text,
			related,
			parent,
			embedding,
		)
	}

	for _, g := range set.Problems {
		queue(g.Root, nil)
	}
	for _, g := range set.Problems {
		for _, c := range g.Children {
			queue(c, c.Embedding)
		}
	}
	for _, c := range set.Theory {
		queue(c, c.Embedding)
	}

	results := postgres.GetExecutor(ctx, r.pool).SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("insert chunk %d of %d: %w", i+1, batch.Len(), err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}

	return nil
}

// DeleteByDocument removes every chunk of a document
func (r *PostgresChunkRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, r.tables.Chunks)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, documentID); err != nil {
		return fmt.Errorf("delete document chunks: %w", err)
	}
	return nil
}

// DeleteBySession removes every chunk of a session
func (r *PostgresChunkRepository) DeleteBySession(ctx context.Context, sessionID string) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE session_id = $1`, r.tables.Chunks)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, sessionID)
	if err != nil {
		return 0, fmt.Errorf("delete session chunks: %w", err)
	}
	return result.RowsAffected(), nil
}

// CountBySession counts a session's chunks
func (r *PostgresChunkRepository) CountBySession(ctx context.Context, sessionID string) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE session_id = $1`, r.tables.Chunks)

	var n int
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, sessionID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

// ListBySession retrieves chunks in insertion order, grouped by document.
// Vectors are never loaded; only their presence is reported.
func (r *PostgresChunkRepository) ListBySession(ctx context.Context, sessionID string) ([]models.ChunkView, error) {
	query := fmt.Sprintf(`
		SELECT c.id, c.document_id, c.session_id, c.chunk_text, c.related_topic_ids,
			c.type, c.parent_chunk_id, c.embedding IS NOT NULL
		FROM %s c
		JOIN %s d ON d.id = c.document_id
		WHERE c.session_id = $1
		ORDER BY d.created_at, d.id, c.seq
	`, r.tables.Chunks, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	defer rows.Close()

	chunks := []models.ChunkView{}
	for rows.Next() {
		var c models.ChunkView
		err := rows.Scan(
			&c.ID,
			&c.DocumentID,
			&c.SessionID,
			&c.Text,
			&c.RelatedTopicIDs,
			&c.Type,
			&c.ParentChunkID,
			&c.HasEmbedding,
		)
		if err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}

	return chunks, nil
}
