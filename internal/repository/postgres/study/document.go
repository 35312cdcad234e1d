package study

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ArthurLoboLobo/projeto-estudos/internal/domain"
	models "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/models/study"
	repos "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/repositories/study"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/repository/postgres"
)

const (
	documentColumns     = `id, session_id, file_name, file_path, file_description, content_length, processing_status, created_at`
	documentFullColumns = documentColumns + `, content_text`
)

// PostgresDocumentRepository implements the DocumentRepository interface
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *postgres.RepositoryConfig) repos.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts a PENDING document
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (session_id, file_name, file_path, processing_status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, r.tables.Documents)

	doc.ProcessingStatus = models.ProcessingPending
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		doc.SessionID,
		doc.FileName,
		doc.FilePath,
		string(doc.ProcessingStatus),
	).Scan(&doc.ID, &doc.CreatedAt)
	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("session %s: %w", doc.SessionID, domain.ErrNotFound)
		}
		return fmt.Errorf("create document: %w", err)
	}

	return nil
}

// GetByID retrieves a document including its content text
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1
	`, documentFullColumns, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	doc, err := scanDocument(executor.QueryRow(ctx, query, id), true)
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	return doc, nil
}

// ListBySession retrieves a session's documents without content text
func (r *PostgresDocumentRepository) ListBySession(ctx context.Context, sessionID string) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE session_id = $1
		ORDER BY created_at, id
	`, documentColumns, r.tables.Documents)

	return r.list(ctx, query, sessionID, false)
}

// ListCompleted retrieves COMPLETED documents including content text
func (r *PostgresDocumentRepository) ListCompleted(ctx context.Context, sessionID string) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE session_id = $1 AND processing_status = $2
		ORDER BY created_at, id
	`, documentFullColumns, r.tables.Documents)

	return r.list(ctx, query, sessionID, true, string(models.ProcessingCompleted))
}

func (r *PostgresDocumentRepository) list(ctx context.Context, query, sessionID string, withContent bool, extra ...any) ([]models.Document, error) {
	args := append([]any{sessionID}, extra...)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		if postgres.IsPgInvalidTextError(err) {
			return []models.Document{}, nil
		}
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows, withContent)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return docs, nil
}

// CountBySession counts all documents of a session
func (r *PostgresDocumentRepository) CountBySession(ctx context.Context, sessionID string) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE session_id = $1`, r.tables.Documents)
	return r.count(ctx, query, sessionID)
}

// CountCompleted counts documents whose extraction completed
func (r *PostgresDocumentRepository) CountCompleted(ctx context.Context, sessionID string) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE session_id = $1 AND processing_status = $2`, r.tables.Documents)
	return r.count(ctx, query, sessionID, string(models.ProcessingCompleted))
}

func (r *PostgresDocumentRepository) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// Delete removes a document of the given session and returns it
func (r *PostgresDocumentRepository) Delete(ctx context.Context, id, sessionID string) (*models.Document, error) {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1 AND session_id = $2
		RETURNING %s
	`, r.tables.Documents, documentColumns)

	executor := postgres.GetExecutor(ctx, r.pool)
	doc, err := scanDocument(executor.QueryRow(ctx, query, id, sessionID), false)
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("delete document: %w", err)
	}

	return doc, nil
}

// SetProcessingStatus updates processing_status only
func (r *PostgresDocumentRepository) SetProcessingStatus(ctx context.Context, id string, status models.ProcessingStatus) error {
	query := fmt.Sprintf(`UPDATE %s SET processing_status = $2 WHERE id = $1`, r.tables.Documents)
	return r.update(ctx, id, query, string(status))
}

// CompleteExtraction stores the text, its length in characters and marks
// the document COMPLETED
func (r *PostgresDocumentRepository) CompleteExtraction(ctx context.Context, id, text string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET content_text = $2, content_length = $3, processing_status = $4
		WHERE id = $1
	`, r.tables.Documents)
	return r.update(ctx, id, query, text, utf8.RuneCountInString(text), string(models.ProcessingCompleted))
}

// SetFileDescription stores the description produced by document analysis
func (r *PostgresDocumentRepository) SetFileDescription(ctx context.Context, id, description string) error {
	query := fmt.Sprintf(`UPDATE %s SET file_description = $2 WHERE id = $1`, r.tables.Documents)
	return r.update(ctx, id, query, description)
}

func (r *PostgresDocumentRepository) update(ctx context.Context, id, query string, args ...any) error {
	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return fmt.Errorf("update document %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func scanDocument(row pgx.Row, withContent bool) (*models.Document, error) {
	var doc models.Document
	dest := []any{
		&doc.ID,
		&doc.SessionID,
		&doc.FileName,
		&doc.FilePath,
		&doc.FileDescription,
		&doc.ContentLength,
		&doc.ProcessingStatus,
		&doc.CreatedAt,
	}
	if withContent {
		dest = append(dest, &doc.ContentText)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &doc, nil
}
