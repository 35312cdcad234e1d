package study

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ArthurLoboLobo/projeto-estudos/internal/domain"
	models "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/models/study"
	repos "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/repositories/study"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/repository/postgres"
)

const sessionColumns = `id, user_id, title, description, status, draft_plan, plan_history, created_at, updated_at`

// PostgresSessionRepository implements the SessionRepository interface
type PostgresSessionRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(config *postgres.RepositoryConfig) repos.SessionRepository {
	return &PostgresSessionRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create creates a new session in UPLOADING status
func (r *PostgresSessionRepository) Create(ctx context.Context, session *models.StudySession) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, title, description, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, r.tables.Sessions)

	session.Status = models.StatusUploading
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		session.UserID,
		session.Title,
		session.Description,
		session.Status,
	).Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	session.PlanHistory = []models.DraftPlan{}
	return nil
}

// GetByID retrieves a session owned by userID
func (r *PostgresSessionRepository) GetByID(ctx context.Context, id, userID string) (*models.StudySession, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND user_id = $2
	`, sessionColumns, r.tables.Sessions)

	executor := postgres.GetExecutor(ctx, r.pool)
	session, err := scanSession(executor.QueryRow(ctx, query, id, userID))
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	return session, nil
}

// List retrieves all sessions of a user, newest first
func (r *PostgresSessionRepository) List(ctx context.Context, userID string) ([]models.StudySession, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, sessionColumns, r.tables.Sessions)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []models.StudySession{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

// Delete removes a session; dependent rows cascade
func (r *PostgresSessionRepository) Delete(ctx context.Context, id, userID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1 AND user_id = $2
	`, r.tables.Sessions)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, userID)
	if err != nil {
		if postgres.IsPgInvalidTextError(err) {
			return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("delete session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Transition moves a session from t.From to t.To in a single guarded
// UPDATE, optionally replacing the plan and clearing the history.
func (r *PostgresSessionRepository) Transition(ctx context.Context, id string, t repos.StatusTransition) error {
	var plan any
	if t.Plan != nil {
		p, err := planParam(*t.Plan)
		if err != nil {
			return err
		}
		plan = p
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $2,
			draft_plan = CASE WHEN $3::boolean THEN $4::jsonb ELSE draft_plan END,
			plan_history = CASE WHEN $5::boolean THEN '[]'::jsonb ELSE plan_history END,
			updated_at = clock_timestamp()
		WHERE id = $1 AND status = $6
	`, r.tables.Sessions)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		id,
		string(t.To),
		t.Plan != nil,
		plan,
		t.ClearHistory,
		string(t.From),
	)
	if err != nil {
		return fmt.Errorf("transition session %s to %s: %w", id, t.To, err)
	}

	if result.RowsAffected() == 0 {
		status, err := r.currentStatus(ctx, id)
		if err != nil {
			return err
		}
		return &domain.InvalidStateError{Required: string(t.From), Actual: string(status)}
	}

	return nil
}

// EditPlan replaces the plan and history if nobody else edited the session
// since ExpectedUpdatedAt.
func (r *PostgresSessionRepository) EditPlan(ctx context.Context, id string, edit repos.PlanEdit) (*models.StudySession, error) {
	plan, err := planParam(edit.Plan)
	if err != nil {
		return nil, err
	}
	history, err := historyParam(edit.History)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET draft_plan = $2::jsonb,
			plan_history = $3::jsonb,
			updated_at = clock_timestamp()
		WHERE id = $1 AND status = $4 AND updated_at = $5
		RETURNING %s
	`, r.tables.Sessions, sessionColumns)

	executor := postgres.GetExecutor(ctx, r.pool)
	session, err := scanSession(executor.QueryRow(ctx, query,
		id,
		plan,
		history,
		string(models.StatusEditingPlan),
		edit.ExpectedUpdatedAt,
	))
	if err == nil {
		return session, nil
	}
	if !postgres.IsPgNoRowsError(err) {
		return nil, fmt.Errorf("edit plan: %w", err)
	}

	status, err := r.currentStatus(ctx, id)
	if err != nil {
		return nil, err
	}
	if status != models.StatusEditingPlan {
		return nil, &domain.InvalidStateError{
			Required: string(models.StatusEditingPlan),
			Actual:   string(status),
		}
	}
	return nil, &domain.ConflictError{
		Message:      "plan was modified by another request",
		ResourceType: "session",
		ResourceID:   id,
	}
}

// currentStatus reads the status after a guarded write matched no row.
func (r *PostgresSessionRepository) currentStatus(ctx context.Context, id string) (models.SessionStatus, error) {
	query := fmt.Sprintf(`SELECT status FROM %s WHERE id = $1`, r.tables.Sessions)

	var status models.SessionStatus
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, id).Scan(&status); err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return "", fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
		}
		return "", fmt.Errorf("get session status: %w", err)
	}
	return status, nil
}

func scanSession(row pgx.Row) (*models.StudySession, error) {
	var (
		session    models.StudySession
		planRaw    []byte
		historyRaw []byte
	)
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Title,
		&session.Description,
		&session.Status,
		&planRaw,
		&historyRaw,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if session.DraftPlan, err = decodePlan(planRaw); err != nil {
		return nil, err
	}
	if session.PlanHistory, err = decodeHistory(historyRaw); err != nil {
		return nil, err
	}
	return &session, nil
}
