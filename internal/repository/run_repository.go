package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-copilot/internal/domain"
)

// DefaultRunListLimit caps ListByRequester when no limit is given.
const DefaultRunListLimit = 20

// Querier is the subset of *pgxpool.Pool the repositories use.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// RunRepository stores ticket run audit entries.
type RunRepository interface {
	Create(ctx context.Context, run *domain.TicketRun) error
	ListByRequester(ctx context.Context, requesterID string, limit int) ([]domain.TicketRun, error)
}

type runRepository struct {
	db Querier
}

// NewRunRepository builds repository.
func NewRunRepository(db Querier) RunRepository {
	return &runRepository{db: db}
}

func (r *runRepository) Create(ctx context.Context, run *domain.TicketRun) error {
	const query = `
        INSERT INTO ticket_runs (run_id, requester_id, category, outcome, reason, duration_ms)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (run_id) DO NOTHING
        RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query,
		run.RunID,
		run.RequesterID,
		run.Category,
		string(run.Outcome),
		run.Reason,
		run.DurationMs,
	).Scan(&run.ID, &run.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// already recorded
		return nil
	}
	return err
}

func (r *runRepository) ListByRequester(ctx context.Context, requesterID string, limit int) ([]domain.TicketRun, error) {
	if limit <= 0 {
		limit = DefaultRunListLimit
	}
	const query = `
        SELECT id, run_id, requester_id, category, outcome, reason, duration_ms, created_at
        FROM ticket_runs WHERE requester_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2`
	rows, err := r.db.Query(ctx, query, requesterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketRun
	for rows.Next() {
		var run domain.TicketRun
		var outcome string
		if err := rows.Scan(
			&run.ID,
			&run.RunID,
			&run.RequesterID,
			&run.Category,
			&outcome,
			&run.Reason,
			&run.DurationMs,
			&run.CreatedAt,
		); err != nil {
			return nil, err
		}
		run.Outcome = domain.OutcomeKind(outcome)
		result = append(result, run)
	}
	return result, rows.Err()
}
