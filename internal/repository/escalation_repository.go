package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ROHAN-089/namma-city/internal/domain"
)

// EscalationEventRepository persists the append-only escalation history.
type EscalationEventRepository interface {
	Append(ctx context.Context, event *domain.EscalationEvent) error
	// ListByIssue returns events in chronological (insertion) order.
	ListByIssue(ctx context.Context, issueID string, limit, offset int) ([]domain.EscalationEvent, error)
}

type escalationEventRepository struct {
	pool *pgxpool.Pool
}

// NewEscalationEventRepository instantiates repository.
func NewEscalationEventRepository(pool *pgxpool.Pool) EscalationEventRepository {
	return &escalationEventRepository{pool: pool}
}

func (r *escalationEventRepository) Append(ctx context.Context, event *domain.EscalationEvent) error {
	const query = `
        INSERT INTO issue_escalations (id, issue_id, level, escalated_at, escalated_by_id, reason, action)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.IssueID,
		event.Level,
		event.EscalatedAt,
		event.EscalatedByID,
		event.Reason,
		event.Action,
	)
	return err
}

func (r *escalationEventRepository) ListByIssue(ctx context.Context, issueID string, limit, offset int) ([]domain.EscalationEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, issue_id, level, escalated_at, escalated_by_id, reason, action
        FROM issue_escalations WHERE issue_id=$1
        ORDER BY escalated_at, id LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, issueID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEscalationEvents(rows)
}

func scanEscalationEvents(rows pgx.Rows) ([]domain.EscalationEvent, error) {
	var result []domain.EscalationEvent
	for rows.Next() {
		var event domain.EscalationEvent
		if err := rows.Scan(
			&event.ID,
			&event.IssueID,
			&event.Level,
			&event.EscalatedAt,
			&event.EscalatedByID,
			&event.Reason,
			&event.Action,
		); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, rows.Err()
}
