package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ROHAN-089/namma-city/internal/domain"
	"github.com/ROHAN-089/namma-city/internal/sla"
)

// ErrStaleIssue is returned when a conditional SLA update loses a race: the
// issue's last_escalation_check no longer matches the value the evaluation
// was based on. Callers may re-read and retry; the update was not applied.
var ErrStaleIssue = errors.New("issue sla state changed concurrently")

// SLAScope optionally restricts SLA queries to a department and/or assignee.
type SLAScope struct {
	DepartmentCode *string
	AssigneeID     *string
}

// IssueRepository is the issue-store contract the SLA engine consumes. All
// SLA field writes are conditional on the last observed escalation check so
// two concurrent evaluators cannot both apply changes for the same epoch.
type IssueRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Issue, error)
	// ListActive returns issues still subject to SLA tracking.
	ListActive(ctx context.Context, scope SLAScope) ([]domain.Issue, error)
	// ListEscalationCandidates returns active issues whose last escalation
	// check is older than staleBefore, capped at limit.
	ListEscalationCandidates(ctx context.Context, scope SLAScope, staleBefore time.Time, limit int) ([]domain.Issue, error)
	// ListOverdue returns active issues whose deadline has passed, most
	// overdue first. Issues without a deadline are never overdue.
	ListOverdue(ctx context.Context, scope SLAScope, now time.Time) ([]domain.Issue, error)
	// ApplySLAChanges writes an evaluation's change set if and only if the
	// stored last_escalation_check still equals expectedCheck.
	ApplySLAChanges(ctx context.Context, issueID string, expectedCheck time.Time, changes sla.Changes) error
	// ApplyPriorityChange writes a priority-change reset under the same
	// conditional-update rule.
	ApplyPriorityChange(ctx context.Context, issueID string, expectedCheck time.Time, change sla.PriorityChange) error
}

type issueRepository struct {
	pool *pgxpool.Pool
}

// NewIssueRepository instantiates the pgx-backed issue repository.
func NewIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &issueRepository{pool: pool}
}

const issueColumns = `id, title, description, category, status, priority, department_code, city_name,
       reported_by_id, assignee_id, created_at, updated_at, resolved_at, closed_at,
       sla_deadline, sla_breached, escalation_level, last_escalation_check`

func (r *issueRepository) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	query := fmt.Sprintf(`SELECT %s FROM issues WHERE id=$1`, issueColumns)
	row := r.pool.QueryRow(ctx, query, id)
	issue, err := scanIssueRow(row)
	if err != nil {
		return nil, err
	}
	return issue, nil
}

func (r *issueRepository) ListActive(ctx context.Context, scope SLAScope) ([]domain.Issue, error) {
	clauses, args := activeClauses(scope)
	query := fmt.Sprintf(`SELECT %s FROM issues WHERE %s ORDER BY created_at`,
		issueColumns, strings.Join(clauses, " AND "))
	return r.queryIssues(ctx, query, args)
}

func (r *issueRepository) ListEscalationCandidates(ctx context.Context, scope SLAScope, staleBefore time.Time, limit int) ([]domain.Issue, error) {
	clauses, args := activeClauses(scope)
	args = append(args, staleBefore)
	clauses = append(clauses, fmt.Sprintf("last_escalation_check < $%d", len(args)))

	if limit <= 0 {
		limit = 500
	}
	query := fmt.Sprintf(`SELECT %s FROM issues WHERE %s ORDER BY last_escalation_check LIMIT %d`,
		issueColumns, strings.Join(clauses, " AND "), limit)
	return r.queryIssues(ctx, query, args)
}

func (r *issueRepository) ListOverdue(ctx context.Context, scope SLAScope, now time.Time) ([]domain.Issue, error) {
	clauses, args := activeClauses(scope)
	args = append(args, now)
	clauses = append(clauses, fmt.Sprintf("sla_deadline < $%d", len(args)))

	query := fmt.Sprintf(`SELECT %s FROM issues WHERE %s ORDER BY sla_deadline`,
		issueColumns, strings.Join(clauses, " AND "))
	return r.queryIssues(ctx, query, args)
}

func (r *issueRepository) ApplySLAChanges(ctx context.Context, issueID string, expectedCheck time.Time, changes sla.Changes) error {
	const query = `
        UPDATE issues SET escalation_level=$1, sla_breached=$2, last_escalation_check=$3, updated_at=NOW()
        WHERE id=$4 AND last_escalation_check=$5`
	cmd, err := r.pool.Exec(ctx, query,
		changes.EscalationLevel,
		changes.SLABreached,
		changes.LastEscalationCheck,
		issueID,
		expectedCheck,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return r.staleOrMissing(ctx, issueID)
	}
	return nil
}

func (r *issueRepository) ApplyPriorityChange(ctx context.Context, issueID string, expectedCheck time.Time, change sla.PriorityChange) error {
	const query = `
        UPDATE issues SET priority=$1, sla_deadline=$2, escalation_level=$3, sla_breached=$4,
            last_escalation_check=$5, updated_at=NOW()
        WHERE id=$6 AND last_escalation_check=$7`
	cmd, err := r.pool.Exec(ctx, query,
		change.Priority,
		change.SLADeadline,
		change.EscalationLevel,
		change.SLABreached,
		change.LastEscalationCheck,
		issueID,
		expectedCheck,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return r.staleOrMissing(ctx, issueID)
	}
	return nil
}

// staleOrMissing distinguishes a lost conditional update from a deleted row.
func (r *issueRepository) staleOrMissing(ctx context.Context, issueID string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM issues WHERE id=$1)`, issueID).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrStaleIssue
	}
	return pgx.ErrNoRows
}

func activeClauses(scope SLAScope) ([]string, []any) {
	clauses := []string{"status IN ('reported','in_progress')"}
	args := []any{}
	if scope.DepartmentCode != nil {
		args = append(args, *scope.DepartmentCode)
		clauses = append(clauses, fmt.Sprintf("department_code=$%d", len(args)))
	}
	if scope.AssigneeID != nil {
		args = append(args, *scope.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id=$%d", len(args)))
	}
	return clauses, args
}

func (r *issueRepository) queryIssues(ctx context.Context, query string, args []any) ([]domain.Issue, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssueRow(row rowScanner) (*domain.Issue, error) {
	var issue domain.Issue
	if err := row.Scan(
		&issue.ID,
		&issue.Title,
		&issue.Description,
		&issue.Category,
		&issue.Status,
		&issue.Priority,
		&issue.DepartmentCode,
		&issue.CityName,
		&issue.ReportedByID,
		&issue.AssigneeID,
		&issue.CreatedAt,
		&issue.UpdatedAt,
		&issue.ResolvedAt,
		&issue.ClosedAt,
		&issue.SLADeadline,
		&issue.SLABreached,
		&issue.EscalationLevel,
		&issue.LastEscalationCheck,
	); err != nil {
		return nil, err
	}
	return &issue, nil
}

func scanIssues(rows pgx.Rows) ([]domain.Issue, error) {
	var result []domain.Issue
	for rows.Next() {
		issue, err := scanIssueRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *issue)
	}
	return result, rows.Err()
}
