package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ROHAN-089/namma-city/internal/domain"
	"github.com/ROHAN-089/namma-city/internal/events"
	"github.com/ROHAN-089/namma-city/internal/repository"
	"github.com/ROHAN-089/namma-city/internal/sla"
)

// memIssueRepo is an in-memory IssueRepository honoring the same selection
// and compare-and-set semantics as the postgres implementation.
type memIssueRepo struct {
	mu     sync.Mutex
	issues map[string]*domain.Issue

	// failSLAWrites makes ApplySLAChanges fail for the listed issue ids.
	failSLAWrites map[string]error
	// staleOnce makes the next conditional write for an issue lose its race.
	staleOnce map[string]bool
}

func newMemIssueRepo(issues ...*domain.Issue) *memIssueRepo {
	r := &memIssueRepo{
		issues:        make(map[string]*domain.Issue),
		failSLAWrites: make(map[string]error),
		staleOnce:     make(map[string]bool),
	}
	for _, issue := range issues {
		copied := *issue
		r.issues[issue.ID] = &copied
	}
	return r
}

func (r *memIssueRepo) get(id string) *domain.Issue {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.issues[id]
}

func (r *memIssueRepo) GetByID(_ context.Context, id string) (*domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	issue, ok := r.issues[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *issue
	return &copied, nil
}

func (r *memIssueRepo) ListActive(_ context.Context, scope repository.SLAScope) ([]domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Issue
	for _, issue := range r.issues {
		if issue.Status.IsActive() && inScope(issue, scope) {
			result = append(result, *issue)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (r *memIssueRepo) ListEscalationCandidates(_ context.Context, scope repository.SLAScope, staleBefore time.Time, limit int) ([]domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Issue
	for _, issue := range r.issues {
		if issue.Status.IsActive() && inScope(issue, scope) && issue.LastEscalationCheck.Before(staleBefore) {
			result = append(result, *issue)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LastEscalationCheck.Before(result[j].LastEscalationCheck)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *memIssueRepo) ListOverdue(_ context.Context, scope repository.SLAScope, now time.Time) ([]domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Issue
	for _, issue := range r.issues {
		if issue.Status.IsActive() && inScope(issue, scope) && !issue.SLADeadline.IsZero() && issue.SLADeadline.Before(now) {
			result = append(result, *issue)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SLADeadline.Before(result[j].SLADeadline) })
	return result, nil
}

func (r *memIssueRepo) ApplySLAChanges(_ context.Context, issueID string, expectedCheck time.Time, changes sla.Changes) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.failSLAWrites[issueID]; ok {
		return err
	}
	if r.staleOnce[issueID] {
		delete(r.staleOnce, issueID)
		return repository.ErrStaleIssue
	}
	issue, ok := r.issues[issueID]
	if !ok {
		return pgx.ErrNoRows
	}
	if !issue.LastEscalationCheck.Equal(expectedCheck) {
		return repository.ErrStaleIssue
	}
	issue.EscalationLevel = changes.EscalationLevel
	issue.SLABreached = changes.SLABreached
	issue.LastEscalationCheck = changes.LastEscalationCheck
	return nil
}

func (r *memIssueRepo) ApplyPriorityChange(_ context.Context, issueID string, expectedCheck time.Time, change sla.PriorityChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.staleOnce[issueID] {
		delete(r.staleOnce, issueID)
		return repository.ErrStaleIssue
	}
	issue, ok := r.issues[issueID]
	if !ok {
		return pgx.ErrNoRows
	}
	if !issue.LastEscalationCheck.Equal(expectedCheck) {
		return repository.ErrStaleIssue
	}
	issue.Priority = change.Priority
	issue.SLADeadline = change.SLADeadline
	issue.EscalationLevel = change.EscalationLevel
	issue.SLABreached = change.SLABreached
	issue.LastEscalationCheck = change.LastEscalationCheck
	return nil
}

func inScope(issue *domain.Issue, scope repository.SLAScope) bool {
	if scope.DepartmentCode != nil && issue.DepartmentCode != *scope.DepartmentCode {
		return false
	}
	if scope.AssigneeID != nil && (issue.AssigneeID == nil || *issue.AssigneeID != *scope.AssigneeID) {
		return false
	}
	return true
}

type memEscalationRepo struct {
	mu     sync.Mutex
	events map[string][]domain.EscalationEvent
}

func newMemEscalationRepo() *memEscalationRepo {
	return &memEscalationRepo{events: make(map[string][]domain.EscalationEvent)}
}

func (r *memEscalationRepo) Append(_ context.Context, event *domain.EscalationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[event.IssueID] = append(r.events[event.IssueID], *event)
	return nil
}

func (r *memEscalationRepo) ListByIssue(_ context.Context, issueID string, _, _ int) ([]domain.EscalationEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.EscalationEvent{}, r.events[issueID]...), nil
}

type memDepartmentRepo struct {
	departments map[string]domain.Department
}

func newMemDepartmentRepo(codes ...string) *memDepartmentRepo {
	r := &memDepartmentRepo{departments: make(map[string]domain.Department)}
	for _, code := range codes {
		r.departments[code] = domain.Department{ID: code, Code: code, Name: code, IsActive: true}
	}
	return r
}

func (r *memDepartmentRepo) GetByCode(_ context.Context, code string) (*domain.Department, error) {
	dept, ok := r.departments[code]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &dept, nil
}

func (r *memDepartmentRepo) List(_ context.Context) ([]domain.Department, error) {
	var result []domain.Department
	for _, dept := range r.departments {
		result = append(result, dept)
	}
	return result, nil
}

// memLocker grants every lock except the issue ids listed as held.
type memLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemLocker(held ...string) *memLocker {
	l := &memLocker{held: make(map[string]bool)}
	for _, id := range held {
		l.held[id] = true
	}
	return l
}

func (l *memLocker) TryLock(_ context.Context, issueID string) (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[issueID] {
		return nil, false
	}
	return func() {}, true
}

// recordingDispatcher captures published events for assertions.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) byType(t events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var result []events.Event
	for _, event := range d.events {
		if event.Type == t {
			result = append(result, event)
		}
	}
	return result
}
