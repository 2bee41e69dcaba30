package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ROHAN-089/namma-city/internal/domain"
	"github.com/ROHAN-089/namma-city/internal/events"
	"github.com/ROHAN-089/namma-city/internal/repository"
	"github.com/ROHAN-089/namma-city/internal/sla"
	apperrors "github.com/ROHAN-089/namma-city/pkg/util"
)

// SLAService answers SLA reporting queries and applies priority changes.
// All progress and level values it returns are recomputed from timestamps at
// read time; persisted escalation levels are only a cached classification.
type SLAService struct {
	issues      repository.IssueRepository
	escalations repository.EscalationEventRepository
	departments repository.DepartmentRepository
	dispatcher  events.Dispatcher
	policy      sla.Policy
	logger      *zap.Logger
	now         func() time.Time
}

// SLADependencies bundles collaborators for SLAService.
type SLADependencies struct {
	IssueRepo       repository.IssueRepository
	EscalationRepo  repository.EscalationEventRepository
	DepartmentRepo  repository.DepartmentRepository
	Dispatcher      events.Dispatcher
	Policy          sla.Policy
	Logger          *zap.Logger
	Now             func() time.Time
}

// NewSLAService constructs the service.
func NewSLAService(deps SLADependencies) *SLAService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &SLAService{
		issues:      deps.IssueRepo,
		escalations: deps.EscalationRepo,
		departments: deps.DepartmentRepo,
		dispatcher:  deps.Dispatcher,
		policy:      deps.Policy,
		logger:      deps.Logger,
		now:         now,
	}
}

// Statistics summarizes SLA posture over active issues in scope.
type Statistics struct {
	Total            int
	OnTime           int
	AtRisk           int
	Breached         int
	AvgProgress      float64
	EscalationLevels map[int]int
}

// OverdueIssue annotates an overdue issue with live SLA computations.
type OverdueIssue struct {
	Issue           domain.Issue
	SLAProgress     float64
	TimeOverdue     time.Duration
	EscalationLevel int
}

// ProgressView is the single-issue SLA projection.
type ProgressView struct {
	IssueID                string
	Progress               float64
	EscalationLevel        int
	TimeRemaining          time.Duration
	TimeRemainingFormatted string
	SLABreached            bool
	EscalationHistory      []domain.EscalationEvent
}

// Statistics computes SLA statistics over active issues in scope.
func (s *SLAService) Statistics(ctx context.Context, scope repository.SLAScope) (*Statistics, error) {
	if err := s.validateScope(ctx, scope); err != nil {
		return nil, err
	}
	issues, err := s.issues.ListActive(ctx, scope)
	if err != nil {
		return nil, err
	}

	now := s.now()
	stats := &Statistics{
		Total:            len(issues),
		EscalationLevels: map[int]int{0: 0, 1: 0, 2: 0, 3: 0},
	}

	var totalProgress float64
	for i := range issues {
		progress := sla.Progress(issues[i].CreatedAt, issues[i].SLADeadline, now)
		level := s.policy.LevelFor(progress)

		totalProgress += progress
		stats.EscalationLevels[level]++

		switch {
		case level == domain.EscalationBreached:
			stats.Breached++
		case level >= domain.EscalationWarning:
			stats.AtRisk++
		default:
			stats.OnTime++
		}
	}
	if len(issues) > 0 {
		stats.AvgProgress = totalProgress / float64(len(issues))
	}
	return stats, nil
}

// OverdueIssues lists active issues past their deadline, most overdue first.
func (s *SLAService) OverdueIssues(ctx context.Context, scope repository.SLAScope) ([]OverdueIssue, error) {
	if err := s.validateScope(ctx, scope); err != nil {
		return nil, err
	}
	now := s.now()
	issues, err := s.issues.ListOverdue(ctx, scope, now)
	if err != nil {
		return nil, err
	}

	result := make([]OverdueIssue, 0, len(issues))
	for i := range issues {
		progress := sla.Progress(issues[i].CreatedAt, issues[i].SLADeadline, now)
		result = append(result, OverdueIssue{
			Issue:           issues[i],
			SLAProgress:     progress,
			TimeOverdue:     now.Sub(issues[i].SLADeadline),
			EscalationLevel: s.policy.LevelFor(progress),
		})
	}
	return result, nil
}

// Progress returns the live SLA snapshot for a single issue, history included.
func (s *SLAService) Progress(ctx context.Context, issueID string) (*ProgressView, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return nil, err
	}
	history, err := s.escalations.ListByIssue(ctx, issueID, 0, 0)
	if err != nil {
		return nil, err
	}

	now := s.now()
	progress := sla.Progress(issue.CreatedAt, issue.SLADeadline, now)
	remaining := sla.TimeRemaining(issue.SLADeadline, now)
	return &ProgressView{
		IssueID:                issue.ID,
		Progress:               progress,
		EscalationLevel:        s.policy.LevelFor(progress),
		TimeRemaining:          remaining,
		TimeRemainingFormatted: sla.FormatRemaining(remaining),
		SLABreached:            issue.SLABreached,
		EscalationHistory:      history,
	}, nil
}

// SetPriority changes an issue's priority and recomputes its SLA state. The
// deadline is re-derived from the issue's original creation time, escalation
// state resets to a fresh epoch, and history is preserved. Unrecognized
// priorities are normalized to medium rather than rejected.
func (s *SLAService) SetPriority(ctx context.Context, issueID string, newPriority domain.IssuePriority, actorID *string) (time.Time, error) {
	if !newPriority.Known() {
		s.logger.Warn("unknown priority on SLA update, defaulting to medium",
			zap.String("issue_id", issueID),
			zap.String("priority", string(newPriority)))
		newPriority = domain.IssuePriorityMedium
	}

	deadline, err := s.applyPriority(ctx, issueID, newPriority, actorID)
	if errors.Is(err, repository.ErrStaleIssue) {
		// Lost a race against a sweep; the re-read picks up the advanced
		// check timestamp.
		deadline, err = s.applyPriority(ctx, issueID, newPriority, actorID)
	}
	if errors.Is(err, repository.ErrStaleIssue) {
		return time.Time{}, apperrors.NewConflict("issue was updated concurrently, retry",
			map[string]any{"issue_id": issueID})
	}
	return deadline, err
}

func (s *SLAService) applyPriority(ctx context.Context, issueID string, newPriority domain.IssuePriority, actorID *string) (time.Time, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return time.Time{}, err
	}

	change, ok := s.policy.RecomputeOnPriorityChange(sla.SnapshotOf(issue), newPriority, s.now())
	if !ok {
		return issue.SLADeadline, nil
	}

	if err := s.issues.ApplyPriorityChange(ctx, issueID, issue.LastEscalationCheck, change); err != nil {
		return time.Time{}, err
	}

	s.publish(ctx, events.Event{
		Type:    events.EventIssuePriorityChanged,
		IssueID: issueID,
		ActorID: actorID,
		Payload: events.IssuePriorityChangedPayload{
			OldPriority: issue.Priority,
			NewPriority: newPriority,
			NewDeadline: change.SLADeadline,
		},
	})
	return change.SLADeadline, nil
}

func (s *SLAService) validateScope(ctx context.Context, scope repository.SLAScope) error {
	if scope.DepartmentCode == nil {
		return nil
	}
	if _, err := s.departments.GetByCode(ctx, *scope.DepartmentCode); err != nil {
		return apperrors.NewNotFound("department", map[string]any{"code": *scope.DepartmentCode})
	}
	return nil
}

func (s *SLAService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
