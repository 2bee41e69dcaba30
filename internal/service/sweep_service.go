package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ROHAN-089/namma-city/internal/config"
	"github.com/ROHAN-089/namma-city/internal/domain"
	"github.com/ROHAN-089/namma-city/internal/events"
	"github.com/ROHAN-089/namma-city/internal/observability"
	"github.com/ROHAN-089/namma-city/internal/persistence"
	"github.com/ROHAN-089/namma-city/internal/repository"
	"github.com/ROHAN-089/namma-city/internal/sla"
)

// SweepService runs batch escalation passes over stale active issues.
//
// Each candidate is handled as one read-evaluate-write unit: a per-issue
// advisory lock keeps overlapping sweeps off the same record, and the
// conditional write on last_escalation_check guarantees a lost race is
// detected rather than applied twice. Issues the sweep skips or fails keep
// their old check timestamp and stay eligible for the next pass.
type SweepService struct {
	issues      repository.IssueRepository
	escalations repository.EscalationEventRepository
	locker      persistence.IssueLocker
	dispatcher  events.Dispatcher
	policy      sla.Policy
	cfg         config.SweepConfig
	logger      *zap.Logger
	metrics     *observability.Metrics
	now         func() time.Time
}

// SweepDependencies bundles collaborators for SweepService.
type SweepDependencies struct {
	IssueRepo      repository.IssueRepository
	EscalationRepo repository.EscalationEventRepository
	Locker         persistence.IssueLocker
	Dispatcher     events.Dispatcher
	Policy         sla.Policy
	Config         config.SweepConfig
	Logger         *zap.Logger
	Metrics        *observability.Metrics
	Now            func() time.Time
}

// NewSweepService constructs the service.
func NewSweepService(deps SweepDependencies) *SweepService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &SweepService{
		issues:      deps.IssueRepo,
		escalations: deps.EscalationRepo,
		locker:      deps.Locker,
		dispatcher:  deps.Dispatcher,
		policy:      deps.Policy,
		cfg:         deps.Config,
		logger:      deps.Logger,
		metrics:     deps.Metrics,
		now:         now,
	}
}

// SweepDetail records one issue's outcome within a sweep.
type SweepDetail struct {
	IssueID       string  `json:"issue_id"`
	Title         string  `json:"title"`
	OldLevel      int     `json:"old_level"`
	NewLevel      int     `json:"new_level"`
	Progress      float64 `json:"progress"`
	TimeRemaining string  `json:"time_remaining"`
	Failed        bool    `json:"failed,omitempty"`
	Error         string  `json:"error,omitempty"`
}

// SweepResult aggregates one sweep invocation.
type SweepResult struct {
	TotalChecked int           `json:"total_checked"`
	Escalated    int           `json:"escalated"`
	Breached     int           `json:"breached"`
	Warnings     int           `json:"warnings"`
	Skipped      int           `json:"skipped"`
	Failures     int           `json:"failures"`
	Details      []SweepDetail `json:"details"`
}

// RunSweep evaluates every eligible issue in scope and applies escalations.
// Candidates are issues in an active status whose last check is older than
// the re-check interval, capped at the configured batch size. Evaluation is
// parallel across issues; a single issue's failure is recorded in the result
// rather than aborting the sweep.
func (s *SweepService) RunSweep(ctx context.Context, scope repository.SLAScope) (*SweepResult, error) {
	now := s.now()
	staleBefore := now.Add(-s.cfg.RecheckInterval())

	candidates, err := s.issues.ListEscalationCandidates(ctx, scope, staleBefore, s.cfg.MaxBatch)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{Details: []SweepDetail{}}
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	concurrency := s.cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	group.SetLimit(concurrency)

	for i := range candidates {
		issue := candidates[i]
		group.Go(func() error {
			outcome, err := s.sweepOne(groupCtx, &issue, now)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, errIssueBusy):
				result.Skipped++
			case err != nil:
				result.TotalChecked++
				result.Failures++
				result.Details = append(result.Details, SweepDetail{
					IssueID: issue.ID,
					Title:   issue.Title,
					Failed:  true,
					Error:   err.Error(),
				})
			default:
				result.TotalChecked++
				if outcome.Escalated {
					result.Escalated++
					switch outcome.NewLevel {
					case domain.EscalationBreached:
						result.Breached++
					case domain.EscalationWarning:
						result.Warnings++
					}
					result.Details = append(result.Details, SweepDetail{
						IssueID:       issue.ID,
						Title:         issue.Title,
						OldLevel:      outcome.OldLevel,
						NewLevel:      outcome.NewLevel,
						Progress:      outcome.Progress,
						TimeRemaining: sla.FormatRemaining(outcome.TimeRemaining),
					})
				}
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	s.metrics.RecordSweep(result.TotalChecked, result.Escalated, result.Breached, result.Failures)
	s.logger.Info("escalation sweep completed",
		zap.Int("total_checked", result.TotalChecked),
		zap.Int("escalated", result.Escalated),
		zap.Int("breached", result.Breached),
		zap.Int("warnings", result.Warnings),
		zap.Int("skipped", result.Skipped),
		zap.Int("failures", result.Failures),
	)
	s.publish(ctx, events.Event{
		Type: events.EventSweepCompleted,
		Payload: events.SweepCompletedPayload{
			TotalChecked: result.TotalChecked,
			Escalated:    result.Escalated,
			Breached:     result.Breached,
			Warnings:     result.Warnings,
			Failures:     result.Failures,
		},
	})
	return result, nil
}

// errIssueBusy marks an issue another evaluator currently holds.
var errIssueBusy = errors.New("issue locked by another evaluator")

// sweepOne performs the read-evaluate-write cycle for a single issue.
func (s *SweepService) sweepOne(ctx context.Context, issue *domain.Issue, now time.Time) (sla.Outcome, error) {
	release, ok := s.locker.TryLock(ctx, issue.ID)
	if !ok {
		return sla.Outcome{}, errIssueBusy
	}
	defer release()

	outcome := s.policy.Evaluate(sla.SnapshotOf(issue), now, sla.EscalationInput{})

	err := s.issues.ApplySLAChanges(ctx, issue.ID, issue.LastEscalationCheck, outcome.Changes)
	if errors.Is(err, repository.ErrStaleIssue) {
		// Someone advanced the state since our read; treat like a busy
		// issue and let the next sweep pick it up.
		return sla.Outcome{}, errIssueBusy
	}
	if err != nil {
		return sla.Outcome{}, err
	}

	if !outcome.Escalated {
		return outcome, nil
	}

	event := *outcome.Event
	event.ID = uuid.NewString()
	if err := s.escalations.Append(ctx, &event); err != nil {
		// The level change is already durable; surface the missing audit
		// entry instead of pretending the issue failed wholesale.
		s.logger.Error("escalation history append failed",
			zap.String("issue_id", issue.ID), zap.Error(err))
	}

	s.publish(ctx, events.Event{
		Type:    events.EventIssueEscalated,
		IssueID: issue.ID,
		Payload: events.IssueEscalatedPayload{
			Title:         issue.Title,
			OldLevel:      outcome.OldLevel,
			NewLevel:      outcome.NewLevel,
			Progress:      outcome.Progress,
			TimeRemaining: sla.FormatRemaining(outcome.TimeRemaining),
			Reason:        event.Reason,
		},
	})
	if outcome.NewLevel == domain.EscalationBreached {
		s.publish(ctx, events.Event{
			Type:    events.EventSLABreached,
			IssueID: issue.ID,
			Payload: events.SLABreachedPayload{
				Title:          issue.Title,
				DepartmentCode: issue.DepartmentCode,
				Deadline:       issue.SLADeadline,
				Overdue:        now.Sub(issue.SLADeadline),
			},
		})
	}
	return outcome, nil
}

func (s *SweepService) publish(ctx context.Context, event events.Event) {
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
