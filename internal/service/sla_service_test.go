package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ROHAN-089/namma-city/internal/domain"
	"github.com/ROHAN-089/namma-city/internal/events"
	"github.com/ROHAN-089/namma-city/internal/repository"
	"github.com/ROHAN-089/namma-city/internal/sla"
	apperrors "github.com/ROHAN-089/namma-city/pkg/util"
)

var base = time.Date(2025, time.June, 10, 8, 0, 0, 0, time.UTC)

func activeIssue(id string, priority domain.IssuePriority, createdAt time.Time) *domain.Issue {
	policy := sla.DefaultPolicy()
	return &domain.Issue{
		ID:                  id,
		Title:               "Pothole near " + id,
		Category:            domain.CategoryRoads,
		Status:              domain.IssueStatusReported,
		Priority:            priority,
		DepartmentCode:      "ROADS",
		ReportedByID:        "citizen-1",
		CreatedAt:           createdAt,
		SLADeadline:         policy.Deadline(priority, createdAt),
		LastEscalationCheck: createdAt,
	}
}

func newSLAFixture(now time.Time, issues ...*domain.Issue) (*SLAService, *memIssueRepo, *memEscalationRepo, *recordingDispatcher) {
	issueRepo := newMemIssueRepo(issues...)
	escalationRepo := newMemEscalationRepo()
	dispatcher := &recordingDispatcher{}
	svc := NewSLAService(SLADependencies{
		IssueRepo:      issueRepo,
		EscalationRepo: escalationRepo,
		DepartmentRepo: newMemDepartmentRepo("ROADS", "WATER"),
		Dispatcher:     dispatcher,
		Policy:         sla.DefaultPolicy(),
		Logger:         zap.NewNop(),
		Now:            func() time.Time { return now },
	})
	return svc, issueRepo, escalationRepo, dispatcher
}

func TestStatistics(t *testing.T) {
	// urgent at 12h = 50% (at risk), urgent at 20h = 83% (at risk),
	// urgent at 25h = 100% (breached), low at 1h ≈ 0.3% (on time).
	now := base.Add(25 * time.Hour)
	svc, _, _, _ := newSLAFixture(now,
		activeIssue("a", domain.IssuePriorityUrgent, base.Add(13*time.Hour)),
		activeIssue("b", domain.IssuePriorityUrgent, base.Add(5*time.Hour)),
		activeIssue("c", domain.IssuePriorityUrgent, base),
		activeIssue("d", domain.IssuePriorityLow, base.Add(24*time.Hour)),
	)

	stats, err := svc.Statistics(context.Background(), repository.SLAScope{})
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.OnTime)
	assert.Equal(t, 2, stats.AtRisk)
	assert.Equal(t, 1, stats.Breached)
	assert.Equal(t, 1, stats.EscalationLevels[0])
	assert.Equal(t, 1, stats.EscalationLevels[1])
	assert.Equal(t, 1, stats.EscalationLevels[2])
	assert.Equal(t, 1, stats.EscalationLevels[3])

	// (50 + 83.33 + 100 + 0.2976) / 4
	assert.InDelta(t, 58.4077, stats.AvgProgress, 0.01)
}

func TestStatisticsEmptyScope(t *testing.T) {
	svc, _, _, _ := newSLAFixture(base)
	stats, err := svc.Statistics(context.Background(), repository.SLAScope{})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
	assert.Zero(t, stats.AvgProgress)
}

func TestStatisticsUnknownDepartment(t *testing.T) {
	svc, _, _, _ := newSLAFixture(base)
	code := "PARKS"
	_, err := svc.Statistics(context.Background(), repository.SLAScope{DepartmentCode: &code})
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestStatisticsScopedByDepartment(t *testing.T) {
	now := base.Add(time.Hour)
	water := activeIssue("w", domain.IssuePriorityHigh, base)
	water.DepartmentCode = "WATER"
	svc, _, _, _ := newSLAFixture(now,
		activeIssue("r", domain.IssuePriorityHigh, base),
		water,
	)

	code := "WATER"
	stats, err := svc.Statistics(context.Background(), repository.SLAScope{DepartmentCode: &code})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
}

func TestOverdueIssues(t *testing.T) {
	now := base.Add(80 * time.Hour)
	// urgent created at base: deadline base+24h, 56h overdue.
	// high created at base+4h: deadline base+76h, 4h overdue.
	// low created at base: deadline base+336h, not overdue.
	svc, _, _, _ := newSLAFixture(now,
		activeIssue("oldest", domain.IssuePriorityUrgent, base),
		activeIssue("recent", domain.IssuePriorityHigh, base.Add(4*time.Hour)),
		activeIssue("fine", domain.IssuePriorityLow, base),
	)

	overdue, err := svc.OverdueIssues(context.Background(), repository.SLAScope{})
	require.NoError(t, err)
	require.Len(t, overdue, 2)

	// Most overdue first.
	assert.Equal(t, "oldest", overdue[0].Issue.ID)
	assert.Equal(t, "recent", overdue[1].Issue.ID)
	assert.Equal(t, 56*time.Hour, overdue[0].TimeOverdue)
	assert.InDelta(t, 100, overdue[0].SLAProgress, 0.0001)
	assert.Equal(t, domain.EscalationBreached, overdue[0].EscalationLevel)
}

func TestProgressView(t *testing.T) {
	issue := activeIssue("p", domain.IssuePriorityUrgent, base)
	issue.SLABreached = false
	now := base.Add(12 * time.Hour)
	svc, _, escalationRepo, _ := newSLAFixture(now, issue)

	actor := "staff-1"
	require.NoError(t, escalationRepo.Append(context.Background(), &domain.EscalationEvent{
		ID: "ev-1", IssueID: "p", Level: 1, EscalatedAt: now, EscalatedByID: &actor,
		Reason: "halfway", Action: "notified department",
	}))

	view, err := svc.Progress(context.Background(), "p")
	require.NoError(t, err)
	assert.InDelta(t, 50, view.Progress, 0.0001)
	assert.Equal(t, domain.EscalationWarning, view.EscalationLevel)
	assert.Equal(t, 12*time.Hour, view.TimeRemaining)
	assert.Equal(t, "12h 0m", view.TimeRemainingFormatted)
	require.Len(t, view.EscalationHistory, 1)
	assert.Equal(t, "halfway", view.EscalationHistory[0].Reason)
}

func TestProgressViewUnknownIssue(t *testing.T) {
	svc, _, _, _ := newSLAFixture(base)
	_, err := svc.Progress(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}

func TestSetPriorityResetsEpoch(t *testing.T) {
	issue := activeIssue("x", domain.IssuePriorityLow, base)
	issue.EscalationLevel = domain.EscalationWarning
	issue.SLABreached = false
	now := base.Add(10 * time.Hour)
	svc, issueRepo, escalationRepo, dispatcher := newSLAFixture(now, issue)

	require.NoError(t, escalationRepo.Append(context.Background(), &domain.EscalationEvent{
		ID: "ev-1", IssueID: "x", Level: 1, EscalatedAt: base.Add(5 * time.Hour),
	}))

	actor := "staff-2"
	deadline, err := svc.SetPriority(context.Background(), "x", domain.IssuePriorityUrgent, &actor)
	require.NoError(t, err)

	// Deadline anchors on the original creation time.
	assert.Equal(t, base.Add(24*time.Hour), deadline)

	stored := issueRepo.get("x")
	assert.Equal(t, domain.IssuePriorityUrgent, stored.Priority)
	assert.Equal(t, 0, stored.EscalationLevel)
	assert.False(t, stored.SLABreached)
	assert.Equal(t, now, stored.LastEscalationCheck)

	// History survives the reset.
	history, err := escalationRepo.ListByIssue(context.Background(), "x", 0, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	published := dispatcher.byType(events.EventIssuePriorityChanged)
	require.Len(t, published, 1)
	payload, ok := published[0].Payload.(events.IssuePriorityChangedPayload)
	require.True(t, ok)
	assert.Equal(t, domain.IssuePriorityLow, payload.OldPriority)
	assert.Equal(t, domain.IssuePriorityUrgent, payload.NewPriority)
}

func TestSetPrioritySamePriorityNoOp(t *testing.T) {
	issue := activeIssue("y", domain.IssuePriorityHigh, base)
	svc, issueRepo, _, dispatcher := newSLAFixture(base.Add(time.Hour), issue)

	deadline, err := svc.SetPriority(context.Background(), "y", domain.IssuePriorityHigh, nil)
	require.NoError(t, err)
	assert.Equal(t, issue.SLADeadline, deadline)
	assert.Equal(t, issue.LastEscalationCheck, issueRepo.get("y").LastEscalationCheck)
	assert.Empty(t, dispatcher.byType(events.EventIssuePriorityChanged))
}

func TestSetPriorityUnknownFallsBackToMedium(t *testing.T) {
	issue := activeIssue("z", domain.IssuePriorityUrgent, base)
	svc, issueRepo, _, _ := newSLAFixture(base.Add(time.Hour), issue)

	deadline, err := svc.SetPriority(context.Background(), "z", domain.IssuePriority("catastrophic"), nil)
	require.NoError(t, err)
	assert.Equal(t, base.Add(168*time.Hour), deadline)
	assert.Equal(t, domain.IssuePriorityMedium, issueRepo.get("z").Priority)
}

func TestSetPriorityRetriesLostRace(t *testing.T) {
	issue := activeIssue("r", domain.IssuePriorityLow, base)
	svc, issueRepo, _, _ := newSLAFixture(base.Add(time.Hour), issue)
	issueRepo.staleOnce["r"] = true

	deadline, err := svc.SetPriority(context.Background(), "r", domain.IssuePriorityUrgent, nil)
	require.NoError(t, err)
	assert.Equal(t, base.Add(24*time.Hour), deadline)
	assert.Equal(t, domain.IssuePriorityUrgent, issueRepo.get("r").Priority)
}
