package domain

import "time"

// IssueStatus enumerates lifecycle states for civic issues.
type IssueStatus string

const (
	IssueStatusReported   IssueStatus = "reported"
	IssueStatusInProgress IssueStatus = "in_progress"
	IssueStatusResolved   IssueStatus = "resolved"
	IssueStatusClosed     IssueStatus = "closed"
	IssueStatusReopened   IssueStatus = "reopened"
)

// ActiveStatuses are the statuses subject to SLA tracking and escalation sweeps.
var ActiveStatuses = []IssueStatus{IssueStatusReported, IssueStatusInProgress}

// IsActive reports whether an issue in this status is still SLA-tracked.
func (s IssueStatus) IsActive() bool {
	return s == IssueStatusReported || s == IssueStatusInProgress
}

// IssuePriority enumerates SLA urgency for an issue.
type IssuePriority string

const (
	IssuePriorityLow    IssuePriority = "low"
	IssuePriorityMedium IssuePriority = "medium"
	IssuePriorityHigh   IssuePriority = "high"
	IssuePriorityUrgent IssuePriority = "urgent"
)

// Known reports whether the priority is one of the recognized values.
func (p IssuePriority) Known() bool {
	switch p {
	case IssuePriorityLow, IssuePriorityMedium, IssuePriorityHigh, IssuePriorityUrgent:
		return true
	}
	return false
}

// IssueCategory labels the civic concern an issue belongs to.
type IssueCategory string

const (
	CategoryRoads           IssueCategory = "roads"
	CategoryWater           IssueCategory = "water"
	CategoryElectricity     IssueCategory = "electricity"
	CategorySanitation      IssueCategory = "sanitation"
	CategoryPublicSafety    IssueCategory = "public_safety"
	CategoryPublicTransport IssueCategory = "public_transport"
	CategoryPollution       IssueCategory = "pollution"
	CategoryOthers          IssueCategory = "others"
)

// Issue is the aggregate for citizen-reported civic issues.
//
// The SLA fields (SLADeadline, SLABreached, EscalationLevel,
// LastEscalationCheck) are owned by the escalation engine; everything else is
// written by the surrounding platform and only read here.
type Issue struct {
	ID             string
	Title          string
	Description    string
	Category       IssueCategory
	Status         IssueStatus
	Priority       IssuePriority
	DepartmentCode string
	CityName       string
	ReportedByID   string
	AssigneeID     *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ResolvedAt     *time.Time
	ClosedAt       *time.Time

	SLADeadline         time.Time
	SLABreached         bool
	EscalationLevel     int
	LastEscalationCheck time.Time
}

var allowedTransitions = map[IssueStatus][]IssueStatus{
	IssueStatusReported:   {IssueStatusInProgress, IssueStatusResolved, IssueStatusClosed},
	IssueStatusInProgress: {IssueStatusResolved, IssueStatusClosed},
	IssueStatusResolved:   {IssueStatusClosed, IssueStatusReopened},
	IssueStatusClosed:     {IssueStatusReopened},
	IssueStatusReopened:   {IssueStatusInProgress, IssueStatusResolved, IssueStatusClosed},
}

// IsValidTransition reports whether an issue may move from current to next.
func IsValidTransition(current, next IssueStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}
