package events

import (
	"time"

	"github.com/ROHAN-089/namma-city/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIssueEscalated       EventType = "issue_escalated"
	EventSLABreached          EventType = "sla_breached"
	EventIssuePriorityChanged EventType = "issue_priority_changed"
	EventSweepCompleted       EventType = "sweep_completed"
)

// Event represents a domain event emitted by the SLA services. ActorID nil
// denotes a system-driven event (automatic escalation, scheduled sweep).
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	IssueID   string      `json:"issue_id,omitempty"`
	ActorID   *string     `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// IssueEscalatedPayload payload.
type IssueEscalatedPayload struct {
	Title         string  `json:"title"`
	OldLevel      int     `json:"old_level"`
	NewLevel      int     `json:"new_level"`
	Progress      float64 `json:"progress"`
	TimeRemaining string  `json:"time_remaining"`
	Reason        string  `json:"reason"`
}

// SLABreachedPayload payload.
type SLABreachedPayload struct {
	Title          string        `json:"title"`
	DepartmentCode string        `json:"department_code"`
	Deadline       time.Time     `json:"deadline"`
	Overdue        time.Duration `json:"overdue"`
}

// IssuePriorityChangedPayload payload.
type IssuePriorityChangedPayload struct {
	OldPriority domain.IssuePriority `json:"old_priority"`
	NewPriority domain.IssuePriority `json:"new_priority"`
	NewDeadline time.Time            `json:"new_deadline"`
}

// SweepCompletedPayload payload.
type SweepCompletedPayload struct {
	TotalChecked int `json:"total_checked"`
	Escalated    int `json:"escalated"`
	Breached     int `json:"breached"`
	Warnings     int `json:"warnings"`
	Failures     int `json:"failures"`
}
