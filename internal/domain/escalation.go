package domain

import "time"

// Escalation levels classify how far an issue has progressed toward its SLA
// deadline. Levels only ever increase within a single deadline epoch; a
// priority change starts a new epoch at EscalationNormal.
const (
	EscalationNormal   = 0
	EscalationWarning  = 1
	EscalationUrgent   = 2
	EscalationBreached = 3
)

// EscalationEvent is an immutable audit entry recorded whenever an issue's
// escalation level increases. EscalatedByID nil denotes an automatic,
// system-driven escalation.
type EscalationEvent struct {
	ID            string
	IssueID       string
	Level         int
	EscalatedAt   time.Time
	EscalatedByID *string
	Reason        string
	Action        string
}
