package sla

import (
	"fmt"
	"time"

	"github.com/ROHAN-089/namma-city/internal/domain"
)

// Snapshot is the subset of issue state the escalation engine reads. Callers
// build it from a stored issue; the engine never touches the store itself, so
// it can be exercised without any I/O and its results applied with a
// compare-and-set write.
type Snapshot struct {
	IssueID         string
	Title           string
	Priority        domain.IssuePriority
	CreatedAt       time.Time
	SLADeadline     time.Time
	EscalationLevel int
	SLABreached     bool
}

// SnapshotOf extracts the engine-relevant fields from an issue.
func SnapshotOf(issue *domain.Issue) Snapshot {
	return Snapshot{
		IssueID:         issue.ID,
		Title:           issue.Title,
		Priority:        issue.Priority,
		CreatedAt:       issue.CreatedAt,
		SLADeadline:     issue.SLADeadline,
		EscalationLevel: issue.EscalationLevel,
		SLABreached:     issue.SLABreached,
	}
}

// Changes is the write set an evaluation produces for the engine-owned
// fields. LastEscalationCheck always advances, even on a no-op evaluation,
// so sweeps do not re-select the same issue immediately.
type Changes struct {
	EscalationLevel     int
	SLABreached         bool
	LastEscalationCheck time.Time
}

// Outcome reports the result of a single evaluation.
type Outcome struct {
	Escalated     bool
	OldLevel      int
	NewLevel      int
	Progress      float64
	TimeRemaining time.Duration
	Changes       Changes

	// Event is non-nil exactly when Escalated is true; it is the audit
	// entry to append to the issue's escalation history.
	Event *domain.EscalationEvent
}

// EscalationInput carries the actor and annotations for a manual escalation.
// The zero value denotes an automatic, sweep-driven evaluation and gets
// defaulted reason/action strings.
type EscalationInput struct {
	ActorID *string
	Reason  string
	Action  string
}

// Evaluate computes the escalation decision for an issue at now. Levels are
// monotonically non-decreasing within a deadline epoch: when the newly
// computed level does not exceed the stored one, the only change is the
// advanced check timestamp. Missing timestamps degrade to progress 0 and
// never fail.
func (p Policy) Evaluate(s Snapshot, now time.Time, in EscalationInput) Outcome {
	progress := Progress(s.CreatedAt, s.SLADeadline, now)
	newLevel := p.LevelFor(progress)

	out := Outcome{
		OldLevel:      s.EscalationLevel,
		NewLevel:      s.EscalationLevel,
		Progress:      progress,
		TimeRemaining: TimeRemaining(s.SLADeadline, now),
		Changes: Changes{
			EscalationLevel:     s.EscalationLevel,
			SLABreached:         s.SLABreached,
			LastEscalationCheck: now,
		},
	}

	if newLevel <= s.EscalationLevel {
		return out
	}

	out.Escalated = true
	out.NewLevel = newLevel
	out.Changes.EscalationLevel = newLevel
	if newLevel == domain.EscalationBreached {
		out.Changes.SLABreached = true
	}

	reason := in.Reason
	if reason == "" {
		reason = fmt.Sprintf("Auto-escalated to level %d (SLA progress %.1f%%)", newLevel, progress)
	}
	action := in.Action
	if action == "" {
		action = "Automatic escalation"
	}
	out.Event = &domain.EscalationEvent{
		IssueID:       s.IssueID,
		Level:         newLevel,
		EscalatedAt:   now,
		EscalatedByID: in.ActorID,
		Reason:        reason,
		Action:        action,
	}
	return out
}

// PriorityChange is the write set produced when an issue's priority changes.
// The deadline is recomputed from the original creation time and the
// escalation state starts a fresh epoch; history is never cleared.
type PriorityChange struct {
	Priority            domain.IssuePriority
	SLADeadline         time.Time
	EscalationLevel     int
	SLABreached         bool
	LastEscalationCheck time.Time
}

// RecomputeOnPriorityChange derives the reset write set for a priority
// change. It returns false when the priority is unchanged; this is the only
// path that ever lowers an issue's effective urgency state.
func (p Policy) RecomputeOnPriorityChange(s Snapshot, newPriority domain.IssuePriority, now time.Time) (PriorityChange, bool) {
	if newPriority == s.Priority {
		return PriorityChange{}, false
	}
	return PriorityChange{
		Priority:            newPriority,
		SLADeadline:         p.Deadline(newPriority, s.CreatedAt),
		EscalationLevel:     domain.EscalationNormal,
		SLABreached:         false,
		LastEscalationCheck: now,
	}, true
}
