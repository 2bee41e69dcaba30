package dto

import (
	"time"

	"github.com/ROHAN-089/namma-city/internal/domain"
)

// UpdateSLARequest carries a priority change for an issue.
type UpdateSLARequest struct {
	Priority domain.IssuePriority `json:"priority"`
	ActorID  *string              `json:"actor_id"`
}

// UpdateSLAResponse confirms a priority change.
type UpdateSLAResponse struct {
	IssueID     string               `json:"issue_id"`
	Priority    domain.IssuePriority `json:"priority"`
	SLADeadline time.Time            `json:"sla_deadline"`
}

// SLAStatisticsResponse summarizes SLA posture for a scope.
type SLAStatisticsResponse struct {
	Total            int         `json:"total"`
	OnTime           int         `json:"on_time"`
	AtRisk           int         `json:"at_risk"`
	Breached         int         `json:"breached"`
	AvgProgress      float64     `json:"avg_progress"`
	EscalationLevels map[int]int `json:"escalation_levels"`
}

// OverdueIssueResponse is an overdue issue annotated with live SLA numbers.
type OverdueIssueResponse struct {
	ID              string               `json:"id"`
	Title           string               `json:"title"`
	Category        domain.IssueCategory `json:"category"`
	Status          domain.IssueStatus   `json:"status"`
	Priority        domain.IssuePriority `json:"priority"`
	DepartmentCode  string               `json:"department_code"`
	CityName        string               `json:"city_name,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	SLADeadline     time.Time            `json:"sla_deadline"`
	SLAProgress     float64              `json:"sla_progress"`
	TimeOverdueMS   int64                `json:"time_overdue_ms"`
	EscalationLevel int                  `json:"escalation_level"`
}

// EscalationEventResponse is one escalation history entry.
type EscalationEventResponse struct {
	Level         int       `json:"level"`
	EscalatedAt   time.Time `json:"escalated_at"`
	EscalatedByID *string   `json:"escalated_by_id"`
	Reason        string    `json:"reason"`
	Action        string    `json:"action"`
}

// SLAProgressResponse is the live single-issue SLA projection.
type SLAProgressResponse struct {
	IssueID                string                    `json:"issue_id"`
	Progress               float64                   `json:"progress"`
	EscalationLevel        int                       `json:"escalation_level"`
	TimeRemainingMS        int64                     `json:"time_remaining_ms"`
	TimeRemainingFormatted string                    `json:"time_remaining_formatted"`
	SLABreached            bool                      `json:"sla_breached"`
	EscalationHistory      []EscalationEventResponse `json:"escalation_history"`
}
