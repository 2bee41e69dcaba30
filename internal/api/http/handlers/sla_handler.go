package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ROHAN-089/namma-city/internal/api/dto"
	"github.com/ROHAN-089/namma-city/internal/repository"
	"github.com/ROHAN-089/namma-city/internal/service"
	apperrors "github.com/ROHAN-089/namma-city/pkg/util"
)

// SLAHandler exposes the SLA engine operations.
type SLAHandler struct {
	slaService   *service.SLAService
	sweepService *service.SweepService
}

// NewSLAHandler constructs handler.
func NewSLAHandler(slaService *service.SLAService, sweepService *service.SweepService) *SLAHandler {
	return &SLAHandler{slaService: slaService, sweepService: sweepService}
}

// Statistics GET /issues/sla/statistics.
func (h *SLAHandler) Statistics(c *fiber.Ctx) error {
	stats, err := h.slaService.Statistics(c.UserContext(), parseScope(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SLAStatisticsResponse{
		Total:            stats.Total,
		OnTime:           stats.OnTime,
		AtRisk:           stats.AtRisk,
		Breached:         stats.Breached,
		AvgProgress:      stats.AvgProgress,
		EscalationLevels: stats.EscalationLevels,
	}})
}

// Overdue GET /issues/sla/overdue.
func (h *SLAHandler) Overdue(c *fiber.Ctx) error {
	overdue, err := h.slaService.OverdueIssues(c.UserContext(), parseScope(c))
	if err != nil {
		return err
	}
	items := make([]dto.OverdueIssueResponse, 0, len(overdue))
	for _, entry := range overdue {
		items = append(items, dto.OverdueIssueResponse{
			ID:              entry.Issue.ID,
			Title:           entry.Issue.Title,
			Category:        entry.Issue.Category,
			Status:          entry.Issue.Status,
			Priority:        entry.Issue.Priority,
			DepartmentCode:  entry.Issue.DepartmentCode,
			CityName:        entry.Issue.CityName,
			CreatedAt:       entry.Issue.CreatedAt,
			SLADeadline:     entry.Issue.SLADeadline,
			SLAProgress:     entry.SLAProgress,
			TimeOverdueMS:   entry.TimeOverdue.Milliseconds(),
			EscalationLevel: entry.EscalationLevel,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Escalate POST /issues/sla/escalate.
func (h *SLAHandler) Escalate(c *fiber.Ctx) error {
	result, err := h.sweepService.RunSweep(c.UserContext(), parseScope(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": result})
}

// Progress GET /issues/:id/sla.
func (h *SLAHandler) Progress(c *fiber.Ctx) error {
	view, err := h.slaService.Progress(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	history := make([]dto.EscalationEventResponse, 0, len(view.EscalationHistory))
	for _, event := range view.EscalationHistory {
		history = append(history, dto.EscalationEventResponse{
			Level:         event.Level,
			EscalatedAt:   event.EscalatedAt,
			EscalatedByID: event.EscalatedByID,
			Reason:        event.Reason,
			Action:        event.Action,
		})
	}
	return c.JSON(fiber.Map{"data": dto.SLAProgressResponse{
		IssueID:                view.IssueID,
		Progress:               view.Progress,
		EscalationLevel:        view.EscalationLevel,
		TimeRemainingMS:        view.TimeRemaining.Milliseconds(),
		TimeRemainingFormatted: view.TimeRemainingFormatted,
		SLABreached:            view.SLABreached,
		EscalationHistory:      history,
	}})
}

// UpdatePriority PUT /issues/:id/sla.
func (h *SLAHandler) UpdatePriority(c *fiber.Ctx) error {
	var req dto.UpdateSLARequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(string(req.Priority)) == "" {
		return apperrors.NewValidationError("priority required", nil)
	}

	deadline, err := h.slaService.SetPriority(c.UserContext(), c.Params("id"), req.Priority, req.ActorID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.UpdateSLAResponse{
		IssueID:     c.Params("id"),
		Priority:    req.Priority,
		SLADeadline: deadline,
	}})
}

func parseScope(c *fiber.Ctx) repository.SLAScope {
	scope := repository.SLAScope{}
	if dept := strings.TrimSpace(c.Query("department")); dept != "" {
		scope.DepartmentCode = &dept
	}
	if assignee := strings.TrimSpace(c.Query("assignee")); assignee != "" {
		scope.AssigneeID = &assignee
	}
	return scope
}
