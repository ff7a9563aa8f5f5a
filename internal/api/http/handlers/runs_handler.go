package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-copilot/internal/directory"
	"github.com/spec-kit/ticket-copilot/internal/service"
	apperrors "github.com/spec-kit/ticket-copilot/pkg/util"
)

const maxRunsLimit = 100

// RunsHandler exposes the run audit log.
type RunsHandler struct {
	audit *service.AuditService
}

// NewRunsHandler constructs handler.
func NewRunsHandler(audit *service.AuditService) *RunsHandler {
	return &RunsHandler{audit: audit}
}

// List GET /v1/tickets/runs?limit=. Callers only see their own runs.
func (h *RunsHandler) List(c *fiber.Ctx) error {
	requester, err := resolveRequester(c, directory.NormalizeID(c.Query("requester_id")))
	if err != nil {
		return err
	}
	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > maxRunsLimit {
		return apperrors.NewValidationError("limit must be between 1 and 100", map[string]any{"limit": limit})
	}

	runs, err := h.audit.History(c.UserContext(), requester, limit)
	if err != nil {
		return apperrors.NewServiceUnavailable("run history unavailable", err)
	}
	return c.JSON(fiber.Map{"data": runs})
}
