package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-copilot/internal/api/dto"
	"github.com/spec-kit/ticket-copilot/internal/auth"
	"github.com/spec-kit/ticket-copilot/internal/domain"
	"github.com/spec-kit/ticket-copilot/internal/service"
	apperrors "github.com/spec-kit/ticket-copilot/pkg/util"
)

// TicketsHandler exposes the ticket pipeline.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// ProcessTicket POST /v1/tickets/process.
func (h *TicketsHandler) ProcessTicket(c *fiber.Ctx) error {
	var req dto.ProcessTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	requester, err := resolveRequester(c, req.RequesterID)
	if err != nil {
		return err
	}

	ticket := domain.TicketRequest{
		RequesterID: requester,
		Subject:     req.Subject,
		Body:        req.Body,
		Category:    req.Category,
	}
	result := h.service.Process(c.UserContext(), ticket)

	return c.Status(StatusForOutcome(result.Outcome)).JSON(fiber.Map{
		"data": dto.NewTicketOutcomeResponse(result.RunID, result.Outcome, result.Duration.Milliseconds()),
	})
}

// resolveRequester returns the token subject when the caller is
// authenticated, otherwise the claimed id.
func resolveRequester(c *fiber.Ctx, claimed string) (string, error) {
	requester := strings.TrimSpace(claimed)
	if principal, ok := auth.PrincipalFromContext(c); ok {
		if requester != "" && !strings.EqualFold(requester, principal.EmployeeID) {
			return "", apperrors.NewForbidden("requester_id does not match token subject")
		}
		requester = principal.EmployeeID
	}
	if requester == "" {
		return "", apperrors.NewValidationError("requester_id required", nil)
	}
	return requester, nil
}

// StatusForOutcome maps each outcome variant to its HTTP status.
func StatusForOutcome(o domain.TicketOutcome) int {
	switch o.Kind() {
	case domain.OutcomeResolved:
		return http.StatusOK
	case domain.OutcomeEscalated:
		return http.StatusAccepted
	case domain.OutcomeRejected:
		return http.StatusUnprocessableEntity
	case domain.OutcomeDenied:
		return http.StatusForbidden
	case domain.OutcomeIdentityError:
		return http.StatusNotFound
	default:
		return http.StatusServiceUnavailable
	}
}
