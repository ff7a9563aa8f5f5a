package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/ticket-copilot/pkg/util"
)

// RequireEmployee rejects anonymous callers even when Handle lets them
// through. Routes that expose per-employee data sit behind it.
func RequireEmployee() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if principal, ok := PrincipalFromContext(c); ok && principal.EmployeeID != "" {
			return c.Next()
		}
		return apperrors.NewUnauthorized("employee token required")
	}
}
