package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jobboard/job-board/internal/domain"
	apperrors "github.com/jobboard/job-board/pkg/util/errorutil"
)

// RequireRole ensures the caller holds one of the allowed roles.
func RequireRole(allowed ...domain.UserRole) fiber.Handler {
	allowedSet := make(map[domain.UserRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok || !identity.Authenticated() {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[identity.Role]; !exists {
			return apperrors.NewUnauthorized("Unauthorized")
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures an identity was resolved.
func RequireAuthenticated() fiber.Handler {
	return RequireRole()
}
