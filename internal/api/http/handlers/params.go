package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jobboard/job-board/internal/auth"
	"github.com/jobboard/job-board/internal/domain"
	apperrors "github.com/jobboard/job-board/pkg/util/errorutil"
)

// uuidParam returns the named path parameter when it is a well-formed id.
func uuidParam(c *fiber.Ctx, name string) (string, bool) {
	raw := c.Params(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

func identity(c *fiber.Ctx) (*domain.Identity, error) {
	id, ok := auth.IdentityFromContext(c)
	if !ok || !id.Authenticated() {
		return nil, apperrors.NewUnauthorized("Unauthorized")
	}
	return id, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}
