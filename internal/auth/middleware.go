package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jobboard/job-board/internal/domain"
	"github.com/jobboard/job-board/internal/repository"
	apperrors "github.com/jobboard/job-board/pkg/util/errorutil"
)

const identityKey = "auth_identity"

// AuthMiddleware validates bearer tokens and resolves the caller's identity.
type AuthMiddleware struct {
	tokens *TokenManager
	users  repository.UserRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// Handle enforces authentication for protected routes. The stored user row wins over token
// claims for role and name; an email-only token whose user does not exist yet is still accepted
// so the caller can be provisioned lazily.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	email := strings.ToLower(strings.TrimSpace(claims.Email))
	identity := &domain.Identity{
		UserID: claims.UserID,
		Email:  email,
		Name:   claims.Name,
		Role:   claims.Role,
	}

	var user *domain.User
	switch {
	case claims.UserID != "":
		user, err = m.users.GetByID(c.UserContext(), claims.UserID)
	default:
		user, err = m.users.GetByEmail(c.UserContext(), email)
	}
	switch {
	case err == nil:
		identity.UserID = user.ID
		identity.Email = user.Email
		identity.Name = user.Name
		identity.Role = user.Role
	case errors.Is(err, repository.ErrNotFound):
		if email == "" {
			return apperrors.NewUnauthorized("user not found")
		}
		// not provisioned yet
		identity.UserID = ""
		identity.Role = domain.UserRoleUser
	default:
		return apperrors.NewInternalError(err)
	}

	c.Locals(identityKey, identity)
	return c.Next()
}

// IdentityFromContext retrieves the authenticated caller.
func IdentityFromContext(c *fiber.Ctx) (*domain.Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*domain.Identity)
	return identity, ok
}
