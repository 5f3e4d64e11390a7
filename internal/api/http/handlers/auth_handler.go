package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/jobboard/job-board/internal/api/dto"
	"github.com/jobboard/job-board/internal/service"
)

// AuthHandler exposes account endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	res, err := h.auth.Register(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.ToUserResponse(res.User),
			"auth": dto.AuthResponse{Token: res.Token, ExpiresAt: res.ExpiresAt},
		},
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	res, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.ToUserResponse(res.User),
			"auth": dto.AuthResponse{Token: res.Token, ExpiresAt: res.ExpiresAt},
		},
	})
}

// UpdateAdminProfile handles PUT /admin/profile.
func (h *AuthHandler) UpdateAdminProfile(c *fiber.Ctx) error {
	caller, err := identity(c)
	if err != nil {
		return err
	}
	var req service.AdminProfileInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.auth.UpdateAdminProfile(c.UserContext(), caller, req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToUserResponse(user)})
}
