package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jobboard/job-board/internal/api/dto"
	"github.com/jobboard/job-board/internal/service"
)

// DashboardHandler serves the signed-in user's overview.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Get handles GET /dashboard.
func (h *DashboardHandler) Get(c *fiber.Ctx) error {
	caller, err := identity(c)
	if err != nil {
		return err
	}
	d, err := h.dashboard.Get(c.UserContext(), caller)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToDashboardResponse(d.PostedJobs, d.Applications)})
}
