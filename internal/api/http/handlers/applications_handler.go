package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/jobboard/job-board/internal/api/dto"
	"github.com/jobboard/job-board/internal/service"
	apperrors "github.com/jobboard/job-board/pkg/util/errorutil"
)

// ApplicationsHandler exposes submission and status changes.
type ApplicationsHandler struct {
	applications *service.ApplicationService
}

// NewApplicationsHandler constructs handler.
func NewApplicationsHandler(applications *service.ApplicationService) *ApplicationsHandler {
	return &ApplicationsHandler{applications: applications}
}

// Submit handles POST /jobs/:id/apply.
func (h *ApplicationsHandler) Submit(c *fiber.Ctx) error {
	caller, err := identity(c)
	if err != nil {
		return err
	}
	jobID, ok := uuidParam(c, "id")
	if !ok {
		return apperrors.NewNotFound("job", nil)
	}
	var req service.ApplicationInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	app, err := h.applications.SubmitApplication(c.UserContext(), caller, jobID, req)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.ToApplicationResponse(*app)})
}

// UpdateStatus handles PATCH /applications/:id/status. It always answers with
// {success, message}, using the status code of the failure when there is one.
func (h *ApplicationsHandler) UpdateStatus(c *fiber.Ctx) error {
	caller, err := identity(c)
	if err != nil {
		return err
	}
	var req dto.StatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(service.StatusUpdateResult{Message: "invalid payload"})
	}

	result, err := h.applications.UpdateApplicationStatus(c.UserContext(), caller, c.Params("id"), req.Status, req.JobID)
	if err != nil {
		return c.Status(apperrors.ToDomainError(err).HTTPStatus).JSON(result)
	}
	return c.JSON(result)
}

// Mine handles GET /applications.
func (h *ApplicationsHandler) Mine(c *fiber.Ctx) error {
	caller, err := identity(c)
	if err != nil {
		return err
	}
	items, err := h.applications.ListMyApplications(c.UserContext(), caller)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToApplicationSummaryResponses(items)})
}
