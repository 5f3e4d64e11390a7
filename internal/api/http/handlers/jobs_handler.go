package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/jobboard/job-board/internal/api/dto"
	"github.com/jobboard/job-board/internal/repository"
	"github.com/jobboard/job-board/internal/service"
	apperrors "github.com/jobboard/job-board/pkg/util/errorutil"
)

// JobsHandler exposes job postings and the owner's applicant views.
type JobsHandler struct {
	jobs *service.JobService
}

// NewJobsHandler constructs handler.
func NewJobsHandler(jobs *service.JobService) *JobsHandler {
	return &JobsHandler{jobs: jobs}
}

// List handles GET /jobs.
func (h *JobsHandler) List(c *fiber.Ctx) error {
	filter := repository.JobFilter{
		Title:    c.Query("title"),
		Company:  c.Query("company"),
		Location: c.Query("location"),
		Type:     c.Query("type"),
		Limit:    c.QueryInt("limit", 20),
		Offset:   c.QueryInt("offset", 0),
	}
	jobs, err := h.jobs.ListJobs(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToJobResponses(jobs)})
}

// Get handles GET /jobs/:id.
func (h *JobsHandler) Get(c *fiber.Ctx) error {
	jobID, ok := uuidParam(c, "id")
	if !ok {
		return apperrors.NewNotFound("job", nil)
	}
	detail, err := h.jobs.GetJob(c.UserContext(), jobID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.JobDetailResponse{
		JobResponse:       dto.ToJobResponse(detail.Job),
		ApplicationsCount: detail.ApplicationsCount,
	}})
}

// Create handles POST /jobs.
func (h *JobsHandler) Create(c *fiber.Ctx) error {
	caller, err := identity(c)
	if err != nil {
		return err
	}
	var req service.JobInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	job, err := h.jobs.CreateJob(c.UserContext(), caller, req)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.ToJobResponse(*job)})
}

// Update handles PUT /jobs/:id.
func (h *JobsHandler) Update(c *fiber.Ctx) error {
	caller, err := identity(c)
	if err != nil {
		return err
	}
	jobID, ok := uuidParam(c, "id")
	if !ok {
		return apperrors.NewNotFound("job", nil)
	}
	var req service.JobInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	job, err := h.jobs.UpdateJob(c.UserContext(), caller, jobID, req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToJobResponse(*job)})
}

// Delete handles DELETE /jobs/:id.
func (h *JobsHandler) Delete(c *fiber.Ctx) error {
	caller, err := identity(c)
	if err != nil {
		return err
	}
	jobID, ok := uuidParam(c, "id")
	if !ok {
		return apperrors.NewNotFound("job", nil)
	}
	if err := h.jobs.DeleteJob(c.UserContext(), caller, jobID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Applicants handles GET /jobs/:id/applicants.
func (h *JobsHandler) Applicants(c *fiber.Ctx) error {
	caller, err := identity(c)
	if err != nil {
		return err
	}
	jobID, ok := uuidParam(c, "id")
	if !ok {
		return apperrors.NewNotFound("job", nil)
	}
	apps, err := h.jobs.ListApplicants(c.UserContext(), caller, jobID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToApplicationResponses(apps)})
}

// Applicant handles GET /jobs/:id/applicants/:applicationId.
func (h *JobsHandler) Applicant(c *fiber.Ctx) error {
	caller, err := identity(c)
	if err != nil {
		return err
	}
	jobID, okJob := uuidParam(c, "id")
	appID, okApp := uuidParam(c, "applicationId")
	if !okJob || !okApp {
		return apperrors.NewNotFound("application", nil)
	}
	app, err := h.jobs.GetApplicant(c.UserContext(), caller, jobID, appID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToApplicationResponse(*app)})
}
