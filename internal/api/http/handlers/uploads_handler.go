package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jobboard/job-board/internal/service"
	apperrors "github.com/jobboard/job-board/pkg/util/errorutil"
)

// UploadsHandler accepts one document per request.
type UploadsHandler struct {
	uploads *service.UploadService
}

// NewUploadsHandler constructs handler.
func NewUploadsHandler(uploads *service.UploadService) *UploadsHandler {
	return &UploadsHandler{uploads: uploads}
}

// Upload handles POST /uploads with a multipart "file" field and answers {url, name}.
func (h *UploadsHandler) Upload(c *fiber.Ctx) error {
	if _, err := identity(c); err != nil {
		return err
	}
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("No file uploaded.", nil)
	}
	file, err := header.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer file.Close()

	res, err := h.uploads.Upload(c.UserContext(), header.Filename, header.Header.Get(fiber.HeaderContentType), header.Size, file)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}
