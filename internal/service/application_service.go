package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jobboard/job-board/internal/domain"
	"github.com/jobboard/job-board/internal/events"
	"github.com/jobboard/job-board/internal/observability"
	"github.com/jobboard/job-board/internal/repository"
	"github.com/jobboard/job-board/internal/validation"
	apperrors "github.com/jobboard/job-board/pkg/util/errorutil"
)

const (
	msgAlreadyApplied       = "You have already applied for this job"
	msgStatusUpdated        = "Application status updated successfully!"
	msgStatusUnauthorized   = "Unauthorized to update this application."
	msgStatusUpdateFailed   = "Database Error: Failed to update application status."
	msgInvalidApplicationIn = "Invalid input"
)

// DocumentInput references a blob uploaded before submission.
type DocumentInput struct {
	Name string `json:"name" label:"Document name" validate:"required"`
	URL  string `json:"url" label:"Document URL" validate:"required,url"`
}

// ApplicationInput is the submission form.
type ApplicationInput struct {
	Title            string          `json:"title" label:"Title" validate:"required"`
	FirstName        string          `json:"firstName" label:"First name" validate:"required"`
	LastName         string          `json:"lastName" label:"Last name" validate:"required"`
	LevelOfEducation string          `json:"levelOfEducation" label:"Level of education" validate:"required"`
	Region           string          `json:"region" label:"Region" validate:"required"`
	ResidenceAddress string          `json:"residenceAddress" label:"State/County" validate:"required"`
	IDNumber         string          `json:"idNumber" label:"ID number" validate:"required,national_id=Region"`
	PhoneNumber      string          `json:"phoneNumber" label:"Phone number" validate:"required,phone_region=Region"`
	CoverLetter      string          `json:"coverLetter" label:"Cover letter" validate:"required,max=1500"`
	Documents        []DocumentInput `json:"documents" validate:"omitempty,dive"`
}

// StatusUpdateResult is the outcome reported to the caller of a status change.
type StatusUpdateResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ApplicationService runs the submission workflow and the owner-driven status changes.
type ApplicationService struct {
	authService  *AuthService
	jobs         repository.JobRepository
	applications repository.ApplicationRepository
	validator    *validation.Validator
	dispatcher   events.Dispatcher
	metrics      *observability.Metrics
	logger       *zap.Logger
	now          func() time.Time
}

// ApplicationDependencies bundles collaborators for the application service.
type ApplicationDependencies struct {
	AuthService     *AuthService
	JobRepo         repository.JobRepository
	ApplicationRepo repository.ApplicationRepository
	Validator       *validation.Validator
	Dispatcher      events.Dispatcher
	Metrics         *observability.Metrics
	Logger          *zap.Logger
}

// NewApplicationService builds the service.
func NewApplicationService(deps ApplicationDependencies) *ApplicationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApplicationService{
		authService:  deps.AuthService,
		jobs:         deps.JobRepo,
		applications: deps.ApplicationRepo,
		validator:    deps.Validator,
		dispatcher:   deps.Dispatcher,
		metrics:      deps.Metrics,
		logger:       logger,
		now:          time.Now,
	}
}

// SubmitApplication records the caller's application to jobID. The caller's user row is created
// on first use. The duplicate lookup only produces the friendly conflict early; the unique
// (job, user) constraint decides between concurrent submissions.
func (s *ApplicationService) SubmitApplication(ctx context.Context, identity *domain.Identity, jobID string, in ApplicationInput) (*domain.Application, error) {
	user, err := s.authService.EnsureUser(ctx, identity)
	if err != nil {
		return nil, err
	}

	in = trimApplicationInput(in)
	if err := validateInput(s.validator, in, msgInvalidApplicationIn); err != nil {
		s.logger.Debug("application rejected by validation", zap.String("job_id", jobID), zap.Error(err))
		return nil, err
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("job", nil)
		}
		return nil, s.internal("load job", err)
	}

	if _, err := s.applications.GetByJobAndUser(ctx, jobID, user.ID); err == nil {
		return nil, s.conflict(jobID, user.ID)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, s.internal("check existing application", err)
	}

	application := &domain.Application{
		JobID:            jobID,
		UserID:           user.ID,
		Title:            in.Title,
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		LevelOfEducation: in.LevelOfEducation,
		Region:           strings.ToUpper(in.Region),
		ResidenceAddress: in.ResidenceAddress,
		IDNumber:         in.IDNumber,
		PhoneNumber:      in.PhoneNumber,
		CoverLetter:      in.CoverLetter,
		Documents:        toDocuments(in.Documents),
		Status:           domain.ApplicationStatusPending,
	}
	if err := s.applications.Create(ctx, application); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, s.conflict(jobID, user.ID)
		case errors.Is(err, repository.ErrMissingReference):
			return nil, apperrors.NewNotFound("job", nil)
		default:
			return nil, s.internal("create application", err)
		}
	}

	s.metrics.Inc(observability.CounterApplicationsSubmitted)
	s.logger.Info("application submitted",
		zap.String("application_id", application.ID),
		zap.String("job_id", jobID),
		zap.String("user_id", user.ID))

	s.publish(ctx, events.Event{
		Type:    events.EventApplicationSubmitted,
		JobID:   jobID,
		ActorID: user.ID,
		Payload: events.ApplicationSubmittedPayload{
			ApplicationID:  application.ID,
			ApplicantID:    user.ID,
			ApplicantName:  strings.TrimSpace(application.FirstName + " " + application.LastName),
			JobOwnerID:     job.PostedByID,
			JobTitle:       job.Title,
			DocumentsCount: len(application.Documents),
		},
	})
	return application, nil
}

// UpdateApplicationStatus sets the status of applicationID when the caller owns its job. The
// jobID argument is what the caller believes the parent job to be; ownership is always taken
// from the stored application. Any status may follow any other.
func (s *ApplicationService) UpdateApplicationStatus(ctx context.Context, identity *domain.Identity, applicationID string, newStatus domain.ApplicationStatus, jobID string) (StatusUpdateResult, error) {
	if !identity.Authenticated() {
		return failed("You must be logged in to update application status."),
			apperrors.NewUnauthorized("You must be logged in to update application status.")
	}
	if !newStatus.Valid() {
		return failed("Invalid application status."),
			apperrors.NewFieldValidationError("Invalid application status.", map[string][]string{
				"status": {"Status must be one of PENDING, REVIEWED, ACCEPTED, REJECTED"},
			})
	}
	if identity.UserID == "" {
		// not provisioned, so owns no job
		return failed(msgStatusUnauthorized), apperrors.NewUnauthorized(msgStatusUnauthorized)
	}

	updated, err := s.applications.UpdateStatusForOwner(ctx, applicationID, identity.UserID, newStatus)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Info("status update refused",
				zap.String("application_id", applicationID),
				zap.String("user_id", identity.UserID))
			return failed(msgStatusUnauthorized), apperrors.NewUnauthorized(msgStatusUnauthorized)
		}
		s.logger.Error("update application status", zap.String("application_id", applicationID), zap.Error(err))
		return failed(msgStatusUpdateFailed), &apperrors.DomainError{
			Code:       apperrors.CodeInternal,
			Message:    msgStatusUpdateFailed,
			HTTPStatus: http.StatusInternalServerError,
			Err:        err,
		}
	}

	if jobID != "" && jobID != updated.JobID {
		s.logger.Debug("status update jobId does not match application",
			zap.String("application_id", applicationID),
			zap.String("claimed_job_id", jobID),
			zap.String("job_id", updated.JobID))
	}

	s.metrics.Inc(observability.CounterStatusUpdates)
	s.logger.Info("application status updated",
		zap.String("application_id", applicationID),
		zap.String("status", string(newStatus)))

	s.publish(ctx, events.Event{
		Type:    events.EventApplicationStatusChanged,
		JobID:   updated.JobID,
		ActorID: identity.UserID,
		Payload: events.ApplicationStatusChangedPayload{
			ApplicationID: updated.ID,
			ApplicantID:   updated.UserID,
			NewStatus:     updated.Status,
		},
	})
	return StatusUpdateResult{Success: true, Message: msgStatusUpdated}, nil
}

// ListMyApplications returns the caller's applications with their job titles.
func (s *ApplicationService) ListMyApplications(ctx context.Context, identity *domain.Identity) ([]domain.ApplicationSummary, error) {
	if !identity.Authenticated() {
		return nil, apperrors.NewUnauthorized("Unauthorized")
	}
	if identity.UserID == "" {
		return []domain.ApplicationSummary{}, nil
	}
	items, err := s.applications.ListByUser(ctx, identity.UserID)
	if err != nil {
		return nil, s.internal("list applications", err)
	}
	return items, nil
}

func (s *ApplicationService) conflict(jobID, userID string) error {
	s.metrics.Inc(observability.CounterApplicationConflicts)
	s.logger.Info("duplicate application", zap.String("job_id", jobID), zap.String("user_id", userID))
	return apperrors.NewConflict(msgAlreadyApplied, nil)
}

func (s *ApplicationService) internal(op string, err error) error {
	s.logger.Error(op, zap.Error(err))
	return apperrors.NewInternalError(err)
}

func (s *ApplicationService) publish(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.dispatcher, s.logger, s.now, event)
}

// publishEvent stamps and dispatches event. Handler failures never undo the committed write.
func publishEvent(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, now func() time.Time, event events.Event) {
	if dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = now().UTC()
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handlers failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func failed(message string) StatusUpdateResult {
	return StatusUpdateResult{Success: false, Message: message}
}

func trimApplicationInput(in ApplicationInput) ApplicationInput {
	in.Title = strings.TrimSpace(in.Title)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.LevelOfEducation = strings.TrimSpace(in.LevelOfEducation)
	in.Region = strings.TrimSpace(in.Region)
	in.ResidenceAddress = strings.TrimSpace(in.ResidenceAddress)
	in.IDNumber = strings.TrimSpace(in.IDNumber)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	return in
}

func toDocuments(in []DocumentInput) []domain.Document {
	docs := make([]domain.Document, 0, len(in))
	for _, d := range in {
		docs = append(docs, domain.Document{Name: strings.TrimSpace(d.Name), URL: strings.TrimSpace(d.URL)})
	}
	return docs
}
