package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jobboard/job-board/internal/cache"
	"github.com/jobboard/job-board/internal/domain"
	"github.com/jobboard/job-board/internal/events"
	"github.com/jobboard/job-board/internal/repository"
	"github.com/jobboard/job-board/internal/validation"
	apperrors "github.com/jobboard/job-board/pkg/util/errorutil"
)

const msgJobNotFoundOrUnauthorized = "Job not found or unauthorized."

// JobInput is the create and update form for a posting.
type JobInput struct {
	Title       string `json:"title" label:"Title" validate:"required,max=200"`
	Company     string `json:"company" label:"Company" validate:"required,max=200"`
	Location    string `json:"location" label:"Location" validate:"required,max=200"`
	Type        string `json:"type" label:"Job type" validate:"required,max=100"`
	Description string `json:"description" label:"Description" validate:"required"`
	Salary      *int   `json:"salary" label:"Salary" validate:"omitempty,min=0"`
}

// JobDetail is the public job page.
type JobDetail struct {
	Job               domain.Job
	ApplicationsCount int
}

// JobService manages postings and the owner's view of their applicants.
type JobService struct {
	authService  *AuthService
	jobs         repository.JobRepository
	applications repository.ApplicationRepository
	validator    *validation.Validator
	dispatcher   events.Dispatcher
	cache        cache.ViewCache
	keys         cache.Keys
	logger       *zap.Logger
	now          func() time.Time
}

// JobDependencies bundles collaborators for the job service.
type JobDependencies struct {
	AuthService     *AuthService
	JobRepo         repository.JobRepository
	ApplicationRepo repository.ApplicationRepository
	Validator       *validation.Validator
	Dispatcher      events.Dispatcher
	Cache           cache.ViewCache
	Keys            cache.Keys
	Logger          *zap.Logger
}

// NewJobService builds the service.
func NewJobService(deps JobDependencies) *JobService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	viewCache := deps.Cache
	if viewCache == nil {
		viewCache = cache.Nop{}
	}
	return &JobService{
		authService:  deps.AuthService,
		jobs:         deps.JobRepo,
		applications: deps.ApplicationRepo,
		validator:    deps.Validator,
		dispatcher:   deps.Dispatcher,
		cache:        viewCache,
		keys:         deps.Keys,
		logger:       logger,
		now:          time.Now,
	}
}

// CreateJob posts a job owned by the caller. An identical title, company, location and
// description already on the board is refused.
func (s *JobService) CreateJob(ctx context.Context, identity *domain.Identity, in JobInput) (*domain.Job, error) {
	user, err := s.authService.EnsureUser(ctx, identity)
	if err != nil {
		return nil, err
	}
	in = trimJobInput(in)
	if err := validateInput(s.validator, in, "Validation failed."); err != nil {
		return nil, err
	}

	job := &domain.Job{
		Title:       in.Title,
		Company:     in.Company,
		Location:    in.Location,
		Type:        in.Type,
		Description: in.Description,
		Salary:      in.Salary,
		PostedByID:  user.ID,
	}
	if _, err := s.jobs.FindSimilar(ctx, job); err == nil {
		return nil, apperrors.NewConflict("A similar job posting already exists.", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, s.internal("find similar job", err)
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, s.internal("create job", err)
	}
	s.logger.Info("job created", zap.String("job_id", job.ID), zap.String("user_id", user.ID))
	s.publish(ctx, events.Event{
		Type:    events.EventJobCreated,
		JobID:   job.ID,
		ActorID: user.ID,
		Payload: events.JobChangedPayload{OwnerID: user.ID, Title: job.Title},
	})
	return job, nil
}

// UpdateJob overwrites the caller's job in one statement guarded by ownership.
func (s *JobService) UpdateJob(ctx context.Context, identity *domain.Identity, jobID string, in JobInput) (*domain.Job, error) {
	if !identity.Authenticated() {
		return nil, apperrors.NewUnauthorized("You must be logged in to update a job.")
	}
	in = trimJobInput(in)
	if err := validateInput(s.validator, in, "Validation failed."); err != nil {
		return nil, err
	}
	if identity.UserID == "" {
		return nil, errJobNotFoundOrUnauthorized()
	}

	job := &domain.Job{
		ID:          jobID,
		Title:       in.Title,
		Company:     in.Company,
		Location:    in.Location,
		Type:        in.Type,
		Description: in.Description,
		Salary:      in.Salary,
	}
	if err := s.jobs.UpdateOwned(ctx, job, identity.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errJobNotFoundOrUnauthorized()
		}
		return nil, s.internal("update job", err)
	}
	s.publish(ctx, events.Event{
		Type:    events.EventJobUpdated,
		JobID:   job.ID,
		ActorID: identity.UserID,
		Payload: events.JobChangedPayload{OwnerID: identity.UserID, Title: job.Title},
	})
	return job, nil
}

// DeleteJob removes the caller's job and, through the cascade, its applications.
func (s *JobService) DeleteJob(ctx context.Context, identity *domain.Identity, jobID string) error {
	if !identity.Authenticated() {
		return apperrors.NewUnauthorized("You must be logged in to delete a job.")
	}
	if identity.UserID == "" {
		return errJobNotFoundOrUnauthorized()
	}

	// applicant ids are collected up front for cache invalidation only
	var applicantIDs []string
	if apps, err := s.applications.ListByJob(ctx, jobID); err == nil {
		for _, app := range apps {
			applicantIDs = append(applicantIDs, app.UserID)
		}
	}

	if err := s.jobs.DeleteOwned(ctx, jobID, identity.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errJobNotFoundOrUnauthorized()
		}
		return s.internal("delete job", err)
	}
	s.logger.Info("job deleted", zap.String("job_id", jobID), zap.String("user_id", identity.UserID))
	s.publish(ctx, events.Event{
		Type:    events.EventJobDeleted,
		JobID:   jobID,
		ActorID: identity.UserID,
		Payload: events.JobChangedPayload{OwnerID: identity.UserID, ApplicantIDs: applicantIDs},
	})
	return nil
}

// ListJobs returns public postings, newest first.
func (s *JobService) ListJobs(ctx context.Context, filter repository.JobFilter) ([]domain.Job, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	jobs, err := s.jobs.List(ctx, filter)
	if err != nil {
		return nil, s.internal("list jobs", err)
	}
	if jobs == nil {
		jobs = []domain.Job{}
	}
	return jobs, nil
}

// GetJob returns the public job page, served from the view cache when possible.
func (s *JobService) GetJob(ctx context.Context, jobID string) (*JobDetail, error) {
	key := s.keys.Job(jobID)
	var cached JobDetail
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err != nil {
		s.logger.Warn("view cache read failed", zap.String("key", key), zap.Error(err))
	} else if hit {
		return &cached, nil
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("job", nil)
		}
		return nil, s.internal("get job", err)
	}
	count, err := s.jobs.CountApplications(ctx, jobID)
	if err != nil {
		return nil, s.internal("count applications", err)
	}
	detail := &JobDetail{Job: *job, ApplicationsCount: count}
	s.store(ctx, key, detail)
	return detail, nil
}

// ListApplicants returns the applications to the caller's job and records that the owner has
// now seen them.
func (s *JobService) ListApplicants(ctx context.Context, identity *domain.Identity, jobID string) ([]domain.Application, error) {
	if !identity.Authenticated() {
		return nil, apperrors.NewUnauthorized("Unauthorized")
	}
	if identity.UserID == "" {
		return nil, errJobNotFoundOrUnauthorized()
	}
	if _, err := s.jobs.GetOwned(ctx, jobID, identity.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errJobNotFoundOrUnauthorized()
		}
		return nil, s.internal("load job", err)
	}

	key := s.keys.Applicants(jobID)
	var apps []domain.Application
	hit, err := s.cache.GetJSON(ctx, key, &apps)
	if err != nil {
		s.logger.Warn("view cache read failed", zap.String("key", key), zap.Error(err))
	}
	if !hit {
		apps, err = s.applications.ListByJob(ctx, jobID)
		if err != nil {
			return nil, s.internal("list applicants", err)
		}
		if apps == nil {
			apps = []domain.Application{}
		}
		s.store(ctx, key, apps)
	}

	if err := s.jobs.MarkApplicationsViewedOwned(ctx, jobID, identity.UserID, s.now().UTC()); err != nil {
		// the listing is still valid; only the dashboard badge stays stale
		s.logger.Warn("mark applications viewed", zap.String("job_id", jobID), zap.Error(err))
	} else {
		s.publish(ctx, events.Event{
			Type:    events.EventApplicationsViewed,
			JobID:   jobID,
			ActorID: identity.UserID,
			Payload: events.JobChangedPayload{OwnerID: identity.UserID},
		})
	}
	return apps, nil
}

// GetApplicant returns one application to the caller's job.
func (s *JobService) GetApplicant(ctx context.Context, identity *domain.Identity, jobID, applicationID string) (*domain.Application, error) {
	if !identity.Authenticated() {
		return nil, apperrors.NewUnauthorized("Unauthorized")
	}
	if identity.UserID == "" {
		return nil, apperrors.NewNotFound("application", nil)
	}
	app, err := s.applications.GetForOwner(ctx, applicationID, identity.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("application", nil)
		}
		return nil, s.internal("get applicant", err)
	}
	if app.JobID != jobID {
		return nil, apperrors.NewNotFound("application", nil)
	}
	return app, nil
}

func (s *JobService) store(ctx context.Context, key string, value any) {
	if err := s.cache.SetJSON(ctx, key, value); err != nil {
		s.logger.Warn("view cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *JobService) internal(op string, err error) error {
	s.logger.Error(op, zap.Error(err))
	return apperrors.NewInternalError(err)
}

func (s *JobService) publish(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.dispatcher, s.logger, s.now, event)
}

func errJobNotFoundOrUnauthorized() error {
	return apperrors.NewDomainError(apperrors.CodeNotFound, msgJobNotFoundOrUnauthorized, http.StatusNotFound, nil)
}

func trimJobInput(in JobInput) JobInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Company = strings.TrimSpace(in.Company)
	in.Location = strings.TrimSpace(in.Location)
	in.Type = strings.TrimSpace(in.Type)
	in.Description = strings.TrimSpace(in.Description)
	return in
}
