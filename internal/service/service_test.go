package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jobboard/job-board/internal/cache"
	"github.com/jobboard/job-board/internal/config"
	"github.com/jobboard/job-board/internal/domain"
	"github.com/jobboard/job-board/internal/events"
	"github.com/jobboard/job-board/internal/observability"
	"github.com/jobboard/job-board/internal/repository/memory"
	"github.com/jobboard/job-board/internal/validation"
	apperrors "github.com/jobboard/job-board/pkg/util/errorutil"
)

type fixture struct {
	store        *memory.Store
	dispatcher   events.Dispatcher
	metrics      *observability.Metrics
	auth         *AuthService
	applications *ApplicationService
	jobs         *JobService
	dashboard    *DashboardService

	mu        sync.Mutex
	published []events.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:      memory.NewStore(),
		dispatcher: events.NewInMemoryDispatcher(),
		metrics:    observability.NewMetrics(),
	}
	v := validation.New()
	logger := zap.NewNop()
	f.auth = NewAuthService(config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 5, BcryptCost: 4}, f.store.Users(), v, logger)
	f.applications = NewApplicationService(ApplicationDependencies{
		AuthService:     f.auth,
		JobRepo:         f.store.Jobs(),
		ApplicationRepo: f.store.Applications(),
		Validator:       v,
		Dispatcher:      f.dispatcher,
		Metrics:         f.metrics,
		Logger:          logger,
	})
	f.jobs = NewJobService(JobDependencies{
		AuthService:     f.auth,
		JobRepo:         f.store.Jobs(),
		ApplicationRepo: f.store.Applications(),
		Validator:       v,
		Dispatcher:      f.dispatcher,
		Keys:            cache.Keys{Prefix: "test"},
		Logger:          logger,
	})
	f.dashboard = NewDashboardService(f.store.Jobs(), f.store.Applications(), nil, cache.Keys{Prefix: "test"}, logger)

	for _, eventType := range []events.EventType{
		events.EventApplicationSubmitted,
		events.EventApplicationStatusChanged,
		events.EventJobCreated,
		events.EventJobDeleted,
		events.EventApplicationsViewed,
	} {
		f.dispatcher.Subscribe(eventType, func(_ context.Context, e events.Event) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.published = append(f.published, e)
			return nil
		})
	}
	return f
}

func (f *fixture) user(t *testing.T, name string) *domain.Identity {
	t.Helper()
	u := &domain.User{Name: name, Email: strings.ToLower(name) + "@example.com", Role: domain.UserRoleUser}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return &domain.Identity{UserID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

func (f *fixture) job(t *testing.T, owner *domain.Identity) *domain.Job {
	t.Helper()
	job, err := f.jobs.CreateJob(context.Background(), owner, JobInput{
		Title:       "Backend Engineer",
		Company:     "Acme",
		Location:    "Nairobi",
		Type:        "Full-time",
		Description: "Build services in Go.",
	})
	require.NoError(t, err)
	return job
}

func (f *fixture) eventTypes() []events.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]events.EventType, 0, len(f.published))
	for _, e := range f.published {
		out = append(out, e.Type)
	}
	return out
}

func validApplication() ApplicationInput {
	return ApplicationInput{
		Title:            "Mr",
		FirstName:        "Brian",
		LastName:         "Otieno",
		LevelOfEducation: "Bachelor's",
		Region:           "KE",
		ResidenceAddress: "Nairobi County",
		IDNumber:         "12345678",
		PhoneNumber:      "0712345678",
		CoverLetter:      "I have five years of Go experience.",
		Documents: []DocumentInput{
			{Name: "cv.pdf", URL: "https://files.example.com/1700000000000-cv.pdf"},
		},
	}
}

func requireCode(t *testing.T, err error, code string) *apperrors.DomainError {
	t.Helper()
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	require.Equal(t, code, domainErr.Code, "unexpected error: %v", err)
	return domainErr
}

func TestApplicationLifecycleScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b, c := f.user(t, "Alice"), f.user(t, "Bob"), f.user(t, "Carol")
	job := f.job(t, a)

	app, err := f.applications.SubmitApplication(ctx, b, job.ID, validApplication())
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusPending, app.Status)
	assert.Equal(t, []domain.Document{{Name: "cv.pdf", URL: "https://files.example.com/1700000000000-cv.pdf"}}, app.Documents)

	_, err = f.applications.SubmitApplication(ctx, b, job.ID, validApplication())
	conflict := requireCode(t, err, apperrors.CodeConflict)
	assert.Equal(t, "You have already applied for this job", conflict.Message)

	result, err := f.applications.UpdateApplicationStatus(ctx, a, app.ID, domain.ApplicationStatusAccepted, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusUpdateResult{Success: true, Message: "Application status updated successfully!"}, result)

	result, err = f.applications.UpdateApplicationStatus(ctx, c, app.ID, domain.ApplicationStatusRejected, job.ID)
	unauthorized := requireCode(t, err, apperrors.CodeUnauthorized)
	assert.Equal(t, "Unauthorized to update this application.", unauthorized.Message)
	assert.False(t, result.Success)

	stored, err := f.store.Applications().GetByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusAccepted, stored.Status)

	apps, err := f.store.Applications().ListByJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Len(t, apps, 1)

	snap := f.metrics.Snapshot()
	assert.Equal(t, int64(1), snap.Domain[observability.CounterApplicationsSubmitted])
	assert.Equal(t, int64(1), snap.Domain[observability.CounterApplicationConflicts])
	assert.Equal(t, int64(1), snap.Domain[observability.CounterStatusUpdates])
	assert.Equal(t, []events.EventType{
		events.EventJobCreated,
		events.EventApplicationSubmitted,
		events.EventApplicationStatusChanged,
	}, f.eventTypes())
}

func TestConcurrentSubmissionsCreateOneApplication(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner, applicant := f.user(t, "Owner"), f.user(t, "Applicant")
	job := f.job(t, owner)

	const attempts = 12
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			identity := *applicant
			_, errs[i] = f.applications.SubmitApplication(ctx, &identity, job.ID, validApplication())
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)

	apps, err := f.store.Applications().ListByJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Len(t, apps, 1)
}

func TestSubmitLazilyProvisionsUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := f.job(t, f.user(t, "Owner"))

	identity := &domain.Identity{Email: "New.Person@Example.com", Name: "New Person", Role: domain.UserRoleUser}
	app, err := f.applications.SubmitApplication(ctx, identity, job.ID, validApplication())
	require.NoError(t, err)

	user, err := f.store.Users().GetByEmail(ctx, "new.person@example.com")
	require.NoError(t, err)
	assert.Equal(t, "New Person", user.Name)
	assert.False(t, user.HasPassword())
	assert.Equal(t, user.ID, app.UserID)
	assert.Equal(t, user.ID, identity.UserID)
}

func TestSubmitRequiresAuthentication(t *testing.T) {
	f := newFixture(t)
	job := f.job(t, f.user(t, "Owner"))

	_, err := f.applications.SubmitApplication(context.Background(), nil, job.ID, validApplication())
	requireCode(t, err, apperrors.CodeUnauthorized)
	_, err = f.applications.SubmitApplication(context.Background(), &domain.Identity{}, job.ID, validApplication())
	requireCode(t, err, apperrors.CodeUnauthorized)
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "Owner")
	job := f.job(t, owner)

	t.Run("cover letter boundary", func(t *testing.T) {
		in := validApplication()
		in.CoverLetter = strings.Repeat("x", 1501)
		_, err := f.applications.SubmitApplication(ctx, f.user(t, "Long"), job.ID, in)
		domainErr := requireCode(t, err, apperrors.CodeValidationFailed)
		assert.Equal(t, []string{"Cover letter cannot exceed 1500 characters"}, domainErr.Details["coverLetter"])

		in.CoverLetter = strings.Repeat("x", 1500)
		_, err = f.applications.SubmitApplication(ctx, f.user(t, "Exact"), job.ID, in)
		assert.NoError(t, err)
	})

	t.Run("phone invalid for region", func(t *testing.T) {
		in := validApplication()
		in.Region = "US"
		_, err := f.applications.SubmitApplication(ctx, f.user(t, "Phone"), job.ID, in)
		domainErr := requireCode(t, err, apperrors.CodeValidationFailed)
		assert.Equal(t, []string{"Invalid phone number for the selected region"}, domainErr.Details["phoneNumber"])
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := f.applications.SubmitApplication(ctx, f.user(t, "Empty"), job.ID, ApplicationInput{})
		domainErr := requireCode(t, err, apperrors.CodeValidationFailed)
		assert.Equal(t, []string{"State/County is required"}, domainErr.Details["residenceAddress"])
		assert.Contains(t, domainErr.Details, "coverLetter")
	})

	t.Run("document url", func(t *testing.T) {
		in := validApplication()
		in.Documents = []DocumentInput{{Name: "cv.pdf", URL: "cv.pdf"}}
		_, err := f.applications.SubmitApplication(ctx, f.user(t, "Docs"), job.ID, in)
		domainErr := requireCode(t, err, apperrors.CodeValidationFailed)
		assert.Equal(t, []string{"Invalid URL format"}, domainErr.Details["documents[0].url"])
	})

	apps, err := f.store.Applications().ListByJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Len(t, apps, 1)
}

func TestSubmitToMissingJob(t *testing.T) {
	f := newFixture(t)
	_, err := f.applications.SubmitApplication(context.Background(), f.user(t, "Bob"), "no-such-job", validApplication())
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestStatusUpdateIsIdempotentAndUnrestricted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner, applicant := f.user(t, "Owner"), f.user(t, "Applicant")
	job := f.job(t, owner)
	app, err := f.applications.SubmitApplication(ctx, applicant, job.ID, validApplication())
	require.NoError(t, err)

	for _, status := range []domain.ApplicationStatus{
		domain.ApplicationStatusRejected,
		domain.ApplicationStatusRejected,
		domain.ApplicationStatusPending,
		domain.ApplicationStatusReviewed,
		domain.ApplicationStatusAccepted,
	} {
		_, err := f.applications.UpdateApplicationStatus(ctx, owner, app.ID, status, job.ID)
		require.NoError(t, err)
		stored, err := f.store.Applications().GetByID(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, status, stored.Status)
	}
}

func TestStatusUpdateIgnoresClientJobID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner, intruder, applicant := f.user(t, "Owner"), f.user(t, "Intruder"), f.user(t, "Applicant")
	job := f.job(t, owner)
	intruderJob, err := f.jobs.CreateJob(ctx, intruder, JobInput{
		Title: "Other", Company: "Other", Location: "Remote", Type: "Contract", Description: "Other",
	})
	require.NoError(t, err)
	app, err := f.applications.SubmitApplication(ctx, applicant, job.ID, validApplication())
	require.NoError(t, err)

	_, err = f.applications.UpdateApplicationStatus(ctx, intruder, app.ID, domain.ApplicationStatusRejected, intruderJob.ID)
	requireCode(t, err, apperrors.CodeUnauthorized)

	stored, err := f.store.Applications().GetByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusPending, stored.Status)
}

func TestStatusUpdateRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "Owner")
	_, err := f.applications.UpdateApplicationStatus(context.Background(), owner, "any", domain.ApplicationStatus("HIRED"), "")
	requireCode(t, err, apperrors.CodeValidationFailed)
}

func TestStatusUpdateMissingApplicationLooksUnauthorized(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "Owner")
	_, err := f.applications.UpdateApplicationStatus(context.Background(), owner, "missing", domain.ApplicationStatusReviewed, "")
	domainErr := requireCode(t, err, apperrors.CodeUnauthorized)
	assert.Equal(t, "Unauthorized to update this application.", domainErr.Message)
}

func TestListMyApplications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner, applicant := f.user(t, "Owner"), f.user(t, "Applicant")
	job := f.job(t, owner)
	_, err := f.applications.SubmitApplication(ctx, applicant, job.ID, validApplication())
	require.NoError(t, err)

	items, err := f.applications.ListMyApplications(ctx, applicant)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Backend Engineer", items[0].JobTitle)

	items, err = f.applications.ListMyApplications(ctx, &domain.Identity{Email: "ghost@example.com"})
	require.NoError(t, err)
	assert.Empty(t, items)
}
