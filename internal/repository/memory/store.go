// Package memory provides in-process repository implementations with the same uniqueness,
// ownership and cascade semantics as the Postgres schema. It backs tests and local runs
// without POSTGRES_DSN.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jobboard/job-board/internal/domain"
	"github.com/jobboard/job-board/internal/repository"
)

// Store holds every table behind one lock so joins and cascades stay consistent.
type Store struct {
	mu           sync.RWMutex
	users        map[string]domain.User
	jobs         map[string]domain.Job
	applications map[string]domain.Application
	now          func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:        make(map[string]domain.User),
		jobs:         make(map[string]domain.Job),
		applications: make(map[string]domain.Application),
		now:          time.Now,
	}
}

// Users returns the user repository view of the store.
func (s *Store) Users() repository.UserRepository { return userRepository{s} }

// Jobs returns the job repository view of the store.
func (s *Store) Jobs() repository.JobRepository { return jobRepository{s} }

// Applications returns the application repository view of the store.
func (s *Store) Applications() repository.ApplicationRepository { return applicationRepository{s} }

type userRepository struct{ s *Store }

func (r userRepository) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	now := r.s.now()
	user.ID = uuid.NewString()
	user.CreatedAt, user.UpdatedAt = now, now
	if user.Role == "" {
		user.Role = domain.UserRoleUser
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r userRepository) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, existing := range r.s.users {
		if id != user.ID && strings.EqualFold(existing.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	user.UpdatedAt = r.s.now()
	r.s.users[user.ID] = *user
	return nil
}

func (r userRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	user, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, user := range r.s.users {
		if strings.EqualFold(user.Email, email) {
			u := user
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

type jobRepository struct{ s *Store }

func (r jobRepository) Create(_ context.Context, job *domain.Job) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[job.PostedByID]; !ok {
		return repository.ErrMissingReference
	}
	now := r.s.now()
	job.ID = uuid.NewString()
	job.CreatedAt, job.UpdatedAt = now, now
	r.s.jobs[job.ID] = *job
	return nil
}

func (r jobRepository) GetByID(_ context.Context, id string) (*domain.Job, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	job, ok := r.s.jobs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &job, nil
}

func (r jobRepository) GetOwned(_ context.Context, id, ownerID string) (*domain.Job, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	job, ok := r.s.jobs[id]
	if !ok || job.PostedByID != ownerID {
		return nil, repository.ErrNotFound
	}
	return &job, nil
}

func (r jobRepository) FindSimilar(_ context.Context, candidate *domain.Job) (*domain.Job, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, job := range r.s.jobs {
		if job.Title == candidate.Title && job.Company == candidate.Company &&
			job.Location == candidate.Location && job.Description == candidate.Description {
			j := job
			return &j, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r jobRepository) List(_ context.Context, filter repository.JobFilter) ([]domain.Job, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	match := func(want, got string) bool {
		want = strings.TrimSpace(want)
		return want == "" || want == got
	}
	var result []domain.Job
	for _, job := range r.s.jobs {
		if match(filter.Title, job.Title) && match(filter.Company, job.Company) &&
			match(filter.Location, job.Location) && match(filter.Type, job.Type) {
			result = append(result, job)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(result) {
		return nil, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], nil
}

func (r jobRepository) ListByOwnerWithStats(_ context.Context, ownerID string) ([]domain.JobWithStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []domain.JobWithStats
	for _, job := range r.s.jobs {
		if job.PostedByID != ownerID {
			continue
		}
		item := domain.JobWithStats{Job: job}
		for _, app := range r.s.applications {
			if app.JobID != job.ID {
				continue
			}
			item.ApplicationsCount++
			if job.LastViewedApplications == nil || app.CreatedAt.After(*job.LastViewedApplications) {
				item.NewApplicationsCount++
			}
		}
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r jobRepository) CountApplications(_ context.Context, jobID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	count := 0
	for _, app := range r.s.applications {
		if app.JobID == jobID {
			count++
		}
	}
	return count, nil
}

func (r jobRepository) UpdateOwned(_ context.Context, job *domain.Job, ownerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.jobs[job.ID]
	if !ok || stored.PostedByID != ownerID {
		return repository.ErrNotFound
	}
	stored.Title = job.Title
	stored.Company = job.Company
	stored.Location = job.Location
	stored.Type = job.Type
	stored.Description = job.Description
	stored.Salary = job.Salary
	stored.UpdatedAt = r.s.now()
	r.s.jobs[job.ID] = stored
	*job = stored
	return nil
}

func (r jobRepository) DeleteOwned(_ context.Context, id, ownerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.jobs[id]
	if !ok || stored.PostedByID != ownerID {
		return repository.ErrNotFound
	}
	delete(r.s.jobs, id)
	for appID, app := range r.s.applications {
		if app.JobID == id {
			delete(r.s.applications, appID)
		}
	}
	return nil
}

func (r jobRepository) MarkApplicationsViewedOwned(_ context.Context, id, ownerID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.jobs[id]
	if !ok || stored.PostedByID != ownerID {
		return repository.ErrNotFound
	}
	stored.LastViewedApplications = &at
	r.s.jobs[id] = stored
	return nil
}

type applicationRepository struct{ s *Store }

func (r applicationRepository) Create(_ context.Context, application *domain.Application) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.jobs[application.JobID]; !ok {
		return repository.ErrMissingReference
	}
	if _, ok := r.s.users[application.UserID]; !ok {
		return repository.ErrMissingReference
	}
	for _, existing := range r.s.applications {
		if existing.JobID == application.JobID && existing.UserID == application.UserID {
			return repository.ErrDuplicate
		}
	}
	now := r.s.now()
	application.ID = uuid.NewString()
	application.CreatedAt, application.UpdatedAt = now, now
	if application.Documents == nil {
		application.Documents = []domain.Document{}
	}
	stored := *application
	stored.Documents = append([]domain.Document(nil), application.Documents...)
	r.s.applications[application.ID] = stored
	return nil
}

func (r applicationRepository) GetByID(_ context.Context, id string) (*domain.Application, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	app, ok := r.s.applications[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &app, nil
}

func (r applicationRepository) GetByJobAndUser(_ context.Context, jobID, userID string) (*domain.Application, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, app := range r.s.applications {
		if app.JobID == jobID && app.UserID == userID {
			a := app
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r applicationRepository) GetForOwner(_ context.Context, id, ownerID string) (*domain.Application, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	app, ok := r.s.applications[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if job, ok := r.s.jobs[app.JobID]; !ok || job.PostedByID != ownerID {
		return nil, repository.ErrNotFound
	}
	return &app, nil
}

func (r applicationRepository) ListByJob(_ context.Context, jobID string) ([]domain.Application, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.Application
	for _, app := range r.s.applications {
		if app.JobID == jobID {
			result = append(result, app)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r applicationRepository) ListByUser(_ context.Context, userID string) ([]domain.ApplicationSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.ApplicationSummary
	for _, app := range r.s.applications {
		if app.UserID != userID {
			continue
		}
		job := r.s.jobs[app.JobID]
		result = append(result, domain.ApplicationSummary{
			Application: app,
			JobTitle:    job.Title,
			JobCompany:  job.Company,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r applicationRepository) UpdateStatusForOwner(_ context.Context, id, ownerID string, status domain.ApplicationStatus) (*domain.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	app, ok := r.s.applications[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if job, ok := r.s.jobs[app.JobID]; !ok || job.PostedByID != ownerID {
		return nil, repository.ErrNotFound
	}
	app.Status = status
	app.UpdatedAt = r.s.now()
	r.s.applications[id] = app
	return &app, nil
}
