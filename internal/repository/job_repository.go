package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jobboard/job-board/internal/domain"
)

// JobFilter captures public listing parameters. Empty fields match everything.
type JobFilter struct {
	Title    string
	Company  string
	Location string
	Type     string
	Limit    int
	Offset   int
}

// JobRepository encapsulates job persistence. Methods suffixed Owned only touch rows whose
// posted_by_id equals ownerID and report ErrNotFound otherwise.
type JobRepository interface {
	Create(ctx context.Context, job *domain.Job) error
	GetByID(ctx context.Context, id string) (*domain.Job, error)
	GetOwned(ctx context.Context, id, ownerID string) (*domain.Job, error)
	FindSimilar(ctx context.Context, job *domain.Job) (*domain.Job, error)
	List(ctx context.Context, filter JobFilter) ([]domain.Job, error)
	ListByOwnerWithStats(ctx context.Context, ownerID string) ([]domain.JobWithStats, error)
	CountApplications(ctx context.Context, jobID string) (int, error)
	UpdateOwned(ctx context.Context, job *domain.Job, ownerID string) error
	DeleteOwned(ctx context.Context, id, ownerID string) error
	MarkApplicationsViewedOwned(ctx context.Context, id, ownerID string, at time.Time) error
}

type jobRepository struct {
	pool *pgxpool.Pool
}

// NewJobRepository instantiates repository.
func NewJobRepository(pool *pgxpool.Pool) JobRepository {
	return &jobRepository{pool: pool}
}

const jobColumns = `id, title, company, location, type, description, salary, posted_by_id,
               created_at, updated_at, last_viewed_applications`

func (r *jobRepository) Create(ctx context.Context, job *domain.Job) error {
	const query = `
        INSERT INTO jobs (title, company, location, type, description, salary, posted_by_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		job.Title,
		job.Company,
		job.Location,
		job.Type,
		job.Description,
		job.Salary,
		job.PostedByID,
	).Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)
	return translate(err)
}

func (r *jobRepository) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	return r.fetchSingle(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id=$1`, id)
}

func (r *jobRepository) GetOwned(ctx context.Context, id, ownerID string) (*domain.Job, error) {
	return r.fetchSingle(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id=$1 AND posted_by_id=$2`, id, ownerID)
}

func (r *jobRepository) FindSimilar(ctx context.Context, job *domain.Job) (*domain.Job, error) {
	const query = `SELECT ` + jobColumns + ` FROM jobs
        WHERE title=$1 AND company=$2 AND location=$3 AND description=$4
        LIMIT 1`
	return r.fetchSingle(ctx, query, job.Title, job.Company, job.Location, job.Description)
}

func (r *jobRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Job, error) {
	job, err := scanJob(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, translate(err)
	}
	return job, nil
}

func (r *jobRepository) List(ctx context.Context, filter JobFilter) ([]domain.Job, error) {
	clauses := []string{"1=1"}
	args := []any{}

	add := func(column, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		args = append(args, strings.TrimSpace(value))
		clauses = append(clauses, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	add("title", filter.Title)
	add("company", filter.Company)
	add("location", filter.Location)
	add("type", filter.Type)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM jobs WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		jobColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var result []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *job)
	}
	return result, rows.Err()
}

func (r *jobRepository) ListByOwnerWithStats(ctx context.Context, ownerID string) ([]domain.JobWithStats, error) {
	const query = `
        SELECT j.id, j.title, j.company, j.location, j.type, j.description, j.salary, j.posted_by_id,
               j.created_at, j.updated_at, j.last_viewed_applications,
               COUNT(a.id) AS applications_count,
               COUNT(a.id) FILTER (
                   WHERE j.last_viewed_applications IS NULL OR a.created_at > j.last_viewed_applications
               ) AS new_applications_count
        FROM jobs j
        LEFT JOIN applications a ON a.job_id = j.id
        WHERE j.posted_by_id=$1
        GROUP BY j.id
        ORDER BY j.created_at DESC`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var result []domain.JobWithStats
	for rows.Next() {
		var item domain.JobWithStats
		if err := rows.Scan(
			&item.ID,
			&item.Title,
			&item.Company,
			&item.Location,
			&item.Type,
			&item.Description,
			&item.Salary,
			&item.PostedByID,
			&item.CreatedAt,
			&item.UpdatedAt,
			&item.LastViewedApplications,
			&item.ApplicationsCount,
			&item.NewApplicationsCount,
		); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

func (r *jobRepository) CountApplications(ctx context.Context, jobID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM applications WHERE job_id=$1`, jobID).Scan(&count)
	return count, translate(err)
}

func (r *jobRepository) UpdateOwned(ctx context.Context, job *domain.Job, ownerID string) error {
	const query = `
        UPDATE jobs SET title=$1, company=$2, location=$3, type=$4, description=$5, salary=$6, updated_at=NOW()
        WHERE id=$7 AND posted_by_id=$8
        RETURNING posted_by_id, created_at, updated_at, last_viewed_applications`
	err := r.pool.QueryRow(ctx, query,
		job.Title,
		job.Company,
		job.Location,
		job.Type,
		job.Description,
		job.Salary,
		job.ID,
		ownerID,
	).Scan(&job.PostedByID, &job.CreatedAt, &job.UpdatedAt, &job.LastViewedApplications)
	return translate(err)
}

func (r *jobRepository) DeleteOwned(ctx context.Context, id, ownerID string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM jobs WHERE id=$1 AND posted_by_id=$2`, id, ownerID)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *jobRepository) MarkApplicationsViewedOwned(ctx context.Context, id, ownerID string, at time.Time) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE jobs SET last_viewed_applications=$1 WHERE id=$2 AND posted_by_id=$3`,
		at, id, ownerID)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	var job domain.Job
	if err := row.Scan(
		&job.ID,
		&job.Title,
		&job.Company,
		&job.Location,
		&job.Type,
		&job.Description,
		&job.Salary,
		&job.PostedByID,
		&job.CreatedAt,
		&job.UpdatedAt,
		&job.LastViewedApplications,
	); err != nil {
		return nil, err
	}
	return &job, nil
}
