package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jobboard/job-board/internal/domain"
)

// ApplicationRepository persists applications. Create reports ErrDuplicate when the
// (job_id, user_id) pair already exists, which is the authoritative duplicate signal.
type ApplicationRepository interface {
	Create(ctx context.Context, application *domain.Application) error
	GetByID(ctx context.Context, id string) (*domain.Application, error)
	GetByJobAndUser(ctx context.Context, jobID, userID string) (*domain.Application, error)
	GetForOwner(ctx context.Context, id, ownerID string) (*domain.Application, error)
	ListByJob(ctx context.Context, jobID string) ([]domain.Application, error)
	ListByUser(ctx context.Context, userID string) ([]domain.ApplicationSummary, error)
	UpdateStatusForOwner(ctx context.Context, id, ownerID string, status domain.ApplicationStatus) (*domain.Application, error)
}

type applicationRepository struct {
	pool *pgxpool.Pool
}

// NewApplicationRepository constructs repository.
func NewApplicationRepository(pool *pgxpool.Pool) ApplicationRepository {
	return &applicationRepository{pool: pool}
}

const applicationColumns = `a.id, a.job_id, a.user_id, a.title, a.first_name, a.last_name, a.level_of_education,
               a.region, a.residence_address, a.id_number, a.phone_number, a.cover_letter, a.documents,
               a.status, a.created_at, a.updated_at`

func (r *applicationRepository) Create(ctx context.Context, application *domain.Application) error {
	const query = `
        INSERT INTO applications (job_id, user_id, title, first_name, last_name, level_of_education, region,
                                  residence_address, id_number, phone_number, cover_letter, documents, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id, created_at, updated_at`
	if application.Documents == nil {
		application.Documents = []domain.Document{}
	}
	err := r.pool.QueryRow(ctx, query,
		application.JobID,
		application.UserID,
		application.Title,
		application.FirstName,
		application.LastName,
		application.LevelOfEducation,
		application.Region,
		application.ResidenceAddress,
		application.IDNumber,
		application.PhoneNumber,
		application.CoverLetter,
		application.Documents,
		application.Status,
	).Scan(&application.ID, &application.CreatedAt, &application.UpdatedAt)
	return translate(err)
}

func (r *applicationRepository) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	return r.fetchSingle(ctx, `SELECT `+applicationColumns+` FROM applications a WHERE a.id=$1`, id)
}

func (r *applicationRepository) GetByJobAndUser(ctx context.Context, jobID, userID string) (*domain.Application, error) {
	return r.fetchSingle(ctx,
		`SELECT `+applicationColumns+` FROM applications a WHERE a.job_id=$1 AND a.user_id=$2`,
		jobID, userID)
}

func (r *applicationRepository) GetForOwner(ctx context.Context, id, ownerID string) (*domain.Application, error) {
	const query = `SELECT ` + applicationColumns + `
        FROM applications a
        JOIN jobs j ON j.id = a.job_id
        WHERE a.id=$1 AND j.posted_by_id=$2`
	return r.fetchSingle(ctx, query, id, ownerID)
}

func (r *applicationRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Application, error) {
	application, err := scanApplication(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, translate(err)
	}
	return application, nil
}

func (r *applicationRepository) ListByJob(ctx context.Context, jobID string) ([]domain.Application, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+applicationColumns+` FROM applications a WHERE a.job_id=$1 ORDER BY a.created_at DESC`,
		jobID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var result []domain.Application
	for rows.Next() {
		application, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *application)
	}
	return result, rows.Err()
}

func (r *applicationRepository) ListByUser(ctx context.Context, userID string) ([]domain.ApplicationSummary, error) {
	const query = `SELECT ` + applicationColumns + `, j.title, j.company
        FROM applications a
        JOIN jobs j ON j.id = a.job_id
        WHERE a.user_id=$1
        ORDER BY a.created_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var result []domain.ApplicationSummary
	for rows.Next() {
		var item domain.ApplicationSummary
		dest := append(applicationScanTargets(&item.Application), &item.JobTitle, &item.JobCompany)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

// UpdateStatusForOwner sets the status in one statement guarded by the parent job's owner,
// so the ownership check and the write cannot interleave with another request.
func (r *applicationRepository) UpdateStatusForOwner(ctx context.Context, id, ownerID string, status domain.ApplicationStatus) (*domain.Application, error) {
	const query = `
        UPDATE applications a SET status=$1, updated_at=NOW()
        FROM jobs j
        WHERE a.id=$2 AND j.id = a.job_id AND j.posted_by_id=$3
        RETURNING ` + applicationColumns
	return r.fetchSingle(ctx, query, status, id, ownerID)
}

func applicationScanTargets(a *domain.Application) []any {
	return []any{
		&a.ID,
		&a.JobID,
		&a.UserID,
		&a.Title,
		&a.FirstName,
		&a.LastName,
		&a.LevelOfEducation,
		&a.Region,
		&a.ResidenceAddress,
		&a.IDNumber,
		&a.PhoneNumber,
		&a.CoverLetter,
		&a.Documents,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	}
}

func scanApplication(row pgx.Row) (*domain.Application, error) {
	var application domain.Application
	if err := row.Scan(applicationScanTargets(&application)...); err != nil {
		return nil, err
	}
	return &application, nil
}
