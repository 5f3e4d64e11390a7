package domain

import "time"

// Job is a posting owned by the user that created it.
type Job struct {
	ID                     string
	Title                  string
	Company                string
	Location               string
	Type                   string
	Description            string
	Salary                 *int
	PostedByID             string
	CreatedAt              time.Time
	UpdatedAt              time.Time
	LastViewedApplications *time.Time
}

// OwnedBy reports whether userID posted the job.
func (j *Job) OwnedBy(userID string) bool {
	return j != nil && userID != "" && j.PostedByID == userID
}

// JobWithStats decorates a job with applicant counters for dashboards.
type JobWithStats struct {
	Job
	ApplicationsCount    int
	NewApplicationsCount int
}
