package dto

import (
	"time"

	"github.com/jobboard/job-board/internal/domain"
)

// JobResponse is a posting as returned by the API.
type JobResponse struct {
	ID                     string     `json:"id"`
	Title                  string     `json:"title"`
	Company                string     `json:"company"`
	Location               string     `json:"location"`
	Type                   string     `json:"type"`
	Description            string     `json:"description"`
	Salary                 *int       `json:"salary"`
	PostedByID             string     `json:"postedById"`
	CreatedAt              time.Time  `json:"createdAt"`
	UpdatedAt              time.Time  `json:"updatedAt"`
	LastViewedApplications *time.Time `json:"lastViewedApplications,omitempty"`
}

// JobDetailResponse adds the number of applications received.
type JobDetailResponse struct {
	JobResponse
	ApplicationsCount int `json:"applicationsCount"`
}

// PostedJobResponse is a dashboard row for a job the caller owns.
type PostedJobResponse struct {
	JobResponse
	ApplicationsCount    int `json:"applicationsCount"`
	NewApplicationsCount int `json:"newApplicationsCount"`
}

// DashboardResponse is the signed-in user's overview.
type DashboardResponse struct {
	PostedJobs   []PostedJobResponse          `json:"postedJobs"`
	Applications []ApplicationSummaryResponse `json:"applications"`
}

// ToJobResponse maps a job.
func ToJobResponse(j domain.Job) JobResponse {
	return JobResponse{
		ID:                     j.ID,
		Title:                  j.Title,
		Company:                j.Company,
		Location:               j.Location,
		Type:                   j.Type,
		Description:            j.Description,
		Salary:                 j.Salary,
		PostedByID:             j.PostedByID,
		CreatedAt:              j.CreatedAt,
		UpdatedAt:              j.UpdatedAt,
		LastViewedApplications: j.LastViewedApplications,
	}
}

// ToJobResponses maps a list of jobs.
func ToJobResponses(jobs []domain.Job) []JobResponse {
	out := make([]JobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, ToJobResponse(j))
	}
	return out
}

// ToDashboardResponse maps dashboard contents.
func ToDashboardResponse(posted []domain.JobWithStats, applications []domain.ApplicationSummary) DashboardResponse {
	resp := DashboardResponse{
		PostedJobs:   make([]PostedJobResponse, 0, len(posted)),
		Applications: make([]ApplicationSummaryResponse, 0, len(applications)),
	}
	for _, p := range posted {
		resp.PostedJobs = append(resp.PostedJobs, PostedJobResponse{
			JobResponse:          ToJobResponse(p.Job),
			ApplicationsCount:    p.ApplicationsCount,
			NewApplicationsCount: p.NewApplicationsCount,
		})
	}
	for _, a := range applications {
		resp.Applications = append(resp.Applications, ToApplicationSummaryResponse(a))
	}
	return resp
}
