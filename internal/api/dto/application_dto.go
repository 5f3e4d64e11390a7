package dto

import (
	"time"

	"github.com/jobboard/job-board/internal/domain"
)

// StatusUpdateRequest changes an application's status. JobID is informational.
type StatusUpdateRequest struct {
	Status domain.ApplicationStatus `json:"status"`
	JobID  string                   `json:"jobId"`
}

// DocumentResponse is a stored document reference.
type DocumentResponse struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ApplicationResponse is an application as returned by the API.
type ApplicationResponse struct {
	ID               string                   `json:"id"`
	JobID            string                   `json:"jobId"`
	UserID           string                   `json:"userId"`
	Title            string                   `json:"title"`
	FirstName        string                   `json:"firstName"`
	LastName         string                   `json:"lastName"`
	LevelOfEducation string                   `json:"levelOfEducation"`
	Region           string                   `json:"region"`
	ResidenceAddress string                   `json:"residenceAddress"`
	IDNumber         string                   `json:"idNumber"`
	PhoneNumber      string                   `json:"phoneNumber"`
	CoverLetter      string                   `json:"coverLetter"`
	Documents        []DocumentResponse       `json:"documents"`
	Status           domain.ApplicationStatus `json:"status"`
	CreatedAt        time.Time                `json:"createdAt"`
	UpdatedAt        time.Time                `json:"updatedAt"`
}

// ApplicationSummaryResponse adds the job an application targets.
type ApplicationSummaryResponse struct {
	ApplicationResponse
	JobTitle   string `json:"jobTitle"`
	JobCompany string `json:"jobCompany"`
}

// ToApplicationResponse maps an application, keeping document order.
func ToApplicationResponse(a domain.Application) ApplicationResponse {
	docs := make([]DocumentResponse, 0, len(a.Documents))
	for _, d := range a.Documents {
		docs = append(docs, DocumentResponse{Name: d.Name, URL: d.URL})
	}
	return ApplicationResponse{
		ID:               a.ID,
		JobID:            a.JobID,
		UserID:           a.UserID,
		Title:            a.Title,
		FirstName:        a.FirstName,
		LastName:         a.LastName,
		LevelOfEducation: a.LevelOfEducation,
		Region:           a.Region,
		ResidenceAddress: a.ResidenceAddress,
		IDNumber:         a.IDNumber,
		PhoneNumber:      a.PhoneNumber,
		CoverLetter:      a.CoverLetter,
		Documents:        docs,
		Status:           a.Status,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

// ToApplicationResponses maps a list of applications.
func ToApplicationResponses(apps []domain.Application) []ApplicationResponse {
	out := make([]ApplicationResponse, 0, len(apps))
	for _, a := range apps {
		out = append(out, ToApplicationResponse(a))
	}
	return out
}

// ToApplicationSummaryResponse maps an application with its job title.
func ToApplicationSummaryResponse(a domain.ApplicationSummary) ApplicationSummaryResponse {
	return ApplicationSummaryResponse{
		ApplicationResponse: ToApplicationResponse(a.Application),
		JobTitle:            a.JobTitle,
		JobCompany:          a.JobCompany,
	}
}

// ToApplicationSummaryResponses maps a list of summaries.
func ToApplicationSummaryResponses(items []domain.ApplicationSummary) []ApplicationSummaryResponse {
	out := make([]ApplicationSummaryResponse, 0, len(items))
	for _, a := range items {
		out = append(out, ToApplicationSummaryResponse(a))
	}
	return out
}
