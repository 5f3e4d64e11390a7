package domain

import "time"

// ApplicationStatus is the review state of an application.
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "PENDING"
	ApplicationStatusReviewed ApplicationStatus = "REVIEWED"
	ApplicationStatusAccepted ApplicationStatus = "ACCEPTED"
	ApplicationStatusRejected ApplicationStatus = "REJECTED"
)

// ApplicationStatuses lists every valid status in display order.
var ApplicationStatuses = []ApplicationStatus{
	ApplicationStatusPending,
	ApplicationStatusReviewed,
	ApplicationStatusAccepted,
	ApplicationStatusRejected,
}

// Valid reports whether s is one of the known statuses.
func (s ApplicationStatus) Valid() bool {
	for _, candidate := range ApplicationStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// Document references a file previously uploaded to blob storage.
type Document struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Application is a user's request to be considered for a job. At most one exists per (JobID, UserID).
type Application struct {
	ID               string
	JobID            string
	UserID           string
	Title            string
	FirstName        string
	LastName         string
	LevelOfEducation string
	Region           string
	ResidenceAddress string
	IDNumber         string
	PhoneNumber      string
	CoverLetter      string
	Documents        []Document
	Status           ApplicationStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ApplicationSummary joins an application with the job it targets.
type ApplicationSummary struct {
	Application
	JobTitle   string
	JobCompany string
}
