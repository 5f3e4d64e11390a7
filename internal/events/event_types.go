package events

import (
	"time"

	"github.com/jobboard/job-board/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventApplicationSubmitted     EventType = "application_submitted"
	EventApplicationStatusChanged EventType = "application_status_changed"
	EventJobCreated               EventType = "job_created"
	EventJobUpdated               EventType = "job_updated"
	EventJobDeleted               EventType = "job_deleted"
	EventApplicationsViewed       EventType = "applications_viewed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	JobID     string      `json:"jobId"`
	ActorID   string      `json:"actorId"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ApplicationSubmittedPayload payload.
type ApplicationSubmittedPayload struct {
	ApplicationID  string `json:"applicationId"`
	ApplicantID    string `json:"applicantId"`
	ApplicantName  string `json:"applicantName"`
	JobOwnerID     string `json:"jobOwnerId"`
	JobTitle       string `json:"jobTitle"`
	DocumentsCount int    `json:"documentsCount"`
}

// ApplicationStatusChangedPayload payload.
type ApplicationStatusChangedPayload struct {
	ApplicationID string                   `json:"applicationId"`
	ApplicantID   string                   `json:"applicantId"`
	NewStatus     domain.ApplicationStatus `json:"newStatus"`
}

// JobChangedPayload payload for create, update and delete. ApplicantIDs is only set on
// delete, since the cascade removes their applications too.
type JobChangedPayload struct {
	OwnerID      string   `json:"ownerId"`
	Title        string   `json:"title"`
	ApplicantIDs []string `json:"applicantIds,omitempty"`
}
