package models

import "time"

const (
	ApplicationStatusSubmitted = "submitted"
)

// ApplicationRecord is what is kept about an application once the webhook has
// accepted it. Documents are not stored.
type ApplicationRecord struct {
	ID              string    `json:"id"`
	SubmissionID    string    `json:"submissionId"`
	SessionID       string    `json:"sessionId"`
	JobID           string    `json:"jobId,omitempty"`
	ApplicantName   string    `json:"applicantName"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	YearsExperience string    `json:"yearsExperience"`
	Education       string    `json:"education"`
	Skills          []string  `json:"skills"`
	Documents       []string  `json:"documents"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
}
