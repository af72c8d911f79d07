package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"careerflow/internal/common/logger"
	"careerflow/internal/models"
)

type ApplicationRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewApplicationRepository(db *sql.DB, log logger.Logger) *ApplicationRepository {
	return &ApplicationRepository{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"repository": "applications"}),
	}
}

// Create inserts the record and an audit row. An empty ID is filled in. The
// audit row is best effort.
func (r *ApplicationRepository) Create(ctx context.Context, rec *models.ApplicationRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Status == "" {
		rec.Status = models.ApplicationStatusSubmitted
	}

	skills, err := json.Marshal(nonNil(rec.Skills))
	if err != nil {
		return fmt.Errorf("%w: marshal skills: %v", ErrInsertFailed, err)
	}
	documents, err := json.Marshal(nonNil(rec.Documents))
	if err != nil {
		return fmt.Errorf("%w: marshal documents: %v", ErrInsertFailed, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO applications (
			id, submission_id, session_id, job_id, applicant_name, email, phone,
			years_experience, education, skills, documents, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		rec.ID,
		rec.SubmissionID,
		rec.SessionID,
		nullString(rec.JobID),
		rec.ApplicantName,
		rec.Email,
		rec.Phone,
		rec.YearsExperience,
		rec.Education,
		skills,
		documents,
		rec.Status,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: insert application: %v", ErrInsertFailed, err)
	}

	details, err := json.Marshal(map[string]interface{}{
		"submissionId": rec.SubmissionID,
		"jobId":        rec.JobID,
		"documents":    rec.Documents,
	})
	if err != nil {
		details = []byte("{}")
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO audit_log (event_type, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		"application_submitted",
		"application",
		rec.ID,
		details,
		rec.CreatedAt,
	)
	if err != nil {
		r.logger.Warn("audit log insert failed", map[string]interface{}{
			"error":         err,
			"applicationId": rec.ID,
		})
	}
	return nil
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
