package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"careerflow/internal/models"
)

type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

const jobColumns = `id, title, company, location, employment_type, description, active, created_at`

// GetByID returns the posting, active or not.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*models.Job, error) {
	var j models.Job
	err := r.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id,
	).Scan(&j.ID, &j.Title, &j.Company, &j.Location, &j.EmploymentType, &j.Description, &j.Active, &j.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: job %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get job: %v", ErrQueryFailed, err)
	}
	return &j, nil
}

// ListActive returns open postings, newest first.
func (r *JobRepository) ListActive(ctx context.Context, limit int) ([]models.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE active = TRUE ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list jobs: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	jobs := []models.Job{}
	for rows.Next() {
		var j models.Job
		if err := rows.Scan(&j.ID, &j.Title, &j.Company, &j.Location, &j.EmploymentType, &j.Description, &j.Active, &j.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan job: %v", ErrQueryFailed, err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list jobs: %v", ErrQueryFailed, err)
	}
	return jobs, nil
}
