package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careerflow/internal/common/database"
	"careerflow/internal/common/logger"
	"careerflow/internal/models"
)

var createdAt = time.Date(2026, 4, 10, 8, 30, 0, 0, time.UTC)

var jobRowColumns = []string{"id", "title", "company", "location", "employment_type", "description", "active", "created_at"}

func TestJobRepository_GetByID(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(mock sqlmock.Sqlmock)
		wantErr  error
		validate func(t *testing.T, job *models.Job)
	}{
		{
			name: "found",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .* FROM jobs WHERE id = \$1`).
					WithArgs("job-1").
					WillReturnRows(sqlmock.NewRows(jobRowColumns).
						AddRow("job-1", "Backend Engineer", "Acme", "Remote", "full-time", "Go services", true, createdAt))
			},
			validate: func(t *testing.T, job *models.Job) {
				assert.Equal(t, "Backend Engineer", job.Title)
				assert.Equal(t, "Acme", job.Company)
				assert.True(t, job.Active)
				assert.Equal(t, createdAt, job.CreatedAt)
			},
		},
		{
			name: "missing",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .* FROM jobs`).WithArgs("job-1").WillReturnError(sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "database down",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .* FROM jobs`).WithArgs("job-1").WillReturnError(errors.New("connection reset"))
			},
			wantErr: ErrQueryFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			tt.setup(mock)

			job, err := NewJobRepository(db).GetByID(context.Background(), "job-1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, job)
			} else {
				require.NoError(t, err)
				tt.validate(t, job)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestJobRepository_ListActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM jobs WHERE active = TRUE ORDER BY created_at DESC LIMIT \$1`).
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows(jobRowColumns).
			AddRow("job-2", "SRE", "Acme", "Austin", "full-time", "", true, createdAt).
			AddRow("job-1", "Backend Engineer", "Acme", "Remote", "contract", "", true, createdAt.Add(-time.Hour)))

	jobs, err := NewJobRepository(db).ListActive(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "job-2", jobs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func sampleRecord() *models.ApplicationRecord {
	return &models.ApplicationRecord{
		SubmissionID:    "5b0c7f1e-1d1a-4f55-9d4e-2f7f0b9c6a11",
		SessionID:       "sess-1",
		JobID:           "job-1",
		ApplicantName:   "Jane Doe",
		Email:           "jane@x.com",
		Phone:           "5551234",
		YearsExperience: "3-5",
		Education:       "bachelor",
		Skills:          []string{"Go"},
		Documents:       []string{"resume"},
		CreatedAt:       createdAt,
	}
}

func TestApplicationRepository_Create(t *testing.T) {
	t.Run("inserts record and audit row", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`INSERT INTO applications`).
			WithArgs(
				sqlmock.AnyArg(),
				"5b0c7f1e-1d1a-4f55-9d4e-2f7f0b9c6a11",
				"sess-1",
				sql.NullString{String: "job-1", Valid: true},
				"Jane Doe",
				"jane@x.com",
				"5551234",
				"3-5",
				"bachelor",
				[]byte(`["Go"]`),
				[]byte(`["resume"]`),
				models.ApplicationStatusSubmitted,
				createdAt,
			).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(`INSERT INTO audit_log`).
			WithArgs("application_submitted", "application", sqlmock.AnyArg(), sqlmock.AnyArg(), createdAt).
			WillReturnResult(sqlmock.NewResult(1, 1))

		rec := sampleRecord()
		err = NewApplicationRepository(db, logger.NewTestLogger(t)).Create(context.Background(), rec)
		require.NoError(t, err)
		assert.NotEmpty(t, rec.ID)
		assert.Equal(t, models.ApplicationStatusSubmitted, rec.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("audit failure is not fatal", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`INSERT INTO applications`).WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(`INSERT INTO audit_log`).WillReturnError(errors.New("audit table missing"))

		err = NewApplicationRepository(db, logger.NewNoOpLogger()).Create(context.Background(), sampleRecord())
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`INSERT INTO applications`).WillReturnError(errors.New("duplicate key"))

		err = NewApplicationRepository(db, logger.NewNoOpLogger()).Create(context.Background(), sampleRecord())
		assert.ErrorIs(t, err, ErrInsertFailed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no job id is stored as null", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		rec := sampleRecord()
		rec.JobID = ""
		rec.Skills = nil

		mock.ExpectExec(`INSERT INTO applications`).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sql.NullString{},
				sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
				[]byte(`[]`), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(`INSERT INTO audit_log`).WillReturnResult(sqlmock.NewResult(1, 1))

		require.NoError(t, NewApplicationRepository(db, logger.NewNoOpLogger()).Create(context.Background(), rec))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSubscriberRepository_Subscribe(t *testing.T) {
	tests := []struct {
		name        string
		result      sql.Result
		err         error
		wantCreated bool
		wantErr     error
	}{
		{name: "new subscriber", result: sqlmock.NewResult(0, 1), wantCreated: true},
		{name: "already subscribed", result: sqlmock.NewResult(0, 0), wantCreated: false},
		{name: "insert failure", err: errors.New("timeout"), wantErr: ErrInsertFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			exp := mock.ExpectExec(`INSERT INTO subscribers .* ON CONFLICT \(email\) DO NOTHING`).
				WithArgs(sqlmock.AnyArg(), "a@b.com", "footer", createdAt)
			if tt.err != nil {
				exp.WillReturnError(tt.err)
			} else {
				exp.WillReturnResult(tt.result)
			}

			created, err := NewSubscriberRepository(db).Subscribe(context.Background(),
				&models.Subscriber{Email: "a@b.com", Source: "footer", CreatedAt: createdAt})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantCreated, created)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestContactRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO contact_messages`).
		WithArgs(sqlmock.AnyArg(), "Jane", "jane@x.com", "", "Hello", "Is the role remote?", createdAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	msg := &models.ContactMessage{Name: "Jane", Email: "jane@x.com", Subject: "Hello", Message: "Is the role remote?", CreatedAt: createdAt}
	require.NoError(t, NewContactRepository(db).Create(context.Background(), msg))
	assert.NotEmpty(t, msg.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRepository_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM contact_messages WHERE id = \$1`).
		WithArgs("c-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM contact_messages`).
		WithArgs("c-2").
		WillReturnError(errors.New("conn reset"))

	repo := NewContactRepository(db)
	require.NoError(t, repo.Delete(context.Background(), "c-1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "c-2"), ErrDeleteFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriberRepository_Unsubscribe(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM subscribers WHERE email = \$1`).
		WithArgs("a@b.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewSubscriberRepository(db).Unsubscribe(context.Background(), "a@b.com"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_Record(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO notifications`).
		WithArgs(sqlmock.AnyArg(), models.TypeApplicationReceived, models.ChannelEmail, "jane@x.com",
			models.NotificationStatusSent, "", createdAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	n := &models.Notification{
		Type:      models.TypeApplicationReceived,
		Channel:   models.ChannelEmail,
		Recipient: "jane@x.com",
		Status:    models.NotificationStatusSent,
		SentAt:    createdAt,
	}
	require.NoError(t, NewNotificationRepository(db).Record(context.Background(), n))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchema_Migrates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	for range Schema {
		mock.ExpectExec(`CREATE`).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectCommit()

	require.NoError(t, database.Migrate(context.Background(), db, Schema))
	assert.NoError(t, mock.ExpectationsWereMet())
}
