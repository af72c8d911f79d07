package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"careerflow/internal/models"
)

type ContactRepository struct {
	db *sql.DB
}

func NewContactRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) Create(ctx context.Context, msg *models.ContactMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO contact_messages (id, name, email, phone, subject, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		msg.ID, msg.Name, msg.Email, msg.Phone, msg.Subject, msg.Message, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: insert contact message: %v", ErrInsertFailed, err)
	}
	return nil
}

func (r *ContactRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM contact_messages WHERE id = $1`, id); err != nil {
		return fmt.Errorf("%w: delete contact message: %v", ErrDeleteFailed, err)
	}
	return nil
}

type SubscriberRepository struct {
	db *sql.DB
}

func NewSubscriberRepository(db *sql.DB) *SubscriberRepository {
	return &SubscriberRepository{db: db}
}

// Subscribe records the email once. It reports false when the address was
// already subscribed.
func (r *SubscriberRepository) Subscribe(ctx context.Context, sub *models.Subscriber) (bool, error) {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO subscribers (id, email, source, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO NOTHING`,
		sub.ID, sub.Email, sub.Source, sub.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("%w: insert subscriber: %v", ErrInsertFailed, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: insert subscriber: %v", ErrInsertFailed, err)
	}
	return n > 0, nil
}

func (r *SubscriberRepository) Unsubscribe(ctx context.Context, email string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM subscribers WHERE email = $1`, email); err != nil {
		return fmt.Errorf("%w: delete subscriber: %v", ErrDeleteFailed, err)
	}
	return nil
}
