package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"careerflow/internal/models"
)

type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Record(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (id, type, channel, recipient, status, error, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		n.ID, n.Type, n.Channel, n.Recipient, n.Status, n.Error, n.SentAt,
	)
	if err != nil {
		return fmt.Errorf("%w: insert notification: %v", ErrInsertFailed, err)
	}
	return nil
}
