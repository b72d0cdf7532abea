package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"treasury-backend/internal/models"
)

type NotificationRepository struct {
	DB *pgxpool.Pool
}

func NewNotificationRepository(db *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{DB: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	var related *string
	if n.RelatedCollectionID != "" {
		related = &n.RelatedCollectionID
	}
	return r.DB.QueryRow(ctx,
		`INSERT INTO notifications(id, title, body, related_collection_id)
		 VALUES($1, $2, $3, $4)
		 RETURNING created_at`,
		n.ID, n.Title, n.Body, related,
	).Scan(&n.CreatedAt)
}

// List returns the newest notifications first.
func (r *NotificationRepository) List(ctx context.Context, limit int) ([]models.Notification, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id::text, title, body, read, COALESCE(related_collection_id::text, ''), created_at
		 FROM notifications
		 ORDER BY created_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var list []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.Title, &n.Body, &n.Read, &n.RelatedCollectionID, &n.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	tag, err := r.DB.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context) error {
	_, err := r.DB.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE read = FALSE`)
	return err
}

// Exists reports whether a notification with this title was already raised
// for the collection.
func (r *NotificationRepository) Exists(ctx context.Context, title, relatedCollectionID string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM notifications WHERE title = $1 AND related_collection_id::text = $2)`,
		title, relatedCollectionID,
	).Scan(&exists)
	return exists, err
}
