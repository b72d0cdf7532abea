package services

import (
	"context"
	"errors"

	"treasury-backend/internal/models"
)

// ErrInvalidInput marks requests rejected before touching storage.
var ErrInvalidInput = errors.New("invalid input")

type MemberStore interface {
	List(ctx context.Context) ([]models.Member, error)
	Get(ctx context.Context, id string) (*models.Member, error)
	Create(ctx context.Context, m *models.Member) error
	Delete(ctx context.Context, id string) error
}

type CollectionStore interface {
	List(ctx context.Context) ([]models.Collection, error)
	Get(ctx context.Context, id string) (*models.Collection, error)
	Create(ctx context.Context, c *models.Collection, records []models.LedgerRecord) error
	Update(ctx context.Context, c *models.Collection, records []models.LedgerRecord) error
	Remit(ctx context.Context, id string, d models.RemittanceDetails) error
	DeleteMany(ctx context.Context, ids []string) (int64, error)
}

type StatusStore interface {
	LoadAll(ctx context.Context) (models.PaymentStatuses, error)
	ForCollection(ctx context.Context, collectionID string) (models.PaymentStatuses, error)
	Upsert(ctx context.Context, rec models.LedgerRecord) error
	SaveAll(ctx context.Context, records []models.LedgerRecord) error
}

type TreasurerStore interface {
	Create(ctx context.Context, t *models.Treasurer) error
	Get(ctx context.Context, id int) (*models.Treasurer, error)
	GetByEmail(ctx context.Context, email string) (*models.Treasurer, error)
	UpdateProfile(ctx context.Context, id int, name, studentID string) error
}

type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	Exists(ctx context.Context, title, relatedCollectionID string) (bool, error)
}

type SettingsStore interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Put(ctx context.Context, key string, value any) error
}
