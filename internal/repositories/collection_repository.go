package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"treasury-backend/internal/models"
)

const collectionColumns = `id::text, name, amount_per_user, deadline,
	is_remitted, COALESCE(remitted_by, ''), COALESCE(received_by, ''), remitted_at, created_at`

type CollectionRepository struct {
	DB *pgxpool.Pool
}

func NewCollectionRepository(db *pgxpool.Pool) *CollectionRepository {
	return &CollectionRepository{DB: db}
}

func (r *CollectionRepository) List(ctx context.Context) ([]models.Collection, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+collectionColumns+` FROM collections ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	var collections []models.Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		collections = append(collections, *c)
	}
	return collections, rows.Err()
}

func (r *CollectionRepository) Get(ctx context.Context, id string) (*models.Collection, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	c, err := scanCollection(r.DB.QueryRow(ctx,
		`SELECT `+collectionColumns+` FROM collections WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	return c, err
}

// Create inserts the collection and its initial statuses in one
// transaction. Nothing is written if any record fails.
func (r *CollectionRepository) Create(ctx context.Context, c *models.Collection, records []models.LedgerRecord) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var (
		remitted               bool
		remittedBy, receivedBy *string
		remittedAt             *time.Time
	)
	if rd := c.RemittanceDetails; rd != nil && rd.IsRemitted {
		remitted = true
		remittedBy, receivedBy, remittedAt = &rd.RemittedBy, &rd.ReceivedBy, &rd.RemittedAt
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO collections(id, name, amount_per_user, deadline, is_remitted, remitted_by, received_by, remitted_at)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at`,
		c.ID, c.Name, c.AmountPerUser, c.Deadline, remitted, remittedBy, receivedBy, remittedAt,
	).Scan(&c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert collection: %w", err)
	}

	for i := range records {
		records[i].CollectionID = c.ID
	}
	if err := upsertStatuses(ctx, tx, records); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Update changes name, amount and deadline and rewrites the derived
// statuses in the same transaction.
func (r *CollectionRepository) Update(ctx context.Context, c *models.Collection, records []models.LedgerRecord) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE collections SET name = $2, amount_per_user = $3, deadline = $4 WHERE id = $1`,
		c.ID, c.Name, c.AmountPerUser, c.Deadline)
	if err != nil {
		return fmt.Errorf("failed to update collection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := upsertStatuses(ctx, tx, records); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Remit marks the collection as handed over. Remittance is one-way.
func (r *CollectionRepository) Remit(ctx context.Context, id string, d models.RemittanceDetails) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	tag, err := r.DB.Exec(ctx,
		`UPDATE collections
		 SET is_remitted = TRUE, remitted_by = $2, received_by = $3, remitted_at = $4
		 WHERE id = $1 AND is_remitted = FALSE`,
		id, d.RemittedBy, d.ReceivedBy, d.RemittedAt)
	if err != nil {
		return fmt.Errorf("failed to remit collection: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.DB.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM collections WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrAlreadyRemitted
}

// DeleteMany removes the collections and all their statuses atomically and
// returns how many collections were deleted.
func (r *CollectionRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM payment_statuses WHERE collection_id = ANY($1::uuid[])`, ids); err != nil {
		return 0, fmt.Errorf("failed to delete payment statuses: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM collections WHERE id = ANY($1::uuid[])`, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete collections: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanCollection(row pgx.Row) (*models.Collection, error) {
	var (
		c          models.Collection
		remitted   bool
		remittedBy string
		receivedBy string
		remittedAt *time.Time
	)
	err := row.Scan(&c.ID, &c.Name, &c.AmountPerUser, &c.Deadline,
		&remitted, &remittedBy, &receivedBy, &remittedAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if remitted {
		rd := &models.RemittanceDetails{IsRemitted: true, RemittedBy: remittedBy, ReceivedBy: receivedBy}
		if remittedAt != nil {
			rd.RemittedAt = *remittedAt
		}
		c.RemittanceDetails = rd
	}
	return &c, nil
}
