package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"treasury-backend/internal/models"
)

const upsertStatusSQL = `
	INSERT INTO payment_statuses(member_id, collection_id, paid_amount, status, updated_at)
	VALUES($1, $2, $3, $4, $5)
	ON CONFLICT (member_id, collection_id)
	DO UPDATE SET paid_amount = EXCLUDED.paid_amount, status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`

type PaymentStatusRepository struct {
	DB *pgxpool.Pool
}

func NewPaymentStatusRepository(db *pgxpool.Pool) *PaymentStatusRepository {
	return &PaymentStatusRepository{DB: db}
}

// LoadAll returns every stored status keyed by member and collection.
func (r *PaymentStatusRepository) LoadAll(ctx context.Context) (models.PaymentStatuses, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT member_id, collection_id::text, paid_amount, updated_at FROM payment_statuses`)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment statuses: %w", err)
	}
	return scanStatuses(rows)
}

// ForCollection returns the statuses of a single collection.
func (r *PaymentStatusRepository) ForCollection(ctx context.Context, collectionID string) (models.PaymentStatuses, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT member_id, collection_id::text, paid_amount, updated_at
		 FROM payment_statuses WHERE collection_id = $1`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment statuses: %w", err)
	}
	return scanStatuses(rows)
}

// Upsert stores one member's status for one collection.
func (r *PaymentStatusRepository) Upsert(ctx context.Context, rec models.LedgerRecord) error {
	_, err := r.DB.Exec(ctx, upsertStatusSQL,
		rec.MemberID, rec.CollectionID, rec.PaidAmount, rec.Status, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save payment status: %w", err)
	}
	return nil
}

// SaveAll stores the records atomically.
func (r *PaymentStatusRepository) SaveAll(ctx context.Context, records []models.LedgerRecord) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := upsertStatuses(ctx, tx, records); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func upsertStatuses(ctx context.Context, tx pgx.Tx, records []models.LedgerRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(upsertStatusSQL,
			rec.MemberID, rec.CollectionID, rec.PaidAmount, rec.Status, rec.UpdatedAt)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save payment statuses: %w", err)
	}
	return nil
}

func scanStatuses(rows pgx.Rows) (models.PaymentStatuses, error) {
	defer rows.Close()

	statuses := make(models.PaymentStatuses)
	for rows.Next() {
		var (
			memberID, collectionID string
			paid                   decimal.Decimal
			updatedAt              time.Time
		)
		if err := rows.Scan(&memberID, &collectionID, &paid, &updatedAt); err != nil {
			return nil, err
		}
		statuses.Set(memberID, collectionID, models.PaymentStatus{PaidAmount: paid, UpdatedAt: updatedAt})
	}
	return statuses, rows.Err()
}
