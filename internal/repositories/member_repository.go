package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"treasury-backend/internal/models"
)

type MemberRepository struct {
	DB *pgxpool.Pool
}

func NewMemberRepository(db *pgxpool.Pool) *MemberRepository {
	return &MemberRepository{DB: db}
}

// List returns the roster ordered by name.
func (r *MemberRepository) List(ctx context.Context) ([]models.Member, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, name, role, created_at FROM members ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Role, &m.CreatedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *MemberRepository) Get(ctx context.Context, id string) (*models.Member, error) {
	var m models.Member
	err := r.DB.QueryRow(ctx,
		`SELECT id, name, role, created_at FROM members WHERE id = $1`, id,
	).Scan(&m.ID, &m.Name, &m.Role, &m.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create adds a member together with a zero Unpaid status for every
// existing collection.
func (r *MemberRepository) Create(ctx context.Context, m *models.Member) error {
	if m.Role == "" {
		m.Role = "member"
	}

	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO members(id, name, role) VALUES($1, $2, $3) RETURNING created_at`,
		m.ID, m.Name, m.Role,
	).Scan(&m.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert member: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO payment_statuses(member_id, collection_id, paid_amount, status, updated_at)
		 SELECT $1, id, 0, $2, NOW() FROM collections
		 ON CONFLICT DO NOTHING`,
		m.ID, models.StatusUnpaid)
	if err != nil {
		return fmt.Errorf("failed to initialize member statuses: %w", err)
	}

	return tx.Commit(ctx)
}

// Delete removes a member; their statuses go with them.
func (r *MemberRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
