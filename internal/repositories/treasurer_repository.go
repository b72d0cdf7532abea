package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"treasury-backend/internal/models"
)

type TreasurerRepository struct {
	DB *pgxpool.Pool
}

func NewTreasurerRepository(db *pgxpool.Pool) *TreasurerRepository {
	return &TreasurerRepository{DB: db}
}

func (r *TreasurerRepository) Create(ctx context.Context, t *models.Treasurer) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO treasurers(name, student_id, email, password_hash)
		 VALUES($1, $2, $3, $4)
		 RETURNING id, created_at`,
		t.Name, t.StudentID, t.Email, t.PasswordHash,
	).Scan(&t.ID, &t.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *TreasurerRepository) Get(ctx context.Context, id int) (*models.Treasurer, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *TreasurerRepository) GetByEmail(ctx context.Context, email string) (*models.Treasurer, error) {
	return r.getOne(ctx, `WHERE email = $1`, email)
}

func (r *TreasurerRepository) UpdateProfile(ctx context.Context, id int, name, studentID string) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE treasurers SET name = $2, student_id = $3 WHERE id = $1`, id, name, studentID)
	if err != nil {
		return fmt.Errorf("failed to update treasurer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TreasurerRepository) getOne(ctx context.Context, where string, arg any) (*models.Treasurer, error) {
	var t models.Treasurer
	err := r.DB.QueryRow(ctx,
		`SELECT id, name, student_id, email, password_hash, created_at FROM treasurers `+where, arg,
	).Scan(&t.ID, &t.Name, &t.StudentID, &t.Email, &t.PasswordHash, &t.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
