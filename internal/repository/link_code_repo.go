package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"readwell/internal/database"
	"readwell/internal/models"
)

// LinkCodeRepository is the SQL-backed store for parent link codes
type LinkCodeRepository struct {
	db *database.DB
}

// NewLinkCodeRepository creates a new link code repository
func NewLinkCodeRepository(db *database.DB) *LinkCodeRepository {
	return &LinkCodeRepository{db: db}
}

// Save stores a code for a student, replacing any code the student still
// holds. Codes expired by code.CreatedAt are purged first; a live code with the
// same value yields models.ErrLinkCodeTaken.
func (r *LinkCodeRepository) Save(ctx context.Context, code models.LinkCode) error {
	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		if _, err := deleteExpired(ctx, tx, code.CreatedAt); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM link_codes WHERE student_id = ?", code.StudentID); err != nil {
			return fmt.Errorf("failed to clear old link codes: %w", err)
		}

		var live int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM link_codes WHERE code = ?", code.Code).Scan(&live); err != nil {
			return fmt.Errorf("failed to check link code: %w", err)
		}
		if live > 0 {
			return models.ErrLinkCodeTaken
		}

		_, err := tx.ExecContext(ctx,
			"INSERT INTO link_codes (code, student_id, expires_at, created_at) VALUES (?, ?, ?, ?)",
			code.Code, code.StudentID, code.ExpiresAt.UTC(), code.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to save link code: %w", err)
		}
		return nil
	})
}

// Take fetches and deletes a code in one transaction so it can be redeemed
// only once. Expired codes are deleted and reported as missing.
func (r *LinkCodeRepository) Take(ctx context.Context, code string, now time.Time) (*models.LinkCode, error) {
	var out *models.LinkCode
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		lc := models.LinkCode{}
		err := tx.QueryRowContext(ctx,
			"SELECT code, student_id, expires_at, created_at FROM link_codes WHERE code = ?", code,
		).Scan(&lc.Code, &lc.StudentID, &lc.ExpiresAt, &lc.CreatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get link code: %w", err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM link_codes WHERE code = ?", code); err != nil {
			return fmt.Errorf("failed to consume link code: %w", err)
		}
		if !lc.IsExpired(now) {
			out = &lc
		}
		return nil
	})
	return out, err
}

func deleteExpired(ctx context.Context, db database.DBTX, now time.Time) (int, error) {
	res, err := db.ExecContext(ctx, "DELETE FROM link_codes WHERE expires_at <= ?", now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge link codes: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}
