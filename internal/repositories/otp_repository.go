package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"practico/internal/models"
)

type OTPRepository interface {
	Create(ctx context.Context, rec *models.OTPRecord) error
	Get(ctx context.Context, userID string, purpose models.OTPPurpose) (*models.OTPRecord, error)
	// DeleteFor removes the (user, purpose) record and reports whether one existed.
	DeleteFor(ctx context.Context, userID string, purpose models.OTPPurpose) (bool, error)
	MarkVerified(ctx context.Context, id int64, at time.Time) error
}

type otpRepository struct {
	DB DBTX
}

func NewOTPRepository(db DBTX) OTPRepository {
	return &otpRepository{DB: db}
}

func (r *otpRepository) Create(ctx context.Context, rec *models.OTPRecord) error {
	const q = `
		INSERT INTO otp_records (user_id, purpose, code_hash, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, q,
		rec.UserID, string(rec.Purpose), rec.CodeHash, rec.CreatedAt, rec.ExpiresAt,
	).Scan(&rec.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert otp: %w", err)
	}
	return nil
}

func (r *otpRepository) Get(ctx context.Context, userID string, purpose models.OTPPurpose) (*models.OTPRecord, error) {
	if !validID(userID) {
		return nil, ErrNotFound
	}
	const q = `
		SELECT id, user_id, purpose, code_hash, created_at, expires_at, verified_at
		FROM otp_records
		WHERE user_id = $1 AND purpose = $2
	`
	rec := &models.OTPRecord{}
	var (
		p          string
		verifiedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, q, userID, string(purpose)).Scan(
		&rec.ID, &rec.UserID, &p, &rec.CodeHash, &rec.CreatedAt, &rec.ExpiresAt, &verifiedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	rec.Purpose = models.OTPPurpose(p)
	rec.VerifiedAt = timePtr(verifiedAt)
	return rec, nil
}

func (r *otpRepository) DeleteFor(ctx context.Context, userID string, purpose models.OTPPurpose) (bool, error) {
	if !validID(userID) {
		return false, nil
	}
	const q = `DELETE FROM otp_records WHERE user_id = $1 AND purpose = $2`
	res, err := r.DB.ExecContext(ctx, q, userID, string(purpose))
	if err != nil {
		return false, fmt.Errorf("delete otp: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete otp: %w", err)
	}
	return n > 0, nil
}

func (r *otpRepository) MarkVerified(ctx context.Context, id int64, at time.Time) error {
	const q = `UPDATE otp_records SET verified_at = $1 WHERE id = $2`
	res, err := r.DB.ExecContext(ctx, q, at, id)
	if err != nil {
		return fmt.Errorf("mark otp verified: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
