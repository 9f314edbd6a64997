package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"practico/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByNameOrEmail(ctx context.Context, name, email string) (bool, error)

	// Update writes the full record if user.Version still matches the stored one,
	// then bumps user.Version. A stale version yields ErrVersionConflict.
	Update(ctx context.Context, user *models.User) error
}

type userRepository struct {
	DB DBTX
}

func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{DB: db}
}

const userColumns = `
	id, name, email, password_hash, status, membership_expires_at,
	dark_mode, practices_solved,
	active_session_token, last_heartbeat, last_login_at, last_login_device,
	accepted_terms, accepted_preliminary_information, terms_accepted_at,
	created_at, version`

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	const q = `
		INSERT INTO users (
			id, name, email, password_hash, status, membership_expires_at,
			dark_mode, practices_solved
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, version
	`
	if user.PracticesSolved == nil {
		user.PracticesSolved = models.DefaultPracticesSolved()
	}
	err := r.DB.QueryRowContext(ctx, q,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		string(user.Status.Kind()),
		nullTime(user.Status.MembershipExpiry()),
		user.IsDarkMode,
		pq.BoolArray(user.PracticesSolved),
	).Scan(&user.CreatedAt, &user.Version)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	q := `SELECT` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, q, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	q := `SELECT` + userColumns + ` FROM users WHERE email = $1`
	return r.getOne(ctx, q, strings.ToLower(strings.TrimSpace(email)))
}

func (r *userRepository) getOne(ctx context.Context, q string, arg any) (*models.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, q, arg))
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (r *userRepository) ExistsByNameOrEmail(ctx context.Context, name, email string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM users WHERE name = $1 OR email = $2)`
	var exists bool
	if err := r.DB.QueryRowContext(ctx, q, name, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	const q = `
		UPDATE users
		SET
			name=$1,
			email=$2,
			password_hash=$3,
			status=$4,
			membership_expires_at=$5,
			dark_mode=$6,
			practices_solved=$7,
			active_session_token=$8,
			last_heartbeat=$9,
			last_login_at=$10,
			last_login_device=$11,
			accepted_terms=$12,
			accepted_preliminary_information=$13,
			terms_accepted_at=$14,
			version=version+1
		WHERE id=$15 AND version=$16
	`
	res, err := r.DB.ExecContext(ctx, q,
		user.Name,
		user.Email,
		user.PasswordHash,
		string(user.Status.Kind()),
		nullTime(user.Status.MembershipExpiry()),
		user.IsDarkMode,
		pq.BoolArray(user.PracticesSolved),
		nullString(user.ActiveSessionToken),
		nullTime(user.LastHeartbeat),
		nullTime(user.LastLoginAt),
		nullString(user.LastLoginDevice),
		user.AcceptedTerms,
		user.AcceptedPreliminaryInformation,
		nullTime(user.TermsAcceptedAt),
		user.ID,
		user.Version,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user rows: %w", err)
	}
	if n == 0 {
		return ErrVersionConflict
	}
	user.Version++
	return nil
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var (
		status        string
		memberExpiry  sql.NullTime
		solved        pq.BoolArray
		sessionToken  sql.NullString
		lastHeartbeat sql.NullTime
		lastLogin     sql.NullTime
		loginDevice   sql.NullString
		termsAt       sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &status, &memberExpiry,
		&u.IsDarkMode, &solved,
		&sessionToken, &lastHeartbeat, &lastLogin, &loginDevice,
		&u.AcceptedTerms, &u.AcceptedPreliminaryInformation, &termsAt,
		&u.CreatedAt, &u.Version,
	)
	if err != nil {
		return nil, err
	}

	st, err := models.StatusFromStore(status, timePtr(memberExpiry))
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", u.ID, err)
	}
	u.Status = st
	u.PracticesSolved = []bool(solved)
	u.ActiveSessionToken = strPtr(sessionToken)
	u.LastHeartbeat = timePtr(lastHeartbeat)
	u.LastLoginAt = timePtr(lastLogin)
	u.LastLoginDevice = strPtr(loginDevice)
	u.TermsAcceptedAt = timePtr(termsAt)
	return u, nil
}
