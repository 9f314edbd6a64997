package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"practico/internal/models"
)

// PaymentRepository stores the payment history. Callbacks are correlated by exact
// gateway token or exact conversation id only.
type PaymentRepository interface {
	Insert(ctx context.Context, e *models.PaymentEntry) error
	Update(ctx context.Context, e *models.PaymentEntry) error
	// Settle moves an entry to SUCCESS with the given ids and amount. It reports
	// false when the entry is already SUCCESS or the payment id is settled elsewhere.
	Settle(ctx context.Context, e *models.PaymentEntry) (bool, error)
	GetByToken(ctx context.Context, token string) (*models.PaymentEntry, error)
	GetByConversationID(ctx context.Context, userID, conversationID string) (*models.PaymentEntry, error)
	GetSuccessByPaymentID(ctx context.Context, paymentID string) (*models.PaymentEntry, error)
	Last(ctx context.Context, userID string) (*models.PaymentEntry, error)
	CountPending(ctx context.Context, userID string) (int, error)
}

type paymentRepository struct {
	DB DBTX
}

func NewPaymentRepository(db DBTX) PaymentRepository {
	return &paymentRepository{DB: db}
}

const paymentColumns = `
	id, user_id, conversation_id, basket_id, gateway_token, amount, currency, country,
	status, payment_id, gateway_payment_id, created_at, updated_at`

func (r *paymentRepository) Insert(ctx context.Context, e *models.PaymentEntry) error {
	const q = `
		INSERT INTO payment_history (
			user_id, conversation_id, basket_id, gateway_token, amount, currency, country,
			status, payment_id, gateway_payment_id, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$11)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, q,
		e.UserID, e.ConversationID, e.BasketID, nullString(e.GatewayToken),
		e.Amount, e.Currency, e.Country, string(e.Status),
		nullString(e.PaymentID), nullString(e.GatewayPaymentID), e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	e.UpdatedAt = e.CreatedAt
	return nil
}

func (r *paymentRepository) Update(ctx context.Context, e *models.PaymentEntry) error {
	const q = `
		UPDATE payment_history
		SET status=$1, payment_id=$2, gateway_payment_id=$3, amount=$4, currency=$5, updated_at=$6
		WHERE id=$7
	`
	res, err := r.DB.ExecContext(ctx, q,
		string(e.Status), nullString(e.PaymentID), nullString(e.GatewayPaymentID),
		e.Amount, e.Currency, e.UpdatedAt, e.ID,
	)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *paymentRepository) Settle(ctx context.Context, e *models.PaymentEntry) (bool, error) {
	const q = `
		UPDATE payment_history
		SET status='SUCCESS', payment_id=$1, gateway_payment_id=$2, amount=$3, currency=$4, updated_at=$5
		WHERE id=$6 AND status <> 'SUCCESS'
	`
	res, err := r.DB.ExecContext(ctx, q,
		nullString(e.PaymentID), nullString(e.GatewayPaymentID),
		e.Amount, e.Currency, e.UpdatedAt, e.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("settle payment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("settle payment: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	e.Status = models.PaymentSuccess
	return true, nil
}

func (r *paymentRepository) GetByToken(ctx context.Context, token string) (*models.PaymentEntry, error) {
	q := `SELECT` + paymentColumns + ` FROM payment_history WHERE gateway_token = $1`
	return r.getOne(ctx, q, token)
}

func (r *paymentRepository) GetByConversationID(ctx context.Context, userID, conversationID string) (*models.PaymentEntry, error) {
	q := `SELECT` + paymentColumns + `
		FROM payment_history
		WHERE user_id = $1 AND conversation_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1`
	return r.getOne(ctx, q, userID, conversationID)
}

func (r *paymentRepository) GetSuccessByPaymentID(ctx context.Context, paymentID string) (*models.PaymentEntry, error) {
	q := `SELECT` + paymentColumns + `
		FROM payment_history
		WHERE payment_id = $1 AND status = 'SUCCESS'
		LIMIT 1`
	return r.getOne(ctx, q, paymentID)
}

func (r *paymentRepository) Last(ctx context.Context, userID string) (*models.PaymentEntry, error) {
	q := `SELECT` + paymentColumns + `
		FROM payment_history
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`
	return r.getOne(ctx, q, userID)
}

func (r *paymentRepository) CountPending(ctx context.Context, userID string) (int, error) {
	const q = `SELECT COUNT(*) FROM payment_history WHERE user_id = $1 AND status = 'PENDING'`
	var n int
	if err := r.DB.QueryRowContext(ctx, q, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count pending payments: %w", err)
	}
	return n, nil
}

func (r *paymentRepository) getOne(ctx context.Context, q string, args ...any) (*models.PaymentEntry, error) {
	e := &models.PaymentEntry{}
	var (
		status    string
		token     sql.NullString
		paymentID sql.NullString
		gatewayID sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, q, args...).Scan(
		&e.ID, &e.UserID, &e.ConversationID, &e.BasketID, &token, &e.Amount, &e.Currency, &e.Country,
		&status, &paymentID, &gatewayID, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	e.Status = models.PaymentStatus(status)
	e.GatewayToken = strPtr(token)
	e.PaymentID = strPtr(paymentID)
	e.GatewayPaymentID = strPtr(gatewayID)
	return e, nil
}
