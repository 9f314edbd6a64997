package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

// Store groups the repositories bound to one connection or transaction.
type Store interface {
	Users() UserRepository
	OTPs() OTPRepository
	Payments() PaymentRepository
	Content() ContentRepository
	Results() ResultRepository

	// WithinTx runs fn against a transactional Store, committing when fn returns nil.
	// Nested calls reuse the outer transaction.
	WithinTx(ctx context.Context, fn func(Store) error) error
}

type PostgresStore struct {
	db *sql.DB
	q  DBTX
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, q: db}
}

func (s *PostgresStore) Users() UserRepository       { return NewUserRepository(s.q) }
func (s *PostgresStore) OTPs() OTPRepository         { return NewOTPRepository(s.q) }
func (s *PostgresStore) Payments() PaymentRepository { return NewPaymentRepository(s.q) }
func (s *PostgresStore) Content() ContentRepository  { return NewContentRepository(s.q) }
func (s *PostgresStore) Results() ResultRepository   { return NewResultRepository(s.q) }

func (s *PostgresStore) WithinTx(ctx context.Context, fn func(Store) error) (err error) {
	if _, inTx := s.q.(*sql.Tx); inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("commit tx: %w", cerr)
		}
	}()

	return fn(&PostgresStore{db: s.db, q: tx})
}
