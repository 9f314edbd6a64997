package repositories

import (
	"context"
	"fmt"

	"practico/internal/models"
)

// ResultRepository keeps at most one practice test result per (user, test number).
type ResultRepository interface {
	Upsert(ctx context.Context, userID string, res *models.PracticeTestResult) error
	List(ctx context.Context, userID string) ([]models.PracticeTestResult, error)
	Delete(ctx context.Context, userID string, testNumber int) error
}

type resultRepository struct {
	DB DBTX
}

func NewResultRepository(db DBTX) ResultRepository {
	return &resultRepository{DB: db}
}

func (r *resultRepository) Upsert(ctx context.Context, userID string, res *models.PracticeTestResult) error {
	const q = `
		INSERT INTO practice_test_results (
			user_id, test_number, correct_answers, wrong_answers, empty_answers, score, date
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (user_id, test_number) DO UPDATE SET
			correct_answers = EXCLUDED.correct_answers,
			wrong_answers   = EXCLUDED.wrong_answers,
			empty_answers   = EXCLUDED.empty_answers,
			score           = EXCLUDED.score,
			date            = EXCLUDED.date
	`
	_, err := r.DB.ExecContext(ctx, q,
		userID, res.TestNumber, res.CorrectAnswers, res.WrongAnswers, res.EmptyAnswers, res.Score, res.Date,
	)
	if err != nil {
		return fmt.Errorf("upsert practice result: %w", err)
	}
	return nil
}

func (r *resultRepository) List(ctx context.Context, userID string) ([]models.PracticeTestResult, error) {
	const q = `
		SELECT test_number, correct_answers, wrong_answers, empty_answers, score, date
		FROM practice_test_results
		WHERE user_id = $1
		ORDER BY test_number ASC
	`
	rows, err := r.DB.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list practice results: %w", err)
	}
	defer rows.Close()

	out := make([]models.PracticeTestResult, 0)
	for rows.Next() {
		var res models.PracticeTestResult
		if err := rows.Scan(&res.TestNumber, &res.CorrectAnswers, &res.WrongAnswers, &res.EmptyAnswers, &res.Score, &res.Date); err != nil {
			return nil, fmt.Errorf("scan practice result: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *resultRepository) Delete(ctx context.Context, userID string, testNumber int) error {
	const q = `DELETE FROM practice_test_results WHERE user_id = $1 AND test_number = $2`
	if _, err := r.DB.ExecContext(ctx, q, userID, testNumber); err != nil {
		return fmt.Errorf("delete practice result: %w", err)
	}
	return nil
}
