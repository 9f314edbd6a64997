package repositories

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"practico/internal/models"
)

type ContentRepository interface {
	CreatePracticeTest(ctx context.Context, t *models.PracticeTest) error
	GetPracticeTest(ctx context.Context, index int) (*models.PracticeTest, error)
	ListPracticeTests(ctx context.Context) ([]models.PracticeTest, error)

	CreateSubjectTest(ctx context.Context, t *models.SubjectTest) error
	GetSubjectTest(ctx context.Context, subject string, index int) (*models.SubjectTest, error)
	ListSubjectTests(ctx context.Context, subject string) ([]models.SubjectTest, error)
}

type contentRepository struct {
	DB DBTX
}

func NewContentRepository(db DBTX) ContentRepository {
	return &contentRepository{DB: db}
}

func (r *contentRepository) CreatePracticeTest(ctx context.Context, t *models.PracticeTest) error {
	const q = `
		INSERT INTO practice_tests (index, title, answer_key, question_urls)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err := r.DB.QueryRowContext(ctx, q,
		t.Index, t.Title, pq.StringArray(t.AnswerKey), pq.StringArray(t.QuestionURLs),
	).Scan(&t.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert practice test: %w", err)
	}
	return nil
}

func (r *contentRepository) GetPracticeTest(ctx context.Context, index int) (*models.PracticeTest, error) {
	const q = `
		SELECT index, title, answer_key, question_urls, created_at
		FROM practice_tests
		WHERE index = $1
	`
	t := &models.PracticeTest{}
	var keys, urls pq.StringArray
	if err := r.DB.QueryRowContext(ctx, q, index).Scan(&t.Index, &t.Title, &keys, &urls, &t.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	t.AnswerKey, t.QuestionURLs = keys, urls
	return t, nil
}

func (r *contentRepository) ListPracticeTests(ctx context.Context) ([]models.PracticeTest, error) {
	const q = `
		SELECT index, title, answer_key, question_urls, created_at
		FROM practice_tests
		ORDER BY index ASC
	`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list practice tests: %w", err)
	}
	defer rows.Close()

	out := make([]models.PracticeTest, 0)
	for rows.Next() {
		var t models.PracticeTest
		var keys, urls pq.StringArray
		if err := rows.Scan(&t.Index, &t.Title, &keys, &urls, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan practice test: %w", err)
		}
		t.AnswerKey, t.QuestionURLs = keys, urls
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *contentRepository) CreateSubjectTest(ctx context.Context, t *models.SubjectTest) error {
	const q = `
		INSERT INTO subject_tests (subject, index, topic, answer_key, question_urls)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := r.DB.QueryRowContext(ctx, q,
		t.Subject, t.Index, t.Topic, pq.StringArray(t.AnswerKey), pq.StringArray(t.QuestionURLs),
	).Scan(&t.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert subject test: %w", err)
	}
	return nil
}

func (r *contentRepository) GetSubjectTest(ctx context.Context, subject string, index int) (*models.SubjectTest, error) {
	const q = `
		SELECT subject, index, topic, answer_key, question_urls, created_at
		FROM subject_tests
		WHERE subject = $1 AND index = $2
	`
	t := &models.SubjectTest{}
	var keys, urls pq.StringArray
	err := r.DB.QueryRowContext(ctx, q, subject, index).Scan(&t.Subject, &t.Index, &t.Topic, &keys, &urls, &t.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	t.AnswerKey, t.QuestionURLs = keys, urls
	return t, nil
}

func (r *contentRepository) ListSubjectTests(ctx context.Context, subject string) ([]models.SubjectTest, error) {
	const q = `
		SELECT subject, index, topic, answer_key, question_urls, created_at
		FROM subject_tests
		WHERE subject = $1
		ORDER BY index ASC
	`
	rows, err := r.DB.QueryContext(ctx, q, subject)
	if err != nil {
		return nil, fmt.Errorf("list subject tests: %w", err)
	}
	defer rows.Close()

	out := make([]models.SubjectTest, 0)
	for rows.Next() {
		var t models.SubjectTest
		var keys, urls pq.StringArray
		if err := rows.Scan(&t.Subject, &t.Index, &t.Topic, &keys, &urls, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subject test: %w", err)
		}
		t.AnswerKey, t.QuestionURLs = keys, urls
		out = append(out, t)
	}
	return out, rows.Err()
}
