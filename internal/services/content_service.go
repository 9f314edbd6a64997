package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"practico/internal/models"
	"practico/internal/repositories"
)

const defaultTopic = "unknown"

type PracticeTestInput struct {
	Index        int      `json:"index"`
	Title        string   `json:"title"`
	AnswerKey    []string `json:"answerKey"`
	QuestionURLs []string `json:"questionURLs"`
}

type SubjectTestInput struct {
	Subject      string   `json:"subject"`
	Index        *int     `json:"index"`
	Topic        string   `json:"topic"`
	AnswerKey    []string `json:"answerKey"`
	QuestionURLs []string `json:"questionURLs"`
}

// ContentService manages the practice and subject test catalogue.
type ContentService interface {
	AddPracticeTest(ctx context.Context, in PracticeTestInput) (*models.PracticeTest, error)
	GetPracticeTest(ctx context.Context, index int) (*models.PracticeTest, error)
	ListPracticeTests(ctx context.Context) ([]models.PracticeTest, error)

	AddSubjectTest(ctx context.Context, in SubjectTestInput) (*models.SubjectTest, error)
	GetSubjectTest(ctx context.Context, subject string, index int) (*models.SubjectTest, error)
	ListSubjectTests(ctx context.Context, subject string) ([]models.SubjectTest, error)
}

type contentService struct {
	repo repositories.ContentRepository
	now  func() time.Time
}

func NewContentService(repo repositories.ContentRepository) ContentService {
	return &contentService{repo: repo, now: time.Now}
}

func (s *contentService) AddPracticeTest(ctx context.Context, in PracticeTestInput) (*models.PracticeTest, error) {
	title := strings.TrimSpace(in.Title)
	if in.Index <= 0 || title == "" || len(in.AnswerKey) == 0 || len(in.QuestionURLs) == 0 {
		return nil, validationf("Missing fields")
	}
	if len(in.AnswerKey) != len(in.QuestionURLs) {
		return nil, validationf("AnswerKey and questionURLs count mismatch")
	}
	t := &models.PracticeTest{
		Index:        in.Index,
		Title:        title,
		AnswerKey:    in.AnswerKey,
		QuestionURLs: in.QuestionURLs,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.CreatePracticeTest(ctx, t); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrContentExists
		}
		return nil, err
	}
	log.Printf("[content][practice] created index=%d questions=%d", t.Index, len(t.AnswerKey))
	return t, nil
}

func (s *contentService) GetPracticeTest(ctx context.Context, index int) (*models.PracticeTest, error) {
	t, err := s.repo.GetPracticeTest(ctx, index)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrContentNotFound
	}
	return t, err
}

func (s *contentService) ListPracticeTests(ctx context.Context) ([]models.PracticeTest, error) {
	return s.repo.ListPracticeTests(ctx)
}

func (s *contentService) AddSubjectTest(ctx context.Context, in SubjectTestInput) (*models.SubjectTest, error) {
	subject := strings.TrimSpace(in.Subject)
	if subject == "" || in.Index == nil || len(in.AnswerKey) == 0 || len(in.QuestionURLs) == 0 {
		return nil, validationf("Missing fields")
	}
	if !models.IsKnownSubject(subject) {
		return nil, validationf("Unknown subject %q", subject)
	}
	if len(in.AnswerKey) != len(in.QuestionURLs) {
		return nil, validationf("AnswerKey and questionURLs count mismatch")
	}
	topic := strings.TrimSpace(in.Topic)
	if topic == "" {
		topic = defaultTopic
	}
	t := &models.SubjectTest{
		Subject:      subject,
		Index:        *in.Index,
		Topic:        topic,
		AnswerKey:    in.AnswerKey,
		QuestionURLs: in.QuestionURLs,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.CreateSubjectTest(ctx, t); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrContentExists
		}
		return nil, err
	}
	log.Printf("[content][subject] created subject=%q index=%d topic=%q", t.Subject, t.Index, t.Topic)
	return t, nil
}

func (s *contentService) GetSubjectTest(ctx context.Context, subject string, index int) (*models.SubjectTest, error) {
	t, err := s.repo.GetSubjectTest(ctx, subject, index)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrContentNotFound
	}
	return t, err
}

func (s *contentService) ListSubjectTests(ctx context.Context, subject string) ([]models.SubjectTest, error) {
	return s.repo.ListSubjectTests(ctx, subject)
}
