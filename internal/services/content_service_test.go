package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentService_PracticeTests(t *testing.T) {
	svc := NewContentService(newMemStore().Content())
	ctx := context.Background()

	_, err := svc.AddPracticeTest(ctx, PracticeTestInput{Index: 2, Title: "Mock 2", AnswerKey: []string{"A", "B"}, QuestionURLs: []string{"u1", "u2"}})
	require.NoError(t, err)
	_, err = svc.AddPracticeTest(ctx, PracticeTestInput{Index: 1, Title: "Mock 1", AnswerKey: []string{"C"}, QuestionURLs: []string{"u3"}})
	require.NoError(t, err)

	_, err = svc.AddPracticeTest(ctx, PracticeTestInput{Index: 1, Title: "dup", AnswerKey: []string{"C"}, QuestionURLs: []string{"u3"}})
	assert.ErrorIs(t, err, ErrContentExists)

	got, err := svc.GetPracticeTest(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Mock 2", got.Title)

	_, err = svc.GetPracticeTest(ctx, 9)
	assert.ErrorIs(t, err, ErrContentNotFound)

	all, err := svc.ListPracticeTests(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 1, all[0].Index)
}

func TestContentService_PracticeTest_Validation(t *testing.T) {
	svc := NewContentService(newMemStore().Content())
	ctx := context.Background()

	_, err := svc.AddPracticeTest(ctx, PracticeTestInput{Index: 1, AnswerKey: []string{"A"}, QuestionURLs: []string{"u"}})
	require.True(t, IsValidation(err))
	assert.Equal(t, "Missing fields", err.Error())

	_, err = svc.AddPracticeTest(ctx, PracticeTestInput{Index: 1, Title: "t", AnswerKey: []string{"A", "B"}, QuestionURLs: []string{"u"}})
	require.True(t, IsValidation(err))
	assert.Equal(t, "AnswerKey and questionURLs count mismatch", err.Error())
}

func TestContentService_SubjectTests(t *testing.T) {
	svc := NewContentService(newMemStore().Content())
	ctx := context.Background()

	created, err := svc.AddSubjectTest(ctx, SubjectTestInput{Subject: "Logic", Index: intp(0), AnswerKey: []string{"A"}, QuestionURLs: []string{"u"}})
	require.NoError(t, err)
	assert.Equal(t, "unknown", created.Topic)

	_, err = svc.AddSubjectTest(ctx, SubjectTestInput{Subject: "Logic", Index: intp(1), Topic: "syllogisms", AnswerKey: []string{"A"}, QuestionURLs: []string{"u"}})
	require.NoError(t, err)
	_, err = svc.AddSubjectTest(ctx, SubjectTestInput{Subject: "Mathematics", Index: intp(0), AnswerKey: []string{"B"}, QuestionURLs: []string{"v"}})
	require.NoError(t, err)

	got, err := svc.GetSubjectTest(ctx, "Logic", 1)
	require.NoError(t, err)
	assert.Equal(t, "syllogisms", got.Topic)

	_, err = svc.GetSubjectTest(ctx, "Logic", 7)
	assert.ErrorIs(t, err, ErrContentNotFound)

	logic, err := svc.ListSubjectTests(ctx, "Logic")
	require.NoError(t, err)
	require.Len(t, logic, 2)
	assert.Equal(t, 0, logic[0].Index)

	_, err = svc.AddSubjectTest(ctx, SubjectTestInput{Subject: "Logic", Index: intp(1), AnswerKey: []string{"A"}, QuestionURLs: []string{"u"}})
	assert.ErrorIs(t, err, ErrContentExists)
}

func TestContentService_SubjectTest_Validation(t *testing.T) {
	svc := NewContentService(newMemStore().Content())
	ctx := context.Background()

	_, err := svc.AddSubjectTest(ctx, SubjectTestInput{Subject: "Logic", AnswerKey: []string{"A"}, QuestionURLs: []string{"u"}})
	assert.True(t, IsValidation(err), "index is required")

	_, err = svc.AddSubjectTest(ctx, SubjectTestInput{Subject: "Astrology", Index: intp(1), AnswerKey: []string{"A"}, QuestionURLs: []string{"u"}})
	assert.True(t, IsValidation(err))

	_, err = svc.AddSubjectTest(ctx, SubjectTestInput{Subject: "Logic", Index: intp(1), AnswerKey: []string{"A"}, QuestionURLs: []string{"u", "v"}})
	assert.True(t, IsValidation(err))
}
