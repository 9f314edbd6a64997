package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"practico/internal/models"
)

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }

func newUserFixture(t *testing.T, status models.AccountStatus) (*memStore, *userService, *models.User, *clock) {
	t.Helper()
	store := newMemStore()
	u := store.seedUser(models.User{ID: adaID, Name: "ada", Email: "ada@example.com", Status: status})
	clk := newClock()
	svc := NewUserService(store).(*userService)
	svc.now = clk.Now
	return store, svc, u, clk
}

func TestUserService_Profile(t *testing.T) {
	expiry := newClock().Now().AddDate(0, 1, 0)
	_, svc, u, clk := newUserFixture(t, models.ActiveMember(expiry))

	p, err := svc.Profile(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, "ada", p.Name)
	assert.True(t, p.Verified)
	assert.True(t, p.IsPaidMember)
	assert.True(t, p.MembershipActive)
	assert.Equal(t, expiry, *p.MembershipExpiryDate)
	assert.NotNil(t, p.PracticeTestResults)
	assert.Empty(t, p.PracticeTestResults)

	clk.Advance(40 * 24 * time.Hour)
	p, err = svc.Profile(context.Background(), u)
	require.NoError(t, err)
	assert.True(t, p.IsPaidMember)
	assert.False(t, p.MembershipActive, "lapsed membership is reported, not revoked")
}

func TestUserService_UpdateDarkMode(t *testing.T) {
	store, svc, u, _ := newUserFixture(t, models.VerifiedUnpaid())
	ctx := context.Background()

	out, err := svc.UpdateDarkMode(ctx, u, true)
	require.NoError(t, err)
	assert.True(t, out.IsDarkMode)
	assert.True(t, store.user(adaID).IsDarkMode)

	before := store.user(adaID).Version
	_, err = svc.UpdateDarkMode(ctx, out, true)
	require.NoError(t, err)
	assert.Equal(t, before, store.user(adaID).Version, "no write when nothing changes")
}

func TestUserService_UpdatePracticesSolved(t *testing.T) {
	store, svc, u, _ := newUserFixture(t, models.VerifiedUnpaid())

	_, err := svc.UpdatePracticesSolved(context.Background(), u, nil)
	assert.True(t, IsValidation(err))

	out, err := svc.UpdatePracticesSolved(context.Background(), u, []bool{true, false, true, false})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true, false}, out.PracticesSolved)
	assert.Equal(t, []bool{true, false, true, false}, store.user(adaID).PracticesSolved)
}

func TestUserService_Results(t *testing.T) {
	_, svc, u, clk := newUserFixture(t, models.VerifiedUnpaid())
	ctx := context.Background()

	in := ResultInput{TestNumber: 2, CorrectAnswers: intp(30), WrongAnswers: intp(5), EmptyAnswers: intp(5), Score: floatp(28.75)}
	list, err := svc.UpsertResult(ctx, u, in)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, clk.Now(), list[0].Date)

	// same test number replaces the previous result
	clk.Advance(time.Hour)
	in.Score = floatp(31)
	list, err = svc.UpsertResult(ctx, u, in)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 31.0, list[0].Score)

	in.TestNumber = 1
	list, err = svc.UpsertResult(ctx, u, in)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 1, list[0].TestNumber)

	list, err = svc.DeleteResult(ctx, u, 2)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].TestNumber)

	list, err = svc.ListResults(ctx, u)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUserService_Results_Validation(t *testing.T) {
	_, svc, u, _ := newUserFixture(t, models.VerifiedUnpaid())
	ctx := context.Background()

	for _, n := range []int{0, 5, -1} {
		_, err := svc.UpsertResult(ctx, u, ResultInput{TestNumber: n, CorrectAnswers: intp(1), WrongAnswers: intp(1), EmptyAnswers: intp(1), Score: floatp(1)})
		assert.True(t, IsValidation(err), "test number %d", n)
	}
	_, err := svc.UpsertResult(ctx, u, ResultInput{TestNumber: 1, CorrectAnswers: intp(1)})
	assert.True(t, IsValidation(err))

	_, err = svc.DeleteResult(ctx, u, 0)
	assert.True(t, IsValidation(err))
}
