package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"practico/internal/models"
)

func hashed(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func newSessionFixture(t *testing.T, status models.AccountStatus) (*memStore, *sessionService, *clock) {
	t.Helper()
	store := newMemStore()
	store.seedUser(models.User{
		ID:           adaID,
		Name:         "ada",
		Email:        "ada@example.com",
		PasswordHash: hashed(t, "s3cret!"),
		Status:       status,
	})
	clk := newClock()
	svc := NewSessionService(store.Users(), NewCredentials("test-secret"), 2*time.Minute).(*sessionService)
	svc.now = clk.Now
	return store, svc, clk
}

func TestSessionService_Login_Success(t *testing.T) {
	store, svc, clk := newSessionFixture(t, models.ActiveMember(time.Now().AddDate(1, 0, 0)))
	ctx := context.Background()

	res, err := svc.Login(ctx, "  ADA@example.com ", "s3cret!", "iPhone")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.False(t, res.PreviousSessionClosed)

	u := store.user(adaID)
	require.True(t, u.LoggedIn())
	require.NotNil(t, u.LastHeartbeat)
	assert.Equal(t, clk.Now(), *u.LastHeartbeat)
	assert.Equal(t, "iPhone", *u.LastLoginDevice)

	got, err := svc.Validate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, adaID, got.ID)
}

func TestSessionService_Login_DefaultDevice(t *testing.T) {
	store, svc, _ := newSessionFixture(t, models.ActiveMember(time.Now().AddDate(1, 0, 0)))
	_, err := svc.Login(context.Background(), "ada@example.com", "s3cret!", "")
	require.NoError(t, err)
	u := store.user(adaID)
	assert.Equal(t, "Unknown", *u.LastLoginDevice)
}

func TestSessionService_Login_Refusals(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong password", func(t *testing.T) {
		store, svc, _ := newSessionFixture(t, models.ActiveMember(time.Now().AddDate(1, 0, 0)))
		_, err := svc.Login(ctx, "ada@example.com", "nope", "x")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.False(t, store.user(adaID).LoggedIn())
	})

	t.Run("unknown email looks the same", func(t *testing.T) {
		_, svc, _ := newSessionFixture(t, models.ActiveMember(time.Now().AddDate(1, 0, 0)))
		_, err := svc.Login(ctx, "ghost@example.com", "s3cret!", "x")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unverified", func(t *testing.T) {
		store, svc, _ := newSessionFixture(t, models.Unverified())
		_, err := svc.Login(ctx, "ada@example.com", "s3cret!", "x")
		assert.ErrorIs(t, err, ErrEmailNotVerified)
		var refusal *LoginRefusal
		require.ErrorAs(t, err, &refusal)
		assert.Equal(t, adaID, refusal.User.ID)
		assert.False(t, store.user(adaID).LoggedIn())
	})

	t.Run("unpaid", func(t *testing.T) {
		store, svc, _ := newSessionFixture(t, models.VerifiedUnpaid())
		_, err := svc.Login(ctx, "ada@example.com", "s3cret!", "x")
		assert.ErrorIs(t, err, ErrPaymentRequired)
		assert.False(t, store.user(adaID).LoggedIn())
	})

	t.Run("pending payment", func(t *testing.T) {
		_, svc, _ := newSessionFixture(t, models.PendingPayment())
		_, err := svc.Login(ctx, "ada@example.com", "s3cret!", "x")
		assert.ErrorIs(t, err, ErrPaymentRequired)
	})
}

func TestSessionService_SecondLoginSupersedesFirst(t *testing.T) {
	_, svc, clk := newSessionFixture(t, models.ActiveMember(time.Now().AddDate(1, 0, 0)))
	ctx := context.Background()

	first, err := svc.Login(ctx, "ada@example.com", "s3cret!", "laptop")
	require.NoError(t, err)
	clk.Advance(10 * time.Second)
	second, err := svc.Login(ctx, "ada@example.com", "s3cret!", "phone")
	require.NoError(t, err)
	assert.True(t, second.PreviousSessionClosed)
	assert.NotEqual(t, first.Token, second.Token)

	_, err = svc.Validate(ctx, first.Token)
	assert.ErrorIs(t, err, ErrSessionMismatch)
	assert.ErrorIs(t, svc.Heartbeat(ctx, first.Token), ErrSessionMismatch)

	_, err = svc.Validate(ctx, second.Token)
	assert.NoError(t, err)
}

func TestSessionService_HeartbeatKeepsSessionAlive(t *testing.T) {
	_, svc, clk := newSessionFixture(t, models.ActiveMember(time.Now().AddDate(1, 0, 0)))
	ctx := context.Background()

	res, err := svc.Login(ctx, "ada@example.com", "s3cret!", "x")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		clk.Advance(90 * time.Second)
		require.NoError(t, svc.Heartbeat(ctx, res.Token))
	}
	_, err = svc.Validate(ctx, res.Token)
	assert.NoError(t, err)
}

func TestSessionService_InactivityExpiresAndClears(t *testing.T) {
	store, svc, clk := newSessionFixture(t, models.ActiveMember(time.Now().AddDate(1, 0, 0)))
	ctx := context.Background()

	res, err := svc.Login(ctx, "ada@example.com", "s3cret!", "x")
	require.NoError(t, err)

	clk.Advance(2*time.Minute + time.Second)
	_, err = svc.Validate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrSessionExpired)

	u := store.user(adaID)
	assert.False(t, u.LoggedIn())
	assert.Nil(t, u.LastHeartbeat)

	// the session is gone, not merely late
	_, err = svc.Validate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrSessionMismatch)
}

func TestSessionService_DeadlineBoundary(t *testing.T) {
	_, svc, clk := newSessionFixture(t, models.ActiveMember(time.Now().AddDate(1, 0, 0)))
	ctx := context.Background()
	res, err := svc.Login(ctx, "ada@example.com", "s3cret!", "x")
	require.NoError(t, err)

	clk.Advance(2 * time.Minute)
	_, err = svc.Validate(ctx, res.Token)
	require.NoError(t, err, "the deadline itself is still live")

	clk.Advance(time.Nanosecond)
	_, err = svc.Validate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestSessionService_MissingHeartbeatIsNotTimedOut(t *testing.T) {
	store, svc, clk := newSessionFixture(t, models.ActiveMember(time.Now().AddDate(1, 0, 0)))
	ctx := context.Background()
	res, err := svc.Login(ctx, "ada@example.com", "s3cret!", "x")
	require.NoError(t, err)

	u := store.user(adaID)
	u.LastHeartbeat = nil
	store.seedUser(*u)

	clk.Advance(24 * time.Hour)
	_, err = svc.Validate(ctx, res.Token)
	assert.NoError(t, err)
}

func TestSessionService_Logout(t *testing.T) {
	store, svc, _ := newSessionFixture(t, models.ActiveMember(time.Now().AddDate(1, 0, 0)))
	ctx := context.Background()
	res, err := svc.Login(ctx, "ada@example.com", "s3cret!", "x")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, res.Token))
	assert.False(t, store.user(adaID).LoggedIn())

	assert.ErrorIs(t, svc.Logout(ctx, res.Token), ErrSessionMismatch)
	assert.ErrorIs(t, svc.Heartbeat(ctx, res.Token), ErrSessionMismatch)
}

func TestSessionService_BadCredential(t *testing.T) {
	_, svc, _ := newSessionFixture(t, models.ActiveMember(time.Now().AddDate(1, 0, 0)))
	ctx := context.Background()

	_, err := svc.Validate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	forged, err := NewCredentials("other-secret").Sign(adaID, "sid")
	require.NoError(t, err)
	_, err = svc.Validate(ctx, forged)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	unknown, err := NewCredentials("test-secret").Sign(bobID, "sid")
	require.NoError(t, err)
	_, err = svc.Validate(ctx, unknown)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestSessionService_LoginRetriesOnVersionConflict(t *testing.T) {
	store, svc, _ := newSessionFixture(t, models.ActiveMember(time.Now().AddDate(1, 0, 0)))
	store.conflicts = 1

	res, err := svc.Login(context.Background(), "ada@example.com", "s3cret!", "x")
	require.NoError(t, err)
	_, err = svc.Validate(context.Background(), res.Token)
	assert.NoError(t, err)
}

func TestSessionService_LoginGivesUpAfterRepeatedConflicts(t *testing.T) {
	store, svc, _ := newSessionFixture(t, models.ActiveMember(time.Now().AddDate(1, 0, 0)))
	store.conflicts = maxMutateAttempts

	_, err := svc.Login(context.Background(), "ada@example.com", "s3cret!", "x")
	require.Error(t, err)
	assert.False(t, store.user(adaID).LoggedIn())
}

// statusFlipUsers rewrites the stored status once, just before the first write.
type statusFlipUsers struct {
	memUsers
	to      models.AccountStatus
	flipped bool
}

func (r *statusFlipUsers) Update(ctx context.Context, u *models.User) error {
	if !r.flipped {
		r.flipped = true
		r.s.mu.Lock()
		cur := r.s.data.users[u.ID]
		cur.Status = r.to
		cur.Version++
		r.s.data.users[u.ID] = cur
		r.s.mu.Unlock()
	}
	return r.memUsers.Update(ctx, u)
}

func TestSessionService_Login_RechecksStatusOnRetry(t *testing.T) {
	store, _, clk := newSessionFixture(t, models.ActiveMember(time.Now().AddDate(1, 0, 0)))
	users := &statusFlipUsers{memUsers: memUsers{store}, to: models.VerifiedUnpaid()}
	svc := NewSessionService(users, NewCredentials("test-secret"), 2*time.Minute).(*sessionService)
	svc.now = clk.Now

	res, err := svc.Login(context.Background(), "ada@example.com", "s3cret!", "iPhone")
	assert.Nil(t, res)
	var refusal *LoginRefusal
	require.ErrorAs(t, err, &refusal)
	assert.ErrorIs(t, err, ErrPaymentRequired)
	assert.Equal(t, models.StatusVerifiedUnpaid, refusal.User.Status.Kind())

	u := store.user(adaID)
	assert.False(t, u.LoggedIn())
	assert.Nil(t, u.LastLoginAt)
}
