package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"practico/internal/models"
	"practico/internal/repositories"
	"practico/internal/utils"
)

const (
	DefaultHeartbeatTimeout = 2 * time.Minute
	sessionTokenBytes       = 32
	unknownDevice           = "Unknown"
)

type LoginResult struct {
	Token                 string
	User                  *models.User
	PreviousSessionClosed bool
}

// SessionService enforces one live session per user. A session lives while the
// stored token matches the credential and heartbeats keep arriving.
type SessionService interface {
	Login(ctx context.Context, email, password, device string) (*LoginResult, error)
	Validate(ctx context.Context, credential string) (*models.User, error)
	Heartbeat(ctx context.Context, credential string) error
	Logout(ctx context.Context, credential string) error
}

type sessionService struct {
	users            repositories.UserRepository
	creds            *Credentials
	heartbeatTimeout time.Duration
	now              func() time.Time
}

func NewSessionService(users repositories.UserRepository, creds *Credentials, heartbeatTimeout time.Duration) SessionService {
	if heartbeatTimeout <= 0 {
		heartbeatTimeout = DefaultHeartbeatTimeout
	}
	return &sessionService{
		users:            users,
		creds:            creds,
		heartbeatTimeout: heartbeatTimeout,
		now:              time.Now,
	}
}

// LoginRefusal carries the user for refusals the client can act on
// (verify email, pay).
type LoginRefusal struct {
	Err  error
	User *models.User
}

func (e *LoginRefusal) Error() string { return e.Err.Error() }
func (e *LoginRefusal) Unwrap() error { return e.Err }

func (s *sessionService) Login(ctx context.Context, email, password, device string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	log.Printf("[auth][login] attempt email=%q", email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			log.Printf("[auth][login] user not found by email=%q", email)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Printf("[auth][login] bcrypt mismatch for userID=%s", user.ID)
		return nil, ErrInvalidCredentials
	}
	if err := loginAllowed(user); err != nil {
		return nil, err
	}

	device = strings.TrimSpace(device)
	if device == "" {
		device = unknownDevice
	}

	var sessionID string
	var hadPrevious bool
	user, err = mutateUser(ctx, s.users, user, func(u *models.User) error {
		// a retry works on a reloaded record whose status may have moved
		if err := loginAllowed(u); err != nil {
			return err
		}
		tok, err := utils.NewSessionToken(sessionTokenBytes)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		hadPrevious = u.LoggedIn()
		sessionID = tok
		u.ActiveSessionToken = &tok
		u.LastHeartbeat = &now
		u.LastLoginAt = &now
		u.LastLoginDevice = &device
		return nil
	})
	if err != nil {
		return nil, err
	}
	if hadPrevious {
		log.Printf("[auth][login] previous session closed userID=%s", user.ID)
	}

	token, err := s.creds.Sign(user.ID, sessionID)
	if err != nil {
		return nil, err
	}
	log.Printf("[auth][login] success userID=%s session=%s device=%q", user.ID, utils.TokenPrefix(sessionID), device)
	return &LoginResult{Token: token, User: user, PreviousSessionClosed: hadPrevious}, nil
}

func loginAllowed(u *models.User) error {
	if !u.Status.Verified() {
		log.Printf("[auth][login] email not verified userID=%s", u.ID)
		return &LoginRefusal{Err: ErrEmailNotVerified, User: u}
	}
	if !u.Status.Paid() {
		log.Printf("[auth][login] payment not completed userID=%s status=%s", u.ID, u.Status.Kind())
		return &LoginRefusal{Err: ErrPaymentRequired, User: u}
	}
	return nil
}

func (s *sessionService) Validate(ctx context.Context, credential string) (*models.User, error) {
	user, _, err := s.validate(ctx, credential)
	return user, err
}

func (s *sessionService) validate(ctx context.Context, credential string) (*models.User, *SessionClaims, error) {
	claims, err := s.creds.Parse(credential)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil, ErrUnauthenticated
		}
		return nil, nil, err
	}
	if !sameSession(user, claims.SessionID) {
		log.Printf("[auth][session] mismatch userID=%s", user.ID)
		return nil, nil, ErrSessionMismatch
	}

	// a session without a heartbeat stamp is not timed out
	if user.LastHeartbeat == nil {
		return user, claims, nil
	}
	deadline := user.LastHeartbeat.Add(s.heartbeatTimeout)
	if utils.StillValid(deadline, s.now()) {
		return user, claims, nil
	}

	log.Printf("[auth][session] expired due to inactivity userID=%s last_heartbeat=%s",
		user.ID, user.LastHeartbeat.Format(time.RFC3339))
	_, err = mutateUser(ctx, s.users, user, func(u *models.User) error {
		// a newer login may have replaced the session in the meantime
		if !sameSession(u, claims.SessionID) {
			return errNoChange
		}
		u.ClearSession()
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return nil, nil, ErrSessionExpired
}

func (s *sessionService) Heartbeat(ctx context.Context, credential string) error {
	user, claims, err := s.validate(ctx, credential)
	if err != nil {
		return err
	}
	_, err = mutateUser(ctx, s.users, user, func(u *models.User) error {
		if !sameSession(u, claims.SessionID) {
			return ErrSessionMismatch
		}
		now := s.now().UTC()
		u.LastHeartbeat = &now
		return nil
	})
	return err
}

func (s *sessionService) Logout(ctx context.Context, credential string) error {
	user, claims, err := s.validate(ctx, credential)
	if err != nil {
		return err
	}
	_, err = mutateUser(ctx, s.users, user, func(u *models.User) error {
		if !sameSession(u, claims.SessionID) {
			return ErrSessionMismatch
		}
		u.ClearSession()
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("[auth][logout] session cleared userID=%s", user.ID)
	return nil
}

func sameSession(u *models.User, sessionID string) bool {
	if !u.LoggedIn() {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*u.ActiveSessionToken), []byte(sessionID)) == 1
}
