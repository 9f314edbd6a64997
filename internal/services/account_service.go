package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"practico/internal/models"
	"practico/internal/repositories"
	"practico/internal/utils"
)

const minPasswordLen = 6

// AccountService covers registration, email verification and password reset.
type AccountService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	SendVerificationOTP(ctx context.Context, email string) (*models.User, error)
	VerifyEmail(ctx context.Context, userID, code string) error
	ResendVerificationOTP(ctx context.Context, userID, email string) error

	SendPasswordResetOTP(ctx context.Context, email string) (*models.User, error)
	VerifyPasswordResetOTP(ctx context.Context, userID, code string) error
	ResetPassword(ctx context.Context, userID, newPassword string) error
}

type accountService struct {
	store    repositories.Store
	otp      OTPService
	emails   EmailService
	notifier *Notifier
	now      func() time.Time
}

func NewAccountService(store repositories.Store, otp OTPService, emails EmailService, notifier *Notifier) AccountService {
	return &accountService{
		store:    store,
		otp:      otp,
		emails:   emails,
		notifier: notifier,
		now:      time.Now,
	}
}

func (s *accountService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || email == "" || req.Password == "" {
		return nil, validationf("Enter all fields")
	}
	if len(req.Password) < minPasswordLen {
		return nil, validationf("Password must be at least %d characters long", minPasswordLen)
	}

	exists, err := s.store.Users().ExistsByNameOrEmail(ctx, name, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		ID:              uuid.NewString(),
		Name:            name,
		Email:           email,
		PasswordHash:    string(hash),
		Status:          models.Unverified(),
		IsDarkMode:      req.IsDarkMode,
		PracticesSolved: models.DefaultPracticesSolved(),
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	log.Printf("[account][register] created userID=%s email=%q", user.ID, email)

	if err := s.otp.Prime(ctx, user, models.PurposeEmailVerification); err != nil {
		// the account exists; the client can ask for a new code
		log.Printf("[account][register] warning: verification otp not issued userID=%s: %v", user.ID, err)
	}
	return user, nil
}

func (s *accountService) SendVerificationOTP(ctx context.Context, email string) (*models.User, error) {
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.Status.Verified() {
		return nil, ErrAlreadyVerified
	}
	if err := s.otp.Issue(ctx, user, models.PurposeEmailVerification); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *accountService) VerifyEmail(ctx context.Context, userID, code string) error {
	userID, code = strings.TrimSpace(userID), strings.TrimSpace(code)
	if userID == "" || code == "" {
		return validationf("Empty OTP details")
	}
	return s.otp.Verify(ctx, userID, models.PurposeEmailVerification, code)
}

func (s *accountService) ResendVerificationOTP(ctx context.Context, userID, email string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" || strings.TrimSpace(email) == "" {
		return validationf("Empty user details")
	}
	user, err := s.userByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Status.Verified() {
		return ErrAlreadyVerified
	}
	return s.otp.Resend(ctx, user, models.PurposeEmailVerification)
}

func (s *accountService) SendPasswordResetOTP(ctx context.Context, email string) (*models.User, error) {
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.otp.Issue(ctx, user, models.PurposePasswordReset); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *accountService) VerifyPasswordResetOTP(ctx context.Context, userID, code string) error {
	userID, code = strings.TrimSpace(userID), strings.TrimSpace(code)
	if userID == "" || code == "" {
		return validationf("Missing required fields")
	}
	return s.otp.Verify(ctx, userID, models.PurposePasswordReset, code)
}

func (s *accountService) ResetPassword(ctx context.Context, userID, newPassword string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" || newPassword == "" {
		return validationf("Missing required fields")
	}
	if len(newPassword) < minPasswordLen {
		return validationf("Password must be at least %d characters long", minPasswordLen)
	}
	user, err := s.userByID(ctx, userID)
	if err != nil {
		return err
	}

	rec, err := s.store.OTPs().Get(ctx, userID, models.PurposePasswordReset)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrResetNotVerified
		}
		return err
	}
	if rec.VerifiedAt == nil || !utils.StillValid(rec.ExpiresAt, s.now()) {
		return ErrResetNotVerified
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	err = s.store.WithinTx(ctx, func(tx repositories.Store) error {
		removed, err := tx.OTPs().DeleteFor(ctx, userID, models.PurposePasswordReset)
		if err != nil {
			return err
		}
		if !removed {
			// already used by a concurrent reset
			return ErrResetNotVerified
		}
		_, err = mutateUser(ctx, tx.Users(), user, func(u *models.User) error {
			u.PasswordHash = string(hash)
			return nil
		})
		return err
	})
	if err != nil {
		return err
	}
	log.Printf("[account][reset] password changed userID=%s", userID)

	to, name := user.Email, user.Name
	s.notifier.Go("password-changed-mail", func(ctx context.Context) error {
		return s.emails.SendPasswordChanged(ctx, to, name)
	})
	return nil
}

func (s *accountService) userByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, validationf("Email required")
	}
	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *accountService) userByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
