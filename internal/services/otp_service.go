package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"practico/internal/models"
	"practico/internal/ratelimit"
	"practico/internal/repositories"
	"practico/internal/utils"
)

const (
	DefaultOTPTTL = 5 * time.Minute
	otpHashCost   = 10
)

// OTPService issues and checks one-time email codes. At most one record lives per
// (user, purpose); only its bcrypt hash is stored.
type OTPService interface {
	Issue(ctx context.Context, user *models.User, purpose models.OTPPurpose) error
	Verify(ctx context.Context, userID string, purpose models.OTPPurpose, code string) error
	Resend(ctx context.Context, user *models.User, purpose models.OTPPurpose) error
	// Prime issues a code without taking the send cooldown. The code sent at
	// registration goes through here so an immediate send-otp still works.
	Prime(ctx context.Context, user *models.User, purpose models.OTPPurpose) error
}

type OTPOptions struct {
	TTL            time.Duration
	ResendCooldown time.Duration
}

type otpService struct {
	store    repositories.Store
	emails   EmailService
	notifier *Notifier
	cooldown ratelimit.Cooldown
	opts     OTPOptions
	now      func() time.Time
}

func NewOTPService(store repositories.Store, emails EmailService, notifier *Notifier, cooldown ratelimit.Cooldown, opts OTPOptions) OTPService {
	if opts.TTL <= 0 {
		opts.TTL = DefaultOTPTTL
	}
	if cooldown == nil {
		cooldown = ratelimit.Noop{}
	}
	return &otpService{
		store:    store,
		emails:   emails,
		notifier: notifier,
		cooldown: cooldown,
		opts:     opts,
		now:      time.Now,
	}
}

func (s *otpService) Issue(ctx context.Context, user *models.User, purpose models.OTPPurpose) error {
	return s.issue(ctx, user, purpose, true)
}

func (s *otpService) Prime(ctx context.Context, user *models.User, purpose models.OTPPurpose) error {
	return s.issue(ctx, user, purpose, false)
}

func (s *otpService) issue(ctx context.Context, user *models.User, purpose models.OTPPurpose, throttle bool) error {
	if !purpose.Valid() {
		return validationf("unknown otp purpose %q", purpose)
	}
	if throttle && s.opts.ResendCooldown > 0 {
		ok, left, err := s.cooldown.Acquire(ctx, ratelimit.Key(user.ID, string(purpose)), s.opts.ResendCooldown)
		if err != nil {
			// redis down: keep serving without throttling
			log.Printf("[otp][issue] cooldown check failed userID=%s: %v", user.ID, err)
		} else if !ok {
			log.Printf("[otp][issue] throttled userID=%s purpose=%s retry_in=%s", user.ID, purpose, left.Truncate(time.Second))
			return ErrOTPThrottled
		}
	}

	code, err := utils.NewOTPCode()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), otpHashCost)
	if err != nil {
		return fmt.Errorf("hash otp: %w", err)
	}

	now := s.now().UTC()
	rec := &models.OTPRecord{
		UserID:    user.ID,
		Purpose:   purpose,
		CodeHash:  string(hash),
		CreatedAt: now,
		ExpiresAt: now.Add(s.opts.TTL),
	}
	err = s.store.WithinTx(ctx, func(tx repositories.Store) error {
		if _, err := tx.OTPs().DeleteFor(ctx, user.ID, purpose); err != nil {
			return err
		}
		return tx.OTPs().Create(ctx, rec)
	})
	if err != nil {
		return err
	}
	log.Printf("[otp][issue] userID=%s purpose=%s expires_at=%s", user.ID, purpose, rec.ExpiresAt.Format(time.RFC3339))

	to, ttl := user.Email, s.opts.TTL
	s.notifier.Go("otp-mail", func(ctx context.Context) error {
		return s.emails.SendOTP(ctx, to, purpose, code, ttl)
	})
	return nil
}

func (s *otpService) Resend(ctx context.Context, user *models.User, purpose models.OTPPurpose) error {
	return s.Issue(ctx, user, purpose)
}

func (s *otpService) Verify(ctx context.Context, userID string, purpose models.OTPPurpose, code string) error {
	if !purpose.Valid() {
		return validationf("unknown otp purpose %q", purpose)
	}
	rec, err := s.store.OTPs().Get(ctx, userID, purpose)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrOTPNotFound
		}
		return err
	}

	now := s.now()
	if !utils.StillValid(rec.ExpiresAt, now) {
		if _, err := s.store.OTPs().DeleteFor(ctx, userID, purpose); err != nil {
			return err
		}
		log.Printf("[otp][verify] expired userID=%s purpose=%s", userID, purpose)
		return ErrOTPExpired
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.CodeHash), []byte(code)); err != nil {
		log.Printf("[otp][verify] mismatch userID=%s purpose=%s", userID, purpose)
		return ErrOTPMismatch
	}

	switch purpose {
	case models.PurposeEmailVerification:
		err = s.store.WithinTx(ctx, func(tx repositories.Store) error {
			// consuming the code first: of two concurrent verifies only one deletes it
			removed, err := tx.OTPs().DeleteFor(ctx, userID, purpose)
			if err != nil {
				return err
			}
			if !removed {
				return ErrOTPNotFound
			}
			user, err := tx.Users().GetByID(ctx, userID)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					return ErrUserNotFound
				}
				return err
			}
			_, err = mutateUser(ctx, tx.Users(), user, func(u *models.User) error {
				if u.Status.Verified() {
					return errNoChange
				}
				u.Status = u.Status.MarkVerified()
				return nil
			})
			return err
		})
	case models.PurposePasswordReset:
		// kept until the password is actually changed
		err = s.store.OTPs().MarkVerified(ctx, rec.ID, now.UTC())
		if errors.Is(err, repositories.ErrNotFound) {
			err = ErrOTPNotFound
		}
	}
	if err != nil {
		return err
	}
	log.Printf("[otp][verify] ok userID=%s purpose=%s", userID, purpose)
	return nil
}
