package services

import (
	"context"
	"log"
	"time"

	"practico/internal/models"
	"practico/internal/repositories"
)

// Profile is what a logged-in client sees about itself.
type Profile struct {
	Name                           string                      `json:"name"`
	Email                          string                      `json:"email"`
	IsDarkMode                     bool                        `json:"isDarkMode"`
	PracticesSolved                []bool                      `json:"practicesSolved"`
	Verified                       bool                        `json:"verified"`
	Status                         models.StatusKind           `json:"status"`
	IsPaid                         bool                        `json:"isPaid"`
	IsPaidMember                   bool                        `json:"isPaidMember"`
	MembershipActive               bool                        `json:"membershipActive"`
	MembershipExpiryDate           *time.Time                  `json:"membershipExpiryDate"`
	AcceptedTerms                  bool                        `json:"acceptedTerms"`
	AcceptedPreliminaryInformation bool                        `json:"acceptedPreliminaryInformation"`
	TermsAcceptanceDate            *time.Time                  `json:"termsAcceptanceDate"`
	PracticeTestResults            []models.PracticeTestResult `json:"practiceTestResults"`
	IsLoggedIn                     bool                        `json:"isLoggedIn"`
	LastLoginDevice                *string                     `json:"lastLoginDevice"`
}

type ResultInput struct {
	TestNumber     int      `json:"testNumber"`
	CorrectAnswers *int     `json:"correctAnswers"`
	WrongAnswers   *int     `json:"wrongAnswers"`
	EmptyAnswers   *int     `json:"emptyAnswers"`
	Score          *float64 `json:"score"`
}

// UserService serves the session-bound profile: preferences, progress and
// practice test results. The user passed in is the one the session resolved.
type UserService interface {
	Profile(ctx context.Context, user *models.User) (*Profile, error)
	UpdateDarkMode(ctx context.Context, user *models.User, dark bool) (*models.User, error)
	UpdatePracticesSolved(ctx context.Context, user *models.User, solved []bool) (*models.User, error)

	UpsertResult(ctx context.Context, user *models.User, in ResultInput) ([]models.PracticeTestResult, error)
	ListResults(ctx context.Context, user *models.User) ([]models.PracticeTestResult, error)
	DeleteResult(ctx context.Context, user *models.User, testNumber int) ([]models.PracticeTestResult, error)
}

type userService struct {
	store repositories.Store
	now   func() time.Time
}

func NewUserService(store repositories.Store) UserService {
	return &userService{store: store, now: time.Now}
}

func (s *userService) Profile(ctx context.Context, user *models.User) (*Profile, error) {
	results, err := s.store.Results().List(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	expiry := user.Status.MembershipExpiry()
	return &Profile{
		Name:                           user.Name,
		Email:                          user.Email,
		IsDarkMode:                     user.IsDarkMode,
		PracticesSolved:                user.PracticesSolved,
		Verified:                       user.Status.Verified(),
		Status:                         user.Status.Kind(),
		IsPaid:                         user.Status.Paid(),
		IsPaidMember:                   user.Status.PaidMember(),
		MembershipActive:               expiry != nil && expiry.After(s.now()),
		MembershipExpiryDate:           expiry,
		AcceptedTerms:                  user.AcceptedTerms,
		AcceptedPreliminaryInformation: user.AcceptedPreliminaryInformation,
		TermsAcceptanceDate:            user.TermsAcceptedAt,
		PracticeTestResults:            results,
		IsLoggedIn:                     user.LoggedIn(),
		LastLoginDevice:                user.LastLoginDevice,
	}, nil
}

func (s *userService) UpdateDarkMode(ctx context.Context, user *models.User, dark bool) (*models.User, error) {
	return mutateUser(ctx, s.store.Users(), user, func(u *models.User) error {
		if u.IsDarkMode == dark {
			return errNoChange
		}
		u.IsDarkMode = dark
		return nil
	})
}

func (s *userService) UpdatePracticesSolved(ctx context.Context, user *models.User, solved []bool) (*models.User, error) {
	if solved == nil {
		return nil, validationf("practicesSolved required")
	}
	out, err := mutateUser(ctx, s.store.Users(), user, func(u *models.User) error {
		u.PracticesSolved = append([]bool(nil), solved...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[user][practices] updated userID=%s count=%d", out.ID, len(out.PracticesSolved))
	return out, nil
}

func (s *userService) UpsertResult(ctx context.Context, user *models.User, in ResultInput) ([]models.PracticeTestResult, error) {
	if in.TestNumber < models.MinPracticeTestNumber || in.TestNumber > models.MaxPracticeTestNumber {
		return nil, validationf("Invalid test number (%d-%d)", models.MinPracticeTestNumber, models.MaxPracticeTestNumber)
	}
	if in.CorrectAnswers == nil || in.WrongAnswers == nil || in.EmptyAnswers == nil || in.Score == nil {
		return nil, validationf("Missing required fields")
	}
	res := &models.PracticeTestResult{
		TestNumber:     in.TestNumber,
		CorrectAnswers: *in.CorrectAnswers,
		WrongAnswers:   *in.WrongAnswers,
		EmptyAnswers:   *in.EmptyAnswers,
		Score:          *in.Score,
		Date:           s.now().UTC(),
	}
	if err := s.store.Results().Upsert(ctx, user.ID, res); err != nil {
		return nil, err
	}
	return s.store.Results().List(ctx, user.ID)
}

func (s *userService) ListResults(ctx context.Context, user *models.User) ([]models.PracticeTestResult, error) {
	return s.store.Results().List(ctx, user.ID)
}

func (s *userService) DeleteResult(ctx context.Context, user *models.User, testNumber int) ([]models.PracticeTestResult, error) {
	if testNumber == 0 {
		return nil, validationf("Test number required")
	}
	if err := s.store.Results().Delete(ctx, user.ID, testNumber); err != nil {
		return nil, err
	}
	return s.store.Results().List(ctx, user.ID)
}
