package services

import (
	"context"
	"errors"
	"fmt"

	"practico/internal/models"
	"practico/internal/repositories"
)

const maxMutateAttempts = 3

// errNoChange lets a mutation skip the write.
var errNoChange = errors.New("no change")

// mutateUser applies fn to u and writes it with a version check. On a conflict the
// record is reloaded and fn re-applied, up to maxMutateAttempts times. fn must be
// safe to run more than once and must re-check its preconditions.
func mutateUser(ctx context.Context, users repositories.UserRepository, u *models.User, fn func(*models.User) error) (*models.User, error) {
	cur := u
	for attempt := 1; ; attempt++ {
		if err := fn(cur); err != nil {
			if errors.Is(err, errNoChange) {
				return cur, nil
			}
			return nil, err
		}
		err := users.Update(ctx, cur)
		if err == nil {
			return cur, nil
		}
		if !errors.Is(err, repositories.ErrVersionConflict) {
			return nil, err
		}
		if attempt >= maxMutateAttempts {
			return nil, fmt.Errorf("update user %s: %w", u.ID, err)
		}

		fresh, gerr := users.GetByID(ctx, u.ID)
		if gerr != nil {
			if errors.Is(gerr, repositories.ErrNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, gerr
		}
		cur = fresh
	}
}
