// Package users implements the user directory: the collection of user
// records keyed by username.
package users

import (
	"context"

	"github.com/dmitrijs2005/astroprofile/internal/server/models"
)

// ProfileMutator computes the next profile from the current one. Returning
// an error aborts the update and leaves the stored profile untouched.
type ProfileMutator func(current models.Profile) (models.Profile, error)

// Repository is the store abstraction used by the service layer.
//
// Implementations must serialize Insert and UpdateProfile per username:
// concurrent inserts of one username admit exactly one winner, and
// concurrent updates of one profile apply one after the other.
type Repository interface {
	// FindByUsernameOrEmail looks up by username first, then by email when
	// username is empty or unmatched. Returns common.ErrorNotFound.
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	// Insert returns common.ErrDuplicateUsername on collision.
	Insert(ctx context.Context, user *models.User) error
	// UpdateProfile returns the committed profile or common.ErrorNotFound.
	UpdateProfile(ctx context.Context, username string, mutate ProfileMutator) (models.Profile, error)
}
