// Package services contains server-side business logic. UserService
// implements the account flows: registration, login, session checks and
// profile reads and updates.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/astroprofile/internal/common"
	"github.com/dmitrijs2005/astroprofile/internal/cryptox"
	"github.com/dmitrijs2005/astroprofile/internal/logging"
	"github.com/dmitrijs2005/astroprofile/internal/server/auth"
	"github.com/dmitrijs2005/astroprofile/internal/server/models"
	"github.com/dmitrijs2005/astroprofile/internal/server/profile"
	"github.com/dmitrijs2005/astroprofile/internal/server/repositories/users"
	"github.com/dmitrijs2005/astroprofile/internal/server/validation"
)

// RegisterInput is the registration payload.
type RegisterInput struct {
	Username string
	Password string
	Email    string
}

// LoginInput identifies the account by username or email.
type LoginInput struct {
	Username string
	Email    string
	Password string
}

// UserService wires the user directory, password hasher and token service
// together. Unexpected faults are logged with their cause and returned as
// bare sentinels.
type UserService struct {
	users  users.Repository
	hasher cryptox.PasswordHasher
	tokens *auth.TokenService
	log    logging.Logger
	now    func() time.Time
}

func NewUserService(repo users.Repository, hasher cryptox.PasswordHasher, tokens *auth.TokenService, log logging.Logger) *UserService {
	return &UserService{
		users:  repo,
		hasher: hasher,
		tokens: tokens,
		log:    log.With("module", "services.users"),
		now:    time.Now,
	}
}

// Register validates the input, rejects taken usernames and stores the new
// account with an empty profile.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.PublicUser, error) {
	if violations := validation.Validate(in.Username, in.Password, in.Email); len(violations) > 0 {
		return nil, &common.ValidationError{Violations: violations}
	}

	exists, err := s.users.ExistsByUsername(ctx, in.Username)
	if err != nil {
		s.log.Error(ctx, "register: lookup failed", logging.ErrorAttrs(err)...)
		return nil, common.ErrStorageFailure
	}
	if exists {
		return nil, common.ErrDuplicateUsername
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.log.Error(ctx, "register: hashing failed", logging.ErrorAttrs(err)...)
		return nil, common.ErrHashing
	}

	user := &models.User{
		Username:     in.Username,
		PasswordHash: hash,
		Email:        in.Email,
		Profile:      models.Profile{},
		CreatedAt:    s.now().UTC(),
	}

	if err := s.users.Insert(ctx, user); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, common.ErrDuplicateUsername) {
			return nil, common.ErrDuplicateUsername
		}
		s.log.Error(ctx, "register: insert failed", logging.ErrorAttrs(err)...)
		return nil, common.ErrStorageFailure
	}

	s.log.Info(ctx, "user registered", "username", user.Username)
	return user.Public(), nil
}

// Login verifies the password of the account found by username (or, failing
// that, email) and issues a session token.
func (s *UserService) Login(ctx context.Context, in LoginInput) (string, error) {
	user, err := s.users.FindByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrUserNotFound
		}
		s.log.Error(ctx, "login: lookup failed", logging.ErrorAttrs(err)...)
		return "", common.ErrStorageFailure
	}

	ok, err := s.hasher.Verify(in.Password, user.PasswordHash)
	if err != nil {
		s.log.Error(ctx, "login: verify failed", append(logging.ErrorAttrs(err), "username", user.Username)...)
		return "", common.ErrHashing
	}
	if !ok {
		s.log.Warn(ctx, "login: invalid credentials", "username", user.Username)
		return "", common.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		s.log.Error(ctx, "login: token signing failed", logging.ErrorAttrs(err)...)
		return "", common.ErrInternal
	}

	s.log.Info(ctx, "user logged in", "username", user.Username)
	return token, nil
}

// Authenticate turns a bearer token into a session. Rejections are
// common.ErrCredentialMissing or common.ErrCredentialInvalid.
func (s *UserService) Authenticate(ctx context.Context, token string) (*auth.Session, error) {
	sess, err := s.tokens.Verify(token)
	if err != nil {
		s.log.Debug(ctx, "authenticate: rejected", "error", err.Error())
		return nil, err
	}
	return sess, nil
}

func (s *UserService) GetProfile(ctx context.Context, sess *auth.Session) (*models.ProfileView, error) {
	if sess == nil {
		return nil, common.ErrCredentialMissing
	}

	user, err := s.users.FindByUsernameOrEmail(ctx, sess.Username, "")
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		s.log.Error(ctx, "get profile: lookup failed", logging.ErrorAttrs(err)...)
		return nil, common.ErrStorageFailure
	}

	return user.View(), nil
}

// UpdateProfile merges update (and the optional stored attachment) into the
// caller's profile and returns the result.
func (s *UserService) UpdateProfile(ctx context.Context, sess *auth.Session, update map[string]any, attachment *profile.Attachment) (models.Profile, error) {
	if sess == nil {
		return nil, common.ErrCredentialMissing
	}

	next, err := s.users.UpdateProfile(ctx, sess.Username, func(current models.Profile) (models.Profile, error) {
		return profile.ApplyUpdate(current, update, attachment)
	})
	switch {
	case err == nil:
	case errors.Is(err, common.ErrorNotFound):
		return nil, common.ErrUserNotFound
	case errors.Is(err, common.ErrInvalidDate):
		return nil, err
	default:
		s.log.Error(ctx, "update profile: store failed", logging.ErrorAttrs(err)...)
		return nil, common.ErrStorageFailure
	}

	s.log.Info(ctx, "profile updated", "username", sess.Username)
	return next, nil
}

// Logout only acknowledges the request. Tokens are not tracked server-side
// and stay valid until they expire.
func (s *UserService) Logout(ctx context.Context, sess *auth.Session) error {
	if sess == nil {
		return common.ErrCredentialMissing
	}
	s.log.Info(ctx, "logout acknowledged, token remains valid until expiry",
		"username", sess.Username, "expires_at", sess.ExpiresAt)
	return nil
}
