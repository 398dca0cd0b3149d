// Package users implements registration, credential checks and profile changes.
package users

import (
	"context"
	"errors"

	"musiclist/internal/apperr"
	"musiclist/internal/auth"
	"musiclist/internal/logging"
	"musiclist/internal/models"
	"musiclist/internal/store"
)

// Store captures the persistence needs for identity workflows.
type Store interface {
	InTx(ctx context.Context, fn func(store.Tx) error) error
}

// Service coordinates identity operations.
type Service interface {
	Register(ctx context.Context, username, password, confirm string) (int64, error)
	Authenticate(ctx context.Context, username, password string) (auth.Principal, error)
	ChangePassword(ctx context.Context, p auth.Principal, password, confirm string) error
	ChangeUsername(ctx context.Context, p auth.Principal, username string) error
	Profile(ctx context.Context, userID int64) (models.UserView, error)
	CreateAdmin(ctx context.Context, username, password string) (int64, error)
	Principal(ctx context.Context, userID int64) (auth.Principal, error)
}

type service struct {
	store  Store
	hasher auth.Hasher
}

// New constructs a Service backed by the provided Store and Hasher.
func New(store Store, hasher auth.Hasher) Service {
	return &service{store: store, hasher: hasher}
}

// Register stores username exactly as given; lookups compare it byte for byte.
func (s *service) Register(ctx context.Context, username, password, confirm string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if username == "" || password == "" || confirm == "" {
		return 0, apperr.ErrEmptyInput
	}
	if password != confirm {
		return 0, apperr.ErrPasswordMismatch
	}
	if len(password) > auth.MaxPasswordBytes {
		return 0, apperr.ErrPasswordTooLong
	}

	id, err := s.create(ctx, username, password, auth.LevelRegular)
	if err != nil {
		return 0, err
	}
	logging.WithContext(ctx).Info().Int64("new_user_id", id).Str("username", username).Msg("user registered")
	return id, nil
}

func (s *service) CreateAdmin(ctx context.Context, username, password string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if username == "" || password == "" {
		return 0, apperr.ErrEmptyInput
	}
	if len(password) > auth.MaxPasswordBytes {
		return 0, apperr.ErrPasswordTooLong
	}

	id, err := s.create(ctx, username, password, auth.LevelAdmin)
	if err != nil {
		return 0, err
	}
	logging.WithContext(ctx).Info().Int64("new_user_id", id).Str("username", username).Msg("admin created")
	return id, nil
}

func (s *service) create(ctx context.Context, username, password string, level auth.Level) (int64, error) {
	digest, err := s.hasher.Hash(password)
	if err != nil {
		return 0, err
	}

	var id int64
	err = s.store.InTx(ctx, func(tx store.Tx) error {
		if _, err := tx.UserByUsername(ctx, username); err == nil {
			return apperr.ErrUsernameTaken
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		id, err = tx.CreateUser(ctx, username, digest, level)
		if errors.Is(err, store.ErrConflict) {
			return apperr.ErrUsernameTaken
		}
		return err
	})
	return id, err
}

func (s *service) Authenticate(ctx context.Context, username, password string) (auth.Principal, error) {
	if err := ctx.Err(); err != nil {
		return auth.Principal{}, err
	}

	var user models.User
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		user, err = tx.UserByUsername(ctx, username)
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		auth.BurnVerify(s.hasher, password)
		logging.WithContext(ctx).Debug().Str("username", username).Msg("login rejected: unknown user")
		return auth.Principal{}, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return auth.Principal{}, err
	}

	if !s.hasher.Verify(password, user.Digest) {
		logging.WithContext(ctx).Debug().Int64("target_user_id", user.ID).Msg("login rejected: bad password")
		return auth.Principal{}, apperr.ErrInvalidCredentials
	}
	return user.Principal(), nil
}

// ChangePassword stores a new digest when password and confirm are identical.
func (s *service) ChangePassword(ctx context.Context, p auth.Principal, password, confirm string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := auth.Require(p); err != nil {
		return err
	}
	if password == "" || confirm == "" {
		return apperr.ErrEmptyInput
	}
	if password != confirm {
		return apperr.ErrPasswordMismatch
	}
	if len(password) > auth.MaxPasswordBytes {
		return apperr.ErrPasswordTooLong
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	err = s.store.InTx(ctx, func(tx store.Tx) error {
		return userNotFound(tx.UpdatePassword(ctx, p.UserID, digest))
	})
	if err != nil {
		return err
	}
	logging.WithContext(ctx).Info().Msg("password changed")
	return nil
}

func (s *service) ChangeUsername(ctx context.Context, p auth.Principal, username string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := auth.Require(p); err != nil {
		return err
	}
	if username == "" {
		return apperr.ErrEmptyInput
	}

	err := s.store.InTx(ctx, func(tx store.Tx) error {
		current, err := tx.UserByID(ctx, p.UserID)
		if err != nil {
			return userNotFound(err)
		}
		if current.Username == username {
			return apperr.ErrSameAsCurrent
		}
		if _, err := tx.UserByUsername(ctx, username); err == nil {
			return apperr.ErrUsernameTaken
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		err = tx.UpdateUsername(ctx, p.UserID, username)
		if errors.Is(err, store.ErrConflict) {
			return apperr.ErrUsernameTaken
		}
		return userNotFound(err)
	})
	if err != nil {
		return err
	}
	logging.WithContext(ctx).Info().Str("username", username).Msg("username changed")
	return nil
}

func (s *service) Profile(ctx context.Context, userID int64) (models.UserView, error) {
	if err := ctx.Err(); err != nil {
		return models.UserView{}, err
	}

	var user models.User
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		user, err = tx.UserByID(ctx, userID)
		return userNotFound(err)
	})
	if err != nil {
		return models.UserView{}, err
	}
	return user.View(), nil
}

// Principal re-reads the user behind a token subject so the level is current.
func (s *service) Principal(ctx context.Context, userID int64) (auth.Principal, error) {
	if err := ctx.Err(); err != nil {
		return auth.Principal{}, err
	}

	var user models.User
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		user, err = tx.UserByID(ctx, userID)
		return userNotFound(err)
	})
	if err != nil {
		return auth.Principal{}, err
	}
	return user.Principal(), nil
}

func userNotFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.ErrUserNotFound
	}
	return err
}
