// Package favorites implements list discovery across users and list favoriting.
package favorites

import (
	"context"
	"errors"

	"musiclist/internal/apperr"
	"musiclist/internal/auth"
	"musiclist/internal/logging"
	"musiclist/internal/models"
	"musiclist/internal/store"
)

// Store captures the persistence needs for list favoriting.
type Store interface {
	InTx(ctx context.Context, fn func(store.Tx) error) error
}

// Service coordinates list favorites.
type Service interface {
	Toggle(ctx context.Context, p auth.Principal, listID int64) (models.ToggleResult, error)
	FavoritedLists(ctx context.Context, userID int64) ([]models.FavoritedList, error)
	ListsOf(ctx context.Context, viewer auth.Principal, userID int64) ([]models.List, error)
}

type service struct {
	store Store
}

// New constructs a Service backed by the provided Store.
func New(store Store) Service {
	return &service{store: store}
}

// Toggle favorites listID for the caller, or removes an existing favorite.
// Removal skips the visibility and ownership checks so a list made private
// after being favorited can still be dropped.
func (s *service) Toggle(ctx context.Context, p auth.Principal, listID int64) (models.ToggleResult, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := auth.Require(p); err != nil {
		return "", err
	}

	var result models.ToggleResult
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		if _, err := tx.UserByID(ctx, p.UserID); err != nil {
			return userNotFound(err)
		}
		list, err := tx.ListByID(ctx, listID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.ErrListNotFound
			}
			return err
		}

		favorited, err := tx.FavoriteListExists(ctx, listID, p.UserID)
		if err != nil {
			return err
		}
		if favorited {
			if err := tx.RemoveFavoriteList(ctx, listID, p.UserID); err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
			result = models.Unfavorited
			return nil
		}

		if !list.IsPublic {
			return apperr.ErrNotPublic
		}
		if list.OwnerID == p.UserID {
			return apperr.ErrIsOwner
		}
		if err := tx.AddFavoriteList(ctx, listID, p.UserID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.ErrListNotFound
			}
			return err
		}
		result = models.Favorited
		return nil
	})
	if err != nil {
		return "", err
	}
	logging.WithContext(ctx).Info().Int64("list_id", listID).Str("result", string(result)).Msg("list favorite toggled")
	return result, nil
}

// FavoritedLists returns the lists userID has favorited, with their owners' usernames.
func (s *service) FavoritedLists(ctx context.Context, userID int64) ([]models.FavoritedList, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var lists []models.FavoritedList
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		if _, err := tx.UserByID(ctx, userID); err != nil {
			return userNotFound(err)
		}
		var err error
		lists, err = tx.FavoritedLists(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if lists == nil {
		lists = []models.FavoritedList{}
	}
	return lists, nil
}

// ListsOf returns userID's lists as seen by viewer: all of them for the owner, public ones otherwise.
func (s *service) ListsOf(ctx context.Context, viewer auth.Principal, userID int64) ([]models.List, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var lists []models.List
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		if _, err := tx.UserByID(ctx, userID); err != nil {
			return userNotFound(err)
		}
		var err error
		lists, err = tx.ListsByOwner(ctx, userID, viewer.UserID != userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if lists == nil {
		lists = []models.List{}
	}
	return lists, nil
}

func userNotFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.ErrUserNotFound
	}
	return err
}
