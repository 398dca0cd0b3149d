// Package lists implements song lists: creation, renaming, visibility,
// membership and deletion.
package lists

import (
	"context"
	"errors"
	"strings"

	"musiclist/internal/apperr"
	"musiclist/internal/auth"
	"musiclist/internal/logging"
	"musiclist/internal/models"
	"musiclist/internal/store"
)

// Store captures the persistence needs for list workflows.
type Store interface {
	InTx(ctx context.Context, fn func(store.Tx) error) error
}

// Service coordinates list operations.
type Service interface {
	Create(ctx context.Context, p auth.Principal, name string) (int64, error)
	Rename(ctx context.Context, p auth.Principal, listID int64, name string) error
	SetVisibility(ctx context.Context, p auth.Principal, listID int64, public bool) error
	Delete(ctx context.Context, p auth.Principal, listID int64) error
	AddSong(ctx context.Context, p auth.Principal, songID, listID int64) error
	RemoveSong(ctx context.Context, p auth.Principal, songID, listID int64) error
	Detail(ctx context.Context, viewer auth.Principal, listID int64) (models.ListDetail, error)
	OwnedBy(ctx context.Context, userID int64) ([]models.List, error)
}

type service struct {
	store Store
}

// New constructs a Service backed by the provided Store.
func New(store Store) Service {
	return &service{store: store}
}

// Create makes a private list. Names are unique per owner.
func (s *service) Create(ctx context.Context, p auth.Principal, name string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := auth.Require(p); err != nil {
		return 0, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, apperr.ErrEmptyName
	}

	var id int64
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		taken, err := tx.ListNameExists(ctx, p.UserID, name)
		if err != nil {
			return err
		}
		if taken {
			return apperr.ErrListNameTaken
		}
		id, err = tx.CreateList(ctx, p.UserID, name)
		switch {
		case errors.Is(err, store.ErrConflict):
			return apperr.ErrListNameTaken
		case errors.Is(err, store.ErrNotFound):
			return apperr.ErrUserNotFound
		}
		return err
	})
	if err != nil {
		return 0, err
	}
	logging.WithContext(ctx).Info().Int64("list_id", id).Str("name", name).Msg("list created")
	return id, nil
}

func (s *service) Rename(ctx context.Context, p auth.Principal, listID int64, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := auth.Require(p); err != nil {
		return err
	}
	name = strings.TrimSpace(name)

	return s.store.InTx(ctx, func(tx store.Tx) error {
		list, err := ownedList(ctx, tx, p, listID)
		if err != nil {
			return err
		}
		if name == "" {
			return apperr.ErrEmptyName
		}
		if name == list.Name {
			return apperr.ErrSameName
		}
		taken, err := tx.ListNameExists(ctx, p.UserID, name)
		if err != nil {
			return err
		}
		if taken {
			return apperr.ErrListNameTaken
		}
		if err := tx.RenameList(ctx, listID, name); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return apperr.ErrListNameTaken
			}
			return err
		}
		logging.WithContext(ctx).Info().Int64("list_id", listID).Str("name", name).Msg("list renamed")
		return nil
	})
}

// SetVisibility flips the public flag. Making a list private drops every favorite of it.
func (s *service) SetVisibility(ctx context.Context, p auth.Principal, listID int64, public bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := auth.Require(p); err != nil {
		return err
	}

	return s.store.InTx(ctx, func(tx store.Tx) error {
		if _, err := ownedList(ctx, tx, p, listID); err != nil {
			return err
		}
		if err := tx.SetListPublic(ctx, listID, public); err != nil {
			return err
		}
		if !public {
			if err := tx.ClearFavoriteLists(ctx, listID); err != nil {
				return err
			}
		}
		logging.WithContext(ctx).Info().Int64("list_id", listID).Bool("public", public).Msg("list visibility changed")
		return nil
	})
}

// Delete removes the list with its memberships and favorites.
func (s *service) Delete(ctx context.Context, p auth.Principal, listID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := auth.Require(p); err != nil {
		return err
	}

	return s.store.InTx(ctx, func(tx store.Tx) error {
		if _, err := ownedList(ctx, tx, p, listID); err != nil {
			return err
		}
		if err := tx.ClearMemberships(ctx, listID); err != nil {
			return err
		}
		if err := tx.ClearFavoriteLists(ctx, listID); err != nil {
			return err
		}
		if err := tx.DeleteList(ctx, listID); err != nil {
			return listNotFound(err)
		}
		logging.WithContext(ctx).Info().Int64("list_id", listID).Msg("list deleted")
		return nil
	})
}

func (s *service) AddSong(ctx context.Context, p auth.Principal, songID, listID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := auth.Require(p); err != nil {
		return err
	}

	return s.store.InTx(ctx, func(tx store.Tx) error {
		if _, err := ownedList(ctx, tx, p, listID); err != nil {
			return err
		}
		if _, err := tx.SongByID(ctx, songID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.ErrSongNotFound
			}
			return err
		}
		member, err := tx.MembershipExists(ctx, listID, songID)
		if err != nil {
			return err
		}
		if member {
			return apperr.ErrAlreadyMember
		}
		if err := tx.AddMembership(ctx, listID, songID); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return apperr.ErrAlreadyMember
			}
			return err
		}
		logging.WithContext(ctx).Info().Int64("list_id", listID).Int64("song_id", songID).Msg("song added to list")
		return nil
	})
}

func (s *service) RemoveSong(ctx context.Context, p auth.Principal, songID, listID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := auth.Require(p); err != nil {
		return err
	}

	return s.store.InTx(ctx, func(tx store.Tx) error {
		if _, err := ownedList(ctx, tx, p, listID); err != nil {
			return err
		}
		if err := tx.RemoveMembership(ctx, listID, songID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.ErrNotAMember
			}
			return err
		}
		logging.WithContext(ctx).Info().Int64("list_id", listID).Int64("song_id", songID).Msg("song removed from list")
		return nil
	})
}

// Detail returns a list with its songs. Private lists are visible to their owner only.
func (s *service) Detail(ctx context.Context, viewer auth.Principal, listID int64) (models.ListDetail, error) {
	if err := ctx.Err(); err != nil {
		return models.ListDetail{}, err
	}

	var detail models.ListDetail
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		list, err := tx.ListByID(ctx, listID)
		if err != nil {
			return listNotFound(err)
		}
		if !list.IsPublic && viewer.UserID != list.OwnerID {
			return apperr.ErrNotVisible
		}

		owner, err := tx.UserByID(ctx, list.OwnerID)
		if err != nil {
			return err
		}
		songs, err := tx.SongsInList(ctx, listID)
		if err != nil {
			return err
		}
		if songs == nil {
			songs = []models.Song{}
		}

		detail = models.ListDetail{List: list, OwnerUsername: owner.Username, Songs: songs}
		if viewer.Valid() {
			detail.Favorited, err = tx.FavoriteListExists(ctx, listID, viewer.UserID)
		}
		return err
	})
	return detail, err
}

// OwnedBy returns every list of userID, private ones included, newest first.
func (s *service) OwnedBy(ctx context.Context, userID int64) ([]models.List, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var lists []models.List
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		lists, err = tx.ListsByOwner(ctx, userID, false)
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

func ownedList(ctx context.Context, tx store.Tx, p auth.Principal, listID int64) (models.List, error) {
	list, err := tx.ListByID(ctx, listID)
	if err != nil {
		return models.List{}, listNotFound(err)
	}
	if !auth.CanMutate(p, list.OwnerID) {
		logging.WithContext(ctx).Debug().Int64("list_id", listID).Msg("list change rejected: not owner")
		return models.List{}, apperr.ErrNotOwner
	}
	return list, nil
}

func listNotFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.ErrListNotFound
	}
	return err
}
