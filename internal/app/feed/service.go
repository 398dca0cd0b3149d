// Package feed implements messages, their comment threads and message favorites.
package feed

import (
	"context"
	"errors"
	"strings"
	"time"

	"musiclist/internal/apperr"
	"musiclist/internal/auth"
	"musiclist/internal/logging"
	"musiclist/internal/models"
	"musiclist/internal/store"
)

// Store captures the persistence needs for feed workflows.
type Store interface {
	InTx(ctx context.Context, fn func(store.Tx) error) error
}

// Service coordinates message and comment operations.
type Service interface {
	Post(ctx context.Context, p auth.Principal, title, body string, listID int64) (int64, error)
	Feed(ctx context.Context, page models.PageRequest) (models.Page[models.MessageSummary], error)
	UserFeed(ctx context.Context, userID int64, page models.PageRequest) (models.Page[models.MessageSummary], error)
	Detail(ctx context.Context, viewer auth.Principal, messageID int64, comments models.PageRequest) (models.MessageDetail, error)
	Comment(ctx context.Context, p auth.Principal, messageID int64, body string) (int64, error)
	DeleteMessage(ctx context.Context, p auth.Principal, messageID int64) error
	DeleteComment(ctx context.Context, p auth.Principal, commentID int64) error
	ToggleFavorite(ctx context.Context, p auth.Principal, messageID int64) (models.ToggleResult, error)
	FavoritedBy(ctx context.Context, userID int64, page models.PageRequest) (models.Page[models.MessageSummary], error)
	UserComments(ctx context.Context, userID int64, page models.PageRequest) (models.Page[models.CommentSummary], error)
}

type service struct {
	store Store
	now   func() time.Time
}

// New constructs a Service backed by the provided Store.
func New(store Store) Service {
	return &service{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Post creates a message. A non-zero listID must name one of the caller's public lists.
func (s *service) Post(ctx context.Context, p auth.Principal, title, body string, listID int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := auth.Require(p); err != nil {
		return 0, err
	}
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" || body == "" {
		return 0, apperr.ErrEmptyInput
	}

	var id int64
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		if listID != 0 {
			list, err := tx.ListByID(ctx, listID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return apperr.ErrListNotFound
				}
				return err
			}
			if list.OwnerID != p.UserID || !list.IsPublic {
				return apperr.ErrListNotShareable
			}
		}

		var err error
		id, err = tx.CreateMessage(ctx, models.Message{
			Title:     title,
			Body:      body,
			OwnerID:   p.UserID,
			CreatedAt: s.now(),
			ListID:    listID,
		})
		if errors.Is(err, store.ErrNotFound) {
			return apperr.ErrUserNotFound
		}
		return err
	})
	if err != nil {
		return 0, err
	}
	logging.WithContext(ctx).Info().Int64("message_id", id).Int64("list_id", listID).Msg("message posted")
	return id, nil
}

func (s *service) Feed(ctx context.Context, page models.PageRequest) (models.Page[models.MessageSummary], error) {
	return s.messages(ctx, 0, models.MessageFilter{}, page)
}

func (s *service) UserFeed(ctx context.Context, userID int64, page models.PageRequest) (models.Page[models.MessageSummary], error) {
	return s.messages(ctx, userID, models.MessageFilter{AuthorID: userID}, page)
}

func (s *service) FavoritedBy(ctx context.Context, userID int64, page models.PageRequest) (models.Page[models.MessageSummary], error) {
	return s.messages(ctx, userID, models.MessageFilter{FavoritedBy: userID}, page)
}

// messages lists filtered messages newest first. A non-zero userID must exist.
func (s *service) messages(ctx context.Context, userID int64, filter models.MessageFilter, page models.PageRequest) (models.Page[models.MessageSummary], error) {
	if err := ctx.Err(); err != nil {
		return models.Page[models.MessageSummary]{}, err
	}

	var (
		items []models.MessageSummary
		total int
	)
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		if userID != 0 {
			if _, err := tx.UserByID(ctx, userID); err != nil {
				return userNotFound(err)
			}
		}
		var err error
		items, total, err = tx.ListMessages(ctx, filter, page)
		return err
	})
	if err != nil {
		return models.Page[models.MessageSummary]{}, err
	}
	return models.NewPage(page, items, total), nil
}

// Detail returns a message with one page of its comments. The attached list is
// included only while it exists and is public.
func (s *service) Detail(ctx context.Context, viewer auth.Principal, messageID int64, comments models.PageRequest) (models.MessageDetail, error) {
	if err := ctx.Err(); err != nil {
		return models.MessageDetail{}, err
	}

	var detail models.MessageDetail
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		msg, err := tx.MessageByID(ctx, messageID)
		if err != nil {
			return messageNotFound(err)
		}
		items, total, err := tx.CommentsForMessage(ctx, messageID, comments)
		if err != nil {
			return err
		}
		detail = models.MessageDetail{Message: msg, Comments: models.NewPage(comments, items, total)}

		if msg.ListID != 0 {
			list, err := tx.ListByID(ctx, msg.ListID)
			switch {
			case err == nil && list.IsPublic:
				detail.List = &list
			case err != nil && !errors.Is(err, store.ErrNotFound):
				return err
			}
		}

		if viewer.Valid() {
			detail.Favorited, err = tx.FavoriteMessageExists(ctx, messageID, viewer.UserID)
		}
		return err
	})
	return detail, err
}

func (s *service) Comment(ctx context.Context, p auth.Principal, messageID int64, body string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := auth.Require(p); err != nil {
		return 0, err
	}
	body = strings.TrimSpace(body)

	var id int64
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		if _, err := tx.MessageByID(ctx, messageID); err != nil {
			return messageNotFound(err)
		}
		if body == "" {
			return apperr.ErrEmptyBody
		}
		var err error
		id, err = tx.CreateComment(ctx, models.Comment{
			Body:      body,
			OwnerID:   p.UserID,
			CreatedAt: s.now(),
			MessageID: messageID,
		})
		return messageNotFound(err)
	})
	if err != nil {
		return 0, err
	}
	logging.WithContext(ctx).Info().Int64("message_id", messageID).Int64("comment_id", id).Msg("comment posted")
	return id, nil
}

// DeleteMessage removes a message with its comments and favorites.
func (s *service) DeleteMessage(ctx context.Context, p auth.Principal, messageID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := auth.Require(p); err != nil {
		return err
	}

	return s.store.InTx(ctx, func(tx store.Tx) error {
		msg, err := tx.MessageByID(ctx, messageID)
		if err != nil {
			return messageNotFound(err)
		}
		if !auth.CanMutate(p, msg.OwnerID) {
			return apperr.ErrNotOwner
		}
		if err := tx.ClearComments(ctx, messageID); err != nil {
			return err
		}
		if err := tx.ClearFavoriteMessages(ctx, messageID); err != nil {
			return err
		}
		if err := tx.DeleteMessage(ctx, messageID); err != nil {
			return messageNotFound(err)
		}
		logging.WithContext(ctx).Info().Int64("message_id", messageID).Msg("message deleted")
		return nil
	})
}

func (s *service) DeleteComment(ctx context.Context, p auth.Principal, commentID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := auth.Require(p); err != nil {
		return err
	}

	return s.store.InTx(ctx, func(tx store.Tx) error {
		c, err := tx.CommentByID(ctx, commentID)
		if err != nil {
			return commentNotFound(err)
		}
		if !auth.CanMutate(p, c.OwnerID) {
			return apperr.ErrNotOwner
		}
		if err := tx.DeleteComment(ctx, commentID); err != nil {
			return commentNotFound(err)
		}
		logging.WithContext(ctx).Info().Int64("comment_id", commentID).Msg("comment deleted")
		return nil
	})
}

// ToggleFavorite favorites messageID for the caller, or removes an existing favorite.
func (s *service) ToggleFavorite(ctx context.Context, p auth.Principal, messageID int64) (models.ToggleResult, error) {
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
		if _, err := tx.MessageByID(ctx, messageID); err != nil {
			return messageNotFound(err)
		}

		favorited, err := tx.FavoriteMessageExists(ctx, messageID, p.UserID)
		if err != nil {
			return err
		}
		if favorited {
			if err := tx.RemoveFavoriteMessage(ctx, messageID, p.UserID); err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
			result = models.Unfavorited
			return nil
		}
		if err := tx.AddFavoriteMessage(ctx, messageID, p.UserID); err != nil {
			return messageNotFound(err)
		}
		result = models.Favorited
		return nil
	})
	if err != nil {
		return "", err
	}
	logging.WithContext(ctx).Info().Int64("message_id", messageID).Str("result", string(result)).Msg("message favorite toggled")
	return result, nil
}

// UserComments lists the comments userID wrote, newest first, with the titles of their messages.
func (s *service) UserComments(ctx context.Context, userID int64, page models.PageRequest) (models.Page[models.CommentSummary], error) {
	if err := ctx.Err(); err != nil {
		return models.Page[models.CommentSummary]{}, err
	}

	var (
		items []models.CommentSummary
		total int
	)
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		if _, err := tx.UserByID(ctx, userID); err != nil {
			return userNotFound(err)
		}
		var err error
		items, total, err = tx.CommentsByAuthor(ctx, userID, page)
		return err
	})
	if err != nil {
		return models.Page[models.CommentSummary]{}, err
	}
	return models.NewPage(page, items, total), nil
}

func userNotFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.ErrUserNotFound
	}
	return err
}

func messageNotFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.ErrMessageNotFound
	}
	return err
}

func commentNotFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.ErrCommentNotFound
	}
	return err
}
