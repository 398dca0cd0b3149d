// Package songs implements the shared song catalog.
package songs

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

// Store captures the persistence needs for catalog workflows.
type Store interface {
	InTx(ctx context.Context, fn func(store.Tx) error) error
}

// Service coordinates catalog operations.
type Service interface {
	Search(ctx context.Context, keyword string) ([]models.Song, error)
	ListPage(ctx context.Context, page models.PageRequest) (models.Page[models.Song], error)
	Add(ctx context.Context, name, artist, link string) (int64, error)
	Get(ctx context.Context, id int64) (models.Song, error)
	Detail(ctx context.Context, viewer auth.Principal, id int64) (models.SongDetail, error)
}

type service struct {
	store Store
}

// New constructs a Service backed by the provided Store.
func New(store Store) Service {
	return &service{store: store}
}

// Search returns songs whose name equals keyword, newest first.
func (s *service) Search(ctx context.Context, keyword string) ([]models.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, apperr.ErrEmptyInput
	}

	var songs []models.Song
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		songs, err = tx.SongsByName(ctx, keyword)
		return err
	})
	if err != nil {
		return nil, err
	}
	if songs == nil {
		songs = []models.Song{}
	}
	return songs, nil
}

func (s *service) ListPage(ctx context.Context, page models.PageRequest) (models.Page[models.Song], error) {
	if err := ctx.Err(); err != nil {
		return models.Page[models.Song]{}, err
	}

	var (
		items []models.Song
		total int
	)
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		items, total, err = tx.ListSongs(ctx, page)
		return err
	})
	if err != nil {
		return models.Page[models.Song]{}, err
	}
	return models.NewPage(page, items, total), nil
}

// Add inserts a song. An omitted link is stored as the empty string.
func (s *service) Add(ctx context.Context, name, artist, link string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	song := models.Song{
		Name:   strings.TrimSpace(name),
		Artist: strings.TrimSpace(artist),
		Link:   strings.TrimSpace(link),
	}
	if song.Name == "" || song.Artist == "" {
		return 0, apperr.ErrIncompleteSong
	}

	var id int64
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		exists, err := tx.SongExists(ctx, song.Name, song.Artist, song.Link)
		if err != nil {
			return err
		}
		if exists {
			return apperr.ErrSongExists
		}
		id, err = tx.CreateSong(ctx, song)
		if errors.Is(err, store.ErrConflict) {
			return apperr.ErrSongExists
		}
		return err
	})
	if err != nil {
		return 0, err
	}
	logging.WithContext(ctx).Info().Int64("song_id", id).Str("name", song.Name).Msg("song added")
	return id, nil
}

func (s *service) Get(ctx context.Context, id int64) (models.Song, error) {
	if err := ctx.Err(); err != nil {
		return models.Song{}, err
	}

	var song models.Song
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		song, err = tx.SongByID(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.ErrSongNotFound
		}
		return err
	})
	return song, err
}

// Detail returns the song and, for a signed-in viewer, the viewer's lists.
// Anonymous viewers get an empty list set.
func (s *service) Detail(ctx context.Context, viewer auth.Principal, id int64) (models.SongDetail, error) {
	if err := ctx.Err(); err != nil {
		return models.SongDetail{}, err
	}

	detail := models.SongDetail{MyLists: []models.List{}}
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		song, err := tx.SongByID(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.ErrSongNotFound
		}
		if err != nil {
			return err
		}
		detail.Song = song

		if !viewer.Valid() {
			return nil
		}
		lists, err := tx.ListsByOwner(ctx, viewer.UserID, false)
		if err != nil {
			return err
		}
		if lists != nil {
			detail.MyLists = lists
		}
		return nil
	})
	if err != nil {
		return models.SongDetail{}, err
	}
	return detail, nil
}
