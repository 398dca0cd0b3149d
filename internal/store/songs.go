package store

import (
	"context"
	"database/sql"
	"fmt"

	"musiclist/internal/models"
)

// CreateSong inserts a catalog entry and returns its id.
func (t *pgTx) CreateSong(ctx context.Context, song models.Song) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO songs (name, artist, link)
		VALUES ($1, $2, $3)
		RETURNING id`, song.Name, song.Artist, song.Link).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrConflict
		}
		return 0, fmt.Errorf("insert song: %w", err)
	}
	return id, nil
}

func (t *pgTx) SongByID(ctx context.Context, id int64) (models.Song, error) {
	var song models.Song
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, name, artist, link
		FROM songs
		WHERE id = $1`, id).Scan(&song.ID, &song.Name, &song.Artist, &song.Link)
	if err != nil {
		return models.Song{}, notFound(err, "select song")
	}
	return song, nil
}

func (t *pgTx) SongExists(ctx context.Context, name, artist, link string) (bool, error) {
	ok, err := t.exists(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM songs WHERE name = $1 AND artist = $2 AND link = $3
		)`, name, artist, link)
	if err != nil {
		return false, fmt.Errorf("song exists: %w", err)
	}
	return ok, nil
}

// SongsByName returns exact name matches, newest first.
func (t *pgTx) SongsByName(ctx context.Context, name string) ([]models.Song, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT id, name, artist, link
		FROM songs
		WHERE name = $1
		ORDER BY id DESC`, name)
	if err != nil {
		return nil, fmt.Errorf("search songs: %w", err)
	}
	return scanSongs(rows)
}

// ListSongs returns one page of the catalog, newest first, and the catalog size.
func (t *pgTx) ListSongs(ctx context.Context, page models.PageRequest) ([]models.Song, int, error) {
	page = page.Normalize()
	total, err := t.count(ctx, `SELECT COUNT(*) FROM songs`)
	if err != nil {
		return nil, 0, fmt.Errorf("count songs: %w", err)
	}

	rows, err := t.tx.QueryContext(ctx, `
		SELECT id, name, artist, link
		FROM songs
		ORDER BY id DESC
		LIMIT $1 OFFSET $2`, page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list songs: %w", err)
	}
	songs, err := scanSongs(rows)
	if err != nil {
		return nil, 0, err
	}
	return songs, total, nil
}

func scanSongs(rows *sql.Rows) ([]models.Song, error) {
	defer rows.Close()

	var songs []models.Song
	for rows.Next() {
		var song models.Song
		if err := rows.Scan(&song.ID, &song.Name, &song.Artist, &song.Link); err != nil {
			return nil, fmt.Errorf("scan song: %w", err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate songs: %w", err)
	}
	return songs, nil
}
