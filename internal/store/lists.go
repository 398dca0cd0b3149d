package store

import (
	"context"
	"fmt"

	"musiclist/internal/models"
)

// CreateList inserts a private list and returns its id.
func (t *pgTx) CreateList(ctx context.Context, ownerID int64, name string) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO lists (name, owner_id, is_public)
		VALUES ($1, $2, FALSE)
		RETURNING id`, name, ownerID).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrConflict
		}
		if isForeignKeyViolation(err) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("insert list: %w", err)
	}
	return id, nil
}

func (t *pgTx) ListByID(ctx context.Context, id int64) (models.List, error) {
	var list models.List
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, name, owner_id, is_public
		FROM lists
		WHERE id = $1`, id).Scan(&list.ID, &list.Name, &list.OwnerID, &list.IsPublic)
	if err != nil {
		return models.List{}, notFound(err, "select list")
	}
	return list, nil
}

func (t *pgTx) ListNameExists(ctx context.Context, ownerID int64, name string) (bool, error) {
	ok, err := t.exists(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM lists WHERE owner_id = $1 AND name = $2
		)`, ownerID, name)
	if err != nil {
		return false, fmt.Errorf("list name exists: %w", err)
	}
	return ok, nil
}

// ListsByOwner returns the owner's lists, newest first.
func (t *pgTx) ListsByOwner(ctx context.Context, ownerID int64, publicOnly bool) ([]models.List, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT id, name, owner_id, is_public
		FROM lists
		WHERE owner_id = $1 AND (is_public OR NOT $2)
		ORDER BY id DESC`, ownerID, publicOnly)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	defer rows.Close()

	var lists []models.List
	for rows.Next() {
		var list models.List
		if err := rows.Scan(&list.ID, &list.Name, &list.OwnerID, &list.IsPublic); err != nil {
			return nil, fmt.Errorf("scan list: %w", err)
		}
		lists = append(lists, list)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lists: %w", err)
	}
	return lists, nil
}

func (t *pgTx) RenameList(ctx context.Context, id int64, name string) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE lists SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("rename list: %w", err)
	}
	return expectOne(res, "rename list")
}

func (t *pgTx) SetListPublic(ctx context.Context, id int64, public bool) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE lists SET is_public = $1 WHERE id = $2`, public, id)
	if err != nil {
		return fmt.Errorf("set list visibility: %w", err)
	}
	return expectOne(res, "set list visibility")
}

func (t *pgTx) DeleteList(ctx context.Context, id int64) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM lists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete list: %w", err)
	}
	return expectOne(res, "delete list")
}

func (t *pgTx) MembershipExists(ctx context.Context, listID, songID int64) (bool, error) {
	ok, err := t.exists(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM list_songs WHERE list_id = $1 AND song_id = $2
		)`, listID, songID)
	if err != nil {
		return false, fmt.Errorf("membership exists: %w", err)
	}
	return ok, nil
}

func (t *pgTx) AddMembership(ctx context.Context, listID, songID int64) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO list_songs (list_id, song_id)
		VALUES ($1, $2)`, listID, songID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("insert membership: %w", err)
	}
	return nil
}

func (t *pgTx) RemoveMembership(ctx context.Context, listID, songID int64) error {
	res, err := t.tx.ExecContext(ctx, `
		DELETE FROM list_songs WHERE list_id = $1 AND song_id = $2`, listID, songID)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	return expectOne(res, "delete membership")
}

func (t *pgTx) ClearMemberships(ctx context.Context, listID int64) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM list_songs WHERE list_id = $1`, listID); err != nil {
		return fmt.Errorf("clear memberships: %w", err)
	}
	return nil
}

// SongsInList returns the list's songs in the order they were added.
func (t *pgTx) SongsInList(ctx context.Context, listID int64) ([]models.Song, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT s.id, s.name, s.artist, s.link
		FROM list_songs ls
		JOIN songs s ON s.id = ls.song_id
		WHERE ls.list_id = $1
		ORDER BY ls.id`, listID)
	if err != nil {
		return nil, fmt.Errorf("list songs in list: %w", err)
	}
	return scanSongs(rows)
}
