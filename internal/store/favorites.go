package store

import (
	"context"
	"fmt"

	"musiclist/internal/models"
)

func (t *pgTx) FavoriteListExists(ctx context.Context, listID, userID int64) (bool, error) {
	ok, err := t.exists(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM favorite_lists WHERE list_id = $1 AND user_id = $2
		)`, listID, userID)
	if err != nil {
		return false, fmt.Errorf("favorite list exists: %w", err)
	}
	return ok, nil
}

// AddFavoriteList is a no-op when the favorite already exists, so a racing
// toggle leaves the transaction usable.
func (t *pgTx) AddFavoriteList(ctx context.Context, listID, userID int64) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO favorite_lists (list_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (list_id, user_id) DO NOTHING`, listID, userID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("insert favorite list: %w", err)
	}
	return nil
}

func (t *pgTx) RemoveFavoriteList(ctx context.Context, listID, userID int64) error {
	res, err := t.tx.ExecContext(ctx, `
		DELETE FROM favorite_lists WHERE list_id = $1 AND user_id = $2`, listID, userID)
	if err != nil {
		return fmt.Errorf("delete favorite list: %w", err)
	}
	return expectOne(res, "delete favorite list")
}

func (t *pgTx) ClearFavoriteLists(ctx context.Context, listID int64) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM favorite_lists WHERE list_id = $1`, listID); err != nil {
		return fmt.Errorf("clear favorite lists: %w", err)
	}
	return nil
}

// FavoritedLists returns the lists userID has favorited, most recently favorited first.
func (t *pgTx) FavoritedLists(ctx context.Context, userID int64) ([]models.FavoritedList, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT l.id, l.name, l.owner_id, l.is_public, u.username
		FROM favorite_lists fl
		JOIN lists l ON l.id = fl.list_id
		JOIN users u ON u.id = l.owner_id
		WHERE fl.user_id = $1
		ORDER BY fl.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorite lists: %w", err)
	}
	defer rows.Close()

	var lists []models.FavoritedList
	for rows.Next() {
		var fav models.FavoritedList
		if err := rows.Scan(&fav.List.ID, &fav.List.Name, &fav.List.OwnerID, &fav.List.IsPublic, &fav.OwnerUsername); err != nil {
			return nil, fmt.Errorf("scan favorite list: %w", err)
		}
		lists = append(lists, fav)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favorite lists: %w", err)
	}
	return lists, nil
}

func (t *pgTx) FavoriteMessageExists(ctx context.Context, messageID, userID int64) (bool, error) {
	ok, err := t.exists(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM favorite_messages WHERE message_id = $1 AND user_id = $2
		)`, messageID, userID)
	if err != nil {
		return false, fmt.Errorf("favorite message exists: %w", err)
	}
	return ok, nil
}

// AddFavoriteMessage is a no-op when the favorite already exists.
func (t *pgTx) AddFavoriteMessage(ctx context.Context, messageID, userID int64) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO favorite_messages (message_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (message_id, user_id) DO NOTHING`, messageID, userID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("insert favorite message: %w", err)
	}
	return nil
}

func (t *pgTx) RemoveFavoriteMessage(ctx context.Context, messageID, userID int64) error {
	res, err := t.tx.ExecContext(ctx, `
		DELETE FROM favorite_messages WHERE message_id = $1 AND user_id = $2`, messageID, userID)
	if err != nil {
		return fmt.Errorf("delete favorite message: %w", err)
	}
	return expectOne(res, "delete favorite message")
}

func (t *pgTx) ClearFavoriteMessages(ctx context.Context, messageID int64) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM favorite_messages WHERE message_id = $1`, messageID); err != nil {
		return fmt.Errorf("clear favorite messages: %w", err)
	}
	return nil
}
