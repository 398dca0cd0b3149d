package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"musiclist/internal/models"
)

// CreateMessage inserts a message and returns its id. A zero ListID is stored as NULL.
func (t *pgTx) CreateMessage(ctx context.Context, msg models.Message) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO messages (title, body, owner_id, created_at, list_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`, msg.Title, msg.Body, msg.OwnerID, msg.CreatedAt.UTC(), nullIfZero(msg.ListID)).Scan(&id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("insert message: %w", err)
	}
	return id, nil
}

func (t *pgTx) MessageByID(ctx context.Context, id int64) (models.Message, error) {
	var (
		msg    models.Message
		listID sql.NullInt64
	)
	err := t.tx.QueryRowContext(ctx, `
		SELECT m.id, m.title, m.body, m.owner_id, u.username, m.created_at, m.list_id
		FROM messages m
		JOIN users u ON u.id = m.owner_id
		WHERE m.id = $1`, id).Scan(&msg.ID, &msg.Title, &msg.Body, &msg.OwnerID, &msg.AuthorUsername, &msg.CreatedAt, &listID)
	if err != nil {
		return models.Message{}, notFound(err, "select message")
	}
	msg.ListID = listID.Int64
	return msg, nil
}

// ListMessages returns one page of messages matching filter, newest first, and the match count.
func (t *pgTx) ListMessages(ctx context.Context, filter models.MessageFilter, page models.PageRequest) ([]models.MessageSummary, int, error) {
	page = page.Normalize()

	from := `
		FROM messages m
		JOIN users u ON u.id = m.owner_id`
	var (
		conds []string
		args  []any
	)
	if filter.FavoritedBy != 0 {
		from += `
		JOIN favorite_messages fm ON fm.message_id = m.id`
		args = append(args, filter.FavoritedBy)
		conds = append(conds, fmt.Sprintf("fm.user_id = $%d", len(args)))
	}
	if filter.AuthorID != 0 {
		args = append(args, filter.AuthorID)
		conds = append(conds, fmt.Sprintf("m.owner_id = $%d", len(args)))
	}
	if len(conds) > 0 {
		from += "\n\t\tWHERE " + strings.Join(conds, " AND ")
	}

	total, err := t.count(ctx, "SELECT COUNT(*)"+from, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", err)
	}

	query := "SELECT m.id, m.title, m.owner_id, u.username, m.created_at" + from +
		fmt.Sprintf("\n\t\tORDER BY m.created_at DESC, m.id DESC\n\t\tLIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	rows, err := t.tx.QueryContext(ctx, query, append(args, page.Size, page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.MessageSummary
	for rows.Next() {
		var msg models.MessageSummary
		if err := rows.Scan(&msg.ID, &msg.Title, &msg.OwnerID, &msg.AuthorUsername, &msg.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, total, nil
}

func (t *pgTx) DeleteMessage(ctx context.Context, id int64) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return expectOne(res, "delete message")
}

// CreateComment inserts a comment and returns its id.
func (t *pgTx) CreateComment(ctx context.Context, c models.Comment) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO comments (body, owner_id, created_at, message_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id`, c.Body, c.OwnerID, c.CreatedAt.UTC(), c.MessageID).Scan(&id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("insert comment: %w", err)
	}
	return id, nil
}

func (t *pgTx) CommentByID(ctx context.Context, id int64) (models.Comment, error) {
	var c models.Comment
	err := t.tx.QueryRowContext(ctx, `
		SELECT c.id, c.body, c.owner_id, u.username, c.created_at, c.message_id
		FROM comments c
		JOIN users u ON u.id = c.owner_id
		WHERE c.id = $1`, id).Scan(&c.ID, &c.Body, &c.OwnerID, &c.AuthorUsername, &c.CreatedAt, &c.MessageID)
	if err != nil {
		return models.Comment{}, notFound(err, "select comment")
	}
	return c, nil
}

// CommentsForMessage returns one page of a thread, newest first.
func (t *pgTx) CommentsForMessage(ctx context.Context, messageID int64, page models.PageRequest) ([]models.Comment, int, error) {
	page = page.Normalize()
	total, err := t.count(ctx, `SELECT COUNT(*) FROM comments WHERE message_id = $1`, messageID)
	if err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}

	rows, err := t.tx.QueryContext(ctx, `
		SELECT c.id, c.body, c.owner_id, u.username, c.created_at, c.message_id
		FROM comments c
		JOIN users u ON u.id = c.owner_id
		WHERE c.message_id = $1
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT $2 OFFSET $3`, messageID, page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.Body, &c.OwnerID, &c.AuthorUsername, &c.CreatedAt, &c.MessageID); err != nil {
			return nil, 0, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate comments: %w", err)
	}
	return comments, total, nil
}

// CommentsByAuthor returns one page of a user's comments with their message titles, newest first.
func (t *pgTx) CommentsByAuthor(ctx context.Context, userID int64, page models.PageRequest) ([]models.CommentSummary, int, error) {
	page = page.Normalize()
	total, err := t.count(ctx, `SELECT COUNT(*) FROM comments WHERE owner_id = $1`, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("count user comments: %w", err)
	}

	rows, err := t.tx.QueryContext(ctx, `
		SELECT c.id, c.body, c.owner_id, u.username, c.created_at, c.message_id, m.title
		FROM comments c
		JOIN users u ON u.id = c.owner_id
		JOIN messages m ON m.id = c.message_id
		WHERE c.owner_id = $1
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT $2 OFFSET $3`, userID, page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list user comments: %w", err)
	}
	defer rows.Close()

	var comments []models.CommentSummary
	for rows.Next() {
		var c models.CommentSummary
		if err := rows.Scan(&c.ID, &c.Body, &c.OwnerID, &c.AuthorUsername, &c.CreatedAt, &c.MessageID, &c.MessageTitle); err != nil {
			return nil, 0, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate user comments: %w", err)
	}
	return comments, total, nil
}

func (t *pgTx) DeleteComment(ctx context.Context, id int64) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return expectOne(res, "delete comment")
}

func (t *pgTx) ClearComments(ctx context.Context, messageID int64) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM comments WHERE message_id = $1`, messageID); err != nil {
		return fmt.Errorf("clear comments: %w", err)
	}
	return nil
}
