package store

import (
	"context"
	"fmt"

	"musiclist/internal/auth"
	"musiclist/internal/models"
)

// CreateUser inserts a user and returns its id.
func (t *pgTx) CreateUser(ctx context.Context, username, digest string, level auth.Level) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO users (username, password_digest, level)
		VALUES ($1, $2, $3)
		RETURNING id`, username, digest, int(level)).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrConflict
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

func (t *pgTx) UserByID(ctx context.Context, id int64) (models.User, error) {
	return t.scanUser(ctx, `
		SELECT id, username, password_digest, level
		FROM users
		WHERE id = $1`, id)
}

// UserByUsername matches the username exactly, case included.
func (t *pgTx) UserByUsername(ctx context.Context, username string) (models.User, error) {
	return t.scanUser(ctx, `
		SELECT id, username, password_digest, level
		FROM users
		WHERE username = $1`, username)
}

func (t *pgTx) scanUser(ctx context.Context, query string, arg any) (models.User, error) {
	var (
		user  models.User
		level int
	)
	err := t.tx.QueryRowContext(ctx, query, arg).Scan(&user.ID, &user.Username, &user.Digest, &level)
	if err != nil {
		return models.User{}, notFound(err, "select user")
	}
	user.Level = auth.Level(level)
	return user, nil
}

func (t *pgTx) UpdateUsername(ctx context.Context, id int64, username string) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE users SET username = $1 WHERE id = $2`, username, id)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("update username: %w", err)
	}
	return expectOne(res, "update username")
}

func (t *pgTx) UpdatePassword(ctx context.Context, id int64, digest string) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE users SET password_digest = $1 WHERE id = $2`, digest, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return expectOne(res, "update password")
}
