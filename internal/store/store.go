// Package store persists musiclist records in PostgreSQL. Every core operation
// runs as a single transaction through Store.InTx.
package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"musiclist/internal/apperr"
	"musiclist/internal/auth"
	"musiclist/internal/models"
)

var (
	// ErrNotFound signals that the addressed row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict signals a uniqueness violation.
	ErrConflict = errors.New("record already exists")
)

// Tx is the set of reads and writes available inside one transaction.
type Tx interface {
	CreateUser(ctx context.Context, username, digest string, level auth.Level) (int64, error)
	UserByID(ctx context.Context, id int64) (models.User, error)
	UserByUsername(ctx context.Context, username string) (models.User, error)
	UpdateUsername(ctx context.Context, id int64, username string) error
	UpdatePassword(ctx context.Context, id int64, digest string) error

	CreateSong(ctx context.Context, song models.Song) (int64, error)
	SongByID(ctx context.Context, id int64) (models.Song, error)
	SongExists(ctx context.Context, name, artist, link string) (bool, error)
	SongsByName(ctx context.Context, name string) ([]models.Song, error)
	ListSongs(ctx context.Context, page models.PageRequest) ([]models.Song, int, error)

	CreateList(ctx context.Context, ownerID int64, name string) (int64, error)
	ListByID(ctx context.Context, id int64) (models.List, error)
	ListNameExists(ctx context.Context, ownerID int64, name string) (bool, error)
	ListsByOwner(ctx context.Context, ownerID int64, publicOnly bool) ([]models.List, error)
	RenameList(ctx context.Context, id int64, name string) error
	SetListPublic(ctx context.Context, id int64, public bool) error
	DeleteList(ctx context.Context, id int64) error

	MembershipExists(ctx context.Context, listID, songID int64) (bool, error)
	AddMembership(ctx context.Context, listID, songID int64) error
	RemoveMembership(ctx context.Context, listID, songID int64) error
	ClearMemberships(ctx context.Context, listID int64) error
	SongsInList(ctx context.Context, listID int64) ([]models.Song, error)

	CreateMessage(ctx context.Context, msg models.Message) (int64, error)
	MessageByID(ctx context.Context, id int64) (models.Message, error)
	ListMessages(ctx context.Context, filter models.MessageFilter, page models.PageRequest) ([]models.MessageSummary, int, error)
	DeleteMessage(ctx context.Context, id int64) error

	CreateComment(ctx context.Context, c models.Comment) (int64, error)
	CommentByID(ctx context.Context, id int64) (models.Comment, error)
	CommentsForMessage(ctx context.Context, messageID int64, page models.PageRequest) ([]models.Comment, int, error)
	CommentsByAuthor(ctx context.Context, userID int64, page models.PageRequest) ([]models.CommentSummary, int, error)
	DeleteComment(ctx context.Context, id int64) error
	ClearComments(ctx context.Context, messageID int64) error

	// AddFavoriteList and AddFavoriteMessage succeed without a write when the
	// favorite already exists.
	FavoriteListExists(ctx context.Context, listID, userID int64) (bool, error)
	AddFavoriteList(ctx context.Context, listID, userID int64) error
	RemoveFavoriteList(ctx context.Context, listID, userID int64) error
	ClearFavoriteLists(ctx context.Context, listID int64) error
	FavoritedLists(ctx context.Context, userID int64) ([]models.FavoritedList, error)

	FavoriteMessageExists(ctx context.Context, messageID, userID int64) (bool, error)
	AddFavoriteMessage(ctx context.Context, messageID, userID int64) error
	RemoveFavoriteMessage(ctx context.Context, messageID, userID int64) error
	ClearFavoriteMessages(ctx context.Context, messageID int64) error
}

// Transactor runs fn as one atomic unit. fn's writes are committed only when it returns nil.
type Transactor interface {
	InTx(ctx context.Context, fn func(Tx) error) error
}

// Store provides persistence backed by Postgres.
type Store struct {
	db *sql.DB
}

// New sets up a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// InTx runs fn inside a read-committed transaction.
func (s *Store) InTx(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: begin tx: %w", apperr.ErrUnavailable, err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return classify(err)
	}

	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("commit tx: %w", err))
	}
	tx = nil

	return nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrUnavailable, err)
	}
	return nil
}

type pgTx struct {
	tx *sql.Tx
}

func classify(err error) error {
	if err == nil || errors.Is(err, apperr.ErrUnavailable) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", apperr.ErrUnavailable, err)
	}
	return err
}

// sqlState extracts the SQLSTATE code from a pgx or lib/pq error.
func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return sqlState(err) == "23505"
}

// isForeignKeyViolation reports a write that referenced a missing row.
func isForeignKeyViolation(err error) bool {
	return sqlState(err) == "23503"
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", what, err)
}

// expectOne maps a zero-row write to ErrNotFound.
func expectOne(res sql.Result, what string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", what, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var ok bool
	if err := t.tx.QueryRowContext(ctx, query, args...).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (t *pgTx) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := t.tx.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func nullIfZero(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
