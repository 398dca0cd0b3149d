package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"musiclist/internal/apperr"
	"musiclist/internal/auth"
	"musiclist/internal/models"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func TestInTxCommitsOnSuccess(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users (username, password_digest, level)")).
		WithArgs("alice", "digest", 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectCommit()

	var id int64
	err := s.InTx(context.Background(), func(tx Tx) error {
		var err error
		id, err = tx.CreateUser(context.Background(), "alice", "digest", auth.LevelRegular)
		return err
	})
	if err != nil {
		t.Fatalf("InTx: %v", err)
	}
	if id != 7 {
		t.Fatalf("expected id 7, got %d", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInTxRollsBackOnError(t *testing.T) {
	s, mock := newMockStore(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM list_songs WHERE list_id = $1")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectRollback()

	err := s.InTx(context.Background(), func(tx Tx) error {
		if err := tx.ClearMemberships(context.Background(), 3); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInTxBeginFailureIsUnavailable(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	err := s.InTx(context.Background(), func(Tx) error {
		t.Fatal("fn must not run")
		return nil
	})
	if !errors.Is(err, apperr.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if apperr.KindOf(err) != apperr.KindUnavailable {
		t.Fatalf("expected unavailable kind, got %v", apperr.KindOf(err))
	}
}

func TestUniqueViolationMapsToConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "pgx", err: &pgconn.PgError{Code: "23505"}},
		{name: "lib/pq", err: &pq.Error{Code: "23505"}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			s, mock := newMockStore(t)
			mock.ExpectBegin()
			mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO lists")).
				WithArgs("Road Trip", int64(1)).
				WillReturnError(tc.err)
			mock.ExpectRollback()

			err := s.InTx(context.Background(), func(tx Tx) error {
				_, err := tx.CreateList(context.Background(), 1, "Road Trip")
				return err
			})
			if !errors.Is(err, ErrConflict) {
				t.Fatalf("expected ErrConflict, got %v", err)
			}
		})
	}
}

func TestForeignKeyViolationMapsToNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		run  func(tx Tx) error
	}{
		{
			name: "list for missing owner via pgx",
			err:  &pgconn.PgError{Code: "23503"},
			run: func(tx Tx) error {
				_, err := tx.CreateList(context.Background(), 1, "Road Trip")
				return err
			},
		},
		{
			name: "message for missing owner via lib/pq",
			err:  &pq.Error{Code: "23503"},
			run: func(tx Tx) error {
				_, err := tx.CreateMessage(context.Background(), models.Message{Title: "t", Body: "b", OwnerID: 1})
				return err
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			s, mock := newMockStore(t)
			mock.ExpectBegin()
			mock.ExpectQuery("INSERT INTO (lists|messages)").WillReturnError(tc.err)
			mock.ExpectRollback()

			err := s.InTx(context.Background(), tc.run)
			if !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}

func TestAddFavoriteAlreadyPresentCommits(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (list_id, user_id) DO NOTHING")).
		WithArgs(int64(3), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (message_id, user_id) DO NOTHING")).
		WithArgs(int64(5), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := s.InTx(context.Background(), func(tx Tx) error {
		if err := tx.AddFavoriteList(context.Background(), 3, 2); err != nil {
			return err
		}
		return tx.AddFavoriteMessage(context.Background(), 5, 2)
	})
	if err != nil {
		t.Fatalf("InTx: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserByIDNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_digest", "level"}))
	mock.ExpectRollback()

	err := s.InTx(context.Background(), func(tx Tx) error {
		_, err := tx.UserByID(context.Background(), 42)
		return err
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteListWithoutRowsIsNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM lists WHERE id = $1")).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.InTx(context.Background(), func(tx Tx) error {
		return tx.DeleteList(context.Background(), 9)
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMessageByIDWithoutList(t *testing.T) {
	s, mock := newMockStore(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM messages m")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "body", "owner_id", "username", "created_at", "list_id"}).
			AddRow(5, "hello", "world", 1, "alice", created, nil))
	mock.ExpectCommit()

	var msg models.Message
	err := s.InTx(context.Background(), func(tx Tx) error {
		var err error
		msg, err = tx.MessageByID(context.Background(), 5)
		return err
	})
	if err != nil {
		t.Fatalf("InTx: %v", err)
	}
	if msg.ListID != 0 || msg.AuthorUsername != "alice" || !msg.CreatedAt.Equal(created) {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestListMessagesFiltersByFavoriteAndAuthor(t *testing.T) {
	s, mock := newMockStore(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs(int64(2), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(31))
	mock.ExpectQuery(`(?s)JOIN favorite_messages fm .* WHERE fm.user_id = \$1 AND m.owner_id = \$2 .* LIMIT \$3 OFFSET \$4`).
		WithArgs(int64(2), int64(1), 30, 30).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "owner_id", "username", "created_at"}).
			AddRow(1, "first", 1, "alice", created))
	mock.ExpectCommit()

	var (
		items []models.MessageSummary
		total int
	)
	err := s.InTx(context.Background(), func(tx Tx) error {
		var err error
		items, total, err = tx.ListMessages(context.Background(),
			models.MessageFilter{AuthorID: 1, FavoritedBy: 2},
			models.PageRequest{Page: 2, Size: 30})
		return err
	})
	if err != nil {
		t.Fatalf("InTx: %v", err)
	}
	if total != 31 || len(items) != 1 || items[0].Title != "first" {
		t.Fatalf("unexpected result: total=%d items=%+v", total, items)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSongExists(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM songs WHERE name = $1 AND artist = $2 AND link = $3")).
		WithArgs("Song1", "ArtistX", "").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectCommit()

	var ok bool
	err := s.InTx(context.Background(), func(tx Tx) error {
		var err error
		ok, err = tx.SongExists(context.Background(), "Song1", "ArtistX", "")
		return err
	})
	if err != nil || !ok {
		t.Fatalf("expected existing song, got ok=%v err=%v", ok, err)
	}
}
