package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musiclist/internal/apperr"
	"musiclist/internal/auth"
	"musiclist/internal/models"
	"musiclist/internal/store"
	"musiclist/internal/store/memory"
)

type fixture struct {
	svc        Service
	st         *memory.Store
	alice, bob auth.Principal
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	st := memory.New()
	ctx := context.Background()

	f := fixture{st: st}
	require.NoError(t, st.InTx(ctx, func(tx store.Tx) error {
		alice, err := tx.CreateUser(ctx, "alice", "d", auth.LevelRegular)
		if err != nil {
			return err
		}
		bob, err := tx.CreateUser(ctx, "bob", "d", auth.LevelRegular)
		f.alice = auth.Principal{UserID: alice}
		f.bob = auth.Principal{UserID: bob}
		return err
	}))

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f.svc = &service{store: st, now: func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}}
	return f
}

func (f fixture) list(t *testing.T, owner auth.Principal, name string, public bool) int64 {
	t.Helper()
	ctx := context.Background()
	var id int64
	require.NoError(t, f.st.InTx(ctx, func(tx store.Tx) error {
		var err error
		if id, err = tx.CreateList(ctx, owner.UserID, name); err != nil {
			return err
		}
		return tx.SetListPublic(ctx, id, public)
	}))
	return id
}

func TestPostWithAttachedList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	public := f.list(t, f.alice, "Public", true)
	private := f.list(t, f.alice, "Private", false)
	bobs := f.list(t, f.bob, "Bob's", true)

	id, err := f.svc.Post(ctx, f.alice, "Listen", "to this", public)
	require.NoError(t, err)

	_, err = f.svc.Post(ctx, f.alice, "Listen", "to this", private)
	assert.ErrorIs(t, err, apperr.ErrListNotShareable)
	_, err = f.svc.Post(ctx, f.alice, "Listen", "to this", bobs)
	assert.ErrorIs(t, err, apperr.ErrListNotShareable)
	_, err = f.svc.Post(ctx, f.alice, "Listen", "to this", 404)
	assert.ErrorIs(t, err, apperr.ErrListNotFound)
	_, err = f.svc.Post(ctx, f.alice, "", "body", 0)
	assert.ErrorIs(t, err, apperr.ErrEmptyInput)
	_, err = f.svc.Post(ctx, auth.Principal{}, "t", "b", 0)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	detail, err := f.svc.Detail(ctx, f.bob, id, models.PageRequest{})
	require.NoError(t, err)
	require.NotNil(t, detail.List)
	assert.Equal(t, public, detail.List.ID)
	assert.Equal(t, "alice", detail.Message.AuthorUsername)

	// A list made private later is no longer shown on the message.
	require.NoError(t, f.st.InTx(ctx, func(tx store.Tx) error {
		return tx.SetListPublic(ctx, public, false)
	}))
	detail, err = f.svc.Detail(ctx, f.bob, id, models.PageRequest{})
	require.NoError(t, err)
	assert.Nil(t, detail.List)
}

func TestFeedOrderingAndUserFeed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Post(ctx, f.alice, "first", "b", 0)
	require.NoError(t, err)
	_, err = f.svc.Post(ctx, f.bob, "second", "b", 0)
	require.NoError(t, err)
	third, err := f.svc.Post(ctx, f.alice, "third", "b", 0)
	require.NoError(t, err)

	page, err := f.svc.Feed(ctx, models.PageRequest{Page: 1, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.True(t, page.HasNext)
	require.Len(t, page.Items, 2)
	assert.Equal(t, third, page.Items[0].ID)
	assert.Equal(t, "bob", page.Items[1].AuthorUsername)

	mine, err := f.svc.UserFeed(ctx, f.alice.UserID, models.PageRequest{})
	require.NoError(t, err)
	require.Len(t, mine.Items, 2)
	assert.Equal(t, first, mine.Items[1].ID)

	_, err = f.svc.UserFeed(ctx, 404, models.PageRequest{})
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)
}

func TestCommentsAndCascade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	msg, err := f.svc.Post(ctx, f.alice, "hello", "world", 0)
	require.NoError(t, err)

	_, err = f.svc.Comment(ctx, f.bob, msg, "  ")
	assert.ErrorIs(t, err, apperr.ErrEmptyBody)
	_, err = f.svc.Comment(ctx, f.bob, 404, "hi")
	assert.ErrorIs(t, err, apperr.ErrMessageNotFound)

	var ids []int64
	for _, body := range []string{"one", "two", "three"} {
		id, err := f.svc.Comment(ctx, f.bob, msg, body)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	detail, err := f.svc.Detail(ctx, f.alice, msg, models.PageRequest{})
	require.NoError(t, err)
	require.Len(t, detail.Comments.Items, 3)
	assert.Equal(t, "three", detail.Comments.Items[0].Body, "comments are newest first")

	comments, err := f.svc.UserComments(ctx, f.bob.UserID, models.PageRequest{})
	require.NoError(t, err)
	require.Len(t, comments.Items, 3)
	assert.Equal(t, "hello", comments.Items[0].MessageTitle)

	assert.ErrorIs(t, f.svc.DeleteMessage(ctx, f.bob, msg), apperr.ErrNotOwner)
	require.NoError(t, f.svc.DeleteMessage(ctx, f.alice, msg))

	_, err = f.svc.Detail(ctx, f.alice, msg, models.PageRequest{})
	assert.ErrorIs(t, err, apperr.ErrMessageNotFound)
	for _, id := range ids {
		assert.ErrorIs(t, f.svc.DeleteComment(ctx, f.bob, id), apperr.ErrCommentNotFound)
	}
	comments, err = f.svc.UserComments(ctx, f.bob.UserID, models.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, comments.Items)
}

func TestDeleteComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	msg, err := f.svc.Post(ctx, f.alice, "hello", "world", 0)
	require.NoError(t, err)
	id, err := f.svc.Comment(ctx, f.bob, msg, "hi")
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteComment(ctx, f.alice, id), apperr.ErrNotOwner)
	require.NoError(t, f.svc.DeleteComment(ctx, f.bob, id))
	assert.ErrorIs(t, f.svc.DeleteComment(ctx, f.bob, id), apperr.ErrCommentNotFound)
}

func TestToggleFavoriteCycles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	msg, err := f.svc.Post(ctx, f.alice, "hello", "world", 0)
	require.NoError(t, err)

	for i, want := range []models.ToggleResult{models.Favorited, models.Unfavorited, models.Favorited} {
		got, err := f.svc.ToggleFavorite(ctx, f.bob, msg)
		require.NoError(t, err)
		assert.Equal(t, want, got, "toggle %d", i+1)
	}

	favs, err := f.svc.FavoritedBy(ctx, f.bob.UserID, models.PageRequest{})
	require.NoError(t, err)
	require.Len(t, favs.Items, 1)
	assert.Equal(t, msg, favs.Items[0].ID)

	detail, err := f.svc.Detail(ctx, f.bob, msg, models.PageRequest{})
	require.NoError(t, err)
	assert.True(t, detail.Favorited)

	_, err = f.svc.ToggleFavorite(ctx, f.bob, 404)
	assert.ErrorIs(t, err, apperr.ErrMessageNotFound)
	_, err = f.svc.ToggleFavorite(ctx, auth.Principal{UserID: 404}, msg)
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)
	_, err = f.svc.ToggleFavorite(ctx, auth.Principal{}, msg)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	require.NoError(t, f.svc.DeleteMessage(ctx, f.alice, msg))
	favs, err = f.svc.FavoritedBy(ctx, f.bob.UserID, models.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, favs.Items)
}
