package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musiclist/internal/auth"
	"musiclist/internal/models"
	"musiclist/internal/store"
)

func TestInTxDiscardsWritesOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.InTx(ctx, func(tx store.Tx) error {
		if _, err := tx.CreateUser(ctx, "alice", "digest", auth.LevelRegular); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = s.InTx(ctx, func(tx store.Tx) error {
		_, err := tx.UserByUsername(ctx, "alice")
		return err
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUniqueConstraints(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.InTx(ctx, func(tx store.Tx) error {
		uid, err := tx.CreateUser(ctx, "alice", "digest", auth.LevelRegular)
		require.NoError(t, err)

		_, err = tx.CreateUser(ctx, "alice", "other", auth.LevelRegular)
		assert.ErrorIs(t, err, store.ErrConflict)

		listID, err := tx.CreateList(ctx, uid, "Road Trip")
		require.NoError(t, err)
		_, err = tx.CreateList(ctx, uid, "Road Trip")
		assert.ErrorIs(t, err, store.ErrConflict)

		songID, err := tx.CreateSong(ctx, models.Song{Name: "Song1", Artist: "ArtistX"})
		require.NoError(t, err)
		_, err = tx.CreateSong(ctx, models.Song{Name: "Song1", Artist: "ArtistX"})
		assert.ErrorIs(t, err, store.ErrConflict)

		require.NoError(t, tx.AddMembership(ctx, listID, songID))
		assert.ErrorIs(t, tx.AddMembership(ctx, listID, songID), store.ErrConflict)
		assert.ErrorIs(t, tx.RemoveMembership(ctx, listID, 99), store.ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestListMessagesOrderAndFilter(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	err := s.InTx(ctx, func(tx store.Tx) error {
		alice, _ := tx.CreateUser(ctx, "alice", "d", auth.LevelRegular)
		bob, _ := tx.CreateUser(ctx, "bob", "d", auth.LevelRegular)
		first, _ := tx.CreateMessage(ctx, models.Message{Title: "first", OwnerID: alice, CreatedAt: base})
		_, _ = tx.CreateMessage(ctx, models.Message{Title: "second", OwnerID: bob, CreatedAt: base.Add(time.Minute)})
		third, _ := tx.CreateMessage(ctx, models.Message{Title: "third", OwnerID: alice, CreatedAt: base.Add(2 * time.Minute)})

		all, total, err := tx.ListMessages(ctx, models.MessageFilter{}, models.PageRequest{})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Equal(t, []string{"third", "second", "first"}, titles(all))
		assert.Equal(t, "bob", all[1].AuthorUsername)

		mine, total, err := tx.ListMessages(ctx, models.MessageFilter{AuthorID: alice}, models.PageRequest{Page: 1, Size: 1})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Equal(t, []string{"third"}, titles(mine))

		require.NoError(t, tx.AddFavoriteMessage(ctx, first, bob))
		require.NoError(t, tx.AddFavoriteMessage(ctx, first, bob), "repeat favorite is a no-op")
		favs, _, err := tx.ListMessages(ctx, models.MessageFilter{FavoritedBy: bob}, models.PageRequest{})
		require.NoError(t, err)
		assert.Equal(t, []string{"first"}, titles(favs))

		_, err = tx.CreateComment(ctx, models.Comment{Body: "hi", OwnerID: bob, MessageID: third, CreatedAt: base})
		require.NoError(t, err)
		comments, _, err := tx.CommentsByAuthor(ctx, bob, models.PageRequest{})
		require.NoError(t, err)
		require.Len(t, comments, 1)
		assert.Equal(t, "third", comments[0].MessageTitle)
		return nil
	})
	require.NoError(t, err)
}

func TestDeleteListDetachesMessages(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.InTx(ctx, func(tx store.Tx) error {
		uid, _ := tx.CreateUser(ctx, "alice", "d", auth.LevelRegular)
		listID, _ := tx.CreateList(ctx, uid, "L")
		msgID, _ := tx.CreateMessage(ctx, models.Message{Title: "t", OwnerID: uid, ListID: listID})

		require.NoError(t, tx.DeleteList(ctx, listID))
		msg, err := tx.MessageByID(ctx, msgID)
		require.NoError(t, err)
		assert.Zero(t, msg.ListID)
		return nil
	})
	require.NoError(t, err)
}

func TestInTxHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New().InTx(ctx, func(store.Tx) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func titles(items []models.MessageSummary) []string {
	out := make([]string, 0, len(items))
	for _, m := range items {
		out = append(out, m.Title)
	}
	return out
}
