package favorites

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musiclist/internal/apperr"
	"musiclist/internal/auth"
	"musiclist/internal/models"
	"musiclist/internal/store"
	"musiclist/internal/store/memory"
)

type seeded struct {
	alice, bob auth.Principal
	public     int64
	private    int64
}

func seed(t *testing.T, st *memory.Store) seeded {
	t.Helper()
	ctx := context.Background()
	var s seeded
	err := st.InTx(ctx, func(tx store.Tx) error {
		alice, err := tx.CreateUser(ctx, "alice", "d", auth.LevelRegular)
		require.NoError(t, err)
		bob, err := tx.CreateUser(ctx, "bob", "d", auth.LevelRegular)
		require.NoError(t, err)
		s.alice = auth.Principal{UserID: alice}
		s.bob = auth.Principal{UserID: bob}

		s.public, err = tx.CreateList(ctx, alice, "Public")
		require.NoError(t, err)
		require.NoError(t, tx.SetListPublic(ctx, s.public, true))
		s.private, err = tx.CreateList(ctx, alice, "Private")
		require.NoError(t, err)
		return nil
	})
	require.NoError(t, err)
	return s
}

func TestToggleRules(t *testing.T) {
	st := memory.New()
	svc := New(st)
	s := seed(t, st)
	ctx := context.Background()

	_, err := svc.Toggle(ctx, auth.Principal{}, s.public)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	_, err = svc.Toggle(ctx, auth.Principal{UserID: 99}, s.public)
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)
	_, err = svc.Toggle(ctx, s.bob, 404)
	assert.ErrorIs(t, err, apperr.ErrListNotFound)
	_, err = svc.Toggle(ctx, s.bob, s.private)
	assert.ErrorIs(t, err, apperr.ErrNotPublic)
	_, err = svc.Toggle(ctx, s.alice, s.public)
	assert.ErrorIs(t, err, apperr.ErrIsOwner)

	for i, want := range []models.ToggleResult{models.Favorited, models.Unfavorited, models.Favorited} {
		got, err := svc.Toggle(ctx, s.bob, s.public)
		require.NoError(t, err)
		assert.Equal(t, want, got, "toggle %d", i+1)
	}
}

func TestUnfavoriteAfterListTurnsPrivate(t *testing.T) {
	st := memory.New()
	svc := New(st)
	s := seed(t, st)
	ctx := context.Background()

	got, err := svc.Toggle(ctx, s.bob, s.public)
	require.NoError(t, err)
	require.Equal(t, models.Favorited, got)

	// Flip the flag without the purge that lists.Service performs.
	require.NoError(t, st.InTx(ctx, func(tx store.Tx) error {
		return tx.SetListPublic(ctx, s.public, false)
	}))

	got, err = svc.Toggle(ctx, s.bob, s.public)
	require.NoError(t, err)
	assert.Equal(t, models.Unfavorited, got)
}

func TestListsOf(t *testing.T) {
	st := memory.New()
	svc := New(st)
	s := seed(t, st)
	ctx := context.Background()

	own, err := svc.ListsOf(ctx, s.alice, s.alice.UserID)
	require.NoError(t, err)
	assert.Len(t, own, 2)

	seen, err := svc.ListsOf(ctx, s.bob, s.alice.UserID)
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, s.public, seen[0].ID)

	anon, err := svc.ListsOf(ctx, auth.Principal{}, s.alice.UserID)
	require.NoError(t, err)
	assert.Len(t, anon, 1)

	_, err = svc.ListsOf(ctx, s.bob, 404)
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)

	_, err = svc.FavoritedLists(ctx, 404)
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)
}

func TestConcurrentTogglesLeaveOneOrNoRow(t *testing.T) {
	st := memory.New()
	svc := New(st)
	s := seed(t, st)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 7; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Toggle(ctx, s.bob, s.public)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	favs, err := svc.FavoritedLists(ctx, s.bob.UserID)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(favs), 1)
}
