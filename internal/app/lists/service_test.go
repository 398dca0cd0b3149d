package lists

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"musiclist/internal/app/favorites"
	"musiclist/internal/app/songs"
	"musiclist/internal/app/users"
	"musiclist/internal/apperr"
	"musiclist/internal/auth"
	"musiclist/internal/models"
	"musiclist/internal/store/memory"
)

type fixture struct {
	lists     Service
	songs     songs.Service
	users     users.Service
	favorites favorites.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	st := memory.New()
	return fixture{
		lists:     New(st),
		songs:     songs.New(st),
		users:     users.New(st, auth.NewBcryptHasher(bcrypt.MinCost)),
		favorites: favorites.New(st),
	}
}

func (f fixture) register(t *testing.T, name string) auth.Principal {
	t.Helper()
	id, err := f.users.Register(context.Background(), name, "pw1234", "pw1234")
	require.NoError(t, err)
	return auth.Principal{UserID: id}
}

func TestRoadTripScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.register(t, "alice")
	listID, err := f.lists.Create(ctx, alice, "Road Trip")
	require.NoError(t, err)

	detail, err := f.lists.Detail(ctx, alice, listID)
	require.NoError(t, err)
	assert.False(t, detail.List.IsPublic, "lists start private")

	assert.ErrorIs(t, f.lists.AddSong(ctx, alice, 999, listID), apperr.ErrSongNotFound)

	songID, err := f.songs.Add(ctx, "Song1", "ArtistX", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), songID)
	require.NoError(t, f.lists.AddSong(ctx, alice, songID, listID))
	require.NoError(t, f.lists.SetVisibility(ctx, alice, listID, true))

	bob := f.register(t, "bob")
	result, err := f.favorites.Toggle(ctx, bob, listID)
	require.NoError(t, err)
	assert.Equal(t, models.Favorited, result)

	favs, err := f.favorites.FavoritedLists(ctx, bob.UserID)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, "alice", favs[0].OwnerUsername)

	require.NoError(t, f.lists.SetVisibility(ctx, alice, listID, false))
	favs, err = f.favorites.FavoritedLists(ctx, bob.UserID)
	require.NoError(t, err)
	assert.Empty(t, favs)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	_, err := f.lists.Create(ctx, alice, "  ")
	assert.ErrorIs(t, err, apperr.ErrEmptyName)

	_, err = f.lists.Create(ctx, auth.Principal{}, "Mix")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = f.lists.Create(ctx, alice, "Mix")
	require.NoError(t, err)
	_, err = f.lists.Create(ctx, alice, "Mix")
	assert.ErrorIs(t, err, apperr.ErrListNameTaken)

	_, err = f.lists.Create(ctx, bob, "Mix")
	assert.NoError(t, err, "names are unique per owner only")
}

func TestRename(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	mix, err := f.lists.Create(ctx, alice, "Mix")
	require.NoError(t, err)
	_, err = f.lists.Create(ctx, alice, "Chill")
	require.NoError(t, err)

	tests := []struct {
		name   string
		p      auth.Principal
		listID int64
		value  string
		want   error
	}{
		{name: "missing list", p: alice, listID: 404, value: "x", want: apperr.ErrListNotFound},
		{name: "not owner", p: bob, listID: mix, value: "x", want: apperr.ErrNotOwner},
		{name: "empty", p: alice, listID: mix, value: "", want: apperr.ErrEmptyName},
		{name: "same", p: alice, listID: mix, value: "Mix", want: apperr.ErrSameName},
		{name: "taken", p: alice, listID: mix, value: "Chill", want: apperr.ErrListNameTaken},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, f.lists.Rename(ctx, tc.p, tc.listID, tc.value), tc.want)
		})
	}

	require.NoError(t, f.lists.Rename(ctx, alice, mix, "Weekend"))
	detail, err := f.lists.Detail(ctx, alice, mix)
	require.NoError(t, err)
	assert.Equal(t, "Weekend", detail.List.Name)
}

func TestMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	listID, err := f.lists.Create(ctx, alice, "Mix")
	require.NoError(t, err)
	songID, err := f.songs.Add(ctx, "Song1", "ArtistX", "")
	require.NoError(t, err)

	assert.ErrorIs(t, f.lists.AddSong(ctx, alice, songID, 404), apperr.ErrListNotFound)
	assert.ErrorIs(t, f.lists.AddSong(ctx, bob, songID, listID), apperr.ErrNotOwner)
	require.NoError(t, f.lists.AddSong(ctx, alice, songID, listID))
	assert.ErrorIs(t, f.lists.AddSong(ctx, alice, songID, listID), apperr.ErrAlreadyMember)

	detail, err := f.lists.Detail(ctx, alice, listID)
	require.NoError(t, err)
	require.Len(t, detail.Songs, 1)
	assert.Equal(t, "Song1", detail.Songs[0].Name)

	assert.ErrorIs(t, f.lists.RemoveSong(ctx, bob, songID, listID), apperr.ErrNotOwner)
	require.NoError(t, f.lists.RemoveSong(ctx, alice, songID, listID))
	assert.ErrorIs(t, f.lists.RemoveSong(ctx, alice, songID, listID), apperr.ErrNotAMember)
}

func TestDetailVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	listID, err := f.lists.Create(ctx, alice, "Mix")
	require.NoError(t, err)

	_, err = f.lists.Detail(ctx, bob, listID)
	assert.ErrorIs(t, err, apperr.ErrNotVisible)
	_, err = f.lists.Detail(ctx, auth.Principal{}, listID)
	assert.ErrorIs(t, err, apperr.ErrNotVisible)

	require.NoError(t, f.lists.SetVisibility(ctx, alice, listID, true))
	detail, err := f.lists.Detail(ctx, bob, listID)
	require.NoError(t, err)
	assert.Equal(t, "alice", detail.OwnerUsername)
	assert.False(t, detail.Favorited)
	assert.NotNil(t, detail.Songs)

	_, err = f.favorites.Toggle(ctx, bob, listID)
	require.NoError(t, err)
	detail, err = f.lists.Detail(ctx, bob, listID)
	require.NoError(t, err)
	assert.True(t, detail.Favorited)

	assert.ErrorIs(t, f.lists.SetVisibility(ctx, bob, listID, false), apperr.ErrNotOwner)
	assert.ErrorIs(t, f.lists.SetVisibility(ctx, alice, 404, false), apperr.ErrListNotFound)
}

func TestDeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	listID, err := f.lists.Create(ctx, alice, "Mix")
	require.NoError(t, err)
	songID, err := f.songs.Add(ctx, "Song1", "ArtistX", "")
	require.NoError(t, err)
	require.NoError(t, f.lists.AddSong(ctx, alice, songID, listID))
	require.NoError(t, f.lists.SetVisibility(ctx, alice, listID, true))
	_, err = f.favorites.Toggle(ctx, bob, listID)
	require.NoError(t, err)

	assert.ErrorIs(t, f.lists.Delete(ctx, bob, listID), apperr.ErrNotOwner)
	require.NoError(t, f.lists.Delete(ctx, alice, listID))

	_, err = f.lists.Detail(ctx, alice, listID)
	assert.ErrorIs(t, err, apperr.ErrListNotFound)
	_, err = f.lists.Detail(ctx, bob, listID)
	assert.ErrorIs(t, err, apperr.ErrListNotFound)
	assert.ErrorIs(t, f.lists.RemoveSong(ctx, alice, songID, listID), apperr.ErrListNotFound)

	favs, err := f.favorites.FavoritedLists(ctx, bob.UserID)
	require.NoError(t, err)
	assert.Empty(t, favs)

	assert.ErrorIs(t, f.lists.Delete(ctx, alice, listID), apperr.ErrListNotFound)
}

func TestOwnedByNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")

	first, err := f.lists.Create(ctx, alice, "First")
	require.NoError(t, err)
	second, err := f.lists.Create(ctx, alice, "Second")
	require.NoError(t, err)

	lists, err := f.lists.OwnedBy(ctx, alice.UserID)
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, second, lists[0].ID)
	assert.Equal(t, first, lists[1].ID)

	lists, err = f.lists.OwnedBy(ctx, 404)
	require.NoError(t, err)
	assert.Empty(t, lists)
}
