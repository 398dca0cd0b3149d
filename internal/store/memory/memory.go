// Package memory implements store.Transactor in process memory. It backs
// STORAGE_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"musiclist/internal/auth"
	"musiclist/internal/models"
	"musiclist/internal/store"
)

type link struct {
	id       int64
	targetID int64
	otherID  int64
}

type state struct {
	users       map[int64]models.User
	songs       map[int64]models.Song
	lists       map[int64]models.List
	messages    map[int64]models.Message
	comments    map[int64]models.Comment
	memberships []link // target list, other song
	favLists    []link // target list, other user
	favMessages []link // target message, other user
	nextID      map[string]int64
}

func newState() *state {
	return &state{
		users:    make(map[int64]models.User),
		songs:    make(map[int64]models.Song),
		lists:    make(map[int64]models.List),
		messages: make(map[int64]models.Message),
		comments: make(map[int64]models.Comment),
		nextID:   make(map[string]int64),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.songs {
		c.songs[k] = v
	}
	for k, v := range s.lists {
		c.lists[k] = v
	}
	for k, v := range s.messages {
		c.messages[k] = v
	}
	for k, v := range s.comments {
		c.comments[k] = v
	}
	for k, v := range s.nextID {
		c.nextID[k] = v
	}
	c.memberships = append([]link(nil), s.memberships...)
	c.favLists = append([]link(nil), s.favLists...)
	c.favMessages = append([]link(nil), s.favMessages...)
	return c
}

func (s *state) next(table string) int64 {
	s.nextID[table]++
	return s.nextID[table]
}

// Store keeps every record in memory. Transactions are serialized and
// applied only when fn succeeds.
type Store struct {
	mu    sync.Mutex
	state *state
}

// New returns an empty Store.
func New() *Store {
	return &Store{state: newState()}
}

// InTx runs fn against a copy of the data and publishes the copy when fn returns nil.
func (s *Store) InTx(ctx context.Context, fn func(store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(&tx{st: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = work
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

type tx struct {
	st *state
}

var _ store.Tx = (*tx)(nil)

func (t *tx) CreateUser(_ context.Context, username, digest string, level auth.Level) (int64, error) {
	for _, u := range t.st.users {
		if u.Username == username {
			return 0, store.ErrConflict
		}
	}
	id := t.st.next("users")
	t.st.users[id] = models.User{ID: id, Username: username, Digest: digest, Level: level}
	return id, nil
}

func (t *tx) UserByID(_ context.Context, id int64) (models.User, error) {
	u, ok := t.st.users[id]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	return u, nil
}

func (t *tx) UserByUsername(_ context.Context, username string) (models.User, error) {
	for _, u := range t.st.users {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, store.ErrNotFound
}

func (t *tx) UpdateUsername(_ context.Context, id int64, username string) error {
	u, ok := t.st.users[id]
	if !ok {
		return store.ErrNotFound
	}
	for _, other := range t.st.users {
		if other.ID != id && other.Username == username {
			return store.ErrConflict
		}
	}
	u.Username = username
	t.st.users[id] = u
	return nil
}

func (t *tx) UpdatePassword(_ context.Context, id int64, digest string) error {
	u, ok := t.st.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.Digest = digest
	t.st.users[id] = u
	return nil
}

func (t *tx) CreateSong(ctx context.Context, song models.Song) (int64, error) {
	if ok, _ := t.SongExists(ctx, song.Name, song.Artist, song.Link); ok {
		return 0, store.ErrConflict
	}
	song.ID = t.st.next("songs")
	t.st.songs[song.ID] = song
	return song.ID, nil
}

func (t *tx) SongByID(_ context.Context, id int64) (models.Song, error) {
	song, ok := t.st.songs[id]
	if !ok {
		return models.Song{}, store.ErrNotFound
	}
	return song, nil
}

func (t *tx) SongExists(_ context.Context, name, artist, link string) (bool, error) {
	for _, song := range t.st.songs {
		if song.Name == name && song.Artist == artist && song.Link == link {
			return true, nil
		}
	}
	return false, nil
}

func (t *tx) SongsByName(_ context.Context, name string) ([]models.Song, error) {
	var songs []models.Song
	for _, song := range t.sortedSongs() {
		if song.Name == name {
			songs = append(songs, song)
		}
	}
	return songs, nil
}

func (t *tx) ListSongs(_ context.Context, page models.PageRequest) ([]models.Song, int, error) {
	all := t.sortedSongs()
	p := models.Paginate(page, all)
	return p.Items, p.Total, nil
}

func (t *tx) sortedSongs() []models.Song {
	songs := make([]models.Song, 0, len(t.st.songs))
	for _, song := range t.st.songs {
		songs = append(songs, song)
	}
	sort.Slice(songs, func(i, j int) bool { return songs[i].ID > songs[j].ID })
	return songs
}

func (t *tx) CreateList(ctx context.Context, ownerID int64, name string) (int64, error) {
	if _, ok := t.st.users[ownerID]; !ok {
		return 0, store.ErrNotFound
	}
	if taken, _ := t.ListNameExists(ctx, ownerID, name); taken {
		return 0, store.ErrConflict
	}
	id := t.st.next("lists")
	t.st.lists[id] = models.List{ID: id, Name: name, OwnerID: ownerID}
	return id, nil
}

func (t *tx) ListByID(_ context.Context, id int64) (models.List, error) {
	list, ok := t.st.lists[id]
	if !ok {
		return models.List{}, store.ErrNotFound
	}
	return list, nil
}

func (t *tx) ListNameExists(_ context.Context, ownerID int64, name string) (bool, error) {
	for _, list := range t.st.lists {
		if list.OwnerID == ownerID && list.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (t *tx) ListsByOwner(_ context.Context, ownerID int64, publicOnly bool) ([]models.List, error) {
	var lists []models.List
	for _, list := range t.st.lists {
		if list.OwnerID != ownerID || (publicOnly && !list.IsPublic) {
			continue
		}
		lists = append(lists, list)
	}
	sort.Slice(lists, func(i, j int) bool { return lists[i].ID > lists[j].ID })
	return lists, nil
}

func (t *tx) RenameList(_ context.Context, id int64, name string) error {
	list, ok := t.st.lists[id]
	if !ok {
		return store.ErrNotFound
	}
	for _, other := range t.st.lists {
		if other.ID != id && other.OwnerID == list.OwnerID && other.Name == name {
			return store.ErrConflict
		}
	}
	list.Name = name
	t.st.lists[id] = list
	return nil
}

func (t *tx) SetListPublic(_ context.Context, id int64, public bool) error {
	list, ok := t.st.lists[id]
	if !ok {
		return store.ErrNotFound
	}
	list.IsPublic = public
	t.st.lists[id] = list
	return nil
}

// DeleteList removes the list. Messages pointing at it lose the reference.
func (t *tx) DeleteList(_ context.Context, id int64) error {
	if _, ok := t.st.lists[id]; !ok {
		return store.ErrNotFound
	}
	delete(t.st.lists, id)
	for mid, msg := range t.st.messages {
		if msg.ListID == id {
			msg.ListID = 0
			t.st.messages[mid] = msg
		}
	}
	return nil
}

func (t *tx) MembershipExists(_ context.Context, listID, songID int64) (bool, error) {
	return indexOf(t.st.memberships, listID, songID) >= 0, nil
}

func (t *tx) AddMembership(_ context.Context, listID, songID int64) error {
	if indexOf(t.st.memberships, listID, songID) >= 0 {
		return store.ErrConflict
	}
	t.st.memberships = append(t.st.memberships, link{id: t.st.next("list_songs"), targetID: listID, otherID: songID})
	return nil
}

func (t *tx) RemoveMembership(_ context.Context, listID, songID int64) error {
	var ok bool
	t.st.memberships, ok = remove(t.st.memberships, listID, songID)
	if !ok {
		return store.ErrNotFound
	}
	return nil
}

func (t *tx) ClearMemberships(_ context.Context, listID int64) error {
	t.st.memberships = removeTarget(t.st.memberships, listID)
	return nil
}

func (t *tx) SongsInList(_ context.Context, listID int64) ([]models.Song, error) {
	var songs []models.Song
	for _, m := range t.st.memberships {
		if m.targetID != listID {
			continue
		}
		if song, ok := t.st.songs[m.otherID]; ok {
			songs = append(songs, song)
		}
	}
	return songs, nil
}

func (t *tx) CreateMessage(_ context.Context, msg models.Message) (int64, error) {
	if _, ok := t.st.users[msg.OwnerID]; !ok {
		return 0, store.ErrNotFound
	}
	msg.ID = t.st.next("messages")
	msg.AuthorUsername = ""
	t.st.messages[msg.ID] = msg
	return msg.ID, nil
}

func (t *tx) MessageByID(_ context.Context, id int64) (models.Message, error) {
	msg, ok := t.st.messages[id]
	if !ok {
		return models.Message{}, store.ErrNotFound
	}
	msg.AuthorUsername = t.st.users[msg.OwnerID].Username
	return msg, nil
}

func (t *tx) ListMessages(_ context.Context, filter models.MessageFilter, page models.PageRequest) ([]models.MessageSummary, int, error) {
	var all []models.MessageSummary
	for _, msg := range t.st.messages {
		if filter.AuthorID != 0 && msg.OwnerID != filter.AuthorID {
			continue
		}
		if filter.FavoritedBy != 0 && indexOf(t.st.favMessages, msg.ID, filter.FavoritedBy) < 0 {
			continue
		}
		all = append(all, models.MessageSummary{
			ID:             msg.ID,
			Title:          msg.Title,
			OwnerID:        msg.OwnerID,
			AuthorUsername: t.st.users[msg.OwnerID].Username,
			CreatedAt:      msg.CreatedAt,
		})
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	p := models.Paginate(page, all)
	return p.Items, p.Total, nil
}

func (t *tx) DeleteMessage(_ context.Context, id int64) error {
	if _, ok := t.st.messages[id]; !ok {
		return store.ErrNotFound
	}
	delete(t.st.messages, id)
	return nil
}

func (t *tx) CreateComment(_ context.Context, c models.Comment) (int64, error) {
	if _, ok := t.st.messages[c.MessageID]; !ok {
		return 0, store.ErrNotFound
	}
	c.ID = t.st.next("comments")
	c.AuthorUsername = ""
	t.st.comments[c.ID] = c
	return c.ID, nil
}

func (t *tx) CommentByID(_ context.Context, id int64) (models.Comment, error) {
	c, ok := t.st.comments[id]
	if !ok {
		return models.Comment{}, store.ErrNotFound
	}
	c.AuthorUsername = t.st.users[c.OwnerID].Username
	return c, nil
}

func (t *tx) CommentsForMessage(_ context.Context, messageID int64, page models.PageRequest) ([]models.Comment, int, error) {
	all := t.sortedComments(func(c models.Comment) bool { return c.MessageID == messageID })
	p := models.Paginate(page, all)
	return p.Items, p.Total, nil
}

func (t *tx) CommentsByAuthor(_ context.Context, userID int64, page models.PageRequest) ([]models.CommentSummary, int, error) {
	comments := t.sortedComments(func(c models.Comment) bool { return c.OwnerID == userID })
	all := make([]models.CommentSummary, 0, len(comments))
	for _, c := range comments {
		all = append(all, models.CommentSummary{Comment: c, MessageTitle: t.st.messages[c.MessageID].Title})
	}
	p := models.Paginate(page, all)
	return p.Items, p.Total, nil
}

func (t *tx) sortedComments(keep func(models.Comment) bool) []models.Comment {
	var all []models.Comment
	for _, c := range t.st.comments {
		if !keep(c) {
			continue
		}
		c.AuthorUsername = t.st.users[c.OwnerID].Username
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	return all
}

func (t *tx) DeleteComment(_ context.Context, id int64) error {
	if _, ok := t.st.comments[id]; !ok {
		return store.ErrNotFound
	}
	delete(t.st.comments, id)
	return nil
}

func (t *tx) ClearComments(_ context.Context, messageID int64) error {
	for id, c := range t.st.comments {
		if c.MessageID == messageID {
			delete(t.st.comments, id)
		}
	}
	return nil
}

func (t *tx) FavoriteListExists(_ context.Context, listID, userID int64) (bool, error) {
	return indexOf(t.st.favLists, listID, userID) >= 0, nil
}

func (t *tx) AddFavoriteList(_ context.Context, listID, userID int64) error {
	if indexOf(t.st.favLists, listID, userID) >= 0 {
		return nil
	}
	t.st.favLists = append(t.st.favLists, link{id: t.st.next("favorite_lists"), targetID: listID, otherID: userID})
	return nil
}

func (t *tx) RemoveFavoriteList(_ context.Context, listID, userID int64) error {
	var ok bool
	t.st.favLists, ok = remove(t.st.favLists, listID, userID)
	if !ok {
		return store.ErrNotFound
	}
	return nil
}

func (t *tx) ClearFavoriteLists(_ context.Context, listID int64) error {
	t.st.favLists = removeTarget(t.st.favLists, listID)
	return nil
}

func (t *tx) FavoritedLists(_ context.Context, userID int64) ([]models.FavoritedList, error) {
	var lists []models.FavoritedList
	for i := len(t.st.favLists) - 1; i >= 0; i-- {
		fav := t.st.favLists[i]
		if fav.otherID != userID {
			continue
		}
		list, ok := t.st.lists[fav.targetID]
		if !ok {
			continue
		}
		lists = append(lists, models.FavoritedList{List: list, OwnerUsername: t.st.users[list.OwnerID].Username})
	}
	return lists, nil
}

func (t *tx) FavoriteMessageExists(_ context.Context, messageID, userID int64) (bool, error) {
	return indexOf(t.st.favMessages, messageID, userID) >= 0, nil
}

func (t *tx) AddFavoriteMessage(_ context.Context, messageID, userID int64) error {
	if indexOf(t.st.favMessages, messageID, userID) >= 0 {
		return nil
	}
	t.st.favMessages = append(t.st.favMessages, link{id: t.st.next("favorite_messages"), targetID: messageID, otherID: userID})
	return nil
}

func (t *tx) RemoveFavoriteMessage(_ context.Context, messageID, userID int64) error {
	var ok bool
	t.st.favMessages, ok = remove(t.st.favMessages, messageID, userID)
	if !ok {
		return store.ErrNotFound
	}
	return nil
}

func (t *tx) ClearFavoriteMessages(_ context.Context, messageID int64) error {
	t.st.favMessages = removeTarget(t.st.favMessages, messageID)
	return nil
}

func indexOf(links []link, targetID, otherID int64) int {
	for i, l := range links {
		if l.targetID == targetID && l.otherID == otherID {
			return i
		}
	}
	return -1
}

func remove(links []link, targetID, otherID int64) ([]link, bool) {
	i := indexOf(links, targetID, otherID)
	if i < 0 {
		return links, false
	}
	return append(links[:i:i], links[i+1:]...), true
}

func removeTarget(links []link, targetID int64) []link {
	kept := links[:0:0]
	for _, l := range links {
		if l.targetID != targetID {
			kept = append(kept, l)
		}
	}
	return kept
}
