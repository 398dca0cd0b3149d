package models

// Song is a catalog entry. Link is empty when none was given.
type Song struct {
	ID     int64  `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	Artist string `json:"artist" db:"artist"`
	Link   string `json:"link,omitempty" db:"link"`
}

// SongDetail is a song together with the viewer's own lists, newest first,
// so the song can be added to one of them.
type SongDetail struct {
	Song    Song   `json:"song"`
	MyLists []List `json:"my_lists"`
}
