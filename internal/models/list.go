package models

// List is a named, owned collection of songs.
type List struct {
	ID       int64  `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	OwnerID  int64  `json:"owner_id" db:"owner_id"`
	IsPublic bool   `json:"is_public" db:"is_public"`
}

// ListDetail is a list together with its songs as seen by one viewer.
type ListDetail struct {
	List          List   `json:"list"`
	OwnerUsername string `json:"owner_username"`
	Songs         []Song `json:"songs"`
	// Favorited reports whether the viewer has favorited the list.
	Favorited bool `json:"favorited"`
}

// FavoritedList is a list favorited by some user, with its owner's name.
type FavoritedList struct {
	List          List   `json:"list"`
	OwnerUsername string `json:"owner_username"`
}
