package models

import "musiclist/internal/auth"

// User is a stored account. Digest is never serialized.
type User struct {
	ID       int64      `json:"id" db:"id"`
	Username string     `json:"username" db:"username"`
	Digest   string     `json:"-" db:"password_digest"`
	Level    auth.Level `json:"level" db:"level"`
}

// Principal returns the identity carried by u.
func (u User) Principal() auth.Principal {
	return auth.Principal{UserID: u.ID, Level: u.Level}
}

// View strips credentials.
func (u User) View() UserView {
	return UserView{ID: u.ID, Username: u.Username, Level: u.Level}
}

// UserView is the public profile of a user.
type UserView struct {
	ID       int64      `json:"id"`
	Username string     `json:"username"`
	Level    auth.Level `json:"level"`
}
