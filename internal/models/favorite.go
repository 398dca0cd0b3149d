package models

// ToggleResult is the state a favorite toggle left behind.
type ToggleResult string

const (
	Favorited   ToggleResult = "favorited"
	Unfavorited ToggleResult = "unfavorited"
)
