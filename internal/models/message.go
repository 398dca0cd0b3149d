package models

import "time"

// Message is a post in the feed. ListID is 0 when no list is attached.
type Message struct {
	ID             int64     `json:"id" db:"id"`
	Title          string    `json:"title" db:"title"`
	Body           string    `json:"body" db:"body"`
	OwnerID        int64     `json:"owner_id" db:"owner_id"`
	AuthorUsername string    `json:"author_username" db:"username"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	ListID         int64     `json:"list_id" db:"list_id"`
}

// MessageSummary is a feed row.
type MessageSummary struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	OwnerID        int64     `json:"owner_id"`
	AuthorUsername string    `json:"author_username"`
	CreatedAt      time.Time `json:"created_at"`
}

// Comment is a reply to a message.
type Comment struct {
	ID             int64     `json:"id" db:"id"`
	Body           string    `json:"body" db:"body"`
	OwnerID        int64     `json:"owner_id" db:"owner_id"`
	AuthorUsername string    `json:"author_username" db:"username"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	MessageID      int64     `json:"message_id" db:"message_id"`
}

// CommentSummary is a comment listed outside its thread.
type CommentSummary struct {
	Comment
	MessageTitle string `json:"message_title"`
}

// MessageDetail is everything shown for one message.
type MessageDetail struct {
	Message   Message       `json:"message"`
	Comments  Page[Comment] `json:"comments"`
	List      *List         `json:"list,omitempty"`
	Favorited bool          `json:"favorited"`
}

// MessageFilter narrows a message listing. Zero fields do not filter.
type MessageFilter struct {
	AuthorID    int64
	FavoritedBy int64
}
