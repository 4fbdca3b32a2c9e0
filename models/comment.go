package models

import "time"

// Comment is a reply on a blog, ordered by creation.
type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Report is an advisory flag raised by a user against a blog.
type Report struct {
	UserID    string    `json:"user_id"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}
