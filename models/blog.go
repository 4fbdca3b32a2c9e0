package models

import "time"

// Blog is a post authored by exactly one user. Comments and reports live
// inside the blog and share its lifetime.
type Blog struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Image     string    `json:"image,omitempty"`
	Tags      []string  `json:"tags"`
	AuthorID  string    `json:"author_id"`
	Likes     []string  `json:"likes"`
	Comments  []Comment `json:"comments"`
	Reports   []Report  `json:"reports,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LikedBy reports whether userID is in the blog's likes.
func (b *Blog) LikedBy(userID string) bool {
	return Contains(b.Likes, userID)
}

// ReportedBy reports whether userID already filed a report on the blog.
func (b *Blog) ReportedBy(userID string) bool {
	for _, r := range b.Reports {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// Comment returns the comment with the given id, or nil.
func (b *Blog) Comment(id string) *Comment {
	for i := range b.Comments {
		if b.Comments[i].ID == id {
			return &b.Comments[i]
		}
	}
	return nil
}

// BlogPatch carries a partial update. Nil fields are left unchanged.
type BlogPatch struct {
	Title   *string
	Content *string
	Image   *string
	Tags    *[]string
}

// Empty reports whether the patch changes nothing.
func (p BlogPatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Image == nil && p.Tags == nil
}
