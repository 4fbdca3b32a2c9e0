package models

import "time"

// UserSummary is the minimal public projection of a user.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Account is a user's public identity including role. It is used for blog
// authors and the login response.
type Account struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// CommentView is a comment with its author expanded. User is nil when the
// author no longer exists.
type CommentView struct {
	ID        string       `json:"id"`
	User      *UserSummary `json:"user"`
	Text      string       `json:"text"`
	CreatedAt time.Time    `json:"created_at"`
}

// ReportView is a report with the reporting user expanded.
type ReportView struct {
	User      *UserSummary `json:"user"`
	Reason    string       `json:"reason"`
	CreatedAt time.Time    `json:"created_at"`
}

// BlogView is the display form of a blog. Reports are only filled for
// admin listings.
type BlogView struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	Image     string        `json:"image,omitempty"`
	Tags      []string      `json:"tags"`
	Author    *Account      `json:"author"`
	Likes     []string      `json:"likes"`
	Comments  []CommentView `json:"comments"`
	Reports   []ReportView  `json:"reports,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// ProfileUser is the user block of a profile page.
type ProfileUser struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Followers []UserSummary `json:"followers"`
	Following []UserSummary `json:"following"`
}

// Profile aggregates a user with their authored, liked and saved blogs.
type Profile struct {
	User       ProfileUser `json:"user"`
	Blogs      []BlogView  `json:"blogs"`
	LikedBlogs []BlogView  `json:"liked_blogs"`
	SavedBlogs []BlogView  `json:"saved_blogs"`
}

// Stats are the headline counters shown on the admin dashboard.
type Stats struct {
	Users         int64 `json:"users"`
	Blogs         int64 `json:"blogs"`
	ReportedBlogs int64 `json:"reported_blogs"`
}
