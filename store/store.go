// Package store declares the persistence contracts for users and blogs.
// Implementations must make every toggle a single atomic mutation.
package store

import (
	"context"
	"errors"

	"github.com/cppla/inkpress/models"
)

var (
	// ErrNotFound is returned when the referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique field (email) is already taken.
	ErrDuplicate = errors.New("duplicate record")
	// ErrAlreadyReported is returned when the user already reported the blog.
	ErrAlreadyReported = errors.New("blog already reported by user")
)

// UserStore persists user records.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetMany returns the users found among ids, in no particular order.
	// Unknown ids are skipped.
	GetMany(ctx context.Context, ids []string) ([]models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateProfile(ctx context.Context, id string, name, passwordHash *string) (*models.User, error)
	UpdateRole(ctx context.Context, id string, role models.Role) (*models.User, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)

	// ToggleSavedBlog adds blogID to the user's saved list if absent or
	// removes it if present, and reports whether it is now saved.
	ToggleSavedBlog(ctx context.Context, userID, blogID string) (bool, error)
	// ToggleFollowing flips the follower's following entry for target and
	// reports whether follower now follows target.
	ToggleFollowing(ctx context.Context, followerID, targetID string) (bool, error)
	// SetFollower adds or removes followerID in target's followers. It is
	// idempotent in both directions.
	SetFollower(ctx context.Context, targetID, followerID string, present bool) error

	// PullSavedBlogs removes the blogs from every user's saved list.
	PullSavedBlogs(ctx context.Context, blogIDs []string) error
	// PullFollowEdges removes userID from every following/followers list.
	PullFollowEdges(ctx context.Context, userID string) error
}

// BlogFilter narrows blog listings. Zero values mean "no constraint".
// Results are ordered newest first.
type BlogFilter struct {
	Query    string
	Tag      string
	AuthorID string
	LikedBy  string
	Reported bool
}

// BlogStore persists blogs with their nested comments and reports.
type BlogStore interface {
	Create(ctx context.Context, blog *models.Blog) error
	GetByID(ctx context.Context, id string) (*models.Blog, error)
	// GetMany returns the blogs found among ids, newest first.
	GetMany(ctx context.Context, ids []string) ([]models.Blog, error)
	List(ctx context.Context, filter BlogFilter) ([]models.Blog, error)
	Update(ctx context.Context, id string, patch models.BlogPatch) (*models.Blog, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, filter BlogFilter) (int64, error)

	// ToggleLike flips userID's like and returns the updated blog and
	// whether the user now likes it.
	ToggleLike(ctx context.Context, blogID, userID string) (*models.Blog, bool, error)
	AddComment(ctx context.Context, blogID string, comment models.Comment) (*models.Blog, error)
	UpdateComment(ctx context.Context, blogID, commentID, text string) (*models.Blog, error)
	DeleteComment(ctx context.Context, blogID, commentID string) (*models.Blog, error)
	// AddReport appends the report unless report.UserID already reported
	// the blog, in which case ErrAlreadyReported is returned.
	AddReport(ctx context.Context, blogID string, report models.Report) error

	// DeleteByAuthor removes every blog written by authorID and returns
	// their ids.
	DeleteByAuthor(ctx context.Context, authorID string) ([]string, error)
	// PurgeUser removes userID's likes, comments and reports from all blogs.
	PurgeUser(ctx context.Context, userID string) error
}
