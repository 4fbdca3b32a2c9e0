// Package memstore keeps users and blogs in process memory. It backs the
// "memory" store driver and the service/router tests.
package memstore

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cppla/inkpress/models"
	"github.com/cppla/inkpress/store"
)

// DB holds both collections behind one lock so cascades stay consistent.
type DB struct {
	mu    sync.RWMutex
	users map[string]*models.User
	blogs map[string]*models.Blog
	clock func() time.Time
	last  time.Time
}

// New returns an empty database.
func New() *DB {
	return &DB{
		users: map[string]*models.User{},
		blogs: map[string]*models.Blog{},
		clock: time.Now,
	}
}

// now returns a strictly increasing timestamp so creation order is total.
// Callers hold the write lock.
func (db *DB) now() time.Time {
	t := db.clock()
	if !t.After(db.last) {
		t = db.last.Add(time.Nanosecond)
	}
	db.last = t
	return t
}

// Users returns the credential store view of db.
func (db *DB) Users() store.UserStore { return &UserStore{db: db} }

// Blogs returns the content store view of db.
func (db *DB) Blogs() store.BlogStore { return &BlogStore{db: db} }

func newID() string { return uuid.NewString() }

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Following = cloneStrings(u.Following)
	c.Followers = cloneStrings(u.Followers)
	c.SavedBlogs = cloneStrings(u.SavedBlogs)
	return &c
}

func cloneBlog(b *models.Blog) *models.Blog {
	c := *b
	c.Tags = cloneStrings(b.Tags)
	c.Likes = cloneStrings(b.Likes)
	c.Comments = append([]models.Comment{}, b.Comments...)
	c.Reports = append([]models.Report{}, b.Reports...)
	return &c
}

func newestFirst(blogs []models.Blog) {
	sort.SliceStable(blogs, func(i, j int) bool {
		return blogs[i].CreatedAt.After(blogs[j].CreatedAt)
	})
}

func matches(b *models.Blog, f store.BlogFilter) bool {
	if f.AuthorID != "" && b.AuthorID != f.AuthorID {
		return false
	}
	if f.LikedBy != "" && !b.LikedBy(f.LikedBy) {
		return false
	}
	if f.Reported && len(b.Reports) == 0 {
		return false
	}
	if f.Tag != "" && !models.Contains(b.Tags, f.Tag) {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(b.Title), q) && !strings.Contains(strings.ToLower(b.Content), q) {
			return false
		}
	}
	return true
}
