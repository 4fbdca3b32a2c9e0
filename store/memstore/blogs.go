package memstore

import (
	"context"

	"github.com/cppla/inkpress/models"
	"github.com/cppla/inkpress/store"
)

// BlogStore implements store.BlogStore.
type BlogStore struct {
	db *DB
}

var _ store.BlogStore = (*BlogStore)(nil)

func (s *BlogStore) Create(_ context.Context, blog *models.Blog) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	now := s.db.now()
	blog.ID = newID()
	blog.CreatedAt = now
	blog.UpdatedAt = now
	blog.Tags = cloneStrings(blog.Tags)
	blog.Likes = cloneStrings(blog.Likes)
	if blog.Comments == nil {
		blog.Comments = []models.Comment{}
	}
	s.db.blogs[blog.ID] = cloneBlog(blog)
	return nil
}

func (s *BlogStore) GetByID(_ context.Context, id string) (*models.Blog, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	b, ok := s.db.blogs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneBlog(b), nil
}

func (s *BlogStore) GetMany(_ context.Context, ids []string) ([]models.Blog, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	out := make([]models.Blog, 0, len(ids))
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if b, ok := s.db.blogs[id]; ok {
			out = append(out, *cloneBlog(b))
		}
	}
	newestFirst(out)
	return out, nil
}

func (s *BlogStore) List(_ context.Context, filter store.BlogFilter) ([]models.Blog, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	out := []models.Blog{}
	for _, b := range s.db.blogs {
		if matches(b, filter) {
			out = append(out, *cloneBlog(b))
		}
	}
	newestFirst(out)
	return out, nil
}

func (s *BlogStore) Update(_ context.Context, id string, patch models.BlogPatch) (*models.Blog, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	b, ok := s.db.blogs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if patch.Title != nil {
		b.Title = *patch.Title
	}
	if patch.Content != nil {
		b.Content = *patch.Content
	}
	if patch.Image != nil {
		b.Image = *patch.Image
	}
	if patch.Tags != nil {
		b.Tags = cloneStrings(*patch.Tags)
	}
	b.UpdatedAt = s.db.now()
	return cloneBlog(b), nil
}

func (s *BlogStore) Delete(_ context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.blogs[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.db.blogs, id)
	return nil
}

func (s *BlogStore) Count(_ context.Context, filter store.BlogFilter) (int64, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	var n int64
	for _, b := range s.db.blogs {
		if matches(b, filter) {
			n++
		}
	}
	return n, nil
}

func (s *BlogStore) ToggleLike(_ context.Context, blogID, userID string) (*models.Blog, bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	b, ok := s.db.blogs[blogID]
	if !ok {
		return nil, false, store.ErrNotFound
	}
	liked := !b.LikedBy(userID)
	if liked {
		b.Likes = append(b.Likes, userID)
	} else {
		b.Likes = models.Without(b.Likes, userID)
	}
	return cloneBlog(b), liked, nil
}

func (s *BlogStore) AddComment(_ context.Context, blogID string, comment models.Comment) (*models.Blog, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	b, ok := s.db.blogs[blogID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if comment.ID == "" {
		comment.ID = newID()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = s.db.now()
	}
	b.Comments = append(b.Comments, comment)
	return cloneBlog(b), nil
}

func (s *BlogStore) UpdateComment(_ context.Context, blogID, commentID, text string) (*models.Blog, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	b, ok := s.db.blogs[blogID]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := b.Comment(commentID)
	if c == nil {
		return nil, store.ErrNotFound
	}
	c.Text = text
	return cloneBlog(b), nil
}

func (s *BlogStore) DeleteComment(_ context.Context, blogID, commentID string) (*models.Blog, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	b, ok := s.db.blogs[blogID]
	if !ok {
		return nil, store.ErrNotFound
	}
	kept := make([]models.Comment, 0, len(b.Comments))
	found := false
	for _, c := range b.Comments {
		if c.ID == commentID {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return nil, store.ErrNotFound
	}
	b.Comments = kept
	return cloneBlog(b), nil
}

func (s *BlogStore) AddReport(_ context.Context, blogID string, report models.Report) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	b, ok := s.db.blogs[blogID]
	if !ok {
		return store.ErrNotFound
	}
	if b.ReportedBy(report.UserID) {
		return store.ErrAlreadyReported
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = s.db.now()
	}
	b.Reports = append(b.Reports, report)
	return nil
}

func (s *BlogStore) DeleteByAuthor(_ context.Context, authorID string) ([]string, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	ids := []string{}
	for id, b := range s.db.blogs {
		if b.AuthorID == authorID {
			ids = append(ids, id)
			delete(s.db.blogs, id)
		}
	}
	return ids, nil
}

func (s *BlogStore) PurgeUser(_ context.Context, userID string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, b := range s.db.blogs {
		b.Likes = models.Without(b.Likes, userID)
		comments := make([]models.Comment, 0, len(b.Comments))
		for _, c := range b.Comments {
			if c.UserID != userID {
				comments = append(comments, c)
			}
		}
		b.Comments = comments
		reports := make([]models.Report, 0, len(b.Reports))
		for _, r := range b.Reports {
			if r.UserID != userID {
				reports = append(reports, r)
			}
		}
		b.Reports = reports
	}
	return nil
}
