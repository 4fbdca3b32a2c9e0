package memstore

import (
	"context"
	"sort"

	"github.com/cppla/inkpress/models"
	"github.com/cppla/inkpress/store"
)

// UserStore implements store.UserStore.
type UserStore struct {
	db *DB
}

var _ store.UserStore = (*UserStore)(nil)

func (s *UserStore) Create(_ context.Context, user *models.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, u := range s.db.users {
		if u.Email == user.Email {
			return store.ErrDuplicate
		}
	}
	now := s.db.now()
	user.ID = newID()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Following = cloneStrings(user.Following)
	user.Followers = cloneStrings(user.Followers)
	user.SavedBlogs = cloneStrings(user.SavedBlogs)
	s.db.users[user.ID] = cloneUser(user)
	return nil
}

func (s *UserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	u, ok := s.db.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	for _, u := range s.db.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *UserStore) GetMany(_ context.Context, ids []string) ([]models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	out := make([]models.User, 0, len(ids))
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if u, ok := s.db.users[id]; ok {
			out = append(out, *cloneUser(u))
		}
	}
	return out, nil
}

func (s *UserStore) List(_ context.Context) ([]models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	out := make([]models.User, 0, len(s.db.users))
	for _, u := range s.db.users {
		out = append(out, *cloneUser(u))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *UserStore) UpdateProfile(_ context.Context, id string, name, passwordHash *string) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	u, ok := s.db.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if name != nil {
		u.Name = *name
	}
	if passwordHash != nil {
		u.PasswordHash = *passwordHash
	}
	u.UpdatedAt = s.db.now()
	return cloneUser(u), nil
}

func (s *UserStore) UpdateRole(_ context.Context, id string, role models.Role) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	u, ok := s.db.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = s.db.now()
	return cloneUser(u), nil
}

func (s *UserStore) Delete(_ context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.db.users, id)
	return nil
}

func (s *UserStore) Count(_ context.Context) (int64, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return int64(len(s.db.users)), nil
}

func (s *UserStore) ToggleSavedBlog(_ context.Context, userID, blogID string) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	u, ok := s.db.users[userID]
	if !ok {
		return false, store.ErrNotFound
	}
	if u.HasSaved(blogID) {
		u.SavedBlogs = models.Without(u.SavedBlogs, blogID)
		return false, nil
	}
	u.SavedBlogs = append(u.SavedBlogs, blogID)
	return true, nil
}

func (s *UserStore) ToggleFollowing(_ context.Context, followerID, targetID string) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	u, ok := s.db.users[followerID]
	if !ok {
		return false, store.ErrNotFound
	}
	if u.IsFollowing(targetID) {
		u.Following = models.Without(u.Following, targetID)
		return false, nil
	}
	u.Following = append(u.Following, targetID)
	return true, nil
}

func (s *UserStore) SetFollower(_ context.Context, targetID, followerID string, present bool) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	u, ok := s.db.users[targetID]
	if !ok {
		return store.ErrNotFound
	}
	has := models.Contains(u.Followers, followerID)
	switch {
	case present && !has:
		u.Followers = append(u.Followers, followerID)
	case !present && has:
		u.Followers = models.Without(u.Followers, followerID)
	}
	return nil
}

func (s *UserStore) PullSavedBlogs(_ context.Context, blogIDs []string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, u := range s.db.users {
		for _, id := range blogIDs {
			u.SavedBlogs = models.Without(u.SavedBlogs, id)
		}
	}
	return nil
}

func (s *UserStore) PullFollowEdges(_ context.Context, userID string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, u := range s.db.users {
		u.Following = models.Without(u.Following, userID)
		u.Followers = models.Without(u.Followers, userID)
	}
	return nil
}
