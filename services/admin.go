package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/cppla/inkpress/apperr"
	"github.com/cppla/inkpress/models"
	"github.com/cppla/inkpress/store"
)

// AdminService backs the moderation endpoints. Every method requires an
// admin caller.
type AdminService struct {
	users store.UserStore
	blogs store.BlogStore
	posts *BlogService
	view  viewer
	log   *zap.Logger
}

// NewAdminService creates an AdminService. Blog edits and deletes go
// through posts so the same rules and side effects apply.
func NewAdminService(users store.UserStore, blogs store.BlogStore, posts *BlogService, log *zap.Logger) *AdminService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminService{users: users, blogs: blogs, posts: posts, view: viewer{users: users}, log: log}
}

func requireAdmin(caller *models.User) error {
	if err := requireIdentity(caller); err != nil {
		return err
	}
	if !caller.IsAdmin() {
		return apperr.Forbiddenf(40301, "admin access required")
	}
	return nil
}

func (s *AdminService) ListUsers(ctx context.Context, caller *models.User) ([]models.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(err, 50005, "failed to load users")
	}
	return users, nil
}

// DeleteUser removes the user and everything that references them: their
// blogs, their likes, comments and reports on other blogs, their follow
// edges, and saved entries pointing at their blogs.
func (s *AdminService) DeleteUser(ctx context.Context, caller *models.User, userID string) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if caller.ID == userID {
		return apperr.Invalidf(40007, "you cannot delete your own account")
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return storeErr(err, errUserNotFound, "failed to load user")
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return storeErr(err, errUserNotFound, "failed to delete user")
	}

	log := s.log.With(zap.String("user_id", userID))
	authored, err := s.blogs.List(ctx, store.BlogFilter{AuthorID: userID})
	if err != nil {
		log.Error("list blogs of removed user", zap.Error(err))
		return apperr.Wrap(err, 50006, "failed to clean up user content")
	}
	blogIDs, err := s.blogs.DeleteByAuthor(ctx, userID)
	if err != nil {
		log.Error("delete blogs of removed user", zap.Error(err))
		return apperr.Wrap(err, 50006, "failed to clean up user content")
	}
	if err := s.blogs.PurgeUser(ctx, userID); err != nil {
		log.Error("purge activity of removed user", zap.Error(err))
		return apperr.Wrap(err, 50006, "failed to clean up user content")
	}
	if err := s.users.PullFollowEdges(ctx, userID); err != nil {
		log.Error("pull follow edges of removed user", zap.Error(err))
		return apperr.Wrap(err, 50006, "failed to clean up user content")
	}
	if len(blogIDs) > 0 {
		if err := s.users.PullSavedBlogs(ctx, blogIDs); err != nil {
			log.Error("pull saved blogs of removed user", zap.Error(err))
			return apperr.Wrap(err, 50006, "failed to clean up user content")
		}
	}
	images := make([]string, 0, len(authored))
	for _, b := range authored {
		images = append(images, b.Image)
	}
	s.posts.discardImages(ctx, images...)
	log.Info("user deleted", zap.String("by", caller.ID), zap.Int("blogs", len(blogIDs)))
	return nil
}

// SetRole changes a user's role to "user" or "admin".
func (s *AdminService) SetRole(ctx context.Context, caller *models.User, userID string, role models.Role) (*models.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperr.Invalidf(40006, "role must be user or admin")
	}
	user, err := s.users.UpdateRole(ctx, userID, role)
	if err != nil {
		return nil, storeErr(err, errUserNotFound, "failed to update role")
	}
	return user, nil
}

// ReportedBlogs lists blogs with at least one report, reporters expanded.
func (s *AdminService) ReportedBlogs(ctx context.Context, caller *models.User) ([]models.BlogView, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	blogs, err := s.blogs.List(ctx, store.BlogFilter{Reported: true})
	if err != nil {
		return nil, apperr.Wrap(err, 50004, "failed to load blogs")
	}
	return s.view.blogs(ctx, blogs, true)
}

// UpdateBlog edits any blog's title and content.
func (s *AdminService) UpdateBlog(ctx context.Context, caller *models.User, blogID string, title, content *string) (*models.BlogView, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return s.posts.Update(ctx, caller, blogID, models.BlogPatch{Title: title, Content: content})
}

func (s *AdminService) DeleteBlog(ctx context.Context, caller *models.User, blogID string) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	return s.posts.Delete(ctx, caller, blogID)
}

// Stats returns dashboard counters.
func (s *AdminService) Stats(ctx context.Context, caller *models.User) (*models.Stats, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	var st models.Stats
	var err error
	if st.Users, err = s.users.Count(ctx); err != nil {
		return nil, apperr.Wrap(err, 50007, "failed to count users")
	}
	if st.Blogs, err = s.blogs.Count(ctx, store.BlogFilter{}); err != nil {
		return nil, apperr.Wrap(err, 50007, "failed to count blogs")
	}
	if st.ReportedBlogs, err = s.blogs.Count(ctx, store.BlogFilter{Reported: true}); err != nil {
		return nil, apperr.Wrap(err, 50007, "failed to count blogs")
	}
	return &st, nil
}
