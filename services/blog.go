package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/inkpress/apperr"
	"github.com/cppla/inkpress/events"
	"github.com/cppla/inkpress/models"
	"github.com/cppla/inkpress/store"
	"github.com/cppla/inkpress/utils"
)

// BlogService handles blogs and everything nested in them.
type BlogService struct {
	blogs  store.BlogStore
	users  store.UserStore
	images ImageRemover
	view   viewer
	events events.Publisher
	log    *zap.Logger
	now    func() time.Time
}

// ImageRemover deletes an uploaded blog image by its public URL. URLs it
// does not own are ignored.
type ImageRemover interface {
	Remove(ctx context.Context, url string) error
}

// NewBlogService creates a BlogService. images, pub and log may be nil.
func NewBlogService(blogs store.BlogStore, users store.UserStore, images ImageRemover, pub events.Publisher, log *zap.Logger) *BlogService {
	if pub == nil {
		pub = events.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &BlogService{
		blogs:  blogs,
		users:  users,
		images: images,
		view:   viewer{users: users},
		events: pub,
		log:    log,
		now:    time.Now,
	}
}

// BlogInput holds the fields of a new blog.
type BlogInput struct {
	Title   string
	Content string
	Image   string
	Tags    []string
}

// cleanTags trims tags and drops blanks and repeats.
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, strings.TrimSpace(t))
	}
	return utils.UniqueStrings(out)
}

func (s *BlogService) Create(ctx context.Context, caller *models.User, in BlogInput) (*models.BlogView, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}
	title := utils.SanitizePlain(in.Title)
	content := strings.TrimSpace(utils.Sanitize(in.Content))
	if title == "" || content == "" {
		return nil, apperr.Invalidf(40002, "title and content are required")
	}
	blog := &models.Blog{
		Title:    title,
		Content:  content,
		Image:    strings.TrimSpace(in.Image),
		Tags:     cleanTags(in.Tags),
		AuthorID: caller.ID,
		Likes:    []string{},
		Comments: []models.Comment{},
	}
	if err := s.blogs.Create(ctx, blog); err != nil {
		return nil, apperr.Wrap(err, 50003, "failed to create blog")
	}
	s.events.Publish(ctx, events.SubjectBlogCreated, events.BlogCreated{
		BlogID:    blog.ID,
		AuthorID:  blog.AuthorID,
		Title:     blog.Title,
		Tags:      blog.Tags,
		Timestamp: blog.CreatedAt,
	})
	return s.view.blog(ctx, blog)
}

// List returns every blog, newest first.
func (s *BlogService) List(ctx context.Context) ([]models.BlogView, error) {
	return s.list(ctx, store.BlogFilter{})
}

func (s *BlogService) Get(ctx context.Context, id string) (*models.BlogView, error) {
	blog, err := s.blogs.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, errBlogNotFound, "failed to load blog")
	}
	return s.view.blog(ctx, blog)
}

// Search matches query as a case-insensitive literal against title and
// content, and tag exactly against the blog's tags. Both are optional.
func (s *BlogService) Search(ctx context.Context, query, tag string) ([]models.BlogView, error) {
	return s.list(ctx, store.BlogFilter{
		Query: strings.TrimSpace(query),
		Tag:   strings.TrimSpace(tag),
	})
}

// ListMine returns the caller's own blogs.
func (s *BlogService) ListMine(ctx context.Context, caller *models.User) ([]models.BlogView, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}
	return s.list(ctx, store.BlogFilter{AuthorID: caller.ID})
}

// ListSaved returns the blogs in the caller's saved list.
func (s *BlogService) ListSaved(ctx context.Context, caller *models.User) ([]models.BlogView, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}
	// Reload so the list reflects saves made after the token was checked.
	user, err := s.users.GetByID(ctx, caller.ID)
	if err != nil {
		return nil, storeErr(err, errUserNotFound, "failed to load user")
	}
	blogs, err := s.blogs.GetMany(ctx, user.SavedBlogs)
	if err != nil {
		return nil, apperr.Wrap(err, 50004, "failed to load blogs")
	}
	return s.view.blogs(ctx, blogs, false)
}

func (s *BlogService) list(ctx context.Context, filter store.BlogFilter) ([]models.BlogView, error) {
	blogs, err := s.blogs.List(ctx, filter)
	if err != nil {
		return nil, apperr.Wrap(err, 50004, "failed to load blogs")
	}
	return s.view.blogs(ctx, blogs, false)
}

// load fetches a blog and checks the caller may modify it.
func (s *BlogService) load(ctx context.Context, caller *models.User, id string) (*models.Blog, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}
	blog, err := s.blogs.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, errBlogNotFound, "failed to load blog")
	}
	if !CanModify(caller, blog.AuthorID) {
		return nil, apperr.Forbiddenf(40302, "only the author or an admin can modify this blog")
	}
	return blog, nil
}

// Update applies a partial update. Nil patch fields are left unchanged.
func (s *BlogService) Update(ctx context.Context, caller *models.User, id string, patch models.BlogPatch) (*models.BlogView, error) {
	blog, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		t := utils.SanitizePlain(*patch.Title)
		if t == "" {
			return nil, apperr.Invalidf(40002, "title cannot be blank")
		}
		patch.Title = &t
	}
	if patch.Content != nil {
		c := strings.TrimSpace(utils.Sanitize(*patch.Content))
		if c == "" {
			return nil, apperr.Invalidf(40002, "content cannot be blank")
		}
		patch.Content = &c
	}
	if patch.Image != nil {
		img := strings.TrimSpace(*patch.Image)
		patch.Image = &img
	}
	if patch.Tags != nil {
		tags := cleanTags(*patch.Tags)
		patch.Tags = &tags
	}
	if patch.Empty() {
		return s.view.blog(ctx, blog)
	}
	updated, err := s.blogs.Update(ctx, blog.ID, patch)
	if err != nil {
		return nil, storeErr(err, errBlogNotFound, "failed to update blog")
	}
	if blog.Image != updated.Image {
		s.discardImages(ctx, blog.Image)
	}
	return s.view.blog(ctx, updated)
}

// Delete removes the blog and pulls it from every saved list.
func (s *BlogService) Delete(ctx context.Context, caller *models.User, id string) error {
	blog, err := s.load(ctx, caller, id)
	if err != nil {
		return err
	}
	if err := s.blogs.Delete(ctx, blog.ID); err != nil {
		return storeErr(err, errBlogNotFound, "failed to delete blog")
	}
	if err := s.users.PullSavedBlogs(ctx, []string{blog.ID}); err != nil {
		// The blog is already gone; stale saved entries are skipped on read.
		s.log.Error("pull deleted blog from saved lists", zap.String("blog_id", blog.ID), zap.Error(err))
	}
	s.discardImages(ctx, blog.Image)
	return nil
}

// discardImages removes images no blog refers to any more. Failures only
// leave an orphaned object behind and are logged.
func (s *BlogService) discardImages(ctx context.Context, urls ...string) {
	if s.images == nil {
		return
	}
	for _, url := range urls {
		if url == "" {
			continue
		}
		if err := s.images.Remove(ctx, url); err != nil {
			s.log.Warn("remove blog image", zap.String("url", url), zap.Error(err))
		}
	}
}

// ToggleLike likes the blog if the caller has not, otherwise unlikes it.
func (s *BlogService) ToggleLike(ctx context.Context, caller *models.User, id string) (*models.BlogView, bool, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, false, err
	}
	blog, liked, err := s.blogs.ToggleLike(ctx, id, caller.ID)
	if err != nil {
		return nil, false, storeErr(err, errBlogNotFound, "failed to update likes")
	}
	s.events.Publish(ctx, events.SubjectBlogLiked, events.BlogLiked{
		BlogID:    blog.ID,
		UserID:    caller.ID,
		Liked:     liked,
		Likes:     len(blog.Likes),
		Timestamp: s.now().UTC(),
	})
	view, err := s.view.blog(ctx, blog)
	if err != nil {
		return nil, false, err
	}
	return view, liked, nil
}

func (s *BlogService) AddComment(ctx context.Context, caller *models.User, id, text string) (*models.BlogView, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}
	text = utils.SanitizePlain(text)
	if text == "" {
		return nil, apperr.Invalidf(40003, "comment text is required")
	}
	blog, err := s.blogs.AddComment(ctx, id, models.Comment{
		UserID:    caller.ID,
		Text:      text,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, storeErr(err, errBlogNotFound, "failed to add comment")
	}
	return s.view.blog(ctx, blog)
}

// loadComment fetches the blog and checks the caller may modify the comment.
func (s *BlogService) loadComment(ctx context.Context, caller *models.User, blogID, commentID string) error {
	if err := requireIdentity(caller); err != nil {
		return err
	}
	blog, err := s.blogs.GetByID(ctx, blogID)
	if err != nil {
		return storeErr(err, errBlogNotFound, "failed to load blog")
	}
	comment := blog.Comment(commentID)
	if comment == nil {
		return errCommentNotFound()
	}
	if !CanModify(caller, comment.UserID) {
		return apperr.Forbiddenf(40303, "only the commenter or an admin can modify this comment")
	}
	return nil
}

func (s *BlogService) EditComment(ctx context.Context, caller *models.User, blogID, commentID, text string) (*models.BlogView, error) {
	if err := s.loadComment(ctx, caller, blogID, commentID); err != nil {
		return nil, err
	}
	text = utils.SanitizePlain(text)
	if text == "" {
		return nil, apperr.Invalidf(40003, "comment text is required")
	}
	blog, err := s.blogs.UpdateComment(ctx, blogID, commentID, text)
	if err != nil {
		return nil, storeErr(err, errCommentNotFound, "failed to update comment")
	}
	return s.view.blog(ctx, blog)
}

func (s *BlogService) DeleteComment(ctx context.Context, caller *models.User, blogID, commentID string) (*models.BlogView, error) {
	if err := s.loadComment(ctx, caller, blogID, commentID); err != nil {
		return nil, err
	}
	blog, err := s.blogs.DeleteComment(ctx, blogID, commentID)
	if err != nil {
		return nil, storeErr(err, errCommentNotFound, "failed to delete comment")
	}
	return s.view.blog(ctx, blog)
}

// ToggleSave adds the blog to the caller's saved list or removes it.
func (s *BlogService) ToggleSave(ctx context.Context, caller *models.User, id string) (bool, error) {
	if err := requireIdentity(caller); err != nil {
		return false, err
	}
	if _, err := s.blogs.GetByID(ctx, id); err != nil {
		return false, storeErr(err, errBlogNotFound, "failed to load blog")
	}
	saved, err := s.users.ToggleSavedBlog(ctx, caller.ID, id)
	if err != nil {
		return false, storeErr(err, errUserNotFound, "failed to update saved blogs")
	}
	return saved, nil
}

// Report files the caller's report against the blog. A second report by
// the same user is a conflict.
func (s *BlogService) Report(ctx context.Context, caller *models.User, id, reason string) error {
	if err := requireIdentity(caller); err != nil {
		return err
	}
	reason = utils.SanitizePlain(reason)
	if reason == "" {
		return apperr.Invalidf(40004, "report reason is required")
	}
	report := models.Report{UserID: caller.ID, Reason: reason, CreatedAt: s.now().UTC()}
	err := s.blogs.AddReport(ctx, id, report)
	switch {
	case errors.Is(err, store.ErrAlreadyReported):
		return apperr.Conflictf(40902, "you have already reported this blog")
	case err != nil:
		return storeErr(err, errBlogNotFound, "failed to report blog")
	}
	s.events.Publish(ctx, events.SubjectBlogReported, events.BlogReported{
		BlogID:    id,
		UserID:    caller.ID,
		Reason:    reason,
		Timestamp: report.CreatedAt,
	})
	return nil
}
