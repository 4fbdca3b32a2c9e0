package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/inkpress/apperr"
	"github.com/cppla/inkpress/events"
	"github.com/cppla/inkpress/models"
	"github.com/cppla/inkpress/services"
)

func ptr[T any](v T) *T { return &v }

func TestCreateBlog(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	alice := e.user(t, "alice", models.RoleUser)

	v, err := e.posts.Create(ctx, alice, services.BlogInput{
		Title:   "  <b>Hello</b> ",
		Content: `<p>hi</p><script>alert(1)</script>`,
		Tags:    []string{" go ", "", "go", "web"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello", v.Title)
	assert.Equal(t, "<p>hi</p>", v.Content)
	assert.Equal(t, []string{"go", "web"}, v.Tags)
	require.NotNil(t, v.Author)
	assert.Equal(t, "alice", v.Author.Name)
	assert.Equal(t, models.RoleUser, v.Author.Role)
	assert.Empty(t, v.Likes)
	assert.NotNil(t, v.Likes)
	assert.NotNil(t, v.Comments)
	assert.Equal(t, []string{events.SubjectBlogCreated}, e.pub.subjects())

	_, err = e.posts.Create(ctx, alice, services.BlogInput{Title: "t", Content: "<script></script>"})
	requireKind(t, err, apperr.InvalidInput, 40002)

	_, err = e.posts.Create(ctx, nil, services.BlogInput{Title: "t", Content: "c"})
	requireKind(t, err, apperr.Unauthenticated, 40101)
}

func TestGetBlogNotFound(t *testing.T) {
	_, err := newEnv(t).posts.Get(context.Background(), "missing")
	requireKind(t, err, apperr.NotFound, 40401)
}

func TestUpdateBlogOwnership(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	alice := e.user(t, "alice", models.RoleUser)
	bob := e.user(t, "bob", models.RoleUser)
	admin := e.user(t, "root", models.RoleAdmin)
	b := e.blog(t, alice, "first")

	_, err := e.posts.Update(ctx, bob, b.ID, models.BlogPatch{Title: ptr("hijacked")})
	requireKind(t, err, apperr.Forbidden, 40302)
	got, err := e.posts.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)

	err = e.posts.Delete(ctx, bob, b.ID)
	requireKind(t, err, apperr.Forbidden, 40302)

	v, err := e.posts.Update(ctx, alice, b.ID, models.BlogPatch{Title: ptr("renamed")})
	require.NoError(t, err)
	assert.Equal(t, "renamed", v.Title)
	assert.Equal(t, "body of first", v.Content)

	v, err = e.posts.Update(ctx, admin, b.ID, models.BlogPatch{Content: ptr("moderated")})
	require.NoError(t, err)
	assert.Equal(t, "renamed", v.Title)
	assert.Equal(t, "moderated", v.Content)

	_, err = e.posts.Update(ctx, alice, b.ID, models.BlogPatch{Title: ptr("   ")})
	requireKind(t, err, apperr.InvalidInput, 40002)

	v, err = e.posts.Update(ctx, alice, b.ID, models.BlogPatch{})
	require.NoError(t, err)
	assert.Equal(t, "renamed", v.Title)
}

func TestDeleteBlogPullsSavedEntries(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	alice := e.user(t, "alice", models.RoleUser)
	bob := e.user(t, "bob", models.RoleUser)
	b := e.blog(t, alice, "first")

	saved, err := e.posts.ToggleSave(ctx, bob, b.ID)
	require.NoError(t, err)
	require.True(t, saved)

	require.NoError(t, e.posts.Delete(ctx, alice, b.ID))
	_, err = e.posts.Get(ctx, b.ID)
	requireKind(t, err, apperr.NotFound, 40401)
	assert.Empty(t, e.reload(t, bob).SavedBlogs)

	list, err := e.posts.ListSaved(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestToggleLike(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	alice := e.user(t, "alice", models.RoleUser)
	bob := e.user(t, "bob", models.RoleUser)
	b := e.blog(t, alice, "first")

	v, liked, err := e.posts.ToggleLike(ctx, bob, b.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, []string{bob.ID}, v.Likes)

	v, liked, err = e.posts.ToggleLike(ctx, bob, b.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Empty(t, v.Likes)

	_, _, err = e.posts.ToggleLike(ctx, bob, "missing")
	requireKind(t, err, apperr.NotFound, 40401)

	assert.Equal(t, []string{events.SubjectBlogCreated, events.SubjectBlogLiked, events.SubjectBlogLiked}, e.pub.subjects())
}

func TestComments(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	alice := e.user(t, "alice", models.RoleUser)
	bob := e.user(t, "bob", models.RoleUser)
	admin := e.user(t, "root", models.RoleAdmin)
	b := e.blog(t, alice, "first")

	v, err := e.posts.AddComment(ctx, bob, b.ID, "  nice <i>post</i> ")
	require.NoError(t, err)
	require.Len(t, v.Comments, 1)
	c := v.Comments[0]
	assert.Equal(t, "nice post", c.Text)
	require.NotNil(t, c.User)
	assert.Equal(t, "bob", c.User.Name)

	_, err = e.posts.AddComment(ctx, bob, b.ID, "   ")
	requireKind(t, err, apperr.InvalidInput, 40003)
	_, err = e.posts.AddComment(ctx, bob, "missing", "hi")
	requireKind(t, err, apperr.NotFound, 40401)

	// The blog author does not own other people's comments.
	_, err = e.posts.EditComment(ctx, alice, b.ID, c.ID, "edited")
	requireKind(t, err, apperr.Forbidden, 40303)

	v, err = e.posts.EditComment(ctx, bob, b.ID, c.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", v.Comments[0].Text)

	_, err = e.posts.EditComment(ctx, bob, b.ID, "missing", "x")
	requireKind(t, err, apperr.NotFound, 40402)

	v, err = e.posts.DeleteComment(ctx, admin, b.ID, c.ID)
	require.NoError(t, err)
	assert.Empty(t, v.Comments)
}

func TestReport(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	alice := e.user(t, "alice", models.RoleUser)
	bob := e.user(t, "bob", models.RoleUser)
	b := e.blog(t, alice, "first")

	require.NoError(t, e.posts.Report(ctx, bob, b.ID, "spam"))
	err := e.posts.Report(ctx, bob, b.ID, "more spam")
	requireKind(t, err, apperr.Conflict, 40902)

	stored, err := e.blogs.GetByID(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, stored.Reports, 1)
	assert.Equal(t, "spam", stored.Reports[0].Reason)

	err = e.posts.Report(ctx, bob, b.ID, "  ")
	requireKind(t, err, apperr.InvalidInput, 40004)
	err = e.posts.Report(ctx, bob, "missing", "spam")
	requireKind(t, err, apperr.NotFound, 40401)

	assert.Contains(t, e.pub.subjects(), events.SubjectBlogReported)
}

func TestSearchAndMine(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	alice := e.user(t, "alice", models.RoleUser)
	bob := e.user(t, "bob", models.RoleUser)

	_, err := e.posts.Create(ctx, alice, services.BlogInput{Title: "Go tips", Content: "channels", Tags: []string{"go"}})
	require.NoError(t, err)
	_, err = e.posts.Create(ctx, bob, services.BlogInput{Title: "Rust", Content: "a.b* literal", Tags: []string{"rust"}})
	require.NoError(t, err)

	got, err := e.posts.Search(ctx, "GO", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Go tips", got[0].Title)

	got, err = e.posts.Search(ctx, "a.b*", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Rust", got[0].Title)

	got, err = e.posts.Search(ctx, "", "rust")
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = e.posts.ListMine(ctx, alice)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, alice.ID, got[0].Author.ID)

	all, err := e.posts.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Rust", all[0].Title, "newest first")
}

func TestBlogImagesAreRemoved(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	alice := e.user(t, "alice", models.RoleUser)

	v, err := e.posts.Create(ctx, alice, services.BlogInput{Title: "t", Content: "c", Image: "http://cdn/a.png"})
	require.NoError(t, err)

	_, err = e.posts.Update(ctx, alice, v.ID, models.BlogPatch{Title: ptr("same image")})
	require.NoError(t, err)
	assert.Empty(t, e.images.removed(), "unchanged image is kept")

	_, err = e.posts.Update(ctx, alice, v.ID, models.BlogPatch{Image: ptr("http://cdn/b.png")})
	require.NoError(t, err)
	assert.Equal(t, []string{"http://cdn/a.png"}, e.images.removed())

	require.NoError(t, e.posts.Delete(ctx, alice, v.ID))
	assert.Equal(t, []string{"http://cdn/a.png", "http://cdn/b.png"}, e.images.removed())

	plain := e.blog(t, alice, "no image")
	require.NoError(t, e.posts.Delete(ctx, alice, plain.ID))
	assert.Len(t, e.images.removed(), 2)
}
