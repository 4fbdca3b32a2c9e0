// Package storetest is a conformance suite every store implementation runs
// from its own tests.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/inkpress/models"
	"github.com/cppla/inkpress/store"
)

// Factory returns empty stores for one subtest.
type Factory func(t *testing.T) (store.UserStore, store.BlogStore)

// Run executes the suite.
func Run(t *testing.T, newStores Factory) {
	tests := map[string]func(*testing.T, store.UserStore, store.BlogStore){
		"users":            testUsers,
		"blogs":            testBlogs,
		"filters":          testFilters,
		"like toggle":      testToggleLike,
		"concurrent likes": testConcurrentLikes,
		"saved and follow": testSavedAndFollow,
		"comments":         testComments,
		"reports":          testReports,
		"purge user":       testPurgeUser,
	}
	for name, fn := range tests {
		t.Run(name, func(t *testing.T) {
			users, blogs := newStores(t)
			fn(t, users, blogs)
		})
	}
}

func newUser(t *testing.T, users store.UserStore, email string) *models.User {
	t.Helper()
	u := &models.User{Name: email, Email: email, PasswordHash: "hash", Role: models.RoleUser}
	require.NoError(t, users.Create(context.Background(), u))
	require.NotEmpty(t, u.ID)
	return u
}

func newBlog(t *testing.T, blogs store.BlogStore, author, title string, tags ...string) *models.Blog {
	t.Helper()
	b := &models.Blog{Title: title, Content: "content of " + title, Tags: tags, AuthorID: author}
	require.NoError(t, blogs.Create(context.Background(), b))
	require.NotEmpty(t, b.ID)
	// Distinct creation times keep newest-first ordering deterministic.
	time.Sleep(2 * time.Millisecond)
	return b
}

func ids(blogs []models.Blog) []string {
	out := make([]string, 0, len(blogs))
	for _, b := range blogs {
		out = append(out, b.ID)
	}
	return out
}

func testUsers(t *testing.T, users store.UserStore, _ store.BlogStore) {
	ctx := context.Background()
	u := newUser(t, users, "a@x.com")

	err := users.Create(ctx, &models.User{Name: "dup", Email: "a@x.com", Role: models.RoleUser})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	got, err := users.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)

	_, err = users.GetByEmail(ctx, "missing@x.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = users.GetByID(ctx, "not-an-id")
	assert.ErrorIs(t, err, store.ErrNotFound)

	name := "Renamed"
	got, err = users.UpdateProfile(ctx, u.ID, &name, nil)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, "hash", got.PasswordHash)

	got, err = users.UpdateRole(ctx, u.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, got.Role)

	v := newUser(t, users, "b@x.com")
	many, err := users.GetMany(ctx, []string{u.ID, v.ID, "bogus"})
	require.NoError(t, err)
	assert.Len(t, many, 2)

	n, err := users.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	require.NoError(t, users.Delete(ctx, u.ID))
	assert.ErrorIs(t, users.Delete(ctx, u.ID), store.ErrNotFound)
	list, err := users.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, v.ID, list[0].ID)
}

func testBlogs(t *testing.T, users store.UserStore, blogs store.BlogStore) {
	ctx := context.Background()
	u := newUser(t, users, "author@x.com")
	first := newBlog(t, blogs, u.ID, "first", "go")
	second := newBlog(t, blogs, u.ID, "second")

	got, err := blogs.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)
	assert.Equal(t, u.ID, got.AuthorID)
	assert.Empty(t, got.Likes)
	assert.Empty(t, got.Comments)

	list, err := blogs.List(ctx, store.BlogFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID, first.ID}, ids(list))

	many, err := blogs.GetMany(ctx, []string{first.ID, second.ID, "bogus"})
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID, first.ID}, ids(many))

	title := "first, edited"
	tags := []string{"go", "db"}
	got, err = blogs.Update(ctx, first.ID, models.BlogPatch{Title: &title, Tags: &tags})
	require.NoError(t, err)
	assert.Equal(t, title, got.Title)
	assert.Equal(t, "content of first", got.Content, "omitted fields are unchanged")
	assert.Equal(t, tags, got.Tags)

	_, err = blogs.Update(ctx, "missing", models.BlogPatch{Title: &title})
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, blogs.Delete(ctx, first.ID))
	_, err = blogs.GetByID(ctx, first.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, blogs.Delete(ctx, first.ID), store.ErrNotFound)
}

func testFilters(t *testing.T, users store.UserStore, blogs store.BlogStore) {
	ctx := context.Background()
	a := newUser(t, users, "a@x.com")
	b := newUser(t, users, "b@x.com")
	goBlog := newBlog(t, blogs, a.ID, "Learning Go", "go", "lang")
	rustBlog := newBlog(t, blogs, b.ID, "Rust notes (a.k.a. crab)", "rust")
	_, _, err := blogs.ToggleLike(ctx, rustBlog.ID, a.ID)
	require.NoError(t, err)
	require.NoError(t, blogs.AddReport(ctx, goBlog.ID, models.Report{UserID: b.ID, Reason: "spam"}))

	cases := []struct {
		name   string
		filter store.BlogFilter
		want   []string
	}{
		{"query is case-insensitive", store.BlogFilter{Query: "learning go"}, []string{goBlog.ID}},
		{"query matches content", store.BlogFilter{Query: "CONTENT OF"}, []string{rustBlog.ID, goBlog.ID}},
		{"query is literal", store.BlogFilter{Query: "(a.k.a."}, []string{rustBlog.ID}},
		{"regex metacharacters do not match", store.BlogFilter{Query: "L.*Go"}, []string{}},
		{"tag", store.BlogFilter{Tag: "rust"}, []string{rustBlog.ID}},
		{"tag is exact", store.BlogFilter{Tag: "ru"}, []string{}},
		{"query and tag", store.BlogFilter{Query: "notes", Tag: "go"}, []string{}},
		{"author", store.BlogFilter{AuthorID: a.ID}, []string{goBlog.ID}},
		{"liked by", store.BlogFilter{LikedBy: a.ID}, []string{rustBlog.ID}},
		{"reported", store.BlogFilter{Reported: true}, []string{goBlog.ID}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := blogs.List(ctx, tc.filter)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids(got))

			n, err := blogs.Count(ctx, tc.filter)
			require.NoError(t, err)
			assert.EqualValues(t, len(tc.want), n)
		})
	}
}

func testToggleLike(t *testing.T, users store.UserStore, blogs store.BlogStore) {
	ctx := context.Background()
	u := newUser(t, users, "u@x.com")
	b := newBlog(t, blogs, u.ID, "t")

	got, liked, err := blogs.ToggleLike(ctx, b.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, []string{u.ID}, got.Likes)

	got, liked, err = blogs.ToggleLike(ctx, b.ID, u.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Empty(t, got.Likes, "two toggles restore the original state")

	_, _, err = blogs.ToggleLike(ctx, "missing", u.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// testConcurrentLikes toggles from many users at once, each an even number
// of times except the odd ones. Lost updates would leave a wrong set.
func testConcurrentLikes(t *testing.T, users store.UserStore, blogs store.BlogStore) {
	ctx := context.Background()
	author := newUser(t, users, "author@x.com")
	b := newBlog(t, blogs, author.ID, "hot")

	const n = 8
	likers := make([]*models.User, n)
	for i := range likers {
		likers[i] = newUser(t, users, string(rune('a'+i))+"@likers.com")
	}

	var wg sync.WaitGroup
	for i, u := range likers {
		times := 2
		if i%2 == 1 {
			times = 3
		}
		for j := 0; j < times; j++ {
			wg.Add(1)
			go func(userID string) {
				defer wg.Done()
				_, _, err := blogs.ToggleLike(ctx, b.ID, userID)
				assert.NoError(t, err)
			}(u.ID)
		}
	}
	wg.Wait()

	got, err := blogs.GetByID(ctx, b.ID)
	require.NoError(t, err)
	want := []string{}
	for i, u := range likers {
		if i%2 == 1 {
			want = append(want, u.ID)
		}
	}
	assert.ElementsMatch(t, want, got.Likes)
}

func testSavedAndFollow(t *testing.T, users store.UserStore, blogs store.BlogStore) {
	ctx := context.Background()
	a := newUser(t, users, "a@x.com")
	b := newUser(t, users, "b@x.com")
	blog := newBlog(t, blogs, b.ID, "t")

	saved, err := users.ToggleSavedBlog(ctx, a.ID, blog.ID)
	require.NoError(t, err)
	assert.True(t, saved)
	got, err := users.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{blog.ID}, got.SavedBlogs)

	require.NoError(t, users.PullSavedBlogs(ctx, []string{blog.ID}))
	got, err = users.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, got.SavedBlogs)

	following, err := users.ToggleFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, following)
	require.NoError(t, users.SetFollower(ctx, b.ID, a.ID, true))
	require.NoError(t, users.SetFollower(ctx, b.ID, a.ID, true), "adding twice is a no-op")

	target, err := users.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, target.Followers)

	following, err = users.ToggleFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, following)
	require.NoError(t, users.SetFollower(ctx, b.ID, a.ID, false))
	target, err = users.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, target.Followers)

	_, err = users.ToggleFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.NoError(t, users.SetFollower(ctx, b.ID, a.ID, true))
	require.NoError(t, users.PullFollowEdges(ctx, b.ID))
	got, err = users.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Following)

	assert.ErrorIs(t, users.SetFollower(ctx, "missing", a.ID, true), store.ErrNotFound)
}

func testComments(t *testing.T, users store.UserStore, blogs store.BlogStore) {
	ctx := context.Background()
	u := newUser(t, users, "u@x.com")
	b := newBlog(t, blogs, u.ID, "t")

	got, err := blogs.AddComment(ctx, b.ID, models.Comment{UserID: u.ID, Text: "first"})
	require.NoError(t, err)
	got, err = blogs.AddComment(ctx, b.ID, models.Comment{UserID: u.ID, Text: "second"})
	require.NoError(t, err)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, "first", got.Comments[0].Text)
	assert.NotEmpty(t, got.Comments[0].ID)
	assert.False(t, got.Comments[0].CreatedAt.IsZero())
	firstID := got.Comments[0].ID

	got, err = blogs.UpdateComment(ctx, b.ID, firstID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Comments[0].Text)

	got, err = blogs.DeleteComment(ctx, b.ID, firstID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "second", got.Comments[0].Text)

	_, err = blogs.UpdateComment(ctx, b.ID, firstID, "again")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = blogs.DeleteComment(ctx, b.ID, firstID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = blogs.AddComment(ctx, "missing", models.Comment{UserID: u.ID, Text: "x"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testReports(t *testing.T, users store.UserStore, blogs store.BlogStore) {
	ctx := context.Background()
	u := newUser(t, users, "u@x.com")
	b := newBlog(t, blogs, u.ID, "t")

	require.NoError(t, blogs.AddReport(ctx, b.ID, models.Report{UserID: u.ID, Reason: "spam"}))
	err := blogs.AddReport(ctx, b.ID, models.Report{UserID: u.ID, Reason: "again"})
	assert.ErrorIs(t, err, store.ErrAlreadyReported)

	got, err := blogs.GetByID(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, got.Reports, 1)
	assert.Equal(t, "spam", got.Reports[0].Reason)

	err = blogs.AddReport(ctx, "missing", models.Report{UserID: u.ID, Reason: "x"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testPurgeUser(t *testing.T, users store.UserStore, blogs store.BlogStore) {
	ctx := context.Background()
	gone := newUser(t, users, "gone@x.com")
	stays := newUser(t, users, "stays@x.com")
	own := newBlog(t, blogs, gone.ID, "own")
	other := newBlog(t, blogs, stays.ID, "other")

	_, _, err := blogs.ToggleLike(ctx, other.ID, gone.ID)
	require.NoError(t, err)
	_, err = blogs.AddComment(ctx, other.ID, models.Comment{UserID: gone.ID, Text: "bye"})
	require.NoError(t, err)
	_, err = blogs.AddComment(ctx, other.ID, models.Comment{UserID: stays.ID, Text: "hi"})
	require.NoError(t, err)
	require.NoError(t, blogs.AddReport(ctx, other.ID, models.Report{UserID: gone.ID, Reason: "meh"}))

	deleted, err := blogs.DeleteByAuthor(ctx, gone.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{own.ID}, deleted)
	require.NoError(t, blogs.PurgeUser(ctx, gone.ID))

	got, err := blogs.GetByID(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Likes)
	assert.Empty(t, got.Reports)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, stays.ID, got.Comments[0].UserID)

	_, err = blogs.GetByID(ctx, own.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
