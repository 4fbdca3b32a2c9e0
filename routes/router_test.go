package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/inkpress/config"
	"github.com/cppla/inkpress/routes"
	"github.com/cppla/inkpress/services"
	"github.com/cppla/inkpress/store"
	"github.com/cppla/inkpress/store/memstore"
	"github.com/cppla/inkpress/utils"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testAPI struct {
	t     *testing.T
	h     http.Handler
	users store.UserStore
}

func newAPI(t *testing.T) *testAPI {
	t.Helper()
	db := memstore.New()
	users, blogs := db.Users(), db.Blogs()
	cfg := config.AppConfig{
		GinMode:            "test",
		AllowedOrigins:     []string{"*"},
		RateLimitPerMinute: 1000,
		AdminEmails:        []string{"admin@example.com"},
	}
	posts := services.NewBlogService(blogs, users, nil, nil, nil)
	h := routes.SetupRouter(routes.Deps{
		Config: cfg,
		Auth: services.NewAuthService(services.AuthDeps{
			Users:        users,
			Tokens:       utils.NewTokenManager("router-test-secret", time.Hour),
			IsAdminEmail: cfg.IsAdminEmail,
		}),
		Blogs:  posts,
		Social: services.NewSocialService(users, blogs, nil, nil),
		Admin:  services.NewAdminService(users, blogs, posts, nil),
	})
	return &testAPI{t: t, h: h, users: users}
}

func (a *testAPI) do(method, path, token string, body any) (int, envelope) {
	a.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.h.ServeHTTP(w, req)

	var env envelope
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

// signup registers and logs in, returning the user id and token.
func (a *testAPI) signup(name, email string) (string, string) {
	a.t.Helper()
	status, env := a.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "secret123",
	})
	require.Equal(a.t, http.StatusCreated, status, env.Message)
	assert.Equal(a.t, "user registered successfully", env.Message)

	status, env = a.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": "secret123",
	})
	require.Equal(a.t, http.StatusOK, status, env.Message)
	var res struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &res))
	return res.User.ID, res.Token
}

type blogJSON struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"author"`
	Likes    []string          `json:"likes"`
	Comments []json.RawMessage `json:"comments"`
}

func TestBlogLifecycle(t *testing.T) {
	api := newAPI(t)
	aliceID, alice := api.signup("Alice", "alice@example.com")
	_, bob := api.signup("Bob", "bob@example.com")

	status, env := api.do(http.MethodPost, "/api/blogs", alice, map[string]any{
		"title": "Hello", "content": "<p>world</p>", "tags": []string{"intro"},
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var created blogJSON
	require.NoError(t, json.Unmarshal(env.Data, &created))

	status, env = api.do(http.MethodGet, "/api/blogs/"+created.ID, "", nil)
	require.Equal(t, http.StatusOK, status)
	var got blogJSON
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "Alice", got.Author.Name)
	assert.Equal(t, aliceID, got.Author.ID)
	assert.NotNil(t, got.Likes)
	assert.Empty(t, got.Likes)
	assert.NotNil(t, got.Comments)
	assert.Empty(t, got.Comments)

	var like struct {
		Liked bool     `json:"liked"`
		Likes []string `json:"likes"`
	}
	status, env = api.do(http.MethodPost, "/api/blogs/"+created.ID+"/like", bob, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &like))
	assert.True(t, like.Liked)
	assert.Len(t, like.Likes, 1)

	status, env = api.do(http.MethodPost, "/api/blogs/"+created.ID+"/like", bob, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &like))
	assert.False(t, like.Liked)
	assert.Empty(t, like.Likes)

	status, env = api.do(http.MethodPut, "/api/blogs/"+created.ID, bob, map[string]string{"title": "mine now"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, 40302, env.Code)

	status, _ = api.do(http.MethodPost, "/api/blogs/"+created.ID+"/comments", bob, map[string]string{"text": "nice"})
	assert.Equal(t, http.StatusCreated, status)

	status, _ = api.do(http.MethodPost, "/api/blogs/"+created.ID+"/report", bob, map[string]string{"reason": "spam"})
	assert.Equal(t, http.StatusOK, status)
	status, env = api.do(http.MethodPost, "/api/blogs/"+created.ID+"/report", bob, map[string]string{"reason": "spam"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, 40902, env.Code)

	status, env = api.do(http.MethodGet, "/api/blogs/search?query=HELLO", "", nil)
	require.Equal(t, http.StatusOK, status)
	var found []blogJSON
	require.NoError(t, json.Unmarshal(env.Data, &found))
	require.Len(t, found, 1)

	status, env = api.do(http.MethodGet, "/api/blogs/myblogs", alice, nil)
	require.Equal(t, http.StatusOK, status)
	var mine []blogJSON
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	require.Len(t, mine, 1)

	status, _ = api.do(http.MethodDelete, "/api/blogs/"+created.ID, alice, nil)
	assert.Equal(t, http.StatusOK, status)
	status, env = api.do(http.MethodGet, "/api/blogs/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, 40401, env.Code)
}

func TestAuthRequiredRoutes(t *testing.T) {
	api := newAPI(t)

	status, env := api.do(http.MethodPost, "/api/blogs", "", map[string]string{"title": "t", "content": "c"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, 40101, env.Code)

	status, env = api.do(http.MethodGet, "/api/auth/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, 40103, env.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	api := newAPI(t)
	_, token := api.signup("Alice", "alice@example.com")

	status, _ := api.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = api.do(http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, status)
	status, env := api.do(http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, 40104, env.Code)
}

func TestFollow(t *testing.T) {
	api := newAPI(t)
	aliceID, alice := api.signup("Alice", "alice@example.com")
	bobID, _ := api.signup("Bob", "bob@example.com")

	status, env := api.do(http.MethodPost, "/api/users/"+aliceID+"/follow", alice, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 40005, env.Code)

	status, env = api.do(http.MethodPost, "/api/users/"+bobID+"/follow", alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"following":true}`, string(env.Data))

	status, env = api.do(http.MethodGet, "/api/users/"+bobID+"/followers", "", nil)
	require.Equal(t, http.StatusOK, status)
	var followers []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &followers))
	require.Len(t, followers, 1)
	assert.Equal(t, aliceID, followers[0].ID)
}

func TestAdminRoutes(t *testing.T) {
	api := newAPI(t)
	_, admin := api.signup("Root", "admin@example.com")
	aliceID, alice := api.signup("Alice", "alice@example.com")
	bobID, _ := api.signup("Bob", "bob@example.com")

	status, env := api.do(http.MethodDelete, "/api/admin/users/"+bobID, alice, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, 40301, env.Code)
	_, err := api.users.GetByID(context.Background(), bobID)
	require.NoError(t, err)

	status, _ = api.do(http.MethodGet, "/api/admin/stats", admin, nil)
	assert.Equal(t, http.StatusOK, status)

	status, env = api.do(http.MethodPut, "/api/admin/users/"+aliceID, admin, map[string]string{"role": "admin"})
	require.Equal(t, http.StatusOK, status)
	var promoted struct {
		Role string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &promoted))
	assert.Equal(t, "admin", promoted.Role)

	status, _ = api.do(http.MethodDelete, "/api/admin/users/"+bobID, admin, nil)
	assert.Equal(t, http.StatusOK, status)
	_, err = api.users.GetByID(context.Background(), bobID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestNotFound(t *testing.T) {
	api := newAPI(t)
	status, env := api.do(http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, 40400, env.Code)

	status, env = api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(env.Data))
}
