package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/inkpress/apperr"
	"github.com/cppla/inkpress/models"
	"github.com/cppla/inkpress/utils"
)

type fakeAuth struct {
	users map[string]*models.User
}

func (f fakeAuth) Authenticate(_ context.Context, token string) (*models.User, *utils.Claims, error) {
	u, ok := f.users[token]
	if !ok {
		return nil, nil, apperr.Unauthenticatedf(40103, "invalid or expired token")
	}
	return u, &utils.Claims{UserID: u.ID, Role: string(u.Role)}, nil
}

func newAuthRouter(auth Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	whoami := func(ctx *gin.Context) {
		user := CurrentUser(ctx)
		if user == nil {
			ctx.String(http.StatusOK, "anonymous")
			return
		}
		ctx.String(http.StatusOK, user.ID)
	}
	r.GET("/private", AuthRequired(auth), whoami)
	r.GET("/admin", AuthRequired(auth), AdminRequired(), whoami)
	r.GET("/admin-only", AdminRequired(), whoami)
	return r
}

func do(r http.Handler, path, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	r := newAuthRouter(fakeAuth{users: map[string]*models.User{
		"good": {ID: "u1", Role: models.RoleUser},
	}})

	cases := []struct {
		name   string
		authz  string
		status int
		body   string
	}{
		{"missing header", "", http.StatusUnauthorized, "authorization header missing"},
		{"wrong scheme", "Basic good", http.StatusUnauthorized, "invalid authorization header format"},
		{"empty token", "Bearer   ", http.StatusUnauthorized, "empty bearer token"},
		{"bad token", "Bearer nope", http.StatusUnauthorized, "invalid or expired token"},
		{"valid", "Bearer good", http.StatusOK, "u1"},
		{"scheme is case-insensitive", "bearer good", http.StatusOK, "u1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, "/private", tc.authz)
			assert.Equal(t, tc.status, w.Code)
			assert.Contains(t, w.Body.String(), tc.body)
		})
	}
}

func TestAdminRequired(t *testing.T) {
	r := newAuthRouter(fakeAuth{users: map[string]*models.User{
		"user":  {ID: "u1", Role: models.RoleUser},
		"admin": {ID: "a1", Role: models.RoleAdmin},
	}})

	w := do(r, "/admin", "Bearer user")
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "40301")

	w = do(r, "/admin", "Bearer admin")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a1", w.Body.String())

	w = do(r, "/admin-only", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
