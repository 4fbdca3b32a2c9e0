package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/inkpress/apperr"
	"github.com/cppla/inkpress/models"
	"github.com/cppla/inkpress/services"
	"github.com/cppla/inkpress/store/memstore"
	"github.com/cppla/inkpress/utils"
)

func newAuth(t *testing.T) *services.AuthService {
	t.Helper()
	db := memstore.New()
	return services.NewAuthService(services.AuthDeps{
		Users:  db.Users(),
		Tokens: utils.NewTokenManager("test-secret", time.Hour),
		IsAdminEmail: func(email string) bool {
			return email == "boss@example.com"
		},
	})
}

func register(t *testing.T, auth *services.AuthService, name, email string) *models.User {
	t.Helper()
	u, err := auth.Register(context.Background(), services.RegisterInput{Name: name, Email: email, Password: "secret123"})
	require.NoError(t, err)
	return u
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	auth := newAuth(t)

	u := register(t, auth, " Alice ", " Alice@Example.com ")
	assert.Equal(t, "Alice", u.Name)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.NotEqual(t, "secret123", u.PasswordHash)

	boss := register(t, auth, "Boss", "boss@example.com")
	assert.Equal(t, models.RoleAdmin, boss.Role)

	cases := []struct {
		name string
		in   services.RegisterInput
		kind apperr.Kind
		code int
	}{
		{"duplicate email", services.RegisterInput{Name: "A", Email: "ALICE@example.com", Password: "secret123"}, apperr.Conflict, 40901},
		{"missing name", services.RegisterInput{Email: "x@example.com", Password: "secret123"}, apperr.InvalidInput, 40008},
		{"bad email", services.RegisterInput{Name: "x", Email: "not-an-email", Password: "secret123"}, apperr.InvalidInput, 40011},
		{"short password", services.RegisterInput{Name: "x", Email: "x@example.com", Password: "123"}, apperr.InvalidInput, 40009},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := auth.Register(ctx, tc.in)
			requireKind(t, err, tc.kind, tc.code)
		})
	}
}

func TestLoginAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	auth := newAuth(t)
	u := register(t, auth, "Alice", "alice@example.com")

	_, err := auth.Login(ctx, "alice@example.com", "wrong-pass", "10.0.0.1")
	requireKind(t, err, apperr.Unauthenticated, 40102)
	_, err = auth.Login(ctx, "nobody@example.com", "secret123", "10.0.0.1")
	requireKind(t, err, apperr.Unauthenticated, 40102)

	res, err := auth.Login(ctx, "ALICE@example.com", "secret123", "10.0.0.1")
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	assert.Equal(t, u.ID, res.User.ID)
	assert.True(t, res.ExpiresAt.After(time.Now()))

	got, claims, err := auth.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, string(models.RoleUser), claims.Role)

	_, _, err = auth.Authenticate(ctx, "garbage")
	requireKind(t, err, apperr.Unauthenticated, 40103)

	require.NoError(t, auth.Logout(ctx, res.Token, claims))
	_, _, err = auth.Authenticate(ctx, res.Token)
	requireKind(t, err, apperr.Unauthenticated, 40104)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	auth := newAuth(t)
	u := register(t, auth, "Alice", "alice@example.com")

	updated, err := auth.UpdateProfile(ctx, u, services.ProfileInput{Name: ptr("Alice B")})
	require.NoError(t, err)
	assert.Equal(t, "Alice B", updated.Name)

	_, err = auth.UpdateProfile(ctx, updated, services.ProfileInput{CurrentPassword: "nope", NewPassword: ptr("newsecret")})
	requireKind(t, err, apperr.InvalidInput, 40013)

	_, err = auth.UpdateProfile(ctx, updated, services.ProfileInput{CurrentPassword: "secret123", NewPassword: ptr("new")})
	requireKind(t, err, apperr.InvalidInput, 40009)

	_, err = auth.UpdateProfile(ctx, updated, services.ProfileInput{CurrentPassword: "secret123", NewPassword: ptr("newsecret")})
	require.NoError(t, err)

	_, err = auth.Login(ctx, "alice@example.com", "secret123", "")
	requireKind(t, err, apperr.Unauthenticated, 40102)
	_, err = auth.Login(ctx, "alice@example.com", "newsecret", "")
	require.NoError(t, err)
}

func TestCaptchaDisabled(t *testing.T) {
	auth := newAuth(t)
	assert.False(t, auth.CaptchaEnabled())
	_, _, err := auth.NewCaptcha()
	requireKind(t, err, apperr.NotFound, 40404)
}
