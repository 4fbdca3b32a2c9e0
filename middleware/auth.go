package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/inkpress/apperr"
	"github.com/cppla/inkpress/models"
	"github.com/cppla/inkpress/utils"
)

const (
	// ContextUserKey stores the authenticated *models.User in the gin context.
	ContextUserKey = "current_user"
	// ContextClaimsKey stores the verified token claims.
	ContextClaimsKey = "token_claims"
	// ContextTokenKey stores the raw bearer token.
	ContextTokenKey = "bearer_token"
)

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, *utils.Claims, error)
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(ctx *gin.Context) (string, error) {
	header := ctx.GetHeader("Authorization")
	if header == "" {
		return "", apperr.Unauthenticatedf(40101, "authorization header missing")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", apperr.Unauthenticatedf(40106, "invalid authorization header format")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", apperr.Unauthenticatedf(40107, "empty bearer token")
	}
	return token, nil
}

// AuthRequired rejects the request unless it carries a valid token for an
// existing user, and attaches that user to the context.
func AuthRequired(auth Authenticator) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := bearerToken(ctx)
		if err != nil {
			utils.Fail(ctx, err)
			return
		}
		user, claims, err := auth.Authenticate(ctx.Request.Context(), token)
		if err != nil {
			utils.Fail(ctx, err)
			return
		}
		ctx.Set(ContextUserKey, user)
		ctx.Set(ContextClaimsKey, claims)
		ctx.Set(ContextTokenKey, token)
		ctx.Next()
	}
}

// AdminRequired must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user := CurrentUser(ctx)
		if user == nil {
			utils.Fail(ctx, apperr.Unauthenticatedf(40101, "authentication required"))
			return
		}
		if !user.IsAdmin() {
			utils.Fail(ctx, apperr.Forbiddenf(40301, "admin access required"))
			return
		}
		ctx.Next()
	}
}

// CurrentUser returns the authenticated user, or nil.
func CurrentUser(ctx *gin.Context) *models.User {
	v, ok := ctx.Get(ContextUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// CurrentToken returns the raw bearer token and its claims, if any.
func CurrentToken(ctx *gin.Context) (string, *utils.Claims) {
	v, _ := ctx.Get(ContextClaimsKey)
	claims, _ := v.(*utils.Claims)
	return ctx.GetString(ContextTokenKey), claims
}
