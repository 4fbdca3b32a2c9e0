package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/inkpress/middleware"
	"github.com/cppla/inkpress/services"
	"github.com/cppla/inkpress/utils"
)

// UserController exposes follow edges and profiles.
type UserController struct {
	social *services.SocialService
}

// NewUserController creates a UserController.
func NewUserController(social *services.SocialService) *UserController {
	return &UserController{social: social}
}

func (u *UserController) Follow(ctx *gin.Context) {
	following, err := u.social.ToggleFollow(ctx.Request.Context(), middleware.CurrentUser(ctx), ctx.Param("id"))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"following": following})
}

func (u *UserController) Followers(ctx *gin.Context) {
	users, err := u.social.Followers(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, users)
}

func (u *UserController) Following(ctx *gin.Context) {
	users, err := u.social.Following(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, users)
}

func (u *UserController) Profile(ctx *gin.Context) {
	profile, err := u.social.Profile(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, profile)
}
