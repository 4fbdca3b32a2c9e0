package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/inkpress/middleware"
	"github.com/cppla/inkpress/services"
	"github.com/cppla/inkpress/utils"
)

// AuthController handles registration, login and the caller's own account.
type AuthController struct {
	auth *services.AuthService
}

// NewAuthController creates an AuthController.
func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

// Register creates a local account.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Name          string `json:"name"`
		Email         string `json:"email"`
		Password      string `json:"password"`
		CaptchaID     string `json:"captcha_id"`
		CaptchaAnswer string `json:"captcha_answer"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	user, err := a.auth.Register(ctx.Request.Context(), services.RegisterInput{
		Name:          req.Name,
		Email:         req.Email,
		Password:      req.Password,
		CaptchaID:     req.CaptchaID,
		CaptchaAnswer: req.CaptchaAnswer,
		ClientIP:      ctx.ClientIP(),
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "user registered successfully", user.Account())
}

// Login verifies credentials and issues a token.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	res, err := a.auth.Login(ctx.Request.Context(), req.Email, req.Password, ctx.ClientIP())
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, res)
}

// Captcha returns a fresh captcha id and base64 image (data URI).
func (a *AuthController) Captcha(ctx *gin.Context) {
	id, img, err := a.auth.NewCaptcha()
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"captcha_id": id, "image": img})
}

// Me returns the authenticated user.
func (a *AuthController) Me(ctx *gin.Context) {
	utils.Success(ctx, middleware.CurrentUser(ctx))
}

// UpdateProfile changes the caller's name and/or password.
func (a *AuthController) UpdateProfile(ctx *gin.Context) {
	var req struct {
		Name            *string `json:"name"`
		CurrentPassword string  `json:"current_password"`
		NewPassword     *string `json:"new_password"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	user, err := a.auth.UpdateProfile(ctx.Request.Context(), middleware.CurrentUser(ctx), services.ProfileInput{
		Name:            req.Name,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, user)
}

// Logout revokes the token used for this request.
func (a *AuthController) Logout(ctx *gin.Context) {
	token, claims := middleware.CurrentToken(ctx)
	if err := a.auth.Logout(ctx.Request.Context(), token, claims); err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Respond(ctx, http.StatusOK, 0, "logged out", nil)
}
