package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/inkpress/middleware"
	"github.com/cppla/inkpress/models"
	"github.com/cppla/inkpress/services"
	"github.com/cppla/inkpress/utils"
)

// AdminController serves the moderation endpoints. Routes are expected to
// sit behind AuthRequired and AdminRequired.
type AdminController struct {
	admin *services.AdminService
}

// NewAdminController creates an AdminController.
func NewAdminController(admin *services.AdminService) *AdminController {
	return &AdminController{admin: admin}
}

func (a *AdminController) ListUsers(ctx *gin.Context) {
	users, err := a.admin.ListUsers(ctx.Request.Context(), middleware.CurrentUser(ctx))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, users)
}

func (a *AdminController) DeleteUser(ctx *gin.Context) {
	if err := a.admin.DeleteUser(ctx.Request.Context(), middleware.CurrentUser(ctx), ctx.Param("id")); err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Respond(ctx, http.StatusOK, 0, "user deleted", nil)
}

// SetRole expects {"role": "user"|"admin"}.
func (a *AdminController) SetRole(ctx *gin.Context) {
	var req struct {
		Role models.Role `json:"role"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}
	user, err := a.admin.SetRole(ctx.Request.Context(), middleware.CurrentUser(ctx), ctx.Param("id"), req.Role)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, user)
}

func (a *AdminController) ReportedBlogs(ctx *gin.Context) {
	views, err := a.admin.ReportedBlogs(ctx.Request.Context(), middleware.CurrentUser(ctx))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, views)
}

func (a *AdminController) UpdateBlog(ctx *gin.Context) {
	var req struct {
		Title   *string `json:"title"`
		Content *string `json:"content"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}
	view, err := a.admin.UpdateBlog(ctx.Request.Context(), middleware.CurrentUser(ctx), ctx.Param("id"), req.Title, req.Content)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, view)
}

func (a *AdminController) DeleteBlog(ctx *gin.Context) {
	if err := a.admin.DeleteBlog(ctx.Request.Context(), middleware.CurrentUser(ctx), ctx.Param("id")); err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Respond(ctx, http.StatusOK, 0, "blog deleted", nil)
}

// Stats returns user, blog and reported blog counts.
func (a *AdminController) Stats(ctx *gin.Context) {
	st, err := a.admin.Stats(ctx.Request.Context(), middleware.CurrentUser(ctx))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, st)
}
