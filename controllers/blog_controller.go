package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/inkpress/middleware"
	"github.com/cppla/inkpress/models"
	"github.com/cppla/inkpress/services"
	"github.com/cppla/inkpress/utils"
)

// BlogController exposes blogs, likes, saves, reports and comments.
type BlogController struct {
	blogs *services.BlogService
}

// NewBlogController creates a BlogController.
func NewBlogController(blogs *services.BlogService) *BlogController {
	return &BlogController{blogs: blogs}
}

type blogRequest struct {
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	Image   *string   `json:"image"`
	Tags    *[]string `json:"tags"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (b *BlogController) Create(ctx *gin.Context) {
	var req blogRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}
	in := services.BlogInput{
		Title:   deref(req.Title),
		Content: deref(req.Content),
		Image:   deref(req.Image),
	}
	if req.Tags != nil {
		in.Tags = *req.Tags
	}

	view, err := b.blogs.Create(ctx.Request.Context(), middleware.CurrentUser(ctx), in)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Created(ctx, view)
}

func (b *BlogController) List(ctx *gin.Context) {
	views, err := b.blogs.List(ctx.Request.Context())
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, views)
}

// Search filters by ?query= (title/content substring) and ?tag=.
func (b *BlogController) Search(ctx *gin.Context) {
	views, err := b.blogs.Search(ctx.Request.Context(), ctx.Query("query"), ctx.Query("tag"))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, views)
}

func (b *BlogController) Mine(ctx *gin.Context) {
	views, err := b.blogs.ListMine(ctx.Request.Context(), middleware.CurrentUser(ctx))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, views)
}

func (b *BlogController) Saved(ctx *gin.Context) {
	views, err := b.blogs.ListSaved(ctx.Request.Context(), middleware.CurrentUser(ctx))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, views)
}

func (b *BlogController) Get(ctx *gin.Context) {
	view, err := b.blogs.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, view)
}

// Update applies a partial update; omitted fields stay as they are.
func (b *BlogController) Update(ctx *gin.Context) {
	var req blogRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}
	view, err := b.blogs.Update(ctx.Request.Context(), middleware.CurrentUser(ctx), ctx.Param("id"), models.BlogPatch{
		Title:   req.Title,
		Content: req.Content,
		Image:   req.Image,
		Tags:    req.Tags,
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, view)
}

func (b *BlogController) Delete(ctx *gin.Context) {
	if err := b.blogs.Delete(ctx.Request.Context(), middleware.CurrentUser(ctx), ctx.Param("id")); err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Respond(ctx, http.StatusOK, 0, "blog deleted", nil)
}

func (b *BlogController) Like(ctx *gin.Context) {
	view, liked, err := b.blogs.ToggleLike(ctx.Request.Context(), middleware.CurrentUser(ctx), ctx.Param("id"))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"liked": liked, "likes": view.Likes, "blog": view})
}

func (b *BlogController) Save(ctx *gin.Context) {
	saved, err := b.blogs.ToggleSave(ctx.Request.Context(), middleware.CurrentUser(ctx), ctx.Param("id"))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	msg := "blog unsaved"
	if saved {
		msg = "blog saved"
	}
	utils.Respond(ctx, http.StatusOK, 0, msg, gin.H{"saved": saved})
}

func (b *BlogController) Report(ctx *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}
	if err := b.blogs.Report(ctx.Request.Context(), middleware.CurrentUser(ctx), ctx.Param("id"), req.Reason); err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Respond(ctx, http.StatusOK, 0, "blog reported", nil)
}

type commentRequest struct {
	Text string `json:"text"`
}

func (b *BlogController) AddComment(ctx *gin.Context) {
	var req commentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}
	view, err := b.blogs.AddComment(ctx.Request.Context(), middleware.CurrentUser(ctx), ctx.Param("id"), req.Text)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Created(ctx, view)
}

func (b *BlogController) EditComment(ctx *gin.Context) {
	var req commentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}
	view, err := b.blogs.EditComment(ctx.Request.Context(), middleware.CurrentUser(ctx), ctx.Param("id"), ctx.Param("commentId"), req.Text)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, view)
}

func (b *BlogController) DeleteComment(ctx *gin.Context) {
	view, err := b.blogs.DeleteComment(ctx.Request.Context(), middleware.CurrentUser(ctx), ctx.Param("id"), ctx.Param("commentId"))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, view)
}
