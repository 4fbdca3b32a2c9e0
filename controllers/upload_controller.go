package controllers

import (
	"context"
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/cppla/inkpress/utils"
)

// MaxUploadBytes caps a single image upload.
const MaxUploadBytes = 5 << 20

// allowedImageTypes are the formats browsers render as passive images.
var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// ImageStore stores an uploaded image and returns its public URL.
type ImageStore interface {
	Put(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, error)
}

// UploadController accepts blog images.
type UploadController struct {
	images ImageStore
}

// NewUploadController creates an UploadController.
func NewUploadController(images ImageStore) *UploadController {
	return &UploadController{images: images}
}

// Upload expects a multipart "file" field holding an image.
func (u *UploadController) Upload(ctx *gin.Context) {
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, MaxUploadBytes+1<<20)
	fh, err := ctx.FormFile("file")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "file is required")
		return
	}
	if fh.Size > MaxUploadBytes {
		utils.Error(ctx, http.StatusBadRequest, 40021, "file exceeds 5MB")
		return
	}

	f, err := fh.Open()
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "cannot read file")
		return
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil || !allowedImageTypes[mt.String()] {
		utils.Error(ctx, http.StatusBadRequest, 40023, "only png, jpeg, gif and webp images are allowed")
		return
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to read file")
		return
	}

	// The key extension follows the detected type, not the client's name.
	url, err := u.images.Put(ctx.Request.Context(), "image"+mt.Extension(), mt.String(), f, fh.Size)
	if err != nil {
		_ = ctx.Error(err)
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to store file")
		return
	}
	utils.Created(ctx, gin.H{"url": url})
}
