package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImages struct {
	name, contentType string
	data              []byte
	err               error
}

func (f *fakeImages) Put(_ context.Context, filename, contentType string, r io.Reader, _ int64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.name, f.contentType = filename, contentType
	f.data, _ = io.ReadAll(r)
	return "http://cdn.test/blogs/" + filename, nil
}

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)

func upload(t *testing.T, images ImageStore, field, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/uploads", NewUploadController(images).Upload)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func responseCode(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var env struct {
		Code int `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Code
}

func TestUploadImage(t *testing.T) {
	images := &fakeImages{}
	// The client's file name and extension are ignored.
	w := upload(t, images, "file", "cat.txt", pngBytes)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "image.png", images.name)
	assert.Equal(t, "image/png", images.contentType)
	assert.Equal(t, pngBytes, images.data)
	assert.Contains(t, w.Body.String(), "http://cdn.test/blogs/image.png")
}

func TestUploadRejects(t *testing.T) {
	w := upload(t, &fakeImages{}, "file", "x.png", []byte("just some text"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40023, responseCode(t, w))

	// SVG can carry script and is served from the public bucket.
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(document.cookie)</script></svg>`)
	images := &fakeImages{}
	w = upload(t, images, "file", "x.png", svg)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40023, responseCode(t, w))
	assert.Empty(t, images.name, "nothing stored")

	w = upload(t, &fakeImages{}, "other", "x.png", pngBytes)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40020, responseCode(t, w))

	w = upload(t, &fakeImages{err: errors.New("bucket gone")}, "file", "x.png", pngBytes)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 50021, responseCode(t, w))
}
