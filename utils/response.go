package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/inkpress/apperr"
)

// JSONResponse defines the uniform structure for API responses.
type JSONResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Respond writes a JSON response with the given status code.
func Respond(ctx *gin.Context, status int, code int, message string, data interface{}) {
	ctx.JSON(status, JSONResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Success returns a standard success response.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusOK, 0, "success", data)
}

// Created returns a 201 success response.
func Created(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusCreated, 0, "success", data)
}

// Error returns a standard error response.
func Error(ctx *gin.Context, status int, code int, message string) {
	Respond(ctx, status, code, message, nil)
}

// Fail renders err according to its apperr kind. Internal causes are attached
// to the gin context for the access log and never shown to the client.
func Fail(ctx *gin.Context, err error) {
	e := apperr.From(err)
	if e.Kind == apperr.Internal && e.Err != nil {
		_ = ctx.Error(e.Err)
	}
	code := e.Code
	if code == 0 {
		code = e.Kind.Status() * 100
	}
	Error(ctx, e.Kind.Status(), code, e.Message)
	ctx.Abort()
}
