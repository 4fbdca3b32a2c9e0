package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindStatus(t *testing.T) {
	cases := map[Kind]int{
		Unauthenticated: http.StatusUnauthorized,
		Forbidden:       http.StatusForbidden,
		NotFound:        http.StatusNotFound,
		InvalidInput:    http.StatusBadRequest,
		Conflict:        http.StatusConflict,
		RateLimited:     http.StatusTooManyRequests,
		Internal:        http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, kind.Status(), kind.String())
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	base := Forbiddenf(40301, "nope")
	wrapped := fmt.Errorf("update blog: %w", base)

	assert.Equal(t, Forbidden, KindOf(wrapped))
	assert.True(t, Is(wrapped, Forbidden))
	assert.False(t, Is(nil, Forbidden))
}

func TestFrom_Unclassified(t *testing.T) {
	e := From(errors.New("boom"))

	assert.Equal(t, Internal, e.Kind)
	assert.Equal(t, "internal server error", e.Message)
	assert.EqualError(t, e, "internal server error: boom")
}
