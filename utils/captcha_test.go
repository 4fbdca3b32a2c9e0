package utils

import (
	"strings"
	"testing"

	"github.com/mojocn/base64Captcha"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptchaInMemory(t *testing.T) {
	c := NewCaptcha(nil)
	id, img, err := c.Generate()
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.True(t, strings.HasPrefix(img, "data:image/png;base64,"))

	answer := base64Captcha.DefaultMemStore.Get(id, false)
	require.Len(t, answer, 5)

	assert.False(t, c.Verify(id, ""))
	assert.True(t, c.Verify(id, answer))
	assert.False(t, c.Verify(id, answer), "captchas are single use")
}
