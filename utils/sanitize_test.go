package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	assert.Equal(t, "<p>hi</p>", Sanitize(`<p onclick="x()">hi</p><script>alert(1)</script>`))
	assert.Equal(t, `<a href="https://example.com" rel="nofollow">x</a>`, Sanitize(`<a href="https://example.com">x</a>`))
}

func TestSanitizePlain(t *testing.T) {
	assert.Equal(t, "bold & brave", SanitizePlain("  <b>bold</b> & brave "))
	assert.Equal(t, "", SanitizePlain("<script>x</script>"))
	assert.Equal(t, "a < b", SanitizePlain("a < b"))
}
