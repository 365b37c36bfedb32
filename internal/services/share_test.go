package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShareToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := newShareToken()
		require.NoError(t, err)

		// URL-safe with no padding, long enough to be unguessable.
		assert.GreaterOrEqual(t, len(token), 32)
		assert.NotContains(t, token, "/")
		assert.NotContains(t, token, "+")
		assert.NotContains(t, token, "=")

		assert.False(t, seen[token], "token collision")
		seen[token] = true
	}
}

func TestStorageFile(t *testing.T) {
	assert.True(t, strings.HasSuffix(storageFile("holiday.JPG"), ".jpg"))
	assert.True(t, strings.HasSuffix(storageFile("pic.png"), ".png"))
	assert.True(t, strings.HasSuffix(storageFile("clip.webp"), ".webp"))

	// Unknown or hostile names contribute nothing but a default extension.
	assert.True(t, strings.HasSuffix(storageFile("script.php"), ".jpg"))
	assert.True(t, strings.HasSuffix(storageFile("../../etc/passwd"), ".jpg"))
	assert.NotContains(t, storageFile("../../etc/passwd.png"), "/")
	assert.NotContains(t, storageFile("a b/c.jpg"), " ")
}

func TestAuthServiceJWTRoundTrip(t *testing.T) {
	svc := NewAuthService(nil, "secret")

	token, err := svc.GenerateJWT(7)
	require.NoError(t, err)

	uid, err := svc.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), int64(uid))

	_, err = svc.ValidateJWT(token + "x")
	assert.Error(t, err)
}
