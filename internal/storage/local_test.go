package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"pixshare-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSaveOpenRemove(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	n, err := store.Save(ctx, "photos/1/1/a.jpg", strings.NewReader("payload"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	f, err := store.Open(ctx, "photos/1/1/a.jpg")
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	f.Close()
	assert.Equal(t, "payload", string(data))

	require.NoError(t, store.Remove(ctx, "photos/1/1/a.jpg"))

	_, err = store.Open(ctx, "photos/1/1/a.jpg")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestLocalRemoveMissingIsNoOp(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Remove(context.Background(), "photos/9/9/gone.jpg"))
}

func TestLocalRejectsEscapingKeys(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{
		"",
		"../outside.jpg",
		"photos/../../etc/passwd",
		"/etc/passwd",
	} {
		_, err := store.Save(ctx, key, strings.NewReader("x"))
		assert.Error(t, err, "key %q", key)
		_, err = store.Open(ctx, key)
		assert.Error(t, err, "key %q", key)
	}
}

func TestLocalRemoveAll(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Save(ctx, "photos/1/1/a.jpg", strings.NewReader("a"))
	require.NoError(t, err)
	_, err = store.Save(ctx, "photos/1/1/b.jpg", strings.NewReader("b"))
	require.NoError(t, err)
	_, err = store.Save(ctx, "photos/1/2/c.jpg", strings.NewReader("c"))
	require.NoError(t, err)

	require.NoError(t, store.RemoveAll(ctx, "photos/1/1"))

	_, err = store.Open(ctx, "photos/1/1/a.jpg")
	assert.Error(t, err)
	_, err = store.Open(ctx, "photos/1/2/c.jpg")
	assert.NoError(t, err)
}

func TestThumbKey(t *testing.T) {
	assert.Equal(t, "photos/1/2/thumb_abc.jpg", ThumbKey("photos/1/2/abc.png"))
	assert.Equal(t, "photos/1/2/thumb_abc.jpg", ThumbKey("photos/1/2/abc.jpg"))

	assert.True(t, IsThumbKey("photos/1/2/thumb_abc.jpg"))
	assert.False(t, IsThumbKey("photos/1/2/abc.jpg"))
}
