package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"path"
	"strings"

	"github.com/nfnt/resize"
)

// thumbMaxDim bounds the longest edge of a generated thumbnail.
const thumbMaxDim = 320

// ThumbKey returns the storage key of a photo's thumbnail, kept inside the
// same album directory so path authorization covers it.
func ThumbKey(photoKey string) string {
	dir, file := path.Split(photoKey)
	return dir + "thumb_" + strings.TrimSuffix(file, path.Ext(file)) + ".jpg"
}

// IsThumbKey reports whether a storage key names a generated thumbnail.
func IsThumbKey(key string) bool {
	return strings.HasPrefix(path.Base(key), "thumb_")
}

// SaveThumbnail decodes the image, scales it down and stores the result
// next to the original. Non-image or corrupt payloads return an error the
// caller may log and ignore; the original upload stands on its own.
func SaveThumbnail(ctx context.Context, store Store, photoKey string, r io.Reader) error {
	img, _, err := image.Decode(r)
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}
	thumb := resize.Thumbnail(thumbMaxDim, thumbMaxDim, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 80}); err != nil {
		return fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	if _, err := store.Save(ctx, ThumbKey(photoKey), &buf); err != nil {
		return fmt.Errorf("failed to store thumbnail: %w", err)
	}
	return nil
}
