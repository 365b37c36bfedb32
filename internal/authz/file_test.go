package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilePath(t *testing.T) {
	tests := []struct {
		path string
		ok   bool
	}{
		{"photos/1/1/x.jpg", true},
		{"photos/42/7/IMG_0042.jpeg", true},
		{"", false},
		{"../../etc/passwd", false},
		{"photos/1/1/../../../etc/passwd", false},
		{"photos/1/1/..", false},
		{"photos/1/1/", false},
		{"photos/1/1", false},
		{"photos/one/1/x.jpg", false},
		{"photos/1/two/x.jpg", false},
		{"photos/-1/1/x.jpg", false},
		{"photos/0/1/x.jpg", false},
		{"videos/1/1/x.mp4", false},
		{"/photos/1/1/x.jpg", false},
		{"photos\\1\\1\\x.jpg", false},
		{"photos/1/1/x.jpg/extra", false},
	}
	for _, tt := range tests {
		_, ok := parseFilePath(tt.path)
		assert.Equal(t, tt.ok, ok, "path %q", tt.path)
	}
}

func TestFilePathStructuralGuardSkipsLookups(t *testing.T) {
	e, shares, graph := newTestEngine(t)
	ctx := context.Background()

	v := e.AuthorizeFilePath(ctx, "../../etc/passwd", Credentials{ShareToken: "tokA"})
	assert.Equal(t, DecisionForbidden, v.Decision)
	assert.Equal(t, 0, shares.calls, "no share lookup before structural validation")
	assert.Equal(t, 0, graph.calls, "no graph lookup before structural validation")
}

func TestFilePathOwner(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	v := e.AuthorizeFilePath(ctx, "photos/1/1/x.jpg", Credentials{SessionToken: "sess1"})
	require.Equal(t, DecisionGranted, v.Decision)
	assert.True(t, v.Capabilities.Owner)

	// The owner segment is matched against the verified identity, not
	// taken on faith.
	v = e.AuthorizeFilePath(ctx, "photos/1/1/x.jpg", Credentials{SessionToken: "sess3"})
	assert.Equal(t, DecisionForbidden, v.Decision)
}

func TestFilePathParticipant(t *testing.T) {
	e, _, g := newTestEngine(t)
	ctx := context.Background()
	creds := Credentials{SessionToken: "sess2"}

	v := e.AuthorizeFilePath(ctx, "photos/1/1/x.jpg", creds)
	assert.Equal(t, DecisionGranted, v.Decision)

	// Album 3 is outside every event the participant joined.
	v = e.AuthorizeFilePath(ctx, "photos/3/3/z.jpg", creds)
	assert.Equal(t, DecisionForbidden, v.Decision)

	delete(g.participants, participantKey{10, 2})
	v = e.AuthorizeFilePath(ctx, "photos/1/1/x.jpg", creds)
	assert.Equal(t, DecisionForbidden, v.Decision)
}

func TestFilePathAlbumShare(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	creds := Credentials{ShareToken: "tokA"}

	v := e.AuthorizeFilePath(ctx, "photos/1/1/x.jpg", creds)
	assert.Equal(t, DecisionGranted, v.Decision)

	// Same owner, different album: outside the share's album set.
	v = e.AuthorizeFilePath(ctx, "photos/1/2/x.jpg", creds)
	assert.Equal(t, DecisionForbidden, v.Decision)
}

func TestFilePathPhotoShareExactPathOnly(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	creds := Credentials{ShareToken: "tokP"}

	v := e.AuthorizeFilePath(ctx, "photos/1/1/x.jpg", creds)
	assert.Equal(t, DecisionGranted, v.Decision)

	// Sibling file inside the very same album is out of scope.
	v = e.AuthorizeFilePath(ctx, "photos/1/1/y.jpg", creds)
	assert.Equal(t, DecisionForbidden, v.Decision)
}

func TestFilePathEventShare(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	creds := Credentials{ShareToken: "tokE"}

	v := e.AuthorizeFilePath(ctx, "photos/1/1/x.jpg", creds)
	assert.Equal(t, DecisionGranted, v.Decision)
	v = e.AuthorizeFilePath(ctx, "photos/1/2/x.jpg", creds)
	assert.Equal(t, DecisionGranted, v.Decision)

	v = e.AuthorizeFilePath(ctx, "photos/3/3/z.jpg", creds)
	assert.Equal(t, DecisionForbidden, v.Decision)
}

func TestFilePathUnresolvableShare(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	v := e.AuthorizeFilePath(ctx, "photos/1/1/x.jpg", Credentials{ShareToken: "nope"})
	assert.Equal(t, DecisionNotFound, v.Decision)

	v = e.AuthorizeFilePath(ctx, "photos/1/1/x.jpg", Credentials{ShareToken: "tokX"})
	assert.Equal(t, DecisionNotFound, v.Decision)
}

func TestFilePathNoCredentials(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	v := e.AuthorizeFilePath(ctx, "photos/1/1/x.jpg", Credentials{})
	assert.Equal(t, DecisionForbidden, v.Decision)
}
