package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShareScope(t *testing.T) {
	albumID := AlbumID(1)
	photoID := PhotoID(2)
	eventID := EventID(3)

	tests := []struct {
		name  string
		share Share
		want  ShareScope
	}{
		{"album", Share{AlbumID: &albumID}, ScopeAlbum},
		{"photo", Share{PhotoID: &photoID}, ScopePhoto},
		{"event", Share{EventID: &eventID}, ScopeEvent},
		{"none", Share{}, ScopeNone},
		{"ambiguous", Share{AlbumID: &albumID, PhotoID: &photoID}, ScopeNone},
		{"all three", Share{AlbumID: &albumID, PhotoID: &photoID, EventID: &eventID}, ScopeNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.share.Scope())
		})
	}
}

func TestShareExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.False(t, (&Share{}).Expired(now))
	assert.False(t, (&Share{ExpiresAt: &future}).Expired(now))
	assert.True(t, (&Share{ExpiresAt: &past}).Expired(now))
}
