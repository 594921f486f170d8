package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCachedMediaInfoRoundtrip(t *testing.T) {
	info := &MediaInfo{
		ID:          "reel123",
		Title:       "A Reel",
		Description: "desc",
		Duration:    95.5,
		Uploader:    "creator",
		Thumbnail:   "https://cdn.example.com/t.jpg",
		Platform:    "Instagram",
	}

	cached := NewCachedMediaInfo("https://instagram.com/reel/reel123/", info)
	assert.Equal(t, "https://instagram.com/reel/reel123/", cached.URL)
	assert.Equal(t, "reel123", cached.MediaID)
	assert.WithinDuration(t, time.Now(), cached.FetchedAt, time.Second)

	assert.Equal(t, info, cached.Info())
}

func TestCachedMediaInfoExpired(t *testing.T) {
	cached := &CachedMediaInfo{FetchedAt: time.Now().Add(-2 * time.Hour)}

	assert.True(t, cached.Expired(time.Hour))
	assert.False(t, cached.Expired(3*time.Hour))
	assert.False(t, cached.Expired(0))
}
