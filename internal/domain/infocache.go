package domain

import "time"

// CachedMediaInfo is a resolved URL kept in the local cache so repeated info
// requests do not hit the platform again.
type CachedMediaInfo struct {
	URL         string    `gorm:"primaryKey" json:"url"`
	MediaID     string    `json:"media_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Duration    float64   `json:"duration"`
	Uploader    string    `json:"uploader"`
	Thumbnail   string    `json:"thumbnail"`
	Platform    string    `json:"platform"`
	FetchedAt   time.Time `gorm:"index" json:"fetched_at"`
}

// TableName specifies the table name for GORM
func (CachedMediaInfo) TableName() string {
	return "media_info_cache"
}

// NewCachedMediaInfo builds a cache row from a resolution.
func NewCachedMediaInfo(url string, info *MediaInfo) *CachedMediaInfo {
	return &CachedMediaInfo{
		URL:         url,
		MediaID:     info.ID,
		Title:       info.Title,
		Description: info.Description,
		Duration:    info.Duration,
		Uploader:    info.Uploader,
		Thumbnail:   info.Thumbnail,
		Platform:    info.Platform,
		FetchedAt:   time.Now(),
	}
}

// Info converts the cached row back into MediaInfo.
func (c *CachedMediaInfo) Info() *MediaInfo {
	return &MediaInfo{
		ID:          c.MediaID,
		Title:       c.Title,
		Description: c.Description,
		Duration:    c.Duration,
		Uploader:    c.Uploader,
		Thumbnail:   c.Thumbnail,
		Platform:    c.Platform,
	}
}

// Expired reports whether the row is older than ttl. A non-positive ttl
// means rows never expire.
func (c *CachedMediaInfo) Expired(ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return time.Since(c.FetchedAt) > ttl
}

// MediaInfoRepository persists resolved metadata keyed by URL.
type MediaInfoRepository interface {
	// Get returns the cached row for url, or nil when absent.
	Get(url string) (*CachedMediaInfo, error)
	// Save inserts or refreshes the row for its URL.
	Save(info *CachedMediaInfo) error
	// Purge removes rows fetched before the cutoff and reports how many.
	Purge(olderThan time.Time) (int64, error)
	// Close releases the underlying database handle.
	Close() error
}
