package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// MediaInfo is the resolved metadata for a media URL. The fetcher produces it
// once per URL and it is treated as read-only afterwards; failure results
// carry the same snapshot that resolution produced.
type MediaInfo struct {
	ID          string  `json:"id"`
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Duration    float64 `json:"duration,omitempty"`
	Uploader    string  `json:"uploader,omitempty"`
	Thumbnail   string  `json:"thumbnail,omitempty"`
	Platform    string  `json:"platform,omitempty"`
}

// HasDuration reports whether the platform exposed a runtime for the media.
// Live streams and some photo posts resolve without one.
func (m *MediaInfo) HasDuration() bool {
	return m != nil && m.Duration > 0
}

// Artifact is a downloaded media file on local disk. Its path lives inside an
// artifact scope and is deleted when the scope is released, so it must not be
// referenced after the pipeline run that created it.
type Artifact struct {
	Path string
}

// ValidateURL rejects input that cannot resolve to media before any
// subprocess is spawned.
func ValidateURL(raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fmt.Errorf("%w: empty url", ErrUnresolvableURL)
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnresolvableURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrUnresolvableURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrUnresolvableURL)
	}
	return nil
}
