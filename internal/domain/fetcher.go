package domain

import "context"

// MediaFetcher resolves media URLs to metadata and downloads payloads.
type MediaFetcher interface {
	// FetchInfo resolves metadata for a URL without downloading any media
	// bytes. Repeated calls for the same URL return equivalent MediaInfo
	// absent upstream content changes.
	FetchInfo(ctx context.Context, url string) (*MediaInfo, error)

	// FetchMedia downloads the media payload into destDir and returns the
	// resulting artifact. Metadata is resolved first so media longer than
	// the configured maximum is rejected with ErrDurationExceeded before
	// any bytes are retained. The caller owns destDir and its cleanup.
	FetchMedia(ctx context.Context, url, destDir string) (*Artifact, error)
}
