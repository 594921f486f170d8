package domain

import "errors"

// Failure categories for the summarization pipeline. Callers wrap these with
// fmt.Errorf("...: %w", err) and classify with errors.Is.
var (
	// ErrUnresolvableURL means the URL cannot be resolved to media at all:
	// malformed input, an unsupported site, or content that no longer exists.
	// Retrying does not help.
	ErrUnresolvableURL = errors.New("unresolvable url")

	// ErrRemoteFetch means the upstream platform failed while resolving or
	// downloading: network errors, rate limits, extractor breakage. The
	// condition is transient from the caller's point of view.
	ErrRemoteFetch = errors.New("remote fetch failed")

	// ErrDurationExceeded means the media runs longer than the configured
	// maximum. The payload is rejected before any bytes are retained.
	ErrDurationExceeded = errors.New("media duration exceeds maximum")

	// ErrAIService means the summarization provider failed: upload, file
	// processing timeout, generation error, or an empty response.
	ErrAIService = errors.New("ai service error")

	// ErrUnsupportedMedia means the provider rejected the media file itself
	// and no video analysis is possible for it.
	ErrUnsupportedMedia = errors.New("unsupported media")
)
