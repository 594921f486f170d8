package domain

import "context"

// Summarizer produces summary text from media content or from metadata alone.
type Summarizer interface {
	// SummarizeVideo analyzes the downloaded media file. It never falls
	// back on its own; failures are reported so the orchestrator can
	// decide. Errors wrap ErrAIService or ErrUnsupportedMedia.
	SummarizeVideo(ctx context.Context, info *MediaInfo, artifact *Artifact) (string, error)

	// SummarizeMetadata summarizes from the resolved metadata only. Errors
	// wrap ErrAIService.
	SummarizeMetadata(ctx context.Context, info *MediaInfo) (string, error)
}

// Geocoder resolves place names mentioned in summary text to coordinates.
type Geocoder interface {
	// ExtractLocations parses place names out of summary text.
	ExtractLocations(text string) []string

	// GeocodeAll resolves names to coordinates, dropping names that do not
	// geocode. Best effort; it never fails the surrounding pipeline run.
	GeocodeAll(ctx context.Context, names []string) []Location
}
