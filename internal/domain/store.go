package domain

import "context"

// ArtifactStore hands out private directories for downloaded media, scoped to
// a single pipeline run.
type ArtifactStore interface {
	// WithScope runs fn with a fresh directory and removes the directory
	// and everything in it when fn returns, on every exit path including
	// panics and cancellation. Deletion failures are logged, never
	// surfaced. WithScope blocks while the concurrent scope quota is
	// exhausted, honoring ctx.
	WithScope(ctx context.Context, fn func(dir string) error) error
}
