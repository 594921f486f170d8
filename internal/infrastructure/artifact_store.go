package infrastructure

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DiskArtifactStore hands out per-request scope directories under a base
// download directory and guarantees their removal. A semaphore caps how many
// scopes exist at once so disk usage stays bounded.
type DiskArtifactStore struct {
	baseDir string
	sem     chan struct{}
	logger  *zap.Logger
}

// NewDiskArtifactStore creates a store rooted at baseDir. concurrentLimit
// caps simultaneous scopes; values below 1 are treated as 1.
func NewDiskArtifactStore(baseDir string, concurrentLimit int, logger *zap.Logger) (*DiskArtifactStore, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("artifact base dir must be specified")
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact dir: %w", err)
	}
	if concurrentLimit < 1 {
		concurrentLimit = 1
	}

	return &DiskArtifactStore{
		baseDir: baseDir,
		sem:     make(chan struct{}, concurrentLimit),
		logger:  logger,
	}, nil
}

// BaseDir returns the directory scopes are created under.
func (s *DiskArtifactStore) BaseDir() string {
	return s.baseDir
}

// WithScope runs fn with a fresh private directory and removes the directory
// when fn returns, on every exit path. Removal failures are logged and never
// surfaced; the summarize result must not depend on cleanup.
func (s *DiskArtifactStore) WithScope(ctx context.Context, fn func(dir string) error) error {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.sem }()

	scopeID := uuid.New().String()[:8]
	dir := filepath.Join(s.baseDir, scopeID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create scope dir: %w", err)
	}

	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			s.logger.Warn("failed to remove artifact scope",
				zap.String("scope_id", scopeID),
				zap.String("dir", dir),
				zap.Error(err))
			return
		}
		s.logger.Debug("removed artifact scope", zap.String("scope_id", scopeID))
	}()

	return fn(dir)
}

// Sweep removes every leftover scope directory under the base dir. Called at
// startup and shutdown to clear residue from crashed or interrupted runs.
func (s *DiskArtifactStore) Sweep() (int, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read artifact dir: %w", err)
	}

	removed := 0
	var lastErr error
	for _, entry := range entries {
		path := filepath.Join(s.baseDir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			s.logger.Warn("failed to sweep artifact entry",
				zap.String("path", path),
				zap.Error(err))
			lastErr = err
			continue
		}
		removed++
	}

	return removed, lastErr
}
