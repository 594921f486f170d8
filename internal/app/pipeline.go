package app

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/yourusername/reel-summarize-go/internal/domain"
	"github.com/yourusername/reel-summarize-go/internal/infrastructure"
	"go.uber.org/zap"
)

// Pipeline coordinates metadata resolution, media acquisition and
// summarization for a single URL.
//
// The full path downloads the media inside an artifact scope and analyzes
// the video; when the media is too long or cannot be fetched it falls back
// to a metadata-only summary. AI failures do not fall back: the result is
// a failure carrying whatever metadata was resolved.
type Pipeline struct {
	fetcher    domain.MediaFetcher
	store      domain.ArtifactStore
	summarizer domain.Summarizer
	geocoder   domain.Geocoder
	notifier   *infrastructure.NotificationService
	config     *domain.DownloadConfig
	logger     *zap.Logger
}

// NewPipeline creates a new pipeline
func NewPipeline(
	fetcher domain.MediaFetcher,
	store domain.ArtifactStore,
	summarizer domain.Summarizer,
	geocoder domain.Geocoder,
	notifier *infrastructure.NotificationService,
	config *domain.DownloadConfig,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		fetcher:    fetcher,
		store:      store,
		summarizer: summarizer,
		geocoder:   geocoder,
		notifier:   notifier,
		config:     config,
		logger:     logger,
	}
}

// GetInfo resolves metadata for a URL without summarizing.
func (p *Pipeline) GetInfo(ctx context.Context, url string) (*domain.MediaInfo, error) {
	return p.fetcher.FetchInfo(ctx, url)
}

// Summarize runs the pipeline for a URL. The returned result is always
// non-nil; failures are reported through it rather than as an error.
func (p *Pipeline) Summarize(ctx context.Context, url string, preferVideo bool) *domain.SummaryResult {
	runID := uuid.New().String()[:8]
	log := p.logger.With(zap.String("run_id", runID), zap.String("url", url))

	log.Info("resolving metadata")
	info, err := p.fetcher.FetchInfo(ctx, url)
	if err != nil {
		log.Error("metadata resolution failed", zap.Error(err))
		p.notifier.NotifySummaryFailed(url, err)
		return domain.NewFailureResult(url, err.Error(), nil)
	}

	useVideo := preferVideo
	if useVideo && p.config.MaxDuration > 0 && info.HasDuration() && info.Duration > float64(p.config.MaxDuration) {
		log.Info("duration exceeds limit, using metadata only",
			zap.Float64("duration", info.Duration),
			zap.Int("max_duration", p.config.MaxDuration))
		useVideo = false
	}

	summary, method, err := p.produceSummary(ctx, log, url, info, useVideo)
	if err != nil {
		log.Error("summarization failed", zap.Error(err))
		p.notifier.NotifySummaryFailed(url, err)
		return domain.NewFailureResult(url, err.Error(), info)
	}

	result := domain.NewSuccessResult(url, summary, method, info)
	result.GeneratedTitle = domain.ExtractTitle(summary)

	if names := p.geocoder.ExtractLocations(summary); len(names) > 0 {
		log.Info("geocoding locations", zap.Int("count", len(names)))
		result.Locations = p.geocoder.GeocodeAll(ctx, names)
	}

	log.Info("summary complete",
		zap.String("method", string(method)),
		zap.Int("locations", len(result.Locations)))
	p.notifier.NotifySummaryCompleted(url, method)

	return result
}

// SummarizeQuick runs the metadata-only path. It never downloads media.
func (p *Pipeline) SummarizeQuick(ctx context.Context, url string) *domain.SummaryResult {
	return p.Summarize(ctx, url, false)
}

// produceSummary tries the video path when requested and falls back to
// metadata when the media cannot be acquired. Only acquisition failures
// fall back; AI failures are returned as-is.
func (p *Pipeline) produceSummary(ctx context.Context, log *zap.Logger, url string, info *domain.MediaInfo, useVideo bool) (string, domain.SummaryMethod, error) {
	if useVideo {
		summary, err := p.summarizeFromVideo(ctx, log, url, info)
		if err == nil {
			return summary, domain.MethodVideoAnalysis, nil
		}
		if !errors.Is(err, domain.ErrDurationExceeded) && !errors.Is(err, domain.ErrRemoteFetch) {
			return "", "", err
		}
		log.Warn("video path unavailable, falling back to metadata", zap.Error(err))
	}

	log.Info("summarizing from metadata")
	summary, err := p.summarizer.SummarizeMetadata(ctx, info)
	if err != nil {
		return "", "", err
	}
	return summary, domain.MethodMetadataOnly, nil
}

// summarizeFromVideo downloads the media into a scoped directory and
// analyzes it. The scope, and with it the downloaded file, is gone by the
// time this returns.
func (p *Pipeline) summarizeFromVideo(ctx context.Context, log *zap.Logger, url string, info *domain.MediaInfo) (string, error) {
	var summary string
	err := p.store.WithScope(ctx, func(dir string) error {
		log.Info("downloading media", zap.String("dir", dir))
		artifact, err := p.fetcher.FetchMedia(ctx, url, dir)
		if err != nil {
			return err
		}

		log.Info("summarizing from video", zap.String("file", artifact.Path))
		summary, err = p.summarizer.SummarizeVideo(ctx, info, artifact)
		return err
	})
	return summary, err
}
