package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/yourusername/reel-summarize-go/internal/domain"
	"github.com/yourusername/reel-summarize-go/pkg/logger"
	"go.uber.org/zap"
)

// Extensions tried in order when locating the downloaded media file.
var preferredMediaExts = []string{".mp4", ".webm", ".mkv", ".mov"}

// YTDLPFetcher implements domain.MediaFetcher on top of the yt-dlp binary.
type YTDLPFetcher struct {
	config      *domain.DownloadConfig
	cache       domain.MediaInfoRepository // optional, nil disables caching
	cacheTTL    time.Duration
	eventLogger *logger.MultiLogger // For structured events only; raw yt-dlp output goes to the download log
}

// NewYTDLPFetcher creates a new yt-dlp backed fetcher
func NewYTDLPFetcher(config *domain.DownloadConfig, cache domain.MediaInfoRepository, cacheTTL time.Duration, eventLogger *logger.MultiLogger) *YTDLPFetcher {
	return &YTDLPFetcher{
		config:      config,
		cache:       cache,
		cacheTTL:    cacheTTL,
		eventLogger: eventLogger,
	}
}

// FetchInfo resolves metadata for a URL without downloading media bytes.
// Resolutions are cached by URL, so repeated calls stay off the platform
// until the cache entry expires.
func (f *YTDLPFetcher) FetchInfo(ctx context.Context, url string) (*domain.MediaInfo, error) {
	if err := domain.ValidateURL(url); err != nil {
		return nil, err
	}

	if f.cache != nil {
		cached, err := f.cache.Get(url)
		if err != nil {
			f.logAppError("media info cache lookup failed", zap.String("url", url), zap.Error(err))
		} else if cached != nil && !cached.Expired(f.cacheTTL) {
			return cached.Info(), nil
		}
	}

	infoCtx, cancel := context.WithTimeout(ctx, f.config.InfoTimeout)
	defer cancel()

	args := f.buildInfoArgs(url)
	cmd := exec.CommandContext(infoCtx, f.config.YTDLPBinary, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if infoCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: metadata resolution timed out after %s", domain.ErrRemoteFetch, f.config.InfoTimeout)
		}
		return nil, classifyFetchError(stderr.String(), err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(stdout.Bytes(), &raw); err != nil {
		return nil, fmt.Errorf("%w: unreadable metadata: %v", domain.ErrRemoteFetch, err)
	}

	info := buildMediaInfo(raw)

	if f.cache != nil {
		if err := f.cache.Save(domain.NewCachedMediaInfo(url, info)); err != nil {
			f.logAppError("media info cache save failed", zap.String("url", url), zap.Error(err))
		}
	}

	return info, nil
}

// FetchMedia downloads the media payload into destDir. Metadata is resolved
// first so media longer than the configured maximum is rejected before any
// bytes are retained; the match filter backstops media whose duration was
// unknown at resolution time.
func (f *YTDLPFetcher) FetchMedia(ctx context.Context, url, destDir string) (*domain.Artifact, error) {
	info, err := f.FetchInfo(ctx, url)
	if err != nil {
		return nil, err
	}

	maxDuration := f.config.MaxDuration
	if maxDuration > 0 && info.HasDuration() && info.Duration > float64(maxDuration) {
		return nil, fmt.Errorf("%w: %.0fs > %ds", domain.ErrDurationExceeded, info.Duration, maxDuration)
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}

	downloadLog, err := f.openLogFile()
	if err != nil {
		return nil, fmt.Errorf("failed to open download log: %w", err)
	}
	defer downloadLog.Close()

	args := f.buildDownloadArgs(url, destDir)
	cmdLine := ShellEscapeCommand(f.config.YTDLPBinary, args...)
	f.writeLogHeader(downloadLog, filepath.Base(destDir), cmdLine)

	fetchCtx, cancel := context.WithTimeout(ctx, f.config.FetchTimeout)
	defer cancel()

	// Raw output goes to the download log; buffers keep a copy for error
	// classification and the match-filter skip check.
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(fetchCtx, f.config.YTDLPBinary, args...)
	cmd.Stdout = io.MultiWriter(downloadLog, &stdout)
	cmd.Stderr = io.MultiWriter(downloadLog, &stderr)

	if err := cmd.Run(); err != nil {
		// Caller cancellation is terminal, never a classified fetch failure
		if ctx.Err() != nil {
			f.writeLogFooter(downloadLog, false, fmt.Sprintf("canceled: %v", ctx.Err()))
			return nil, ctx.Err()
		}
		if fetchCtx.Err() == context.DeadlineExceeded {
			f.writeLogFooter(downloadLog, false, fmt.Sprintf("timed out after %s", f.config.FetchTimeout))
			return nil, fmt.Errorf("%w: download timed out after %s", domain.ErrRemoteFetch, f.config.FetchTimeout)
		}
		classified := classifyFetchError(stderr.String(), err)
		f.writeLogFooter(downloadLog, false, fmt.Sprintf("yt-dlp failed: %v", err))
		return nil, classified
	}

	mediaPath := findMediaFile(destDir)
	if mediaPath == "" {
		output := stdout.String() + stderr.String()
		if strings.Contains(strings.ToLower(output), "does not pass filter") {
			f.writeLogFooter(downloadLog, false, "rejected by duration filter")
			return nil, fmt.Errorf("%w: rejected by duration filter (max %ds)", domain.ErrDurationExceeded, maxDuration)
		}
		f.writeLogFooter(downloadLog, false, "no media file produced")
		return nil, fmt.Errorf("%w: no media file produced", domain.ErrRemoteFetch)
	}

	f.writeLogFooter(downloadLog, true, fmt.Sprintf("Downloaded: %s", mediaPath))

	return &domain.Artifact{Path: mediaPath}, nil
}

// buildInfoArgs builds the yt-dlp arguments for metadata resolution
func (f *YTDLPFetcher) buildInfoArgs(url string) []string {
	return []string{
		"--dump-single-json",
		"--skip-download",
		"--no-warnings",
		url,
	}
}

// buildDownloadArgs builds the yt-dlp arguments for a media download
func (f *YTDLPFetcher) buildDownloadArgs(url, destDir string) []string {
	args := []string{
		"-f", "best[ext=mp4]/best",
		"--merge-output-format", "mp4",
		"-o", "%(id)s.%(ext)s",
		"-P", destDir,
		"--no-warnings",
	}

	if f.config.MaxDuration > 0 {
		args = append(args, "--match-filter", fmt.Sprintf("duration <= %d", f.config.MaxDuration))
	}

	args = append(args, url)
	return args
}

// openLogFile opens the download log file for today.
// All raw yt-dlp output (stdout and stderr) goes to this single file.
func (f *YTDLPFetcher) openLogFile() (*os.File, error) {
	if err := os.MkdirAll(f.config.LogsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	dateStr := time.Now().Format("20060102")
	downloadPath := filepath.Join(f.config.LogsDir, "download-"+dateStr+".log")
	return os.OpenFile(downloadPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

// writeLogHeader writes the download start marker
func (f *YTDLPFetcher) writeLogHeader(file *os.File, scopeID, cmdLine string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	file.WriteString(fmt.Sprintf("\n=== [%s] Download: %s ===\n", timestamp, scopeID))
	file.WriteString(fmt.Sprintf("$ %s\n", cmdLine))
}

// writeLogFooter writes the download end marker
func (f *YTDLPFetcher) writeLogFooter(file *os.File, success bool, message string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	file.WriteString(fmt.Sprintf("[%s] %s: %s\n", timestamp, status, message))
	file.WriteString("=== END ===\n\n")
}

func (f *YTDLPFetcher) logAppError(msg string, fields ...zap.Field) {
	if f.eventLogger != nil {
		f.eventLogger.LogAppError(msg, fields...)
	}
}

// Substrings in yt-dlp stderr that mean the URL itself is bad, not that the
// platform hiccuped.
var unresolvableMarkers = []string{
	"is not a valid url",
	"unsupported url",
	"http error 404",
	"http error 410",
	"video unavailable",
	"page not found",
	"content isn't available",
	"no video could be found",
}

// classifyFetchError maps yt-dlp failure output onto the domain error
// taxonomy. Anything unrecognized counts as a transient remote failure.
func classifyFetchError(stderr string, execErr error) error {
	detail := lastErrorLine(stderr)
	lowered := strings.ToLower(detail)
	if lowered == "" {
		lowered = strings.ToLower(stderr)
	}

	for _, marker := range unresolvableMarkers {
		if strings.Contains(lowered, marker) {
			return fmt.Errorf("%w: %s", domain.ErrUnresolvableURL, detail)
		}
	}

	if detail != "" {
		return fmt.Errorf("%w: %s", domain.ErrRemoteFetch, detail)
	}
	return fmt.Errorf("%w: %v", domain.ErrRemoteFetch, execErr)
}

// lastErrorLine extracts the most useful line from yt-dlp stderr: the last
// ERROR line if present, otherwise the last non-empty line.
func lastErrorLine(stderr string) string {
	lines := strings.Split(stderr, "\n")
	lastNonEmpty := ""
	lastError := ""
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lastNonEmpty = trimmed
		if strings.HasPrefix(trimmed, "ERROR:") {
			lastError = trimmed
		}
	}
	if lastError != "" {
		return truncateString(lastError, 300)
	}
	return truncateString(lastNonEmpty, 300)
}

// buildMediaInfo maps a yt-dlp info dict onto MediaInfo
func buildMediaInfo(raw map[string]interface{}) *domain.MediaInfo {
	platform := stringField(raw, "extractor_key")
	if platform == "" {
		platform = "Unknown"
	}

	return &domain.MediaInfo{
		ID:          stringField(raw, "id"),
		Title:       stringField(raw, "title"),
		Description: stringField(raw, "description"),
		Duration:    floatField(raw, "duration"),
		Uploader:    stringField(raw, "uploader"),
		Thumbnail:   stringField(raw, "thumbnail"),
		Platform:    platform,
	}
}

// findMediaFile locates the downloaded media file in dir: first by preferred
// extension, then any regular file that is not a sidecar.
func findMediaFile(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	var fallback string
	byExt := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ".part") || strings.HasSuffix(name, ".info.json") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		if _, ok := byExt[ext]; !ok {
			byExt[ext] = filepath.Join(dir, name)
		}
		if fallback == "" {
			fallback = filepath.Join(dir, name)
		}
	}

	for _, ext := range preferredMediaExts {
		if path, ok := byExt[ext]; ok {
			return path
		}
	}
	return fallback
}

// stringField safely extracts a string from a yt-dlp info dict
func stringField(data map[string]interface{}, key string) string {
	if val, ok := data[key].(string); ok {
		return val
	}
	return ""
}

// floatField safely extracts a number from a yt-dlp info dict
func floatField(data map[string]interface{}, key string) float64 {
	if val, ok := data[key].(float64); ok {
		return val
	}
	return 0
}
