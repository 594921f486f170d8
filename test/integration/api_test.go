//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/reel-summarize-go/api"
	"github.com/yourusername/reel-summarize-go/internal/app"
	"github.com/yourusername/reel-summarize-go/internal/domain"
	"github.com/yourusername/reel-summarize-go/internal/infrastructure"
	"github.com/yourusername/reel-summarize-go/pkg/logger"
)

const testVideoURL = "https://www.instagram.com/reel/Cxyz123/"

// stubFetcher stands in for yt-dlp so the suite runs without the binary or
// network access. FetchMedia writes a real file into destDir, which keeps the
// artifact store path honest.
type stubFetcher struct {
	info       *domain.MediaInfo
	infoErr    error
	mediaErr   error
	mediaCalls int
}

func (s *stubFetcher) FetchInfo(ctx context.Context, url string) (*domain.MediaInfo, error) {
	if s.infoErr != nil {
		return nil, s.infoErr
	}
	return s.info, nil
}

func (s *stubFetcher) FetchMedia(ctx context.Context, url, destDir string) (*domain.Artifact, error) {
	s.mediaCalls++
	if s.mediaErr != nil {
		return nil, s.mediaErr
	}
	path := filepath.Join(destDir, "video.mp4")
	if err := os.WriteFile(path, []byte("fake video bytes"), 0644); err != nil {
		return nil, err
	}
	return &domain.Artifact{Path: path}, nil
}

type stubSummarizer struct {
	videoSummary    string
	videoErr        error
	metadataSummary string
	metadataErr     error
}

func (s *stubSummarizer) SummarizeVideo(ctx context.Context, info *domain.MediaInfo, artifact *domain.Artifact) (string, error) {
	if s.videoErr != nil {
		return "", s.videoErr
	}
	return s.videoSummary, nil
}

func (s *stubSummarizer) SummarizeMetadata(ctx context.Context, info *domain.MediaInfo) (string, error) {
	if s.metadataErr != nil {
		return "", s.metadataErr
	}
	return s.metadataSummary, nil
}

// newMapsStub serves Geocoding API responses with fixed coordinates per
// landmark so GeocodeAll's duplicate filtering has distinct points to keep.
func newMapsStub() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		address := r.URL.Query().Get("address")

		lat, lng := 48.8584, 2.2945
		if strings.Contains(address, "Louvre") {
			lat, lng = 48.8606, 2.3376
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"OK","results":[{"formatted_address":"%s, France","geometry":{"location":{"lat":%f,"lng":%f}}}]}`,
			address, lat, lng)
	}))
}

type apiEnv struct {
	server  *httptest.Server
	fetcher *stubFetcher
	logsDir string
}

func setupAPIServer(t *testing.T, fetcher *stubFetcher, summarizer domain.Summarizer, geminiKey string) *apiEnv {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "reelsum-integration-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	log := zap.NewNop()

	store, err := infrastructure.NewDiskArtifactStore(filepath.Join(tmpDir, "downloads"), 2, log)
	require.NoError(t, err)

	maps := newMapsStub()
	t.Cleanup(maps.Close)

	geoConfig := &domain.GeocodingConfig{
		APIKey:         "maps-test-key",
		RequestTimeout: 2 * time.Second,
		RequestSpacing: time.Millisecond,
		MaxLocations:   10,
	}
	geocoder := infrastructure.NewGoogleGeocoder(geoConfig, log, infrastructure.WithGeocoderBaseURL(maps.URL))

	notifier := infrastructure.NewNotificationService(&domain.NotificationConfig{Enabled: false}, log)

	downloadConfig := &domain.DownloadConfig{MaxDuration: 300, ConcurrentLimit: 2}
	pipeline := app.NewPipeline(fetcher, store, summarizer, geocoder, notifier, downloadConfig, log)

	logsDir := filepath.Join(tmpDir, "logs")
	require.NoError(t, os.MkdirAll(logsDir, 0755))

	geminiConfig := &domain.GeminiConfig{APIKey: geminiKey, Model: "gemini-3-flash-preview"}
	logAdapter := logger.NewSingleLoggerAdapter(log)

	router := api.SetupRouterWithMultiLogger(pipeline, geminiConfig, logAdapter, logsDir)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &apiEnv{server: server, fetcher: fetcher, logsDir: logsDir}
}

func defaultFetcher() *stubFetcher {
	return &stubFetcher{
		info: &domain.MediaInfo{
			ID:          "reel123",
			Title:       "Paris Food Tour",
			Description: "Best bites in the city",
			Duration:    42,
			Uploader:    "foodiegram",
			Platform:    "instagram",
		},
	}
}

func postJSON(t *testing.T, url string, payload interface{}) (int, []byte) {
	t.Helper()

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func getJSON(t *testing.T, url string) (int, []byte) {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestHealthEndpoints(t *testing.T) {
	env := setupAPIServer(t, defaultFetcher(), &stubSummarizer{}, "test-key")

	for _, path := range []string{"/", "/health"} {
		status, body := getJSON(t, env.server.URL+path)
		require.Equal(t, http.StatusOK, status, "path %s", path)

		var health struct {
			Status           string `json:"status"`
			Version          string `json:"version"`
			GeminiConfigured bool   `json:"gemini_configured"`
		}
		require.NoError(t, json.Unmarshal(body, &health))
		assert.Equal(t, "healthy", health.Status)
		assert.Equal(t, "1.0.0", health.Version)
		assert.True(t, health.GeminiConfigured)
	}
}

func TestInfoEndpoint(t *testing.T) {
	env := setupAPIServer(t, defaultFetcher(), &stubSummarizer{}, "test-key")

	status, body := postJSON(t, env.server.URL+"/api/info", map[string]string{"url": testVideoURL})
	require.Equal(t, http.StatusOK, status)

	var result struct {
		Success   bool              `json:"success"`
		MediaInfo *domain.MediaInfo `json:"media_info"`
	}
	require.NoError(t, json.Unmarshal(body, &result))
	require.True(t, result.Success)
	require.NotNil(t, result.MediaInfo)
	assert.Equal(t, "reel123", result.MediaInfo.ID)
	assert.Equal(t, "Paris Food Tour", result.MediaInfo.Title)
	assert.Equal(t, float64(42), result.MediaInfo.Duration)
}

func TestInfoEndpointRejectsMissingURL(t *testing.T) {
	env := setupAPIServer(t, defaultFetcher(), &stubSummarizer{}, "test-key")

	status, _ := postJSON(t, env.server.URL+"/api/info", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestInfoEndpointReportsFetchFailure(t *testing.T) {
	fetcher := defaultFetcher()
	fetcher.infoErr = fmt.Errorf("%w: private account", domain.ErrRemoteFetch)
	env := setupAPIServer(t, fetcher, &stubSummarizer{}, "test-key")

	status, body := postJSON(t, env.server.URL+"/api/info", map[string]string{"url": testVideoURL})
	require.Equal(t, http.StatusOK, status)

	var result struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &result))
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "private account")
}

func TestSummarizeVideoFlow(t *testing.T) {
	summarizer := &stubSummarizer{
		videoSummary: "### 🏷️ Title:\nHidden Food Spots of Paris\n\n" +
			"### 📝 Executive Summary\nA whirlwind tour of two landmarks and the food stalls around them.\n\n" +
			"### 📍 Locations:\n- Eiffel Tower, Paris\n- Louvre Museum\n",
	}
	env := setupAPIServer(t, defaultFetcher(), summarizer, "test-key")

	status, body := postJSON(t, env.server.URL+"/api/summarize", map[string]string{"url": testVideoURL})
	require.Equal(t, http.StatusOK, status)

	var result domain.SummaryResult
	require.NoError(t, json.Unmarshal(body, &result))

	require.True(t, result.Success, "error: %s", result.Error)
	assert.Equal(t, domain.MethodVideoAnalysis, result.Method)
	assert.Equal(t, "Hidden Food Spots of Paris", result.GeneratedTitle)
	assert.Contains(t, result.Summary, "Executive Summary")
	require.NotNil(t, result.MediaInfo)
	assert.Equal(t, "reel123", result.MediaInfo.ID)

	require.Len(t, result.Locations, 2)
	assert.Equal(t, "Eiffel Tower, Paris", result.Locations[0].Name)
	assert.InDelta(t, 48.8584, result.Locations[0].Latitude, 0.001)
	assert.Equal(t, "Louvre Museum", result.Locations[1].Name)
	assert.InDelta(t, 2.3376, result.Locations[1].Longitude, 0.001)
}

func TestSummarizeFallsBackToMetadata(t *testing.T) {
	fetcher := defaultFetcher()
	fetcher.mediaErr = fmt.Errorf("%w: geo-blocked", domain.ErrRemoteFetch)
	summarizer := &stubSummarizer{metadataSummary: "Based on the metadata, this reel tours Paris food spots."}
	env := setupAPIServer(t, fetcher, summarizer, "test-key")

	status, body := postJSON(t, env.server.URL+"/api/summarize", map[string]string{"url": testVideoURL})
	require.Equal(t, http.StatusOK, status)

	var result domain.SummaryResult
	require.NoError(t, json.Unmarshal(body, &result))

	require.True(t, result.Success, "error: %s", result.Error)
	assert.Equal(t, domain.MethodMetadataOnly, result.Method)
	assert.Contains(t, result.Summary, "Based on the metadata")
	assert.Equal(t, 1, fetcher.mediaCalls)
}

func TestSummarizeQuickSkipsDownload(t *testing.T) {
	fetcher := defaultFetcher()
	summarizer := &stubSummarizer{metadataSummary: "Quick metadata summary."}
	env := setupAPIServer(t, fetcher, summarizer, "test-key")

	status, body := postJSON(t, env.server.URL+"/api/summarize-quick", map[string]string{"url": testVideoURL})
	require.Equal(t, http.StatusOK, status)

	var result domain.SummaryResult
	require.NoError(t, json.Unmarshal(body, &result))

	require.True(t, result.Success, "error: %s", result.Error)
	assert.Equal(t, domain.MethodMetadataOnly, result.Method)
	assert.Equal(t, 0, fetcher.mediaCalls)
}

func TestSummarizeRequiresGeminiKey(t *testing.T) {
	env := setupAPIServer(t, defaultFetcher(), &stubSummarizer{}, "")

	for _, path := range []string{"/api/summarize", "/api/summarize-quick"} {
		status, body := postJSON(t, env.server.URL+path, map[string]string{"url": testVideoURL})
		assert.Equal(t, http.StatusServiceUnavailable, status, "path %s", path)
		assert.Contains(t, string(body), "GEMINI_API_KEY")
	}
}

func TestSummarizeReportsAIFailure(t *testing.T) {
	summarizer := &stubSummarizer{
		videoErr: fmt.Errorf("%w: quota exhausted", domain.ErrAIService),
	}
	env := setupAPIServer(t, defaultFetcher(), summarizer, "test-key")

	status, body := postJSON(t, env.server.URL+"/api/summarize", map[string]string{"url": testVideoURL})
	require.Equal(t, http.StatusOK, status)

	var result domain.SummaryResult
	require.NoError(t, json.Unmarshal(body, &result))

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "quota exhausted")
	// metadata survives even when the AI call fails
	require.NotNil(t, result.MediaInfo)
	assert.Equal(t, "reel123", result.MediaInfo.ID)
}

func TestLogEndpoints(t *testing.T) {
	env := setupAPIServer(t, defaultFetcher(), &stubSummarizer{}, "test-key")

	// Seed a pipeline log file for today
	logFile := filepath.Join(env.logsDir, "pipeline-"+time.Now().Format("20060102")+".log")
	lines := `{"ts":"2026-08-25T10:00:00Z","level":"info","msg":"resolving metadata","url":"` + testVideoURL + `"}
{"ts":"2026-08-25T10:00:05Z","level":"info","msg":"summary generated","method":"video_analysis"}
`
	require.NoError(t, os.WriteFile(logFile, []byte(lines), 0644))

	t.Run("read category", func(t *testing.T) {
		status, body := getJSON(t, env.server.URL+"/api/logs/pipeline?limit=10")
		require.Equal(t, http.StatusOK, status)

		var result struct {
			Category string `json:"category"`
			Count    int    `json:"count"`
		}
		require.NoError(t, json.Unmarshal(body, &result))
		assert.Equal(t, "pipeline", result.Category)
		assert.Equal(t, 2, result.Count)
	})

	t.Run("search", func(t *testing.T) {
		status, body := getJSON(t, env.server.URL+"/api/logs/pipeline/search?q=resolving")
		require.Equal(t, http.StatusOK, status)

		var result struct {
			Count int `json:"count"`
		}
		require.NoError(t, json.Unmarshal(body, &result))
		assert.Equal(t, 1, result.Count)
	})

	t.Run("categories", func(t *testing.T) {
		status, body := getJSON(t, env.server.URL+"/api/logs/categories")
		require.Equal(t, http.StatusOK, status)

		var result struct {
			Categories []string `json:"categories"`
		}
		require.NoError(t, json.Unmarshal(body, &result))
		assert.Contains(t, result.Categories, "pipeline")
		assert.Contains(t, result.Categories, "error")
	})

	t.Run("invalid category", func(t *testing.T) {
		status, _ := getJSON(t, env.server.URL+"/api/logs/bogus")
		assert.Equal(t, http.StatusBadRequest, status)
	})
}
