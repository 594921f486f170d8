package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/reel-summarize-go/internal/domain"
	"go.uber.org/zap"
)

// fakeGemini emulates the upload, file and generateContent endpoints.
type fakeGemini struct {
	mu      sync.Mutex
	baseURL string

	uploadState  string
	pollStates   []string
	generateText string

	failUploadStart bool
	generateStatus  int

	uploadStarts  int
	uploadedBytes int
	getFileCalls  int
	deleteCalls   int
	generateCalls int
	lastGenerate  *generateContentRequest
}

func (f *fakeGemini) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/upload/v1beta/files":
		f.uploadStarts++
		if f.failUploadStart {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("X-Goog-Upload-URL", f.baseURL+"/upload-session")
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodPost && r.URL.Path == "/upload-session":
		body, _ := io.ReadAll(r.Body)
		f.uploadedBytes = len(body)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"file": map[string]string{
				"name":  "files/fake123",
				"uri":   f.baseURL + "/v1beta/files/fake123",
				"state": f.uploadState,
			},
		})

	case r.Method == http.MethodGet && r.URL.Path == "/v1beta/files/fake123":
		f.getFileCalls++
		state := fileStateActive
		if len(f.pollStates) > 0 {
			state = f.pollStates[0]
			f.pollStates = f.pollStates[1:]
		}
		json.NewEncoder(w).Encode(map[string]string{
			"name":  "files/fake123",
			"uri":   f.baseURL + "/v1beta/files/fake123",
			"state": state,
		})

	case r.Method == http.MethodDelete && r.URL.Path == "/v1beta/files/fake123":
		f.deleteCalls++
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodPost && strings.Contains(r.URL.Path, ":generateContent"):
		f.generateCalls++
		var req generateContentRequest
		json.NewDecoder(r.Body).Decode(&req)
		f.lastGenerate = &req
		if f.generateStatus != 0 {
			w.WriteHeader(f.generateStatus)
			w.Write([]byte(`{"error": {"message": "boom"}}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{
					"content": map[string]interface{}{
						"parts": []map[string]string{{"text": f.generateText}},
					},
				},
			},
		})

	default:
		http.NotFound(w, r)
	}
}

func setupGeminiSummarizer(t *testing.T) (*fakeGemini, *GeminiSummarizer, func()) {
	fake := &fakeGemini{
		uploadState:  "PROCESSING",
		pollStates:   []string{fileStateActive},
		generateText: "Generated summary.",
	}

	server := httptest.NewServer(http.HandlerFunc(fake.handle))
	fake.baseURL = server.URL

	config := &domain.GeminiConfig{
		APIKey:          "test-key",
		Model:           "gemini-test",
		UploadTimeout:   5 * time.Second,
		GenerateTimeout: 5 * time.Second,
		PollInterval:    time.Millisecond,
		PollTimeout:     time.Second,
	}
	client := NewGeminiClient(config, WithGeminiBaseURL(server.URL))
	summarizer := NewGeminiSummarizer(client, zap.NewNop())

	return fake, summarizer, server.Close
}

func writeTestVideo(t *testing.T, name string) (string, func()) {
	tempDir, err := os.MkdirTemp("", "summarizer-test-*")
	require.NoError(t, err)

	path := filepath.Join(tempDir, name)
	require.NoError(t, os.WriteFile(path, []byte("fake video bytes"), 0644))

	return path, func() { os.RemoveAll(tempDir) }
}

func TestGeminiSummarizerSummarizeMetadata(t *testing.T) {
	fake, summarizer, cleanup := setupGeminiSummarizer(t)
	defer cleanup()

	info := &domain.MediaInfo{
		Title:       "Street Food in Bangkok",
		Description: "Trying the best pad thai in town",
		Uploader:    "foodventures",
		Duration:    65,
	}

	summary, err := summarizer.SummarizeMetadata(context.Background(), info)
	require.NoError(t, err)
	assert.Equal(t, "Generated summary.", summary)

	assert.Equal(t, 0, fake.uploadStarts)
	require.NotNil(t, fake.lastGenerate)
	require.Len(t, fake.lastGenerate.Contents, 1)
	require.Len(t, fake.lastGenerate.Contents[0].Parts, 1)

	prompt := fake.lastGenerate.Contents[0].Parts[0].Text
	assert.Contains(t, prompt, "Title: Street Food in Bangkok")
	assert.Contains(t, prompt, "Description: Trying the best pad thai in town")
	assert.Contains(t, prompt, "Creator: foodventures")
	assert.Contains(t, prompt, "Duration: 1m 5s")
	assert.Contains(t, prompt, "Please provide:")

	require.NotNil(t, fake.lastGenerate.SystemInstruction)
	require.Len(t, fake.lastGenerate.SystemInstruction.Parts, 1)
	assert.Equal(t, summarySystemInstruction, fake.lastGenerate.SystemInstruction.Parts[0].Text)
}

func TestGeminiSummarizerSummarizeMetadataError(t *testing.T) {
	fake, summarizer, cleanup := setupGeminiSummarizer(t)
	defer cleanup()

	fake.generateStatus = http.StatusInternalServerError

	_, err := summarizer.SummarizeMetadata(context.Background(), &domain.MediaInfo{Title: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAIService))
}

func TestGeminiSummarizerSummarizeVideo(t *testing.T) {
	fake, summarizer, cleanup := setupGeminiSummarizer(t)
	defer cleanup()

	path, removeVideo := writeTestVideo(t, "clip.mp4")
	defer removeVideo()

	info := &domain.MediaInfo{Title: "Morning Routine", Uploader: "dailyvlogs"}
	artifact := &domain.Artifact{Path: path}

	summary, err := summarizer.SummarizeVideo(context.Background(), info, artifact)
	require.NoError(t, err)
	assert.Equal(t, "Generated summary.", summary)

	assert.Equal(t, 1, fake.uploadStarts)
	assert.Equal(t, len("fake video bytes"), fake.uploadedBytes)
	assert.Equal(t, 1, fake.deleteCalls)

	require.NotNil(t, fake.lastGenerate)
	require.Len(t, fake.lastGenerate.Contents, 1)
	parts := fake.lastGenerate.Contents[0].Parts
	require.Len(t, parts, 2)

	require.NotNil(t, parts[0].FileData)
	assert.Equal(t, "video/mp4", parts[0].FileData.MimeType)
	assert.Contains(t, parts[0].FileData.FileURI, "files/fake123")

	assert.Contains(t, parts[1].Text, "analyze the provided video")
	assert.Contains(t, parts[1].Text, "Additional context:\nTitle: Morning Routine\nCreator: dailyvlogs")
}

func TestGeminiSummarizerSummarizeVideoProcessingFailed(t *testing.T) {
	fake, summarizer, cleanup := setupGeminiSummarizer(t)
	defer cleanup()

	fake.pollStates = []string{fileStateFailed}

	path, removeVideo := writeTestVideo(t, "clip.mov")
	defer removeVideo()

	_, err := summarizer.SummarizeVideo(context.Background(), &domain.MediaInfo{}, &domain.Artifact{Path: path})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnsupportedMedia))

	// The uploaded copy is still deleted after a processing failure
	assert.Equal(t, 1, fake.deleteCalls)
	assert.Equal(t, 0, fake.generateCalls)
}

func TestGeminiSummarizerSummarizeVideoGenerateError(t *testing.T) {
	fake, summarizer, cleanup := setupGeminiSummarizer(t)
	defer cleanup()

	fake.generateStatus = http.StatusServiceUnavailable

	path, removeVideo := writeTestVideo(t, "clip.mp4")
	defer removeVideo()

	_, err := summarizer.SummarizeVideo(context.Background(), &domain.MediaInfo{}, &domain.Artifact{Path: path})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAIService))
	assert.Equal(t, 1, fake.deleteCalls)
}

func TestGeminiSummarizerSummarizeVideoUploadError(t *testing.T) {
	fake, summarizer, cleanup := setupGeminiSummarizer(t)
	defer cleanup()

	fake.failUploadStart = true

	path, removeVideo := writeTestVideo(t, "clip.mp4")
	defer removeVideo()

	_, err := summarizer.SummarizeVideo(context.Background(), &domain.MediaInfo{}, &domain.Artifact{Path: path})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAIService))

	// Nothing was uploaded, so there is nothing to delete
	assert.Equal(t, 0, fake.deleteCalls)
}

func TestMimeTypeForFile(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"clip.mp4", "video/mp4"},
		{"clip.webm", "video/webm"},
		{"clip.MOV", "video/quicktime"},
		{"clip.mkv", "video/x-matroska"},
		{"clip.avi", "video/x-msvideo"},
		{"clip.flv", "video/mp4"},
		{"clip", "video/mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, mimeTypeForFile(tt.path))
		})
	}
}

func TestBuildMetadataPrompt(t *testing.T) {
	t.Run("full info", func(t *testing.T) {
		info := &domain.MediaInfo{
			Title:       "A Title",
			Description: "A description",
			Uploader:    "creator",
			Duration:    125,
		}

		prompt := buildMetadataPrompt(info)
		lines := strings.Split(prompt, "\n")

		assert.Equal(t, "Title: A Title", lines[0])
		assert.Equal(t, "Description: A description", lines[1])
		assert.Equal(t, "Creator: creator", lines[2])
		assert.Equal(t, "Duration: 2m 5s", lines[3])
		assert.True(t, strings.HasSuffix(prompt, metadataSummaryPrompt))
	})

	t.Run("partial info", func(t *testing.T) {
		prompt := buildMetadataPrompt(&domain.MediaInfo{Title: "Only Title"})
		assert.Contains(t, prompt, "Title: Only Title")
		assert.NotContains(t, prompt, "Description:")
		assert.NotContains(t, prompt, "Duration:")
	})

	t.Run("nil info", func(t *testing.T) {
		assert.Equal(t, metadataSummaryPrompt, buildMetadataPrompt(nil))
	})
}

func TestBuildVideoPrompt(t *testing.T) {
	t.Run("with metadata context", func(t *testing.T) {
		prompt := buildVideoPrompt(&domain.MediaInfo{Title: "My Video", Uploader: "someone"})
		assert.Contains(t, prompt, "Additional context:\nTitle: My Video\nCreator: someone")
	})

	t.Run("without metadata", func(t *testing.T) {
		assert.Equal(t, videoSummaryPrompt, buildVideoPrompt(nil))
		assert.Equal(t, videoSummaryPrompt, buildVideoPrompt(&domain.MediaInfo{}))
	})
}
