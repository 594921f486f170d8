package infrastructure

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yourusername/reel-summarize-go/internal/domain"
	"go.uber.org/zap"
)

var videoMimeTypes = map[string]string{
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
}

// GeminiSummarizer implements domain.Summarizer on the Gemini API.
type GeminiSummarizer struct {
	client *GeminiClient
	logger *zap.Logger
}

// NewGeminiSummarizer creates a new Gemini-backed summarizer
func NewGeminiSummarizer(client *GeminiClient, logger *zap.Logger) *GeminiSummarizer {
	return &GeminiSummarizer{
		client: client,
		logger: logger,
	}
}

// SummarizeMetadata generates a summary from resolved metadata only.
func (s *GeminiSummarizer) SummarizeMetadata(ctx context.Context, info *domain.MediaInfo) (string, error) {
	prompt := buildMetadataPrompt(info)

	summary, err := s.client.GenerateContent(ctx, summarySystemInstruction, []geminiPart{{Text: prompt}})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrAIService, err)
	}
	return summary, nil
}

// SummarizeVideo uploads the media file, waits until the service has
// processed it, and generates a summary from the video content. The uploaded
// copy is deleted before returning no matter how generation went.
func (s *GeminiSummarizer) SummarizeVideo(ctx context.Context, info *domain.MediaInfo, artifact *domain.Artifact) (string, error) {
	mimeType := mimeTypeForFile(artifact.Path)

	uploaded, err := s.client.UploadFile(ctx, artifact.Path, mimeType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrAIService, err)
	}
	defer func() {
		// Fresh context so the remote copy is removed even when the
		// request context is already canceled
		deleteCtx, cancel := context.WithTimeout(context.Background(), geminiMetadataTimeout)
		defer cancel()
		if err := s.client.DeleteFile(deleteCtx, uploaded.Name); err != nil {
			s.logger.Warn("failed to delete uploaded media",
				zap.String("file", uploaded.Name),
				zap.Error(err))
		}
	}()

	active, err := s.client.WaitForActive(ctx, uploaded)
	if err != nil {
		if IsFileProcessingFailure(err) {
			return "", fmt.Errorf("%w: %v", domain.ErrUnsupportedMedia, err)
		}
		return "", fmt.Errorf("%w: %v", domain.ErrAIService, err)
	}

	parts := []geminiPart{
		{FileData: &geminiFileData{MimeType: mimeType, FileURI: active.URI}},
		{Text: buildVideoPrompt(info)},
	}

	summary, err := s.client.GenerateContent(ctx, summarySystemInstruction, parts)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrAIService, err)
	}
	return summary, nil
}

// buildVideoPrompt assembles the video analysis prompt, appending whatever
// metadata context is available.
func buildVideoPrompt(info *domain.MediaInfo) string {
	prompt := videoSummaryPrompt

	var contextLines []string
	if info != nil {
		if info.Title != "" {
			contextLines = append(contextLines, "Title: "+info.Title)
		}
		if info.Uploader != "" {
			contextLines = append(contextLines, "Creator: "+info.Uploader)
		}
	}
	if len(contextLines) > 0 {
		prompt += "\n\nAdditional context:\n" + strings.Join(contextLines, "\n")
	}

	return prompt
}

// buildMetadataPrompt assembles the metadata-only prompt from the fields the
// platform exposed.
func buildMetadataPrompt(info *domain.MediaInfo) string {
	var lines []string
	if info != nil {
		if info.Title != "" {
			lines = append(lines, "Title: "+info.Title)
		}
		if info.Description != "" {
			lines = append(lines, "Description: "+info.Description)
		}
		if info.Uploader != "" {
			lines = append(lines, "Creator: "+info.Uploader)
		}
		if info.HasDuration() {
			minutes := int(info.Duration) / 60
			seconds := int(info.Duration) % 60
			lines = append(lines, fmt.Sprintf("Duration: %dm %ds", minutes, seconds))
		}
	}
	lines = append(lines, metadataSummaryPrompt)
	return strings.Join(lines, "\n")
}

// mimeTypeForFile maps a media file extension to its mime type
func mimeTypeForFile(path string) string {
	if mime, ok := videoMimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mime
	}
	return "video/mp4"
}
