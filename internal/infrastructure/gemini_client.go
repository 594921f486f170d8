package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/reel-summarize-go/internal/domain"
)

const (
	defaultGeminiBaseURL  = "https://generativelanguage.googleapis.com"
	geminiMetadataTimeout = 30 * time.Second

	fileStateActive = "ACTIVE"
	fileStateFailed = "FAILED"
)

// GeminiClient wraps the Gemini Files and generateContent REST APIs.
type GeminiClient struct {
	apiKey          string
	model           string
	baseURL         string
	httpClient      *http.Client
	uploadTimeout   time.Duration
	generateTimeout time.Duration
	pollInterval    time.Duration
	pollTimeout     time.Duration
}

// GeminiOption customizes the client.
type GeminiOption func(*GeminiClient)

// WithGeminiHTTPClient overrides the default HTTP client.
func WithGeminiHTTPClient(client *http.Client) GeminiOption {
	return func(c *GeminiClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithGeminiBaseURL overrides the API endpoint (useful for tests).
func WithGeminiBaseURL(baseURL string) GeminiOption {
	return func(c *GeminiClient) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// NewGeminiClient constructs a client from the Gemini configuration.
func NewGeminiClient(config *domain.GeminiConfig, opts ...GeminiOption) *GeminiClient {
	client := &GeminiClient{
		apiKey:          strings.TrimSpace(config.APIKey),
		model:           strings.TrimSpace(config.Model),
		baseURL:         defaultGeminiBaseURL,
		httpClient:      &http.Client{},
		uploadTimeout:   config.UploadTimeout,
		generateTimeout: config.GenerateTimeout,
		pollInterval:    config.PollInterval,
		pollTimeout:     config.PollTimeout,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// geminiFile is the Files API resource.
type geminiFile struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	MimeType string `json:"mimeType"`
	State    string `json:"state"`
}

type geminiPart struct {
	Text     string          `json:"text,omitempty"`
	FileData *geminiFileData `json:"fileData,omitempty"`
}

type geminiFileData struct {
	MimeType string `json:"mimeType"`
	FileURI  string `json:"fileUri"`
}

type generateContentRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type geminiStatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *geminiStatusError) Error() string {
	return fmt.Sprintf("%s: http %d: %s", e.Op, e.StatusCode, strings.TrimSpace(e.Body))
}

// fileProcessingError means the service could not process the uploaded media.
type fileProcessingError struct {
	Name  string
	State string
}

func (e *fileProcessingError) Error() string {
	return fmt.Sprintf("file %s entered state %s", e.Name, e.State)
}

// IsFileProcessingFailure reports whether err means the provider rejected the
// media file itself rather than failing transiently.
func IsFileProcessingFailure(err error) bool {
	var fe *fileProcessingError
	return errors.As(err, &fe)
}

// UploadFile uploads a local media file via the resumable upload protocol and
// returns the created file resource. The returned file may still be in the
// PROCESSING state; callers wait with WaitForActive.
func (c *GeminiClient) UploadFile(ctx context.Context, path, mimeType string) (*geminiFile, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("gemini upload: stat media: %w", err)
	}
	size := stat.Size()

	uploadCtx := ctx
	if c.uploadTimeout > 0 {
		var cancel context.CancelFunc
		uploadCtx, cancel = context.WithTimeout(ctx, c.uploadTimeout)
		defer cancel()
	}

	// Step 1: start the resumable session and learn the upload URL
	startBody, err := json.Marshal(map[string]interface{}{
		"file": map[string]string{"display_name": filepath.Base(path)},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini upload: encode start body: %w", err)
	}

	startURL := fmt.Sprintf("%s/upload/v1beta/files?key=%s", c.baseURL, c.apiKey)
	startReq, err := http.NewRequestWithContext(uploadCtx, http.MethodPost, startURL, bytes.NewReader(startBody))
	if err != nil {
		return nil, fmt.Errorf("gemini upload: new start request: %w", err)
	}
	startReq.Header.Set("X-Goog-Upload-Protocol", "resumable")
	startReq.Header.Set("X-Goog-Upload-Command", "start")
	startReq.Header.Set("X-Goog-Upload-Header-Content-Length", strconv.FormatInt(size, 10))
	startReq.Header.Set("X-Goog-Upload-Header-Content-Type", mimeType)
	startReq.Header.Set("Content-Type", "application/json")

	startResp, err := c.httpClient.Do(startReq)
	if err != nil {
		return nil, fmt.Errorf("gemini upload: start session: %w", err)
	}
	io.Copy(io.Discard, startResp.Body)
	startResp.Body.Close()
	if startResp.StatusCode != http.StatusOK {
		return nil, &geminiStatusError{Op: "gemini upload start", StatusCode: startResp.StatusCode}
	}

	uploadURL := startResp.Header.Get("X-Goog-Upload-URL")
	if uploadURL == "" {
		return nil, errors.New("gemini upload: missing upload url in session response")
	}

	// Step 2: send the bytes and finalize in one shot
	media, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gemini upload: open media: %w", err)
	}
	defer media.Close()

	uploadReq, err := http.NewRequestWithContext(uploadCtx, http.MethodPost, uploadURL, media)
	if err != nil {
		return nil, fmt.Errorf("gemini upload: new upload request: %w", err)
	}
	uploadReq.ContentLength = size
	uploadReq.Header.Set("X-Goog-Upload-Offset", "0")
	uploadReq.Header.Set("X-Goog-Upload-Command", "upload, finalize")

	uploadResp, err := c.httpClient.Do(uploadReq)
	if err != nil {
		return nil, fmt.Errorf("gemini upload: send media: %w", err)
	}
	defer uploadResp.Body.Close()

	body, err := io.ReadAll(uploadResp.Body)
	if err != nil {
		return nil, fmt.Errorf("gemini upload: read response: %w", err)
	}
	if uploadResp.StatusCode != http.StatusOK {
		return nil, &geminiStatusError{Op: "gemini upload", StatusCode: uploadResp.StatusCode, Body: string(body)}
	}

	var result struct {
		File geminiFile `json:"file"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("gemini upload: decode response: %w", err)
	}
	if result.File.Name == "" {
		return nil, errors.New("gemini upload: response missing file name")
	}

	return &result.File, nil
}

// GetFile fetches the current state of a file resource. name is the API
// resource name, e.g. "files/abc123".
func (c *GeminiClient) GetFile(ctx context.Context, name string) (*geminiFile, error) {
	reqCtx, cancel := context.WithTimeout(ctx, geminiMetadataTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/v1beta/%s?key=%s", c.baseURL, name, c.apiKey)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini get file: new request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini get file: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gemini get file: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &geminiStatusError{Op: "gemini get file", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var file geminiFile
	if err := json.Unmarshal(body, &file); err != nil {
		return nil, fmt.Errorf("gemini get file: decode response: %w", err)
	}
	return &file, nil
}

// WaitForActive polls the file until it is ACTIVE. A FAILED state returns a
// fileProcessingError; running out of poll budget returns a timeout error.
func (c *GeminiClient) WaitForActive(ctx context.Context, file *geminiFile) (*geminiFile, error) {
	if file.State == fileStateActive {
		return file, nil
	}

	deadline := time.Now().Add(c.pollTimeout)
	current := file

	for {
		if current.State == fileStateActive {
			return current, nil
		}
		if current.State == fileStateFailed {
			return nil, &fileProcessingError{Name: current.Name, State: current.State}
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("gemini file %s not active after %s", file.Name, c.pollTimeout)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}

		refreshed, err := c.GetFile(ctx, file.Name)
		if err != nil {
			return nil, err
		}
		current = refreshed
	}
}

// DeleteFile removes an uploaded file. Callers always delete after
// generation, whether it succeeded or not.
func (c *GeminiClient) DeleteFile(ctx context.Context, name string) error {
	reqCtx, cancel := context.WithTimeout(ctx, geminiMetadataTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/v1beta/%s?key=%s", c.baseURL, name, c.apiKey)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("gemini delete file: new request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gemini delete file: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &geminiStatusError{Op: "gemini delete file", StatusCode: resp.StatusCode}
	}
	return nil
}

// GenerateContent runs the model over the supplied parts and returns the
// concatenated response text.
func (c *GeminiClient) GenerateContent(ctx context.Context, systemInstruction string, parts []geminiPart) (string, error) {
	genCtx := ctx
	if c.generateTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, c.generateTimeout)
		defer cancel()
	}

	payload := generateContentRequest{
		Contents: []geminiContent{{Parts: parts}},
	}
	if systemInstruction != "" {
		payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: systemInstruction}}}
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("gemini generate: encode body: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(genCtx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("gemini generate: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gemini generate: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &geminiStatusError{Op: "gemini generate", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var decoded generateContentResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("gemini generate: decode response: %w", err)
	}

	if decoded.PromptFeedback != nil && decoded.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("gemini generate: prompt blocked: %s", decoded.PromptFeedback.BlockReason)
	}

	var text strings.Builder
	if len(decoded.Candidates) > 0 {
		for _, part := range decoded.Candidates[0].Content.Parts {
			text.WriteString(part.Text)
		}
	}

	result := strings.TrimSpace(text.String())
	if result == "" {
		finishReason := ""
		if len(decoded.Candidates) > 0 {
			finishReason = decoded.Candidates[0].FinishReason
		}
		return "", fmt.Errorf("gemini generate: empty response (finish_reason=%q)", finishReason)
	}

	return result, nil
}
