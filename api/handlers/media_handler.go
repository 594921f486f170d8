package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/reel-summarize-go/internal/app"
	"github.com/yourusername/reel-summarize-go/internal/domain"
	"go.uber.org/zap"
)

// MediaHandler handles info and summarize requests
type MediaHandler struct {
	pipeline *app.Pipeline
	gemini   *domain.GeminiConfig
	logger   *zap.Logger
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(pipeline *app.Pipeline, gemini *domain.GeminiConfig, logger *zap.Logger) *MediaHandler {
	return &MediaHandler{
		pipeline: pipeline,
		gemini:   gemini,
		logger:   logger,
	}
}

// InfoRequest represents a request to resolve a URL
type InfoRequest struct {
	URL string `json:"url" binding:"required"`
}

// InfoResponse represents metadata for a URL
type InfoResponse struct {
	Success   bool              `json:"success"`
	MediaInfo *domain.MediaInfo `json:"media_info,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// SummarizeRequest represents a request to summarize a URL
type SummarizeRequest struct {
	URL                 string `json:"url" binding:"required"`
	PreferVideoAnalysis *bool  `json:"prefer_video_analysis"`
}

// GetInfo handles POST /api/info
func (h *MediaHandler) GetInfo(c *gin.Context) {
	var req InfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	info, err := h.pipeline.GetInfo(c.Request.Context(), req.URL)
	if err != nil {
		h.logger.Warn("Failed to resolve media info",
			zap.String("url", req.URL),
			zap.Error(err))
		c.JSON(http.StatusOK, InfoResponse{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, InfoResponse{Success: true, MediaInfo: info})
}

// Summarize handles POST /api/summarize
func (h *MediaHandler) Summarize(c *gin.Context) {
	var req SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.gemini.Configured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Gemini API is not configured. Please set GEMINI_API_KEY environment variable.",
		})
		return
	}

	// Video analysis is the default unless the caller opts out
	preferVideo := true
	if req.PreferVideoAnalysis != nil {
		preferVideo = *req.PreferVideoAnalysis
	}

	result := h.pipeline.Summarize(c.Request.Context(), req.URL, preferVideo)
	c.JSON(http.StatusOK, result)
}

// SummarizeQuick handles POST /api/summarize-quick
func (h *MediaHandler) SummarizeQuick(c *gin.Context) {
	var req SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.gemini.Configured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Gemini API is not configured. Please set GEMINI_API_KEY environment variable.",
		})
		return
	}

	result := h.pipeline.SummarizeQuick(c.Request.Context(), req.URL)
	c.JSON(http.StatusOK, result)
}
