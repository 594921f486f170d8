package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/reel-summarize-go/internal/domain"
)

// Version is the application version reported by the health endpoints
const Version = "1.0.0"

// HealthHandler handles health check requests
type HealthHandler struct {
	gemini *domain.GeminiConfig
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(gemini *domain.GeminiConfig) *HealthHandler {
	return &HealthHandler{
		gemini: gemini,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status           string `json:"status"`
	Version          string `json:"version"`
	GeminiConfigured bool   `json:"gemini_configured"`
}

// Health handles GET / and GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:           "healthy",
		Version:          Version,
		GeminiConfigured: h.gemini.Configured(),
	})
}
