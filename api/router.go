package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yourusername/reel-summarize-go/api/handlers"
	"github.com/yourusername/reel-summarize-go/api/middleware"
	"github.com/yourusername/reel-summarize-go/internal/app"
	"github.com/yourusername/reel-summarize-go/internal/domain"
	"github.com/yourusername/reel-summarize-go/pkg/logger"
)

// SetupRouterWithMultiLogger sets up the HTTP router with multi-logger support
func SetupRouterWithMultiLogger(
	pipeline *app.Pipeline,
	geminiCfg *domain.GeminiConfig,
	logAdapter *logger.LoggerAdapter,
	logsDir string,
) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(middleware.LoggerWithAdapter(logAdapter))
	router.Use(middleware.RecoveryWithAdapter(logAdapter))
	router.Use(middleware.CORS())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(geminiCfg)
	router.GET("/", healthHandler.Health)
	router.GET("/health", healthHandler.Health)

	// API routes
	apiGroup := router.Group("/api")
	{
		// Media endpoints
		mediaHandler := handlers.NewMediaHandler(pipeline, geminiCfg, logAdapter.Pipeline())
		apiGroup.POST("/info", mediaHandler.GetInfo)
		apiGroup.POST("/summarize", mediaHandler.Summarize)
		apiGroup.POST("/summarize-quick", mediaHandler.SummarizeQuick)

		// Log endpoints
		logHandler := handlers.NewLogHandler(logsDir)
		wsHandler := handlers.NewLogWebSocketHandler(logsDir, logAdapter.Server())
		logs := apiGroup.Group("/logs")
		{
			logs.GET("/categories", logHandler.GetCategories)
			logs.GET("/stream", wsHandler.HandleWebSocket)
			logs.GET("/:category", logHandler.GetLogs)
			logs.GET("/:category/search", logHandler.SearchLogs)
			logs.GET("/:category/export", logHandler.ExportLogs)
		}
	}

	return router
}
