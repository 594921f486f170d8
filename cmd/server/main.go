package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/reel-summarize-go/api"
	"github.com/yourusername/reel-summarize-go/api/handlers"
	"github.com/yourusername/reel-summarize-go/internal/app"
	"github.com/yourusername/reel-summarize-go/internal/domain"
	"github.com/yourusername/reel-summarize-go/internal/infrastructure"
	"github.com/yourusername/reel-summarize-go/pkg/logger"
)

var (
	serverMode = flag.Bool("server-mode", false, "Internal flag: run in server mode (called by daemon)")
	configPath = flag.String("config", "", "Path to config file (default: search ./configs, ~/.reel-summarize, /etc/reel-summarize)")
)

func main() {
	flag.Parse()

	// If not in server mode, run as daemon
	if !*serverMode {
		startAsDaemon()
		return
	}

	// Run as server (called by daemon)
	runServer()
}

// startAsDaemon forks the current process and runs the server in background
func startAsDaemon() {
	// Get the executable path
	execPath, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get executable path: %v\n", err)
		os.Exit(1)
	}

	// Get current working directory
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "/"
	}

	// Fork the process, passing the config path through to the child
	args := []string{"-server-mode"}
	if *configPath != "" {
		args = append(args, "-config", *configPath)
	}
	cmd := exec.Command(execPath, args...)
	cmd.Dir = cwd
	cmd.Env = os.Environ()

	// Detach from parent process
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true, // Create new session
	}

	// Redirect output to /dev/null
	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open /dev/null: %v\n", err)
		os.Exit(1)
	}
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull

	// Start the child process
	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start daemon: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Server started as daemon (PID: %d)\n", cmd.Process.Pid)
	os.Exit(0)
}

func runServer() {
	// Load configuration from the -config path, or the default search
	// locations when the flag is not set
	config, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Create logs directory
	if err := os.MkdirAll(config.Download.LogsDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logs directory: %v\n", err)
		os.Exit(1)
	}

	// Initialize multi-logger (categories: server, request, pipeline, error)
	var logAdapter *logger.LoggerAdapter
	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   config.Logging.Level,
		LogsDir: config.Download.LogsDir,
	})
	if err != nil {
		// Logs directory unusable; run with a plain single-output logger
		single, serr := logger.New(logger.Config{
			Level:      config.Logging.Level,
			Format:     config.Logging.Format,
			OutputPath: config.Logging.OutputPath,
		})
		if serr != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
			os.Exit(1)
		}
		single.Warn("Falling back to single logger", zap.Error(err))
		logAdapter = logger.NewSingleLoggerAdapter(single)
	} else {
		defer multiLog.Close()
		logAdapter = logger.NewLoggerAdapter(multiLog)
	}
	log := logAdapter.GetSingleLogger()

	log.Info("Starting ReelSummarize server",
		zap.String("version", handlers.Version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.Bool("gemini_configured", config.Gemini.Configured()),
		zap.String("gemini_model", config.Gemini.Model))

	if !config.Gemini.Configured() {
		log.Warn("Gemini API key not set, summarization endpoints will return 503")
	}
	if !config.Geocoding.Configured() {
		log.Warn("Google Maps API key not set, geocoding is disabled")
	}

	// Create directories
	if err := createDirectories(config); err != nil {
		log.Fatal("Failed to create directories", zap.Error(err))
	}

	// Initialize media info cache
	infoCache, err := infrastructure.NewSQLiteMediaInfoRepository(config.Cache.DatabasePath)
	if err != nil {
		log.Fatal("Failed to initialize info cache", zap.Error(err))
	}
	defer infoCache.Close()

	// Drop cache rows older than the TTL so the database does not grow forever
	if config.Cache.TTL > 0 {
		if purged, err := infoCache.Purge(time.Now().Add(-config.Cache.TTL)); err != nil {
			log.Warn("Failed to purge info cache", zap.Error(err))
		} else if purged > 0 {
			log.Info("Purged stale info cache rows", zap.Int64("rows", purged))
		}
	}
	if cached, err := infoCache.Count(); err == nil {
		log.Info("Media info cache ready", zap.Int64("entries", cached))
	}

	// Initialize notification service
	notifier := infrastructure.NewNotificationService(&config.Notification, log)

	// Initialize artifact store for scoped downloads
	store, err := infrastructure.NewDiskArtifactStore(config.Download.DownloadDir, config.Download.ConcurrentLimit, log)
	if err != nil {
		log.Fatal("Failed to initialize artifact store", zap.Error(err))
	}

	// Clear residue left by a previous crashed or killed process
	if removed, err := store.Sweep(); err != nil {
		log.Warn("Startup sweep incomplete", zap.Error(err))
	} else if removed > 0 {
		log.Info("Swept leftover artifact scopes", zap.Int("removed", removed))
	}

	// Initialize fetcher with info cache and raw yt-dlp output logging.
	// GetMultiLogger is nil in single-logger mode; the fetcher tolerates that.
	fetcher := infrastructure.NewYTDLPFetcher(&config.Download, infoCache, config.Cache.TTL, logAdapter.GetMultiLogger())

	// Initialize Gemini summarizer
	geminiClient := infrastructure.NewGeminiClient(&config.Gemini)
	summarizer := infrastructure.NewGeminiSummarizer(geminiClient, logAdapter.Pipeline())

	// Initialize geocoder
	geocoder := infrastructure.NewGoogleGeocoder(&config.Geocoding, logAdapter.Pipeline())

	// Initialize pipeline
	pipeline := app.NewPipeline(fetcher, store, summarizer, geocoder, notifier, &config.Download, logAdapter.Pipeline())

	// Setup HTTP router
	router := api.SetupRouterWithMultiLogger(pipeline, &config.Gemini, logAdapter, config.Download.LogsDir)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Remove any scope directories in-flight requests left behind
	if _, err := store.Sweep(); err != nil {
		log.Warn("Shutdown sweep incomplete", zap.Error(err))
	}

	log.Info("Server exited")
}

func createDirectories(config *domain.Config) error {
	// Create all required subdirectories
	dirs := []string{
		config.Download.BaseDir,
		config.Download.DownloadDir,
		config.Download.LogsDir,
		config.Download.ConfigDir,
	}

	for _, dir := range dirs {
		// Skip empty paths (may be optional paths not configured)
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
