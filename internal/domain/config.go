package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Download     DownloadConfig     `mapstructure:"download"`
	Gemini       GeminiConfig       `mapstructure:"gemini"`
	Geocoding    GeocodingConfig    `mapstructure:"geocoding"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DownloadConfig contains media acquisition configuration
type DownloadConfig struct {
	BaseDir         string        `mapstructure:"base_dir"`
	DownloadDir     string        `mapstructure:"download_dir"`
	LogsDir         string        `mapstructure:"logs_dir"`
	ConfigDir       string        `mapstructure:"config_dir"`
	MaxDuration     int           `mapstructure:"max_duration"` // seconds
	InfoTimeout     time.Duration `mapstructure:"info_timeout"`
	FetchTimeout    time.Duration `mapstructure:"fetch_timeout"`
	ConcurrentLimit int           `mapstructure:"concurrent_limit"`
	YTDLPBinary     string        `mapstructure:"ytdlp_binary"`
}

// GeminiConfig contains Gemini API configuration
type GeminiConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	Model           string        `mapstructure:"model"`
	UploadTimeout   time.Duration `mapstructure:"upload_timeout"`
	GenerateTimeout time.Duration `mapstructure:"generate_timeout"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	PollTimeout     time.Duration `mapstructure:"poll_timeout"`
}

// Configured reports whether an API key is set
func (c GeminiConfig) Configured() bool {
	return c.APIKey != ""
}

// GeocodingConfig contains Google Maps Geocoding API configuration
type GeocodingConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RequestSpacing time.Duration `mapstructure:"request_spacing"`
	MaxLocations   int           `mapstructure:"max_locations"`
}

// Configured reports whether an API key is set
func (c GeocodingConfig) Configured() bool {
	return c.APIKey != ""
}

// CacheConfig contains media info cache configuration
type CacheConfig struct {
	DatabasePath string        `mapstructure:"database_path"`
	TTL          time.Duration `mapstructure:"ttl"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Method  string `mapstructure:"method"` // osascript, notify-send, etc.
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 7000,
		},
		Download: DownloadConfig{
			BaseDir:         "$HOME/.reel-summarize",
			DownloadDir:     "$HOME/.reel-summarize/downloads",
			LogsDir:         "$HOME/.reel-summarize/logs",
			ConfigDir:       "$HOME/.reel-summarize/config",
			MaxDuration:     300,
			InfoTimeout:     30 * time.Second,
			FetchTimeout:    5 * time.Minute,
			ConcurrentLimit: 2,
			YTDLPBinary:     "yt-dlp",
		},
		Gemini: GeminiConfig{
			APIKey:          "",
			Model:           "gemini-3-flash-preview",
			UploadTimeout:   2 * time.Minute,
			GenerateTimeout: 3 * time.Minute,
			PollInterval:    2 * time.Second,
			PollTimeout:     2 * time.Minute,
		},
		Geocoding: GeocodingConfig{
			APIKey:         "",
			RequestTimeout: 10 * time.Second,
			RequestSpacing: 100 * time.Millisecond,
			MaxLocations:   10,
		},
		Cache: CacheConfig{
			DatabasePath: "$HOME/.reel-summarize/config/cache.db",
			TTL:          24 * time.Hour,
		},
		Notification: NotificationConfig{
			Enabled: true,
			Method:  "osascript",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
