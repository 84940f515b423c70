package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// MaxThumbnails is the largest preview set a reel can get
const MaxThumbnails = 5

// Config holds all configuration options for the reel bot
type Config struct {
	// Telegram bot credentials and transport selection
	Telegram TelegramConfig `yaml:"telegram" json:"telegram"`

	// Remote media extraction settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Preview thumbnail settings
	Thumbnails ThumbnailConfig `yaml:"thumbnails" json:"thumbnails"`

	// Uploaded cookie file settings
	Cookies CookiesConfig `yaml:"cookies" json:"cookies"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// TelegramConfig holds Telegram-specific configuration
type TelegramConfig struct {
	Token       string `yaml:"token" json:"-"`
	WebhookURL  string `yaml:"webhook_url" json:"webhook_url"`
	Port        int    `yaml:"port" json:"port"`
	PollTimeout int    `yaml:"poll_timeout" json:"poll_timeout"`
	Debug       bool   `yaml:"debug" json:"debug"`
}

// DownloadConfig holds extraction configuration
type DownloadConfig struct {
	WorkDir   string        `yaml:"work_dir" json:"work_dir"`
	YtDlpPath string        `yaml:"ytdlp_path" json:"ytdlp_path"`
	Format    string        `yaml:"format" json:"format"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// ThumbnailConfig holds frame sampling configuration
type ThumbnailConfig struct {
	FFmpegPath   string        `yaml:"ffmpeg_path" json:"ffmpeg_path"`
	FFprobePath  string        `yaml:"ffprobe_path" json:"ffprobe_path"`
	Count        int           `yaml:"count" json:"count"`
	MinDuration  float64       `yaml:"min_duration" json:"min_duration"`
	ProbeTimeout time.Duration `yaml:"probe_timeout" json:"probe_timeout"`
	FrameTimeout time.Duration `yaml:"frame_timeout" json:"frame_timeout"`
}

// CookiesConfig holds credential store configuration
type CookiesConfig struct {
	Dir       string        `yaml:"dir" json:"dir"`
	Retention time.Duration `yaml:"retention" json:"retention"`
	Domain    string        `yaml:"domain" json:"domain"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{
			PollTimeout: 60,
		},
		Download: DownloadConfig{
			WorkDir:   ".",
			YtDlpPath: "yt-dlp",
			Format:    "best",
			Timeout:   5 * time.Minute,
		},
		Thumbnails: ThumbnailConfig{
			FFmpegPath:   "ffmpeg",
			FFprobePath:  "ffprobe",
			Count:        MaxThumbnails,
			MinDuration:  2,
			ProbeTimeout: 5 * time.Second,
			FrameTimeout: 10 * time.Second,
		},
		Cookies: CookiesConfig{
			Dir:       os.TempDir(),
			Retention: 24 * time.Hour,
			Domain:    "instagram.com",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if token := os.Getenv("BOT_TOKEN"); token != "" {
		c.Telegram.Token = token
	}
	if webhookURL := os.Getenv("WEBHOOK_URL"); webhookURL != "" {
		c.Telegram.WebhookURL = webhookURL
	}
	if port := os.Getenv("PORT"); port != "" {
		val, err := strconv.Atoi(port)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid PORT %q: %w", port, err))
		} else {
			c.Telegram.Port = val
		}
	}
	if debug := os.Getenv("IGREELBOT_TELEGRAM_DEBUG"); debug != "" {
		c.Telegram.Debug = strings.ToLower(debug) == "true"
	}

	if workDir := os.Getenv("IGREELBOT_WORK_DIR"); workDir != "" {
		c.Download.WorkDir = workDir
	}
	if ytdlp := os.Getenv("IGREELBOT_YTDLP_PATH"); ytdlp != "" {
		c.Download.YtDlpPath = ytdlp
	}
	if timeout := os.Getenv("IGREELBOT_DOWNLOAD_TIMEOUT"); timeout != "" {
		val, err := time.ParseDuration(timeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid IGREELBOT_DOWNLOAD_TIMEOUT %q: %w", timeout, err))
		} else {
			c.Download.Timeout = val
		}
	}

	if ffmpeg := os.Getenv("IGREELBOT_FFMPEG_PATH"); ffmpeg != "" {
		c.Thumbnails.FFmpegPath = ffmpeg
	}
	if ffprobe := os.Getenv("IGREELBOT_FFPROBE_PATH"); ffprobe != "" {
		c.Thumbnails.FFprobePath = ffprobe
	}

	if cookiesDir := os.Getenv("IGREELBOT_COOKIES_DIR"); cookiesDir != "" {
		c.Cookies.Dir = cookiesDir
	}

	if logLevel := os.Getenv("IGREELBOT_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("IGREELBOT_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".igreelbot.yaml",
		".igreelbot.yml",
		filepath.Join(home, ".config", "igreelbot", "config.yaml"),
		filepath.Join(home, ".config", "igreelbot", "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// UseWebhook reports whether push delivery is configured. Both a port and a
// public callback URL are needed; anything less falls back to long polling.
func (c *Config) UseWebhook() bool {
	return c.Telegram.Port > 0 && c.Telegram.WebhookURL != ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Telegram.Token == "" {
		errs = append(errs, errors.New("bot token is required (set BOT_TOKEN)"))
	}
	if c.Telegram.Port < 0 || c.Telegram.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Telegram.Port))
	}
	if c.Telegram.WebhookURL != "" {
		u, err := url.Parse(c.Telegram.WebhookURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("invalid webhook url %q", c.Telegram.WebhookURL))
		}
	}

	if c.Download.WorkDir == "" {
		errs = append(errs, errors.New("work directory is required"))
	}
	if c.Download.YtDlpPath == "" {
		errs = append(errs, errors.New("yt-dlp path is required"))
	}
	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}

	if c.Thumbnails.Count < 0 || c.Thumbnails.Count > MaxThumbnails {
		errs = append(errs, fmt.Errorf("thumbnail count must be between 0 and %d", MaxThumbnails))
	}
	if c.Thumbnails.ProbeTimeout <= 0 || c.Thumbnails.FrameTimeout <= 0 {
		errs = append(errs, errors.New("thumbnail timeouts must be positive"))
	}

	if c.Cookies.Dir == "" {
		errs = append(errs, errors.New("cookies directory is required"))
	}
	if c.Cookies.Retention <= 0 {
		errs = append(errs, errors.New("cookie retention must be positive"))
	}
	if c.Cookies.Domain == "" {
		errs = append(errs, errors.New("cookie domain is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if token, ok := flags["token"].(string); ok && token != "" {
		c.Telegram.Token = token
	}
	if webhookURL, ok := flags["webhook-url"].(string); ok && webhookURL != "" {
		c.Telegram.WebhookURL = webhookURL
	}
	if port, ok := flags["port"].(int); ok && port > 0 {
		c.Telegram.Port = port
	}
	if workDir, ok := flags["work-dir"].(string); ok && workDir != "" {
		c.Download.WorkDir = workDir
	}
	if cookiesDir, ok := flags["cookies-dir"].(string); ok && cookiesDir != "" {
		c.Cookies.Dir = cookiesDir
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
// A token stored in the system keychain is used when no other source sets one.
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".igreelbot.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if config.Telegram.Token == "" {
		if token, err := LoadToken(); err == nil {
			config.Telegram.Token = token
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
