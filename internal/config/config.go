package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/mr1hm/go-flood-watch/internal/models"
)

type Config struct {
	Server  ServerConfig   `yaml:"server"`
	DB      DatabaseConfig `yaml:"db"`
	Logging LoggingConfig  `yaml:"logging"`
	Display DisplayConfig  `yaml:"display"`
	Report  ReportConfig   `yaml:"report"`
	Archive ArchiveConfig  `yaml:"archive"`
	Refresh RefreshConfig  `yaml:"refresh"`
	Notify  NotifyConfig   `yaml:"notify"`
	Seed    SeedConfig     `yaml:"seed"`
}

type ServerConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	RateLimit   float64  `yaml:"rate_limit"` // requests per second per client
	RateBurst   int      `yaml:"rate_burst"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type DisplayConfig struct {
	// UTCOffset is the fixed display zone, e.g. "+07:00".
	UTCOffset string `yaml:"utc_offset"`

	location *time.Location
}

// Location returns the display zone parsed from UTCOffset. Configs built
// by Load return the zone checked in validate.
func (d DisplayConfig) Location() (*time.Location, error) {
	if d.location != nil {
		return d.location, nil
	}
	return ParseOffset(d.UTCOffset)
}

type ReportConfig struct {
	Title        string `yaml:"title"`
	Subtitle     string `yaml:"subtitle"`
	ProductLabel string `yaml:"product_label"`
	FileStem     string `yaml:"file_stem"`
}

type ArchiveConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Dir      string `yaml:"dir"`
	Schedule string `yaml:"schedule"`
}

type RefreshConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type NotifyConfig struct {
	TelegramToken  string `yaml:"telegram_token"`
	TelegramChatID int64  `yaml:"telegram_chat_id"`
	MinLevel       string `yaml:"min_level"`
	Workers        int    `yaml:"workers"`
	BufferSize     int    `yaml:"buffer_size"`
}

// TelegramEnabled reports whether both bot credentials are present.
func (n NotifyConfig) TelegramEnabled() bool {
	return n.TelegramToken != "" && n.TelegramChatID != 0
}

type SeedConfig struct {
	OnStart bool `yaml:"on_start"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "localhost",
			Port:        8080,
			RateLimit:   20,
			RateBurst:   40,
			CORSOrigins: []string{"http://localhost:5173"},
		},
		DB: DatabaseConfig{
			Path: "./data/flood-watch.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Display: DisplayConfig{
			UTCOffset: "+07:00",
		},
		Report: ReportConfig{
			Title:        "Flood Observation Report",
			Subtitle:     "Water levels and warning status by station",
			ProductLabel: "Flood Warning System",
			FileStem:     "flood-observations",
		},
		Archive: ArchiveConfig{
			Enabled:  false,
			Dir:      "./data/reports",
			Schedule: "0 * * * *",
		},
		Refresh: RefreshConfig{
			Interval: 30 * time.Second,
		},
		Notify: NotifyConfig{
			MinLevel:   "Watch",
			Workers:    2,
			BufferSize: 20,
		},
	}
}

// Load builds the config from defaults, then the YAML file named by
// CONFIG_FILE if set, then environment variables.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("error parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnvInt("SERVER_PORT", c.Server.Port)
	c.Server.RateLimit = getEnvFloat("RATE_LIMIT", c.Server.RateLimit)
	c.Server.RateBurst = getEnvInt("RATE_BURST", c.Server.RateBurst)
	c.Server.CORSOrigins = getEnvList("CORS_ORIGINS", c.Server.CORSOrigins)

	c.DB.Path = getEnv("DB_PATH", c.DB.Path)

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("LOG_FORMAT", c.Logging.Format)

	c.Display.UTCOffset = getEnv("DISPLAY_UTC_OFFSET", c.Display.UTCOffset)

	c.Report.Title = getEnv("REPORT_TITLE", c.Report.Title)
	c.Report.Subtitle = getEnv("REPORT_SUBTITLE", c.Report.Subtitle)
	c.Report.ProductLabel = getEnv("REPORT_PRODUCT_LABEL", c.Report.ProductLabel)
	c.Report.FileStem = getEnv("REPORT_FILE_STEM", c.Report.FileStem)

	c.Archive.Enabled = getEnvBool("ARCHIVE_ENABLED", c.Archive.Enabled)
	c.Archive.Dir = getEnv("ARCHIVE_DIR", c.Archive.Dir)
	c.Archive.Schedule = getEnv("ARCHIVE_SCHEDULE", c.Archive.Schedule)

	c.Refresh.Interval = getEnvDuration("REFRESH_INTERVAL", c.Refresh.Interval)

	c.Notify.TelegramToken = getEnv("TELEGRAM_BOT_TOKEN", c.Notify.TelegramToken)
	c.Notify.TelegramChatID = getEnvInt64("TELEGRAM_CHAT_ID", c.Notify.TelegramChatID)
	c.Notify.MinLevel = getEnv("NOTIFY_MIN_LEVEL", c.Notify.MinLevel)
	c.Notify.Workers = getEnvInt("NOTIFY_WORKERS", c.Notify.Workers)
	c.Notify.BufferSize = getEnvInt("NOTIFY_BUFFER_SIZE", c.Notify.BufferSize)

	c.Seed.OnStart = getEnvBool("SEED_ON_START", c.Seed.OnStart)
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RateLimit <= 0 || c.Server.RateBurst < 1 {
		return fmt.Errorf("invalid rate limit: %v/s burst %d", c.Server.RateLimit, c.Server.RateBurst)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	loc, err := ParseOffset(c.Display.UTCOffset)
	if err != nil {
		return err
	}
	c.Display.location = loc

	if c.Report.FileStem == "" {
		return errors.New("report file stem must not be empty")
	}

	if c.Archive.Enabled {
		if c.Archive.Dir == "" {
			return errors.New("archive dir must be set when archiving is enabled")
		}
		if _, err := cron.ParseStandard(c.Archive.Schedule); err != nil {
			return fmt.Errorf("invalid archive schedule %q: %w", c.Archive.Schedule, err)
		}
	}

	if c.Refresh.Interval < time.Second {
		return fmt.Errorf("refresh interval must be at least 1 second")
	}

	if _, err := models.ParseWarningLevel(c.Notify.MinLevel); err != nil {
		return fmt.Errorf("invalid notify min level: %w", err)
	}
	if c.Notify.Workers < 1 {
		return fmt.Errorf("notify workers must be at least 1")
	}
	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == 0) {
		return errors.New("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}

	return nil
}

// NotifyMinLevel returns the parsed minimum alert level. Load has already
// validated it.
func (c *Config) NotifyMinLevel() models.WarningLevel {
	level, err := models.ParseWarningLevel(c.Notify.MinLevel)
	if err != nil {
		return models.WarningLevelWatch
	}
	return level
}

// ParseOffset turns "+07:00", "-0330" or "Z" into a fixed zone named
// "UTC+07:00".
func ParseOffset(s string) (*time.Location, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "Z" || s == "+00:00" {
		return time.UTC, nil
	}
	t, err := time.Parse("-07:00", s)
	if err != nil {
		if t, err = time.Parse("-0700", s); err != nil {
			return nil, fmt.Errorf("invalid display UTC offset %q", s)
		}
	}
	_, offset := t.Zone()
	return time.FixedZone("UTC"+t.Format("-07:00"), offset), nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
