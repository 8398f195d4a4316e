package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/citeshield/internal/chunker"
)

// FileEnv names the optional YAML file layered under the environment.
const FileEnv = "CITESHIELD_CONFIG"

type Config struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	// Chunking defaults
	ChunkMaxLines    int `yaml:"chunk_max_lines"`
	ChunkOverlap     int `yaml:"chunk_overlap"`
	OverviewSections int `yaml:"overview_sections"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// Session state
	SessionTTL time.Duration `yaml:"session_ttl"`

	// PDF
	PDFFallbackPdftotext bool `yaml:"pdf_fallback_pdftotext"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	d := chunker.DefaultConfig()
	return Config{
		Port:                 "8090",
		LogLevel:             "info",
		ChunkMaxLines:        d.MaxLines,
		ChunkOverlap:         d.Overlap,
		OverviewSections:     6,
		MaxUploadBytes:       52428800, // 50MB
		SessionTTL:           1 * time.Hour,
		PDFFallbackPdftotext: true,
	}
}

// Load layers the YAML file named by CITESHIELD_CONFIG (if set) over the
// defaults, then environment variables over both.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv(FileEnv); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)
	cfg.ChunkMaxLines = envInt("CHUNK_MAX_LINES", cfg.ChunkMaxLines)
	cfg.ChunkOverlap = envInt("CHUNK_OVERLAP", cfg.ChunkOverlap)
	cfg.OverviewSections = envInt("OVERVIEW_SECTIONS", cfg.OverviewSections)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.SessionTTL = envDuration("SESSION_TTL", cfg.SessionTTL)
	cfg.PDFFallbackPdftotext = envBool("PDF_FALLBACK_PDFTOTEXT", cfg.PDFFallbackPdftotext)

	if cfg.OverviewSections <= 0 {
		cfg.OverviewSections = 6
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 1 * time.Hour
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Chunk returns the default chunk settings.
func (c Config) Chunk() chunker.Config {
	return chunker.Config{MaxLines: c.ChunkMaxLines, Overlap: c.ChunkOverlap}
}

// SlogLevel maps LogLevel onto slog, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func (c Config) Validate() error {
	var errs []error
	if err := c.Chunk().Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("PORT must be numeric, got %q", c.Port))
	}
	return errors.Join(errs...)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
