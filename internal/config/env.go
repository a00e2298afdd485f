package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// ConvertConfig controls the PDF to DOCX pipeline.
type ConvertConfig struct {
	LayoutEngine     string // "mupdf"|"libreoffice"
	LibreOfficeBin   string
	ImageDPI         float64
	ImageMargin      float64 // inches
	DrawingThreshold int
	TextThreshold    int
	TempDir          string
	PageTimeout      time.Duration
}

// ServerConfig defines the HTTP job surface.
type ServerConfig struct {
	Port        string
	UploadDir   string
	ResultDir   string
	MaxUploadMB int
	TempMaxAge  time.Duration
}

// RedisConfig defines job status storage. An empty URL keeps status in memory.
type RedisConfig struct {
	URL       string
	KeyPrefix string
	TTL       time.Duration
}

// S3Config defines object storage access for s3:// references.
type S3Config struct {
	Bucket       string
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// Config is the top-level configuration.
type Config struct {
	Logging LoggingConfig
	Axiom   AxiomConfig
	Convert ConvertConfig
	Server  ServerConfig
	Redis   RedisConfig
	S3      S3Config
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", "logs/pdfword.log"),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_pdfword",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	cfg.Convert = ConvertConfig{
		LayoutEngine:     strings.ToLower(getEnv("CONVERT_LAYOUT_ENGINE", "mupdf")),
		LibreOfficeBin:   getEnv("LIBREOFFICE_BIN", "soffice"),
		ImageDPI:         parseFloat(getEnv("CONVERT_IMAGE_DPI", "200"), 200),
		ImageMargin:      parseFloat(getEnv("CONVERT_IMAGE_MARGIN", "0.5"), 0.5),
		DrawingThreshold: parseInt(getEnv("CONVERT_DRAWING_THRESHOLD", "5"), 5),
		TextThreshold:    parseInt(getEnv("CONVERT_TEXT_THRESHOLD", "100"), 100),
		TempDir:          getEnv("CONVERT_TEMP_DIR", os.TempDir()),
		PageTimeout:      parseDuration(getEnv("CONVERT_PAGE_TIMEOUT", "180s"), 180*time.Second),
	}

	cfg.Server = ServerConfig{
		Port:        getEnv("PORT", "8080"),
		UploadDir:   getEnv("UPLOAD_DIR", "uploads"),
		ResultDir:   getEnv("RESULT_DIR", "results"),
		MaxUploadMB: parseInt(getEnv("MAX_UPLOAD_MB", "100"), 100),
		TempMaxAge:  parseDuration(getEnv("TEMP_MAX_AGE", "1h"), time.Hour),
	}

	cfg.Redis = RedisConfig{
		URL:       getEnv("REDIS_URL", ""),
		KeyPrefix: getEnv("REDIS_KEY_PREFIX", "pdfword:job:"),
		TTL:       parseDuration(getEnv("JOB_STATUS_TTL", "24h"), 24*time.Hour),
	}

	cfg.S3 = S3Config{
		Bucket:       getEnv("AWS_S3_BUCKET", ""),
		Region:       getEnv("AWS_REGION", "us-east-1"),
		Endpoint:     getEnv("S3_ENDPOINT", ""),
		AccessKey:    getEnv("S3_ACCESS_KEY", ""),
		SecretKey:    getEnv("S3_SECRET_KEY", ""),
		UsePathStyle: parseBool(getEnv("S3_PATH_STYLE", "false")),
	}

	return cfg
}

// Validate rejects settings the converter cannot work with.
func (c Config) Validate() error {
	switch c.Convert.LayoutEngine {
	case "mupdf", "libreoffice":
	default:
		return fmt.Errorf("unknown layout engine %q", c.Convert.LayoutEngine)
	}
	if c.Convert.ImageDPI <= 0 {
		return fmt.Errorf("image dpi must be positive, got %g", c.Convert.ImageDPI)
	}
	if c.Convert.ImageMargin < 0 {
		return fmt.Errorf("image margin must not be negative, got %g", c.Convert.ImageMargin)
	}
	return nil
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseFloat(s string, def float64) float64 {
	if s == "" {
		return def
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}
