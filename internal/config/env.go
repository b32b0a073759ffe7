package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
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

// SplitConfig controls where and how outputs are produced.
type SplitConfig struct {
	OutputDir   string
	Tray        string // "face-up"|"face-down"
	PerJobDir   bool
	RejectEmpty bool
	TempMaxAge  time.Duration
}

// LockConfig selects the output-path lock backend. Empty RedisURL means in-process only.
type LockConfig struct {
	RedisURL string
	TTL      time.Duration
	Poll     time.Duration
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string
}

// PrinterConfig is handed to the print collaborator untouched.
type PrinterConfig struct {
	Name string
}

// StorageConfig configures s3:// inputs and optional output publishing.
type StorageConfig struct {
	Region     string
	PublishURL string
}

// Config is the top-level configuration.
type Config struct {
	Logging LoggingConfig
	Axiom   AxiomConfig
	Split   SplitConfig
	Lock    LockConfig
	Metrics MetricsConfig
	Printer PrinterConfig
	Storage StorageConfig
}

// FromEnv loads configuration from environment with sensible defaults. A .env
// file in the working directory is read first when present; real environment
// variables win over it.
func FromEnv() Config {
	_ = godotenv.Load()

	cfg := Config{}

	// Logging defaults
	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", ""),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	// Axiom defaults
	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_duplexsplit",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	cfg.Split = SplitConfig{
		OutputDir:   getEnv("OUTPUT_DIR", "."),
		Tray:        getEnv("DUPLEX_TRAY", "face-up"),
		PerJobDir:   parseBool(getEnv("OUTPUT_PER_JOB", "false")),
		RejectEmpty: parseBool(getEnv("REJECT_EMPTY", "false")),
		TempMaxAge:  parseDuration(getEnv("TEMP_MAX_AGE", "1h"), time.Hour),
	}

	cfg.Lock = LockConfig{
		RedisURL: getEnv("LOCK_REDIS_URL", ""),
		TTL:      parseDuration(getEnv("LOCK_TTL", "2m"), 2*time.Minute),
		Poll:     parseDuration(getEnv("LOCK_POLL_INTERVAL", "100ms"), 100*time.Millisecond),
	}

	cfg.Metrics = MetricsConfig{
		Textfile: getEnv("METRICS_TEXTFILE", ""),
	}

	cfg.Printer = PrinterConfig{
		Name: getEnv("PRINTER_NAME", ""),
	}

	cfg.Storage = StorageConfig{
		Region:     getEnv("AWS_REGION", ""),
		PublishURL: getEnv("OUTPUT_S3_URL", ""),
	}

	return cfg
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
