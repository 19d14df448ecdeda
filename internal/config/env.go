package config

import (
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

// ProvidersConfig names the structuring engines in failover order and the model of each.
type ProvidersConfig struct {
	PrimaryEngine   string // "gemini"|"openai"|"anthropic"|"none"
	SecondaryEngine string
	GeminiModel     string
	OpenAIModel     string
	AnthropicModel  string
}

// Engines returns the configured engines in order, without blanks, "none" or repeats.
func (p ProvidersConfig) Engines() []string {
	var out []string
	for _, e := range []string{p.PrimaryEngine, p.SecondaryEngine} {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" || e == "none" {
			continue
		}
		if len(out) > 0 && out[0] == e {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Model returns the configured model for engine.
func (p ProvidersConfig) Model(engine string) string {
	switch engine {
	case "gemini":
		return p.GeminiModel
	case "openai":
		return p.OpenAIModel
	case "anthropic":
		return p.AnthropicModel
	}
	return ""
}

type StructuringConfig struct {
	Timeout            time.Duration
	MaxInflight        int
	BreakerBaseBackoff time.Duration
	BreakerMaxBackoff  time.Duration
}

type OCRConfig struct {
	Language    string
	Variants    bool
	MaxUploadMB int
	PDFDPI      int
	PDFMaxPages int
}

type StoreConfig struct {
	RedisURL     string
	RecordTTL    time.Duration
	TextCacheTTL time.Duration
}

type MongoConfig struct {
	URI           string
	Database      string
	SeedSchedules bool
}

type ArchiveConfig struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// Enabled reports whether screenshots should be archived.
func (a ArchiveConfig) Enabled() bool { return a.Bucket != "" }

type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
}

// DefaultsConfig fills request fields the client left out.
type DefaultsConfig struct {
	StudentID         string
	DesiredAttendance float64
	Weeks             int
}

// Config is the top-level configuration.
type Config struct {
	Logging     LoggingConfig
	Axiom       AxiomConfig
	Providers   ProvidersConfig
	Structuring StructuringConfig
	OCR         OCRConfig
	Store       StoreConfig
	Mongo       MongoConfig
	Archive     ArchiveConfig
	Server      ServerConfig
	Defaults    DefaultsConfig
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", "logs/attendplanner.log"),
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
		Dataset:       baseDataset + "_attendplanner",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	cfg.Providers = ProvidersConfig{
		PrimaryEngine:   getEnv("PRIMARY_ENGINE", "gemini"),
		SecondaryEngine: getEnv("SECONDARY_ENGINE", "openai"),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4.1-mini"),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-3-haiku"),
	}

	cfg.Structuring = StructuringConfig{
		Timeout:            parseDuration(getEnv("STRUCTURING_TIMEOUT", "30s"), 30*time.Second),
		MaxInflight:        parseInt(getEnv("MAX_INFLIGHT_PER_MODEL", "4"), 4),
		BreakerBaseBackoff: parseDuration(getEnv("BREAKER_BASE_BACKOFF", "30s"), 30*time.Second),
		BreakerMaxBackoff:  parseDuration(getEnv("BREAKER_MAX_BACKOFF", "5m"), 5*time.Minute),
	}

	cfg.OCR = OCRConfig{
		Language:    getEnv("OCR_LANGUAGE", "eng"),
		Variants:    parseBool(getEnv("OCR_VARIANTS", "true")),
		MaxUploadMB: parseInt(getEnv("MAX_UPLOAD_MB", "16"), 16),
		PDFDPI:      parseInt(getEnv("PDF_DPI", "150"), 150),
		PDFMaxPages: parseInt(getEnv("PDF_MAX_PAGES", "5"), 5),
	}

	cfg.Store = StoreConfig{
		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379"),
		RecordTTL:    parseDuration(getEnv("RECORD_TTL", "0"), 0),
		TextCacheTTL: parseDuration(getEnv("TEXT_CACHE_TTL", "24h"), 24*time.Hour),
	}

	cfg.Mongo = MongoConfig{
		URI:           getEnv("MONGODB_URI", ""),
		Database:      getEnv("DB_NAME", "bunker_baba"),
		SeedSchedules: parseBool(getEnv("SEED_SCHEDULES", "0")),
	}

	cfg.Archive = ArchiveConfig{
		Bucket:          getEnv("AWS_S3_BUCKET", ""),
		Region:          getEnv("AWS_REGION", ""),
		AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
	}

	cfg.Server = ServerConfig{
		Port:            getEnv("PORT", "8080"),
		ShutdownTimeout: parseDuration(getEnv("SHUTDOWN_TIMEOUT", "15s"), 15*time.Second),
	}

	cfg.Defaults = DefaultsConfig{
		StudentID:         getEnv("DEFAULT_STUDENT_ID", "123"),
		DesiredAttendance: parseFloat(getEnv("DEFAULT_DESIRED_ATTENDANCE", "75"), 75),
		Weeks:             parseInt(getEnv("DEFAULT_WEEKS", "4"), 4),
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
