package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Auth          AuthConfig
	Providers     ProvidersConfig
	Transcription TranscriptionConfig
	Audit         AuditConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret    string
	APIKeyHeader string
}

// ProvidersConfig holds credentials and endpoints for the external
// speech-to-text backends. A provider with an empty key is treated as not
// configured and is rejected by the proxy boundary before any network call.
type ProvidersConfig struct {
	Google     GoogleConfig
	Deepgram   DeepgramConfig
	AssemblyAI AssemblyAIConfig
	Whisper    WhisperConfig
}

type GoogleConfig struct {
	APIKey  string
	BaseURL string // default: "https://speech.googleapis.com"
}

type DeepgramConfig struct {
	APIKey  string
	BaseURL string // default: "https://api.deepgram.com"
}

type AssemblyAIConfig struct {
	APIKey  string
	BaseURL string // default: "https://api.assemblyai.com"
}

type WhisperConfig struct {
	APIKey  string
	BaseURL string // empty means the OpenAI default
	Model   string // default: "whisper-1"
}

type TranscriptionConfig struct {
	// ProviderOrder is the fallback priority, highest first.
	ProviderOrder   []string
	PollInterval    time.Duration
	PollMaxAttempts int
	// RequestTimeout bounds one orchestrated transcription end to end.
	RequestTimeout time.Duration
	CacheTTL       time.Duration
}

type AuditConfig struct {
	// Retention is how long anonymized request records are kept before the
	// background sweep purges them.
	Retention time.Duration
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	pollIntervalMs, err := getEnvInt("STT_POLL_INTERVAL_MS", 2000)
	if err != nil {
		return nil, fmt.Errorf("invalid STT_POLL_INTERVAL_MS: %w", err)
	}

	pollMaxAttempts, err := getEnvInt("STT_POLL_MAX_ATTEMPTS", 60)
	if err != nil {
		return nil, fmt.Errorf("invalid STT_POLL_MAX_ATTEMPTS: %w", err)
	}

	requestTimeoutSec, err := getEnvInt("STT_REQUEST_TIMEOUT_SEC", 150)
	if err != nil {
		return nil, fmt.Errorf("invalid STT_REQUEST_TIMEOUT_SEC: %w", err)
	}

	cacheTTLMin, err := getEnvInt("TRANSCRIPT_CACHE_TTL_MIN", 1440)
	if err != nil {
		return nil, fmt.Errorf("invalid TRANSCRIPT_CACHE_TTL_MIN: %w", err)
	}

	retentionDays, err := getEnvInt("AUDIT_RETENTION_DAYS", 90)
	if err != nil {
		return nil, fmt.Errorf("invalid AUDIT_RETENTION_DAYS: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret:    getEnv("JWT_SECRET", ""),
			APIKeyHeader: getEnv("API_KEY_HEADER", "X-API-Key"),
		},
		Providers: ProvidersConfig{
			Google: GoogleConfig{
				APIKey:  getEnv("GOOGLE_SPEECH_API_KEY", ""),
				BaseURL: getEnv("GOOGLE_SPEECH_BASE_URL", "https://speech.googleapis.com"),
			},
			Deepgram: DeepgramConfig{
				APIKey:  getEnv("DEEPGRAM_API_KEY", ""),
				BaseURL: getEnv("DEEPGRAM_BASE_URL", "https://api.deepgram.com"),
			},
			AssemblyAI: AssemblyAIConfig{
				APIKey:  getEnv("ASSEMBLYAI_API_KEY", ""),
				BaseURL: getEnv("ASSEMBLYAI_BASE_URL", "https://api.assemblyai.com"),
			},
			Whisper: WhisperConfig{
				APIKey:  getEnv("OPENAI_API_KEY", ""),
				BaseURL: getEnv("STT_WHISPER_BASE_URL", ""),
				Model:   getEnv("STT_WHISPER_MODEL", "whisper-1"),
			},
		},
		Transcription: TranscriptionConfig{
			ProviderOrder:   splitList(getEnv("STT_PROVIDER_ORDER", "google,deepgram,assemblyai,whisper")),
			PollInterval:    time.Duration(pollIntervalMs) * time.Millisecond,
			PollMaxAttempts: pollMaxAttempts,
			RequestTimeout:  time.Duration(requestTimeoutSec) * time.Second,
			CacheTTL:        time.Duration(cacheTTLMin) * time.Minute,
		},
		Audit: AuditConfig{
			Retention: time.Duration(retentionDays) * 24 * time.Hour,
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
