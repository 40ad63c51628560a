// Package config provides environment configuration for the API server.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// Provider settings
	OpenAIAPIKey    string
	AnthropicAPIKey string
	XAIAPIKey       string
	XAIBaseURL      string
	ProviderTimeout time.Duration
	DefaultModel    string

	// Transcription settings
	ReplicateAPIToken string
	ReplicateBaseURL  string
	ReplicateVersion  string
	PollInterval      time.Duration
	PollMaxAttempts   int

	// Speech settings
	DefaultVoice string

	// Store settings
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	MaxConversations int
	MaxMemories      int

	// Upload settings
	UploadDir     string
	MaxUploadSize int64

	// NATS settings (exchange audit stream, optional)
	NATSURL   string
	NATSToken string

	// JWT settings
	JWTSecret string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),

		// Providers
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		XAIAPIKey:       getEnv("XAI_API_KEY", ""),
		XAIBaseURL:      getEnv("XAI_BASE_URL", "https://api.x.ai"),
		ProviderTimeout: getDurationEnv("PROVIDER_TIMEOUT", 60*time.Second),
		DefaultModel:    getEnv("DEFAULT_MODEL", "claude-3-7-sonnet"),

		// Transcription
		ReplicateAPIToken: getEnv("REPLICATE_API_TOKEN", ""),
		ReplicateBaseURL:  getEnv("REPLICATE_BASE_URL", "https://api.replicate.com"),
		ReplicateVersion:  getEnv("REPLICATE_VERSION", "lucataco/seamless-m4t:ff797efae84c438a945eeace66854a5691472f83c3d59d96bc47ee1c212de2fa"),
		PollInterval:      getDurationEnv("POLL_INTERVAL", time.Second),
		PollMaxAttempts:   getIntEnv("POLL_MAX_ATTEMPTS", 30),

		// Speech
		DefaultVoice: getEnv("DEFAULT_VOICE", "nova"),

		// Store
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getIntEnv("REDIS_DB", 0),
		MaxConversations: getIntEnv("MAX_CONVERSATIONS", 100),
		MaxMemories:      getIntEnv("MAX_MEMORIES", 100),

		// Uploads
		UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadSize: int64(getIntEnv("MAX_UPLOAD_SIZE", 25*1024*1024)),

		// NATS
		NATSURL:   getEnv("NATS_URL", ""),
		NATSToken: getEnv("NATS_TOKEN", ""),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", ""),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
