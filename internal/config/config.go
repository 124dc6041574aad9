package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	OpenAI    OpenAIConfig
	Email     EmailConfig
	Session   SessionConfig
	UsageLog  UsageLogConfig
	RateLimit RateLimitConfig

	// DefaultQuota is the interaction ceiling assigned to lazily
	// provisioned usage records.
	DefaultQuota   int64
	DefaultBotName string
}

type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	ChatModel string
	TTSModel  string
	STTModel  string

	// InstructionsPath and KnowledgePath point at the documents merged
	// into the system prompt for every completion.
	InstructionsPath string
	KnowledgePath    string

	MaxTokens   int
	Temperature float64
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	AdminAddress string
}

type SessionConfig struct {
	JWTSecret     string
	IdleTTL       time.Duration
	SweepInterval time.Duration
}

type UsageLogConfig struct {
	BatchSize     int
	FlushInterval time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ChatRate      float64
	ChatBurst     int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "webchatkit"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "webchatkit"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),

		OpenAI: OpenAIConfig{
			APIKey:           strings.TrimSpace(getenv("OPENAI_API_KEY", "")),
			BaseURL:          getenv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			ChatModel:        getenv("OPENAI_CHAT_MODEL", "gpt-4o"),
			TTSModel:         getenv("OPENAI_TTS_MODEL", "tts-1"),
			STTModel:         getenv("OPENAI_STT_MODEL", "whisper-1"),
			InstructionsPath: getenv("AI_INSTRUCTIONS_PATH", "public/AI_INSTRUCTIONS.md"),
			KnowledgePath:    getenv("AI_KNOWLEDGE_PATH", "public/AI_KNOWLEDGE.md"),
			MaxTokens:        getenvInt("OPENAI_MAX_TOKENS", 1000),
			Temperature:      getenvFloat("OPENAI_TEMPERATURE", 0.8),
		},
		Email: EmailConfig{
			SMTPHost:     getenv("SMTP_HOST", ""),
			SMTPPort:     getenvInt("SMTP_PORT", 587),
			SMTPUsername: getenv("SMTP_USER", ""),
			SMTPPassword: getenv("SMTP_PASS", ""),
			SMTPFrom:     getenv("SMTP_FROM", ""),
			AdminAddress: strings.TrimSpace(getenv("ADMIN_EMAIL", "")),
		},
		Session: SessionConfig{
			JWTSecret:     strings.TrimSpace(getenv("SESSION_JWT_SECRET", "")),
			IdleTTL:       getenvDuration("SESSION_IDLE_TTL", 24*time.Hour),
			SweepInterval: getenvDuration("SESSION_SWEEP_INTERVAL", time.Hour),
		},
		UsageLog: UsageLogConfig{
			BatchSize:     getenvInt("USAGE_LOG_BATCH_SIZE", 100),
			FlushInterval: getenvDuration("USAGE_LOG_FLUSH_INTERVAL", time.Minute),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:     strings.TrimSpace(getenv("RATE_LIMIT_REDIS_ADDR", "")),
			RedisPassword: getenv("RATE_LIMIT_REDIS_PASSWORD", ""),
			RedisDB:       getenvInt("RATE_LIMIT_REDIS_DB", 0),
			ChatRate:      getenvFloat("RATE_LIMIT_CHAT_RATE", 1),
			ChatBurst:     getenvInt("RATE_LIMIT_CHAT_BURST", 5),
		},

		DefaultQuota:   getenvInt64("DEFAULT_QUOTA", 1000000),
		DefaultBotName: getenv("DEFAULT_BOT_NAME", "AI Assistant"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
