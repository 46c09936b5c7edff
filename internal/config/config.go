package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	SMTP      SMTPConfig
	Ai        AIConfig
	Pipeline  PipelineConfig
	Audit     AuditConfig
	Resilient ResilienceConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	SessionStore       string // "memory" or "redis"
	JWTSecret          string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
	AlertEmail string // Dead-letter alert recipient
}

type AIConfig struct {
	LLMProvider       string // "openai" or "ollama"
	LLMModel          string
	LLMBaseURL        string
	OpenAIAPIKey      string
	EmbeddingProvider string // "gemini" or "ollama"
	GeminiAPIKey      string
	OllamaBaseURL     string
	OllamaModel       string
}

type PipelineConfig struct {
	OverallTimeout      time.Duration
	ClassifyTimeout     time.Duration
	RetrieveTimeout     time.Duration
	GenerateTimeout     time.Duration
	MaxQueryLength      int
	ConfidenceThreshold float64
	SensitiveCeiling    float64
	NoContextCap        float64
	RetrievalTopK       int
	RetrievalScoreFloor float64
	SensitiveAllowList  []string
}

type AuditConfig struct {
	QueueSize      int
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

type ResilienceConfig struct {
	FailureThreshold int
	RecoveryTimeout  time.Duration
	SuccessThreshold int
	RetryAttempts    int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			SessionStore:       getEnv("SESSION_STORE", "memory"),
			JWTSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "ContactIQ"),
			AlertEmail: getEnv("AUDIT_ALERT_EMAIL", ""),
		},
		Ai: AIConfig{
			LLMProvider:       getEnv("LLM_PROVIDER", "openai"),
			LLMModel:          getEnv("LLM_MODEL", "gpt-4o-mini"),
			LLMBaseURL:        getEnv("LLM_BASE_URL", ""),
			OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			GeminiAPIKey:      getEnv("GOOGLE_GEMINI_API_KEY", ""),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
		},
		Pipeline: PipelineConfig{
			OverallTimeout:      getEnvAsDuration("PIPELINE_TIMEOUT", 30*time.Second),
			ClassifyTimeout:     getEnvAsDuration("CLASSIFY_TIMEOUT", 10*time.Second),
			RetrieveTimeout:     getEnvAsDuration("RETRIEVE_TIMEOUT", 8*time.Second),
			GenerateTimeout:     getEnvAsDuration("GENERATE_TIMEOUT", 15*time.Second),
			MaxQueryLength:      getEnvAsInt("MAX_QUERY_LENGTH", 4000),
			ConfidenceThreshold: getEnvAsFloat("CONFIDENCE_THRESHOLD", 0.68),
			SensitiveCeiling:    getEnvAsFloat("SENSITIVE_CONFIDENCE_CEILING", 0.6),
			NoContextCap:        getEnvAsFloat("NO_CONTEXT_CONFIDENCE_CAP", 0.2),
			RetrievalTopK:       getEnvAsInt("RETRIEVAL_TOP_K", 5),
			RetrievalScoreFloor: getEnvAsFloat("RETRIEVAL_SCORE_FLOOR", 0.35),
			SensitiveAllowList:  getEnvAsList("SENSITIVE_ALLOW_LIST", []string{"password_reset"}),
		},
		Audit: AuditConfig{
			QueueSize:      getEnvAsInt("AUDIT_QUEUE_SIZE", 256),
			MaxAttempts:    getEnvAsInt("AUDIT_MAX_ATTEMPTS", 3),
			InitialBackoff: getEnvAsDuration("AUDIT_INITIAL_BACKOFF", 500*time.Millisecond),
			MaxBackoff:     getEnvAsDuration("AUDIT_MAX_BACKOFF", 5*time.Second),
		},
		Resilient: ResilienceConfig{
			FailureThreshold: getEnvAsInt("BREAKER_FAILURE_THRESHOLD", 3),
			RecoveryTimeout:  getEnvAsDuration("BREAKER_RECOVERY_TIMEOUT", 30*time.Second),
			SuccessThreshold: getEnvAsInt("BREAKER_SUCCESS_THRESHOLD", 2),
			RetryAttempts:    getEnvAsInt("GATEWAY_RETRY_ATTEMPTS", 3),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(strValue, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
